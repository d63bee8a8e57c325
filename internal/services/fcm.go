package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"compost-backend/internal/compost"
	"compost-backend/internal/metrics"
	"compost-backend/internal/models"
)

// messageSender is the part of the FCM messaging client we use
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMService sends Firebase Cloud Messaging notifications about units to their owners
type FCMService struct {
	client messageSender
	tokens TokenStore
	logger *zap.Logger
}

// NewFCMService creates a new FCM service instance from a credentials file
func NewFCMService(ctx context.Context, credentialsFile string, tokens TokenStore, logger *zap.Logger) (*FCMService, error) {
	return newFCMService(ctx, option.WithCredentialsFile(credentialsFile), tokens, logger)
}

// NewFCMServiceFromBase64 creates a new FCM service instance from base64-encoded credentials.
// This is useful for cloud deployments where you can't upload files easily.
func NewFCMServiceFromBase64(ctx context.Context, credentialsBase64 string, tokens TokenStore, logger *zap.Logger) (*FCMService, error) {
	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}
	return newFCMService(ctx, option.WithCredentialsJSON(credentialsJSON), tokens, logger)
}

func newFCMService(ctx context.Context, opt option.ClientOption, tokens TokenStore, logger *zap.Logger) (*FCMService, error) {
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client, tokens: tokens, logger: logger}, nil
}

// NotifyUnitFull sends a "unit full" alert to the owner's latest registered device.
// Owners without a device are skipped silently.
func (s *FCMService) NotifyUnitFull(ctx context.Context, ownerID string, unit *models.CompostUnit) error {
	token, err := s.tokens.LatestFCMToken(ctx, ownerID)
	if errors.Is(err, compost.ErrNotFound) {
		metrics.UnitFullNotifications.WithLabelValues("no_device").Inc()
		return nil
	}
	if err != nil {
		metrics.UnitFullNotifications.WithLabelValues("error").Inc()
		return err
	}

	percentage := compost.UnitCapacityPercentage(unit)
	message := &messaging.Message{
		Token: token.Token,
		Notification: &messaging.Notification{
			Title: "Compost unit full",
			Body:  fmt.Sprintf("%s is at %.0f%% of its %d kg capacity. Time to harvest.", unit.Name, percentage, unit.Capacity),
		},
		Data: map[string]string{
			"type":                "unit_full",
			"unit_id":             unit.ID,
			"capacity_percentage": strconv.FormatFloat(percentage, 'f', 1, 64),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	response, err := s.client.Send(ctx, message)
	if err != nil {
		metrics.UnitFullNotifications.WithLabelValues("error").Inc()
		return fmt.Errorf("error sending FCM message: %w", err)
	}

	metrics.UnitFullNotifications.WithLabelValues("sent").Inc()
	s.logger.Info("✅ FCM notification sent successfully",
		zap.String("response", response),
		zap.String("unit_id", unit.ID),
		zap.String("device_type", token.DeviceType),
	)
	return nil
}
