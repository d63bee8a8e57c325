package services

import (
	"context"
	"fmt"

	"compost-backend/internal/compost"
	"compost-backend/internal/models"
)

// Notifier sends out-of-band alerts to a unit owner.
type Notifier interface {
	NotifyUnitFull(ctx context.Context, ownerID string, unit *models.CompostUnit) error
}

// LiveFeed pushes events to connected clients of a user.
type LiveFeed interface {
	PublishReading(userID string, reading models.SensorReadingResponse)
	PublishUnitFull(userID string, unit models.CompostUnitResponse)
}

// NopNotifier is used when push notifications are not configured.
type NopNotifier struct{}

func (NopNotifier) NotifyUnitFull(context.Context, string, *models.CompostUnit) error { return nil }

// NopLiveFeed is used when no WebSocket hub is running.
type NopLiveFeed struct{}

func (NopLiveFeed) PublishReading(string, models.SensorReadingResponse) {}
func (NopLiveFeed) PublishUnitFull(string, models.CompostUnitResponse)  {}

// ownedUnit loads a unit and hides units that belong to someone else.
func ownedUnit(ctx context.Context, units UnitStore, ownerID, unitID string) (*models.CompostUnit, error) {
	unit, err := units.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit.OwnerID != ownerID {
		return nil, fmt.Errorf("unit %s: %w", unitID, compost.ErrNotFound)
	}
	return unit, nil
}

func unitResponse(u *models.CompostUnit) models.CompostUnitResponse {
	return u.ToCompostUnitResponse(compost.UnitCapacityPercentage(u), compost.IsFull(u))
}

// readingResponse adds the compost phase when the reading carries a temperature.
func readingResponse(r *models.SensorReading) models.SensorReadingResponse {
	resp := r.ToSensorReadingResponse()
	if phase, err := compost.CompostPhase(r.Temperature); err == nil {
		resp.Phase = string(phase)
	}
	return resp
}

func readingResponses(readings []models.SensorReading) []models.SensorReadingResponse {
	out := make([]models.SensorReadingResponse, len(readings))
	for i := range readings {
		out[i] = readingResponse(&readings[i])
	}
	return out
}
