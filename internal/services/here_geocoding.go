package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// HEREBaseURL is the default host for the HERE Geocoding API
const HEREBaseURL = "https://geocode.search.hereapi.com"

// HEREGeocodeResponse represents the response from HERE Geocoding API
type HEREGeocodeResponse struct {
	Items []struct {
		Position struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"position"`
		Address struct {
			Label string `json:"label"`
		} `json:"address"`
		Scoring struct {
			QueryScore float64 `json:"queryScore"`
		} `json:"scoring"`
	} `json:"items"`
}

// HEREGeocodingService handles geocoding operations using HERE Maps API
type HEREGeocodingService struct {
	apiKey string
	client *resty.Client
	logger *zap.Logger
}

// NewHEREGeocodingService creates a new HERE geocoding service against baseURL
func NewHEREGeocodingService(apiKey, baseURL string, logger *zap.Logger) (*HEREGeocodingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("HERE_API_KEY is required")
	}
	if baseURL == "" {
		baseURL = HEREBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json")

	return &HEREGeocodingService{apiKey: apiKey, client: client, logger: logger}, nil
}

// Geocode returns the best HERE match for address
func (s *HEREGeocodingService) Geocode(ctx context.Context, address string) (*Address, error) {
	s.logger.Debug("🌍 Geocoding", zap.String("address", address))

	var result HEREGeocodeResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      address,
			"apiKey": s.apiKey,
		}).
		SetResult(&result).
		Get("/v1/geocode")
	if err != nil {
		return nil, fmt.Errorf("failed to make geocoding request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("geocoding API returned status %d: %s", resp.StatusCode(), resp.String())
	}

	if len(result.Items) == 0 {
		return nil, fmt.Errorf("no geocoding results found for address: %s", address)
	}

	best := result.Items[0]
	s.logger.Debug("✅ Geocoded",
		zap.Float64("lat", best.Position.Lat),
		zap.Float64("lng", best.Position.Lng),
		zap.Float64("confidence", best.Scoring.QueryScore),
	)
	return &Address{
		FormattedAddress: best.Address.Label,
		Coordinates:      Coordinates{Lat: best.Position.Lat, Lng: best.Position.Lng},
	}, nil
}
