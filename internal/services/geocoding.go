package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// GoogleMapsBaseURL is the default host for the Geocoding API
const GoogleMapsBaseURL = "https://maps.googleapis.com"

// Geocoder resolves free-text unit locations to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Address, error)
}

// Coordinates represents latitude and longitude
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Address represents a full address
type Address struct {
	FormattedAddress string      `json:"formatted_address"`
	Coordinates      Coordinates `json:"coordinates"`
}

// GoogleGeocodeResponse represents the Google Maps Geocoding API response
type GoogleGeocodeResponse struct {
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location Coordinates `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// GeocodingService handles geocoding using the Google Maps API
type GeocodingService struct {
	apiKey string
	client *resty.Client
	logger *zap.Logger
}

// NewGeocodingService creates a new geocoding service against baseURL
func NewGeocodingService(apiKey, baseURL string, logger *zap.Logger) (*GeocodingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_MAPS_API_KEY is required")
	}
	if baseURL == "" {
		baseURL = GoogleMapsBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json")

	return &GeocodingService{apiKey: apiKey, client: client, logger: logger}, nil
}

// Geocode converts an address string to coordinates
func (s *GeocodingService) Geocode(ctx context.Context, address string) (*Address, error) {
	var result GoogleGeocodeResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"address": address,
			"key":     s.apiKey,
		}).
		SetResult(&result).
		Get("/maps/api/geocode/json")
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("API returned status code %d", resp.StatusCode())
	}

	if result.Status != "OK" {
		s.logger.Debug("geocoding returned non-OK status",
			zap.String("status", result.Status),
			zap.String("error_message", result.ErrorMessage),
		)
		return nil, fmt.Errorf("geocoding API returned status: %s", result.Status)
	}

	if len(result.Results) == 0 {
		return nil, fmt.Errorf("no results found for address: %s", address)
	}

	firstResult := result.Results[0]
	return &Address{
		FormattedAddress: firstResult.FormattedAddress,
		Coordinates:      firstResult.Geometry.Location,
	}, nil
}
