package geocoding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/mapdriver/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleMapsProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services through the official SDK.
type GoogleMapsProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// NewGoogleMapsProvider wraps an SDK client.
func NewGoogleMapsProvider(client GoogleAPIClient, log *slog.Logger) *GoogleMapsProvider {
	return &GoogleMapsProvider{client: client, log: log}
}

// Geocode returns the location of the first SDK result, or nil when the API
// reports zero results. The SDK maps ZERO_RESULTS to an empty slice.
func (gp *GoogleMapsProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps SDK", "address", address)

	req := maps.GeocodingRequest{Address: address}
	geocodeResponse, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to geocode address: %w", ErrNetwork, err)
	}

	if len(geocodeResponse) == 0 {
		return nil, nil //nolint:nilnil // not found is a normal outcome
	}
	coords := geocodeResponse[0].Geometry.Location

	return &models.Coordinates{Latitude: coords.Lat, Longitude: coords.Lng}, nil
}
