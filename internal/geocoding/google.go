package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/UnknownOlympus/mapdriver/internal/models"
)

// GoogleGeocodeURL is the Google Maps geocoding endpoint.
const GoogleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleProvider geocodes through the Google Maps geocode JSON endpoint with
// plain HTTP. Every call is an independent round trip: nothing is cached or
// retried.
type GoogleProvider struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Base URL for the geocode endpoint
	apiKey  string       // API key used by Geocode
	log     *slog.Logger // Logger for logging operations
}

// NewGoogleProvider creates a GoogleProvider using apiKey for Geocode calls.
func NewGoogleProvider(apiKey string, log *slog.Logger) *GoogleProvider {
	return NewGoogleProviderWithClient(newHTTPClient(), apiKey, log)
}

// NewGoogleProviderWithClient creates a GoogleProvider with a custom HTTP client.
func NewGoogleProviderWithClient(client HTTPClient, apiKey string, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{
		client:  client,
		baseURL: GoogleGeocodeURL,
		apiKey:  apiKey,
		log:     log,
	}
}

// Geocode resolves address with the configured API key.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	return gp.AddressToCoordinate(ctx, address, gp.apiKey)
}

// AddressToCoordinate resolves address using apiKey and returns the location
// of the first result. A response without results[0].geometry.location
// yields nil and no error. Transport failures wrap ErrNetwork, bodies that are
// not JSON wrap ErrParse.
func (gp *GoogleProvider) AddressToCoordinate(
	ctx context.Context,
	address, apiKey string,
) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", address)

	reqURL, err := url.Parse(gp.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	query := reqURL.Query()
	query.Set("address", address)
	query.Set("key", apiKey)
	reqURL.RawQuery = encodeQuery(query)

	body, err := fetch(ctx, gp.client, gp.log, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}

	var payload any
	if err = json.Unmarshal(body, &payload); err != nil {
		gp.log.ErrorContext(ctx, "Failed to parse Google response", "error", err)
		return nil, fmt.Errorf("%w: failed to decode google response: %w", ErrParse, err)
	}

	coords, ok := firstResultLocation(payload)
	if !ok {
		gp.log.DebugContext(ctx, "Google returned no location", "address", address)
		return nil, nil //nolint:nilnil // not found is a normal outcome
	}

	return coords, nil
}

// firstResultLocation walks results[0].geometry.location.{lat,lng}.
func firstResultLocation(payload any) (*models.Coordinates, bool) {
	root, ok := payload.(map[string]any)
	if !ok {
		return nil, false
	}
	results, ok := root["results"].([]any)
	if !ok || len(results) == 0 {
		return nil, false
	}
	first, ok := results[0].(map[string]any)
	if !ok {
		return nil, false
	}
	geometry, ok := first["geometry"].(map[string]any)
	if !ok {
		return nil, false
	}
	location, ok := geometry["location"].(map[string]any)
	if !ok {
		return nil, false
	}
	lat, latOK := location["lat"].(float64)
	lng, lngOK := location["lng"].(float64)
	if !latOK || !lngOK {
		return nil, false
	}

	return &models.Coordinates{Latitude: lat, Longitude: lng}, true
}

// encodeQuery encodes spaces as %20 rather than "+", matching what browsers
// send for component-encoded query values.
func encodeQuery(query url.Values) string {
	return strings.ReplaceAll(query.Encode(), "+", "%20")
}
