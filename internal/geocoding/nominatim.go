package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/mapdriver/internal/models"
	"golang.org/x/time/rate"
)

// NominatimBaseURL is the public OpenStreetMap search endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// nominatimUserAgent must identify the application per the Nominatim usage
// policy: https://operations.osmfoundation.org/policies/nominatim/
const nominatimUserAgent = "MapDriver/1.0 (https://github.com/UnknownOlympus/mapdriver)"

// ErrNominatimInvalidCoords is returned when a result carries unparsable coordinates.
var ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")

// errNominatimNoResult marks an address variation without matches.
var errNominatimNoResult = errors.New("nominatim API returned no result")

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// The public instance allows one request per second, enforced by limiter.
type NominatimProvider struct {
	client  HTTPClient
	baseURL string
	limiter *rate.Limiter
	log     *slog.Logger
}

// nominatimResponse represents one JSON result from Nominatim API.
type nominatimResponse struct {
	Lat string `json:"lat"` // Latitude as string
	Lon string `json:"lon"` // Longitude as string
}

// NewNominatimProvider creates a provider for the public endpoint limited to
// one request per second.
func NewNominatimProvider(log *slog.Logger) *NominatimProvider {
	return NewNominatimProviderWithClient(newHTTPClient(), rate.NewLimiter(rate.Every(time.Second), 1), log)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom
// HTTP client and limiter.
func NewNominatimProviderWithClient(client HTTPClient, limiter *rate.Limiter, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:  client,
		baseURL: NominatimBaseURL,
		limiter: limiter,
		log:     log,
	}
}

// Geocode converts an address to coordinates. When the full address has no
// match it retries with trailing comma-separated components removed, down to
// the first component. Nil with no error means no variation matched.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	np.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	variations := addressFallbacks(address)
	for level, variation := range variations {
		coords, err := np.search(ctx, variation)
		if errors.Is(err, errNominatimNoResult) {
			np.log.DebugContext(ctx, "Address variation returned no results", "variation", variation, "level", level)
			continue
		}
		if err != nil {
			return nil, err
		}
		if level > 0 {
			np.log.InfoContext(ctx, "Geocoded using fallback address",
				"original", address, "fallback", variation, "level", level)
		}

		return coords, nil
	}

	np.log.WarnContext(ctx, "All address fallbacks exhausted", "address", address, "variations", len(variations))

	return nil, nil //nolint:nilnil // not found is a normal outcome
}

// addressFallbacks returns address followed by progressively shorter prefixes
// of its comma-separated components, without duplicates.
func addressFallbacks(address string) []string {
	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	seen := make(map[string]bool, len(parts))
	variations := []string{address}
	seen[address] = true
	for n := len(parts) - 1; n >= 1; n-- {
		v := strings.Join(parts[:n], ", ")
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		variations = append(variations, v)
	}

	return variations
}

func (np *NominatimProvider) search(ctx context.Context, address string) (*models.Coordinates, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait aborted: %w", err)
	}

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	reqURL.RawQuery = query.Encode()

	header := http.Header{}
	header.Set("User-Agent", nominatimUserAgent)
	header.Set("Accept", "application/json")

	body, err := fetch(ctx, np.client, np.log, reqURL.String(), header)
	if err != nil {
		return nil, err
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return nil, fmt.Errorf("%w: failed to decode nominatim response: %w", ErrParse, err)
	}
	if len(results) == 0 {
		return nil, errNominatimNoResult
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, results[0].Lon)
	}

	return &models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
