package geocoding_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/mapdriver/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNominatimProvider_Geocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	unlimited := rate.NewLimiter(rate.Inf, 0)

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Contains(t, req.URL.String(), geocoding.NominatimBaseURL)
				assert.Equal(t, "1600 Amphitheatre Parkway, Mountain View, CA", req.URL.Query().Get("q"))
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))
				assert.Contains(t, req.Header.Get("User-Agent"), "MapDriver/1.0")

				return respond(http.StatusOK, `[{"lat":"37.4224764","lon":"-122.0842499"}]`)(req)
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, unlimited, logger)
		coords, err := provider.Geocode(ctx, "1600 Amphitheatre Parkway, Mountain View, CA")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.InEpsilon(t, 37.4224764, coords.Latitude, 0.0001)
		assert.InEpsilon(t, -122.0842499, coords.Longitude, 0.0001)
	})

	t.Run("empty response is not found", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusOK, `[]`)}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, unlimited, logger)
		coords, err := provider.Geocode(ctx, "invalid address")

		require.NoError(t, err)
		require.Nil(t, coords)
	})

	t.Run("HTTP error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusTooManyRequests, `{"error":"Rate limit exceeded"}`)}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, unlimited, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.ErrorIs(t, err, geocoding.ErrNetwork)
		require.Nil(t, coords)
		assert.Contains(t, err.Error(), "API returned status 429")
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusOK, `invalid json`)}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, unlimited, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.ErrorIs(t, err, geocoding.ErrParse)
		require.Nil(t, coords)
		assert.Contains(t, err.Error(), "failed to decode nominatim response")
	})

	t.Run("invalid latitude in response", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusOK, `[{"lat":"invalid","lon":"-122.0842499"}]`)}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, unlimited, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.ErrorIs(t, err, geocoding.ErrNominatimInvalidCoords)
		require.Nil(t, coords)
		assert.Contains(t, err.Error(), "invalid latitude")
	})

	t.Run("invalid longitude in response", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusOK, `[{"lat":"37.4224764","lon":"invalid"}]`)}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, unlimited, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.ErrorIs(t, err, geocoding.ErrNominatimInvalidCoords)
		require.Nil(t, coords)
		assert.Contains(t, err.Error(), "invalid longitude")
	})

	t.Run("HTTP client returns error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, unlimited, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.ErrorIs(t, err, geocoding.ErrNetwork)
		require.Nil(t, coords)
	})

	t.Run("cancelled context stops the limiter wait", func(t *testing.T) {
		newCtx, cancel := context.WithCancel(context.Background())
		cancel()

		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				t.Fatal("request must not be sent")
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, rate.NewLimiter(1, 1), logger)
		coords, err := provider.Geocode(newCtx, "some address")

		require.ErrorIs(t, err, context.Canceled)
		require.Nil(t, coords)
	})
}

func TestNominatimProvider_AddressFallback(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	unlimited := rate.NewLimiter(rate.Inf, 0)

	t.Run("falls back to the town when the street is unknown", func(t *testing.T) {
		var queries []string
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				query := req.URL.Query().Get("q")
				queries = append(queries, query)
				if query == "Fulham" {
					return respond(http.StatusOK, `[{"lat":"51.4736","lon":"-0.2033"}]`)(req)
				}
				return respond(http.StatusOK, `[]`)(req)
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, unlimited, logger)
		coords, err := provider.Geocode(ctx, "Fulham, Nowhere Road, 999")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.InEpsilon(t, 51.4736, coords.Latitude, 0.0001)
		assert.Equal(t, []string{"Fulham, Nowhere Road, 999", "Fulham, Nowhere Road", "Fulham"}, queries)
	})

	t.Run("single-part address no fallback", func(t *testing.T) {
		requestCount := 0
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				requestCount++
				return respond(http.StatusOK, `[]`)(req)
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, unlimited, logger)
		coords, err := provider.Geocode(ctx, "SW6")

		require.NoError(t, err)
		require.Nil(t, coords)
		assert.Equal(t, 1, requestCount, "single-part address should only try once")
	})

	t.Run("hard errors stop the fallback chain", func(t *testing.T) {
		requestCount := 0
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				requestCount++
				return respond(http.StatusInternalServerError, `boom`)(req)
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, unlimited, logger)
		_, err := provider.Geocode(ctx, "a, b, c")

		require.ErrorIs(t, err, geocoding.ErrNetwork)
		assert.Equal(t, 1, requestCount)
	})
}

func TestNewNominatimProvider(t *testing.T) {
	provider := geocoding.NewNominatimProvider(slog.Default())

	require.NotNil(t, provider)
}
