package geocoding

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/mapdriver/internal/models"
)

// Provider is an interface that defines a method for geocoding an address.
// The Geocode method takes a context and an address string as input and
// returns the corresponding coordinates. A nil result with a nil error means
// the provider answered but knows no such place; callers must check for it.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Failure classes shared by every provider.
var (
	// ErrNetwork wraps transport failures and unexpected HTTP statuses.
	ErrNetwork = errors.New("geocoding request failed")
	// ErrParse wraps response bodies that could not be decoded.
	ErrParse = errors.New("geocoding response could not be parsed")
)
