package geocoding

import (
	"context"
	"time"

	"github.com/UnknownOlympus/mapdriver/internal/metrics"
	"github.com/UnknownOlympus/mapdriver/internal/models"
)

// Instrumented records duration and outcome of every lookup of the wrapped provider.
type Instrumented struct {
	next    Provider
	name    string
	metrics *metrics.Metrics
}

// NewInstrumented wraps next, labelling its metrics with name.
func NewInstrumented(next Provider, name string, metrics *metrics.Metrics) *Instrumented {
	return &Instrumented{next: next, name: name, metrics: metrics}
}

// Geocode delegates to the wrapped provider.
func (ip *Instrumented) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	startTime := time.Now()
	coords, err := ip.next.Geocode(ctx, address)
	ip.metrics.GeocodeSeconds.WithLabelValues(ip.name).Observe(time.Since(startTime).Seconds())

	status := "found"
	switch {
	case err != nil:
		status = "error"
	case coords == nil:
		status = "not_found"
	}
	ip.metrics.GeocodeResults.WithLabelValues(ip.name, status).Inc()

	return coords, err
}

// Unwrap returns the wrapped provider.
func (ip *Instrumented) Unwrap() Provider {
	return ip.next
}
