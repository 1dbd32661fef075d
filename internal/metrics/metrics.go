package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GeocodeResults *prometheus.CounterVec
	GeocodeSeconds *prometheus.HistogramVec
	MarkersActive  prometheus.Gauge
	Animations     *prometheus.CounterVec
	FramesRendered prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		GeocodeResults: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mapdriver_geocode_results_total",
			Help: "Total number of geocoding lookups by outcome (found, not_found, error).",
		}, []string{"provider", "status"}),
		GeocodeSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mapdriver_geocode_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		MarkersActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "mapdriver_markers_active",
			Help: "Current number of markers attached to the map.",
		}),
		Animations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "mapdriver_animations_total",
			Help: "Total number of marker animations by outcome (started, completed, cancelled).",
		}, []string{"outcome"}),
		FramesRendered: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mapdriver_animation_frames_total",
			Help: "Total number of animation frames applied to markers.",
		}),
	}
}
