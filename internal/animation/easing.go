// Package animation moves map markers between coordinates over a sequence of
// rendering frames using a quadratic ease-in-out curve.
package animation

import "github.com/UnknownOlympus/mapdriver/internal/models"

// EaseInOutQuad maps progress t in [0,1] to eased progress in [0,1].
// Input outside the range is extrapolated, not clamped.
func EaseInOutQuad(t float64) float64 {
	const half = 0.5
	if t < half {
		return 2 * t * t
	}

	return -1 + (4-2*t)*t
}

// Interpolate returns the eased position for frame out of totalFrames on the
// way from one coordinate to another. A zero totalFrames collapses to the
// destination.
func Interpolate(frame, totalFrames int, from, to models.Coordinates) models.Coordinates {
	progress := 1.0
	if totalFrames > 0 {
		progress = float64(frame) / float64(totalFrames)
	}
	eased := EaseInOutQuad(progress)

	return models.Coordinates{
		Latitude:  from.Latitude + eased*(to.Latitude-from.Latitude),
		Longitude: from.Longitude + eased*(to.Longitude-from.Longitude),
	}
}
