package mapfacade

import "github.com/UnknownOlympus/mapdriver/internal/models"

// Map type identifiers understood by widget libraries.
const (
	MapTypeRoadmap   = "roadmap"
	MapTypeSatellite = "satellite"
	MapTypeHybrid    = "hybrid"
	MapTypeTerrain   = "terrain"
)

// Defaults applied to unset MapOptions fields.
const (
	DefaultZoom    = 14
	DefaultMaxZoom = 17
)

// DefaultCenter is where a map opens when no center is configured.
var DefaultCenter = models.Coordinates{Latitude: 51.473663, Longitude: -0.203287}

// MapOptions configures a new map. Nil pointer fields take the defaults from
// DefaultMapOptions.
type MapOptions struct {
	Center      *models.Coordinates
	MapTypeID   string
	Zoom        *int
	Scrollwheel *bool
	MaxZoom     *int
}

// DefaultMapOptions returns fully populated defaults.
func DefaultMapOptions() MapOptions {
	center := DefaultCenter
	zoom, maxZoom, scrollwheel := DefaultZoom, DefaultMaxZoom, false

	return MapOptions{
		Center:      &center,
		MapTypeID:   MapTypeRoadmap,
		Zoom:        &zoom,
		Scrollwheel: &scrollwheel,
		MaxZoom:     &maxZoom,
	}
}

// WithDefaults returns a copy of o with every unset field filled in.
func (o MapOptions) WithDefaults() MapOptions {
	def := DefaultMapOptions()
	if o.Center == nil {
		o.Center = def.Center
	}
	if o.MapTypeID == "" {
		o.MapTypeID = def.MapTypeID
	}
	if o.Zoom == nil {
		o.Zoom = def.Zoom
	}
	if o.Scrollwheel == nil {
		o.Scrollwheel = def.Scrollwheel
	}
	if o.MaxZoom == nil {
		o.MaxZoom = def.MaxZoom
	}

	return o
}

// MarkerOptions configures a new marker.
type MarkerOptions struct {
	Position  models.Coordinates
	Title     string
	Label     string
	Icon      string
	Draggable bool
}
