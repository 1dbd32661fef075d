// Package mapfacade describes the interactive map widget library the driver
// composes. Implementations wrap a concrete widget toolkit; the headless
// subpackage keeps everything in memory.
package mapfacade

import "github.com/UnknownOlympus/mapdriver/internal/models"

// Library constructs map objects.
type Library interface {
	CreateMap(container Element, opts MapOptions) (Map, error)
	CreateMarker(m Map, opts MarkerOptions) (Marker, error)
	CreatePosition(lat, lng float64) models.Coordinates
	CreateBounds() Bounds
	CreateInfoWindow() InfoWindow
}

// Map is a rendered map instance.
type Map interface {
	FitBounds(b Bounds)
}

// Marker is a positioned handle rendered on a Map.
type Marker interface {
	Position() models.Coordinates
	SetPosition(pos models.Coordinates)
	// SetMap attaches the marker to m, or detaches it when m is nil.
	SetMap(m Map)
	AddListener(event string, fn func())
}

// Bounds is a rectangular region grown by Extend.
type Bounds interface {
	Extend(pos models.Coordinates)
	IsEmpty() bool
}

// InfoWindow is a popup anchored to a marker.
type InfoWindow interface {
	SetContent(content string)
	Open(m Map, anchor Marker)
}

// Document resolves container selectors, as a DOM would.
type Document interface {
	// QuerySelector returns nil when nothing matches.
	QuerySelector(selector string) Element
}

// Element is a container the map renders into.
type Element interface {
	NodeName() string
}

// EventClick is fired when a marker is clicked.
const EventClick = "click"
