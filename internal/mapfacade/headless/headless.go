// Package headless implements the map facade in memory. It renders nothing;
// it keeps positions, viewports and popups so a driver can run without a
// widget toolkit, and lets callers fire marker events by hand.
package headless

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/UnknownOlympus/mapdriver/internal/mapfacade"
	"github.com/UnknownOlympus/mapdriver/internal/models"
	geom "github.com/peterstace/simplefeatures/geom"
)

var (
	ErrNilContainer = errors.New("headless: map container is nil")
	ErrForeignMap   = errors.New("headless: map was not created by this library")
)

// Library is the in-memory widget library.
type Library struct {
	log *slog.Logger
}

var _ mapfacade.Library = (*Library)(nil)

// NewLibrary creates a headless Library.
func NewLibrary(log *slog.Logger) *Library {
	return &Library{log: log}
}

// CreateMap creates a map rendered into container.
func (l *Library) CreateMap(container mapfacade.Element, opts mapfacade.MapOptions) (mapfacade.Map, error) {
	if container == nil {
		return nil, ErrNilContainer
	}
	opts = opts.WithDefaults()
	l.log.Debug("Creating headless map", "container", container.NodeName(), "zoom", *opts.Zoom)

	return &Map{container: container, options: opts, markers: make(map[*Marker]struct{})}, nil
}

// CreateMarker creates a marker attached to m.
func (l *Library) CreateMarker(m mapfacade.Map, opts mapfacade.MarkerOptions) (mapfacade.Marker, error) {
	hm, ok := m.(*Map)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrForeignMap, m)
	}

	marker := &Marker{pos: opts.Position, options: opts, listeners: make(map[string][]func())}
	marker.SetMap(hm)

	return marker, nil
}

// CreatePosition returns the coordinate value.
func (l *Library) CreatePosition(lat, lng float64) models.Coordinates {
	return models.Coordinates{Latitude: lat, Longitude: lng}
}

// CreateBounds returns empty bounds.
func (l *Library) CreateBounds() mapfacade.Bounds {
	return &Bounds{log: l.log}
}

// CreateInfoWindow returns a closed info window.
func (l *Library) CreateInfoWindow() mapfacade.InfoWindow {
	return &InfoWindow{}
}

// Map keeps the viewport and the markers attached to it.
type Map struct {
	mu        sync.Mutex
	container mapfacade.Element
	options   mapfacade.MapOptions
	viewport  geom.Envelope
	fits      int
	markers   map[*Marker]struct{}
}

// FitBounds moves the viewport to b. Foreign bounds are ignored.
func (m *Map) FitBounds(b mapfacade.Bounds) {
	hb, ok := b.(*Bounds)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = hb.Envelope()
	m.fits++
}

// Viewport returns the region of the last FitBounds call.
func (m *Map) Viewport() geom.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.viewport
}

// FitCount reports how many times FitBounds ran.
func (m *Map) FitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.fits
}

// Options returns the options the map was created with.
func (m *Map) Options() mapfacade.MapOptions {
	return m.options
}

// Container returns the element the map renders into.
func (m *Map) Container() mapfacade.Element {
	return m.container
}

// Markers returns the number of markers attached.
func (m *Map) Markers() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.markers)
}

func (m *Map) attach(marker *Marker) {
	m.mu.Lock()
	m.markers[marker] = struct{}{}
	m.mu.Unlock()
}

func (m *Map) detach(marker *Marker) {
	m.mu.Lock()
	delete(m.markers, marker)
	m.mu.Unlock()
}

// Marker is an in-memory marker.
type Marker struct {
	mu        sync.Mutex
	pos       models.Coordinates
	options   mapfacade.MarkerOptions
	m         *Map
	listeners map[string][]func()
}

// Position returns the current position.
func (mk *Marker) Position() models.Coordinates {
	mk.mu.Lock()
	defer mk.mu.Unlock()

	return mk.pos
}

// SetPosition moves the marker.
func (mk *Marker) SetPosition(pos models.Coordinates) {
	mk.mu.Lock()
	defer mk.mu.Unlock()
	mk.pos = pos
}

// SetMap attaches the marker to m, or detaches it when m is nil or foreign.
func (mk *Marker) SetMap(m mapfacade.Map) {
	hm, _ := m.(*Map)

	mk.mu.Lock()
	prev := mk.m
	mk.m = hm
	mk.mu.Unlock()

	if prev != nil && prev != hm {
		prev.detach(mk)
	}
	if hm != nil {
		hm.attach(mk)
	}
}

// Attached reports whether the marker is on a map.
func (mk *Marker) Attached() bool {
	mk.mu.Lock()
	defer mk.mu.Unlock()

	return mk.m != nil
}

// Options returns the options the marker was created with.
func (mk *Marker) Options() mapfacade.MarkerOptions {
	return mk.options
}

// AddListener registers fn for event.
func (mk *Marker) AddListener(event string, fn func()) {
	mk.mu.Lock()
	defer mk.mu.Unlock()
	mk.listeners[event] = append(mk.listeners[event], fn)
}

// Trigger calls every listener registered for event and reports how many ran.
func (mk *Marker) Trigger(event string) int {
	mk.mu.Lock()
	fns := append([]func(){}, mk.listeners[event]...)
	mk.mu.Unlock()

	for _, fn := range fns {
		fn()
	}

	return len(fns)
}

// Bounds grows an envelope over extended positions. X is longitude, Y latitude.
type Bounds struct {
	mu  sync.Mutex
	env geom.Envelope
	log *slog.Logger
}

// Extend grows the bounds to include pos. Positions with NaN or infinite
// components are skipped and leave the bounds unchanged.
func (b *Bounds) Extend(pos models.Coordinates) {
	b.mu.Lock()
	defer b.mu.Unlock()

	env, err := b.env.ExtendToIncludeXY(geom.XY{X: pos.Longitude, Y: pos.Latitude})
	if err != nil {
		if b.log != nil {
			b.log.Warn("Skipping invalid position in bounds",
				"lat", pos.Latitude, "lng", pos.Longitude, "error", err)
		}
		return
	}
	b.env = env
}

// IsEmpty reports whether nothing was extended yet.
func (b *Bounds) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.env.IsEmpty()
}

// Envelope returns the covered region.
func (b *Bounds) Envelope() geom.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.env
}

// InfoWindow records its content and anchor.
type InfoWindow struct {
	mu      sync.Mutex
	content string
	m       mapfacade.Map
	anchor  mapfacade.Marker
	opened  int
}

// SetContent replaces the popup text.
func (w *InfoWindow) SetContent(content string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.content = content
}

// Open shows the popup on m above anchor.
func (w *InfoWindow) Open(m mapfacade.Map, anchor mapfacade.Marker) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.m = m
	w.anchor = anchor
	w.opened++
}

// Content returns the current text.
func (w *InfoWindow) Content() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.content
}

// Anchor returns the marker the popup was last opened on.
func (w *InfoWindow) Anchor() mapfacade.Marker {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.anchor
}

// OpenCount reports how many times Open ran.
func (w *InfoWindow) OpenCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.opened
}

// Document is a selector table standing in for a DOM.
type Document struct {
	mu       sync.Mutex
	elements map[string]*Element
}

var _ mapfacade.Document = (*Document)(nil)

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{elements: make(map[string]*Element)}
}

// Register makes selector resolve to an element named nodeName.
func (d *Document) Register(selector, nodeName string) *Element {
	el := &Element{name: nodeName}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[selector] = el

	return el
}

// QuerySelector returns the registered element or nil.
func (d *Document) QuerySelector(selector string) mapfacade.Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	el, ok := d.elements[selector]
	if !ok {
		return nil
	}

	return el
}

// Element is a named container.
type Element struct {
	name string
}

// NodeName returns the element's tag name.
func (e *Element) NodeName() string {
	return e.name
}
