// Package driver orchestrates the lifecycle of markers on a single map:
// creation from coordinates or addresses, animated movement, removal and
// viewport fitting.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/UnknownOlympus/mapdriver/internal/animation"
	"github.com/UnknownOlympus/mapdriver/internal/geocoding"
	"github.com/UnknownOlympus/mapdriver/internal/mapfacade"
	"github.com/UnknownOlympus/mapdriver/internal/metrics"
	"github.com/UnknownOlympus/mapdriver/internal/models"
)

// MarkerID is an opaque handle to a marker owned by a MapDriver.
type MarkerID uint64

// MapDriver owns a map and the markers placed on it.
type MapDriver struct {
	lib      mapfacade.Library   // Widget library that builds map objects
	m        mapfacade.Map       // The map every marker is attached to
	geocoder geocoding.Provider  // Resolves postal addresses, may be nil
	animator *animation.Animator // Runs marker movements
	log      *slog.Logger        // Logger for driver activities
	metrics  *metrics.Metrics    // Metrics for marker lifecycle

	mu      sync.Mutex
	nextID  MarkerID
	markers map[MarkerID]mapfacade.Marker
	order   []MarkerID // replaced, never mutated in place
	info    mapfacade.InfoWindow
}

// New validates the host and creates the map inside the element matched by
// selector. It fails with ErrPrecondition when the library or document is
// missing or the selector resolves to no usable element. A nil geocoder
// disables PostalAddress locations.
func New(
	lib mapfacade.Library,
	doc mapfacade.Document,
	selector string,
	opts mapfacade.MapOptions,
	geocoder geocoding.Provider,
	scheduler animation.FrameScheduler,
	log *slog.Logger,
	metrics *metrics.Metrics,
) (*MapDriver, error) {
	if lib == nil {
		return nil, fmt.Errorf("%w: New: map library not loaded", ErrPrecondition)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: New: no document to query %q", ErrPrecondition, selector)
	}
	container := doc.QuerySelector(selector)
	if container == nil || container.NodeName() == "" {
		return nil, fmt.Errorf("%w: New: invalid map container from selector: %s", ErrPrecondition, selector)
	}

	m, err := lib.CreateMap(container, opts.WithDefaults())
	if err != nil {
		return nil, fmt.Errorf("failed to create map: %w", err)
	}
	log.Debug("Map created", "selector", selector, "container", container.NodeName())

	return &MapDriver{
		lib:      lib,
		m:        m,
		geocoder: geocoder,
		animator: animation.NewAnimator(scheduler, log, metrics),
		log:      log,
		metrics:  metrics,
		markers:  make(map[MarkerID]mapfacade.Marker),
	}, nil
}

// Map returns the underlying map.
func (d *MapDriver) Map() mapfacade.Map {
	return d.m
}

// CreateMarker places a marker at cfg.Location and adds it to the collection.
// Postal addresses are geocoded first; an address the geocoder cannot place
// fails with ErrPrecondition wrapping ErrAddressNotFound, while transport and
// parse failures are returned as they are. A nil ContentFunc is rejected
// with ErrPrecondition.
func (d *MapDriver) CreateMarker(ctx context.Context, cfg MarkerConfig) (MarkerID, error) {
	if fn, ok := cfg.InfoContent.(ContentFunc); ok && fn == nil {
		return 0, fmt.Errorf("%w: CreateMarker: nil info window content producer", ErrPrecondition)
	}

	pos, err := d.resolve(ctx, cfg.Location)
	if err != nil {
		return 0, err
	}

	marker, err := d.lib.CreateMarker(d.m, cfg.options(pos))
	if err != nil {
		return 0, fmt.Errorf("failed to create marker: %w", err)
	}

	if cfg.InfoContent != nil {
		content := cfg.InfoContent
		marker.AddListener(mapfacade.EventClick, func() { d.showInfo(marker, content) })
	}

	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.markers[id] = marker
	d.order = append(slices.Clip(d.order), id)
	d.mu.Unlock()

	d.metrics.MarkersActive.Inc()
	d.log.DebugContext(ctx, "Marker created", "id", id, "lat", pos.Latitude, "lng", pos.Longitude)

	return id, nil
}

func (d *MapDriver) resolve(ctx context.Context, loc models.Location) (models.Coordinates, error) {
	switch loc := loc.(type) {
	case models.Coordinates:
		return d.lib.CreatePosition(loc.Latitude, loc.Longitude), nil
	case models.PostalAddress:
		if d.geocoder == nil {
			return models.Coordinates{}, fmt.Errorf("%w: CreateMarker: no geocoder for address %q", ErrPrecondition, loc)
		}
		coords, err := d.geocoder.Geocode(ctx, string(loc))
		if err != nil {
			return models.Coordinates{}, fmt.Errorf("failed to geocode address %q: %w", loc, err)
		}
		if coords == nil {
			return models.Coordinates{}, fmt.Errorf("%w: CreateMarker: %w: %q", ErrPrecondition, ErrAddressNotFound, loc)
		}
		return d.lib.CreatePosition(coords.Latitude, coords.Longitude), nil
	case nil:
		return models.Coordinates{}, fmt.Errorf("%w: CreateMarker: no marker position provided", ErrPrecondition)
	default:
		return models.Coordinates{}, fmt.Errorf("%w: CreateMarker: unsupported location %T", ErrPrecondition, loc)
	}
}

func (d *MapDriver) showInfo(marker mapfacade.Marker, content Content) {
	d.mu.Lock()
	if d.info == nil {
		d.info = d.lib.CreateInfoWindow()
	}
	info := d.info
	d.mu.Unlock()

	info.SetContent(content.resolve())
	info.Open(d.m, marker)
}

// MoveMarker animates the marker to destination, by default over one second.
// A running animation of the same marker is cancelled. The returned task
// reports completion and can be cancelled.
func (d *MapDriver) MoveMarker(id MarkerID, destination models.Coordinates, opts ...MoveOption) (*animation.Task, error) {
	marker, ok := d.Marker(id)
	if !ok {
		return nil, fmt.Errorf("%w: MoveMarker: %d", ErrNotFound, id)
	}
	settings := newMoveSettings(opts)
	dest := d.lib.CreatePosition(destination.Latitude, destination.Longitude)

	return d.animator.Animate(marker, dest, settings.duration), nil
}

// DestroyMarker stops the marker's animation, removes it from the collection
// keeping the order of the others and detaches it from the map.
func (d *MapDriver) DestroyMarker(id MarkerID) error {
	d.mu.Lock()
	marker, ok := d.markers[id]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: attempting to destroy a marker that is not in the map: %d", ErrNotFound, id)
	}
	delete(d.markers, id)
	idx := slices.Index(d.order, id)
	d.order = slices.Concat(d.order[:idx], d.order[idx+1:])
	d.mu.Unlock()

	d.animator.Stop(marker)
	marker.SetMap(nil)
	d.metrics.MarkersActive.Dec()
	d.log.Debug("Marker destroyed", "id", id)

	return nil
}

// FocusMarkers fits the viewport to the smallest region covering the current
// position of every given marker. With no markers the map receives empty
// bounds.
func (d *MapDriver) FocusMarkers(ids ...MarkerID) error {
	d.mu.Lock()
	targets := make([]mapfacade.Marker, 0, len(ids))
	for _, id := range ids {
		marker, ok := d.markers[id]
		if !ok {
			d.mu.Unlock()
			return fmt.Errorf("%w: FocusMarkers: %d", ErrNotFound, id)
		}
		targets = append(targets, marker)
	}
	d.mu.Unlock()

	bounds := d.lib.CreateBounds()
	for _, marker := range targets {
		bounds.Extend(marker.Position())
	}
	d.m.FitBounds(bounds)

	return nil
}

// FocusAll fits the viewport to every marker in the collection.
func (d *MapDriver) FocusAll() error {
	return d.FocusMarkers(d.GetMarkers()...)
}

// GetMarkers returns a copy of the collection in insertion order.
func (d *MapDriver) GetMarkers() []MarkerID {
	d.mu.Lock()
	defer d.mu.Unlock()

	return slices.Clone(d.order)
}

// Marker returns the facade handle behind id.
func (d *MapDriver) Marker(id MarkerID) (mapfacade.Marker, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	marker, ok := d.markers[id]

	return marker, ok
}

// Len returns the number of markers on the map.
func (d *MapDriver) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.order)
}
