package driver

import (
	"time"

	"github.com/UnknownOlympus/mapdriver/internal/animation"
	"github.com/UnknownOlympus/mapdriver/internal/mapfacade"
	"github.com/UnknownOlympus/mapdriver/internal/models"
)

// Content is the text of a marker's info window: either Text or a
// ContentFunc evaluated on every click.
type Content interface {
	resolve() string
}

// Text is literal info window content.
type Text string

func (t Text) resolve() string { return string(t) }

// ContentFunc produces info window content when the marker is clicked.
type ContentFunc func() string

func (f ContentFunc) resolve() string { return f() }

// MarkerConfig describes a marker to create.
type MarkerConfig struct {
	Location    models.Location // Location is required: coordinates or a postal address.
	Title       string
	Label       string
	Icon        string
	Draggable   bool
	InfoContent Content // InfoContent, when set, opens an info window on click.
}

func (c MarkerConfig) options(pos models.Coordinates) mapfacade.MarkerOptions {
	return mapfacade.MarkerOptions{
		Position:  pos,
		Title:     c.Title,
		Label:     c.Label,
		Icon:      c.Icon,
		Draggable: c.Draggable,
	}
}

type moveSettings struct {
	duration time.Duration
}

// MoveOption tunes MoveMarker.
type MoveOption func(*moveSettings)

// WithDuration sets how long the animation lasts. Zero jumps straight to the
// destination.
func WithDuration(d time.Duration) MoveOption {
	return func(s *moveSettings) { s.duration = d }
}

func newMoveSettings(opts []MoveOption) moveSettings {
	s := moveSettings{duration: animation.DefaultDuration}
	for _, opt := range opts {
		opt(&s)
	}

	return s
}
