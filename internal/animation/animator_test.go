package animation_test

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/UnknownOlympus/mapdriver/internal/animation"
	"github.com/UnknownOlympus/mapdriver/internal/metrics"
	"github.com/UnknownOlympus/mapdriver/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingMarker keeps every position it was given.
type recordingMarker struct {
	mu      sync.Mutex
	pos     models.Coordinates
	history []models.Coordinates
}

func (m *recordingMarker) Position() models.Coordinates {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

func (m *recordingMarker) SetPosition(pos models.Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos = pos
	m.history = append(m.history, pos)
}

func (m *recordingMarker) updates() []models.Coordinates {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Coordinates(nil), m.history...)
}

func newAnimator(t *testing.T) (*animation.Animator, *animation.ManualScheduler, *metrics.Metrics) {
	t.Helper()
	scheduler := animation.NewManualScheduler()
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())

	return animation.NewAnimator(scheduler, slog.Default(), appMetrics), scheduler, appMetrics
}

func TestTotalFrames(t *testing.T) {
	assert.Equal(t, 60, animation.TotalFrames(time.Second))
	assert.Equal(t, 60, animation.TotalFrames(animation.DefaultDuration))
	assert.Equal(t, 30, animation.TotalFrames(500*time.Millisecond))
	assert.Equal(t, 1, animation.TotalFrames(10*time.Millisecond))
	assert.Equal(t, 0, animation.TotalFrames(5*time.Millisecond))
	assert.Equal(t, 0, animation.TotalFrames(0))
	assert.Equal(t, 0, animation.TotalFrames(-time.Second))
}

func TestAnimator_Animate(t *testing.T) {
	t.Run("one second produces sixty one updates", func(t *testing.T) {
		animator, scheduler, appMetrics := newAnimator(t)
		marker := &recordingMarker{}
		dest := models.Coordinates{Latitude: 10, Longitude: 10}

		task := animator.Animate(marker, dest, time.Second)

		// frame 0 is applied synchronously
		require.Len(t, marker.updates(), 1)
		assert.Equal(t, 1, scheduler.Pending())

		frames := scheduler.Flush()
		assert.Equal(t, 60, frames)

		updates := marker.updates()
		require.Len(t, updates, 61)
		assert.Equal(t, models.Coordinates{}, updates[0])
		assert.InDelta(t, 10.0, updates[60].Latitude, 1e-12)
		assert.InDelta(t, 10.0, updates[60].Longitude, 1e-12)

		select {
		case <-task.Done():
		default:
			t.Fatal("task should be done after the terminal frame")
		}
		assert.False(t, task.Cancelled())
		assert.False(t, animator.Running(marker))
		assert.InDelta(t, 61.0, testutil.ToFloat64(appMetrics.FramesRendered), 0)
		assert.InDelta(t, 1.0, testutil.ToFloat64(appMetrics.Animations.WithLabelValues("completed")), 0)
	})

	t.Run("start position is read at call time", func(t *testing.T) {
		animator, scheduler, _ := newAnimator(t)
		start := models.Coordinates{Latitude: 1, Longitude: 2}
		marker := &recordingMarker{pos: start}

		task := animator.Animate(marker, models.Coordinates{Latitude: 3, Longitude: 4}, time.Second)
		assert.Equal(t, start, task.From())

		scheduler.Flush()
		assert.Equal(t, start, marker.updates()[0])
	})

	t.Run("zero duration jumps to the destination", func(t *testing.T) {
		animator, scheduler, _ := newAnimator(t)
		marker := &recordingMarker{}
		dest := models.Coordinates{Latitude: -33.86, Longitude: 151.2}

		task := animator.Animate(marker, dest, 0)

		assert.Equal(t, 0, scheduler.Pending())
		assert.Equal(t, []models.Coordinates{dest}, marker.updates())
		<-task.Done()
	})

	t.Run("newer animation cancels the older one", func(t *testing.T) {
		animator, scheduler, appMetrics := newAnimator(t)
		marker := &recordingMarker{}
		first := animator.Animate(marker, models.Coordinates{Latitude: 10, Longitude: 10}, time.Second)
		scheduler.Step()
		scheduler.Step()

		second := animator.Animate(marker, models.Coordinates{Latitude: -10, Longitude: -10}, time.Second)
		assert.True(t, first.Cancelled())

		scheduler.Flush()
		<-first.Done()
		<-second.Done()

		final := marker.Position()
		assert.InDelta(t, -10.0, final.Latitude, 1e-12)
		assert.InDelta(t, -10.0, final.Longitude, 1e-12)
		// 3 frames of the first task, 61 of the second
		assert.Len(t, marker.updates(), 64)
		assert.InDelta(t, 1.0, testutil.ToFloat64(appMetrics.Animations.WithLabelValues("cancelled")), 0)
		assert.InDelta(t, 1.0, testutil.ToFloat64(appMetrics.Animations.WithLabelValues("completed")), 0)
	})

	t.Run("stop halts before the next frame", func(t *testing.T) {
		animator, scheduler, _ := newAnimator(t)
		marker := &recordingMarker{}
		task := animator.Animate(marker, models.Coordinates{Latitude: 5, Longitude: 5}, time.Second)

		assert.True(t, animator.Running(marker))
		assert.True(t, animator.Stop(marker))
		assert.False(t, animator.Running(marker))

		scheduler.Flush()
		<-task.Done()
		assert.Len(t, marker.updates(), 1)
		assert.False(t, animator.Stop(marker))
	})
}

func TestTickerScheduler_Run(t *testing.T) {
	scheduler := animation.NewTickerScheduler(0, slog.Default())
	animator := animation.NewAnimator(scheduler, slog.Default(), metrics.NewMetrics(prometheus.NewRegistry()))
	ctx := t.Context()
	go scheduler.Run(ctx)

	marker := &recordingMarker{}
	task := animator.Animate(marker, models.Coordinates{Latitude: 1, Longitude: 1}, 100*time.Millisecond)

	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("animation did not finish")
	}
	assert.Len(t, marker.updates(), 7)
	assert.Equal(t, models.Coordinates{Latitude: 1, Longitude: 1}, marker.Position())
}
