package animation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// FrameScheduler runs a callback on the next rendering frame of the host.
// RequestFrame must not block.
type FrameScheduler interface {
	RequestFrame(fn func())
}

// frameQueue collects callbacks requested between two frames.
type frameQueue struct {
	mu      sync.Mutex
	pending []func()
}

func (q *frameQueue) push(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// drain runs every callback queued before the call. Callbacks requested while
// draining land on the following frame.
func (q *frameQueue) drain() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}

	return len(batch)
}

func (q *frameQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}

// TickerScheduler emulates a display refresh loop: queued callbacks run
// serially on a single goroutine at a fixed frame rate.
type TickerScheduler struct {
	queue    frameQueue
	interval time.Duration
	log      *slog.Logger
}

// NewTickerScheduler creates a scheduler ticking fps times per second.
// Non-positive fps falls back to FramesPerSecond.
func NewTickerScheduler(fps int, log *slog.Logger) *TickerScheduler {
	if fps <= 0 {
		fps = FramesPerSecond
	}

	return &TickerScheduler{
		interval: time.Second / time.Duration(fps),
		log:      log,
	}
}

// RequestFrame queues fn for the next tick.
func (s *TickerScheduler) RequestFrame(fn func()) {
	s.queue.push(fn)
}

// Run drives the frame loop until the context is canceled. Callbacks still
// queued at that point are dropped.
func (s *TickerScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "Frame scheduler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "Frame scheduler stopped", "dropped_callbacks", s.queue.len())
			return
		case <-ticker.C:
			s.queue.drain()
		}
	}
}

// ManualScheduler advances frames only when told to. It suits tests and hosts
// that own their render loop.
type ManualScheduler struct {
	queue frameQueue
}

// NewManualScheduler returns an empty ManualScheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// RequestFrame queues fn for the next Step.
func (s *ManualScheduler) RequestFrame(fn func()) {
	s.queue.push(fn)
}

// Step renders one frame and reports how many callbacks ran.
func (s *ManualScheduler) Step() int {
	return s.queue.drain()
}

// Flush steps until nothing is queued and returns the number of frames rendered.
func (s *ManualScheduler) Flush() int {
	frames := 0
	for s.Step() > 0 {
		frames++
	}

	return frames
}

// Pending reports how many callbacks wait for the next frame.
func (s *ManualScheduler) Pending() int {
	return s.queue.len()
}
