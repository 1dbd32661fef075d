package animation

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/UnknownOlympus/mapdriver/internal/metrics"
	"github.com/UnknownOlympus/mapdriver/internal/models"
)

const (
	// FramesPerSecond is the refresh rate the frame count is derived from.
	FramesPerSecond = 60
	// FramesPerMillisecond converts a duration into a number of frames.
	FramesPerMillisecond = 0.06
	// DefaultDuration is used when the caller does not pick one.
	DefaultDuration = time.Second
)

// Positioner is the part of a map marker the animator drives.
type Positioner interface {
	Position() models.Coordinates
	SetPosition(pos models.Coordinates)
}

// TotalFrames returns the number of frames an animation of duration d spans.
// Negative durations count as zero.
func TotalFrames(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	ms := float64(d) / float64(time.Millisecond)

	return int(math.Round(ms * FramesPerMillisecond))
}

// Task is a single in-flight marker animation.
type Task struct {
	marker      Positioner
	from        models.Coordinates
	to          models.Coordinates
	totalFrames int

	scheduler FrameScheduler
	onFrame   func()
	onFinish  func(t *Task)

	cancelled atomic.Bool
	done      chan struct{}
	once      sync.Once
}

// From returns the position the marker had when the animation started.
func (t *Task) From() models.Coordinates { return t.from }

// To returns the destination.
func (t *Task) To() models.Coordinates { return t.to }

// TotalFrames returns the index of the terminal frame.
func (t *Task) TotalFrames() int { return t.totalFrames }

// Cancel stops the animation before its next frame. It is safe to call more
// than once and after completion.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether Cancel was called.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// Done is closed once the terminal frame ran or the task observed cancellation.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) step(frame int) {
	if t.cancelled.Load() {
		t.finish()
		return
	}

	t.marker.SetPosition(Interpolate(frame, t.totalFrames, t.from, t.to))
	t.onFrame()

	if frame >= t.totalFrames {
		t.finish()
		return
	}

	next := frame + 1
	t.scheduler.RequestFrame(func() { t.step(next) })
}

func (t *Task) finish() {
	t.once.Do(func() {
		close(t.done)
		t.onFinish(t)
	})
}

// Animator schedules marker animations on a FrameScheduler. It keeps at most
// one running task per marker: starting a new one cancels the previous.
type Animator struct {
	scheduler FrameScheduler
	log       *slog.Logger
	metrics   *metrics.Metrics

	mu    sync.Mutex
	tasks map[Positioner]*Task
}

// NewAnimator creates an Animator that renders frames through scheduler.
func NewAnimator(scheduler FrameScheduler, log *slog.Logger, metrics *metrics.Metrics) *Animator {
	return &Animator{
		scheduler: scheduler,
		log:       log,
		metrics:   metrics,
		tasks:     make(map[Positioner]*Task),
	}
}

// Animate moves marker to destination over duration. The start position is
// read now, frame 0 is applied before Animate returns and the remaining
// frames follow on the scheduler.
func (a *Animator) Animate(marker Positioner, destination models.Coordinates, duration time.Duration) *Task {
	task := &Task{
		marker:      marker,
		from:        marker.Position(),
		to:          destination,
		totalFrames: TotalFrames(duration),
		scheduler:   a.scheduler,
		onFrame:     a.metrics.FramesRendered.Inc,
		onFinish:    a.release,
		done:        make(chan struct{}),
	}

	a.mu.Lock()
	if prev, ok := a.tasks[marker]; ok {
		prev.Cancel()
		a.log.Debug("Superseding running animation", "from", prev.from, "to", prev.to)
	}
	a.tasks[marker] = task
	a.mu.Unlock()

	a.metrics.Animations.WithLabelValues("started").Inc()
	a.log.Debug("Animating marker", "from", task.from, "to", destination, "frames", task.totalFrames)

	task.step(0)

	return task
}

// Stop cancels the running animation of marker, if any.
func (a *Animator) Stop(marker Positioner) bool {
	a.mu.Lock()
	task, ok := a.tasks[marker]
	a.mu.Unlock()

	if ok {
		task.Cancel()
	}

	return ok
}

// Running reports whether marker has an unfinished animation.
func (a *Animator) Running(marker Positioner) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	task, ok := a.tasks[marker]

	return ok && !task.Cancelled()
}

func (a *Animator) release(task *Task) {
	a.mu.Lock()
	if a.tasks[task.marker] == task {
		delete(a.tasks, task.marker)
	}
	a.mu.Unlock()

	if task.Cancelled() {
		a.metrics.Animations.WithLabelValues("cancelled").Inc()
		return
	}
	a.metrics.Animations.WithLabelValues("completed").Inc()
}
