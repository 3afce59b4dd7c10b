// Package playback owns the animation state machine: current time, speed,
// pause and rewind. Each transition recomputes derived fields from scratch,
// so rapid repeated input is safe.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-alert-map/internal/domain"
	"github.com/couchcryptid/storm-alert-map/internal/observability"
	"github.com/couchcryptid/storm-alert-map/internal/render"
	"github.com/couchcryptid/storm-alert-map/internal/selection"
	"github.com/couchcryptid/storm-alert-map/internal/timeseries"
)

// Options configures a Controller.
type Options struct {
	SliderMax    int // slider positions run 1..SliderMax
	InitialSpeed int
	CacheSize    int // decoded snapshots kept for scrubbing; 0 disables
	Clock        clockwork.Clock
}

// effect says how much a transition changed.
type effect int

const (
	effectNone   effect = iota // nothing visible changed
	effectState                // buttons or state changed, map unchanged
	effectRedraw               // current time changed, decode and repaint
)

// Controller is the PlaybackController. All methods are safe for concurrent
// use: the scheduler's timer goroutine and input handlers are serialized by
// one mutex, so transitions behave as if run on a single thread.
type Controller struct {
	mu                sync.Mutex
	series            *timeseries.CachedSeries
	renderer          *render.Renderer
	tracker           *selection.Tracker
	opts              Options
	state             State
	speedBeforeRewind int
	snapshot          domain.Snapshot
	seq               uint64
	observers         []Observer

	scheduler *Scheduler
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Controller at minTime, playing, at opts.InitialSpeed. tracker
// may be nil. Nothing is drawn until Redraw, Run or the first transition.
func New(ts *timeseries.TimeSeries, renderer *render.Renderer, tracker *selection.Tracker, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	if opts.SliderMax < 2 {
		opts.SliderMax = 1000
	}
	if opts.InitialSpeed < 0 || opts.InitialSpeed > MaxSpeedLevel {
		opts.InitialSpeed = DefaultSpeedLevel
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	c := &Controller{
		series:    timeseries.NewCachedSeries(ts, opts.CacheSize, metrics),
		renderer:  renderer,
		tracker:   tracker,
		opts:      opts,
		snapshot:  domain.Snapshot{},
		scheduler: NewScheduler(opts.Clock),
		logger:    logger,
		metrics:   metrics,
	}
	c.state.CurrentTime = ts.MinTime()
	c.applySpeed(opts.InitialSpeed)
	c.speedBeforeRewind = opts.InitialSpeed
	return c
}

// Subscribe adds an observer for frames.
func (c *Controller) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Run draws the first frame and ticks until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	if !c.scheduler.Start(c.Delay, c.Tick) {
		return errors.New("playback already running")
	}
	c.Redraw()

	st := c.State()
	c.logger.Info("playback started",
		"time", FormatTime(st.CurrentTime),
		"speed", st.SpeedLevel,
		"steps", c.stepCount(),
	)
	c.metrics.PlaybackActive.Set(1)
	defer c.metrics.PlaybackActive.Set(0)

	<-ctx.Done()
	c.scheduler.Stop()
	c.logger.Info("playback stopping", "reason", ctx.Err())
	return nil
}

// CheckReadiness returns nil once a frame has been drawn.
func (c *Controller) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("playback has not drawn a frame yet")
	}
	return nil
}

// Delay is the current tick interval.
func (c *Controller) Delay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.StepDelay
}

// State returns a copy of the playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the snapshot last drawn.
func (c *Controller) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Frame describes the current display without drawing anything.
func (c *Controller) Frame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame(false, 0)
}

// Tick runs one scheduled step. A paused controller, or one playing at the
// last step, only reschedules. Rewinding into minTime ends the rewind paused.
func (c *Controller) Tick() {
	c.apply(func() effect {
		s := &c.state
		switch {
		case s.Paused:
			c.metrics.Ticks.WithLabelValues("idle").Inc()
			return effectNone
		case s.Rewinding && s.CurrentTime <= c.series.MinTime():
			c.exitRewind()
			s.Paused = true
			c.metrics.Ticks.WithLabelValues("paused_at_start").Inc()
			return effectState
		case !s.Rewinding && s.CurrentTime >= c.series.LastStep():
			c.metrics.Ticks.WithLabelValues("idle").Inc()
			return effectNone
		}

		delta := int64(s.StepMultiplier) * c.series.StepInterval()
		if s.Rewinding {
			delta = -delta
		}
		s.CurrentTime = c.clamp(s.CurrentTime + delta)
		c.metrics.Ticks.WithLabelValues("advanced").Inc()
		return effectRedraw
	})
}

// PlayPauseReset handles the play button. While rewinding it restores the
// pre-rewind speed and plays forward. At the last step, rewinding or not, it
// restarts from minTime. Otherwise it toggles pause.
func (c *Controller) PlayPauseReset() Frame {
	return c.apply(func() effect {
		s := &c.state
		atEnd := s.CurrentTime >= c.series.LastStep()
		wasRewinding, moved := s.Rewinding, false
		if wasRewinding {
			moved = c.exitRewind()
		}
		switch {
		case atEnd:
			s.CurrentTime = c.series.MinTime()
			s.Paused = false
			return effectRedraw
		case wasRewinding:
			s.Paused = false
		default:
			s.Paused = !s.Paused
		}
		if moved {
			return effectRedraw
		}
		return effectState
	})
}

// StepForward pauses and moves one step later.
func (c *Controller) StepForward() Frame {
	return c.apply(func() effect { return c.step(1) })
}

// StepBackward pauses and moves one step earlier.
func (c *Controller) StepBackward() Frame {
	return c.apply(func() effect { return c.step(-1) })
}

func (c *Controller) step(dir int64) effect {
	s := &c.state
	moved := false
	if s.Rewinding {
		moved = c.exitRewind()
	}
	s.Paused = true

	next := s.CurrentTime + dir*c.series.StepInterval()
	if next < c.series.MinTime() || next > c.series.LastStep() {
		if moved {
			return effectRedraw
		}
		return effectState
	}
	s.CurrentTime = next
	return effectRedraw
}

// CycleSpeed advances the speed level, wrapping after MaxSpeedLevel, and
// snaps the current time down to the new speed's step multiple.
func (c *Controller) CycleSpeed() Frame {
	return c.apply(func() effect {
		c.applySpeed((c.state.SpeedLevel + 1) % (MaxSpeedLevel + 1))
		c.state.CurrentTime = c.quantize(c.state.CurrentTime)
		return effectRedraw
	})
}

// Rewind starts playing backwards. Pressing it again while rewinding speeds
// up, capped at MaxSpeedLevel; the speed restored afterwards is the one from
// before the first press. At minTime it does nothing.
func (c *Controller) Rewind() Frame {
	return c.apply(func() effect {
		s := &c.state
		if s.CurrentTime <= c.series.MinTime() {
			return effectNone
		}
		if s.Rewinding {
			c.applySpeed(min(MaxSpeedLevel, s.SpeedLevel+1))
		} else {
			c.speedBeforeRewind = s.SpeedLevel
			s.Rewinding = true
		}
		s.Paused = false
		return effectState
	})
}

// Seek moves to slider position pos in [1, SliderMax]. The endpoints map
// exactly to minTime and the last step; interior positions snap down to the
// current speed's step multiple. Out-of-range positions clamp.
func (c *Controller) Seek(pos int) Frame {
	return c.apply(func() effect {
		c.state.CurrentTime = c.positionToTime(pos)
		c.metrics.Seeks.Inc()
		return effectRedraw
	})
}

// Redraw decodes and diff-renders the current time.
func (c *Controller) Redraw() Frame {
	return c.apply(func() effect { return effectRedraw })
}

// Resize resizes the surface and repaints every region of the current frame.
func (c *Controller) Resize(width, height int) Frame {
	return c.apply(func() effect {
		c.renderer.Resize(width, height)
		return effectState
	})
}

// LoadDataset swaps in a new binary time series and redraws from its
// minTime. On a decode error the current dataset stays installed.
func (c *Controller) LoadDataset(buf []byte) (Frame, error) {
	ts, err := timeseries.Load(buf)
	if err != nil {
		outcome := "malformed"
		if errors.Is(err, timeseries.ErrTruncated) {
			outcome = "truncated"
		}
		c.metrics.DatasetLoads.WithLabelValues(outcome).Inc()
		c.logger.Warn("dataset rejected", "error", err, "bytes", len(buf))
		return c.Frame(), fmt.Errorf("load dataset: %w", err)
	}
	c.metrics.DatasetLoads.WithLabelValues("success").Inc()
	c.logger.Info("dataset loaded",
		"bytes", len(buf),
		"steps", ts.StepCount(),
		"from", FormatTime(ts.MinTime()),
		"to", FormatTime(ts.LastStep()),
	)

	return c.apply(func() effect {
		c.series = timeseries.NewCachedSeries(ts, c.opts.CacheSize, c.metrics)
		if c.state.Rewinding {
			c.exitRewind()
		}
		c.state.Paused = false
		c.state.CurrentTime = ts.MinTime()
		return effectRedraw
	}), nil
}

// apply runs fn under the lock, redraws if asked, and notifies observers
// after unlocking.
func (c *Controller) apply(fn func() effect) Frame {
	c.mu.Lock()
	eff := fn()
	painted := 0
	if eff == effectRedraw {
		painted = c.draw()
	}
	f := c.frame(eff == effectRedraw, painted)
	if eff != effectNone {
		c.seq++
		f.Seq = c.seq
	}
	observers := slices.Clone(c.observers)
	c.mu.Unlock()

	if eff == effectNone {
		return f
	}
	for _, o := range observers {
		o.OnTick(f)
	}
	return f
}

// draw must be called with mu held.
func (c *Controller) draw() int {
	start := time.Now()
	snap := c.series.SnapshotAt(c.state.CurrentTime)
	painted := c.renderer.Render(snap)
	c.snapshot = snap
	if c.tracker != nil {
		c.tracker.Update(snap)
	}
	c.metrics.FramesRendered.Inc()
	c.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	c.ready.Store(true)
	return painted
}

func (c *Controller) frame(redrawn bool, painted int) Frame {
	s := c.state
	return Frame{
		Seq:            c.seq,
		State:          s,
		Mode:           s.Mode(c.series.LastStep()),
		TimeText:       FormatTime(s.CurrentTime),
		SliderPosition: c.timeToPosition(s.CurrentTime),
		PlayButton:     c.playButton(),
		SpeedButton:    fmt.Sprintf("speed%d", s.SpeedLevel+1),
		Redrawn:        redrawn,
		Painted:        painted,
		ActiveRegions:  len(c.snapshot),
	}
}

func (c *Controller) playButton() string {
	s := c.state
	switch {
	case !s.Rewinding && s.CurrentTime >= c.series.LastStep():
		return "reset"
	case s.Paused:
		return "play"
	default:
		return "pause"
	}
}

func (c *Controller) applySpeed(level int) {
	sp := SpeedFor(level)
	c.state.SpeedLevel = level
	c.state.StepDelay = sp.Delay
	c.state.StepMultiplier = sp.Multiplier
}

// exitRewind restores the pre-rewind speed and snaps the current time to
// its stride. It reports whether the time moved.
func (c *Controller) exitRewind() bool {
	c.state.Rewinding = false
	c.applySpeed(c.speedBeforeRewind)
	prev := c.state.CurrentTime
	c.state.CurrentTime = c.quantize(prev)
	return c.state.CurrentTime != prev
}

func (c *Controller) clamp(t int64) int64 {
	return min(max(t, c.series.MinTime()), c.series.LastStep())
}

// quantize rounds t down to a multiple of the current speed's stride,
// measured from minTime.
func (c *Controller) quantize(t int64) int64 {
	step := c.series.StepInterval()
	mult := int64(c.state.StepMultiplier)
	k := (c.clamp(t) - c.series.MinTime()) / step
	k -= k % mult
	return c.clamp(c.series.TimeAt(int(k)))
}

func (c *Controller) timeToPosition(t int64) int {
	n := c.opts.SliderMax
	first, last := c.series.MinTime(), c.series.LastStep()
	switch {
	case t <= first:
		return 1
	case t >= last:
		return n
	}
	frac := float64(last-t) / float64(last-first)
	return (1 + n) - int(math.Ceil(frac*float64(n)))
}

func (c *Controller) positionToTime(pos int) int64 {
	n := c.opts.SliderMax
	first, last := c.series.MinTime(), c.series.LastStep()
	switch {
	case pos <= 1:
		return first
	case pos >= n:
		return last
	}
	stepSize := float64(last-first) / float64(n)
	unit := int64(c.state.StepMultiplier) * c.series.StepInterval()
	k := int64(math.Floor(float64(pos) * stepSize / float64(unit)))
	return min(first+k*unit, last)
}

func (c *Controller) stepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.series.StepCount()
}
