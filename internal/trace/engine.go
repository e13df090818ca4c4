// Package trace estimates the live pose of the agent from sparse snapshots.
//
// The engine polls short:trace, anchors each moving snapshot to the local
// clock, and interpolates between polls on a fixed tick. All methods must be
// called on the dispatcher loop.
package trace

import (
	"context"
	"log/slog"
	"time"

	"github.com/scribblerbot/scribbler/internal/api"
	"github.com/scribblerbot/scribbler/internal/dispatcher"
	"github.com/scribblerbot/scribbler/internal/geo"
	"github.com/scribblerbot/scribbler/internal/logging"
	"github.com/scribblerbot/scribbler/internal/parser"
	"github.com/scribblerbot/scribbler/pkg/core"
)

// State is the lifecycle of one tracing session.
type State int

const (
	Idle State = iota
	AwaitingSync
	Animating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingSync:
		return "awaiting-sync"
	case Animating:
		return "animating"
	default:
		return "unknown"
	}
}

const (
	DefaultUpdateInterval = 20 * time.Millisecond
	DefaultSyncThreshold  = 0.99
)

// Option configures an Engine.
type Option func(*Engine)

// WithUpdateInterval sets the animation tick period.
func WithUpdateInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithSyncThreshold sets the progress past which a moving sample is refreshed.
func WithSyncThreshold(t float64) Option {
	return func(e *Engine) {
		if t > 0 && t <= 1 {
			e.threshold = t
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithOnSample registers a hook called with every sample accepted from the agent.
func WithOnSample(fn func(core.TraceSample)) Option {
	return func(e *Engine) { e.onSample = fn }
}

// WithOnFrame registers the render hook called after every tick.
func WithOnFrame(fn func(core.Pose)) Option {
	return func(e *Engine) { e.onFrame = fn }
}

// Engine is the trace sync engine. It exclusively owns the current sample.
type Engine struct {
	channel api.Channel
	sched   dispatcher.Scheduler
	logger  *slog.Logger
	metrics *metrics

	interval  time.Duration
	threshold float64
	now       func() time.Time
	onSample  func(core.TraceSample)
	onFrame   func(core.Pose)

	ctx        context.Context
	waypoints  core.Path
	sample     core.TraceSample
	state      State
	generation uint64
	inFlight   bool
	cancelTick dispatcher.Cancel
}

// New creates an idle engine.
func New(channel api.Channel, sched dispatcher.Scheduler, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		channel:   channel,
		sched:     sched,
		logger:    logger.With("component", "trace"),
		metrics:   newMetrics(),
		interval:  DefaultUpdateInterval,
		threshold: DefaultSyncThreshold,
		now:       time.Now,
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetWaypoints replaces the path the agent was given. The engine keeps its
// own copy so later edits do not move the trace.
func (e *Engine) SetWaypoints(path core.Path) {
	e.waypoints = path.Clone()
}

// Waypoints returns the path the trace is drawn against.
func (e *Engine) Waypoints() core.Path {
	return e.waypoints.Clone()
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Sample returns the latest sample.
func (e *Engine) Sample() core.TraceSample { return e.sample }

// InFlight reports whether a trace sync is waiting for its response.
func (e *Engine) InFlight() bool { return e.inFlight }

// Start begins a session: it issues the initial sync, and once that request
// completes, successfully or not, runs after and starts the tick. Calling
// Start on a running session does nothing.
func (e *Engine) Start(ctx context.Context, after func()) {
	if e.state != Idle {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	e.ctx = ctx
	e.generation++
	e.state = AwaitingSync
	e.inFlight = false

	e.sync(func() {
		if after != nil {
			after()
		}
		e.cancelTick = e.sched.Every("trace.tick", e.interval, e.Tick)
	})
}

// Stop ends the session. The tick is cancelled and the time base cleared in
// the same turn, and responses still in flight are discarded on arrival.
func (e *Engine) Stop() {
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
	e.sample.BaseTimestamp = time.Time{}
	e.generation++
	e.inFlight = false
	e.state = Idle
}

// Tick refreshes the sample when needed and renders a frame. It never waits
// for the network.
func (e *Engine) Tick() {
	if e.state == Idle {
		return
	}

	t := e.progress(e.now())
	if !e.sample.HasBase() || (e.sample.Moving() && t > e.threshold) {
		e.sync(nil)
	}

	if e.onFrame == nil {
		return
	}
	if pose, ok := e.Pose(); ok {
		e.onFrame(pose)
	} else {
		e.logger.Debug("frame skipped", "segmentIndex", e.sample.SegmentIndex, "waypoints", len(e.waypoints))
	}
}

// Progress returns how far along the current motion the agent is, in [0, 1].
func (e *Engine) Progress() float64 {
	return e.progress(e.now())
}

func (e *Engine) progress(now time.Time) float64 {
	if !e.sample.HasBase() {
		return 0
	}
	if e.sample.Period <= 0 {
		return 1
	}
	return geo.Clamp01(float64(now.Sub(e.sample.BaseTimestamp)) / float64(e.sample.Period))
}

// Pose estimates the current pose. ok is false when the sample refers to a
// waypoint that does not exist.
func (e *Engine) Pose() (core.Pose, bool) {
	s := e.sample
	i := s.SegmentIndex
	if i < 0 || i >= len(e.waypoints) {
		return core.Pose{}, false
	}

	pose := core.Pose{
		Position: e.waypoints[i],
		Heading:  s.Heading,
		Mode:     s.Mode,
	}

	switch s.Mode {
	case core.ModeDrive:
		pose.T = e.progress(e.now())
		if i+1 < len(e.waypoints) {
			pose.Position = geo.Lerp(e.waypoints[i], e.waypoints[i+1], pose.T)
		}
	case core.ModeRotate:
		pose.T = e.progress(e.now())
		pose.Heading = s.Heading + pose.T*s.DeltaHeading
	}
	return pose, true
}

// sync issues one trace request unless one is already outstanding. then runs
// on the loop when the response has been handled.
func (e *Engine) sync(then func()) {
	if e.inFlight {
		return
	}
	e.inFlight = true
	generation := e.generation
	ctx := e.ctx
	e.metrics.requests.Add(ctx, 1)

	e.sched.Go("trace.sync", func() func() {
		text, err := e.channel.Send(ctx, api.Short(api.TraceQuery))
		return func() {
			if generation != e.generation {
				return
			}
			e.inFlight = false
			e.handle(text, err)
			if then != nil {
				then()
			}
		}
	})
}

func (e *Engine) handle(text string, err error) {
	if err != nil {
		if api.Classify(err) == api.OutcomeTimedOut {
			e.metrics.timeouts.Add(e.ctx, 1)
		} else {
			e.metrics.failures.Add(e.ctx, 1)
		}
		e.logger.Warn(api.Describe("trace sync", err), "error", err, logging.ToConsole())
		return
	}

	snap, err := parser.ParseTrace(text)
	if err != nil {
		e.metrics.failures.Add(e.ctx, 1)
		e.logger.Warn("trace sync returned malformed data", "response", text, "error", err, logging.ToConsole())
		return
	}

	e.sample = snap.Apply(e.sample, e.now())
	e.state = Animating
	if e.onSample != nil {
		e.onSample(e.sample)
	}
}
