// Package control arbitrates between editing and tracing and keeps the
// client in sync with the agent. Every method must run on the dispatcher
// loop.
package control

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/scribblerbot/scribbler/internal/api"
	"github.com/scribblerbot/scribbler/internal/dispatcher"
	"github.com/scribblerbot/scribbler/internal/editor"
	"github.com/scribblerbot/scribbler/internal/logging"
	"github.com/scribblerbot/scribbler/internal/trace"
	"github.com/scribblerbot/scribbler/pkg/core"
)

// View is one of the screens the operator can switch between.
type View string

const (
	ViewControls  View = "controls"
	ViewParamHelp View = "param-help"
	ViewDrawing   View = "drawing"
)

// Views lists every view in display order.
var Views = []View{ViewControls, ViewParamHelp, ViewDrawing}

const (
	ProgramTracie = "tracie"
	ProgramCalib  = "calib"
)

// Operator-facing messages.
const (
	msgInSync          = "in sync with server"
	msgNotEnoughPoints = "not enough points"
	NoticeNotEnough    = "There are not enough points."
	NoticeInvalidSave  = "The data you entered was invalid."
)

// Recorder receives what the controller observes. Implementations must not
// block the loop.
type Recorder interface {
	RecordPath(points core.Path)
	RecordSample(sample core.TraceSample)
	RecordStatus(status core.AgentStatus)
}

// Config holds the timings and geometry the controller works with. Zero
// values select the defaults.
type Config struct {
	SettleDelay      time.Duration
	SyncInterval     time.Duration
	StatusRetryDelay time.Duration
	CanvasHeight     float64
	ClickRadius      float64
	TraceInterval    time.Duration
	SyncThreshold    float64
	Clock            func() time.Time
}

const (
	DefaultSettleDelay  = 200 * time.Millisecond
	DefaultSyncInterval = 10 * time.Second
	DefaultCanvasHeight = 400
)

func (c Config) withDefaults() Config {
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = DefaultSyncInterval
	}
	if c.StatusRetryDelay < 0 {
		c.StatusRetryDelay = 0
	}
	if c.CanvasHeight <= 0 {
		c.CanvasHeight = DefaultCanvasHeight
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecorder sends paths, samples and statuses to r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithNotifier shows blocking notifications, such as an invalid save, to the
// operator. Without one they are logged.
func WithNotifier(fn func(message string)) Option {
	return func(c *Controller) { c.notify = fn }
}

// WithOnFrame forwards trace frames to a renderer.
func WithOnFrame(fn func(core.Pose)) Option {
	return func(c *Controller) { c.onFrame = fn }
}

// Controller owns the editor, the trace engine and the last known agent
// status.
type Controller struct {
	channel  api.Channel
	sched    dispatcher.Scheduler
	logger   *slog.Logger
	cfg      Config
	recorder Recorder
	notify   func(string)
	onFrame  func(core.Pose)

	editor *editor.Editor
	engine *trace.Engine

	ctx       context.Context
	view      View
	status    core.AgentStatus
	tracing   bool
	nextSync  func()
	paramHelp core.ParamHelp

	cancelSync   dispatcher.Cancel
	cancelSettle dispatcher.Cancel

	// read by the log context provider from any goroutine
	viewName    atomic.Value
	tracingFlag atomic.Bool
}

// New creates a controller showing the controls view, with tracie assumed
// until the first sync says otherwise.
func New(channel api.Channel, sched dispatcher.Scheduler, logger *slog.Logger, cfg Config, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		channel: channel,
		sched:   sched,
		logger:  logger.With("component", "control"),
		cfg:     cfg.withDefaults(),
		ctx:     context.Background(),
		status:  core.AgentStatus{Program: ProgramTracie},
	}
	for _, opt := range opts {
		opt(c)
	}

	var editorOpts []editor.Option
	if c.cfg.ClickRadius > 0 {
		editorOpts = append(editorOpts, editor.WithClickRadius(c.cfg.ClickRadius))
	}
	c.editor = editor.New(editorOpts...)

	engineOpts := []trace.Option{
		trace.WithClock(c.cfg.Clock),
		trace.WithUpdateInterval(c.cfg.TraceInterval),
		trace.WithSyncThreshold(c.cfg.SyncThreshold),
	}
	if c.onFrame != nil {
		engineOpts = append(engineOpts, trace.WithOnFrame(c.onFrame))
	}
	if c.recorder != nil {
		engineOpts = append(engineOpts, trace.WithOnSample(c.recorder.RecordSample))
	}
	c.engine = trace.New(channel, sched, logger, engineOpts...)

	c.setView(ViewControls)
	return c
}

// Start performs the initial sync, starts the periodic sync and begins the
// status long poll. Work scheduled afterwards stops once ctx is done.
func (c *Controller) Start(ctx context.Context) {
	c.ctx = ctx
	c.Synchronize()
	c.console(msgInSync)
	c.cancelSync = c.sched.Every("sync.periodic", c.cfg.SyncInterval, c.Synchronize)
	c.pollStatus()
}

// Stop cancels the periodic sync, a pending trace start and the trace engine.
func (c *Controller) Stop() {
	if c.cancelSync != nil {
		c.cancelSync()
		c.cancelSync = nil
	}
	if c.cancelSettle != nil {
		c.cancelSettle()
		c.cancelSettle = nil
	}
	c.engine.Stop()
}

func (c *Controller) Editor() *editor.Editor     { return c.editor }
func (c *Controller) Engine() *trace.Engine      { return c.engine }
func (c *Controller) View() View                 { return c.view }
func (c *Controller) Status() core.AgentStatus   { return c.status }
func (c *Controller) Running() bool              { return c.status.Running }
func (c *Controller) Tracing() bool              { return c.tracing }
func (c *Controller) ParamHelp() core.ParamHelp  { return c.paramHelp }
func (c *Controller) Buttons() editor.Buttons    { return c.editor.Buttons(c.tracing) }
func (c *Controller) TraceStarting() bool        { return c.cancelSettle != nil }
func (c *Controller) HasPendingSyncAction() bool { return c.nextSync != nil }

// LogAttrs describes the controller for log records. Safe from any goroutine.
func (c *Controller) LogAttrs() []slog.Attr {
	view, _ := c.viewName.Load().(string)
	return []slog.Attr{
		slog.String("view", view),
		slog.Bool("tracing", c.tracingFlag.Load()),
	}
}

func (c *Controller) setView(v View) {
	c.view = v
	c.viewName.Store(string(v))
}

func (c *Controller) setTracing(on bool) {
	c.tracing = on
	c.tracingFlag.Store(on)
	c.editor.SetLocked(on)
}

// console writes a line to the operator console.
func (c *Controller) console(text string, args ...any) {
	c.logger.Info(text, append(args, logging.ToConsole())...)
}

func (c *Controller) notice(message string) {
	if c.notify != nil {
		c.notify(message)
		return
	}
	c.logger.Warn(message, logging.ToConsole())
}
