// Package mockagent is an in-process stand-in for the drawing robot's server.
// It answers the same text verbs over HTTP and simulates a path-following
// program with wall-clock timings, which is enough to drive the client in
// tests and demos without hardware.
package mockagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/scribblerbot/scribbler/internal/geo"
)

// Timings of the simulated server.
const (
	DefaultStatusTimeout = 25 * time.Second
	LoopDelay            = 10 * time.Millisecond
	statusBuffer         = 64
	maxBodySize          = 1 << 20
)

// ErrUnknownProgram is returned when switching to a program the agent does
// not have. The HTTP handler answers it with 500.
var ErrUnknownProgram = errors.New("unknown program")

// Options configure an Agent. Zero values select the defaults.
type Options struct {
	Program       string
	StatusTimeout time.Duration
	Clock         func() time.Time
	Logger        *slog.Logger
}

// Agent holds the simulated robot state. It is safe for concurrent use.
type Agent struct {
	mu            sync.Mutex
	now           func() time.Time
	statusTimeout time.Duration
	logger        *slog.Logger
	messages      chan string

	program  string
	running  bool
	canReset bool
	pausedAt time.Time
	started  time.Time // calib only
	codes    map[string]string
	defaults map[string]float64
	params   map[string]float64

	tracer tracer
}

// New creates an agent running nothing, with the default program selected.
func New(opts Options) (*Agent, error) {
	if opts.Program == "" {
		opts.Program = ProgramTracie
	}
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = DefaultStatusTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	a := &Agent{
		now:           opts.Clock,
		statusTimeout: opts.StatusTimeout,
		logger:        opts.Logger.With("component", "mockagent"),
		messages:      make(chan string, statusBuffer),
	}
	if err := a.switchProgram(opts.Program); err != nil {
		return nil, err
	}
	return a, nil
}

// Handle answers one command. ok is false when the command has no answer,
// which the HTTP layer reports as 204. long:status blocks until a status
// message is queued, the status timeout passes, or ctx is done.
func (a *Agent) Handle(ctx context.Context, command string) (reply string, ok bool, err error) {
	if command == "long:status" {
		return a.waitStatus(ctx)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	switch {
	case command == "short:sync":
		return fmt.Sprintf("%s %s %s", a.program, titleBool(a.running), titleBool(a.canReset)), true, nil
	case command == "short:param-help":
		data, err := json.Marshal(a.codes)
		if err != nil {
			return "", false, err
		}
		return string(data), true, nil
	case strings.HasPrefix(command, "program:"):
		id := strings.TrimPrefix(command, "program:")
		if err := a.switchProgram(id); err != nil {
			return "", false, err
		}
		return "switched to " + id, true, nil
	case command == "control:start":
		if reason := a.noStart(); reason != "" {
			return reason, true, nil
		}
		if a.running {
			return "already running", true, nil
		}
		a.start(now)
		return "program resumed", true, nil
	case command == "control:stop":
		if !a.running {
			return "not running", true, nil
		}
		a.stop(now)
		return "program paused", true, nil
	case command == "control:reset":
		a.stop(now)
		a.reset()
		a.canReset = false
		return "program reset", true, nil
	case command == "other:beep":
		return "successful beep", true, nil
	case command == "other:info":
		return "battery: 7.4", true, nil
	case strings.HasPrefix(command, "set:"):
		return a.setParam(strings.TrimPrefix(command, "set:")), true, nil
	}

	return a.programCommand(command, now)
}

func (a *Agent) programCommand(command string, now time.Time) (string, bool, error) {
	switch a.program {
	case ProgramTracie:
		switch {
		case strings.HasPrefix(command, "points:"):
			points, err := geo.ParseWaypoints(strings.TrimPrefix(command, "points:"))
			if err != nil {
				return "", false, err
			}
			a.tracer.setPoints(points)
			return fmt.Sprintf("received %d points", len(points)), true, nil
		case command == "short:trace":
			return a.tracer.trace(now), true, nil
		}
	case ProgramCalib:
		if command == "short:att" {
			if !a.running {
				return "program not running", true, nil
			}
			t := now.Sub(a.started).Seconds()
			return num(t * a.params["speed"] / a.params["calib_angle"]), true, nil
		}
	}
	return "", false, nil
}

func (a *Agent) waitStatus(ctx context.Context) (string, bool, error) {
	timer := time.NewTimer(a.statusTimeout)
	defer timer.Stop()

	select {
	case msg := <-a.messages:
		return msg, true, nil
	case <-timer.C:
		return "", false, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

func (a *Agent) switchProgram(id string) error {
	if _, ok := programParams[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProgram, id)
	}
	a.stop(a.now())
	a.program = id
	a.codes, a.defaults = merged(id)
	a.params = make(map[string]float64, len(a.defaults))
	for k, v := range a.defaults {
		a.params[k] = v
	}
	a.tracer = tracer{}
	a.reset()
	a.canReset = false
	a.logger.Debug("Switched program", "program", id)
	return nil
}

func (a *Agent) noStart() string {
	if a.program == ProgramTracie && len(a.tracer.newPoints) <= 1 {
		return "not enough points"
	}
	return ""
}

// start resumes the program; time spent paused does not count towards the
// current mode.
func (a *Agent) start(now time.Time) {
	if a.pausedAt.IsZero() {
		a.tracer.modeStart = now
	} else {
		a.tracer.modeStart = a.tracer.modeStart.Add(now.Sub(a.pausedAt))
	}
	a.started = now
	a.running = true
	a.canReset = true
}

func (a *Agent) stop(now time.Time) {
	if a.running {
		a.pausedAt = now
	}
	a.running = false
}

func (a *Agent) reset() {
	a.pausedAt = time.Time{}
	a.tracer.reset()
}

// setParam handles "<code>=<value>". An empty value or "?" reads the
// parameter; any prefix of "default" restores the default.
func (a *Agent) setParam(arg string) string {
	code, value, found := strings.Cut(arg, "=")
	if !found {
		return "invalid parameter: " + arg
	}
	name, ok := a.codes[code]
	if !ok {
		return "invalid code: " + code
	}
	if value == "" || value == "?" {
		return name + " = " + num(a.params[name])
	}

	var n float64
	if strings.HasPrefix("default", value) {
		n = a.defaults[name]
	} else {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return "NaN: " + value
		}
		n = v
	}
	a.params[name] = n
	return name + " = " + num(n)
}

// Tick advances the running program by one loop iteration, queueing a status
// message whenever a mode begins.
func (a *Agent) Tick() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running || a.program != ProgramTracie {
		return
	}
	now := a.now()
	if !a.tracer.modeDone(now) {
		return
	}
	a.tracer.next(now, a.params)
	a.pushStatus(a.tracer.status())
}

func (a *Agent) pushStatus(msg string) {
	select {
	case a.messages <- msg:
	default:
		a.logger.Warn("Status queue full, dropping", "status", msg)
	}
}

// Run ticks the program every LoopDelay until ctx is done.
func (a *Agent) Run(ctx context.Context) {
	ticker := time.NewTicker(LoopDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Tick()
		}
	}
}

// ServeHTTP answers POST / with the command in the request body.
func (a *Agent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	command := string(body)

	reply, ok, err := a.Handle(r.Context(), command)
	if err != nil {
		a.logger.Warn("Command failed", "command", command, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, reply)
}

func titleBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
