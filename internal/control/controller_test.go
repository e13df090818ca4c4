package control

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribblerbot/scribbler/internal/api"
	"github.com/scribblerbot/scribbler/internal/dispatcher/dispatchertest"
	"github.com/scribblerbot/scribbler/internal/logging"
	"github.com/scribblerbot/scribbler/internal/trace"
	"github.com/scribblerbot/scribbler/pkg/core"
)

// fakeAgent answers by message prefix and records what it was sent.
type fakeAgent struct {
	sync    string
	replies map[string]func() (string, error)
	sent    []string
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{sync: "tracie False False", replies: map[string]func() (string, error){}}
}

func (a *fakeAgent) Send(_ context.Context, message string) (string, error) {
	a.sent = append(a.sent, message)
	if message == api.Short(api.SyncQuery) {
		return a.sync, nil
	}
	for prefix, fn := range a.replies {
		if strings.HasPrefix(message, prefix) {
			return fn()
		}
	}
	return "ok", nil
}

func (a *fakeAgent) sentWithPrefix(prefix string) []string {
	var out []string
	for _, m := range a.sent {
		if strings.HasPrefix(m, prefix) {
			out = append(out, m)
		}
	}
	return out
}

type recorderSpy struct {
	paths    []core.Path
	samples  []core.TraceSample
	statuses []core.AgentStatus
}

func (r *recorderSpy) RecordPath(p core.Path)          { r.paths = append(r.paths, p) }
func (r *recorderSpy) RecordSample(s core.TraceSample) { r.samples = append(r.samples, s) }
func (r *recorderSpy) RecordStatus(s core.AgentStatus) { r.statuses = append(r.statuses, s) }

type harness struct {
	ctrl     *Controller
	sched    *dispatchertest.Manual
	agent    *fakeAgent
	console  *logging.Console
	recorder *recorderSpy
	notices  []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sched:    dispatchertest.NewManual(time.Unix(2_000_000, 0)),
		agent:    newFakeAgent(),
		console:  logging.NewConsole(100),
		recorder: &recorderSpy{},
	}
	h.ctrl = New(h.agent, h.sched, slog.New(h.console.Handler(slog.LevelInfo)),
		Config{Clock: h.sched.Now, CanvasHeight: 400},
		WithRecorder(h.recorder),
		WithNotifier(func(m string) { h.notices = append(h.notices, m) }),
	)
	return h
}

func (h *harness) draw(points ...core.Point) {
	for _, p := range points {
		h.ctrl.Editor().Press(p)
	}
}

func (h *harness) hasLine(text string) bool {
	for _, l := range h.console.Lines() {
		if strings.HasSuffix(l, "] "+text) {
			return true
		}
	}
	return false
}

func TestSwitchView_LeavingDrawingSubmitsOnce(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SwitchView(ViewDrawing)
	h.draw(core.Point{X: 10, Y: 390}, core.Point{X: 100, Y: 200})

	h.ctrl.SwitchView(ViewControls)
	h.sched.RunPending()

	assert.Equal(t, []string{"points:[[10,10],[100,200]]"}, h.agent.sentWithPrefix("points:"))
	assert.Equal(t, ViewControls, h.ctrl.View())
	assert.Len(t, h.recorder.paths, 1)
	assert.Equal(t, h.ctrl.Editor().Points(), h.ctrl.Engine().Waypoints())

	// No second submission without another transition.
	h.ctrl.SwitchView(ViewControls)
	h.sched.RunPending()
	assert.Len(t, h.agent.sentWithPrefix("points:"), 1)
}

func TestSwitchView_NotEnoughPoints(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SwitchView(ViewDrawing)
	h.draw(core.Point{X: 10, Y: 10})

	h.ctrl.SwitchView(ViewControls)
	h.sched.RunPending()

	assert.Empty(t, h.agent.sentWithPrefix("points:"))
	assert.True(t, h.hasLine("not enough points"))
}

func TestSwitchView_NoSubmitWhileRunning(t *testing.T) {
	h := newHarness(t)
	h.agent.sync = "tracie True True"
	h.ctrl.Synchronize()
	h.sched.RunPending()
	require.True(t, h.ctrl.Running())

	h.ctrl.SwitchView(ViewDrawing)
	h.draw(core.Point{X: 10, Y: 10}, core.Point{X: 20, Y: 20})
	h.ctrl.SwitchView(ViewControls)
	h.sched.RunPending()

	assert.Empty(t, h.agent.sentWithPrefix("points:"))
	assert.False(t, h.hasLine("not enough points"))
}

func TestSwitchView_ParamHelp(t *testing.T) {
	h := newHarness(t)
	h.agent.replies["short:param-help"] = func() (string, error) {
		return `{"sp": "drive speed", "ac": "acceleration"}`, nil
	}

	h.ctrl.SwitchView(ViewParamHelp)
	h.sched.RunPending()

	assert.Equal(t, ViewParamHelp, h.ctrl.View())
	assert.Equal(t, []string{"ac", "sp"}, h.ctrl.ParamHelp().SortedCodes())
}

func TestSwitchView_ParamHelpFailure(t *testing.T) {
	h := newHarness(t)
	h.agent.replies["short:param-help"] = func() (string, error) { return "", api.ErrTimedOut }

	h.ctrl.SwitchView(ViewParamHelp)
	h.sched.RunPending()

	assert.True(t, h.hasLine("help fetch timed out"))
	assert.Nil(t, h.ctrl.ParamHelp())
}

func TestToggleTrace_NotEnoughPoints(t *testing.T) {
	h := newHarness(t)
	h.draw(core.Point{X: 10, Y: 10})

	h.ctrl.ToggleTrace()

	assert.Equal(t, []string{NoticeNotEnough}, h.notices)
	assert.False(t, h.ctrl.Tracing())
	assert.Empty(t, h.sched.Pending())
	assert.Empty(t, h.sched.ActiveTimers())
}

func TestToggleTrace_SubmitSettleStart(t *testing.T) {
	h := newHarness(t)
	h.agent.replies["short:trace"] = func() (string, error) { return "0.5 2.0 0 1 0 0", nil }
	h.draw(core.Point{X: 0, Y: 0}, core.Point{X: 10, Y: 0})

	h.ctrl.ToggleTrace()
	assert.True(t, h.ctrl.TraceStarting())
	assert.False(t, h.ctrl.Tracing())
	h.sched.RunPending()
	require.Len(t, h.agent.sentWithPrefix("points:"), 1)
	assert.Empty(t, h.agent.sentWithPrefix("control:"), "start waits for the settle delay")

	// A second toggle during the settle delay is ignored.
	h.ctrl.ToggleTrace()

	h.agent.sync = "tracie True True"
	h.sched.Advance(DefaultSettleDelay)
	assert.True(t, h.ctrl.Tracing())
	assert.True(t, h.ctrl.Running())
	assert.True(t, h.ctrl.Editor().Locked())
	assert.Equal(t, trace.AwaitingSync, h.ctrl.Engine().State())

	h.sched.RunPending()
	assert.Equal(t, []string{"control:start"}, h.agent.sentWithPrefix("control:"))
	assert.Equal(t, trace.Animating, h.ctrl.Engine().State())
	assert.Len(t, h.recorder.samples, 1)
	assert.Len(t, h.agent.sentWithPrefix("points:"), 1)
}

func TestToggleTrace_WhileRunningTogglesDirectly(t *testing.T) {
	h := newHarness(t)
	h.agent.sync = "tracie True True"
	h.ctrl.Synchronize()
	h.sched.RunPending()

	h.ctrl.ToggleTrace()
	assert.True(t, h.ctrl.Tracing())
	assert.Empty(t, h.agent.sentWithPrefix("points:"))

	h.ctrl.ToggleTrace()
	assert.False(t, h.ctrl.Tracing())
	assert.False(t, h.ctrl.Editor().Locked())
	assert.Equal(t, trace.Idle, h.ctrl.Engine().State())
	assert.False(t, h.ctrl.Engine().Sample().HasBase())
}

func TestSynchronize_LeavesTraceWhenAgentStops(t *testing.T) {
	h := newHarness(t)
	h.agent.sync = "tracie True True"
	h.ctrl.Synchronize()
	h.sched.RunPending()
	h.ctrl.ToggleTrace()
	require.True(t, h.ctrl.Tracing())

	h.agent.sync = "tracie False True"
	h.ctrl.Synchronize()
	h.sched.RunPending()

	assert.False(t, h.ctrl.Tracing())
	assert.Equal(t, trace.Idle, h.ctrl.Engine().State())
	assert.Equal(t, core.AgentStatus{Program: "tracie", CanReset: true}, h.ctrl.Status())
	assert.NotEmpty(t, h.recorder.statuses)
}

func TestSynchronize_Failures(t *testing.T) {
	h := newHarness(t)
	h.agent.sync = "garbage"
	h.ctrl.Synchronize()
	h.sched.RunPending()
	assert.True(t, h.hasLine("sync returned malformed data"))
	assert.Equal(t, ProgramTracie, h.ctrl.Status().Program)
}

func TestSend_ReportsOutcomes(t *testing.T) {
	h := newHarness(t)
	h.agent.replies["set:"] = func() (string, error) { return "", &api.FailedError{Code: 500} }
	h.agent.replies["short:att"] = func() (string, error) { return "", api.ErrTimedOut }
	h.agent.replies["control:"] = func() (string, error) { return "started", nil }

	h.ctrl.SetParameter("sp", "0.5")
	h.sched.RunPending()
	assert.True(t, h.hasLine("set:sp=0.5 failed (500)"))

	h.ctrl.Send(api.Short(api.AttQuery))
	h.sched.RunPending()
	assert.True(t, h.hasLine("short:att timed out"))

	before := len(h.agent.sentWithPrefix("short:sync"))
	h.ctrl.Send(api.Control(api.ControlStart))
	h.sched.RunPending()
	assert.True(t, h.hasLine("started"))
	assert.Len(t, h.agent.sentWithPrefix("short:sync"), before+1, "success triggers a sync")
}

func TestStartStopAndReset(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Reset()
	assert.Empty(t, h.sched.Pending(), "reset needs can-reset")

	h.ctrl.StartStop()
	assert.True(t, h.ctrl.Running())
	assert.True(t, h.ctrl.Status().CanReset)

	h.ctrl.StartStop()
	assert.False(t, h.ctrl.Running())

	h.ctrl.Reset()
	assert.False(t, h.ctrl.Status().CanReset)

	// Run only the commands, not the syncs they trigger.
	for range 3 {
		h.sched.RunOne()
	}
	assert.Equal(t, []string{"control:start", "control:stop", "control:reset"}, h.agent.sentWithPrefix("control:"))
}

func TestSwitchProgram(t *testing.T) {
	h := newHarness(t)
	h.draw(core.Point{X: 1, Y: 1}, core.Point{X: 50, Y: 50})

	h.ctrl.SwitchProgram(ProgramTracie)
	assert.Empty(t, h.sched.Pending(), "already the current program")

	h.agent.sync = "avoid False False"
	h.ctrl.SwitchProgram("avoid")
	h.sched.RunPending()
	assert.Equal(t, []string{"program:avoid"}, h.agent.sentWithPrefix("program:"))
	assert.Equal(t, "avoid", h.ctrl.Status().Program)
	assert.Empty(t, h.agent.sentWithPrefix("points:"))

	h.agent.sync = "tracie False False"
	h.ctrl.SwitchProgram(ProgramTracie)
	assert.True(t, h.ctrl.HasPendingSyncAction())
	h.sched.RunPending()

	assert.False(t, h.ctrl.HasPendingSyncAction())
	assert.Len(t, h.agent.sentWithPrefix("points:"), 1, "path re-sent after the sync")
}

func TestCalibrate(t *testing.T) {
	h := newHarness(t)

	h.agent.sync = "calib False False"
	h.ctrl.Calibrate()
	h.sched.RunPending()
	assert.Equal(t, []string{"program:calib"}, h.agent.sentWithPrefix("program:"))

	h.ctrl.Calibrate()
	h.sched.RunPending()
	assert.Equal(t, []string{"short:att"}, h.agent.sentWithPrefix("short:att"))
}

func TestLoad_InvalidNotifies(t *testing.T) {
	h := newHarness(t)
	h.draw(core.Point{X: 5, Y: 5})

	err := h.ctrl.Load("[1,2,3]")
	assert.ErrorIs(t, err, core.ErrMalformedResponse)
	assert.Equal(t, []string{NoticeInvalidSave}, h.notices)
	assert.Len(t, h.ctrl.Editor().Points(), 1)

	require.NoError(t, h.ctrl.Load("[1,2,3,4]"))
	assert.Len(t, h.ctrl.Editor().Points(), 2)
}

func TestStart_SyncsAndPolls(t *testing.T) {
	h := newHarness(t)
	polls := 0
	h.agent.replies["long:status"] = func() (string, error) {
		polls++
		return fmt.Sprintf("status %d", polls), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.ctrl.Start(ctx)
	assert.True(t, h.hasLine("in sync with server"))
	assert.Equal(t, []string{"sync", "status.poll"}, h.sched.Pending())
	assert.Equal(t, []string{"sync.periodic"}, h.sched.ActiveTimers())

	h.sched.RunOne() // sync
	h.sched.RunOne() // first poll, re-issued immediately
	assert.Equal(t, []string{"status.poll"}, h.sched.Pending())
	h.sched.RunOne()
	assert.True(t, h.hasLine("status 2"))

	h.sched.Advance(DefaultSyncInterval)
	assert.Contains(t, h.sched.Pending(), "sync")

	cancel()
	h.sched.RunPending()
	h.ctrl.Stop()
	assert.Empty(t, h.sched.Pending())
	assert.Empty(t, h.sched.ActiveTimers())
}

func TestStatusPoll_RetryDelay(t *testing.T) {
	sched := dispatchertest.NewManual(time.Unix(0, 0))
	agent := newFakeAgent()
	agent.replies["long:status"] = func() (string, error) { return "", &api.FailedError{Code: 204} }

	ctrl := New(agent, sched, slog.New(logging.NewConsole(10).Handler(slog.LevelInfo)),
		Config{Clock: sched.Now, StatusRetryDelay: time.Second})
	ctrl.ctx = context.Background()
	ctrl.pollStatus()

	sched.RunOne()
	assert.Empty(t, sched.Pending())
	assert.Equal(t, []string{"status.retry"}, sched.ActiveTimers())

	sched.Advance(time.Second)
	assert.Equal(t, []string{"status.poll"}, sched.Pending())
}

func TestLogAttrs(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SwitchView(ViewDrawing)

	attrs := h.ctrl.LogAttrs()
	require.Len(t, attrs, 2)
	assert.Equal(t, "drawing", attrs[0].Value.String())
	assert.False(t, attrs[1].Value.Bool())
}
