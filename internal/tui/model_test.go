package tui

import (
	"context"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribblerbot/scribbler/internal/control"
	"github.com/scribblerbot/scribbler/internal/dispatcher"
	"github.com/scribblerbot/scribbler/internal/dispatcher/dispatchertest"
	"github.com/scribblerbot/scribbler/internal/logging"
	"github.com/scribblerbot/scribbler/pkg/core"
)

type okAgent struct{ sent []string }

func (a *okAgent) Send(_ context.Context, message string) (string, error) {
	a.sent = append(a.sent, message)
	return "tracie False False", nil
}

type fakeLoop struct {
	tasks    chan dispatcher.Task
	executed []string
}

func (l *fakeLoop) Tasks() <-chan dispatcher.Task { return l.tasks }

func (l *fakeLoop) Execute(t dispatcher.Task) {
	l.executed = append(l.executed, t.Name)
	t.Fn()
}

type harness struct {
	model   *Model
	ctrl    *control.Controller
	sched   *dispatchertest.Manual
	loop    *fakeLoop
	console *logging.Console
}

// newHarness builds a model whose canvas is 10×5 cells over a 100×50 canvas.
func newHarness(t *testing.T) *harness {
	t.Helper()
	sched := dispatchertest.NewManual(time.Unix(0, 0))
	console := logging.NewConsole(0)
	sink := NewSink()
	logger := slog.New(console.Handler(slog.LevelInfo))

	ctrl := control.New(&okAgent{}, sched, logger, control.Config{CanvasHeight: 50, Clock: sched.Now},
		control.WithNotifier(sink.Notify),
		control.WithOnFrame(sink.Frame),
	)
	loop := &fakeLoop{tasks: make(chan dispatcher.Task, 1)}
	m := New(ctrl, loop, console, sink, Options{CanvasWidth: 100, CanvasHeight: 50})
	m.Update(tea.WindowSizeMsg{Width: 10, Height: headerLines + footerLines + consoleLines + 5})

	return &harness{model: m, ctrl: ctrl, sched: sched, loop: loop, console: console}
}

func (h *harness) keys(s string) tea.Cmd {
	var cmd tea.Cmd
	for _, r := range s {
		_, cmd = h.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return cmd
}

func (h *harness) press(k tea.KeyType) tea.Cmd {
	_, cmd := h.model.Update(tea.KeyMsg{Type: k})
	return cmd
}

func (h *harness) mouse(action tea.MouseAction, x, y int) {
	h.model.Update(tea.MouseMsg{X: x, Y: y + headerLines, Button: tea.MouseButtonLeft, Action: action})
}

func (h *harness) toDrawing() {
	h.press(tea.KeyTab)
	h.press(tea.KeyTab)
}

func TestModel_TabCyclesViews(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, control.ViewControls, h.ctrl.View())

	h.press(tea.KeyTab)
	assert.Equal(t, control.ViewParamHelp, h.ctrl.View())
	h.press(tea.KeyTab)
	assert.Equal(t, control.ViewDrawing, h.ctrl.View())
	h.press(tea.KeyTab)
	assert.Equal(t, control.ViewControls, h.ctrl.View())

	// leaving the drawing without a path
	assert.Contains(t, h.console.Lines(), " [0] not enough points")
}

func TestModel_ClickAddsPoint(t *testing.T) {
	h := newHarness(t)
	h.toDrawing()

	h.mouse(tea.MouseActionPress, 3, 2)
	h.mouse(tea.MouseActionRelease, 3, 2)

	assert.Equal(t, core.Path{{X: 35, Y: 25}}, h.ctrl.Editor().Points())
	assert.Contains(t, h.model.View(), "●")
}

func TestModel_ClickOutsideDrawingIgnored(t *testing.T) {
	h := newHarness(t)

	h.mouse(tea.MouseActionPress, 3, 2)
	assert.Empty(t, h.ctrl.Editor().Points())

	h.toDrawing()
	h.mouse(tea.MouseActionPress, 3, 40)
	assert.Empty(t, h.ctrl.Editor().Points())
}

func TestModel_DragMovesPoint(t *testing.T) {
	h := newHarness(t)
	h.toDrawing()
	h.mouse(tea.MouseActionPress, 3, 2)
	h.mouse(tea.MouseActionRelease, 3, 2)

	h.mouse(tea.MouseActionPress, 3, 2)
	require.True(t, h.ctrl.Editor().Dragging())
	h.mouse(tea.MouseActionMotion, 5, 2)
	assert.Equal(t, core.Path{{X: 55, Y: 25}}, h.ctrl.Editor().Points())
	h.mouse(tea.MouseActionRelease, 5, 2)

	assert.False(t, h.ctrl.Editor().Dragging())
	assert.Equal(t, core.Path{{X: 55, Y: 25}}, h.ctrl.Editor().Points())
	assert.Equal(t, 2, h.ctrl.Editor().Len())
}

func TestModel_UndoRedoClear(t *testing.T) {
	h := newHarness(t)
	h.toDrawing()
	h.mouse(tea.MouseActionPress, 1, 1)
	h.mouse(tea.MouseActionPress, 8, 3)
	require.Len(t, h.ctrl.Editor().Points(), 2)

	h.keys("u")
	assert.Len(t, h.ctrl.Editor().Points(), 1)
	h.keys("r")
	assert.Len(t, h.ctrl.Editor().Points(), 2)
	h.keys("c")
	assert.Empty(t, h.ctrl.Editor().Points())
	h.keys("u")
	assert.Len(t, h.ctrl.Editor().Points(), 2)
}

func TestModel_DeleteMode(t *testing.T) {
	h := newHarness(t)
	h.toDrawing()
	h.mouse(tea.MouseActionPress, 1, 1)

	h.keys("d")
	assert.True(t, h.ctrl.Editor().DeleteMode())
	h.mouse(tea.MouseActionPress, 1, 1)
	assert.Empty(t, h.ctrl.Editor().Points())
}

func TestModel_SaveShowsText(t *testing.T) {
	h := newHarness(t)
	h.toDrawing()
	h.mouse(tea.MouseActionPress, 1, 1)

	h.keys("s")
	assert.Equal(t, "[15,15]", h.model.saved)
	assert.Contains(t, h.model.View(), "[15,15]")

	h.press(tea.KeyEsc)
	assert.Empty(t, h.model.saved)
}

func TestModel_LoadPrompt(t *testing.T) {
	h := newHarness(t)
	h.toDrawing()

	h.keys("l")
	require.Equal(t, promptLoad, h.model.prompt)
	h.keys("[10,20,30,40]")
	h.press(tea.KeyEnter)

	assert.Equal(t, promptNone, h.model.prompt)
	assert.Equal(t, core.Path{{X: 10, Y: 20}, {X: 30, Y: 40}}, h.ctrl.Editor().Points())
}

func TestModel_InvalidLoadRaisesNotice(t *testing.T) {
	h := newHarness(t)
	h.toDrawing()

	h.keys("l")
	h.keys("garbage")
	h.press(tea.KeyEnter)

	assert.Equal(t, control.NoticeInvalidSave, h.model.sink.notice)
	assert.Contains(t, h.model.View(), control.NoticeInvalidSave)

	// keys other than enter/esc are swallowed by the notice
	h.keys("c")
	assert.Equal(t, control.NoticeInvalidSave, h.model.sink.notice)
	h.press(tea.KeyEnter)
	assert.Empty(t, h.model.sink.notice)
}

func TestModel_TraceNeedsPoints(t *testing.T) {
	h := newHarness(t)
	h.toDrawing()

	h.keys("t")
	assert.Equal(t, control.NoticeNotEnough, h.model.sink.notice)
	assert.False(t, h.ctrl.Tracing())
}

func TestModel_ControlKeys(t *testing.T) {
	h := newHarness(t)

	h.keys(" ")
	assert.True(t, h.ctrl.Running())
	assert.True(t, h.ctrl.Status().CanReset)

	h.keys("x")
	assert.False(t, h.ctrl.Running())
	assert.False(t, h.ctrl.Status().CanReset)
	assert.Contains(t, h.sched.Pending(), "send")
}

func TestModel_ProgramPrompt(t *testing.T) {
	h := newHarness(t)

	h.keys("p")
	h.keys("calib")
	h.press(tea.KeyEnter)
	assert.Equal(t, control.ProgramCalib, h.ctrl.Status().Program)
}

func TestModel_PromptEscCancels(t *testing.T) {
	h := newHarness(t)

	h.keys("=")
	require.Equal(t, promptParam, h.model.prompt)
	h.keys("spd 3")
	h.press(tea.KeyEsc)

	assert.Equal(t, promptNone, h.model.prompt)
	assert.Empty(t, h.sched.Pending())
}

func TestModel_TaskPump(t *testing.T) {
	h := newHarness(t)
	ran := false

	_, cmd := h.model.Update(taskMsg{task: dispatcher.Task{Name: "probe", Fn: func() { ran = true }}})

	assert.True(t, ran)
	assert.Equal(t, []string{"probe"}, h.loop.executed)
	require.NotNil(t, cmd)

	h.loop.tasks <- dispatcher.Task{Name: "next", Fn: func() {}}
	msg := cmd()
	next, ok := msg.(taskMsg)
	require.True(t, ok)
	assert.Equal(t, "next", next.task.Name)
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t)

	cmd := h.keys("q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, h.model.View())
}

func TestModel_CtrlCQuitsFromPrompt(t *testing.T) {
	h := newHarness(t)
	h.keys(":")

	cmd := h.press(tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
