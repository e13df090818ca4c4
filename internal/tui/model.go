// Package tui is the operator terminal: a bubbletea program showing the
// controls, the parameter help and the drawing canvas. The Update loop
// drains the dispatcher queue, so the controller is only ever touched from
// the bubbletea goroutine.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/scribblerbot/scribbler/internal/control"
	"github.com/scribblerbot/scribbler/internal/dispatcher"
	"github.com/scribblerbot/scribbler/internal/logging"
	"github.com/scribblerbot/scribbler/pkg/core"
)

const (
	headerLines   = 2
	footerLines   = 3
	consoleLines  = 6
	minCanvasRows = 5
	minCanvasCols = 10
)

// Loop is the queue the model drains between key and mouse events.
type Loop interface {
	Tasks() <-chan dispatcher.Task
	Execute(t dispatcher.Task)
}

// Sink collects what the controller pushes at the renderer: trace frames
// and blocking notices. Its methods run on the loop.
type Sink struct {
	pose   *core.Pose
	notice string
}

func NewSink() *Sink { return &Sink{} }

// Frame stores the latest trace pose.
func (s *Sink) Frame(p core.Pose) { s.pose = &p }

// Notify raises a notice the operator has to dismiss.
func (s *Sink) Notify(message string) { s.notice = message }

// Options sizes the drawing canvas in canvas units.
type Options struct {
	CanvasWidth  float64
	CanvasHeight float64
}

type prompt int

const (
	promptNone prompt = iota
	promptLoad
	promptParam
	promptProgram
	promptRaw
)

var promptLabels = map[prompt]string{
	promptLoad:    "load> ",
	promptParam:   "set <code> <value>> ",
	promptProgram: "program> ",
	promptRaw:     "send> ",
}

type taskMsg struct{ task dispatcher.Task }

// Model is the bubbletea model.
type Model struct {
	ctrl    *control.Controller
	loop    Loop
	console *logging.Console
	sink    *Sink
	opts    Options

	keys   keyMap
	styles styles
	input  textinput.Model

	width, height int
	prompt        prompt
	saved         string
	quitting      bool
}

// New creates the model. Pass sink.Frame and sink.Notify to the controller
// so frames and notices reach the screen.
func New(ctrl *control.Controller, loop Loop, console *logging.Console, sink *Sink, opts Options) *Model {
	if opts.CanvasWidth <= 0 {
		opts.CanvasWidth = 600
	}
	if opts.CanvasHeight <= 0 {
		opts.CanvasHeight = control.DefaultCanvasHeight
	}
	input := textinput.New()
	input.CharLimit = 4096
	return &Model{
		ctrl:    ctrl,
		loop:    loop,
		console: console,
		sink:    sink,
		opts:    opts,
		keys:    defaultKeyMap(),
		styles:  newStyles(),
		input:   input,
		width:   80,
		height:  24,
	}
}

func waitTask(tasks <-chan dispatcher.Task) tea.Cmd {
	return func() tea.Msg {
		t, ok := <-tasks
		if !ok {
			return nil
		}
		return taskMsg{task: t}
	}
}

func (m *Model) Init() tea.Cmd {
	return waitTask(m.loop.Tasks())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskMsg:
		m.loop.Execute(msg.task)
		return m, waitTask(m.loop.Tasks())
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c" {
		m.quitting = true
		return tea.Quit
	}
	if m.sink.notice != "" {
		if key.Matches(msg, m.keys.Submit, m.keys.Cancel) {
			m.sink.notice = ""
		}
		return nil
	}
	if m.prompt != promptNone {
		return m.handlePrompt(msg)
	}
	if m.saved != "" && key.Matches(msg, m.keys.Cancel) {
		m.saved = ""
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.NextView):
		m.ctrl.SwitchView(nextView(m.ctrl.View()))
	case key.Matches(msg, m.keys.ParamHelp):
		m.ctrl.SwitchView(control.ViewParamHelp)
	case m.ctrl.View() == control.ViewDrawing:
		return m.handleDrawingKey(msg)
	default:
		return m.handleControlsKey(msg)
	}
	return nil
}

func (m *Model) handleDrawingKey(msg tea.KeyMsg) tea.Cmd {
	editor := m.ctrl.Editor()
	buttons := m.ctrl.Buttons()
	switch {
	case key.Matches(msg, m.keys.Trace):
		m.ctrl.ToggleTrace()
	case buttons.TraceActive:
	case key.Matches(msg, m.keys.Undo) && buttons.Undo:
		editor.Undo()
	case key.Matches(msg, m.keys.Redo) && buttons.Redo:
		editor.Redo()
	case key.Matches(msg, m.keys.Clear) && buttons.Clear:
		editor.Clear()
	case key.Matches(msg, m.keys.Delete) && buttons.Delete:
		editor.ToggleDelete()
	case key.Matches(msg, m.keys.Save) && buttons.Save:
		m.saved = editor.Save()
	case key.Matches(msg, m.keys.Load) && buttons.Load:
		return m.openPrompt(promptLoad)
	}
	return nil
}

func (m *Model) handleControlsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.StartStop):
		m.ctrl.StartStop()
	case key.Matches(msg, m.keys.Reset):
		m.ctrl.Reset()
	case key.Matches(msg, m.keys.Calibrate):
		m.ctrl.Calibrate()
	case key.Matches(msg, m.keys.Program):
		return m.openPrompt(promptProgram)
	case key.Matches(msg, m.keys.SetParam):
		return m.openPrompt(promptParam)
	case key.Matches(msg, m.keys.Raw):
		return m.openPrompt(promptRaw)
	}
	return nil
}

func (m *Model) openPrompt(p prompt) tea.Cmd {
	m.prompt = p
	m.input.Prompt = promptLabels[p]
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) handlePrompt(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closePrompt()
		return nil
	case key.Matches(msg, m.keys.Submit):
		p, text := m.prompt, m.input.Value()
		m.closePrompt()
		m.submit(p, text)
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) submit(p prompt, text string) {
	switch p {
	case promptLoad:
		_ = m.ctrl.Load(text)
	case promptParam:
		code, value, _ := strings.Cut(strings.TrimSpace(text), " ")
		if code != "" {
			m.ctrl.SetParameter(code, strings.TrimSpace(value))
		}
	case promptProgram:
		if name := strings.TrimSpace(text); name != "" {
			m.ctrl.SwitchProgram(name)
		}
	case promptRaw:
		if text != "" {
			m.ctrl.Send(text)
		}
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.ctrl.View() != control.ViewDrawing || m.prompt != promptNone || m.sink.notice != "" {
		return
	}
	g := m.grid()
	x, y := msg.X, msg.Y-headerLines
	if x < 0 || y < 0 || x >= g.cols || y >= g.rows {
		return
	}
	p := g.toCanvas(x, y)
	editor := m.ctrl.Editor()
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			editor.Press(p)
		}
	case tea.MouseActionMotion:
		editor.Drag(p)
	case tea.MouseActionRelease:
		editor.Release(p)
	}
}

func nextView(v control.View) control.View {
	for i, candidate := range control.Views {
		if candidate == v {
			return control.Views[(i+1)%len(control.Views)]
		}
	}
	return control.ViewControls
}

// canvasSize is the cell block given to the canvas at the current size.
func (m *Model) canvasSize() (cols, rows int) {
	cols = max(m.width, minCanvasCols)
	rows = max(m.height-headerLines-footerLines-consoleLines, minCanvasRows)
	return cols, rows
}

func (m *Model) grid() *grid {
	cols, rows := m.canvasSize()
	return newGrid(cols, rows, m.opts.CanvasWidth, m.opts.CanvasHeight)
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var body string
	switch m.ctrl.View() {
	case control.ViewDrawing:
		body = m.drawingView()
	case control.ViewParamHelp:
		body = m.paramHelpView()
	default:
		body = m.controlsView()
	}

	sections := []string{m.tabs(), "", body, m.consoleView(), m.footer()}
	out := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.sink.notice != "" {
		notice := m.styles.notice.Render(m.sink.notice + "\n\n" + m.styles.help.Render("enter to dismiss"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, notice)
	}
	return out
}

func (m *Model) tabs() string {
	parts := make([]string, len(control.Views))
	for i, v := range control.Views {
		style := m.styles.tabInactive
		if v == m.ctrl.View() {
			style = m.styles.tabActive
		}
		parts[i] = style.Render(string(v))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) controlsView() string {
	status := m.ctrl.Status()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", m.styles.header.Render("program"), status.Program)
	fmt.Fprintf(&sb, "%s %t\n", m.styles.header.Render("running"), status.Running)
	fmt.Fprintf(&sb, "%s %t\n\n", m.styles.header.Render("can reset"), status.CanReset)

	startStop := "start"
	if status.Running {
		startStop = "stop"
	}
	sb.WriteString(m.button("space "+startStop, true, false))
	sb.WriteString(" ")
	sb.WriteString(m.button("x reset", status.CanReset, false))
	sb.WriteString(" ")
	sb.WriteString(m.button("a calibrate", true, status.Program == control.ProgramCalib))
	return sb.String()
}

func (m *Model) paramHelpView() string {
	help := m.ctrl.ParamHelp()
	if len(help) == 0 {
		return m.styles.help.Render("no parameters")
	}
	codes := make([]string, 0, len(help))
	width := 0
	for code := range help {
		codes = append(codes, code)
		width = max(width, len(code))
	}
	sort.Strings(codes)
	lines := make([]string, len(codes))
	for i, code := range codes {
		lines[i] = fmt.Sprintf("%-*s  %s", width, code, help[code])
	}
	return strings.Join(lines, "\n")
}

func (m *Model) drawingView() string {
	cols, rows := m.canvasSize()
	var pose *core.Pose
	if m.ctrl.Tracing() {
		pose = m.sink.pose
	}
	g := drawCanvas(m.ctrl.Editor().Points(), pose, cols, rows, m.opts.CanvasWidth, m.opts.CanvasHeight)

	b := m.ctrl.Buttons()
	buttons := strings.Join([]string{
		m.button("u undo", b.Undo, false),
		m.button("r redo", b.Redo, false),
		m.button("c clear", b.Clear, false),
		m.button("d delete", b.Delete, b.DeleteOn),
		m.button("s save", b.Save, false),
		m.button("l load", b.Load, false),
		m.button("t trace", true, b.TraceActive || m.ctrl.TraceStarting()),
	}, " ")
	out := g.render(m.styles) + "\n" + buttons
	if m.saved != "" {
		out += "\n" + m.saved
	}
	return out
}

func (m *Model) button(label string, enabled, active bool) string {
	switch {
	case active:
		return m.styles.active.Render("[" + label + "]")
	case enabled:
		return m.styles.enabled.Render("[" + label + "]")
	default:
		return m.styles.disabled.Render("[" + label + "]")
	}
}

func (m *Model) consoleView() string {
	lines := m.console.Lines()
	if len(lines) > consoleLines {
		lines = lines[len(lines)-consoleLines:]
	}
	return m.styles.console.Render(strings.Join(lines, "\n"))
}

func (m *Model) footer() string {
	if m.prompt != promptNone {
		return m.input.View()
	}
	bindings := m.keys.controls()
	if m.ctrl.View() == control.ViewDrawing {
		bindings = m.keys.drawing()
	}
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		h := b.Help()
		parts[i] = h.Key + " " + h.Desc
	}
	return m.styles.help.Render(strings.Join(parts, " · "))
}
