package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Undo      key.Binding
	Redo      key.Binding
	Clear     key.Binding
	Delete    key.Binding
	Save      key.Binding
	Load      key.Binding
	Trace     key.Binding
	StartStop key.Binding
	Reset     key.Binding
	Program   key.Binding
	NextView  key.Binding
	ParamHelp key.Binding
	SetParam  key.Binding
	Calibrate key.Binding
	Raw       key.Binding
	Submit    key.Binding
	Cancel    key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Undo:      key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		Redo:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "redo")),
		Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete mode")),
		Save:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Load:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "load")),
		Trace:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trace")),
		StartStop: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/stop")),
		Reset:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset")),
		Program:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "program")),
		NextView:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		ParamHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "parameters")),
		SetParam:  key.NewBinding(key.WithKeys("="), key.WithHelp("=", "set parameter")),
		Calibrate: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "calibrate")),
		Raw:       key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "send")),
		Submit:    key.NewBinding(key.WithKeys("enter")),
		Cancel:    key.NewBinding(key.WithKeys("esc")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) drawing() []key.Binding {
	return []key.Binding{k.Undo, k.Redo, k.Clear, k.Delete, k.Save, k.Load, k.Trace, k.NextView, k.Quit}
}

func (k keyMap) controls() []key.Binding {
	return []key.Binding{k.StartStop, k.Reset, k.Program, k.Calibrate, k.SetParam, k.Raw, k.ParamHelp, k.NextView, k.Quit}
}
