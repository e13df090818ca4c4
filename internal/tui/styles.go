package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	header      lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	canvas      lipgloss.Style
	plain       lipgloss.Style
	segment     lipgloss.Style
	start       lipgloss.Style
	agent       lipgloss.Style
	enabled     lipgloss.Style
	disabled    lipgloss.Style
	active      lipgloss.Style
	console     lipgloss.Style
	notice      lipgloss.Style
	help        lipgloss.Style
}

func newStyles() styles {
	red := lipgloss.Color("#ff0000")
	blue := lipgloss.Color("#3b82f6")
	muted := lipgloss.Color("#6b7280")

	return styles{
		header:      lipgloss.NewStyle().Bold(true),
		tabActive:   lipgloss.NewStyle().Bold(true).Underline(true).Padding(0, 1),
		tabInactive: lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		canvas:      lipgloss.NewStyle(),
		plain:       lipgloss.NewStyle(),
		segment:     lipgloss.NewStyle(),
		start:       lipgloss.NewStyle().Foreground(red),
		agent:       lipgloss.NewStyle().Foreground(blue).Bold(true),
		enabled:     lipgloss.NewStyle(),
		disabled:    lipgloss.NewStyle().Foreground(muted),
		active:      lipgloss.NewStyle().Reverse(true),
		console:     lipgloss.NewStyle().Foreground(muted),
		notice: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(red).
			Padding(0, 1),
		help: lipgloss.NewStyle().Foreground(muted),
	}
}
