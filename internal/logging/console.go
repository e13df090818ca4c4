package logging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// ConsoleKey marks a record for the operator console.
const ConsoleKey = "console"

// ToConsole is the attr that routes a log record to the operator console.
func ToConsole() slog.Attr {
	return slog.Bool(ConsoleKey, true)
}

// DefaultConsoleLines is the retention used when NewConsole gets a
// non-positive limit.
const DefaultConsoleLines = 500

// Console is the numbered operator console. Lines read " [n] text" where n
// counts from 0 and restarts after Clear.
type Console struct {
	mu       sync.Mutex
	lines    []string
	next     int
	maxLines int
}

// NewConsole creates a console keeping at most maxLines lines.
func NewConsole(maxLines int) *Console {
	if maxLines <= 0 {
		maxLines = DefaultConsoleLines
	}
	return &Console{maxLines: maxLines}
}

// Add appends a line and returns its number.
func (c *Console) Add(text string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.next
	c.next++
	c.lines = append(c.lines, fmt.Sprintf(" [%d] %s", n, text))
	if over := len(c.lines) - c.maxLines; over > 0 {
		c.lines = append(c.lines[:0], c.lines[over:]...)
	}
	return n
}

// Lines returns a copy of the retained lines, oldest first.
func (c *Console) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// Len returns how many lines have been added since the last Clear.
func (c *Console) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Clear empties the console and resets the counter.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.next = 0
}

// Handler returns a slog.Handler that copies records carrying ToConsole into
// the console. Records below level are ignored.
func (c *Console) Handler(level slog.Leveler) slog.Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &consoleHandler{console: c, level: level}
}

type consoleHandler struct {
	console *Console
	level   slog.Leveler
	marked  bool // ToConsole came in through WithAttrs
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	marked := h.marked
	if !marked {
		r.Attrs(func(a slog.Attr) bool {
			if isConsoleAttr(a) {
				marked = true
				return false
			}
			return true
		})
	}
	if marked {
		h.console.Add(r.Message)
	}
	return nil
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	for _, a := range attrs {
		if isConsoleAttr(a) {
			next.marked = true
		}
	}
	return &next
}

func (h *consoleHandler) WithGroup(string) slog.Handler {
	return h
}

func isConsoleAttr(a slog.Attr) bool {
	return a.Key == ConsoleKey && a.Value.Kind() == slog.KindBool && a.Value.Bool()
}
