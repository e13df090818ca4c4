// Package actionlog keeps the edit history of a path as an append-only list
// of actions with an undo/redo cursor. The current path is never stored; it
// is derived by replaying the actions before the cursor.
package actionlog

import (
	"github.com/scribblerbot/scribbler/pkg/core"
)

// Log is an action log with a cursor. 0 <= cursor <= len(actions) always
// holds. A Log is not safe for concurrent use; it is owned by the editor.
type Log struct {
	actions []core.Action
	cursor  int
}

// New creates an empty log.
func New() *Log {
	return &Log{}
}

// Record drops the redo tail, appends a and moves the cursor to the end.
func (l *Log) Record(a core.Action) {
	if load, ok := a.(core.Load); ok {
		a = core.NewLoad(load.Points)
	}
	l.actions = append(l.actions[:l.cursor], a)
	l.cursor = len(l.actions)
}

// Undo steps the cursor back. It reports false when there is nothing to undo.
func (l *Log) Undo() bool {
	if l.cursor == 0 {
		return false
	}
	l.cursor--
	return true
}

// Redo steps the cursor forward. It reports false when there is nothing to redo.
func (l *Log) Redo() bool {
	if l.cursor == len(l.actions) {
		return false
	}
	l.cursor++
	return true
}

// Points replays the actions before the cursor.
func (l *Log) Points() core.Path {
	return Project(l.actions[:l.cursor])
}

// Cursor returns the number of applied actions.
func (l *Log) Cursor() int { return l.cursor }

// Len returns the number of recorded actions, including undone ones.
func (l *Log) Len() int { return len(l.actions) }

// CanUndo reports whether Undo would move the cursor.
func (l *Log) CanUndo() bool { return l.cursor > 0 }

// CanRedo reports whether Redo would move the cursor.
func (l *Log) CanRedo() bool { return l.cursor < len(l.actions) }

// Actions returns a copy of the applied prefix.
func (l *Log) Actions() []core.Action {
	out := make([]core.Action, l.cursor)
	copy(out, l.actions[:l.cursor])
	return out
}
