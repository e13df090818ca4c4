// Package editor holds the editable path: the action log, the drag gesture
// in progress and the add/delete mode.
package editor

import (
	"errors"

	"github.com/scribblerbot/scribbler/internal/actionlog"
	"github.com/scribblerbot/scribbler/internal/geo"
	"github.com/scribblerbot/scribbler/pkg/core"
)

// DefaultClickRadius is how close, in canvas pixels, a press must be to hit
// a waypoint.
const DefaultClickRadius = 10

// ErrLocked is returned by Load while tracing.
var ErrLocked = errors.New("editing is locked while tracing")

// Option configures an Editor.
type Option func(*Editor)

// WithClickRadius sets the hit radius for presses.
func WithClickRadius(r float64) Option {
	return func(e *Editor) {
		if r > 0 {
			e.clickRadius = r
		}
	}
}

// Editor owns the action log exclusively. It is not safe for concurrent use.
type Editor struct {
	log         *actionlog.Log
	points      core.Path
	clickRadius float64

	deleteMode bool
	locked     bool

	dragging  bool
	dragIndex int
}

// New creates an editor with an empty path.
func New(opts ...Option) *Editor {
	e := &Editor{
		log:         actionlog.New(),
		clickRadius: DefaultClickRadius,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Editor) perform(a core.Action) {
	e.log.Record(a)
	e.render()
}

// render recomputes the projection and drops any drag preview.
func (e *Editor) render() {
	e.dragging = false
	e.points = e.log.Points()
}

// Press handles a pointer press at p. It reports whether the path changed.
func (e *Editor) Press(p core.Point) bool {
	if e.locked {
		return false
	}
	i, hit := geo.Nearest(e.points, p, e.clickRadius)
	switch {
	case !hit && e.deleteMode:
		return false
	case !hit:
		e.perform(core.PointAdd{X: p.X, Y: p.Y})
		return true
	case e.deleteMode:
		e.perform(core.Delete{Index: i})
		return true
	default:
		e.dragging = true
		e.dragIndex = i
		return false
	}
}

// Drag moves the grabbed waypoint to p without recording anything.
func (e *Editor) Drag(p core.Point) bool {
	if !e.dragging || e.deleteMode || e.locked {
		return false
	}
	e.points[e.dragIndex] = p
	return true
}

// Release ends a drag at p and records the move.
func (e *Editor) Release(p core.Point) bool {
	if !e.dragging {
		return false
	}
	if e.deleteMode || e.locked {
		e.render()
		return false
	}
	e.perform(core.Move{Index: e.dragIndex, X: p.X, Y: p.Y})
	return true
}

// Dragging reports whether a waypoint is grabbed.
func (e *Editor) Dragging() bool { return e.dragging }

// ToggleDelete switches between adding and deleting waypoints.
func (e *Editor) ToggleDelete() {
	e.deleteMode = !e.deleteMode
}

// DeleteMode reports whether presses delete waypoints.
func (e *Editor) DeleteMode() bool { return e.deleteMode }

// Undo steps back one action.
func (e *Editor) Undo() bool {
	if e.locked || !e.log.Undo() {
		return false
	}
	e.render()
	return true
}

// Redo re-applies the next undone action.
func (e *Editor) Redo() bool {
	if e.locked || !e.log.Redo() {
		return false
	}
	e.render()
	return true
}

// Clear removes every waypoint. Clearing an empty path records nothing.
func (e *Editor) Clear() bool {
	if e.locked || len(e.points) == 0 {
		return false
	}
	e.perform(core.Clear{})
	return true
}

// Save serializes the current path.
func (e *Editor) Save() string {
	return geo.EncodeSave(e.points)
}

// Load replaces the path with previously saved data. Invalid data is
// rejected with an error wrapping core.ErrMalformedResponse and the log is
// left untouched.
func (e *Editor) Load(text string) error {
	if e.locked {
		return ErrLocked
	}
	path, err := geo.DecodeSave(text)
	if err != nil {
		return err
	}
	e.perform(core.NewLoad(path))
	return nil
}

// Points returns the current path, including a drag preview.
func (e *Editor) Points() core.Path {
	return e.points.Clone()
}

// EnoughPoints reports whether the path can be sent to the agent.
func (e *Editor) EnoughPoints() bool {
	return len(e.points) > 1
}

// SetLocked ignores editing while the path is being traced.
func (e *Editor) SetLocked(locked bool) {
	if locked && e.dragging {
		e.render()
	}
	e.locked = locked
}

// Locked reports whether editing is disabled.
func (e *Editor) Locked() bool { return e.locked }

// Cursor and Len expose the log position for display.
func (e *Editor) Cursor() int { return e.log.Cursor() }
func (e *Editor) Len() int    { return e.log.Len() }
