package editor

// Buttons is the enabled/active state of the drawing controls.
type Buttons struct {
	Undo        bool
	Redo        bool
	Clear       bool
	Save        bool
	Load        bool
	Delete      bool
	DeleteOn    bool
	TraceActive bool
}

// Buttons derives control state from the log cursor, the point count and
// the modes. It holds no state of its own.
func (e *Editor) Buttons(tracing bool) Buttons {
	if tracing {
		return Buttons{TraceActive: true}
	}
	return Buttons{
		Undo:     e.log.CanUndo(),
		Redo:     e.log.CanRedo(),
		Clear:    len(e.points) > 0,
		Save:     true,
		Load:     true,
		Delete:   true,
		DeleteOn: e.deleteMode,
	}
}
