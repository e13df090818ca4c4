// pkg/core/action.go
package core

// Action is one recorded edit. The set of implementations is closed:
// PointAdd, Move, Delete, Clear and Load.
type Action interface {
	// Kind returns the short name of the action, used for logging.
	Kind() string

	action()
}

// PointAdd appends a waypoint.
type PointAdd struct {
	X, Y float64
}

// Move relocates the waypoint at Index.
type Move struct {
	Index int
	X, Y  float64
}

// Delete removes the waypoint at Index, shifting the following ones down.
type Delete struct {
	Index int
}

// Clear removes every waypoint.
type Clear struct{}

// Load replaces the whole path. Use NewLoad so the action owns its points.
type Load struct {
	Points Path
}

// NewLoad builds a Load action holding a private copy of points.
func NewLoad(points Path) Load {
	return Load{Points: points.Clone()}
}

func (PointAdd) Kind() string { return "point" }
func (Move) Kind() string     { return "move" }
func (Delete) Kind() string   { return "del" }
func (Clear) Kind() string    { return "clear" }
func (Load) Kind() string     { return "load" }

func (PointAdd) action() {}
func (Move) action()     {}
func (Delete) action()   {}
func (Clear) action()    {}
func (Load) action()     {}
