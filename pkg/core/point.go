// pkg/core/point.go
package core

// Point is a waypoint on the canvas, in canvas pixels with a top-left origin.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is an ordered sequence of waypoints. Index 0 is the start point and
// consecutive points form the segments the agent drives along.
type Path []Point

// Clone returns a deep copy of the path. A nil path clones to an empty one.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Len returns the number of waypoints.
func (p Path) Len() int {
	return len(p)
}

// Segments returns the number of segments between consecutive waypoints.
func (p Path) Segments() int {
	if len(p) < 2 {
		return 0
	}
	return len(p) - 1
}
