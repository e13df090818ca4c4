package actionlog

import "github.com/scribblerbot/scribbler/pkg/core"

// Project folds actions, in order, over an empty path.
//
// Move and Delete carry the index that was valid when they were recorded.
// Replaying a prefix can never invalidate them, but the fold still skips an
// out-of-range index instead of panicking.
func Project(actions []core.Action) core.Path {
	points := core.Path{}
	for _, a := range actions {
		points = apply(points, a)
	}
	return points
}

func apply(points core.Path, a core.Action) core.Path {
	switch a := a.(type) {
	case core.PointAdd:
		return append(points, core.Point{X: a.X, Y: a.Y})
	case core.Move:
		if a.Index < 0 || a.Index >= len(points) {
			return points
		}
		points[a.Index] = core.Point{X: a.X, Y: a.Y}
		return points
	case core.Delete:
		if a.Index < 0 || a.Index >= len(points) {
			return points
		}
		return append(points[:a.Index], points[a.Index+1:]...)
	case core.Clear:
		return core.Path{}
	case core.Load:
		return a.Points.Clone()
	default:
		return points
	}
}
