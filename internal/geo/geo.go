package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/scribblerbot/scribbler/pkg/core"
)

// CANVAS GEOMETRY
// Waypoints are kept in canvas pixels with the origin in the top-left corner,
// the way pointer events report them. Only the wire format flips the y axis.

// Lerp returns the point a fraction t of the way from a to b.
func Lerp(a, b core.Point, t float64) core.Point {
	return core.Point{
		X: a.X + t*(b.X-a.X),
		Y: a.Y + t*(b.Y-a.Y),
	}
}

// Clamp01 limits t to the closed interval [0, 1]. NaN clamps to 0.
func Clamp01(t float64) float64 {
	if !(t > 0) {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// DistanceSquared returns the squared euclidean distance between a and b.
func DistanceSquared(a, b core.Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}

// Nearest returns the index of the first waypoint strictly within radius of p.
func Nearest(path core.Path, p core.Point, radius float64) (int, bool) {
	r2 := radius * radius
	for i, q := range path {
		if DistanceSquared(p, q) < r2 {
			return i, true
		}
	}
	return -1, false
}

// FlipY converts a path to a bottom-left origin for a canvas of the given height.
func FlipY(path core.Path, height float64) core.Path {
	out := make(core.Path, len(path))
	for i, p := range path {
		out[i] = core.Point{X: p.X, Y: height - p.Y}
	}
	return out
}

// LineString builds a simplefeatures line string through the waypoints.
func LineString(path core.Path) (geom.LineString, error) {
	flatCoords := make([]float64, 0, len(path)*2)
	for _, p := range path {
		flatCoords = append(flatCoords, p.X, p.Y)
	}
	return geom.NewLineString(geom.NewSequence(flatCoords, geom.DimXY))
}

// PathLength returns the total length of the polyline through the waypoints.
// Paths simplefeatures rejects as invalid line strings have length 0.
func PathLength(path core.Path) float64 {
	if len(path) < 2 {
		return 0
	}
	ls, err := LineString(path)
	if err != nil {
		return 0
	}
	return ls.Length()
}

// ArrowTip returns the end of a heading arrow of the given length starting at
// p. Heading is in standard position, so positive angles point up the canvas.
func ArrowTip(p core.Point, heading, length float64) core.Point {
	return core.Point{
		X: p.X + length*math.Cos(heading),
		Y: p.Y - length*math.Sin(heading),
	}
}
