package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/scribblerbot/scribbler/internal/geo"
	"github.com/scribblerbot/scribbler/pkg/core"
)

type cellKind int

const (
	cellBlank cellKind = iota
	cellSegment
	cellWaypoint
	cellStart
	cellAgent
	cellArrow
)

type cell struct {
	r    rune
	kind cellKind
}

// arrowGlyphs are indexed by heading octant, counterclockwise from east.
var arrowGlyphs = []rune{'→', '↗', '↑', '↖', '←', '↙', '↓', '↘'}

// arrowGlyph picks the arrow closest to heading, in standard position.
func arrowGlyph(heading float64) rune {
	octant := int(math.Round(heading/(math.Pi/4))) % 8
	if octant < 0 {
		octant += 8
	}
	return arrowGlyphs[octant]
}

// grid maps canvas units onto a cols×rows block of terminal cells.
type grid struct {
	cols, rows    int
	width, height float64
	cells         [][]cell
}

func newGrid(cols, rows int, width, height float64) *grid {
	g := &grid{cols: cols, rows: rows, width: width, height: height}
	g.cells = make([][]cell, rows)
	for y := range g.cells {
		g.cells[y] = make([]cell, cols)
		for x := range g.cells[y] {
			g.cells[y][x] = cell{r: ' '}
		}
	}
	return g
}

// toCell returns the cell containing p. ok is false outside the canvas.
func (g *grid) toCell(p core.Point) (x, y int, ok bool) {
	x = int(math.Floor(p.X * float64(g.cols) / g.width))
	y = int(math.Floor(p.Y * float64(g.rows) / g.height))
	return x, y, x >= 0 && x < g.cols && y >= 0 && y < g.rows
}

// toCanvas returns the canvas point at the center of cell (x, y).
func (g *grid) toCanvas(x, y int) core.Point {
	return core.Point{
		X: (float64(x) + 0.5) * g.width / float64(g.cols),
		Y: (float64(y) + 0.5) * g.height / float64(g.rows),
	}
}

func (g *grid) set(p core.Point, c cell) {
	if x, y, ok := g.toCell(p); ok {
		g.cells[y][x] = c
	}
}

// line dots the segment from a to b, sampling at half-cell steps.
func (g *grid) line(a, b core.Point) {
	ax, ay, _ := g.toCell(a)
	bx, by, _ := g.toCell(b)
	steps := 2 * max(abs(bx-ax), abs(by-ay), 1)
	for i := 0; i <= steps; i++ {
		g.set(geo.Lerp(a, b, float64(i)/float64(steps)), cell{r: '·', kind: cellSegment})
	}
}

// drawCanvas lays out the path and, when given, the agent pose.
func drawCanvas(points core.Path, pose *core.Pose, cols, rows int, width, height float64) *grid {
	g := newGrid(cols, rows, width, height)
	for i := 1; i < len(points); i++ {
		g.line(points[i-1], points[i])
	}
	for i := len(points) - 1; i >= 0; i-- {
		kind := cellWaypoint
		if i == 0 {
			kind = cellStart
		}
		g.set(points[i], cell{r: '●', kind: kind})
	}
	if pose != nil {
		cellSize := width / float64(cols)
		tip := geo.ArrowTip(pose.Position, pose.Heading, 2*cellSize)
		g.set(tip, cell{r: arrowGlyph(pose.Heading), kind: cellArrow})
		g.set(pose.Position, cell{r: '◉', kind: cellAgent})
	}
	return g
}

// plain renders the grid without styling.
func (g *grid) plain() []string {
	out := make([]string, g.rows)
	for y, row := range g.cells {
		var sb strings.Builder
		for _, c := range row {
			sb.WriteRune(c.r)
		}
		out[y] = sb.String()
	}
	return out
}

func (g *grid) render(s styles) string {
	lines := make([]string, g.rows)
	for y, row := range g.cells {
		var sb strings.Builder
		for _, c := range row {
			sb.WriteString(s.cell(c.kind).Render(string(c.r)))
		}
		lines[y] = sb.String()
	}
	return s.canvas.Render(strings.Join(lines, "\n"))
}

func (s styles) cell(kind cellKind) lipgloss.Style {
	switch kind {
	case cellStart:
		return s.start
	case cellAgent, cellArrow:
		return s.agent
	case cellSegment:
		return s.segment
	default:
		return s.plain
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
