package mockagent

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/scribblerbot/scribbler/pkg/core"
)

type mode int

const (
	modeIdle mode = iota
	modeRotate
	modeDrive
	modeHalt
)

// tracer simulates the path-following program: rotate to face the next
// waypoint, drive to it, repeat, halt after the last one.
type tracer struct {
	newPoints  core.Path // used on the next run, survives resets
	points     core.Path
	index      int
	heading    float64
	mode       mode
	modeStart  time.Time
	goFor      time.Duration
	deltaAngle float64
	deltaPos   float64
}

func (t *tracer) reset() {
	t.points = nil
	t.index = 0
	t.heading = math.Pi / 2
	t.mode = modeIdle
	t.modeStart = time.Time{}
	t.goFor = 0
	t.deltaAngle = 0
	t.deltaPos = 0
}

// setPoints stores the waypoints translated so the first one is the origin.
func (t *tracer) setPoints(points core.Path) {
	out := make(core.Path, len(points))
	if len(points) > 0 {
		origin := points[0]
		for i, p := range points {
			out[i] = core.Point{X: p.X - origin.X, Y: p.Y - origin.Y}
		}
	}
	t.newPoints = out
}

func (t *tracer) modeTime(now time.Time) time.Duration {
	return now.Sub(t.modeStart)
}

func (t *tracer) modeDone(now time.Time) bool {
	switch t.mode {
	case modeIdle:
		return true
	case modeHalt:
		return false
	default:
		return t.modeTime(now) > t.goFor
	}
}

// speed is read just before a mode switch, so a drive that is ending reports
// the rotation speed used by the rotation that follows.
func (t *tracer) speed(params map[string]float64) float64 {
	if t.mode == modeDrive {
		return params["rotation_speed"]
	}
	return params["speed"]
}

func (t *tracer) next(now time.Time, params map[string]float64) {
	switch t.mode {
	case modeHalt:
		return
	case modeRotate:
		t.setDriveTime(params)
		t.goTo(modeDrive, now)
		return
	case modeIdle:
		t.points = t.newPoints.Clone()
	}

	t.index++
	if t.index >= len(t.points) {
		t.goTo(modeHalt, now)
		return
	}
	t.setRotateTime(params)
	// very small rotations overshoot; drive straight instead
	if math.Abs(t.deltaAngle) < params["min_rotation"]*math.Pi/180 {
		t.setDriveTime(params)
		t.goTo(modeDrive, now)
		return
	}
	t.goTo(modeRotate, now)
}

func (t *tracer) goTo(m mode, now time.Time) {
	t.mode = m
	t.modeStart = now
}

func (t *tracer) setDriveTime(params map[string]float64) {
	a, b := t.points[t.index-1], t.points[t.index]
	distance := params["point_scale"] * math.Hypot(b.X-a.X, b.Y-a.Y)
	t.goFor = seconds(params["dist_to_time"] * distance / t.speed(params))
	t.deltaPos = distance
}

func (t *tracer) setRotateTime(params map[string]float64) {
	a, b := t.points[t.index-1], t.points[t.index]
	heading := math.Atan2(b.Y-a.Y, b.X-a.X)
	delta := equivAngle(heading - t.heading)
	dir := 1.0
	if delta <= 0 {
		dir = -1
	}
	t.goFor = seconds(params["angle_to_time"] * (dir * delta * 180 / math.Pi) / t.speed(params))
	t.heading = heading
	t.deltaAngle = delta
}

func (t *tracer) status() string {
	switch t.mode {
	case modeHalt:
		return "finished drawing"
	case modeDrive:
		return fmt.Sprintf("drive %.2f cm", t.deltaPos)
	case modeRotate:
		return fmt.Sprintf("rotate %.2f degrees", t.deltaAngle*180/math.Pi)
	default:
		return "impossible"
	}
}

// trace renders the short:trace answer in its settled or moving shape.
func (t *tracer) trace(now time.Time) string {
	switch t.mode {
	case modeIdle:
		return "0 " + num(t.heading)
	case modeHalt:
		return strconv.Itoa(len(t.points)-1) + " " + num(t.heading)
	}

	deltaIndex, theta, deltaTheta := 1, t.heading, 0.0
	if t.mode == modeRotate {
		deltaIndex = 0
		deltaTheta = t.deltaAngle
		theta -= deltaTheta
	}
	return fmt.Sprintf("%s %s %d %d %s %s",
		num(t.modeTime(now).Seconds()), num(t.goFor.Seconds()),
		t.index-1, deltaIndex, num(theta), num(deltaTheta))
}

func equivAngle(theta float64) float64 {
	for theta > math.Pi {
		theta -= 2 * math.Pi
	}
	for theta < -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
