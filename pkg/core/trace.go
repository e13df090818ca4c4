// pkg/core/trace.go
package core

import "time"

// InterpolationMode describes how the pose between two snapshots is estimated.
type InterpolationMode int

const (
	// ModeNone means the agent is settled: the pose is exactly the snapshot.
	ModeNone InterpolationMode = iota
	// ModeDrive interpolates the position along the current segment.
	ModeDrive
	// ModeRotate keeps the position and interpolates the heading.
	ModeRotate
)

func (m InterpolationMode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeDrive:
		return "drive"
	case ModeRotate:
		return "rotate"
	default:
		return "unknown"
	}
}

// TraceSample is the latest authoritative snapshot of the agent plus the
// local time base used to extrapolate between snapshots.
type TraceSample struct {
	SegmentIndex int
	Heading      float64 // radians, standard position
	Mode         InterpolationMode
	DeltaHeading float64 // radians, only meaningful in ModeRotate

	// BaseTimestamp is the local wall-clock instant at which the current
	// motion began. The zero value means unset.
	BaseTimestamp time.Time
	Period        time.Duration
}

// HasBase reports whether a time base has been established.
func (s TraceSample) HasBase() bool {
	return !s.BaseTimestamp.IsZero()
}

// Moving reports whether the sample describes a drive or a rotation.
func (s TraceSample) Moving() bool {
	return s.Mode == ModeDrive || s.Mode == ModeRotate
}

// Pose is the estimated position and heading of the agent at one instant.
type Pose struct {
	Position Point
	Heading  float64
	T        float64
	Mode     InterpolationMode
}
