package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/scribblerbot/scribbler/pkg/core"
)

// Snapshot is one parsed short:trace response.
//
// The agent answers in one of two shapes told apart only by field count:
//
//	settled: "<segmentIndex> <heading>"
//	moving:  "<elapsed> <period> <segmentIndex> <transitionFlag> <heading> <deltaHeading>"
//
// Elapsed and period are in seconds on the wire.
type Snapshot struct {
	Moving       bool
	SegmentIndex int
	Heading      float64
	Mode         core.InterpolationMode
	DeltaHeading float64
	Elapsed      time.Duration
	Period       time.Duration
}

// ParseTrace parses a short:trace response.
func ParseTrace(text string) (Snapshot, error) {
	fields := strings.Fields(text)
	switch len(fields) {
	case 2:
		return parseSettled(text, fields)
	case 6:
		return parseMoving(text, fields)
	default:
		return Snapshot{}, malformed("trace response", text,
			fmt.Errorf("expected 2 or 6 fields, got %d", len(fields)))
	}
}

func parseSettled(text string, fields []string) (Snapshot, error) {
	index, err := parseIntFromFloat(fields[0])
	if err != nil {
		return Snapshot{}, malformed("trace segment index", text, err)
	}
	heading, err := parseFinite(fields[1])
	if err != nil {
		return Snapshot{}, malformed("trace heading", text, err)
	}
	return Snapshot{
		SegmentIndex: index,
		Heading:      heading,
		Mode:         core.ModeNone,
	}, nil
}

func parseMoving(text string, fields []string) (Snapshot, error) {
	var nums [6]float64
	for _, i := range []int{0, 1, 4, 5} {
		v, err := parseFinite(fields[i])
		if err != nil {
			return Snapshot{}, malformed(fmt.Sprintf("trace field %d", i), text, err)
		}
		nums[i] = v
	}

	index, err := parseIntFromFloat(fields[2])
	if err != nil {
		return Snapshot{}, malformed("trace segment index", text, err)
	}
	flag, err := parseIntFromFloat(fields[3])
	if err != nil {
		return Snapshot{}, malformed("trace transition flag", text, err)
	}

	var mode core.InterpolationMode
	switch flag {
	case 1:
		mode = core.ModeDrive
	case 0:
		mode = core.ModeRotate
	default:
		return Snapshot{}, malformed("trace transition flag", text,
			fmt.Errorf("expected 0 or 1, got %d", flag))
	}

	return Snapshot{
		Moving:       true,
		Elapsed:      seconds(nums[0]),
		Period:       seconds(nums[1]),
		SegmentIndex: index,
		Mode:         mode,
		Heading:      nums[4],
		DeltaHeading: nums[5],
	}, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Apply builds the sample that replaces prev once this snapshot is received at
// now. A moving snapshot anchors a new time base at now minus the elapsed
// time. A settled snapshot carries no timing, so prev's base and period are
// kept as they were.
func (s Snapshot) Apply(prev core.TraceSample, now time.Time) core.TraceSample {
	sample := core.TraceSample{
		SegmentIndex:  s.SegmentIndex,
		Heading:       s.Heading,
		Mode:          s.Mode,
		DeltaHeading:  s.DeltaHeading,
		BaseTimestamp: prev.BaseTimestamp,
		Period:        prev.Period,
	}
	if s.Moving {
		sample.BaseTimestamp = now.Add(-s.Elapsed)
		sample.Period = s.Period
	}
	return sample
}
