package v1

import (
	"time"

	"github.com/scribblerbot/scribbler/pkg/core"
)

// Build converts a recorded session into the v1 export.
//
// Samples are encoded as
// [offset, segmentIndex, heading, mode, deltaHeading, elapsed, period] and
// statuses as [offset, program, running, canReset], offsets and durations in
// seconds.
func Build(s core.Session, end time.Time, paths []core.PathSubmission, samples []core.SampleRecord, statuses []core.StatusRecord) Export {
	offset := func(t time.Time) float64 {
		if s.StartTime.IsZero() {
			return 0
		}
		return t.Sub(s.StartTime).Seconds()
	}

	export := Export{
		Version:   Version,
		SessionID: s.ID,
		ServerURL: s.ServerURL,
		Program:   s.Program,
		StartTime: s.StartTime.UTC().Format(time.RFC3339Nano),
		EndTime:   end.UTC().Format(time.RFC3339Nano),
		Duration:  offset(end),
		Paths:     make([]Path, 0, len(paths)),
		Samples:   make([][]any, 0, len(samples)),
		Statuses:  make([][]any, 0, len(statuses)),
	}

	for _, p := range paths {
		points := make([][2]float64, len(p.Points))
		for i, pt := range p.Points {
			points[i] = [2]float64{pt.X, pt.Y}
		}
		export.Paths = append(export.Paths, Path{Offset: offset(p.Time), Points: points, Length: p.Length})
		export.Summary.LastPathLength = p.Length
	}

	for _, r := range samples {
		export.Samples = append(export.Samples, []any{
			offset(r.Time),
			r.SegmentIndex,
			r.Heading,
			r.Mode.String(),
			r.DeltaHeading,
			r.Elapsed.Seconds(),
			r.Period.Seconds(),
		})
		switch r.Mode {
		case core.ModeDrive:
			export.Summary.DriveSamples++
		case core.ModeRotate:
			export.Summary.RotateSamples++
		default:
			export.Summary.SettledSamples++
		}
		export.Summary.LastSegmentSeen = r.SegmentIndex
	}

	for _, r := range statuses {
		export.Statuses = append(export.Statuses, []any{
			offset(r.Time),
			r.Status.Program,
			r.Status.Running,
			r.Status.CanReset,
		})
	}

	export.Summary.PathCount = len(paths)
	export.Summary.SampleCount = len(samples)
	export.Summary.StatusCount = len(statuses)
	return export
}
