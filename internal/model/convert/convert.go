// Package convert translates between core records and GORM models.
package convert

import (
	"time"

	"github.com/scribblerbot/scribbler/internal/geo"
	"github.com/scribblerbot/scribbler/internal/model"
	"github.com/scribblerbot/scribbler/pkg/core"
)

// ParseMode is the inverse of core.InterpolationMode.String.
func ParseMode(s string) core.InterpolationMode {
	switch s {
	case "drive":
		return core.ModeDrive
	case "rotate":
		return core.ModeRotate
	default:
		return core.ModeNone
	}
}

// SessionToCore converts a GORM Session to a core.Session.
func SessionToCore(s model.Session) core.Session {
	return core.Session{
		ID:        s.ID,
		ServerURL: s.ServerURL,
		StartTime: s.StartTime,
		Program:   s.Program,
	}
}

// PathSubmissionToCore converts a GORM PathSubmission to a core.PathSubmission.
// Unreadable waypoints yield an empty path.
func PathSubmissionToCore(p model.PathSubmission) core.PathSubmission {
	points, err := geo.ParseWaypoints(string(p.Waypoints))
	if err != nil {
		points = nil
	}
	return core.PathSubmission{
		SessionID: p.SessionID,
		Time:      p.Time,
		Points:    points,
		Length:    p.Length,
	}
}

// TraceSampleToCore converts a GORM TraceSample to a core.SampleRecord.
func TraceSampleToCore(s model.TraceSample) core.SampleRecord {
	return core.SampleRecord{
		SessionID:    s.SessionID,
		Time:         s.Time,
		SegmentIndex: s.SegmentIndex,
		Heading:      s.Heading,
		Mode:         ParseMode(s.Mode),
		DeltaHeading: s.DeltaHeading,
		Elapsed:      time.Duration(s.ElapsedMs) * time.Millisecond,
		Period:       time.Duration(s.PeriodMs) * time.Millisecond,
	}
}

// AgentStatusToCore converts a GORM AgentStatus to a core.StatusRecord.
func AgentStatusToCore(s model.AgentStatus) core.StatusRecord {
	return core.StatusRecord{
		SessionID: s.SessionID,
		Time:      s.Time,
		Status: core.AgentStatus{
			Program:  s.Program,
			Running:  s.Running,
			CanReset: s.CanReset,
		},
	}
}
