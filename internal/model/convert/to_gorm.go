package convert

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/scribblerbot/scribbler/internal/model"
	"github.com/scribblerbot/scribbler/pkg/core"
)

// pathToJSON renders the path as [[x,y],...] in canvas coordinates.
func pathToJSON(path core.Path) datatypes.JSON {
	coords := make([][2]float64, len(path))
	for i, p := range path {
		coords[i] = [2]float64{p.X, p.Y}
	}
	data, err := json.Marshal(coords)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// CoreToSession converts a core.Session to a GORM Session.
func CoreToSession(s core.Session) model.Session {
	m := model.Session{
		ServerURL: s.ServerURL,
		StartTime: s.StartTime,
		Program:   s.Program,
	}
	m.ID = s.ID
	return m
}

// CoreToPathSubmission converts a core.PathSubmission to a GORM PathSubmission.
func CoreToPathSubmission(p core.PathSubmission) model.PathSubmission {
	return model.PathSubmission{
		Time:      p.Time,
		SessionID: p.SessionID,
		Waypoints: pathToJSON(p.Points),
		Count:     len(p.Points),
		Length:    p.Length,
	}
}

// CoreToTraceSample converts a core.SampleRecord to a GORM TraceSample.
func CoreToTraceSample(r core.SampleRecord) model.TraceSample {
	return model.TraceSample{
		Time:         r.Time,
		SessionID:    r.SessionID,
		SegmentIndex: r.SegmentIndex,
		Heading:      r.Heading,
		Mode:         r.Mode.String(),
		DeltaHeading: r.DeltaHeading,
		ElapsedMs:    r.Elapsed.Milliseconds(),
		PeriodMs:     r.Period.Milliseconds(),
	}
}

// CoreToAgentStatus converts a core.StatusRecord to a GORM AgentStatus.
func CoreToAgentStatus(r core.StatusRecord) model.AgentStatus {
	return model.AgentStatus{
		Time:      r.Time,
		SessionID: r.SessionID,
		Program:   r.Status.Program,
		Running:   r.Status.Running,
		CanReset:  r.Status.CanReset,
	}
}
