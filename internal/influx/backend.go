package influx

import (
	"context"
	"strconv"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/scribblerbot/scribbler/pkg/core"
)

// Measurement names.
const (
	MeasurementSample = "trace_sample"
	MeasurementStatus = "agent_status"
	MeasurementPath   = "path_submission"
)

// Backend records a session as InfluxDB points.
type Backend struct {
	m           *Manager
	connTimeout time.Duration
	session     core.Session
}

// NewBackend wraps a manager as a recorder backend.
func NewBackend(m *Manager) *Backend {
	return &Backend{m: m, connTimeout: 10 * time.Second}
}

func (b *Backend) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), b.connTimeout)
	defer cancel()
	return b.m.Connect(ctx)
}

func (b *Backend) Close() error {
	return b.m.Close()
}

// StartSession remembers the session for tagging; InfluxDB has no session rows.
func (b *Backend) StartSession(s *core.Session) error {
	b.session = *s
	return nil
}

func (b *Backend) EndSession() error {
	b.session = core.Session{}
	return b.m.Flush()
}

func (b *Backend) point(measurement string, sessionID uint, t time.Time) *influxdb2_write.Point {
	if sessionID == 0 {
		sessionID = b.session.ID
	}
	return influxdb2_write.NewPointWithMeasurement(measurement).
		AddTag("session", strconv.FormatUint(uint64(sessionID), 10)).
		AddTag("server", b.session.ServerURL).
		SetTime(t)
}

func (b *Backend) RecordPath(p *core.PathSubmission) error {
	pt := b.point(MeasurementPath, p.SessionID, p.Time).
		AddField("count", len(p.Points)).
		AddField("length", p.Length)
	return b.m.WritePoint(pt)
}

func (b *Backend) RecordSample(s *core.SampleRecord) error {
	pt := b.point(MeasurementSample, s.SessionID, s.Time).
		AddTag("mode", s.Mode.String()).
		AddField("segment", s.SegmentIndex).
		AddField("heading", s.Heading).
		AddField("delta_heading", s.DeltaHeading).
		AddField("elapsed_ms", s.Elapsed.Milliseconds()).
		AddField("period_ms", s.Period.Milliseconds())
	return b.m.WritePoint(pt)
}

func (b *Backend) RecordStatus(s *core.StatusRecord) error {
	pt := b.point(MeasurementStatus, s.SessionID, s.Time).
		AddTag("program", s.Status.Program).
		AddField("running", s.Status.Running).
		AddField("can_reset", s.Status.CanReset)
	return b.m.WritePoint(pt)
}
