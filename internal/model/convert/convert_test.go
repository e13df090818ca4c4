package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribblerbot/scribbler/pkg/core"
)

func TestSessionRoundTrip(t *testing.T) {
	s := core.Session{ID: 7, ServerURL: "http://robot:8080", StartTime: time.Unix(1000, 0).UTC(), Program: "tracie"}

	m := CoreToSession(s)
	assert.Equal(t, uint(7), m.ID)
	assert.Equal(t, "http://robot:8080", m.ServerURL)

	assert.Equal(t, s, SessionToCore(m))
}

func TestPathSubmission(t *testing.T) {
	p := core.PathSubmission{
		SessionID: 3,
		Time:      time.Unix(2000, 0).UTC(),
		Points:    core.Path{{X: 10, Y: 20}, {X: 30.5, Y: 40}},
		Length:    22.9,
	}

	m := CoreToPathSubmission(p)
	assert.JSONEq(t, `[[10,20],[30.5,40]]`, string(m.Waypoints))
	assert.Equal(t, 2, m.Count)
	assert.Equal(t, uint(3), m.SessionID)

	back := PathSubmissionToCore(m)
	assert.Equal(t, p, back)
}

func TestPathSubmission_EmptyAndBroken(t *testing.T) {
	m := CoreToPathSubmission(core.PathSubmission{})
	assert.Equal(t, "[]", string(m.Waypoints))
	assert.Equal(t, 0, m.Count)

	m.Waypoints = []byte("not json")
	assert.Empty(t, PathSubmissionToCore(m).Points)
}

func TestTraceSampleRoundTrip(t *testing.T) {
	r := core.SampleRecord{
		SessionID:    1,
		Time:         time.Unix(3000, 0).UTC(),
		SegmentIndex: 2,
		Heading:      1.5,
		Mode:         core.ModeRotate,
		DeltaHeading: -0.5,
		Elapsed:      250 * time.Millisecond,
		Period:       2 * time.Second,
	}

	m := CoreToTraceSample(r)
	assert.Equal(t, "rotate", m.Mode)
	assert.Equal(t, int64(250), m.ElapsedMs)
	assert.Equal(t, int64(2000), m.PeriodMs)

	assert.Equal(t, r, TraceSampleToCore(m))
}

func TestParseMode(t *testing.T) {
	for _, mode := range []core.InterpolationMode{core.ModeNone, core.ModeDrive, core.ModeRotate} {
		assert.Equal(t, mode, ParseMode(mode.String()))
	}
	assert.Equal(t, core.ModeNone, ParseMode("bogus"))
}

func TestAgentStatusRoundTrip(t *testing.T) {
	r := core.StatusRecord{
		SessionID: 4,
		Time:      time.Unix(4000, 0).UTC(),
		Status:    core.AgentStatus{Program: "calib", Running: true, CanReset: true},
	}
	m := CoreToAgentStatus(r)
	require.Equal(t, "calib", m.Program)
	assert.True(t, m.Running)
	assert.Equal(t, r, AgentStatusToCore(m))
}
