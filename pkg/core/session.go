// pkg/core/session.go
package core

import "time"

// Session is one recording of a connection to an agent, from client start
// until shutdown.
type Session struct {
	ID        uint
	ServerURL string
	StartTime time.Time
	Program   string
}

// PathSubmission records a path that was transmitted to the agent.
type PathSubmission struct {
	SessionID uint
	Time      time.Time
	Points    Path
	Length    float64 // canvas pixels
}

// SampleRecord records one trace snapshot as it was received.
type SampleRecord struct {
	SessionID    uint
	Time         time.Time
	SegmentIndex int
	Heading      float64
	Mode         InterpolationMode
	DeltaHeading float64
	Elapsed      time.Duration
	Period       time.Duration
}

// StatusRecord records one sync response.
type StatusRecord struct {
	SessionID uint
	Time      time.Time
	Status    AgentStatus
}
