// Package v1 contains the v1 export format for recorded sessions.
package v1

// Version is written into every export.
const Version = 1

// Export is the root JSON structure for v1 format
type Export struct {
	Version   int     `json:"version"`
	SessionID uint    `json:"sessionId"`
	ServerURL string  `json:"serverUrl"`
	Program   string  `json:"program"`
	StartTime string  `json:"startTime"` // RFC 3339
	EndTime   string  `json:"endTime"`
	Duration  float64 `json:"duration"` // seconds
	Paths     []Path  `json:"paths"`
	Samples   [][]any `json:"samples"`
	Statuses  [][]any `json:"statuses"`
	Summary   Summary `json:"summary"`
}

// Path is one submitted path. Points are [x, y] in canvas coordinates.
type Path struct {
	Offset float64      `json:"offset"` // seconds since session start
	Points [][2]float64 `json:"points"`
	Length float64      `json:"length"`
}

// Summary aggregates the session.
type Summary struct {
	PathCount       int     `json:"pathCount"`
	SampleCount     int     `json:"sampleCount"`
	StatusCount     int     `json:"statusCount"`
	DriveSamples    int     `json:"driveSamples"`
	RotateSamples   int     `json:"rotateSamples"`
	SettledSamples  int     `json:"settledSamples"`
	LastPathLength  float64 `json:"lastPathLength"`
	LastSegmentSeen int     `json:"lastSegmentSeen"`
}
