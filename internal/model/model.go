package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&PathSubmission{},
	&TraceSample{},
	&AgentStatus{},
	&RecorderPerformance{},
}

// Session is one connection of the client to an agent.
type Session struct {
	gorm.Model
	ServerURL string    `json:"serverUrl" gorm:"size:255"`
	StartTime time.Time `json:"startTime" gorm:"index:idx_session_start_time"`
	EndTime   time.Time `json:"endTime"`
	Program   string    `json:"program" gorm:"size:64"`
}

func (*Session) TableName() string {
	return "sessions"
}

// PathSubmission is a path sent to the agent. Waypoints holds the
// top-left-origin canvas points as [[x,y],...].
type PathSubmission struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time      `json:"time" gorm:"index:idx_path_time"`
	SessionID uint           `json:"sessionId" gorm:"index:idx_path_session_id"`
	Session   Session        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Waypoints datatypes.JSON `json:"waypoints"`
	Count     int            `json:"count"`
	Length    float64        `json:"length"`
}

func (*PathSubmission) TableName() string {
	return "path_submissions"
}

// TraceSample is one trace snapshot as received.
type TraceSample struct {
	ID           uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time         time.Time `json:"time" gorm:"index:idx_sample_time"`
	SessionID    uint      `json:"sessionId" gorm:"index:idx_sample_session_id"`
	Session      Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	SegmentIndex int       `json:"segmentIndex"`
	Heading      float64   `json:"heading"`
	Mode         string    `json:"mode" gorm:"size:16"`
	DeltaHeading float64   `json:"deltaHeading"`
	ElapsedMs    int64     `json:"elapsedMs"`
	PeriodMs     int64     `json:"periodMs"`
}

func (*TraceSample) TableName() string {
	return "trace_samples"
}

// AgentStatus is one sync response.
type AgentStatus struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time `json:"time" gorm:"index:idx_status_time"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_status_session_id"`
	Session   Session   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	Program   string    `json:"program" gorm:"size:64"`
	Running   bool      `json:"running"`
	CanReset  bool      `json:"canReset"`
}

func (*AgentStatus) TableName() string {
	return "agent_statuses"
}

// RecorderPerformance is a periodic snapshot of the recorder backlog.
type RecorderPerformance struct {
	Time                time.Time         `json:"time" gorm:"index:idx_perf_time"`
	SessionID           uint              `json:"sessionId" gorm:"index:idx_perf_session_id"`
	WriteQueueLengths   WriteQueueLengths `json:"writeQueueLengths" gorm:"embedded;embeddedPrefix:writequeue_"`
	Dropped             uint64            `json:"dropped"`
	LastWriteDurationMs float32           `json:"lastWriteDurationMs"`
}

func (*RecorderPerformance) TableName() string {
	return "recorder_performances"
}

// WriteQueueLengths is the model for the write queue lengths
type WriteQueueLengths struct {
	Paths    int `json:"paths"`
	Samples  int `json:"samples"`
	Statuses int `json:"statuses"`
}
