// Package memory keeps a session in memory and exports it as a JSON document
// when the session ends.
package memory

import (
	"sync"
	"time"

	"github.com/scribblerbot/scribbler/internal/config"
	"github.com/scribblerbot/scribbler/pkg/core"
)

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	now     func() time.Time
	session *core.Session

	paths    []core.PathSubmission
	samples  []core.SampleRecord
	statuses []core.StatusRecord

	idCounter      uint
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg, now: time.Now}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session, discarding anything recorded
// before. A zero session ID is replaced with the next local one.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.ID == 0 {
		b.idCounter++
		s.ID = b.idCounter
	}
	copied := *s
	b.session = &copied
	b.paths = nil
	b.samples = nil
	b.statuses = nil
	return nil
}

// EndSession exports the session, if one was started, and forgets it.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return nil
	}
	err := b.exportJSON()
	b.session = nil
	return err
}

// RecordPath stores a submitted path
func (b *Backend) RecordPath(p *core.PathSubmission) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := *p
	rec.Points = p.Points.Clone()
	b.paths = append(b.paths, rec)
	return nil
}

// RecordSample stores a trace snapshot
func (b *Backend) RecordSample(s *core.SampleRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, *s)
	return nil
}

// RecordStatus stores a sync response
func (b *Backend) RecordStatus(s *core.StatusRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = append(b.statuses, *s)
	return nil
}

// Session returns the session being recorded, or nil.
func (b *Backend) Session() *core.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.session == nil {
		return nil
	}
	s := *b.session
	return &s
}

// Counts returns how many paths, samples and statuses are held.
func (b *Backend) Counts() (paths, samples, statuses int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.paths), len(b.samples), len(b.statuses)
}

// LastExportPath returns the file written by the last EndSession.
func (b *Backend) LastExportPath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
