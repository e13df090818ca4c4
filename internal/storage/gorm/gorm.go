// Package gormstorage implements the storage.Backend interface on top of an
// open GORM connection. The sqlite and postgres backends wrap it and differ
// only in how the connection is made.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/scribblerbot/scribbler/internal/database"
	"github.com/scribblerbot/scribbler/internal/model"
	"github.com/scribblerbot/scribbler/internal/model/convert"
	"github.com/scribblerbot/scribbler/pkg/core"
)

// ErrNotInitialized is returned when a record arrives before Init.
var ErrNotInitialized = errors.New("database not initialized")

// Backend writes every record as a row.
type Backend struct {
	db  *gorm.DB
	now func() time.Time

	mu        sync.Mutex
	sessionID uint
	lastWrite time.Duration
}

// New creates a backend over db. db may be nil when a wrapper connects in
// Init and calls SetDB.
func New(db *gorm.DB) *Backend {
	return &Backend{db: db, now: time.Now}
}

// SetDB installs the connection.
func (b *Backend) SetDB(db *gorm.DB) {
	b.db = db
}

// DB returns the connection.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.db == nil {
		return ErrNotInitialized
	}
	return database.Migrate(b.db)
}

// Close closes the underlying connection.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

// StartSession inserts the session row. A zero ID is assigned by the
// database; a set one is kept so several backends agree on it.
func (b *Backend) StartSession(s *core.Session) error {
	if b.db == nil {
		return ErrNotInitialized
	}
	row := convert.CoreToSession(*s)
	if err := b.db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	s.ID = row.ID

	b.mu.Lock()
	b.sessionID = row.ID
	b.mu.Unlock()
	return nil
}

// EndSession stamps the end time of the current session.
func (b *Backend) EndSession() error {
	if b.db == nil {
		return ErrNotInitialized
	}
	b.mu.Lock()
	id := b.sessionID
	b.sessionID = 0
	b.mu.Unlock()
	if id == 0 {
		return nil
	}
	err := b.db.Model(&model.Session{}).Where("id = ?", id).Update("end_time", b.now()).Error
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

func (b *Backend) create(value any) error {
	if b.db == nil {
		return ErrNotInitialized
	}
	start := time.Now()
	err := b.db.Omit(clause.Associations).Create(value).Error

	b.mu.Lock()
	b.lastWrite = time.Since(start)
	b.mu.Unlock()
	return err
}

func (b *Backend) RecordPath(p *core.PathSubmission) error {
	row := convert.CoreToPathSubmission(*p)
	return b.create(&row)
}

func (b *Backend) RecordSample(s *core.SampleRecord) error {
	row := convert.CoreToTraceSample(*s)
	return b.create(&row)
}

func (b *Backend) RecordStatus(s *core.StatusRecord) error {
	row := convert.CoreToAgentStatus(*s)
	return b.create(&row)
}

// GetLastDBWriteDuration returns how long the last insert took.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastWrite
}

// Samples loads the trace samples of a session in arrival order.
func (b *Backend) Samples(sessionID uint) ([]core.SampleRecord, error) {
	var rows []model.TraceSample
	if err := b.db.Where("session_id = ?", sessionID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.SampleRecord, len(rows))
	for i, r := range rows {
		out[i] = convert.TraceSampleToCore(r)
	}
	return out, nil
}

// Paths loads the submitted paths of a session in arrival order.
func (b *Backend) Paths(sessionID uint) ([]core.PathSubmission, error) {
	var rows []model.PathSubmission
	if err := b.db.Where("session_id = ?", sessionID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.PathSubmission, len(rows))
	for i, r := range rows {
		out[i] = convert.PathSubmissionToCore(r)
	}
	return out, nil
}

// Statuses loads the sync responses of a session in arrival order.
func (b *Backend) Statuses(sessionID uint) ([]core.StatusRecord, error) {
	var rows []model.AgentStatus
	if err := b.db.Where("session_id = ?", sessionID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.StatusRecord, len(rows))
	for i, r := range rows {
		out[i] = convert.AgentStatusToCore(r)
	}
	return out, nil
}
