// Package monitor reports the flight recorder's health while a session runs.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/scribblerbot/scribbler/internal/model"
	"github.com/scribblerbot/scribbler/internal/session"
)

// StatusFileName is written in the logs directory.
const StatusFileName = "status.txt"

// DefaultInterval is how often the status is refreshed.
const DefaultInterval = time.Second

// Source exposes the recorder figures the monitor reports.
type Source interface {
	Backlog() model.WriteQueueLengths
	Dropped() uint64
	GetLastDBWriteDuration() time.Duration
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Recorder Source
	Session  *session.Context
	Logger   *slog.Logger
	LogsDir  string
	Interval time.Duration

	// DB receives a RecorderPerformance row per interval when set.
	DB *gorm.DB
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot returns the current recorder figures.
func (s *Service) Snapshot(now time.Time) model.RecorderPerformance {
	return model.RecorderPerformance{
		Time:                now,
		SessionID:           s.deps.Session.ID(),
		WriteQueueLengths:   s.deps.Recorder.Backlog(),
		Dropped:             s.deps.Recorder.Dropped(),
		LastWriteDurationMs: float32(s.deps.Recorder.GetLastDBWriteDuration().Microseconds()) / 1000,
	}
}

// StatusText renders a snapshot as the contents of the status file.
func StatusText(perf model.RecorderPerformance) string {
	data, err := json.MarshalIndent(perf, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
	}
	return string(data) + "\n"
}

// Report writes one snapshot. It is what every tick of the monitor does.
func (s *Service) Report(now time.Time) error {
	perf := s.Snapshot(now)

	path := filepath.Join(s.deps.LogsDir, StatusFileName)
	if err := os.WriteFile(path, []byte(StatusText(perf)), 0644); err != nil {
		return fmt.Errorf("error writing status file: %w", err)
	}

	s.deps.Logger.Debug("Recorder status",
		"session", perf.SessionID,
		"paths", perf.WriteQueueLengths.Paths,
		"samples", perf.WriteQueueLengths.Samples,
		"statuses", perf.WriteQueueLengths.Statuses,
		"dropped", perf.Dropped)

	if s.deps.DB != nil && perf.SessionID != 0 {
		if err := s.deps.DB.Create(&perf).Error; err != nil {
			return fmt.Errorf("error writing performance row: %w", err)
		}
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(s.deps.LogsDir, 0755); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("error creating logs directory: %w", err)
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				if err := s.Report(now); err != nil {
					s.deps.Logger.Error("Error reporting recorder status", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
