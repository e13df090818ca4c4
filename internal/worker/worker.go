// Package worker moves flight recorder data off the UI loop. The loop pushes
// records into bounded queues; a background goroutine drains them into the
// storage backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/scribblerbot/scribbler/internal/geo"
	"github.com/scribblerbot/scribbler/internal/model"
	"github.com/scribblerbot/scribbler/internal/queue"
	"github.com/scribblerbot/scribbler/internal/session"
	"github.com/scribblerbot/scribbler/internal/storage"
	"github.com/scribblerbot/scribbler/pkg/core"
)

// Defaults for Options.
const (
	DefaultFlushInterval = time.Second
	DefaultQueueLimit    = 10_000
)

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// Options tunes a Recorder. Zero values select the defaults.
type Options struct {
	FlushInterval time.Duration
	QueueLimit    int
	Clock         func() time.Time
}

// Recorder implements control.Recorder on top of a storage backend.
type Recorder struct {
	backend storage.Backend
	session *session.Context
	logger  *slog.Logger
	opts    Options

	paths    *queue.Queue[core.PathSubmission]
	samples  *queue.Queue[core.SampleRecord]
	statuses *queue.Queue[core.StatusRecord]

	flushMu   sync.Mutex
	started   bool
	lastFlush time.Duration

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewRecorder creates a recorder writing to backend. The backend must already
// be initialized.
func NewRecorder(backend storage.Backend, sess *session.Context, logger *slog.Logger, opts Options) *Recorder {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.QueueLimit <= 0 {
		opts.QueueLimit = DefaultQueueLimit
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		backend:  backend,
		session:  sess,
		logger:   logger.With("component", "recorder"),
		opts:     opts,
		paths:    queue.NewBounded[core.PathSubmission](opts.QueueLimit),
		samples:  queue.NewBounded[core.SampleRecord](opts.QueueLimit),
		statuses: queue.NewBounded[core.StatusRecord](opts.QueueLimit),
		stopChan: make(chan struct{}),
	}
}

// StartSession opens a recording session against serverURL and publishes it
// to the shared session context.
func (r *Recorder) StartSession(serverURL string) error {
	s := &core.Session{
		ServerURL: serverURL,
		StartTime: r.opts.Clock(),
		Program:   r.session.Get().Program,
	}
	if err := r.backend.StartSession(s); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	r.session.Set(s)

	r.flushMu.Lock()
	r.started = true
	r.flushMu.Unlock()

	r.logger.Info("Recording session started", "session", s.ID, "server", serverURL)
	return nil
}

// Run drains the queues every flush interval until ctx is done or Close is
// called.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			return
		case <-ticker.C:
			if err := r.Flush(); err != nil {
				r.logger.Error("Error flushing recorder queues", "error", err)
			}
		}
	}
}

// Start runs the flush loop on its own goroutine.
func (r *Recorder) Start(ctx context.Context) {
	go r.Run(ctx)
}

// RecordPath queues a submitted path.
func (r *Recorder) RecordPath(points core.Path) {
	r.push(r.paths.Push(core.PathSubmission{
		SessionID: r.session.ID(),
		Time:      r.opts.Clock(),
		Points:    points.Clone(),
		Length:    geo.PathLength(points),
	}), "path")
}

// RecordSample queues a trace snapshot. Elapsed is measured from the
// sample's time base when it has one.
func (r *Recorder) RecordSample(sample core.TraceSample) {
	now := r.opts.Clock()
	var elapsed time.Duration
	if sample.HasBase() {
		elapsed = now.Sub(sample.BaseTimestamp)
	}
	r.push(r.samples.Push(core.SampleRecord{
		SessionID:    r.session.ID(),
		Time:         now,
		SegmentIndex: sample.SegmentIndex,
		Heading:      sample.Heading,
		Mode:         sample.Mode,
		DeltaHeading: sample.DeltaHeading,
		Elapsed:      elapsed,
		Period:       sample.Period,
	}), "sample")
}

// RecordStatus queues a sync response and tracks the program on the session.
func (r *Recorder) RecordStatus(status core.AgentStatus) {
	r.session.SetProgram(status.Program)
	r.push(r.statuses.Push(core.StatusRecord{
		SessionID: r.session.ID(),
		Time:      r.opts.Clock(),
		Status:    status,
	}), "status")
}

func (r *Recorder) push(dropped int, kind string) {
	if dropped > 0 {
		r.logger.Warn("Recorder queue full, dropping", "kind", kind, "dropped", dropped)
	}
}

// drain writes every queued item. On the first failure the unwritten items
// are pushed back for the next cycle.
func drain[T any](q *queue.Queue[T], name string, write func(*T) error) error {
	if q.Empty() {
		return nil
	}
	items := q.GetAndEmpty()
	for i := range items {
		if err := write(&items[i]); err != nil {
			q.Push(items[i:]...)
			return fmt.Errorf("error writing %s: %w", name, err)
		}
	}
	return nil
}

// Flush writes all queued records to the backend.
func (r *Recorder) Flush() error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	start := time.Now()
	err := errors.Join(
		drain(r.paths, "paths", r.backend.RecordPath),
		drain(r.samples, "samples", r.backend.RecordSample),
		drain(r.statuses, "statuses", r.backend.RecordStatus),
	)
	r.lastFlush = time.Since(start)
	return err
}

// Close stops the flush loop, writes what is left, ends the session and
// closes the backend.
func (r *Recorder) Close() error {
	r.stopOnce.Do(func() { close(r.stopChan) })

	var errs []error
	if err := r.Flush(); err != nil {
		errs = append(errs, err)
	}

	r.flushMu.Lock()
	started := r.started
	r.started = false
	r.flushMu.Unlock()

	if started {
		if err := r.backend.EndSession(); err != nil {
			errs = append(errs, fmt.Errorf("failed to end session: %w", err))
		}
	}
	if err := r.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close backend: %w", err))
	}
	r.logger.Info("Recorder closed", "dropped", r.Dropped())
	return errors.Join(errs...)
}

// Backlog returns the number of records waiting in each queue.
func (r *Recorder) Backlog() model.WriteQueueLengths {
	return model.WriteQueueLengths{
		Paths:    r.paths.Len(),
		Samples:  r.samples.Len(),
		Statuses: r.statuses.Len(),
	}
}

// Dropped returns how many records the bounded queues refused.
func (r *Recorder) Dropped() uint64 {
	return r.paths.Dropped() + r.samples.Dropped() + r.statuses.Dropped()
}

// LastFlushDuration returns how long the last flush cycle took.
func (r *Recorder) LastFlushDuration() time.Duration {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()
	return r.lastFlush
}

// GetLastDBWriteDuration returns the duration of the last DB write. With
// several backends the slowest one is reported. Returns 0 if no backend
// supports this metric.
func (r *Recorder) GetLastDBWriteDuration() time.Duration {
	backends := []storage.Backend{r.backend}
	if m, ok := r.backend.(storage.Multi); ok {
		backends = m
	}
	var longest time.Duration
	for _, b := range backends {
		if p, ok := b.(DBWriteDurationProvider); ok {
			if d := p.GetLastDBWriteDuration(); d > longest {
				longest = d
			}
		}
	}
	return longest
}
