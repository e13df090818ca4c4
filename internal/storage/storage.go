// Package storage defines the flight recorder backends. Backends receive what
// the client observed during a session: submitted paths, trace snapshots and
// sync responses. The edit history itself is never recorded.
package storage

import (
	"errors"

	"github.com/scribblerbot/scribbler/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management (StartSession assigns the ID when it is zero)
	StartSession(s *core.Session) error
	EndSession() error

	// Recording
	RecordPath(p *core.PathSubmission) error
	RecordSample(s *core.SampleRecord) error
	RecordStatus(s *core.StatusRecord) error
}

// Exporter is an optional interface for backends that write a file when a
// session ends.
type Exporter interface {
	LastExportPath() string
}

// Multi fans every call out to several backends. Each backend is called even
// when an earlier one fails; the errors are joined.
type Multi []Backend

var _ Backend = Multi(nil)

func (m Multi) each(fn func(Backend) error) error {
	var errs []error
	for _, b := range m {
		if err := fn(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Init() error  { return m.each(Backend.Init) }
func (m Multi) Close() error { return m.each(Backend.Close) }

// StartSession starts the session on every backend. The first backend that
// assigns an ID wins; later backends see it already set.
func (m Multi) StartSession(s *core.Session) error {
	return m.each(func(b Backend) error { return b.StartSession(s) })
}

func (m Multi) EndSession() error { return m.each(Backend.EndSession) }

func (m Multi) RecordPath(p *core.PathSubmission) error {
	return m.each(func(b Backend) error { return b.RecordPath(p) })
}

func (m Multi) RecordSample(s *core.SampleRecord) error {
	return m.each(func(b Backend) error { return b.RecordSample(s) })
}

func (m Multi) RecordStatus(s *core.StatusRecord) error {
	return m.each(func(b Backend) error { return b.RecordStatus(s) })
}

// Nop records nothing. It is used when recording is disabled.
type Nop struct{}

var _ Backend = Nop{}

func (Nop) Init() error                           { return nil }
func (Nop) Close() error                          { return nil }
func (Nop) StartSession(*core.Session) error      { return nil }
func (Nop) EndSession() error                     { return nil }
func (Nop) RecordPath(*core.PathSubmission) error { return nil }
func (Nop) RecordSample(*core.SampleRecord) error { return nil }
func (Nop) RecordStatus(*core.StatusRecord) error { return nil }
