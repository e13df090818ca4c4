// Package dispatchertest provides a deterministic Scheduler for tests.
package dispatchertest

import (
	"sort"
	"time"

	"github.com/scribblerbot/scribbler/internal/dispatcher"
)

// Manual is a dispatcher.Scheduler driven entirely by the test. Work passed
// to Go is held until RunPending, and timers fire only when Advance moves
// the fake clock past their deadline. Everything runs on the test goroutine.
type Manual struct {
	now     time.Time
	pending []job
	timers  []*timer
	seq     int
}

type job struct {
	name string
	work func() func()
}

type timer struct {
	name     string
	at       time.Time
	interval time.Duration
	fn       func()
	seq      int
	dead     bool
}

var _ dispatcher.Scheduler = (*Manual)(nil)

// NewManual creates a scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now is the fake clock, suitable as a clock option.
func (m *Manual) Now() time.Time { return m.now }

func (m *Manual) Go(name string, work func() func()) {
	m.pending = append(m.pending, job{name: name, work: work})
}

func (m *Manual) After(name string, delay time.Duration, fn func()) dispatcher.Cancel {
	return m.add(name, delay, 0, fn)
}

func (m *Manual) Every(name string, interval time.Duration, fn func()) dispatcher.Cancel {
	return m.add(name, interval, interval, fn)
}

func (m *Manual) add(name string, delay, interval time.Duration, fn func()) dispatcher.Cancel {
	m.seq++
	t := &timer{name: name, at: m.now.Add(delay), interval: interval, fn: fn, seq: m.seq}
	m.timers = append(m.timers, t)
	return func() { t.dead = true }
}

// Pending returns the names of work items waiting for RunPending.
func (m *Manual) Pending() []string {
	names := make([]string, len(m.pending))
	for i, j := range m.pending {
		names[i] = j.name
	}
	return names
}

// RunPending runs every queued work item and its continuation, including
// work scheduled by those continuations. It returns how many items ran.
func (m *Manual) RunPending() int {
	n := 0
	for len(m.pending) > 0 {
		j := m.pending[0]
		m.pending = m.pending[1:]
		if cont := j.work(); cont != nil {
			cont()
		}
		n++
	}
	return n
}

// RunOne runs only the oldest queued work item. It reports false if none was
// queued.
func (m *Manual) RunOne() bool {
	if len(m.pending) == 0 {
		return false
	}
	j := m.pending[0]
	m.pending = m.pending[1:]
	if cont := j.work(); cont != nil {
		cont()
	}
	return true
}

// Advance moves the clock forward by d, firing due timers in deadline order.
// Pending work is not run.
func (m *Manual) Advance(d time.Duration) {
	end := m.now.Add(d)
	for {
		t := m.next(end)
		if t == nil {
			break
		}
		m.now = t.at
		if t.interval > 0 {
			t.at = t.at.Add(t.interval)
		} else {
			t.dead = true
		}
		t.fn()
	}
	m.now = end
	m.compact()
}

// ActiveTimers returns the names of timers that can still fire.
func (m *Manual) ActiveTimers() []string {
	var names []string
	for _, t := range m.timers {
		if !t.dead {
			names = append(names, t.name)
		}
	}
	return names
}

func (m *Manual) next(end time.Time) *timer {
	var due []*timer
	for _, t := range m.timers {
		if !t.dead && !t.at.After(end) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	return due[0]
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.dead {
			live = append(live, t)
		}
	}
	m.timers = live
}
