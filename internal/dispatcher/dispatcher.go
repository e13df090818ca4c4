package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Task is a unit of work executed on the loop.
type Task struct {
	Name      string
	Fn        func()
	Timestamp time.Time
}

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Cancel stops a pending timer. Called on the loop, it guarantees the
// callback does not run afterwards, even if a fire is already queued.
type Cancel func()

// Scheduler is the part of the loop that components schedule work through.
type Scheduler interface {
	// Go runs work off the loop and executes the returned continuation on it.
	Go(name string, work func() func())
	After(name string, delay time.Duration, fn func()) Cancel
	Every(name string, interval time.Duration, fn func()) Cancel
}

// ErrQueueFull is returned by Post when the queue has no room.
var ErrQueueFull = errors.New("dispatcher queue full")

// ErrClosed is returned once the dispatcher has been closed.
var ErrClosed = errors.New("dispatcher closed")

// DefaultBufferSize is the queue capacity when Buffered is not given.
const DefaultBufferSize = 256

// Option configures the dispatcher.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered sets the capacity of the task queue.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes Post wait for room instead of dropping the task.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Logged adds debug logging around every task.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher is a single-goroutine cooperative event loop. Every task, timer
// callback and network continuation runs serially on whichever goroutine
// drives the loop, so state touched only from tasks needs no locking.
type Dispatcher struct {
	logger Logger
	cfg    config

	tasks     chan Task
	done      chan struct{}
	closeOnce sync.Once

	metrics *loopMetrics
}

// New creates a new Dispatcher with the given logger. Metrics go to the
// global meter provider.
func New(logger Logger, opts ...Option) (*Dispatcher, error) {
	cfg := config{bufferSize: DefaultBufferSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bufferSize < 1 {
		cfg.bufferSize = 1
	}

	d := &Dispatcher{
		logger: logger,
		cfg:    cfg,
		tasks:  make(chan Task, cfg.bufferSize),
		done:   make(chan struct{}),
	}

	metrics, err := newLoopMetrics(globalMeter(), func() int { return len(d.tasks) })
	if err != nil {
		return nil, err
	}
	d.metrics = metrics

	return d, nil
}

// Post enqueues fn to run on the loop.
func (d *Dispatcher) Post(name string, fn func()) error {
	t := Task{Name: name, Fn: fn, Timestamp: time.Now()}
	if d.cfg.blocking {
		return d.enqueueWait(t)
	}

	select {
	case <-d.done:
		return ErrClosed
	default:
	}
	select {
	case d.tasks <- t:
		return nil
	default:
		d.metrics.drop(name)
		return fmt.Errorf("%w: %s", ErrQueueFull, name)
	}
}

// enqueueWait is used by goroutines that are not the loop: they may wait for
// room without risking a deadlock.
func (d *Dispatcher) enqueueWait(t Task) error {
	select {
	case d.tasks <- t:
		return nil
	case <-d.done:
		return ErrClosed
	}
}

// Go runs work on its own goroutine and posts the continuation it returns
// back to the loop. A nil continuation is not posted.
func (d *Dispatcher) Go(name string, work func() func()) {
	go func() {
		cont := work()
		if cont == nil {
			return
		}
		if err := d.enqueueWait(Task{Name: name, Fn: cont, Timestamp: time.Now()}); err != nil {
			d.logger.Debug("continuation discarded", "task", name, "error", err)
		}
	}()
}

type timerHandle struct {
	cancelled atomic.Bool
	stop      chan struct{}
	once      sync.Once
}

func (h *timerHandle) cancel() {
	h.cancelled.Store(true)
	h.once.Do(func() { close(h.stop) })
}

// After runs fn on the loop once delay has elapsed.
func (d *Dispatcher) After(name string, delay time.Duration, fn func()) Cancel {
	h := &timerHandle{stop: make(chan struct{})}
	timer := time.AfterFunc(delay, func() {
		_ = d.enqueueWait(Task{Name: name, Timestamp: time.Now(), Fn: func() {
			if !h.cancelled.Load() {
				fn()
			}
		}})
	})
	return func() {
		timer.Stop()
		h.cancel()
	}
}

// Every runs fn on the loop at a fixed interval. A tick that finds the
// previous one still queued is skipped rather than piling up.
func (d *Dispatcher) Every(name string, interval time.Duration, fn func()) Cancel {
	h := &timerHandle{stop: make(chan struct{})}
	var pending atomic.Bool

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !pending.CompareAndSwap(false, true) {
					d.metrics.drop(name)
					continue
				}
				err := d.enqueueWait(Task{Name: name, Timestamp: time.Now(), Fn: func() {
					pending.Store(false)
					if !h.cancelled.Load() {
						fn()
					}
				}})
				if err != nil {
					return
				}
			case <-h.stop:
				return
			case <-d.done:
				return
			}
		}
	}()

	return h.cancel
}

// Tasks exposes the queue to hosts that drive the loop themselves. Pass every
// received task to Execute.
func (d *Dispatcher) Tasks() <-chan Task {
	return d.tasks
}

// Execute runs a task on the calling goroutine. A panicking task is logged
// and does not stop the loop.
func (d *Dispatcher) Execute(t Task) {
	start := time.Now()
	if d.cfg.logged {
		d.logger.Debug("running task", "task", t.Name, "queued", start.Sub(t.Timestamp))
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("task panicked", "task", t.Name, "panic", r)
			}
		}()
		t.Fn()
	}()

	d.metrics.ran(t.Name)
	if d.cfg.logged {
		d.logger.Debug("task complete", "task", t.Name, "duration", time.Since(start))
	}
}

// Run drives the loop until ctx is done or Close is called.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.done:
			return nil
		case t := <-d.tasks:
			d.Execute(t)
		}
	}
}

// Do posts fn and waits until the loop has executed it.
func (d *Dispatcher) Do(ctx context.Context, name string, fn func()) error {
	finished := make(chan struct{})
	t := Task{Name: name, Timestamp: time.Now(), Fn: func() {
		defer close(finished)
		fn()
	}}

	select {
	case d.tasks <- t:
	case <-d.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-d.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of queued tasks.
func (d *Dispatcher) Len() int {
	return len(d.tasks)
}

// Close stops Run, all timers and any goroutine waiting to enqueue.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}
