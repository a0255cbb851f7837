package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/glimte/callbridge-go/contracts"
)

const (
	defaultQueueSize    = 64
	defaultCloseTimeout = 1 * time.Second
)

// Task is a unit of work executed on the scheduler's worker goroutine.
// The context is the scheduler's lifetime context and is cancelled when
// the scheduler closes.
type Task func(ctx context.Context)

// Scheduler runs submitted tasks sequentially on a single long-lived
// worker goroutine. Tasks interleave only at the delay boundaries imposed
// by ScheduleAfter, never preemptively. Submission is thread-safe and
// fire-and-forget.
type Scheduler struct {
	clock        clockwork.Clock
	logger       *slog.Logger
	tasks        chan Task
	ctx          context.Context
	cancel       context.CancelFunc
	stopped      chan struct{}
	closeTimeout time.Duration

	mu        sync.Mutex
	closed    bool
	timers    map[uint64]clockwork.Timer
	nextTimer uint64
	closeOnce sync.Once
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock used for delayed scheduling.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithQueueSize sets the capacity of the bounded task queue.
func WithQueueSize(size int) Option {
	return func(s *Scheduler) {
		if size > 0 {
			s.tasks = make(chan Task, size)
		}
	}
}

// WithCloseTimeout bounds how long Close waits for the worker to exit.
func WithCloseTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.closeTimeout = timeout
		}
	}
}

// New creates a scheduler and starts its worker goroutine.
func New(opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		clock:        clockwork.NewRealClock(),
		logger:       slog.Default(),
		tasks:        make(chan Task, defaultQueueSize),
		ctx:          ctx,
		cancel:       cancel,
		stopped:      make(chan struct{}),
		closeTimeout: defaultCloseTimeout,
		timers:       make(map[uint64]clockwork.Timer),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.run()

	return s
}

// Submit enqueues a task for execution on the worker goroutine. It never
// blocks: it returns contracts.ErrSchedulerClosed after Close, or an error
// when the bounded queue is full.
func (s *Scheduler) Submit(task func(ctx context.Context)) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return contracts.ErrSchedulerClosed
	}

	select {
	case s.tasks <- task:
		return nil
	default:
		return fmt.Errorf("task queue full (capacity %d)", cap(s.tasks))
	}
}

// ScheduleAfter submits the task to the worker once the delay elapses.
// The delay runs on the scheduler's clock; the task itself still executes
// on the worker goroutine. Pending delays are cancelled by Close.
func (s *Scheduler) ScheduleAfter(delay time.Duration, task func(ctx context.Context)) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return contracts.ErrSchedulerClosed
	}

	id := s.nextTimer
	s.nextTimer++
	s.timers[id] = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		if err := s.Submit(task); err != nil {
			s.logger.Warn("dropping delayed task", "error", err)
		}
	})
	return nil
}

// Close stops the scheduler: pending delayed tasks are cancelled, the
// worker stops picking up queued tasks, and the call waits for the worker
// to exit, bounded by the close timeout. In-flight tasks are not
// interrupted beyond the context cancellation they observe. Close is
// idempotent and best-effort.
func (s *Scheduler) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		for id, timer := range s.timers {
			timer.Stop()
			delete(s.timers, id)
		}
		s.mu.Unlock()

		s.cancel()

		// The join is bounded by wall clock even when a fake clock is
		// injected, so Close never depends on test code advancing time.
		select {
		case <-s.stopped:
		case <-time.After(s.closeTimeout):
			s.logger.Warn("scheduler worker did not stop within timeout",
				"timeout", s.closeTimeout)
		}
	})
	return nil
}

// PendingTimers returns the number of delayed tasks not yet fired.
func (s *Scheduler) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.ctx.Done():
			return
		case task := <-s.tasks:
			s.runTask(task)
		}
	}
}

// runTask executes one task, containing panics so a faulty task never
// kills the worker.
func (s *Scheduler) runTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked", "panic", r)
		}
	}()
	task(s.ctx)
}
