package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/glimte/callbridge-go/callbacks"
	"github.com/glimte/callbridge-go/contracts"
)

// Producer executes a logical request asynchronously, eventually invoking
// the handlers registered for it. It never returns a value; individual
// callback failures are represented as Failure outcomes.
type Producer interface {
	Execute(ctx context.Context, requestID string, payload map[string]any)
}

// TaskScheduler is the background worker the bridge dispatches producer
// work onto. The bridge takes ownership of it and closes it on Close.
type TaskScheduler interface {
	Submit(task func(ctx context.Context)) error
	Close() error
}

// SyncBridge turns the callback-driven asynchronous request API into a
// blocking call. Request fans one logical request out to N named
// callbacks, blocks until all complete or the deadline passes, and returns
// a result set in which missing callbacks appear as synthesized Timeout
// outcomes.
type SyncBridge struct {
	registry  *callbacks.Registry
	producer  Producer
	scheduler TaskScheduler
	observer  callbacks.Observer
	clock     clockwork.Clock
	logger    *slog.Logger

	minPoll     time.Duration
	gracePeriod time.Duration
	maxPending  int

	pending atomic.Int64
	closed  atomic.Bool
}

// BridgeConfig holds configuration for the bridge.
type BridgeConfig struct {
	Observer        callbacks.Observer
	Clock           clockwork.Clock
	Logger          *slog.Logger
	MinPollInterval time.Duration
	GracePeriod     time.Duration
	MaxPending      int
}

// BridgeOption configures the sync bridge.
type BridgeOption func(*BridgeConfig)

// WithObserver sets the observer notified of every outcome, including
// synthesized timeouts.
func WithObserver(observer callbacks.Observer) BridgeOption {
	return func(c *BridgeConfig) {
		c.Observer = observer
	}
}

// WithBridgeClock sets the clock used for deadline and poll arithmetic.
func WithBridgeClock(clock clockwork.Clock) BridgeOption {
	return func(c *BridgeConfig) {
		c.Clock = clock
	}
}

// WithBridgeLogger sets the logger.
func WithBridgeLogger(logger *slog.Logger) BridgeOption {
	return func(c *BridgeConfig) {
		c.Logger = logger
	}
}

// WithMinPollInterval sets the lower bound on each completion-channel poll.
func WithMinPollInterval(interval time.Duration) BridgeOption {
	return func(c *BridgeConfig) {
		c.MinPollInterval = interval
	}
}

// WithGracePeriod sets the pause taken after a missed deadline, before
// returning, so just-missed handlers fire into a still-live session.
func WithGracePeriod(grace time.Duration) BridgeOption {
	return func(c *BridgeConfig) {
		c.GracePeriod = grace
	}
}

// WithMaxPendingRequests sets the maximum number of concurrent requests.
func WithMaxPendingRequests(max int) BridgeOption {
	return func(c *BridgeConfig) {
		c.MaxPending = max
	}
}

// NewSyncBridge creates a bridge over the given registry, producer, and
// background scheduler. The bridge owns the scheduler for the rest of its
// lifetime.
func NewSyncBridge(registry *callbacks.Registry, producer Producer, scheduler TaskScheduler, opts ...BridgeOption) (*SyncBridge, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if producer == nil {
		return nil, fmt.Errorf("producer cannot be nil")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}

	config := &BridgeConfig{
		Clock:           clockwork.NewRealClock(),
		Logger:          slog.Default(),
		MinPollInterval: 100 * time.Millisecond,
		GracePeriod:     200 * time.Millisecond,
		MaxPending:      1000,
	}

	for _, opt := range opts {
		opt(config)
	}

	return &SyncBridge{
		registry:    registry,
		producer:    producer,
		scheduler:   scheduler,
		observer:    config.Observer,
		clock:       config.Clock,
		logger:      config.Logger,
		minPoll:     config.MinPollInterval,
		gracePeriod: config.GracePeriod,
		maxPending:  config.MaxPending,
	}, nil
}

// Request blocks until callbackCount callbacks complete for requestID or
// the timeout elapses. The returned slice always has exactly callbackCount
// entries: completed outcomes in arrival order, then a synthesized Timeout
// outcome for every callback that missed the deadline, in identifier
// order. A partial timeout is data, not an error; errors are reserved for
// invalid arguments, a closed bridge, the pending-request limit, and
// context cancellation.
//
// Callback identifiers are derived as "{requestID}-cb-{1..callbackCount}",
// registered before the producer is scheduled, and unconditionally
// unregistered before Request returns on every exit path.
func (b *SyncBridge) Request(ctx context.Context, requestID string, payload map[string]any, callbackCount int, timeout time.Duration) ([]contracts.Outcome, error) {
	if callbackCount <= 0 {
		return nil, contracts.ErrInvalidCallbackCount
	}
	if requestID == "" {
		return nil, fmt.Errorf("requestID cannot be empty")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}
	if b.closed.Load() {
		return nil, contracts.ErrBridgeClosed
	}
	if int(b.pending.Add(1)) > b.maxPending {
		b.pending.Add(-1)
		return nil, contracts.ErrTooManyPendingRequests
	}
	defer b.pending.Add(-1)

	sess := newSession(requestID, callbackCount, b.clock.Now().Add(timeout))

	// Final cleanup of every registration this call created, on every
	// exit path, including cancellation and producer scheduling failure.
	defer b.registry.UnregisterAll(requestID)

	for _, id := range sess.expectedIDs {
		b.registry.Register(requestID, id, callbacks.HandlerFunc(func(outcome contracts.Outcome) {
			b.notifyObserver(outcome)
			sess.deliver(outcome)
		}))
	}

	if err := b.scheduler.Submit(func(ctx context.Context) {
		b.producer.Execute(ctx, requestID, payload)
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule producer: %w", err)
	}

	collected, err := b.collect(ctx, sess)
	if err != nil {
		return nil, err
	}

	return b.finalize(sess, collected), nil
}

// RequestOne is the single-callback variant. Unlike Request, a missed
// deadline surfaces as contracts.ErrRequestTimeout rather than a Timeout
// outcome; this is a deliberately different contract for callers that want
// one answer or an error.
func (b *SyncBridge) RequestOne(ctx context.Context, requestID string, payload map[string]any, timeout time.Duration) (contracts.Outcome, error) {
	results, err := b.Request(ctx, requestID, payload, 1, timeout)
	if err != nil {
		return contracts.Outcome{}, err
	}
	if results[0].IsTimedOut() {
		return contracts.Outcome{}, fmt.Errorf("%w: %s", contracts.ErrRequestTimeout, results[0].CallbackID)
	}
	return results[0], nil
}

// collect pulls outcomes off the session channel with a shrinking
// remaining-time budget until all expected callbacks have been delivered
// or the deadline passes. An empty poll is not an error; the deadline is
// re-checked and the poll retried.
func (b *SyncBridge) collect(ctx context.Context, sess *session) ([]contracts.Outcome, error) {
	collected := make([]contracts.Outcome, 0, sess.expected)

	for !sess.done() {
		remaining := sess.deadline.Sub(b.clock.Now())
		if remaining <= 0 {
			break
		}
		poll := remaining
		if poll < b.minPoll {
			poll = b.minPoll
		}

		select {
		case outcome := <-sess.completions:
			collected = append(collected, outcome)
		case <-b.clock.After(poll):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Drain outcomes already delivered but not yet received, so a
	// completion counted by a handler is never reported as a timeout.
	for {
		select {
		case outcome := <-sess.completions:
			collected = append(collected, outcome)
		default:
			return collected, nil
		}
	}
}

// finalize synthesizes Timeout outcomes for every expected callback absent
// from the collected set and, when anything was missed, pauses for the
// grace period before handing the result back. The pause only reduces the
// chance of a just-missed handler firing into a torn-down session; the
// result set is already final.
func (b *SyncBridge) finalize(sess *session, collected []contracts.Outcome) []contracts.Outcome {
	received := make(map[string]struct{}, len(collected))
	for _, outcome := range collected {
		received[outcome.CallbackID] = struct{}{}
	}

	results := collected
	missed := 0
	for _, id := range sess.expectedIDs {
		if _, ok := received[id]; ok {
			continue
		}
		timeoutOutcome := contracts.Timeout(id)
		b.notifyObserver(timeoutOutcome)
		results = append(results, timeoutOutcome)
		missed++
	}

	if missed > 0 {
		b.logger.Warn("request completed with timed-out callbacks",
			"requestId", sess.requestID,
			"expected", sess.expected,
			"timedOut", missed)
		b.clock.Sleep(b.gracePeriod)
	}

	return results
}

// notifyObserver forwards one outcome to the observer, containing panics
// so a faulty observer never aborts the request or the producer.
func (b *SyncBridge) notifyObserver(outcome contracts.Outcome) {
	if b.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("observer panicked",
				"callbackId", outcome.CallbackID, "panic", r)
		}
	}()
	b.observer.OnOutcome(outcome)
}

// PendingRequests returns the number of requests currently blocked in
// Request.
func (b *SyncBridge) PendingRequests() int {
	return int(b.pending.Load())
}

// Close rejects new requests and shuts down the background worker:
// scheduled-but-unstarted producer work is cancelled and the worker is
// joined with a bounded wait. In-flight work is not force-killed; a late
// handler firing into an abandoned session remains a safe no-op. Close is
// idempotent and best-effort.
func (b *SyncBridge) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.logger.Debug("closing bridge")
	return b.scheduler.Close()
}
