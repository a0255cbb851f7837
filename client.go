package callbridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/glimte/callbridge-go/bridge"
	"github.com/glimte/callbridge-go/callbacks"
	"github.com/glimte/callbridge-go/contracts"
	"github.com/glimte/callbridge-go/internal/scheduler"
	"github.com/glimte/callbridge-go/producer"
)

// Client is the main entry point for callbridge-go. It wires the callback
// registry, the background worker, the asynchronous producer, and the sync
// bridge together with sensible defaults.
type Client struct {
	registry *callbacks.Registry
	bridge   *bridge.SyncBridge
}

type clientConfig struct {
	logger     *slog.Logger
	clock      clockwork.Clock
	observer   callbacks.Observer
	policy     producer.OutcomePolicy
	bridgeOpts []bridge.BridgeOption
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

// WithLogger sets the logger used by every component.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the clock used for scheduling and deadline arithmetic.
func WithClock(clock clockwork.Clock) ClientOption {
	return func(c *clientConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithObserver replaces the default logging observer.
func WithObserver(observer callbacks.Observer) ClientOption {
	return func(c *clientConfig) {
		c.observer = observer
	}
}

// WithPolicy replaces the producer's default prefix policy.
func WithPolicy(policy producer.OutcomePolicy) ClientOption {
	return func(c *clientConfig) {
		c.policy = policy
	}
}

// WithBridgeOptions appends extra options passed to the underlying bridge.
func WithBridgeOptions(opts ...bridge.BridgeOption) ClientOption {
	return func(c *clientConfig) {
		c.bridgeOpts = append(c.bridgeOpts, opts...)
	}
}

// NewClient creates a fully wired client. The returned client owns a
// background worker; call Close when done.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		logger: slog.Default(),
		clock:  clockwork.NewRealClock(),
		policy: producer.NewPrefixPolicy(time.Second),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.observer == nil {
		cfg.observer = callbacks.NewLoggingObserver(cfg.logger)
	}

	sched := scheduler.New(
		scheduler.WithClock(cfg.clock),
		scheduler.WithLogger(cfg.logger),
	)

	registry := callbacks.NewRegistry()

	prod, err := producer.NewSimulatedProducer(registry, sched,
		producer.WithPolicy(cfg.policy),
		producer.WithProducerLogger(cfg.logger),
	)
	if err != nil {
		sched.Close()
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	bridgeOpts := append([]bridge.BridgeOption{
		bridge.WithObserver(cfg.observer),
		bridge.WithBridgeClock(cfg.clock),
		bridge.WithBridgeLogger(cfg.logger),
	}, cfg.bridgeOpts...)

	br, err := bridge.NewSyncBridge(registry, prod, sched, bridgeOpts...)
	if err != nil {
		sched.Close()
		return nil, fmt.Errorf("failed to create bridge: %w", err)
	}

	return &Client{
		registry: registry,
		bridge:   br,
	}, nil
}

// Request performs a blocking fan-out request. An empty requestID is
// replaced with a generated one.
func (c *Client) Request(ctx context.Context, requestID string, payload map[string]any, callbackCount int, timeout time.Duration) ([]contracts.Outcome, error) {
	if requestID == "" {
		requestID = fmt.Sprintf("req-%s", uuid.New().String()[:8])
	}
	return c.bridge.Request(ctx, requestID, payload, callbackCount, timeout)
}

// RequestOne performs a blocking single-callback request; a missed
// deadline is returned as contracts.ErrRequestTimeout.
func (c *Client) RequestOne(ctx context.Context, requestID string, payload map[string]any, timeout time.Duration) (contracts.Outcome, error) {
	if requestID == "" {
		requestID = fmt.Sprintf("req-%s", uuid.New().String()[:8])
	}
	return c.bridge.RequestOne(ctx, requestID, payload, timeout)
}

// Bridge exposes the underlying sync bridge.
func (c *Client) Bridge() *bridge.SyncBridge {
	return c.bridge
}

// Registry exposes the callback registry.
func (c *Client) Registry() *callbacks.Registry {
	return c.registry
}

// Close shuts the client down, rejecting new requests and stopping the
// background worker with a bounded wait.
func (c *Client) Close() error {
	return c.bridge.Close()
}
