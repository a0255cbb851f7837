package producer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cast"

	"github.com/glimte/callbridge-go/callbacks"
	"github.com/glimte/callbridge-go/contracts"
)

// TaskScheduler schedules work onto the bridge's background worker.
type TaskScheduler interface {
	Submit(task func(ctx context.Context)) error
	ScheduleAfter(delay time.Duration, task func(ctx context.Context)) error
}

// GroupLookup resolves the callbacks registered for a request.
// *callbacks.Registry satisfies it.
type GroupLookup interface {
	Group(requestID string) []callbacks.Registration
}

// SimulatedProducer executes a logical request by fanning it out to every
// registered callback, each with an independent policy-driven delay and
// success/failure decision. It stands in for a real asynchronous backend.
type SimulatedProducer struct {
	registry  GroupLookup
	scheduler TaskScheduler
	policy    OutcomePolicy
	logger    *slog.Logger
}

// ProducerOption configures a SimulatedProducer.
type ProducerOption func(*SimulatedProducer)

// WithPolicy sets the outcome policy.
func WithPolicy(policy OutcomePolicy) ProducerOption {
	return func(p *SimulatedProducer) {
		if policy != nil {
			p.policy = policy
		}
	}
}

// WithProducerLogger sets the logger.
func WithProducerLogger(logger *slog.Logger) ProducerOption {
	return func(p *SimulatedProducer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewSimulatedProducer creates a producer that dispatches through the
// given registry and scheduler. The default policy is NewPrefixPolicy
// with a one second unit.
func NewSimulatedProducer(registry GroupLookup, scheduler TaskScheduler, opts ...ProducerOption) (*SimulatedProducer, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}

	p := &SimulatedProducer{
		registry:  registry,
		scheduler: scheduler,
		policy:    NewPrefixPolicy(time.Second),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Execute fans the request out to each registered callback. Each callback
// resolves independently after its policy-assigned delay; individual
// failures are data, never producer errors. An empty callback group is
// logged and ignored.
func (p *SimulatedProducer) Execute(ctx context.Context, requestID string, payload map[string]any) {
	group := p.registry.Group(requestID)
	if len(group) == 0 {
		p.logger.Warn("no callbacks registered for request", "requestId", requestID)
		return
	}

	p.logger.Debug("executing request", "requestId", requestID, "callbacks", len(group))

	value := cast.ToString(payload["value"])
	if value == "" {
		value = "unknown"
	}

	for i, reg := range group {
		decision := p.policy.Evaluate(requestID, reg.CallbackID, i)
		reg := reg
		err := p.scheduler.ScheduleAfter(decision.Delay, func(ctx context.Context) {
			var outcome contracts.Outcome
			if decision.Fail {
				outcome = contracts.Failure(reg.CallbackID,
					fmt.Sprintf("error while processing callback %s", reg.CallbackID),
					map[string]any{
						"request_id":   requestID,
						"partial_data": fmt.Sprintf("partial-%s", value),
					})
			} else {
				outcome = contracts.Success(reg.CallbackID, map[string]any{
					"request_id": requestID,
					"result":     fmt.Sprintf("processed-%s-%s", value, reg.CallbackID),
				})
			}
			p.invoke(reg, outcome)
		})
		if err != nil {
			p.logger.Warn("failed to schedule callback",
				"requestId", requestID, "callbackId", reg.CallbackID, "error", err)
		}
	}
}

// invoke delivers one outcome, containing handler panics so a faulty
// handler never aborts sibling callbacks.
func (p *SimulatedProducer) invoke(reg callbacks.Registration, outcome contracts.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("callback handler panicked",
				"callbackId", reg.CallbackID, "panic", r)
		}
	}()
	reg.Handler.Handle(outcome)
}
