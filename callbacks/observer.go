package callbacks

import (
	"log/slog"

	"github.com/spf13/cast"

	"github.com/glimte/callbridge-go/contracts"
)

// Observer receives every outcome produced for a request, including
// synthesized timeouts, for side-effecting purposes such as logging or
// telemetry. Implementations must not block; a panicking observer is
// recovered and logged by the caller.
type Observer interface {
	OnOutcome(outcome contracts.Outcome)
}

// ObserverFunc is a function adapter for Observer.
type ObserverFunc func(outcome contracts.Outcome)

// OnOutcome implements Observer.
func (f ObserverFunc) OnOutcome(outcome contracts.Outcome) {
	f(outcome)
}

// LoggingObserver logs one line per outcome.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates an observer backed by the given logger. A nil
// logger falls back to slog.Default().
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnOutcome implements Observer.
func (o *LoggingObserver) OnOutcome(outcome contracts.Outcome) {
	switch outcome.Status {
	case contracts.StatusSuccess:
		o.logger.Info("callback succeeded",
			"callbackId", outcome.CallbackID,
			"requestId", cast.ToString(outcome.Payload["request_id"]),
			"result", cast.ToString(outcome.Payload["result"]))
	case contracts.StatusFailure:
		o.logger.Warn("callback failed",
			"callbackId", outcome.CallbackID,
			"requestId", cast.ToString(outcome.Payload["request_id"]),
			"error", outcome.Error)
	case contracts.StatusTimeout:
		o.logger.Warn("callback timed out",
			"callbackId", outcome.CallbackID)
	default:
		o.logger.Error("unknown outcome status",
			"callbackId", outcome.CallbackID,
			"status", string(outcome.Status))
	}
}
