package contracts

import (
	"time"
)

// Status describes the terminal state of a single callback.
type Status string

const (
	// StatusSuccess indicates the callback completed with a result payload.
	StatusSuccess Status = "success"
	// StatusFailure indicates the callback completed with a business error.
	StatusFailure Status = "failure"
	// StatusTimeout indicates the callback never completed before the
	// request deadline. Timeout outcomes are only synthesized by the
	// bridge; producers never emit them.
	StatusTimeout Status = "timeout"
)

// TimeoutErrorMessage is the fixed error text carried by synthesized
// timeout outcomes.
const TimeoutErrorMessage = "callback timed out"

// Outcome is the immutable record of one callback's terminal state.
// Exactly one status holds for any outcome.
type Outcome struct {
	CallbackID string         `json:"callbackId"`
	Status     Status         `json:"status"`
	Payload    map[string]any `json:"payload,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Success creates a success outcome carrying the result payload.
func Success(callbackID string, payload map[string]any) Outcome {
	return Outcome{
		CallbackID: callbackID,
		Status:     StatusSuccess,
		Payload:    copyPayload(payload),
		CreatedAt:  time.Now().UTC(),
	}
}

// Failure creates a failure outcome. The payload may carry partial data
// gathered before the failure and may be nil.
func Failure(callbackID string, errMsg string, payload map[string]any) Outcome {
	return Outcome{
		CallbackID: callbackID,
		Status:     StatusFailure,
		Payload:    copyPayload(payload),
		Error:      errMsg,
		CreatedAt:  time.Now().UTC(),
	}
}

// Timeout creates a synthesized timeout outcome with the fixed timeout
// error message and an empty payload.
func Timeout(callbackID string) Outcome {
	return Outcome{
		CallbackID: callbackID,
		Status:     StatusTimeout,
		Payload:    map[string]any{},
		Error:      TimeoutErrorMessage,
		CreatedAt:  time.Now().UTC(),
	}
}

// IsSuccess returns whether the outcome completed successfully.
func (o Outcome) IsSuccess() bool {
	return o.Status == StatusSuccess
}

// IsFailure returns whether the outcome carries a business failure.
func (o Outcome) IsFailure() bool {
	return o.Status == StatusFailure
}

// IsTimedOut returns whether the outcome was synthesized after the
// request deadline expired.
func (o Outcome) IsTimedOut() bool {
	return o.Status == StatusTimeout
}

// copyPayload shields the outcome from later mutation of the caller's map.
func copyPayload(payload map[string]any) map[string]any {
	copied := make(map[string]any, len(payload))
	for k, v := range payload {
		copied[k] = v
	}
	return copied
}
