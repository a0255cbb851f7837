package contracts

import "errors"

var (
	// ErrInvalidCallbackCount is returned when a request is made with a
	// non-positive expected callback count.
	ErrInvalidCallbackCount = errors.New("callback count must be positive")

	// ErrBridgeClosed is returned when a request is made on a closed bridge.
	ErrBridgeClosed = errors.New("bridge is closed")

	// ErrTooManyPendingRequests is returned when the bridge's pending
	// request limit is reached.
	ErrTooManyPendingRequests = errors.New("too many pending requests")

	// ErrRequestTimeout is returned by the single-callback request variant
	// when the callback does not complete before the deadline. The
	// aggregating variant never returns it; there a missed deadline is
	// represented as a timeout outcome instead.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrSchedulerClosed is returned when work is submitted to a scheduler
	// that has been closed.
	ErrSchedulerClosed = errors.New("scheduler is closed")
)
