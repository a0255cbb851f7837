package bridge

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/glimte/callbridge-go/contracts"
)

// session holds the per-call state for one blocking request: the expected
// callback identifiers, the completion channel the registered handlers
// push into, and the count of outcomes actually delivered. It is owned by
// the goroutine executing Request and never shared beyond the handler
// closures.
type session struct {
	requestID   string
	expected    int
	expectedIDs []string
	deadline    time.Time
	completions chan contracts.Outcome
	completed   atomic.Int32
}

func newSession(requestID string, expected int, deadline time.Time) *session {
	ids := make([]string, expected)
	for i := range ids {
		ids[i] = callbackID(requestID, i+1)
	}
	return &session{
		requestID:   requestID,
		expected:    expected,
		expectedIDs: ids,
		deadline:    deadline,
		// Buffered to the expected count so a handler push never blocks
		// the producer, even after the caller has stopped collecting.
		completions: make(chan contracts.Outcome, expected),
	}
}

// deliver hands one outcome to the collecting caller. A fire after the
// session has been finalized lands in the buffer and is discarded with the
// channel; a duplicate fire beyond the buffer capacity is dropped. Either
// way delivery is a safe no-op, never a fault.
func (s *session) deliver(outcome contracts.Outcome) {
	select {
	case s.completions <- outcome:
		s.completed.Add(1)
	default:
	}
}

// done reports whether every expected callback has been delivered.
func (s *session) done() bool {
	return int(s.completed.Load()) >= s.expected
}

// callbackID derives the i-th (1-based) callback identifier for a request.
func callbackID(requestID string, i int) string {
	return fmt.Sprintf("%s-cb-%d", requestID, i)
}
