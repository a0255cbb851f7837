package producer

import (
	"strings"
	"time"
)

// Decision describes how one callback should resolve: after what delay,
// and whether it fails.
type Decision struct {
	Delay time.Duration
	Fail  bool
}

// OutcomePolicy decides, deterministically from the request and callback
// identifiers, how a callback resolves. The production policy is a
// placeholder for a real backend; callers are expected to swap it out.
type OutcomePolicy interface {
	Evaluate(requestID, callbackID string, index int) Decision
}

// PolicyFunc is a function adapter for OutcomePolicy.
type PolicyFunc func(requestID, callbackID string, index int) Decision

// Evaluate implements OutcomePolicy.
func (f PolicyFunc) Evaluate(requestID, callbackID string, index int) Decision {
	return f(requestID, callbackID, index)
}

// PrefixPolicy is the default deterministic placeholder policy, keyed on
// the request identifier prefix. Delays are expressed in multiples of
// Unit.
//
//   - "req-001" requests: delay (index+1) units, capped at 8 units; the
//     first and fourth callbacks fail.
//   - "req-002" requests: 1 unit for the first callback, 3 units for the
//     rest; all succeed.
//   - "test" requests: one tenth of a unit; all succeed.
//   - anything else: 1 + (last byte of callbackID mod 3) units; fails when
//     the last byte mod 5 is zero.
type PrefixPolicy struct {
	Unit time.Duration
}

// NewPrefixPolicy creates a PrefixPolicy with the given delay unit. A
// non-positive unit defaults to one second.
func NewPrefixPolicy(unit time.Duration) *PrefixPolicy {
	if unit <= 0 {
		unit = time.Second
	}
	return &PrefixPolicy{Unit: unit}
}

// Evaluate implements OutcomePolicy.
func (p *PrefixPolicy) Evaluate(requestID, callbackID string, index int) Decision {
	switch {
	case strings.HasPrefix(requestID, "req-001"):
		units := index + 1
		if units > 8 {
			units = 8
		}
		return Decision{
			Delay: time.Duration(units) * p.Unit,
			Fail:  index == 0 || index == 3,
		}
	case strings.HasPrefix(requestID, "req-002"):
		units := 3
		if index == 0 {
			units = 1
		}
		return Decision{Delay: time.Duration(units) * p.Unit}
	case strings.HasPrefix(requestID, "test"):
		return Decision{Delay: p.Unit / 10}
	default:
		var last byte
		if len(callbackID) > 0 {
			last = callbackID[len(callbackID)-1]
		}
		return Decision{
			Delay: time.Duration(1+int(last)%3) * p.Unit,
			Fail:  int(last)%5 == 0,
		}
	}
}
