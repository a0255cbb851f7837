// Package contracts defines the core value types shared across callbridge.
//
// The central type is Outcome, the immutable record of one callback's
// terminal state. Outcomes are constructed through Success, Failure, and
// Timeout and never mutated afterwards; payload maps are copied on
// construction so callers cannot alias internal state.
package contracts
