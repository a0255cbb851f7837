// Package scheduler implements the bridge's dedicated background worker: a
// single goroutine that executes submitted tasks sequentially, with
// clock-driven delayed submission and bounded, idempotent shutdown.
package scheduler
