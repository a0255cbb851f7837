// Package bridge provides synchronous aggregation over a callback-driven
// asynchronous request API.
//
// SyncBridge owns a dedicated background worker hosting the asynchronous
// producer. A blocking Request call registers the expected callbacks,
// schedules the producer, and collects completions from a per-call channel
// with a shrinking deadline budget. Callbacks that miss the deadline are
// returned as synthesized Timeout outcomes rather than dropped, so the
// result set always accounts for every expected callback.
//
// Basic usage:
//
//	br, err := bridge.NewSyncBridge(registry, producer, sched,
//		bridge.WithObserver(callbacks.NewLoggingObserver(logger)))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer br.Close()
//
//	outcomes, err := br.Request(ctx, "req-001", payload, 4, 10*time.Second)
//
// Partial timeout is represented as data: callers inspect each outcome's
// Status instead of relying on errors. The single-callback RequestOne
// variant deliberately inverts this and returns ErrRequestTimeout.
package bridge
