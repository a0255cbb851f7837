// Package callbacks provides the registry that connects an asynchronous
// producer to the handlers a bridge registers on behalf of a blocked
// caller, plus the Observer contract for outcome telemetry.
package callbacks
