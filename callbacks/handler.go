package callbacks

import (
	"github.com/glimte/callbridge-go/contracts"
)

// Handler receives the outcome of a single callback. A handler is invoked
// at most once per registration.
type Handler interface {
	Handle(outcome contracts.Outcome)
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(outcome contracts.Outcome)

// Handle implements Handler.
func (f HandlerFunc) Handle(outcome contracts.Outcome) {
	f(outcome)
}

// Registration pairs a callback identifier with its handler.
type Registration struct {
	CallbackID string
	Handler    Handler
}
