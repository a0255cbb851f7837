package callbacks

import (
	"sync"
)

// group holds the callbacks registered for one request. Each group carries
// its own lock so dispatch snapshots for one request never block snapshots
// for another; mutation additionally holds the registry lock so a group is
// never deleted out from under a concurrent insert.
type group struct {
	mu       sync.Mutex
	handlers map[string]Handler
	order    []string // registration order, for deterministic dispatch
}

func (g *group) register(callbackID string, handler Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.handlers[callbackID]; !exists {
		g.order = append(g.order, callbackID)
	}
	g.handlers[callbackID] = handler
}

func (g *group) unregister(callbackID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.handlers[callbackID]; exists {
		delete(g.handlers, callbackID)
		for i, id := range g.order {
			if id == callbackID {
				g.order = append(g.order[:i], g.order[i+1:]...)
				break
			}
		}
	}
	return len(g.handlers)
}

func (g *group) snapshot() []Registration {
	g.mu.Lock()
	defer g.mu.Unlock()
	regs := make([]Registration, 0, len(g.handlers))
	for _, id := range g.order {
		regs = append(regs, Registration{CallbackID: id, Handler: g.handlers[id]})
	}
	return regs
}

// Registry maps (requestID, callbackID) pairs to handlers. It is the
// hand-off point between the async producer, which looks groups up for
// dispatch, and the bridge, which registers and removes them. Mutation is
// serialized per request group; lookups across requests never contend.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*group
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		groups: make(map[string]*group),
	}
}

// Register adds a handler for (requestID, callbackID), creating the
// request's group on first registration. Registering the same key again
// replaces the handler silently.
func (r *Registry) Register(requestID, callbackID string, handler Handler) {
	// The outer lock is held across the group mutation so a concurrent
	// Unregister/UnregisterAll for the same request can never delete the
	// group between lookup and insert and strand the registration.
	r.mu.Lock()
	defer r.mu.Unlock()
	g, exists := r.groups[requestID]
	if !exists {
		g = &group{handlers: make(map[string]Handler)}
		r.groups[requestID] = g
	}
	g.register(callbackID, handler)
}

// Unregister removes a single callback registration. It is a no-op when
// the key does not exist. Removing the last entry removes the group.
func (r *Registry) Unregister(requestID, callbackID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, exists := r.groups[requestID]
	if !exists {
		return
	}
	if g.unregister(callbackID) == 0 {
		delete(r.groups, requestID)
	}
}

// UnregisterAll removes every registration for requestID. It is a no-op
// when the request has no group.
func (r *Registry) UnregisterAll(requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, requestID)
}

// Group returns the registrations for requestID in registration order.
// The returned slice is a snapshot; later mutation of the registry does
// not affect it.
func (r *Registry) Group(requestID string) []Registration {
	r.mu.RLock()
	g, exists := r.groups[requestID]
	r.mu.RUnlock()
	if !exists {
		return nil
	}
	return g.snapshot()
}

// GroupSize returns the number of callbacks registered for requestID.
func (r *Registry) GroupSize(requestID string) int {
	return len(r.Group(requestID))
}

// RequestCount returns the number of requests with at least one
// registration.
func (r *Registry) RequestCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups)
}
