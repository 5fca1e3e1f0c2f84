package event

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/kouden/backend/internal/domain/shared"
)

// routes is an immutable snapshot of the subscriptions. Handlers keyed by ""
// receive every event type.
type routes map[string][]shared.EventHandler

const anyEventType = ""

// HandlerRegistry routes event types to handlers. Publishing reads a
// snapshot without locking; subscriptions swap in a new snapshot.
type HandlerRegistry struct {
	writeMu sync.Mutex
	current atomic.Pointer[routes]
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	r := &HandlerRegistry{}
	r.current.Store(&routes{})
	return r
}

// Register routes eventTypes to handler. No types subscribes to everything.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = []string{anyEventType}
	}
	r.update(func(next routes) {
		for _, t := range eventTypes {
			if !slices.Contains(next[t], handler) {
				next[t] = append(next[t], handler)
			}
		}
	})
}

// Unregister drops handler from every route
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.update(func(next routes) {
		for t, hs := range next {
			hs = slices.DeleteFunc(hs, func(h shared.EventHandler) bool { return h == handler })
			if len(hs) == 0 {
				delete(next, t)
				continue
			}
			next[t] = hs
		}
	})
}

// GetHandlers returns the handlers for eventType followed by the catch-all ones
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	snap := *r.current.Load()
	if eventType == anyEventType {
		return slices.Clone(snap[anyEventType])
	}
	return slices.Concat(snap[eventType], snap[anyEventType])
}

func (r *HandlerRegistry) update(mutate func(routes)) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	prev := *r.current.Load()
	next := make(routes, len(prev))
	for t, hs := range prev {
		next[t] = slices.Clone(hs)
	}
	mutate(next)
	r.current.Store(&next)
}
