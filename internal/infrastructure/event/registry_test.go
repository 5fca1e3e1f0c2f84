package event

import (
	"context"
	"testing"

	"github.com/kouden/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHandler implements EventHandler for testing
type mockHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
}

func newMockHandler(eventTypes ...string) *mockHandler {
	return &mockHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

func (h *mockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.handled = append(h.handled, event)
	return nil
}

func (h *mockHandler) EventTypes() []string {
	return h.eventTypes
}

func TestHandlerRegistry_Register_SpecificTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler("ReturnRecordCreated", "ReturnRecordUpdated")

	registry.Register(handler, "ReturnRecordCreated", "ReturnRecordUpdated")

	handlers := registry.GetHandlers("ReturnRecordCreated")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("ReturnRecordUpdated")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("ReturnRecordsDeleted")
	assert.Len(t, handlers, 0)
}

func TestHandlerRegistry_Register_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler() // No event types = wildcard

	registry.Register(handler)

	handlers := registry.GetHandlers("ReturnRecordCreated")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("AnyEventType")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])
}

func TestHandlerRegistry_Register_MixedTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	specificHandler := newMockHandler("ReturnRecordCreated")
	wildcardHandler := newMockHandler()

	registry.Register(specificHandler, "ReturnRecordCreated")
	registry.Register(wildcardHandler)

	handlers := registry.GetHandlers("ReturnRecordCreated")
	assert.Len(t, handlers, 2)

	handlers = registry.GetHandlers("OtherEvent")
	assert.Len(t, handlers, 1)
	assert.Equal(t, wildcardHandler, handlers[0])
}

func TestHandlerRegistry_Unregister_SpecificHandler(t *testing.T) {
	registry := NewHandlerRegistry()
	handler1 := newMockHandler("ReturnRecordCreated")
	handler2 := newMockHandler("ReturnRecordCreated")

	registry.Register(handler1, "ReturnRecordCreated")
	registry.Register(handler2, "ReturnRecordCreated")

	handlers := registry.GetHandlers("ReturnRecordCreated")
	assert.Len(t, handlers, 2)

	registry.Unregister(handler1)

	handlers = registry.GetHandlers("ReturnRecordCreated")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler2, handlers[0])
}

func TestHandlerRegistry_Unregister_WildcardHandler(t *testing.T) {
	registry := NewHandlerRegistry()
	wildcardHandler := newMockHandler()

	registry.Register(wildcardHandler)

	handlers := registry.GetHandlers("AnyEvent")
	assert.Len(t, handlers, 1)

	registry.Unregister(wildcardHandler)

	handlers = registry.GetHandlers("AnyEvent")
	assert.Len(t, handlers, 0)
}

func TestHandlerRegistry_DuplicateRegistrationIsIgnored(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler("ReturnRecordCreated")

	registry.Register(handler, "ReturnRecordCreated")
	registry.Register(handler, "ReturnRecordCreated")

	assert.Len(t, registry.GetHandlers("ReturnRecordCreated"), 1)
}

func TestHandlerRegistry_SnapshotIsStable(t *testing.T) {
	registry := NewHandlerRegistry()
	first := newMockHandler("ReturnRecordCreated")
	registry.Register(first, "ReturnRecordCreated")

	snapshot := registry.GetHandlers("ReturnRecordCreated")
	registry.Register(newMockHandler("ReturnRecordCreated"), "ReturnRecordCreated")
	registry.Unregister(first)

	require.Len(t, snapshot, 1)
	assert.Equal(t, first, snapshot[0])
	assert.Len(t, registry.GetHandlers("ReturnRecordCreated"), 1)
}
