package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mlmshop/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Member", uuid.New())}
}

// recordingHandler remembers the events it received
type recordingHandler struct {
	eventTypes []string
	err        error
	panicWith  any

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, ev)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	placed := newRecordingHandler("MemberPlaced")
	credited := newRecordingHandler("CommissionCredited")
	all := newRecordingHandler()
	bus.Subscribe(placed)
	bus.Subscribe(credited)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(ctx,
		newTestEvent("MemberPlaced"),
		newTestEvent("CommissionCredited"),
		newTestEvent("CommissionCredited"),
		newTestEvent("OrderPaid"),
	))

	assert.Equal(t, 1, placed.count())
	assert.Equal(t, 2, credited.count())
	assert.Equal(t, 4, all.count())
}

func TestInMemoryEventBus_SubscribeOverridesTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecordingHandler("MemberPlaced")
	bus.Subscribe(h, "OrderPaid")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("MemberPlaced"), newTestEvent("OrderPaid")))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_FailuresDoNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newRecordingHandler("OrderPaid")
	failing.err = errors.New("boom")
	panicking := newRecordingHandler("OrderPaid")
	panicking.panicWith = "kaboom"
	healthy := newRecordingHandler("OrderPaid")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("OrderPaid"))
	require.Error(t, err)
	assert.ErrorIs(t, err, failing.err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, 1, healthy.count())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecordingHandler("OrderPaid")
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("OrderPaid")))
	assert.Equal(t, 0, h.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	assert.False(t, bus.Running())
	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.Running())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.Running())
}
