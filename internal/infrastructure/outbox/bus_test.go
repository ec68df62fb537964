package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopflow-io/shopflow/internal/domain/event"
	"github.com/shopflow-io/shopflow/internal/observability"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func startBus(t *testing.T) *Bus {
	t.Helper()
	bus := NewBus(observability.NopLogger())
	bus.Start(context.Background())
	t.Cleanup(func() { bus.Stop(context.Background()) })
	return bus
}

func waitFor(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
		return nil
	}
}

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := startBus(t)

	first := make(chan event.Event, 1)
	second := make(chan event.Event, 1)
	bus.Subscribe("order.placed", func(_ context.Context, e event.Event) error {
		first <- e
		return nil
	})
	bus.Subscribe("order.placed", func(_ context.Context, e event.Event) error {
		second <- e
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.placed"}))

	assert.Equal(t, "order.placed", waitFor(t, first).EventName())
	assert.Equal(t, "order.placed", waitFor(t, second).EventName())
}

func TestBus_RoutesByEventName(t *testing.T) {
	bus := startBus(t)

	placed := make(chan event.Event, 1)
	settled := make(chan event.Event, 1)
	bus.Subscribe("order.placed", func(_ context.Context, e event.Event) error {
		placed <- e
		return nil
	})
	bus.Subscribe("payment.settled", func(_ context.Context, e event.Event) error {
		settled <- e
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "payment.settled"}))

	assert.Equal(t, "payment.settled", waitFor(t, settled).EventName())
	select {
	case <-placed:
		t.Fatal("handler for another event name was invoked")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_SurvivesHandlerPanic(t *testing.T) {
	bus := startBus(t)

	delivered := make(chan event.Event, 1)
	bus.Subscribe("order.placed", func(context.Context, event.Event) error {
		panic("handler exploded")
	})
	bus.Subscribe("order.placed", func(_ context.Context, e event.Event) error {
		delivered <- e
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.placed"}))
	waitFor(t, delivered)

	// The dispatch loop is still alive after the panic.
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.placed"}))
	waitFor(t, delivered)
}

func TestBus_PublishHonorsContext(t *testing.T) {
	bus := NewBus(observability.NopLogger())
	// Never started, so the queue eventually fills.
	for i := 0; i < 1024; i++ {
		require.NoError(t, bus.Publish(context.Background(), testEvent{name: "order.placed"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := bus.Publish(ctx, testEvent{name: "order.placed"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
