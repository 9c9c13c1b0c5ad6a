package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace_admin_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishSyncRunsHandlersInSubscriptionOrder(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var order []int
	for i := 1; i <= 3; i++ {
		n := i
		bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
			order = append(order, n)
			return nil
		}))
	}

	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "test.event"}); err != nil {
		t.Fatalf("PublishSync: %v", err)
	}

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("handler order = %v, want [1 2 3]", order)
	}
}

func TestPublishSyncStopsOnFirstError(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))
	boom := errors.New("boom")

	ran := 0
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
		ran++
		return boom
	}))
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
		ran++
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "test.event"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped handler error, got %v", err)
	}
	if ran != 1 {
		t.Fatalf("handlers run = %d, want 1", ran)
	}
}

func TestPublishIsolatesHandlersFromSubscribers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	done := make(chan struct{})
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
		close(done)
		return nil
	}))
	bus.Subscribe("other.event", HandlerFunc(func(ctx context.Context, event Event) error {
		t.Error("handler for other.event must not fire")
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "test.event"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handler never ran")
	}
}

func TestPublishRecoversFromHandlerPanic(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	panicked := make(chan struct{})
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
		defer close(panicked)
		panic("handler bug")
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "test.event"})

	select {
	case <-panicked:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}
	// Give the recover path a moment; the test fails by crashing if the
	// panic escapes the goroutine.
	time.Sleep(50 * time.Millisecond)
}
