package services

import (
	"testing"
	"time"
)

func TestEventBusDelivers(t *testing.T) {
	logger := testLogger(t)
	bus, sink := newTestBus(t, logger)

	bus.PublishTripUpdate(7, TripEventPayload{Type: TripCreated, TripID: 1})
	bus.PublishItineraryUpdate(7, ItineraryEventPayload{Type: ItemDeleted, TripID: 1, ItemID: 3})

	events := sink.waitFor(t, 2)
	if events[0].Event != EventTripUpdate || events[1].Event != EventItineraryUpdate {
		t.Errorf("Expected trip-update then itinerary-update, got %s then %s",
			events[0].Event, events[1].Event)
	}
	for _, event := range events {
		if event.Room != UserRoom(7) {
			t.Errorf("Expected room %s, got %s", UserRoom(7), event.Room)
		}
		if event.ID == "" || event.Timestamp.IsZero() {
			t.Error("Events must carry an ID and timestamp")
		}
	}
}

func TestEventBusPublishNeverBlocks(t *testing.T) {
	logger := testLogger(t)

	// No Run loop: the queue fills and further publishes drop
	bus := NewEventBus(&captureSink{}, logger)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.Publish(UserRoom(1), EventTripUpdate, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish must never block the caller")
	}
}

func TestEventBusNilSink(t *testing.T) {
	logger := testLogger(t)

	bus := NewEventBus(nil, logger)
	go bus.Run()
	defer bus.Stop()

	// Draining into a nil sink must not panic
	bus.Publish(UserRoom(1), EventTripUpdate, nil)
	time.Sleep(20 * time.Millisecond)
}
