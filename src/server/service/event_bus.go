package services

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/apimgr/tripplanner/src/utils"
)

// Event names
const (
	EventTripUpdate      = "trip-update"
	EventItineraryUpdate = "itinerary-update"
)

// Trip event types
const (
	TripCreated = "created"
	TripUpdated = "updated"
	TripDeleted = "deleted"
)

// Itinerary event types
const (
	ItemUpdated    = "item-updated"
	ItemDeleted    = "item-deleted"
	ItemsReordered = "items-reordered"
)

// Event is one push delivered to a room
type Event struct {
	ID        string      `json:"id"`
	Room      string      `json:"room"`
	Event     string      `json:"event"`
	Payload   interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// TripEventPayload is the body of a trip-update event
type TripEventPayload struct {
	Type   string      `json:"type"`
	Trip   interface{} `json:"trip,omitempty"`
	TripID int64       `json:"tripId,omitempty"`
}

// ItineraryEventPayload is the body of an itinerary-update event
type ItineraryEventPayload struct {
	Type   string      `json:"type"`
	TripID int64       `json:"tripId"`
	Item   interface{} `json:"item,omitempty"`
	ItemID int64       `json:"itemId,omitempty"`
	Items  interface{} `json:"items,omitempty"`
}

// EventSink receives published events; the websocket hub implements it
type EventSink interface {
	Deliver(event *Event)
}

// EventBus queues domain events for push delivery. Publishing never
// blocks and never fails the caller: a full queue drops the event with
// a log line.
type EventBus struct {
	sink   EventSink
	events chan *Event
	logger *utils.Logger
	done   chan struct{}
}

// NewEventBus creates a bus feeding the given sink
func NewEventBus(sink EventSink, logger *utils.Logger) *EventBus {
	return &EventBus{
		sink:   sink,
		events: make(chan *Event, 256),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Run drains the queue into the sink (run in goroutine)
func (b *EventBus) Run() {
	for {
		select {
		case event := <-b.events:
			if b.sink != nil {
				b.sink.Deliver(event)
			}
		case <-b.done:
			return
		}
	}
}

// Stop shuts the bus down; queued events are discarded
func (b *EventBus) Stop() {
	close(b.done)
}

// Publish queues an event for a room, fire-and-forget
func (b *EventBus) Publish(room, event string, payload interface{}) {
	e := &Event{
		ID:        ulid.Make().String(),
		Room:      room,
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	select {
	case b.events <- e:
	default:
		if b.logger != nil {
			b.logger.Warn("event queue full, dropping %s for %s", event, room)
		}
	}
}

// PublishTripUpdate notifies a user's sessions about a trip change
func (b *EventBus) PublishTripUpdate(userID int64, payload TripEventPayload) {
	b.Publish(UserRoom(userID), EventTripUpdate, payload)
}

// PublishItineraryUpdate notifies a user's sessions about an itinerary
// change
func (b *EventBus) PublishItineraryUpdate(userID int64, payload ItineraryEventPayload) {
	b.Publish(UserRoom(userID), EventItineraryUpdate, payload)
}
