package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventUserRegistered  = "user_registered"
	EventTicketPurchased = "ticket_purchased"
	EventTicketCancelled = "ticket_cancelled"
	EventTicketAdvanced  = "ticket_advanced"
	EventStayReserved    = "stay_reserved"
	EventStayCheckedIn   = "stay_checked_in"
	EventStayCheckedOut  = "stay_checked_out"
	EventStayCancelled   = "stay_cancelled"
	EventDMRequested     = "dm_requested"
	EventDMResponded     = "dm_responded"
	EventDMEnded         = "dm_ended"
	EventPointsEarned    = "points_earned"
	EventPointsSpent     = "points_spent"
	EventDiaryCreated    = "diary_created"
)

// TicketEventPayload is the minimal ticket snapshot for event consumers.
type TicketEventPayload struct {
	TicketID    int64     `json:"ticket_id"`
	UserID      int64     `json:"user_id"`
	AirshipID   int64     `json:"airship_id"`
	FromCityID  int64     `json:"from_city_id"`
	ToCityID    int64     `json:"to_city_id"`
	Price       int64     `json:"price"`
	Status      string    `json:"status"`
	DepartureAt time.Time `json:"departure_at"`
}

// StayEventPayload describes a room-stay transition.
type StayEventPayload struct {
	StayID       int64     `json:"stay_id"`
	UserID       int64     `json:"user_id"`
	RoomID       int64     `json:"room_id"`
	GuestHouseID int64     `json:"guest_house_id"`
	Status       string    `json:"status"`
	CheckIn      time.Time `json:"check_in"`
	CheckOut     time.Time `json:"check_out"`
}

// DMEventPayload describes a direct-message room transition.
type DMEventPayload struct {
	RoomID       string `json:"room_id"`
	RequesterID  int64  `json:"requester_id"`
	RecipientID  int64  `json:"recipient_id"`
	GuestHouseID int64  `json:"guest_house_id"`
	Status       string `json:"status"`
}

// PointsEventPayload describes a ledger entry.
type PointsEventPayload struct {
	TransactionID int64  `json:"transaction_id"`
	UserID        int64  `json:"user_id"`
	Type          string `json:"type"`
	Amount        int64  `json:"amount"`
	ReferenceType string `json:"reference_type,omitempty"`
	ReferenceID   string `json:"reference_id,omitempty"`
	BalanceAfter  int64  `json:"balance_after"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
