// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"maremio_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Orders Domain Events
// =============================================================================

// OrderCreated is published after an order and its lines are persisted.
type OrderCreated struct {
	BaseEvent
	OrderID       uuid.UUID   `json:"orderId"`
	OrderNumber   string      `json:"orderNumber"`
	Source        string      `json:"source"`
	CustomerName  string      `json:"customerName"`
	CustomerPhone string      `json:"customerPhone"`
	CustomerEmail string      `json:"customerEmail,omitempty"`
	DeliveryDate  string      `json:"deliveryDate"`
	DeliveryTime  string      `json:"deliveryTime"`
	DeliveryType  string      `json:"deliveryType"`
	TotalAmount   float64     `json:"totalAmount"`
	Lines         []OrderLine `json:"lines"`
}

// OrderLine is the event view of an order item.
type OrderLine struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

func (e OrderCreated) EventName() string { return "orders.order.created" }

// =============================================================================
// WhatsApp Domain Events
// =============================================================================

// WhatsAppMessageReceived is published when the webhook stores an inbound message.
type WhatsAppMessageReceived struct {
	BaseEvent
	ConversationID uuid.UUID `json:"conversationId"`
	PhoneNumber    string    `json:"phoneNumber"`
	Content        string    `json:"content"`
}

func (e WhatsAppMessageReceived) EventName() string { return "whatsapp.message.received" }

// =============================================================================
// Reservations Domain Events
// =============================================================================

// ReservationCreated is published after a table booking is stored.
type ReservationCreated struct {
	BaseEvent
	ReservationID     uuid.UUID `json:"reservationId"`
	ReservationNumber string    `json:"reservationNumber"`
	Source            string    `json:"source"`
	CustomerName      string    `json:"customerName"`
	Date              string    `json:"date"`
	Time              string    `json:"time"`
	PartySize         int       `json:"partySize"`
}

func (e ReservationCreated) EventName() string { return "reservations.reservation.created" }
