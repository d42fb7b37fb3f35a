package notification

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"maremio_backend/internal/email"
	"maremio_backend/internal/events"
	"maremio_backend/platform/logger"
)

type testPublicConfig struct{}

func (testPublicConfig) GetPublicBaseURL() string  { return "https://ordini.example.com" }
func (testPublicConfig) GetRestaurantName() string { return "Mare Mio" }

type testSender struct {
	to    []string
	order email.OrderConfirmation
}

func (s *testSender) SendOrderConfirmation(_ context.Context, to string, order email.OrderConfirmation) error {
	s.to = append(s.to, to)
	s.order = order
	return nil
}

func (s *testSender) SendCustomEmail(context.Context, string, string, string) error { return nil }

type testWhatsApp struct {
	phones   []string
	messages []string
	err      error
}

func (w *testWhatsApp) SendToPhone(_ context.Context, phone, content string) error {
	w.phones = append(w.phones, phone)
	w.messages = append(w.messages, content)
	return w.err
}

func orderEvent() events.OrderCreated {
	return events.OrderCreated{
		BaseEvent:     events.NewBaseEvent(),
		OrderID:       uuid.New(),
		OrderNumber:   "24-100",
		Source:        "whatsapp",
		CustomerName:  "Mario Rossi",
		CustomerPhone: "3331234567",
		DeliveryDate:  "2024-12-24",
		DeliveryTime:  "12:00",
		DeliveryType:  "pickup",
		TotalAmount:   43.3,
		Lines: []events.OrderLine{
			{Name: "Lasagna di mare", Quantity: 2, Price: 18.5},
			{Name: "Tiramisù", Quantity: 1, Price: 6.3},
		},
	}
}

func TestOrderCreatedSendsWhatsAppConfirmation(t *testing.T) {
	sender := &testSender{}
	wa := &testWhatsApp{}
	m := New(sender, testPublicConfig{}, logger.Discard())
	m.SetWhatsApp(wa)

	if err := m.Handle(context.Background(), orderEvent()); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(wa.phones) != 1 || wa.phones[0] != "3331234567" {
		t.Fatalf("unexpected whatsapp sends %v", wa.phones)
	}
	msg := wa.messages[0]
	for _, want := range []string{"Ordine n. 24-100", "- 2 x Lasagna di mare", "Ritiro: martedì 24 dicembre 2024 alle 12:00", "Totale: € 43,30"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message misses %q:\n%s", want, msg)
		}
	}
	if len(sender.to) != 0 {
		t.Fatalf("no email expected without address")
	}
}

func TestOrderCreatedSendsEmailWhenAddressPresent(t *testing.T) {
	sender := &testSender{}
	m := New(sender, testPublicConfig{}, logger.Discard())

	e := orderEvent()
	e.CustomerEmail = "mario@example.com"
	if err := m.Handle(context.Background(), e); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.to) != 1 || sender.to[0] != "mario@example.com" {
		t.Fatalf("unexpected email sends %v", sender.to)
	}
	if sender.order.RestaurantName != "Mare Mio" || len(sender.order.Lines) != 2 || sender.order.Total != 43.3 {
		t.Fatalf("unexpected confirmation %+v", sender.order)
	}
}

func TestOrderCreatedReportsWhatsAppFailure(t *testing.T) {
	m := New(nil, testPublicConfig{}, logger.Discard())
	m.SetWhatsApp(&testWhatsApp{err: errors.New("gateway down")})

	if err := m.Handle(context.Background(), orderEvent()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestIgnoresUnrelatedEvents(t *testing.T) {
	m := New(nil, testPublicConfig{}, logger.Discard())
	if err := m.Handle(context.Background(), events.WhatsAppMessageReceived{ConversationID: uuid.New()}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestReservationCreatedOnlyFeedsOperators(t *testing.T) {
	m := New(nil, testPublicConfig{}, logger.Discard())
	wa := &testWhatsApp{}
	m.SetWhatsApp(wa)

	err := m.Handle(context.Background(), events.ReservationCreated{
		BaseEvent:         events.NewBaseEvent(),
		ReservationID:     uuid.New(),
		ReservationNumber: "P24-1",
		CustomerName:      "Giulia",
		Date:              "2024-12-24",
		Time:              "20:00",
		PartySize:         4,
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(wa.phones) != 0 {
		t.Fatalf("reservations must not trigger order confirmations, got %v", wa.phones)
	}
}
