// Package notification reacts to domain events: customers get order
// confirmations over WhatsApp and email, operators get a live feed.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"maremio_backend/internal/email"
	"maremio_backend/internal/events"
	apphttp "maremio_backend/internal/http"
	"maremio_backend/internal/notification/sse"
	"maremio_backend/platform/config"
	"maremio_backend/platform/httpkit"
	"maremio_backend/platform/logger"
)

// WhatsAppNotifier sends a WhatsApp message to a customer phone.
type WhatsAppNotifier interface {
	SendToPhone(ctx context.Context, phoneNumber, content string) error
}

// Module handles the notification event subscriptions and the live feed.
type Module struct {
	sender         email.Sender
	whatsapp       WhatsAppNotifier
	feed           *sse.Service
	restaurantName string
	log            *logger.Logger
}

// New creates a new notification module. sender may be email.NoopSender.
func New(sender email.Sender, cfg config.PublicConfig, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		sender:         sender,
		feed:           sse.New(log),
		restaurantName: cfg.GetRestaurantName(),
		log:            log,
	}
}

// SetWhatsApp enables WhatsApp confirmations.
func (m *Module) SetWhatsApp(notifier WhatsAppNotifier) {
	m.whatsapp = notifier
}

// Feed returns the live operator feed.
func (m *Module) Feed() *sse.Service {
	return m.feed
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.OrderCreated{}.EventName(), m)
	bus.Subscribe(events.WhatsAppMessageReceived{}.EventName(), m)
	bus.Subscribe(events.ReservationCreated{}.EventName(), m)
}

// Handle dispatches an event.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.OrderCreated:
		return m.handleOrderCreated(ctx, e)
	case events.WhatsAppMessageReceived:
		m.feed.Broadcast(sse.Event{
			Type:    sse.EventWhatsAppMessage,
			Message: e.Content,
			Data:    gin.H{"conversationId": e.ConversationID, "phoneNumber": e.PhoneNumber},
		})
		return nil
	case events.ReservationCreated:
		m.feed.Broadcast(sse.Event{
			Type:    sse.EventReservation,
			Message: fmt.Sprintf("Nuova prenotazione %s - %s, %d persone", e.ReservationNumber, e.CustomerName, e.PartySize),
			Data:    gin.H{"reservationId": e.ReservationID, "date": e.Date, "time": e.Time, "source": e.Source},
		})
		return nil
	default:
		return nil
	}
}

func (m *Module) handleOrderCreated(ctx context.Context, e events.OrderCreated) error {
	m.feed.Broadcast(sse.Event{
		Type:    sse.EventOrderCreated,
		Message: fmt.Sprintf("Nuovo ordine %s - %s", e.OrderNumber, e.CustomerName),
		Data:    gin.H{"orderId": e.OrderID, "orderNumber": e.OrderNumber, "source": e.Source},
	})

	var errs []error
	if m.whatsapp != nil && strings.TrimSpace(e.CustomerPhone) != "" {
		if err := m.whatsapp.SendToPhone(ctx, e.CustomerPhone, buildWhatsAppConfirmation(m.restaurantName, e)); err != nil {
			m.log.Warn("order whatsapp confirmation failed", "orderNumber", e.OrderNumber, "error", err)
			errs = append(errs, err)
		}
	}

	if strings.TrimSpace(e.CustomerEmail) != "" {
		if err := m.sender.SendOrderConfirmation(ctx, e.CustomerEmail, toConfirmation(m.restaurantName, e)); err != nil {
			m.log.Warn("order email confirmation failed", "orderNumber", e.OrderNumber, "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		m.log.Info("order confirmation sent", "orderNumber", e.OrderNumber)
	}
	return errors.Join(errs...)
}

func toConfirmation(restaurant string, e events.OrderCreated) email.OrderConfirmation {
	lines := make([]email.ConfirmationLine, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, email.ConfirmationLine{Name: l.Name, Quantity: l.Quantity, Price: l.Price})
	}
	return email.OrderConfirmation{
		RestaurantName: restaurant,
		CustomerName:   e.CustomerName,
		OrderNumber:    e.OrderNumber,
		DeliveryDate:   e.DeliveryDate,
		DeliveryTime:   e.DeliveryTime,
		DeliveryType:   e.DeliveryType,
		Lines:          lines,
		Total:          e.TotalAmount,
	}
}

func buildWhatsAppConfirmation(restaurant string, e events.OrderCreated) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ciao %s, grazie per il tuo ordine da %s!\n", strings.TrimSpace(e.CustomerName), restaurant)
	fmt.Fprintf(&b, "Ordine n. %s\n", e.OrderNumber)
	for _, l := range e.Lines {
		fmt.Fprintf(&b, "- %d x %s\n", l.Quantity, l.Name)
	}
	action := "Ritiro"
	if e.DeliveryType == "delivery" {
		action = "Consegna"
	}
	fmt.Fprintf(&b, "%s: %s alle %s\n", action, email.FormatItalianDate(e.DeliveryDate), e.DeliveryTime)
	fmt.Fprintf(&b, "Totale: € %s", strings.Replace(fmt.Sprintf("%.2f", e.TotalAmount), ".", ",", 1))
	return b.String()
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notifications"
}

// RegisterRoutes mounts the operator live feed.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/notifications/stream", m.feed.Handler(operatorID))
}

// operatorID accepts anonymous operators when back-office auth is disabled.
func operatorID(c *gin.Context) (uuid.UUID, bool) {
	return httpkit.GetIdentity(c).UserID(), true
}

var (
	_ apphttp.Module = (*Module)(nil)
	_ events.Handler = (*Module)(nil)
)
