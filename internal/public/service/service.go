package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	catalogtransport "maremio_backend/internal/catalog/transport"
	"maremio_backend/internal/drafts"
	"maremio_backend/internal/drafts/ports"
	"maremio_backend/internal/extraction"
	"maremio_backend/internal/public/transport"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/phone"
	"maremio_backend/platform/sanitize"
)

const sourcePublic extraction.Source = "public"

const (
	msgDateUnavailable    = "Data di consegna non disponibile"
	msgTimeUnavailable    = "Orario non disponibile"
	msgInvalidPhone       = "Numero di telefono non valido"
	msgProductUnavailable = "Prodotto non disponibile"
	msgOrderInvalid       = "Ordine non valido"
)

// MenuReader is the catalog view of the public page.
type MenuReader interface {
	Menu(ctx context.Context) ([]catalogtransport.MenuSection, error)
}

// Service takes orders from the public page. Prices always come from the
// catalog, never from the client.
type Service struct {
	menu      MenuReader
	catalog   ports.CatalogProvider
	sink      ports.OrderSink
	assistant Assistant
	log       *logger.Logger
	now       func() time.Time
}

func New(menu MenuReader, catalog ports.CatalogProvider, sink ports.OrderSink, log *logger.Logger) *Service {
	return &Service{menu: menu, catalog: catalog, sink: sink, log: log, now: time.Now}
}

// Menu returns the available products grouped by category.
func (s *Service) Menu(ctx context.Context) ([]catalogtransport.MenuSection, error) {
	return s.menu.Menu(ctx)
}

// Slots returns the bookable dates and times.
func (s *Service) Slots() transport.SlotsResponse {
	minDate, maxDate := dateWindow(s.now())
	return transport.SlotsResponse{MinDate: minDate, MaxDate: maxDate, Lunch: LunchSlots, Dinner: DinnerSlots}
}

// PlaceOrder validates a public order and hands it to the order sink.
func (s *Service) PlaceOrder(ctx context.Context, req transport.PlaceOrderRequest) (transport.PlaceOrderResponse, error) {
	minDate, maxDate := dateWindow(s.now())
	if req.DeliveryDate < minDate || req.DeliveryDate > maxDate {
		return transport.PlaceOrderResponse{}, apperr.Validation(msgDateUnavailable)
	}
	if !isSlot(req.DeliveryTime) {
		return transport.PlaceOrderResponse{}, apperr.Validation(msgTimeUnavailable)
	}
	if !phone.IsValid(req.CustomerPhone) {
		return transport.PlaceOrderResponse{}, apperr.Validation(msgInvalidPhone)
	}

	draft, err := s.buildDraft(ctx, req)
	if err != nil {
		return transport.PlaceOrderResponse{}, err
	}

	result := extraction.ValidateDraft(draft)
	if !result.IsValid {
		return transport.PlaceOrderResponse{}, apperr.Validation(msgOrderInvalid).WithDetails(result.Errors)
	}

	orderNumber, err := s.sink.NextOrderNumber(ctx, draft.Delivery.Date)
	if err != nil {
		return transport.PlaceOrderResponse{}, err
	}
	created, err := s.sink.CreateOrder(ctx, drafts.BuildOrderPayload(draft, orderNumber))
	if err != nil {
		return transport.PlaceOrderResponse{}, err
	}

	s.log.WithContext(ctx).Info("public order placed", "orderNumber", created.OrderNumber, "total", created.TotalAmount)
	return transport.PlaceOrderResponse{
		OrderNumber:  created.OrderNumber,
		TotalAmount:  created.TotalAmount,
		DeliveryDate: draft.Delivery.Date,
		DeliveryTime: draft.Delivery.Time,
	}, nil
}

// buildDraft turns the form into a fully matched draft. Repeated products
// are merged and free text is sanitized.
func (s *Service) buildDraft(ctx context.Context, req transport.PlaceOrderRequest) (extraction.OrderDraft, error) {
	products, err := s.catalog.AvailableProducts(ctx)
	if err != nil {
		return extraction.OrderDraft{}, err
	}
	byID := make(map[uuid.UUID]extraction.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	draft := extraction.NewEmptyDraft()
	draft.Source = sourcePublic
	draft.Customer = extraction.DraftCustomer{
		Name:  sanitize.Line(req.CustomerName),
		Phone: strings.TrimSpace(req.CustomerPhone),
		Email: strings.TrimSpace(req.CustomerEmail),
	}
	draft.Delivery = extraction.DraftDelivery{
		Date: req.DeliveryDate,
		Time: req.DeliveryTime,
		Type: extraction.NormalizeDeliveryType(req.DeliveryType),
	}
	if draft.Delivery.Type == extraction.DeliveryShipping {
		draft.Delivery.Address = sanitize.Line(req.DeliveryAddress)
	}
	draft.Notes = sanitize.Text(req.Notes)

	index := make(map[uuid.UUID]int)
	for _, item := range req.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			return extraction.OrderDraft{}, apperr.Validation(msgProductUnavailable).WithDetails(item.ProductID)
		}
		if pos, seen := index[item.ProductID]; seen {
			draft.Items[pos].Quantity += item.Quantity
			continue
		}
		matched := product
		index[item.ProductID] = len(draft.Items)
		draft.Items = append(draft.Items, extraction.DraftItem{
			ID:             uuid.New(),
			ExtractedName:  product.Name,
			Quantity:       item.Quantity,
			Confidence:     extraction.ConfidenceHigh,
			MatchedProduct: &matched,
			Selected:       true,
		})
	}
	return draft, nil
}
