package service

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"

	"maremio_backend/internal/events"
	"maremio_backend/internal/orders/repository"
	"maremio_backend/internal/orders/transport"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"
)

const (
	deliveryPickup = "pickup"
	sourceManual   = "manual"

	msgInvalidOrder = "dati ordine non validi"
)

// CustomerResolver links orders to the customer directory.
type CustomerResolver interface {
	FindOrCreate(ctx context.Context, name, phone, email string) (*uuid.UUID, error)
}

// CreateInput is a new order from any channel (back office, drafts, public page).
// CustomerID skips the directory lookup when the caller already resolved it.
type CreateInput struct {
	transport.CreateOrderRequest
	CustomerID *uuid.UUID
}

// Service provides business logic for orders.
type Service struct {
	repo      repository.Repository
	val       *validator.Validator
	bus       events.Bus
	customers CustomerResolver
	log       *logger.Logger
}

// New creates a new orders service.
func New(repo repository.Repository, val *validator.Validator, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, val: val, bus: bus, log: log}
}

// SetCustomerResolver enables find-or-create of customers on order creation.
func (s *Service) SetCustomerResolver(resolver CustomerResolver) {
	s.customers = resolver
}

// NextOrderNumber returns the next "<day>-<seq>" number for a delivery date.
func (s *Service) NextOrderNumber(ctx context.Context, deliveryDate string) (string, error) {
	if deliveryDate == "" {
		return "", nil
	}
	existing, err := s.repo.OrderNumbersForDate(ctx, deliveryDate)
	if err != nil {
		return "", err
	}
	return NextOrderNumber(deliveryDate, existing), nil
}

// Create validates and persists an order, then publishes OrderCreated.
func (s *Service) Create(ctx context.Context, input CreateInput) (transport.OrderResponse, error) {
	req := input.CreateOrderRequest
	if err := s.val.Struct(req); err != nil {
		return transport.OrderResponse{}, apperr.Validation(msgInvalidOrder).WithDetails(err.Error())
	}

	customerID := input.CustomerID
	if customerID == nil && s.customers != nil {
		id, err := s.customers.FindOrCreate(ctx, req.CustomerName, req.CustomerPhone, req.CustomerEmail)
		if err != nil {
			s.log.Warn("customer link failed", "error", err)
		} else {
			customerID = id
		}
	}

	orderNumber := strings.TrimSpace(req.OrderNumber)
	if orderNumber == "" {
		next, err := s.NextOrderNumber(ctx, req.DeliveryDate)
		if err != nil {
			return transport.OrderResponse{}, err
		}
		orderNumber = next
	}

	items := toItemParams(req.Items)
	order, err := s.repo.Create(ctx, repository.CreateOrderParams{
		OrderNumber:     orderNumber,
		CustomerID:      customerID,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerEmail:   optional(req.CustomerEmail),
		DeliveryDate:    req.DeliveryDate,
		DeliveryTime:    req.DeliveryTime,
		DeliveryType:    withDefault(req.DeliveryType, deliveryPickup),
		DeliveryAddress: optional(req.DeliveryAddress),
		Notes:           optional(req.Notes),
		Source:          withDefault(req.Source, sourceManual),
		TotalAmount:     totalOf(items),
		Items:           items,
	})
	if err != nil {
		return transport.OrderResponse{}, err
	}

	s.log.Info("order created", "id", order.ID, "orderNumber", order.OrderNumber, "source", order.Source, "items", len(order.Items))
	if s.bus != nil {
		s.bus.Publish(ctx, toCreatedEvent(order))
	}
	return toOrderResponse(order), nil
}

// Update edits an order. New lines replace the old ones and the total is recomputed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateOrderRequest) (transport.OrderResponse, error) {
	params := repository.UpdateOrderParams{
		ID:              id,
		OrderNumber:     req.OrderNumber,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		DeliveryDate:    req.DeliveryDate,
		DeliveryTime:    req.DeliveryTime,
		DeliveryType:    req.DeliveryType,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		Status:          req.Status,
	}
	if req.Items != nil {
		params.Items = toItemParams(req.Items)
		total := totalOf(params.Items)
		params.TotalAmount = &total
	}

	order, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.OrderResponse{}, err
	}
	s.log.Info("order updated", "id", order.ID, "orderNumber", order.OrderNumber)
	return toOrderResponse(order), nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("order deleted", "id", id)
	return nil
}

// GetByID retrieves an order.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.OrderResponse{}, err
	}
	return toOrderResponse(order), nil
}

// List returns orders for the given delivery dates (all when empty).
func (s *Service) List(ctx context.Context, req transport.ListOrdersRequest) (transport.OrderListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 100
	}

	orders, total, err := s.repo.List(ctx, repository.ListOrdersParams{
		DeliveryDates: req.Dates,
		Search:        strings.TrimSpace(req.Search),
		Offset:        (page - 1) * pageSize,
		Limit:         pageSize,
	})
	if err != nil {
		return transport.OrderListResponse{}, err
	}

	resp := transport.OrderListResponse{
		Items:      make([]transport.OrderResponse, 0, len(orders)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	for _, order := range orders {
		resp.Items = append(resp.Items, toOrderResponse(order))
	}
	return resp, nil
}

// ListForDates returns every order on the given dates without paging.
func (s *Service) ListForDates(ctx context.Context, dates []string) ([]repository.Order, error) {
	orders, _, err := s.repo.List(ctx, repository.ListOrdersParams{DeliveryDates: dates, Limit: math.MaxInt32})
	return orders, err
}

// ExportOrders renders the orders workbook for the given dates.
func (s *Service) ExportOrders(ctx context.Context, dates []string) ([]byte, error) {
	orders, err := s.ListForDates(ctx, dates)
	if err != nil {
		return nil, err
	}
	return BuildOrdersWorkbook(orders)
}

// ExportPortions renders the porzionatore workbook for the given dates.
func (s *Service) ExportPortions(ctx context.Context, dates []string) ([]byte, error) {
	orders, err := s.ListForDates(ctx, dates)
	if err != nil {
		return nil, err
	}
	return BuildPortionWorkbook(orders)
}

func toItemParams(items []transport.OrderItemRequest) []repository.ItemParams {
	params := make([]repository.ItemParams, 0, len(items))
	for _, item := range items {
		params = append(params, repository.ItemParams{
			ProductID:   item.ProductID,
			ProductName: strings.TrimSpace(item.Name),
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
		})
	}
	return params
}

// totalOf sums price * quantity, rounded to cents.
func totalOf(items []repository.ItemParams) float64 {
	var total float64
	for _, item := range items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return math.Round(total*100) / 100
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func withDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func toCreatedEvent(order repository.Order) events.OrderCreated {
	lines := make([]events.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, events.OrderLine{Name: item.ProductName, Quantity: item.Quantity, Price: item.UnitPrice})
	}
	return events.OrderCreated{
		BaseEvent:     events.NewBaseEvent(),
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Source:        order.Source,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		CustomerEmail: deref(order.CustomerEmail),
		DeliveryDate:  order.DeliveryDate,
		DeliveryTime:  order.DeliveryTime,
		DeliveryType:  order.DeliveryType,
		TotalAmount:   order.TotalAmount,
		Lines:         lines,
	}
}

func toOrderResponse(order repository.Order) transport.OrderResponse {
	items := make([]transport.OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, transport.OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
			Total:     item.TotalPrice,
			Category:  item.Category,
			Unit:      item.Unit,
		})
	}
	return transport.OrderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		CustomerEmail:   order.CustomerEmail,
		DeliveryDate:    order.DeliveryDate,
		DeliveryTime:    order.DeliveryTime,
		DeliveryType:    order.DeliveryType,
		DeliveryAddress: order.DeliveryAddress,
		Notes:           order.Notes,
		Status:          order.Status,
		Source:          order.Source,
		TotalAmount:     order.TotalAmount,
		Items:           items,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
