package adapters

import (
	"context"

	"maremio_backend/internal/drafts/ports"
	orderssvc "maremio_backend/internal/orders/service"
	"maremio_backend/internal/orders/transport"
)

// OrderCreator is the narrow orders view the drafts need.
type OrderCreator interface {
	NextOrderNumber(ctx context.Context, deliveryDate string) (string, error)
	Create(ctx context.Context, input orderssvc.CreateInput) (transport.OrderResponse, error)
}

// DraftsOrderSink adapts the orders service to drafts ports.OrderSink.
type DraftsOrderSink struct {
	orders OrderCreator
}

// NewDraftsOrderSink creates a new order sink adapter.
func NewDraftsOrderSink(orders OrderCreator) *DraftsOrderSink {
	return &DraftsOrderSink{orders: orders}
}

// NextOrderNumber delegates to the orders numbering.
func (a *DraftsOrderSink) NextOrderNumber(ctx context.Context, deliveryDate string) (string, error) {
	return a.orders.NextOrderNumber(ctx, deliveryDate)
}

// CreateOrder persists a reviewed draft. The total is recomputed by the
// orders service from the same lines.
func (a *DraftsOrderSink) CreateOrder(ctx context.Context, payload ports.OrderPayload) (ports.CreatedOrder, error) {
	items := make([]transport.OrderItemRequest, 0, len(payload.Items))
	for _, line := range payload.Items {
		productID := line.ProductID
		items = append(items, transport.OrderItemRequest{
			ProductID: &productID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}

	order, err := a.orders.Create(ctx, orderssvc.CreateInput{
		CreateOrderRequest: transport.CreateOrderRequest{
			OrderNumber:     payload.OrderNumber,
			CustomerName:    payload.CustomerName,
			CustomerPhone:   payload.CustomerPhone,
			CustomerEmail:   payload.CustomerEmail,
			DeliveryDate:    payload.DeliveryDate,
			DeliveryTime:    payload.DeliveryTime,
			DeliveryType:    payload.DeliveryType,
			DeliveryAddress: payload.DeliveryAddress,
			Notes:           payload.Notes,
			Source:          payload.Source,
			Items:           items,
		},
		CustomerID: payload.MatchedCustomerID,
	})
	if err != nil {
		return ports.CreatedOrder{}, err
	}

	return ports.CreatedOrder{ID: order.ID, OrderNumber: order.OrderNumber, TotalAmount: order.TotalAmount}, nil
}

var (
	_ ports.OrderSink = (*DraftsOrderSink)(nil)
	_ OrderCreator    = (*orderssvc.Service)(nil)
)
