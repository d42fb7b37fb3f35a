package repository

import (
	"context"

	"github.com/google/uuid"
)

// Order is a persisted order with its lines.
type Order struct {
	ID              uuid.UUID
	OrderNumber     string
	CustomerID      *uuid.UUID
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   *string
	DeliveryDate    string
	DeliveryTime    string
	DeliveryType    string
	DeliveryAddress *string
	Notes           *string
	Status          string
	Source          string
	TotalAmount     float64
	Items           []OrderItem
	CreatedAt       string
	UpdatedAt       string
}

// OrderItem is one order line. Name and price are copied at order time;
// Category and Unit come from the current catalog and are read-only.
type OrderItem struct {
	ID          uuid.UUID
	ProductID   *uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   float64
	TotalPrice  float64
	Category    string
	Unit        string
}

type ItemParams struct {
	ProductID   *uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   float64
}

type CreateOrderParams struct {
	OrderNumber     string
	CustomerID      *uuid.UUID
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   *string
	DeliveryDate    string
	DeliveryTime    string
	DeliveryType    string
	DeliveryAddress *string
	Notes           *string
	Source          string
	TotalAmount     float64
	Items           []ItemParams
}

// UpdateOrderParams applies non-nil fields. A non-nil Items replaces every line.
type UpdateOrderParams struct {
	ID              uuid.UUID
	OrderNumber     *string
	CustomerName    *string
	CustomerPhone   *string
	CustomerEmail   *string
	DeliveryDate    *string
	DeliveryTime    *string
	DeliveryType    *string
	DeliveryAddress *string
	Notes           *string
	Status          *string
	TotalAmount     *float64
	Items           []ItemParams
}

// ListOrdersParams filters orders. DeliveryFrom and DeliveryTo bound the
// delivery date inclusively; ExcludeStatuses drops orders in those states.
type ListOrdersParams struct {
	DeliveryDates   []string
	DeliveryFrom    string
	DeliveryTo      string
	ExcludeStatuses []string
	Search          string
	Offset          int
	Limit           int
}

// Repository defines the orders data access contract.
type Repository interface {
	Create(ctx context.Context, params CreateOrderParams) (Order, error)
	Update(ctx context.Context, params UpdateOrderParams) (Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (Order, error)
	List(ctx context.Context, params ListOrdersParams) ([]Order, int, error)
	OrderNumbersForDate(ctx context.Context, deliveryDate string) ([]string, error)
}
