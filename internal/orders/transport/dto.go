package transport

import "github.com/google/uuid"

type OrderItemRequest struct {
	ProductID *uuid.UUID `json:"productId,omitempty"`
	Name      string     `json:"name" validate:"required,min=1,max=200"`
	Quantity  int        `json:"quantity" validate:"required,min=1,max=1000"`
	Price     float64    `json:"price" validate:"min=0"`
}

type CreateOrderRequest struct {
	OrderNumber     string             `json:"orderNumber,omitempty" validate:"max=20"`
	CustomerName    string             `json:"customerName" validate:"required,min=1,max=200"`
	CustomerPhone   string             `json:"customerPhone" validate:"max=30"`
	CustomerEmail   string             `json:"customerEmail,omitempty" validate:"max=254"`
	DeliveryDate    string             `json:"deliveryDate" validate:"required,isodate"`
	DeliveryTime    string             `json:"deliveryTime" validate:"required,max=20"`
	DeliveryType    string             `json:"deliveryType" validate:"omitempty,oneof=pickup delivery"`
	DeliveryAddress string             `json:"deliveryAddress,omitempty" validate:"max=500"`
	Notes           string             `json:"notes,omitempty" validate:"max=2000"`
	Source          string             `json:"source,omitempty" validate:"omitempty,oneof=whatsapp photo voice manual public"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	OrderNumber     *string            `json:"orderNumber,omitempty" validate:"omitempty,min=1,max=20"`
	CustomerName    *string            `json:"customerName,omitempty" validate:"omitempty,min=1,max=200"`
	CustomerPhone   *string            `json:"customerPhone,omitempty" validate:"omitempty,max=30"`
	CustomerEmail   *string            `json:"customerEmail,omitempty" validate:"omitempty,email,max=254"`
	DeliveryDate    *string            `json:"deliveryDate,omitempty" validate:"omitempty,isodate"`
	DeliveryTime    *string            `json:"deliveryTime,omitempty" validate:"omitempty,min=1,max=20"`
	DeliveryType    *string            `json:"deliveryType,omitempty" validate:"omitempty,oneof=pickup delivery"`
	DeliveryAddress *string            `json:"deliveryAddress,omitempty" validate:"omitempty,max=500"`
	Notes           *string            `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Status          *string            `json:"status,omitempty" validate:"omitempty,oneof=pending ready completed cancelled"`
	Items           []OrderItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

type ListOrdersRequest struct {
	Dates    []string `form:"date" validate:"omitempty,dive,isodate"`
	Search   string   `form:"search" validate:"max=100"`
	Page     int      `form:"page" validate:"omitempty,min=1"`
	PageSize int      `form:"pageSize" validate:"omitempty,min=1,max=500"`
}

type ExportRequest struct {
	Dates []string `form:"date" validate:"omitempty,dive,isodate"`
}

type StatsRequest struct {
	From string `form:"from" validate:"omitempty,isodate"`
	To   string `form:"to" validate:"omitempty,isodate"`
}

type NextNumberRequest struct {
	Date string `form:"date" validate:"required,isodate"`
}

type OrderItemResponse struct {
	ID        uuid.UUID  `json:"id"`
	ProductID *uuid.UUID `json:"productId,omitempty"`
	Name      string     `json:"name"`
	Quantity  int        `json:"quantity"`
	Price     float64    `json:"price"`
	Total     float64    `json:"total"`
	Category  string     `json:"category"`
	Unit      string     `json:"unit"`
}

type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"orderNumber"`
	CustomerID      *uuid.UUID          `json:"customerId,omitempty"`
	CustomerName    string              `json:"customerName"`
	CustomerPhone   string              `json:"customerPhone"`
	CustomerEmail   *string             `json:"customerEmail,omitempty"`
	DeliveryDate    string              `json:"deliveryDate"`
	DeliveryTime    string              `json:"deliveryTime"`
	DeliveryType    string              `json:"deliveryType"`
	DeliveryAddress *string             `json:"deliveryAddress,omitempty"`
	Notes           *string             `json:"notes,omitempty"`
	Status          string              `json:"status"`
	Source          string              `json:"source"`
	TotalAmount     float64             `json:"totalAmount"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       string              `json:"createdAt"`
	UpdatedAt       string              `json:"updatedAt"`
}

type OrderListResponse struct {
	Items      []OrderResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

type NextNumberResponse struct {
	OrderNumber string `json:"orderNumber"`
}

type ProductStat struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Unit     string  `json:"unit"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type CategoryStat struct {
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

type DayStat struct {
	Date    string  `json:"date"`
	Orders  int     `json:"orders"`
	Items   int     `json:"items"`
	Revenue float64 `json:"revenue"`
}

type StatsResponse struct {
	From            string         `json:"from,omitempty"`
	To              string         `json:"to,omitempty"`
	TotalOrders     int            `json:"totalOrders"`
	TotalItems      int            `json:"totalItems"`
	TotalRevenue    float64        `json:"totalRevenue"`
	UniqueCustomers int            `json:"uniqueCustomers"`
	TopProducts     []ProductStat  `json:"topProducts"`
	Categories      []CategoryStat `json:"categories"`
	Days            []DayStat      `json:"days"`
}
