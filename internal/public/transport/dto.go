package transport

import "github.com/google/uuid"

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=100"`
}

// PlaceOrderRequest is the customer-facing order form.
type PlaceOrderRequest struct {
	CustomerName    string             `json:"customerName" validate:"required,min=2,max=200"`
	CustomerPhone   string             `json:"customerPhone" validate:"required,max=30"`
	CustomerEmail   string             `json:"customerEmail,omitempty" validate:"omitempty,email,max=254"`
	DeliveryDate    string             `json:"deliveryDate" validate:"required,isodate"`
	DeliveryTime    string             `json:"deliveryTime" validate:"required,hhmm"`
	DeliveryType    string             `json:"deliveryType" validate:"required,oneof=ritiro consegna"`
	DeliveryAddress string             `json:"deliveryAddress,omitempty" validate:"required_if=DeliveryType consegna,max=500"`
	Notes           string             `json:"notes,omitempty" validate:"max=1000"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

type PlaceOrderResponse struct {
	OrderNumber  string  `json:"orderNumber"`
	TotalAmount  float64 `json:"totalAmount"`
	DeliveryDate string  `json:"deliveryDate"`
	DeliveryTime string  `json:"deliveryTime"`
}

// SlotsResponse lists the bookable delivery window.
type SlotsResponse struct {
	MinDate string   `json:"minDate"`
	MaxDate string   `json:"maxDate"`
	Lunch   []string `json:"lunch"`
	Dinner  []string `json:"dinner"`
}

type QRRequest struct {
	Size int `form:"size" validate:"omitempty,min=128,max=1024"`
}

type ChatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"max=4000"`
}

// AssistantRequest is one message of the menu chat. Image is an optional
// base64 data URL of a menu photo.
type AssistantRequest struct {
	Message string     `json:"message" validate:"max=2000"`
	Image   string     `json:"image,omitempty"`
	History []ChatTurn `json:"history,omitempty" validate:"max=40,dive"`
}

type AssistantItem struct {
	ProductID *uuid.UUID `json:"productId,omitempty"`
	Name      string     `json:"name"`
	Quantity  int        `json:"quantity"`
	Price     float64    `json:"price,omitempty"`
	Unit      string     `json:"unit,omitempty"`
	Matched   bool       `json:"matched"`
}

type AssistantResponse struct {
	Response string          `json:"response"`
	Items    []AssistantItem `json:"items"`
}
