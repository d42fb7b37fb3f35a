// Package ports defines the interfaces the drafts domain requires from
// external systems. These interfaces form the Anti-Corruption Layer (ACL):
// drafts only knows about catalog snapshots and order payloads, never about
// the catalog or orders repositories themselves.
package ports

import (
	"context"

	"maremio_backend/internal/extraction"

	"github.com/google/uuid"
)

// CatalogProvider returns the products a draft may be matched against.
type CatalogProvider interface {
	AvailableProducts(ctx context.Context) ([]extraction.Product, error)
}

// OrderLine is one persisted-order line built from a selected draft item.
type OrderLine struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Price     float64
}

// OrderPayload is everything the order sink needs to persist an order.
// DeliveryType is "pickup" or "delivery".
type OrderPayload struct {
	CustomerName      string
	CustomerPhone     string
	CustomerEmail     string
	MatchedCustomerID *uuid.UUID
	OrderNumber       string
	DeliveryDate      string
	DeliveryTime      string
	DeliveryType      string
	DeliveryAddress   string
	Notes             string
	Source            string
	Items             []OrderLine
	TotalAmount       float64
}

// CreatedOrder is the sink's acknowledgement.
type CreatedOrder struct {
	ID          uuid.UUID
	OrderNumber string
	TotalAmount float64
}

// OrderSink persists finished orders.
type OrderSink interface {
	// NextOrderNumber returns "<day>-<sequence>" for the delivery date.
	NextOrderNumber(ctx context.Context, deliveryDate string) (string, error)
	CreateOrder(ctx context.Context, payload OrderPayload) (CreatedOrder, error)
}

// CustomerLookup resolves a phone number to a known customer, if any.
type CustomerLookup interface {
	FindIDByPhone(ctx context.Context, phone string) (*uuid.UUID, error)
}

// ConversationParser runs the AI extraction over a stored WhatsApp conversation.
type ConversationParser interface {
	ExtractOrder(ctx context.Context, conversationID uuid.UUID) (ParsedConversation, error)
}

// ParsedConversation is an extraction result plus the conversation's phone.
type ParsedConversation struct {
	Result      extraction.WhatsAppParseResult
	PhoneNumber string
}

// Image is an uploaded photo of a handwritten order.
type Image struct {
	Filename string
	MIMEType string
	Data     []byte
}

// PhotoAnalyzer reads order lines from photos.
type PhotoAnalyzer interface {
	AnalyzePhotos(ctx context.Context, images []Image, products []extraction.Product) (extraction.PhotoAnalysisResult, error)
}
