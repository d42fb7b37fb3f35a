package transport

import (
	"encoding/json"

	"maremio_backend/internal/extraction"

	"github.com/google/uuid"
)

type OpenSessionRequest struct {
	Manual bool `json:"manual"`
}

// ImportWhatsAppRequest imports a conversation. Without Result the stored
// conversation is sent to the AI parser. Result is kept raw and read with
// the same tolerant decoder as model replies.
type ImportWhatsAppRequest struct {
	ConversationID uuid.UUID       `json:"conversationId" validate:"required"`
	PhoneNumber    string          `json:"phoneNumber,omitempty" validate:"max=30"`
	Result         json.RawMessage `json:"result,omitempty"`
}

// HasResult reports whether a parse result was supplied.
func (r ImportWhatsAppRequest) HasResult() bool {
	return len(r.Result) > 0 && string(r.Result) != "null"
}

type ImportPhotoRequest struct {
	Result json.RawMessage `json:"result"`
}

type UpdateDraftRequest struct {
	CustomerName    *string `json:"customerName,omitempty" validate:"omitempty,max=200"`
	CustomerPhone   *string `json:"customerPhone,omitempty" validate:"omitempty,max=30"`
	CustomerEmail   *string `json:"customerEmail,omitempty" validate:"omitempty,max=254"`
	DeliveryDate    *string `json:"deliveryDate,omitempty" validate:"omitempty,isodate"`
	DeliveryTime    *string `json:"deliveryTime,omitempty" validate:"omitempty,max=20"`
	DeliveryType    *string `json:"deliveryType,omitempty" validate:"omitempty,oneof=ritiro consegna"`
	DeliveryAddress *string `json:"deliveryAddress,omitempty" validate:"omitempty,max=500"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=1000"`
}

type UpdateItemRequest struct {
	ExtractedName *string `json:"extractedName,omitempty" validate:"omitempty,max=200"`
	Quantity      *int    `json:"quantity,omitempty" validate:"omitempty,min=1,max=1000"`
	Selected      *bool   `json:"selected,omitempty"`
}

type RematchItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}

type CandidatesRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=20"`
}

type NoticeResponse struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type SessionResponse struct {
	ID         uuid.UUID                    `json:"id"`
	Draft      *extraction.OrderDraft       `json:"draft"`
	DialogOpen bool                         `json:"dialogOpen"`
	Creating   bool                         `json:"creating"`
	Total      float64                      `json:"total"`
	Validation *extraction.ValidationResult `json:"validation,omitempty"`
	Products   int                          `json:"catalogProducts"`
}

type CandidateResponse struct {
	Product    extraction.Product    `json:"product"`
	Confidence extraction.Confidence `json:"confidence"`
	Score      float64               `json:"score"`
}

type CreatedOrderResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	TotalAmount float64   `json:"totalAmount"`
}

type CreateOrderResponse struct {
	Created bool                  `json:"created"`
	Order   *CreatedOrderResponse `json:"order,omitempty"`
	Notices []NoticeResponse      `json:"notices"`
	Session SessionResponse       `json:"session"`
}
