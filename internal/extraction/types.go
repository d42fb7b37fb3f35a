// Package extraction turns loosely structured order data (AI parses of chat
// conversations, menu photos, manual entry) into reviewable order drafts.
// Everything here is pure: no I/O, no clocks, no shared state.
package extraction

import "github.com/google/uuid"

// Source identifies how a draft was started.
type Source string

const (
	SourceWhatsApp Source = "whatsapp"
	SourcePhoto    Source = "photo"
	SourceVoice    Source = "voice"
	SourceManual   Source = "manual"
)

// Confidence grades how well an extracted name matched a catalog product.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// DeliveryType is either pickup at the shop or home delivery.
// The zero value means the type is not known yet.
type DeliveryType string

const (
	DeliveryPickup   DeliveryType = "ritiro"
	DeliveryShipping DeliveryType = "consegna"
)

// Product is a read-only snapshot of a sellable catalog entry.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Unit        string    `json:"unit"`
	Category    string    `json:"category"`
	Available   bool      `json:"available"`
	SortOrder   int       `json:"sortOrder"`
}

type DraftCustomer struct {
	Name              string     `json:"name"`
	Phone             string     `json:"phone"`
	Email             string     `json:"email,omitempty"`
	MatchedCustomerID *uuid.UUID `json:"matchedCustomerId,omitempty"`
}

// DraftDelivery holds the requested slot. Date (yyyy-mm-dd) and Time (HH:mm)
// are kept verbatim as extracted.
type DraftDelivery struct {
	Date    string       `json:"date"`
	Time    string       `json:"time"`
	Type    DeliveryType `json:"type"`
	Address string       `json:"address,omitempty"`
}

// DraftItem is one extracted line under review.
// Selected implies MatchedProduct != nil; use SetSelected to change it.
type DraftItem struct {
	ID             uuid.UUID  `json:"id"`
	ExtractedName  string     `json:"extractedName"`
	Quantity       int        `json:"quantity"`
	Confidence     Confidence `json:"confidence"`
	MatchedProduct *Product   `json:"matchedProduct,omitempty"`
	Selected       bool       `json:"selected"`
}

// SetSelected updates the selection flag and reports the resulting value.
// Selecting an item without a matched product is refused.
func (i *DraftItem) SetSelected(selected bool) bool {
	if selected && i.MatchedProduct == nil {
		i.Selected = false
		return false
	}
	i.Selected = selected
	return i.Selected
}

// OrderDraft is an order under construction.
type OrderDraft struct {
	Source   Source        `json:"source"`
	SourceID string        `json:"sourceId,omitempty"`
	Customer DraftCustomer `json:"customer"`
	Items    []DraftItem   `json:"items"`
	Delivery DraftDelivery `json:"delivery"`
	Notes    string        `json:"notes"`
	RawText  string        `json:"rawText,omitempty"`
}

// Clone returns a deep copy safe to hand to other goroutines.
func (d OrderDraft) Clone() OrderDraft {
	out := d
	if d.Customer.MatchedCustomerID != nil {
		id := *d.Customer.MatchedCustomerID
		out.Customer.MatchedCustomerID = &id
	}
	out.Items = make([]DraftItem, len(d.Items))
	for i, item := range d.Items {
		out.Items[i] = item
		if item.MatchedProduct != nil {
			p := *item.MatchedProduct
			out.Items[i].MatchedProduct = &p
		}
	}
	return out
}

// AIExtractedItem is a product name and quantity as read by the AI.
type AIExtractedItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// WhatsAppParseResult is the structured parse of a chat conversation.
type WhatsAppParseResult struct {
	CustomerName  string            `json:"customer_name,omitempty"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	Items         []AIExtractedItem `json:"items,omitempty"`
	DeliveryDate  string            `json:"delivery_date,omitempty"`
	DeliveryTime  string            `json:"delivery_time,omitempty"`
	DeliveryType  string            `json:"delivery_type,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	RawText       string            `json:"raw_text,omitempty"`
}

// PhotoAnalysisResult is the structured parse of one or more menu photos.
type PhotoAnalysisResult struct {
	Items []AIExtractedItem `json:"items"`
}
