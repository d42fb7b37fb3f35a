package extraction

import "strings"

// NormalizeDeliveryType maps free text onto a DeliveryType.
// Delivery keywords are checked first; unknown text yields "".
func NormalizeDeliveryType(raw string) DeliveryType {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "consegna"), strings.Contains(lower, "delivery"):
		return DeliveryShipping
	case strings.Contains(lower, "ritiro"), strings.Contains(lower, "pickup"), strings.Contains(lower, "asporto"):
		return DeliveryPickup
	default:
		return ""
	}
}

// NormalizeWhatsAppResult builds a draft from a conversation parse. Items are
// left empty; matching them against the catalog is a separate step.
func NormalizeWhatsAppResult(result WhatsAppParseResult, conversationID, phoneNumber string) OrderDraft {
	return OrderDraft{
		Source:   SourceWhatsApp,
		SourceID: conversationID,
		Customer: DraftCustomer{
			Name:  result.CustomerName,
			Phone: firstNonEmpty(result.CustomerPhone, phoneNumber),
		},
		Items: []DraftItem{},
		Delivery: DraftDelivery{
			Date: result.DeliveryDate,
			Time: result.DeliveryTime,
			Type: NormalizeDeliveryType(result.DeliveryType),
		},
		Notes:   result.Notes,
		RawText: result.RawText,
	}
}

// NormalizePhotoResult builds an empty photo draft. Photos never carry
// customer or delivery details.
func NormalizePhotoResult(PhotoAnalysisResult) OrderDraft {
	return OrderDraft{
		Source: SourcePhoto,
		Items:  []DraftItem{},
	}
}

// NewEmptyDraft starts a manual draft with pickup preselected.
func NewEmptyDraft() OrderDraft {
	return OrderDraft{
		Source:   SourceManual,
		Items:    []DraftItem{},
		Delivery: DraftDelivery{Type: DeliveryPickup},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
