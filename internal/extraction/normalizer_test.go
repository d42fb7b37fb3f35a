package extraction

import "testing"

func TestNormalizeDeliveryType(t *testing.T) {
	cases := map[string]DeliveryType{
		"Consegna a domicilio":  DeliveryShipping,
		"DELIVERY":              DeliveryShipping,
		"ritiro in negozio":     DeliveryPickup,
		"Pickup":                DeliveryPickup,
		"da asporto":            DeliveryPickup,
		"consegna o ritiro":     DeliveryShipping,
		"boh":                   "",
		"":                      "",
	}
	for in, want := range cases {
		if got := NormalizeDeliveryType(in); got != want {
			t.Fatalf("NormalizeDeliveryType(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestNormalizeWhatsAppResultFallsBackToConversationPhone(t *testing.T) {
	result := WhatsAppParseResult{
		CustomerName: "Mario Rossi",
		DeliveryDate: "2024-12-24",
		DeliveryTime: "12:00",
		DeliveryType: "ritiro",
		RawText:      "[Cliente]: ciao",
	}

	draft := NormalizeWhatsAppResult(result, "conv-1", "+39 333 1234567")

	if draft.Source != SourceWhatsApp || draft.SourceID != "conv-1" {
		t.Fatalf("unexpected source %q/%q", draft.Source, draft.SourceID)
	}
	if draft.Customer.Name != "Mario Rossi" {
		t.Fatalf("expected name Mario Rossi, got %q", draft.Customer.Name)
	}
	if draft.Customer.Phone != "+39 333 1234567" {
		t.Fatalf("expected conversation phone, got %q", draft.Customer.Phone)
	}
	if draft.Delivery.Date != "2024-12-24" || draft.Delivery.Time != "12:00" {
		t.Fatalf("unexpected delivery slot %+v", draft.Delivery)
	}
	if draft.Delivery.Type != DeliveryPickup {
		t.Fatalf("expected ritiro, got %q", draft.Delivery.Type)
	}
	if draft.RawText != "[Cliente]: ciao" {
		t.Fatalf("expected raw text passthrough, got %q", draft.RawText)
	}
	if draft.Items == nil || len(draft.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %v", draft.Items)
	}
}

func TestNormalizeWhatsAppResultPrefersExtractedPhone(t *testing.T) {
	draft := NormalizeWhatsAppResult(WhatsAppParseResult{CustomerPhone: "3470000000"}, "c", "3331111111")
	if draft.Customer.Phone != "3470000000" {
		t.Fatalf("expected extracted phone, got %q", draft.Customer.Phone)
	}

	draft = NormalizeWhatsAppResult(WhatsAppParseResult{}, "c", "")
	if draft.Customer.Phone != "" || draft.Customer.Name != "" {
		t.Fatalf("expected empty customer, got %+v", draft.Customer)
	}
}

func TestNormalizeWhatsAppResultKeepsMalformedDate(t *testing.T) {
	draft := NormalizeWhatsAppResult(WhatsAppParseResult{DeliveryDate: "vigilia"}, "c", "")
	if draft.Delivery.Date != "vigilia" {
		t.Fatalf("expected date copied verbatim, got %q", draft.Delivery.Date)
	}
}

func TestNormalizePhotoResultIsBlank(t *testing.T) {
	draft := NormalizePhotoResult(PhotoAnalysisResult{Items: []AIExtractedItem{{Name: "x", Quantity: 1}}})
	if draft.Source != SourcePhoto {
		t.Fatalf("expected photo source, got %q", draft.Source)
	}
	if draft.Customer != (DraftCustomer{}) || draft.Delivery != (DraftDelivery{}) || draft.Notes != "" {
		t.Fatalf("expected blank draft, got %+v", draft)
	}
	if len(draft.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(draft.Items))
	}
}

func TestNewEmptyDraftDefaultsToPickup(t *testing.T) {
	draft := NewEmptyDraft()
	if draft.Source != SourceManual {
		t.Fatalf("expected manual source, got %q", draft.Source)
	}
	if draft.Delivery.Type != DeliveryPickup {
		t.Fatalf("expected ritiro default, got %q", draft.Delivery.Type)
	}
}
