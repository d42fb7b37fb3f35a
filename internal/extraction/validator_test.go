package extraction

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func matchedItem(p Product, qty int, confidence Confidence, selected bool) DraftItem {
	item := DraftItem{ID: uuid.New(), ExtractedName: p.Name, Quantity: qty, Confidence: confidence, MatchedProduct: &p}
	item.SetSelected(selected)
	return item
}

func validDraft() OrderDraft {
	return OrderDraft{
		Source:   SourceManual,
		Customer: DraftCustomer{Name: "Mario Rossi", Phone: "3331234567"},
		Items:    []DraftItem{matchedItem(product("Orata", 10), 2, ConfidenceHigh, true)},
		Delivery: DraftDelivery{Date: "2024-12-24", Time: "12:00", Type: DeliveryPickup},
	}
}

func TestValidateDraftAllErrors(t *testing.T) {
	draft := OrderDraft{Customer: DraftCustomer{Name: "  "}}
	result := ValidateDraft(draft)

	want := []string{
		"Nome cliente richiesto",
		"Seleziona almeno un prodotto",
		"Data di consegna richiesta",
		"Ora di consegna richiesta",
	}
	if !reflect.DeepEqual(result.Errors, want) {
		t.Fatalf("expected errors %v, got %v", want, result.Errors)
	}
	if result.IsValid {
		t.Fatalf("expected invalid draft")
	}
	if len(result.Warnings) != 1 || result.Warnings[0] != "Telefono cliente non specificato" {
		t.Fatalf("expected phone warning only, got %v", result.Warnings)
	}
}

func TestValidateDraftLowConfidenceForcedSelection(t *testing.T) {
	draft := validDraft()
	draft.Items = []DraftItem{matchedItem(product("Orata", 10), 1, ConfidenceLow, true)}

	result := ValidateDraft(draft)
	if !result.IsValid {
		t.Fatalf("expected valid draft, got errors %v", result.Errors)
	}
	if !reflect.DeepEqual(result.Warnings, []string{"1 prodotti con matching incerto"}) {
		t.Fatalf("unexpected warnings %v", result.Warnings)
	}
}

func TestValidateDraftUnmatchedWarning(t *testing.T) {
	draft := validDraft()
	draft.Items = append(draft.Items,
		DraftItem{ID: uuid.New(), ExtractedName: "boh", Quantity: 1, Confidence: ConfidenceLow},
		DraftItem{ID: uuid.New(), ExtractedName: "mah", Quantity: 3, Confidence: ConfidenceLow},
	)

	result := ValidateDraft(draft)
	if !result.IsValid {
		t.Fatalf("expected valid draft")
	}
	if !reflect.DeepEqual(result.Warnings, []string{"2 prodotti non riconosciuti"}) {
		t.Fatalf("unexpected warnings %v", result.Warnings)
	}
}

func TestValidateDraftIgnoresDeliveryAddress(t *testing.T) {
	draft := validDraft()
	draft.Delivery.Type = DeliveryShipping
	draft.Delivery.Address = ""

	if result := ValidateDraft(draft); !result.IsValid {
		t.Fatalf("expected home delivery without address to pass, got %v", result.Errors)
	}
}

func TestValidateDraftIdempotent(t *testing.T) {
	draft := validDraft()
	draft.Customer.Phone = ""
	first := ValidateDraft(draft)
	second := ValidateDraft(draft)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestCalculateTotalExcludesUnselectedAndUnmatched(t *testing.T) {
	draft := validDraft()
	draft.Items = append(draft.Items, matchedItem(product("Spigola", 20), 1, ConfidenceMedium, true))
	base := CalculateTotal(draft)
	if base != 40 {
		t.Fatalf("expected total 40, got %v", base)
	}

	draft.Items = append(draft.Items,
		DraftItem{ID: uuid.New(), ExtractedName: "boh", Quantity: 5},
		matchedItem(product("Astice", 50), 2, ConfidenceHigh, false),
	)
	if got := CalculateTotal(draft); got != base {
		t.Fatalf("expected total unchanged at %v, got %v", base, got)
	}
}

func TestSelectedItemsDoubleChecksProduct(t *testing.T) {
	draft := validDraft()
	// bypass SetSelected to simulate a corrupted item
	draft.Items = append(draft.Items, DraftItem{ID: uuid.New(), Quantity: 1, Selected: true})
	if got := len(SelectedItems(draft)); got != 1 {
		t.Fatalf("expected 1 selected item, got %d", got)
	}
}
