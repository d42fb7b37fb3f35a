package extraction

import (
	"errors"
	"testing"
)

func TestDecodeWhatsAppResultNestedCustomer(t *testing.T) {
	reply := "Ecco l'ordine:\n```json\n" + `{
  "customer": {"name": "Giulia Bianchi", "phone": "+393471234567"},
  "items": [
    {"name": "Insalata di mare", "quantity": 2},
    {"product": "Baccalà", "quantity": "3"},
    {"name": "", "quantity": 1}
  ],
  "delivery_date": "2024-12-24",
  "delivery_time": "19:30",
  "delivery_type": "consegna",
  "notes": "senza aglio"
}` + "\n```"

	result, err := DecodeWhatsAppResult(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CustomerName != "Giulia Bianchi" || result.CustomerPhone != "+393471234567" {
		t.Fatalf("unexpected customer %q/%q", result.CustomerName, result.CustomerPhone)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	if result.Items[1].Name != "Baccalà" || result.Items[1].Quantity != 3 {
		t.Fatalf("unexpected second item %+v", result.Items[1])
	}
	if result.DeliveryType != "consegna" || result.Notes != "senza aglio" {
		t.Fatalf("unexpected delivery/notes %+v", result)
	}
}

func TestDecodeWhatsAppResultFlatKeys(t *testing.T) {
	result, err := DecodeWhatsAppResult(`{"customer_name":"Luca","customer_phone":"333","items":[{"name":"Orata"}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CustomerName != "Luca" || result.CustomerPhone != "333" {
		t.Fatalf("unexpected customer %+v", result)
	}
	if result.Items[0].Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", result.Items[0].Quantity)
	}
}

func TestDecodeWhatsAppResultGarbage(t *testing.T) {
	_, err := DecodeWhatsAppResult("non ho capito l'ordine")
	if !errors.Is(err, ErrNoJSON) {
		t.Fatalf("expected ErrNoJSON, got %v", err)
	}
	if _, err := DecodeWhatsAppResult("{not json}"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestDecodePhotoResultQuantities(t *testing.T) {
	reply := `{"items":[{"product":"Spigola","quantity":1.6,"confidence":"high"},{"product":"Astice","quantity":0},{"product":"Cozze","quantity":"2,0"},{"product":"Vongole","quantity":null}]}`
	result, err := DecodePhotoResult(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{2, 1, 2, 1}
	for i, q := range want {
		if result.Items[i].Quantity != q {
			t.Fatalf("item %d: expected quantity %d, got %d", i, q, result.Items[i].Quantity)
		}
	}
}

func TestDecodePhotoResultEmptyOnError(t *testing.T) {
	result, err := DecodePhotoResult("")
	if err == nil {
		t.Fatalf("expected error")
	}
	if result.Items == nil || len(result.Items) != 0 {
		t.Fatalf("expected empty items, got %v", result.Items)
	}
}

func TestDecodeWhatsAppResultKeepsFieldsAroundMistypedValues(t *testing.T) {
	reply := `{"customer_name":"Mario","customer_phone":3331234567,"items":[{"name":"Baccalà","quantity":2},{"name":["x"]}],"delivery_date":"2024-12-24","delivery_time":{"h":19},"notes":true}`

	result, err := DecodeWhatsAppResult(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CustomerName != "Mario" || result.CustomerPhone != "3331234567" {
		t.Fatalf("unexpected customer %q/%q", result.CustomerName, result.CustomerPhone)
	}
	if len(result.Items) != 1 || result.Items[0].Name != "Baccalà" || result.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", result.Items)
	}
	if result.DeliveryDate != "2024-12-24" || result.DeliveryTime != "" || result.Notes != "" {
		t.Fatalf("unexpected delivery/notes %+v", result)
	}
}

func TestDecodeWhatsAppResultIgnoresMalformedCustomer(t *testing.T) {
	result, err := DecodeWhatsAppResult(`{"customer":"Luca","customer_name":"Luca Verdi","items":"none"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CustomerName != "Luca Verdi" {
		t.Fatalf("expected flat name, got %q", result.CustomerName)
	}
	if result.Items == nil || len(result.Items) != 0 {
		t.Fatalf("expected empty items, got %v", result.Items)
	}
}

func TestDecodePhotoResultSkipsOnlyBadItems(t *testing.T) {
	result, err := DecodePhotoResult(`{"items":[{"name":42,"quantity":1},{"name":"Orata","quantity":"2"},"Cozze",{"quantity":3}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %+v", result.Items)
	}
	if result.Items[0].Name != "42" || result.Items[1].Name != "Orata" || result.Items[1].Quantity != 2 {
		t.Fatalf("unexpected items %+v", result.Items)
	}
}
