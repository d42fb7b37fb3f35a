package extraction

import (
	"fmt"
	"strings"
)

// Messages shown to the operator. They are part of the back-office UI.
const (
	MsgCustomerNameRequired = "Nome cliente richiesto"
	MsgPhoneMissing         = "Telefono cliente non specificato"
	MsgNoItemsSelected      = "Seleziona almeno un prodotto"
	MsgDeliveryDateRequired = "Data di consegna richiesta"
	MsgDeliveryTimeRequired = "Ora di consegna richiesta"
)

// ValidationResult collects blocking errors and advisory warnings.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// SelectedItems returns the items that will become order lines.
func SelectedItems(draft OrderDraft) []DraftItem {
	out := make([]DraftItem, 0, len(draft.Items))
	for _, item := range draft.Items {
		if item.Selected && item.MatchedProduct != nil {
			out = append(out, item)
		}
	}
	return out
}

// CalculateTotal sums price times quantity over the selected items.
func CalculateTotal(draft OrderDraft) float64 {
	total := 0.0
	for _, item := range SelectedItems(draft) {
		total += item.MatchedProduct.Price * float64(item.Quantity)
	}
	return total
}

// ValidateDraft checks whether the draft can be submitted. The delivery
// address is not checked, even for home delivery.
func ValidateDraft(draft OrderDraft) ValidationResult {
	errs := []string{}
	warnings := []string{}

	if strings.TrimSpace(draft.Customer.Name) == "" {
		errs = append(errs, MsgCustomerNameRequired)
	}
	if strings.TrimSpace(draft.Customer.Phone) == "" {
		warnings = append(warnings, MsgPhoneMissing)
	}
	if len(SelectedItems(draft)) == 0 {
		errs = append(errs, MsgNoItemsSelected)
	}
	if draft.Delivery.Date == "" {
		errs = append(errs, MsgDeliveryDateRequired)
	}
	if draft.Delivery.Time == "" {
		errs = append(errs, MsgDeliveryTimeRequired)
	}

	unmatched, uncertain := 0, 0
	for _, item := range draft.Items {
		switch {
		case item.MatchedProduct == nil:
			unmatched++
		case item.Confidence == ConfidenceLow:
			uncertain++
		}
	}
	if unmatched > 0 {
		warnings = append(warnings, fmt.Sprintf("%d prodotti non riconosciuti", unmatched))
	}
	if uncertain > 0 {
		warnings = append(warnings, fmt.Sprintf("%d prodotti con matching incerto", uncertain))
	}

	return ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}
