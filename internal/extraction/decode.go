package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNoJSON is returned when a model reply contains no JSON object.
var ErrNoJSON = errors.New("extraction: no json object in reply")

// looseObject keeps every field raw so one mistyped value cannot sink the
// rest of the reply.
type looseObject map[string]json.RawMessage

func decodeObject(raw []byte) (looseObject, error) {
	var obj looseObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// text returns the first key holding a string or a number.
func (o looseObject) text(keys ...string) string {
	for _, key := range keys {
		if v := looseString(o[key]); v != "" {
			return v
		}
	}
	return ""
}

// ExtractJSONObject returns the text between the first '{' and the last '}'.
// Markdown fences and surrounding prose are dropped that way.
func ExtractJSONObject(reply string) (string, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return reply[start : end+1], nil
}

// DecodeWhatsAppResult reads a model reply into a WhatsAppParseResult. Both the
// nested customer object and flat customer_* keys are accepted. Fields of the
// wrong type are skipped one by one; on error the zero result is returned and
// may still be normalized.
func DecodeWhatsAppResult(reply string) (WhatsAppParseResult, error) {
	raw, err := ExtractJSONObject(reply)
	if err != nil {
		return WhatsAppParseResult{}, err
	}

	obj, err := decodeObject([]byte(raw))
	if err != nil {
		return WhatsAppParseResult{}, fmt.Errorf("extraction: decode whatsapp reply: %w", err)
	}

	result := WhatsAppParseResult{
		CustomerName:  obj.text("customer_name"),
		CustomerPhone: obj.text("customer_phone"),
		Items:         decodeItems(obj["items"]),
		DeliveryDate:  obj.text("delivery_date"),
		DeliveryTime:  obj.text("delivery_time"),
		DeliveryType:  obj.text("delivery_type"),
		Notes:         obj.text("notes"),
		RawText:       obj.text("raw_text"),
	}
	if customer, err := decodeObject(obj["customer"]); err == nil {
		result.CustomerName = firstNonEmpty(customer.text("name"), result.CustomerName)
		result.CustomerPhone = firstNonEmpty(customer.text("phone"), result.CustomerPhone)
	}
	return result, nil
}

// DecodePhotoResult reads a model reply into a PhotoAnalysisResult.
func DecodePhotoResult(reply string) (PhotoAnalysisResult, error) {
	raw, err := ExtractJSONObject(reply)
	if err != nil {
		return PhotoAnalysisResult{Items: []AIExtractedItem{}}, err
	}

	obj, err := decodeObject([]byte(raw))
	if err != nil {
		return PhotoAnalysisResult{Items: []AIExtractedItem{}}, fmt.Errorf("extraction: decode photo reply: %w", err)
	}
	return PhotoAnalysisResult{Items: decodeItems(obj["items"])}, nil
}

// decodeItems keeps every item with a usable name. Items that are not
// objects, or have no name, are dropped without affecting their neighbours.
func decodeItems(raw json.RawMessage) []AIExtractedItem {
	out := []AIExtractedItem{}
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, rawItem := range items {
		item, err := decodeObject(rawItem)
		if err != nil {
			continue
		}
		name := item.text("name", "product")
		if name == "" {
			continue
		}
		out = append(out, AIExtractedItem{Name: name, Quantity: parseQuantity(item["quantity"])})
	}
	return out
}

// looseString accepts a JSON string or number. Anything else is "".
func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// parseQuantity accepts numbers and numeric strings. Anything else, or a
// value below 1, becomes 1.
func parseQuantity(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 1
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 1
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, ",", ".")), 64)
		if err != nil {
			return 1
		}
		f = parsed
	}

	q := int(math.Round(f))
	if q < 1 {
		return 1
	}
	return q
}
