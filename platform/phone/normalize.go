// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "IT"

var italianPrefixes = []string{"+39", "0039", "39"}

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Normalize reduces a number to its national digits: separators are dropped
// and a leading Italian country prefix is removed.
func Normalize(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, input)

	for _, prefix := range italianPrefixes {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = cleaned[len(prefix):]
			break
		}
	}

	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, cleaned)
}

// IsValid reports whether the normalized number has a plausible length.
func IsValid(input string) bool {
	n := len(Normalize(input))
	return n >= 9 && n <= 12
}

// Match reports whether two numbers refer to the same line.
func Match(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	return na != "" && na == nb
}

// ForWhatsApp returns the number as expected by WhatsApp gateways: country
// code and digits, no plus sign.
func ForWhatsApp(input string) string {
	e164 := NormalizeE164(input)
	if strings.HasPrefix(e164, "+") {
		return e164[1:]
	}
	national := Normalize(input)
	if national == "" {
		return ""
	}
	return "39" + national
}
