package phone

import "testing"

func TestNormalizeStripsItalianPrefixAndSeparators(t *testing.T) {
	cases := map[string]string{
		"+39 347 123 4567":  "3471234567",
		"0039-347-1234567":  "3471234567",
		"39 347.123.4567":   "3471234567",
		"(347) 123 4567":    "3471234567",
		"347 123 4567 int9": "34712345679",
		"":                  "",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestIsValidRange(t *testing.T) {
	if IsValid("12345678") {
		t.Fatalf("expected 8 digits to be invalid")
	}
	if !IsValid("+39 347 123 4567") {
		t.Fatalf("expected mobile number to be valid")
	}
	if IsValid("1234567890123") {
		t.Fatalf("expected 13 digits to be invalid")
	}
}

func TestMatchComparesNormalizedForms(t *testing.T) {
	if !Match("+39 347 1234567", "3471234567") {
		t.Fatalf("expected numbers to match")
	}
	if Match("", "") {
		t.Fatalf("expected empty numbers not to match")
	}
	if Match("3471234567", "3471234568") {
		t.Fatalf("expected different numbers not to match")
	}
}

func TestNormalizeE164ItalianDefault(t *testing.T) {
	got := NormalizeE164("347 123 4567")
	if got != "+393471234567" {
		t.Fatalf("expected +393471234567, got %q", got)
	}
	if NormalizeE164("not a phone") != "not a phone" {
		t.Fatalf("expected unparsable input to be returned trimmed")
	}
}

func TestForWhatsApp(t *testing.T) {
	if got := ForWhatsApp("+39 347 123 4567"); got != "393471234567" {
		t.Fatalf("expected 393471234567, got %q", got)
	}
}
