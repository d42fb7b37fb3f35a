package storage

import (
	"strings"
	"testing"
)

func TestValidateContentType(t *testing.T) {
	cases := map[string]bool{
		"image/jpeg":                      true,
		"IMAGE/PNG":                       true,
		"application/json; charset=utf-8": true,
		"application/pdf":                 false,
		"":                                false,
	}
	for ct, ok := range cases {
		err := ValidateContentType(ct)
		if ok && err != nil {
			t.Fatalf("%q: unexpected error %v", ct, err)
		}
		if !ok && err == nil {
			t.Fatalf("%q: expected rejection", ct)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	if err := ValidateFileSize(0, 10); err == nil {
		t.Fatalf("expected empty file rejected")
	}
	if err := ValidateFileSize(11, 10); err == nil {
		t.Fatalf("expected oversize file rejected")
	}
	if err := ValidateFileSize(10, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUniqueKey(t *testing.T) {
	a := UniqueKey("2024-12-24", "foto ordine.jpg")
	b := UniqueKey("2024-12-24", "foto ordine.jpg")
	if a == b {
		t.Fatalf("expected distinct keys, got %q twice", a)
	}
	if !strings.HasPrefix(a, "2024-12-24/foto ordine_") || !strings.HasSuffix(a, ".jpg") {
		t.Fatalf("unexpected key %q", a)
	}
	if k := UniqueKey("", "../x.png"); strings.Contains(k, "..") {
		t.Fatalf("expected traversal stripped, got %q", k)
	}
}
