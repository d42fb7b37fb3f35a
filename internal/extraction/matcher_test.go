package extraction

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

func product(name string, price float64) Product {
	return Product{ID: uuid.New(), Name: name, Price: price, Unit: "pz", Available: true}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"Baccalà", "  baccalà ", 1},
		{"insalata", "insalata di mare", 8.0 / 16.0},
		{"insalata di mare", "insalata", 8.0 / 16.0},
		{"baccala vicentina", "Baccalà alla vicentina", 2.0 / 3.0},
		{"polpo patate", "polpo con patate", 2.0 / 3.0},
		{"tiramisu", "panettone", 0},
		{"", "", 1},
		{"", "orata", 0},
	}
	for _, tc := range cases {
		if got := CalculateSimilarity(tc.a, tc.b); !almostEqual(got, tc.want) {
			t.Fatalf("CalculateSimilarity(%q, %q): expected %v, got %v", tc.a, tc.b, tc.want, got)
		}
	}
}

func TestCalculateSimilarityBounds(t *testing.T) {
	names := []string{"orata", "orata al forno", "spigola", "zuppa di pesce", "frittura mista", "x"}
	for _, a := range names {
		if got := CalculateSimilarity(a, a); got != 1 {
			t.Fatalf("self similarity of %q: expected 1, got %v", a, got)
		}
		for _, b := range names {
			s := CalculateSimilarity(a, b)
			if s < 0 || s > 1 {
				t.Fatalf("similarity(%q, %q) out of bounds: %v", a, b, s)
			}
		}
	}
}

func TestConfidenceForBoundaries(t *testing.T) {
	cases := map[float64]Confidence{
		1:    ConfidenceHigh,
		0.8:  ConfidenceHigh,
		0.79: ConfidenceMedium,
		0.5:  ConfidenceMedium,
		0.49: ConfidenceLow,
		0:    ConfidenceLow,
	}
	for score, want := range cases {
		if got := ConfidenceFor(score); got != want {
			t.Fatalf("ConfidenceFor(%v): expected %q, got %q", score, want, got)
		}
	}
}

func TestFindBestMatchAccentedCatalogName(t *testing.T) {
	catalog := []Product{product("Baccalà alla vicentina", 18)}
	match := FindBestMatch("baccala vicentina", catalog)
	if match.Product == nil {
		t.Fatalf("expected a match")
	}
	if match.Confidence != ConfidenceMedium {
		t.Fatalf("expected medium confidence, got %q", match.Confidence)
	}
}

func TestFindBestMatchFloor(t *testing.T) {
	catalog := []Product{product("Capitone fritto", 20), product("Anguilla marinata", 15)}
	match := FindBestMatch("panettone artigianale", catalog)
	if match.Product != nil {
		t.Fatalf("expected no match, got %q", match.Product.Name)
	}
	if match.Confidence != ConfidenceLow {
		t.Fatalf("expected low confidence, got %q", match.Confidence)
	}
}

func TestFindBestMatchTieKeepsFirst(t *testing.T) {
	first := product("Orata", 10)
	second := product("Orata", 12)
	match := FindBestMatch("orata", []Product{first, second})
	if match.Product == nil || match.Product.ID != first.ID {
		t.Fatalf("expected first product on tie")
	}
}

func TestFindBestMatchEmptyCatalog(t *testing.T) {
	match := FindBestMatch("orata", nil)
	if match.Product != nil || match.Confidence != ConfidenceLow {
		t.Fatalf("expected empty low match, got %+v", match)
	}
}

func TestMatchProductsSelection(t *testing.T) {
	catalog := []Product{
		product("Insalata di mare", 12),
		product("Zuppa di pesce", 14),
	}
	items := []AIExtractedItem{
		{Name: "insalata di mare", Quantity: 2},
		// "di" and "pesce" overlap: 2 of 4 words
		{Name: "crema di pesce spada", Quantity: 1},
		{Name: "panettone", Quantity: 0},
	}

	got := MatchProducts(items, catalog)
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}

	if !got[0].Selected || got[0].Confidence != ConfidenceHigh || got[0].Quantity != 2 {
		t.Fatalf("expected exact match selected and high, got %+v", got[0])
	}

	if got[1].MatchedProduct == nil || got[1].Confidence != ConfidenceMedium || !got[1].Selected {
		t.Fatalf("expected medium auto-selected match, got %+v", got[1])
	}

	if got[2].MatchedProduct != nil || got[2].Selected {
		t.Fatalf("expected unmatched unselected item, got %+v", got[2])
	}
	if got[2].Quantity != 1 {
		t.Fatalf("expected quantity clamped to 1, got %d", got[2].Quantity)
	}

	seen := map[uuid.UUID]bool{}
	for _, item := range got {
		if item.Selected && item.MatchedProduct == nil {
			t.Fatalf("selected item without product: %+v", item)
		}
		if seen[item.ID] {
			t.Fatalf("duplicate item id %s", item.ID)
		}
		seen[item.ID] = true
	}
}

func TestMatchProductsLowMatchNotSelected(t *testing.T) {
	// 2 of 5 words overlap: 0.4 clears the floor but stays low
	catalog := []Product{product("frittura mista di paranza fresca", 16)}
	got := MatchProducts([]AIExtractedItem{{Name: "frittura di calamari", Quantity: 1}}, catalog)
	item := got[0]
	if item.MatchedProduct == nil {
		t.Fatalf("expected a match above the floor")
	}
	if item.Confidence != ConfidenceLow || item.Selected {
		t.Fatalf("expected low unselected match, got %+v", item)
	}
}

func TestRematchItemTrustsOperator(t *testing.T) {
	item := DraftItem{ID: uuid.New(), ExtractedName: "boh", Quantity: 1, Confidence: ConfidenceLow}
	p := product("Spigola al sale", 22)

	got := RematchItem(item, p)
	if got.Confidence != ConfidenceHigh || !got.Selected {
		t.Fatalf("expected high selected item, got %+v", got)
	}
	if got.MatchedProduct == nil || got.MatchedProduct.ID != p.ID {
		t.Fatalf("expected product to be attached")
	}
	if item.MatchedProduct != nil {
		t.Fatalf("expected input item untouched")
	}
}

func TestSetSelectedRequiresProduct(t *testing.T) {
	item := DraftItem{}
	if item.SetSelected(true) || item.Selected {
		t.Fatalf("expected selection refused without product")
	}
	p := product("Orata", 10)
	item.MatchedProduct = &p
	if !item.SetSelected(true) {
		t.Fatalf("expected selection accepted with product")
	}
}

func TestCandidatesOrderedByScore(t *testing.T) {
	catalog := []Product{
		product("Orata al forno con patate", 18),
		product("Orata", 10),
		product("Tiramisù", 6),
	}
	got := Candidates("orata forno", catalog, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Product.Name != "Orata" {
		t.Fatalf("expected exact name first, got %q", got[0].Product.Name)
	}
	if got := Candidates("orata forno", catalog, 1); len(got) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(got))
	}
}
