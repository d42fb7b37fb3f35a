package extraction

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MatchFloor is the lowest similarity ever offered as a match.
	MatchFloor = 0.4

	highThreshold   = 0.8
	mediumThreshold = 0.5
)

// Match is the outcome of looking up one extracted name in the catalog.
type Match struct {
	Product    *Product
	Confidence Confidence
	Score      float64
}

// CalculateSimilarity scores two product names in [0,1]. Comparison ignores
// case, surrounding space and accents ("baccalà" equals "baccala").
func CalculateSimilarity(a, b string) float64 {
	s1 := foldName(a)
	s2 := foldName(b)

	if s1 == s2 {
		return 1
	}

	if strings.Contains(s1, s2) || strings.Contains(s2, s1) {
		l1, l2 := utf8.RuneCountInString(s1), utf8.RuneCountInString(s2)
		shorter, longer := min(l1, l2), max(l1, l2)
		return float64(shorter) / float64(longer)
	}

	words1 := strings.Fields(s1)
	words2 := strings.Fields(s2)
	matches := 0
	for _, w1 := range words1 {
		for _, w2 := range words2 {
			if w1 == w2 || strings.Contains(w1, w2) || strings.Contains(w2, w1) {
				matches++
				break
			}
		}
	}

	total := max(len(words1), len(words2))
	if total == 0 {
		return 0
	}
	return float64(matches) / float64(total)
}

// foldName lowercases, trims and strips combining marks.
func foldName(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lowered)
	if err != nil {
		return lowered
	}
	return folded
}

// ConfidenceFor maps a similarity score to its tier. Boundaries belong to the
// higher tier.
func ConfidenceFor(score float64) Confidence {
	switch {
	case score >= highThreshold:
		return ConfidenceHigh
	case score >= mediumThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// FindBestMatch scans the whole catalog and keeps the first product with the
// highest score. Scores under MatchFloor yield no product.
func FindBestMatch(extractedName string, products []Product) Match {
	bestIdx := -1
	bestScore := 0.0
	for i := range products {
		score := CalculateSimilarity(extractedName, products[i].Name)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestScore < MatchFloor {
		return Match{Confidence: ConfidenceLow, Score: bestScore}
	}

	product := products[bestIdx]
	return Match{
		Product:    &product,
		Confidence: ConfidenceFor(bestScore),
		Score:      bestScore,
	}
}

// MatchProducts builds draft items for extracted lines. Only matches above
// the low tier are preselected. Quantities below 1 become 1.
func MatchProducts(items []AIExtractedItem, products []Product) []DraftItem {
	out := make([]DraftItem, 0, len(items))
	for _, item := range items {
		match := FindBestMatch(item.Name, products)
		draftItem := DraftItem{
			ID:             uuid.New(),
			ExtractedName:  item.Name,
			Quantity:       max(item.Quantity, 1),
			Confidence:     match.Confidence,
			MatchedProduct: match.Product,
		}
		draftItem.SetSelected(match.Product != nil && match.Confidence != ConfidenceLow)
		out = append(out, draftItem)
	}
	return out
}

// RematchItem applies a product chosen by an operator. A human choice is
// trusted fully.
func RematchItem(item DraftItem, product Product) DraftItem {
	item.MatchedProduct = &product
	item.Confidence = ConfidenceHigh
	item.SetSelected(true)
	return item
}

// Candidates returns up to limit products scoring at least MatchFloor,
// best first. Equal scores keep catalog order.
func Candidates(extractedName string, products []Product, limit int) []Match {
	var out []Match
	for i := range products {
		score := CalculateSimilarity(extractedName, products[i].Name)
		if score < MatchFloor {
			continue
		}
		product := products[i]
		out = append(out, Match{Product: &product, Confidence: ConfidenceFor(score), Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
