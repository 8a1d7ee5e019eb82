package runlog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category is the canonical session type.
type Category string

// Canonical categories. Legacy labels are folded onto these by NormalizeCategory.
const (
	CategoryTraining  Category = "training"
	CategoryIntervals Category = "intervals"
	CategoryRace      Category = "race"
)

// Categories lists the canonical categories in display order.
var Categories = []Category{CategoryTraining, CategoryIntervals, CategoryRace}

var (
	intervalTokens = []string{"series", "serie", "interval", "fartlek"}
	raceTokens     = []string{"ritmo", "tempo", "carrera", "race", "competi"}
)

// Classify maps a free-text activity label onto a canonical category. Matching is a
// case- and accent-insensitive substring search; interval tokens take precedence over
// race tokens and everything else, including empty input, is training.
func Classify(label string) Category {
	folded := Fold(label)
	if folded == "" {
		return CategoryTraining
	}
	for _, tok := range intervalTokens {
		if strings.Contains(folded, tok) {
			return CategoryIntervals
		}
	}
	for _, tok := range raceTokens {
		if strings.Contains(folded, tok) {
			return CategoryRace
		}
	}
	return CategoryTraining
}

// NormalizeCategory collapses a stored or imported label onto the canonical set.
// Canonical labels pass through; retired finer-grained labels go through Classify.
func NormalizeCategory(label string) Category {
	folded := Fold(label)
	for _, c := range Categories {
		if folded == string(c) {
			return c
		}
	}
	return Classify(label)
}

// Fold lowercases s, strips diacritics and trims surrounding space, so "Título" and
// "titulo" compare equal.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}
