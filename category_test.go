package runlog

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		label string
		want  Category
	}{
		{"", CategoryTraining},
		{"Running", CategoryTraining},
		{"Rodaje suave", CategoryTraining},
		{"Series 6x1000", CategoryIntervals},
		{"INTERVALS on track", CategoryIntervals},
		{"Fartlek", CategoryIntervals},
		{"Ritmo medio", CategoryRace},
		{"Tempo run", CategoryRace},
		{"Carrera", CategoryRace},
		{"Competición 10K", CategoryRace},
		{"Series a ritmo de carrera", CategoryIntervals},
	}
	for _, tc := range cases {
		if got := Classify(tc.label); got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestNormalizeCategoryCollapsesLegacyLabels(t *testing.T) {
	cases := map[string]Category{
		"training":    CategoryTraining,
		"Intervals":   CategoryIntervals,
		"race":        CategoryRace,
		"rodaje":      CategoryTraining,
		"largo":       CategoryTraining,
		"series":      CategoryIntervals,
		"competicion": CategoryRace,
		"tempo":       CategoryRace,
		"":            CategoryTraining,
	}
	for label, want := range cases {
		if got := NormalizeCategory(label); got != want {
			t.Fatalf("NormalizeCategory(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestFold(t *testing.T) {
	if got := Fold("  Título  "); got != "titulo" {
		t.Fatalf("Fold = %q", got)
	}
	if got := Fold("DESCENSO Total"); got != "descenso total" {
		t.Fatalf("Fold = %q", got)
	}
}
