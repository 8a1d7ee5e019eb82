package runlog

import (
	"math"
	"strings"
	"testing"
	"time"
)

func sampleSessions() []Session {
	mk := func(id, date string, km, seconds float64, cat Category, eq string) Session {
		s := NewSession(date, km, seconds)
		s.ID = id
		s.Category = cat
		s.Equipment = eq
		return s
	}
	return []Session{
		mk("1", "2024-04-29", 10, 3000, CategoryTraining, "Shoe A"),
		mk("2", "2024-05-01", 8, 2160, CategoryIntervals, "Shoe A"),
		mk("3", "2024-05-05", 21.1, 6300, CategoryRace, "Shoe B"),
		mk("4", "2024-06-10", 5, 1500, CategoryTraining, ""),
		mk("5", "2024-05-03", 0, 1500, CategoryTraining, ""),
	}
}

func TestWindowBounds(t *testing.T) {
	now := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC) // Wednesday
	cases := map[Window]Range{
		WindowWeek:  {From: "2024-04-29", To: "2024-05-05"},
		WindowMonth: {From: "2024-05-01", To: "2024-05-31"},
		WindowYear:  {From: "2024-01-01", To: "2024-12-31"},
		WindowAll:   {},
	}
	for w, want := range cases {
		if got := WindowBounds(w, now); got != want {
			t.Fatalf("WindowBounds(%s) = %+v, want %+v", w, got, want)
		}
	}
}

func TestSummarizeWeek(t *testing.T) {
	r := Range{From: "2024-04-29", To: "2024-05-05"}
	sum := Summarize(sampleSessions(), r)

	if sum.Count != 3 {
		t.Fatalf("count = %d, want 3", sum.Count)
	}
	if sum.DistanceKm != 39.1 {
		t.Fatalf("distance = %v, want 39.1", sum.DistanceKm)
	}
	if sum.Minutes != 191 {
		t.Fatalf("minutes = %v, want 191", sum.Minutes)
	}
	if sum.Longest == nil || sum.Longest.ID != "3" {
		t.Fatalf("longest = %+v", sum.Longest)
	}
	if sum.Fastest == nil || sum.Fastest.ID != "2" {
		t.Fatalf("fastest = %+v", sum.Fastest)
	}
	if sum.ByCategory[CategoryRace].Count != 1 || sum.ByCategory[CategoryIntervals].Count != 1 {
		t.Fatalf("by category = %+v", sum.ByCategory)
	}
	if sum.ByEquipmentKm["Shoe A"] != 18 {
		t.Fatalf("equipment km = %+v", sum.ByEquipmentKm)
	}
	if math.Abs(sum.AvgPaceMinPerKm-191/39.1) > 1e-9 {
		t.Fatalf("pace = %v", sum.AvgPaceMinPerKm)
	}
	if sum.FirstDate != "2024-04-29" || sum.LastDate != "2024-05-05" || sum.ActiveDays != 3 {
		t.Fatalf("dates = %s..%s (%d days)", sum.FirstDate, sum.LastDate, sum.ActiveDays)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil, Range{})
	if sum.Count != 0 || sum.AvgPaceMinPerKm != 0 || sum.Longest != nil {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	notes := BuildSummaryNotes(sum)
	if !strings.Contains(notes, "No sessions recorded") {
		t.Fatalf("unexpected notes: %s", notes)
	}
}

func TestMonthlyTotals(t *testing.T) {
	got := MonthlyTotals(sampleSessions())
	if len(got) != 3 {
		t.Fatalf("months = %+v", got)
	}
	if got[0].Month != "2024-04" || got[1].Month != "2024-05" || got[2].Month != "2024-06" {
		t.Fatalf("order = %+v", got)
	}
	if got[1].Count != 2 || got[1].DistanceKm != 29.1 {
		t.Fatalf("may = %+v", got[1])
	}
}

func TestBuildSummaryNotes(t *testing.T) {
	sum := Summarize(sampleSessions(), Range{})
	notes := BuildSummaryNotes(sum)
	for _, want := range []string{"Period: all time", "Sessions 4 on 4 days", "- race: 1 sessions", "- Shoe B: 21.10 km"} {
		if !strings.Contains(notes, want) {
			t.Fatalf("notes missing %q:\n%s", want, notes)
		}
	}
}

func TestFormatPace(t *testing.T) {
	if got := FormatPace(5.5); got != "5:30" {
		t.Fatalf("FormatPace = %q", got)
	}
	if got := FormatPace(0); got != "-" {
		t.Fatalf("FormatPace(0) = %q", got)
	}
}

func TestEscapeText(t *testing.T) {
	if got := EscapeText(`<b>"Pista" & co</b>`); got != "&lt;b&gt;&#34;Pista&#34; &amp; co&lt;/b&gt;" {
		t.Fatalf("EscapeText = %q", got)
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		want    Range
		wantErr bool
	}{
		{name: "both", from: "2024-01-01", to: "2024-01-31", want: Range{From: "2024-01-01", To: "2024-01-31"}},
		{name: "open end", from: " 2024-03-01 ", want: Range{From: "2024-03-01"}},
		{name: "open start", to: "2024-03-01", want: Range{To: "2024-03-01"}},
		{name: "typo", from: "2024-13-01", wantErr: true},
		{name: "slashes", to: "2024/03/01", wantErr: true},
		{name: "reversed", from: "2024-02-01", to: "2024-01-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.from, tt.to)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRange(%q, %q) = %+v, want error", tt.from, tt.to, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRange(%q, %q) error: %v", tt.from, tt.to, err)
			}
			if got != tt.want {
				t.Fatalf("ParseRange(%q, %q) = %+v, want %+v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
