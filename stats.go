package runlog

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Window selects the period covered by a Summary.
type Window string

// Statistics windows accepted by ParseWindow.
const (
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
	WindowAll   Window = "all"
)

// ParseWindow validates a window name.
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case WindowWeek, WindowMonth, WindowYear, WindowAll:
		return w, nil
	case "":
		return WindowAll, nil
	default:
		return "", fmt.Errorf("unsupported window %q (expected week|month|year|all)", s)
	}
}

// Range is an inclusive span of calendar days. Empty bounds are open.
type Range struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Contains reports whether the YYYY-MM-DD day falls inside the range.
func (r Range) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

// ParseRange validates optional YYYY-MM-DD bounds. An empty bound stays open.
func ParseRange(from, to string) (Range, error) {
	var r Range
	if strings.TrimSpace(from) != "" {
		t, err := ParseDate(from)
		if err != nil {
			return Range{}, fmt.Errorf("range start: %w", err)
		}
		r.From = t.Format(DateLayout)
	}
	if strings.TrimSpace(to) != "" {
		t, err := ParseDate(to)
		if err != nil {
			return Range{}, fmt.Errorf("range end: %w", err)
		}
		r.To = t.Format(DateLayout)
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return Range{}, fmt.Errorf("range start %s is after end %s", r.From, r.To)
	}
	return r, nil
}

// WindowBounds returns the calendar range of w around now: the Monday-based week,
// the calendar month, the calendar year, or an open range for WindowAll.
func WindowBounds(w Window, now time.Time) Range {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch w {
	case WindowWeek:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return Range{From: start.Format(DateLayout), To: start.AddDate(0, 0, 6).Format(DateLayout)}
	case WindowMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Range{From: start.Format(DateLayout), To: start.AddDate(0, 1, -1).Format(DateLayout)}
	case WindowYear:
		return Range{
			From: fmt.Sprintf("%04d-01-01", day.Year()),
			To:   fmt.Sprintf("%04d-12-31", day.Year()),
		}
	default:
		return Range{}
	}
}

// CategoryTotals aggregates sessions of one category.
type CategoryTotals struct {
	Count      int     `json:"count"`
	DistanceKm float64 `json:"distance_km"`
	Minutes    float64 `json:"minutes"`
}

// Summary contains aggregate statistics over a set of sessions.
type Summary struct {
	Range           Range                       `json:"range"`
	Count           int                         `json:"count"`
	DistanceKm      float64                     `json:"distance_km"`
	Minutes         float64                     `json:"minutes"`
	ElevationGainM  int                         `json:"elevation_gain_m"`
	ElevationLossM  int                         `json:"elevation_loss_m"`
	AvgDistanceKm   float64                     `json:"avg_distance_km"`
	AvgPaceMinPerKm float64                     `json:"avg_pace_min_per_km"`
	AvgSpeedKmh     float64                     `json:"avg_speed_kmh"`
	Longest         *Session                    `json:"longest,omitempty"`
	Fastest         *Session                    `json:"fastest,omitempty"`
	ByCategory      map[Category]CategoryTotals `json:"by_category"`
	ByEquipmentKm   map[string]float64          `json:"by_equipment_km,omitempty"`
	FirstDate       string                      `json:"first_date,omitempty"`
	LastDate        string                      `json:"last_date,omitempty"`
	ActiveDays      int                         `json:"active_days"`
}

// Summarize aggregates the sessions whose date falls inside r. Invalid sessions are
// ignored.
func Summarize(sessions []Session, r Range) Summary {
	sum := Summary{
		Range:      r,
		ByCategory: make(map[Category]CategoryTotals, len(Categories)),
	}
	days := make(map[string]struct{})
	var longest, fastest *Session
	fastestPace := math.Inf(1)

	for i := range sessions {
		s := sessions[i]
		if !s.Valid() || !r.Contains(s.Date) {
			continue
		}
		sum.Count++
		sum.DistanceKm += s.DistanceKm
		sum.Minutes += s.DurationMinutes
		sum.ElevationGainM += s.ElevationGainM
		sum.ElevationLossM += s.ElevationLossM
		days[s.Date] = struct{}{}

		cat := NormalizeCategory(string(s.Category))
		ct := sum.ByCategory[cat]
		ct.Count++
		ct.DistanceKm += s.DistanceKm
		ct.Minutes += s.DurationMinutes
		sum.ByCategory[cat] = ct

		if eq := strings.TrimSpace(s.Equipment); eq != "" {
			if sum.ByEquipmentKm == nil {
				sum.ByEquipmentKm = make(map[string]float64)
			}
			sum.ByEquipmentKm[eq] = RoundKm(sum.ByEquipmentKm[eq] + s.DistanceKm)
		}

		if sum.FirstDate == "" || s.Date < sum.FirstDate {
			sum.FirstDate = s.Date
		}
		if s.Date > sum.LastDate {
			sum.LastDate = s.Date
		}
		if longest == nil || s.DistanceKm > longest.DistanceKm {
			cp := s
			longest = &cp
		}
		if pace := s.DurationMinutes / s.DistanceKm; pace < fastestPace {
			fastestPace = pace
			cp := s
			fastest = &cp
		}
	}

	sum.DistanceKm = RoundKm(sum.DistanceKm)
	sum.ActiveDays = len(days)
	sum.Longest = longest
	sum.Fastest = fastest
	sum.AvgDistanceKm = RoundKm(safeDiv(sum.DistanceKm, float64(sum.Count)))
	sum.AvgPaceMinPerKm = safeDiv(sum.Minutes, sum.DistanceKm)
	sum.AvgSpeedKmh = safeDiv(sum.DistanceKm, sum.Minutes/60.0)
	return sum
}

// MonthTotal is one bucket of MonthlyTotals.
type MonthTotal struct {
	Month      string  `json:"month"`
	Count      int     `json:"count"`
	DistanceKm float64 `json:"distance_km"`
	Minutes    float64 `json:"minutes"`
}

// MonthlyTotals groups valid sessions by YYYY-MM, oldest first.
func MonthlyTotals(sessions []Session) []MonthTotal {
	buckets := make(map[string]*MonthTotal)
	for _, s := range sessions {
		if !s.Valid() || len(s.Date) < 7 {
			continue
		}
		key := s.Date[:7]
		b, ok := buckets[key]
		if !ok {
			b = &MonthTotal{Month: key}
			buckets[key] = b
		}
		b.Count++
		b.DistanceKm = RoundKm(b.DistanceKm + s.DistanceKm)
		b.Minutes += s.DurationMinutes
	}

	out := make([]MonthTotal, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// SortByDate orders sessions newest first, breaking ties by descending id.
func SortByDate(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date > sessions[j].Date
		}
		return sessions[i].ID > sessions[j].ID
	})
}

// FormatPace renders minutes per kilometre as M:SS.
func FormatPace(minPerKm float64) string {
	if !isFinite(minPerKm) || minPerKm <= 0 {
		return "-"
	}
	total := int(math.Round(minPerKm * 60))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func safeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}
