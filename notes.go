package runlog

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
)

// BuildSummaryNotes turns aggregate statistics into a readable training summary.
func BuildSummaryNotes(s Summary) string {
	var b strings.Builder

	switch {
	case s.Range.From != "" && s.Range.To != "":
		fmt.Fprintf(&b, "Period: %s to %s\n", s.Range.From, s.Range.To)
	case s.Range.From != "":
		fmt.Fprintf(&b, "Period: since %s\n", s.Range.From)
	case s.Range.To != "":
		fmt.Fprintf(&b, "Period: until %s\n", s.Range.To)
	default:
		b.WriteString("Period: all time\n")
	}

	if s.Count == 0 {
		b.WriteString("No sessions recorded in this period.")
		return b.String()
	}

	fmt.Fprintf(
		&b,
		"Sessions %d on %d days | Distance %.2f km | Time %s | Elevation +%d/-%d m\n",
		s.Count,
		s.ActiveDays,
		s.DistanceKm,
		formatDuration(s.Minutes*60),
		s.ElevationGainM,
		s.ElevationLossM,
	)
	fmt.Fprintf(
		&b,
		"Average %.2f km per session | Pace %s /km | Speed %.1f km/h\n",
		s.AvgDistanceKm,
		FormatPace(s.AvgPaceMinPerKm),
		s.AvgSpeedKmh,
	)
	if s.Longest != nil {
		fmt.Fprintf(&b, "Longest: %.2f km on %s\n", s.Longest.DistanceKm, s.Longest.Date)
	}
	if s.Fastest != nil {
		fmt.Fprintf(
			&b,
			"Fastest pace: %s /km on %s (%.2f km)\n",
			FormatPace(s.Fastest.DurationMinutes/s.Fastest.DistanceKm),
			s.Fastest.Date,
			s.Fastest.DistanceKm,
		)
	}

	b.WriteString("\nBy Type\n")
	for _, c := range Categories {
		ct, ok := s.ByCategory[c]
		if !ok || ct.Count == 0 {
			continue
		}
		fmt.Fprintf(
			&b,
			"- %s: %d sessions, %.2f km, %s (%.0f%%)\n",
			c,
			ct.Count,
			RoundKm(ct.DistanceKm),
			formatDuration(ct.Minutes*60),
			100.0*float64(ct.Count)/float64(s.Count),
		)
	}

	if len(s.ByEquipmentKm) > 0 {
		b.WriteString("\nEquipment\n")
		names := make([]string, 0, len(s.ByEquipmentKm))
		for name := range s.ByEquipmentKm {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- %s: %.2f km\n", name, s.ByEquipmentKm[name])
		}
	}

	return strings.TrimSpace(b.String())
}

// EscapeText escapes s for inclusion in HTML markup.
func EscapeText(s string) string {
	return html.EscapeString(s)
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}
