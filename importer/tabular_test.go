package importer

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lucasjlepore/runlog"
)

func newTestImporter() *Importer {
	return New(WithLocation(time.UTC), WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}))
}

func TestTabularDecimalCommaAndSemicolons(t *testing.T) {
	data := "\ufeffFecha;Distancia;Tiempo;Tipo de actividad;Ascenso total;Descenso total;Título\n" +
		"2024-03-10 08:15:00;10,5;00:45:00;Carrera;120;--;Media de Madrid\n"

	res := newTestImporter().Parse("actividades.csv", []byte(data))
	if res.Err != nil {
		t.Fatalf("Parse() error: %v", res.Err)
	}
	if res.Format != FormatTabular {
		t.Fatalf("format = %q, want %q", res.Format, FormatTabular)
	}
	want := []runlog.Session{{
		Date:            "2024-03-10",
		DistanceKm:      10.5,
		Duration:        "00:45:00",
		DurationMinutes: 45,
		Category:        runlog.CategoryRace,
		Notes:           "Imported from CSV: Media de Madrid",
		ElevationGainM:  120,
	}}
	if diff := cmp.Diff(want, res.Sessions); diff != "" {
		t.Fatalf("sessions mismatch (-want +got):\n%s", diff)
	}
}

func TestTabularMissingDistanceColumn(t *testing.T) {
	data := "Date,Time,Title\n2024-03-10,00:30:00,Easy\n"

	res := newTestImporter().Parse("export.csv", []byte(data))
	if !errors.Is(res.Err, ErrMissingColumns) {
		t.Fatalf("err = %v, want ErrMissingColumns", res.Err)
	}
	var mce *MissingColumnsError
	if !errors.As(res.Err, &mce) {
		t.Fatalf("err is not *MissingColumnsError: %T", res.Err)
	}
	if diff := cmp.Diff([]string{"distance"}, mce.Missing); diff != "" {
		t.Fatalf("missing columns (-want +got):\n%s", diff)
	}
	if len(res.Sessions) != 0 {
		t.Fatalf("expected zero sessions, got %d", len(res.Sessions))
	}
	if res.Outcome() != OutcomeMissingColumns {
		t.Fatalf("outcome = %q", res.Outcome())
	}
}

func TestTabularSkipsBadRows(t *testing.T) {
	data := "Activity Type,Date,Title,Distance,Time,Total Ascent,Total Descent\n" +
		"Running,2024-01-02 07:00:00,\"Series, 6x1000\",8.20,0:41:10.4,35,30\n" +
		"Running,2024-01-03 07:00:00,Zero,0,0:30:00,0,0\n" +
		"Running,not-a-date,Junk,5,0:30:00,0,0\n" +
		"Running,2024-01-04 07:00:00,No time,5,--,0,0\n" +
		"\n" +
		"Running,2024/01/05 07:00:00,\"Long\nrun\",21.1,1:55:00,210.7,208.2\n" +
		"Running,2024-01-06 07:00:00,Glitch,5,0:30:00,1e30,-4\n"

	res := newTestImporter().Parse("Activities.csv", []byte(data))
	if res.Err != nil {
		t.Fatalf("Parse() error: %v", res.Err)
	}
	if res.Skipped != 3 {
		t.Fatalf("skipped = %d, want 3", res.Skipped)
	}
	if len(res.Sessions) != 3 {
		t.Fatalf("sessions = %d, want 3", len(res.Sessions))
	}

	first := res.Sessions[0]
	if first.Category != runlog.CategoryIntervals {
		t.Fatalf("category = %q, want intervals", first.Category)
	}
	if first.Duration != "00:41:10" {
		t.Fatalf("duration = %q, want fraction truncated", first.Duration)
	}
	if first.Notes != "Imported from CSV: Series, 6x1000" {
		t.Fatalf("notes = %q", first.Notes)
	}

	second := res.Sessions[1]
	if second.Date != "2024-01-05" || second.ElevationGainM != 210 || second.ElevationLossM != 208 {
		t.Fatalf("unexpected second session: %+v", second)
	}
	if second.Notes != "Imported from CSV: Long\nrun" {
		t.Fatalf("notes = %q", second.Notes)
	}

	if glitch := res.Sessions[2]; glitch.ElevationGainM != 0 || glitch.ElevationLossM != 0 {
		t.Fatalf("out-of-range elevation = +%d/-%d, want 0/0", glitch.ElevationGainM, glitch.ElevationLossM)
	}
}

func TestTabularNeverEmitsInvalidSessions(t *testing.T) {
	data := "date,distance,time\n" +
		"2024-01-01,0.001,00:30:00\n" +
		"2024-01-01,5,00:00:00\n" +
		"2024-01-01,-3,00:30:00\n"

	res := newTestImporter().Parse("x.txt", []byte(data))
	for _, s := range res.Sessions {
		if !s.Valid() {
			t.Fatalf("emitted invalid session: %+v", s)
		}
	}
	if res.Skipped != 3 {
		t.Fatalf("skipped = %d, want 3", res.Skipped)
	}
	if res.Outcome() != OutcomeNoSessions {
		t.Fatalf("outcome = %q, want no_sessions", res.Outcome())
	}
}

func TestSniffDelimiter(t *testing.T) {
	cases := []struct {
		input string
		want  rune
	}{
		{input: "a,b,c\n1,2,3", want: ','},
		{input: "a;b;c\n1;2;3", want: ';'},
		{input: "a\tb\tc", want: '\t'},
		{input: `"x;y;z",b` + "\n1,2", want: ','},
		{input: "single", want: ','},
	}
	for _, tc := range cases {
		if got := sniffDelimiter(tc.input); got != tc.want {
			t.Fatalf("sniffDelimiter(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
