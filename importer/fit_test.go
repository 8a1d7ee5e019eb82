package importer

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/runlog"
)

func newActivityFile(t *testing.T) (*fit.File, *fit.ActivityFile) {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}
	return file, activity
}

func encodeFIT(t *testing.T, file *fit.File) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}

func TestFITSessionSummary(t *testing.T) {
	file, activity := newActivityFile(t)

	start := time.Date(2024, 3, 17, 9, 0, 0, 0, time.UTC)
	session := fit.NewSessionMsg()
	session.Timestamp = start.Add(31 * time.Minute)
	session.StartTime = start
	session.Sport = fit.SportRunning
	session.TotalTimerTime = 1830500 // ms
	session.TotalDistance = 612345  // cm
	session.TotalAscent = 42
	session.TotalDescent = 40
	activity.Sessions = append(activity.Sessions, session)

	res := newTestImporter().Parse("Morning_Run.fit", encodeFIT(t, file))
	if res.Err != nil {
		t.Fatalf("Parse() error: %v", res.Err)
	}
	if res.Format != FormatFIT {
		t.Fatalf("format = %q", res.Format)
	}
	if len(res.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(res.Sessions))
	}
	s := res.Sessions[0]
	if s.Date != "2024-03-17" || s.DistanceKm != 6.12 || s.Duration != "00:30:30" {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.ElevationGainM != 42 || s.ElevationLossM != 40 {
		t.Fatalf("elevation = %d/%d", s.ElevationGainM, s.ElevationLossM)
	}
	if s.Category != runlog.CategoryTraining {
		t.Fatalf("category = %q", s.Category)
	}
}

func TestFITRecordFallback(t *testing.T) {
	file, activity := newActivityFile(t)

	start := time.Date(2024, 3, 18, 18, 0, 0, 0, time.UTC)
	altitudes := []uint16{3000, 3050, 3025} // 100 m, 110 m, 105 m
	for i, alt := range altitudes {
		rec := fit.NewRecordMsg()
		rec.Timestamp = start.Add(time.Duration(i) * 10 * time.Minute)
		rec.Distance = uint32(i) * 200000 // cm
		rec.Altitude = alt
		activity.Records = append(activity.Records, rec)
	}

	res := newTestImporter().Parse("no-session.fit", encodeFIT(t, file))
	if res.Err != nil {
		t.Fatalf("Parse() error: %v", res.Err)
	}
	if len(res.Sessions) != 1 {
		t.Fatalf("sessions = %d, want 1 (skipped %d)", len(res.Sessions), res.Skipped)
	}
	s := res.Sessions[0]
	if s.DistanceKm != 4 || s.Duration != "00:20:00" {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.ElevationGainM != 10 || s.ElevationLossM != 5 {
		t.Fatalf("elevation = %d/%d, want 10/5", s.ElevationGainM, s.ElevationLossM)
	}
}

func TestFITGarbage(t *testing.T) {
	// Bytes 8..11 are "89ab", so the magic does not match.
	data := []byte("0123456789ab.FIT not really a fit file")
	res := newTestImporter().Parse("upload.bin", data)
	if res.Format != FormatUnknown {
		t.Fatalf("format = %q, want unknown", res.Format)
	}

	data = append([]byte("\x0e\x20\x00\x00\x00\x00\x00\x00.FIT"), make([]byte, 8)...)
	res = newTestImporter().Parse("upload.bin", data)
	if res.Format != FormatFIT {
		t.Fatalf("format = %q, want fit by magic", res.Format)
	}
	if res.Err == nil || len(res.Sessions) != 0 {
		t.Fatalf("expected a decode failure, got %+v", res)
	}
}
