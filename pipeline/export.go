package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/lucasjlepore/runlog"
	"github.com/lucasjlepore/runlog/importer"
	"github.com/lucasjlepore/runlog/store"
)

// Export formats.
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
	FormatJSON    = "json"
)

var csvHeader = []string{
	"id", "date", "distance_km", "duration", "duration_minutes", "type", "location", "notes",
	"elevation_gain_m", "elevation_loss_m", "equipment",
}

// Export loads the stored log and writes it to path in format, replacing any existing
// file atomically. It returns the number of sessions written.
func Export(ctx context.Context, st store.Store, path, format string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, fmt.Errorf("output path is required")
	}
	sessions, err := st.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load sessions: %w", err)
	}
	data, err := MarshalSessions(format, sessions)
	if err != nil {
		return 0, err
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write %s export: %w", format, err)
	}
	return len(sessions), nil
}

// MarshalSessions encodes sessions newest first. The json format is a runlog backup and
// can be restored with Pipeline.RestoreBackup.
func MarshalSessions(format string, sessions []runlog.Session) ([]byte, error) {
	sorted := append([]runlog.Session(nil), sessions...)
	runlog.SortByDate(sorted)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return marshalCSV(sorted)
	case FormatJSON:
		return marshalJSON(sorted)
	case FormatParquet, "":
		return marshalSessionsParquet(sorted)
	default:
		return nil, fmt.Errorf("unsupported format %q (expected parquet|csv|json)", format)
	}
}

func marshalJSON(sessions []runlog.Session) ([]byte, error) {
	if sessions == nil {
		sessions = []runlog.Session{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string][]runlog.Session{importer.StorageKey: sessions}); err != nil {
		return nil, fmt.Errorf("encode json export: %w", err)
	}
	return buf.Bytes(), nil
}

func marshalCSV(sessions []runlog.Session) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, s := range sessions {
		row := []string{
			s.ID,
			s.Date,
			formatFloat(s.DistanceKm),
			s.Duration,
			formatFloat(s.DurationMinutes),
			string(s.Category),
			s.Location,
			s.Notes,
			strconv.Itoa(s.ElevationGainM),
			strconv.Itoa(s.ElevationLossM),
			s.Equipment,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv export: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
