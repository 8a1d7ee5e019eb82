package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/runlog"
	"github.com/lucasjlepore/runlog/config"
	rlog "github.com/lucasjlepore/runlog/log"
)

func sampleSessions() []runlog.Session {
	return []runlog.Session{
		{
			ID: "1709366400000", Date: "2024-03-02", DistanceKm: 8.25, Duration: "00:41:15", DurationMinutes: 41.25,
			Category: runlog.CategoryTraining, Location: "Retiro", Notes: "easy", ElevationGainM: 12, ElevationLossM: 10,
			Equipment: "Pegasus 40",
		},
		{
			ID: "b6c1", Date: "2024-03-03", DistanceKm: 10, Duration: "00:38:00", DurationMinutes: 38,
			Category: runlog.CategoryRace,
		},
	}
}

func openAll(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := OpenFile(filepath.Join(dir, "nested", "sessions.json"))
	require.NoError(t, err)
	db, err := OpenSQLite(filepath.Join(dir, "runlog.sqlite"))
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": db,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStoresRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, empty)

			require.NoError(t, s.Save(ctx, sampleSessions()))
			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, sampleSessions(), got)

			require.NoError(t, s.Save(ctx, sampleSessions()[:1]))
			got, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestStoresNormalizeLegacyRecords(t *testing.T) {
	ctx := context.Background()
	legacy := []runlog.Session{{
		ID: "1", Date: "2024-01-01", DistanceKm: 12, Duration: "01:00:00", DurationMinutes: 55,
		Category: "competicion", ElevationGainM: -4,
	}}
	for name, s := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, legacy))
			got, err := s.Load(ctx)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, runlog.CategoryRace, got[0].Category)
			assert.Equal(t, 60.0, got[0].DurationMinutes)
			assert.Equal(t, 0, got[0].ElevationGainM)
		})
	}
}

func TestFileStoreDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"runningSessions":[{"id":42,"date":"2024-02-02","distanceKm":5,"duration":"00:30:00","type":"series"}]}`), 0o644))

	s, err := OpenFile(path)
	require.NoError(t, err)
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "42", got[0].ID)
	assert.Equal(t, runlog.CategoryIntervals, got[0].Category)

	require.NoError(t, s.Save(context.Background(), got))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"runningSessions"`)
	assert.Contains(t, string(data), `"id": "42"`)
}

func TestClosedStores(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Close())
	_, err := m.Load(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Save(ctx, nil), ErrClosed)
}

func TestOpenByDriver(t *testing.T) {
	s, err := Open(config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(config.StoreConfig{Driver: config.DriverFile, Path: filepath.Join(t.TempDir(), "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	_, err = Open(config.StoreConfig{Driver: "postgres"})
	assert.Error(t, err)
}

func TestSaveLogsImportID(t *testing.T) {
	for name, s := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := rlog.ContextWithLogger(context.Background(), zerolog.New(&buf).Level(zerolog.DebugLevel))
			ctx = rlog.ContextWithImportID(ctx, "batch-7")

			require.NoError(t, s.Save(ctx, sampleSessions()))
			assert.Contains(t, buf.String(), `"import_id":"batch-7"`)
			assert.Contains(t, buf.String(), `"store":"`+name+`"`)
		})
	}
}
