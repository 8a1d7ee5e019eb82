//go:build !js

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/lucasjlepore/runlog"
	rlog "github.com/lucasjlepore/runlog/log"
)

// SQLite stores sessions in a single table of a local SQLite database.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at path and runs migrations.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, (5 * time.Second).Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	s := &SQLite{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		date TEXT NOT NULL,
		distance_km REAL NOT NULL,
		duration TEXT NOT NULL,
		duration_minutes REAL NOT NULL,
		category TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		elevation_gain_m INTEGER NOT NULL DEFAULT 0,
		elevation_loss_m INTEGER NOT NULL DEFAULT 0,
		equipment TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load implements Store. Rows come back in insertion order.
func (s *SQLite) Load(ctx context.Context) ([]runlog.Session, error) {
	query := `
	SELECT id, date, distance_km, duration, duration_minutes, category,
		location, notes, elevation_gain_m, elevation_loss_m, equipment
	FROM sessions
	ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []runlog.Session
	for rows.Next() {
		var (
			r        runlog.Session
			category string
		)
		if err := rows.Scan(&r.ID, &r.Date, &r.DistanceKm, &r.Duration, &r.DurationMinutes, &category,
			&r.Location, &r.Notes, &r.ElevationGainM, &r.ElevationLossM, &r.Equipment); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		r.Category = runlog.Category(category)
		sessions = append(sessions, r.Normalize())
	}
	return sessions, rows.Err()
}

// Save implements Store. The table is replaced inside one transaction.
func (s *SQLite) Save(ctx context.Context, sessions []runlog.Session) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO sessions (id, date, distance_km, duration, duration_minutes, category,
		location, notes, elevation_gain_m, elevation_loss_m, equipment)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range sessions {
		if _, err = stmt.ExecContext(ctx, r.ID, r.Date, r.DistanceKm, r.Duration, r.DurationMinutes, string(r.Category),
			r.Location, r.Notes, r.ElevationGainM, r.ElevationLossM, r.Equipment); err != nil {
			return fmt.Errorf("insert session %s: %w", r.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	logger := rlog.FromContext(ctx)
	logger.Debug().
		Str(rlog.FieldStore, "sqlite").
		Str(rlog.FieldPath, s.path).
		Int(rlog.FieldSessions, len(sessions)).
		Msg("saved session log")
	return nil
}

func openSQLite(path string) (Store, error) {
	return OpenSQLite(path)
}

// Close implements Store.
func (s *SQLite) Close() error {
	return s.db.Close()
}
