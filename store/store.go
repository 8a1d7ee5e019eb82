// Package store persists the session log. Every implementation normalizes records on
// load so that legacy category labels and stale minute values never reach callers.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lucasjlepore/runlog"
	"github.com/lucasjlepore/runlog/config"
	rlog "github.com/lucasjlepore/runlog/log"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store is the storage collaborator used by the import pipeline and the CLIs.
type Store interface {
	// Load returns every stored session, normalized.
	Load(ctx context.Context) ([]runlog.Session, error)
	// Save replaces the stored log with sessions.
	Save(ctx context.Context, sessions []runlog.Session) error
	Close() error
}

// Open returns the Store selected by cfg.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return openSQLite(cfg.Path)
	case config.DriverFile:
		return OpenFile(cfg.Path)
	case config.DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func normalizeAll(sessions []runlog.Session) []runlog.Session {
	out := make([]runlog.Session, len(sessions))
	for i, s := range sessions {
		out[i] = s.Normalize()
	}
	return out
}

// Memory is an in-process Store.
type Memory struct {
	mu       sync.RWMutex
	sessions []runlog.Session
	closed   bool
	saves    int
}

// NewMemory returns a Memory store seeded with sessions.
func NewMemory(seed ...runlog.Session) *Memory {
	return &Memory{sessions: append([]runlog.Session(nil), seed...)}
}

// Load implements Store.
func (m *Memory) Load(ctx context.Context) ([]runlog.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return normalizeAll(m.sessions), nil
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, sessions []runlog.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.sessions = append([]runlog.Session(nil), sessions...)
	m.saves++
	logger := rlog.FromContext(ctx)
	logger.Debug().Str(rlog.FieldStore, "memory").Int(rlog.FieldSessions, len(sessions)).Msg("saved session log")
	return nil
}

// Saves returns how many times Save succeeded.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
