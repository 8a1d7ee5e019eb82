package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/lucasjlepore/runlog"
	"github.com/lucasjlepore/runlog/importer"
	rlog "github.com/lucasjlepore/runlog/log"
)

// File stores the log as a single JSON document keyed by importer.StorageKey, the same
// shape the backup importer reads. Writes replace the file atomically.
type File struct {
	path string

	mu     sync.Mutex
	closed bool
}

// OpenFile returns a File store at path, creating the parent directory if needed. The
// file itself is created on the first Save.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("store: empty file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &File{path: path}, nil
}

func (f *File) log(ctx context.Context) zerolog.Logger {
	return rlog.FromContext(ctx).With().Str(rlog.FieldStore, "file").Str(rlog.FieldPath, f.path).Logger()
}

// Load implements Store. A missing file is an empty log.
func (f *File) Load(ctx context.Context) ([]runlog.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	sessions, err := importer.ParseBackup(data)
	if err != nil {
		return nil, fmt.Errorf("decode store file %s: %w", f.path, err)
	}
	return sessions, nil
}

// Save implements Store.
func (f *File) Save(ctx context.Context, sessions []runlog.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if sessions == nil {
		sessions = []runlog.Session{}
	}
	logger := f.log(ctx)

	pendingFile, err := renameio.NewPendingFile(f.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending store file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending store file")
		}
	}()

	enc := json.NewEncoder(pendingFile)
	enc.SetIndent("", "  ")
	doc := map[string][]runlog.Session{importer.StorageKey: sessions}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace store file: %w", err)
	}
	logger.Debug().Int(rlog.FieldSessions, len(sessions)).Msg("saved session log")
	return nil
}

// Close implements Store.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
