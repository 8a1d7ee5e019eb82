package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	rlog "github.com/lucasjlepore/runlog/log"
)

// DefaultDebounce is how long Watch waits after the last write before importing.
const DefaultDebounce = 500 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Debounce time.Duration
	// OnImport, when set, receives the result of every triggered import.
	OnImport func(Summary, error)
}

// Watch imports files created or written in dir until ctx is done. Events are debounced
// and batched; a batch that collides with a running import is retried on the next tick.
// Watch blocks; callers run it on its own goroutine.
func (p *Pipeline) Watch(ctx context.Context, dir string, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := p.logger.With().Str(rlog.FieldPath, dir).Logger()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	logger.Info().Msg("watching directory for activity files")

	timer := time.NewTimer(opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := map[string]struct{}{}
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("directory watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if ignoredName(event.Name) {
				continue
			}
			logger.Debug().Str(rlog.FieldFile, event.Name).Str("op", event.Op.String()).Msg("file changed")
			pending[event.Name] = struct{}{}
			timer.Reset(opts.Debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			sort.Strings(paths)

			summary, err := p.ImportFiles(ctx, paths)
			if errors.Is(err, ErrImportInProgress) {
				logger.Debug().Msg("import busy; retrying batch")
				timer.Reset(opts.Debounce)
				continue
			}
			clear(pending)
			if err != nil {
				logger.Error().Err(err).Msg("watched import failed")
			}
			if opts.OnImport != nil {
				opts.OnImport(summary, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("directory watcher error")
		}
	}
}

// ignoredName filters editor swap files, partial downloads and hidden files.
func ignoredName(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tmp", ".part", ".crdownload", ".swp":
		return true
	}
	return false
}
