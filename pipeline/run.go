// Package pipeline orchestrates imports: detect and parse each file, reconcile the parsed
// sessions against the stored log, and persist the merged log only when it changed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lucasjlepore/runlog"
	"github.com/lucasjlepore/runlog/importer"
	rlog "github.com/lucasjlepore/runlog/log"
	"github.com/lucasjlepore/runlog/merge"
	"github.com/lucasjlepore/runlog/store"
)

// ErrImportInProgress is returned when a guarded call overlaps a running one.
var ErrImportInProgress = errors.New("import already in progress")

// Pipeline runs guarded imports against a store. Only one import runs at a time.
type Pipeline struct {
	store    store.Store
	importer *importer.Importer
	opts     Options
	logger   zerolog.Logger

	mu sync.Mutex
}

// New constructs a Pipeline. A nil importer uses importer.New().
func New(st store.Store, im *importer.Importer, opts Options) *Pipeline {
	if im == nil {
		im = importer.New()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		store:    st,
		importer: im,
		opts:     opts,
		logger:   rlog.WithComponent("pipeline"),
	}
}

// ImportFiles reads paths from disk and imports them as one batch. Unreadable files are
// reported and skipped.
func (p *Pipeline) ImportFiles(ctx context.Context, paths []string) (Summary, error) {
	sources := make([]Source, 0, len(paths))
	var unreadable []FileReport
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			unreadable = append(unreadable, FileReport{
				FileName: filepath.Base(path),
				Outcome:  OutcomeUnreadable,
				Error:    err.Error(),
			})
			continue
		}
		sources = append(sources, Source{Name: filepath.Base(path), Data: data})
	}

	summary, err := p.Import(ctx, sources)
	for _, r := range unreadable {
		recordFile(r)
	}
	summary.Files = append(summary.Files, unreadable...)
	return summary, err
}

// Import parses every source and merges the results into the stored log. Runlog backups
// are merged by id; everything else is merged fuzzily. Per-file failures are reported in
// the summary and never abort the batch.
func (p *Pipeline) Import(ctx context.Context, sources []Source) (Summary, error) {
	return p.guarded(ctx, func(ctx context.Context, logger zerolog.Logger, sessions []runlog.Session, summary *Summary) ([]runlog.Session, error) {
		for _, src := range sources {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res := p.importer.Parse(src.Name, src.Data)
			report := FileReport{
				FileName: src.Name,
				Format:   string(res.Format),
				Outcome:  string(res.Outcome()),
				Parsed:   len(res.Sessions),
				Skipped:  res.Skipped,
			}
			if res.Err != nil {
				report.Error = res.Err.Error()
			}

			if len(res.Sessions) > 0 {
				var rep merge.Report
				if res.Format == importer.FormatBackup {
					rep = merge.ByIdentity(sessions, res.Sessions)
				} else {
					rep = merge.Fuzzy(sessions, res.Sessions, p.opts.NewID)
				}
				sessions = rep.Sessions
				report.Added = rep.Added
				report.Updated = rep.Updated
				report.Duplicates = rep.Duplicates
				report.Skipped += rep.Skipped
			}

			logger.Info().
				Str(rlog.FieldFile, report.FileName).
				Str(rlog.FieldFormat, report.Format).
				Str(rlog.FieldOutcome, report.Outcome).
				Int(rlog.FieldAdded, report.Added).
				Int(rlog.FieldUpdated, report.Updated).
				Int(rlog.FieldDupes, report.Duplicates).
				Msg("merged file")
			recordFile(report)
			summary.add(report)
		}
		return sessions, nil
	})
}

// RestoreBackup merges a runlog JSON backup into the stored log by id.
func (p *Pipeline) RestoreBackup(ctx context.Context, name string, data []byte) (Summary, error) {
	records, err := importer.ParseBackup(data)
	if err != nil {
		return Summary{}, fmt.Errorf("parse backup %s: %w", name, err)
	}
	return p.MergeRecords(ctx, records)
}

// MergeRecords merges already-decoded records into the stored log by id.
func (p *Pipeline) MergeRecords(ctx context.Context, records []runlog.Session) (Summary, error) {
	return p.guarded(ctx, func(_ context.Context, _ zerolog.Logger, sessions []runlog.Session, summary *Summary) ([]runlog.Session, error) {
		rep := merge.ByIdentity(sessions, records)
		summary.Added += rep.Added
		summary.Updated += rep.Updated
		summary.Duplicates += rep.Duplicates
		summary.Skipped += rep.Skipped
		return rep.Sessions, nil
	})
}

type mergeFunc func(ctx context.Context, logger zerolog.Logger, sessions []runlog.Session, summary *Summary) ([]runlog.Session, error)

// guarded runs fn under the in-progress guard: load, seed from the companion file,
// merge, and save only when something changed.
func (p *Pipeline) guarded(ctx context.Context, fn mergeFunc) (Summary, error) {
	if !p.mu.TryLock() {
		busyCounter.Inc()
		return Summary{}, ErrImportInProgress
	}
	defer p.mu.Unlock()

	start := p.opts.Now()
	summary := Summary{ImportID: uuid.NewString()}
	ctx = rlog.ContextWithImportID(rlog.ContextWithLogger(ctx, p.logger), summary.ImportID)
	logger := rlog.FromContext(ctx)
	defer func() {
		batchDuration.Observe(p.opts.Now().Sub(start).Seconds())
	}()

	sessions, err := p.store.Load(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("load session log")
		return summary, fmt.Errorf("load sessions: %w", err)
	}
	sessions = p.seedCompanion(logger, sessions, &summary)

	merged, err := fn(ctx, logger, sessions, &summary)
	if err != nil {
		return summary, err
	}
	summary.Total = len(merged)

	if !summary.Changed() {
		logger.Info().Int(rlog.FieldDupes, summary.Duplicates).Msg("nothing new to save")
		return summary, nil
	}
	if err := p.store.Save(ctx, merged); err != nil {
		logger.Error().Err(err).Msg("save session log")
		return summary, fmt.Errorf("save sessions: %w", err)
	}
	summary.Saved = true
	logger.Info().
		Int(rlog.FieldAdded, summary.Added).
		Int(rlog.FieldUpdated, summary.Updated).
		Int(rlog.FieldDupes, summary.Duplicates).
		Int(rlog.FieldSkipped, summary.Skipped).
		Int64(rlog.FieldDuration, p.opts.Now().Sub(start).Milliseconds()).
		Msg("saved merged session log")
	return summary, nil
}

// seedCompanion merges the optional companion backup by id. Any failure is ignored.
func (p *Pipeline) seedCompanion(logger zerolog.Logger, sessions []runlog.Session, summary *Summary) []runlog.Session {
	if p.opts.CompanionFile == "" {
		return sessions
	}
	data, err := os.ReadFile(p.opts.CompanionFile)
	if err != nil {
		logger.Debug().Err(err).Str(rlog.FieldPath, p.opts.CompanionFile).Msg("companion file unavailable")
		return sessions
	}
	records, err := importer.ParseBackup(data)
	if err != nil {
		logger.Debug().Err(err).Str(rlog.FieldPath, p.opts.CompanionFile).Msg("companion file unreadable")
		return sessions
	}
	rep := merge.ByIdentity(sessions, records)
	summary.Added += rep.Added
	summary.Updated += rep.Updated
	return rep.Sessions
}

func (s *Summary) add(r FileReport) {
	s.Added += r.Added
	s.Updated += r.Updated
	s.Duplicates += r.Duplicates
	s.Skipped += r.Skipped
	s.Files = append(s.Files, r)
}
