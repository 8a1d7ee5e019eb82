// Package importer turns third-party activity exports into canonical runlog sessions.
//
// Supported inputs are delimited tabular exports, the TCX lap/course format, the GPX
// trace format, FIT device files and runlog JSON backups. Format detection is an ordered
// list of detectors where the first match wins. Parsers never fail the caller: every
// entry point returns a Result, with Err set to a classified failure when the whole file
// is unusable and Skipped counting rows or nodes that were dropped.
package importer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucasjlepore/runlog"
	rlog "github.com/lucasjlepore/runlog/log"
)

// Format identifies a supported input format.
type Format string

// Supported formats; the values double as metric and report labels.
const (
	FormatUnknown Format = ""
	FormatTabular Format = "csv"
	FormatTCX     Format = "tcx"
	FormatGPX     Format = "gpx"
	FormatFIT     Format = "fit"
	FormatBackup  Format = "json"
)

var (
	// ErrUnrecognizedFormat indicates the input matched no known format or could not be
	// parsed as the format it claimed to be.
	ErrUnrecognizedFormat = errors.New("unrecognized activity format")
	// ErrMissingColumns indicates a tabular file lacks a required column.
	ErrMissingColumns = errors.New("required columns missing")
)

// MissingColumnsError lists the logical columns a tabular file is missing.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Missing, ", "))
}

// Is reports whether target is ErrMissingColumns.
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// Outcome is the user-facing classification of a parse result.
type Outcome string

// Parse outcomes reported per file.
const (
	OutcomeOK             Outcome = "ok"
	OutcomeNoSessions     Outcome = "no_sessions"
	OutcomeMissingColumns Outcome = "missing_columns"
	OutcomeUnrecognized   Outcome = "unrecognized"
)

// Result is the output of parsing one file.
type Result struct {
	FileName string
	Format   Format
	Sessions []runlog.Session
	Skipped  int
	Err      error
}

// Outcome classifies the result for user feedback.
func (r Result) Outcome() Outcome {
	switch {
	case errors.Is(r.Err, ErrMissingColumns):
		return OutcomeMissingColumns
	case r.Err != nil:
		return OutcomeUnrecognized
	case len(r.Sessions) == 0:
		return OutcomeNoSessions
	default:
		return OutcomeOK
	}
}

// Importer parses activity files. It holds no mutable state and is safe for concurrent
// use.
type Importer struct {
	loc       *time.Location
	now       func() time.Time
	logger    zerolog.Logger
	detectors []detector
}

// Option configures an Importer.
type Option func(*Importer)

// WithLocation sets the zone used to turn absolute timestamps into local days.
func WithLocation(loc *time.Location) Option {
	return func(im *Importer) {
		if loc != nil {
			im.loc = loc
		}
	}
}

// WithClock overrides the processing-time source used when a track carries no date.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) {
		if now != nil {
			im.now = now
		}
	}
}

// WithLogger sets the logger used for per-file and per-item diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(im *Importer) {
		im.logger = l
	}
}

// New constructs an Importer. Without options it uses time.Local, time.Now and the
// shared "importer" component logger.
func New(opts ...Option) *Importer {
	im := &Importer{
		loc:    time.Local,
		now:    time.Now,
		logger: rlog.WithComponent("importer"),
	}
	for _, opt := range opts {
		opt(im)
	}
	im.detectors = defaultDetectors()
	return im
}

// Parse detects the format of data and parses it into canonical sessions.
func (im *Importer) Parse(name string, data []byte) (res Result) {
	start := time.Now()
	format := im.Detect(name, data)
	logger := im.logger.With().Str(rlog.FieldFile, name).Str(rlog.FieldFormat, string(format)).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("parser panicked; treating file as unrecognized")
			res = Result{Err: fmt.Errorf("%w: parser failure: %v", ErrUnrecognizedFormat, r)}
		}
		res.FileName = name
		res.Format = format
		logger.Info().
			Int(rlog.FieldParsed, len(res.Sessions)).
			Int(rlog.FieldSkipped, res.Skipped).
			Str(rlog.FieldOutcome, string(res.Outcome())).
			Int64(rlog.FieldDuration, time.Since(start).Milliseconds()).
			Msg("parsed activity file")
	}()

	p := &parser{im: im, logger: logger}
	switch format {
	case FormatTabular:
		return p.tabular(data)
	case FormatTCX:
		return p.tcx(data)
	case FormatGPX:
		return p.gpx(data)
	case FormatFIT:
		return p.fit(data)
	case FormatBackup:
		return p.backup(data)
	default:
		return Result{Err: ErrUnrecognizedFormat}
	}
}

// parser carries per-file state shared by the format parsers.
type parser struct {
	im     *Importer
	logger zerolog.Logger
}

func (p *parser) skip(res *Result, node int, reason string) {
	res.Skipped++
	p.logger.Debug().Int(rlog.FieldNode, node).Str(rlog.FieldReason, reason).Msg("skipped item")
}

func (p *parser) date(t time.Time) string {
	return runlog.DateOf(t, p.im.loc)
}

// elevationWalker accumulates gain and loss over an ordered altitude trace.
type elevationWalker struct {
	last  float64
	have  bool
	gain  float64
	loss  float64
	count int
}

func (w *elevationWalker) add(alt float64) {
	if !isFinite(alt) {
		return
	}
	if w.have {
		if d := alt - w.last; d > 0 {
			w.gain += d
		} else {
			w.loss -= d
		}
	}
	w.last = alt
	w.have = true
	w.count++
}

func provenance(source, detail string) string {
	note := "Imported from " + source
	if detail = strings.TrimSpace(detail); detail != "" {
		note += ": " + detail
	}
	return note
}
