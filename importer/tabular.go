package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lucasjlepore/runlog"
	rlog "github.com/lucasjlepore/runlog/log"
)

type column int

const (
	colDate column = iota
	colDistance
	colDuration
	colType
	colGain
	colLoss
	colTitle
	numColumns
)

var columnNames = [numColumns]string{
	colDate:     "date",
	colDistance: "distance",
	colDuration: "time",
	colType:     "activity type",
	colGain:     "total ascent",
	colLoss:     "total descent",
	colTitle:    "title",
}

// columnAliases are matched against case- and accent-folded header cells. English and
// Spanish exports are both common in the wild.
var columnAliases = [numColumns][]string{
	colDate:     {"date", "fecha", "activity date", "start time"},
	colDistance: {"distance", "distancia", "distance (km)", "distancia (km)"},
	colDuration: {"time", "tiempo", "duration", "duracion", "elapsed time", "moving time"},
	colType:     {"activity type", "tipo de actividad", "type", "tipo"},
	colGain:     {"total ascent", "ascenso total", "elev gain", "elevation gain", "desnivel positivo"},
	colLoss:     {"total descent", "descenso total", "elev loss", "elevation loss", "desnivel negativo"},
	colTitle:    {"title", "titulo", "name", "nombre", "activity name"},
}

var requiredColumns = []column{colDate, colDistance, colDuration}

var tabularDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-1-2",
}

type columnIndex [numColumns]int

func (idx columnIndex) get(rec []string, c column) string {
	i := idx[c]
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func resolveColumns(header []string) columnIndex {
	var idx columnIndex
	for c := range idx {
		idx[c] = -1
	}
	for i, cell := range header {
		key := runlog.Fold(strings.TrimSpace(cell))
		for c, aliases := range columnAliases {
			if idx[c] >= 0 {
				continue
			}
			for _, alias := range aliases {
				if key == alias {
					idx[c] = i
					break
				}
			}
		}
	}
	return idx
}

func (p *parser) tabular(data []byte) Result {
	text := strings.TrimPrefix(string(data), "\ufeff")

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		header = nil
	}
	idx := resolveColumns(header)

	var missing []string
	for _, c := range requiredColumns {
		if idx[c] < 0 {
			missing = append(missing, columnNames[c])
		}
	}
	if len(missing) > 0 {
		p.logger.Warn().Strs("missing", missing).Msg("tabular header lacks required columns")
		return Result{Err: &MissingColumnsError{Missing: missing}}
	}

	var res Result
	row := 1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				p.skip(&res, row, perr.Err.Error())
				continue
			}
			p.skip(&res, row, err.Error())
			break
		}
		s, reason := p.tabularRow(rec, idx)
		if reason != "" {
			res.Skipped++
			p.logger.Debug().Int(rlog.FieldRow, row).Str(rlog.FieldReason, reason).Msg("skipped row")
			continue
		}
		res.Sessions = append(res.Sessions, s)
	}
	return res
}

func (p *parser) tabularRow(rec []string, idx columnIndex) (runlog.Session, string) {
	date, ok := parseTabularDate(idx.get(rec, colDate))
	if !ok {
		return runlog.Session{}, "unparseable date"
	}
	km, ok := parseDecimal(idx.get(rec, colDistance))
	if !ok || km <= 0 {
		return runlog.Session{}, "non-positive distance"
	}
	seconds, ok := runlog.ParseClock(idx.get(rec, colDuration))
	if !ok || seconds <= 0 {
		return runlog.Session{}, "non-positive duration"
	}

	s := runlog.NewSession(date, km, float64(seconds))
	if s.DistanceKm <= 0 {
		return runlog.Session{}, "non-positive distance"
	}
	s.Category = runlog.Classify(idx.get(rec, colType))
	if s.Category == runlog.CategoryTraining {
		s.Category = runlog.Classify(idx.get(rec, colTitle))
	}
	s.ElevationGainM = parseElevation(idx.get(rec, colGain))
	s.ElevationLossM = parseElevation(idx.get(rec, colLoss))
	s.Notes = provenance("CSV", idx.get(rec, colTitle))
	return s, ""
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab on the header line,
// ignoring quoted text. Ties favour the comma.
func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		line = text[:i]
	}
	counts := map[rune]int{}
	quoted := false
	for _, ch := range line {
		switch ch {
		case '"':
			quoted = !quoted
		case ',', ';', '\t':
			if !quoted {
				counts[ch]++
			}
		}
	}
	best := ','
	for _, ch := range []rune{';', '\t'} {
		if counts[ch] > counts[best] {
			best = ch
		}
	}
	return best
}

func parseTabularDate(value string) (string, bool) {
	if i := strings.IndexAny(value, " T"); i > 0 {
		value = value[:i]
	}
	for _, layout := range tabularDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(runlog.DateLayout), true
		}
	}
	return "", false
}

// parseDecimal accepts both "." and "," as the decimal separator.
func parseDecimal(value string) (float64, bool) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	if value == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || !isFinite(v) {
		return 0, false
	}
	return v, true
}

// parseElevation returns whole metres; placeholders like "--" and junk become 0.
func parseElevation(value string) int {
	v, ok := parseDecimal(value)
	if !ok || v <= 0 {
		return 0
	}
	return runlog.ElevationMeters(math.Trunc(v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func safePositive(v float64) float64 {
	if !isFinite(v) || v <= 0 {
		return 0
	}
	return v
}
