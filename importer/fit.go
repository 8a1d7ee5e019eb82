package importer

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tormoder/fit"

	"github.com/lucasjlepore/runlog"
)

// recordSeries is the per-record fallback used when session summaries are incomplete.
type recordSeries struct {
	start       time.Time
	end         time.Time
	durationSec float64

	lastDistanceMeters float64
	elevation          elevationWalker
}

func (p *parser) fit(data []byte) Result {
	decoded, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{Err: fmt.Errorf("%w: decode FIT file: %v", ErrUnrecognizedFormat, err)}
	}
	activity, err := decoded.Activity()
	if err != nil {
		return Result{Err: fmt.Errorf("%w: activity FIT expected: %v", ErrUnrecognizedFormat, err)}
	}

	series := buildRecordSeries(activity.Records)
	var res Result

	if len(activity.Sessions) == 0 {
		s, reason := p.fitSession(nil, series)
		if reason != "" {
			p.skip(&res, 1, reason)
			return res
		}
		res.Sessions = append(res.Sessions, s)
		return res
	}

	// Record fallbacks only describe the whole file, so they apply to single-session files.
	fallback := series
	if len(activity.Sessions) > 1 {
		fallback = recordSeries{}
	}
	for i, session := range activity.Sessions {
		if session == nil {
			continue
		}
		s, reason := p.fitSession(session, fallback)
		if reason != "" {
			p.skip(&res, i+1, reason)
			continue
		}
		res.Sessions = append(res.Sessions, s)
	}
	return res
}

func (p *parser) fitSession(session *fit.SessionMsg, series recordSeries) (runlog.Session, string) {
	var (
		start   time.Time
		seconds float64
		meters  float64
		gain    float64
		loss    float64
		label   string
	)
	if session != nil {
		start = validTimeOrZero(session.StartTime)
		seconds = safePositive(session.GetTotalTimerTimeScaled())
		if seconds == 0 {
			seconds = safePositive(session.GetTotalElapsedTimeScaled())
		}
		meters = safePositive(session.GetTotalDistanceScaled())
		gain = float64(validUint16(session.TotalAscent))
		loss = float64(validUint16(session.TotalDescent))
		label = strings.TrimSpace(fmt.Sprint(session.Sport) + " " + fmt.Sprint(session.SubSport))
	}

	if start.IsZero() {
		start = series.start
	}
	if seconds == 0 {
		seconds = series.durationSec
	}
	if meters == 0 {
		meters = series.lastDistanceMeters
	}
	if gain == 0 && loss == 0 {
		gain, loss = series.elevation.gain, series.elevation.loss
	}

	if start.IsZero() {
		return runlog.Session{}, "missing start time"
	}
	if meters <= 0 {
		return runlog.Session{}, "non-positive distance"
	}
	if seconds <= 0 {
		return runlog.Session{}, "non-positive duration"
	}

	s := runlog.NewSession(p.date(start), meters/1000, seconds)
	if !s.Valid() {
		return runlog.Session{}, "non-positive duration"
	}
	s.SetElevation(gain, loss)
	s.Category = runlog.Classify(label)
	s.Notes = provenance("FIT", strings.ToLower(label))
	return s, ""
}

func buildRecordSeries(records []*fit.RecordMsg) recordSeries {
	rs := recordSeries{}
	if len(records) == 0 {
		return rs
	}

	type row struct {
		ts time.Time
		r  *fit.RecordMsg
	}

	rows := make([]row, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		rows = append(rows, row{ts: rec.Timestamp, r: rec})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ts.Before(rows[j].ts)
	})

	haveStart := false
	for _, entry := range rows {
		rec := entry.r
		ts := validTimeOrZero(rec.Timestamp)
		if !ts.IsZero() {
			if !haveStart {
				rs.start = ts
				haveStart = true
			}
			rs.end = ts
		}

		if distance := safePositive(rec.GetDistanceScaled()); distance > 0 {
			rs.lastDistanceMeters = distance
		}
		if alt, ok := extractAltitude(rec); ok {
			rs.elevation.add(alt)
		}
	}

	if !rs.start.IsZero() && !rs.end.IsZero() && rs.end.After(rs.start) {
		rs.durationSec = rs.end.Sub(rs.start).Seconds()
	}
	return rs
}

func extractAltitude(rec *fit.RecordMsg) (float64, bool) {
	alt := rec.GetEnhancedAltitudeScaled()
	if isFinite(alt) && rec.EnhancedAltitude != math.MaxUint32 {
		return alt, true
	}
	alt = rec.GetAltitudeScaled()
	if isFinite(alt) && rec.Altitude != math.MaxUint16 {
		return alt, true
	}
	return 0, false
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func validUint16(v uint16) uint16 {
	if v == math.MaxUint16 {
		return 0
	}
	return v
}
