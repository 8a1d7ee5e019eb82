package importer

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/lucasjlepore/runlog"
)

// tcxNode is an Activity or a Course. Numeric fields are kept as text so that one
// malformed value skips a node instead of failing the document.
type tcxNode struct {
	Sport            string          `xml:"Sport,attr"`
	ID               string          `xml:"Id"`
	Name             string          `xml:"Name"`
	Notes            string          `xml:"Notes"`
	TotalTimeSeconds string          `xml:"TotalTimeSeconds"`
	TotalAscent      string          `xml:"TotalAscent"`
	TotalDescent     string          `xml:"TotalDescent"`
	Laps             []tcxLap        `xml:"Lap"`
	Trackpoints      []tcxTrackpoint `xml:"Track>Trackpoint"`
}

type tcxLap struct {
	StartTime        string          `xml:"StartTime,attr"`
	TotalTimeSeconds string          `xml:"TotalTimeSeconds"`
	DistanceMeters   string          `xml:"DistanceMeters"`
	TotalAscent      string          `xml:"TotalAscent"`
	TotalDescent     string          `xml:"TotalDescent"`
	Trackpoints      []tcxTrackpoint `xml:"Track>Trackpoint"`
}

type tcxTrackpoint struct {
	Time           string `xml:"Time"`
	AltitudeMeters string `xml:"AltitudeMeters"`
	DistanceMeters string `xml:"DistanceMeters"`
}

func (p *parser) tcx(data []byte) Result {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		res      Result
		sawRoot  bool
		node     int
		sessions []runlog.Session
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{Err: fmt.Errorf("%w: tcx: %v", ErrUnrecognizedFormat, err)}
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			if se.Name.Local != "TrainingCenterDatabase" {
				return Result{Err: fmt.Errorf("%w: tcx root is <%s>", ErrUnrecognizedFormat, se.Name.Local)}
			}
			sawRoot = true
			continue
		}
		if se.Name.Local != "Activity" && se.Name.Local != "Course" {
			continue
		}

		var n tcxNode
		if err := dec.DecodeElement(&n, &se); err != nil {
			return Result{Err: fmt.Errorf("%w: tcx: %v", ErrUnrecognizedFormat, err)}
		}
		node++
		s, reason := p.tcxSession(n)
		if reason != "" {
			p.skip(&res, node, reason)
			continue
		}
		sessions = append(sessions, s)
	}
	if !sawRoot {
		return Result{Err: fmt.Errorf("%w: empty tcx document", ErrUnrecognizedFormat)}
	}
	res.Sessions = sessions
	return res
}

func (p *parser) tcxSession(n tcxNode) (runlog.Session, string) {
	var (
		meters  float64
		seconds float64
		walker  elevationWalker
		start   time.Time
		trackKm float64
	)

	for _, lap := range n.Laps {
		if v, ok := parseFloat(lap.DistanceMeters); ok {
			meters += safePositive(v)
		}
		if v, ok := parseFloat(lap.TotalTimeSeconds); ok {
			seconds += safePositive(v)
		}
		if start.IsZero() {
			start = parseTimestamp(lap.StartTime, p.im.loc)
		}
		p.walkTrackpoints(lap.Trackpoints, &walker, &start, &trackKm)
	}
	p.walkTrackpoints(n.Trackpoints, &walker, &start, &trackKm)

	if v, ok := parseFloat(n.TotalTimeSeconds); ok && v > 0 {
		seconds = v
	}
	if meters <= 0 {
		meters = trackKm * 1000
	}
	if meters <= 0 {
		return runlog.Session{}, "non-positive distance"
	}
	if seconds <= 0 {
		return runlog.Session{}, "non-positive duration"
	}

	if t := parseTimestamp(n.ID, p.im.loc); !t.IsZero() {
		start = t
	}
	if start.IsZero() {
		return runlog.Session{}, "missing start time"
	}

	s := runlog.NewSession(p.date(start), meters/1000, seconds)
	if !s.Valid() {
		return runlog.Session{}, "non-positive duration"
	}

	gain, loss := walker.gain, walker.loss
	if walker.count < 2 {
		gain, loss = declaredElevation(n)
	}
	s.SetElevation(gain, loss)

	s.Category = runlog.Classify(n.Name)
	if s.Category == runlog.CategoryTraining {
		s.Category = runlog.Classify(n.Notes)
	}
	s.Location = strings.TrimSpace(n.Name)
	s.Notes = provenance("TCX", "")
	return s, ""
}

// walkTrackpoints feeds altitudes into walker, fills start from the first timestamp and
// tracks the largest cumulative distance seen, in kilometres.
func (p *parser) walkTrackpoints(points []tcxTrackpoint, walker *elevationWalker, start *time.Time, maxKm *float64) {
	for _, tp := range points {
		if alt, ok := parseFloat(tp.AltitudeMeters); ok {
			walker.add(alt)
		}
		if start.IsZero() {
			*start = parseTimestamp(tp.Time, p.im.loc)
		}
		if d, ok := parseFloat(tp.DistanceMeters); ok && d/1000 > *maxKm {
			*maxKm = d / 1000
		}
	}
}

// declaredElevation sums the TotalAscent and TotalDescent values some exporters write
// instead of an altitude trace.
func declaredElevation(n tcxNode) (gain, loss float64) {
	if v, ok := parseFloat(n.TotalAscent); ok {
		gain = v
	}
	if v, ok := parseFloat(n.TotalDescent); ok {
		loss = v
	}
	if gain > 0 || loss > 0 {
		return gain, loss
	}
	for _, lap := range n.Laps {
		if v, ok := parseFloat(lap.TotalAscent); ok {
			gain += safePositive(v)
		}
		if v, ok := parseFloat(lap.TotalDescent); ok {
			loss += safePositive(v)
		}
	}
	return gain, loss
}

func parseFloat(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || !isFinite(v) {
		return 0, false
	}
	return v, true
}

// zonelessLayout is an xsd:dateTime without an offset; such values are wall-clock time
// in loc.
const zonelessLayout = "2006-01-02T15:04:05"

func parseTimestamp(value string, loc *time.Location) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(zonelessLayout, value, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}
