package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/lucasjlepore/runlog"
	"github.com/lucasjlepore/runlog/geo"
)

func (p *parser) gpx(data []byte) Result {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: gpx: %v", ErrUnrecognizedFormat, err)}
	}

	var res Result
	for i, trk := range g.Tracks {
		s, reason := p.gpxSession(g, trk)
		if reason != "" {
			p.skip(&res, i+1, reason)
			continue
		}
		res.Sessions = append(res.Sessions, s)
	}
	return res
}

// gpxSession builds one session from a track. Points are taken across all segments in
// document order.
func (p *parser) gpxSession(g *gpx.GPX, trk gpx.GPXTrack) (runlog.Session, string) {
	var (
		path        []geo.Point
		walker      elevationWalker
		first, last time.Time
	)
	for _, seg := range trk.Segments {
		for _, pt := range seg.Points {
			path = append(path, geo.Point{Lat: pt.Latitude, Lon: pt.Longitude})
			if pt.Elevation.NotNull() {
				walker.add(pt.Elevation.Value())
			}
			if pt.Timestamp.IsZero() {
				continue
			}
			if first.IsZero() {
				first = pt.Timestamp
			}
			last = pt.Timestamp
		}
	}
	var day time.Time
	switch {
	case g.Time != nil && !g.Time.IsZero():
		day = *g.Time
	case !first.IsZero():
		day = first
	default:
		day = p.im.now()
	}

	if len(path) < 2 {
		return runlog.Session{}, "fewer than two points"
	}

	km := geo.PathKm(path)
	if km <= 0 {
		return runlog.Session{}, "non-positive distance"
	}
	if first.IsZero() || !last.After(first) {
		return runlog.Session{}, "non-positive duration"
	}

	s := runlog.NewSession(p.date(day), km, last.Sub(first).Seconds())
	if !s.Valid() {
		return runlog.Session{}, "non-positive duration"
	}
	s.SetElevation(walker.gain, walker.loss)
	s.Category = runlog.Classify(trk.Type)
	s.Location = strings.TrimSpace(trk.Name)
	s.Notes = provenance("GPX", "")
	return s, ""
}
