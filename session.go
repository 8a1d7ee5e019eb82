// Package runlog models a personal training log: canonical session records,
// duration and category normalization, and aggregate statistics.
package runlog

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DateLayout is the calendar-day layout used by Session.Date.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidEntry is returned when a manually entered session fails validation.
	ErrInvalidEntry = errors.New("invalid session entry")
)

// Session is the canonical record for one completed activity, regardless of origin.
type Session struct {
	ID              string   `json:"id"`
	Date            string   `json:"date"`
	DistanceKm      float64  `json:"distanceKm"`
	Duration        string   `json:"duration"`
	DurationMinutes float64  `json:"durationMinutes"`
	Category        Category `json:"type"`
	Location        string   `json:"location"`
	Notes           string   `json:"notes"`
	ElevationGainM  int      `json:"elevationGain"`
	ElevationLossM  int      `json:"elevationLoss"`
	Equipment       string   `json:"equipment"`
}

// NewSession builds a session for the given local day, distance and elapsed seconds.
// Distance is rounded to two decimals and seconds are floored, so that Duration and
// DurationMinutes always agree.
func NewSession(date string, distanceKm, seconds float64) Session {
	secs := 0.0
	if isFinite(seconds) && seconds > 0 {
		secs = math.Floor(seconds)
	}
	minutes := secs / 60.0
	return Session{
		Date:            date,
		DistanceKm:      RoundKm(distanceKm),
		Duration:        FromMinutes(minutes),
		DurationMinutes: minutes,
		Category:        CategoryTraining,
	}
}

// Valid reports whether the session is a completed activity: positive distance
// and positive duration.
func (s Session) Valid() bool {
	return s.DistanceKm > 0 && s.DurationMinutes > 0
}

// Normalize repairs a record read from storage or an external batch: the category is
// collapsed onto the canonical set, DurationMinutes is recomputed from Duration and
// elevation is clamped at zero.
func (s Session) Normalize() Session {
	s.Category = NormalizeCategory(string(s.Category))
	if strings.TrimSpace(s.Duration) != "" {
		s.DurationMinutes = ToMinutes(s.Duration)
	} else if s.DurationMinutes > 0 {
		s.Duration = FromMinutes(s.DurationMinutes)
	}
	if s.ElevationGainM < 0 {
		s.ElevationGainM = 0
	}
	if s.ElevationLossM < 0 {
		s.ElevationLossM = 0
	}
	return s
}

// SetElevation stores accumulated gain and loss in metres via ElevationMeters.
func (s *Session) SetElevation(gain, loss float64) {
	s.ElevationGainM = ElevationMeters(gain)
	s.ElevationLossM = ElevationMeters(loss)
}

// MaxElevationM is the largest elevation value kept; anything above it is sensor junk.
const MaxElevationM = math.MaxInt32

// ElevationMeters rounds v to whole metres. Negative, non-finite and out-of-range values
// become 0.
func ElevationMeters(v float64) int {
	v = safePositive(v)
	if v > MaxElevationM {
		return 0
	}
	return int(math.Round(v))
}

// AppendNote adds text to the notes field on its own line.
func (s *Session) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if s.Notes == "" {
		s.Notes = note
		return
	}
	s.Notes += "\n" + note
}

// Entry is the manual form input for a session.
type Entry struct {
	Date           string
	DistanceKm     float64
	Duration       string
	Category       Category
	Location       string
	Notes          string
	ElevationGainM int
	ElevationLossM int
	Equipment      string
}

// NewEntry validates manual input and returns the session to store. Manual entries use
// the stricter HH:MM:SS bound (hours 0-23); imported data is not subject to it.
func NewEntry(e Entry, now time.Time) (Session, error) {
	if _, err := ParseDate(e.Date); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if !isFinite(e.DistanceKm) || e.DistanceKm <= 0 {
		return Session{}, fmt.Errorf("%w: distance must be positive", ErrInvalidEntry)
	}
	if !IsValidEntryFormat(e.Duration) {
		return Session{}, fmt.Errorf("%w: duration %q is not HH:MM:SS", ErrInvalidEntry, e.Duration)
	}
	minutes := ToMinutes(e.Duration)
	if minutes <= 0 {
		return Session{}, fmt.Errorf("%w: duration must be positive", ErrInvalidEntry)
	}
	if e.ElevationGainM < 0 || e.ElevationLossM < 0 {
		return Session{}, fmt.Errorf("%w: elevation must not be negative", ErrInvalidEntry)
	}

	s := Session{
		ID:              NewLocalID(now),
		Date:            e.Date,
		DistanceKm:      RoundKm(e.DistanceKm),
		Duration:        e.Duration,
		DurationMinutes: minutes,
		Category:        NormalizeCategory(string(e.Category)),
		Location:        strings.TrimSpace(e.Location),
		Notes:           strings.TrimSpace(e.Notes),
		ElevationGainM:  e.ElevationGainM,
		ElevationLossM:  e.ElevationLossM,
		Equipment:       strings.TrimSpace(e.Equipment),
	}
	return s, nil
}

var (
	localIDMu   sync.Mutex
	lastLocalID int64
)

// NewLocalID returns a millisecond timestamp identifier that is strictly increasing
// within the process, even for calls within the same millisecond.
func NewLocalID(now time.Time) string {
	localIDMu.Lock()
	defer localIDMu.Unlock()

	id := now.UnixMilli()
	if id <= lastLocalID {
		id = lastLocalID + 1
	}
	lastLocalID = id
	return strconv.FormatInt(id, 10)
}

// RemoveSession returns sessions without the record carrying id, and whether it was found.
func RemoveSession(sessions []Session, id string) ([]Session, bool) {
	out := make([]Session, 0, len(sessions))
	found := false
	for _, s := range sessions {
		if s.ID == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	return out, found
}

// ParseDate validates a YYYY-MM-DD day.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return t, nil
}

// DateOf returns the calendar day of t in loc. A nil loc keeps t's own location.
func DateOf(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// RoundKm rounds a distance to two decimals; negative and non-finite values become 0.
func RoundKm(km float64) float64 {
	km = safePositive(km)
	return math.Round(km*100) / 100
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
