package runlog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var entryDurationPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d):([0-5]\d)$`)

// ToMinutes converts HH:MM:SS text to fractional minutes. Anything that is not three
// colon-separated integers yields 0; stored legacy data goes through here too, so a bad
// value degrades to zero instead of failing the caller.
func ToMinutes(text string) float64 {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 3 {
		return 0
	}
	var fields [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return 0
		}
		fields[i] = v
	}
	return float64(fields[0])*60 + float64(fields[1]) + float64(fields[2])/60.0
}

// FromMinutes renders fractional minutes as zero-padded HH:MM:SS, rounding to the
// nearest whole second. The hours field has no upper bound.
func FromMinutes(minutes float64) string {
	if !isFinite(minutes) || minutes <= 0 {
		return "00:00:00"
	}
	total := int64(math.Round(minutes * 60))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// IsValidEntryFormat is the manual-entry check: exactly HH:MM:SS with hours 0-23 and
// minutes/seconds 0-59.
func IsValidEntryFormat(text string) bool {
	return entryDurationPattern.MatchString(text)
}

// ParseClock parses H:MM:SS with an optional fractional-seconds suffix and returns whole
// seconds; the fraction is truncated. ok is false for anything else.
func ParseClock(text string) (seconds int, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	parts := strings.Split(text, ":")
	if len(parts) != 3 {
		return 0, false
	}
	secPart := parts[2]
	if dot := strings.IndexAny(secPart, ".,"); dot >= 0 {
		secPart = secPart[:dot]
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	s, err := strconv.Atoi(secPart)
	if err != nil || s < 0 || s > 59 {
		return 0, false
	}
	return h*3600 + m*60 + s, true
}
