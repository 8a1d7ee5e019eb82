// Package merge folds incoming sessions into an existing log without duplicating
// activities. Two strategies exist: identity merge for runlog backups, where ids are
// authoritative, and fuzzy merge for third-party imports, where the same run may arrive
// twice from different exporters.
package merge

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/lucasjlepore/runlog"
)

// DuplicateDistanceKm is the distance difference under which two sessions on the same
// day are considered the same activity.
const DuplicateDistanceKm = 0.1

// distanceEpsilon absorbs float error on two-decimal distances so that a difference of
// exactly DuplicateDistanceKm is not a duplicate.
const distanceEpsilon = 1e-9

// Report is the merged log plus counters describing what changed.
type Report struct {
	Sessions   []runlog.Session
	Added      int
	Updated    int
	Duplicates int
	Skipped    int
}

// Changed reports whether the merge produced anything worth persisting.
func (r Report) Changed() bool {
	return r.Added > 0 || r.Updated > 0
}

// ByIdentity merges incoming records by id. Unknown ids are appended after
// normalization. For known ids only the equipment field is taken from the incoming
// record, and only when it is set and differs. Records without an id are skipped.
// Neither input slice is modified.
func ByIdentity(existing, incoming []runlog.Session) Report {
	rep := Report{Sessions: append([]runlog.Session(nil), existing...)}
	pos := make(map[string]int, len(rep.Sessions)+len(incoming))
	for i, s := range rep.Sessions {
		if s.ID != "" {
			pos[s.ID] = i
		}
	}

	for _, in := range incoming {
		id := strings.TrimSpace(in.ID)
		if id == "" {
			rep.Skipped++
			continue
		}
		if i, ok := pos[id]; ok {
			equipment := strings.TrimSpace(in.Equipment)
			if equipment != "" && equipment != rep.Sessions[i].Equipment {
				rep.Sessions[i].Equipment = equipment
				rep.Updated++
			} else {
				rep.Duplicates++
			}
			continue
		}
		s := in.Normalize()
		s.ID = id
		pos[id] = len(rep.Sessions)
		rep.Sessions = append(rep.Sessions, s)
		rep.Added++
	}
	return rep
}

// Fuzzy merges third-party imports. An incoming session is a duplicate when a session
// on the same date, existing or accepted earlier in this batch, is within
// DuplicateDistanceKm. Accepted sessions are normalized and given a fresh id from newID;
// a nil newID uses random UUIDs. Invalid sessions are skipped. Neither input slice is
// modified.
func Fuzzy(existing, incoming []runlog.Session, newID func() string) Report {
	if newID == nil {
		newID = uuid.NewString
	}
	rep := Report{Sessions: append([]runlog.Session(nil), existing...)}
	byDate := make(map[string][]float64, len(rep.Sessions))
	for _, s := range rep.Sessions {
		byDate[s.Date] = append(byDate[s.Date], s.DistanceKm)
	}

	for _, in := range incoming {
		if !in.Valid() {
			rep.Skipped++
			continue
		}
		if IsDuplicate(byDate[in.Date], in.DistanceKm) {
			rep.Duplicates++
			continue
		}
		s := in.Normalize()
		s.ID = newID()
		byDate[s.Date] = append(byDate[s.Date], s.DistanceKm)
		rep.Sessions = append(rep.Sessions, s)
		rep.Added++
	}
	return rep
}

// IsDuplicate reports whether km is within DuplicateDistanceKm of any of the distances
// already logged for the day.
func IsDuplicate(dayDistances []float64, km float64) bool {
	for _, d := range dayDistances {
		if math.Abs(d-km) < DuplicateDistanceKm-distanceEpsilon {
			return true
		}
	}
	return false
}
