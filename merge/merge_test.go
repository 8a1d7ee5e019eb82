package merge

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/runlog"
)

func session(id, date string, km float64, duration string) runlog.Session {
	return runlog.Session{
		ID:              id,
		Date:            date,
		DistanceKm:      km,
		Duration:        duration,
		DurationMinutes: runlog.ToMinutes(duration),
		Category:        runlog.CategoryTraining,
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "new-" + strconv.Itoa(n)
	}
}

func TestByIdentityEquipmentOnlyUpdate(t *testing.T) {
	local := session("1", "2024-03-01", 10, "00:50:00")
	local.Notes = "felt great"
	local.Equipment = "Old shoes"

	incoming := session("1", "2024-03-01", 12, "01:00:00")
	incoming.Notes = "overwritten?"
	incoming.Equipment = "Pegasus 40"

	rep := ByIdentity([]runlog.Session{local}, []runlog.Session{incoming})
	require.Len(t, rep.Sessions, 1)
	assert.Equal(t, 1, rep.Updated)
	assert.Equal(t, 0, rep.Added)
	assert.True(t, rep.Changed())

	want := local
	want.Equipment = "Pegasus 40"
	if diff := cmp.Diff(want, rep.Sessions[0]); diff != "" {
		t.Fatalf("merged session mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Old shoes", local.Equipment, "input must not be mutated")
}

func TestByIdentityInsertsAndSkips(t *testing.T) {
	existing := []runlog.Session{session("1", "2024-03-01", 10, "00:50:00")}
	fresh := session("2", "2024-03-02", 5, "")
	fresh.DurationMinutes = 25
	fresh.Category = "rodaje"

	same := session("1", "2024-03-01", 10, "00:50:00")
	noID := session("", "2024-03-03", 5, "00:25:00")

	rep := ByIdentity(existing, []runlog.Session{fresh, same, noID})
	assert.Equal(t, 1, rep.Added)
	assert.Equal(t, 0, rep.Updated)
	assert.Equal(t, 1, rep.Duplicates)
	assert.Equal(t, 1, rep.Skipped)
	require.Len(t, rep.Sessions, 2)

	inserted := rep.Sessions[1]
	assert.Equal(t, "2", inserted.ID)
	assert.Equal(t, runlog.CategoryTraining, inserted.Category)
	assert.Equal(t, "00:25:00", inserted.Duration)
}

func TestByIdentityNoopWhenNothingNew(t *testing.T) {
	existing := []runlog.Session{session("1", "2024-03-01", 10, "00:50:00")}
	rep := ByIdentity(existing, existing)
	assert.False(t, rep.Changed())
}

func TestFuzzyDuplicateWithinThreshold(t *testing.T) {
	existing := []runlog.Session{session("1", "2024-03-01", 10.00, "00:50:00")}
	incoming := []runlog.Session{
		session("", "2024-03-01", 10.02, "00:49:00"),
		session("", "2024-03-01", 10.10, "00:51:00"),
		session("", "2024-03-02", 10.00, "00:50:00"),
	}

	rep := Fuzzy(existing, incoming, sequentialIDs())
	assert.Equal(t, 2, rep.Added)
	assert.Equal(t, 1, rep.Duplicates)
	require.Len(t, rep.Sessions, 3)
	assert.Equal(t, "new-1", rep.Sessions[1].ID)
	assert.Equal(t, 10.10, rep.Sessions[1].DistanceKm)
	assert.Equal(t, "new-2", rep.Sessions[2].ID)
}

func TestFuzzyDedupesWithinBatch(t *testing.T) {
	incoming := []runlog.Session{
		session("", "2024-04-01", 8.00, "00:40:00"),
		session("", "2024-04-01", 8.05, "00:40:30"),
		session("", "2024-04-01", 0, "00:40:30"),
	}

	rep := Fuzzy(nil, incoming, nil)
	assert.Equal(t, 1, rep.Added)
	assert.Equal(t, 1, rep.Duplicates)
	assert.Equal(t, 1, rep.Skipped)
	require.Len(t, rep.Sessions, 1)
	assert.NotEmpty(t, rep.Sessions[0].ID)
}

func TestIsDuplicateBoundary(t *testing.T) {
	assert.True(t, IsDuplicate([]float64{5.0}, 5.09))
	assert.False(t, IsDuplicate([]float64{5.0}, 5.1))
	assert.False(t, IsDuplicate(nil, 5.0))
}
