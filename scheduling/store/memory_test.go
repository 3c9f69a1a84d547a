package store_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-engine/scheduling"
	"github.com/warp/shift-engine/scheduling/store"
)

func sampleShift(id, date string) *scheduling.Shift {
	d, err := scheduling.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return &scheduling.Shift{
		ID:              scheduling.ShiftID(id),
		Role:            "Server",
		Date:            d,
		StartTime:       scheduling.NewClock(9, 0),
		EndTime:         scheduling.NewClock(17, 0),
		PayRate:         decimal.NewFromInt(18),
		Slots:           2,
		AssignedWorkers: []scheduling.WorkerID{},
		Status:          scheduling.StatusOpen,
	}
}

// =============================================================================
// CONDITIONAL WRITES
// =============================================================================

func TestMemory_CreateAndGet(t *testing.T) {
	m := store.NewMemory()

	snap, err := m.Put(context.Background(), sampleShift("s1", "2024-01-05"), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)

	got, err := m.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, snap.Shift, got.Shift)
	assert.Equal(t, int64(1), got.Version)
}

func TestMemory_CreateExisting(t *testing.T) {
	m := store.NewMemory()
	_, err := m.Put(context.Background(), sampleShift("s1", "2024-01-05"), 0)
	require.NoError(t, err)

	_, err = m.Put(context.Background(), sampleShift("s1", "2024-01-05"), 0)

	assert.ErrorIs(t, err, scheduling.ErrAlreadyExists)
}

func TestMemory_UpdateBumpsVersion(t *testing.T) {
	m := store.NewMemory()
	_, err := m.Put(context.Background(), sampleShift("s1", "2024-01-05"), 0)
	require.NoError(t, err)

	s := sampleShift("s1", "2024-01-05")
	s.Notes = "updated"
	snap, err := m.Put(context.Background(), s, 1)

	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
	assert.Equal(t, "updated", snap.Shift.Notes)
}

func TestMemory_StaleVersionRejected(t *testing.T) {
	// GIVEN: A record at version 2
	// WHEN: A writer commits against version 1
	// THEN: ErrConcurrentModification and the record is untouched

	m := store.NewMemory()
	_, err := m.Put(context.Background(), sampleShift("s1", "2024-01-05"), 0)
	require.NoError(t, err)
	_, err = m.Put(context.Background(), sampleShift("s1", "2024-01-05"), 1)
	require.NoError(t, err)

	stale := sampleShift("s1", "2024-01-05")
	stale.Notes = "stale write"
	_, err = m.Put(context.Background(), stale, 1)

	require.ErrorIs(t, err, scheduling.ErrConcurrentModification)
	assert.True(t, scheduling.IsRetryable(err))

	got, err := m.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
	assert.Empty(t, got.Shift.Notes)
}

func TestMemory_UpdateMissing(t *testing.T) {
	m := store.NewMemory()

	_, err := m.Put(context.Background(), sampleShift("s1", "2024-01-05"), 3)

	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}

func TestMemory_GetMissing(t *testing.T) {
	m := store.NewMemory()

	_, err := m.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}

func TestMemory_SnapshotsAreIsolated(t *testing.T) {
	// Mutating a returned snapshot must not leak into the store.
	m := store.NewMemory()
	_, err := m.Put(context.Background(), sampleShift("s1", "2024-01-05"), 0)
	require.NoError(t, err)

	snap, err := m.Get(context.Background(), "s1")
	require.NoError(t, err)
	snap.Shift.AssignedWorkers = append(snap.Shift.AssignedWorkers, "intruder")
	snap.Shift.Notes = "scribbled"

	got, err := m.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, got.Shift.AssignedWorkers)
	assert.Empty(t, got.Shift.Notes)
}

// =============================================================================
// DELETE / QUERY
// =============================================================================

func TestMemory_DeleteIdempotent(t *testing.T) {
	m := store.NewMemory()
	_, err := m.Put(context.Background(), sampleShift("s1", "2024-01-05"), 0)
	require.NoError(t, err)

	existed, err := m.Delete(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = m.Delete(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestMemory_QueryFilters(t *testing.T) {
	m := store.NewMemory()

	open := sampleShift("a-open", "2024-01-05")
	pending := sampleShift("b-pending", "2024-01-06")
	pending.Status = scheduling.StatusPending
	pending.FilledSlots = 1
	pending.AssignedWorkers = []scheduling.WorkerID{"w1"}
	late := sampleShift("c-late", "2024-02-01")

	for _, s := range []*scheduling.Shift{open, pending, late} {
		_, err := m.Put(context.Background(), s, 0)
		require.NoError(t, err)
	}

	t.Run("by status", func(t *testing.T) {
		got, err := m.Query(context.Background(), scheduling.Filter{
			Statuses: []scheduling.Status{scheduling.StatusPending},
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, scheduling.ShiftID("b-pending"), got[0].Shift.ID)
	})

	t.Run("by worker", func(t *testing.T) {
		got, err := m.Query(context.Background(), scheduling.Filter{Worker: "w1"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, scheduling.ShiftID("b-pending"), got[0].Shift.ID)
	})

	t.Run("by date range", func(t *testing.T) {
		from, err := scheduling.ParseDate("2024-01-06")
		require.NoError(t, err)
		to, err := scheduling.ParseDate("2024-01-31")
		require.NoError(t, err)
		got, err := m.Query(context.Background(), scheduling.Filter{DateFrom: &from, DateTo: &to})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, scheduling.ShiftID("b-pending"), got[0].Shift.ID)
	})

	t.Run("unfiltered ordered by id", func(t *testing.T) {
		got, err := m.Query(context.Background(), scheduling.Filter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, scheduling.ShiftID("a-open"), got[0].Shift.ID)
		assert.Equal(t, scheduling.ShiftID("b-pending"), got[1].Shift.ID)
		assert.Equal(t, scheduling.ShiftID("c-late"), got[2].Shift.ID)
	})
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

func TestMemory_SubscribeDeliversMatchingWrites(t *testing.T) {
	m := store.NewMemory()
	sub := m.Subscribe(scheduling.Filter{Statuses: []scheduling.Status{scheduling.StatusPending}})
	defer sub.Close()

	_, err := m.Put(context.Background(), sampleShift("s1", "2024-01-05"), 0)
	require.NoError(t, err)

	pending := sampleShift("s1", "2024-01-05")
	pending.Status = scheduling.StatusPending
	pending.FilledSlots = 1
	pending.AssignedWorkers = []scheduling.WorkerID{"w1"}
	want, err := m.Put(context.Background(), pending, 1)
	require.NoError(t, err)

	select {
	case snap := <-sub.Updates():
		// The open create must have been filtered out.
		assert.Equal(t, scheduling.StatusPending, snap.Shift.Status)
		assert.Equal(t, want.Version, snap.Version)
	default:
		t.Fatal("expected a buffered snapshot")
	}

	select {
	case snap, ok := <-sub.Updates():
		if ok {
			t.Fatalf("unexpected extra snapshot: %+v", snap)
		}
	default:
	}
}

func TestMemory_SubscribeVersionsMonotonicPerID(t *testing.T) {
	m := store.NewMemory()
	sub := m.Subscribe(scheduling.Filter{})
	defer sub.Close()

	_, err := m.Put(context.Background(), sampleShift("s1", "2024-01-05"), 0)
	require.NoError(t, err)
	for v := int64(1); v < 5; v++ {
		_, err := m.Put(context.Background(), sampleShift("s1", "2024-01-05"), v)
		require.NoError(t, err)
	}

	var last int64
	for i := 0; i < 5; i++ {
		snap := <-sub.Updates()
		assert.Greater(t, snap.Version, last)
		last = snap.Version
	}
}

func TestMemory_CloseIsIdempotentAndStopsDelivery(t *testing.T) {
	m := store.NewMemory()
	sub := m.Subscribe(scheduling.Filter{})

	sub.Close()
	sub.Close()

	_, err := m.Put(context.Background(), sampleShift("s1", "2024-01-05"), 0)
	require.NoError(t, err)

	_, ok := <-sub.Updates()
	assert.False(t, ok, "closed subscription must deliver nothing")
}
