/*
store.go - Persistence contract for shift records

PURPOSE:
  Defines the interface between the engine and durable storage. The store is
  a shared mutable resource accessed by many independent callers, so every
  write is conditional: it commits only if the record is unchanged since the
  writer last read it.

VERSIONING CONTRACT:
  Every snapshot carries a monotonically increasing Version. Put takes the
  version the writer read; a mismatch means another writer got there first
  and Put fails with ErrConcurrentModification. expectedVersion 0 means
  "create new" and fails with ErrAlreadyExists if the id is taken.

SUBSCRIPTIONS:
  Subscribe registers a filter and returns a channel of snapshots, delivered
  whenever a matching record changes. Per-record delivery is monotonic: a
  subscriber never sees an older version after a newer one for the same id.
  Fanout never blocks writers; a slow subscriber drops intermediate snapshots.

IMPLEMENTATIONS:
  - scheduling/store/memory.go: In-memory, for testing and dev
  - store/sqlite/sqlite.go:     SQLite, production shape

SEE ALSO:
  - allocator.go: The only writer; drives the read-validate-CAS loop
*/
package scheduling

import "context"

// Snapshot is a point-in-time view of a shift record plus its store version.
type Snapshot struct {
	Shift   Shift
	Version int64
}

// Filter selects shift records for Query and Subscribe. Zero-value fields
// match everything.
type Filter struct {
	// Statuses restricts to the given statuses when non-empty.
	Statuses []Status

	// Worker restricts to shifts where the worker holds a slot.
	Worker WorkerID

	// DateFrom / DateTo bound the shift date inclusively when non-nil.
	DateFrom *Date
	DateTo   *Date
}

// Matches reports whether s satisfies every set field of the filter.
func (f Filter) Matches(s *Shift) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if s.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Worker != "" && !s.IsAssigned(f.Worker) {
		return false
	}
	if f.DateFrom != nil && s.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && s.Date.After(*f.DateTo) {
		return false
	}
	return true
}

// Subscription is a live feed of matching snapshots. Close releases the
// subscription; the Updates channel is closed afterwards.
type Subscription interface {
	Updates() <-chan Snapshot
	Close()
}

// RecordStore is the durable storage contract for shift records.
type RecordStore interface {
	// Get returns the current snapshot for id, or ErrNotFound.
	Get(ctx context.Context, id ShiftID) (*Snapshot, error)

	// Put writes the record conditionally. expectedVersion 0 creates a new
	// record (ErrAlreadyExists if taken); otherwise the write commits only if
	// the stored version still equals expectedVersion, failing with
	// ErrConcurrentModification. Returns the committed snapshot.
	Put(ctx context.Context, s *Shift, expectedVersion int64) (*Snapshot, error)

	// Delete removes the record. Idempotent: reports whether a record
	// existed, never errors on absence.
	Delete(ctx context.Context, id ShiftID) (bool, error)

	// Query returns snapshots of all records matching the filter.
	Query(ctx context.Context, f Filter) ([]Snapshot, error)

	// Subscribe delivers a snapshot whenever a record matching the filter
	// changes.
	Subscribe(f Filter) Subscription
}
