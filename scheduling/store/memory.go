// Package store provides RecordStore implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/shift-engine/scheduling"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is a versioned in-memory RecordStore. Writes are compare-and-set on
// the record version; subscribers receive snapshots via buffered channels.
type Memory struct {
	mu      sync.RWMutex
	records map[scheduling.ShiftID]*record
	subs    map[int]*memorySub
	nextSub int
}

type record struct {
	shift   scheduling.Shift
	version int64
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[scheduling.ShiftID]*record),
		subs:    make(map[int]*memorySub),
	}
}

func (m *Memory) Get(_ context.Context, id scheduling.ShiftID) (*scheduling.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("shift %s: %w", id, scheduling.ErrNotFound)
	}
	return &scheduling.Snapshot{Shift: *rec.shift.Clone(), Version: rec.version}, nil
}

// Put commits s only if the stored version matches expectedVersion.
// expectedVersion 0 creates the record.
func (m *Memory) Put(_ context.Context, s *scheduling.Shift, expectedVersion int64) (*scheduling.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, exists := m.records[s.ID]
	switch {
	case expectedVersion == 0 && exists:
		return nil, fmt.Errorf("shift %s: %w", s.ID, scheduling.ErrAlreadyExists)
	case expectedVersion != 0 && !exists:
		return nil, fmt.Errorf("shift %s: %w", s.ID, scheduling.ErrNotFound)
	case expectedVersion != 0 && cur.version != expectedVersion:
		return nil, fmt.Errorf("shift %s: version %d, expected %d: %w",
			s.ID, cur.version, expectedVersion, scheduling.ErrConcurrentModification)
	}

	stored := s.Clone()
	stored.Normalize()

	rec := &record{shift: *stored, version: expectedVersion + 1}
	m.records[s.ID] = rec

	snap := scheduling.Snapshot{Shift: *stored.Clone(), Version: rec.version}
	m.notifyLocked(snap)
	return &snap, nil
}

// Delete removes the record. Idempotent.
func (m *Memory) Delete(_ context.Context, id scheduling.ShiftID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, existed := m.records[id]
	delete(m.records, id)
	return existed, nil
}

// Query returns matching snapshots ordered by id for determinism.
func (m *Memory) Query(_ context.Context, f scheduling.Filter) ([]scheduling.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []scheduling.Snapshot
	for _, rec := range m.records {
		if f.Matches(&rec.shift) {
			result = append(result, scheduling.Snapshot{Shift: *rec.shift.Clone(), Version: rec.version})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Shift.ID < result[j].Shift.ID
	})
	return result, nil
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

const subscriptionBuffer = 16

type memorySub struct {
	id     int
	filter scheduling.Filter
	ch     chan scheduling.Snapshot
	parent *Memory
	once   sync.Once
}

func (s *memorySub) Updates() <-chan scheduling.Snapshot { return s.ch }

func (s *memorySub) Close() {
	s.once.Do(func() {
		s.parent.mu.Lock()
		delete(s.parent.subs, s.id)
		s.parent.mu.Unlock()
		close(s.ch)
	})
}

// Subscribe registers a filter and returns a feed of matching snapshots.
func (m *Memory) Subscribe(f scheduling.Filter) scheduling.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := &memorySub{
		id:     m.nextSub,
		filter: f,
		ch:     make(chan scheduling.Snapshot, subscriptionBuffer),
		parent: m,
	}
	m.subs[m.nextSub] = sub
	m.nextSub++
	return sub
}

// notifyLocked fans a committed snapshot out to matching subscribers.
// Sends never block the writer: a subscriber with a full buffer misses this
// snapshot, which keeps per-id delivery monotonic (it only ever skips
// forward, never back).
func (m *Memory) notifyLocked(snap scheduling.Snapshot) {
	for _, sub := range m.subs {
		if !sub.filter.Matches(&snap.Shift) {
			continue
		}
		select {
		case sub.ch <- snap:
		default:
		}
	}
}
