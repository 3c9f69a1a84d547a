/*
Package sqlite provides a SQLite-backed implementation of scheduling.RecordStore.

PURPOSE:
  Durable shift storage with the conditional-write discipline the allocator
  depends on. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

CONDITIONAL WRITES:
  Every record carries a version column. Updates are compare-and-set:

    UPDATE shifts SET ..., version = version + 1
    WHERE id = ? AND version = ?

  Zero rows affected means another writer committed first and the caller
  gets scheduling.ErrConcurrentModification. Creates insert at version 1 and
  fail with scheduling.ErrAlreadyExists when the id is taken.

QUERYING:
  Status and date-range predicates run in SQL; worker-membership filtering
  happens in Go over the JSON-encoded assignment set, which stays small
  (bounded by a shift's slot count).

CHANGE NOTIFICATION:
  Subscribers are registered in-process and receive the committed snapshot
  after each matching write. A write mutex spans the conditional write and
  the fanout, so subscribers see versions in commit order; the fanout itself
  never blocks writers.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/shifts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  allocator := scheduling.NewSlotAllocator(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - scheduling/store.go: Interface definition and versioning contract
  - scheduling/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/shift-engine/scheduling"
)

// Store implements scheduling.RecordStore using SQLite.
type Store struct {
	db *sql.DB

	// writeMu serializes the conditional write with its subscriber fanout.
	// Without it, writer A could commit v2, lose the CPU, and fan out after
	// writer B has already committed and fanned out v3, handing subscribers
	// v3 then v2 for the same id.
	writeMu sync.Mutex

	mu      sync.Mutex
	subs    map[int]*sqliteSub
	nextSub int
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, subs: make(map[int]*sqliteSub)}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shifts (
		id               TEXT PRIMARY KEY,
		version          INTEGER NOT NULL,
		role             TEXT NOT NULL,
		date             TEXT NOT NULL,
		start_time       TEXT NOT NULL,
		end_time         TEXT NOT NULL,
		pay_rate         TEXT NOT NULL,
		slots            INTEGER NOT NULL,
		filled_slots     INTEGER NOT NULL,
		assigned_workers TEXT NOT NULL,
		status           TEXT NOT NULL,
		tips_included    INTEGER NOT NULL DEFAULT 0,
		bonus_available  INTEGER NOT NULL DEFAULT 0,
		overtime_pay     INTEGER NOT NULL DEFAULT 0,
		pay_hidden       INTEGER NOT NULL DEFAULT 0,
		notes            TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_status ON shifts(status);
	CREATE INDEX IF NOT EXISTS idx_shifts_date ON shifts(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE
// =============================================================================

const shiftColumns = `id, version, role, date, start_time, end_time, pay_rate,
	slots, filled_slots, assigned_workers, status,
	tips_included, bonus_available, overtime_pay, pay_hidden, notes, created_at`

func (s *Store) Get(ctx context.Context, id scheduling.ShiftID) (*scheduling.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, string(id))

	snap, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shift %s: %w", id, scheduling.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read shift %s: %w", id, err)
	}
	return snap, nil
}

// Put commits the record iff the stored version still equals expectedVersion.
func (s *Store) Put(ctx context.Context, shift *scheduling.Shift, expectedVersion int64) (*scheduling.Snapshot, error) {
	stored := shift.Clone()
	stored.Normalize()

	workers, err := json.Marshal(stored.AssignedWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assignments: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if expectedVersion == 0 {
		err = s.insert(ctx, stored, workers)
	} else {
		err = s.update(ctx, stored, workers, expectedVersion)
	}
	if err != nil {
		return nil, err
	}

	snap := scheduling.Snapshot{Shift: *stored, Version: expectedVersion + 1}
	s.notify(snap)
	return &snap, nil
}

func (s *Store) insert(ctx context.Context, shift *scheduling.Shift, workers []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (`+shiftColumns+`)
		VALUES (?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(shift.ID), shift.Role, shift.Date.String(),
		shift.StartTime.String(), shift.EndTime.String(), shift.PayRate.String(),
		shift.Slots, shift.FilledSlots, string(workers), string(shift.Status),
		shift.Flags.TipsIncluded, shift.Flags.BonusAvailable,
		shift.Flags.OvertimePay, shift.Flags.PayHidden,
		shift.Notes, shift.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("shift %s: %w", shift.ID, scheduling.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert shift %s: %w", shift.ID, err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, shift *scheduling.Shift, workers []byte, expectedVersion int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE shifts SET
			version = version + 1,
			role = ?, date = ?, start_time = ?, end_time = ?, pay_rate = ?,
			slots = ?, filled_slots = ?, assigned_workers = ?, status = ?,
			tips_included = ?, bonus_available = ?, overtime_pay = ?, pay_hidden = ?,
			notes = ?
		WHERE id = ? AND version = ?`,
		shift.Role, shift.Date.String(),
		shift.StartTime.String(), shift.EndTime.String(), shift.PayRate.String(),
		shift.Slots, shift.FilledSlots, string(workers), string(shift.Status),
		shift.Flags.TipsIncluded, shift.Flags.BonusAvailable,
		shift.Flags.OvertimePay, shift.Flags.PayHidden,
		shift.Notes,
		string(shift.ID), expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update shift %s: %w", shift.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update shift %s: %w", shift.ID, err)
	}
	if affected == 0 {
		// Either the record is gone or another writer bumped the version.
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM shifts WHERE id = ?`, string(shift.ID)).Scan(&exists); err == nil && exists == 0 {
			return fmt.Errorf("shift %s: %w", shift.ID, scheduling.ErrNotFound)
		}
		return fmt.Errorf("shift %s at version %d: %w",
			shift.ID, expectedVersion, scheduling.ErrConcurrentModification)
	}
	return nil
}

// Delete removes the record. Idempotent.
func (s *Store) Delete(ctx context.Context, id scheduling.ShiftID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = ?`, string(id))
	if err != nil {
		return false, fmt.Errorf("failed to delete shift %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete shift %s: %w", id, err)
	}
	return affected > 0, nil
}

// Query runs status and date predicates in SQL and worker membership in Go.
func (s *Store) Query(ctx context.Context, f scheduling.Filter) ([]scheduling.Snapshot, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts`
	var clauses []string
	var args []any

	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		clauses = append(clauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if f.DateFrom != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, f.DateFrom.String())
	}
	if f.DateTo != nil {
		clauses = append(clauses, "date <= ?")
		args = append(args, f.DateTo.String())
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var result []scheduling.Snapshot
	for rows.Next() {
		snap, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		if f.Worker != "" && !snap.Shift.IsAssigned(f.Worker) {
			continue
		}
		result = append(result, *snap)
	}
	return result, rows.Err()
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

const subscriptionBuffer = 16

type sqliteSub struct {
	id     int
	filter scheduling.Filter
	ch     chan scheduling.Snapshot
	parent *Store
	once   sync.Once
}

func (sub *sqliteSub) Updates() <-chan scheduling.Snapshot { return sub.ch }

func (sub *sqliteSub) Close() {
	sub.once.Do(func() {
		sub.parent.mu.Lock()
		delete(sub.parent.subs, sub.id)
		sub.parent.mu.Unlock()
		close(sub.ch)
	})
}

// Subscribe registers a filter and returns a feed of matching snapshots.
func (s *Store) Subscribe(f scheduling.Filter) scheduling.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &sqliteSub{
		id:     s.nextSub,
		filter: f,
		ch:     make(chan scheduling.Snapshot, subscriptionBuffer),
		parent: s,
	}
	s.subs[s.nextSub] = sub
	s.nextSub++
	return sub
}

// notify fans a committed snapshot out without blocking the writer. A full
// subscriber buffer skips this snapshot; delivery per id only skips forward.
// Callers hold writeMu, so snapshots arrive in commit order.
func (s *Store) notify(snap scheduling.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		if !sub.filter.Matches(&snap.Shift) {
			continue
		}
		select {
		case sub.ch <- snap:
		default:
		}
	}
}

// =============================================================================
// ROW SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (*scheduling.Snapshot, error) {
	var (
		id, role, date, startTime, endTime, payRate, workers, status string
		notes, createdAt                                             string
		version                                                      int64
		slots, filledSlots                                           int
		tips, bonus, overtime, hidden                                bool
	)

	if err := row.Scan(&id, &version, &role, &date, &startTime, &endTime, &payRate,
		&slots, &filledSlots, &workers, &status,
		&tips, &bonus, &overtime, &hidden, &notes, &createdAt); err != nil {
		return nil, err
	}

	parsedDate, err := scheduling.ParseDate(date)
	if err != nil {
		return nil, err
	}
	start, err := scheduling.ParseClock(startTime)
	if err != nil {
		return nil, err
	}
	end, err := scheduling.ParseClock(endTime)
	if err != nil {
		return nil, err
	}
	rate, err := decimal.NewFromString(payRate)
	if err != nil {
		return nil, fmt.Errorf("invalid pay rate %q: %w", payRate, err)
	}

	var assigned []scheduling.WorkerID
	if err := json.Unmarshal([]byte(workers), &assigned); err != nil {
		return nil, fmt.Errorf("invalid assignment set: %w", err)
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}

	shift := scheduling.Shift{
		ID:              scheduling.ShiftID(id),
		Role:            role,
		Date:            parsedDate,
		StartTime:       start,
		EndTime:         end,
		PayRate:         rate,
		Slots:           slots,
		FilledSlots:     filledSlots,
		AssignedWorkers: assigned,
		Status:          scheduling.Status(status),
		Flags: scheduling.Flags{
			TipsIncluded:   tips,
			BonusAvailable: bonus,
			OvertimePay:    overtime,
			PayHidden:      hidden,
		},
		Notes:     notes,
		CreatedAt: created,
	}
	shift.Normalize()

	return &scheduling.Snapshot{Shift: shift, Version: version}, nil
}
