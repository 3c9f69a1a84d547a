/*
handlers.go - HTTP handlers for the shift scheduling engine

PURPOSE:
  Exposes the engine via REST. Handlers only translate: parse the request,
  resolve the caller to an Actor, call the allocator or a read-only engine
  function, serialize the result. Every operation's semantics live in the
  scheduling package.

ENDPOINTS:
  Shifts:
    POST   /api/shifts                    Create shift (organizer)
    GET    /api/shifts                    List/query, optional ranking
    GET    /api/shifts/{id}               Get one shift
    POST   /api/shifts/{id}/accept        Worker accepts a slot
    POST   /api/shifts/{id}/approve       Organizer approves
    POST   /api/shifts/{id}/reject        Organizer rejects
    POST   /api/shifts/{id}/cancel        Cancel (organizer or assigned worker)
    POST   /api/shifts/{id}/outcome       Mark completed/no-show (organizer)
    DELETE /api/shifts/{id}               Delete, idempotent (organizer)

  Workers:
    GET    /api/workers/{id}/shifts       Worker history, ranked
    GET    /api/workers/{id}/reliability  Reliability score and badges

ERROR HANDLING:
  The engine's error taxonomy maps onto HTTP statuses:
  - 400: validation
  - 401: unresolvable caller identity
  - 403: permission
  - 404: unknown shift
  - 409: illegal transition, capacity, duplicate or conflicting assignment,
         lost write race
  - 500: everything else (logged, never detailed to the client)

SEE ALSO:
  - dto.go: Request/response shapes
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/shift-engine/identity"
	"github.com/warp/shift-engine/scheduling"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Allocator *scheduling.SlotAllocator
	Store     scheduling.RecordStore
	Identity  identity.Provider
	Logger    *zap.Logger

	validate *validator.Validate
}

// NewHandler wires a handler over the given store and identity provider.
func NewHandler(store scheduling.RecordStore, provider identity.Provider, logger *zap.Logger) *Handler {
	return &Handler{
		Allocator: scheduling.NewSlotAllocator(store),
		Store:     store,
		Identity:  provider,
		Logger:    logger,
		validate:  validator.New(),
	}
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// CreateShift posts a new open shift.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	date, err := scheduling.ParseDate(req.Date)
	if err != nil {
		h.engineError(w, err)
		return
	}
	start, err := scheduling.ParseClock(req.StartTime)
	if err != nil {
		h.engineError(w, err)
		return
	}
	end, err := scheduling.ParseClock(req.EndTime)
	if err != nil {
		h.engineError(w, err)
		return
	}
	payRate := decimal.Zero
	if req.PayRate != "" {
		payRate, err = decimal.NewFromString(req.PayRate)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid payRate")
			return
		}
	}

	shift := &scheduling.Shift{
		ID:        scheduling.ShiftID(uuid.NewString()),
		Role:      req.Role,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		PayRate:   payRate,
		Slots:     req.Slots,
		Flags: scheduling.Flags{
			TipsIncluded:   req.TipsIncluded,
			BonusAvailable: req.BonusAvailable,
			OvertimePay:    req.OvertimePay,
			PayHidden:      req.PayHidden,
		},
		Notes: req.Notes,
	}

	snap, err := h.Allocator.Create(r.Context(), actor, shift)
	if err != nil {
		h.engineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toSnapshotDTO(snap))
}

// ListShifts queries shifts, optionally ordered by a ranking policy.
//
// Query parameters: status (comma-separated), from, to (YYYY-MM-DD),
// worker, policy (role|date|status|closest), ref (YYYY-MM-DD, closest only).
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		h.engineError(w, err)
		return
	}

	snaps, err := h.Store.Query(r.Context(), filter)
	if err != nil {
		h.engineError(w, err)
		return
	}
	h.writeRanked(w, r, snaps, scheduling.RankByDate)
}

// GetShift returns a single shift.
func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Allocator.Get(r.Context(), shiftID(r))
	if err != nil {
		h.engineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSnapshotDTO(snap))
}

// AcceptShift claims one slot for the calling worker.
func (h *Handler) AcceptShift(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Allocator.Accept)
}

// ApproveShift confirms a pending shift.
func (h *Handler) ApproveShift(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Allocator.Approve)
}

// RejectShift returns a shift to open, releasing all workers.
func (h *Handler) RejectShift(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Allocator.Reject)
}

// CancelShift returns a shift to open, releasing all workers.
func (h *Handler) CancelShift(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.Allocator.Cancel)
}

// MarkOutcome records a terminal outcome for an elapsed shift.
func (h *Handler) MarkOutcome(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req OutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.Allocator.MarkOutcome(r.Context(), actor, shiftID(r), scheduling.Status(req.Outcome))
	if err != nil {
		h.engineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSnapshotDTO(snap))
}

// DeleteShift removes a shift. Succeeds even if the shift is already gone.
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.Allocator.Delete(r.Context(), actor, shiftID(r)); err != nil {
		h.engineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// WorkerShifts returns one worker's assignments, ranked (default: closest).
func (h *Handler) WorkerShifts(w http.ResponseWriter, r *http.Request) {
	worker := scheduling.WorkerID(chi.URLParam(r, "id"))

	snaps, err := h.Store.Query(r.Context(), scheduling.Filter{Worker: worker})
	if err != nil {
		h.engineError(w, err)
		return
	}
	h.writeRanked(w, r, snaps, scheduling.RankClosest)
}

// WorkerReliability returns the derived reliability report for one worker.
func (h *Handler) WorkerReliability(w http.ResponseWriter, r *http.Request) {
	worker := scheduling.WorkerID(chi.URLParam(r, "id"))

	snaps, err := h.Store.Query(r.Context(), scheduling.Filter{Worker: worker})
	if err != nil {
		h.engineError(w, err)
		return
	}
	history := make([]scheduling.Shift, len(snaps))
	for i, snap := range snaps {
		history[i] = snap.Shift
	}
	h.writeJSON(w, http.StatusOK, toReliabilityDTO(scheduling.ScoreWorker(worker, history)))
}

// =============================================================================
// HELPERS
// =============================================================================

func shiftID(r *http.Request) scheduling.ShiftID {
	return scheduling.ShiftID(chi.URLParam(r, "id"))
}

// lifecycle runs the shared resolve-call-respond shape of the single-shift
// lifecycle operations.
func (h *Handler) lifecycle(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, actor scheduling.Actor, id scheduling.ShiftID) (*scheduling.Snapshot, error),
) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	snap, err := op(r.Context(), actor, shiftID(r))
	if err != nil {
		h.engineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toSnapshotDTO(snap))
}

// writeRanked serializes snapshots under the requested ranking policy,
// preserving each record's version in the output.
func (h *Handler) writeRanked(w http.ResponseWriter, r *http.Request, snaps []scheduling.Snapshot, defaultPolicy scheduling.RankPolicy) {
	policy := defaultPolicy
	if p := r.URL.Query().Get("policy"); p != "" {
		policy = scheduling.RankPolicy(p)
	}

	ref := time.Now().UTC()
	if raw := r.URL.Query().Get("ref"); raw != "" {
		refDate, err := scheduling.ParseDate(raw)
		if err != nil {
			h.engineError(w, err)
			return
		}
		ref = refDate.At(0)
	}

	shifts := make([]scheduling.Shift, len(snaps))
	versions := make(map[scheduling.ShiftID]int64, len(snaps))
	for i, snap := range snaps {
		shifts[i] = snap.Shift
		versions[snap.Shift.ID] = snap.Version
	}

	ranked := scheduling.Rank(shifts, policy, ref)
	dtos := make([]ShiftDTO, len(ranked))
	for i := range ranked {
		dtos[i] = toShiftDTO(&ranked[i], versions[ranked[i].ID])
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

func filterFromQuery(r *http.Request) (scheduling.Filter, error) {
	var f scheduling.Filter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := scheduling.Status(strings.TrimSpace(s))
			if !status.Valid() {
				return f, &scheduling.ValidationError{Field: "status", Reason: "unknown status " + string(status)}
			}
			f.Statuses = append(f.Statuses, status)
		}
	}
	if raw := q.Get("from"); raw != "" {
		d, err := scheduling.ParseDate(raw)
		if err != nil {
			return f, err
		}
		f.DateFrom = &d
	}
	if raw := q.Get("to"); raw != "" {
		d, err := scheduling.ParseDate(raw)
		if err != nil {
			return f, err
		}
		f.DateTo = &d
	}
	if worker := q.Get("worker"); worker != "" {
		f.Worker = scheduling.WorkerID(worker)
	}
	return f, nil
}

// actor resolves the caller identity, answering 401 on failure.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (scheduling.Actor, bool) {
	actor, err := h.Identity.Resolve(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "caller identity required")
		return scheduling.Actor{}, false
	}
	return actor, true
}

type errorResponse struct {
	Error              string `json:"error"`
	ConflictingShiftID string `json:"conflictingShiftId,omitempty"`
}

// engineError maps the engine's error taxonomy onto HTTP statuses.
func (h *Handler) engineError(w http.ResponseWriter, err error) {
	var conflict *scheduling.ScheduleConflictError
	if errors.As(err, &conflict) {
		h.writeJSON(w, http.StatusConflict, errorResponse{
			Error:              conflict.Error(),
			ConflictingShiftID: string(conflict.ConflictingID),
		})
		return
	}

	switch {
	case errors.Is(err, scheduling.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scheduling.ErrPermission):
		h.writeError(w, http.StatusForbidden, err.Error())
	case scheduling.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, err.Error())
	case scheduling.IsClientError(err), scheduling.IsRetryable(err):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.Logger.Error("internal error", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("failed to encode response", zap.Error(err))
	}
}
