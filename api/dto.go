/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run the
  validator before touching the engine so malformed input never reaches the
  store.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/shift-engine/scheduling"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ShiftDTO is the wire shape of a shift record.
type ShiftDTO struct {
	ID              string   `json:"id"`
	Role            string   `json:"role"`
	Date            string   `json:"date"`
	StartTime       string   `json:"startTime"`
	EndTime         string   `json:"endTime"`
	PayRate         string   `json:"payRate"`
	Slots           int      `json:"slots"`
	FilledSlots     int      `json:"filledSlots"`
	AssignedWorkers []string `json:"assignedWorkers"`
	Status          string   `json:"status"`
	TipsIncluded    bool     `json:"tipsIncluded"`
	BonusAvailable  bool     `json:"bonusAvailable"`
	OvertimePay     bool     `json:"overtimePay"`
	PayHidden       bool     `json:"payHidden"`
	Notes           string   `json:"notes,omitempty"`
	CreatedAt       string   `json:"createdAt"`
	Version         int64    `json:"version"`
}

func toShiftDTO(s *scheduling.Shift, version int64) ShiftDTO {
	workers := make([]string, len(s.AssignedWorkers))
	for i, w := range s.AssignedWorkers {
		workers[i] = string(w)
	}
	return ShiftDTO{
		ID:              string(s.ID),
		Role:            s.Role,
		Date:            s.Date.String(),
		StartTime:       s.StartTime.String(),
		EndTime:         s.EndTime.String(),
		PayRate:         s.PayRate.String(),
		Slots:           s.Slots,
		FilledSlots:     s.FilledSlots,
		AssignedWorkers: workers,
		Status:          string(s.Status),
		TipsIncluded:    s.Flags.TipsIncluded,
		BonusAvailable:  s.Flags.BonusAvailable,
		OvertimePay:     s.Flags.OvertimePay,
		PayHidden:       s.Flags.PayHidden,
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt.UTC().Format(time.RFC3339),
		Version:         version,
	}
}

func toSnapshotDTO(snap *scheduling.Snapshot) ShiftDTO {
	return toShiftDTO(&snap.Shift, snap.Version)
}

// ReliabilityDTO is the wire shape of a worker's reliability report.
type ReliabilityDTO struct {
	WorkerID  string   `json:"workerId"`
	Completed int      `json:"completed"`
	NoShows   int      `json:"noShows"`
	Upcoming  int      `json:"upcoming"`
	Score     string   `json:"score"`
	Badges    []string `json:"badges"`
}

func toReliabilityDTO(report scheduling.ReliabilityReport) ReliabilityDTO {
	badges := make([]string, len(report.Badges))
	for i, b := range report.Badges {
		badges[i] = string(b)
	}
	return ReliabilityDTO{
		WorkerID:  string(report.Worker),
		Completed: report.Completed,
		NoShows:   report.NoShows,
		Upcoming:  report.Upcoming,
		Score:     report.Score.String(),
		Badges:    badges,
	}
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateShiftRequest is the body for POST /api/shifts.
type CreateShiftRequest struct {
	Role           string `json:"role" validate:"required"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime      string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime        string `json:"endTime" validate:"required,datetime=15:04"`
	PayRate        string `json:"payRate" validate:"omitempty,numeric"`
	Slots          int    `json:"slots" validate:"required,min=1"`
	TipsIncluded   bool   `json:"tipsIncluded"`
	BonusAvailable bool   `json:"bonusAvailable"`
	OvertimePay    bool   `json:"overtimePay"`
	PayHidden      bool   `json:"payHidden"`
	Notes          string `json:"notes"`
}

// OutcomeRequest is the body for POST /api/shifts/{id}/outcome.
type OutcomeRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=completed no-show"`
}
