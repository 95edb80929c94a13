package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fernhill-care/rostermatch/pkg/core/schedule"
	"github.com/fernhill-care/rostermatch/pkg/db"
)

// AcceptRequest asks the engine to commit one suggestion as a booking
type AcceptRequest struct {
	PatientID     string
	ServiceTypeID string
	StaffID       string
	Start         time.Time
	End           time.Time
	AcceptedBy    string
	OrgID         string

	// Now anchors validation; zero falls back to the wall clock.
	Now time.Time
}

// AcceptResult is the structured outcome of one acceptance. Failures carry
// display-ready error strings; the caller never sees a raw store fault.
type AcceptResult struct {
	Request      AcceptRequest
	Success      bool
	AssignmentID string
	Errors       []string
}

// BatchResult partitions a batch's outcomes
type BatchResult struct {
	Successful []AcceptResult
	Failed     []AcceptResult
}

// AcceptSuggestion re-validates the slot against current schedule state and
// writes the booking. The store's create re-checks overlap inside its
// transaction, so a suggestion gone stale between validation and write
// surfaces as a conflict failure rather than a double booking.
func (o *Orchestrator) AcceptSuggestion(ctx context.Context, req AcceptRequest) AcceptResult {
	result := AcceptResult{Request: req}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	validation, err := o.validator.Validate(ctx, schedule.Request{
		PatientID:     req.PatientID,
		ServiceTypeID: req.ServiceTypeID,
		Start:         req.Start,
		End:           req.End,
		Now:           now,
	})
	if err != nil {
		o.logger.Error("Validation failed during acceptance", zap.Error(err),
			zap.String("patient_id", req.PatientID),
			zap.String("staff_id", req.StaffID))
		result.Errors = []string{"Could not validate the proposed booking. Please try again."}
		return result
	}
	if !validation.Valid {
		result.Errors = validation.Errors
		return result
	}

	booking := &db.Booking{
		ID:            uuid.New().String(),
		OrgID:         req.OrgID,
		PatientID:     req.PatientID,
		StaffID:       req.StaffID,
		ServiceTypeID: req.ServiceTypeID,
		Start:         req.Start,
		End:           req.End,
		Status:        db.BookingPlanned,
		Source:        o.cfg.Source,
		CreatedBy:     req.AcceptedBy,
		CreatedAt:     now,
	}

	if err := o.store.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, db.ErrConflict) {
			result.Errors = []string{"The time slot was booked by someone else while this suggestion was open."}
			return result
		}
		o.logger.Error("Booking write failed", zap.Error(err),
			zap.String("patient_id", req.PatientID),
			zap.String("staff_id", req.StaffID))
		result.Errors = []string{"Failed to save the booking."}
		return result
	}

	o.logger.Info("Suggestion accepted",
		zap.String("assignment_id", booking.ID),
		zap.String("patient_id", req.PatientID),
		zap.String("staff_id", req.StaffID),
		zap.Time("start", req.Start))

	result.Success = true
	result.AssignmentID = booking.ID
	return result
}

// AcceptBatch commits a batch best-effort: each item validates and writes
// independently, and earlier successes persist regardless of later failures.
func (o *Orchestrator) AcceptBatch(ctx context.Context, requests []AcceptRequest) BatchResult {
	var batch BatchResult
	for _, req := range requests {
		result := o.AcceptSuggestion(ctx, req)
		if result.Success {
			batch.Successful = append(batch.Successful, result)
		} else {
			batch.Failed = append(batch.Failed, result)
		}
	}

	o.logger.Info("Batch acceptance finished",
		zap.Int("requested", len(requests)),
		zap.Int("successful", len(batch.Successful)),
		zap.Int("failed", len(batch.Failed)))

	return batch
}
