// Package schedule decides whether a proposed time slot for a patient/staff
// pair is legal: no patient double-booking, same-service spacing rules, and
// basic time-ordering sanity.
package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fernhill-care/rostermatch/pkg/db"
)

// Config holds the validator's injected horizons
type Config struct {
	// StalenessWarning is how far in the past a start time may lie before
	// validation attaches a soft warning. Defaults to 24 hours.
	StalenessWarning time.Duration
}

// Validator checks proposed bookings against existing schedule state
type Validator struct {
	store  db.Database
	logger *zap.Logger
	cfg    Config
}

// New creates a Validator
func New(store db.Database, logger *zap.Logger, cfg Config) *Validator {
	if cfg.StalenessWarning <= 0 {
		cfg.StalenessWarning = 24 * time.Hour
	}
	return &Validator{
		store:  store,
		logger: logger,
		cfg:    cfg,
	}
}

// Request is a proposed booking to validate
type Request struct {
	PatientID     string
	ServiceTypeID string
	Start         time.Time
	End           time.Time

	// ExcludeBookingID skips one existing booking in overlap and spacing
	// checks, for rescheduling an assignment against its own slot.
	ExcludeBookingID string

	// Now anchors the staleness warning; callers inject their clock.
	Now time.Time
}

// Result is the validation outcome. Constraint violations are values, not
// errors: Valid is false and Errors holds display-ready explanations.
type Result struct {
	Valid     bool
	Errors    []string
	Warnings  []string
	Conflicts []db.Booking
}

// Overlaps returns the patient's bookings that intersect [start, end) using
// half-open semantics; back-to-back bookings do not overlap. Cancelled and
// missed bookings never conflict.
func (v *Validator) Overlaps(ctx context.Context, patientID string, start, end time.Time, excludeID string) ([]db.Booking, error) {
	bookings, err := v.store.GetPatientBookings(ctx, patientID, start.Add(-24*time.Hour), end.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patient bookings: %w", err)
	}

	var conflicts []db.Booking
	for _, b := range db.SchedulingOnly(bookings) {
		if b.ID == excludeID {
			continue
		}
		if b.Intersects(start, end) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts, nil
}

// CheckSpacing enforces the service type's minimum-gap rule. It returns a
// display-ready violation message, or "" when the slot is acceptable or the
// service has no spacing rule.
func (v *Validator) CheckSpacing(ctx context.Context, patientID, serviceTypeID string, start time.Time, excludeID string) (string, error) {
	svc, err := v.store.GetServiceType(ctx, serviceTypeID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch service type: %w", err)
	}
	if svc == nil || svc.MinGapMinutes <= 0 {
		return "", nil
	}

	prior, err := v.latestPriorSameService(ctx, patientID, serviceTypeID, start, excludeID)
	if err != nil {
		return "", err
	}
	if prior == nil {
		return "", nil
	}

	gap := int(start.Sub(prior.End).Minutes())
	if gap >= svc.MinGapMinutes {
		return "", nil
	}

	return fmt.Sprintf("%s requires at least %d minutes between visits; the visit ending at %s leaves a gap of only %d minutes (%d minutes short).",
		svc.Name, svc.MinGapMinutes, prior.End.Format("15:04"), gap, svc.MinGapMinutes-gap), nil
}

// latestPriorSameService finds the latest same-day, same-service booking for
// the patient ending at or before start.
func (v *Validator) latestPriorSameService(ctx context.Context, patientID, serviceTypeID string, start time.Time, excludeID string) (*db.Booking, error) {
	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	bookings, err := v.store.GetServiceBookings(ctx, patientID, serviceTypeID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch same-service bookings: %w", err)
	}

	var latest *db.Booking
	for _, b := range db.SchedulingOnly(bookings) {
		if b.ID == excludeID {
			continue
		}
		if b.End.After(start) {
			continue
		}
		if latest == nil || b.End.After(latest.End) {
			candidate := b
			latest = &candidate
		}
	}
	return latest, nil
}

// Validate composes the overlap, spacing and time-ordering checks for a
// proposed booking. Hard violations land in Errors; a start more than the
// staleness horizon in the past only adds a warning.
func (v *Validator) Validate(ctx context.Context, req Request) (*Result, error) {
	result := &Result{Valid: true}

	if !req.End.After(req.Start) {
		result.Valid = false
		result.Errors = append(result.Errors, "End time must be after start time.")
		return result, nil
	}

	conflicts, err := v.Overlaps(ctx, req.PatientID, req.Start, req.End, req.ExcludeBookingID)
	if err != nil {
		return nil, err
	}
	for _, c := range conflicts {
		name := c.ServiceTypeID
		if svc, svcErr := v.store.GetServiceType(ctx, c.ServiceTypeID); svcErr == nil && svc != nil {
			name = svc.Name
		}
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Overlaps an existing %s booking from %s to %s.",
			name, c.Start.Format("Jan 2 15:04"), c.End.Format("15:04")))
	}
	result.Conflicts = conflicts

	spacingMsg, err := v.CheckSpacing(ctx, req.PatientID, req.ServiceTypeID, req.Start, req.ExcludeBookingID)
	if err != nil {
		return nil, err
	}
	if spacingMsg != "" {
		result.Valid = false
		result.Errors = append(result.Errors, spacingMsg)
	}

	if !req.Now.IsZero() && req.Start.Before(req.Now.Add(-v.cfg.StalenessWarning)) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Start time is more than %d hours in the past.",
			int(v.cfg.StalenessWarning.Hours())))
	}

	v.logger.Debug("Validated proposed booking",
		zap.String("patient_id", req.PatientID),
		zap.String("service_type_id", req.ServiceTypeID),
		zap.Time("start", req.Start),
		zap.Bool("valid", result.Valid),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}
