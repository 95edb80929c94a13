// Package continuity aggregates historical staff/patient visit counts within
// a rolling window and maps them to a 0-100 continuity-of-care score.
package continuity

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fernhill-care/rostermatch/pkg/db"
)

// regularVisitThreshold is the in-window visit count at which a staff member
// counts as a patient's regular caregiver.
const regularVisitThreshold = 3

// Config controls the rolling window. The window is injected rather than
// compiled in so tests can use arbitrary clocks and window sizes.
type Config struct {
	WindowMonths int
}

// Tracker computes continuity metrics from booking history
type Tracker struct {
	store  db.BookingStore
	logger *zap.Logger
	cfg    Config
}

// New creates a Tracker. A zero WindowMonths defaults to six months.
func New(store db.BookingStore, logger *zap.Logger, cfg Config) *Tracker {
	if cfg.WindowMonths <= 0 {
		cfg.WindowMonths = 6
	}
	return &Tracker{
		store:  store,
		logger: logger,
		cfg:    cfg,
	}
}

// WindowStart returns the inclusive start of the rolling window at now
func (t *Tracker) WindowStart(now time.Time) time.Time {
	return now.AddDate(0, -t.cfg.WindowMonths, 0)
}

// VisitCount returns the number of completed in-window visits the staff
// member made to the patient.
func (t *Tracker) VisitCount(ctx context.Context, staffID, patientID string, now time.Time) (int, error) {
	counts, err := t.VisitCounts(ctx, patientID, now)
	if err != nil {
		return 0, err
	}
	return counts[staffID], nil
}

// VisitCounts returns completed in-window visit counts for every staff member
// who has served the patient, in one booking scan. Batch scoring uses this to
// avoid a store round-trip per candidate.
func (t *Tracker) VisitCounts(ctx context.Context, patientID string, now time.Time) (map[string]int, error) {
	bookings, err := t.store.GetPatientBookings(ctx, patientID, t.WindowStart(now), now)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patient bookings: %w", err)
	}

	counts := make(map[string]int)
	for _, b := range bookings {
		if b.Status != db.BookingCompleted {
			continue
		}
		counts[b.StaffID]++
	}

	t.logger.Debug("Computed continuity visit counts",
		zap.String("patient_id", patientID),
		zap.Int("staff_count", len(counts)))

	return counts, nil
}

// UniqueStaffCount returns the number of distinct staff who completed visits
// with the patient in-window. Lower is better continuity.
func (t *Tracker) UniqueStaffCount(ctx context.Context, patientID string, now time.Time) (int, error) {
	counts, err := t.VisitCounts(ctx, patientID, now)
	if err != nil {
		return 0, err
	}
	return len(counts), nil
}

// Score maps an in-window visit count to a 0-100 continuity score via a
// stepped curve. Non-decreasing in the visit count.
func Score(visitCount int) float64 {
	switch {
	case visitCount <= 0:
		return 0
	case visitCount <= 2:
		return float64(10 * visitCount)
	case visitCount <= 5:
		return min(60, float64(20+15*(visitCount-2)))
	default:
		return min(100, float64(60+5*(visitCount-5)))
	}
}

// IsRegular reports whether the visit count makes the staff member a regular
// caregiver for the patient.
func IsRegular(visitCount int) bool {
	return visitCount >= regularVisitThreshold
}
