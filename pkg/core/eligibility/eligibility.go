// Package eligibility narrows the staff pool for a service need. Role-based
// eligibility selects candidates; three hard constraints (skills, weekly
// capacity, leave) then exclude candidates outright, producing a tally of
// exclusion counts for explainable "no match" outcomes.
package eligibility

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fernhill-care/rostermatch/pkg/db"
)

// NoEligibleRoleReason is surfaced when a service type has no active role
// mapping in the organization.
const NoEligibleRoleReason = "No staff with eligible role found"

// category identifies which hard constraint excluded a candidate
type category int

const (
	catPassed category = iota
	catMissingSkills
	catOverCapacity
	catOnLeave
)

// Tally is the immutable exclusion count per constraint category, produced
// by a pure fold over per-candidate verdicts.
type Tally struct {
	MissingSkills int
	OverCapacity  int
	OnLeave       int
}

// Total returns the number of excluded candidates
func (t Tally) Total() int {
	return t.MissingSkills + t.OverCapacity + t.OnLeave
}

// Reasons formats the tally into display-ready exclusion strings. Formatting
// is separate from constraint evaluation so the tally stays a plain value.
func (t Tally) Reasons() []string {
	var reasons []string
	if t.MissingSkills > 0 {
		reasons = append(reasons, fmt.Sprintf("%d staff missing required skills", t.MissingSkills))
	}
	if t.OverCapacity > 0 {
		reasons = append(reasons, fmt.Sprintf("%d staff over capacity threshold", t.OverCapacity))
	}
	if t.OnLeave > 0 {
		reasons = append(reasons, fmt.Sprintf("%d staff on leave", t.OnLeave))
	}
	return reasons
}

// foldTally reduces per-candidate verdicts into a Tally
func foldTally(verdicts []category) Tally {
	var t Tally
	for _, v := range verdicts {
		switch v {
		case catMissingSkills:
			t.MissingSkills++
		case catOverCapacity:
			t.OverCapacity++
		case catOnLeave:
			t.OnLeave++
		}
	}
	return t
}

// Filter selects and constrains eligible staff
type Filter struct {
	store  db.Database
	logger *zap.Logger
}

// New creates a Filter
func New(store db.Database, logger *zap.Logger) *Filter {
	return &Filter{
		store:  store,
		logger: logger,
	}
}

// EligibleStaff returns the active, unlocked staff whose role has an active
// mapping to the service type, plus the mappings themselves (the scorer needs
// the primary flag). Zero mappings yields an empty candidate pool.
func (f *Filter) EligibleStaff(ctx context.Context, orgID, serviceTypeID string) ([]db.Staff, []db.RoleMapping, error) {
	mappings, err := f.store.GetRoleMappings(ctx, orgID, serviceTypeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch role mappings: %w", err)
	}
	if len(mappings) == 0 {
		f.logger.Debug("No active role mappings for service type",
			zap.String("org_id", orgID),
			zap.String("service_type_id", serviceTypeID))
		return nil, nil, nil
	}

	roleSet := make(map[string]bool)
	var roles []string
	for _, m := range mappings {
		if !roleSet[m.RoleCode] {
			roleSet[m.RoleCode] = true
			roles = append(roles, m.RoleCode)
		}
	}

	staff, err := f.store.GetActiveStaffByRoles(ctx, orgID, roles)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch eligible staff: %w", err)
	}
	return staff, mappings, nil
}

// Input is the context for a hard-constraint evaluation pass
type Input struct {
	Service   db.ServiceType
	WeekStart time.Time
	WeekEnd   time.Time

	// Target is the instant the assignment would start; leave is checked
	// against it. Zero falls back to WeekStart.
	Target time.Time
}

// Evaluate applies the hard constraints in order (skills, capacity, leave)
// to every candidate. It returns the surviving candidates and the exclusion
// tally; no candidate fails fast, every exclusion is counted.
func (f *Filter) Evaluate(ctx context.Context, candidates []db.Staff, in Input) ([]db.Staff, Tally, error) {
	target := in.Target
	if target.IsZero() {
		target = in.WeekStart
	}
	durationHours := float64(in.Service.DefaultDurationMinutes) / 60

	var passed []db.Staff
	verdicts := make([]category, 0, len(candidates))
	for _, staff := range candidates {
		verdict, err := f.evaluateOne(ctx, staff, in, target, durationHours)
		if err != nil {
			return nil, Tally{}, err
		}
		verdicts = append(verdicts, verdict)
		if verdict == catPassed {
			passed = append(passed, staff)
		}
	}

	tally := foldTally(verdicts)
	f.logger.Debug("Applied hard constraints",
		zap.String("service_type_id", in.Service.ID),
		zap.Int("candidates", len(candidates)),
		zap.Int("passed", len(passed)),
		zap.Int("excluded", tally.Total()))

	return passed, tally, nil
}

func (f *Filter) evaluateOne(ctx context.Context, staff db.Staff, in Input, target time.Time, durationHours float64) (category, error) {
	if !staff.HasSkills(in.Service.RequiredSkills) {
		return catMissingSkills, nil
	}

	scheduled, err := f.weekScheduledHours(ctx, staff.ID, in.WeekStart, in.WeekEnd)
	if err != nil {
		return catPassed, err
	}
	if staff.MaxWeeklyHours-scheduled < durationHours {
		return catOverCapacity, nil
	}

	leaves, err := f.store.GetLeaves(ctx, staff.ID, in.WeekStart, in.WeekEnd)
	if err != nil {
		return catPassed, fmt.Errorf("failed to fetch leave for staff %s: %w", staff.ID, err)
	}
	for i := range leaves {
		if leaves[i].Covers(target) {
			return catOnLeave, nil
		}
	}

	return catPassed, nil
}

func (f *Filter) weekScheduledHours(ctx context.Context, staffID string, weekStart, weekEnd time.Time) (float64, error) {
	bookings, err := f.store.GetStaffBookings(ctx, staffID, weekStart, weekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch bookings for staff %s: %w", staffID, err)
	}
	hours := 0.0
	for _, b := range db.SchedulingOnly(bookings) {
		hours += b.DurationHours()
	}
	return hours, nil
}
