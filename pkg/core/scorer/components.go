package scorer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fernhill-care/rostermatch/pkg/core/continuity"
	"github.com/fernhill-care/rostermatch/pkg/core/model"
	"github.com/fernhill-care/rostermatch/pkg/db"
	"github.com/fernhill-care/rostermatch/pkg/travel"
)

// Component weights. Maxima sum to 100, so a breakdown's total is bounded
// by construction.
const (
	weightCapacity   = 25.0
	weightContinuity = 20.0
	weightTravel     = 20.0
	weightRegion     = 10.0
	weightRole       = 10.0
	weightWorkload   = 10.0
	weightUrgency    = 5.0
)

// capacityComponent scores remaining weekly capacity. Zero when the staff
// member cannot absorb the assignment at all; otherwise tiered by the
// post-assignment buffer as a share of max weekly hours.
func capacityComponent(staff db.Staff, scheduledHours, durationHours float64) model.ScoreComponent {
	c := model.ScoreComponent{Name: "capacity", Max: weightCapacity}

	remaining := staff.MaxWeeklyHours - scheduledHours
	if remaining < durationHours {
		c.Note = fmt.Sprintf("insufficient weekly hours remaining (%.1fh left, %.1fh needed)", remaining, durationHours)
		return c
	}

	buffer := 0.0
	if staff.MaxWeeklyHours > 0 {
		buffer = (remaining - durationHours) / staff.MaxWeeklyHours
	}

	frac := 0.5
	switch {
	case buffer >= 0.30:
		frac = 1.0
	case buffer >= 0.20:
		frac = 0.9
	case buffer >= 0.10:
		frac = 0.7
	}

	c.Score = weightCapacity * frac
	c.Note = fmt.Sprintf("%.1fh buffer after assignment (%.0f%% of weekly capacity)", remaining-durationHours, buffer*100)
	return c
}

// continuityComponent scales the tracker's 0-100 curve into the component
// weight, capped at the weight.
func continuityComponent(visitCount int) model.ScoreComponent {
	score := continuity.Score(visitCount) / 100 * weightContinuity
	if score > weightContinuity {
		score = weightContinuity
	}
	note := fmt.Sprintf("%d completed visits with patient in window", visitCount)
	if continuity.IsRegular(visitCount) {
		note += " (regular caregiver)"
	}
	return model.ScoreComponent{Name: "continuity", Score: score, Max: weightContinuity, Note: note}
}

// travelOutcome carries the travel component plus its side products
type travelOutcome struct {
	component    model.ScoreComponent
	minutes      *float64
	lastLocation *travel.Coord
}

// travelComponent scores the trip from the staff member's last same-day
// appointment to the patient. Half weight when the patient has no
// coordinates, 70% when there is no prior same-day appointment to travel
// from, otherwise tiered by estimated minutes with a linear decay to zero
// at 80 minutes.
func (s *Scorer) travelComponent(ctx context.Context, staff db.Staff, patient db.Patient, target time.Time) (travelOutcome, error) {
	out := travelOutcome{component: model.ScoreComponent{Name: "travel", Max: weightTravel}}

	if !patient.HasCoordinates() {
		out.component.Score = weightTravel * 0.5
		out.component.Note = "patient location unknown"
		return out, nil
	}

	from, err := s.lastSameDayLocation(ctx, staff.ID, target)
	if err != nil {
		return out, err
	}
	if from == nil {
		out.component.Score = weightTravel * 0.7
		out.component.Note = "no prior appointment that day"
		return out, nil
	}
	out.lastLocation = from

	to := travel.Coord{Lat: *patient.Latitude, Lon: *patient.Longitude}
	minutes, err := s.travel.EstimateMinutes(ctx, *from, to, target)
	if err != nil {
		// An unreachable routing service should not sink the candidate
		s.logger.Warn("Travel estimate failed, using neutral travel score", zap.Error(err))
		out.component.Score = weightTravel * 0.7
		out.component.Note = "travel estimate unavailable"
		return out, nil
	}
	out.minutes = &minutes

	var frac float64
	switch {
	case minutes <= 15:
		frac = 1.0
	case minutes <= 25:
		frac = 0.8
	case minutes <= 40:
		frac = 0.5
	default:
		frac = 0.5 * (80 - minutes) / 40
		if frac < 0 {
			frac = 0
		}
	}

	out.component.Score = weightTravel * frac
	out.component.Note = fmt.Sprintf("%.0f min from last same-day appointment", minutes)
	return out, nil
}

// lastSameDayLocation returns the coordinates of the patient seen in the
// staff member's latest same-day appointment ending at or before target.
func (s *Scorer) lastSameDayLocation(ctx context.Context, staffID string, target time.Time) (*travel.Coord, error) {
	dayStart := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, target.Location())
	bookings, err := s.store.GetStaffBookings(ctx, staffID, dayStart, target)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch same-day bookings: %w", err)
	}

	var latest *db.Booking
	for _, b := range db.SchedulingOnly(bookings) {
		if b.End.After(target) {
			continue
		}
		if latest == nil || b.End.After(latest.End) {
			candidate := b
			latest = &candidate
		}
	}
	if latest == nil {
		return nil, nil
	}

	patient, err := s.store.GetPatient(ctx, latest.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prior appointment patient: %w", err)
	}
	if patient == nil || !patient.HasCoordinates() {
		return nil, nil
	}
	return &travel.Coord{Lat: *patient.Latitude, Lon: *patient.Longitude}, nil
}

// regionComponent gives full weight for a shared region, half when either
// side's region is unknown, zero otherwise.
func regionComponent(staff db.Staff, patient db.Patient) model.ScoreComponent {
	c := model.ScoreComponent{Name: "region", Max: weightRegion}
	switch {
	case staff.Region == "" || patient.Region == "":
		c.Score = weightRegion * 0.5
		c.Note = "region unknown"
	case staff.Region == patient.Region:
		c.Score = weightRegion
		c.Note = fmt.Sprintf("same region (%s)", staff.Region)
	default:
		c.Note = fmt.Sprintf("different regions (%s vs %s)", staff.Region, patient.Region)
	}
	return c
}

// roleComponent scores role fit against the service's mappings: full weight
// for the primary mapped role, 60% for a secondary eligible role.
func roleComponent(staff db.Staff, mappings []db.RoleMapping) model.ScoreComponent {
	c := model.ScoreComponent{Name: "role", Max: weightRole}
	if staff.RoleCode == "" {
		c.Note = "staff has no role"
		return c
	}
	for _, m := range mappings {
		if m.RoleCode != staff.RoleCode {
			continue
		}
		if m.Primary {
			c.Score = weightRole
			c.Note = fmt.Sprintf("%s is the primary role for this service", model.RoleName(staff.RoleCode))
		} else {
			c.Score = weightRole * 0.6
			c.Note = fmt.Sprintf("%s is an eligible secondary role", model.RoleName(staff.RoleCode))
		}
		return c
	}
	c.Note = "role not mapped to this service"
	return c
}

// workloadComponent prefers staff at 50-70% utilization to spread work
// without leaning on idle or overloaded staff.
func workloadComponent(staff db.Staff, scheduledHours float64) model.ScoreComponent {
	c := model.ScoreComponent{Name: "workload", Max: weightWorkload}

	utilization := 1.0
	if staff.MaxWeeklyHours > 0 {
		utilization = scheduledHours / staff.MaxWeeklyHours
	}

	var frac float64
	switch {
	case utilization >= 0.5 && utilization <= 0.7:
		frac = 1.0
	case utilization < 0.5:
		frac = 0.8
	case utilization <= 0.8:
		frac = 0.7
	default:
		frac = 0.4
	}

	c.Score = weightWorkload * frac
	c.Note = fmt.Sprintf("%.0f%% current utilization", utilization*100)
	return c
}

// urgencyComponent gives full weight for standard-acuity patients. For
// high-acuity patients (MAPLe >= 4 or acuity "high") the weight scales with
// the staff member's estimated reliability over the trailing window.
func (s *Scorer) urgencyComponent(ctx context.Context, staff db.Staff, patient db.Patient, target time.Time) (model.ScoreComponent, error) {
	c := model.ScoreComponent{Name: "urgency", Max: weightUrgency}

	highAcuity := patient.MAPLeScore >= 4 || patient.Acuity == db.AcuityHigh
	if !highAcuity {
		c.Score = weightUrgency
		c.Note = "standard acuity"
		return c, nil
	}

	ratio, samples, err := s.reliability(ctx, staff.ID, target)
	if err != nil {
		return c, err
	}

	var frac float64
	switch {
	case ratio >= 0.95:
		frac = 1.0
	case ratio >= 0.85:
		frac = 0.6
	default:
		frac = 0.3
	}

	c.Score = weightUrgency * frac
	c.Note = fmt.Sprintf("high acuity; %.0f%% reliability over %d bookings", ratio*100, samples)
	return c, nil
}

// reliability estimates completed/total bookings over the trailing window,
// defaulting when the sample is too small to trust.
func (s *Scorer) reliability(ctx context.Context, staffID string, target time.Time) (float64, int, error) {
	from := target.AddDate(0, -s.cfg.ReliabilityWindowMonths, 0)
	bookings, err := s.store.GetStaffBookings(ctx, staffID, from, target)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch reliability window bookings: %w", err)
	}

	total := len(bookings)
	if total < s.cfg.ReliabilityMinSamples {
		return s.cfg.DefaultReliability, total, nil
	}

	completed := 0
	for _, b := range bookings {
		if b.Status == db.BookingCompleted {
			completed++
		}
	}
	return float64(completed) / float64(total), total, nil
}
