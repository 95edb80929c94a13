package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fernhill-care/rostermatch/pkg/db"
)

// Slot is a feasible booking window
type Slot struct {
	Label string
	Start time.Time
	End   time.Time
}

// dayBand is a fixed partition of the working day
type dayBand struct {
	label     string
	startHour int
	startMin  int
	endHour   int
	endMin    int
}

var dayBands = []dayBand{
	{label: "Morning", startHour: 8, endHour: 10, endMin: 30},
	{label: "Midday", startHour: 11, endHour: 13, endMin: 30},
	{label: "Afternoon", startHour: 14, endHour: 16, endMin: 30},
	{label: "Evening", startHour: 17, endHour: 19},
}

// nextSlotHorizon bounds how far forward NextAvailableSlot searches
const nextSlotHorizon = 14 * 24 * time.Hour

// SuggestedSlots partitions the day into the four fixed bands and returns a
// duration-sized slot at each band open where a booking passes both the
// overlap and spacing checks. The returned interval is the one that was
// validated, not the full band.
func (v *Validator) SuggestedSlots(ctx context.Context, patientID, serviceTypeID string, day time.Time, durationMinutes int) ([]Slot, error) {
	var slots []Slot
	for _, band := range dayBands {
		start := time.Date(day.Year(), day.Month(), day.Day(), band.startHour, band.startMin, 0, 0, day.Location())
		end := start.Add(time.Duration(durationMinutes) * time.Minute)

		conflicts, err := v.Overlaps(ctx, patientID, start, end, "")
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			continue
		}

		spacingMsg, err := v.CheckSpacing(ctx, patientID, serviceTypeID, start, "")
		if err != nil {
			return nil, err
		}
		if spacingMsg != "" {
			continue
		}

		slots = append(slots, Slot{Label: band.label, Start: start, End: end})
	}
	return slots, nil
}

// NextAvailableSlot walks forward through the patient's existing bookings to
// find the first start at or after `after` where a booking of the given
// duration honors both overlap and spacing rules. Returns nil when no slot
// exists within the search horizon.
func (v *Validator) NextAvailableSlot(ctx context.Context, patientID, serviceTypeID string, after time.Time, durationMinutes int) (*Slot, error) {
	duration := time.Duration(durationMinutes) * time.Minute
	horizon := after.Add(nextSlotHorizon)

	bookings, err := v.store.GetPatientBookings(ctx, patientID, after.Add(-24*time.Hour), horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patient bookings: %w", err)
	}
	existing := db.SchedulingOnly(bookings)
	sort.Slice(existing, func(i, j int) bool { return existing[i].Start.Before(existing[j].Start) })

	svc, err := v.store.GetServiceType(ctx, serviceTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch service type: %w", err)
	}

	candidate := after
	for candidate.Before(horizon) {
		moved := false

		// Push the candidate past any overlapping booking
		for _, b := range existing {
			if b.Intersects(candidate, candidate.Add(duration)) {
				candidate = b.End
				moved = true
			}
		}

		// Push the candidate out to honor the spacing rule
		if svc != nil && svc.MinGapMinutes > 0 {
			prior, priorErr := v.latestPriorSameService(ctx, patientID, serviceTypeID, candidate, "")
			if priorErr != nil {
				return nil, priorErr
			}
			if prior != nil {
				earliest := prior.End.Add(time.Duration(svc.MinGapMinutes) * time.Minute)
				if candidate.Before(earliest) {
					candidate = earliest
					moved = true
				}
			}
		}

		if !moved {
			return &Slot{Start: candidate, End: candidate.Add(duration)}, nil
		}
	}

	return nil, nil
}
