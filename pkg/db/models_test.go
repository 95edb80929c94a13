package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_CountsForScheduling(t *testing.T) {
	assert.True(t, BookingPlanned.CountsForScheduling())
	assert.True(t, BookingCompleted.CountsForScheduling())
	assert.False(t, BookingCancelled.CountsForScheduling())
	assert.False(t, BookingMissed.CountsForScheduling())
}

func TestBooking_Intersects(t *testing.T) {
	booking := Booking{
		Start: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{
			name:  "partial overlap",
			start: time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
			end:   time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC),
			want:  true,
		},
		{
			name:  "contained",
			start: time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC),
			end:   time.Date(2026, 3, 2, 10, 45, 0, 0, time.UTC),
			want:  true,
		},
		{
			name:  "containing",
			start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
			want:  true,
		},
		{
			name:  "back to back after",
			start: time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
			want:  false,
		},
		{
			name:  "back to back before",
			start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			want:  false,
		},
		{
			name:  "disjoint",
			start: time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, booking.Intersects(tt.start, tt.end))
		})
	}
}

func TestBooking_IntersectsIsSymmetric(t *testing.T) {
	a := Booking{
		Start: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
	}
	b := Booking{
		Start: time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC),
	}

	assert.Equal(t, a.Intersects(b.Start, b.End), b.Intersects(a.Start, a.End))
}

func TestSchedulingOnly(t *testing.T) {
	bookings := []Booking{
		{ID: "b1", Status: BookingPlanned},
		{ID: "b2", Status: BookingCancelled},
		{ID: "b3", Status: BookingCompleted},
		{ID: "b4", Status: BookingMissed},
	}

	kept := SchedulingOnly(bookings)
	assert.Len(t, kept, 2)
	assert.Equal(t, "b1", kept[0].ID)
	assert.Equal(t, "b3", kept[1].ID)
}

func TestLeave_Covers(t *testing.T) {
	leave := Leave{
		Start: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, leave.Covers(leave.Start))
	assert.True(t, leave.Covers(time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)))
	assert.False(t, leave.Covers(leave.End))
	assert.False(t, leave.Covers(leave.Start.Add(-time.Minute)))
}

func TestStaff_HasSkills(t *testing.T) {
	staff := Staff{Skills: []string{"wound_care", "medication_admin"}}

	assert.True(t, staff.HasSkills(nil))
	assert.True(t, staff.HasSkills([]string{"wound_care"}))
	assert.True(t, staff.HasSkills([]string{"wound_care", "medication_admin"}))
	assert.False(t, staff.HasSkills([]string{"palliative"}))
	assert.False(t, staff.HasSkills([]string{"wound_care", "palliative"}))
}

func TestServiceType_FixedVisit(t *testing.T) {
	assert.False(t, (&ServiceType{}).FixedVisit())
	assert.True(t, (&ServiceType{FixedVisitCount: 3}).FixedVisit())
}

func TestBooking_DurationHours(t *testing.T) {
	b := Booking{
		Start: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC),
	}
	assert.Equal(t, 1.5, b.DurationHours())
}
