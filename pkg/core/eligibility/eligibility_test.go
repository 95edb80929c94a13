package eligibility

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fernhill-care/rostermatch/pkg/db"
)

func TestTally_Reasons(t *testing.T) {
	tally := Tally{MissingSkills: 2, OnLeave: 1}
	reasons := tally.Reasons()
	assert.Equal(t, []string{
		"2 staff missing required skills",
		"1 staff on leave",
	}, reasons)
	assert.Equal(t, 3, tally.Total())
}

func TestTally_EmptyReasons(t *testing.T) {
	assert.Nil(t, Tally{}.Reasons())
	assert.Equal(t, 0, Tally{}.Total())
}

func TestEligibleStaff_NoMappings(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()
	f := New(store, zap.NewNop())

	staff, mappings, err := f.EligibleStaff(ctx, "org-1", "nursing")
	require.NoError(t, err)
	assert.Nil(t, staff)
	assert.Nil(t, mappings)
}

func TestEligibleStaff_SelectsByRole(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()
	store.AddRoleMapping(db.RoleMapping{ID: "m1", RoleCode: "RN", ServiceTypeID: "nursing", Primary: true, Active: true})
	store.AddRoleMapping(db.RoleMapping{ID: "m2", RoleCode: "LPN", ServiceTypeID: "nursing", Active: true})
	store.AddStaff(db.Staff{ID: "s1", OrgID: "org-1", RoleCode: "RN", Active: true})
	store.AddStaff(db.Staff{ID: "s2", OrgID: "org-1", RoleCode: "LPN", Active: true})
	store.AddStaff(db.Staff{ID: "s3", OrgID: "org-1", RoleCode: "PSW", Active: true})

	f := New(store, zap.NewNop())
	staff, mappings, err := f.EligibleStaff(ctx, "org-1", "nursing")
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "s1", staff[0].ID)
	assert.Equal(t, "s2", staff[1].ID)
	assert.Len(t, mappings, 2)
}

func TestEvaluate_ConstraintCategories(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()

	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 7)
	target := weekStart.Add(9 * time.Hour)

	service := db.ServiceType{
		ID:                     "wound",
		Name:                   "Wound Care",
		DefaultDurationMinutes: 60,
		RequiredSkills:         []string{"wound_care"},
	}

	passes := db.Staff{ID: "ok", RoleCode: "RN", MaxWeeklyHours: 40, Skills: []string{"wound_care"}, Active: true}
	unskilled := db.Staff{ID: "unskilled", RoleCode: "RN", MaxWeeklyHours: 40, Active: true}
	tapped := db.Staff{ID: "tapped", RoleCode: "RN", MaxWeeklyHours: 0.5, Skills: []string{"wound_care"}, Active: true}
	away := db.Staff{ID: "away", RoleCode: "RN", MaxWeeklyHours: 40, Skills: []string{"wound_care"}, Active: true}

	store.AddLeave(db.Leave{
		ID:      "l1",
		StaffID: "away",
		Start:   weekStart,
		End:     weekStart.AddDate(0, 0, 2),
	})

	f := New(store, zap.NewNop())
	passed, tally, err := f.Evaluate(ctx, []db.Staff{passes, unskilled, tapped, away}, Input{
		Service:   service,
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Target:    target,
	})
	require.NoError(t, err)

	require.Len(t, passed, 1)
	assert.Equal(t, "ok", passed[0].ID)
	assert.Equal(t, 1, tally.MissingSkills)
	assert.Equal(t, 1, tally.OverCapacity)
	assert.Equal(t, 1, tally.OnLeave)
	assert.Equal(t, 3, tally.Total())
}

func TestEvaluate_CapacityCountsScheduledHours(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()

	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 7)

	// 10h max with 9.5h already booked leaves no room for a 1h visit
	staff := db.Staff{ID: "s1", MaxWeeklyHours: 10, Active: true}
	store.AddBooking(db.Booking{
		ID:        "b1",
		PatientID: "p9",
		StaffID:   "s1",
		Status:    db.BookingPlanned,
		Start:     weekStart.Add(8 * time.Hour),
		End:       weekStart.Add(17*time.Hour + 30*time.Minute),
	})

	service := db.ServiceType{ID: "nursing", DefaultDurationMinutes: 60}

	f := New(store, zap.NewNop())
	passed, tally, err := f.Evaluate(ctx, []db.Staff{staff}, Input{
		Service:   service,
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
	})
	require.NoError(t, err)
	assert.Empty(t, passed)
	assert.Equal(t, 1, tally.OverCapacity)
}

func TestEvaluate_LeaveOutsideTargetIgnored(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()

	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 7)
	target := weekStart.Add(9 * time.Hour)

	// Leave later in the week does not cover the Monday target
	store.AddLeave(db.Leave{
		ID:      "l1",
		StaffID: "s1",
		Start:   weekStart.AddDate(0, 0, 4),
		End:     weekStart.AddDate(0, 0, 5),
	})

	staff := db.Staff{ID: "s1", MaxWeeklyHours: 40, Active: true}
	f := New(store, zap.NewNop())
	passed, tally, err := f.Evaluate(ctx, []db.Staff{staff}, Input{
		Service:   db.ServiceType{ID: "nursing", DefaultDurationMinutes: 60},
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Target:    target,
	})
	require.NoError(t, err)
	assert.Len(t, passed, 1)
	assert.Equal(t, 0, tally.Total())
}
