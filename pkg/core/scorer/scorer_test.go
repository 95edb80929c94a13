package scorer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fernhill-care/rostermatch/pkg/core/continuity"
	"github.com/fernhill-care/rostermatch/pkg/core/model"
	"github.com/fernhill-care/rostermatch/pkg/db"
	"github.com/fernhill-care/rostermatch/pkg/travel"
)

var (
	weekStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	weekEnd   = weekStart.AddDate(0, 0, 7)
	target    = weekStart.Add(9 * time.Hour)
)

func coord(lat, lon float64) (*float64, *float64) {
	return &lat, &lon
}

func newTestScorer(store *db.Memory, estimator travel.Estimator) *Scorer {
	tracker := continuity.New(store, zap.NewNop(), continuity.Config{WindowMonths: 6})
	return New(store, tracker, estimator, zap.NewNop(), Config{})
}

func TestTravelComponent_NoPatientCoordinates(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()
	s := newTestScorer(store, travel.Fixed{Minutes: 10})

	out, err := s.travelComponent(ctx, db.Staff{ID: "s1"}, db.Patient{ID: "p1"}, target)
	require.NoError(t, err)
	assert.InDelta(t, 10, out.component.Score, 0.001)
	assert.Nil(t, out.minutes)
}

func TestTravelComponent_NoPriorAppointment(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()
	lat, lon := coord(43.65, -79.38)
	s := newTestScorer(store, travel.Fixed{Minutes: 10})

	out, err := s.travelComponent(ctx, db.Staff{ID: "s1"}, db.Patient{ID: "p1", Latitude: lat, Longitude: lon}, target)
	require.NoError(t, err)
	assert.InDelta(t, 14, out.component.Score, 0.001)
	assert.Contains(t, out.component.Note, "no prior appointment")
}

func seedPriorAppointment(store *db.Memory, staffID string) {
	lat, lon := coord(43.70, -79.40)
	store.AddPatient(db.Patient{ID: "prior-patient", Active: true, Latitude: lat, Longitude: lon})
	store.AddBooking(db.Booking{
		ID:        "prior",
		PatientID: "prior-patient",
		StaffID:   staffID,
		Status:    db.BookingCompleted,
		Start:     target.Add(-2 * time.Hour),
		End:       target.Add(-time.Hour),
	})
}

func TestTravelComponent_Tiers(t *testing.T) {
	tests := []struct {
		minutes float64
		want    float64
	}{
		{10, 20},
		{20, 16},
		{35, 10},
		{60, 5},
		{100, 0},
	}
	for _, tt := range tests {
		store := db.NewMemory()
		seedPriorAppointment(store, "s1")
		lat, lon := coord(43.65, -79.38)
		s := newTestScorer(store, travel.Fixed{Minutes: tt.minutes})

		out, err := s.travelComponent(context.Background(), db.Staff{ID: "s1"},
			db.Patient{ID: "p1", Latitude: lat, Longitude: lon}, target)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, out.component.Score, 0.001, "minutes=%.0f", tt.minutes)
		require.NotNil(t, out.minutes)
		assert.Equal(t, tt.minutes, *out.minutes)
		assert.NotNil(t, out.lastLocation)
	}
}

type failingEstimator struct{}

func (failingEstimator) EstimateMinutes(ctx context.Context, from, to travel.Coord, departAt time.Time) (float64, error) {
	return 0, assert.AnError
}

func TestTravelComponent_EstimatorFailureIsNeutral(t *testing.T) {
	store := db.NewMemory()
	seedPriorAppointment(store, "s1")
	lat, lon := coord(43.65, -79.38)
	s := newTestScorer(store, failingEstimator{})

	out, err := s.travelComponent(context.Background(), db.Staff{ID: "s1"},
		db.Patient{ID: "p1", Latitude: lat, Longitude: lon}, target)
	require.NoError(t, err)
	assert.InDelta(t, 14, out.component.Score, 0.001)
	assert.Nil(t, out.minutes)
}

func TestUrgencyComponent_StandardAcuity(t *testing.T) {
	store := db.NewMemory()
	s := newTestScorer(store, travel.Fixed{})

	c, err := s.urgencyComponent(context.Background(), db.Staff{ID: "s1"}, db.Patient{ID: "p1", MAPLeScore: 2}, target)
	require.NoError(t, err)
	assert.Equal(t, 5.0, c.Score)
}

func TestUrgencyComponent_HighAcuityReliability(t *testing.T) {
	ctx := context.Background()

	seedHistory := func(store *db.Memory, completed, other int) {
		at := target.AddDate(0, -1, 0)
		n := 0
		for i := 0; i < completed; i++ {
			n++
			store.AddBooking(db.Booking{
				ID: string(rune('a' + n)), PatientID: "px", StaffID: "s1",
				Status: db.BookingCompleted,
				Start:  at.Add(time.Duration(n) * 24 * time.Hour),
				End:    at.Add(time.Duration(n)*24*time.Hour + time.Hour),
			})
		}
		for i := 0; i < other; i++ {
			n++
			store.AddBooking(db.Booking{
				ID: string(rune('a' + n)), PatientID: "px", StaffID: "s1",
				Status: db.BookingMissed,
				Start:  at.Add(time.Duration(n) * 24 * time.Hour),
				End:    at.Add(time.Duration(n)*24*time.Hour + time.Hour),
			})
		}
	}

	highAcuity := db.Patient{ID: "p1", Acuity: db.AcuityHigh}

	// Thin sample falls back to the configured default (0.90 -> middle tier)
	store := db.NewMemory()
	s := newTestScorer(store, travel.Fixed{})
	c, err := s.urgencyComponent(ctx, db.Staff{ID: "s1"}, highAcuity, target)
	require.NoError(t, err)
	assert.InDelta(t, 3, c.Score, 0.001)

	// Perfect completion over a real sample earns full weight
	store = db.NewMemory()
	seedHistory(store, 6, 0)
	s = newTestScorer(store, travel.Fixed{})
	c, err = s.urgencyComponent(ctx, db.Staff{ID: "s1"}, highAcuity, target)
	require.NoError(t, err)
	assert.InDelta(t, 5, c.Score, 0.001)

	// Spotty completion drops to the bottom tier
	store = db.NewMemory()
	seedHistory(store, 3, 3)
	s = newTestScorer(store, travel.Fixed{})
	c, err = s.urgencyComponent(ctx, db.Staff{ID: "s1"}, highAcuity, target)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, c.Score, 0.001)
}

func TestScoreAll_StrongMatchScenario(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()

	lat, lon := coord(43.65, -79.38)
	patient := db.Patient{ID: "p1", Region: "north", Latitude: lat, Longitude: lon, Active: true}
	store.AddPatient(patient)

	staff := db.Staff{ID: "s1", RoleCode: "RN", Region: "north", MaxWeeklyHours: 40, Active: true}
	store.AddStaff(staff)

	// Six completed visits well inside the continuity window
	for i := 0; i < 6; i++ {
		start := target.AddDate(0, -2, -i*7)
		store.AddBooking(db.Booking{
			ID: string(rune('a' + i)), PatientID: "p1", StaffID: "s1",
			Status: db.BookingCompleted, Start: start, End: start.Add(time.Hour),
		})
	}

	service := db.ServiceType{ID: "nursing", Name: "Nursing Visit", DefaultDurationMinutes: 60}
	mappings := []db.RoleMapping{{RoleCode: "RN", ServiceTypeID: "nursing", Primary: true, Active: true}}

	s := newTestScorer(store, travel.Fixed{Minutes: 10})
	ranked, err := s.ScoreAll(ctx, BatchInput{
		Candidates:      []db.Staff{staff},
		Patient:         patient,
		Service:         service,
		RoleMappings:    mappings,
		Target:          target,
		DurationMinutes: 60,
		WeekStart:       weekStart,
		WeekEnd:         weekEnd,
	})
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	best := ranked[0]
	assert.Equal(t, 6, best.VisitCount)

	total := best.Result.Breakdown.Total()
	assert.GreaterOrEqual(t, total, 80.0, "established caregiver in-region should be a strong match")
	assert.Equal(t, model.MatchStrong, best.Result.Breakdown.Status())
	assert.LessOrEqual(t, total, 100.0)
}

func TestScoreAll_TieBreaksByStaffID(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()
	patient := db.Patient{ID: "p1", Region: "north", Active: true}
	store.AddPatient(patient)

	a := db.Staff{ID: "aaa", RoleCode: "RN", Region: "north", MaxWeeklyHours: 40, Active: true}
	b := db.Staff{ID: "zzz", RoleCode: "RN", Region: "north", MaxWeeklyHours: 40, Active: true}
	store.AddStaff(a)
	store.AddStaff(b)

	service := db.ServiceType{ID: "nursing", DefaultDurationMinutes: 60}
	mappings := []db.RoleMapping{{RoleCode: "RN", ServiceTypeID: "nursing", Primary: true, Active: true}}

	s := newTestScorer(store, travel.Fixed{Minutes: 10})
	ranked, err := s.ScoreAll(ctx, BatchInput{
		Candidates:      []db.Staff{b, a},
		Patient:         patient,
		Service:         service,
		RoleMappings:    mappings,
		Target:          target,
		DurationMinutes: 60,
		WeekStart:       weekStart,
		WeekEnd:         weekEnd,
	})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "aaa", ranked[0].Staff.ID)
	assert.Equal(t, "zzz", ranked[1].Staff.ID)
}

func TestScoreAll_HigherScoreRanksFirst(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemory()
	patient := db.Patient{ID: "p1", Region: "north", Active: true}
	store.AddPatient(patient)

	inRegion := db.Staff{ID: "near", RoleCode: "RN", Region: "north", MaxWeeklyHours: 40, Active: true}
	outRegion := db.Staff{ID: "far", RoleCode: "RN", Region: "south", MaxWeeklyHours: 40, Active: true}
	store.AddStaff(inRegion)
	store.AddStaff(outRegion)

	service := db.ServiceType{ID: "nursing", DefaultDurationMinutes: 60}
	mappings := []db.RoleMapping{{RoleCode: "RN", ServiceTypeID: "nursing", Primary: true, Active: true}}

	s := newTestScorer(store, travel.Fixed{Minutes: 10})
	ranked, err := s.ScoreAll(ctx, BatchInput{
		Candidates:      []db.Staff{outRegion, inRegion},
		Patient:         patient,
		Service:         service,
		RoleMappings:    mappings,
		Target:          target,
		DurationMinutes: 60,
		WeekStart:       weekStart,
		WeekEnd:         weekEnd,
	})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "near", ranked[0].Staff.ID)
	assert.Greater(t, ranked[0].Result.Breakdown.Total(), ranked[1].Result.Breakdown.Total())
}
