// Package scorer computes weighted 0-100 match scores for staff/patient/
// service combinations. Seven components (capacity, continuity, travel,
// region, role, workload, urgency) each contribute a sub-score against a
// fixed maximum; the maxima sum to 100.
package scorer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fernhill-care/rostermatch/pkg/core/continuity"
	"github.com/fernhill-care/rostermatch/pkg/core/model"
	"github.com/fernhill-care/rostermatch/pkg/db"
	"github.com/fernhill-care/rostermatch/pkg/travel"
)

// Config holds the scorer's injected policy knobs
type Config struct {
	// ReliabilityWindowMonths is the trailing window for the urgency
	// component's completed/total ratio. Defaults to three months.
	ReliabilityWindowMonths int

	// ReliabilityMinSamples is the booking count below which the default
	// reliability is assumed. Defaults to five.
	ReliabilityMinSamples int

	// DefaultReliability is used for thin samples. Defaults to 0.90.
	DefaultReliability float64
}

// Scorer computes match scores
type Scorer struct {
	store   db.Database
	tracker *continuity.Tracker
	travel  travel.Estimator
	logger  *zap.Logger
	cfg     Config
}

// New creates a Scorer
func New(store db.Database, tracker *continuity.Tracker, estimator travel.Estimator, logger *zap.Logger, cfg Config) *Scorer {
	if cfg.ReliabilityWindowMonths <= 0 {
		cfg.ReliabilityWindowMonths = 3
	}
	if cfg.ReliabilityMinSamples <= 0 {
		cfg.ReliabilityMinSamples = 5
	}
	if cfg.DefaultReliability <= 0 {
		cfg.DefaultReliability = 0.90
	}
	return &Scorer{
		store:   store,
		tracker: tracker,
		travel:  estimator,
		logger:  logger,
		cfg:     cfg,
	}
}

// Input is one staff/patient/service combination to score
type Input struct {
	Staff           db.Staff
	Patient         db.Patient
	Service         db.ServiceType
	RoleMappings    []db.RoleMapping
	Target          time.Time
	DurationMinutes int
	WeekStart       time.Time
	WeekEnd         time.Time

	// VisitCount and ScheduledHours are prefetched by batch scoring so a
	// ranking pass does not rescan bookings per candidate.
	VisitCount     int
	ScheduledHours float64
}

// Result is a scored combination with the travel side products the
// suggestion payload carries.
type Result struct {
	Breakdown     model.ScoreBreakdown
	TravelMinutes *float64
	LastLocation  *travel.Coord
}

// Score computes the full component breakdown for one combination
func (s *Scorer) Score(ctx context.Context, in Input) (*Result, error) {
	durationHours := float64(in.DurationMinutes) / 60

	travelOut, err := s.travelComponent(ctx, in.Staff, in.Patient, in.Target)
	if err != nil {
		return nil, err
	}

	urgency, err := s.urgencyComponent(ctx, in.Staff, in.Patient, in.Target)
	if err != nil {
		return nil, err
	}

	breakdown := model.ScoreBreakdown{Components: []model.ScoreComponent{
		capacityComponent(in.Staff, in.ScheduledHours, durationHours),
		continuityComponent(in.VisitCount),
		travelOut.component,
		regionComponent(in.Staff, in.Patient),
		roleComponent(in.Staff, in.RoleMappings),
		workloadComponent(in.Staff, in.ScheduledHours),
		urgency,
	}}

	s.logger.Debug("Scored candidate",
		zap.String("staff_id", in.Staff.ID),
		zap.String("patient_id", in.Patient.ID),
		zap.String("service_type_id", in.Service.ID),
		zap.Float64("total", breakdown.Total()),
		zap.String("status", string(breakdown.Status())))

	return &Result{
		Breakdown:     breakdown,
		TravelMinutes: travelOut.minutes,
		LastLocation:  travelOut.lastLocation,
	}, nil
}

// Ranked is one candidate with its score and the prefetched context the
// orchestrator reuses when assembling a suggestion.
type Ranked struct {
	Staff          db.Staff
	Result         Result
	VisitCount     int
	ScheduledHours float64
}

// BatchInput is a batch scoring request for one patient/service line
type BatchInput struct {
	Candidates      []db.Staff
	Patient         db.Patient
	Service         db.ServiceType
	RoleMappings    []db.RoleMapping
	Target          time.Time
	DurationMinutes int
	WeekStart       time.Time
	WeekEnd         time.Time
}

// ScoreAll scores every candidate and returns them ranked descending.
// Continuity counts are fetched once per patient; week utilization once per
// candidate. Ties break by continuity visit count, then staff ID.
func (s *Scorer) ScoreAll(ctx context.Context, in BatchInput) ([]Ranked, error) {
	visitCounts, err := s.tracker.VisitCounts(ctx, in.Patient.ID, in.Target)
	if err != nil {
		return nil, err
	}

	ranked := make([]Ranked, 0, len(in.Candidates))
	for _, staff := range in.Candidates {
		scheduled, err := s.weekScheduledHours(ctx, staff.ID, in.WeekStart, in.WeekEnd)
		if err != nil {
			return nil, err
		}

		result, err := s.Score(ctx, Input{
			Staff:           staff,
			Patient:         in.Patient,
			Service:         in.Service,
			RoleMappings:    in.RoleMappings,
			Target:          in.Target,
			DurationMinutes: in.DurationMinutes,
			WeekStart:       in.WeekStart,
			WeekEnd:         in.WeekEnd,
			VisitCount:      visitCounts[staff.ID],
			ScheduledHours:  scheduled,
		})
		if err != nil {
			return nil, err
		}

		ranked = append(ranked, Ranked{
			Staff:          staff,
			Result:         *result,
			VisitCount:     visitCounts[staff.ID],
			ScheduledHours: scheduled,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return rankLess(ranked[i], ranked[j]) })
	return ranked, nil
}

// rankLess orders candidates: total score descending, continuity visit count
// descending, staff ID ascending. The secondary keys make ranking stable
// across identical totals.
func rankLess(a, b Ranked) bool {
	totalA, totalB := a.Result.Breakdown.Total(), b.Result.Breakdown.Total()
	if totalA != totalB {
		return totalA > totalB
	}
	if a.VisitCount != b.VisitCount {
		return a.VisitCount > b.VisitCount
	}
	return a.Staff.ID < b.Staff.ID
}

func (s *Scorer) weekScheduledHours(ctx context.Context, staffID string, weekStart, weekEnd time.Time) (float64, error) {
	bookings, err := s.store.GetStaffBookings(ctx, staffID, weekStart, weekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch week bookings for staff %s: %w", staffID, err)
	}
	hours := 0.0
	for _, b := range db.SchedulingOnly(bookings) {
		hours += b.DurationHours()
	}
	return hours, nil
}
