// Package orchestrator is the engine's top level: it pulls unscheduled
// requirements, filters and scores eligible staff, ranks the results into
// suggestions, and commits accepted suggestions as bookings.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fernhill-care/rostermatch/pkg/core/continuity"
	"github.com/fernhill-care/rostermatch/pkg/core/eligibility"
	"github.com/fernhill-care/rostermatch/pkg/core/model"
	"github.com/fernhill-care/rostermatch/pkg/core/planner"
	"github.com/fernhill-care/rostermatch/pkg/core/schedule"
	"github.com/fernhill-care/rostermatch/pkg/core/scorer"
	"github.com/fernhill-care/rostermatch/pkg/db"
)

// Config holds orchestration policy
type Config struct {
	// NominalStartHour anchors candidate scoring within the target week:
	// travel and spacing need a concrete instant before a slot is chosen.
	// Defaults to 09:00 on the week start.
	NominalStartHour int

	// Source is stamped on bookings created through acceptance
	Source string
}

// Orchestrator composes the engine components
type Orchestrator struct {
	store     db.Database
	planner   *planner.Planner
	filter    *eligibility.Filter
	scorer    *scorer.Scorer
	validator *schedule.Validator
	tracker   *continuity.Tracker
	logger    *zap.Logger
	cfg       Config
}

// New creates an Orchestrator
func New(store db.Database, p *planner.Planner, f *eligibility.Filter, s *scorer.Scorer, v *schedule.Validator, t *continuity.Tracker, logger *zap.Logger, cfg Config) *Orchestrator {
	if cfg.NominalStartHour <= 0 {
		cfg.NominalStartHour = 9
	}
	if cfg.Source == "" {
		cfg.Source = "assignment_engine"
	}
	return &Orchestrator{
		store:     store,
		planner:   p,
		filter:    f,
		scorer:    s,
		validator: v,
		tracker:   t,
		logger:    logger,
		cfg:       cfg,
	}
}

// GenerateSuggestions computes ranked staffing suggestions for every
// unscheduled patient/service line in the week. Lines that cannot be matched
// produce "no match" suggestions carrying exclusion narratives rather than
// disappearing.
func (o *Orchestrator) GenerateSuggestions(ctx context.Context, orgID string, weekStart, weekEnd time.Time) ([]model.Suggestion, error) {
	requirements, err := o.planner.Plan(ctx, planner.Query{OrgID: orgID, From: weekStart, To: weekEnd})
	if err != nil {
		return nil, err
	}

	target := o.nominalTarget(weekStart)

	var suggestions []model.Suggestion
	for i := range requirements {
		req := &requirements[i]
		patient, err := o.store.GetPatient(ctx, req.PatientID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch patient %s: %w", req.PatientID, err)
		}
		if patient == nil {
			continue
		}

		priorStaff, err := o.tracker.UniqueStaffCount(ctx, patient.ID, target)
		if err != nil {
			return nil, err
		}

		for j := range req.Services {
			line := &req.Services[j]
			if !line.HasUnscheduled() {
				continue
			}

			suggestion, err := o.suggestForLine(ctx, orgID, *patient, req, line, priorStaff, target, weekStart, weekEnd)
			if err != nil {
				return nil, err
			}
			suggestions = append(suggestions, *suggestion)
		}
	}

	// Global order: match-status tier first, confidence score second
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := &suggestions[i], &suggestions[j]
		rankA := float64(a.Status.Tier())*100 + a.ConfidenceScore
		rankB := float64(b.Status.Tier())*100 + b.ConfidenceScore
		return rankA > rankB
	})

	o.logger.Info("Generated suggestions",
		zap.String("org_id", orgID),
		zap.Time("week_start", weekStart),
		zap.Int("count", len(suggestions)))

	return suggestions, nil
}

func (o *Orchestrator) suggestForLine(ctx context.Context, orgID string, patient db.Patient, req *model.CareRequirement, line *model.RequiredService, priorStaff int, target time.Time, weekStart, weekEnd time.Time) (*model.Suggestion, error) {
	svc, err := o.store.GetServiceType(ctx, line.ServiceTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch service type %s: %w", line.ServiceTypeID, err)
	}
	if svc == nil {
		return o.noMatch(patient, req, line, priorStaff, weekStart, weekEnd, 0, 0, nil), nil
	}

	candidates, mappings, err := o.filter.EligibleStaff(ctx, orgID, svc.ID)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		s := o.noMatch(patient, req, line, priorStaff, weekStart, weekEnd, 0, 0,
			[]string{eligibility.NoEligibleRoleReason})
		s.DurationMinutes = svc.DefaultDurationMinutes
		return s, nil
	}

	passed, tally, err := o.filter.Evaluate(ctx, candidates, eligibility.Input{
		Service:   *svc,
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Target:    target,
	})
	if err != nil {
		return nil, err
	}
	if len(passed) == 0 {
		s := o.noMatch(patient, req, line, priorStaff, weekStart, weekEnd, len(candidates), 0, tally.Reasons())
		s.DurationMinutes = svc.DefaultDurationMinutes
		return s, nil
	}

	ranked, err := o.scorer.ScoreAll(ctx, scorer.BatchInput{
		Candidates:      passed,
		Patient:         patient,
		Service:         *svc,
		RoleMappings:    mappings,
		Target:          target,
		DurationMinutes: svc.DefaultDurationMinutes,
		WeekStart:       weekStart,
		WeekEnd:         weekEnd,
	})
	if err != nil {
		return nil, err
	}

	best := ranked[0]
	return o.buildSuggestion(patient, req, svc, best, priorStaff,
		len(candidates), len(passed), tally.Reasons(), weekStart, weekEnd, target), nil
}

// GetSuggestionForService reconstructs a single suggestion for one fixed
// (patient, service, staff) triple, justifying a specific pairing
// independent of the ranked search. Missing records yield (nil, nil).
func (o *Orchestrator) GetSuggestionForService(ctx context.Context, patientID, serviceTypeID, staffID string, weekStart, weekEnd time.Time) (*model.Suggestion, error) {
	patient, err := o.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patient: %w", err)
	}
	svc, err := o.store.GetServiceType(ctx, serviceTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch service type: %w", err)
	}
	staff, err := o.store.GetStaff(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff: %w", err)
	}
	if patient == nil || svc == nil || staff == nil {
		return nil, nil
	}

	mappings, err := o.store.GetRoleMappings(ctx, patient.OrgID, svc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch role mappings: %w", err)
	}

	target := o.nominalTarget(weekStart)
	ranked, err := o.scorer.ScoreAll(ctx, scorer.BatchInput{
		Candidates:      []db.Staff{*staff},
		Patient:         *patient,
		Service:         *svc,
		RoleMappings:    mappings,
		Target:          target,
		DurationMinutes: svc.DefaultDurationMinutes,
		WeekStart:       weekStart,
		WeekEnd:         weekEnd,
	})
	if err != nil {
		return nil, err
	}

	priorStaff, err := o.tracker.UniqueStaffCount(ctx, patient.ID, target)
	if err != nil {
		return nil, err
	}

	req := &model.CareRequirement{
		PatientID:   patient.ID,
		RUGCategory: patient.RUGCategory,
		RiskFlags:   patient.RiskFlags,
	}
	return o.buildSuggestion(*patient, req, svc, ranked[0], priorStaff,
		1, 1, nil, weekStart, weekEnd, target), nil
}

func (o *Orchestrator) buildSuggestion(patient db.Patient, req *model.CareRequirement, svc *db.ServiceType, best scorer.Ranked, priorStaff, evaluated, passed int, reasons []string, weekStart, weekEnd, target time.Time) *model.Suggestion {
	total := best.Result.Breakdown.Total()
	breakdown := best.Result.Breakdown

	remaining := best.Staff.MaxWeeklyHours - best.ScheduledHours
	utilization := 0.0
	if best.Staff.MaxWeeklyHours > 0 {
		utilization = best.ScheduledHours / best.Staff.MaxWeeklyHours * 100
	}

	return &model.Suggestion{
		PatientID:     patient.ID,
		ServiceTypeID: svc.ID,
		ServiceName:   svc.Name,
		Staff: &model.StaffCandidate{
			StaffID:           best.Staff.ID,
			RoleCode:          best.Staff.RoleCode,
			RoleName:          model.RoleName(best.Staff.RoleCode),
			EmploymentType:    best.Staff.EmploymentType,
			MaxWeeklyHours:    best.Staff.MaxWeeklyHours,
			Region:            best.Staff.Region,
			LastKnownLocation: best.Result.LastLocation,
		},
		DurationMinutes: svc.DefaultDurationMinutes,
		Patient:         o.patientContext(patient, req, priorStaff, target),
		StaffDetail: &model.StaffContext{
			RoleCode:           best.Staff.RoleCode,
			RoleName:           model.RoleName(best.Staff.RoleCode),
			EmploymentType:     best.Staff.EmploymentType,
			EmploymentTypeName: model.EmploymentTypeName(best.Staff.EmploymentType),
			RemainingHours:     remaining,
			UtilizationPercent: utilization,
			TenureMonths:       monthsBetween(best.Staff.HiredAt, target),
		},
		Score:               &breakdown,
		ConfidenceScore:     total,
		Status:              model.StatusForScore(total),
		TravelMinutes:       best.Result.TravelMinutes,
		ContinuityVisits:    best.VisitCount,
		CandidatesEvaluated: evaluated,
		CandidatesPassed:    passed,
		ExclusionReasons:    reasons,
		WeekStart:           weekStart,
		WeekEnd:             weekEnd,
	}
}

func (o *Orchestrator) noMatch(patient db.Patient, req *model.CareRequirement, line *model.RequiredService, priorStaff int, weekStart, weekEnd time.Time, evaluated, passed int, reasons []string) *model.Suggestion {
	return &model.Suggestion{
		PatientID:           patient.ID,
		ServiceTypeID:       line.ServiceTypeID,
		ServiceName:         line.Name,
		Patient:             o.patientContext(patient, req, priorStaff, o.nominalTarget(weekStart)),
		Status:              model.MatchNone,
		CandidatesEvaluated: evaluated,
		CandidatesPassed:    passed,
		ExclusionReasons:    reasons,
		WeekStart:           weekStart,
		WeekEnd:             weekEnd,
	}
}

func (o *Orchestrator) patientContext(patient db.Patient, req *model.CareRequirement, priorStaff int, at time.Time) model.PatientContext {
	days := 0
	if !patient.ActivatedAt.IsZero() {
		days = int(at.Sub(patient.ActivatedAt).Hours() / 24)
	}
	return model.PatientContext{
		Region:              patient.Region,
		Acuity:              patient.Acuity,
		MAPLeScore:          patient.MAPLeScore,
		RiskFlags:           req.RiskFlags,
		DaysSinceActivation: days,
		PriorStaffCount:     priorStaff,
	}
}

func (o *Orchestrator) nominalTarget(weekStart time.Time) time.Time {
	return time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(),
		o.cfg.NominalStartHour, 0, 0, 0, weekStart.Location())
}

func monthsBetween(from, to time.Time) int {
	if from.IsZero() || !from.Before(to) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
