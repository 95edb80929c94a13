// Package planner derives per-patient unscheduled service needs from
// care-plan configuration and booking history. Requirements are recomputed
// on every call and ordered by an explicit priority comparator.
package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fernhill-care/rostermatch/pkg/core/model"
	"github.com/fernhill-care/rostermatch/pkg/db"
)

// Config holds the planner's injected policy knobs
type Config struct {
	// DangerousRiskFlags are the risk-flag keys that put a patient in the
	// top priority tier.
	DangerousRiskFlags []string
}

// Planner computes care requirements
type Planner struct {
	store  db.Database
	logger *zap.Logger
	order  priorityOrder
}

// New creates a Planner. With no configured flags, the single flag
// "dangerous_behaviour" is used.
func New(store db.Database, logger *zap.Logger, cfg Config) *Planner {
	flags := cfg.DangerousRiskFlags
	if len(flags) == 0 {
		flags = []string{"dangerous_behaviour"}
	}
	return &Planner{
		store:  store,
		logger: logger,
		order:  newPriorityOrder(flags),
	}
}

// Query scopes a planning call
type Query struct {
	OrgID string
	From  time.Time
	To    time.Time

	// PatientID restricts planning to a single patient when non-empty
	PatientID string
}

// resolvedService is one resolved requirement row before quantity netting
type resolvedService struct {
	serviceTypeID    string
	frequencyPerWeek int
	durationMinutes  int
}

// Plan computes the unscheduled care requirements for every active patient
// with an active care plan in scope, sorted by priority. Read-only; rows
// referencing unresolvable service types are skipped, not errored.
func (p *Planner) Plan(ctx context.Context, q Query) ([]model.CareRequirement, error) {
	patients, err := p.scopedPatients(ctx, q)
	if err != nil {
		return nil, err
	}

	var requirements []model.CareRequirement
	for _, patient := range patients {
		req, err := p.planPatient(ctx, patient, q)
		if err != nil {
			return nil, err
		}
		if req != nil && req.HasUnscheduledNeeds() {
			requirements = append(requirements, *req)
		}
	}

	sort.SliceStable(requirements, func(i, j int) bool {
		return p.order.Less(&requirements[i], &requirements[j])
	})

	p.logger.Info("Computed care requirements",
		zap.String("org_id", q.OrgID),
		zap.Int("patients", len(patients)),
		zap.Int("with_unscheduled_needs", len(requirements)))

	return requirements, nil
}

func (p *Planner) scopedPatients(ctx context.Context, q Query) ([]db.Patient, error) {
	if q.PatientID != "" {
		patient, err := p.store.GetPatient(ctx, q.PatientID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch patient: %w", err)
		}
		if patient == nil || !patient.Active {
			return nil, nil
		}
		return []db.Patient{*patient}, nil
	}

	patients, err := p.store.GetActivePatients(ctx, q.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active patients: %w", err)
	}
	return patients, nil
}

func (p *Planner) planPatient(ctx context.Context, patient db.Patient, q Query) (*model.CareRequirement, error) {
	plan, err := p.store.GetActiveCarePlan(ctx, patient.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch care plan for patient %s: %w", patient.ID, err)
	}
	if plan == nil {
		return nil, nil
	}

	resolved, err := p.resolveServices(ctx, plan)
	if err != nil {
		return nil, err
	}

	req := &model.CareRequirement{
		PatientID:   patient.ID,
		RUGCategory: patient.RUGCategory,
		RiskFlags:   patient.RiskFlags,
	}

	for _, row := range resolved {
		svc, err := p.store.GetServiceType(ctx, row.serviceTypeID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch service type %s: %w", row.serviceTypeID, err)
		}
		if svc == nil {
			p.logger.Debug("Skipping requirement row with unresolvable service type",
				zap.String("patient_id", patient.ID),
				zap.String("service_type_id", row.serviceTypeID))
			continue
		}

		line, err := p.buildLine(ctx, patient.ID, plan, svc, row, q)
		if err != nil {
			return nil, err
		}
		req.Services = append(req.Services, *line)
	}

	return req, nil
}

// resolveServices applies the three-tier priority: plan-level customized
// rows, then the bundle template, then the legacy bundle mapping.
func (p *Planner) resolveServices(ctx context.Context, plan *db.CarePlan) ([]resolvedService, error) {
	rows, err := p.store.GetPlanServices(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plan services: %w", err)
	}
	if len(rows) > 0 {
		resolved := make([]resolvedService, 0, len(rows))
		for _, r := range rows {
			resolved = append(resolved, resolvedService{
				serviceTypeID:    r.ServiceTypeID,
				frequencyPerWeek: r.FrequencyPerWeek,
				durationMinutes:  r.DurationMinutes,
			})
		}
		return resolved, nil
	}

	tmpl, err := p.store.GetBundleTemplate(ctx, plan.BundleCode)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bundle template: %w", err)
	}
	if tmpl != nil && len(tmpl.Services) > 0 {
		resolved := make([]resolvedService, 0, len(tmpl.Services))
		for _, s := range tmpl.Services {
			resolved = append(resolved, resolvedService{
				serviceTypeID:    s.ServiceTypeID,
				frequencyPerWeek: s.FrequencyPerWeek,
				durationMinutes:  s.DurationMinutes,
			})
		}
		return resolved, nil
	}

	// Legacy mapping carries no quantities: once weekly at the service
	// type's default duration.
	ids, err := p.store.GetLegacyBundleServiceTypes(ctx, plan.BundleCode)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch legacy bundle mapping: %w", err)
	}
	resolved := make([]resolvedService, 0, len(ids))
	for _, id := range ids {
		resolved = append(resolved, resolvedService{serviceTypeID: id, frequencyPerWeek: 1})
	}
	return resolved, nil
}

func (p *Planner) buildLine(ctx context.Context, patientID string, plan *db.CarePlan, svc *db.ServiceType, row resolvedService, q Query) (*model.RequiredService, error) {
	line := &model.RequiredService{
		ServiceTypeID: svc.ID,
		Name:          svc.Name,
		Category:      svc.Category,
		Unit:          svc.Unit,
		FixedVisit:    svc.FixedVisit(),
		VisitLabels:   svc.VisitLabels,
	}

	duration := row.durationMinutes
	if duration <= 0 {
		duration = svc.DefaultDurationMinutes
	}

	if svc.FixedVisit() {
		// Fixed-visit services count visits across the whole care episode,
		// not per query window.
		bookings, err := p.store.GetServiceBookings(ctx, patientID, svc.ID, plan.StartDate, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch episode bookings: %w", err)
		}
		line.Required = decimal.NewFromInt(int64(svc.FixedVisitCount))
		line.Scheduled = decimal.NewFromInt(int64(len(db.SchedulingOnly(bookings))))
		return line, nil
	}

	bookings, err := p.store.GetServiceBookings(ctx, patientID, svc.ID, q.From, q.To)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch window bookings: %w", err)
	}
	scheduled := db.SchedulingOnly(bookings)

	if svc.Unit == db.UnitHours {
		line.Required = decimal.NewFromInt(int64(row.frequencyPerWeek)).
			Mul(decimal.NewFromInt(int64(duration))).
			Div(decimal.NewFromInt(60))
		total := decimal.Zero
		for _, b := range scheduled {
			total = total.Add(decimal.NewFromFloat(b.DurationHours()))
		}
		line.Scheduled = total
		return line, nil
	}

	line.Required = decimal.NewFromInt(int64(row.frequencyPerWeek))
	line.Scheduled = decimal.NewFromInt(int64(len(scheduled)))
	return line, nil
}

// Tier exposes the priority tier of a requirement for callers that present
// the ranked list.
func (p *Planner) Tier(r *model.CareRequirement) PriorityTier {
	return p.order.Tier(r)
}
