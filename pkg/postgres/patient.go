package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fernhill-care/rostermatch/pkg/db"
)

// GetPatient returns the patient with the given ID, or nil if not found
func (d *DB) GetPatient(ctx context.Context, id string) (*db.Patient, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, org_id, name, region, latitude, longitude, rug_category,
		       maple_score, acuity, risk_flags, active, activated_at
		FROM patient
		WHERE id = $1
	`, id)

	patient, err := scanPatient(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query patient: %w", err)
	}
	return patient, nil
}

// GetActivePatients returns active patients, optionally scoped to an org
func (d *DB) GetActivePatients(ctx context.Context, orgID string) ([]db.Patient, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, org_id, name, region, latitude, longitude, rug_category,
		       maple_score, acuity, risk_flags, active, activated_at
		FROM patient
		WHERE active AND ($1 = '' OR org_id = $1)
		ORDER BY id
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active patients: %w", err)
	}
	defer rows.Close()

	var patients []db.Patient
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, *patient)
	}
	return patients, rows.Err()
}

func scanPatient(row pgx.Row) (*db.Patient, error) {
	var p db.Patient
	var activatedAt *time.Time
	if err := row.Scan(&p.ID, &p.OrgID, &p.Name, &p.Region, &p.Latitude, &p.Longitude,
		&p.RUGCategory, &p.MAPLeScore, &p.Acuity, &p.RiskFlags, &p.Active, &activatedAt); err != nil {
		return nil, err
	}
	if activatedAt != nil {
		p.ActivatedAt = *activatedAt
	}
	return &p, nil
}

// GetActiveCarePlan returns the patient's active care plan, or nil if none
func (d *DB) GetActiveCarePlan(ctx context.Context, patientID string) (*db.CarePlan, error) {
	var cp db.CarePlan
	err := d.pool.QueryRow(ctx, `
		SELECT id, patient_id, org_id, bundle_code, active, start_date
		FROM care_plan
		WHERE patient_id = $1 AND active
		ORDER BY start_date DESC
		LIMIT 1
	`, patientID).Scan(&cp.ID, &cp.PatientID, &cp.OrgID, &cp.BundleCode, &cp.Active, &cp.StartDate)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query care plan: %w", err)
	}
	return &cp, nil
}

// GetPlanServices returns the customized service rows for a plan
func (d *DB) GetPlanServices(ctx context.Context, planID string) ([]db.PlanService, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, plan_id, service_type_id, frequency_per_week, duration_minutes
		FROM plan_service
		WHERE plan_id = $1
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan services: %w", err)
	}
	defer rows.Close()

	var services []db.PlanService
	for rows.Next() {
		var ps db.PlanService
		if err := rows.Scan(&ps.ID, &ps.PlanID, &ps.ServiceTypeID, &ps.FrequencyPerWeek, &ps.DurationMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan plan service: %w", err)
		}
		services = append(services, ps)
	}
	return services, rows.Err()
}

// GetBundleTemplate returns the bundle template for a code, or nil if none
func (d *DB) GetBundleTemplate(ctx context.Context, code string) (*db.BundleTemplate, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT service_type_id, frequency_per_week, duration_minutes
		FROM bundle_service
		WHERE bundle_code = $1
	`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to query bundle template: %w", err)
	}
	defer rows.Close()

	tmpl := &db.BundleTemplate{Code: code}
	for rows.Next() {
		var spec db.BundleServiceSpec
		if err := rows.Scan(&spec.ServiceTypeID, &spec.FrequencyPerWeek, &spec.DurationMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan bundle service: %w", err)
		}
		tmpl.Services = append(tmpl.Services, spec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tmpl.Services) == 0 {
		return nil, nil
	}
	return tmpl, nil
}

// GetLegacyBundleServiceTypes returns the legacy mapping for a bundle code
func (d *DB) GetLegacyBundleServiceTypes(ctx context.Context, code string) ([]string, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT service_type_id FROM legacy_bundle_service WHERE bundle_code = $1
	`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy bundle mapping: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan legacy bundle service: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetServiceType returns the service type with the given ID, or nil if not found
func (d *DB) GetServiceType(ctx context.Context, id string) (*db.ServiceType, error) {
	var st db.ServiceType
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, category, unit_type, default_duration_minutes,
		       min_gap_minutes, fixed_visit_count, visit_labels, required_skills
		FROM service_type
		WHERE id = $1
	`, id).Scan(&st.ID, &st.Name, &st.Category, &st.Unit, &st.DefaultDurationMinutes,
		&st.MinGapMinutes, &st.FixedVisitCount, &st.VisitLabels, &st.RequiredSkills)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query service type: %w", err)
	}
	return &st, nil
}
