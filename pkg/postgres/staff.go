package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fernhill-care/rostermatch/pkg/db"
)

// GetStaff returns the staff member with the given ID, or nil if not found
func (d *DB) GetStaff(ctx context.Context, id string) (*db.Staff, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, org_id, name, role_code, employment_type, max_weekly_hours,
		       region, skills, active, locked, hired_at
		FROM staff
		WHERE id = $1
	`, id)

	staff, err := scanStaff(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	return staff, nil
}

// GetActiveStaffByRoles returns active, unlocked staff holding any of the roles
func (d *DB) GetActiveStaffByRoles(ctx context.Context, orgID string, roles []string) ([]db.Staff, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, org_id, name, role_code, employment_type, max_weekly_hours,
		       region, skills, active, locked, hired_at
		FROM staff
		WHERE active AND NOT locked
		  AND role_code = ANY($2)
		  AND ($1 = '' OR org_id = $1)
		ORDER BY id
	`, orgID, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff by roles: %w", err)
	}
	defer rows.Close()

	var staff []db.Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		staff = append(staff, *s)
	}
	return staff, rows.Err()
}

func scanStaff(row pgx.Row) (*db.Staff, error) {
	var s db.Staff
	var hiredAt *time.Time
	if err := row.Scan(&s.ID, &s.OrgID, &s.Name, &s.RoleCode, &s.EmploymentType,
		&s.MaxWeeklyHours, &s.Region, &s.Skills, &s.Active, &s.Locked, &hiredAt); err != nil {
		return nil, err
	}
	if hiredAt != nil {
		s.HiredAt = *hiredAt
	}
	return &s, nil
}

// GetRoleMappings returns active role mappings for a service type
func (d *DB) GetRoleMappings(ctx context.Context, orgID, serviceTypeID string) ([]db.RoleMapping, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, org_id, role_code, service_type_id, is_primary, active
		FROM role_mapping
		WHERE active AND service_type_id = $2
		  AND ($1 = '' OR org_id = '' OR org_id = $1)
	`, orgID, serviceTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query role mappings: %w", err)
	}
	defer rows.Close()

	var mappings []db.RoleMapping
	for rows.Next() {
		var m db.RoleMapping
		if err := rows.Scan(&m.ID, &m.OrgID, &m.RoleCode, &m.ServiceTypeID, &m.Primary, &m.Active); err != nil {
			return nil, fmt.Errorf("failed to scan role mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// GetLeaves returns leave intervals for a staff member intersecting [from, to)
func (d *DB) GetLeaves(ctx context.Context, staffID string, from, to time.Time) ([]db.Leave, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, staff_id, start_time, end_time
		FROM leave
		WHERE staff_id = $1 AND start_time < $3 AND end_time > $2
	`, staffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaves: %w", err)
	}
	defer rows.Close()

	var leaves []db.Leave
	for rows.Next() {
		var l db.Leave
		if err := rows.Scan(&l.ID, &l.StaffID, &l.Start, &l.End); err != nil {
			return nil, fmt.Errorf("failed to scan leave: %w", err)
		}
		leaves = append(leaves, l)
	}
	return leaves, rows.Err()
}
