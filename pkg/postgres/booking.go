package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/fernhill-care/rostermatch/pkg/db"
)

const bookingColumns = `id, org_id, patient_id, staff_id, service_type_id,
	start_time, end_time, status, source, created_by, created_at`

// GetPatientBookings returns a patient's bookings intersecting [from, to).
// Zero bounds leave that side of the window open.
func (d *DB) GetPatientBookings(ctx context.Context, patientID string, from, to time.Time) ([]db.Booking, error) {
	return d.queryBookings(ctx, `
		SELECT `+bookingColumns+`
		FROM booking
		WHERE patient_id = $1
		  AND ($2::timestamptz IS NULL OR end_time > $2)
		  AND ($3::timestamptz IS NULL OR start_time < $3)
		ORDER BY start_time
	`, patientID, nullableTime(from), nullableTime(to))
}

// GetStaffBookings returns a staff member's bookings intersecting [from, to)
func (d *DB) GetStaffBookings(ctx context.Context, staffID string, from, to time.Time) ([]db.Booking, error) {
	return d.queryBookings(ctx, `
		SELECT `+bookingColumns+`
		FROM booking
		WHERE staff_id = $1
		  AND ($2::timestamptz IS NULL OR end_time > $2)
		  AND ($3::timestamptz IS NULL OR start_time < $3)
		ORDER BY start_time
	`, staffID, nullableTime(from), nullableTime(to))
}

// GetServiceBookings returns a patient's bookings for one service type
func (d *DB) GetServiceBookings(ctx context.Context, patientID, serviceTypeID string, from, to time.Time) ([]db.Booking, error) {
	return d.queryBookings(ctx, `
		SELECT `+bookingColumns+`
		FROM booking
		WHERE patient_id = $1 AND service_type_id = $2
		  AND ($3::timestamptz IS NULL OR end_time > $3)
		  AND ($4::timestamptz IS NULL OR start_time < $4)
		ORDER BY start_time
	`, patientID, serviceTypeID, nullableTime(from), nullableTime(to))
}

// CreateBooking inserts a booking after re-checking patient overlap inside
// the same transaction. Conflicting rows are locked first so two concurrent
// acceptances for the same patient serialize; the loser gets db.ErrConflict.
func (d *DB) CreateBooking(ctx context.Context, booking *db.Booking) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var conflicts int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM (
			SELECT id FROM booking
			WHERE patient_id = $1
			  AND status IN ('planned', 'completed')
			  AND start_time < $3 AND end_time > $2
			FOR UPDATE
		) locked
	`, booking.PatientID, booking.Start, booking.End).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to recheck overlap: %w", err)
	}
	if conflicts > 0 {
		return db.ErrConflict
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking (id, org_id, patient_id, staff_id, service_type_id,
			start_time, end_time, status, source, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, booking.ID, booking.OrgID, booking.PatientID, booking.StaffID, booking.ServiceTypeID,
		booking.Start, booking.End, booking.Status, booking.Source, booking.CreatedBy, booking.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

func (d *DB) queryBookings(ctx context.Context, query string, args ...any) ([]db.Booking, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		var b db.Booking
		if err := rows.Scan(&b.ID, &b.OrgID, &b.PatientID, &b.StaffID, &b.ServiceTypeID,
			&b.Start, &b.End, &b.Status, &b.Source, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// nullableTime maps the zero time to SQL NULL for open-ended range queries
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
