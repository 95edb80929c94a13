package db

import (
	"context"
	"errors"
	"time"
)

// ErrConflict is returned by CreateBooking when the write-time recheck finds
// an overlapping assignment for the same patient. It signals a race between
// suggestion computation and acceptance, not a caller bug.
var ErrConflict = errors.New("booking conflicts with an existing assignment")

// PatientStore provides read access to patients, care plans and service
// configuration. Lookups return (nil, nil) when the record does not exist so
// callers can distinguish "nothing to suggest" from a store failure.
type PatientStore interface {
	GetPatient(ctx context.Context, id string) (*Patient, error)
	GetActivePatients(ctx context.Context, orgID string) ([]Patient, error)
	GetActiveCarePlan(ctx context.Context, patientID string) (*CarePlan, error)
	GetPlanServices(ctx context.Context, planID string) ([]PlanService, error)
	GetBundleTemplate(ctx context.Context, code string) (*BundleTemplate, error)
	GetLegacyBundleServiceTypes(ctx context.Context, code string) ([]string, error)
	GetServiceType(ctx context.Context, id string) (*ServiceType, error)
}

// StaffStore provides read access to staff, role mappings and leave state
type StaffStore interface {
	GetStaff(ctx context.Context, id string) (*Staff, error)
	GetActiveStaffByRoles(ctx context.Context, orgID string, roles []string) ([]Staff, error)
	GetRoleMappings(ctx context.Context, orgID, serviceTypeID string) ([]RoleMapping, error)
	GetLeaves(ctx context.Context, staffID string, from, to time.Time) ([]Leave, error)
}

// BookingStore provides read and write access to service assignments.
// Range reads treat a zero from/to as unbounded and return bookings of every
// status; callers filter with SchedulingOnly where schedule time matters.
type BookingStore interface {
	GetPatientBookings(ctx context.Context, patientID string, from, to time.Time) ([]Booking, error)
	GetStaffBookings(ctx context.Context, staffID string, from, to time.Time) ([]Booking, error)
	GetServiceBookings(ctx context.Context, patientID, serviceTypeID string, from, to time.Time) ([]Booking, error)

	// CreateBooking persists a new assignment. The implementation must
	// re-check patient overlap and insert atomically, returning ErrConflict
	// when the slot was taken between validation and write.
	CreateBooking(ctx context.Context, booking *Booking) error
}

// Database defines the interface for all store operations.
// Both the in-memory db.Memory and postgres.DB implement this interface.
type Database interface {
	PatientStore
	StaffStore
	BookingStore
}
