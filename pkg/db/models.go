package db

import "time"

// BookingStatus is the lifecycle status of a service assignment.
type BookingStatus string

const (
	BookingPlanned   BookingStatus = "planned"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingMissed    BookingStatus = "missed"
)

// Valid reports whether the status is one of the four known values.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPlanned, BookingCompleted, BookingCancelled, BookingMissed:
		return true
	}
	return false
}

// CountsForScheduling reports whether a booking with this status occupies
// schedule time. Cancelled and missed bookings never count in overlap,
// spacing or capacity reads.
func (s BookingStatus) CountsForScheduling() bool {
	return s == BookingPlanned || s == BookingCompleted
}

// UnitType is how a service requirement is quantified.
type UnitType string

const (
	UnitHours  UnitType = "hours"
	UnitVisits UnitType = "visits"
)

// Valid reports whether the unit type is a known value.
func (u UnitType) Valid() bool {
	return u == UnitHours || u == UnitVisits
}

// Acuity is the patient acuity label.
type Acuity string

const (
	AcuityStandard Acuity = "standard"
	AcuityHigh     Acuity = "high"
)

// Patient represents a patient record
type Patient struct {
	ID          string
	OrgID       string
	Name        string
	Region      string
	Latitude    *float64
	Longitude   *float64
	RUGCategory string
	MAPLeScore  int
	Acuity      Acuity
	RiskFlags   []string
	Active      bool
	ActivatedAt time.Time
}

// HasCoordinates reports whether the patient has a known geolocation
func (p *Patient) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// CarePlan represents an active care plan for a patient
type CarePlan struct {
	ID         string
	PatientID  string
	OrgID      string
	BundleCode string
	Active     bool
	StartDate  time.Time
}

// PlanService is a plan-level customized service requirement row.
// When present for a plan it overrides the bundle template defaults.
type PlanService struct {
	ID               string
	PlanID           string
	ServiceTypeID    string
	FrequencyPerWeek int
	DurationMinutes  int
}

// BundleServiceSpec is one service entry in a bundle template
type BundleServiceSpec struct {
	ServiceTypeID    string
	FrequencyPerWeek int
	DurationMinutes  int
}

// BundleTemplate holds the default service requirements for a bundle code
type BundleTemplate struct {
	Code     string
	Services []BundleServiceSpec
}

// ServiceType describes a deliverable care service
type ServiceType struct {
	ID                     string
	Name                   string
	Category               string
	Unit                   UnitType
	DefaultDurationMinutes int

	// MinGapMinutes is the minimum spacing between consecutive bookings of
	// this service for the same patient. Zero means no spacing rule.
	MinGapMinutes int

	// FixedVisitCount, when non-zero, marks a fixed-visit service: the
	// requirement is a constant total visit count per care episode rather
	// than a weekly frequency. VisitLabels names the visits in order.
	FixedVisitCount int
	VisitLabels     []string

	RequiredSkills []string
}

// FixedVisit reports whether this service is counted per care episode
func (st *ServiceType) FixedVisit() bool {
	return st.FixedVisitCount > 0
}

// Staff represents a care staff member
type Staff struct {
	ID             string
	OrgID          string
	Name           string
	RoleCode       string
	EmploymentType string
	MaxWeeklyHours float64
	Region         string
	Skills         []string
	Active         bool
	Locked         bool
	HiredAt        time.Time
}

// HasSkills reports whether the staff member holds every required skill
func (s *Staff) HasSkills(required []string) bool {
	for _, want := range required {
		found := false
		for _, have := range s.Skills {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// RoleMapping maps a staff role to a service type it may deliver
type RoleMapping struct {
	ID            string
	OrgID         string
	RoleCode      string
	ServiceTypeID string
	Primary       bool
	Active        bool
}

// Leave is a staff absence interval (half-open)
type Leave struct {
	ID      string
	StaffID string
	Start   time.Time
	End     time.Time
}

// Covers reports whether the leave covers the given instant
func (l *Leave) Covers(at time.Time) bool {
	return !at.Before(l.Start) && at.Before(l.End)
}

// Booking represents a persisted service assignment
type Booking struct {
	ID            string
	OrgID         string
	PatientID     string
	StaffID       string
	ServiceTypeID string
	Start         time.Time
	End           time.Time
	Status        BookingStatus
	Source        string
	CreatedBy     string
	CreatedAt     time.Time
}

// DurationHours returns the booking length in hours
func (b *Booking) DurationHours() float64 {
	return b.End.Sub(b.Start).Hours()
}

// Intersects reports whether the booking intersects [start, end) using
// half-open interval semantics: back-to-back bookings do not intersect.
func (b *Booking) Intersects(start, end time.Time) bool {
	return b.Start.Before(end) && b.End.After(start)
}

// SchedulingOnly filters bookings down to those that occupy schedule time.
// Every schedule-affecting read in the engine goes through this filter.
func SchedulingOnly(bookings []Booking) []Booking {
	var out []Booking
	for _, b := range bookings {
		if b.Status.CountsForScheduling() {
			out = append(out, b)
		}
	}
	return out
}
