// Package model holds the ephemeral engine types: care requirements computed
// per planning call, score breakdowns and suggestions. Nothing in this
// package is persisted; the persisted records live in pkg/db.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fernhill-care/rostermatch/pkg/db"
	"github.com/fernhill-care/rostermatch/pkg/travel"
)

// MatchStatus classifies a suggestion's total score
type MatchStatus string

const (
	MatchStrong   MatchStatus = "strong"
	MatchModerate MatchStatus = "moderate"
	MatchWeak     MatchStatus = "weak"
	MatchNone     MatchStatus = "none"
)

// Tier returns the numeric rank of the status for global suggestion ordering
func (s MatchStatus) Tier() int {
	switch s {
	case MatchStrong:
		return 3
	case MatchModerate:
		return 2
	case MatchWeak:
		return 1
	default:
		return 0
	}
}

// StatusForScore maps a total score to its match status
func StatusForScore(total float64) MatchStatus {
	switch {
	case total >= 80:
		return MatchStrong
	case total >= 60:
		return MatchModerate
	case total >= 40:
		return MatchWeak
	default:
		return MatchNone
	}
}

// RequiredService is one unscheduled-need line item within a care requirement
type RequiredService struct {
	ServiceTypeID string
	Name          string
	Category      string
	Unit          db.UnitType

	// Required and Scheduled are quantities in the service's unit (hours or
	// visits). Decimal arithmetic keeps fractional-hour netting exact.
	Required  decimal.Decimal
	Scheduled decimal.Decimal

	FixedVisit  bool
	VisitLabels []string
}

// Remaining returns max(0, required - scheduled); never negative even when
// more has been scheduled than required.
func (s *RequiredService) Remaining() decimal.Decimal {
	remaining := s.Required.Sub(s.Scheduled)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// HasUnscheduled reports whether any quantity remains to be scheduled
func (s *RequiredService) HasUnscheduled() bool {
	return s.Remaining().IsPositive()
}

// CareRequirement is a patient's derived unscheduled service needs.
// Recomputed on every planning call, never stored.
type CareRequirement struct {
	PatientID   string
	RUGCategory string
	RiskFlags   []string
	Services    []RequiredService
}

// HasUnscheduledNeeds reports whether any service line has remaining quantity
func (r *CareRequirement) HasUnscheduledNeeds() bool {
	for i := range r.Services {
		if r.Services[i].HasUnscheduled() {
			return true
		}
	}
	return false
}

// RemainingHours sums the remaining quantity of all hour-unit services
func (r *CareRequirement) RemainingHours() decimal.Decimal {
	total := decimal.Zero
	for i := range r.Services {
		if r.Services[i].Unit == db.UnitHours {
			total = total.Add(r.Services[i].Remaining())
		}
	}
	return total
}

// StaffCandidate is the de-identified staff view carried on a suggestion
type StaffCandidate struct {
	StaffID        string
	RoleCode       string
	RoleName       string
	EmploymentType string
	MaxWeeklyHours float64
	Region         string

	// LastKnownLocation is the geolocation of the staff member's last
	// appointment on the target day, nil when none exists.
	LastKnownLocation *travel.Coord
}

// ScoreComponent is one weighted term of a match score
type ScoreComponent struct {
	Name  string
	Score float64
	Max   float64
	Note  string
}

// ScoreBreakdown is the full component list for one staff/patient/service
// combination. Component maxima sum to 100, so Total is bounded by
// construction.
type ScoreBreakdown struct {
	Components []ScoreComponent
}

// Total sums the component sub-scores
func (b *ScoreBreakdown) Total() float64 {
	total := 0.0
	for _, c := range b.Components {
		total += c.Score
	}
	return total
}

// Status returns the match status for the breakdown's total
func (b *ScoreBreakdown) Status() MatchStatus {
	return StatusForScore(b.Total())
}

// Component returns the named component, or nil if absent
func (b *ScoreBreakdown) Component(name string) *ScoreComponent {
	for i := range b.Components {
		if b.Components[i].Name == name {
			return &b.Components[i]
		}
	}
	return nil
}

// PatientContext is the de-identified patient view carried on a suggestion
type PatientContext struct {
	Region              string
	Acuity              db.Acuity
	MAPLeScore          int
	RiskFlags           []string
	DaysSinceActivation int
	PriorStaffCount     int
}

// StaffContext is the de-identified workload view carried on a suggestion
type StaffContext struct {
	RoleCode           string
	RoleName           string
	EmploymentType     string
	EmploymentTypeName string
	RemainingHours     float64
	UtilizationPercent float64
	TenureMonths       int
}

// Suggestion is the engine's recommended (or "no match") pairing of a staff
// member to one patient service need, with explanation metadata. Immutable
// once built.
type Suggestion struct {
	PatientID     string
	ServiceTypeID string
	ServiceName   string

	// Staff is nil for a "no match" outcome
	Staff *StaffCandidate

	DurationMinutes int
	Patient         PatientContext
	StaffDetail     *StaffContext

	Score           *ScoreBreakdown
	ConfidenceScore float64
	Status          MatchStatus

	TravelMinutes    *float64
	ContinuityVisits int

	CandidatesEvaluated int
	CandidatesPassed    int
	ExclusionReasons    []string

	WeekStart time.Time
	WeekEnd   time.Time
}

// roleNames maps role codes to display names
var roleNames = map[string]string{
	"RN":  "Registered Nurse",
	"LPN": "Licensed Practical Nurse",
	"PSW": "Personal Support Worker",
	"PT":  "Physiotherapist",
	"OT":  "Occupational Therapist",
	"SW":  "Social Worker",
}

// RoleName returns the display name for a role code, falling back to the code
func RoleName(code string) string {
	if name, ok := roleNames[code]; ok {
		return name
	}
	return code
}

// employmentTypeNames maps employment type codes to display names
var employmentTypeNames = map[string]string{
	"FT":  "Full-time",
	"PT":  "Part-time",
	"CAS": "Casual",
	"CON": "Contract",
}

// EmploymentTypeName returns the display name for an employment type code
func EmploymentTypeName(code string) string {
	if name, ok := employmentTypeNames[code]; ok {
		return name
	}
	return code
}
