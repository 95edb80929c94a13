package db

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory implementation of Database. It backs the engine
// tests and the CLI demo mode; access is safe for concurrent callers.
type Memory struct {
	mu sync.RWMutex

	patients      map[string]Patient
	carePlans     map[string]CarePlan
	planServices  map[string][]PlanService // plan ID -> rows
	bundles       map[string]BundleTemplate
	legacyBundles map[string][]string // bundle code -> service type IDs
	serviceTypes  map[string]ServiceType
	staff         map[string]Staff
	roleMappings  []RoleMapping
	leaves        []Leave
	bookings      map[string]Booking
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		patients:      make(map[string]Patient),
		carePlans:     make(map[string]CarePlan),
		planServices:  make(map[string][]PlanService),
		bundles:       make(map[string]BundleTemplate),
		legacyBundles: make(map[string][]string),
		serviceTypes:  make(map[string]ServiceType),
		staff:         make(map[string]Staff),
		bookings:      make(map[string]Booking),
	}
}

// AddPatient stores a patient record
func (m *Memory) AddPatient(p Patient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = p
}

// AddCarePlan stores a care plan record
func (m *Memory) AddCarePlan(cp CarePlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carePlans[cp.ID] = cp
}

// AddPlanService stores a plan-level customized service row
func (m *Memory) AddPlanService(ps PlanService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planServices[ps.PlanID] = append(m.planServices[ps.PlanID], ps)
}

// AddBundleTemplate stores a bundle template
func (m *Memory) AddBundleTemplate(bt BundleTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles[bt.Code] = bt
}

// AddLegacyBundleMapping stores a legacy bundle-to-service-type mapping
func (m *Memory) AddLegacyBundleMapping(code string, serviceTypeIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legacyBundles[code] = serviceTypeIDs
}

// AddServiceType stores a service type
func (m *Memory) AddServiceType(st ServiceType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serviceTypes[st.ID] = st
}

// AddStaff stores a staff record
func (m *Memory) AddStaff(s Staff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[s.ID] = s
}

// AddRoleMapping stores a role-to-service mapping
func (m *Memory) AddRoleMapping(rm RoleMapping) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roleMappings = append(m.roleMappings, rm)
}

// AddLeave stores a leave interval
func (m *Memory) AddLeave(l Leave) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves = append(m.leaves, l)
}

// AddBooking stores a booking directly, bypassing the conflict recheck.
// Intended for seeding historical state in tests.
func (m *Memory) AddBooking(b Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
}

// GetPatient returns the patient with the given ID, or nil if not found
func (m *Memory) GetPatient(ctx context.Context, id string) (*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.patients[id]; ok {
		return &p, nil
	}
	return nil, nil
}

// GetActivePatients returns active patients, optionally scoped to an org
func (m *Memory) GetActivePatients(ctx context.Context, orgID string) ([]Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Patient
	for _, p := range m.patients {
		if !p.Active {
			continue
		}
		if orgID != "" && p.OrgID != orgID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetActiveCarePlan returns the patient's active care plan, or nil if none
func (m *Memory) GetActiveCarePlan(ctx context.Context, patientID string) (*CarePlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, cp := range m.carePlans {
		if cp.PatientID == patientID && cp.Active {
			plan := cp
			return &plan, nil
		}
	}
	return nil, nil
}

// GetPlanServices returns the customized service rows for a plan
func (m *Memory) GetPlanServices(ctx context.Context, planID string) ([]PlanService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := make([]PlanService, len(m.planServices[planID]))
	copy(rows, m.planServices[planID])
	return rows, nil
}

// GetBundleTemplate returns the bundle template for a code, or nil if none
func (m *Memory) GetBundleTemplate(ctx context.Context, code string) (*BundleTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if bt, ok := m.bundles[code]; ok {
		tmpl := bt
		return &tmpl, nil
	}
	return nil, nil
}

// GetLegacyBundleServiceTypes returns the legacy mapping for a bundle code
func (m *Memory) GetLegacyBundleServiceTypes(ctx context.Context, code string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, len(m.legacyBundles[code]))
	copy(ids, m.legacyBundles[code])
	return ids, nil
}

// GetServiceType returns the service type with the given ID, or nil if not found
func (m *Memory) GetServiceType(ctx context.Context, id string) (*ServiceType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.serviceTypes[id]; ok {
		svc := st
		return &svc, nil
	}
	return nil, nil
}

// GetStaff returns the staff member with the given ID, or nil if not found
func (m *Memory) GetStaff(ctx context.Context, id string) (*Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.staff[id]; ok {
		staff := s
		return &staff, nil
	}
	return nil, nil
}

// GetActiveStaffByRoles returns active, unlocked staff holding any of the roles
func (m *Memory) GetActiveStaffByRoles(ctx context.Context, orgID string, roles []string) ([]Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	var out []Staff
	for _, s := range m.staff {
		if !s.Active || s.Locked {
			continue
		}
		if orgID != "" && s.OrgID != orgID {
			continue
		}
		if !roleSet[s.RoleCode] {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetRoleMappings returns active role mappings for a service type
func (m *Memory) GetRoleMappings(ctx context.Context, orgID, serviceTypeID string) ([]RoleMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []RoleMapping
	for _, rm := range m.roleMappings {
		if !rm.Active || rm.ServiceTypeID != serviceTypeID {
			continue
		}
		if orgID != "" && rm.OrgID != "" && rm.OrgID != orgID {
			continue
		}
		out = append(out, rm)
	}
	return out, nil
}

// GetLeaves returns leave intervals for a staff member intersecting [from, to)
func (m *Memory) GetLeaves(ctx context.Context, staffID string, from, to time.Time) ([]Leave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Leave
	for _, l := range m.leaves {
		if l.StaffID != staffID {
			continue
		}
		if inRange(l.Start, l.End, from, to) {
			out = append(out, l)
		}
	}
	return out, nil
}

// GetPatientBookings returns a patient's bookings intersecting [from, to)
func (m *Memory) GetPatientBookings(ctx context.Context, patientID string, from, to time.Time) ([]Booking, error) {
	return m.filterBookings(func(b Booking) bool { return b.PatientID == patientID }, from, to), nil
}

// GetStaffBookings returns a staff member's bookings intersecting [from, to)
func (m *Memory) GetStaffBookings(ctx context.Context, staffID string, from, to time.Time) ([]Booking, error) {
	return m.filterBookings(func(b Booking) bool { return b.StaffID == staffID }, from, to), nil
}

// GetServiceBookings returns a patient's bookings for one service type
func (m *Memory) GetServiceBookings(ctx context.Context, patientID, serviceTypeID string, from, to time.Time) ([]Booking, error) {
	return m.filterBookings(func(b Booking) bool {
		return b.PatientID == patientID && b.ServiceTypeID == serviceTypeID
	}, from, to), nil
}

// CreateBooking inserts a booking after rechecking patient overlap under the
// write lock, mirroring the transactional recheck of the postgres store.
func (m *Memory) CreateBooking(ctx context.Context, booking *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bookings {
		if existing.PatientID != booking.PatientID {
			continue
		}
		if !existing.Status.CountsForScheduling() {
			continue
		}
		if existing.Intersects(booking.Start, booking.End) {
			return ErrConflict
		}
	}
	m.bookings[booking.ID] = *booking
	return nil
}

func (m *Memory) filterBookings(match func(Booking) bool, from, to time.Time) []Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Booking
	for _, b := range m.bookings {
		if !match(b) {
			continue
		}
		if inRange(b.Start, b.End, from, to) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// inRange reports whether [start, end) intersects the query window.
// A zero from or to leaves that side of the window unbounded.
func inRange(start, end, from, to time.Time) bool {
	if !from.IsZero() && !end.After(from) {
		return false
	}
	if !to.IsZero() && !start.Before(to) {
		return false
	}
	return true
}
