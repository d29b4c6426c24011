package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"telehealth-api/internal/apperr"
	"telehealth-api/internal/lifecycle"
	"telehealth-api/internal/model"
)

// Memory is an in-process Store used by tests. One mutex serializes
// every write, which is what keeps the slot-uniqueness invariant under
// concurrent bookings.
type Memory struct {
	mu           sync.Mutex
	users        map[string]*model.User // keyed by email
	appointments []*model.Appointment   // insertion order
	byID         map[string]*model.Appointment

	// Now is overridable so completion-time rules can be tested.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]*model.User),
		byID:  make(map[string]*model.Appointment),
		Now:   time.Now,
	}
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return apperr.ErrDuplicateEmail
	}
	cp := *u
	cp.CreatedAt = m.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.users[u.Email] = &cp
	u.CreatedAt = cp.CreatedAt
	u.UpdatedAt = cp.UpdatedAt
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.appointments {
		if ex.ProfessionalID == a.ProfessionalID && ex.Date == a.Date &&
			ex.TimeSlot == a.TimeSlot && ex.Status != model.StatusCancelled {
			return apperr.ErrConflict
		}
	}
	cp := *a
	cp.CreatedAt = m.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.appointments = append(m.appointments, &cp)
	m.byID[cp.ID] = &cp
	a.CreatedAt = cp.CreatedAt
	a.UpdatedAt = cp.UpdatedAt
	return nil
}

func (m *Memory) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) ListAppointments(_ context.Context, f Filter) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.appointments {
		if f.ProfessionalID != "" && a.ProfessionalID != f.ProfessionalID {
			continue
		}
		if f.PatientID != "" && a.PatientID != f.PatientID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Date != "" && a.Date != f.Date {
			continue
		}
		if f.From != "" && a.Date < f.From {
			continue
		}
		if f.To != "" && a.Date > f.To {
			continue
		}
		out = append(out, *a)
	}
	if f.ByDate {
		// dates and slots are zero-padded, lexicographic order is chronological
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Date != out[j].Date {
				return out[i].Date < out[j].Date
			}
			return out[i].TimeSlot < out[j].TimeSlot
		})
	}
	return out, nil
}

func (m *Memory) UpdateAppointmentStatus(_ context.Context, id string, requested model.AppointmentStatus, actor model.Role) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if err := lifecycle.ValidateTransition(a.Status, requested, actor); err != nil {
		return nil, err
	}
	if requested == model.StatusCompleted {
		start, err := a.StartTime()
		if err != nil {
			return nil, apperr.Validation("malformed appointment date or slot")
		}
		if m.Now().Before(start) {
			return nil, apperr.InvalidTransition(string(a.Status), string(requested), string(actor))
		}
	}
	a.Status = requested
	a.UpdatedAt = m.Now()
	cp := *a
	return &cp, nil
}

func (m *Memory) Health(context.Context) error { return nil }
