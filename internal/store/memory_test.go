package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"telehealth-api/internal/apperr"
	"telehealth-api/internal/model"
)

func draft(professional, date, slot string) *model.Appointment {
	return &model.Appointment{
		ID:             uuid.New().String(),
		PatientID:      uuid.New().String(),
		PatientName:    "Ana Souza",
		PatientPhone:   "+5511999990000",
		PatientEmail:   "ana@example.com",
		ProfessionalID: professional,
		Date:           date,
		TimeSlot:       slot,
		Status:         model.StatusScheduled,
		Type:           model.ConsultationInitial,
		AccessLink:     "https://meet.example.com/session/" + uuid.New().String(),
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := draft(uuid.New().String(), "2025-03-01", "14:00")
	if err := m.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := m.GetAppointment(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("server-assigned timestamps missing")
	}
	// equal in all caller-supplied fields
	got.CreatedAt, got.UpdatedAt = a.CreatedAt, a.UpdatedAt
	if *got != *a {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, a)
	}
}

func TestGetNotFound(t *testing.T) {
	m := NewMemory()
	if _, err := m.GetAppointment(context.Background(), uuid.New().String()); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// no two live appointments may share (professional, date, slot)
func TestConcurrentBookingOneWinner(t *testing.T) {
	m := NewMemory()
	prof := uuid.New().String()

	const n = 25
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- m.CreateAppointment(context.Background(), draft(prof, "2025-03-01", "14:00"))
		}()
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, apperr.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}
	if conflicts != n-1 {
		t.Errorf("expected %d conflicts, got %d", n-1, conflicts)
	}
}

func TestCancelledSlotRebookable(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	prof := uuid.New().String()

	a := draft(prof, "2025-03-01", "14:00")
	if err := m.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.UpdateAppointmentStatus(ctx, a.ID, model.StatusCancelled, model.RolePatient); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := m.CreateAppointment(ctx, draft(prof, "2025-03-01", "14:00")); err != nil {
		t.Fatalf("rebooking a cancelled slot should succeed: %v", err)
	}
}

func TestDifferentProfessionalsNoConflict(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.CreateAppointment(ctx, draft(uuid.New().String(), "2025-03-01", "14:00")); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := m.CreateAppointment(ctx, draft(uuid.New().String(), "2025-03-01", "14:00")); err != nil {
		t.Fatalf("second: %v", err)
	}
}

func TestStatusTransitionsAndTerminalIdempotence(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := draft(uuid.New().String(), "2025-03-01", "14:00")
	if err := m.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := m.UpdateAppointmentStatus(ctx, a.ID, model.StatusConfirmed, model.RoleProfessional)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != model.StatusConfirmed {
		t.Errorf("status: got %s", got.Status)
	}

	if _, err := m.UpdateAppointmentStatus(ctx, a.ID, model.StatusCancelled, model.RolePatient); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// second cancel must fail, never silently succeed
	if _, err := m.UpdateAppointmentStatus(ctx, a.ID, model.StatusCancelled, model.RolePatient); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on repeat cancel, got %v", err)
	}
}

func TestCompletionRequiresScheduledTimePassed(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := draft(uuid.New().String(), "2025-03-01", "14:00")
	if err := m.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.UpdateAppointmentStatus(ctx, a.ID, model.StatusConfirmed, model.RoleProfessional); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	start, _ := a.StartTime()

	m.Now = func() time.Time { return start.Add(-time.Hour) }
	if _, err := m.UpdateAppointmentStatus(ctx, a.ID, model.StatusCompleted, model.RoleProfessional); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition before start, got %v", err)
	}

	m.Now = func() time.Time { return start.Add(time.Hour) }
	got, err := m.UpdateAppointmentStatus(ctx, a.ID, model.StatusCompleted, model.RoleProfessional)
	if err != nil {
		t.Fatalf("complete after start: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("status: got %s", got.Status)
	}
}

func TestListFiltersAndOrdering(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	profA := uuid.New().String()
	profB := uuid.New().String()

	// inserted out of date order on purpose
	for i, tc := range []struct {
		prof, date, slot string
	}{
		{profA, "2025-03-02", "10:00"},
		{profA, "2025-03-01", "15:00"},
		{profA, "2025-03-01", "09:00"},
		{profB, "2025-03-01", "09:00"},
	} {
		a := draft(tc.prof, tc.date, tc.slot)
		a.PatientName = fmt.Sprintf("patient-%d", i)
		if err := m.CreateAppointment(ctx, a); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	byProf, err := m.ListAppointments(ctx, Filter{ProfessionalID: profA})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byProf) != 3 {
		t.Fatalf("expected 3 for professional A, got %d", len(byProf))
	}
	// insertion order by default
	if byProf[0].Date != "2025-03-02" {
		t.Errorf("expected insertion order, first date %s", byProf[0].Date)
	}

	ordered, err := m.ListAppointments(ctx, Filter{ProfessionalID: profA, ByDate: true})
	if err != nil {
		t.Fatalf("list ordered: %v", err)
	}
	want := []string{"09:00", "15:00", "10:00"}
	for i, slot := range want {
		if ordered[i].TimeSlot != slot {
			t.Errorf("position %d: got %s %s, want slot %s", i, ordered[i].Date, ordered[i].TimeSlot, slot)
		}
	}

	day, err := m.ListAppointments(ctx, Filter{Date: "2025-03-01"})
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(day) != 3 {
		t.Errorf("expected 3 on 2025-03-01, got %d", len(day))
	}

	ranged, err := m.ListAppointments(ctx, Filter{From: "2025-03-02", To: "2025-03-02"})
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(ranged) != 1 {
		t.Errorf("expected 1 in range, got %d", len(ranged))
	}
}

func TestDuplicateEmail(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	u := &model.User{ID: uuid.New().String(), Name: "A", Email: "a@b.com", PasswordHash: "x", Role: model.RolePatient}
	if err := m.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := &model.User{ID: uuid.New().String(), Name: "B", Email: "a@b.com", PasswordHash: "y", Role: model.RolePatient}
	if err := m.CreateUser(ctx, dup); !errors.Is(err, apperr.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email, got %v", err)
	}
}
