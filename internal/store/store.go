package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"telehealth-api/internal/model"
)

// Filter narrows ListAppointments. Zero fields are ignored. Results
// come back in insertion order unless ByDate is set.
type Filter struct {
	ProfessionalID string
	PatientID      string
	Status         model.AppointmentStatus
	Date           string // exact calendar date
	From, To       string // inclusive date range
	ByDate         bool
}

// Store is the persistence contract for users and appointments. The
// Postgres implementation backs production; Memory backs tests. Both
// enforce the (professional, date, slot) uniqueness invariant and
// delegate status-transition legality to the lifecycle package.
type Store interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)

	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, f Filter) ([]model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, requested model.AppointmentStatus, actor model.Role) (*model.Appointment, error)

	Health(ctx context.Context) error
}

// Postgres implements Store on a pgx pool. Each mutation runs in its
// own transaction; the transaction is the unit of atomicity.
type Postgres struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Health(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}
