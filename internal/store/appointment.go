package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"telehealth-api/internal/apperr"
	"telehealth-api/internal/lifecycle"
	"telehealth-api/internal/model"
)

const appointmentCols = `id, patient_id, patient_name, patient_phone, patient_email,
	professional_id, date, time_slot, status, consultation_type, access_link,
	created_at, updated_at`

// CreateAppointment is a transactional check-and-insert: the slot check
// and the insert commit as one unit, and a partial unique index on live
// rows backstops the race two concurrent bookings can still lose.
func (s *Postgres) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrapStoreErr(err)
	}
	defer tx.Rollback(ctx)

	var taken bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE professional_id = $1 AND date = $2 AND time_slot = $3
			  AND status <> 'cancelled')`,
		a.ProfessionalID, a.Date, a.TimeSlot,
	).Scan(&taken)
	if err != nil {
		return wrapStoreErr(err)
	}
	if taken {
		return apperr.ErrConflict
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO appointments
		 (id, patient_id, patient_name, patient_phone, patient_email,
		  professional_id, date, time_slot, status, consultation_type, access_link)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.PatientID, a.PatientName, a.PatientPhone, a.PatientEmail,
		a.ProfessionalID, a.Date, a.TimeSlot, a.Status, a.Type, a.AccessLink,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrConflict
		}
		return wrapStoreErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrConflict
		}
		return wrapStoreErr(err)
	}
	return nil
}

func (s *Postgres) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id,
	).Scan(&a.ID, &a.PatientID, &a.PatientName, &a.PatientPhone, &a.PatientEmail,
		&a.ProfessionalID, &a.Date, &a.TimeSlot, &a.Status, &a.Type, &a.AccessLink,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, wrapStoreErr(err)
	}
	return a, nil
}

func (s *Postgres) ListAppointments(ctx context.Context, f Filter) ([]model.Appointment, error) {
	q := `SELECT ` + appointmentCols + ` FROM appointments WHERE 1=1`
	args := []any{}

	add := func(clause string, v any) {
		args = append(args, v)
		q += clause
	}
	if f.ProfessionalID != "" {
		add(` AND professional_id = $`+itoa(len(args)+1), f.ProfessionalID)
	}
	if f.PatientID != "" {
		add(` AND patient_id = $`+itoa(len(args)+1), f.PatientID)
	}
	if f.Status != "" {
		add(` AND status = $`+itoa(len(args)+1), f.Status)
	}
	if f.Date != "" {
		add(` AND date = $`+itoa(len(args)+1), f.Date)
	}
	if f.From != "" {
		add(` AND date >= $`+itoa(len(args)+1), f.From)
	}
	if f.To != "" {
		add(` AND date <= $`+itoa(len(args)+1), f.To)
	}
	if f.ByDate {
		q += ` ORDER BY date, time_slot`
	} else {
		q += ` ORDER BY created_at`
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.PatientName, &a.PatientPhone, &a.PatientEmail,
			&a.ProfessionalID, &a.Date, &a.TimeSlot, &a.Status, &a.Type, &a.AccessLink,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, wrapStoreErr(err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr(err)
	}
	return out, nil
}

// UpdateAppointmentStatus loads the row under lock, asks the lifecycle
// package whether the transition is legal for the actor, then applies
// it. Completion also requires the scheduled time to have passed.
func (s *Postgres) UpdateAppointmentStatus(ctx context.Context, id string, requested model.AppointmentStatus, actor model.Role) (*model.Appointment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer tx.Rollback(ctx)

	a := &model.Appointment{}
	err = tx.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1 FOR UPDATE`, id,
	).Scan(&a.ID, &a.PatientID, &a.PatientName, &a.PatientPhone, &a.PatientEmail,
		&a.ProfessionalID, &a.Date, &a.TimeSlot, &a.Status, &a.Type, &a.AccessLink,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, wrapStoreErr(err)
	}

	if err := lifecycle.ValidateTransition(a.Status, requested, actor); err != nil {
		return nil, err
	}
	if requested == model.StatusCompleted {
		if err := checkCompletable(a); err != nil {
			return nil, err
		}
	}

	err = tx.QueryRow(ctx,
		`UPDATE appointments SET status = $1, updated_at = NOW()
		 WHERE id = $2 RETURNING updated_at`, requested, id,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	a.Status = requested

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapStoreErr(err)
	}
	return a, nil
}

// completion is only valid once the scheduled time has passed
func checkCompletable(a *model.Appointment) error {
	start, err := a.StartTime()
	if err != nil {
		return apperr.Validation("malformed appointment date or slot")
	}
	if time.Now().Before(start) {
		return apperr.InvalidTransition(string(a.Status), string(model.StatusCompleted), string(model.RoleProfessional))
	}
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }
