package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"telehealth-api/internal/apperr"
	"telehealth-api/internal/middleware"
	"telehealth-api/internal/model"
	"telehealth-api/internal/store"
)

type createAppointmentRequest struct {
	PatientName    string `json:"patient_name" validate:"required"`
	PatientPhone   string `json:"patient_phone" validate:"required"`
	PatientEmail   string `json:"patient_email" validate:"required,email"`
	ProfessionalID string `json:"professional_id" validate:"required,uuid"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot       string `json:"time_slot" validate:"required,datetime=15:04"`
	Type           string `json:"consultation_type" validate:"required,oneof=initial follow-up"`
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	id := middleware.Identity(r.Context())

	var req createAppointmentRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	a := &model.Appointment{
		ID:             uuid.New().String(),
		PatientID:      id.UserID,
		PatientName:    req.PatientName,
		PatientPhone:   req.PatientPhone,
		PatientEmail:   req.PatientEmail,
		ProfessionalID: req.ProfessionalID,
		Date:           req.Date,
		TimeSlot:       req.TimeSlot,
		Status:         model.StatusScheduled,
		Type:           model.ConsultationType(req.Type),
		// generated once, never regenerated
		AccessLink: h.videoBaseURL + "/" + uuid.New().String(),
	}

	start, err := a.StartTime()
	if err != nil {
		h.writeError(w, apperr.Validation("invalid date or time_slot"))
		return
	}
	if start.Before(time.Now()) {
		h.writeError(w, apperr.Validation("cannot book in the past"))
		return
	}

	if err := h.store.CreateAppointment(r.Context(), a); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toResponse(a))
}

// ListAppointments scopes results by role: patients see their own
// bookings, professionals their own agenda, admins everything.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	id := middleware.Identity(r.Context())
	q := r.URL.Query()

	f := store.Filter{
		Date:   q.Get("date"),
		From:   q.Get("from"),
		To:     q.Get("to"),
		ByDate: q.Get("sort") == "date",
	}
	if s := q.Get("status"); s != "" {
		st := model.AppointmentStatus(s)
		if !st.Valid() {
			h.writeError(w, apperr.Validation("unknown status filter"))
			return
		}
		f.Status = st
	}

	switch id.Role {
	case model.RolePatient:
		f.PatientID = id.UserID
		f.ProfessionalID = q.Get("professional_id")
	case model.RoleProfessional:
		f.ProfessionalID = id.UserID
	case model.RoleAdmin:
		// cross-professional view
		f.ProfessionalID = q.Get("professional_id")
		f.PatientID = q.Get("patient_id")
	}

	apts, err := h.store.ListAppointments(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]appointmentResponse, len(apts))
	for i := range apts {
		out[i] = toResponse(&apts[i])
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := middleware.Identity(r.Context())

	a, err := h.store.GetAppointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	// non-participants get 404, not 403, to hide existence
	if id.Role != model.RoleAdmin && !a.Participant(id.UserID) {
		h.writeError(w, apperr.ErrNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, toResponse(a))
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled confirmed completed cancelled"`
}

func (h *Handler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id := middleware.Identity(r.Context())
	aptID := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	current, err := h.store.GetAppointment(r.Context(), aptID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !current.Participant(id.UserID) {
		h.writeError(w, apperr.ErrNotFound)
		return
	}

	updated, err := h.store.UpdateAppointmentStatus(r.Context(), aptID, model.AppointmentStatus(req.Status), id.Role)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.notifyTransition(updated)
	h.writeJSON(w, http.StatusOK, toResponse(updated))
}

// notifyTransition dispatches the patient notification for confirmed
// and cancelled transitions. Best effort: failure is logged and never
// rolls back the committed status change.
func (h *Handler) notifyTransition(a *model.Appointment) {
	if a.Status != model.StatusConfirmed && a.Status != model.StatusCancelled {
		return
	}
	cp := *a
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.notifier.AppointmentChanged(ctx, &cp); err != nil {
			h.log.Warn("notification failed",
				zap.String("appointment_id", cp.ID),
				zap.String("status", string(cp.Status)),
				zap.Error(err))
			return
		}
		h.log.Info("notification sent",
			zap.String("appointment_id", cp.ID),
			zap.String("status", string(cp.Status)))
	}()
}
