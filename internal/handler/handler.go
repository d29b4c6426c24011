package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"telehealth-api/internal/apperr"
	"telehealth-api/internal/model"
	"telehealth-api/internal/notify"
	"telehealth-api/internal/store"
)

type Handler struct {
	store        store.Store
	notifier     notify.Notifier
	log          *zap.Logger
	validate     *validator.Validate
	secret       string
	tokenTTL     time.Duration
	videoBaseURL string
}

func New(st store.Store, n notify.Notifier, log *zap.Logger, secret string, tokenTTL time.Duration, videoBaseURL string) *Handler {
	return &Handler{
		store:        st,
		notifier:     n,
		log:          log,
		validate:     validator.New(),
		secret:       secret,
		tokenTTL:     tokenTTL,
		videoBaseURL: videoBaseURL,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.Error(err))
	}
	h.writeJSON(w, status, map[string]string{
		"error": apperr.Message(err),
		"code":  apperr.Code(err),
	})
}

// decode parses the body and runs struct validation, reporting the
// first failing field.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("malformed JSON body")
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Validation("invalid field: " + verrs[0].Field())
		}
		return apperr.Validation("invalid request")
	}
	return nil
}

// appointmentResponse is the wire shape of an appointment.
type appointmentResponse struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	PatientName    string    `json:"patient_name"`
	PatientPhone   string    `json:"patient_phone"`
	PatientEmail   string    `json:"patient_email"`
	ProfessionalID string    `json:"professional_id"`
	Date           string    `json:"date"`
	TimeSlot       string    `json:"time_slot"`
	Status         string    `json:"status"`
	Type           string    `json:"consultation_type"`
	AccessLink     string    `json:"access_link"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toResponse(a *model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:             a.ID,
		PatientID:      a.PatientID,
		PatientName:    a.PatientName,
		PatientPhone:   a.PatientPhone,
		PatientEmail:   a.PatientEmail,
		ProfessionalID: a.ProfessionalID,
		Date:           a.Date,
		TimeSlot:       a.TimeSlot,
		Status:         string(a.Status),
		Type:           string(a.Type),
		AccessLink:     a.AccessLink,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
