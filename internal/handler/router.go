package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"telehealth-api/internal/middleware"
	"telehealth-api/internal/model"
)

// Routes mounts the API. The auth limiter guards only login/register;
// global middleware (cors, metrics, the per-IP cap) is applied by the
// caller so tests can mount the bare API.
func (h *Handler) Routes(authLimiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		if authLimiter != nil {
			r.Use(authLimiter.Middleware)
		}
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Use(middleware.Authenticate(h.secret))

		r.With(middleware.RequireRole(model.RolePatient)).
			Post("/", h.CreateAppointment)
		r.With(middleware.RequireRole()).
			Get("/", h.ListAppointments)
		r.With(middleware.RequireRole()).
			Get("/{id}", h.GetAppointment)
		r.With(middleware.RequireRole(model.RolePatient, model.RoleProfessional)).
			Patch("/{id}/status", h.UpdateAppointmentStatus)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found", "code": "NOT_FOUND"})
	})

	return r
}
