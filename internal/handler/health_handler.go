package handler

import (
	"net/http"
	"time"
)

// Health reports liveness and backing-store connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Health(r.Context()); err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
