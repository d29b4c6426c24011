package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"telehealth-api/internal/apperr"
	"telehealth-api/internal/auth"
	"telehealth-api/internal/model"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=patient professional admin"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.Role(req.Role),
	}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		h.writeError(w, err)
		return
	}

	tok, err := auth.MakeToken(u.ID, u.Role, h.secret, h.tokenTTL)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{
		"user_id": u.ID,
		"name":    u.Name,
		"role":    string(u.Role),
		"token":   tok,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login deliberately collapses unknown email and wrong password into
// one uniform error so account existence cannot be probed.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	u, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			h.writeError(w, apperr.ErrInvalidCredentials)
			return
		}
		h.writeError(w, err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		h.writeError(w, apperr.ErrInvalidCredentials)
		return
	}

	tok, err := auth.MakeToken(u.ID, u.Role, h.secret, h.tokenTTL)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"user_id": u.ID,
		"name":    u.Name,
		"role":    string(u.Role),
		"token":   tok,
	})
}
