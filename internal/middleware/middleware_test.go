package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"telehealth-api/internal/auth"
	"telehealth-api/internal/middleware"
	"telehealth-api/internal/model"
)

const secret = "test-secret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	h := middleware.Authenticate(secret)(okHandler())

	valid, _ := auth.MakeToken("u1", model.RolePatient, secret, time.Minute)
	expired, _ := auth.MakeToken("u1", model.RolePatient, secret, -time.Minute)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tok, _ := auth.MakeToken("u1", model.RolePatient, secret, time.Minute)

	chain := middleware.Authenticate(secret)(
		middleware.RequireRole(model.RoleProfessional)(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestIdentityAttachedToContext(t *testing.T) {
	tok, _ := auth.MakeToken("u9", model.RoleAdmin, secret, time.Minute)

	var got *model.Identity
	h := middleware.Authenticate(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = middleware.Identity(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.UserID != "u9" || got.Role != model.RoleAdmin {
		t.Fatalf("identity not attached: %+v", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 2)
	h := rl.Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests should pass: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %v", codes)
	}

	// different IP has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("fresh IP should pass, got %d", rec.Code)
	}
}
