package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"telehealth-api/internal/apperr"
	"telehealth-api/internal/auth"
	"telehealth-api/internal/authz"
	"telehealth-api/internal/model"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Identity returns the authenticated principal, or nil on open routes.
func Identity(ctx context.Context) *model.Identity {
	id, _ := ctx.Value(identityKey).(*model.Identity)
	return id
}

// Authenticate requires a valid Bearer token and attaches the identity
// to the request context.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearer(r)
			if raw == "" {
				deny(w, apperr.ErrUnauthenticated)
				return
			}
			id, err := auth.ParseToken(raw, secret)
			if err != nil {
				deny(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on the authorization package's decision.
// Runs after Authenticate.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := authz.Authorize(Identity(r.Context()), roles...); err != nil {
				deny(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func deny(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.Status(err))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": apperr.Message(err),
		"code":  apperr.Code(err),
	})
}
