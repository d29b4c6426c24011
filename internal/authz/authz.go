// Package authz is the single authorization gate. Role checks live
// here, not at call sites.
package authz

import (
	"telehealth-api/internal/apperr"
	"telehealth-api/internal/model"
)

// Authorize decides whether an identity may proceed. A nil identity on
// a protected route is unauthenticated; a role mismatch is forbidden.
// With no required roles any authenticated identity passes. Denials are
// always surfaced, never downgraded.
func Authorize(id *model.Identity, required ...model.Role) error {
	if id == nil || id.UserID == "" || !id.Role.Valid() {
		return apperr.ErrUnauthenticated
	}
	if len(required) == 0 {
		return nil
	}
	for _, r := range required {
		if id.Role == r {
			return nil
		}
	}
	return apperr.ErrForbidden
}
