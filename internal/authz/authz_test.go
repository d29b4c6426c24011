package authz

import (
	"errors"
	"testing"

	"telehealth-api/internal/apperr"
	"telehealth-api/internal/model"
)

func TestAuthorize(t *testing.T) {
	patient := &model.Identity{UserID: "u1", Role: model.RolePatient}
	professional := &model.Identity{UserID: "u2", Role: model.RoleProfessional}
	admin := &model.Identity{UserID: "u3", Role: model.RoleAdmin}

	tests := []struct {
		name     string
		id       *model.Identity
		required []model.Role
		want     error
	}{
		{"nil identity", nil, []model.Role{model.RolePatient}, apperr.ErrUnauthenticated},
		{"nil identity no role required", nil, nil, apperr.ErrUnauthenticated},
		{"empty user id", &model.Identity{Role: model.RolePatient}, nil, apperr.ErrUnauthenticated},
		{"bogus role", &model.Identity{UserID: "u", Role: "superuser"}, nil, apperr.ErrUnauthenticated},
		{"any authenticated", patient, nil, nil},
		{"exact match", professional, []model.Role{model.RoleProfessional}, nil},
		{"one of several", patient, []model.Role{model.RolePatient, model.RoleProfessional}, nil},
		{"wrong role", patient, []model.Role{model.RoleProfessional}, apperr.ErrForbidden},
		{"admin not implicitly allowed", admin, []model.Role{model.RolePatient}, apperr.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.id, tt.required...)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected allow, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
