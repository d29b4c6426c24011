// Package lifecycle holds the appointment status state machine:
//
//	scheduled -> confirmed (professional)
//	scheduled -> cancelled (patient or professional)
//	confirmed -> cancelled (patient or professional)
//	confirmed -> completed (professional)
//
// completed and cancelled are terminal. A transition that is not an
// edge of the machine is invalid for everyone; an edge attempted by a
// role not listed on it is forbidden.
package lifecycle

import (
	"telehealth-api/internal/apperr"
	"telehealth-api/internal/model"
)

type edge struct {
	from, to model.AppointmentStatus
}

var transitions = map[edge][]model.Role{
	{model.StatusScheduled, model.StatusConfirmed}: {model.RoleProfessional},
	{model.StatusScheduled, model.StatusCancelled}: {model.RolePatient, model.RoleProfessional},
	{model.StatusConfirmed, model.StatusCancelled}: {model.RolePatient, model.RoleProfessional},
	{model.StatusConfirmed, model.StatusCompleted}: {model.RoleProfessional},
}

// ValidateTransition is pure: it decides legality only, the store
// applies the mutation. It must be consulted before any status write.
func ValidateTransition(current, requested model.AppointmentStatus, actor model.Role) error {
	roles, ok := transitions[edge{current, requested}]
	if !ok {
		return apperr.InvalidTransition(string(current), string(requested), string(actor))
	}
	for _, r := range roles {
		if actor == r {
			return nil
		}
	}
	return apperr.ErrForbidden
}
