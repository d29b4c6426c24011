package model

import "time"

type Role string

const (
	RolePatient      Role = "patient"
	RoleProfessional Role = "professional"
	RoleAdmin        Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleProfessional, RoleAdmin:
		return true
	}
	return false
}

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// terminal states accept no further transitions
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type ConsultationType string

const (
	ConsultationInitial  ConsultationType = "initial"
	ConsultationFollowUp ConsultationType = "follow-up"
)

func (c ConsultationType) Valid() bool {
	return c == ConsultationInitial || c == ConsultationFollowUp
}

const (
	DateLayout = "2006-01-02"
	SlotLayout = "15:04"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID string
	Role   Role
}

type Appointment struct {
	ID             string
	PatientID      string
	PatientName    string
	PatientPhone   string
	PatientEmail   string
	ProfessionalID string
	Date           string // DateLayout
	TimeSlot       string // SlotLayout
	Status         AppointmentStatus
	Type           ConsultationType
	AccessLink     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StartTime combines Date and TimeSlot into the appointment start instant.
func (a *Appointment) StartTime() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+SlotLayout, a.Date+" "+a.TimeSlot, time.Local)
}

// Participant reports whether userID is the booking patient or the
// professional on the record.
func (a *Appointment) Participant(userID string) bool {
	return userID != "" && (a.PatientID == userID || a.ProfessionalID == userID)
}
