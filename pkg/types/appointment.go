package types

import "time"

// AppointmentStatus represents appointment status values
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValid reports whether s is one of the five known statuses
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment represents a clinical appointment record.
// DoctorID is nil exactly while the appointment is pending; once set it is
// never reassigned. PatientID, ClinicID, Date, Time, Reason and Notes are
// immutable after creation.
type Appointment struct {
	ID         string            `json:"id" db:"id"`
	PatientID  string            `json:"patient_id" db:"patient_id"`
	DoctorID   *string           `json:"doctor_id,omitempty" db:"doctor_id"`
	ClinicID   string            `json:"clinic_id" db:"clinic_id"`
	ClinicName string            `json:"clinic_name" db:"clinic_name"`
	Date       string            `json:"date" db:"date"`
	Time       string            `json:"time" db:"time"`
	Status     AppointmentStatus `json:"status" db:"status"`
	Reason     string            `json:"reason,omitempty" db:"reason"`
	Notes      string            `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`
}

// AssignedTo reports whether the appointment is assigned to the given doctor
func (a *Appointment) AssignedTo(doctorID string) bool {
	return a.DoctorID != nil && *a.DoctorID == doctorID
}

// AppointmentFilters restricts appointment queries. The service builds the
// filter from the acting identity; it is never taken from caller input.
type AppointmentFilters struct {
	PatientID string            `json:"patient_id,omitempty"`
	DoctorID  string            `json:"doctor_id,omitempty"`
	Status    AppointmentStatus `json:"status,omitempty"`
	FromDate  string            `json:"from_date,omitempty"`
	ToDate    string            `json:"to_date,omitempty"`
}

// CreateAppointmentRequest carries the fields a caller supplies at booking.
// PatientID is honored for clinic admins only; patients always book as
// themselves.
type CreateAppointmentRequest struct {
	PatientID   string `json:"patient_id,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
	ClinicID    string `json:"clinic_id" validate:"required"`
	ClinicName  string `json:"clinic_name,omitempty"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required"`
	Reason      string `json:"reason,omitempty"`
	Notes       string `json:"notes,omitempty"`
}
