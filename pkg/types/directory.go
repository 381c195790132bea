package types

import "time"

// Doctor represents a doctor directory entry
type Doctor struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	Specialization string    `json:"specialization,omitempty" db:"specialization"`
	Protected      bool      `json:"protected" db:"protected"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Patient represents a patient directory entry. Patients are registered
// implicitly on their first booking.
type Patient struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email,omitempty" db:"email"`
	Protected bool      `json:"protected" db:"protected"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateDoctorRequest carries the fields for a new doctor directory entry
type CreateDoctorRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Specialization string `json:"specialization,omitempty"`
}

// DoctorPatch represents a partial update to a doctor entry.
// Nil fields are left unchanged.
type DoctorPatch struct {
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Specialization *string `json:"specialization,omitempty"`
}

// PatientPatch represents a partial update to a patient entry.
// Nil fields are left unchanged.
type PatientPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}
