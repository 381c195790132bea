package interfaces

import (
	"github.com/cliniq/appointment-service/pkg/rbac"
	"github.com/cliniq/appointment-service/pkg/types"
)

// AppointmentService defines the role-gated operations exposed to the
// presentation layer. Every operation takes the verified actor and fails
// with a typed error when the actor lacks permission.
type AppointmentService interface {
	CreateAppointment(actor rbac.Actor, req *types.CreateAppointmentRequest) (*types.Appointment, error)
	GetAppointment(actor rbac.Actor, appointmentID string) (*types.Appointment, error)
	ListAppointments(actor rbac.Actor) ([]*types.Appointment, error)
	ListUpcoming(actor rbac.Actor, fromDate string) ([]*types.Appointment, error)

	AssignDoctor(actor rbac.Actor, appointmentID, doctorID string) (*types.Appointment, error)
	UpdateStatus(actor rbac.Actor, appointmentID string, status types.AppointmentStatus) (*types.Appointment, error)
	DeleteAppointment(actor rbac.Actor, appointmentID string) error

	Start(addr string) error
	Stop() error
}

// AppointmentStore is the authoritative collection of appointment records.
// Mutations are applied atomically against the caller's last observed state:
// a guarded write that matches zero rows is classified as NotFound,
// AlreadyAssigned or Conflict, never silently dropped.
type AppointmentStore interface {
	CreateAppointment(apt *types.Appointment) error
	GetAppointmentByID(id string) (*types.Appointment, error)
	ListAppointments(filters *types.AppointmentFilters) ([]*types.Appointment, error)

	// AssignDoctor sets doctor_id and moves pending to scheduled in one
	// guarded write, keyed on doctor_id still being null.
	AssignDoctor(id, doctorID string) error

	// UpdateStatus transitions from the observed status to the new one in
	// one guarded write, keyed on the observed status.
	UpdateStatus(id string, from, to types.AppointmentStatus) error

	DeleteAppointment(id string) error
}
