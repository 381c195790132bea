package rbac

// Role identifies one of the three clinic roles
type Role string

const (
	RolePatient     Role = "patient"
	RoleDoctor      Role = "doctor"
	RoleClinicAdmin Role = "clinic_admin"
)

// IsValid reports whether r is a recognized role
func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleClinicAdmin:
		return true
	}
	return false
}

// Actor is the verified identity+role pair a request executes as.
// It is supplied by the identity collaborator and trusted completely;
// the service performs no credential checks of its own.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Action types over appointment and directory resources
type Action string

const (
	ActionCreateAppointment Action = "create_appointment"
	ActionListAppointments  Action = "list_appointments"
	ActionAssignDoctor      Action = "assign_doctor"
	ActionConfirm           Action = "confirm_appointment"
	ActionComplete          Action = "complete_appointment"
	ActionCancel            Action = "cancel_appointment"
	ActionDeleteAppointment Action = "delete_appointment"
	ActionManageDirectory   Action = "manage_directory"
	ActionListPatients      Action = "list_patients"
)

// Permission scopes attached to an allowed action
const (
	ScopeOwn      = "own"      // actor's own records only
	ScopeAssigned = "assigned" // appointments assigned to the actor
	ScopeAll      = "all"      // every record
)
