package rbac

// permissions is the single authorization table for the service. Every
// role check in the codebase goes through this table; none are duplicated
// at the transport or presentation layers. The value is the scope the
// role is granted for the action.
var permissions = map[Role]map[Action]string{
	RolePatient: {
		ActionCreateAppointment: ScopeOwn,
		ActionListAppointments:  ScopeOwn,
	},
	RoleDoctor: {
		ActionListAppointments: ScopeAssigned,
		ActionComplete:         ScopeAssigned,
		ActionCancel:           ScopeAssigned,
	},
	RoleClinicAdmin: {
		ActionCreateAppointment: ScopeAll,
		ActionListAppointments:  ScopeAll,
		ActionAssignDoctor:      ScopeAll,
		ActionConfirm:           ScopeAll,
		ActionCancel:            ScopeAll,
		ActionDeleteAppointment: ScopeAll,
		ActionManageDirectory:   ScopeAll,
		ActionListPatients:      ScopeAll,
	},
}

// Scope returns the scope granted to the role for the action, and whether
// the action is permitted at all.
func Scope(role Role, action Action) (string, bool) {
	actions, ok := permissions[role]
	if !ok {
		return "", false
	}
	scope, ok := actions[action]
	return scope, ok
}

// Allowed reports whether the actor's role permits the action in any scope.
// Ownership conditions attached to ScopeOwn and ScopeAssigned are enforced
// by the service against the record being operated on.
func Allowed(actor Actor, action Action) bool {
	_, ok := Scope(actor.Role, action)
	return ok
}
