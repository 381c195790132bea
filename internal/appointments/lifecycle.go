package appointments

import (
	"github.com/cliniq/appointment-service/pkg/rbac"
	"github.com/cliniq/appointment-service/pkg/types"
)

// transitions is the appointment lifecycle table. pending moves to
// scheduled only through doctor assignment; completed and cancelled are
// terminal.
var transitions = map[types.AppointmentStatus]map[types.AppointmentStatus]bool{
	types.StatusPending: {
		types.StatusScheduled: true,
		types.StatusCancelled: true,
	},
	types.StatusScheduled: {
		types.StatusConfirmed: true,
		types.StatusCompleted: true,
		types.StatusCancelled: true,
	},
	types.StatusConfirmed: {
		types.StatusCompleted: true,
		types.StatusCancelled: true,
	},
	types.StatusCompleted: {},
	types.StatusCancelled: {},
}

// CanTransition reports whether the lifecycle permits moving between the
// two statuses
func CanTransition(from, to types.AppointmentStatus) bool {
	return transitions[from][to]
}

// TransitionAction maps a requested target status to the permission that
// gates it. pending and scheduled are not reachable through a status
// update: pending only exists at creation and scheduled is the side effect
// of doctor assignment.
func TransitionAction(to types.AppointmentStatus) (rbac.Action, bool) {
	switch to {
	case types.StatusConfirmed:
		return rbac.ActionConfirm, true
	case types.StatusCompleted:
		return rbac.ActionComplete, true
	case types.StatusCancelled:
		return rbac.ActionCancel, true
	}
	return "", false
}
