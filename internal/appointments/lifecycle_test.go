package appointments

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cliniq/appointment-service/pkg/rbac"
	"github.com/cliniq/appointment-service/pkg/types"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    types.AppointmentStatus
		to      types.AppointmentStatus
		allowed bool
	}{
		{types.StatusPending, types.StatusScheduled, true},
		{types.StatusPending, types.StatusCancelled, true},
		{types.StatusPending, types.StatusConfirmed, false},
		{types.StatusPending, types.StatusCompleted, false},

		{types.StatusScheduled, types.StatusConfirmed, true},
		{types.StatusScheduled, types.StatusCompleted, true},
		{types.StatusScheduled, types.StatusCancelled, true},
		{types.StatusScheduled, types.StatusPending, false},

		{types.StatusConfirmed, types.StatusCompleted, true},
		{types.StatusConfirmed, types.StatusCancelled, true},
		{types.StatusConfirmed, types.StatusScheduled, false},
		{types.StatusConfirmed, types.StatusPending, false},

		// Terminal statuses allow nothing, including self-transitions
		{types.StatusCompleted, types.StatusCompleted, false},
		{types.StatusCompleted, types.StatusCancelled, false},
		{types.StatusCompleted, types.StatusScheduled, false},
		{types.StatusCancelled, types.StatusCancelled, false},
		{types.StatusCancelled, types.StatusPending, false},
		{types.StatusCancelled, types.StatusConfirmed, false},
	}

	for _, tt := range tests {
		got := CanTransition(tt.from, tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	assert.False(t, CanTransition("archived", types.StatusCancelled))
	assert.False(t, CanTransition(types.StatusPending, "archived"))
}

func TestTransitionAction(t *testing.T) {
	action, ok := TransitionAction(types.StatusConfirmed)
	assert.True(t, ok)
	assert.Equal(t, rbac.ActionConfirm, action)

	action, ok = TransitionAction(types.StatusCompleted)
	assert.True(t, ok)
	assert.Equal(t, rbac.ActionComplete, action)

	action, ok = TransitionAction(types.StatusCancelled)
	assert.True(t, ok)
	assert.Equal(t, rbac.ActionCancel, action)

	// pending and scheduled are never direct status-update targets
	_, ok = TransitionAction(types.StatusPending)
	assert.False(t, ok)
	_, ok = TransitionAction(types.StatusScheduled)
	assert.False(t, ok)
}
