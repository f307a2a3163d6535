package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_CanTransition(t *testing.T) {
	cases := []struct {
		from State
		to   State
		want bool
	}{
		{StatePending, StateGenerating, true},
		{StatePending, StatePublishing, true},
		{StatePending, StateFailed, true},
		{StateGenerating, StatePublishing, true},
		{StateGenerating, StateSucceeded, true},
		{StateGenerating, StateFailed, true},
		{StatePublishing, StateSucceeded, true},
		{StatePublishing, StateFailed, true},

		// No backwards or sideways moves.
		{StateGenerating, StatePending, false},
		{StatePublishing, StateGenerating, false},
		{StatePublishing, StatePublishing, false},

		// Terminal states are final.
		{StateSucceeded, StateFailed, false},
		{StateSucceeded, StatePending, false},
		{StateFailed, StateSucceeded, false},
		{StateFailed, StateGenerating, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateGenerating.Terminal())
	assert.False(t, StatePublishing.Terminal())
	assert.True(t, StateSucceeded.Terminal())
	assert.True(t, StateFailed.Terminal())
}

func TestNewStatus(t *testing.T) {
	status := NewStatus("wf-1", "portfolio", "dev@example.com")
	assert.Equal(t, "wf-1", status.ID)
	assert.Equal(t, StatePending, status.State)
	assert.Empty(t, status.Stage)
	assert.Nil(t, status.Result)
	assert.Equal(t, status.CreatedAt, status.UpdatedAt)
}
