package main

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/taskmaster/tm/internal/types"
)

func TestStatusColorCoversAllStatuses(t *testing.T) {
	color.NoColor = true
	for _, s := range []types.Status{
		types.StatusNew, types.StatusOpen, types.StatusInProgress,
		types.StatusInReview, types.StatusResolved, types.StatusClosed,
		types.StatusReopened,
	} {
		assert.Equal(t, string(s), statusColor(s))
	}
}

func TestPriorityLabel(t *testing.T) {
	color.NoColor = true
	assert.Equal(t, "P0", priorityLabel(0))
	assert.Equal(t, "P4", priorityLabel(4))
}

func TestNoDbCommands(t *testing.T) {
	assert.True(t, isNoDbCommand(initCmd))
	assert.False(t, isNoDbCommand(createCmd))
	assert.False(t, isNoDbCommand(listCmd))
	assert.False(t, isNoDbCommand(loginCmd))
}
