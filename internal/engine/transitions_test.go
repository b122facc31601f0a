package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskmaster/tm/internal/types"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to types.Status }{
		{types.StatusNew, types.StatusOpen},
		{types.StatusNew, types.StatusClosed},
		{types.StatusOpen, types.StatusInProgress},
		{types.StatusOpen, types.StatusClosed},
		{types.StatusInProgress, types.StatusInReview},
		{types.StatusInProgress, types.StatusOpen},
		{types.StatusInReview, types.StatusResolved},
		{types.StatusInReview, types.StatusInProgress},
		{types.StatusResolved, types.StatusClosed},
		{types.StatusResolved, types.StatusReopened},
		{types.StatusClosed, types.StatusReopened},
		{types.StatusReopened, types.StatusOpen},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to types.Status }{
		{types.StatusNew, types.StatusInProgress},
		{types.StatusNew, types.StatusResolved},
		{types.StatusOpen, types.StatusResolved},
		{types.StatusInProgress, types.StatusResolved},
		{types.StatusInProgress, types.StatusClosed},
		{types.StatusInReview, types.StatusClosed},
		{types.StatusResolved, types.StatusOpen},
		{types.StatusClosed, types.StatusOpen},
		{types.StatusClosed, types.StatusNew},
		{types.StatusReopened, types.StatusInProgress},
		{types.StatusReopened, types.StatusClosed},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be rejected", tc.from, tc.to)
	}
}

func TestNoTransitionToSelf(t *testing.T) {
	for from := range allowedTransitions {
		assert.False(t, CanTransition(from, from), "%s -> %s should be rejected", from, from)
	}
}

func TestEveryTargetIsValidStatus(t *testing.T) {
	for from, targets := range allowedTransitions {
		assert.True(t, from.IsValid())
		for _, to := range targets {
			assert.True(t, to.IsValid(), "target %s of %s", to, from)
		}
	}
}

func TestAllowedTargetsIsACopy(t *testing.T) {
	targets := AllowedTargets(types.StatusNew)
	assert.NotEmpty(t, targets)
	targets[0] = types.StatusResolved
	assert.False(t, CanTransition(types.StatusNew, types.StatusResolved))
}
