package engine

import (
	"github.com/taskmaster/tm/internal/types"
)

// allowedTransitions is the issue lifecycle table. An issue starts at new
// and is terminal at closed, except that closed issues can still be
// reopened. Reopened loops back through open.
var allowedTransitions = map[types.Status][]types.Status{
	types.StatusNew:        {types.StatusOpen, types.StatusClosed}, // closed = won't-fix
	types.StatusOpen:       {types.StatusInProgress, types.StatusClosed},
	types.StatusInProgress: {types.StatusInReview, types.StatusOpen},
	types.StatusInReview:   {types.StatusResolved, types.StatusInProgress},
	types.StatusResolved:   {types.StatusClosed, types.StatusReopened},
	types.StatusClosed:     {types.StatusReopened},
	types.StatusReopened:   {types.StatusOpen},
}

// CanTransition reports whether an issue may move from one status to
// another in a single step.
func CanTransition(from, to types.Status) bool {
	for _, target := range allowedTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// AllowedTargets returns the statuses reachable from the given status in a
// single step. The result is a copy; mutating it does not affect the table.
func AllowedTargets(from types.Status) []types.Status {
	targets := allowedTransitions[from]
	out := make([]types.Status, len(targets))
	copy(out, targets)
	return out
}
