package engine

import (
	"errors"
	"fmt"

	"github.com/taskmaster/tm/internal/storage"
)

// Sentinel errors returned by engine operations. Callers match them with
// errors.Is; the wrapped message carries the operation detail.
var (
	// ErrValidation covers malformed input rejected at the call boundary.
	// Nothing is written when it is returned.
	ErrValidation = errors.New("validation failed")

	// ErrPermissionDenied means the actor's role does not grant the
	// requested action. Checked before any mutation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidTransition means the requested status change is not in the
	// lifecycle table. The issue is left untouched.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers uniqueness violations and deletes blocked by
	// existing references.
	ErrConflict = errors.New("conflict")

	// ErrConcurrentModification means a guarded write lost the race with
	// another mutation. The caller may re-read and retry.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrStoreUnavailable wraps unexpected storage failures. Fatal for the
	// current operation; not retried automatically.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrAuthenticationFailed is returned by Login for a bad username or
	// password, a disabled account, or a locked-out account. The message
	// never says which, to avoid leaking account existence.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidAssignee means the assignment target is not a usable
	// member of the issue's project.
	ErrInvalidAssignee = errors.New("invalid assignee")
)

// mapStoreErr translates storage-level sentinels into the engine taxonomy.
// Anything unrecognized is treated as a store failure.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, storage.ErrStaleStatus):
		return fmt.Errorf("%w: %v", ErrConcurrentModification, err)
	case isEngineErr(err):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

// isEngineErr reports whether err already carries one of this package's
// sentinels, so callbacks running inside RunInTx can return engine errors
// without them being re-wrapped as store failures.
func isEngineErr(err error) bool {
	for _, sentinel := range []error{
		ErrValidation, ErrPermissionDenied, ErrInvalidTransition,
		ErrNotFound, ErrConflict, ErrConcurrentModification,
		ErrStoreUnavailable, ErrAuthenticationFailed, ErrInvalidAssignee,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
