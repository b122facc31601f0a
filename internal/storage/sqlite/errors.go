package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/taskmaster/tm/internal/storage"
)

// wrapDBError wraps a database error with operation context.
// It converts sql.ErrNoRows to storage.ErrNotFound and constraint
// violations to storage.ErrConflict for consistent error handling.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if isUniqueConstraintError(err) || isForeignKeyConstraintError(err) {
		return fmt.Errorf("%s: %w: %v", op, storage.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// wrapDBErrorf wraps a database error with formatted operation context
func wrapDBErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return wrapDBError(fmt.Sprintf(format, args...), err)
}

// isUniqueConstraintError checks if an error is a UNIQUE constraint violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyConstraintError checks if an error is a FOREIGN KEY constraint violation
func isForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "foreign key constraint failed")
}
