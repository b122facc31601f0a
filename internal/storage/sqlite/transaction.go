package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/taskmaster/tm/internal/storage"
	"github.com/taskmaster/tm/internal/types"
)

// Verify the backend implements the storage interfaces at compile time
var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Tx      = (*txStore)(nil)
)

// txStore implements the storage.Tx interface for SQLite.
// It wraps a dedicated database connection with an active transaction.
type txStore struct {
	conn *sql.Conn
}

// RunInTx executes a function within a database transaction.
//
// The transaction uses BEGIN IMMEDIATE to acquire the write lock early,
// preventing deadlocks when multiple goroutines compete for the same lock.
// On success the transaction commits; on error or panic it rolls back.
func (s *Store) RunInTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	// Dedicated connection so every operation in the transaction shares it
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for transaction: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := beginImmediate(ctx, conn); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			// Background context so rollback completes even if ctx is cancelled
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	if err := fn(&txStore{conn: conn}); err != nil {
		return err // Rollback happens in defer
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// CreateIssue inserts a new issue within the transaction
func (t *txStore) CreateIssue(ctx context.Context, issue *types.Issue) error {
	if err := issue.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := insertIssue(ctx, t.conn, issue); err != nil {
		return err
	}
	if len(issue.Labels) > 0 {
		if err := setIssueLabels(ctx, t.conn, issue.ID, issue.Labels); err != nil {
			return err
		}
	}
	return nil
}

// GetIssue loads an issue for read-your-writes within the transaction
func (t *txStore) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	return getIssue(ctx, t.conn, id)
}

// issueColumnWhitelist enumerates the columns UpdateIssueFields may touch.
// status is deliberately absent: status changes carry history and must go
// through UpdateIssueStatus.
var issueColumnWhitelist = map[string]bool{
	"title":               true,
	"description":         true,
	"priority":            true,
	"severity":            true,
	"issue_type":          true,
	"module_id":           true,
	"assignee_id":         true,
	"affected_version_id": true,
	"fix_version_id":      true,
	"environment":         true,
	"steps_to_reproduce":  true,
	"expected_result":     true,
	"actual_result":       true,
	"estimated_hours":     true,
	"time_spent_hours":    true,
}

// UpdateIssueFields applies a column patch and bumps updated_at
func (t *txStore) UpdateIssueFields(ctx context.Context, id string, updates map[string]interface{}, now time.Time) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(updates)+1)
	args := make([]interface{}, 0, len(updates)+2)
	for column, value := range updates {
		if !issueColumnWhitelist[column] {
			return fmt.Errorf("column %s cannot be updated through field patch", column)
		}
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}
	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, now, id)

	// #nosec G201 -- column names are whitelisted above
	query := fmt.Sprintf("UPDATE issues SET %s WHERE id = ?", strings.Join(setClauses, ", "))
	result, err := t.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapDBErrorf(err, "update issue %s", id)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBErrorf(err, "update issue %s", id)
	}
	if rows == 0 {
		return wrapDBErrorf(sql.ErrNoRows, "issue %s", id)
	}
	return nil
}

// UpdateIssueStatus performs the guarded status write. The WHERE clause
// carries the expected old status, so a concurrent transition that slipped
// in first makes this update match zero rows; that case is reported as
// storage.ErrStaleStatus and the caller's transaction rolls back.
func (t *txStore) UpdateIssueStatus(ctx context.Context, id string, from, to types.Status, now time.Time) error {
	result, err := t.conn.ExecContext(ctx, `
		UPDATE issues SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`, to, now, id, from)
	if err != nil {
		return wrapDBErrorf(err, "update status of %s", id)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBErrorf(err, "update status of %s", id)
	}
	if rows == 0 {
		var exists bool
		if err := t.conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM issues WHERE id = ?)`, id).Scan(&exists); err != nil {
			return wrapDBErrorf(err, "check issue %s", id)
		}
		if !exists {
			return wrapDBErrorf(sql.ErrNoRows, "issue %s", id)
		}
		return fmt.Errorf("issue %s no longer at status %s: %w", id, from, storage.ErrStaleStatus)
	}
	return nil
}

// DeleteIssue removes the issue row; history, comments, attachments and
// label relations cascade via foreign keys.
func (t *txStore) DeleteIssue(ctx context.Context, id string) error {
	result, err := t.conn.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return wrapDBErrorf(err, "delete issue %s", id)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBErrorf(err, "delete issue %s", id)
	}
	if rows == 0 {
		return wrapDBErrorf(sql.ErrNoRows, "issue %s", id)
	}
	return nil
}

// AppendStatusHistory writes one audit record within the transaction
func (t *txStore) AppendStatusHistory(ctx context.Context, rec *types.StatusHistory) error {
	return appendStatusHistory(ctx, t.conn, rec)
}

// AddComment appends a comment within the transaction
func (t *txStore) AddComment(ctx context.Context, issueID, authorID, text string) (*types.Comment, error) {
	return addComment(ctx, t.conn, issueID, authorID, text)
}

// SetIssueLabels replaces the issue's ordered label references
func (t *txStore) SetIssueLabels(ctx context.Context, issueID string, labelIDs []string) error {
	return setIssueLabels(ctx, t.conn, issueID, labelIDs)
}
