package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/taskmaster/tm/internal/types"
)

// GetDashboardMetrics computes all dashboard counts within one read
// transaction so every number reflects the same snapshot of the store.
func (s *Store) GetDashboardMetrics(ctx context.Context, recentLimit int) (*types.DashboardMetrics, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	metrics := &types.DashboardMetrics{
		ByStatus:        make(map[types.Status]int),
		ByPriority:      make(map[int]int),
		ByModule:        make(map[string]int),
		AssignedPerUser: make(map[string]int),
		AsOf:            time.Now(),
	}

	// Counts by status; total and the open/closed split derive from the
	// same rows, so the numbers always add up.
	rows, err := tx.QueryContext(ctx, `SELECT status, COUNT(*) FROM issues GROUP BY status`)
	if err != nil {
		return nil, wrapDBError("count by status", err)
	}
	for rows.Next() {
		var (
			status types.Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			_ = rows.Close()
			return nil, wrapDBError("scan status count", err)
		}
		metrics.ByStatus[status] = count
		metrics.TotalIssues += count
		if status.IsOpen() {
			metrics.OpenIssues += count
		} else {
			metrics.ClosedIssues += count
		}
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("count by status", err)
	}

	// Counts by priority
	rows, err = tx.QueryContext(ctx, `SELECT priority, COUNT(*) FROM issues GROUP BY priority`)
	if err != nil {
		return nil, wrapDBError("count by priority", err)
	}
	for rows.Next() {
		var priority, count int
		if err := rows.Scan(&priority, &count); err != nil {
			_ = rows.Close()
			return nil, wrapDBError("scan priority count", err)
		}
		metrics.ByPriority[priority] = count
		if priority <= 1 {
			metrics.CriticalIssues += count
		}
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("count by priority", err)
	}

	// Counts by module, keyed "project/module" since module names are only
	// unique per project; issues without a module land in the "" bucket
	rows, err = tx.QueryContext(ctx, `
		SELECT COALESCE(p.name || '/' || m.name, ''), COUNT(*)
		FROM issues i
		LEFT JOIN modules m ON i.module_id = m.id
		LEFT JOIN projects p ON m.project_id = p.id
		GROUP BY i.module_id
	`)
	if err != nil {
		return nil, wrapDBError("count by module", err)
	}
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			_ = rows.Close()
			return nil, wrapDBError("scan module count", err)
		}
		metrics.ByModule[name] = count
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("count by module", err)
	}

	// Per-user assigned counts (open work only; closed issues are done)
	rows, err = tx.QueryContext(ctx, `
		SELECT assignee_id, COUNT(*)
		FROM issues
		WHERE assignee_id IS NOT NULL AND status != 'closed'
		GROUP BY assignee_id
	`)
	if err != nil {
		return nil, wrapDBError("count assigned per user", err)
	}
	for rows.Next() {
		var (
			userID string
			count  int
		)
		if err := rows.Scan(&userID, &count); err != nil {
			_ = rows.Close()
			return nil, wrapDBError("scan assignee count", err)
		}
		metrics.AssignedPerUser[userID] = count
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("count assigned per user", err)
	}

	// Recent activity: status changes and comments merged, newest first
	if recentLimit > 0 {
		rows, err = tx.QueryContext(ctx, `
			SELECT kind, issue_id, title, actor_id, detail, created_at FROM (
				SELECT 'status_change' AS kind, h.issue_id, i.title, h.actor_id,
				       h.prev_status || ' -> ' || h.new_status AS detail, h.created_at, h.id AS seq
				FROM status_history h JOIN issues i ON h.issue_id = i.id
				UNION ALL
				SELECT 'comment' AS kind, c.issue_id, i.title, c.author_id,
				       c.text AS detail, c.created_at, c.id AS seq
				FROM comments c JOIN issues i ON c.issue_id = i.id
			)
			ORDER BY created_at DESC, seq DESC
			LIMIT ?
		`, recentLimit)
		if err != nil {
			return nil, wrapDBError("recent activity", err)
		}
		for rows.Next() {
			ev := &types.ActivityEvent{}
			if err := rows.Scan(&ev.Kind, &ev.IssueID, &ev.IssueTitle, &ev.ActorID, &ev.Detail, &ev.CreatedAt); err != nil {
				_ = rows.Close()
				return nil, wrapDBError("scan activity event", err)
			}
			metrics.RecentActivity = append(metrics.RecentActivity, ev)
		}
		_ = rows.Close()
		if err := rows.Err(); err != nil {
			return nil, wrapDBError("recent activity", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit metrics read: %w", err)
	}
	return metrics, nil
}
