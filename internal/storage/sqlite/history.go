package sqlite

import (
	"context"

	"github.com/taskmaster/tm/internal/types"
)

// appendStatusHistory writes one audit record. Records are append-only;
// nothing in this package ever updates or deletes a history row short of
// the owning issue being purged.
func appendStatusHistory(ctx context.Context, q querier, rec *types.StatusHistory) error {
	result, err := q.ExecContext(ctx, `
		INSERT INTO status_history (issue_id, prev_status, new_status, actor_id, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.IssueID, string(rec.PrevStatus), rec.NewStatus, rec.ActorID, rec.Comment, rec.CreatedAt)
	if err != nil {
		return wrapDBErrorf(err, "append status history for %s", rec.IssueID)
	}
	rec.ID, err = result.LastInsertId()
	if err != nil {
		return wrapDBError("get history ID", err)
	}
	return nil
}

// GetStatusHistory returns the full audit trail for an issue in write order
func (s *Store) GetStatusHistory(ctx context.Context, issueID string) ([]*types.StatusHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, issue_id, prev_status, new_status, actor_id, comment, created_at
		FROM status_history
		WHERE issue_id = ?
		ORDER BY id
	`, issueID)
	if err != nil {
		return nil, wrapDBErrorf(err, "get history for %s", issueID)
	}
	defer func() { _ = rows.Close() }()

	var records []*types.StatusHistory
	for rows.Next() {
		rec := &types.StatusHistory{}
		var prev string
		if err := rows.Scan(&rec.ID, &rec.IssueID, &prev, &rec.NewStatus, &rec.ActorID, &rec.Comment, &rec.CreatedAt); err != nil {
			return nil, wrapDBError("scan history record", err)
		}
		rec.PrevStatus = types.Status(prev)
		records = append(records, rec)
	}
	return records, wrapDBError("get status history", rows.Err())
}
