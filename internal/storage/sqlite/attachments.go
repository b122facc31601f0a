package sqlite

import (
	"context"
	"database/sql"

	"github.com/taskmaster/tm/internal/types"
)

const attachmentColumns = `id, issue_id, filename, file_path, file_size, content_type, uploader_id, created_at`

func scanAttachment(row interface{ Scan(...interface{}) error }) (*types.Attachment, error) {
	a := &types.Attachment{}
	err := row.Scan(&a.ID, &a.IssueID, &a.Filename, &a.FilePath,
		&a.FileSize, &a.ContentType, &a.UploaderID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// addAttachment inserts one metadata record and fills in the assigned ID
// and creation time
func addAttachment(ctx context.Context, q querier, att *types.Attachment) error {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM issues WHERE id = ?)`, att.IssueID).Scan(&exists)
	if err != nil {
		return wrapDBErrorf(err, "check issue %s", att.IssueID)
	}
	if !exists {
		return wrapDBErrorf(sql.ErrNoRows, "issue %s", att.IssueID)
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO attachments (issue_id, filename, file_path, file_size, content_type, uploader_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, att.IssueID, att.Filename, att.FilePath, att.FileSize, att.ContentType, att.UploaderID)
	if err != nil {
		return wrapDBErrorf(err, "insert attachment on %s", att.IssueID)
	}

	att.ID, err = result.LastInsertId()
	if err != nil {
		return wrapDBError("get attachment ID", err)
	}
	err = q.QueryRowContext(ctx, `SELECT created_at FROM attachments WHERE id = ?`, att.ID).Scan(&att.CreatedAt)
	if err != nil {
		return wrapDBError("fetch attachment", err)
	}
	return nil
}

// GetIssueAttachments retrieves all attachment records for an issue, oldest first
func (s *Store) GetIssueAttachments(ctx context.Context, issueID string) ([]*types.Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+attachmentColumns+`
		FROM attachments
		WHERE issue_id = ?
		ORDER BY created_at, id
	`, issueID)
	if err != nil {
		return nil, wrapDBErrorf(err, "get attachments for %s", issueID)
	}
	defer func() { _ = rows.Close() }()

	var atts []*types.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, wrapDBError("scan attachment", err)
		}
		atts = append(atts, a)
	}
	return atts, wrapDBError("get attachments", rows.Err())
}

// GetAttachment retrieves one attachment record by ID
func (s *Store) GetAttachment(ctx context.Context, id int64) (*types.Attachment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`, id)
	a, err := scanAttachment(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get attachment %d", id)
	}
	return a, nil
}

// AddAttachment inserts an attachment metadata record within the transaction
func (t *txStore) AddAttachment(ctx context.Context, att *types.Attachment) error {
	return addAttachment(ctx, t.conn, att)
}

// DeleteAttachment removes one attachment record within the transaction
func (t *txStore) DeleteAttachment(ctx context.Context, id int64) error {
	result, err := t.conn.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return wrapDBErrorf(err, "delete attachment %d", id)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBErrorf(err, "delete attachment %d", id)
	}
	if rows == 0 {
		return wrapDBErrorf(sql.ErrNoRows, "attachment %d", id)
	}
	return nil
}
