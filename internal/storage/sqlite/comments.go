package sqlite

import (
	"context"
	"database/sql"

	"github.com/taskmaster/tm/internal/types"
)

// addComment appends a comment row and returns the stored record
func addComment(ctx context.Context, q querier, issueID, authorID, text string) (*types.Comment, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM issues WHERE id = ?)`, issueID).Scan(&exists)
	if err != nil {
		return nil, wrapDBErrorf(err, "check issue %s", issueID)
	}
	if !exists {
		return nil, wrapDBErrorf(sql.ErrNoRows, "issue %s", issueID)
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO comments (issue_id, author_id, text, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, issueID, authorID, text)
	if err != nil {
		return nil, wrapDBErrorf(err, "insert comment on %s", issueID)
	}

	commentID, err := result.LastInsertId()
	if err != nil {
		return nil, wrapDBError("get comment ID", err)
	}

	comment := &types.Comment{}
	err = q.QueryRowContext(ctx, `
		SELECT id, issue_id, author_id, text, created_at FROM comments WHERE id = ?
	`, commentID).Scan(&comment.ID, &comment.IssueID, &comment.AuthorID, &comment.Text, &comment.CreatedAt)
	if err != nil {
		return nil, wrapDBError("fetch comment", err)
	}
	return comment, nil
}

// GetIssueComments retrieves all comments for an issue, oldest first
func (s *Store) GetIssueComments(ctx context.Context, issueID string) ([]*types.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, issue_id, author_id, text, created_at
		FROM comments
		WHERE issue_id = ?
		ORDER BY created_at, id
	`, issueID)
	if err != nil {
		return nil, wrapDBErrorf(err, "get comments for %s", issueID)
	}
	defer func() { _ = rows.Close() }()

	var comments []*types.Comment
	for rows.Next() {
		c := &types.Comment{}
		if err := rows.Scan(&c.ID, &c.IssueID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			return nil, wrapDBError("scan comment", err)
		}
		comments = append(comments, c)
	}
	return comments, wrapDBError("get comments", rows.Err())
}
