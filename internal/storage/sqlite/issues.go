package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taskmaster/tm/internal/types"
)

// querier is satisfied by *sql.DB and *sql.Conn so issue helpers can run
// both standalone and inside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const issueColumns = `id, project_id, title, description, status, priority, severity, issue_type,
	module_id, reporter_id, assignee_id, affected_version_id, fix_version_id,
	environment, steps_to_reproduce, expected_result, actual_result,
	estimated_hours, time_spent_hours, created_at, updated_at`

func scanIssue(row interface{ Scan(...interface{}) error }) (*types.Issue, error) {
	var (
		i                    types.Issue
		moduleID, assigneeID sql.NullString
		affected, fix        sql.NullString
		estimated, spent     sql.NullFloat64
	)
	err := row.Scan(&i.ID, &i.ProjectID, &i.Title, &i.Description, &i.Status,
		&i.Priority, &i.Severity, &i.IssueType,
		&moduleID, &i.ReporterID, &assigneeID, &affected, &fix,
		&i.Environment, &i.StepsToRepro, &i.ExpectedResult, &i.ActualResult,
		&estimated, &spent, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	i.ModuleID = moduleID.String
	i.AssigneeID = assigneeID.String
	i.AffectedVersionID = affected.String
	i.FixVersionID = fix.String
	if estimated.Valid {
		v := estimated.Float64
		i.EstimatedHours = &v
	}
	if spent.Valid {
		v := spent.Float64
		i.TimeSpentHours = &v
	}
	return &i, nil
}

// nullable converts "" to NULL for optional reference columns
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// insertIssue inserts a single issue row
func insertIssue(ctx context.Context, q querier, issue *types.Issue) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO issues (
			id, project_id, title, description, status, priority, severity, issue_type,
			module_id, reporter_id, assignee_id, affected_version_id, fix_version_id,
			environment, steps_to_reproduce, expected_result, actual_result,
			estimated_hours, time_spent_hours, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		issue.ID, issue.ProjectID, issue.Title, issue.Description, issue.Status,
		issue.Priority, issue.Severity, issue.IssueType,
		nullable(issue.ModuleID), issue.ReporterID, nullable(issue.AssigneeID),
		nullable(issue.AffectedVersionID), nullable(issue.FixVersionID),
		issue.Environment, issue.StepsToRepro, issue.ExpectedResult, issue.ActualResult,
		issue.EstimatedHours, issue.TimeSpentHours, issue.CreatedAt, issue.UpdatedAt,
	)
	if err != nil {
		return wrapDBErrorf(err, "insert issue %s", issue.ID)
	}
	return nil
}

// getIssue loads one issue with its ordered label references
func getIssue(ctx context.Context, q querier, id string) (*types.Issue, error) {
	row := q.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssue(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get issue %s", id)
	}
	issue.Labels, err = getIssueLabels(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func getIssueLabels(ctx context.Context, q querier, issueID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT label_id FROM issue_labels WHERE issue_id = ? ORDER BY position
	`, issueID)
	if err != nil {
		return nil, wrapDBErrorf(err, "get labels for issue %s", issueID)
	}
	defer func() { _ = rows.Close() }()

	var labels []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapDBError("scan issue label", err)
		}
		labels = append(labels, id)
	}
	return labels, wrapDBError("get issue labels", rows.Err())
}

func setIssueLabels(ctx context.Context, q querier, issueID string, labelIDs []string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM issue_labels WHERE issue_id = ?`, issueID); err != nil {
		return wrapDBErrorf(err, "clear labels for issue %s", issueID)
	}
	for pos, labelID := range labelIDs {
		_, err := q.ExecContext(ctx, `
			INSERT INTO issue_labels (issue_id, label_id, position) VALUES (?, ?, ?)
		`, issueID, labelID, pos)
		if err != nil {
			return wrapDBErrorf(err, "attach label %s to issue %s", labelID, issueID)
		}
	}
	return nil
}

// GetIssue retrieves an issue by ID
func (s *Store) GetIssue(ctx context.Context, id string) (*types.Issue, error) {
	return getIssue(ctx, s.db, id)
}

// SearchIssues returns issues matching the filter, newest first
func (s *Store) SearchIssues(ctx context.Context, filter types.IssueFilter) ([]*types.Issue, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ProjectID != "" {
		conds = append(conds, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		conds = append(conds, "priority = ?")
		args = append(args, *filter.Priority)
	}
	if filter.IssueType != nil {
		conds = append(conds, "issue_type = ?")
		args = append(args, *filter.IssueType)
	}
	if filter.ModuleID != "" {
		conds = append(conds, "module_id = ?")
		args = append(args, filter.ModuleID)
	}
	if filter.AssigneeID != nil {
		if *filter.AssigneeID == "" {
			conds = append(conds, "assignee_id IS NULL")
		} else {
			conds = append(conds, "assignee_id = ?")
			args = append(args, *filter.AssigneeID)
		}
	}
	if filter.ReporterID != nil {
		conds = append(conds, "reporter_id = ?")
		args = append(args, *filter.ReporterID)
	}
	if filter.TitleSearch != "" {
		conds = append(conds, "title LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(filter.TitleSearch)+"%")
	}

	query := `SELECT ` + issueColumns + ` FROM issues`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("search issues", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*types.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, wrapDBError("scan issue", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBError("search issues", err)
	}

	for _, issue := range issues {
		issue.Labels, err = getIssueLabels(ctx, s.db, issue.ID)
		if err != nil {
			return nil, err
		}
	}
	return issues, nil
}

// escapeLike escapes LIKE metacharacters in user-supplied search text
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
