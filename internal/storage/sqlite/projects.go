package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taskmaster/tm/internal/storage"
	"github.com/taskmaster/tm/internal/types"
)

// CreateProject inserts a project and its initial membership set atomically
func (s *Store) CreateProject(ctx context.Context, project *types.Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, created_at)
		VALUES (?, ?, ?, ?)
	`, project.ID, project.Name, project.Description, project.CreatedAt)
	if err != nil {
		return wrapDBErrorf(err, "create project %s", project.Name)
	}

	for _, userID := range project.MemberIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO project_members (project_id, user_id) VALUES (?, ?)
		`, project.ID, userID)
		if err != nil {
			return wrapDBErrorf(err, "add member %s to project %s", userID, project.ID)
		}
	}

	return tx.Commit()
}

// GetProject retrieves a project with its membership set
func (s *Store) GetProject(ctx context.Context, id string) (*types.Project, error) {
	var p types.Project
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at FROM projects WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		return nil, wrapDBErrorf(err, "get project %s", id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM project_members WHERE project_id = ? ORDER BY user_id
	`, id)
	if err != nil {
		return nil, wrapDBErrorf(err, "get project members %s", id)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, wrapDBError("scan project member", err)
		}
		p.MemberIDs = append(p.MemberIDs, userID)
	}
	return &p, wrapDBError("get project members", rows.Err())
}

// ListProjects returns all projects ordered by name, without membership sets
func (s *Store) ListProjects(ctx context.Context) ([]*types.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at FROM projects ORDER BY name
	`)
	if err != nil {
		return nil, wrapDBError("list projects", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*types.Project
	for rows.Next() {
		var p types.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, wrapDBError("scan project", err)
		}
		projects = append(projects, &p)
	}
	return projects, wrapDBError("list projects", rows.Err())
}

// AddProjectMember adds a user to the project's membership set
func (s *Store) AddProjectMember(ctx context.Context, projectID, userID string) error {
	if err := s.requireProject(ctx, projectID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO project_members (project_id, user_id) VALUES (?, ?)
	`, projectID, userID)
	return wrapDBErrorf(err, "add member %s to project %s", userID, projectID)
}

// RemoveProjectMember removes a user from the project's membership set
func (s *Store) RemoveProjectMember(ctx context.Context, projectID, userID string) error {
	if err := s.requireProject(ctx, projectID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM project_members WHERE project_id = ? AND user_id = ?
	`, projectID, userID)
	return wrapDBErrorf(err, "remove member %s from project %s", userID, projectID)
}

// DeleteProject removes a project. Fails with storage.ErrConflict while any
// issue still references it.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues WHERE project_id = ?`, id).Scan(&count)
	if err != nil {
		return wrapDBErrorf(err, "count issues for project %s", id)
	}
	if count > 0 {
		return fmt.Errorf("delete project %s: %d issues still reference it: %w", id, count, storage.ErrConflict)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return wrapDBErrorf(err, "delete project %s", id)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBErrorf(err, "delete project %s", id)
	}
	if rows == 0 {
		return wrapDBErrorf(sql.ErrNoRows, "delete project %s", id)
	}
	return nil
}

func (s *Store) requireProject(ctx context.Context, id string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return wrapDBErrorf(err, "check project %s", id)
	}
	if !exists {
		return wrapDBErrorf(sql.ErrNoRows, "project %s", id)
	}
	return nil
}
