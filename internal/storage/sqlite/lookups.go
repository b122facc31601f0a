package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/taskmaster/tm/internal/storage"
	"github.com/taskmaster/tm/internal/types"
)

// Modules, versions and labels share the same shape and policy: simple CRUD,
// rename allowed, delete blocked while any issue references the entity.

// CreateModule inserts a module
func (s *Store) CreateModule(ctx context.Context, m *types.Module) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO modules (id, project_id, name, created_at) VALUES (?, ?, ?, ?)
	`, m.ID, m.ProjectID, m.Name, m.CreatedAt)
	return wrapDBErrorf(err, "create module %s", m.Name)
}

// CreateVersion inserts a version
func (s *Store) CreateVersion(ctx context.Context, v *types.Version) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO versions (id, project_id, name, created_at) VALUES (?, ?, ?, ?)
	`, v.ID, v.ProjectID, v.Name, v.CreatedAt)
	return wrapDBErrorf(err, "create version %s", v.Name)
}

// CreateLabel inserts a label
func (s *Store) CreateLabel(ctx context.Context, l *types.Label) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO labels (id, project_id, name, color, created_at) VALUES (?, ?, ?, ?, ?)
	`, l.ID, l.ProjectID, l.Name, l.Color, l.CreatedAt)
	return wrapDBErrorf(err, "create label %s", l.Name)
}

// GetModule retrieves a module by ID
func (s *Store) GetModule(ctx context.Context, id string) (*types.Module, error) {
	var m types.Module
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, created_at FROM modules WHERE id = ?
	`, id).Scan(&m.ID, &m.ProjectID, &m.Name, &m.CreatedAt)
	if err != nil {
		return nil, wrapDBErrorf(err, "get module %s", id)
	}
	return &m, nil
}

// GetVersion retrieves a version by ID
func (s *Store) GetVersion(ctx context.Context, id string) (*types.Version, error) {
	var v types.Version
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, created_at FROM versions WHERE id = ?
	`, id).Scan(&v.ID, &v.ProjectID, &v.Name, &v.CreatedAt)
	if err != nil {
		return nil, wrapDBErrorf(err, "get version %s", id)
	}
	return &v, nil
}

// GetLabel retrieves a label by ID
func (s *Store) GetLabel(ctx context.Context, id string) (*types.Label, error) {
	var l types.Label
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, color, created_at FROM labels WHERE id = ?
	`, id).Scan(&l.ID, &l.ProjectID, &l.Name, &l.Color, &l.CreatedAt)
	if err != nil {
		return nil, wrapDBErrorf(err, "get label %s", id)
	}
	return &l, nil
}

// ListModules returns a project's modules ordered by name
func (s *Store) ListModules(ctx context.Context, projectID string) ([]*types.Module, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, created_at FROM modules WHERE project_id = ? ORDER BY name
	`, projectID)
	if err != nil {
		return nil, wrapDBError("list modules", err)
	}
	defer func() { _ = rows.Close() }()

	var ms []*types.Module
	for rows.Next() {
		var m types.Module
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.CreatedAt); err != nil {
			return nil, wrapDBError("scan module", err)
		}
		ms = append(ms, &m)
	}
	return ms, wrapDBError("list modules", rows.Err())
}

// ListVersions returns a project's versions ordered by name
func (s *Store) ListVersions(ctx context.Context, projectID string) ([]*types.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, created_at FROM versions WHERE project_id = ? ORDER BY name
	`, projectID)
	if err != nil {
		return nil, wrapDBError("list versions", err)
	}
	defer func() { _ = rows.Close() }()

	var vs []*types.Version
	for rows.Next() {
		var v types.Version
		if err := rows.Scan(&v.ID, &v.ProjectID, &v.Name, &v.CreatedAt); err != nil {
			return nil, wrapDBError("scan version", err)
		}
		vs = append(vs, &v)
	}
	return vs, wrapDBError("list versions", rows.Err())
}

// ListLabels returns a project's labels ordered by name
func (s *Store) ListLabels(ctx context.Context, projectID string) ([]*types.Label, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, color, created_at FROM labels WHERE project_id = ? ORDER BY name
	`, projectID)
	if err != nil {
		return nil, wrapDBError("list labels", err)
	}
	defer func() { _ = rows.Close() }()

	var ls []*types.Label
	for rows.Next() {
		var l types.Label
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Name, &l.Color, &l.CreatedAt); err != nil {
			return nil, wrapDBError("scan label", err)
		}
		ls = append(ls, &l)
	}
	return ls, wrapDBError("list labels", rows.Err())
}

// RenameModule changes a module's name
func (s *Store) RenameModule(ctx context.Context, id, name string) error {
	return s.renameLookup(ctx, "modules", id, name)
}

// RenameVersion changes a version's name
func (s *Store) RenameVersion(ctx context.Context, id, name string) error {
	return s.renameLookup(ctx, "versions", id, name)
}

// RenameLabel changes a label's name
func (s *Store) RenameLabel(ctx context.Context, id, name string) error {
	return s.renameLookup(ctx, "labels", id, name)
}

func (s *Store) renameLookup(ctx context.Context, table, id, name string) error {
	// #nosec G201 -- table is one of three compile-time constants
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET name = ? WHERE id = ?`, table), name, id)
	if err != nil {
		return wrapDBErrorf(err, "rename %s %s", table, id)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBErrorf(err, "rename %s %s", table, id)
	}
	if rows == 0 {
		return wrapDBErrorf(sql.ErrNoRows, "%s %s", table, id)
	}
	return nil
}

// DeleteModule removes a module; blocked while issues reference it
func (s *Store) DeleteModule(ctx context.Context, id string) error {
	return s.deleteLookup(ctx, "modules", id,
		`SELECT COUNT(*) FROM issues WHERE module_id = ?`, id)
}

// DeleteVersion removes a version; blocked while issues reference it
func (s *Store) DeleteVersion(ctx context.Context, id string) error {
	return s.deleteLookup(ctx, "versions", id,
		`SELECT COUNT(*) FROM issues WHERE affected_version_id = ? OR fix_version_id = ?`, id, id)
}

// DeleteLabel removes a label; blocked while issues reference it
func (s *Store) DeleteLabel(ctx context.Context, id string) error {
	return s.deleteLookup(ctx, "labels", id,
		`SELECT COUNT(*) FROM issue_labels WHERE label_id = ?`, id)
}

func (s *Store) deleteLookup(ctx context.Context, table, id, countQuery string, countArgs ...interface{}) error {
	var refs int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&refs); err != nil {
		return wrapDBErrorf(err, "count references to %s %s", table, id)
	}
	if refs > 0 {
		return fmt.Errorf("delete %s %s: %d issues still reference it: %w", table, id, refs, storage.ErrConflict)
	}

	// #nosec G201 -- table is one of three compile-time constants
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return wrapDBErrorf(err, "delete %s %s", table, id)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBErrorf(err, "delete %s %s", table, id)
	}
	if rows == 0 {
		return wrapDBErrorf(sql.ErrNoRows, "%s %s", table, id)
	}
	return nil
}
