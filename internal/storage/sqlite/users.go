package sqlite

import (
	"context"
	"database/sql"

	"github.com/taskmaster/tm/internal/types"
)

const userColumns = `id, username, display_name, role, password_hash, password_salt, disabled, created_at, last_login_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*types.User, error) {
	var (
		u         types.User
		disabled  int
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role,
		&u.PasswordHash, &u.PasswordSalt, &disabled, &u.CreatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}
	u.Disabled = disabled != 0
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

// CreateUser inserts a new user account
func (s *Store) CreateUser(ctx context.Context, user *types.User) error {
	disabled := 0
	if user.Disabled {
		disabled = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, role, password_hash, password_salt, disabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Username, user.DisplayName, user.Role,
		user.PasswordHash, user.PasswordSalt, disabled, user.CreatedAt)
	return wrapDBErrorf(err, "create user %s", user.Username)
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id string) (*types.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get user %s", id)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by login name
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, wrapDBErrorf(err, "get user by username %s", username)
	}
	return u, nil
}

// UpdateUser writes back mutable user fields (role, display name, disabled
// flag, credentials, last login). Usernames and IDs are immutable.
func (s *Store) UpdateUser(ctx context.Context, user *types.User) error {
	disabled := 0
	if user.Disabled {
		disabled = 1
	}
	var lastLogin interface{}
	if user.LastLoginAt != nil {
		lastLogin = *user.LastLoginAt
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET display_name = ?, role = ?, password_hash = ?, password_salt = ?, disabled = ?, last_login_at = ?
		WHERE id = ?
	`, user.DisplayName, user.Role, user.PasswordHash, user.PasswordSalt, disabled, lastLogin, user.ID)
	if err != nil {
		return wrapDBErrorf(err, "update user %s", user.ID)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return wrapDBErrorf(err, "update user %s", user.ID)
	}
	if rows == 0 {
		return wrapDBErrorf(sql.ErrNoRows, "update user %s", user.ID)
	}
	return nil
}

// ListUsers returns all users, active first by username.
// Disabled accounts are excluded unless includeDisabled is set.
func (s *Store) ListUsers(ctx context.Context, includeDisabled bool) ([]*types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	if !includeDisabled {
		query += ` WHERE disabled = 0`
	}
	query += ` ORDER BY disabled, username`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapDBError("list users", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*types.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapDBError("scan user", err)
		}
		users = append(users, u)
	}
	return users, wrapDBError("list users", rows.Err())
}
