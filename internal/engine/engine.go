// Package engine implements the issue lifecycle and access-control core:
// authentication, the status state machine, permission-gated mutations,
// audit records, and dashboard aggregation. The presentation layer (cmd/tm)
// calls into this package and never touches storage directly.
//
// Every operation takes an explicit Actor; there is no process-wide session.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tm/internal/auth"
	"github.com/taskmaster/tm/internal/debug"
	"github.com/taskmaster/tm/internal/storage"
	"github.com/taskmaster/tm/internal/types"
)

const (
	maxLoginFailures = 5
	lockoutDuration  = 15 * time.Minute
)

// Actor identifies who is performing an operation. Zero value is an
// unauthenticated caller and fails every permission check.
type Actor struct {
	UserID string
	Role   types.Role
}

// Engine wires the authorization matrix to the store and owns all
// business rules. Safe for concurrent use.
type Engine struct {
	store    storage.Storage
	idPrefix string

	mu       sync.Mutex
	lockouts map[string]*lockoutState
	now      func() time.Time
}

// lockoutState tracks consecutive login failures per username.
type lockoutState struct {
	failures    int
	lockedUntil time.Time
}

// New creates an Engine on top of the given store. idPrefix is the short
// prefix for generated issue IDs ("tm" gives IDs like tm-x7k2).
func New(store storage.Storage, idPrefix string) *Engine {
	if idPrefix == "" {
		idPrefix = "tm"
	}
	return &Engine{
		store:    store,
		idPrefix: idPrefix,
		lockouts: make(map[string]*lockoutState),
		now:      time.Now,
	}
}

func (e *Engine) requirePermission(actor Actor, action auth.Action) error {
	if !auth.CanPerform(actor.Role, action) {
		return fmt.Errorf("%w: role %s cannot %s", ErrPermissionDenied, actor.Role, action)
	}
	return nil
}

// Login authenticates a username/password pair. After five consecutive
// failures the account is locked for fifteen minutes; the lockout is held
// in memory and resets when the engine restarts.
func (e *Engine) Login(ctx context.Context, username, password string) (*types.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: empty credentials", ErrAuthenticationFailed)
	}
	if e.isLockedOut(username) {
		return nil, fmt.Errorf("%w: account temporarily locked", ErrAuthenticationFailed)
	}

	user, err := e.store.GetUserByUsername(ctx, username)
	if err != nil {
		mapped := mapStoreErr(err)
		if errors.Is(mapped, ErrNotFound) {
			e.recordFailure(username)
			return nil, fmt.Errorf("%w: unknown user or wrong password", ErrAuthenticationFailed)
		}
		return nil, mapped
	}
	if user.Disabled || !verifyPassword(user.PasswordSalt, user.PasswordHash, password) {
		e.recordFailure(username)
		return nil, fmt.Errorf("%w: unknown user or wrong password", ErrAuthenticationFailed)
	}

	e.clearFailures(username)

	now := e.now()
	user.LastLoginAt = &now
	if err := e.store.UpdateUser(ctx, user); err != nil {
		// Login itself succeeded; a failed timestamp write is not fatal.
		debug.Logf("failed to record last login for %s: %v", username, err)
	}
	return user, nil
}

func (e *Engine) isLockedOut(username string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.lockouts[username]
	if st == nil {
		return false
	}
	if !st.lockedUntil.IsZero() && e.now().Before(st.lockedUntil) {
		return true
	}
	if !st.lockedUntil.IsZero() {
		// Lockout expired; start over
		delete(e.lockouts, username)
	}
	return false
}

func (e *Engine) recordFailure(username string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.lockouts[username]
	if st == nil {
		st = &lockoutState{}
		e.lockouts[username] = st
	}
	st.failures++
	if st.failures >= maxLoginFailures {
		st.lockedUntil = e.now().Add(lockoutDuration)
		debug.Logf("account %s locked after %d failed logins", username, st.failures)
	}
}

func (e *Engine) clearFailures(username string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.lockouts, username)
}

// Bootstrap creates the first admin account. It only works on an empty
// store; once any user exists, accounts go through CreateUser.
func (e *Engine) Bootstrap(ctx context.Context, username, displayName, password string) (*types.User, error) {
	existing, err := e.store.ListUsers(ctx, true)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: store already has users", ErrConflict)
	}
	return e.newUser(ctx, username, displayName, password, types.RoleAdmin)
}

// CreateUser registers a new account. Requires ManageUsers.
func (e *Engine) CreateUser(ctx context.Context, actor Actor, username, displayName, password string, role types.Role) (*types.User, error) {
	if err := e.requirePermission(actor, auth.ActionManageUsers); err != nil {
		return nil, err
	}
	return e.newUser(ctx, username, displayName, password, role)
}

func (e *Engine) newUser(ctx context.Context, username, displayName, password string, role types.Role) (*types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: invalid role %q", ErrValidation, role)
	}

	user := &types.User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: displayName,
		Role:        role,
		CreatedAt:   e.now(),
	}
	if err := e.setPassword(user, password); err != nil {
		return nil, err
	}
	if err := e.store.CreateUser(ctx, user); err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

// setPassword validates the new password and re-salts the account.
func (e *Engine) setPassword(user *types.User, password string) error {
	if err := validatePassword(password); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	salt, err := newSalt()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	user.PasswordSalt = salt
	user.PasswordHash = hashPassword(salt, password)
	return nil
}

// ChangePassword lets an account replace its own password after proving
// knowledge of the current one. Every role may change its own password.
func (e *Engine) ChangePassword(ctx context.Context, actor Actor, oldPassword, newPassword string) error {
	user, err := e.store.GetUser(ctx, actor.UserID)
	if err != nil {
		return mapStoreErr(err)
	}
	if !verifyPassword(user.PasswordSalt, user.PasswordHash, oldPassword) {
		return fmt.Errorf("%w: current password is incorrect", ErrAuthenticationFailed)
	}
	if err := e.setPassword(user, newPassword); err != nil {
		return err
	}
	return mapStoreErr(e.store.UpdateUser(ctx, user))
}

// ResetPassword sets a new password without the old one. Requires
// ManageUsers.
func (e *Engine) ResetPassword(ctx context.Context, actor Actor, userID, newPassword string) error {
	if err := e.requirePermission(actor, auth.ActionManageUsers); err != nil {
		return err
	}
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return mapStoreErr(err)
	}
	if err := e.setPassword(user, newPassword); err != nil {
		return err
	}
	return mapStoreErr(e.store.UpdateUser(ctx, user))
}

// SetUserRole changes an account's role. Requires ManageUsers.
func (e *Engine) SetUserRole(ctx context.Context, actor Actor, userID string, role types.Role) error {
	if err := e.requirePermission(actor, auth.ActionManageUsers); err != nil {
		return err
	}
	if !role.IsValid() {
		return fmt.Errorf("%w: invalid role %q", ErrValidation, role)
	}
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return mapStoreErr(err)
	}
	user.Role = role
	return mapStoreErr(e.store.UpdateUser(ctx, user))
}

// SetUserDisabled soft-disables or re-enables an account. Accounts are
// never physically deleted; historical records keep pointing at them.
func (e *Engine) SetUserDisabled(ctx context.Context, actor Actor, userID string, disabled bool) error {
	if err := e.requirePermission(actor, auth.ActionManageUsers); err != nil {
		return err
	}
	if disabled && actor.UserID == userID {
		return fmt.Errorf("%w: cannot disable your own account", ErrValidation)
	}
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return mapStoreErr(err)
	}
	user.Disabled = disabled
	return mapStoreErr(e.store.UpdateUser(ctx, user))
}

// GetUser retrieves an account by ID.
func (e *Engine) GetUser(ctx context.Context, actor Actor, userID string) (*types.User, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

// ListUsers returns accounts, optionally including disabled ones.
func (e *Engine) ListUsers(ctx context.Context, actor Actor, includeDisabled bool) ([]*types.User, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	users, err := e.store.ListUsers(ctx, includeDisabled)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return users, nil
}

// CreateProject creates a project with an initial membership set.
// Requires ManageProjects.
func (e *Engine) CreateProject(ctx context.Context, actor Actor, name, description string, memberIDs []string) (*types.Project, error) {
	if err := e.requirePermission(actor, auth.ActionManageProjects); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrValidation)
	}
	project := &types.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		MemberIDs:   memberIDs,
		CreatedAt:   e.now(),
	}
	if err := e.store.CreateProject(ctx, project); err != nil {
		return nil, mapStoreErr(err)
	}
	return project, nil
}

// GetProject retrieves a project with its membership set.
func (e *Engine) GetProject(ctx context.Context, actor Actor, projectID string) (*types.Project, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return project, nil
}

// ListProjects returns all projects.
func (e *Engine) ListProjects(ctx context.Context, actor Actor) ([]*types.Project, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	projects, err := e.store.ListProjects(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return projects, nil
}

// AddProjectMember adds a user to a project's membership set.
func (e *Engine) AddProjectMember(ctx context.Context, actor Actor, projectID, userID string) error {
	if err := e.requirePermission(actor, auth.ActionManageProjects); err != nil {
		return err
	}
	if _, err := e.store.GetUser(ctx, userID); err != nil {
		return mapStoreErr(err)
	}
	return mapStoreErr(e.store.AddProjectMember(ctx, projectID, userID))
}

// RemoveProjectMember removes a user from a project's membership set.
// Issues assigned to the removed user keep their assignee.
func (e *Engine) RemoveProjectMember(ctx context.Context, actor Actor, projectID, userID string) error {
	if err := e.requirePermission(actor, auth.ActionManageProjects); err != nil {
		return err
	}
	return mapStoreErr(e.store.RemoveProjectMember(ctx, projectID, userID))
}

// DeleteProject removes a project. Fails while any issue references it.
func (e *Engine) DeleteProject(ctx context.Context, actor Actor, projectID string) error {
	if err := e.requirePermission(actor, auth.ActionManageProjects); err != nil {
		return err
	}
	return mapStoreErr(e.store.DeleteProject(ctx, projectID))
}

// GetDashboardMetrics computes the dashboard snapshot. All counts come
// from one store snapshot; recentLimit bounds the activity feed.
func (e *Engine) GetDashboardMetrics(ctx context.Context, actor Actor, recentLimit int) (*types.DashboardMetrics, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	metrics, err := e.store.GetDashboardMetrics(ctx, recentLimit)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return metrics, nil
}
