// Package storage provides shared types for tracker storage.
//
// The concrete storage implementation lives in the sqlite sub-package.
// This package holds interface and value types that are referenced by
// both the sqlite implementation and its consumers (internal/engine,
// cmd/tm, etc.).
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/taskmaster/tm/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist in the database.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned on a unique-constraint violation or when a delete
// is blocked by existing references.
var ErrConflict = errors.New("conflict")

// ErrStaleStatus is returned when a guarded status update matched no row
// because the issue's status changed under the caller. The engine surfaces
// this as a concurrent-modification failure.
var ErrStaleStatus = errors.New("stale status")

// Storage is the interface satisfied by *sqlite.Store.
// Consumers depend on this interface rather than on the concrete type so
// that alternative implementations (mocks, proxies, etc.) can be substituted.
type Storage interface {
	// Users
	CreateUser(ctx context.Context, user *types.User) error
	GetUser(ctx context.Context, id string) (*types.User, error)
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
	UpdateUser(ctx context.Context, user *types.User) error
	ListUsers(ctx context.Context, includeDisabled bool) ([]*types.User, error)

	// Projects
	CreateProject(ctx context.Context, project *types.Project) error
	GetProject(ctx context.Context, id string) (*types.Project, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)
	AddProjectMember(ctx context.Context, projectID, userID string) error
	RemoveProjectMember(ctx context.Context, projectID, userID string) error
	// DeleteProject fails with ErrConflict while any issue references the project.
	DeleteProject(ctx context.Context, id string) error

	// Issues (reads; all writes go through RunInTx)
	GetIssue(ctx context.Context, id string) (*types.Issue, error)
	SearchIssues(ctx context.Context, filter types.IssueFilter) ([]*types.Issue, error)

	// History, comments and attachments
	GetStatusHistory(ctx context.Context, issueID string) ([]*types.StatusHistory, error)
	GetIssueComments(ctx context.Context, issueID string) ([]*types.Comment, error)
	GetIssueAttachments(ctx context.Context, issueID string) ([]*types.Attachment, error)
	GetAttachment(ctx context.Context, id int64) (*types.Attachment, error)

	// Lookup reference data (modules, versions, labels)
	CreateModule(ctx context.Context, m *types.Module) error
	CreateVersion(ctx context.Context, v *types.Version) error
	CreateLabel(ctx context.Context, l *types.Label) error
	GetModule(ctx context.Context, id string) (*types.Module, error)
	GetVersion(ctx context.Context, id string) (*types.Version, error)
	GetLabel(ctx context.Context, id string) (*types.Label, error)
	ListModules(ctx context.Context, projectID string) ([]*types.Module, error)
	ListVersions(ctx context.Context, projectID string) ([]*types.Version, error)
	ListLabels(ctx context.Context, projectID string) ([]*types.Label, error)
	RenameModule(ctx context.Context, id, name string) error
	RenameVersion(ctx context.Context, id, name string) error
	RenameLabel(ctx context.Context, id, name string) error
	// Deletes fail with ErrConflict while any issue references the entity.
	DeleteModule(ctx context.Context, id string) error
	DeleteVersion(ctx context.Context, id string) error
	DeleteLabel(ctx context.Context, id string) error

	// Aggregation. All counts come from a single read transaction so the
	// numbers are mutually consistent. recentLimit bounds the activity feed.
	GetDashboardMetrics(ctx context.Context, recentLimit int) (*types.DashboardMetrics, error)

	// Transactions
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	// Lifecycle
	Close() error
}

// Tx provides atomic multi-operation support within a single database
// transaction. All operations share one connection; changes are invisible to
// other connections until commit. An error or panic from the callback rolls
// everything back.
type Tx interface {
	CreateIssue(ctx context.Context, issue *types.Issue) error
	GetIssue(ctx context.Context, id string) (*types.Issue, error)
	// UpdateIssueFields applies a column patch and bumps updated_at.
	// The status column is rejected here; status changes must go through
	// UpdateIssueStatus so history stays accurate.
	UpdateIssueFields(ctx context.Context, id string, updates map[string]interface{}, now time.Time) error
	// UpdateIssueStatus performs a guarded status write: the UPDATE only
	// matches while the row still holds the expected old status. Returns
	// ErrStaleStatus when the guard misses on an existing issue.
	UpdateIssueStatus(ctx context.Context, id string, from, to types.Status, now time.Time) error
	// DeleteIssue removes the issue; history, comments and attachments cascade.
	DeleteIssue(ctx context.Context, id string) error

	AppendStatusHistory(ctx context.Context, rec *types.StatusHistory) error
	AddComment(ctx context.Context, issueID, authorID, text string) (*types.Comment, error)
	// AddAttachment inserts an attachment metadata record and fills in its
	// assigned ID and creation time.
	AddAttachment(ctx context.Context, att *types.Attachment) error
	DeleteAttachment(ctx context.Context, id int64) error

	SetIssueLabels(ctx context.Context, issueID string, labelIDs []string) error
}
