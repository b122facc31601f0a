package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskmaster/tm/internal/types"
)

func TestAdminHasAllActions(t *testing.T) {
	actions := []Action{
		ActionViewIssue, ActionCreateIssue, ActionEditOwnIssue,
		ActionEditAnyIssue, ActionDeleteIssue, ActionChangeStatus,
		ActionAssignUser, ActionAddComment, ActionAddAttachment,
		ActionManageUsers, ActionManageProjects, ActionManageLookups,
	}
	for _, a := range actions {
		assert.True(t, CanPerform(types.RoleAdmin, a), "admin should have %s", a)
	}
}

func TestViewerIsReadOnly(t *testing.T) {
	assert.True(t, CanPerform(types.RoleViewer, ActionViewIssue))

	denied := []Action{
		ActionCreateIssue, ActionEditOwnIssue, ActionEditAnyIssue,
		ActionDeleteIssue, ActionChangeStatus, ActionAssignUser,
		ActionAddComment, ActionAddAttachment, ActionManageUsers,
		ActionManageProjects, ActionManageLookups,
	}
	for _, a := range denied {
		assert.False(t, CanPerform(types.RoleViewer, a), "viewer should not have %s", a)
	}
}

func TestDeveloperAndTesterGrants(t *testing.T) {
	for _, role := range []types.Role{types.RoleDeveloper, types.RoleTester} {
		assert.True(t, CanPerform(role, ActionCreateIssue))
		assert.True(t, CanPerform(role, ActionEditAnyIssue))
		assert.True(t, CanPerform(role, ActionChangeStatus))
		assert.True(t, CanPerform(role, ActionAssignUser))
		assert.True(t, CanPerform(role, ActionAddComment))
		assert.False(t, CanPerform(role, ActionManageUsers), "%s must not manage users", role)
		assert.False(t, CanPerform(role, ActionDeleteIssue), "%s must not delete issues", role)
	}
	// Project management is developer-only between the two
	assert.True(t, CanPerform(types.RoleDeveloper, ActionManageProjects))
	assert.False(t, CanPerform(types.RoleTester, ActionManageProjects))
}

func TestReporterGrants(t *testing.T) {
	assert.True(t, CanPerform(types.RoleReporter, ActionCreateIssue))
	assert.True(t, CanPerform(types.RoleReporter, ActionEditOwnIssue))
	assert.True(t, CanPerform(types.RoleReporter, ActionAddComment))
	assert.True(t, CanPerform(types.RoleReporter, ActionAddAttachment))
	assert.False(t, CanPerform(types.RoleReporter, ActionEditAnyIssue))
	assert.False(t, CanPerform(types.RoleReporter, ActionChangeStatus))
	assert.False(t, CanPerform(types.RoleReporter, ActionAssignUser))
	assert.False(t, CanPerform(types.RoleReporter, ActionDeleteIssue))
}

func TestUnknownRoleOrActionDenied(t *testing.T) {
	assert.False(t, CanPerform(types.Role("superuser"), ActionViewIssue))
	assert.False(t, CanPerform(types.RoleAdmin, Action("launch_missiles")))
}

func TestCanEditIssueOwnership(t *testing.T) {
	// Reporter edits own unassigned report
	assert.True(t, CanEditIssue(types.RoleReporter, "alice", "alice", ""))
	// ...but not once it has been assigned
	assert.False(t, CanEditIssue(types.RoleReporter, "alice", "alice", "bob"))
	// ...and never someone else's report
	assert.False(t, CanEditIssue(types.RoleReporter, "alice", "carol", ""))

	// EditAnyIssue roles bypass ownership entirely
	assert.True(t, CanEditIssue(types.RoleDeveloper, "dev", "carol", "bob"))
	assert.True(t, CanEditIssue(types.RoleAdmin, "root", "carol", "bob"))

	// Viewer can never edit
	assert.False(t, CanEditIssue(types.RoleViewer, "eve", "eve", ""))
}
