// Package auth evaluates (role, action, resource) triples against a fixed
// permission matrix. Evaluation is pure data lookup with no side effects;
// every mutating engine call consults this package before touching the store.
package auth

import (
	"github.com/taskmaster/tm/internal/types"
)

// Action is one of the operations the matrix gates
type Action string

// Action constants
const (
	ActionViewIssue      Action = "view_issue"
	ActionCreateIssue    Action = "create_issue"
	ActionEditOwnIssue   Action = "edit_own_issue"
	ActionEditAnyIssue   Action = "edit_any_issue"
	ActionDeleteIssue    Action = "delete_issue"
	ActionChangeStatus   Action = "change_status"
	ActionAssignUser     Action = "assign_user"
	ActionAddComment     Action = "add_comment"
	ActionAddAttachment  Action = "add_attachment"
	ActionManageUsers    Action = "manage_users"
	ActionManageProjects Action = "manage_projects"
	ActionManageLookups  Action = "manage_lookups" // modules, versions, labels
)

// matrix is the fixed role/action permission table. There is no inheritance
// between roles; each row lists its grants in full.
var matrix = map[types.Role]map[Action]bool{
	types.RoleAdmin: {
		ActionViewIssue:      true,
		ActionCreateIssue:    true,
		ActionEditOwnIssue:   true,
		ActionEditAnyIssue:   true,
		ActionDeleteIssue:    true,
		ActionChangeStatus:   true,
		ActionAssignUser:     true,
		ActionAddComment:     true,
		ActionAddAttachment:  true,
		ActionManageUsers:    true,
		ActionManageProjects: true,
		ActionManageLookups:  true,
	},
	types.RoleDeveloper: {
		ActionViewIssue:      true,
		ActionCreateIssue:    true,
		ActionEditOwnIssue:   true,
		ActionEditAnyIssue:   true,
		ActionChangeStatus:   true,
		ActionAssignUser:     true,
		ActionAddComment:     true,
		ActionAddAttachment:  true,
		ActionManageProjects: true,
		ActionManageLookups:  true,
	},
	types.RoleTester: {
		ActionViewIssue:     true,
		ActionCreateIssue:   true,
		ActionEditOwnIssue:  true,
		ActionEditAnyIssue:  true,
		ActionChangeStatus:  true,
		ActionAssignUser:    true,
		ActionAddComment:    true,
		ActionAddAttachment: true,
	},
	types.RoleReporter: {
		ActionViewIssue:     true,
		ActionCreateIssue:   true,
		ActionEditOwnIssue:  true,
		ActionAddComment:    true,
		ActionAddAttachment: true,
	},
	types.RoleViewer: {
		ActionViewIssue: true,
	},
}

// CanPerform reports whether role is granted action. Unknown roles and
// unknown actions are denied.
func CanPerform(role types.Role, action Action) bool {
	return matrix[role][action]
}

// CanEditIssue resolves the EditOwnIssue/EditAnyIssue split for a concrete
// issue. Roles with EditAnyIssue may edit regardless of ownership; roles
// with only EditOwnIssue may edit only their own report, and only while the
// issue is not yet assigned to anyone.
func CanEditIssue(role types.Role, actingUserID, reporterID, assigneeID string) bool {
	if CanPerform(role, ActionEditAnyIssue) {
		return true
	}
	if !CanPerform(role, ActionEditOwnIssue) {
		return false
	}
	return reporterID == actingUserID && assigneeID == ""
}
