// Package types defines core data structures for the tm issue tracker.
package types

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Issue represents a trackable work item
type Issue struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status,omitempty"`
	Priority    int       `json:"priority"` // No omitempty: 0 is valid (P0/critical)
	Severity    Severity  `json:"severity,omitempty"`
	IssueType   IssueType `json:"issue_type,omitempty"`
	ModuleID    string    `json:"module_id,omitempty"`
	ReporterID  string    `json:"reporter_id"`
	AssigneeID  string    `json:"assignee_id,omitempty"`

	// Version references
	AffectedVersionID string `json:"affected_version_id,omitempty"`
	FixVersionID      string `json:"fix_version_id,omitempty"`

	// Reproduction fields
	Environment    string `json:"environment,omitempty"`
	StepsToRepro   string `json:"steps_to_reproduce,omitempty"`
	ExpectedResult string `json:"expected_result,omitempty"`
	ActualResult   string `json:"actual_result,omitempty"`

	// Time tracking
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	TimeSpentHours *float64 `json:"time_spent_hours,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Labels []string `json:"labels,omitempty"` // Label IDs, insertion order preserved
}

// Validate checks if the issue has valid field values
func (i *Issue) Validate() error {
	if len(i.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	// Character count, not bytes, matching the length() CHECK in the schema
	if n := utf8.RuneCountInString(i.Title); n > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", n)
	}
	if i.ProjectID == "" {
		return fmt.Errorf("project is required")
	}
	if i.ReporterID == "" {
		return fmt.Errorf("reporter is required")
	}
	if i.Priority < 0 || i.Priority > 4 {
		return fmt.Errorf("priority must be between 0 and 4 (got %d)", i.Priority)
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	if !i.Severity.IsValid() {
		return fmt.Errorf("invalid severity: %s", i.Severity)
	}
	if !i.IssueType.IsValid() {
		return fmt.Errorf("invalid issue type: %s", i.IssueType)
	}
	if i.EstimatedHours != nil && *i.EstimatedHours < 0 {
		return fmt.Errorf("estimated_hours cannot be negative")
	}
	if i.TimeSpentHours != nil && *i.TimeSpentHours < 0 {
		return fmt.Errorf("time_spent_hours cannot be negative")
	}
	return nil
}

// SetDefaults applies default values for fields omitted at creation time:
//   - Status: defaults to StatusNew
//   - Severity: defaults to SeverityMinor
//   - IssueType: defaults to TypeTask
//
// Priority 0 (P0) is a valid value, so priority defaults are the caller's
// responsibility (the engine uses 2 for new issues).
func (i *Issue) SetDefaults() {
	if i.Status == "" {
		i.Status = StatusNew
	}
	if i.Severity == "" {
		i.Severity = SeverityMinor
	}
	if i.IssueType == "" {
		i.IssueType = TypeTask
	}
}

// IsCritical returns true for P0/P1 issues
func (i *Issue) IsCritical() bool {
	return i.Priority <= 1
}

// Status represents the current state of an issue
type Status string

// Issue status constants
const (
	StatusNew        Status = "new"
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusInReview   Status = "in_review"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusReopened   Status = "reopened"
)

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusOpen, StatusInProgress, StatusInReview,
		StatusResolved, StatusClosed, StatusReopened:
		return true
	}
	return false
}

// IsOpen returns true for statuses counted in the open bucket of the
// dashboard split. Everything that is not closed counts as open.
func (s Status) IsOpen() bool {
	return s != StatusClosed
}

// IssueType categorizes the kind of work
type IssueType string

// Issue type constants
const (
	TypeBug           IssueType = "bug"
	TypeFeature       IssueType = "feature"
	TypeEnhancement   IssueType = "enhancement"
	TypeTask          IssueType = "task"
	TypeDocumentation IssueType = "documentation"
	TypePerformance   IssueType = "performance"
	TypeSecurity      IssueType = "security"
	TypeRefactoring   IssueType = "refactoring"
)

// IsValid checks if the issue type value is valid
func (t IssueType) IsValid() bool {
	switch t {
	case TypeBug, TypeFeature, TypeEnhancement, TypeTask,
		TypeDocumentation, TypePerformance, TypeSecurity, TypeRefactoring:
		return true
	}
	return false
}

// Severity grades the impact of an issue, independent of priority
type Severity string

// Severity constants
const (
	SeverityBlocker Severity = "blocker"
	SeverityMajor   Severity = "major"
	SeverityMinor   Severity = "minor"
	SeverityTrivial Severity = "trivial"
)

// IsValid checks if the severity value is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityBlocker, SeverityMajor, SeverityMinor, SeverityTrivial:
		return true
	}
	return false
}

// Role is a fixed permission tier assigned to a user
type Role string

// Role constants
const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleTester    Role = "tester"
	RoleReporter  Role = "reporter"
	RoleViewer    Role = "viewer"
)

// IsValid checks if the role value is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleTester, RoleReporter, RoleViewer:
		return true
	}
	return false
}

// User represents an account in the tracker. Users are never physically
// deleted; Disabled preserves referential integrity of historical records.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name"`
	Role         Role       `json:"role"`
	PasswordHash string     `json:"-"` // salted sha256, never serialized
	PasswordSalt string     `json:"-"`
	Disabled     bool       `json:"disabled,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Validate checks if the user has valid field values
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if !u.Role.IsValid() {
		return fmt.Errorf("invalid role: %s", u.Role)
	}
	return nil
}

// Project groups issues and carries a membership set
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	MemberIDs   []string  `json:"member_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasMember reports whether userID is in the project's membership set
func (p *Project) HasMember(userID string) bool {
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// StatusHistory is an immutable audit record of one status transition.
// PrevStatus is empty for the record written at issue creation.
type StatusHistory struct {
	ID         int64     `json:"id"`
	IssueID    string    `json:"issue_id"`
	PrevStatus Status    `json:"prev_status,omitempty"`
	NewStatus  Status    `json:"new_status"`
	ActorID    string    `json:"actor_id"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Attachment is a file record owned by an issue. The row holds metadata
// only; the file itself lives on disk at FilePath. Records are purged with
// their issue.
type Attachment struct {
	ID          int64     `json:"id"`
	IssueID     string    `json:"issue_id"`
	Filename    string    `json:"filename"`
	FilePath    string    `json:"file_path,omitempty"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type,omitempty"`
	UploaderID  string    `json:"uploader_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Comment represents a comment on an issue
type Comment struct {
	ID        int64     `json:"id"`
	IssueID   string    `json:"issue_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Module is a component of the tracked system, scoped per project
type Module struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Version is a release reference, scoped per project
type Version struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Label is a tag issues can reference. Shared data, never owned by an issue.
type Label struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IssueFilter is used to filter issue queries
type IssueFilter struct {
	ProjectID   string
	Status      *Status
	Priority    *int
	IssueType   *IssueType
	ModuleID    string
	AssigneeID  *string
	ReporterID  *string
	TitleSearch string
	Limit       int
}

// ActivityKind distinguishes entries in the recent-activity feed
type ActivityKind string

// Activity kinds
const (
	ActivityStatusChange ActivityKind = "status_change"
	ActivityComment      ActivityKind = "comment"
)

// ActivityEvent is one entry in the dashboard's recent-activity feed,
// merged from StatusHistory and Comment records.
type ActivityEvent struct {
	Kind       ActivityKind `json:"kind"`
	IssueID    string       `json:"issue_id"`
	IssueTitle string       `json:"issue_title"`
	ActorID    string       `json:"actor_id"`
	Detail     string       `json:"detail,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// DashboardMetrics provides aggregate metrics computed from one snapshot
type DashboardMetrics struct {
	TotalIssues     int              `json:"total_issues"`
	OpenIssues      int              `json:"open_issues"`
	ClosedIssues    int              `json:"closed_issues"`
	CriticalIssues  int              `json:"critical_issues"` // P0/P1
	ByStatus        map[Status]int   `json:"by_status"`
	ByPriority      map[int]int      `json:"by_priority"`
	ByModule        map[string]int   `json:"by_module"` // keyed "project/module", "" = unassigned
	AssignedPerUser map[string]int   `json:"assigned_per_user"`
	RecentActivity  []*ActivityEvent `json:"recent_activity,omitempty"`
	AsOf            time.Time        `json:"as_of"`
}
