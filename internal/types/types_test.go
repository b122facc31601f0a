package types

import (
	"strings"
	"testing"
)

func TestIssueValidation(t *testing.T) {
	valid := Issue{
		ID:         "tm-a1b2",
		ProjectID:  "proj-1",
		Title:      "Valid issue",
		Status:     StatusNew,
		Priority:   2,
		Severity:   SeverityMinor,
		IssueType:  TypeBug,
		ReporterID: "user-1",
	}

	tests := []struct {
		name    string
		mutate  func(*Issue)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid issue",
			mutate:  func(*Issue) {},
			wantErr: false,
		},
		{
			name:    "missing title",
			mutate:  func(i *Issue) { i.Title = "" },
			wantErr: true,
			errMsg:  "title is required",
		},
		{
			name:    "title too long",
			mutate:  func(i *Issue) { i.Title = strings.Repeat("x", 501) },
			wantErr: true,
			errMsg:  "title must be 500 characters or less",
		},
		{
			name:    "multibyte title within limit",
			mutate:  func(i *Issue) { i.Title = strings.Repeat("ü", 500) },
			wantErr: false,
		},
		{
			name:    "multibyte title over limit",
			mutate:  func(i *Issue) { i.Title = strings.Repeat("ü", 501) },
			wantErr: true,
			errMsg:  "title must be 500 characters or less",
		},
		{
			name:    "missing project",
			mutate:  func(i *Issue) { i.ProjectID = "" },
			wantErr: true,
			errMsg:  "project is required",
		},
		{
			name:    "missing reporter",
			mutate:  func(i *Issue) { i.ReporterID = "" },
			wantErr: true,
			errMsg:  "reporter is required",
		},
		{
			name:    "priority too low",
			mutate:  func(i *Issue) { i.Priority = -1 },
			wantErr: true,
			errMsg:  "priority must be between 0 and 4",
		},
		{
			name:    "priority too high",
			mutate:  func(i *Issue) { i.Priority = 5 },
			wantErr: true,
			errMsg:  "priority must be between 0 and 4",
		},
		{
			name:    "invalid status",
			mutate:  func(i *Issue) { i.Status = "triaged" },
			wantErr: true,
			errMsg:  "invalid status",
		},
		{
			name:    "invalid severity",
			mutate:  func(i *Issue) { i.Severity = "catastrophic" },
			wantErr: true,
			errMsg:  "invalid severity",
		},
		{
			name:    "invalid issue type",
			mutate:  func(i *Issue) { i.IssueType = "epic" },
			wantErr: true,
			errMsg:  "invalid issue type",
		},
		{
			name: "negative estimate",
			mutate: func(i *Issue) {
				est := -1.0
				i.EstimatedHours = &est
			},
			wantErr: true,
			errMsg:  "estimated_hours cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := valid
			tt.mutate(&issue)
			err := issue.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestIssueSetDefaults(t *testing.T) {
	issue := Issue{Title: "defaults"}
	issue.SetDefaults()

	if issue.Status != StatusNew {
		t.Errorf("expected status %s, got %s", StatusNew, issue.Status)
	}
	if issue.Severity != SeverityMinor {
		t.Errorf("expected severity %s, got %s", SeverityMinor, issue.Severity)
	}
	if issue.IssueType != TypeTask {
		t.Errorf("expected type %s, got %s", TypeTask, issue.IssueType)
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusNew, StatusOpen, StatusInProgress, StatusInReview, StatusResolved, StatusClosed, StatusReopened} {
		if !s.IsValid() {
			t.Errorf("status %s should be valid", s)
		}
	}
	for _, s := range []Status{"", "done", "TRIAGED", "wont_fix"} {
		if s.IsValid() {
			t.Errorf("status %s should be invalid", s)
		}
	}
}

func TestStatusIsOpen(t *testing.T) {
	if StatusClosed.IsOpen() {
		t.Error("closed should not count as open")
	}
	for _, s := range []Status{StatusNew, StatusOpen, StatusInProgress, StatusInReview, StatusResolved, StatusReopened} {
		if !s.IsOpen() {
			t.Errorf("status %s should count as open", s)
		}
	}
}

func TestRoleIsValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleDeveloper, RoleTester, RoleReporter, RoleViewer} {
		if !r.IsValid() {
			t.Errorf("role %s should be valid", r)
		}
	}
	if Role("superuser").IsValid() {
		t.Error("unknown role should be invalid")
	}
}

func TestProjectHasMember(t *testing.T) {
	p := Project{ID: "proj-1", Name: "Core", MemberIDs: []string{"u1", "u2"}}
	if !p.HasMember("u1") {
		t.Error("expected u1 to be a member")
	}
	if p.HasMember("u3") {
		t.Error("u3 should not be a member")
	}
}

func TestIsCritical(t *testing.T) {
	for prio, want := range map[int]bool{0: true, 1: true, 2: false, 4: false} {
		i := Issue{Priority: prio}
		if i.IsCritical() != want {
			t.Errorf("priority %d: IsCritical() = %v, want %v", prio, i.IsCritical(), want)
		}
	}
}
