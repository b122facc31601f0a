package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/taskmaster/tm/internal/auth"
	"github.com/taskmaster/tm/internal/debug"
	"github.com/taskmaster/tm/internal/idgen"
	"github.com/taskmaster/tm/internal/storage"
	"github.com/taskmaster/tm/internal/types"
)

// maxIDAttempts bounds the nonce retry loop on issue ID collisions.
const maxIDAttempts = 5

// CreateIssue validates and persists a new issue. The reporter is always
// the acting user; status is always new. The issue row, its labels and the
// initial audit record are written in one transaction.
func (e *Engine) CreateIssue(ctx context.Context, actor Actor, issue *types.Issue) (*types.Issue, error) {
	if err := e.requirePermission(actor, auth.ActionCreateIssue); err != nil {
		return nil, err
	}

	now := e.now()
	issue.ReporterID = actor.UserID
	issue.Status = types.StatusNew
	issue.CreatedAt = now
	issue.UpdatedAt = now
	issue.SetDefaults()

	if err := issue.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	// Resolve the project up front so a conflict during insert can only
	// mean an ID collision.
	if _, err := e.store.GetProject(ctx, issue.ProjectID); err != nil {
		return nil, mapStoreErr(err)
	}

	for nonce := 0; nonce < maxIDAttempts; nonce++ {
		issue.ID = idgen.GenerateIssueID(e.idPrefix, issue.Title, issue.ReporterID, now, nonce)
		err := e.store.RunInTx(ctx, func(tx storage.Tx) error {
			if err := tx.CreateIssue(ctx, issue); err != nil {
				return err
			}
			return tx.AppendStatusHistory(ctx, &types.StatusHistory{
				IssueID:   issue.ID,
				NewStatus: types.StatusNew,
				ActorID:   actor.UserID,
				CreatedAt: now,
			})
		})
		if err == nil {
			return issue, nil
		}
		if errors.Is(err, storage.ErrConflict) {
			debug.Logf("issue ID collision on %s, retrying with nonce %d", issue.ID, nonce+1)
			continue
		}
		return nil, mapStoreErr(err)
	}
	return nil, fmt.Errorf("%w: could not allocate a unique issue ID after %d attempts", ErrConflict, maxIDAttempts)
}

// GetIssue retrieves an issue by ID.
func (e *Engine) GetIssue(ctx context.Context, actor Actor, issueID string) (*types.Issue, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	issue, err := e.store.GetIssue(ctx, issueID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return issue, nil
}

// ListIssues returns issues matching the filter, newest first.
func (e *Engine) ListIssues(ctx context.Context, actor Actor, filter types.IssueFilter) ([]*types.Issue, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	issues, err := e.store.SearchIssues(ctx, filter)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return issues, nil
}

// GetStatusHistory returns an issue's full audit trail in write order.
func (e *Engine) GetStatusHistory(ctx context.Context, actor Actor, issueID string) ([]*types.StatusHistory, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	if _, err := e.store.GetIssue(ctx, issueID); err != nil {
		return nil, mapStoreErr(err)
	}
	history, err := e.store.GetStatusHistory(ctx, issueID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return history, nil
}

// GetComments returns an issue's comments in write order.
func (e *Engine) GetComments(ctx context.Context, actor Actor, issueID string) ([]*types.Comment, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	if _, err := e.store.GetIssue(ctx, issueID); err != nil {
		return nil, mapStoreErr(err)
	}
	comments, err := e.store.GetIssueComments(ctx, issueID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return comments, nil
}

// TransitionStatus moves an issue through the lifecycle table. The status
// update and the audit record are one atomic write; if another caller
// changed the status in between, the guarded update misses and the call
// fails with ErrConcurrentModification instead of overwriting.
func (e *Engine) TransitionStatus(ctx context.Context, actor Actor, issueID string, to types.Status, comment string) (*types.Issue, error) {
	if err := e.requirePermission(actor, auth.ActionChangeStatus); err != nil {
		return nil, err
	}
	if !to.IsValid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, to)
	}

	issue, err := e.store.GetIssue(ctx, issueID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	from := issue.Status
	if !CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s (allowed: %v)", ErrInvalidTransition, from, to, AllowedTargets(from))
	}

	now := e.now()
	err = e.store.RunInTx(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateIssueStatus(ctx, issueID, from, to, now); err != nil {
			return err
		}
		return tx.AppendStatusHistory(ctx, &types.StatusHistory{
			IssueID:    issueID,
			PrevStatus: from,
			NewStatus:  to,
			ActorID:    actor.UserID,
			Comment:    comment,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	issue.Status = to
	issue.UpdatedAt = now
	return issue, nil
}

// Assign sets or clears an issue's assignee. An empty assigneeID clears
// the assignment; otherwise the target must be an enabled member of the
// issue's project.
func (e *Engine) Assign(ctx context.Context, actor Actor, issueID, assigneeID string) error {
	if err := e.requirePermission(actor, auth.ActionAssignUser); err != nil {
		return err
	}
	issue, err := e.store.GetIssue(ctx, issueID)
	if err != nil {
		return mapStoreErr(err)
	}

	var value interface{}
	if assigneeID != "" {
		assignee, err := e.store.GetUser(ctx, assigneeID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: no such user %s", ErrInvalidAssignee, assigneeID)
			}
			return mapStoreErr(err)
		}
		if assignee.Disabled {
			return fmt.Errorf("%w: user %s is disabled", ErrInvalidAssignee, assignee.Username)
		}
		project, err := e.store.GetProject(ctx, issue.ProjectID)
		if err != nil {
			return mapStoreErr(err)
		}
		if !project.HasMember(assigneeID) {
			return fmt.Errorf("%w: %s is not a member of project %s", ErrInvalidAssignee, assignee.Username, project.Name)
		}
		value = assigneeID
	}

	return mapStoreErr(e.store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.UpdateIssueFields(ctx, issueID, map[string]interface{}{"assignee_id": value}, e.now())
	}))
}

// editableFields enumerates the patch keys EditFields accepts, with a
// per-field value check. Status is deliberately not here; it only moves
// through TransitionStatus.
var editableFields = map[string]func(interface{}) error{
	"title": func(v interface{}) error {
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return fmt.Errorf("title must be a non-empty string")
		}
		if utf8.RuneCountInString(s) > 500 {
			return fmt.Errorf("title must be 500 characters or less")
		}
		return nil
	},
	"description": stringField("description"),
	"priority": func(v interface{}) error {
		p, ok := v.(int)
		if !ok || p < 0 || p > 4 {
			return fmt.Errorf("priority must be an integer between 0 and 4")
		}
		return nil
	},
	"severity": func(v interface{}) error {
		s, ok := v.(types.Severity)
		if !ok || !s.IsValid() {
			return fmt.Errorf("invalid severity")
		}
		return nil
	},
	"issue_type": func(v interface{}) error {
		t, ok := v.(types.IssueType)
		if !ok || !t.IsValid() {
			return fmt.Errorf("invalid issue type")
		}
		return nil
	},
	"module_id":           nullableStringField("module_id"),
	"affected_version_id": nullableStringField("affected_version_id"),
	"fix_version_id":      nullableStringField("fix_version_id"),
	"environment":         stringField("environment"),
	"steps_to_reproduce":  stringField("steps_to_reproduce"),
	"expected_result":     stringField("expected_result"),
	"actual_result":       stringField("actual_result"),
	"estimated_hours":     hoursField("estimated_hours"),
	"time_spent_hours":    hoursField("time_spent_hours"),
}

func stringField(name string) func(interface{}) error {
	return func(v interface{}) error {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%s must be a string", name)
		}
		return nil
	}
}

func nullableStringField(name string) func(interface{}) error {
	return func(v interface{}) error {
		if v == nil {
			return nil
		}
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%s must be a string or nil", name)
		}
		return nil
	}
}

func hoursField(name string) func(interface{}) error {
	return func(v interface{}) error {
		if v == nil {
			return nil
		}
		f, ok := v.(float64)
		if !ok || f < 0 {
			return fmt.Errorf("%s must be a non-negative number", name)
		}
		return nil
	}
}

// EditFields applies a field patch to an issue. Permission depends on
// ownership: roles without EditAnyIssue may only patch their own report,
// and only while it is unassigned.
func (e *Engine) EditFields(ctx context.Context, actor Actor, issueID string, patch map[string]interface{}) (*types.Issue, error) {
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: empty patch", ErrValidation)
	}
	for field, value := range patch {
		check, ok := editableFields[field]
		if !ok {
			if field == "status" {
				return nil, fmt.Errorf("%w: status changes must go through a transition", ErrValidation)
			}
			return nil, fmt.Errorf("%w: unknown field %q", ErrValidation, field)
		}
		if err := check(value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	issue, err := e.store.GetIssue(ctx, issueID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !auth.CanEditIssue(actor.Role, actor.UserID, issue.ReporterID, issue.AssigneeID) {
		return nil, fmt.Errorf("%w: role %s cannot edit issue %s", ErrPermissionDenied, actor.Role, issueID)
	}

	now := e.now()
	err = e.store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.UpdateIssueFields(ctx, issueID, patch, now)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	updated, err := e.store.GetIssue(ctx, issueID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return updated, nil
}

// SetLabels replaces an issue's label set, preserving the given order.
// Gated by the same ownership rule as EditFields.
func (e *Engine) SetLabels(ctx context.Context, actor Actor, issueID string, labelIDs []string) error {
	issue, err := e.store.GetIssue(ctx, issueID)
	if err != nil {
		return mapStoreErr(err)
	}
	if !auth.CanEditIssue(actor.Role, actor.UserID, issue.ReporterID, issue.AssigneeID) {
		return fmt.Errorf("%w: role %s cannot edit issue %s", ErrPermissionDenied, actor.Role, issueID)
	}
	return mapStoreErr(e.store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.SetIssueLabels(ctx, issueID, labelIDs)
	}))
}

// DeleteIssue permanently removes an issue with its history, comments and
// attachment records.
// Privileged and irreversible.
func (e *Engine) DeleteIssue(ctx context.Context, actor Actor, issueID string) error {
	if err := e.requirePermission(actor, auth.ActionDeleteIssue); err != nil {
		return err
	}
	return mapStoreErr(e.store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteIssue(ctx, issueID)
	}))
}

// AddComment appends a comment to an issue.
func (e *Engine) AddComment(ctx context.Context, actor Actor, issueID, text string) (*types.Comment, error) {
	if err := e.requirePermission(actor, auth.ActionAddComment); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", ErrValidation)
	}

	var comment *types.Comment
	err := e.store.RunInTx(ctx, func(tx storage.Tx) error {
		var err error
		comment, err = tx.AddComment(ctx, issueID, actor.UserID, text)
		return err
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return comment, nil
}
