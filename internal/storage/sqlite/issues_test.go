package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/tm/internal/storage"
	"github.com/taskmaster/tm/internal/types"
)

func TestIssueRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice", types.RoleDeveloper)
	p := seedProject(t, store, "Core", alice.ID)
	seedIssue(t, store, "tm-a1b2", p.ID, alice.ID, "Crash on startup")

	got, err := store.GetIssue(ctx, "tm-a1b2")
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if got.Title != "Crash on startup" {
		t.Errorf("unexpected title %q", got.Title)
	}
	if got.Status != types.StatusNew {
		t.Errorf("expected status new, got %s", got.Status)
	}
	if got.AssigneeID != "" {
		t.Errorf("expected no assignee, got %q", got.AssigneeID)
	}
}

func TestIssueNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetIssue(context.Background(), "tm-nope")
	if !isNotFound(err) {
		t.Errorf("expected storage.ErrNotFound, got %v", err)
	}
}

func TestCreateIssueUnknownProjectRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice", types.RoleDeveloper)
	now := time.Now()
	issue := &types.Issue{
		ID:         "tm-xxxx",
		ProjectID:  uuid.NewString(), // no such project
		Title:      "orphan",
		Status:     types.StatusNew,
		Priority:   2,
		Severity:   types.SeverityMinor,
		IssueType:  types.TypeBug,
		ReporterID: alice.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.CreateIssue(ctx, issue)
	})
	if !isConflict(err) {
		t.Errorf("expected foreign key conflict, got %v", err)
	}
}

func TestSearchIssuesFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice", types.RoleDeveloper)
	bob := seedUser(t, store, "bob", types.RoleTester)
	p := seedProject(t, store, "Core", alice.ID, bob.ID)
	other := seedProject(t, store, "Docs", alice.ID)

	seedIssue(t, store, "tm-0001", p.ID, alice.ID, "Login crash")
	seedIssue(t, store, "tm-0002", p.ID, bob.ID, "Slow dashboard")
	seedIssue(t, store, "tm-0003", other.ID, alice.ID, "Typo in README")

	// assign tm-0002 to alice
	err := store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.UpdateIssueFields(ctx, "tm-0002", map[string]interface{}{"assignee_id": alice.ID}, time.Now())
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}

	byProject, err := store.SearchIssues(ctx, types.IssueFilter{ProjectID: p.ID})
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	if len(byProject) != 2 {
		t.Errorf("expected 2 issues in project, got %d", len(byProject))
	}

	byReporter, err := store.SearchIssues(ctx, types.IssueFilter{ReporterID: &bob.ID})
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	if len(byReporter) != 1 || byReporter[0].ID != "tm-0002" {
		t.Errorf("unexpected reporter filter result: %+v", byReporter)
	}

	byAssignee, err := store.SearchIssues(ctx, types.IssueFilter{AssigneeID: &alice.ID})
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	if len(byAssignee) != 1 || byAssignee[0].ID != "tm-0002" {
		t.Errorf("unexpected assignee filter result: %+v", byAssignee)
	}

	unassigned := ""
	noAssignee, err := store.SearchIssues(ctx, types.IssueFilter{AssigneeID: &unassigned})
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	if len(noAssignee) != 2 {
		t.Errorf("expected 2 unassigned issues, got %d", len(noAssignee))
	}

	byTitle, err := store.SearchIssues(ctx, types.IssueFilter{TitleSearch: "crash"})
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	if len(byTitle) != 1 || byTitle[0].ID != "tm-0001" {
		t.Errorf("unexpected title search result: %+v", byTitle)
	}
}

func TestSearchTitleLikeEscaping(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice", types.RoleDeveloper)
	p := seedProject(t, store, "Core", alice.ID)
	seedIssue(t, store, "tm-0001", p.ID, alice.ID, "100% CPU usage")
	seedIssue(t, store, "tm-0002", p.ID, alice.ID, "100 threads leak")

	got, err := store.SearchIssues(ctx, types.IssueFilter{TitleSearch: "100%"})
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	if len(got) != 1 || got[0].ID != "tm-0001" {
		t.Errorf("LIKE escaping broken, got %+v", got)
	}
}

func TestUpdateIssueFieldsRejectsStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice", types.RoleDeveloper)
	p := seedProject(t, store, "Core", alice.ID)
	seedIssue(t, store, "tm-0001", p.ID, alice.ID, "Crash")

	err := store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.UpdateIssueFields(ctx, "tm-0001", map[string]interface{}{"status": "closed"}, time.Now())
	})
	if err == nil {
		t.Fatal("expected status column to be rejected")
	}
}

func TestIssueLabelOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice", types.RoleDeveloper)
	p := seedProject(t, store, "Core", alice.ID)

	var labelIDs []string
	for _, name := range []string{"regression", "hotfix-candidate", "customer-reported"} {
		l := &types.Label{ID: uuid.NewString(), ProjectID: p.ID, Name: name, CreatedAt: time.Now()}
		if err := store.CreateLabel(ctx, l); err != nil {
			t.Fatalf("CreateLabel: %v", err)
		}
		labelIDs = append(labelIDs, l.ID)
	}

	seedIssue(t, store, "tm-0001", p.ID, alice.ID, "Crash")
	err := store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.SetIssueLabels(ctx, "tm-0001", labelIDs)
	})
	if err != nil {
		t.Fatalf("SetIssueLabels: %v", err)
	}

	got, err := store.GetIssue(ctx, "tm-0001")
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if len(got.Labels) != 3 {
		t.Fatalf("expected 3 labels, got %d", len(got.Labels))
	}
	for i, id := range labelIDs {
		if got.Labels[i] != id {
			t.Errorf("label order not preserved at %d: want %s got %s", i, id, got.Labels[i])
		}
	}
}

func TestDeleteIssueCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice", types.RoleDeveloper)
	p := seedProject(t, store, "Core", alice.ID)
	seedIssue(t, store, "tm-0001", p.ID, alice.ID, "Crash")

	err := store.RunInTx(ctx, func(tx storage.Tx) error {
		_, err := tx.AddComment(ctx, "tm-0001", alice.ID, "looking into it")
		return err
	})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	err = store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteIssue(ctx, "tm-0001")
	})
	if err != nil {
		t.Fatalf("DeleteIssue: %v", err)
	}

	if _, err := store.GetIssue(ctx, "tm-0001"); !isNotFound(err) {
		t.Errorf("expected issue gone, got %v", err)
	}
	history, err := store.GetStatusHistory(ctx, "tm-0001")
	if err != nil {
		t.Fatalf("GetStatusHistory: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected history cascade-deleted, got %d records", len(history))
	}
	comments, err := store.GetIssueComments(ctx, "tm-0001")
	if err != nil {
		t.Fatalf("GetIssueComments: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("expected comments cascade-deleted, got %d", len(comments))
	}
}
