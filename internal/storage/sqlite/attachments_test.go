package sqlite

import (
	"context"
	"testing"

	"github.com/taskmaster/tm/internal/storage"
	"github.com/taskmaster/tm/internal/types"
)

func mustAddAttachment(t *testing.T, store *Store, att *types.Attachment) {
	t.Helper()
	err := store.RunInTx(context.Background(), func(tx storage.Tx) error {
		return tx.AddAttachment(context.Background(), att)
	})
	if err != nil {
		t.Fatalf("AddAttachment: %v", err)
	}
}

func TestAttachmentRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alice := seedUser(t, store, "alice", types.RoleDeveloper)
	p := seedProject(t, store, "Core", alice.ID)
	seedIssue(t, store, "tm-0001", p.ID, alice.ID, "Crash")

	att := &types.Attachment{
		IssueID:     "tm-0001",
		Filename:    "crash.log",
		FilePath:    "/var/tm/attachments/tm-0001/crash.log",
		FileSize:    2048,
		ContentType: "text/plain",
		UploaderID:  alice.ID,
	}
	mustAddAttachment(t, store, att)
	if att.ID == 0 {
		t.Fatal("expected AddAttachment to assign an ID")
	}
	mustAddAttachment(t, store, &types.Attachment{
		IssueID: "tm-0001", Filename: "after.png", UploaderID: alice.ID,
	})

	got, err := store.GetAttachment(ctx, att.ID)
	if err != nil {
		t.Fatalf("GetAttachment: %v", err)
	}
	if got.Filename != "crash.log" || got.FileSize != 2048 || got.UploaderID != alice.ID {
		t.Errorf("unexpected attachment: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	list, err := store.GetIssueAttachments(ctx, "tm-0001")
	if err != nil {
		t.Fatalf("GetIssueAttachments: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(list))
	}
	if list[0].Filename != "crash.log" || list[1].Filename != "after.png" {
		t.Errorf("attachments out of upload order: %s, %s", list[0].Filename, list[1].Filename)
	}
}

func TestAttachmentMissingIssue(t *testing.T) {
	store := newTestStore(t)
	alice := seedUser(t, store, "alice", types.RoleDeveloper)

	err := store.RunInTx(context.Background(), func(tx storage.Tx) error {
		return tx.AddAttachment(context.Background(), &types.Attachment{
			IssueID: "tm-nope", Filename: "x.log", UploaderID: alice.ID,
		})
	})
	if !isNotFound(err) {
		t.Errorf("expected ErrNotFound for missing issue, got %v", err)
	}
}

func TestDeleteAttachment(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alice := seedUser(t, store, "alice", types.RoleDeveloper)
	p := seedProject(t, store, "Core", alice.ID)
	seedIssue(t, store, "tm-0001", p.ID, alice.ID, "Crash")

	att := &types.Attachment{IssueID: "tm-0001", Filename: "crash.log", UploaderID: alice.ID}
	mustAddAttachment(t, store, att)

	err := store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteAttachment(ctx, att.ID)
	})
	if err != nil {
		t.Fatalf("DeleteAttachment: %v", err)
	}
	if _, err := store.GetAttachment(ctx, att.ID); !isNotFound(err) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	err = store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteAttachment(ctx, att.ID)
	})
	if !isNotFound(err) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestAttachmentsCascadeWithIssue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alice := seedUser(t, store, "alice", types.RoleDeveloper)
	p := seedProject(t, store, "Core", alice.ID)
	seedIssue(t, store, "tm-0001", p.ID, alice.ID, "Crash")

	mustAddAttachment(t, store, &types.Attachment{
		IssueID: "tm-0001", Filename: "crash.log", UploaderID: alice.ID,
	})

	err := store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteIssue(ctx, "tm-0001")
	})
	if err != nil {
		t.Fatalf("DeleteIssue: %v", err)
	}

	list, err := store.GetIssueAttachments(ctx, "tm-0001")
	if err != nil {
		t.Fatalf("GetIssueAttachments: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected attachments cascade-deleted, got %d", len(list))
	}
}
