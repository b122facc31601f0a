package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/taskmaster/tm/internal/auth"
	"github.com/taskmaster/tm/internal/storage"
	"github.com/taskmaster/tm/internal/types"
)

// maxAttachmentSize caps a single attachment at 50MB.
const maxAttachmentSize = 50 << 20

// blockedExtensions lists file extensions refused outright. The file
// contents are never inspected; the record only carries metadata.
var blockedExtensions = map[string]bool{
	".exe": true,
	".bat": true,
	".cmd": true,
	".scr": true,
	".vbs": true,
	".js":  true,
}

func validateAttachment(filename string, size int64) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("filename is required")
	}
	if ext := strings.ToLower(filepath.Ext(filename)); blockedExtensions[ext] {
		return fmt.Errorf("file type %s is not allowed", ext)
	}
	if size < 0 {
		return fmt.Errorf("file size must be non-negative")
	}
	if size > maxAttachmentSize {
		return fmt.Errorf("file exceeds the %dMB attachment limit", maxAttachmentSize>>20)
	}
	return nil
}

// AddAttachment records an attachment against an issue. The caller is
// responsible for placing the file at att.FilePath; only the metadata row
// is stored here.
func (e *Engine) AddAttachment(ctx context.Context, actor Actor, att *types.Attachment) (*types.Attachment, error) {
	if err := e.requirePermission(actor, auth.ActionAddAttachment); err != nil {
		return nil, err
	}
	if err := validateAttachment(att.Filename, att.FileSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	att.UploaderID = actor.UserID
	att.CreatedAt = e.now()
	err := e.store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.AddAttachment(ctx, att)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return att, nil
}

// GetAttachments returns an issue's attachments in upload order.
func (e *Engine) GetAttachments(ctx context.Context, actor Actor, issueID string) ([]*types.Attachment, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	if _, err := e.store.GetIssue(ctx, issueID); err != nil {
		return nil, mapStoreErr(err)
	}
	attachments, err := e.store.GetIssueAttachments(ctx, issueID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return attachments, nil
}

// DeleteAttachment removes an attachment record. The uploader may remove
// their own; anyone with EditAnyIssue may remove any. Returns the deleted
// record so the caller can clean up the file on disk.
func (e *Engine) DeleteAttachment(ctx context.Context, actor Actor, id int64) (*types.Attachment, error) {
	att, err := e.store.GetAttachment(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if att.UploaderID != actor.UserID && !auth.CanPerform(actor.Role, auth.ActionEditAnyIssue) {
		return nil, fmt.Errorf("%w: role %s cannot remove attachment %d", ErrPermissionDenied, actor.Role, id)
	}
	err = e.store.RunInTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteAttachment(ctx, id)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return att, nil
}
