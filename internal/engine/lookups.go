package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taskmaster/tm/internal/auth"
	"github.com/taskmaster/tm/internal/types"
)

// Modules, versions and labels are shared reference data scoped per
// project. Create, rename and delete require ManageLookups; deleting an
// entity still referenced by an issue fails with ErrConflict.

func (e *Engine) lookupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrValidation)
	}
	return name, nil
}

// CreateModule adds a module to a project.
func (e *Engine) CreateModule(ctx context.Context, actor Actor, projectID, name string) (*types.Module, error) {
	if err := e.requirePermission(actor, auth.ActionManageLookups); err != nil {
		return nil, err
	}
	name, err := e.lookupName(name)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.GetProject(ctx, projectID); err != nil {
		return nil, mapStoreErr(err)
	}
	m := &types.Module{ID: uuid.NewString(), ProjectID: projectID, Name: name, CreatedAt: e.now()}
	if err := e.store.CreateModule(ctx, m); err != nil {
		return nil, mapStoreErr(err)
	}
	return m, nil
}

// CreateVersion adds a version to a project.
func (e *Engine) CreateVersion(ctx context.Context, actor Actor, projectID, name string) (*types.Version, error) {
	if err := e.requirePermission(actor, auth.ActionManageLookups); err != nil {
		return nil, err
	}
	name, err := e.lookupName(name)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.GetProject(ctx, projectID); err != nil {
		return nil, mapStoreErr(err)
	}
	v := &types.Version{ID: uuid.NewString(), ProjectID: projectID, Name: name, CreatedAt: e.now()}
	if err := e.store.CreateVersion(ctx, v); err != nil {
		return nil, mapStoreErr(err)
	}
	return v, nil
}

// CreateLabel adds a label to a project.
func (e *Engine) CreateLabel(ctx context.Context, actor Actor, projectID, name, color string) (*types.Label, error) {
	if err := e.requirePermission(actor, auth.ActionManageLookups); err != nil {
		return nil, err
	}
	name, err := e.lookupName(name)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.GetProject(ctx, projectID); err != nil {
		return nil, mapStoreErr(err)
	}
	l := &types.Label{ID: uuid.NewString(), ProjectID: projectID, Name: name, Color: color, CreatedAt: e.now()}
	if err := e.store.CreateLabel(ctx, l); err != nil {
		return nil, mapStoreErr(err)
	}
	return l, nil
}

// RenameModule changes a module's name.
func (e *Engine) RenameModule(ctx context.Context, actor Actor, moduleID, name string) error {
	if err := e.requirePermission(actor, auth.ActionManageLookups); err != nil {
		return err
	}
	name, err := e.lookupName(name)
	if err != nil {
		return err
	}
	return mapStoreErr(e.store.RenameModule(ctx, moduleID, name))
}

// RenameVersion changes a version's name.
func (e *Engine) RenameVersion(ctx context.Context, actor Actor, versionID, name string) error {
	if err := e.requirePermission(actor, auth.ActionManageLookups); err != nil {
		return err
	}
	name, err := e.lookupName(name)
	if err != nil {
		return err
	}
	return mapStoreErr(e.store.RenameVersion(ctx, versionID, name))
}

// RenameLabel changes a label's name.
func (e *Engine) RenameLabel(ctx context.Context, actor Actor, labelID, name string) error {
	if err := e.requirePermission(actor, auth.ActionManageLookups); err != nil {
		return err
	}
	name, err := e.lookupName(name)
	if err != nil {
		return err
	}
	return mapStoreErr(e.store.RenameLabel(ctx, labelID, name))
}

// DeleteModule removes a module; blocked while issues reference it.
func (e *Engine) DeleteModule(ctx context.Context, actor Actor, moduleID string) error {
	if err := e.requirePermission(actor, auth.ActionManageLookups); err != nil {
		return err
	}
	return mapStoreErr(e.store.DeleteModule(ctx, moduleID))
}

// DeleteVersion removes a version; blocked while issues reference it.
func (e *Engine) DeleteVersion(ctx context.Context, actor Actor, versionID string) error {
	if err := e.requirePermission(actor, auth.ActionManageLookups); err != nil {
		return err
	}
	return mapStoreErr(e.store.DeleteVersion(ctx, versionID))
}

// DeleteLabel removes a label; blocked while issues reference it.
func (e *Engine) DeleteLabel(ctx context.Context, actor Actor, labelID string) error {
	if err := e.requirePermission(actor, auth.ActionManageLookups); err != nil {
		return err
	}
	return mapStoreErr(e.store.DeleteLabel(ctx, labelID))
}

// ListModules returns a project's modules ordered by name.
func (e *Engine) ListModules(ctx context.Context, actor Actor, projectID string) ([]*types.Module, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	ms, err := e.store.ListModules(ctx, projectID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return ms, nil
}

// ListVersions returns a project's versions ordered by name.
func (e *Engine) ListVersions(ctx context.Context, actor Actor, projectID string) ([]*types.Version, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	vs, err := e.store.ListVersions(ctx, projectID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return vs, nil
}

// ListLabels returns a project's labels ordered by name.
func (e *Engine) ListLabels(ctx context.Context, actor Actor, projectID string) ([]*types.Label, error) {
	if err := e.requirePermission(actor, auth.ActionViewIssue); err != nil {
		return nil, err
	}
	ls, err := e.store.ListLabels(ctx, projectID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return ls, nil
}
