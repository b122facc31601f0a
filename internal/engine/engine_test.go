package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/tm/internal/storage/sqlite"
	"github.com/taskmaster/tm/internal/types"
)

// testEnv bundles an engine with a standard cast of users and a project
// they are all members of.
type testEnv struct {
	eng      *Engine
	admin    Actor
	dev      Actor
	tester   Actor
	reporter Actor
	viewer   Actor
	project  *types.Project
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.New(ctx, t.TempDir()+"/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return New(store, "tm")
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	eng := newTestEngine(t)

	adminUser, err := eng.Bootstrap(ctx, "admin", "Admin", "admin-pw")
	require.NoError(t, err)
	admin := Actor{UserID: adminUser.ID, Role: adminUser.Role}

	mkActor := func(username string, role types.Role) Actor {
		u, err := eng.CreateUser(ctx, admin, username, username, username+"-pw", role)
		require.NoError(t, err)
		return Actor{UserID: u.ID, Role: u.Role}
	}
	env := &testEnv{
		eng:      eng,
		admin:    admin,
		dev:      mkActor("dev", types.RoleDeveloper),
		tester:   mkActor("tester", types.RoleTester),
		reporter: mkActor("reporter", types.RoleReporter),
		viewer:   mkActor("viewer", types.RoleViewer),
	}

	project, err := eng.CreateProject(ctx, admin, "Core", "main project", []string{
		admin.UserID, env.dev.UserID, env.tester.UserID, env.reporter.UserID, env.viewer.UserID,
	})
	require.NoError(t, err)
	env.project = project
	return env
}

func (env *testEnv) createIssue(t *testing.T, actor Actor, title string) *types.Issue {
	t.Helper()
	issue, err := env.eng.CreateIssue(context.Background(), actor, &types.Issue{
		ProjectID: env.project.ID,
		Title:     title,
		Priority:  2,
		IssueType: types.TypeBug,
	})
	require.NoError(t, err)
	return issue
}

func TestLoginSuccess(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.eng.Login(ctx, "dev", "dev-pw")
	require.NoError(t, err)
	assert.Equal(t, "dev", user.Username)
	assert.Equal(t, types.RoleDeveloper, user.Role)
	require.NotNil(t, user.LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.eng.Login(ctx, "dev", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, err = env.eng.Login(ctx, "nobody", "whatever")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestLoginDisabledUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.eng.SetUserDisabled(ctx, env.admin, env.dev.UserID, true))
	_, err := env.eng.Login(ctx, "dev", "dev-pw")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	require.NoError(t, env.eng.SetUserDisabled(ctx, env.admin, env.dev.UserID, false))
	_, err = env.eng.Login(ctx, "dev", "dev-pw")
	assert.NoError(t, err)
}

func TestLoginLockout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	base := time.Now()
	env.eng.now = func() time.Time { return base }

	for i := 0; i < maxLoginFailures; i++ {
		_, err := env.eng.Login(ctx, "dev", "wrong")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	}

	// Correct password is now rejected too
	_, err := env.eng.Login(ctx, "dev", "dev-pw")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	// After the lockout window expires the account works again
	base = base.Add(lockoutDuration + time.Second)
	_, err = env.eng.Login(ctx, "dev", "dev-pw")
	assert.NoError(t, err)
}

func TestLockoutResetsOnSuccess(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for i := 0; i < maxLoginFailures-1; i++ {
		_, err := env.eng.Login(ctx, "dev", "wrong")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	}
	_, err := env.eng.Login(ctx, "dev", "dev-pw")
	require.NoError(t, err)

	// Counter is back to zero; a single failure does not lock
	_, err = env.eng.Login(ctx, "dev", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, err = env.eng.Login(ctx, "dev", "dev-pw")
	assert.NoError(t, err)
}

func TestBootstrapOnlyOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	_, err := eng.Bootstrap(ctx, "admin", "Admin", "pw-secret")
	require.NoError(t, err)

	_, err = eng.Bootstrap(ctx, "admin2", "Admin 2", "pw-secret")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateUserRequiresManageUsers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for _, actor := range []Actor{env.dev, env.tester, env.reporter, env.viewer} {
		_, err := env.eng.CreateUser(ctx, actor, "newbie", "Newbie", "pw-secret", types.RoleViewer)
		assert.ErrorIs(t, err, ErrPermissionDenied, "role %s", actor.Role)
	}

	u, err := env.eng.CreateUser(ctx, env.admin, "newbie", "Newbie", "pw-secret", types.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, types.RoleViewer, u.Role)
	assert.NotEmpty(t, u.PasswordHash)
}

func TestSetUserRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.eng.SetUserRole(ctx, env.admin, env.viewer.UserID, types.RoleTester))
	u, err := env.eng.GetUser(ctx, env.admin, env.viewer.UserID)
	require.NoError(t, err)
	assert.Equal(t, types.RoleTester, u.Role)

	err = env.eng.SetUserRole(ctx, env.dev, env.viewer.UserID, types.RoleAdmin)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = env.eng.SetUserRole(ctx, env.admin, env.viewer.UserID, "emperor")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCannotDisableSelf(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	err := env.eng.SetUserDisabled(ctx, env.admin, env.admin.UserID, true)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDuplicateUsernameConflict(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.eng.CreateUser(ctx, env.admin, "dev", "Another Dev", "pw-secret", types.RoleDeveloper)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestProjectManagement(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// Developers may manage projects, testers may not
	p, err := env.eng.CreateProject(ctx, env.dev, "Side", "", nil)
	require.NoError(t, err)

	_, err = env.eng.CreateProject(ctx, env.tester, "Nope", "", nil)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, env.eng.AddProjectMember(ctx, env.dev, p.ID, env.tester.UserID))
	got, err := env.eng.GetProject(ctx, env.viewer, p.ID)
	require.NoError(t, err)
	assert.True(t, got.HasMember(env.tester.UserID))

	require.NoError(t, env.eng.RemoveProjectMember(ctx, env.dev, p.ID, env.tester.UserID))
	require.NoError(t, env.eng.DeleteProject(ctx, env.dev, p.ID))
	_, err = env.eng.GetProject(ctx, env.viewer, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProjectBlockedByIssues(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.createIssue(t, env.dev, "Keeps project alive")
	err := env.eng.DeleteProject(ctx, env.admin, env.project.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDashboardMetricsConsistency(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.createIssue(t, env.dev, "One")
	env.createIssue(t, env.dev, "Two")
	issue := env.createIssue(t, env.tester, "Three")

	_, err := env.eng.TransitionStatus(ctx, env.dev, issue.ID, types.StatusClosed, "wont fix")
	require.NoError(t, err)

	m, err := env.eng.GetDashboardMetrics(ctx, env.viewer, 10)
	require.NoError(t, err)

	sum := 0
	for _, c := range m.ByStatus {
		sum += c
	}
	assert.Equal(t, m.TotalIssues, sum)
	assert.Equal(t, m.TotalIssues, m.OpenIssues+m.ClosedIssues)
	assert.Equal(t, 3, m.TotalIssues)
	assert.Equal(t, 1, m.ClosedIssues)
	assert.NotEmpty(t, m.RecentActivity)
}
