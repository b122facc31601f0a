package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/tm/internal/types"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	tmDir := filepath.Join(t.TempDir(), DirName)

	cfg, err := Load(tmDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmDir, "issues.db"), cfg.DBPath)
	assert.Equal(t, "tm", cfg.IssuePrefix)
	assert.Equal(t, 10, cfg.RecentLimit)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tmDir := filepath.Join(t.TempDir(), DirName)

	require.NoError(t, Save(tmDir, &Config{
		DBPath:      "tracker.db",
		Username:    "alice",
		IssuePrefix: "bug",
		RecentLimit: 25,
	}))

	cfg, err := Load(tmDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmDir, "tracker.db"), cfg.DBPath)
	assert.Equal(t, "alice", cfg.Username)
	assert.Equal(t, "bug", cfg.IssuePrefix)
	assert.Equal(t, 25, cfg.RecentLimit)
}

func TestEnvOverrides(t *testing.T) {
	tmDir := filepath.Join(t.TempDir(), DirName)
	require.NoError(t, Save(tmDir, &Config{DBPath: "tracker.db", Username: "alice"}))

	t.Setenv("TM_DB", "/tmp/other.db")
	t.Setenv("TM_USERNAME", "bob")

	cfg, err := Load(tmDir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.DBPath)
	assert.Equal(t, "bob", cfg.Username)
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, DirName), 0o755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.Chdir(nested))

	got := Discover()
	require.NotEmpty(t, got)
	// Resolve symlinks; macOS TMPDIR is behind /private
	want, err := filepath.EvalSymlinks(filepath.Join(root, DirName))
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, want, gotResolved)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
users:
  - username: admin
    display-name: Admin
    password: secret
    role: admin
  - username: dev
    password: secret
    role: developer
projects:
  - name: Core
    description: main project
    members: [admin, dev]
    modules: [api, ui]
    versions: ["1.0"]
    labels:
      - name: regression
        color: "#cc0000"
`), 0o644))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, seed.Users, 2)
	assert.Equal(t, types.RoleAdmin, seed.Users[0].Role)
	require.Len(t, seed.Projects, 1)
	assert.Equal(t, []string{"api", "ui"}, seed.Projects[0].Modules)
	assert.Equal(t, "regression", seed.Projects[0].Labels[0].Name)
}

func TestSeedFileValidation(t *testing.T) {
	dir := t.TempDir()

	write := func(content string) string {
		path := filepath.Join(dir, "seed.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	_, err := LoadSeedFile(write("users:\n  - username: a\n    password: p\n    role: emperor\n"))
	assert.ErrorContains(t, err, "invalid role")

	_, err = LoadSeedFile(write("users:\n  - username: a\n    role: admin\n"))
	assert.ErrorContains(t, err, "password is required")

	_, err = LoadSeedFile(write("projects:\n  - name: Core\n    members: [ghost]\n"))
	assert.ErrorContains(t, err, "unknown member")
}
