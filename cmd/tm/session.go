package main

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/taskmaster/tm/internal/engine"
	"github.com/taskmaster/tm/internal/types"
)

const sessionFile = "session.yaml"

// session records who is logged in on this workspace. The role is not
// stored; it is re-read from the database on every command so role changes
// and disables take effect immediately.
type session struct {
	Username string    `yaml:"username"`
	UserID   string    `yaml:"user-id"`
	LoggedIn time.Time `yaml:"logged-in"`
}

func sessionPath() string {
	return filepath.Join(tmDir, sessionFile)
}

func writeSession(s *session) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(sessionPath(), data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func readSession() (*session, error) {
	data, err := os.ReadFile(sessionPath())
	if err != nil {
		return nil, err
	}
	var s session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt session file: %w", err)
	}
	return &s, nil
}

func clearSession() error {
	err := os.Remove(sessionPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// requireActor resolves the acting user into an Actor. The account is
// re-fetched so the permission checks always see the current role.
// Precedence: --as flag, then the logged-in session, then the
// configured default username (TM_USERNAME or config.yaml).
func requireActor() engine.Actor {
	if actorFlag != "" {
		return actorByUsername(actorFlag)
	}

	if s, err := readSession(); err == nil {
		user, err := store.GetUser(rootCtx, s.UserID)
		if err != nil {
			fatalError("session user no longer exists; run 'tm login'")
		}
		if user.Disabled {
			fatalError("account %s is disabled", user.Username)
		}
		return engine.Actor{UserID: user.ID, Role: user.Role}
	}

	if cfg != nil && cfg.Username != "" {
		return actorByUsername(cfg.Username)
	}
	fatalError("not logged in; run 'tm login' first")
	return engine.Actor{}
}

func actorByUsername(username string) engine.Actor {
	user, err := store.GetUserByUsername(rootCtx, username)
	if err != nil {
		fatalError("no such user: %s", username)
	}
	if user.Disabled {
		fatalError("account %s is disabled", user.Username)
	}
	return engine.Actor{UserID: user.ID, Role: user.Role}
}

// promptPassword reads a password without echo, falling back to TM_PASSWORD
// for scripted use.
func promptPassword(prompt string) string {
	if env := os.Getenv("TM_PASSWORD"); env != "" {
		return env
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatalError("failed to read password: %v", err)
	}
	return string(pw)
}

// resolveUser accepts a username or user ID and returns the account.
func resolveUser(ref string) *types.User {
	if user, err := store.GetUserByUsername(rootCtx, ref); err == nil {
		return user
	}
	user, err := store.GetUser(rootCtx, ref)
	if err != nil {
		fatalError("no such user: %s", ref)
	}
	return user
}

// resolveProject accepts a project name or ID and returns the project.
func resolveProject(ref string) *types.Project {
	if p, err := store.GetProject(rootCtx, ref); err == nil {
		return p
	}
	projects, err := store.ListProjects(rootCtx)
	if err != nil {
		fatalError("failed to list projects: %v", err)
	}
	for _, p := range projects {
		if p.Name == ref {
			return p
		}
	}
	fatalError("no such project: %s", ref)
	return nil
}

// resolveModule finds a module by name within a project.
func resolveModule(projectID, name string) *types.Module {
	ms, err := store.ListModules(rootCtx, projectID)
	if err != nil {
		fatalError("failed to list modules: %v", err)
	}
	for _, m := range ms {
		if m.Name == name || m.ID == name {
			return m
		}
	}
	fatalError("no such module: %s", name)
	return nil
}

// resolveVersion finds a version by name within a project.
func resolveVersion(projectID, name string) *types.Version {
	vs, err := store.ListVersions(rootCtx, projectID)
	if err != nil {
		fatalError("failed to list versions: %v", err)
	}
	for _, v := range vs {
		if v.Name == name || v.ID == name {
			return v
		}
	}
	fatalError("no such version: %s", name)
	return nil
}

// resolveLabel finds a label by name within a project.
func resolveLabel(projectID, name string) *types.Label {
	ls, err := store.ListLabels(rootCtx, projectID)
	if err != nil {
		fatalError("failed to list labels: %v", err)
	}
	for _, l := range ls {
		if l.Name == name || l.ID == name {
			return l
		}
	}
	fatalError("no such label: %s", name)
	return nil
}
