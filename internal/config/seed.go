package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/taskmaster/tm/internal/types"
)

// SeedFile describes the initial data tm init --seed loads into a fresh
// store: accounts, projects and their reference lookups. Passwords appear
// in plain text here and are hashed before storage, so seed files belong
// in bootstrap tooling, not version control.
type SeedFile struct {
	Users    []SeedUser    `yaml:"users"`
	Projects []SeedProject `yaml:"projects"`
}

// SeedUser is one account entry in a seed file.
type SeedUser struct {
	Username    string     `yaml:"username"`
	DisplayName string     `yaml:"display-name"`
	Password    string     `yaml:"password"`
	Role        types.Role `yaml:"role"`
}

// SeedProject is one project entry, with its members referenced by
// username and its reference lookups inline.
type SeedProject struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Members     []string    `yaml:"members"`
	Modules     []string    `yaml:"modules"`
	Versions    []string    `yaml:"versions"`
	Labels      []SeedLabel `yaml:"labels"`
}

// SeedLabel is one label entry under a seed project.
type SeedLabel struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// LoadSeedFile reads and validates a seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path given by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := seed.validate(); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	return &seed, nil
}

func (s *SeedFile) validate() error {
	seen := make(map[string]bool)
	for i, u := range s.Users {
		if u.Username == "" {
			return fmt.Errorf("user %d: username is required", i)
		}
		if seen[u.Username] {
			return fmt.Errorf("duplicate username %q", u.Username)
		}
		seen[u.Username] = true
		if u.Password == "" {
			return fmt.Errorf("user %q: password is required", u.Username)
		}
		if !u.Role.IsValid() {
			return fmt.Errorf("user %q: invalid role %q", u.Username, u.Role)
		}
	}
	for i, p := range s.Projects {
		if p.Name == "" {
			return fmt.Errorf("project %d: name is required", i)
		}
		for _, member := range p.Members {
			if !seen[member] {
				return fmt.Errorf("project %q: unknown member %q", p.Name, member)
			}
		}
	}
	return nil
}
