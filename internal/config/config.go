// Package config handles the .tm workspace directory and its config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the workspace directory created by tm init.
const DirName = ".tm"

// Config holds the settings read from .tm/config.yaml. Environment
// variables (TM_DB, TM_USERNAME, TM_ISSUE_PREFIX) override file values.
type Config struct {
	// DBPath is the sqlite database location. Relative paths are resolved
	// against the .tm directory.
	DBPath string `yaml:"db" mapstructure:"db"`

	// Username is the default account for login prompts.
	Username string `yaml:"username" mapstructure:"username"`

	// IssuePrefix is the short prefix for generated issue IDs.
	IssuePrefix string `yaml:"issue-prefix" mapstructure:"issue-prefix"`

	// RecentLimit bounds the dashboard activity feed.
	RecentLimit int `yaml:"recent-limit" mapstructure:"recent-limit"`
}

func defaults() *Config {
	return &Config{
		DBPath:      "issues.db",
		IssuePrefix: "tm",
		RecentLimit: 10,
	}
}

// Discover walks up from the working directory looking for a .tm
// directory, the same way git finds its repository root. Returns the
// absolute path of the .tm directory, or "" when none exists.
func Discover() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, DirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads config.yaml from the given .tm directory and applies
// environment overrides. A missing file yields the defaults.
func Load(tmDir string) (*Config, error) {
	cfg := defaults()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(filepath.Join(tmDir, "config.yaml"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !os.IsNotExist(err) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if env := os.Getenv("TM_DB"); env != "" {
		cfg.DBPath = env
	}
	if env := os.Getenv("TM_USERNAME"); env != "" {
		cfg.Username = env
	}
	if env := os.Getenv("TM_ISSUE_PREFIX"); env != "" {
		cfg.IssuePrefix = env
	}

	if cfg.DBPath != "" && !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(tmDir, cfg.DBPath)
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaults().RecentLimit
	}
	return cfg, nil
}

// Save writes config.yaml into the .tm directory, creating the directory
// if needed. DBPath is stored as given; Load re-resolves relative paths.
func Save(tmDir string, cfg *Config) error {
	if err := os.MkdirAll(tmDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", tmDir, err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	path := filepath.Join(tmDir, "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
