// Package config provides configuration management for the sift CLI.
//
// Configuration is merged from four layers, lowest precedence first:
// built-in defaults, a YAML config file, SIFT_-prefixed environment
// variables, and command-line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds all CLI configuration options.
type Config struct {
	Database string `koanf:"database"`
	Manifest string `koanf:"manifest"`
	Format   string `koanf:"format"`
	History  string `koanf:"history"`
	Verbose  bool   `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultDatabase = ":memory:"
	DefaultFormat   = "auto" // Auto-detect: TTY=table, non-TTY=markdown
	DefaultHistory  = "~/.sift_history"
)

// Formats lists the output formats a user can ask for explicitly.
func Formats() []string {
	return []string{"table", "json", "csv", "md"}
}

// HistoryPath returns the shell history file location with a leading
// "~" expanded to the user's home directory.
func (c *Config) HistoryPath() string {
	if c.History != "~" && !strings.HasPrefix(c.History, "~/") {
		return c.History
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return c.History
	}
	return filepath.Join(home, strings.TrimPrefix(c.History, "~"))
}
