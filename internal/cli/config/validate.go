package config

import (
	"fmt"
	"os"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Format {
	case "", "auto", "table", "json", "csv", "md", "markdown":
	default:
		return fmt.Errorf("unknown output format %q (valid: %s)", c.Format, strings.Join(Formats(), ", "))
	}
	return nil
}

// ValidateManifest checks that the configured manifest file exists.
// Commands that apply the manifest call this; commands that never read
// it (version, completion) do not.
func (c *Config) ValidateManifest() error {
	if c.Manifest == "" {
		return nil
	}
	if _, err := os.Stat(c.Manifest); os.IsNotExist(err) {
		return fmt.Errorf("manifest file does not exist: %s\nHint: Create the file or use --manifest to specify a different path", c.Manifest)
	}
	return nil
}
