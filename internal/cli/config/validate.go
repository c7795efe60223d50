package config

import (
	"fmt"
	"os"

	sharedcfg "github.com/leapstack-labs/rpgflow/internal/config"
	"github.com/leapstack-labs/rpgflow/pkg/puml"
)

var validOutputs = map[string]bool{"": true, "auto": true, "text": true, "tty": true, "markdown": true, "md": true, "json": true}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.OutDir == "" {
		return fmt.Errorf("out_dir is required")
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if !validOutputs[c.OutputFormat] {
		return fmt.Errorf("unknown output format %q (expected auto, text, markdown or json)", c.OutputFormat)
	}
	if _, err := puml.ParseStyle(c.Diagram.Style); err != nil {
		return fmt.Errorf("diagram.style: %w", err)
	}
	if _, err := sharedcfg.ParseArtifact(c.Registry.Artifact); err != nil {
		return fmt.Errorf("registry.artifact: %w", err)
	}
	return nil
}

// ValidateInputsDir checks that the inputs directory exists.
func (c *Config) ValidateInputsDir() error {
	info, err := os.Stat(c.InputsDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("inputs directory does not exist: %s\nHint: Create the directory or use --inputs-dir to specify a different path", c.InputsDir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("inputs path is not a directory: %s", c.InputsDir)
	}
	return nil
}
