// Package config provides configuration management for the rpgflow CLI.
//
// This package extends the shared configuration types from internal/config
// with CLI-specific fields and functionality. The shared types are re-exported
// here via type aliases for convenience.
package config

import (
	sharedcfg "github.com/leapstack-labs/rpgflow/internal/config"
)

// DiagramConfig is an alias for the shared diagram configuration.
type DiagramConfig = sharedcfg.DiagramConfig

// ParserConfig is an alias for the shared parser configuration.
type ParserConfig = sharedcfg.ParserConfig

// RegistryConfig is an alias for the shared registry configuration.
type RegistryConfig = sharedcfg.RegistryConfig

// ServeConfig holds configuration for the preview server.
type ServeConfig struct {
	Port  int  `koanf:"port"`
	Watch bool `koanf:"watch"`
}

// Config holds all CLI configuration options.
type Config struct {
	ProjectRoot  string         `koanf:"-"`
	InputsDir    string         `koanf:"inputs_dir"`
	OutDir       string         `koanf:"out_dir"`
	StatePath    string         `koanf:"state_path"`
	Verbose      bool           `koanf:"verbose"`
	OutputFormat string         `koanf:"output"`
	Jobs         int            `koanf:"jobs"`
	Diagram      DiagramConfig  `koanf:"diagram"`
	Parser       ParserConfig   `koanf:"parser"`
	Registry     RegistryConfig `koanf:"registry"`
	Serve        ServeConfig    `koanf:"serve"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultInputsDir = sharedcfg.DefaultInputsDir
	DefaultOutDir    = sharedcfg.DefaultOutDir
	DefaultStateFile = sharedcfg.DefaultStateFile
	DefaultJobs      = sharedcfg.DefaultJobs
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultPort      = 8766
)
