package config

import "time"

// Default configuration values.
const (
	DefaultInputsDir      = "ast"
	DefaultOutDir         = "diagrams"
	DefaultStateFile      = ".rpgflow/state.db"
	DefaultJobs           = 4
	DefaultParserTimeout  = 2 * time.Minute
	DefaultRegistryURL    = "https://maven.pkg.github.com/Strumenta/rpg-parser"
	DefaultParserArtifact = "com.strumenta:rpg-parser:2.1.52"
)

// Environment variables holding registry credentials.
const (
	EnvRegistryUser  = "STARLASU_GITHUB_USER"
	EnvRegistryToken = "STARLASU_GITHUB_TOKEN"
)

// ApplyParserDefaults applies default values to a ParserConfig.
func ApplyParserDefaults(p *ParserConfig) {
	if p == nil {
		return
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultParserTimeout
	}
}

// ApplyRegistryDefaults applies default values to a RegistryConfig.
func ApplyRegistryDefaults(r *RegistryConfig) {
	if r == nil {
		return
	}
	if r.URL == "" {
		r.URL = DefaultRegistryURL
	}
	if r.Artifact == "" {
		r.Artifact = DefaultParserArtifact
	}
}
