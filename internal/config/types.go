// Package config provides shared configuration types for rpgflow.
// This package is decoupled from CLI concerns so the pipeline, the preview
// server and the registry client can be configured without cobra.
package config

import (
	"fmt"
	"strings"
	"time"
)

// DiagramConfig controls how diagrams are rendered.
type DiagramConfig struct {
	Title      string `koanf:"title"`
	Autonumber bool   `koanf:"autonumber"`
	EntryCall  bool   `koanf:"entry_call"`
	// Style is the layout: "standard" or "classic".
	Style string `koanf:"style"`
}

// ParserConfig describes the external RPG parser invocation.
// Command is split with shell quoting rules; the token {input} is replaced by the source path.
// When {input} is absent the path is appended.
type ParserConfig struct {
	Command string        `koanf:"command"`
	Timeout time.Duration `koanf:"timeout"`
}

// Enabled reports whether a parser command is configured.
func (p ParserConfig) Enabled() bool {
	return strings.TrimSpace(p.Command) != ""
}

// RegistryConfig holds the package registry hosting the parser artifact.
type RegistryConfig struct {
	URL      string `koanf:"url"`
	User     string `koanf:"user"`
	Token    string `koanf:"token"`
	Artifact string `koanf:"artifact"` // group:name:version
}

// Artifact is a maven coordinate.
type Artifact struct {
	Group   string
	Name    string
	Version string
}

func (a Artifact) String() string {
	return a.Group + ":" + a.Name + ":" + a.Version
}

// ParseArtifact parses a group:name:version coordinate.
func ParseArtifact(s string) (Artifact, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Artifact{}, fmt.Errorf("invalid artifact coordinate %q: expected group:name:version", s)
	}
	return Artifact{Group: parts[0], Name: parts[1], Version: parts[2]}, nil
}
