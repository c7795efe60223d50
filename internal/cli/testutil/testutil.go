// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/leapstack-labs/rpgflow/internal/cli/output"
)

// SetupTestProject creates a temporary project with an rpgflow.yaml and
// the AST exports from pkg/rpg/testdata copied into its inputs directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	inputs := filepath.Join(tmpDir, "ast")
	if err := os.MkdirAll(inputs, 0o755); err != nil {
		t.Fatalf("failed to create directory %s: %v", inputs, err)
	}

	config := `inputs_dir: ast
out_dir: diagrams
state_path: .rpgflow/state.db
jobs: 2
`
	if err := os.WriteFile(filepath.Join(tmpDir, "rpgflow.yaml"), []byte(config), 0o644); err != nil {
		t.Fatalf("failed to create rpgflow.yaml: %v", err)
	}

	for _, name := range []string{"custupd.rpgle.json", "minimal.yaml"} {
		data, err := os.ReadFile(filepath.Join(RPGTestdataDir(t), name))
		if err != nil {
			t.Fatalf("failed to read %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(inputs, name), data, 0o644); err != nil {
			t.Fatalf("failed to copy %s: %v", name, err)
		}
	}

	return tmpDir
}

// RPGTestdataDir returns the absolute path of pkg/rpg/testdata.
func RPGTestdataDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate testutil source")
	}
	// internal/cli/testutil -> repo root
	root := filepath.Join(filepath.Dir(file), "..", "..", "..")
	return filepath.Join(root, "pkg", "rpg", "testdata")
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown checks for unclosed code fences and empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
