// Package main provides tests for the rpgflow CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rpgflow/internal/cli"
	"github.com/leapstack-labs/rpgflow/internal/cli/config"
	"github.com/leapstack-labs/rpgflow/internal/cli/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func inProject(t *testing.T) string {
	t.Helper()
	dir := testutil.SetupTestProject(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestVersionCommand(t *testing.T) {
	inProject(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "rpgflow v")
}

func TestHelpCommand(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"transform", "batch", "inspect", "history", "serve", "fetch-parser", "doctor"} {
		assert.Contains(t, out, name)
	}
}

func TestTransformCommand(t *testing.T) {
	inProject(t)
	out, err := run(t, "transform", filepath.Join("ast", "minimal.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "@startuml"))
}

func TestBatchCommand_OutDirFlag(t *testing.T) {
	dir := inProject(t)
	_, err := run(t, "batch", "--out-dir", "elsewhere", "-o", "json")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "elsewhere", "minimal.puml"))
	assert.NoDirExists(t, filepath.Join(dir, "diagrams"))
}

func TestBatchCommand_EnvOverride(t *testing.T) {
	dir := inProject(t)
	t.Setenv("RPGFLOW_OUT_DIR", "from-env")
	_, err := run(t, "batch", "-o", "json")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "from-env", "minimal.puml"))
}

func TestCompletionCommand(t *testing.T) {
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "rpgflow")
}

func TestUnknownCommand(t *testing.T) {
	_, err := run(t, "nonexistent")
	assert.Error(t, err)
}
