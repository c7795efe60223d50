package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedcfg "github.com/leapstack-labs/rpgflow/internal/config"
)

// chdir switches into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("inputs-dir", "", "")
	fs.String("out-dir", "", "")
	fs.String("state", "", "")
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	return fs
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, sharedcfg.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv(sharedcfg.EnvRegistryUser, "")
	t.Setenv(sharedcfg.EnvRegistryToken, "")
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	wd, _ := os.Getwd()
	assert.Equal(t, filepath.Join(wd, DefaultInputsDir), cfg.InputsDir)
	assert.Equal(t, filepath.Join(wd, DefaultOutDir), cfg.OutDir)
	assert.Equal(t, filepath.Join(wd, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultJobs, cfg.Jobs)
	assert.True(t, cfg.Diagram.EntryCall)
	assert.Equal(t, "standard", cfg.Diagram.Style)
	assert.Equal(t, sharedcfg.DefaultParserTimeout, cfg.Parser.Timeout)
	assert.Equal(t, sharedcfg.DefaultRegistryURL, cfg.Registry.URL)
	assert.Equal(t, sharedcfg.DefaultParserArtifact, cfg.Registry.Artifact)
	assert.Equal(t, DefaultPort, cfg.Serve.Port)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_FileValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
inputs_dir: exports
out_dir: /abs/out
jobs: 8
diagram:
  title: Orders
  autonumber: true
  entry_call: false
  style: classic
parser:
  command: java -jar rpg-parser.jar --json {input}
  timeout: 30s
registry:
  user: ci-bot
  token: ${TEST_RPGFLOW_TOKEN}
`)
	t.Setenv("TEST_RPGFLOW_TOKEN", "secret")
	nested := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(nested, 0o755))
	chdir(t, nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	root, _ := filepath.EvalSymlinks(dir)
	gotRoot, _ := filepath.EvalSymlinks(cfg.ProjectRoot)
	assert.Equal(t, root, gotRoot, "project root found by upward search")
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, "exports"), cfg.InputsDir)
	assert.Equal(t, "/abs/out", cfg.OutDir)
	assert.Equal(t, 8, cfg.Jobs)
	assert.Equal(t, "Orders", cfg.Diagram.Title)
	assert.True(t, cfg.Diagram.Autonumber)
	assert.False(t, cfg.Diagram.EntryCall)
	assert.Equal(t, "classic", cfg.Diagram.Style)
	assert.Equal(t, "java -jar rpg-parser.jar --json {input}", cfg.Parser.Command)
	assert.Equal(t, 30*time.Second, cfg.Parser.Timeout)
	assert.Equal(t, "ci-bot", cfg.Registry.User)
	assert.Equal(t, "secret", cfg.Registry.Token)
	assert.NotEmpty(t, GetConfigFileUsed())
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "output: markdown\njobs: 2\nout_dir: from-file\n")
	chdir(t, dir)

	t.Setenv("RPGFLOW_OUTPUT", "json")
	t.Setenv("RPGFLOW_JOBS", "3")
	t.Setenv("RPGFLOW_PARSER_COMMAND", "rpg-parse")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--output", "text", "--out-dir", "flag-out"}))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	wd, _ := os.Getwd()
	assert.Equal(t, "text", cfg.OutputFormat, "flag beats env and file")
	assert.Equal(t, 3, cfg.Jobs, "env beats file")
	assert.Equal(t, "rpg-parse", cfg.Parser.Command, "nested env key")
	assert.Equal(t, filepath.Join(wd, "flag-out"), cfg.OutDir, "flag paths are relative to CWD")
}

func TestLoadConfig_RegistryCredentialsFromEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv(sharedcfg.EnvRegistryUser, "gh-user")
	t.Setenv(sharedcfg.EnvRegistryToken, "gh-token")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "gh-user", cfg.Registry.User)
	assert.Equal(t, "gh-token", cfg.Registry.Token)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RPGFLOW_DOTENV_TOKEN=from-dotenv\n"), 0o644))
	writeConfig(t, dir, "registry:\n  token: ${RPGFLOW_DOTENV_TOKEN}\n")
	chdir(t, dir)
	t.Cleanup(func() { _ = os.Unsetenv("RPGFLOW_DOTENV_TOKEN") })

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Registry.Token)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		substr  string
	}{
		{"zero jobs", "jobs: 0\n", "jobs must be at least 1"},
		{"bad output", "output: html\n", "unknown output format"},
		{"bad style", "diagram:\n  style: fancy\n", "diagram.style"},
		{"bad artifact", "registry:\n  artifact: rpg-parser\n", "registry.artifact"},
		{"bad yaml", "jobs: [\n", "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, tt.content)

			_, err := LoadConfig(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"RPGFLOW_OUT_DIR":            "out_dir",
		"RPGFLOW_PARSER_COMMAND":     "parser.command",
		"RPGFLOW_DIAGRAM_ENTRY_CALL": "diagram.entry_call",
		"RPGFLOW_REGISTRY_TOKEN":     "registry.token",
		"RPGFLOW_SERVE_PORT":         "serve.port",
		"RPGFLOW_STATE_PATH":         "state_path",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestValidateInputsDir(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{InputsDir: dir}
	assert.NoError(t, cfg.ValidateInputsDir())

	cfg.InputsDir = filepath.Join(dir, "missing")
	err := cfg.ValidateInputsDir()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--inputs-dir")

	file := filepath.Join(dir, "f.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))
	cfg.InputsDir = file
	assert.Error(t, cfg.ValidateInputsDir())
}

func TestGetLogger_Fallback(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))
}
