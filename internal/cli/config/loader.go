package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	sharedcfg "github.com/leapstack-labs/rpgflow/internal/config"
	"github.com/leapstack-labs/rpgflow/pkg/puml"
)

// EnvPrefix is the prefix of environment variables read into the configuration.
const EnvPrefix = "RPGFLOW_"

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// sections are the nested config keys reachable from environment variables,
// e.g. RPGFLOW_PARSER_COMMAND -> parser.command.
var sections = []string{"diagram", "parser", "registry", "serve"}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// inferProjectRoot determines the project root.
// Priority:
//  1. Directory of an explicit --config file
//  2. Search upward from CWD for rpgflow.yaml
//  3. Current working directory
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := sharedcfg.FindProjectRoot(cwd, maxUpwardSearchLevels); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// envKey maps RPGFLOW_OUT_DIR to out_dir and RPGFLOW_PARSER_COMMAND to parser.command.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

// flagKey maps a CLI flag name to its config key.
func flagKey(name string) string {
	// --state is short for state_path
	if name == "state" {
		return "state_path"
	}
	return strings.ReplaceAll(name, "-", "_")
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")
	configFileUsed = ""

	projectRoot := inferProjectRoot(cfgFile)

	// Paths given as flags are relative to CWD, not to the project root.
	flagPaths := map[string]string{}
	if flags != nil {
		for _, name := range []string{"inputs-dir", "out-dir", "state"} {
			if f := flags.Lookup(name); f != nil && f.Changed && f.Value.String() != "" {
				abs, err := filepath.Abs(f.Value.String())
				if err != nil {
					return nil, fmt.Errorf("invalid --%s: %w", name, err)
				}
				flagPaths[flagKey(name)] = abs
			}
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"inputs_dir":         DefaultInputsDir,
		"out_dir":            DefaultOutDir,
		"state_path":         DefaultStateFile,
		"verbose":            false,
		"output":             DefaultOutput,
		"jobs":               DefaultJobs,
		"diagram.entry_call": true,
		"diagram.style":      string(puml.StyleStandard),
		"parser.timeout":     sharedcfg.DefaultParserTimeout,
		"registry.url":       sharedcfg.DefaultRegistryURL,
		"registry.artifact":  sharedcfg.DefaultParserArtifact,
		"serve.port":         DefaultPort,
		"serve.watch":        true,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		cfgFile = sharedcfg.FindConfigFile(projectRoot)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		configFileUsed = cfgFile
	}

	// 3. A .env file next to the config supplies variables not already set
	// in the process environment.
	dotenv := filepath.Join(projectRoot, ".env")
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return nil, fmt.Errorf("error reading %s: %w", dotenv, err)
		}
	}

	// 4. Load environment variables (RPGFLOW_ prefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 7. Resolve paths against the project root
	cfg.ProjectRoot = projectRoot
	cfg.InputsDir = pick(flagPaths["inputs_dir"], resolvePathRelativeTo(cfg.InputsDir, projectRoot))
	cfg.OutDir = pick(flagPaths["out_dir"], resolvePathRelativeTo(cfg.OutDir, projectRoot))
	cfg.StatePath = pick(flagPaths["state_path"], resolvePathRelativeTo(cfg.StatePath, projectRoot))

	// Registry credentials fall back to the variables the JVM build uses.
	cfg.Registry.User = expandEnvVars(cfg.Registry.User)
	cfg.Registry.Token = expandEnvVars(cfg.Registry.Token)
	if cfg.Registry.User == "" {
		cfg.Registry.User = os.Getenv(sharedcfg.EnvRegistryUser)
	}
	if cfg.Registry.Token == "" {
		cfg.Registry.Token = os.Getenv(sharedcfg.EnvRegistryToken)
	}

	sharedcfg.ApplyParserDefaults(&cfg.Parser)
	sharedcfg.ApplyRegistryDefaults(&cfg.Registry)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

func pick(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}
