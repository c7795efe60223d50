package commands

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rpgflow/internal/cli/config"
	"github.com/leapstack-labs/rpgflow/internal/cli/output"
	intconfig "github.com/leapstack-labs/rpgflow/internal/config"
	"github.com/leapstack-labs/rpgflow/internal/parser"
	"github.com/leapstack-labs/rpgflow/internal/pipeline"
	"github.com/leapstack-labs/rpgflow/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *pipeline.Engine
	Store    *state.SQLiteStore
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an engine backed by the
// state store. The cleanup function closes the store and must be called
// (typically via defer).
func NewCommandContext(cmd *cobra.Command, opts pipeline.Options) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutStore(cmd, opts)

	store, err := openStore(cc.Cfg.StatePath, cc.Logger)
	if err != nil {
		return nil, nil, err
	}
	cc.Store = store
	cc.Engine = pipeline.New(cc.engineOptions(opts), cc.parser(), store, cc.Logger)

	return cc, func() { _ = store.Close() }, nil
}

// NewCommandContextWithoutStore creates a CommandContext whose engine
// neither skips nor records renders.
func NewCommandContextWithoutStore(cmd *cobra.Command, opts pipeline.Options) *CommandContext {
	return newCommandContext(cmd, getConfig(), opts)
}

// newCommandContext creates a store-less CommandContext from cfg, which may
// carry per-command overrides.
func newCommandContext(cmd *cobra.Command, cfg *config.Config, opts pipeline.Options) *CommandContext {
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	cc := &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
	cc.Engine = pipeline.New(cc.engineOptions(opts), cc.parser(), nil, logger)
	return cc
}

// engineOptions fills unset options from configuration. Diagram options
// always come from the configuration; commands override them there.
func (cc *CommandContext) engineOptions(opts pipeline.Options) pipeline.Options {
	if opts.InputsDir == "" {
		opts.InputsDir = cc.Cfg.InputsDir
	}
	if opts.OutDir == "" {
		opts.OutDir = cc.Cfg.OutDir
	}
	if opts.Jobs < 1 {
		opts.Jobs = cc.Cfg.Jobs
	}
	opts.Diagram = cc.Cfg.Diagram
	return opts
}

func (cc *CommandContext) parser() *parser.Runner {
	return parser.NewRunner(cc.Cfg.Parser, cc.Logger)
}

// openStore opens and migrates the state database.
func openStore(path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	jobs, err := strconv.Atoi(os.Getenv("RPGFLOW_JOBS"))
	if err != nil || jobs < 1 {
		jobs = config.DefaultJobs
	}

	cfg := &config.Config{
		InputsDir:    getEnvOrDefault("RPGFLOW_INPUTS_DIR", config.DefaultInputsDir),
		OutDir:       getEnvOrDefault("RPGFLOW_OUT_DIR", config.DefaultOutDir),
		StatePath:    getEnvOrDefault("RPGFLOW_STATE_PATH", config.DefaultStateFile),
		Verbose:      os.Getenv("RPGFLOW_VERBOSE") == "true",
		OutputFormat: os.Getenv("RPGFLOW_OUTPUT"),
		Jobs:         jobs,
		Diagram:      config.DiagramConfig{EntryCall: true, Style: os.Getenv("RPGFLOW_DIAGRAM_STYLE")},
		Parser:       config.ParserConfig{Command: os.Getenv("RPGFLOW_PARSER_COMMAND")},
		Serve:        config.ServeConfig{Port: config.DefaultPort, Watch: true},
	}
	intconfig.ApplyParserDefaults(&cfg.Parser)
	intconfig.ApplyRegistryDefaults(&cfg.Registry)
	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
