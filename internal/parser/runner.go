// Package parser runs an external RPG parser and decodes the AST it prints.
//
// The parser is configured as a command line such as
//
//	java -jar rpg-parser.jar --json {input}
//
// where {input} is replaced with the source path. The command line is split
// with shell quoting rules, so quoted arguments may contain spaces. Without
// the placeholder the path is appended as the last argument. The command
// must write an AST export document as JSON to standard output.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/caarlos0/go-shellwords"

	"github.com/leapstack-labs/rpgflow/internal/config"
	"github.com/leapstack-labs/rpgflow/pkg/rpg"
)

// ErrNoParser is returned when no parser command is configured.
var ErrNoParser = errors.New("no parser command configured")

// InputPlaceholder is replaced by the source file path.
const InputPlaceholder = "{input}"

// Runner invokes the parser command.
type Runner struct {
	Command string
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewRunner creates a runner from parser configuration.
func NewRunner(cfg config.ParserConfig, logger *slog.Logger) *Runner {
	config.ApplyParserDefaults(&cfg)
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{Command: cfg.Command, Timeout: cfg.Timeout, Logger: logger}
}

// Enabled reports whether a command is configured.
func (r *Runner) Enabled() bool {
	return r != nil && strings.TrimSpace(r.Command) != ""
}

// SplitCommand splits a command line into its arguments following shell
// quoting rules. Variables and backticks are not expanded.
func SplitCommand(command string) ([]string, error) {
	fields, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("invalid parser command %q: %w", command, err)
	}
	if len(fields) == 0 {
		return nil, ErrNoParser
	}
	return fields, nil
}

// Args returns the argument vector for parsing sourcePath. The path is
// substituted after splitting and always stays within its argument.
func (r *Runner) Args(sourcePath string) ([]string, error) {
	fields, err := SplitCommand(r.Command)
	if err != nil {
		return nil, err
	}
	substituted := false
	for i, f := range fields {
		if strings.Contains(f, InputPlaceholder) {
			fields[i] = strings.ReplaceAll(f, InputPlaceholder, sourcePath)
			substituted = true
		}
	}
	if !substituted {
		fields = append(fields, sourcePath)
	}
	return fields, nil
}

// Parse runs the parser on sourcePath and decodes its output.
func (r *Runner) Parse(ctx context.Context, sourcePath string) (*rpg.Document, error) {
	if !r.Enabled() {
		return nil, ErrNoParser
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args, err := r.Args(sourcePath)
	if err != nil {
		return nil, err
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("running parser", slog.String("source", sourcePath), slog.Any("args", args))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("parser timed out after %s on %s: %w", r.Timeout, sourcePath, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("parser failed on %s: %w", sourcePath, err)
		}
		return nil, fmt.Errorf("parser failed on %s: %w: %s", sourcePath, err, msg)
	}
	logger.Debug("parser finished",
		slog.String("source", sourcePath), slog.Duration("elapsed", time.Since(start)))

	doc, err := rpg.Load(&stdout, rpg.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding parser output for %s: %w", sourcePath, err)
	}
	return doc, nil
}
