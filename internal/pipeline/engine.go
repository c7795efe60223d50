// Package pipeline renders directories of RPG programs to PlantUML files,
// concurrently, skipping inputs that have not changed since their last render.
package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/rpgflow/internal/config"
	"github.com/leapstack-labs/rpgflow/internal/parser"
	"github.com/leapstack-labs/rpgflow/internal/state"
	"github.com/leapstack-labs/rpgflow/pkg/ast"
	"github.com/leapstack-labs/rpgflow/pkg/puml"
	"github.com/leapstack-labs/rpgflow/pkg/rpg"
	"github.com/leapstack-labs/rpgflow/pkg/transform"
)

// renderVersion is mixed into content hashes; bump it when diagram output changes.
const renderVersion = "2"

// Status is the outcome of rendering one input.
type Status string

// Render outcomes.
const (
	StatusRendered Status = "rendered"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// ErrDuplicateOutput is reported for an input whose diagram path is already
// taken by an earlier input of the same run.
var ErrDuplicateOutput = errors.New("duplicate output")

// Options configures an Engine.
type Options struct {
	// InputsDir is the root whose layout is mirrored under OutDir.
	InputsDir string
	OutDir    string
	Jobs      int
	Force     bool
	Diagram   config.DiagramConfig
}

// Result describes the rendering of one input.
type Result struct {
	Input      string        `json:"input"`
	Output     string        `json:"output,omitempty"`
	Program    string        `json:"program"`
	Status     Status        `json:"status"`
	Hash       string        `json:"hash,omitempty"`
	Entities   int           `json:"entities"`
	Statements int           `json:"statements"`
	Issues     []ast.Issue   `json:"issues,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	Err        error         `json:"-"`
}

// ErrorMessage returns the failure message, or "" when the input did not fail.
func (r *Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Summary is the outcome of RenderAll.
type Summary struct {
	RunID    string    `json:"run_id,omitempty"`
	Results  []*Result `json:"results"`
	Rendered int       `json:"rendered"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
}

// Err joins the errors of all failed inputs.
func (s *Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Input, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Engine loads, transforms and renders inputs.
type Engine struct {
	opts   Options
	parser *parser.Runner
	store  state.Store
	logger *slog.Logger
}

// New creates an engine. runner and store may be nil: without a runner RPG
// sources cannot be rendered, without a store nothing is skipped or recorded.
func New(opts Options, runner *parser.Runner, store state.Store, logger *slog.Logger) *Engine {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{opts: opts, parser: runner, store: store, logger: logger}
}

// ParserEnabled reports whether RPG sources can be rendered.
func (e *Engine) ParserEnabled() bool {
	return e.parser.Enabled()
}

// Load reads an input into a document, running the parser for RPG sources.
func (e *Engine) Load(ctx context.Context, input string) (*rpg.Document, error) {
	content, err := os.ReadFile(input) //nolint:gosec // G304: input comes from discovery or the command line
	if err != nil {
		return nil, err
	}
	return e.load(ctx, input, content)
}

func (e *Engine) load(ctx context.Context, input string, content []byte) (*rpg.Document, error) {
	if IsASTExport(input) {
		format, err := rpg.FormatFromPath(input)
		if err != nil {
			return nil, err
		}
		return rpg.Load(bytes.NewReader(content), format)
	}
	if !e.parser.Enabled() {
		return nil, fmt.Errorf("%s is not an AST export: %w", filepath.Base(input), parser.ErrNoParser)
	}
	return e.parser.Parse(ctx, input)
}

// Diagram loads and transforms an input and returns the PlantUML text
// without writing it.
func (e *Engine) Diagram(ctx context.Context, input string) (string, *Result, error) {
	content, err := os.ReadFile(input) //nolint:gosec // G304: input comes from discovery or the command line
	if err != nil {
		return "", nil, err
	}
	return e.diagram(ctx, input, content)
}

func (e *Engine) diagram(ctx context.Context, input string, content []byte) (string, *Result, error) {
	res := &Result{Input: input, Program: ProgramName(input)}

	doc, err := e.load(ctx, input, content)
	if err != nil {
		return "", res, err
	}
	res.Issues = doc.Issues
	if ast.HasErrors(doc.Issues) {
		e.logger.Warn("AST export reports errors", slog.String("input", input), slog.Int("issues", len(doc.Issues)))
	}

	style, err := puml.ParseStyle(e.opts.Diagram.Style)
	if err != nil {
		return "", res, err
	}
	d, err := transform.New(transform.Config{ProgramName: res.Program, Style: style, Logger: e.logger}).Transform(doc.Root)
	if err != nil {
		return "", res, err
	}
	res.Entities = len(d.Participants)
	res.Statements = puml.Count(d.Statements)

	text := puml.Render(d, puml.Options{
		Title:      e.opts.Diagram.Title,
		Autonumber: e.opts.Diagram.Autonumber,
		EntryCall:  e.opts.Diagram.EntryCall,
		Program:    res.Program,
		Style:      style,
	})
	return text, res, nil
}

// Hash fingerprints input content together with the options that shape the diagram.
func (e *Engine) Hash(content []byte) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	for _, part := range []string{
		renderVersion,
		e.opts.Diagram.Title,
		strconv.FormatBool(e.opts.Diagram.Autonumber),
		strconv.FormatBool(e.opts.Diagram.EntryCall),
		e.opts.Diagram.Style,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// OutputPath returns where the diagram of input is written.
func (e *Engine) OutputPath(input string) string {
	return filepath.Join(e.opts.OutDir, OutputPath(e.opts.InputsDir, input))
}

// Render renders one input to OutputPath(input). Failures are reported in
// the result rather than returned.
func (e *Engine) Render(ctx context.Context, input string) *Result {
	return e.render(ctx, "", input)
}

func (e *Engine) render(ctx context.Context, runID, input string) *Result {
	start := time.Now()
	fail := func(res *Result, err error) *Result {
		if res == nil {
			res = &Result{Input: input, Program: ProgramName(input)}
		}
		res.Status = StatusFailed
		res.Err = err
		res.Duration = time.Since(start)
		e.logger.Error("render failed", slog.String("input", input), slog.String("error", err.Error()))
		return res
	}

	content, err := os.ReadFile(input) //nolint:gosec // G304: input comes from discovery or the command line
	if err != nil {
		return fail(nil, err)
	}
	hash := e.Hash(content)
	output := e.OutputPath(input)

	if prev := e.unchanged(ctx, input, hash, output); prev != nil {
		e.logger.Debug("skipping unchanged input", slog.String("input", input))
		return &Result{
			Input:      input,
			Output:     output,
			Program:    ProgramName(input),
			Status:     StatusSkipped,
			Hash:       hash,
			Entities:   prev.Entities,
			Statements: prev.Statements,
			Duration:   time.Since(start),
		}
	}

	text, res, err := e.diagram(ctx, input, content)
	if err != nil {
		return fail(res, err)
	}
	res.Hash = hash
	res.Output = output

	if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
		return fail(res, fmt.Errorf("failed to create output directory: %w", err))
	}
	if err := os.WriteFile(output, []byte(text), 0o644); err != nil { //nolint:gosec // diagrams are meant to be shared
		return fail(res, err)
	}

	if e.store != nil {
		err := e.store.RecordRender(ctx, &state.Render{
			InputPath:   input,
			ContentHash: hash,
			OutputPath:  output,
			Entities:    res.Entities,
			Statements:  res.Statements,
			RunID:       runID,
		})
		if err != nil {
			return fail(res, err)
		}
	}

	res.Status = StatusRendered
	res.Duration = time.Since(start)
	e.logger.Debug("rendered", slog.String("input", input), slog.String("output", output),
		slog.Int("entities", res.Entities), slog.Int("statements", res.Statements))
	return res
}

// unchanged returns the previous render when it matches hash and its output still exists.
func (e *Engine) unchanged(ctx context.Context, input, hash, output string) *state.Render {
	if e.opts.Force || e.store == nil {
		return nil
	}
	prev, err := e.store.GetRender(ctx, input)
	if err != nil || prev.ContentHash != hash {
		return nil
	}
	if _, err := os.Stat(output); err != nil {
		return nil
	}
	return prev
}

// RenderAll renders inputs with at most Jobs workers. One failing input does
// not stop the others; results keep the order of inputs. Inputs whose output
// path is already claimed by an earlier input fail with ErrDuplicateOutput.
// The returned error is non-nil only when the run itself could not be tracked
// or ctx was cancelled.
func (e *Engine) RenderAll(ctx context.Context, inputs []string) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	summary := &Summary{Results: make([]*Result, len(inputs))}

	if e.store != nil {
		run, err := e.store.CreateRun(ctx)
		if err != nil {
			return nil, err
		}
		summary.RunID = run.ID
	}
	e.logger.Info("starting run", slog.String("run_id", summary.RunID),
		slog.Int("inputs", len(inputs)), slog.Int("jobs", e.opts.Jobs))

	duplicates := e.duplicates(inputs)

	var g errgroup.Group
	g.SetLimit(e.opts.Jobs)
	for i, input := range inputs {
		if err, ok := duplicates[i]; ok {
			e.logger.Error("render failed", slog.String("input", input), slog.String("error", err.Error()))
			summary.Results[i] = &Result{Input: input, Program: ProgramName(input), Status: StatusFailed, Err: err}
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				summary.Results[i] = &Result{Input: input, Program: ProgramName(input), Status: StatusFailed, Err: err}
				return nil
			}
			summary.Results[i] = e.render(ctx, summary.RunID, input)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range summary.Results {
		switch r.Status {
		case StatusRendered:
			summary.Rendered++
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	if e.store != nil {
		status, msg := state.RunStatusCompleted, ""
		switch {
		case ctx.Err() != nil:
			status, msg = state.RunStatusCancelled, ctx.Err().Error()
		case summary.Failed > 0:
			status, msg = state.RunStatusFailed, fmt.Sprintf("%d input(s) failed", summary.Failed)
		}
		counts := state.RunCounts{
			Inputs:   len(inputs),
			Rendered: summary.Rendered,
			Skipped:  summary.Skipped,
			Failed:   summary.Failed,
		}
		// The run row is finalized even when ctx was cancelled.
		if err := e.store.CompleteRun(context.WithoutCancel(ctx), summary.RunID, status, counts, msg); err != nil {
			return summary, err
		}
	}

	e.logger.Info("run finished", slog.String("run_id", summary.RunID),
		slog.Int("rendered", summary.Rendered), slog.Int("skipped", summary.Skipped), slog.Int("failed", summary.Failed))
	return summary, ctx.Err()
}

// duplicates maps the index of every input whose output path was claimed by
// an earlier input to the error reported for it.
func (e *Engine) duplicates(inputs []string) map[int]error {
	claimed := make(map[string]string, len(inputs))
	dups := make(map[int]error)
	for i, input := range inputs {
		output := e.OutputPath(input)
		if first, ok := claimed[output]; ok {
			dups[i] = fmt.Errorf("%w: %s and %s both render to %s", ErrDuplicateOutput, first, input, output)
			continue
		}
		claimed[output] = input
	}
	return dups
}
