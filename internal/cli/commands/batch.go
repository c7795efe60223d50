package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rpgflow/internal/cli/output"
	"github.com/leapstack-labs/rpgflow/internal/pipeline"
)

// BatchOptions holds options for the batch command.
type BatchOptions struct {
	Force bool
	Jobs  int
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	opts := &BatchOptions{}
	cmd := &cobra.Command{
		Use:   "batch [dir]",
		Short: "Render every program in a directory",
		Long: `Render every AST export (and RPG source, when a parser is configured)
found under a directory, writing one .puml file per program to the output
directory.

Inputs whose content and diagram options are unchanged since their last
successful render are skipped. Each run is recorded in the state database.`,
		Example: `  # Render the configured inputs directory
  rpgflow batch

  # Re-render everything with 8 workers
  rpgflow batch exports/ --force --jobs 8`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runBatch(cmd, dir, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Render inputs even when unchanged")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "Number of concurrent renders (default from config)")

	return cmd
}

func runBatch(cmd *cobra.Command, dir string, opts *BatchOptions) error {
	inputsDir := getConfig().InputsDir
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		inputsDir = abs
	}

	cc, cleanup, err := NewCommandContext(cmd, pipeline.Options{InputsDir: inputsDir, Force: opts.Force, Jobs: opts.Jobs})
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := *cc.Cfg
	cfg.InputsDir = inputsDir
	if err := cfg.ValidateInputsDir(); err != nil {
		return err
	}

	inputs, err := pipeline.Discover(cfg.InputsDir, cc.Engine.ParserEnabled())
	if err != nil {
		return fmt.Errorf("failed to discover inputs: %w", err)
	}
	r := cc.Renderer
	if len(inputs) == 0 {
		r.Warning("No inputs found in " + cfg.InputsDir)
		return nil
	}

	start := time.Now()
	summary, err := cc.Engine.RenderAll(cmd.Context(), inputs)
	if err != nil && summary == nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if jerr := r.JSON(newBatchOutput(summary, time.Since(start))); jerr != nil {
			return jerr
		}
	case output.ModeMarkdown:
		renderBatchMarkdown(r, cfg.InputsDir, summary)
	default:
		renderBatchText(r, cfg.InputsDir, summary, time.Since(start))
	}

	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d input(s) failed", summary.Failed, len(inputs))
	}
	return nil
}

// BatchOutput is the JSON output for the batch command.
type BatchOutput struct {
	RunID      string        `json:"run_id,omitempty"`
	Rendered   int           `json:"rendered"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	DurationMS int64         `json:"duration_ms"`
	Results    []BatchResult `json:"results"`
}

// BatchResult is the JSON form of one input's outcome.
type BatchResult struct {
	Input      string `json:"input"`
	Output     string `json:"output,omitempty"`
	Status     string `json:"status"`
	Entities   int    `json:"entities"`
	Statements int    `json:"statements"`
	Error      string `json:"error,omitempty"`
}

func newBatchOutput(s *pipeline.Summary, elapsed time.Duration) BatchOutput {
	out := BatchOutput{
		RunID:      s.RunID,
		Rendered:   s.Rendered,
		Skipped:    s.Skipped,
		Failed:     s.Failed,
		DurationMS: elapsed.Milliseconds(),
		Results:    make([]BatchResult, 0, len(s.Results)),
	}
	for _, res := range s.Results {
		out.Results = append(out.Results, BatchResult{
			Input:      res.Input,
			Output:     res.Output,
			Status:     string(res.Status),
			Entities:   res.Entities,
			Statements: res.Statements,
			Error:      res.ErrorMessage(),
		})
	}
	return out
}

func relPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}

func renderBatchText(r *output.Renderer, base string, s *pipeline.Summary, elapsed time.Duration) {
	styles := r.Styles()
	for _, res := range s.Results {
		detail := ""
		switch res.Status {
		case pipeline.StatusFailed:
			detail = res.ErrorMessage()
		case pipeline.StatusRendered:
			detail = fmt.Sprintf("%d participants, %d statements", res.Entities, res.Statements)
		}
		r.StatusLine(relPath(base, res.Input), string(res.Status), detail)
	}
	r.Println("")
	r.Printf("%s %s, %s, %s %s\n",
		styles.Bold.Render("Done:"),
		styles.Success.Render(fmt.Sprintf("%d rendered", s.Rendered)),
		styles.Muted.Render(fmt.Sprintf("%d unchanged", s.Skipped)),
		styles.Error.Render(fmt.Sprintf("%d failed", s.Failed)),
		styles.Muted.Render("in "+elapsed.Round(time.Millisecond).String()),
	)
}

func renderBatchMarkdown(r *output.Renderer, base string, s *pipeline.Summary) {
	r.Println(output.FormatHeader(1, "Render Summary"))
	r.Println(output.FormatKeyValue("Rendered", fmt.Sprintf("%d", s.Rendered)))
	r.Println(output.FormatKeyValue("Unchanged", fmt.Sprintf("%d", s.Skipped)))
	r.Println(output.FormatKeyValue("Failed", fmt.Sprintf("%d", s.Failed)))
	if s.RunID != "" {
		r.Println(output.FormatKeyValue("Run", s.RunID))
	}
	r.Println("")

	rows := make([][]string, 0, len(s.Results))
	for _, res := range s.Results {
		rows = append(rows, []string{
			relPath(base, res.Input),
			string(res.Status),
			fmt.Sprintf("%d", res.Entities),
			fmt.Sprintf("%d", res.Statements),
			res.ErrorMessage(),
		})
	}
	r.Table([]string{"Input", "Status", "Participants", "Statements", "Error"}, rows)
}
