package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rpgflow/internal/cli/output"
	"github.com/leapstack-labs/rpgflow/internal/pipeline"
	"github.com/leapstack-labs/rpgflow/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit   int
	Renders bool
}

// HistoryOutput is the JSON output for the history command.
type HistoryOutput struct {
	Runs    []*state.Run    `json:"runs"`
	Renders []*state.Render `json:"renders,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent batch runs",
		Long: `Show the batch runs recorded in the state database, newest first.

With --renders, also list the last successful render of every input.`,
		Example: `  rpgflow history
  rpgflow history --limit 5 --renders`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&opts.Renders, "renders", false, "Also list recorded renders")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cc, cleanup, err := NewCommandContext(cmd, pipeline.Options{})
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	runs, err := cc.Store.ListRuns(ctx, opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	out := HistoryOutput{Runs: runs}
	if opts.Renders {
		if out.Renders, err = cc.Store.ListRenders(ctx); err != nil {
			return fmt.Errorf("failed to list renders: %w", err)
		}
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Run History"))
	default:
		r.Header(1, "Run History")
	}

	if len(runs) == 0 {
		r.Muted("No runs recorded yet.")
		return nil
	}
	r.Table([]string{"Run", "Started", "Status", "Inputs", "Rendered", "Skipped", "Failed", "Duration"}, runRows(runs))

	if opts.Renders && len(out.Renders) > 0 {
		r.Println("")
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Println(output.FormatHeader(2, "Renders"))
		} else {
			r.Header(2, "Renders")
		}
		r.Table([]string{"Input", "Output", "Entities", "Statements", "Rendered"}, renderRows(out.Renders))
	}
	return nil
}

func runRows(runs []*state.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			string(run.Status),
			fmt.Sprintf("%d", run.Inputs),
			fmt.Sprintf("%d", run.Rendered),
			fmt.Sprintf("%d", run.Skipped),
			fmt.Sprintf("%d", run.Failed),
			duration,
		})
	}
	return rows
}

func renderRows(renders []*state.Render) [][]string {
	rows := make([][]string, 0, len(renders))
	for _, rd := range renders {
		rows = append(rows, []string{
			rd.InputPath,
			rd.OutputPath,
			fmt.Sprintf("%d", rd.Entities),
			fmt.Sprintf("%d", rd.Statements),
			rd.RenderedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
