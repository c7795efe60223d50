package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rpgflow/internal/pipeline"
	"github.com/leapstack-labs/rpgflow/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port    int
	NoWatch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Preview diagrams in the browser",
		Long: `Start a local server that renders every input in memory and serves
the PlantUML text. Pages reload when an input changes.

Nothing is written to the output directory or the state database.`,
		Example: `  rpgflow serve
  rpgflow serve ast --port 9000 --no-watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().BoolVar(&opts.NoWatch, "no-watch", false, "Do not rebuild on file changes")

	return cmd
}

func runServe(cmd *cobra.Command, args []string, opts *ServeOptions) error {
	cc := NewCommandContextWithoutStore(cmd, pipeline.Options{})

	dir := cc.Cfg.InputsDir
	if len(args) > 0 {
		dir = args[0]
	}
	port := cc.Cfg.Serve.Port
	if opts.Port > 0 {
		port = opts.Port
	}

	srv := ui.NewServer(ui.Config{
		Engine:    cc.Engine,
		InputsDir: dir,
		Port:      port,
		Watch:     cc.Cfg.Serve.Watch && !opts.NoWatch,
		Logger:    cc.Logger,
	})

	cc.Renderer.Success(fmt.Sprintf("Serving %s on http://localhost:%d", dir, port))
	cc.Renderer.Muted("Press Ctrl+C to stop")
	return srv.Serve(cmd.Context())
}
