package commands

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rpgflow/internal/cli/config"
	"github.com/leapstack-labs/rpgflow/internal/cli/output"
	intconfig "github.com/leapstack-labs/rpgflow/internal/config"
	"github.com/leapstack-labs/rpgflow/internal/parser"
	"github.com/leapstack-labs/rpgflow/internal/pipeline"
	"github.com/leapstack-labs/rpgflow/pkg/ast"
)

// Check statuses.
const (
	checkPass  = "pass"
	checkWarn  = "warn"
	checkError = "error"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the project is ready to render",
		Long: `Check the rpgflow setup and the inputs it will render.

The doctor command verifies:
- Project (config file, inputs directory, AST exports that load)
- Parser (configured command, executable on PATH)
- Registry (credentials, artifact coordinate)
- State (database opens, migration version)

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run the checks
  rpgflow doctor

  # Output as JSON
  rpgflow doctor --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         ProjectSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// ProjectSummary contains project-level statistics.
type ProjectSummary struct {
	ConfigFile  string `json:"config_file,omitempty"`
	InputsDir   string `json:"inputs_dir"`
	ASTExports  int    `json:"ast_exports"`
	Sources     int    `json:"sources"`
	ParserIssue int    `json:"parser_issues"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "error"
	Details []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cc := NewCommandContextWithoutStore(cmd, pipeline.Options{})
	r := cc.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	out := diagnose(cmd.Context(), cc)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		renderDoctorMarkdown(r, out)
	default:
		renderDoctorText(r, out)
	}
	return nil
}

func diagnose(ctx context.Context, cc *CommandContext) *DoctorOutput {
	cfg := cc.Cfg
	summary := ProjectSummary{
		ConfigFile: config.GetConfigFileUsed(),
		InputsDir:  cfg.InputsDir,
	}

	var checks []HealthCheck
	add := func(id, name, group, status string, details ...string) {
		checks = append(checks, HealthCheck{ID: id, Name: name, Group: group, Status: status, Details: details})
	}

	// Project
	if summary.ConfigFile != "" {
		add("P01", "Config file", "project", checkPass, summary.ConfigFile)
	} else {
		add("P01", "Config file", "project", checkWarn, "no "+intconfig.ConfigFileName+" found, using defaults")
	}

	var inputs []string
	if err := cfg.ValidateInputsDir(); err != nil {
		add("P02", "Inputs directory", "project", checkError, firstLine(err.Error()))
	} else {
		var derr error
		inputs, derr = pipeline.Discover(cfg.InputsDir, true)
		if derr != nil {
			add("P02", "Inputs directory", "project", checkError, derr.Error())
		} else {
			add("P02", "Inputs directory", "project", checkPass, cfg.InputsDir)
		}
	}

	var broken, withErrors []string
	for _, in := range inputs {
		if pipeline.IsSource(in) {
			summary.Sources++
			continue
		}
		summary.ASTExports++
		doc, err := cc.Engine.Load(ctx, in)
		if err != nil {
			broken = append(broken, fmt.Sprintf("%s: %v", in, err))
			continue
		}
		summary.ParserIssue += len(doc.Issues)
		if ast.HasErrors(doc.Issues) {
			withErrors = append(withErrors, in)
		}
	}
	switch {
	case len(broken) > 0:
		add("P03", "AST exports load", "project", checkError, broken...)
	case summary.ASTExports == 0 && summary.Sources == 0:
		add("P03", "AST exports load", "project", checkWarn, "no inputs found")
	default:
		add("P03", "AST exports load", "project", checkPass)
	}
	if len(withErrors) > 0 {
		add("P04", "Parser errors in exports", "project", checkWarn, withErrors...)
	} else {
		add("P04", "Parser errors in exports", "project", checkPass)
	}

	// Parser
	switch {
	case !cfg.Parser.Enabled() && summary.Sources > 0:
		add("R01", "Parser command", "parser", checkWarn,
			fmt.Sprintf("%d RPG sources will be skipped without parser.command", summary.Sources))
	case !cfg.Parser.Enabled():
		add("R01", "Parser command", "parser", checkPass, "not configured, AST exports only")
	default:
		fields, err := parser.SplitCommand(cfg.Parser.Command)
		if err != nil {
			add("R01", "Parser command", "parser", checkError, err.Error())
			break
		}
		bin := fields[0]
		if path, err := exec.LookPath(bin); err != nil {
			add("R01", "Parser command", "parser", checkError, fmt.Sprintf("%s not found on PATH", bin))
		} else {
			add("R01", "Parser command", "parser", checkPass, path)
		}
	}

	// Registry
	if cfg.Registry.User == "" || cfg.Registry.Token == "" {
		add("G01", "Registry credentials", "registry", checkWarn,
			fmt.Sprintf("set %s and %s to use fetch-parser", intconfig.EnvRegistryUser, intconfig.EnvRegistryToken))
	} else {
		add("G01", "Registry credentials", "registry", checkPass, cfg.Registry.User)
	}
	if _, err := intconfig.ParseArtifact(cfg.Registry.Artifact); err != nil {
		add("G02", "Parser artifact", "registry", checkError, err.Error())
	} else {
		add("G02", "Parser artifact", "registry", checkPass, cfg.Registry.Artifact)
	}

	// State
	if store, err := openStore(cfg.StatePath, cc.Logger); err != nil {
		add("S01", "State database", "state", checkError, err.Error())
	} else {
		version, verr := store.MigrationVersion()
		_ = store.Close()
		if verr != nil {
			add("S01", "State database", "state", checkError, verr.Error())
		} else {
			add("S01", "State database", "state", checkPass,
				fmt.Sprintf("%s (migration %d)", cfg.StatePath, version))
		}
	}

	issues := 0
	for _, c := range checks {
		if c.Status != checkPass {
			issues++
		}
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}
}

// calculateHealthScore computes a score from 0-100.
// Warnings cost 10 points and errors 25.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case checkError:
			score -= 25
		case checkWarn:
			score -= 10
		}
	}
	return max(score, 0)
}

func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	for _, check := range checks {
		if check.Status == checkPass {
			continue
		}
		if rec := getRecommendation(check.ID); rec != "" {
			recommendations = append(recommendations, rec)
		}
	}
	return recommendations
}

func getRecommendation(id string) string {
	switch id {
	case "P01":
		return "Create " + intconfig.ConfigFileName + " in the project root"
	case "P02":
		return "Create the inputs directory or pass --inputs-dir"
	case "P03":
		return "Re-export the listed programs from the parser"
	case "P04":
		return "Fix the parser errors; diagrams of incomplete trees may miss calls"
	case "R01":
		return "Run rpgflow fetch-parser and set parser.command"
	case "G01":
		return "Provide registry credentials"
	case "G02":
		return "Use a group:name:version coordinate for registry.artifact"
	case "S01":
		return "Check that the state path is writable"
	default:
		return ""
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("rpgflow Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Project Summary"))
	r.Printf("   Inputs: %s\n", styles.Path.Render(out.Summary.InputsDir))
	r.Printf("   AST exports: %d | Sources: %d | Parser issues: %d\n",
		out.Summary.ASTExports, out.Summary.Sources, out.Summary.ParserIssue)
	r.Println("")

	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case checkWarn:
			icon = styles.Warning.Render("!")
		case checkError:
			icon = styles.StatusFailed.String()
		}
		r.Printf("   %s %s: %s\n", icon, check.ID, check.Name)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) {
	r.Println("# rpgflow Health Report")
	r.Println("")

	r.Println("## Project Summary")
	r.Println("")
	r.Println(output.FormatKeyValue("Inputs", out.Summary.InputsDir))
	r.Printf("- **AST exports**: %d\n", out.Summary.ASTExports)
	r.Printf("- **Sources**: %d\n", out.Summary.Sources)
	r.Printf("- **Parser issues**: %d\n", out.Summary.ParserIssue)
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}
		r.Printf("- **[%s]** %s: %s\n", strings.ToUpper(check.Status), check.ID, check.Name)
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}
}
