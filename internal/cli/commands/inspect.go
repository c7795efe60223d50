package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rpgflow/internal/cli/output"
	"github.com/leapstack-labs/rpgflow/internal/pipeline"
	"github.com/leapstack-labs/rpgflow/pkg/ast"
	"github.com/leapstack-labs/rpgflow/pkg/rpg"
)

// InspectOutput is the JSON output for the inspect command.
type InspectOutput struct {
	Input           string           `json:"input"`
	Program         string           `json:"program"`
	Statements      map[string]int   `json:"statements"`
	Expressions     map[string]int   `json:"expressions"`
	Unsupported     []string         `json:"unsupported,omitempty"`
	Subroutines     []SubroutineInfo `json:"subroutines"`
	DataDefinitions int              `json:"data_definitions"`
	FileDefinitions int              `json:"file_definitions"`
	Issues          []ast.Issue      `json:"issues,omitempty"`
}

// SubroutineInfo summarizes one subroutine.
type SubroutineInfo struct {
	Name           string `json:"name"`
	Statements     int    `json:"statements"`
	Initialization bool   `json:"initialization"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <input>",
		Short: "Show what a program's AST contains",
		Long: `Show statistics about a program's AST: statement and expression kinds,
subroutines, definitions and the issues reported by the parser.

Node kinds without a diagram counterpart are listed as unsupported.`,
		Example: `  rpgflow inspect ast/CUSTUPD.rpgle.json
  rpgflow inspect ast/CUSTUPD.rpgle.json -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}
}

func runInspect(cmd *cobra.Command, input string) error {
	cc := NewCommandContextWithoutStore(cmd, pipeline.Options{})
	doc, err := cc.Engine.Load(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", input, err)
	}

	out := inspect(doc)
	out.Input = input
	out.Program = pipeline.ProgramName(input)

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		renderInspectMarkdown(r, out)
	default:
		renderInspectText(r, out)
	}
	return nil
}

func inspect(doc *rpg.Document) *InspectOutput {
	out := &InspectOutput{
		Statements:      make(map[string]int),
		Expressions:     make(map[string]int),
		DataDefinitions: len(doc.Root.DataDefinitions),
		FileDefinitions: len(doc.Root.FileDefinitions),
		Issues:          doc.Issues,
	}

	unsupported := make(map[string]bool)
	ast.Walk(doc.Root, func(n ast.Node) bool {
		switch v := n.(type) {
		case *rpg.UnsupportedStatement:
			unsupported[v.Type] = true
			out.Statements[v.NodeType()]++
		case *rpg.UnsupportedExpression:
			unsupported[v.Type] = true
			out.Expressions[v.NodeType()]++
		case rpg.Statement:
			out.Statements[v.NodeType()]++
		case rpg.Expression:
			out.Expressions[v.NodeType()]++
		}
		return true
	})
	for t := range unsupported {
		out.Unsupported = append(out.Unsupported, t)
	}
	sort.Strings(out.Unsupported)

	for _, sub := range doc.Root.Subroutines {
		out.Subroutines = append(out.Subroutines, SubroutineInfo{
			Name:           sub.Name,
			Statements:     len(sub.Statements),
			Initialization: sub.IsInitialization(),
		})
	}
	return out
}

func countRows(counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, fmt.Sprintf("%d", counts[k])})
	}
	return rows
}

func subroutineRows(subs []SubroutineInfo) [][]string {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		marker := ""
		if s.Initialization {
			marker = "yes"
		}
		rows = append(rows, []string{s.Name, fmt.Sprintf("%d", s.Statements), marker})
	}
	return rows
}

func renderInspectText(r *output.Renderer, out *InspectOutput) {
	styles := r.Styles()
	r.Println(styles.Header1.Render(out.Program))
	r.Println(styles.Muted.Render(out.Input))
	r.Printf("   Data definitions: %d | File definitions: %d | Subroutines: %d\n",
		out.DataDefinitions, out.FileDefinitions, len(out.Subroutines))
	r.Println("")

	r.Header(2, "Statements")
	r.Table([]string{"Type", "Count"}, countRows(out.Statements))
	r.Header(2, "Expressions")
	r.Table([]string{"Type", "Count"}, countRows(out.Expressions))
	if len(out.Subroutines) > 0 {
		r.Header(2, "Subroutines")
		r.Table([]string{"Name", "Statements", "Init"}, subroutineRows(out.Subroutines))
	}
	if len(out.Unsupported) > 0 {
		r.Println(styles.Warning.Render("Not drawn: " + strings.Join(out.Unsupported, ", ")))
	}
	for _, issue := range out.Issues {
		style := styles.Info
		switch issue.Severity {
		case ast.SeverityError:
			style = styles.Error
		case ast.SeverityWarning:
			style = styles.Warning
		}
		r.Printf("%s %s %s\n", style.Render(issue.Severity.String()),
			styles.Muted.Render(issue.Range.String()), issue.Message)
	}
}

func renderInspectMarkdown(r *output.Renderer, out *InspectOutput) {
	r.Println(output.FormatHeader(1, out.Program))
	r.Println(output.FormatKeyValue("Input", out.Input))
	r.Println(output.FormatKeyValue("Data definitions", fmt.Sprintf("%d", out.DataDefinitions)))
	r.Println(output.FormatKeyValue("File definitions", fmt.Sprintf("%d", out.FileDefinitions)))
	r.Println(output.FormatKeyValue("Subroutines", fmt.Sprintf("%d", len(out.Subroutines))))
	r.Println("")

	r.Println(output.FormatHeader(2, "Statements"))
	r.Table([]string{"Type", "Count"}, countRows(out.Statements))
	r.Println("")
	r.Println(output.FormatHeader(2, "Expressions"))
	r.Table([]string{"Type", "Count"}, countRows(out.Expressions))
	r.Println("")
	if len(out.Subroutines) > 0 {
		r.Println(output.FormatHeader(2, "Subroutines"))
		r.Table([]string{"Name", "Statements", "Init"}, subroutineRows(out.Subroutines))
		r.Println("")
	}
	if len(out.Unsupported) > 0 {
		r.Println(output.FormatKeyValue("Not drawn", strings.Join(out.Unsupported, ", ")))
	}
	if len(out.Issues) > 0 {
		r.Println(output.FormatHeader(2, "Issues"))
		for _, issue := range out.Issues {
			r.Printf("- **%s** %s: %s\n", issue.Severity, issue.Range, issue.Message)
		}
	}
}
