package rpg

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/rpgflow/pkg/ast"
)

// Errors returned by the loader.
var (
	// ErrInvalidRoot is returned when the document root is not a CompilationUnit.
	ErrInvalidRoot = errors.New("invalid input model")
	// ErrUnsupportedFormat is returned for files that are not AST exports.
	ErrUnsupportedFormat = errors.New("unsupported AST export format")
)

// Format is the encoding of an AST export document.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// Document is a loaded AST export.
type Document struct {
	Root   *CompilationUnit
	Issues []ast.Issue
}

// LoadFile reads and decodes an AST export from disk.
func LoadFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // G304: path is a user-selected input
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	doc, err := Load(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Load decodes an AST export document.
//
// The document is either a bare CompilationUnit or a parse result envelope
// of the form {"root": ..., "issues": [...]}.
func Load(r io.Reader, format Format) (*Document, error) {
	var raw any
	switch format {
	case FormatJSON:
		// Numbers stay json.Number so literal values keep their exact text.
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	top, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document is not an object", ErrInvalidRoot)
	}

	doc := &Document{}
	rootMap := top
	if inner, ok := top["root"]; ok && typeOf(top) == "" {
		m, ok := inner.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: root is not an object", ErrInvalidRoot)
		}
		rootMap = m
		issues, err := decodeIssues(top["issues"])
		if err != nil {
			return nil, err
		}
		doc.Issues = issues
	}

	if t := typeOf(rootMap); t != "CompilationUnit" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRoot, t)
	}

	d := &decoder{}
	doc.Root = d.compilationUnit(rootMap)
	if d.err != nil {
		return nil, d.err
	}
	return doc, nil
}

// typeOf returns the simple node type name of an exported node.
// Fully-qualified class names are reduced to their last segment.
func typeOf(m map[string]any) string {
	var t string
	for _, key := range []string{"#type", "type", "$type"} {
		if s, ok := m[key].(string); ok && s != "" {
			t = s
			break
		}
	}
	if i := strings.LastIndexAny(t, ".$"); i >= 0 {
		t = t[i+1:]
	}
	return t
}

// decoder converts generic maps into model nodes. The first error is kept
// and later work becomes a no-op.
type decoder struct {
	path []string
	err  error
}

func (d *decoder) push(seg string) { d.path = append(d.path, seg) }
func (d *decoder) pop()            { d.path = d.path[:len(d.path)-1] }

func (d *decoder) fail(format string, args ...any) {
	if d.err != nil {
		return
	}
	where := "root"
	if len(d.path) > 0 {
		where = "root." + strings.Join(d.path, ".")
	}
	d.err = fmt.Errorf("%s: %s", where, fmt.Sprintf(format, args...))
}

func (d *decoder) span(m map[string]any) ast.Span {
	var span ast.Span
	raw, ok := m["position"]
	if !ok || raw == nil {
		return span
	}
	if err := decodeInto(raw, &span); err != nil {
		d.fail("invalid position: %v", err)
	}
	return span
}

func (d *decoder) compilationUnit(m map[string]any) *CompilationUnit {
	cu := &CompilationUnit{Base: ast.Base{Range: d.span(m)}}

	for i, item := range list(m, "fileDefinitions") {
		d.push(fmt.Sprintf("fileDefinitions[%d]", i))
		if fm, ok := item.(map[string]any); ok {
			cu.FileDefinitions = append(cu.FileDefinitions, &FileDefinition{
				Base: ast.Base{Range: d.span(fm)},
				Name: str(fm, "name"),
			})
		}
		d.pop()
	}

	for i, item := range list(m, "dataDefinitions") {
		d.push(fmt.Sprintf("dataDefinitions[%d]", i))
		if dm, ok := item.(map[string]any); ok {
			cu.DataDefinitions = append(cu.DataDefinitions, &DataDefinition{
				Base: ast.Base{Range: d.span(dm)},
				Name: str(dm, "name"),
				Type: typeName(dm["type"]),
			})
		}
		d.pop()
	}

	switch main := m["main"].(type) {
	case map[string]any:
		d.push("main")
		cu.MainStatements = d.statements(main, "stmts", "statements")
		d.pop()
	case []any:
		cu.MainStatements = d.statements(m, "main")
	default:
		cu.MainStatements = d.statements(m, "mainStatements", "mainStmts")
	}

	for i, item := range list(m, "subroutines") {
		d.push(fmt.Sprintf("subroutines[%d]", i))
		sm, ok := item.(map[string]any)
		if !ok {
			d.fail("subroutine is not an object")
			d.pop()
			continue
		}
		sub := &Subroutine{
			Base:           ast.Base{Range: d.span(sm)},
			Name:           str(sm, "name"),
			Initialization: boolean(sm, "initializationSubroutine"),
		}
		sub.Statements = d.statements(sm, "stmts", "statements")
		cu.Subroutines = append(cu.Subroutines, sub)
		d.pop()
	}
	return cu
}

func (d *decoder) statements(m map[string]any, keys ...string) []Statement {
	for _, key := range keys {
		items, ok := m[key].([]any)
		if !ok {
			continue
		}
		out := make([]Statement, 0, len(items))
		for i, item := range items {
			d.push(fmt.Sprintf("%s[%d]", key, i))
			if s := d.statement(item); s != nil {
				out = append(out, s)
			}
			d.pop()
		}
		return out
	}
	return nil
}

func (d *decoder) statement(raw any) Statement {
	m, ok := raw.(map[string]any)
	if !ok {
		d.fail("statement is not an object")
		return nil
	}
	base := ast.Base{Range: d.span(m)}

	switch t := typeOf(m); t {
	case "InvokeSubroutineStatement", "ExecuteSubroutine":
		return &InvokeSubroutine{Base: base, Subroutine: reference(m["subroutine"])}

	case "ConditionIfStatement", "IfStmt":
		s := &If{Base: base, Condition: d.field(m, "condition")}
		s.Then = d.statements(m, "thenBody", "body")
		for i, item := range list(m, "elseIfClauses") {
			d.push(fmt.Sprintf("elseIfClauses[%d]", i))
			if em, ok := item.(map[string]any); ok {
				s.ElseIfs = append(s.ElseIfs, &ElseIf{
					Base:      ast.Base{Range: d.span(em)},
					Condition: d.field(em, "condition"),
					Body:      d.statements(em, "body"),
				})
			}
			d.pop()
		}
		switch e := m["elseClause"].(type) {
		case map[string]any:
			d.push("elseClause")
			s.Else = d.statements(e, "body")
			d.pop()
		case []any:
			s.Else = d.statements(m, "elseClause")
		}
		return s

	case "ConditionDoUntilStatement", "DouStmt":
		return &DoUntil{Base: base, Condition: d.field(m, "condition"), Body: d.statements(m, "body")}

	case "ConditionDoWhileStatement", "DowStmt":
		return &DoWhile{Base: base, Condition: d.field(m, "condition"), Body: d.statements(m, "body")}

	case "SetLowerLimitStatement", "SetllStmt":
		return &SetLowerLimit{
			Base:           base,
			SearchArgument: d.field(m, "searchArgument", "search"),
			Name:           d.field(m, "name"),
		}

	case "ReadRecordStatement", "ReadStmt":
		return &RecordStatement{Base: base, Op: OpRead, Name: d.field(m, "name")}
	case "WriteRecordStatement", "WriteStmt":
		return &RecordStatement{Base: base, Op: OpWrite, Name: d.field(m, "name")}
	case "DeleteRecordStatement", "DeleteStmt":
		return &RecordStatement{Base: base, Op: OpDelete, Name: d.field(m, "name")}
	case "UpdateRecordStatement", "UpdateStmt":
		return &RecordStatement{Base: base, Op: OpUpdate, Name: d.field(m, "name")}

	case "":
		d.fail("statement has no type")
		return nil
	default:
		return &UnsupportedStatement{Base: base, Type: t}
	}
}

// field decodes the expression stored under the first present key.
func (d *decoder) field(m map[string]any, keys ...string) Expression {
	for _, key := range keys {
		raw, ok := m[key]
		if !ok || raw == nil {
			continue
		}
		d.push(key)
		e := d.expression(raw)
		d.pop()
		return e
	}
	return nil
}

func (d *decoder) expression(raw any) Expression {
	// A bare name stands for a reference.
	if s, ok := raw.(string); ok {
		return &ReferenceExpr{Target: Reference{Name: s}}
	}
	m, ok := raw.(map[string]any)
	if !ok {
		d.fail("expression is not an object")
		return nil
	}
	base := ast.Base{Range: d.span(m)}

	switch t := typeOf(m); t {
	case "IntLiteral":
		return &Literal{Base: base, Kind: IntLiteral, Value: text(m["value"])}
	case "DecLiteral", "RealLiteral":
		return &Literal{Base: base, Kind: DecLiteral, Value: text(m["value"])}
	case "StringLiteral":
		return &Literal{Base: base, Kind: StringLiteral, Value: text(m["value"])}

	case "FigurativeConst", "FigurativeConstant":
		v := str(m, "text")
		if v == "" {
			v = str(m, "value")
		}
		return &FigurativeConstant{Base: base, Text: v}

	case "ReferenceExpr", "DataRefExpr":
		for _, key := range []string{"dataDefinition", "variable", "reference", "name"} {
			if r, ok := m[key]; ok {
				return &ReferenceExpr{Base: base, Target: reference(r)}
			}
		}
		d.fail("reference has no target")
		return nil

	case "ComparisonExpr":
		op, err := comparison(m["comparisonType"])
		if err != nil {
			d.fail("%v", err)
		}
		return &Comparison{Base: base, Left: d.field(m, "left"), Op: op, Right: d.field(m, "right")}

	case "LogicalNegationExpr", "NotExpr":
		return &Not{Base: base, Operand: d.field(m, "base", "value")}

	case "BuiltinFunctionCall":
		call := &BuiltinCall{Base: base, Function: str(m, "functionName")}
		if call.Function == "" {
			call.Function = str(m, "name")
		}
		for _, key := range []string{"params", "args"} {
			items, ok := m[key].([]any)
			if !ok {
				continue
			}
			for i, item := range items {
				d.push(fmt.Sprintf("%s[%d]", key, i))
				if e := d.expression(item); e != nil {
					call.Args = append(call.Args, e)
				}
				d.pop()
			}
			break
		}
		return call

	case "":
		d.fail("expression has no type")
		return nil
	default:
		return &UnsupportedExpression{Base: base, Type: t}
	}
}

func comparison(raw any) (ComparisonType, error) {
	switch v := raw.(type) {
	case string:
		if op, ok := comparisonNames[v]; ok {
			return op, nil
		}
		for name, op := range comparisonNames {
			if strings.EqualFold(name, v) {
				return op, nil
			}
		}
		return Equality, fmt.Errorf("unknown comparison type %q", v)
	case nil:
		return Equality, fmt.Errorf("missing comparison type")
	default:
		var n int
		if err := decodeInto(v, &n); err != nil || n < int(Equality) || n > int(MoreEq) {
			return Equality, fmt.Errorf("unknown comparison type %v", v)
		}
		return ComparisonType(n), nil
	}
}

// reference accepts both a plain name and a {"name": ...} object.
func reference(raw any) Reference {
	switch v := raw.(type) {
	case string:
		return Reference{Name: v}
	case map[string]any:
		if n := str(v, "name"); n != "" {
			return Reference{Name: n}
		}
		if referred, ok := v["referred"].(map[string]any); ok {
			return Reference{Name: str(referred, "name")}
		}
	}
	return Reference{}
}

type exportedIssue struct {
	Type     string   `json:"type"`
	Severity string   `json:"severity"`
	Message  string   `json:"message"`
	Position ast.Span `json:"position"`
}

func decodeIssues(raw any) ([]ast.Issue, error) {
	if raw == nil {
		return nil, nil
	}
	var exported []exportedIssue
	if err := decodeInto(raw, &exported); err != nil {
		return nil, fmt.Errorf("invalid issues: %w", err)
	}
	issues := make([]ast.Issue, 0, len(exported))
	for _, e := range exported {
		sev, ok := ast.ParseSeverity(e.Severity)
		if !ok && e.Severity == "" {
			sev = ast.SeverityError
		}
		issues = append(issues, ast.Issue{
			Kind:     ast.IssueKind(strings.ToLower(e.Type)),
			Severity: sev,
			Message:  e.Message,
			Range:    e.Position,
		})
	}
	return issues, nil
}

// decodeInto maps generic document values onto typed values using the json tags.
func decodeInto(raw, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func list(m map[string]any, key string) []any {
	items, _ := m[key].([]any)
	return items
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// text renders a scalar literal value as its source text.
func text(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// typeName accepts either a type name or a typed node object.
func typeName(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case map[string]any:
		return typeOf(v)
	}
	return ""
}
