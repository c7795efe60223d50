// Package transform turns an RPG program tree into a sequence diagram of its
// control flow and record-level file I/O.
//
// The program itself, every invoked subroutine and every file touched by a
// record operation become participants. Subroutine calls are expanded in
// place, so the diagram reads as the order in which the program runs.
package transform

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/rpgflow/pkg/ast"
	"github.com/leapstack-labs/rpgflow/pkg/puml"
	"github.com/leapstack-labs/rpgflow/pkg/rpg"
)

// InitializationParticipant names the participant standing for *INZSR.
const InitializationParticipant = "inzsr"

// Config configures a Transformer.
type Config struct {
	// ProgramName names the participant owning the main flow, usually the source file name.
	ProgramName string
	// Style is the layout the diagram will be rendered in. The classic
	// layout draws *INZSR as a self-call on the program without its body.
	Style  puml.Style
	Logger *slog.Logger
}

// Transformer converts RPG trees to diagrams. It is not safe for concurrent
// use; create one per goroutine.
type Transformer struct {
	program string
	style   puml.Style
	logger  *slog.Logger
	upper   cases.Caser

	cu      *rpg.CompilationUnit
	diagram *puml.Diagram
	callers []string
}

// New creates a Transformer.
func New(cfg Config) *Transformer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transformer{
		program: cfg.ProgramName,
		style:   cfg.Style,
		logger:  logger,
		upper:   cases.Upper(language.Und),
	}
}

// Transform builds the diagram for a compilation unit.
func (t *Transformer) Transform(node ast.Node) (*puml.Diagram, error) {
	cu, ok := node.(*rpg.CompilationUnit)
	if !ok || cu == nil {
		return nil, fmt.Errorf("invalid input model: %T", node)
	}

	t.cu = cu
	t.diagram = puml.New()
	t.callers = t.callers[:0]
	defer func() { t.cu = nil }()

	t.diagram.AddParticipant(puml.ClientActor, puml.Actor)
	t.diagram.AddParticipant(t.program, puml.Entity)

	// The initialization subroutine runs before the main flow.
	for _, sub := range cu.InitializationSubroutines() {
		inv := &puml.Invoke{
			Caller: t.program,
			Callee: InitializationParticipant,
			Method: InitializationParticipant,
		}
		t.diagram.EnsureParticipant(InitializationParticipant, puml.Entity)
		if t.style == puml.StyleClassic {
			inv.Callee = t.program
		} else {
			t.expand(inv, sub)
		}
		t.diagram.Add(inv)
	}

	for _, s := range cu.MainStatements {
		t.diagram.Add(t.statement(s))
	}

	t.logger.Debug("transformed program",
		"program", t.program,
		"participants", len(t.diagram.Participants),
		"statements", puml.Count(t.diagram.Statements))
	return t.diagram, nil
}

// caller returns the participant issuing the current statement: the
// innermost subroutine being expanded, else the program.
func (t *Transformer) caller() string {
	if n := len(t.callers); n > 0 {
		return t.callers[n-1]
	}
	return t.program
}

func (t *Transformer) expanding(name string) bool {
	for _, c := range t.callers {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// expand transforms the body of sub into inv with inv.Callee as caller.
func (t *Transformer) expand(inv *puml.Invoke, sub *rpg.Subroutine) {
	if t.expanding(inv.Callee) {
		t.logger.Debug("recursive subroutine not expanded", "subroutine", sub.Name)
		return
	}
	t.callers = append(t.callers, inv.Callee)
	for _, s := range sub.Statements {
		inv.Add(t.statement(s))
	}
	t.callers = t.callers[:len(t.callers)-1]
}

func (t *Transformer) statement(s rpg.Statement) puml.Statement {
	caller := t.caller()

	switch stmt := s.(type) {
	case *rpg.InvokeSubroutine:
		name := stmt.Subroutine.Name
		inv := &puml.Invoke{Caller: caller, Callee: name, Method: name}
		t.diagram.EnsureParticipant(name, puml.Entity)
		for _, sub := range t.cu.SubroutinesNamed(name) {
			t.expand(inv, sub)
		}
		return inv

	case *rpg.If:
		fragment := &puml.If{Condition: t.expression(stmt.Condition)}
		for _, body := range stmt.Then {
			fragment.Add(t.statement(body))
		}
		if fragment.HasEmptyBody() {
			return &puml.Empty{}
		}
		return fragment

	case *rpg.DoUntil:
		return t.loop("UNTIL", stmt.Condition, stmt.Body)

	case *rpg.DoWhile:
		return t.loop("WHILE", stmt.Condition, stmt.Body)

	case *rpg.SetLowerLimit:
		ref := t.expression(stmt.Name)
		searchArg := t.expression(stmt.SearchArgument)
		entityColor := NameColor(ref)
		t.diagram.EnsureParticipant(ref, puml.Database, entityColor)
		return &puml.Invoke{
			Caller: caller,
			Callee: ref,
			Method: "Initialize cursor",
			Args:   []string{searchArg, ref},
			Color:  Darker(entityColor),
		}

	case *rpg.RecordStatement:
		ref := t.expression(stmt.Name)
		entityColor := NameColor(ref)
		t.diagram.EnsureParticipant(ref, puml.Database, entityColor)
		inv := &puml.Invoke{
			Caller: caller,
			Callee: ref,
			Method: stmt.Op.String(),
			Args:   []string{ref},
		}
		// Reads and writes carry the file's color; deletes and updates stay plain.
		if stmt.Op == rpg.OpRead || stmt.Op == rpg.OpWrite {
			inv.Color = Darker(entityColor)
		}
		return inv

	default:
		if s != nil {
			t.logger.Debug("statement has no diagram counterpart", "type", s.NodeType(), "at", s.Span().Start)
		}
		return &puml.Empty{}
	}
}

func (t *Transformer) loop(kind string, cond rpg.Expression, body []rpg.Statement) *puml.Loop {
	l := &puml.Loop{Kind: kind, Condition: t.expression(cond)}
	for _, s := range body {
		l.Add(t.statement(s))
	}
	return l
}
