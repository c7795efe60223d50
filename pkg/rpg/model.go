package rpg

import (
	"strings"

	"github.com/leapstack-labs/rpgflow/pkg/ast"
)

// InitializationSubroutine is the name of the subroutine RPG runs before the main flow.
const InitializationSubroutine = "*INZSR"

// CompilationUnit is the root of an RPG program tree.
type CompilationUnit struct {
	ast.Base
	FileDefinitions []*FileDefinition
	DataDefinitions []*DataDefinition
	MainStatements  []Statement
	Subroutines     []*Subroutine
}

// NodeType implements ast.Node.
func (*CompilationUnit) NodeType() string { return "CompilationUnit" }

// Children implements ast.Node.
func (c *CompilationUnit) Children() []ast.Node {
	var out []ast.Node
	for _, f := range c.FileDefinitions {
		out = append(out, f)
	}
	for _, d := range c.DataDefinitions {
		out = append(out, d)
	}
	out = appendStatements(out, c.MainStatements)
	for _, s := range c.Subroutines {
		out = append(out, s)
	}
	return out
}

// InitializationSubroutines returns the subroutines run before the main flow, in declaration order.
func (c *CompilationUnit) InitializationSubroutines() []*Subroutine {
	var out []*Subroutine
	for _, s := range c.Subroutines {
		if s.IsInitialization() {
			out = append(out, s)
		}
	}
	return out
}

// SubroutinesNamed returns every subroutine whose name matches name case-insensitively.
func (c *CompilationUnit) SubroutinesNamed(name string) []*Subroutine {
	var out []*Subroutine
	for _, s := range c.Subroutines {
		if strings.EqualFold(s.Name, name) {
			out = append(out, s)
		}
	}
	return out
}

// Subroutine is a BEGSR/ENDSR block.
type Subroutine struct {
	ast.Base
	Name           string
	Statements     []Statement
	Initialization bool
}

// NodeType implements ast.Node.
func (*Subroutine) NodeType() string { return "Subroutine" }

// Children implements ast.Node.
func (s *Subroutine) Children() []ast.Node {
	return appendStatements(nil, s.Statements)
}

// IsInitialization reports whether s is the program's initialization subroutine.
func (s *Subroutine) IsInitialization() bool {
	return s.Initialization || strings.EqualFold(s.Name, InitializationSubroutine)
}

// DataDefinition declares a field, data structure or constant.
type DataDefinition struct {
	ast.Base
	Name string
	Type string
}

// NodeType implements ast.Node.
func (*DataDefinition) NodeType() string { return "DataDefinition" }

// Children implements ast.Node.
func (*DataDefinition) Children() []ast.Node { return nil }

// FileDefinition declares a file used by the program.
type FileDefinition struct {
	ast.Base
	Name string
}

// NodeType implements ast.Node.
func (*FileDefinition) NodeType() string { return "FileDefinition" }

// Children implements ast.Node.
func (*FileDefinition) Children() []ast.Node { return nil }

// Reference points to a named declaration (a data definition, file or subroutine).
// The export carries only the name; resolution is left to consumers.
type Reference struct {
	Name string
}

func appendStatements(out []ast.Node, stmts []Statement) []ast.Node {
	for _, s := range stmts {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func appendExprs(out []ast.Node, exprs ...Expression) []ast.Node {
	for _, e := range exprs {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
