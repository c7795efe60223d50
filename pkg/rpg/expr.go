package rpg

import "github.com/leapstack-labs/rpgflow/pkg/ast"

// Expression is a marker interface for expression nodes.
type Expression interface {
	ast.Node
	exprNode()
}

// LiteralKind distinguishes numeric and character literals.
type LiteralKind int

// Literal kinds.
const (
	IntLiteral LiteralKind = iota
	DecLiteral
	StringLiteral
)

// Literal is a constant value. Value holds the source text.
type Literal struct {
	ast.Base
	Kind  LiteralKind
	Value string
}

func (*Literal) exprNode() {}

// NodeType implements ast.Node.
func (l *Literal) NodeType() string {
	switch l.Kind {
	case IntLiteral:
		return "IntLiteral"
	case DecLiteral:
		return "DecLiteral"
	default:
		return "StringLiteral"
	}
}

// Children implements ast.Node.
func (*Literal) Children() []ast.Node { return nil }

// FigurativeConstant is *BLANKS, *ZEROS, *HIVAL, *LOVAL, *ON, *OFF and friends.
type FigurativeConstant struct {
	ast.Base
	Text string
}

func (*FigurativeConstant) exprNode() {}

// NodeType implements ast.Node.
func (*FigurativeConstant) NodeType() string { return "FigurativeConst" }

// Children implements ast.Node.
func (*FigurativeConstant) Children() []ast.Node { return nil }

// ReferenceExpr refers to a data definition, file or record format by name.
type ReferenceExpr struct {
	ast.Base
	Target Reference
}

func (*ReferenceExpr) exprNode() {}

// NodeType implements ast.Node.
func (*ReferenceExpr) NodeType() string { return "ReferenceExpr" }

// Children implements ast.Node.
func (*ReferenceExpr) Children() []ast.Node { return nil }

// ComparisonType is the operator of a Comparison.
type ComparisonType int

// Comparison operators.
const (
	Equality ComparisonType = iota
	Inequality
	LessThan
	LessEq
	MoreThan
	MoreEq
)

var comparisonNames = map[string]ComparisonType{
	"Equality":   Equality,
	"Inequality": Inequality,
	"LessThan":   LessThan,
	"LessEq":     LessEq,
	"MoreThan":   MoreThan,
	"MoreEq":     MoreEq,
}

// Symbol returns the operator as written in diagrams.
func (c ComparisonType) Symbol() string {
	switch c {
	case Equality:
		return "="
	case Inequality:
		return "!="
	case LessThan:
		return "<"
	case LessEq:
		return "<="
	case MoreThan:
		return ">"
	case MoreEq:
		return ">="
	default:
		return "?"
	}
}

// Comparison is a binary comparison.
type Comparison struct {
	ast.Base
	Left  Expression
	Op    ComparisonType
	Right Expression
}

func (*Comparison) exprNode() {}

// NodeType implements ast.Node.
func (*Comparison) NodeType() string { return "ComparisonExpr" }

// Children implements ast.Node.
func (c *Comparison) Children() []ast.Node { return appendExprs(nil, c.Left, c.Right) }

// Not is a logical negation.
type Not struct {
	ast.Base
	Operand Expression
}

func (*Not) exprNode() {}

// NodeType implements ast.Node.
func (*Not) NodeType() string { return "LogicalNegationExpr" }

// Children implements ast.Node.
func (n *Not) Children() []ast.Node { return appendExprs(nil, n.Operand) }

// BuiltinCall is a built-in function call such as %EOF or %FOUND.
type BuiltinCall struct {
	ast.Base
	Function string
	Args     []Expression
}

func (*BuiltinCall) exprNode() {}

// NodeType implements ast.Node.
func (*BuiltinCall) NodeType() string { return "BuiltinFunctionCall" }

// Children implements ast.Node.
func (b *BuiltinCall) Children() []ast.Node { return appendExprs(nil, b.Args...) }

// UnsupportedExpression keeps the place of an expression type the model does not describe.
type UnsupportedExpression struct {
	ast.Base
	Type string
}

func (*UnsupportedExpression) exprNode() {}

// NodeType implements ast.Node.
func (e *UnsupportedExpression) NodeType() string { return e.Type }

// Children implements ast.Node.
func (*UnsupportedExpression) Children() []ast.Node { return nil }
