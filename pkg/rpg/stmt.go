package rpg

import "github.com/leapstack-labs/rpgflow/pkg/ast"

// Statement is a marker interface for statement nodes.
type Statement interface {
	ast.Node
	stmtNode()
}

// InvokeSubroutine is an EXSR statement.
type InvokeSubroutine struct {
	ast.Base
	Subroutine Reference
}

func (*InvokeSubroutine) stmtNode() {}

// NodeType implements ast.Node.
func (*InvokeSubroutine) NodeType() string { return "InvokeSubroutineStatement" }

// Children implements ast.Node.
func (*InvokeSubroutine) Children() []ast.Node { return nil }

// If is an IF/ELSEIF/ELSE/ENDIF block.
type If struct {
	ast.Base
	Condition Expression
	Then      []Statement
	ElseIfs   []*ElseIf
	Else      []Statement
}

func (*If) stmtNode() {}

// NodeType implements ast.Node.
func (*If) NodeType() string { return "ConditionIfStatement" }

// Children implements ast.Node.
func (s *If) Children() []ast.Node {
	out := appendExprs(nil, s.Condition)
	out = appendStatements(out, s.Then)
	for _, e := range s.ElseIfs {
		out = append(out, e)
	}
	return appendStatements(out, s.Else)
}

// ElseIf is one ELSEIF clause of an If.
type ElseIf struct {
	ast.Base
	Condition Expression
	Body      []Statement
}

// NodeType implements ast.Node.
func (*ElseIf) NodeType() string { return "ElseIfClause" }

// Children implements ast.Node.
func (e *ElseIf) Children() []ast.Node {
	return appendStatements(appendExprs(nil, e.Condition), e.Body)
}

// DoUntil is a DOU/ENDDO loop.
type DoUntil struct {
	ast.Base
	Condition Expression
	Body      []Statement
}

func (*DoUntil) stmtNode() {}

// NodeType implements ast.Node.
func (*DoUntil) NodeType() string { return "ConditionDoUntilStatement" }

// Children implements ast.Node.
func (s *DoUntil) Children() []ast.Node {
	return appendStatements(appendExprs(nil, s.Condition), s.Body)
}

// DoWhile is a DOW/ENDDO loop.
type DoWhile struct {
	ast.Base
	Condition Expression
	Body      []Statement
}

func (*DoWhile) stmtNode() {}

// NodeType implements ast.Node.
func (*DoWhile) NodeType() string { return "ConditionDoWhileStatement" }

// Children implements ast.Node.
func (s *DoWhile) Children() []ast.Node {
	return appendStatements(appendExprs(nil, s.Condition), s.Body)
}

// SetLowerLimit is a SETLL statement positioning a file cursor.
type SetLowerLimit struct {
	ast.Base
	SearchArgument Expression
	Name           Expression
}

func (*SetLowerLimit) stmtNode() {}

// NodeType implements ast.Node.
func (*SetLowerLimit) NodeType() string { return "SetLowerLimitStatement" }

// Children implements ast.Node.
func (s *SetLowerLimit) Children() []ast.Node {
	return appendExprs(nil, s.SearchArgument, s.Name)
}

// RecordOp identifies a record-level file operation.
type RecordOp int

// Record operations.
const (
	OpRead RecordOp = iota
	OpWrite
	OpDelete
	OpUpdate
)

// String returns the RPG opcode for the operation.
func (o RecordOp) String() string {
	switch o {
	case OpRead:
		return "READ"
	case OpWrite:
		return "WRITE"
	case OpDelete:
		return "DELETE"
	case OpUpdate:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// RecordStatement is a READ, WRITE, DELETE or UPDATE on a file or record format.
type RecordStatement struct {
	ast.Base
	Op   RecordOp
	Name Expression
}

func (*RecordStatement) stmtNode() {}

// NodeType implements ast.Node.
func (s *RecordStatement) NodeType() string {
	switch s.Op {
	case OpRead:
		return "ReadRecordStatement"
	case OpWrite:
		return "WriteRecordStatement"
	case OpDelete:
		return "DeleteRecordStatement"
	default:
		return "UpdateRecordStatement"
	}
}

// Children implements ast.Node.
func (s *RecordStatement) Children() []ast.Node {
	return appendExprs(nil, s.Name)
}

// UnsupportedStatement keeps the place of a statement type the model does not describe.
type UnsupportedStatement struct {
	ast.Base
	Type string
}

func (*UnsupportedStatement) stmtNode() {}

// NodeType implements ast.Node.
func (s *UnsupportedStatement) NodeType() string { return s.Type }

// Children implements ast.Node.
func (*UnsupportedStatement) Children() []ast.Node { return nil }
