package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rpgflow/internal/testutil"
	"github.com/leapstack-labs/rpgflow/pkg/puml"
	"github.com/leapstack-labs/rpgflow/pkg/rpg"
)

func ref(name string) *rpg.ReferenceExpr {
	return &rpg.ReferenceExpr{Target: rpg.Reference{Name: name}}
}

func eof(file string) *rpg.BuiltinCall {
	return &rpg.BuiltinCall{Function: "%eof", Args: []rpg.Expression{ref(file)}}
}

// customerUpdate mirrors a typical read-loop program with an initialization subroutine.
func customerUpdate() *rpg.CompilationUnit {
	return &rpg.CompilationUnit{
		MainStatements: []rpg.Statement{
			&rpg.DoUntil{
				Condition: eof("custmast"),
				Body: []rpg.Statement{
					&rpg.RecordStatement{Op: rpg.OpRead, Name: ref("custmast")},
					&rpg.If{
						Condition: &rpg.Not{Operand: eof("custmast")},
						Then: []rpg.Statement{
							&rpg.InvokeSubroutine{Subroutine: rpg.Reference{Name: "PROCESS"}},
						},
					},
				},
			},
			&rpg.UnsupportedStatement{Type: "EvalStatement"},
		},
		Subroutines: []*rpg.Subroutine{
			{Name: "*INZSR", Statements: []rpg.Statement{
				&rpg.SetLowerLimit{SearchArgument: &rpg.FigurativeConstant{Text: "*loval"}, Name: ref("custmast")},
			}},
			{Name: "process", Statements: []rpg.Statement{
				&rpg.If{
					Condition: &rpg.Comparison{Left: ref("balance"), Op: rpg.MoreThan, Right: &rpg.Literal{Kind: rpg.IntLiteral, Value: "0"}},
					Then:      []rpg.Statement{&rpg.RecordStatement{Op: rpg.OpUpdate, Name: ref("custmast")}},
				},
				&rpg.RecordStatement{Op: rpg.OpWrite, Name: ref("custhist")},
			}},
		},
	}
}

func TestTransform_CustomerUpdate(t *testing.T) {
	tr := New(Config{ProgramName: "CUSTUPD.rpgle", Logger: testutil.NewTestLogger(t)})
	d, err := tr.Transform(customerUpdate())
	require.NoError(t, err)

	var names []string
	for _, p := range d.Participants {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"client", "CUSTUPD.rpgle", "inzsr", "CUSTMAST", "PROCESS", "CUSTHIST"}, names)
	assert.Equal(t, puml.Actor, d.Participants[0].Type)
	assert.Equal(t, puml.Database, d.Participant("CUSTMAST").Type)
	assert.Equal(t, "#1986A4", d.Participant("CUSTMAST").Color.Hex())

	got := puml.Render(d, puml.Options{EntryCall: true, Program: "CUSTUPD.rpgle"})
	expected := `@startuml
actor "client"
entity "CUSTUPD.rpgle" as CUSTUPD_rpgle
entity "inzsr"
database "CUSTMAST" #1986A4
entity "PROCESS"
database "CUSTHIST" #F7AACE
client -> CUSTUPD_rpgle : run
activate CUSTUPD_rpgle
CUSTUPD_rpgle -> inzsr : inzsr()
activate inzsr
  inzsr -[#0C4352]> CUSTMAST : Initialize cursor(*LOVAL, CUSTMAST)
deactivate inzsr
loop UNTIL %EOF(CUSTMAST)
  CUSTUPD_rpgle -[#0C4352]> CUSTMAST : READ(CUSTMAST)
  opt NOT %EOF(CUSTMAST)
    CUSTUPD_rpgle -> PROCESS : PROCESS()
    activate PROCESS
      opt BALANCE > 0
        PROCESS -> CUSTMAST : UPDATE(CUSTMAST)
      end
      PROCESS -[#7B5567]> CUSTHIST : WRITE(CUSTHIST)
    deactivate PROCESS
  end
end
deactivate CUSTUPD_rpgle
@enduml
`
	assert.Equal(t, expected, got)
}

func TestTransform_InvalidRoot(t *testing.T) {
	tr := New(Config{ProgramName: "X"})

	_, err := tr.Transform(&rpg.Subroutine{Name: "S"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input model: *rpg.Subroutine")

	var nilUnit *rpg.CompilationUnit
	_, err = tr.Transform(nilUnit)
	assert.Error(t, err)
}

func TestTransform_EmptyIfIsDropped(t *testing.T) {
	cu := &rpg.CompilationUnit{MainStatements: []rpg.Statement{
		&rpg.If{Condition: ref("x"), Then: []rpg.Statement{&rpg.UnsupportedStatement{Type: "EvalStatement"}}},
		&rpg.If{Condition: ref("y")},
	}}
	d, err := New(Config{ProgramName: "P"}).Transform(cu)
	require.NoError(t, err)

	require.Len(t, d.Statements, 2)
	assert.IsType(t, &puml.Empty{}, d.Statements[0])
	assert.IsType(t, &puml.Empty{}, d.Statements[1])
}

func TestTransform_EmptyLoopIsKept(t *testing.T) {
	cu := &rpg.CompilationUnit{MainStatements: []rpg.Statement{
		&rpg.DoWhile{Condition: &rpg.Comparison{Left: ref("i"), Op: rpg.LessEq, Right: &rpg.Literal{Value: "10"}}},
	}}
	d, err := New(Config{ProgramName: "P"}).Transform(cu)
	require.NoError(t, err)

	loop, ok := d.Statements[0].(*puml.Loop)
	require.True(t, ok)
	assert.Equal(t, "WHILE", loop.Kind)
	assert.Equal(t, "I <= 10", loop.Condition)
}

func TestTransform_ClassicInitialization(t *testing.T) {
	tr := New(Config{ProgramName: "CUSTUPD.rpgle", Style: puml.StyleClassic, Logger: testutil.NewTestLogger(t)})
	d, err := tr.Transform(customerUpdate())
	require.NoError(t, err)

	require.NotNil(t, d.Participant("inzsr"))
	inv, ok := d.Statements[0].(*puml.Invoke)
	require.True(t, ok)
	assert.Equal(t, "CUSTUPD.rpgle", inv.Caller)
	assert.Equal(t, "CUSTUPD.rpgle", inv.Callee)
	assert.Equal(t, "inzsr", inv.Method)
	assert.Empty(t, inv.Body)

	got := puml.Render(d, puml.Options{EntryCall: true, Program: "CUSTUPD.rpgle", Style: puml.StyleClassic})
	assert.Contains(t, got, "client -> CUSTUPD_rpgle :\nCUSTUPD_rpgle -> CUSTUPD_rpgle : inzsr\nloop UNTIL %EOF(CUSTMAST)\n")
	assert.Contains(t, got, "  group IF NOT %EOF(CUSTMAST)\n")
	assert.NotContains(t, got, "Initialize cursor")
}

func TestTransform_RecursiveSubroutine(t *testing.T) {
	cu := &rpg.CompilationUnit{
		MainStatements: []rpg.Statement{&rpg.InvokeSubroutine{Subroutine: rpg.Reference{Name: "LOOPER"}}},
		Subroutines: []*rpg.Subroutine{{Name: "looper", Statements: []rpg.Statement{
			&rpg.RecordStatement{Op: rpg.OpDelete, Name: ref("f")},
			&rpg.InvokeSubroutine{Subroutine: rpg.Reference{Name: "LOOPER"}},
		}}},
	}
	logger, logs := testutil.NewCaptureLogger()
	d, err := New(Config{ProgramName: "P", Logger: logger}).Transform(cu)
	require.NoError(t, err)
	assert.True(t, logs.Contains("recursive subroutine not expanded"))

	outer := d.Statements[0].(*puml.Invoke)
	require.Len(t, outer.Body, 2)
	del := outer.Body[0].(*puml.Invoke)
	assert.Equal(t, "LOOPER", del.Caller)
	assert.False(t, del.Color.Set, "deletes are not colored")
	inner := outer.Body[1].(*puml.Invoke)
	assert.Equal(t, "LOOPER", inner.Callee)
	assert.Empty(t, inner.Body)
}

func TestTransform_UnknownSubroutineStillInvoked(t *testing.T) {
	cu := &rpg.CompilationUnit{MainStatements: []rpg.Statement{
		&rpg.InvokeSubroutine{Subroutine: rpg.Reference{Name: "EXTERNAL"}},
	}}
	d, err := New(Config{ProgramName: "P"}).Transform(cu)
	require.NoError(t, err)

	inv := d.Statements[0].(*puml.Invoke)
	assert.Equal(t, "P", inv.Caller)
	assert.Empty(t, inv.Body)
	assert.NotNil(t, d.Participant("EXTERNAL"))
}

func TestTransform_ReusableAcrossPrograms(t *testing.T) {
	tr := New(Config{ProgramName: "P"})
	first, err := tr.Transform(customerUpdate())
	require.NoError(t, err)
	second, err := tr.Transform(&rpg.CompilationUnit{})
	require.NoError(t, err)

	assert.Len(t, second.Participants, 2)
	assert.Empty(t, second.Statements)
	assert.Len(t, first.Participants, 6)
}

func TestExpression(t *testing.T) {
	tr := New(Config{})
	tests := []struct {
		name string
		expr rpg.Expression
		want string
	}{
		{"int literal", &rpg.Literal{Kind: rpg.IntLiteral, Value: "42"}, "42"},
		{"dec literal", &rpg.Literal{Kind: rpg.DecLiteral, Value: "3.14"}, "3.14"},
		{"string literal keeps case", &rpg.Literal{Kind: rpg.StringLiteral, Value: "abc"}, "abc"},
		{"figurative", &rpg.FigurativeConstant{Text: "*blanks"}, "*BLANKS"},
		{"reference", ref("custNo"), "CUSTNO"},
		{"equality", &rpg.Comparison{Left: ref("a"), Op: rpg.Equality, Right: ref("b")}, "A = B"},
		{"inequality", &rpg.Comparison{Left: ref("a"), Op: rpg.Inequality, Right: ref("b")}, "A != B"},
		{"less than", &rpg.Comparison{Left: ref("a"), Op: rpg.LessThan, Right: ref("b")}, "A < B"},
		{"more or equal", &rpg.Comparison{Left: ref("a"), Op: rpg.MoreEq, Right: ref("b")}, "A >= B"},
		{"negation", &rpg.Not{Operand: ref("found")}, "NOT FOUND"},
		{"builtin without args", &rpg.BuiltinCall{Function: "%found"}, "%FOUND()"},
		{"builtin with args", &rpg.BuiltinCall{Function: "%subst", Args: []rpg.Expression{
			ref("name"), &rpg.Literal{Value: "1"}, &rpg.Literal{Value: "3"},
		}}, "%SUBST(NAME,1,3)"},
		{"unsupported", &rpg.UnsupportedExpression{Type: "QualifiedAccessExpr"}, "???"},
		{"missing", nil, "???"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.expression(tt.expr))
		})
	}
}
