package transform

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/rpgflow/pkg/rpg"
)

// unknownExpression is written for expressions without a textual form.
const unknownExpression = "???"

// expression renders an RPG expression as diagram text.
func (t *Transformer) expression(e rpg.Expression) string {
	switch expr := e.(type) {
	case *rpg.Literal:
		return expr.Value
	case *rpg.FigurativeConstant:
		return t.upper.String(expr.Text)
	case *rpg.ReferenceExpr:
		return t.upper.String(expr.Target.Name)
	case *rpg.Comparison:
		return fmt.Sprintf("%s %s %s", t.expression(expr.Left), expr.Op.Symbol(), t.expression(expr.Right))
	case *rpg.Not:
		return "NOT " + t.expression(expr.Operand)
	case *rpg.BuiltinCall:
		args := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			args[i] = t.expression(a)
		}
		return fmt.Sprintf("%s(%s)", t.upper.String(expr.Function), strings.Join(args, ","))
	default:
		return unknownExpression
	}
}
