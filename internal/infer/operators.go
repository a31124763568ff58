package infer

import (
	"fmt"

	"github.com/ori-lang/oric/internal/tpool"
)

// operatorClass distinguishes how an operator's result type relates to its
// operand types (spec.md §4.4, "Binary/unary: dispatch through an operator
// table giving (lhs_ty, rhs_ty) -> result_ty").
type operatorClass uint8

const (
	opArith operatorClass = iota // lhs == rhs == result, numeric
	opCompare                    // lhs == rhs, result bool
	opEquality                   // lhs == rhs (any type), result bool
	opLogical                    // lhs == rhs == result == bool
	opConcat                     // lhs == rhs == result, List/Str
)

var operatorTable = map[string]operatorClass{
	"+": opArith, "-": opArith, "*": opArith, "/": opArith, "%": opArith,
	"<": opCompare, "<=": opCompare, ">": opCompare, ">=": opCompare,
	"==": opEquality, "!=": opEquality,
	"&&": opLogical, "||": opLogical,
	"++": opConcat,
}

// ApplyOperator resolves the result type of applying op to lhs and rhs,
// unifying operand types first and then shaping the result according to
// the operator's class. It reports a *tpool.UnifyError-flavored error via
// the returned error value; callers convert it to a diagnostic.
func ApplyOperator(p *tpool.Pool, op string, lhs, rhs tpool.Idx) (tpool.Idx, error) {
	class, ok := operatorTable[op]
	if !ok {
		return p.ERROR, fmt.Errorf("unknown operator `%s`", op)
	}
	if err := p.Unify(lhs, rhs); err != nil {
		return p.ERROR, fmt.Errorf("operator `%s`: %s", op, err.Error())
	}
	switch class {
	case opArith:
		t := p.Tag(lhs)
		if t != tpool.TagInt && t != tpool.TagFloat && t != tpool.TagDuration && t != tpool.TagSize && t != tpool.TagVar {
			return p.ERROR, fmt.Errorf("operator `%s` requires a numeric type", op)
		}
		return lhs, nil
	case opCompare:
		return p.BOOL, nil
	case opEquality:
		return p.BOOL, nil
	case opLogical:
		if err := p.Unify(lhs, p.BOOL); err != nil {
			return p.ERROR, fmt.Errorf("operator `%s` requires bool operands", op)
		}
		return p.BOOL, nil
	case opConcat:
		t := p.Tag(lhs)
		if t != tpool.TagStr && t != tpool.TagList && t != tpool.TagVar {
			return p.ERROR, fmt.Errorf("operator `%s` requires str or list operands", op)
		}
		return lhs, nil
	default:
		return p.ERROR, fmt.Errorf("unhandled operator class for `%s`", op)
	}
}
