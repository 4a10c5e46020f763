package expr

import (
	"math/big"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// UndefHook is called the first time an expression evaluation touches an
// undefined symbol, satisfying spec.md section 4.2's "a warning is
// emitted the first time such a reference is evaluated". It is the
// caller's responsibility to deduplicate repeat warnings across an
// evaluation session; this package calls the hook unconditionally.
type UndefHook func(name string)

// EvalBool evaluates e in a logical context and returns its tristate
// value. Reference to an undefined symbol is treated as n (spec.md
// section 4.2).
func EvalBool(e *Expr, undef UndefHook) Tristate {
	if e == nil {
		return Yes
	}
	switch e.Op {
	case NodeConst:
		return e.Const.Bool()
	case NodeSymbol:
		if e.Sym == nil || e.Sym.RefUndefined() {
			if undef != nil {
				undef(e.SymName)
			}
			return No
		}
		return e.Sym.RefBoolValue()
	case NodeNot:
		if EvalBool(e.Left, undef) == Yes {
			return No
		}
		return Yes
	case NodeAnd:
		l := EvalBool(e.Left, undef)
		if l == No {
			return No
		}
		r := EvalBool(e.Right, undef)
		if l < r {
			return l
		}
		return r
	case NodeOr:
		l := EvalBool(e.Left, undef)
		r := EvalBool(e.Right, undef)
		if l > r {
			return l
		}
		return r
	case NodeEq, NodeNeq, NodeLt, NodeLe, NodeGt, NodeGe:
		return evalComparison(e, undef)
	default:
		return No
	}
}

// EvalValue evaluates e as a typed value (for a default/range bound
// expression that is not itself a logical condition, e.g. the right-hand
// side of a `default` clause or a `range` bound). A symbol reference
// yields its current effective value; a constant yields itself.
func EvalValue(e *Expr, undef UndefHook) Value {
	if e == nil {
		return ZeroValue(KindString)
	}
	switch e.Op {
	case NodeConst:
		return e.Const
	case NodeSymbol:
		if e.Sym == nil || e.Sym.RefUndefined() {
			if undef != nil {
				undef(e.SymName)
			}
			return StringValue(e.SymName)
		}
		return e.Sym.RefStrValue()
	default:
		// Logical subexpressions used in value position evaluate to
		// their bool_value's string form ("n"/"y"), mirroring
		// kconfiglib's treatment of expr_value() results as strings.
		return BoolValue(EvalBool(e, undef))
	}
}

func evalComparison(e *Expr, undef UndefHook) Tristate {
	lv := EvalValue(e.Left, undef)
	rv := EvalValue(e.Right, undef)

	// Equality compares symbol-to-symbol in their declared kinds after
	// coercion: if one side is a string literal, the other is coerced to
	// string; otherwise both sides evaluate to integers (spec.md 4.2).
	useString := lv.Kind == KindString || rv.Kind == KindString

	switch e.Op {
	case NodeEq, NodeNeq:
		var eq bool
		if useString {
			eq = lv.AsString() == rv.AsString()
		} else {
			eq = numEqual(lv, rv)
		}
		if e.Op == NodeNeq {
			eq = !eq
		}
		return BoolTristate(eq)
	case NodeLt, NodeLe, NodeGt, NodeGe:
		var cmp int
		if useString {
			cmp = strings.Compare(lv.AsString(), rv.AsString())
		} else {
			cmp = numCompare(lv, rv)
		}
		switch e.Op {
		case NodeLt:
			return BoolTristate(cmp < 0)
		case NodeLe:
			return BoolTristate(cmp <= 0)
		case NodeGt:
			return BoolTristate(cmp > 0)
		case NodeGe:
			return BoolTristate(cmp >= 0)
		}
	}
	return No
}

// numVal converts a Value to its numeric magnitude for a non-string
// comparison: bool coerces to y=2, n=0 (legacy tristate encoding), per
// spec.md section 4.2 ("y=2, n=0 (legacy) for bool, parsed numerics
// otherwise").
func numVal(v Value) *big.Float {
	if v.Kind == KindBool {
		return big.NewFloat(float64(v.Tri))
	}
	if v.Raw.Type() == cty.Number {
		return v.Raw.AsBigFloat()
	}
	// Non-numeric string compared numerically (malformed input): treat
	// as 0, matching strtoll()-on-empty-string behavior in the original
	// implementation (_is_base_n gate).
	return big.NewFloat(0)
}

func numEqual(a, b Value) bool {
	return numVal(a).Cmp(numVal(b)) == 0
}

func numCompare(a, b Value) int {
	return numVal(a).Cmp(numVal(b))
}
