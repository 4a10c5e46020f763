// Package expr implements the algebraic expression language used by
// Kconfig entries: constants, symbol references, comparisons, and the
// NOT/AND/OR logical operators described in spec.md section 4.2.
package expr

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Kind is the type a Symbol or a typed Value belongs to.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindHex
	KindString
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindHex:
		return "hex"
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Tristate is the two-valued truth domain spec.md section 3 describes
// ("Truth is two-valued (n/y)"). The n=0/y=2 encoding is preserved from
// the original kconfiglib implementation so that select/imply priority
// resolution, which takes the maximum over several tristate sources, is a
// plain integer max rather than a three-way branch.
type Tristate int

const (
	No  Tristate = 0
	Yes Tristate = 2
)

func (t Tristate) String() string {
	if t == Yes {
		return "y"
	}
	return "n"
}

func BoolTristate(b bool) Tristate {
	if b {
		return Yes
	}
	return No
}

// Value is a typed Kconfig value: a tristate for bool, or a cty-backed
// numeric/string value for int/hex/float/string. Lit preserves the
// original literal text of a value read from source or from a loaded
// configuration file, so the writer can reproduce user-chosen formatting
// (e.g. a hex literal's leading zeros) until the value is recomputed.
type Value struct {
	Kind Kind
	Tri  Tristate
	Raw  cty.Value
	Lit  string
}

// BoolValue constructs a bool Value.
func BoolValue(t Tristate) Value {
	return Value{Kind: KindBool, Tri: t, Raw: cty.BoolVal(t == Yes)}
}

// StringValue constructs a string Value.
func StringValue(s string) Value {
	return Value{Kind: KindString, Raw: cty.StringVal(s), Lit: s}
}

// IntValue constructs a decimal int Value.
func IntValue(n int64) Value {
	return Value{Kind: KindInt, Raw: cty.NumberIntVal(n), Lit: fmt.Sprintf("%d", n)}
}

// HexValue constructs a hex Value from an unsigned magnitude.
func HexValue(n uint64, lit string) Value {
	return Value{Kind: KindHex, Raw: cty.NumberUIntVal(n), Lit: lit}
}

// FloatValue constructs a float Value.
func FloatValue(f float64, lit string) Value {
	return Value{Kind: KindFloat, Raw: cty.NumberFloatVal(f), Lit: lit}
}

// ZeroValue returns the type's zero value per spec.md section 4.3
// priority level 8.
func ZeroValue(k Kind) Value {
	switch k {
	case KindBool:
		return BoolValue(No)
	case KindInt:
		return IntValue(0)
	case KindHex:
		return HexValue(0, "0x0")
	case KindFloat:
		return FloatValue(0, "0.0")
	default:
		return StringValue("")
	}
}

// AsBigFloat extracts the numeric magnitude of an int/hex/float Value.
func (v Value) AsBigFloat() *big.Float {
	if v.Raw.Type() != cty.Number {
		return big.NewFloat(0)
	}
	return v.Raw.AsBigFloat()
}

// AsString extracts the string form of a Value for display and for
// string-typed comparisons. Bool yields "n"/"y".
func (v Value) AsString() string {
	switch v.Kind {
	case KindBool:
		return v.Tri.String()
	case KindString:
		if v.Raw.Type() == cty.String {
			return v.Raw.AsString()
		}
		return v.Lit
	default:
		if v.Lit != "" {
			return v.Lit
		}
		if v.Raw.Type() == cty.Number {
			return v.Raw.AsBigFloat().Text('g', -1)
		}
		return ""
	}
}

// Bool coerces a Value to a Tristate the way a bool-context evaluation
// would: non-bool symbols "always evaluate to n" per spec.md section 4.2,
// except the empty string, which by convention of undefined-symbol
// handling is also n.
func (v Value) Bool() Tristate {
	if v.Kind == KindBool {
		return v.Tri
	}
	return No
}

// NodeType tags the variant of an Expr node.
type NodeType int

const (
	NodeConst NodeType = iota
	NodeSymbol
	NodeNot
	NodeAnd
	NodeOr
	NodeEq
	NodeNeq
	NodeLt
	NodeLe
	NodeGt
	NodeGe
)

// SymbolRef is the minimal view of a Symbol that the expression engine
// needs. It is implemented by kconfig.Symbol; the interface exists so
// this package has no import-time dependency on the symbol table package,
// avoiding an import cycle (the symbol table builds Expr trees that
// reference symbols).
type SymbolRef interface {
	RefName() string
	RefKind() Kind
	RefBoolValue() Tristate
	RefStrValue() Value
	RefUndefined() bool
}

// Expr is a node in an expression tree. Precedence is fixed at parse time
// by tree shape, per spec.md section 4.1 ("Operator precedence ... NOT,
// comparisons (non-associative), AND, OR").
type Expr struct {
	Op          NodeType
	Const       Value
	SymName     string
	Sym         SymbolRef
	Left, Right *Expr
}

// Const that stands for the unconditional "y" condition used when an
// entry has no explicit `if` guard.
var ConstY = &Expr{Op: NodeConst, Const: BoolValue(Yes)}

// ConstN stands for an unconditional "n" condition.
var ConstN = &Expr{Op: NodeConst, Const: BoolValue(No)}

// Symbols returns every SymbolRef occurrence in the tree. Used to build
// the reverse-dependency adjacency list described in spec.md section 4.3
// ("Incremental invalidation").
func (e *Expr) Symbols() []SymbolRef {
	if e == nil {
		return nil
	}
	var out []SymbolRef
	var walk func(*Expr)
	walk = func(n *Expr) {
		if n == nil {
			return
		}
		if n.Op == NodeSymbol && n.Sym != nil {
			out = append(out, n.Sym)
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(e)
	return out
}

// String renders the expression back to Kconfig surface syntax, used in
// diagnostics.
func (e *Expr) String() string {
	if e == nil {
		return "y"
	}
	var sb strings.Builder
	writeExpr(&sb, e, 0)
	return sb.String()
}

func precedence(op NodeType) int {
	switch op {
	case NodeOr:
		return 1
	case NodeAnd:
		return 2
	case NodeEq, NodeNeq, NodeLt, NodeLe, NodeGt, NodeGe:
		return 3
	case NodeNot:
		return 4
	default:
		return 5
	}
}

func writeExpr(sb *strings.Builder, e *Expr, minPrec int) {
	if e == nil {
		sb.WriteString("y")
		return
	}
	p := precedence(e.Op)
	needParen := p < minPrec
	if needParen {
		sb.WriteString("(")
	}
	switch e.Op {
	case NodeConst:
		sb.WriteString(e.Const.AsString())
	case NodeSymbol:
		sb.WriteString(e.SymName)
	case NodeNot:
		sb.WriteString("!")
		writeExpr(sb, e.Left, p)
	case NodeAnd:
		writeExpr(sb, e.Left, p)
		sb.WriteString(" && ")
		writeExpr(sb, e.Right, p+1)
	case NodeOr:
		writeExpr(sb, e.Left, p)
		sb.WriteString(" || ")
		writeExpr(sb, e.Right, p+1)
	case NodeEq, NodeNeq, NodeLt, NodeLe, NodeGt, NodeGe:
		writeExpr(sb, e.Left, p+1)
		sb.WriteString(" " + opSymbol(e.Op) + " ")
		writeExpr(sb, e.Right, p+1)
	}
	if needParen {
		sb.WriteString(")")
	}
}

func opSymbol(op NodeType) string {
	switch op {
	case NodeEq:
		return "="
	case NodeNeq:
		return "!="
	case NodeLt:
		return "<"
	case NodeLe:
		return "<="
	case NodeGt:
		return ">"
	case NodeGe:
		return ">="
	default:
		return "?"
	}
}
