package expr

import "testing"

type fakeSym struct {
	name      string
	kind      Kind
	tri       Tristate
	str       Value
	undefined bool
}

func (f *fakeSym) RefName() string        { return f.name }
func (f *fakeSym) RefKind() Kind          { return f.kind }
func (f *fakeSym) RefBoolValue() Tristate { return f.tri }
func (f *fakeSym) RefStrValue() Value     { return f.str }
func (f *fakeSym) RefUndefined() bool     { return f.undefined }

func symRef(name string, tri Tristate) *Expr {
	s := &fakeSym{name: name, kind: KindBool, tri: tri, str: BoolValue(tri)}
	return &Expr{Op: NodeSymbol, SymName: name, Sym: s}
}

func TestEvalBoolAndTakesMinimumOfOperands(t *testing.T) {
	e := &Expr{Op: NodeAnd, Left: symRef("A", Yes), Right: symRef("B", No)}
	if got := EvalBool(e, nil); got != No {
		t.Fatalf("A(y) && B(n) = %v, want n", got)
	}
}

func TestEvalBoolOrTakesMaximumOfOperands(t *testing.T) {
	e := &Expr{Op: NodeOr, Left: symRef("A", No), Right: symRef("B", Yes)}
	if got := EvalBool(e, nil); got != Yes {
		t.Fatalf("A(n) || B(y) = %v, want y", got)
	}
}

func TestEvalBoolNotInverts(t *testing.T) {
	e := &Expr{Op: NodeNot, Left: symRef("A", Yes)}
	if got := EvalBool(e, nil); got != No {
		t.Fatalf("!A(y) = %v, want n", got)
	}
	e2 := &Expr{Op: NodeNot, Left: symRef("A", No)}
	if got := EvalBool(e2, nil); got != Yes {
		t.Fatalf("!A(n) = %v, want y", got)
	}
}

func TestEvalBoolNilExprIsUnconditionalYes(t *testing.T) {
	if got := EvalBool(nil, nil); got != Yes {
		t.Fatalf("EvalBool(nil) = %v, want y", got)
	}
}

func TestEvalBoolUndefinedSymbolIsNoAndFiresHook(t *testing.T) {
	var seen string
	e := &Expr{Op: NodeSymbol, SymName: "GONE", Sym: &fakeSym{name: "GONE", undefined: true}}
	got := EvalBool(e, func(name string) { seen = name })
	if got != No {
		t.Fatalf("undefined symbol evaluated to %v, want n", got)
	}
	if seen != "GONE" {
		t.Fatalf("undef hook called with %q, want GONE", seen)
	}
}

func TestEvalComparisonNumericOnHexAndInt(t *testing.T) {
	left := &Expr{Op: NodeConst, Const: HexValue(0x10, "0x10")}
	right := &Expr{Op: NodeConst, Const: IntValue(16)}
	e := &Expr{Op: NodeEq, Left: left, Right: right}
	if got := EvalBool(e, nil); got != Yes {
		t.Fatalf("0x10 = 16 evaluated to %v, want y", got)
	}
}

func TestEvalComparisonStringWhenEitherSideIsString(t *testing.T) {
	left := &Expr{Op: NodeConst, Const: StringValue("10")}
	right := &Expr{Op: NodeConst, Const: IntValue(9)}
	e := &Expr{Op: NodeGt, Left: left, Right: right}
	// lexicographic "10" > "9" is false, whereas numeric 10 > 9 is true;
	// presence of a string operand must force the lexicographic path.
	if got := EvalBool(e, nil); got != No {
		t.Fatalf("\"10\" > 9 (string compare) = %v, want n", got)
	}
}

func TestExprStringRoundTripsOperatorPrecedence(t *testing.T) {
	// A || B && C must render without parens around the AND since AND
	// binds tighter, but NOT A && B needs none either.
	e := &Expr{
		Op:   NodeOr,
		Left: symRef("A", No),
		Right: &Expr{
			Op:   NodeAnd,
			Left: symRef("B", No),
			Right: symRef("C", No),
		},
	}
	got := e.String()
	want := "A || B && C"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestExprSymbolsCollectsEveryReference(t *testing.T) {
	e := &Expr{
		Op:   NodeAnd,
		Left: symRef("A", Yes),
		Right: &Expr{
			Op:   NodeOr,
			Left: symRef("B", No),
			Right: symRef("A", Yes),
		},
	}
	names := map[string]int{}
	for _, s := range e.Symbols() {
		names[s.RefName()]++
	}
	if names["A"] != 2 || names["B"] != 1 {
		t.Fatalf("Symbols() = %v, want A:2 B:1", names)
	}
}
