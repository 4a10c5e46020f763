package parser

import (
	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/expr"
)

// exprParser is a small recursive-descent parser over the token stream
// produced by tokenize, implementing the precedence climb of spec.md
// section 4.1: OR lowest, then AND, then the non-associative comparison
// operators, then NOT, then parenthesized/atomic terms.
type exprParser struct {
	toks  []token
	pos   int
	table *kconfig.Table
}

func parseExprString(table *kconfig.Table, s string) *expr.Expr {
	if s == "" {
		return nil
	}
	p := &exprParser{toks: tokenize(s), table: table}
	e := p.parseOr()
	return e
}

func (p *exprParser) cur() token { return p.toks[p.pos] }

func (p *exprParser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *exprParser) parseOr() *expr.Expr {
	left := p.parseAnd()
	for p.cur().kind == tokOr {
		p.advance()
		right := p.parseAnd()
		left = &expr.Expr{Op: expr.NodeOr, Left: left, Right: right}
	}
	return left
}

func (p *exprParser) parseAnd() *expr.Expr {
	left := p.parseCmp()
	for p.cur().kind == tokAnd {
		p.advance()
		right := p.parseCmp()
		left = &expr.Expr{Op: expr.NodeAnd, Left: left, Right: right}
	}
	return left
}

func (p *exprParser) parseCmp() *expr.Expr {
	left := p.parseNot()
	op, ok := cmpOp(p.cur().kind)
	if !ok {
		return left
	}
	p.advance()
	right := p.parseNot()
	return &expr.Expr{Op: op, Left: left, Right: right}
}

func cmpOp(k tokenKind) (expr.NodeType, bool) {
	switch k {
	case tokEq:
		return expr.NodeEq, true
	case tokNeq:
		return expr.NodeNeq, true
	case tokLt:
		return expr.NodeLt, true
	case tokLe:
		return expr.NodeLe, true
	case tokGt:
		return expr.NodeGt, true
	case tokGe:
		return expr.NodeGe, true
	default:
		return 0, false
	}
}

func (p *exprParser) parseNot() *expr.Expr {
	if p.cur().kind == tokNot {
		p.advance()
		return &expr.Expr{Op: expr.NodeNot, Left: p.parseNot()}
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() *expr.Expr {
	t := p.cur()
	switch t.kind {
	case tokLParen:
		p.advance()
		e := p.parseOr()
		if p.cur().kind == tokRParen {
			p.advance()
		}
		return e
	case tokString:
		p.advance()
		return &expr.Expr{Op: expr.NodeConst, Const: expr.StringValue(t.text)}
	case tokIdent:
		p.advance()
		return p.symbolExpr(t.text)
	default:
		return expr.ConstN
	}
}

// symbolExpr resolves a bare identifier to a constant (for the literal
// "y"/"n" bool tokens) or a symbol reference, creating an undefined
// placeholder symbol on first mention (spec.md section 4.2) so that a
// forward reference to a not-yet-declared symbol still type-checks; the
// placeholder is reconciled when the real `config` block is parsed.
func (p *exprParser) symbolExpr(name string) *expr.Expr {
	switch name {
	case "y":
		return &expr.Expr{Op: expr.NodeConst, Const: expr.BoolValue(expr.Yes)}
	case "n":
		return &expr.Expr{Op: expr.NodeConst, Const: expr.BoolValue(expr.No)}
	}
	sym := p.table.DefineSymbol(name, expr.KindBool)
	return &expr.Expr{Op: expr.NodeSymbol, SymName: name, Sym: sym}
}
