package parser

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/expr"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
)

// line is one logical statement line after backslash-continuation joining
// and `source`/`rsource`/`osource`/`orsource` splicing, with the raw text
// preserved (comment stripping happens lazily at statement-parse time so
// that help bodies, which may contain '#', are never mangled).
type line struct {
	file string
	no   int
	raw  string
}

// Parser reads a Kconfig source tree into a kconfig.Table, per spec.md
// section 3 ("the parser that reads a set of source files into a menu
// tree and symbol table").
type Parser struct {
	table *kconfig.Table
	rep   *report.Builder
	env   map[string]string

	lines []line
	pos   int
}

// NewParser creates a parser that will populate table, reporting findings
// into rep. env supplies values for `$(NAME)` macro expansion (spec.md
// section 3's source-inclusion and macro rules), typically the process
// environment plus any `KCONFIG_*` overrides.
func NewParser(table *kconfig.Table, rep *report.Builder, env map[string]string) *Parser {
	return &Parser{table: table, rep: rep, env: env}
}

// ParseFile parses path as the top-level Kconfig file and every file it
// transitively sources, building table's menu tree rooted at table.Root.
func (p *Parser) ParseFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := p.collect(abs); err != nil {
		return err
	}
	root := &kconfig.MenuNode{Kind: kconfig.MenuNodeMenu, Title: "Main menu"}
	p.table.RegisterMenuNode(root)
	p.table.Root = root
	if err := p.parseBlock(root, ""); err != nil {
		return err
	}
	return nil
}

// collect reads path and every sourced file into p.lines, expanding
// `source`/`rsource`/`osource`/`orsource` directives by splicing the
// target file's own lines in place -- Kconfig's source inclusion is
// textual, not a separate parse unit.
func (p *Parser) collect(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return includeErr(path, 0, err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	var pending strings.Builder
	pendingStart := 0
	flush := func() error {
		if pending.Len() == 0 {
			return nil
		}
		text := pending.String()
		pending.Reset()
		return p.handleRawLine(path, dir, pendingStart, text)
	}
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		if pending.Len() == 0 {
			pendingStart = lineNo
		}
		trimmed := strings.TrimRight(raw, " \t\r")
		if strings.HasSuffix(trimmed, "\\") {
			pending.WriteString(strings.TrimSuffix(trimmed, "\\"))
			pending.WriteString(" ")
			continue
		}
		pending.WriteString(raw)
		if err := flush(); err != nil {
			return err
		}
	}
	if err := flush(); err != nil {
		return err
	}
	return sc.Err()
}

func (p *Parser) handleRawLine(path, dir string, lineNo int, text string) error {
	expanded := p.expandMacros(text)
	stripped := stripComment(expanded)
	trimmed := strings.TrimSpace(stripped)
	if trimmed == "" {
		p.lines = append(p.lines, line{file: path, no: lineNo, raw: expanded})
		return nil
	}
	fields := strings.Fields(trimmed)
	kw := fields[0]
	switch kw {
	case "source", "rsource", "osource", "orsource":
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, kw))
		target := unquote(rest)
		var full string
		if kw == "source" || kw == "osource" {
			full = target
			if !filepath.IsAbs(full) {
				full = filepath.Join(dir, target)
			}
		} else {
			full = filepath.Join(dir, target)
		}
		if err := p.collect(full); err != nil {
			if kw == "osource" || kw == "orsource" {
				return nil
			}
			return err
		}
		return nil
	}
	p.lines = append(p.lines, line{file: path, no: lineNo, raw: expanded})
	return nil
}

// expandMacros substitutes `$(NAME)` references with values from p.env,
// leaving unresolved references untouched (spec.md's macro rules treat an
// unset variable as an empty string only for recognized KCONFIG_* inputs;
// an unrecognized macro is left literal so it surfaces as a parse error
// rather than silently vanishing).
func (p *Parser) expandMacros(s string) string {
	if !strings.Contains(s, "$(") {
		return s
	}
	var sb strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '(' {
			end := strings.IndexByte(s[i+2:], ')')
			if end < 0 {
				sb.WriteString(s[i:])
				break
			}
			name := s[i+2 : i+2+end]
			if v, ok := p.env[name]; ok {
				sb.WriteString(v)
			} else {
				sb.WriteString("$(" + name + ")")
			}
			i = i + 2 + end + 1
			continue
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}

func stripComment(s string) string {
	inQuote := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			inQuote = c
			continue
		}
		if c == '#' {
			return s[:i]
		}
	}
	return s
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func indentOf(raw string) int {
	n := 0
	for _, c := range raw {
		if c == ' ' {
			n++
		} else if c == '\t' {
			n += 8
		} else {
			break
		}
	}
	return n
}

func (p *Parser) peek() (line, bool) {
	if p.pos >= len(p.lines) {
		return line{}, false
	}
	return p.lines[p.pos], true
}

func (p *Parser) next() (line, bool) {
	l, ok := p.peek()
	if ok {
		p.pos++
	}
	return l, ok
}

// isCommentLine reports whether raw is a comment-only or blank source
// line retained verbatim in p.lines (handleRawLine keeps the unstripped
// text for these so a help body's '#' characters are never mangled).
func isCommentLine(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), "#")
}

// hasIgnoreMultipleDefPragma reports whether raw is the
// `# ignore: multiple-definition` pragma of spec.md invariant 1.
func hasIgnoreMultipleDefPragma(raw string) bool {
	t := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
	return t == "ignore: multiple-definition"
}

// statement splits a line's stripped, trimmed text into a keyword and the
// remainder, or reports ok=false for a blank line.
func statement(raw string) (kw, rest string, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", "", false
	}
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, "", true
	}
	return s[:i], strings.TrimSpace(s[i+1:]), true
}

// parseBlock consumes statements into parent until it encounters one of
// the keywords in end (or EOF), per the menu/if/choice nesting grammar of
// spec.md section 3.
func (p *Parser) parseBlock(parent *kconfig.MenuNode, end string) error {
	var ifStack []*expr.Expr

	effectiveIf := func() *expr.Expr {
		e := expr.ConstY
		for _, f := range ifStack {
			e = &expr.Expr{Op: expr.NodeAnd, Left: e, Right: f}
		}
		return e
	}

	for {
		l, ok := p.peek()
		if !ok {
			if end != "" {
				return syntaxErr("", 0, "unexpected end of input, expected %q", end)
			}
			return nil
		}
		if isCommentLine(l.raw) {
			p.pos++
			continue
		}
		kw, rest, ok := statement(l.raw)
		if !ok {
			p.pos++
			continue
		}
		if kw == end {
			p.pos++
			return nil
		}
		switch kw {
		case "endmenu", "endif", "endchoice":
			return syntaxErr(l.file, l.no, "unexpected %q, expected %q", kw, end)
		case "if":
			p.pos++
			cond := parseExprString(p.table, rest)
			ifStack = append(ifStack, cond)
			if err := p.parseBlock(parent, "endif"); err != nil {
				return err
			}
			ifStack = ifStack[:len(ifStack)-1]
		case "menu":
			p.pos++
			node := &kconfig.MenuNode{Kind: kconfig.MenuNodeMenu, Title: unquote(rest), Loc: kconfig.SourceLoc{File: l.file, Line: l.no}, DependsOn: effectiveIf()}
			p.table.RegisterMenuNode(node)
			parent.AppendChild(node)
			if err := p.parseMenuBody(node, "endmenu", effectiveIf()); err != nil {
				return err
			}
		case "mainmenu":
			p.pos++
			parent.Title = unquote(rest)
		case "choice":
			p.pos++
			if err := p.parseChoice(parent, rest, effectiveIf()); err != nil {
				return err
			}
		case "config", "menuconfig":
			p.pos++
			if err := p.parseConfig(parent, rest, kw == "menuconfig", effectiveIf()); err != nil {
				return err
			}
		case "comment":
			p.pos++
			node := &kconfig.MenuNode{Kind: kconfig.MenuNodeComment, CommentText: unquote(rest), Loc: kconfig.SourceLoc{File: l.file, Line: l.no}, DependsOn: effectiveIf()}
			p.table.RegisterMenuNode(node)
			parent.AppendChild(node)
			p.consumeDependsOn(node)
		default:
			p.pos++
			p.rep.Warnf(report.CategorySyntax, report.Location{File: l.file, Line: l.no}, "unrecognized top-level statement %q", kw)
		}
	}
}

// parseMenuBody is parseBlock specialized for a menu node: it also
// recognizes `visible if` and ordinary `depends on` lines that refine the
// menu's own DependsOn before its children are parsed.
func (p *Parser) parseMenuBody(node *kconfig.MenuNode, end string, inherited *expr.Expr) error {
	for {
		l, ok := p.peek()
		if !ok {
			return syntaxErr("", 0, "unexpected end of input, expected %q", end)
		}
		if isCommentLine(l.raw) {
			p.pos++
			continue
		}
		kw, rest, ok := statement(l.raw)
		if !ok {
			p.pos++
			continue
		}
		if kw == end {
			p.pos++
			return nil
		}
		if kw == "depends" && strings.HasPrefix(rest, "on") {
			p.pos++
			cond := parseExprString(p.table, strings.TrimSpace(strings.TrimPrefix(rest, "on")))
			node.DependsOn = &expr.Expr{Op: expr.NodeAnd, Left: node.DependsOn, Right: cond}
			continue
		}
		if kw == "visible" && strings.HasPrefix(rest, "if") {
			p.pos++
			node.VisibleIf = parseExprString(p.table, strings.TrimSpace(strings.TrimPrefix(rest, "if")))
			continue
		}
		break
	}
	return p.parseBlock(node, end)
}

func (p *Parser) consumeDependsOn(node *kconfig.MenuNode) {
	for {
		l, ok := p.peek()
		if !ok {
			return
		}
		kw, rest, ok := statement(l.raw)
		if !ok || kw != "depends" || !strings.HasPrefix(rest, "on") {
			return
		}
		p.pos++
		cond := parseExprString(p.table, strings.TrimSpace(strings.TrimPrefix(rest, "on")))
		node.DependsOn = &expr.Expr{Op: expr.NodeAnd, Left: node.DependsOn, Right: cond}
	}
}

func (p *Parser) parseChoice(parent *kconfig.MenuNode, rest string, inherited *expr.Expr) error {
	c := kconfig.NewChoice()
	c.Name = unquote(rest)
	node := &kconfig.MenuNode{Kind: kconfig.MenuNodeChoice, Choice: c}
	p.table.RegisterMenuNode(node)
	c.Node = node
	c.DirectDep = inherited
	parent.AppendChild(node)
	p.table.AddChoice(c)

	for {
		l, ok := p.peek()
		if !ok {
			return syntaxErr("", 0, "unexpected end of input, expected %q", "endchoice")
		}
		if isCommentLine(l.raw) {
			p.pos++
			continue
		}
		kw, rest, ok := statement(l.raw)
		if !ok {
			p.pos++
			continue
		}
		switch kw {
		case "endchoice":
			p.pos++
			return nil
		case "prompt":
			p.pos++
			text, cond := parsePromptArgs(p.table, rest)
			c.Prompt = &kconfig.Prompt{Text: text, Cond: cond}
		case "default":
			p.pos++
			val, cond := parseValueAndIf(p.table, rest)
			c.Defaults = append(c.Defaults, kconfig.DefaultEntry{Value: val, Cond: cond})
		case "depends":
			if strings.HasPrefix(rest, "on") {
				p.pos++
				cond := parseExprString(p.table, strings.TrimSpace(strings.TrimPrefix(rest, "on")))
				c.DirectDep = &expr.Expr{Op: expr.NodeAnd, Left: c.DirectDep, Right: cond}
			} else {
				p.pos++
			}
		case "optional":
			p.pos++
		case "config":
			p.pos++
			sym, err := p.parseConfigSymbol(rest, true, c.DirectDep)
			if err != nil {
				return err
			}
			sym.Choice = c
			c.Members = append(c.Members, sym)
			memberNode := &kconfig.MenuNode{Kind: kconfig.MenuNodeConfig, Sym: sym}
			p.table.RegisterMenuNode(memberNode)
			sym.Node = memberNode
			node.AppendChild(memberNode)
		default:
			p.pos++
		}
	}
}

func (p *Parser) parseConfig(parent *kconfig.MenuNode, rest string, isMenuConfig bool, inherited *expr.Expr) error {
	sym, err := p.parseConfigSymbol(rest, false, inherited)
	if err != nil {
		return err
	}
	kind := kconfig.MenuNodeConfig
	if isMenuConfig {
		kind = kconfig.MenuNodeMenuConfig
	}
	node := &kconfig.MenuNode{Kind: kind, Sym: sym}
	p.table.RegisterMenuNode(node)
	sym.Node = node
	parent.AppendChild(node)
	return nil
}

// parseConfigSymbol parses the body of a `config NAME` / `menuconfig
// NAME` block: the option-type line and every attribute line that
// follows until a blank-statement boundary (the next config/menuconfig/
// choice/menu/endmenu/endif/endchoice/source at the same or lower
// position -- signaled by the caller not having consumed it).
func (p *Parser) parseConfigSymbol(rest string, inChoice bool, inherited *expr.Expr) (*kconfig.Symbol, error) {
	name := strings.TrimSpace(rest)
	var sym *kconfig.Symbol
	if existing, ok := p.table.Lookup(name); ok {
		sym = existing
		sym.Undefined = false
	} else {
		sym = p.table.DefineSymbol(name, expr.KindString)
		sym.Undefined = false
	}
	sym.DefinitionCount++
	if sym.DefinitionCount > 1 && !sym.IgnoreMultipleDefinition {
		p.rep.Notify(report.CategoryMultipleDefinition, report.Location{File: sym.Loc.File, Line: sym.Loc.Line}, "%s is defined %d times", name, sym.DefinitionCount)
	}
	sym.DirectDep = inherited

	for {
		l, ok := p.peek()
		if !ok {
			return sym, nil
		}
		if isCommentLine(l.raw) {
			if hasIgnoreMultipleDefPragma(l.raw) {
				sym.IgnoreMultipleDefinition = true
			}
			p.pos++
			continue
		}
		kw, body, ok := statement(l.raw)
		if !ok {
			p.pos++
			continue
		}
		switch kw {
		case "bool", "int", "hex", "string", "float", "tristate":
			p.pos++
			if inlinePrompt, cond := parsePromptArgs(p.table, body); inlinePrompt != "" {
				sym.Prompt = &kconfig.Prompt{Text: inlinePrompt, Cond: cond}
			}
			sym.Kind = kindFor(kw)
			sym.Loc = kconfig.SourceLoc{File: l.file, Line: l.no}
		case "prompt":
			p.pos++
			text, cond := parsePromptArgs(p.table, body)
			sym.Prompt = &kconfig.Prompt{Text: text, Cond: cond}
		case "default":
			p.pos++
			val, cond := parseValueAndIf(p.table, body)
			sym.Defaults = append(sym.Defaults, kconfig.DefaultEntry{Value: val, Cond: cond})
		case "depends":
			if strings.HasPrefix(body, "on") {
				p.pos++
				cond := parseExprString(p.table, strings.TrimSpace(strings.TrimPrefix(body, "on")))
				sym.DirectDep = &expr.Expr{Op: expr.NodeAnd, Left: sym.DirectDep, Right: cond}
			} else {
				goto done
			}
		case "select":
			p.pos++
			target, cond := parseTargetAndIf(p.table, body)
			sym.Selects = append(sym.Selects, kconfig.RevDepEntry{TargetName: target, Cond: cond})
		case "imply":
			p.pos++
			target, cond := parseTargetAndIf(p.table, body)
			sym.Implies = append(sym.Implies, kconfig.RevDepEntry{TargetName: target, Cond: cond})
		case "set":
			p.pos++
			if strings.HasPrefix(body, "default") {
				target, rhs, cond := parseSetClause(p.table, strings.TrimSpace(strings.TrimPrefix(body, "default")))
				sym.SetDefaults = append(sym.SetDefaults, kconfig.SetEntry{TargetName: target, RHS: rhs, Cond: cond})
			} else {
				target, rhs, cond := parseSetClause(p.table, body)
				sym.Sets = append(sym.Sets, kconfig.SetEntry{TargetName: target, RHS: rhs, Cond: cond})
			}
		case "range":
			p.pos++
			low, high, cond := parseRangeArgs(p.table, body)
			sym.Ranges = append(sym.Ranges, kconfig.RangeEntry{Low: low, High: high, Cond: cond})
		case "help", "---help---":
			p.pos++
			sym.Help = p.consumeHelp()
		case "option":
			p.pos++
			if strings.HasPrefix(body, "env") {
				// deprecated `option env=<NAME>`; accepted and ignored.
			}
		case "warning":
			p.pos++
			text, cond := parsePromptArgs(p.table, body)
			sym.Warn = &kconfig.Warning{Message: text, Cond: cond}
		default:
			goto done
		}
	}
done:
	return sym, nil
}

// consumeHelp reads a help body: every following line indented at least
// as much as the first non-blank body line, per Kconfig's convention
// that a help block ends at the first line that dedents below it.
func (p *Parser) consumeHelp() string {
	var body []string
	baseIndent := -1
	for {
		l, ok := p.peek()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(l.raw)
		if trimmed == "" {
			body = append(body, "")
			p.pos++
			continue
		}
		ind := indentOf(l.raw)
		if baseIndent == -1 {
			baseIndent = ind
		}
		if ind < baseIndent {
			break
		}
		body = append(body, strings.TrimPrefix(l.raw, strings.Repeat(" ", ind)))
		p.pos++
	}
	for len(body) > 0 && body[len(body)-1] == "" {
		body = body[:len(body)-1]
	}
	return strings.Join(body, "\n")
}

func kindFor(kw string) expr.Kind {
	switch kw {
	case "bool", "tristate":
		return expr.KindBool
	case "int":
		return expr.KindInt
	case "hex":
		return expr.KindHex
	case "float":
		return expr.KindFloat
	default:
		return expr.KindString
	}
}

// parsePromptArgs splits "PROMPT_TEXT if COND" into its text and optional
// condition (defaulting to y).
func parsePromptArgs(table *kconfig.Table, rest string) (string, *expr.Expr) {
	text, tail := splitQuotedHead(rest)
	cond := parseIfTail(table, tail)
	return text, cond
}

func parseValueAndIf(table *kconfig.Table, rest string) (*expr.Expr, *expr.Expr) {
	head, tail := splitIfTail(rest)
	val := parseExprString(table, head)
	cond := parseIfTail(table, tail)
	return val, cond
}

func parseTargetAndIf(table *kconfig.Table, rest string) (string, *expr.Expr) {
	head, tail := splitIfTail(rest)
	return strings.TrimSpace(head), parseIfTail(table, tail)
}

func parseSetClause(table *kconfig.Table, rest string) (string, *expr.Expr, *expr.Expr) {
	parts := strings.SplitN(rest, "=", 2)
	target := strings.TrimSpace(parts[0])
	var rhs *expr.Expr
	var cond *expr.Expr
	if len(parts) == 2 {
		rhsText, tail := splitIfTail(parts[1])
		rhs = parseExprString(table, rhsText)
		cond = parseIfTail(table, tail)
	}
	return target, rhs, cond
}

func parseRangeArgs(table *kconfig.Table, rest string) (*expr.Expr, *expr.Expr, *expr.Expr) {
	head, tail := splitIfTail(rest)
	fields := strings.Fields(head)
	var low, high *expr.Expr
	if len(fields) >= 1 {
		low = parseExprString(table, fields[0])
	}
	if len(fields) >= 2 {
		high = parseExprString(table, fields[1])
	}
	cond := parseIfTail(table, tail)
	return low, high, cond
}

// splitIfTail separates "EXPR if COND" into EXPR and the remaining "if
// COND" (or "" when there is no `if` guard).
func splitIfTail(s string) (string, string) {
	idx := indexWord(s, "if")
	if idx < 0 {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx:])
}

func parseIfTail(table *kconfig.Table, tail string) *expr.Expr {
	if tail == "" {
		return expr.ConstY
	}
	tail = strings.TrimSpace(strings.TrimPrefix(tail, "if"))
	return parseExprString(table, tail)
}

// splitQuotedHead pulls a leading quoted string (the prompt text) off the
// front of s, returning the unquoted text and the remainder.
func splitQuotedHead(s string) (string, string) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || (s[0] != '"' && s[0] != '\'') {
		head, tail := splitIfTail(s)
		return head, tail
	}
	quote := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == quote {
			return unquote(s[:i+1]), strings.TrimSpace(s[i+1:])
		}
	}
	return unquote(s), ""
}

func indexWord(s, word string) int {
	fields := strings.Fields(s)
	off := 0
	for _, f := range fields {
		idx := strings.Index(s[off:], f)
		if f == word {
			return off + idx
		}
		off += idx + len(f)
	}
	return -1
}
