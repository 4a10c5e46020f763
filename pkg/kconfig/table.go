package kconfig

import (
	"errors"
	"fmt"
	"sync"

	"github.com/openfroyo/kconfig/pkg/kconfig/expr"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
)

// Table owns every Symbol and Choice parsed from a Kconfig source tree,
// the menu it forms, and the dependency graph that drives incremental
// invalidation, per spec.md section 3 ("Symbol table & menu tree") and
// section 4.3 ("Incremental invalidation").
type Table struct {
	symbols map[string]*Symbol
	choices []*Choice

	Root *MenuNode

	menuByID map[string]*MenuNode

	Report *report.Builder

	mu        sync.Mutex
	undefSeen map[string]struct{}
}

// NewTable creates an empty table reporting into rep.
func NewTable(rep *report.Builder) *Table {
	return &Table{
		symbols:   make(map[string]*Symbol),
		menuByID:  make(map[string]*MenuNode),
		undefSeen: make(map[string]struct{}),
		Report:    rep,
	}
}

// DefineSymbol returns the named symbol, creating it as an undefined
// placeholder of the given kind if it has not been declared yet (spec.md
// section 4.2, "Undefined symbol handling"). A later `config` block
// clears Undefined and may change Kind.
func (t *Table) DefineSymbol(name string, kind expr.Kind) *Symbol {
	if s, ok := t.symbols[name]; ok {
		return s
	}
	s := NewSymbol(name, kind)
	s.table = t
	t.symbols[name] = s
	return s
}

// Lookup returns the named symbol without creating it.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	s, ok := t.symbols[name]
	return s, ok
}

// Symbols returns every known symbol, in no particular order.
func (t *Table) Symbols() []*Symbol {
	out := make([]*Symbol, 0, len(t.symbols))
	for _, s := range t.symbols {
		out = append(out, s)
	}
	return out
}

// AddChoice registers c with the table.
func (t *Table) AddChoice(c *Choice) {
	c.table = t
	c.id = "choice-" + itoa(len(t.choices))
	t.choices = append(t.choices, c)
}

// Choices returns every registered choice in declaration order.
func (t *Table) Choices() []*Choice { return t.choices }

// RegisterMenuNode assigns n a stable ID and indexes it for menu-scoped
// reset lookups (SPEC_FULL.md section 12 item 5).
func (t *Table) RegisterMenuNode(n *MenuNode) {
	n.id = "menu-" + itoa(len(t.menuByID))
	t.menuByID[n.id] = n
}

// MenuNodeByID returns the node with the given stable ID, if any.
func (t *Table) MenuNodeByID(id string) (*MenuNode, bool) {
	n, ok := t.menuByID[id]
	return n, ok
}

// undefHook returns an expr.UndefHook that deduplicates warnings about a
// given undefined symbol name across the table's lifetime, per spec.md
// section 4.2 ("a warning is emitted the first time such a reference is
// evaluated").
func (t *Table) undefHook() expr.UndefHook {
	return t.warnUndef
}

func (t *Table) warnUndef(name string) {
	t.mu.Lock()
	_, seen := t.undefSeen[name]
	if !seen {
		t.undefSeen[name] = struct{}{}
	}
	t.mu.Unlock()
	if seen || t.Report == nil {
		return
	}
	t.Report.Warnf(report.CategoryUndefinedSymbol, report.Location{}, "reference to undefined symbol %q evaluates to n", name)
}

// invalidateFrom walks the dependency graph outward from start, marking
// every transitive dependent dirty. Each node is visited at most once per
// call, which makes the walk safe over a graph containing cycles (spec.md
// section 4.3, "tolerate cycles... without infinite recursion").
func (t *Table) invalidateFrom(start invalidatable) {
	visited := map[string]bool{start.depKey(): true}
	queue := []invalidatable{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dep := range cur.depsOut() {
			if visited[dep.depKey()] {
				continue
			}
			visited[dep.depKey()] = true
			dep.markDirty()
			queue = append(queue, dep)
		}
	}
}

// FinalizeDependencies builds the reverse select/imply/set indices and the
// generic invalidation adjacency graph from every expression reachable
// from a symbol or choice's entries. It must be called once after parsing
// completes and before any evaluation is performed (spec.md section 4.3).
//
// It returns a non-nil error if any symbol with select/imply/set/set
// default entries is not itself bool, per spec.md section 4.3 ("For all
// four, the source must be a bool symbol; the evaluator validates this
// at parse-completion time") and section 7's error table ("Non-bool
// source for select/imply/set/set default | Post-parse | error | reject
// configuration"). Every finding is also recorded on the table's report
// as a CategorySemantic error, so callers that inspect the report
// instead of the returned error still see it.
func (t *Table) FinalizeDependencies() error {
	for _, s := range t.symbols {
		t.wireRevDeps(s)
		t.wireExprDeps(s, s.DirectDep)
		if s.Prompt != nil {
			t.wireExprDeps(s, s.Prompt.Cond)
		}
		if s.Warn != nil {
			t.wireExprDeps(s, s.Warn.Cond)
		}
		for _, d := range s.Defaults {
			t.wireExprDeps(s, d.Value)
			t.wireExprDeps(s, d.Cond)
		}
		for _, r := range s.Ranges {
			t.wireExprDeps(s, r.Low)
			t.wireExprDeps(s, r.High)
			t.wireExprDeps(s, r.Cond)
		}
		for _, e := range s.Selects {
			t.wireExprDeps(s, e.Cond)
		}
		for _, e := range s.Implies {
			t.wireExprDeps(s, e.Cond)
		}
		for _, e := range s.Sets {
			t.wireExprDeps(s, e.RHS)
			t.wireExprDeps(s, e.Cond)
		}
		for _, e := range s.SetDefaults {
			t.wireExprDeps(s, e.RHS)
			t.wireExprDeps(s, e.Cond)
		}
	}
	for _, c := range t.choices {
		t.wireExprDeps(c, c.DirectDep)
		t.wireExprDeps(c, c.VisibleIf)
		if c.Prompt != nil {
			t.wireExprDeps(c, c.Prompt.Cond)
		}
		for _, d := range c.Defaults {
			t.wireExprDeps(c, d.Value)
			t.wireExprDeps(c, d.Cond)
		}
		for _, m := range c.Members {
			// A choice's selection depends on every member's visibility
			// and default clauses, and vice versa.
			m.AddDependent(c)
			c.AddDependent(m)
		}
	}
	return t.validateReverseDepSources()
}

// NonBoolReverseDepSourceError reports a symbol that declares select,
// imply, set, or set-default entries while not itself being bool,
// violating spec.md section 4.3's "the source must be a bool symbol"
// rule.
type NonBoolReverseDepSourceError struct {
	Symbol string
	Kind   expr.Kind
}

func (e *NonBoolReverseDepSourceError) Error() string {
	return fmt.Sprintf("%s has select/imply/set/set-default entries but is kind %s, not bool", e.Symbol, e.Kind)
}

// validateReverseDepSources checks every symbol's kind against its own
// select/imply/set/set-default entries, reporting and collecting one
// NonBoolReverseDepSourceError per violation.
func (t *Table) validateReverseDepSources() error {
	var errs []error
	for _, s := range t.symbols {
		if s.Undefined || s.Kind == expr.KindBool {
			continue
		}
		if len(s.Selects) == 0 && len(s.Implies) == 0 && len(s.Sets) == 0 && len(s.SetDefaults) == 0 {
			continue
		}
		err := &NonBoolReverseDepSourceError{Symbol: s.Name, Kind: s.Kind}
		errs = append(errs, err)
		if t.Report != nil {
			t.Report.Errorf(report.CategorySemantic, report.Location(s.Loc), "%s", err.Error())
		}
	}
	return errors.Join(errs...)
}

// wireExprDeps makes every symbol referenced in e a dependency of owner:
// when the referenced symbol's value changes, owner must recompute.
func (t *Table) wireExprDeps(owner invalidatable, e *expr.Expr) {
	for _, ref := range e.Symbols() {
		if sym, ok := ref.(*Symbol); ok {
			sym.AddDependent(owner)
		}
	}
}

// wireRevDeps resolves the target of every select/imply/set/set-default
// entry on s and records the reverse index on the target symbol, then
// wires the invalidation edge: s changing must recompute its target.
func (t *Table) wireRevDeps(s *Symbol) {
	for i := range s.Selects {
		e := &s.Selects[i]
		if e.Target == nil {
			e.Target, _ = t.symbols[e.TargetName]
			if e.Target == nil {
				e.Target = t.DefineSymbol(e.TargetName, expr.KindBool)
			}
		}
		e.Target.revSelectedBy = append(e.Target.revSelectedBy, revSelect{Source: s, Cond: e.Cond})
		s.AddDependent(e.Target)
	}
	for i := range s.Implies {
		e := &s.Implies[i]
		if e.Target == nil {
			e.Target, _ = t.symbols[e.TargetName]
			if e.Target == nil {
				e.Target = t.DefineSymbol(e.TargetName, expr.KindBool)
			}
		}
		e.Target.revImpliedBy = append(e.Target.revImpliedBy, revSelect{Source: s, Cond: e.Cond})
		s.AddDependent(e.Target)
	}
	for i := range s.Sets {
		e := &s.Sets[i]
		if e.Target == nil {
			e.Target, _ = t.symbols[e.TargetName]
			if e.Target == nil {
				e.Target = t.DefineSymbol(e.TargetName, expr.KindString)
			}
		}
		e.Target.revSetBy = append(e.Target.revSetBy, revSet{Source: s, RHS: e.RHS, Cond: e.Cond})
		s.AddDependent(e.Target)
	}
	for i := range s.SetDefaults {
		e := &s.SetDefaults[i]
		if e.Target == nil {
			e.Target, _ = t.symbols[e.TargetName]
			if e.Target == nil {
				e.Target = t.DefineSymbol(e.TargetName, expr.KindString)
			}
		}
		e.Target.revSetDefaultBy = append(e.Target.revSetDefaultBy, revSet{Source: s, RHS: e.RHS, Cond: e.Cond})
		s.AddDependent(e.Target)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
