// Package kconfig implements the Kconfig symbol table, menu tree, and
// constraint evaluator described in spec.md sections 3 and 4.1-4.3. It is
// the core of the toolchain: everything else in this repository (the
// parser, the loader/writer, the policy engine, the JSON server) is a
// collaborator consuming the types and evaluation methods defined here.
package kconfig

import (
	"fmt"

	"github.com/openfroyo/kconfig/pkg/kconfig/expr"
)

// SourceLoc is a file/line pointer attached to every entry for
// diagnostics, matching the "source-location metadata" attribute spec.md
// section 3 requires on Symbol.
type SourceLoc struct {
	File string
	Line int
}

func (l SourceLoc) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Origin identifies where a user assignment came from, per spec.md
// section 3's User assignment record.
type Origin int

const (
	OriginNone Origin = iota
	OriginCommandLine
	OriginPrimaryConfig
	OriginDefaultsFile
	OriginReset
)

// Assignment is a symbol's current user-provided value, or its absence.
type Assignment struct {
	RawValue  string
	Origin    Origin
	IsDefault bool
}

// CondExpr is a (value-or-target, condition) pair shared by defaults,
// selects, implies, sets, and ranges.
type DefaultEntry struct {
	Value *expr.Expr
	Cond  *expr.Expr
}

type RevDepEntry struct {
	TargetName string
	Target     *Symbol
	Cond       *expr.Expr
}

type SetEntry struct {
	TargetName string
	Target     *Symbol
	RHS        *expr.Expr
	Cond       *expr.Expr
}

type RangeEntry struct {
	Low, High *expr.Expr
	Cond      *expr.Expr
}

type Prompt struct {
	Text string
	Cond *expr.Expr
}

type Warning struct {
	Message string
	Cond    *expr.Expr
}

// Symbol is a named configuration option, per spec.md section 3.
type Symbol struct {
	Name string
	Kind expr.Kind

	Defaults    []DefaultEntry
	Selects     []RevDepEntry
	Implies     []RevDepEntry
	Sets        []SetEntry
	SetDefaults []SetEntry
	Ranges      []RangeEntry

	DirectDep *expr.Expr
	Prompt    *Prompt
	Warn      *Warning
	Help      string

	Node *MenuNode
	Loc  SourceLoc

	// Choice is non-nil when this symbol is a member of a choice group.
	Choice *Choice

	// IgnoreMultipleDefinition mirrors the `# ignore: multiple-definition`
	// pragma from spec.md invariant 1.
	IgnoreMultipleDefinition bool

	// DefinitionCount is the number of `config`/`menuconfig` blocks that
	// have declared this symbol (spec.md invariant 1, "multiple
	// declarations with the same name merge... and raise a notification
	// unless `# ignore: multiple-definition` is attached").
	DefinitionCount int

	// Undefined is true for symbols synthesized on first reference rather
	// than declared by a `config` entry (spec.md section 4.2).
	Undefined bool

	// user holds the current user assignment, if any.
	user *Assignment

	// table is the owning symbol table, used to reach the shared
	// undefined-symbol warning deduplicator and the invalidation graph.
	table *Table

	// reverse dependents: symbols and choices whose computed fields
	// depend on this one, built during FinalizeDependencies (spec.md
	// "Incremental invalidation").
	dependents map[invalidatable]struct{}

	// reverse indices populated during FinalizeDependencies: the other
	// symbols whose select/imply/set/set-default entries name this
	// symbol as their target.
	revSelectedBy    []revSelect
	revImpliedBy     []revSelect
	revSetBy         []revSet
	revSetDefaultBy  []revSet

	// cache
	dirty         bool
	cachedVis     expr.Tristate
	cachedVisSet  bool
	cachedBool    expr.Tristate
	cachedBoolSet bool
	cachedStr     expr.Value
	cachedStrSet  bool
	activeRange   *RangeEntry
	writeToConf   bool
}

type revSelect struct {
	Source *Symbol
	Cond   *expr.Expr
}

type revSet struct {
	Source *Symbol
	RHS    *expr.Expr
	Cond   *expr.Expr
}

// NewSymbol creates a fresh, dirty symbol of the given kind.
func NewSymbol(name string, kind expr.Kind) *Symbol {
	return &Symbol{
		Name:       name,
		Kind:       kind,
		Undefined:  true,
		dependents: make(map[invalidatable]struct{}),
		dirty:      true,
	}
}

// --- expr.SymbolRef ---

func (s *Symbol) RefName() string    { return s.Name }
func (s *Symbol) RefKind() expr.Kind { return s.Kind }
func (s *Symbol) RefUndefined() bool { return s.Undefined }

func (s *Symbol) RefBoolValue() expr.Tristate {
	return s.BoolValue()
}

func (s *Symbol) RefStrValue() expr.Value {
	return s.StrValue()
}

// HasPrompt reports whether the symbol is user-settable.
func (s *Symbol) HasPrompt() bool { return s.Prompt != nil }

// UserAssignment returns the current assignment, or nil.
func (s *Symbol) UserAssignment() *Assignment { return s.user }

// SetUserAssignment installs a user assignment and invalidates this
// symbol's dependents. tbl is accepted for call-site symmetry with
// Choice.SetSelection but is no longer needed once the symbol has been
// registered (s.table is authoritative); it may be nil for a symbol that
// already belongs to a table.
func (s *Symbol) SetUserAssignment(a *Assignment, tbl *Table) {
	s.user = a
	s.invalidate()
}

// ClearUserAssignment reverts the symbol to its computed default
// (spec.md section 3, "Lifecycles").
func (s *Symbol) ClearUserAssignment(tbl *Table) {
	s.user = nil
	s.invalidate()
}

// ClearUserAssignmentQuiet and RestoreUserAssignmentQuiet let a caller
// probe what a symbol's value would be without its current user
// assignment (used by the loader's defaults-policy comparison) without
// disturbing the rest of the table's caches the way a full invalidate
// would.
func (s *Symbol) ClearUserAssignmentQuiet() {
	s.user = nil
	s.markDirty()
}

func (s *Symbol) RestoreUserAssignmentQuiet(a *Assignment) {
	s.user = a
	s.markDirty()
}

// invalidatable is implemented by both Symbol and Choice so the
// dependency graph in table.go can treat them uniformly, per spec.md
// section 9's "Polymorphism across entry kinds" design note.
type invalidatable interface {
	markDirty()
	depKey() string
	depsOut() map[invalidatable]struct{}
}

func (s *Symbol) markDirty() {
	s.dirty = true
	s.cachedVisSet = false
	s.cachedBoolSet = false
	s.cachedStrSet = false
}

func (s *Symbol) depKey() string { return "sym:" + s.Name }

func (s *Symbol) depsOut() map[invalidatable]struct{} { return s.dependents }

// invalidate marks s and every transitive dependent dirty, tolerating
// cycles by visiting each node at most once per call (spec.md section
// 4.3 "Incremental invalidation").
func (s *Symbol) invalidate() {
	if s.table == nil {
		s.markDirty()
		return
	}
	s.table.invalidateFrom(s)
}

// SelectedByCount returns the number of select entries across the table
// that name s as their target.
func (s *Symbol) SelectedByCount() int { return len(s.revSelectedBy) }

// ImpliedByCount returns the number of imply entries across the table
// that name s as their target.
func (s *Symbol) ImpliedByCount() int { return len(s.revImpliedBy) }

// AddDependent registers dep as depending on s's computed fields.
func (s *Symbol) AddDependent(dep invalidatable) {
	if s.dependents == nil {
		s.dependents = make(map[invalidatable]struct{})
	}
	s.dependents[dep] = struct{}{}
}
