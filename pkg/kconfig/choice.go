package kconfig

import "github.com/openfroyo/kconfig/pkg/kconfig/expr"

// Choice is a mutually exclusive group of bool symbols (spec.md section
// 3). Members are ordered by declaration order, which both the
// "first visible member with a default" rule (invariant 3) and the
// "first visible member whose default condition is y" resolution rule
// (section 4.3) depend on.
type Choice struct {
	Name string
	id   string

	Members []*Symbol

	DirectDep *expr.Expr
	VisibleIf *expr.Expr
	Prompt    *Prompt

	Defaults []DefaultEntry

	Node *MenuNode
	Loc  SourceLoc

	table *Table

	deselected bool
	dirty      bool

	cachedSelection    *Symbol
	cachedSelectionSet bool

	dependents map[invalidatable]struct{}
}

func (c *Choice) markDirty() {
	c.dirty = true
	c.cachedSelectionSet = false
}

func (c *Choice) depKey() string { return "choice:" + c.id }

func (c *Choice) depsOut() map[invalidatable]struct{} { return c.dependents }

// AddDependent registers dep as depending on c's computed selection.
func (c *Choice) AddDependent(dep invalidatable) {
	if c.dependents == nil {
		c.dependents = make(map[invalidatable]struct{})
	}
	c.dependents[dep] = struct{}{}
}

// NewChoice creates a fresh, dirty choice.
func NewChoice() *Choice {
	return &Choice{dirty: true}
}

// HasPrompt reports whether the choice is user-visible at all.
func (c *Choice) HasPrompt() bool { return c.Prompt != nil }

// Visible reports whether the choice is currently visible.
func (c *Choice) Visible() expr.Tristate {
	if c.Prompt == nil {
		return expr.No
	}
	if expr.EvalBool(c.Prompt.Cond, c.table.undefHook()) != expr.Yes {
		return expr.No
	}
	if expr.EvalBool(c.DirectDep, c.table.undefHook()) != expr.Yes {
		return expr.No
	}
	return expr.Yes
}

// Selection returns the currently selected member, or nil if the choice
// is deselected or has no visible default member (spec.md invariant 3
// and section 4.3 "Choice resolution").
func (c *Choice) Selection() *Symbol {
	if c.cachedSelectionSet && !c.dirty {
		return c.cachedSelection
	}
	c.dirty = false

	// A member explicitly set to y (by the user or by a reverse
	// dependency) always wins, regardless of declaration order.
	for _, m := range c.Members {
		if m.userIsY() {
			c.cachedSelection = m
			c.cachedSelectionSet = true
			return m
		}
	}

	if c.deselected {
		c.cachedSelection = nil
		c.cachedSelectionSet = true
		return nil
	}

	if c.Visible() != expr.Yes {
		c.cachedSelection = nil
		c.cachedSelectionSet = true
		return nil
	}

	// First visible member whose default condition is y (section 4.3).
	for _, cond := range c.Defaults {
		if expr.EvalBool(cond.Cond, c.table.undefHook()) == expr.Yes {
			if sym := resolveDefaultSymbol(c, cond.Value); sym != nil && sym.Visible() == expr.Yes {
				c.cachedSelection = sym
				c.cachedSelectionSet = true
				return sym
			}
		}
	}

	// Fall back to invariant 3: the first visible member with *any*
	// default clause of its own whose condition is y.
	for _, m := range c.Members {
		if m.Visible() != expr.Yes {
			continue
		}
		for _, d := range m.Defaults {
			if expr.EvalBool(d.Cond, c.table.undefHook()) == expr.Yes {
				c.cachedSelection = m
				c.cachedSelectionSet = true
				return m
			}
		}
	}

	// Plain invariant-3 fallback: first visible member at all.
	for _, m := range c.Members {
		if m.Visible() == expr.Yes {
			c.cachedSelection = m
			c.cachedSelectionSet = true
			return m
		}
	}

	c.cachedSelection = nil
	c.cachedSelectionSet = true
	return nil
}

func resolveDefaultSymbol(c *Choice, valExpr *expr.Expr) *Symbol {
	if valExpr == nil || valExpr.Op != expr.NodeSymbol {
		return nil
	}
	for _, m := range c.Members {
		if m.Name == valExpr.SymName {
			return m
		}
	}
	return nil
}

// userIsY reports whether this symbol's stored user assignment or
// reverse-dependency forcing currently makes it the y-valued member,
// without recursing back through Choice.Selection (which would deadlock
// against this very check).
func (s *Symbol) userIsY() bool {
	if s.Choice == nil {
		return false
	}
	if s.user != nil && s.user.RawValue == "y" {
		return true
	}
	for _, e := range s.revSelectedBy {
		if e.Source.BoolValue() == expr.Yes && expr.EvalBool(e.Cond, s.table.undefHook()) == expr.Yes {
			return true
		}
	}
	for _, e := range s.revSetBy {
		if e.RHS != nil && e.RHS.Op == expr.NodeConst && e.RHS.Const.Kind == expr.KindBool && e.RHS.Const.Tri == expr.Yes &&
			e.Source.BoolValue() == expr.Yes && expr.EvalBool(e.Cond, s.table.undefHook()) == expr.Yes {
			return true
		}
	}
	return false
}

// SetSelection sets member as the choice's y-valued member, deselecting
// every other member, per spec.md invariant 3 ("Setting one member to y
// deselects all others"). Returns an error message if member is the
// currently active member being asked to become n with no replacement,
// per section 4.3's rejection rule -- callers should use Deselect for
// that case instead.
func (c *Choice) SetSelection(member *Symbol) {
	for _, m := range c.Members {
		if m == member {
			m.SetUserAssignment(&Assignment{RawValue: "y", Origin: OriginPrimaryConfig}, c.table)
		} else if m.user != nil {
			m.ClearUserAssignment(c.table)
		}
	}
	c.deselected = false
	c.invalidate()
}

// Deselect attempts to turn off the currently active member without
// selecting a replacement. Per spec.md section 4.3, this is rejected
// when no other member would become y.
func (c *Choice) Deselect() error {
	cur := c.Selection()
	if cur == nil {
		return nil
	}
	// Would any other member become y on its own (e.g. via select)?
	for _, m := range c.Members {
		if m == cur {
			continue
		}
		if m.userIsY() {
			cur.ClearUserAssignment(c.table)
			c.invalidate()
			return nil
		}
	}
	return &DeselectRejected{Choice: c, Member: cur}
}

// DeselectRejected is returned by Choice.Deselect when turning off the
// active member would leave the choice with no y-valued member, per
// spec.md section 4.3 ("Attempting to set the currently-active member to
// n ... is rejected with a user-visible message").
type DeselectRejected struct {
	Choice *Choice
	Member *Symbol
}

func (e *DeselectRejected) Error() string {
	name := e.Choice.Name
	if name == "" {
		name = "<choice>"
	}
	return "cannot deselect " + e.Member.Name + ": choice " + name + " would have no selected member"
}

// invalidate marks c, its members, and every transitive dependent dirty.
// Members are invalidated directly (their BoolValue depends on c's
// selection intrinsically, not through an expression reference) in
// addition to whatever the general dependency graph records.
func (c *Choice) invalidate() {
	c.markDirty()
	for _, m := range c.Members {
		m.markDirty()
	}
	if c.table != nil {
		c.table.invalidateFrom(c)
		for _, m := range c.Members {
			c.table.invalidateFrom(m)
		}
	}
}
