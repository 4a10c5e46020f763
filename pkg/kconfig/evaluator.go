package kconfig

import (
	"math/big"

	"github.com/openfroyo/kconfig/pkg/kconfig/expr"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
)

// hook returns the table's undefined-symbol warning hook, or nil for a
// symbol that has not been attached to a table yet (e.g. in a unit test
// building a Symbol by hand).
func (s *Symbol) hook() expr.UndefHook {
	if s.table == nil {
		return nil
	}
	return s.table.undefHook()
}

// Visible reports whether s has a prompt, a y-valued prompt condition,
// and a y-valued direct dependency (spec.md section 4.3). visible_if on
// an enclosing menu is folded into DirectDep by the parser, so it needs
// no separate check here.
func (s *Symbol) Visible() expr.Tristate {
	if s.cachedVisSet {
		return s.cachedVis
	}
	v := s.computeVisible()
	s.cachedVis = v
	s.cachedVisSet = true
	return v
}

func (s *Symbol) computeVisible() expr.Tristate {
	if s.Prompt == nil {
		return expr.No
	}
	h := s.hook()
	if expr.EvalBool(s.Prompt.Cond, h) != expr.Yes {
		return expr.No
	}
	if expr.EvalBool(s.DirectDep, h) != expr.Yes {
		return expr.No
	}
	return expr.Yes
}

// BoolValue returns the symbol's effective value coerced to a tristate,
// per expr.Value.Bool's "non-bool symbols always evaluate to n" rule.
func (s *Symbol) BoolValue() expr.Tristate {
	return s.StrValue().Bool()
}

// StrValue returns the symbol's effective value, computed via the eight
// priority levels of spec.md section 4.3 and, for numeric kinds, clamped
// to the active range.
func (s *Symbol) StrValue() expr.Value {
	if s.cachedStrSet {
		return s.cachedStr
	}
	v := s.computeValue()
	if s.Kind == expr.KindInt || s.Kind == expr.KindHex || s.Kind == expr.KindFloat {
		v = s.clampToRange(v)
	}
	s.cachedStr = v
	s.cachedStrSet = true
	return v
}

func (s *Symbol) computeValue() expr.Value {
	h := s.hook()

	// Level 1: current user assignment, if it came from the command line
	// or the primary config file.
	if s.user != nil && !s.user.IsDefault &&
		(s.user.Origin == OriginCommandLine || s.user.Origin == OriginPrimaryConfig) {
		if v, err := ParseLiteral(s.Kind, s.user.RawValue); err == nil {
			return v
		}
	}

	// Level 2: a `set` from a y-valued bool source, first match in
	// declaration order. `set` ignores direct_dep and overrides defaults.
	for _, e := range s.revSetBy {
		if e.Source.BoolValue() == expr.Yes && expr.EvalBool(e.Cond, h) == expr.Yes {
			return expr.EvalValue(e.RHS, h)
		}
	}

	if s.Kind == expr.KindBool {
		// Level 3: max over selects from y-valued sources whose condition
		// is y. select ignores the target's direct_dep; a forced y while
		// direct_dep is n is reported but kept (spec.md 4.3).
		best := expr.No
		var forcedBypassingDeps bool
		for _, e := range s.revSelectedBy {
			if e.Source.BoolValue() == expr.Yes && expr.EvalBool(e.Cond, h) == expr.Yes {
				if expr.Yes > best {
					best = expr.Yes
				}
				if expr.EvalBool(s.DirectDep, h) != expr.Yes {
					forcedBypassingDeps = true
				}
			}
		}
		if best == expr.Yes {
			if forcedBypassingDeps && s.table != nil && s.table.Report != nil {
				s.table.Report.Warnf(report.CategorySelectBypass, report.Location(s.Loc), "select forces %s to y while its dependencies evaluate to n", s.Name)
			}
			return expr.BoolValue(expr.Yes)
		}

		// Level 4: max over implies from y-valued sources whose condition
		// is y, but clamped to what direct_dep allows -- an imply never
		// forces y against direct_dep.
		impliedBest := expr.No
		for _, e := range s.revImpliedBy {
			if e.Source.BoolValue() == expr.Yes && expr.EvalBool(e.Cond, h) == expr.Yes {
				if expr.Yes > impliedBest {
					impliedBest = expr.Yes
				}
			}
		}
		if impliedBest == expr.Yes && expr.EvalBool(s.DirectDep, h) == expr.Yes {
			return expr.BoolValue(expr.Yes)
		}
	}

	// Level 5: a user assignment marked as default (origin=defaults_file,
	// or is_default from a primary config), or a `set default` from a
	// y-valued source -- the two compete at the same priority; the stored
	// user-default wins ties, since it reflects the most recently loaded
	// configuration (see DESIGN.md's resolution of this priority tie).
	if s.user != nil && (s.user.IsDefault || s.user.Origin == OriginDefaultsFile) {
		if v, err := ParseLiteral(s.Kind, s.user.RawValue); err == nil {
			if s.ownDefaultMatches(v) {
				return v
			}
			// The stored default-marked value no longer agrees with what
			// the symbol's own set-default/default clauses compute now --
			// a dependency changed since it was recorded. Fall through
			// and recompute fresh instead of trusting the stale literal
			// (spec.md section 8 scenario 2).
		}
	}
	for _, e := range s.revSetDefaultBy {
		if e.Source.BoolValue() == expr.Yes && expr.EvalBool(e.Cond, h) == expr.Yes {
			return expr.EvalValue(e.RHS, h)
		}
	}

	// Level 6: the first `default` clause in declaration order whose
	// condition is y.
	for _, d := range s.Defaults {
		if expr.EvalBool(d.Cond, h) == expr.Yes {
			v := expr.EvalValue(d.Value, h)
			if v.Kind != s.Kind {
				v = coerceValueKind(s.Kind, v)
				if s.table != nil && s.table.Report != nil {
					s.table.Report.Warnf(report.CategoryTypeMismatch, report.Location(s.Loc), "default for %s has a different type than the symbol", s.Name)
				}
			}
			return v
		}
	}

	// Level 7: a bool member of a choice is y iff it is the selected
	// member.
	if s.Kind == expr.KindBool && s.Choice != nil {
		if s.Choice.Selection() == s {
			return expr.BoolValue(expr.Yes)
		}
		return expr.BoolValue(expr.No)
	}

	// Level 8: the type's zero value.
	return expr.ZeroValue(s.Kind)
}

// ownDefaultMatches reports whether stored's literal text still agrees
// with what s's own set-default/default clauses (levels 5's reverse
// half through 8) would compute right now, ignoring the stored
// assignment entirely. Used to detect a default-marked assignment that
// a dependency change has made stale since it was recorded.
func (s *Symbol) ownDefaultMatches(stored expr.Value) bool {
	saved := s.user
	s.user = nil
	fresh := s.computeValue()
	s.user = saved
	return fresh.AsString() == stored.AsString()
}

// coerceValueKind reinterprets v's literal text as kind when a default
// clause's declared type disagrees with the symbol's kind (spec.md
// section 4.3, "type of a default must match the symbol's kind (warning
// if not)"); the original literal is kept as best-effort text on parse
// failure rather than discarded.
func coerceValueKind(kind expr.Kind, v expr.Value) expr.Value {
	if coerced, err := ParseLiteral(kind, v.AsString()); err == nil {
		return coerced
	}
	return expr.ZeroValue(kind)
}

// ActiveRange returns the first range entry whose condition evaluates to
// y, or nil if none applies (spec.md section 4.3, "Range clamping").
func (s *Symbol) ActiveRange() *RangeEntry {
	h := s.hook()
	for i := range s.Ranges {
		r := &s.Ranges[i]
		if expr.EvalBool(r.Cond, h) == expr.Yes {
			return r
		}
	}
	return nil
}

func (s *Symbol) clampToRange(v expr.Value) expr.Value {
	r := s.ActiveRange()
	s.activeRange = r
	if r == nil {
		return v
	}
	h := s.hook()
	low := expr.EvalValue(r.Low, h)
	high := expr.EvalValue(r.High, h)

	lowF := low.AsBigFloat()
	highF := high.AsBigFloat()
	valF := v.AsBigFloat()

	clamped := valF
	violated := false
	if valF.Cmp(lowF) < 0 {
		clamped = lowF
		violated = true
	} else if valF.Cmp(highF) > 0 {
		clamped = highF
		violated = true
	}
	if !violated {
		return v
	}
	if s.table != nil && s.table.Report != nil {
		s.table.Report.Warnf(report.CategoryRangeViolation, report.Location(s.Loc), "%s value out of range, clamped to [%s, %s]", s.Name, low.AsString(), high.AsString())
	}
	return reformatNumeric(s.Kind, clamped)
}

// reformatNumeric rebuilds a typed Value from a clamped numeric
// magnitude, matching the literal-text conventions of ParseLiteral's
// output for the given kind.
func reformatNumeric(kind expr.Kind, f *big.Float) expr.Value {
	n, _ := f.Int64()
	switch kind {
	case expr.KindHex:
		return expr.HexValue(uint64(n), FormatHexCanonical(uint64(n)))
	case expr.KindFloat:
		fv, _ := f.Float64()
		return expr.FloatValue(fv, "")
	default:
		return expr.IntValue(n)
	}
}
