package checker

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/openfroyo/kconfig/pkg/policy"
)

// StarlarkRule is a user-supplied lint rule evaluated once per symbol
// fact. A rule script declares a `check(symbol)` function; its return
// value (a string, or a list of strings) becomes one finding per
// non-empty entry. This lets a team encode naming conventions or
// project-specific constraints the built-in policy rules don't cover,
// the way pkg/config once let operators supply Starlark transforms for
// Terraform resource graphs.
type StarlarkRule struct {
	Name   string
	thread *starlark.Thread
	check  *starlark.Function
}

// NewStarlarkRule compiles src and looks up its `check` function.
func NewStarlarkRule(name, src string) (*StarlarkRule, error) {
	thread := &starlark.Thread{
		Name:  name,
		Print: func(*starlark.Thread, string) {},
	}
	globals, err := starlark.ExecFile(thread, name+".star", src, nil)
	if err != nil {
		return nil, err
	}
	fn, ok := globals["check"].(*starlark.Function)
	if !ok {
		return nil, fmt.Errorf("%s: missing top-level function check(symbol)", name)
	}
	return &StarlarkRule{Name: name, thread: thread, check: fn}, nil
}

// Evaluate runs the rule's check function against every fact, collecting
// every non-empty string result.
func (r *StarlarkRule) Evaluate(facts []policy.SymbolFact) ([]string, error) {
	var findings []string
	for _, fact := range facts {
		arg, err := factToStarlark(fact)
		if err != nil {
			return nil, err
		}
		result, err := starlark.Call(r.thread, r.check, starlark.Tuple{arg}, nil)
		if err != nil {
			return nil, fmt.Errorf("%s(%s): %w", r.Name, fact.Name, err)
		}
		findings = append(findings, collectStrings(result)...)
	}
	return findings, nil
}

func collectStrings(v starlark.Value) []string {
	switch t := v.(type) {
	case starlark.String:
		if t == "" {
			return nil
		}
		return []string{string(t)}
	case starlark.NoneType:
		return nil
	case *starlark.List:
		var out []string
		for i := 0; i < t.Len(); i++ {
			out = append(out, collectStrings(t.Index(i))...)
		}
		return out
	default:
		return nil
	}
}

func factToStarlark(f policy.SymbolFact) (starlark.Value, error) {
	dict := starlark.NewDict(8)
	set := func(k string, v starlark.Value) error { return dict.SetKey(starlark.String(k), v) }
	if err := set("name", starlark.String(f.Name)); err != nil {
		return nil, err
	}
	if err := set("kind", starlark.String(f.Kind)); err != nil {
		return nil, err
	}
	if err := set("has_prompt", starlark.Bool(f.HasPrompt)); err != nil {
		return nil, err
	}
	if err := set("definition_count", starlark.MakeInt(f.DefinitionCount)); err != nil {
		return nil, err
	}
	if err := set("selects", stringList(f.Selects)); err != nil {
		return nil, err
	}
	if err := set("implies", stringList(f.Implies)); err != nil {
		return nil, err
	}
	if err := set("sets", stringList(f.Sets)); err != nil {
		return nil, err
	}
	if err := set("unresolved_targets", stringList(f.UnresolvedTargets)); err != nil {
		return nil, err
	}
	return dict, nil
}

func stringList(ss []string) *starlark.List {
	vals := make([]starlark.Value, len(ss))
	for i, s := range ss {
		vals[i] = starlark.String(s)
	}
	return starlark.NewList(vals)
}
