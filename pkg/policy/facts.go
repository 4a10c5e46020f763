package policy

import (
	"github.com/openfroyo/kconfig/pkg/kconfig"
)

// BuildFacts converts every symbol in table into the JSON-shaped
// SymbolFact the built-in Rego policies in builtin.go evaluate against,
// the same way pkg/policy's orchestration-domain callers once converted
// an engine.Config's resources into PolicyInput.
func BuildFacts(table *kconfig.Table) []SymbolFact {
	syms := table.Symbols()
	facts := make([]SymbolFact, 0, len(syms))
	for _, sym := range syms {
		fact := SymbolFact{
			Name:              sym.Name,
			Kind:              sym.Kind.String(),
			HasPrompt:         sym.HasPrompt(),
			DefinitionCount:   sym.DefinitionCount,
			IgnoreMultipleDef: sym.IgnoreMultipleDefinition,
			TargetKinds:       make(map[string]string),
			SelectedByCount:   sym.SelectedByCount(),
			ImpliedByCount:    sym.ImpliedByCount(),
		}
		for _, e := range sym.Selects {
			fact.Selects = append(fact.Selects, e.TargetName)
			recordTarget(&fact, e.TargetName, e.Target)
		}
		for _, e := range sym.Implies {
			fact.Implies = append(fact.Implies, e.TargetName)
			recordTarget(&fact, e.TargetName, e.Target)
		}
		for _, e := range sym.Sets {
			fact.Sets = append(fact.Sets, e.TargetName)
			recordTarget(&fact, e.TargetName, e.Target)
		}
		for _, e := range sym.SetDefaults {
			fact.SetDefaults = append(fact.SetDefaults, e.TargetName)
			recordTarget(&fact, e.TargetName, e.Target)
		}
		facts = append(facts, fact)
	}
	return facts
}

func recordTarget(fact *SymbolFact, name string, target *kconfig.Symbol) {
	if target == nil {
		fact.UnresolvedTargets = append(fact.UnresolvedTargets, name)
		return
	}
	fact.TargetKinds[name] = target.Kind.String()
	if target.Undefined {
		fact.UnresolvedTargets = append(fact.UnresolvedTargets, name)
	}
}
