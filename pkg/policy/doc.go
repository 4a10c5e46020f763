// Package policy runs Open Policy Agent (OPA) semantic validation rules
// over a finalized Kconfig symbol table.
//
// It implements the post-parse checks spec.md section 4.6 assigns to
// semantic validation -- a select/imply whose target is not bool, a
// reverse-dependency target that is never defined, a symbol declared
// more than once without the ignore pragma -- as Rego policies, and
// supports loading additional custom policies the same way.
//
// # Architecture
//
//  1. Engine - Compiles and evaluates Rego policies against SymbolFacts
//  2. Loader - Loads policies from files, directories, and bundles
//  3. Types - Policy, Finding, PolicyBundle, SymbolFact, Report
//  4. Built-in Policies - the three rules named above
//
// # Usage
//
//	logger := zerolog.New(os.Stdout)
//	eng, err := policy.NewEngine(logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	facts := policy.BuildFacts(table)
//	report, err := eng.Evaluate(ctx, facts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if report.HasErrors() {
//	    for _, f := range report.Findings {
//	        fmt.Printf("%s: %s: %s\n", f.Severity, f.Symbol, f.Message)
//	    }
//	}
//
// Loading custom policies:
//
//	paths := []string{"/etc/kconfig/policies", "/opt/policies/custom.rego"}
//	if err := eng.LoadPolicies(ctx, paths); err != nil {
//	    log.Fatal(err)
//	}
//
// # Built-in Policies
//
//  1. non-bool-target - select/imply target is not bool
//  2. unresolved-reverse-dependency - select/imply/set target is never defined
//  3. multiple-definition - symbol declared more than once without the ignore pragma
//
// # Custom Policies
//
// Custom policies are Rego modules with a `deny` rule reading
// `input.symbol`:
//
//	package custom.policies.naming
//
//	import rego.v1
//
//	deny contains violation if {
//	    sym := input.symbol
//	    startswith(sym.name, "CONFIG_")
//	    violation := {
//	        "message": sprintf("%s should not repeat the CONFIG_ prefix", [sym.name]),
//	        "severity": "warning",
//	    }
//	}
//
// # Hot Reload
//
// The loader supports watching policy files for changes:
//
//	loader := policy.NewLoader(logger)
//	err = loader.Watch(ctx, paths, func(policies []policy.Policy) error {
//	    return eng.LoadPolicies(ctx, paths)
//	})
package policy
