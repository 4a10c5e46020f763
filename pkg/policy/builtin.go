package policy

import (
	"time"
)

// GetBuiltinPolicies returns the built-in Kconfig semantic validation
// rules named in spec.md section 4.6.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		nonBoolTargetPolicy(),
		unresolvedReverseDepPolicy(),
		multipleDefinitionPolicy(),
	}
}

// nonBoolTargetPolicy flags a select/imply/set whose target is non-bool,
// which spec.md section 4.3 calls out as an error: select and imply only
// make sense against a tristate-valued symbol, and set only makes sense
// against the kind its right-hand side actually produces.
func nonBoolTargetPolicy() Policy {
	return Policy{
		Name:        "non-bool-target",
		Description: "Flags select/imply whose target symbol is not bool or tristate",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"select", "imply", "kind"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package kconfig.policies.nonbooltarget

import rego.v1

deny contains violation if {
	sym := input.symbol
	some target in sym.selects
	kind := sym.target_kinds[target]
	kind != "bool"
	kind != "tristate"
	violation := {
		"message": sprintf("%s selects %s, which is kind %s, not bool or tristate", [sym.name, target, kind]),
		"severity": "error",
		"symbol": sym.name,
	}
}

deny contains violation if {
	sym := input.symbol
	some target in sym.implies
	kind := sym.target_kinds[target]
	kind != "bool"
	kind != "tristate"
	violation := {
		"message": sprintf("%s implies %s, which is kind %s, not bool or tristate", [sym.name, target, kind]),
		"severity": "error",
		"symbol": sym.name,
	}
}`,
	}
}

// unresolvedReverseDepPolicy flags a select/imply/set/set-default whose
// target symbol was never defined by any parsed source, i.e. exists in
// the table only as an undefined forward reference (spec.md section
// 4.2's undefined-symbol diagnostic, surfaced here as a policy finding
// rather than a parse-time warning so bundles can escalate its severity).
func unresolvedReverseDepPolicy() Policy {
	return Policy{
		Name:        "unresolved-reverse-dependency",
		Description: "Flags select/imply/set targets that are never defined",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"select", "imply", "set", "undefined"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package kconfig.policies.unresolvedrevdep

import rego.v1

deny contains violation if {
	sym := input.symbol
	some target in sym.unresolved_targets
	violation := {
		"message": sprintf("%s names %s as a reverse-dependency target, but %s is never defined", [sym.name, target, target]),
		"severity": "warning",
		"symbol": sym.name,
	}
}`,
	}
}

// multipleDefinitionPolicy flags a symbol declared by more than one
// config entry without the `# ignore: multiple-definition` pragma
// (spec.md invariant 1).
func multipleDefinitionPolicy() Policy {
	return Policy{
		Name:        "multiple-definition",
		Description: "Flags a symbol declared by more than one config entry without the ignore pragma",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"definition"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package kconfig.policies.multipledef

import rego.v1

deny contains violation if {
	sym := input.symbol
	sym.definition_count > 1
	not sym.ignore_multiple_definition
	violation := {
		"message": sprintf("%s is defined %d times", [sym.name, sym.definition_count]),
		"severity": "error",
		"symbol": sym.name,
	}
}`,
	}
}
