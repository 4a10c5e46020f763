// Package policy runs post-parse semantic validation over a Kconfig
// symbol table using OPA/Rego, the way this repository's orchestration
// engine evaluated resource policies before it became a Kconfig
// toolchain: Kconfig facts go in as JSON-shaped input, Rego rules emit
// structured findings.
package policy

import "time"

// Severity mirrors report.Severity's vocabulary; Evaluate's callers
// convert a Finding straight into a report.Diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Policy is a named Rego rule bundle evaluated once per SymbolFact.
type Policy struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rego        string `json:"rego"`
	Severity    Severity `json:"severity"`
	Enabled     bool     `json:"enabled"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Finding is one Rego `deny` result, normalized across policies.
type Finding struct {
	Policy   string   `json:"policy"`
	Symbol   string   `json:"symbol,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// PolicyBundle groups related policies, e.g. the built-in set versus a
// user-supplied bundle of extra lint rules.
type PolicyBundle struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Policies  []Policy  `json:"policies"`
	CreatedAt time.Time `json:"created_at"`
}

// SymbolFact is the JSON-shaped view of one symbol handed to Rego as
// `input`, covering the checks spec.md assigns to post-parse validation:
// section 4.3's "a select/imply/set whose target is non-bool is an error
// at parse-completion", and section 4.6's "multiple-definition" and
// "unused reverse dependency" diagnostic categories.
type SymbolFact struct {
	Name              string            `json:"name"`
	Kind              string            `json:"kind"`
	HasPrompt         bool              `json:"has_prompt"`
	DefinitionCount   int               `json:"definition_count"`
	IgnoreMultipleDef bool              `json:"ignore_multiple_definition"`
	Selects           []string          `json:"selects"`
	Implies           []string          `json:"implies"`
	Sets              []string          `json:"sets"`
	SetDefaults       []string          `json:"set_defaults"`
	TargetKinds       map[string]string `json:"target_kinds"`
	SelectedByCount   int               `json:"selected_by_count"`
	ImpliedByCount    int               `json:"implied_by_count"`
	UnresolvedTargets []string          `json:"unresolved_targets"`
}

// Report is the aggregate result of evaluating every enabled policy
// against every fact in one pass.
type Report struct {
	Findings         []Finding `json:"findings"`
	EvaluatedAt      time.Time `json:"evaluated_at"`
	EvaluatedPolicies []string `json:"evaluated_policies"`
	Duration         time.Duration `json:"duration"`
}

// HasErrors reports whether any finding is at error severity.
func (r *Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}
