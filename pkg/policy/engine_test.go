package policy

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewEngine(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	policies := eng.ListPolicies()
	if len(policies) == 0 {
		t.Fatal("no built-in policies loaded")
	}

	expected := []string{
		"non-bool-target",
		"unresolved-reverse-dependency",
		"multiple-definition",
	}
	for _, name := range expected {
		found := false
		for _, p := range policies {
			if p.Name == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected built-in policy not found: %s", name)
		}
	}
}

func TestEvaluate_NonBoolTarget(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	facts := []SymbolFact{
		{
			Name:        "FOO",
			Kind:        "bool",
			Selects:     []string{"BAR"},
			TargetKinds: map[string]string{"BAR": "string"},
		},
		{
			Name:        "BAZ",
			Kind:        "bool",
			Selects:     []string{"QUX"},
			TargetKinds: map[string]string{"QUX": "bool"},
		},
	}

	report, err := eng.Evaluate(context.Background(), facts)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	found := false
	for _, f := range report.Findings {
		if f.Policy == "non-bool-target" && f.Symbol == "FOO" {
			found = true
		}
		if f.Symbol == "BAZ" {
			t.Errorf("BAZ selects a bool target, should not be flagged: %+v", f)
		}
	}
	if !found {
		t.Error("expected a non-bool-target finding for FOO")
	}
}

func TestEvaluate_UnresolvedReverseDependency(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	facts := []SymbolFact{
		{
			Name:              "FOO",
			Kind:              "bool",
			Selects:           []string{"UNDEFINED_TARGET"},
			UnresolvedTargets: []string{"UNDEFINED_TARGET"},
		},
	}

	report, err := eng.Evaluate(context.Background(), facts)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	found := false
	for _, f := range report.Findings {
		if f.Policy == "unresolved-reverse-dependency" {
			found = true
		}
	}
	if !found {
		t.Error("expected an unresolved-reverse-dependency finding")
	}
}

func TestEvaluate_MultipleDefinition(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	facts := []SymbolFact{
		{Name: "DUP", Kind: "bool", DefinitionCount: 2},
		{Name: "IGNORED_DUP", Kind: "bool", DefinitionCount: 2, IgnoreMultipleDef: true},
		{Name: "SINGLE", Kind: "bool", DefinitionCount: 1},
	}

	report, err := eng.Evaluate(context.Background(), facts)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	var flagged []string
	for _, f := range report.Findings {
		if f.Policy == "multiple-definition" {
			flagged = append(flagged, f.Symbol)
		}
	}
	if len(flagged) != 1 || flagged[0] != "DUP" {
		t.Errorf("expected only DUP flagged, got %v", flagged)
	}
}

func TestEnableDisablePolicy(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	const name = "multiple-definition"

	if err := eng.DisablePolicy(name); err != nil {
		t.Fatalf("failed to disable policy: %v", err)
	}
	p, err := eng.GetPolicy(name)
	if err != nil {
		t.Fatalf("failed to get policy: %v", err)
	}
	if p.Enabled {
		t.Error("policy should be disabled")
	}

	facts := []SymbolFact{{Name: "DUP", Kind: "bool", DefinitionCount: 3}}
	report, err := eng.Evaluate(context.Background(), facts)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	for _, f := range report.Findings {
		if f.Policy == name {
			t.Error("disabled policy should not produce findings")
		}
	}

	if err := eng.EnablePolicy(name); err != nil {
		t.Fatalf("failed to enable policy: %v", err)
	}
	p, err = eng.GetPolicy(name)
	if err != nil {
		t.Fatalf("failed to get policy: %v", err)
	}
	if !p.Enabled {
		t.Error("policy should be enabled")
	}
}

func TestReloadPolicies(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	before := len(eng.ListPolicies())
	if err := eng.ReloadPolicies(context.Background()); err != nil {
		t.Fatalf("failed to reload policies: %v", err)
	}
	after := len(eng.ListPolicies())
	if before != after {
		t.Errorf("expected %d policies after reload, got %d", before, after)
	}
}

func TestListPolicies(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	policies := eng.ListPolicies()
	if len(policies) == 0 {
		t.Fatal("no policies returned")
	}
	for _, p := range policies {
		if p.Name == "" {
			t.Error("policy has empty name")
		}
		if p.Rego == "" {
			t.Error("policy has empty Rego code")
		}
		if p.CreatedAt.IsZero() {
			t.Error("policy has zero CreatedAt")
		}
	}
}

func TestEvaluate_ReportSummary(t *testing.T) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	eng, err := NewEngine(logger)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	facts := []SymbolFact{
		{Name: "A", Kind: "bool", DefinitionCount: 1},
		{Name: "B", Kind: "bool", DefinitionCount: 2},
	}

	report, err := eng.Evaluate(context.Background(), facts)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if !report.HasErrors() {
		t.Error("expected HasErrors to be true for a multiple-definition finding")
	}
	if len(report.EvaluatedPolicies) == 0 {
		t.Error("expected at least one evaluated policy name recorded")
	}
}
