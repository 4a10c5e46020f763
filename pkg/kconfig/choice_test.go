package kconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/expr"
	"github.com/openfroyo/kconfig/pkg/kconfig/parser"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
)

func buildTable(t *testing.T, src string) (*kconfig.Table, *report.Builder) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Kconfig")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	rep := report.NewBuilder(report.VerbosityVerbose)
	table := kconfig.NewTable(rep)
	p := parser.NewParser(table, rep, nil)
	if err := p.ParseFile(path); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if err := table.FinalizeDependencies(); err != nil {
		t.Fatalf("FinalizeDependencies: %v", err)
	}
	return table, rep
}

const choiceSrc = `
choice
	prompt "Pick one"

config FIRST
	bool "First"

config SECOND
	bool "Second"

endchoice
`

func TestChoiceSetSelectionExcludesOtherMembers(t *testing.T) {
	table, _ := buildTable(t, choiceSrc)
	c := table.Choices()[0]
	first, _ := table.Lookup("FIRST")
	second, _ := table.Lookup("SECOND")

	second.SetUserAssignment(&kconfig.Assignment{RawValue: "y", Origin: kconfig.OriginPrimaryConfig}, table)
	c.SetSelection(second)

	if got := c.Selection(); got != second {
		t.Fatalf("Selection() = %v, want SECOND", got)
	}
	if first.BoolValue() != expr.No {
		t.Fatalf("FIRST.BoolValue() = %v after SECOND selected, want n", first.BoolValue())
	}
	if second.BoolValue() != expr.Yes {
		t.Fatalf("SECOND.BoolValue() = %v after being selected, want y", second.BoolValue())
	}

	c.SetSelection(first)
	if second.BoolValue() != expr.No {
		t.Fatalf("SECOND.BoolValue() = %v after FIRST selected, want n", second.BoolValue())
	}
	if first.BoolValue() != expr.Yes {
		t.Fatalf("FIRST.BoolValue() = %v after being selected, want y", first.BoolValue())
	}
}

func TestChoiceDeselectRejectedWhenNoReplacement(t *testing.T) {
	table, _ := buildTable(t, choiceSrc)
	c := table.Choices()[0]
	first, _ := table.Lookup("FIRST")

	c.SetSelection(first)
	if err := c.Deselect(); err == nil {
		t.Fatal("Deselect() = nil, want rejection since no other member would become y")
	}
	if c.Selection() != first {
		t.Fatalf("Selection() = %v after rejected deselect, want FIRST still active", c.Selection())
	}
}

func TestChoiceDeselectAllowedWhenSelectForcesAnotherMember(t *testing.T) {
	table, _ := buildTable(t, `
config FORCER
	bool "Forces SECOND"
	default y
	select SECOND

choice
	prompt "Pick one"

config FIRST
	bool "First"

config SECOND
	bool "Second"

endchoice
`)
	c := table.Choices()[0]
	first, _ := table.Lookup("FIRST")
	second, _ := table.Lookup("SECOND")

	c.SetSelection(first)
	if err := c.Deselect(); err != nil {
		t.Fatalf("Deselect() = %v, want success since SECOND is forced by select", err)
	}
	if c.Selection() != second {
		t.Fatalf("Selection() = %v after deselecting FIRST, want SECOND (forced by select)", c.Selection())
	}
}

func TestSelectBypassesVisibilityOfTarget(t *testing.T) {
	// select forces a symbol to y even if its own prompt condition would
	// otherwise keep it invisible/off -- spec.md section 4.2's reverse
	// dependency rules bypass ordinary visibility gating.
	table, _ := buildTable(t, `
config GATE
	bool "Gate"
	default n

config FORCER
	bool "Forces TARGET"
	default y
	select TARGET

config TARGET
	bool "Target"
	depends on GATE
`)
	target, _ := table.Lookup("TARGET")
	if got := target.BoolValue(); got != expr.Yes {
		t.Fatalf("TARGET.BoolValue() = %v, want y (select bypasses depends on GATE)", got)
	}
}
