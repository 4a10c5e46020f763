package kconfig_test

import (
	"testing"

	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
)

func TestRangeClampsOutOfBoundValue(t *testing.T) {
	table, rep := buildTable(t, `
config COUNT
	int "Count"
	range 1 10
	default 5
`)
	sym, _ := table.Lookup("COUNT")
	sym.SetUserAssignment(&kconfig.Assignment{RawValue: "99", Origin: kconfig.OriginPrimaryConfig}, table)

	if got := sym.StrValue().AsString(); got != "10" {
		t.Fatalf("COUNT = %q, want clamped to 10", got)
	}
	foundWarning := false
	for _, d := range rep.All() {
		if d.Category == report.CategoryRangeViolation {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Fatal("no range-violation diagnostic recorded")
	}
}

func TestUserAssignmentOutranksPlainDefault(t *testing.T) {
	table, _ := buildTable(t, `
config FOO
	bool "Foo"
	default n
`)
	sym, _ := table.Lookup("FOO")
	if got := sym.StrValue().AsString(); got != "n" {
		t.Fatalf("FOO before assignment = %q, want n (plain default)", got)
	}
	sym.SetUserAssignment(&kconfig.Assignment{RawValue: "y", Origin: kconfig.OriginPrimaryConfig}, table)
	if got := sym.StrValue().AsString(); got != "y" {
		t.Fatalf("FOO after assignment = %q, want y (user assignment outranks default)", got)
	}
}

func TestSetOverridesPlainDefaultButNotDirectAssignment(t *testing.T) {
	table, _ := buildTable(t, `
config FORCER
	bool "Sets LABEL"
	default y
	set LABEL = "forced"

config LABEL
	string "Label"
	default "plain"
`)
	label, _ := table.Lookup("LABEL")
	if got := label.StrValue().AsString(); got != "forced" {
		t.Fatalf("LABEL = %q, want %q (set outranks plain default)", got, "forced")
	}

	label.SetUserAssignment(&kconfig.Assignment{RawValue: "explicit", Origin: kconfig.OriginPrimaryConfig}, table)
	if got := label.StrValue().AsString(); got != "explicit" {
		t.Fatalf("LABEL = %q, want %q (primary-config assignment outranks set)", got, "explicit")
	}
}
