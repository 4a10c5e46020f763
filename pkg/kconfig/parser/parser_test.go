package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFileExpandsEnvMacros(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Kconfig", `
config BOARD
	string "Board name"
	default "$(BOARD_NAME)"
`)
	rep := report.NewBuilder(report.VerbosityVerbose)
	table := kconfig.NewTable(rep)
	p := NewParser(table, rep, map[string]string{"BOARD_NAME": "esp32"})
	if err := p.ParseFile(path); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if err := table.FinalizeDependencies(); err != nil {
		t.Fatalf("FinalizeDependencies: %v", err)
	}

	sym, ok := table.Lookup("BOARD")
	if !ok {
		t.Fatal("BOARD symbol not defined")
	}
	if got := sym.StrValue().AsString(); got != "esp32" {
		t.Fatalf("BOARD default = %q, want %q", got, "esp32")
	}
}

func TestParseFileSplicesSourceDirective(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub.kconfig", `
config FROM_SUB
	bool "defined in a sourced file"
	default y
`)
	path := writeFile(t, dir, "Kconfig", `
source "sub.kconfig"

config TOP
	bool "top level"
	default n
`)
	rep := report.NewBuilder(report.VerbosityVerbose)
	table := kconfig.NewTable(rep)
	p := NewParser(table, rep, nil)
	if err := p.ParseFile(path); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if err := table.FinalizeDependencies(); err != nil {
		t.Fatalf("FinalizeDependencies: %v", err)
	}

	sub, ok := table.Lookup("FROM_SUB")
	if !ok || sub.BoolValue().String() != "y" {
		t.Fatalf("FROM_SUB not loaded from sourced file as expected")
	}
	if _, ok := table.Lookup("TOP"); !ok {
		t.Fatal("TOP not defined after sourcing")
	}
}

func TestParseFileRejectsUnbalancedChoiceBlock(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Kconfig", `
choice
	prompt "never closed"

config ONLY
	bool "only member"
`)
	rep := report.NewBuilder(report.VerbosityVerbose)
	table := kconfig.NewTable(rep)
	p := NewParser(table, rep, nil)
	err := p.ParseFile(path)
	if err == nil {
		t.Fatal("ParseFile() = nil, want a syntax error for a missing endchoice")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error = %T, want *ParseError", err)
	}
	if pe.Class != ClassSyntax {
		t.Fatalf("ParseError.Class = %q, want %q", pe.Class, ClassSyntax)
	}
}

func TestParseFileUndefinedSymbolReferenceEvaluatesToNo(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Kconfig", `
config USES_GHOST
	bool "depends on something never declared"
	depends on GHOST
	default y
`)
	rep := report.NewBuilder(report.VerbosityVerbose)
	table := kconfig.NewTable(rep)
	p := NewParser(table, rep, nil)
	if err := p.ParseFile(path); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if err := table.FinalizeDependencies(); err != nil {
		t.Fatalf("FinalizeDependencies: %v", err)
	}

	sym, _ := table.Lookup("USES_GHOST")
	if got := sym.BoolValue().String(); got != "n" {
		t.Fatalf("USES_GHOST = %q, want n (undefined dependency evaluates to n)", got)
	}

	foundWarning := false
	for _, d := range rep.All() {
		if d.Category == report.CategoryUndefinedSymbol {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Fatal("no undefined-symbol diagnostic recorded for GHOST")
	}
}
