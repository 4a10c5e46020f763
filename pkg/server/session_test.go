package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/loadwrite"
	"github.com/openfroyo/kconfig/pkg/kconfig/parser"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
	"github.com/openfroyo/kconfig/pkg/server/protocol"
)

func buildSession(t *testing.T, src string) *Session {
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

	return NewSession(table, nil, rep, loadwrite.PolicyKconfig)
}

func TestSessionInitialListsPromptedSymbols(t *testing.T) {
	s := buildSession(t, `
config FOO
	bool "Foo support"
	default y

config BAR
	int "Bar count"
	default 3
`)
	msg := s.Initial(3)
	if msg.Version != 3 {
		t.Errorf("Version = %d, want 3", msg.Version)
	}
	if v, ok := msg.Values["FOO"].(bool); !ok || !v {
		t.Errorf("Values[FOO] = %v, want true", msg.Values["FOO"])
	}
	if !msg.Visible["FOO"] {
		t.Error("Visible[FOO] = false, want true")
	}
	if !msg.Defaults["FOO"] {
		t.Error("Defaults[FOO] = false, want true (no user assignment yet)")
	}
}

func TestSessionHandleSetChangesValueAndClearsDefault(t *testing.T) {
	s := buildSession(t, `
config FOO
	bool "Foo support"
	default n
`)
	resp := s.Handle(protocol.Request{
		Version: 3,
		Set:     map[string]interface{}{"FOO": true},
	})
	if resp.HasError() {
		t.Fatalf("unexpected errors: %v", resp.Error)
	}
	if v, ok := resp.Values["FOO"].(bool); !ok || !v {
		t.Errorf("Values[FOO] = %v, want true", resp.Values["FOO"])
	}
	if resp.Defaults["FOO"] {
		t.Error("Defaults[FOO] = true, want false after explicit set")
	}
}

func TestSessionHandleUnsupportedVersion(t *testing.T) {
	s := buildSession(t, `
config FOO
	bool "Foo support"
`)
	resp := s.Handle(protocol.Request{Version: 99})
	if !resp.HasError() {
		t.Fatal("want error for unsupported version")
	}
}

func TestSessionChoiceSelectionExcludesSiblings(t *testing.T) {
	s := buildSession(t, `
choice
	prompt "Pick one"

config M1
	bool "Member one"

config M2
	bool "Member two"

endchoice
`)
	resp := s.Handle(protocol.Request{
		Version: 3,
		Set:     map[string]interface{}{"M2": true},
	})
	if resp.HasError() {
		t.Fatalf("unexpected errors: %v", resp.Error)
	}
	m1, ok := resp.Values["M1"].(bool)
	if !ok || m1 {
		t.Errorf("Values[M1] = %v, want false", resp.Values["M1"])
	}
	m2, ok := resp.Values["M2"].(bool)
	if !ok || !m2 {
		t.Errorf("Values[M2] = %v, want true", resp.Values["M2"])
	}
	if _, seen := resp.Values["OTHER"]; seen {
		t.Error("unrelated symbol reported in a two-member choice response")
	}
}

func TestSessionUnknownSymbolReportsError(t *testing.T) {
	s := buildSession(t, `
config FOO
	bool "Foo support"
`)
	resp := s.Handle(protocol.Request{
		Version: 3,
		Set:     map[string]interface{}{"NOPE": true},
	})
	if !resp.HasError() {
		t.Fatal("want error for unknown symbol")
	}
}

func TestSessionResetAllClearsUserAssignments(t *testing.T) {
	s := buildSession(t, `
config FOO
	bool "Foo support"
	default n
`)
	s.Handle(protocol.Request{Version: 3, Set: map[string]interface{}{"FOO": true}})
	resp := s.Handle(protocol.Request{Version: 3, Reset: []string{"all"}})
	if resp.HasError() {
		t.Fatalf("unexpected errors: %v", resp.Error)
	}
	v, ok := resp.Values["FOO"].(bool)
	if !ok || v {
		t.Errorf("Values[FOO] after reset = %v, want false", resp.Values["FOO"])
	}
	if !resp.Defaults["FOO"] {
		t.Error("Defaults[FOO] after reset = false, want true")
	}
}
