package report

import "testing"

func TestStatusReflectsWorstSeverity(t *testing.T) {
	cases := []struct {
		name string
		add  func(b *Builder)
		want Status
	}{
		{"empty", func(b *Builder) {}, StatusOK},
		{"info-only", func(b *Builder) { b.Infof(CategoryStyle, Location{}, "fyi") }, StatusOK},
		{"notification", func(b *Builder) { b.Notify(CategoryStyle, Location{}, "fyi") }, StatusOKWithNotifications},
		{"warning", func(b *Builder) { b.Warnf(CategoryUndefinedSymbol, Location{}, "warn") }, StatusOKWithWarnings},
		{"error", func(b *Builder) { b.Errorf(CategorySyntax, Location{}, "bad") }, StatusFailed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := NewBuilder(VerbosityVerbose)
			c.add(b)
			if got := b.Status(); got != c.want {
				t.Fatalf("Status() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestFilteredRespectsVerbosity(t *testing.T) {
	b := NewBuilder(VerbosityQuiet)
	b.Infof(CategoryStyle, Location{}, "info")
	b.Warnf(CategoryUndefinedSymbol, Location{}, "warn")
	b.Errorf(CategorySyntax, Location{}, "err")

	if got := b.Filtered(); len(got) != 1 || got[0].Severity != SeverityError {
		t.Fatalf("Filtered() at VerbosityQuiet = %v, want only the error", got)
	}

	b2 := NewBuilder(VerbosityDefault)
	b2.Infof(CategoryStyle, Location{}, "info")
	b2.Warnf(CategoryUndefinedSymbol, Location{}, "warn")
	if got := b2.Filtered(); len(got) != 1 || got[0].Severity != SeverityWarning {
		t.Fatalf("Filtered() at VerbosityDefault = %v, want only the warning", got)
	}

	b3 := NewBuilder(VerbosityVerbose)
	b3.Infof(CategoryStyle, Location{}, "info")
	b3.Warnf(CategoryUndefinedSymbol, Location{}, "warn")
	if got := b3.Filtered(); len(got) != 2 {
		t.Fatalf("Filtered() at VerbosityVerbose = %v, want both diagnostics", got)
	}
}

func TestHasErrorsAndResetClearsDiagnostics(t *testing.T) {
	b := NewBuilder(VerbosityVerbose)
	b.Errorf(CategorySemantic, Location{}, "boom")
	if !b.HasErrors() {
		t.Fatal("HasErrors() = false after Errorf, want true")
	}
	b.Reset()
	if b.HasErrors() {
		t.Fatal("HasErrors() = true after Reset, want false")
	}
	if len(b.All()) != 0 {
		t.Fatalf("All() = %v after Reset, want empty", b.All())
	}
}

func TestLocationStringFormatsFileAndLine(t *testing.T) {
	if got := (Location{}).String(); got != "" {
		t.Fatalf("empty Location.String() = %q, want empty", got)
	}
	if got := (Location{File: "Kconfig"}).String(); got != "Kconfig" {
		t.Fatalf("Location{File} .String() = %q, want %q", got, "Kconfig")
	}
	if got := (Location{File: "Kconfig", Line: 12}).String(); got != "Kconfig:12" {
		t.Fatalf("Location.String() = %q, want %q", got, "Kconfig:12")
	}
}
