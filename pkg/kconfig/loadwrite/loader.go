package loadwrite

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/expr"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
)

const (
	deprecatedBegin = "# Deprecated options for backward compatibility"
	deprecatedEnd   = "# End of deprecated options"
)

// record is one parsed logical line of a configuration file before it is
// installed as a user assignment.
type record struct {
	name      string
	isNotSet  bool
	raw       string
	isDefault bool
	line      int
}

// Load reads a persisted configuration from r into table, following the
// algorithm of spec.md section 4.4. origin is applied to every resolved
// assignment (OriginPrimaryConfig for the main sdkconfig, OriginDefaultsFile
// for a defaults overlay).
func Load(r io.Reader, table *kconfig.Table, renames *RenameMap, origin kconfig.Origin, rep *report.Builder) error {
	recs, err := scanRecords(r, rep)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		name := renames.Canonical(rec.name)
		sym, ok := table.Lookup(name)
		if !ok {
			sym = table.DefineSymbol(name, guessKind(rec))
		}
		loadedRaw := rec.raw
		if rec.isNotSet {
			loadedRaw = "n"
		}
		if sym.Kind == expr.KindBool && renames.Invert(rec.name) {
			loadedRaw = invertBool(loadedRaw)
		}
		if !sym.HasPrompt() {
			if sym.StrValue().AsString() != loadedRaw {
				rep.Warnf(report.CategoryDefaultMismatchPromptless, report.Location{Line: rec.line}, "dropping record for promptless symbol %s: stored value %q disagrees with Kconfig default %q", name, loadedRaw, sym.StrValue().AsString())
			}
			continue
		}
		sym.SetUserAssignment(&kconfig.Assignment{Origin: origin, IsDefault: rec.isDefault, RawValue: loadedRaw}, table)
	}
	return nil
}

func invertBool(raw string) string {
	if raw == "y" {
		return "n"
	}
	return "y"
}

// DefaultsPolicy resolves a disagreement between a loaded default value
// and the value the Kconfig source would compute on its own, per the
// KCONFIG_DEFAULTS_POLICY input of spec.md section 4.4.
type DefaultsPolicy string

const (
	// PolicySdkconfig keeps the stored value; this is the default.
	PolicySdkconfig DefaultsPolicy = "sdkconfig"
	// PolicyKconfig adopts the value the Kconfig source computes.
	PolicyKconfig DefaultsPolicy = "kconfig"
	// PolicyInteractive defers the decision to the surrounding UI; this
	// package only records the diagnostic and otherwise behaves like
	// PolicySdkconfig, since it has no terminal to prompt through (the
	// interactive prompt itself lives in cmd/kconfig's menuconfig mode).
	PolicyInteractive DefaultsPolicy = "interactive"
)

// ParseDefaultsPolicy parses the KCONFIG_DEFAULTS_POLICY environment
// value, defaulting to PolicySdkconfig for an unrecognized or empty
// input.
func ParseDefaultsPolicy(s string) DefaultsPolicy {
	switch DefaultsPolicy(s) {
	case PolicyKconfig:
		return PolicyKconfig
	case PolicyInteractive:
		return PolicyInteractive
	default:
		return PolicySdkconfig
	}
}

// ApplyDefaultsPolicy compares every default-marked loaded assignment
// against the value its symbol's own `default` clauses would compute,
// and resolves disagreements per policy (spec.md section 4.4, step 6).
// It must run after Load and after FinalizeDependencies.
func ApplyDefaultsPolicy(table *kconfig.Table, policy DefaultsPolicy, rep *report.Builder) {
	for _, sym := range table.Symbols() {
		if !sym.HasPrompt() {
			continue
		}
		a := sym.UserAssignment()
		if a == nil || !a.IsDefault {
			continue
		}
		kconfigDefault := symbolOwnDefault(sym)
		if kconfigDefault == "" || kconfigDefault == a.RawValue {
			continue
		}
		rep.Notify(report.CategoryDefaultMismatchPrompt, report.Location(sym.Loc),
			"%s: stored default %q disagrees with Kconfig default %q (policy=%s)", sym.Name, a.RawValue, kconfigDefault, policy)
		switch policy {
		case PolicyKconfig:
			sym.ClearUserAssignment(table)
		case PolicySdkconfig, PolicyInteractive:
			// keep the stored value; PolicyInteractive's actual prompt
			// happens upstream, before this pass runs, if at all.
		}
	}
}

// symbolOwnDefault evaluates sym's first matching `default` clause in
// isolation, ignoring any installed user assignment, to find out what
// the Kconfig source alone would pick.
func symbolOwnDefault(sym *kconfig.Symbol) string {
	saved := sym.UserAssignment()
	sym.ClearUserAssignmentQuiet()
	v := sym.StrValue()
	if saved != nil {
		sym.RestoreUserAssignmentQuiet(saved)
	}
	return v.AsString()
}

// scanRecords parses the raw lines into records, handling the `#
// default:` pragma and the deprecated-options banner section.
func scanRecords(r io.Reader, rep *report.Builder) ([]record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var recs []record
	pendingDefault := false
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case trimmed == deprecatedBegin, trimmed == deprecatedEnd:
			// Records in the deprecated section are parsed identically
			// to the main section; they reach their canonical symbol
			// through the same RenameMap.Canonical call in Load.
			continue
		case strings.HasPrefix(trimmed, "# default:"):
			pendingDefault = true
			continue
		case strings.HasPrefix(trimmed, "# CONFIG_") && strings.HasSuffix(trimmed, "is not set"):
			name := strings.TrimSuffix(strings.TrimPrefix(trimmed, "# CONFIG_"), "is not set")
			name = strings.TrimSpace(name)
			recs = append(recs, record{name: name, isNotSet: true, isDefault: pendingDefault, line: lineNo})
			pendingDefault = false
		case strings.HasPrefix(trimmed, "#"):
			continue
		case strings.HasPrefix(trimmed, "CONFIG_"):
			eq := strings.IndexByte(trimmed, '=')
			if eq < 0 {
				rep.Warnf(report.CategorySyntax, report.Location{Line: lineNo}, "malformed configuration line %q", trimmed)
				continue
			}
			name := strings.TrimPrefix(trimmed[:eq], "CONFIG_")
			val := unquoteIfString(trimmed[eq+1:])
			recs = append(recs, record{name: name, raw: val, isDefault: pendingDefault, line: lineNo})
			pendingDefault = false
		default:
			rep.Warnf(report.CategorySyntax, report.Location{Line: lineNo}, "unrecognized configuration line %q", trimmed)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	return recs, nil
}

func unquoteIfString(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		inner := s[1 : len(s)-1]
		var sb strings.Builder
		for i := 0; i < len(inner); i++ {
			if inner[i] == '\\' && i+1 < len(inner) && (inner[i+1] == '"' || inner[i+1] == '\\') {
				sb.WriteByte(inner[i+1])
				i++
				continue
			}
			sb.WriteByte(inner[i])
		}
		return sb.String()
	}
	return s
}

// guessKind picks a kind for a record whose symbol was never declared by
// any parsed Kconfig source. Bool is the common case ("is not set" /
// "=y"); anything else falls back to string, which accepts any literal
// without a parse error.
func guessKind(rec record) expr.Kind {
	if rec.isNotSet || rec.raw == "y" {
		return expr.KindBool
	}
	return expr.KindString
}
