package loadwrite

import (
	"bufio"
	"fmt"
	"io"

	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/expr"
)

// Write serializes table's evaluated symbols to w in the canonical format
// of spec.md section 4.4, traversing the menu tree in declaration order.
// renames, if non-nil, additionally emits a deprecated section retaining
// every old name with the value of its canonical target (spec.md section
// 4.5).
func Write(w io.Writer, table *kconfig.Table, renames *RenameMap) error {
	bw := bufio.NewWriter(w)

	var writeErr error
	seen := make(map[string]bool)
	table.Root.Walk(func(n *kconfig.MenuNode) {
		if writeErr != nil || n.Sym == nil || seen[n.Sym.Name] {
			return
		}
		seen[n.Sym.Name] = true
		writeErr = writeSymbolRecord(bw, n.Sym)
	})
	if writeErr != nil {
		return writeErr
	}

	if renames != nil {
		if err := writeDeprecatedSection(bw, table, renames, seen); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteMinimal serializes only the symbols whose value disagrees with
// what the Kconfig source would compute on its own, matching `make
// savedefconfig`'s reduced form (SPEC_FULL.md section 12 item 1,
// grounded on kconfiglib's write_min_config/_min_config_contents). The
// result is incomplete on its own but expands back to the full
// configuration when loaded against the same Kconfig source.
func WriteMinimal(w io.Writer, table *kconfig.Table, renames *RenameMap) error {
	bw := bufio.NewWriter(w)
	seen := make(map[string]bool)
	var writeErr error
	table.Root.Walk(func(n *kconfig.MenuNode) {
		if writeErr != nil {
			return
		}
		sym := n.Sym
		if sym == nil || sym.Undefined || seen[sym.Name] {
			return
		}
		seen[sym.Name] = true
		if !sym.HasPrompt() {
			return
		}
		if sym.StrValue().AsString() == symbolOwnDefault(sym) {
			return
		}
		writeErr = writeCanonicalRecord(bw, sym)
	})
	if writeErr != nil {
		return writeErr
	}
	return bw.Flush()
}

func writeSymbolRecord(w *bufio.Writer, sym *kconfig.Symbol) error {
	if !sym.HasPrompt() {
		// Promptless symbols are written with a `# default:` pragma
		// using the Kconfig default value, never a live record.
		return writeDefaultPragmaRecord(w, sym)
	}
	a := sym.UserAssignment()
	if a == nil || a.IsDefault {
		if _, err := fmt.Fprintln(w, "# default:"); err != nil {
			return err
		}
	}
	return writeCanonicalRecord(w, sym)
}

func writeDefaultPragmaRecord(w *bufio.Writer, sym *kconfig.Symbol) error {
	if _, err := fmt.Fprintln(w, "# default:"); err != nil {
		return err
	}
	return writeCanonicalRecord(w, sym)
}

func writeCanonicalRecord(w *bufio.Writer, sym *kconfig.Symbol) error {
	v := sym.StrValue()
	switch sym.Kind {
	case expr.KindBool:
		if v.Bool() == expr.Yes {
			_, err := fmt.Fprintf(w, "CONFIG_%s=y\n", sym.Name)
			return err
		}
		_, err := fmt.Fprintf(w, "# CONFIG_%s is not set\n", sym.Name)
		return err
	case expr.KindHex:
		mag, _ := v.AsBigFloat().Uint64()
		_, err := fmt.Fprintf(w, "CONFIG_%s=%s\n", sym.Name, kconfig.FormatHexCanonical(mag))
		return err
	case expr.KindInt, expr.KindFloat:
		_, err := fmt.Fprintf(w, "CONFIG_%s=%s\n", sym.Name, v.AsString())
		return err
	default:
		_, err := fmt.Fprintf(w, "CONFIG_%s=\"%s\"\n", sym.Name, kconfig.EscapeString(v.AsString()))
		return err
	}
}

func writeDeprecatedSection(w *bufio.Writer, table *kconfig.Table, renames *RenameMap, canonicalSeen map[string]bool) error {
	type oldName struct {
		old, canonical string
	}
	var old []oldName
	for _, name := range renames.OldNames() {
		canonical := renames.Canonical(name)
		if canonicalSeen[canonical] {
			old = append(old, oldName{old: name, canonical: canonical})
		}
	}
	if len(old) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, deprecatedBegin); err != nil {
		return err
	}
	for _, o := range old {
		sym, ok := table.Lookup(o.canonical)
		if !ok {
			continue
		}
		v := sym.StrValue()
		if sym.Kind == expr.KindBool {
			if v.Bool() == expr.Yes {
				if _, err := fmt.Fprintf(w, "CONFIG_%s=y\n", o.old); err != nil {
					return err
				}
			} else {
				if _, err := fmt.Fprintf(w, "# CONFIG_%s is not set\n", o.old); err != nil {
					return err
				}
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "CONFIG_%s=%s\n", o.old, renderNonBool(sym.Kind, v)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, deprecatedEnd)
	return err
}

func renderNonBool(kind expr.Kind, v expr.Value) string {
	switch kind {
	case expr.KindHex:
		mag, _ := v.AsBigFloat().Uint64()
		return kconfig.FormatHexCanonical(mag)
	case expr.KindString:
		return fmt.Sprintf("\"%s\"", kconfig.EscapeString(v.AsString()))
	default:
		return v.AsString()
	}
}
