package loadwrite

import (
	"bytes"
	"fmt"
	"io"

	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/expr"
)

// WriteHeader writes table's symbol values as C preprocessor #defines,
// matching the format the original confgen's write_autoconf produces:
// a bool writes only when it's "y" (no #undef for "n"), a string is
// quoted and escaped, int and hex write their literal text. prefix
// defaults to "CONFIG_" when empty.
func WriteHeader(w io.Writer, table *kconfig.Table, prefix string) error {
	if prefix == "" {
		prefix = "CONFIG_"
	}
	var buf bytes.Buffer
	seen := make(map[string]struct{})
	table.Root.Walk(func(n *kconfig.MenuNode) {
		sym := n.Sym
		if sym == nil || sym.Undefined {
			return
		}
		if _, ok := seen[sym.Name]; ok {
			return
		}
		seen[sym.Name] = struct{}{}

		v := sym.StrValue()
		switch sym.Kind {
		case expr.KindBool:
			if v.Bool() == expr.Yes {
				fmt.Fprintf(&buf, "#define %s%s 1\n", prefix, sym.Name)
			}
		case expr.KindString:
			fmt.Fprintf(&buf, "#define %s%s %q\n", prefix, sym.Name, v.AsString())
		case expr.KindInt, expr.KindFloat:
			fmt.Fprintf(&buf, "#define %s%s %s\n", prefix, sym.Name, v.AsString())
		case expr.KindHex:
			mag, _ := v.AsBigFloat().Uint64()
			fmt.Fprintf(&buf, "#define %s%s %s\n", prefix, sym.Name, kconfig.FormatHexCanonical(mag))
		}
	})
	_, err := w.Write(buf.Bytes())
	return err
}
