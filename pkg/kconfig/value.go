package kconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openfroyo/kconfig/pkg/kconfig/expr"
)

// ParseLiteral parses a raw textual value (as it would appear on the
// right-hand side of "CONFIG_X=..." or as a bare `default` literal) into
// a typed Value for the given Kind. It is used by both the loader
// (parsing stored assignments) and the evaluator (parsing default
// literals embedded directly in Kconfig source, e.g. `range 0 10`).
func ParseLiteral(kind expr.Kind, raw string) (expr.Value, error) {
	switch kind {
	case expr.KindBool:
		switch raw {
		case "y":
			return expr.BoolValue(expr.Yes), nil
		case "n":
			return expr.BoolValue(expr.No), nil
		default:
			return expr.Value{}, fmt.Errorf("invalid bool literal %q", raw)
		}
	case expr.KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return expr.Value{}, fmt.Errorf("invalid int literal %q", raw)
		}
		return expr.IntValue(n), nil
	case expr.KindHex:
		trimmed := strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
		n, err := strconv.ParseUint(trimmed, 16, 64)
		if err != nil {
			return expr.Value{}, fmt.Errorf("invalid hex literal %q", raw)
		}
		return expr.HexValue(n, raw), nil
	case expr.KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return expr.Value{}, fmt.Errorf("invalid float literal %q", raw)
		}
		return expr.FloatValue(f, raw), nil
	default:
		return expr.StringValue(raw), nil
	}
}

// FormatHexCanonical renders an unsigned magnitude as "0x" + uppercase
// hex, per SPEC_FULL.md section 13(a)'s resolution of the open question
// about hex casing: the writer always normalizes, it never preserves the
// source's casing.
func FormatHexCanonical(n uint64) string {
	return "0x" + strings.ToUpper(strconv.FormatUint(n, 16))
}

// EscapeString escapes a string value for inclusion in a quoted Kconfig
// literal or a persisted configuration record, per spec.md section 4.4
// ("string as a double-quoted string with \" and \\ escaped").
func EscapeString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// UnescapeString reverses EscapeString.
func UnescapeString(s string) string {
	var sb strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			sb.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
