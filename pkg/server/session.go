// Package server implements the line-delimited JSON configuration server
// described in spec.md section 6: a single-threaded request/response loop
// over standard input/standard output that lets an external UI observe
// and mutate a *kconfig.Table.
package server

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/expr"
	"github.com/openfroyo/kconfig/pkg/kconfig/loadwrite"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
	"github.com/openfroyo/kconfig/pkg/server/protocol"
)

// Session owns the table a server process mediates access to. Per
// spec.md section 5, the engine is not internally thread-safe; Session
// serializes every request through mu so the surrounding Server can
// safely read one request, mutate, and write one response without the
// table's cached evaluation state tearing.
type Session struct {
	mu      sync.Mutex
	table   *kconfig.Table
	renames *loadwrite.RenameMap
	rep     *report.Builder
	policy  loadwrite.DefaultsPolicy
}

// NewSession creates a session around an already-parsed table.
func NewSession(table *kconfig.Table, renames *loadwrite.RenameMap, rep *report.Builder, policy loadwrite.DefaultsPolicy) *Session {
	return &Session{table: table, renames: renames, rep: rep, policy: policy}
}

// snapshot is the projection of one symbol's externally-visible state the
// JSON protocol exposes for every prompted symbol.
type snapshot struct {
	visible bool
	value   interface{}
	isDef   bool
	hasRng  bool
	rng     protocol.Range
}

func (snap snapshot) equal(other snapshot) bool {
	if snap.visible != other.visible || snap.isDef != other.isDef || snap.hasRng != other.hasRng {
		return false
	}
	if snap.hasRng && snap.rng != other.rng {
		return false
	}
	return fmt.Sprint(snap.value) == fmt.Sprint(other.value)
}

func (s *Session) promptedSymbols() []*kconfig.Symbol {
	var out []*kconfig.Symbol
	for _, sym := range s.table.Symbols() {
		if sym.HasPrompt() {
			out = append(out, sym)
		}
	}
	return out
}

func (s *Session) snapshotOf(sym *kconfig.Symbol) snapshot {
	snap := snapshot{
		visible: sym.Visible() == expr.Yes,
		value:   valueToJSON(sym.StrValue()),
		isDef:   isDefaultValued(sym),
	}
	if r := sym.ActiveRange(); r != nil {
		low := expr.EvalValue(r.Low, nil)
		high := expr.EvalValue(r.High, nil)
		snap.hasRng = true
		snap.rng = protocol.Range{json.Number(low.AsString()), json.Number(high.AsString())}
	}
	return snap
}

// isDefaultValued reports whether sym is currently at a default value --
// "user value absent or ignored" per SPEC_FULL.md section 12 item 6's
// grounding of the original's has_active_default_value semantics.
func isDefaultValued(sym *kconfig.Symbol) bool {
	a := sym.UserAssignment()
	return a == nil || a.IsDefault
}

// Initial builds the protocol.InitialMessage sent once at server startup,
// per spec.md section 6.
func (s *Session) Initial(version int) protocol.InitialMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := protocol.InitialMessage{
		Version:  version,
		Ranges:   make(map[string]protocol.Range),
		Visible:  make(map[string]bool),
		Values:   make(map[string]interface{}),
		Defaults: make(map[string]bool),
		Warnings: make(map[string]string),
	}
	for _, sym := range s.promptedSymbols() {
		snap := s.snapshotOf(sym)
		msg.Visible[sym.Name] = snap.visible
		msg.Values[sym.Name] = snap.value
		msg.Defaults[sym.Name] = snap.isDef
		if snap.hasRng {
			msg.Ranges[sym.Name] = snap.rng
		}
		if sym.Warn != nil && expr.EvalBool(sym.Warn.Cond, nil) == expr.Yes {
			msg.Warnings[sym.Name] = sym.Warn.Message
		}
	}
	return msg
}

// Handle applies req to the table and returns a Response carrying only
// the fields that changed, per spec.md section 6.
func (s *Session) Handle(req protocol.Request) protocol.Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resp protocol.Response

	if !protocol.SupportsVersion(req.Version) {
		resp.AddError(fmt.Sprintf("unsupported protocol version %d, supported: %v", req.Version, protocol.SupportedVersions))
		return resp
	}

	before := s.captureAll()

	for name, raw := range req.Set {
		s.applySet(name, raw, &resp)
	}
	if req.Load != nil {
		s.applyLoad(*req.Load, &resp)
	}
	for _, name := range req.Reset {
		s.applyReset(name, &resp)
	}
	if req.Save != nil {
		s.applySave(*req.Save, &resp)
	}

	s.diffInto(&resp, before)
	return resp
}

func (s *Session) captureAll() map[string]snapshot {
	out := make(map[string]snapshot)
	for _, sym := range s.promptedSymbols() {
		out[sym.Name] = s.snapshotOf(sym)
	}
	return out
}

func (s *Session) diffInto(resp *protocol.Response, before map[string]snapshot) {
	for _, sym := range s.promptedSymbols() {
		prev, seen := before[sym.Name]
		cur := s.snapshotOf(sym)
		if seen && prev.equal(cur) {
			continue
		}
		if resp.Visible == nil {
			resp.Visible = make(map[string]bool)
			resp.Values = make(map[string]interface{})
			resp.Defaults = make(map[string]bool)
			resp.Ranges = make(map[string]protocol.Range)
		}
		resp.Visible[sym.Name] = cur.visible
		resp.Values[sym.Name] = cur.value
		resp.Defaults[sym.Name] = cur.isDef
		if cur.hasRng {
			resp.Ranges[sym.Name] = cur.rng
		}
	}
}

func (s *Session) applySet(name string, raw interface{}, resp *protocol.Response) {
	canonical := s.renames.Canonical(name)
	sym, ok := s.table.Lookup(canonical)
	if !ok || sym.Undefined {
		resp.AddError(fmt.Sprintf("Unknown symbol: %s", name))
		return
	}
	litRaw, err := jsonToRaw(sym.Kind, raw)
	if err != nil {
		resp.AddError(fmt.Sprintf("%s: %v", name, err))
		return
	}
	if sym.Choice != nil && sym.Kind == expr.KindBool {
		if litRaw == "y" {
			sym.Choice.SetSelection(sym)
			return
		}
		if err := sym.Choice.Deselect(); err != nil {
			resp.AddError(err.Error())
		}
		return
	}
	sym.SetUserAssignment(&kconfig.Assignment{RawValue: litRaw, Origin: kconfig.OriginPrimaryConfig}, s.table)
}

func (s *Session) applyLoad(path string, resp *protocol.Response) {
	f, err := os.Open(path)
	if err != nil {
		resp.AddError(fmt.Sprintf("load %s: %v", path, err))
		return
	}
	defer f.Close()
	if err := loadwrite.Load(f, s.table, s.renames, kconfig.OriginPrimaryConfig, s.rep); err != nil {
		resp.AddError(fmt.Sprintf("load %s: %v", path, err))
		return
	}
	loadwrite.ApplyDefaultsPolicy(s.table, s.policy, s.rep)
}

func (s *Session) applySave(path string, resp *protocol.Response) {
	f, err := os.Create(path)
	if err != nil {
		resp.AddError(fmt.Sprintf("save %s: %v", path, err))
		return
	}
	defer f.Close()
	if err := loadwrite.Write(f, s.table, s.renames); err != nil {
		resp.AddError(fmt.Sprintf("save %s: %v", path, err))
	}
}

// applyReset resets name, which may be a bare symbol name, the literal
// "all", or a stable menu identifier (SPEC_FULL.md section 12 item 5).
func (s *Session) applyReset(name string, resp *protocol.Response) {
	if name == "all" {
		for _, sym := range s.table.Symbols() {
			sym.ClearUserAssignment(s.table)
		}
		return
	}
	if node, ok := s.table.MenuNodeByID(name); ok {
		node.Walk(func(n *kconfig.MenuNode) {
			if n.Sym != nil {
				n.Sym.ClearUserAssignment(s.table)
			}
		})
		return
	}
	canonical := s.renames.Canonical(name)
	sym, ok := s.table.Lookup(canonical)
	if !ok {
		resp.AddError(fmt.Sprintf("Unknown symbol or menu: %s", name))
		return
	}
	sym.ClearUserAssignment(s.table)
}

// valueToJSON renders a typed Kconfig value the way the JSON protocol
// expects it on the wire: bool as a JSON bool, numeric kinds as either a
// JSON number (int/float) or a hex literal string (hex has no native JSON
// representation that round-trips its canonical casing).
func valueToJSON(v expr.Value) interface{} {
	switch v.Kind {
	case expr.KindBool:
		return v.Bool() == expr.Yes
	case expr.KindInt:
		n, _ := v.AsBigFloat().Int64()
		return n
	case expr.KindFloat:
		f, _ := v.AsBigFloat().Float64()
		return f
	case expr.KindHex:
		mag, _ := v.AsBigFloat().Uint64()
		return kconfig.FormatHexCanonical(mag)
	default:
		return v.AsString()
	}
}

// jsonToRaw converts a decoded JSON value for a `set` request field into
// the raw literal text kconfig.ParseLiteral expects for kind.
func jsonToRaw(kind expr.Kind, raw interface{}) (string, error) {
	switch kind {
	case expr.KindBool:
		switch t := raw.(type) {
		case bool:
			if t {
				return "y", nil
			}
			return "n", nil
		case string:
			if t == "y" || t == "n" {
				return t, nil
			}
		}
		return "", fmt.Errorf("expected bool, got %T", raw)
	case expr.KindInt:
		switch t := raw.(type) {
		case float64:
			return strconv.FormatInt(int64(t), 10), nil
		case string:
			return t, nil
		}
		return "", fmt.Errorf("expected int, got %T", raw)
	case expr.KindHex:
		switch t := raw.(type) {
		case string:
			return t, nil
		case float64:
			return kconfig.FormatHexCanonical(uint64(t)), nil
		}
		return "", fmt.Errorf("expected hex, got %T", raw)
	case expr.KindFloat:
		switch t := raw.(type) {
		case float64:
			return strconv.FormatFloat(t, 'g', -1, 64), nil
		case string:
			return t, nil
		}
		return "", fmt.Errorf("expected float, got %T", raw)
	default:
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("expected string, got %T", raw)
		}
		return s, nil
	}
}
