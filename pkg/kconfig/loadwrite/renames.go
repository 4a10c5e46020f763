// Package loadwrite implements the configuration loader and writer
// described in spec.md sections 4.4 and 4.5: reading a persisted
// configuration file into user assignments, writing the evaluated table
// back out in canonical form, and resolving the rename/compatibility map
// that lets old symbol names keep working.
package loadwrite

import "fmt"

// RenameMap resolves a possibly-chained set of (old, new) name pairs to
// each name's canonical (latest) form, per spec.md section 4.5.
type RenameMap struct {
	forward  map[string]string // old -> new, one hop
	latest   map[string]string // old -> canonical, memoized
	inverted map[string]bool   // old -> whether a loaded value flips n<->y
}

// NewRenameMap builds a RenameMap from a list of (old, new) pairs. Pairs
// may be given in either direction -- an inverted declaration new->old is
// recognized by the caller passing it as (new, old) explicitly, since the
// map itself only records the hop it is given.
func NewRenameMap(pairs [][2]string) (*RenameMap, error) {
	rm := &RenameMap{forward: make(map[string]string), latest: make(map[string]string)}
	for _, p := range pairs {
		old, new := p[0], p[1]
		if existing, ok := rm.forward[old]; ok && existing != new {
			return nil, fmt.Errorf("conflicting rename for %q: %q and %q", old, existing, new)
		}
		rm.forward[old] = new
	}
	for old := range rm.forward {
		if _, err := rm.resolve(old, make(map[string]bool)); err != nil {
			return nil, err
		}
	}
	return rm, nil
}

// Canonical returns name's canonical form: name itself if it has no
// rename entry, or the end of its rename chain otherwise.
func (rm *RenameMap) Canonical(name string) string {
	if rm == nil {
		return name
	}
	if c, ok := rm.latest[name]; ok {
		return c
	}
	c, err := rm.resolve(name, make(map[string]bool))
	if err != nil {
		return name
	}
	return c
}

// MarkInverted records that a loaded value for old must be flipped
// (n<->y) before being installed as a user assignment, per the rename
// file format's optional inversion flag (SPEC_FULL.md section 12 item 3).
func (rm *RenameMap) MarkInverted(old string) {
	if rm.inverted == nil {
		rm.inverted = make(map[string]bool)
	}
	rm.inverted[old] = true
}

// Invert reports whether old was declared with the inversion flag.
func (rm *RenameMap) Invert(old string) bool {
	if rm == nil {
		return false
	}
	return rm.inverted[old]
}

// IsRenamed reports whether name has a rename entry at all (as opposed to
// already being canonical).
func (rm *RenameMap) IsRenamed(name string) bool {
	if rm == nil {
		return false
	}
	_, ok := rm.forward[name]
	return ok
}

// OldNames returns every name that has a rename entry (the "old" side of
// every declared pair, i.e. every key of the rename map), used by the
// writer to populate the deprecated-options section.
func (rm *RenameMap) OldNames() []string {
	if rm == nil {
		return nil
	}
	out := make([]string, 0, len(rm.forward))
	for old := range rm.forward {
		out = append(out, old)
	}
	return out
}

func (rm *RenameMap) resolve(name string, seen map[string]bool) (string, error) {
	if c, ok := rm.latest[name]; ok {
		return c, nil
	}
	cur := name
	for {
		next, ok := rm.forward[cur]
		if !ok {
			rm.latest[name] = cur
			return cur, nil
		}
		if seen[cur] {
			return "", fmt.Errorf("cyclic rename chain starting at %q", name)
		}
		seen[cur] = true
		cur = next
	}
}
