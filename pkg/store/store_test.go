package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(context.Background(), Config{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListSnapshots(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveSnapshot(ctx, "first", "build/.config", []SymbolValue{
		{Symbol: "FOO", Value: "y", IsDefault: false},
		{Symbol: "BAR", Value: "3", IsDefault: true},
	})
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if id == "" {
		t.Fatal("SaveSnapshot returned empty id")
	}

	snaps, err := s.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("len(snaps) = %d, want 1", len(snaps))
	}
	if snaps[0].Label != "first" || snaps[0].SymbolCount != 2 {
		t.Errorf("unexpected snapshot metadata: %+v", snaps[0])
	}

	values, err := s.SnapshotValues(ctx, id)
	if err != nil {
		t.Fatalf("SnapshotValues: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("len(values) = %d, want 2", len(values))
	}
}

func TestDiffBetweenSnapshots(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.SaveSnapshot(ctx, "before", "build/.config", []SymbolValue{
		{Symbol: "FOO", Value: "n"},
		{Symbol: "BAR", Value: "3"},
	})
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	id2, err := s.SaveSnapshot(ctx, "after", "build/.config", []SymbolValue{
		{Symbol: "FOO", Value: "y"},
		{Symbol: "BAR", Value: "3"},
		{Symbol: "BAZ", Value: "5"},
	})
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	diffs, err := s.Diff(ctx, id1, id2)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	changed := make(map[string]Diff)
	for _, d := range diffs {
		changed[d.Symbol] = d
	}
	if _, ok := changed["BAR"]; ok {
		t.Error("BAR did not change between snapshots and should not appear in the diff")
	}
	if d, ok := changed["FOO"]; !ok || d.Before != "n" || d.After != "y" {
		t.Errorf("FOO diff = %+v, want before=n after=y", d)
	}
	if d, ok := changed["BAZ"]; !ok || d.Before != "" || d.After != "5" {
		t.Errorf("BAZ diff = %+v, want before=\"\" after=5", d)
	}
}
