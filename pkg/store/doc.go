// Package store persists Kconfig configuration snapshots so a history
// of past configurations can be listed, inspected, and compared.
//
// # Usage
//
//	s, err := store.Open(ctx, store.Config{Path: "kconfig-history.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	id, err := s.SaveSnapshot(ctx, "pre-release", "build/.config", values)
//	snapshots, err := s.ListSnapshots(ctx)
//	diff, err := s.Diff(ctx, snapshots[1].ID, snapshots[0].ID)
package store
