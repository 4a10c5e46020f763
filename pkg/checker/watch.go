package checker

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-runs the checker every time the root file or any file in its
// directory tree changes, invoking onResult with each run's Result until
// ctx is canceled. It is the implementation behind `kconfig-check
// --watch` (SPEC_FULL.md section 11, fsnotify wiring).
func (c *Checker) Watch(ctx context.Context, onResult func(*Result, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	root := filepath.Dir(c.opts.RootFile)
	if err := watcher.Add(root); err != nil {
		return err
	}

	run := func() {
		res, err := c.Run()
		onResult(res, err)
	}
	run()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onResult(nil, err)
		}
	}
}
