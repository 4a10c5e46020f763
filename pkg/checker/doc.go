// Package checker runs style and semantic checks over a Kconfig source
// tree, per spec.md section 6: reads the tree, evaluates the built-in
// and Starlark-scripted rules, and emits a `.new` sibling next to every
// file it could automatically fix (currently: rewriting deprecated
// symbol references to their canonical name).
//
// # Usage
//
//	c, err := checker.New(checker.Options{
//	    RootFile: "Kconfig",
//	    Renames:  renames,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := c.Run()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result.HasIssues() {
//	    os.Exit(1)
//	}
package checker
