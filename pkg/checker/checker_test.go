package checker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openfroyo/kconfig/pkg/kconfig/loadwrite"
)

func writeKconfig(t *testing.T, dir, src string) string {
	t.Helper()
	path := filepath.Join(dir, "Kconfig")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckerRunCleanTreeHasNoIssues(t *testing.T) {
	dir := t.TempDir()
	root := writeKconfig(t, dir, `
config FOO
	bool "Foo support"
	default n
`)
	c, err := New(Options{RootFile: root})
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res.HasIssues() {
		t.Errorf("clean tree reported issues: %+v / %+v", res.Diagnostics, res.Fixes)
	}
}

func TestCheckerRewritesDeprecatedReferences(t *testing.T) {
	dir := t.TempDir()
	root := writeKconfig(t, dir, `
config NEW_NAME
	bool "Replacement"
	default y

config USER
	bool "Uses old name"
	depends on CONFIG_OLD_NAME
`)
	renames, err := loadwrite.NewRenameMap([][2]string{{"OLD_NAME", "NEW_NAME"}})
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(Options{RootFile: root, Renames: renames})
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Run()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Fixes) == 0 {
		t.Fatal("expected at least one fix for a deprecated reference")
	}
	newPath, ok := res.NewFiles[root]
	if !ok {
		t.Fatal("expected a .new sibling for the rewritten file")
	}
	contents, err := os.ReadFile(newPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(contents), "CONFIG_NEW_NAME") {
		t.Errorf(".new sibling does not contain canonical reference:\n%s", contents)
	}
	if strings.Contains(string(contents), "CONFIG_OLD_NAME") {
		t.Errorf(".new sibling still contains the deprecated reference:\n%s", contents)
	}
}

func TestStarlarkRuleFlagsUnresolvedTargets(t *testing.T) {
	dir := t.TempDir()
	root := writeKconfig(t, dir, `
config FOO
	bool "Foo support"
	select BAR
`)
	rule := `
def check(symbol):
    if len(symbol["unresolved_targets"]) > 0:
        return "selects an undefined symbol: " + symbol["unresolved_targets"][0]
    return None
`
	c, err := New(Options{RootFile: root, StarlarkSrc: []string{rule}})
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Run()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, d := range res.Diagnostics {
		if strings.Contains(d.Message, "undefined symbol") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a diagnostic about the undefined select target, got %+v", res.Diagnostics)
	}
}
