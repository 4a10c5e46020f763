// Package checker implements the Kconfig style checker described in
// spec.md section 6: it reads a tree of Kconfig source files, flags
// style and semantic issues, and writes a `.new` sibling carrying the
// fixes it can make automatically.
package checker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/loadwrite"
	"github.com/openfroyo/kconfig/pkg/kconfig/parser"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
	"github.com/openfroyo/kconfig/pkg/policy"
)

// Options configures a Checker run. There is no ambient/global state;
// everything a run needs is passed in here.
type Options struct {
	RootFile    string
	Renames     *loadwrite.RenameMap
	Env         map[string]string
	StarlarkSrc []string // inline rule scripts, evaluated per SymbolFact
	Verbosity   report.Verbosity
}

// Fix describes one automatic correction the checker made while
// producing a .new sibling.
type Fix struct {
	File    string
	Line    int
	Message string
}

// Result is the outcome of one checker run.
type Result struct {
	Diagnostics []report.Diagnostic
	Fixes       []Fix
	NewFiles    map[string]string // source path -> .new sibling path
}

// HasIssues reports whether the run found anything worth a non-zero exit.
func (r *Result) HasIssues() bool {
	return len(r.Diagnostics) > 0 || len(r.Fixes) > 0
}

// Checker runs the style and semantic checks over one Kconfig tree.
type Checker struct {
	opts  Options
	rules []*StarlarkRule
}

// New creates a Checker, compiling any configured Starlark rules ahead
// of the first run so a syntax error in a rule script surfaces
// immediately rather than mid-sweep.
func New(opts Options) (*Checker, error) {
	c := &Checker{opts: opts}
	for i, src := range opts.StarlarkSrc {
		rule, err := NewStarlarkRule(fmt.Sprintf("rule-%d", i), src)
		if err != nil {
			return nil, fmt.Errorf("compiling starlark rule %d: %w", i, err)
		}
		c.rules = append(c.rules, rule)
	}
	return c, nil
}

// Run parses opts.RootFile, runs the built-in semantic checks via
// pkg/policy, runs any configured Starlark rules, and writes a `.new`
// sibling next to every source file the fixer touched.
func (c *Checker) Run() (*Result, error) {
	rep := report.NewBuilder(c.opts.Verbosity)
	table := kconfig.NewTable(rep)
	p := parser.NewParser(table, rep, c.opts.Env)
	if err := p.ParseFile(c.opts.RootFile); err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.opts.RootFile, err)
	}
	if err := table.FinalizeDependencies(); err != nil {
		return nil, fmt.Errorf("validate reverse dependencies: %w", err)
	}

	eng, err := policy.NewEngine(zerolog.Nop())
	if err != nil {
		return nil, fmt.Errorf("build policy engine: %w", err)
	}
	facts := policy.BuildFacts(table)
	polReport, err := eng.Evaluate(context.Background(), facts)
	if err != nil {
		return nil, fmt.Errorf("evaluate policies: %w", err)
	}
	for _, f := range polReport.Findings {
		rep.Add(report.Diagnostic{
			Severity: severityFromPolicy(f.Severity),
			Category: report.CategoryStyle,
			Message:  fmt.Sprintf("%s: %s", f.Policy, f.Message),
		})
	}

	for _, rule := range c.rules {
		findings, err := rule.Evaluate(facts)
		if err != nil {
			return nil, fmt.Errorf("starlark rule %s: %w", rule.Name, err)
		}
		for _, f := range findings {
			rep.Add(report.Diagnostic{
				Severity: report.SeverityWarning,
				Category: report.CategoryStyle,
				Message:  fmt.Sprintf("%s: %s", rule.Name, f),
			})
		}
	}

	fixes, newFiles, err := c.fixStyle(table)
	if err != nil {
		return nil, err
	}

	return &Result{
		Diagnostics: rep.All(),
		Fixes:       fixes,
		NewFiles:    newFiles,
	}, nil
}

// fixStyle rewrites deprecated/renamed symbol references to their
// canonical form in every source file the parser visited, writing the
// result to a `.new` sibling per spec.md section 6 ("emits a .new
// sibling with style fixes").
func (c *Checker) fixStyle(table *kconfig.Table) ([]Fix, map[string]string, error) {
	if c.opts.Renames == nil {
		return nil, nil, nil
	}
	files := sourceFiles(table)
	var fixes []Fix
	newFiles := make(map[string]string)
	for _, file := range files {
		orig, err := os.ReadFile(file)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", file, err)
		}
		rewritten, fileFixes := rewriteRenames(file, string(orig), c.opts.Renames)
		if len(fileFixes) == 0 {
			continue
		}
		newPath := file + ".new"
		if err := os.WriteFile(newPath, []byte(rewritten), 0o644); err != nil {
			return nil, nil, fmt.Errorf("write %s: %w", newPath, err)
		}
		fixes = append(fixes, fileFixes...)
		newFiles[file] = newPath
	}
	return fixes, newFiles, nil
}

// rewriteRenames replaces every old symbol name in src's CONFIG_-prefixed
// references with its canonical form, returning the rewritten text and
// one Fix per replaced line.
func rewriteRenames(file, src string, renames *loadwrite.RenameMap) (string, []Fix) {
	var fixes []Fix
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		changed := line
		for _, old := range renames.OldNames() {
			token := "CONFIG_" + old
			if !strings.Contains(changed, token) {
				continue
			}
			canonical := "CONFIG_" + renames.Canonical(old)
			changed = strings.ReplaceAll(changed, token, canonical)
		}
		if changed != line {
			fixes = append(fixes, Fix{
				File:    file,
				Line:    i + 1,
				Message: "rewrote deprecated symbol reference to canonical form",
			})
			lines[i] = changed
		}
	}
	return strings.Join(lines, "\n"), fixes
}

func sourceFiles(table *kconfig.Table) []string {
	seen := make(map[string]struct{})
	var out []string
	table.Root.Walk(func(n *kconfig.MenuNode) {
		if n.Loc.File == "" {
			return
		}
		abs, err := filepath.Abs(n.Loc.File)
		if err != nil {
			abs = n.Loc.File
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	})
	return out
}

func severityFromPolicy(s policy.Severity) report.Severity {
	switch s {
	case policy.SeverityError:
		return report.SeverityError
	case policy.SeverityWarning:
		return report.SeverityWarning
	default:
		return report.SeverityInfo
	}
}
