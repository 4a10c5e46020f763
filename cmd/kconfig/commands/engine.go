package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/openfroyo/kconfig/pkg/kconfig"
	"github.com/openfroyo/kconfig/pkg/kconfig/loadwrite"
	"github.com/openfroyo/kconfig/pkg/kconfig/parser"
	"github.com/openfroyo/kconfig/pkg/kconfig/report"
	"github.com/openfroyo/kconfig/pkg/kerr"
)

// buildEnv merges --env-file and --env into one macro namespace, --env
// taking precedence on conflict (SPEC_FULL.md section 12 item 2).
func buildEnv() (map[string]string, error) {
	env := make(map[string]string)
	if envFile != "" {
		data, err := os.ReadFile(envFile)
		if err != nil {
			return nil, kerr.New(kerr.ClassIO, "configurator", "reading env file", err)
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, kerr.New(kerr.ClassSyntax, "configurator", "parsing env file as a JSON object", err)
		}
	}
	for _, kv := range envVars {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, kerr.New(kerr.ClassSyntax, "configurator", fmt.Sprintf("malformed --env binding %q, want NAME=VALUE", kv), nil)
		}
		env[name] = value
	}
	return env, nil
}

// loadRenames parses --renames, if given, in the plain-text or YAML
// form depending on --renames-yaml.
func loadRenames() (*loadwrite.RenameMap, error) {
	if renamesPath == "" {
		return nil, nil
	}
	f, err := os.Open(renamesPath)
	if err != nil {
		return nil, kerr.New(kerr.ClassIO, "configurator", "opening rename file", err)
	}
	defer f.Close()

	var rm *loadwrite.RenameMap
	if renamesYAML {
		rm, err = loadwrite.ParseRenameFileYAML(f)
	} else {
		rm, err = loadwrite.ParseRenameFile(f)
	}
	if err != nil {
		return nil, kerr.New(kerr.ClassSemantic, "configurator", "parsing rename file", err)
	}
	return rm, nil
}

// buildTable parses the Kconfig tree rooted at kconfigRoot, returning
// the table, the report builder collecting its diagnostics, and the
// resolved rename map.
func buildTable() (*kconfig.Table, *report.Builder, *loadwrite.RenameMap, error) {
	env, err := buildEnv()
	if err != nil {
		return nil, nil, nil, err
	}
	renames, err := loadRenames()
	if err != nil {
		return nil, nil, nil, err
	}

	rep := report.NewBuilder(report.ParseVerbosity(verbosity))
	table := kconfig.NewTable(rep)
	p := parser.NewParser(table, rep, env)
	if err := p.ParseFile(kconfigRoot); err != nil {
		return nil, nil, nil, kerr.New(kerr.ClassSyntax, "parser", fmt.Sprintf("parsing %s", kconfigRoot), err)
	}
	if err := table.FinalizeDependencies(); err != nil {
		return nil, nil, nil, kerr.New(kerr.ClassSemantic, "parser", "validating reverse dependencies", err)
	}
	return table, rep, renames, nil
}

// loadPriorConfig loads path into table, applying renames and the
// configured defaults policy disagreement rule.
func loadPriorConfig(table *kconfig.Table, renames *loadwrite.RenameMap, rep *report.Builder, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return kerr.New(kerr.ClassIO, "loadwrite", fmt.Sprintf("opening %s", path), err)
	}
	defer f.Close()

	if err := loadwrite.Load(f, table, renames, kconfig.OriginPrimaryConfig, rep); err != nil {
		return kerr.New(kerr.ClassSyntax, "loadwrite", fmt.Sprintf("loading %s", path), err)
	}
	loadwrite.ApplyDefaultsPolicy(table, loadwrite.ParseDefaultsPolicy(defaultsPol), rep)
	return nil
}

// printDiagnostics writes the report's filtered diagnostics to stderr.
func printDiagnostics(rep *report.Builder) {
	for _, d := range rep.Filtered() {
		fmt.Fprintln(os.Stderr, d.String())
	}
}
