package loadwrite

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// renameSchema constrains a rename-file entry's shape: both names are
// non-empty Kconfig-style identifiers and invert, if present, is a bool.
// Exercised by ParseRenameFileYAML to catch a malformed rename file
// before it ever reaches NewRenameMap's cycle detection.
const renameSchema = `
#Rename: {
	new:    string & =~"^[A-Za-z_][A-Za-z0-9_]*$"
	old:    string & =~"^[A-Za-z_][A-Za-z0-9_]*$"
	invert: bool | *false
}
[...#Rename]
`

func validateRenameEntries(entries interface{}) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(renameSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling rename schema: %w", err)
	}
	value := ctx.Encode(entries)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encoding rename entries: %w", err)
	}
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("rename file failed schema validation: %w", err)
	}
	return nil
}

// ParseRenameFile reads a plain-text rename-list file, one declaration
// per line: `new,old` or `new,old,invert`, where invert is "true" or
// "false" (default "false"). Blank lines and lines starting with '#' are
// skipped. This is the concrete grounding for spec.md section 4.5's
// rename/compatibility map (SPEC_FULL.md section 12 item 3).
func ParseRenameFile(r io.Reader) (*RenameMap, error) {
	var pairs [][2]string
	var inverted []string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("line %d: expected `new,old` or `new,old,invert`, got %q", lineNo, line)
		}
		newName, oldName := fields[0], fields[1]
		if newName == "" || oldName == "" {
			return nil, fmt.Errorf("line %d: empty name in %q", lineNo, line)
		}
		if newName == oldName {
			return nil, fmt.Errorf("line %d: symbol %q renamed to itself", lineNo, newName)
		}
		pairs = append(pairs, [2]string{oldName, newName})
		if len(fields) == 3 && (fields[2] == "true" || fields[2] == "1") {
			inverted = append(inverted, oldName)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	rm, err := NewRenameMap(pairs)
	if err != nil {
		return nil, err
	}
	for _, old := range inverted {
		rm.MarkInverted(old)
	}
	return rm, nil
}

// renameFileYAML is the on-disk shape of a YAML-form rename file, an
// alternative to the plain-text `new,old,invert` form.
type renameFileYAML struct {
	Renames []struct {
		New    string `yaml:"new" json:"new"`
		Old    string `yaml:"old" json:"old"`
		Invert bool   `yaml:"invert" json:"invert"`
	} `yaml:"renames"`
}

// ParseRenameFileYAML parses the YAML-form rename file, with the same
// semantics as ParseRenameFile.
func ParseRenameFileYAML(r io.Reader) (*RenameMap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc renameFileYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML rename file: %w", err)
	}
	if err := validateRenameEntries(doc.Renames); err != nil {
		return nil, err
	}

	var pairs [][2]string
	for _, entry := range doc.Renames {
		if entry.New == "" || entry.Old == "" {
			return nil, fmt.Errorf("rename entry missing new or old name: %+v", entry)
		}
		if entry.New == entry.Old {
			return nil, fmt.Errorf("symbol %q renamed to itself", entry.New)
		}
		pairs = append(pairs, [2]string{entry.Old, entry.New})
	}

	rm, err := NewRenameMap(pairs)
	if err != nil {
		return nil, err
	}
	for _, entry := range doc.Renames {
		if entry.Invert {
			rm.MarkInverted(entry.Old)
		}
	}
	return rm, nil
}
