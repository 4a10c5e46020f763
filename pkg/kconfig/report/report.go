// Package report implements the diagnostic aggregation component
// described in spec.md section 4.6: every phase of the toolchain
// (parser, evaluator, loader, writer) funnels its findings through a
// Builder, which categorizes them and computes an overall status.
package report

import (
	"fmt"
	"sync"
)

// Severity is the diagnostic level, ordered least to most severe.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityNotification
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityNotification:
		return "notification"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Category tags the kind of diagnostic, per spec.md section 4.6.
type Category string

const (
	CategoryMultipleDefinition       Category = "multiple-definition"
	CategoryDefaultMismatchPrompt    Category = "default-mismatch-prompt"
	CategoryDefaultMismatchPromptless Category = "default-mismatch-promptless"
	CategoryUnusedReverseDependency  Category = "unused-reverse-dependency"
	CategoryTypeMismatch             Category = "type-mismatch-default"
	CategoryRangeViolation           Category = "range-violation"
	CategoryUndefinedSymbol          Category = "undefined-symbol"
	CategoryStyle                    Category = "style"
	CategorySyntax                   Category = "syntax"
	CategorySemantic                 Category = "semantic"
	CategoryIO                       Category = "io"
	CategoryProtocol                 Category = "protocol"
	CategorySelectBypass             Category = "select-bypass-deps"
)

// Location is a file/line pointer, independent of any parser-internal
// location type so this package has no dependency on the rest of the
// module.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Diagnostic is one reported finding.
type Diagnostic struct {
	Severity Severity
	Category Category
	Location Location
	Message  string
}

func (d Diagnostic) String() string {
	if d.Location.File == "" {
		return fmt.Sprintf("%s: %s: %s", d.Severity, d.Category, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s: %s", d.Location, d.Severity, d.Category, d.Message)
}

// Verbosity controls output volume, per the KCONFIG_REPORT_VERBOSITY
// environment input (spec.md section 6).
type Verbosity int

const (
	VerbosityQuiet Verbosity = iota
	VerbosityDefault
	VerbosityVerbose
)

func ParseVerbosity(s string) Verbosity {
	switch s {
	case "quiet":
		return VerbosityQuiet
	case "verbose":
		return VerbosityVerbose
	default:
		return VerbosityDefault
	}
}

// Status is the overall aggregation result, per spec.md section 4.6.
type Status string

const (
	StatusOK                   Status = "ok"
	StatusOKWithNotifications  Status = "ok_with_notifications"
	StatusOKWithWarnings       Status = "ok_with_warnings"
	StatusFailed               Status = "failed"
)

// Builder aggregates diagnostics across every phase of one toolchain
// invocation. It is safe for concurrent use because the JSON server
// (pkg/server) may emit diagnostics from a request-handling goroutine
// while telemetry drains them on another, even though the core engine
// itself is single-threaded per spec.md section 5.
type Builder struct {
	mu        sync.Mutex
	verbosity Verbosity
	diags     []Diagnostic
}

// NewBuilder creates a report builder at the given verbosity.
func NewBuilder(v Verbosity) *Builder {
	return &Builder{verbosity: v}
}

// Add records a diagnostic. Diagnostics below the info level are always
// kept regardless of verbosity; filtering by verbosity happens at
// render/print time (Render), not at collection time, so that a status
// computed from the builder always reflects the true set of findings.
func (b *Builder) Add(d Diagnostic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.diags = append(b.diags, d)
}

// Warnf is a convenience wrapper for SeverityWarning diagnostics.
func (b *Builder) Warnf(cat Category, loc Location, format string, args ...interface{}) {
	b.Add(Diagnostic{Severity: SeverityWarning, Category: cat, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Errorf is a convenience wrapper for SeverityError diagnostics.
func (b *Builder) Errorf(cat Category, loc Location, format string, args ...interface{}) {
	b.Add(Diagnostic{Severity: SeverityError, Category: cat, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Notify is a convenience wrapper for SeverityNotification diagnostics.
func (b *Builder) Notify(cat Category, loc Location, format string, args ...interface{}) {
	b.Add(Diagnostic{Severity: SeverityNotification, Category: cat, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Infof is a convenience wrapper for SeverityInfo diagnostics.
func (b *Builder) Infof(cat Category, loc Location, format string, args ...interface{}) {
	b.Add(Diagnostic{Severity: SeverityInfo, Category: cat, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// All returns every collected diagnostic, most-recent-last.
func (b *Builder) All() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Diagnostic, len(b.diags))
	copy(out, b.diags)
	return out
}

// Filtered returns diagnostics visible at the builder's configured
// verbosity: quiet shows only errors, default shows warnings and above,
// verbose shows everything.
func (b *Builder) Filtered() []Diagnostic {
	all := b.All()
	var out []Diagnostic
	for _, d := range all {
		switch b.verbosity {
		case VerbosityQuiet:
			if d.Severity >= SeverityError {
				out = append(out, d)
			}
		case VerbosityVerbose:
			out = append(out, d)
		default:
			if d.Severity >= SeverityWarning {
				out = append(out, d)
			}
		}
	}
	return out
}

// Status computes the overall status per spec.md section 4.6.
func (b *Builder) Status() Status {
	all := b.All()
	worst := SeverityInfo
	for _, d := range all {
		if d.Severity > worst {
			worst = d.Severity
		}
	}
	switch worst {
	case SeverityError:
		return StatusFailed
	case SeverityWarning:
		return StatusOKWithWarnings
	case SeverityNotification:
		return StatusOKWithNotifications
	default:
		return StatusOK
	}
}

// HasErrors reports whether any SeverityError diagnostic was recorded.
func (b *Builder) HasErrors() bool {
	all := b.All()
	for _, d := range all {
		if d.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Reset clears all collected diagnostics, used between independent
// server requests so a response's diagnostics don't leak into the next.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.diags = nil
}
