// Package kerr provides a classified error type shared by every
// component of the toolchain, adapted from the orchestration engine's
// EngineError/ErrorClass pattern to the error-kind table of spec.md
// section 7.
package kerr

import (
	"errors"
	"fmt"
)

// Class classifies an error for the purpose of picking a CLI exit code:
// syntax and semantic errors in Kconfig source, I/O failures talking to
// the filesystem, and protocol-level failures in the JSON server.
type Class string

const (
	// ClassSyntax covers malformed Kconfig source or configuration file
	// syntax -- a user error, exit code 1.
	ClassSyntax Class = "syntax"

	// ClassSemantic covers a structurally valid but meaningless
	// construct (an undefined select target, a cyclic rename chain) --
	// a user error, exit code 1.
	ClassSemantic Class = "semantic"

	// ClassIO covers a failure reading or writing a file -- treated as
	// a user error (missing/unwritable path) unless wrapping something
	// unexpected.
	ClassIO Class = "io"

	// ClassProtocol covers a malformed or unsupported JSON server
	// request.
	ClassProtocol Class = "protocol"

	// ClassInternal covers everything the toolchain did not anticipate
	// -- exit code 2.
	ClassInternal Class = "internal"
)

// Error is a classified error with context, matching the engine's
// EngineError shape: a class, a message, optional structured detail,
// and an unwrap chain.
type Error struct {
	Class     Class
	Message   string
	Component string
	Err       error
	Details   map[string]interface{}
}

func (e *Error) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("[%s] %s (%s): %s", e.Class, e.Message, e.Component, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// New wraps err under class with message, attributing it to component
// (e.g. "parser", "loadwrite", "server") for diagnostics.
func New(class Class, component, message string, err error) *Error {
	return &Error{Class: class, Component: component, Message: message, Err: err}
}

// WithDetail attaches a key/value pair of structured context.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsUserError reports whether err (or something it wraps) is a kerr.Error
// whose class is attributable to user input rather than an internal
// fault -- the dividing line between CLI exit codes 1 and 2.
func IsUserError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		switch e.Class {
		case ClassSyntax, ClassSemantic, ClassIO, ClassProtocol:
			return true
		}
	}
	return false
}

// ExitCode maps err to one of the CLI exit codes spec.md section 6
// defines: 0 (handled by the caller on nil err), 1 for a user error, 2
// for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if IsUserError(err) {
		return 1
	}
	return 2
}
