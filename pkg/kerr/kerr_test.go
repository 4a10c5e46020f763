package kerr

import (
	"errors"
	"testing"
)

func TestExitCodeClassifiesUserVsInternal(t *testing.T) {
	userErr := New(ClassSyntax, "parser", "bad token", errors.New("boom"))
	if got := ExitCode(userErr); got != 1 {
		t.Errorf("ExitCode(syntax) = %d, want 1", got)
	}

	internalErr := New(ClassInternal, "evaluator", "unexpected state", nil)
	if got := ExitCode(internalErr); got != 2 {
		t.Errorf("ExitCode(internal) = %d, want 2", got)
	}

	if got := ExitCode(nil); got != 0 {
		t.Errorf("ExitCode(nil) = %d, want 0", got)
	}
}

func TestErrorUnwrapsAndMatchesIs(t *testing.T) {
	wrapped := errors.New("underlying")
	e := New(ClassIO, "store", "could not open file", wrapped)
	if !errors.Is(e, &Error{Class: ClassIO}) {
		t.Error("errors.Is should match on class")
	}
	if errors.Unwrap(e) != wrapped {
		t.Error("Unwrap should return the wrapped error")
	}
}
