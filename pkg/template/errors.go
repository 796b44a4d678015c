package template

import (
	"errors"
	"fmt"
)

// ErrUndefinedVariable is wrapped by RenderErrors of kind UndefinedVariable.
var ErrUndefinedVariable = errors.New("undefined variable")

// CompileError reports malformed template syntax.
type CompileError struct {
	Source string
	Pos    int
	Msg    string
}

func newCompileError(source string, pos int, format string, args ...any) *CompileError {
	return &CompileError{Source: source, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("template %q: position %d: %s", e.Source, e.Pos, e.Msg)
}

// RenderErrorKind classifies render failures.
type RenderErrorKind int

const (
	// UndefinedVariable means a {name} reference had no value in the context.
	UndefinedVariable RenderErrorKind = iota
	// ConditionError means a CEL condition failed to evaluate.
	ConditionError
)

func (k RenderErrorKind) String() string {
	switch k {
	case UndefinedVariable:
		return "undefined variable"
	case ConditionError:
		return "condition error"
	default:
		return "unknown"
	}
}

// RenderError is returned by Template.Render.
type RenderError struct {
	Kind RenderErrorKind
	Name string
	Err  error
}

func (e *RenderError) Error() string {
	if e.Kind == UndefinedVariable {
		return fmt.Sprintf("undefined variable %q", e.Name)
	}
	return fmt.Sprintf("condition %q: %v", e.Name, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
