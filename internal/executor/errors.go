package executor

import (
	"fmt"
)

// ErrorKind classifies a failed execution.
type ErrorKind int

const (
	// SpawnError means the process could not be started.
	SpawnError ErrorKind = iota
	// ExitError means the process exited with a non-zero status.
	ExitError
	// ParseError means stdout was not a valid result document.
	ParseError
	// Cancelled means the execution was superseded before it finished.
	Cancelled
)

func (k ErrorKind) String() string {
	switch k {
	case SpawnError:
		return "spawn error"
	case ExitError:
		return "exit error"
	case ParseError:
		return "parse error"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error describes why a query execution failed.
type Error struct {
	Kind     ErrorKind
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ExitError:
		if e.Stderr != "" {
			return fmt.Sprintf("query command exited with status %d: %s", e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("query command exited with status %d", e.ExitCode)
	case SpawnError:
		return fmt.Sprintf("failed to start query command: %v", e.Err)
	case ParseError:
		return fmt.Sprintf("failed to parse query output: %v", e.Err)
	default:
		return fmt.Sprintf("query %s: %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
