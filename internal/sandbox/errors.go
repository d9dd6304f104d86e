package sandbox

import (
	"errors"
	"fmt"
)

// Invocation failure sentinels; every *ExecError matches exactly one.
var (
	ErrTimeout     = errors.New("tool timed out")
	ErrWorkerCrash = errors.New("tool crashed")
	ErrNoOutput    = errors.New("tool produced no output")
)

// Kind classifies an invocation failure.
type Kind string

const (
	KindTimeout     Kind = "Timeout"
	KindWorkerCrash Kind = "WorkerCrash"
	KindNoOutput    Kind = "NoOutput"
)

// ExecError is a normalized invocation failure. Reason is always a single
// bounded line so it can be logged or shown to a planner as-is.
type ExecError struct {
	Kind   Kind
	Tool   string
	Reason string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Tool, e.Reason)
}

func (e *ExecError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrWorkerCrash:
		return e.Kind == KindWorkerCrash
	case ErrNoOutput:
		return e.Kind == KindNoOutput
	}
	return false
}

func newExecError(kind Kind, tool, format string, args ...any) *ExecError {
	return &ExecError{Kind: kind, Tool: tool, Reason: oneLine(fmt.Sprintf(format, args...))}
}
