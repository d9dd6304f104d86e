package validator

import (
	"errors"
	"fmt"
)

// ErrValidation matches every *Error.
var ErrValidation = errors.New("tool validation failed")

// Kind names the rule a candidate violated.
type Kind string

const (
	KindSizeLimitExceeded  Kind = "SizeLimitExceeded"
	KindSyntaxInvalid      Kind = "SyntaxInvalid"
	KindStructureViolation Kind = "StructureViolation"
	KindForbiddenConstruct Kind = "ForbiddenConstruct"
	KindDisallowedImport   Kind = "DisallowedImport"
	KindForbiddenCall      Kind = "ForbiddenCall"
	KindCompilationError   Kind = "CompilationError"
)

// Stage is one gate of the validation pipeline. Gates run in declaration
// order and the first violation wins.
type Stage int

const (
	StageSize Stage = iota
	StageParse
	StageShape
	StageConstructs
	StageImports
	StageCalls
	StageExtract
	StageCompile
)

func (s Stage) String() string {
	switch s {
	case StageSize:
		return "size"
	case StageParse:
		return "parse"
	case StageShape:
		return "shape"
	case StageConstructs:
		return "constructs"
	case StageImports:
		return "imports"
	case StageCalls:
		return "calls"
	case StageExtract:
		return "extract"
	case StageCompile:
		return "compile"
	default:
		return "unknown"
	}
}

// Error describes why a candidate was rejected.
type Error struct {
	Kind  Kind
	Stage Stage
	// Detail is the offending construct, import path, call name or message.
	Detail string
	// Line is 1-based within the submitted source; 0 when not applicable.
	Line int
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", e.Kind, e.Detail, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is matches ErrValidation and any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	other, ok := target.(*Error)
	return ok && other.Kind == e.Kind
}

// KindOf returns the violation kind of err, or "" if err is not a
// validation error.
func KindOf(err error) Kind {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return ""
}

func newError(kind Kind, stage Stage, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Stage: stage, Line: line, Detail: fmt.Sprintf(format, args...)}
}
