// Package tools defines the shared vocabulary of toolforge: tool definitions,
// the Callable contract every registered tool satisfies, and argument
// handling shared by dynamic and built-in tools.
//
// Flow:
//
//	source -> validator -> Definition + Callable -> registry -> sandbox -> result
package tools

import (
	"context"
	"strings"
)

// Origin records where a tool came from.
type Origin string

const (
	// OriginBuiltin marks host-supplied tools that bypass validation.
	OriginBuiltin Origin = "builtin"

	// OriginDynamic marks tools proposed at runtime and persisted as source.
	OriginDynamic Origin = "dynamic"

	// OriginUnknown is the default for metadata records without an origin.
	OriginUnknown Origin = "unknown"
)

// Trust selects the isolation tier a tool runs in. Passing static
// validation and being safe to run unsandboxed are different properties;
// the sandbox only ever looks at Trust.
type Trust int

const (
	// TrustValidated tools passed the static validator and run in-process
	// with a cooperative timeout.
	TrustValidated Trust = iota

	// TrustBuiltin tools are host code and run in a worker process with a
	// hard timeout.
	TrustBuiltin
)

func (t Trust) String() string {
	switch t {
	case TrustValidated:
		return "validated"
	case TrustBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Param is one named parameter of a tool. Type is a Go type expression
// such as "int", "[]string" or "map[string]any".
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Definition is the immutable description of an accepted tool.
// Resubmitting a tool under the same name replaces its Definition.
type Definition struct {
	Name string

	// Source is the verbatim function declaration, without package clause
	// or surrounding comments.
	Source string

	// Imports holds the validated import specs, e.g. `"strings"` or `m "math"`.
	Imports []string

	Params []Param

	// Signature is the rendered parameter and result list with every
	// parameter spelled out, e.g. "(a int, b int) int".
	Signature string

	Origin      Origin
	Description string

	// Path is the backing source file; empty for built-ins.
	Path string
}

// Callable is anything the registry can hand to the sandbox.
type Callable interface {
	// Name is the unique catalog key.
	Name() string

	// Trust selects the isolation tier.
	Trust() Trust

	// Call runs the tool with keyword arguments. It is invoked directly for
	// in-process tools and inside the worker process for built-ins.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// BuiltinFunc is the implementation of a host-supplied tool.
type BuiltinFunc func(ctx context.Context, args map[string]any) (any, error)

// Builtin describes a host-supplied tool.
type Builtin struct {
	Name        string
	Description string
	Params      []Param
	// Returns is the rendered result type, e.g. "string" or "(int, error)".
	Returns string
	Fn      BuiltinFunc
}

// Validate checks if the built-in definition is usable.
func (b Builtin) Validate() error {
	if b.Name == "" {
		return ErrToolNameEmpty
	}
	if b.Fn == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Signature renders the built-in with FormatSignature, like dynamic tools.
func (b Builtin) Signature() string {
	return FormatSignature(b.Params, b.Returns)
}

// FormatSignature renders "(name type, ...) returns" with one name per
// parameter, so grouped and ungrouped declarations render alike. An empty
// returns omits the result part.
func FormatSignature(params []Param, returns string) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		sb.WriteByte(' ')
		sb.WriteString(p.Type)
	}
	sb.WriteByte(')')
	if returns != "" {
		sb.WriteByte(' ')
		sb.WriteString(returns)
	}
	return sb.String()
}

// Callable wraps the built-in so it can be registered.
func (b Builtin) Callable() Callable {
	return builtinCallable{b: b}
}

type builtinCallable struct {
	b Builtin
}

func (c builtinCallable) Name() string { return c.b.Name }

func (c builtinCallable) Trust() Trust { return TrustBuiltin }

func (c builtinCallable) Call(ctx context.Context, args map[string]any) (any, error) {
	if err := ValidateArgs(c.b.Params, args); err != nil {
		return nil, err
	}
	return c.b.Fn(ctx, args)
}
