package validator

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing/fstest"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"toolforge/internal/tools"
)

// restrictedSymbols returns the subset of the yaegi stdlib exports whose
// import path root is allowed, minus forbidden symbol names.
func restrictedSymbols(allowed, forbidden map[string]bool) interp.Exports {
	out := make(interp.Exports)
	for key, symbols := range stdlib.Symbols {
		// keys look like "encoding/json/json": import path, then package name
		slash := strings.LastIndexByte(key, '/')
		if slash < 0 || !allowed[importRoot(key[:slash])] {
			continue
		}
		filtered := make(map[string]reflect.Value, len(symbols))
		for name, value := range symbols {
			if !forbidden[name] {
				filtered[name] = value
			}
		}
		out[key] = filtered
	}
	return out
}

// compile evaluates the canonical function in a fresh interpreter that has
// no stdio, an empty environment, no source filesystem and only the
// restricted symbol table.
func (v *Validator) compile(def tools.Definition) (*Func, error) {
	i := interp.New(interp.Options{
		Stdin:                strings.NewReader(""),
		Stdout:               io.Discard,
		Stderr:               io.Discard,
		Env:                  []string{},
		SourcecodeFilesystem: fstest.MapFS{},
	})
	if err := i.Use(v.symbols); err != nil {
		return nil, newError(KindCompilationError, StageCompile, 0, "load symbols: %v", err)
	}

	if _, err := i.Eval(program(def)); err != nil {
		return nil, newError(KindCompilationError, StageCompile, 0, "%s", firstLine(err.Error()))
	}

	value, err := i.Eval(def.Name)
	if err != nil {
		return nil, newError(KindCompilationError, StageCompile, 0, "function %q not defined by source", def.Name)
	}
	if value.Kind() != reflect.Func {
		return nil, newError(KindCompilationError, StageCompile, 0, "%q is not a function", def.Name)
	}
	if value.Type().NumIn() != len(def.Params) {
		return nil, newError(KindCompilationError, StageCompile, 0,
			"%q takes %d parameters, expected %d", def.Name, value.Type().NumIn(), len(def.Params))
	}
	return &Func{def: def, fn: value}, nil
}

// program renders the evaluable unit: package clause, validated imports
// and the canonical function.
func program(def tools.Definition) string {
	var sb strings.Builder
	sb.WriteString("package main\n\n")
	for _, spec := range def.Imports {
		sb.WriteString("import ")
		sb.WriteString(spec)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	sb.WriteString(def.Source)
	sb.WriteByte('\n')
	return sb.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Func is a validated tool bound to its own interpreter.
type Func struct {
	def tools.Definition
	fn  reflect.Value
}

// Definition returns the accepted definition, including canonical source.
func (f *Func) Definition() tools.Definition {
	return f.def
}

func (f *Func) Name() string { return f.def.Name }

func (f *Func) Trust() tools.Trust { return tools.TrustValidated }

// Call binds keyword arguments to the function's parameters and invokes it
// on the caller's goroutine.
func (f *Func) Call(ctx context.Context, args map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := tools.ValidateArgs(f.def.Params, args); err != nil {
		return nil, err
	}
	in, err := tools.BindArgs(f.def.Params, f.fn.Type(), args)
	if err != nil {
		return nil, err
	}
	out := f.fn.Call(in)
	return tools.UnpackResults(out, f.fn.Type())
}

func (f *Func) String() string {
	return fmt.Sprintf("%s%s", f.def.Name, f.def.Signature)
}
