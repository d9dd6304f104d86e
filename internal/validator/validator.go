// Package validator statically audits candidate tool source and compiles
// the single permitted function into a callable bound to a restricted
// interpreter namespace.
//
// A candidate is a Go source fragment holding imports and exactly one
// function declaration. The package clause is optional.
package validator

import (
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/traefik/yaegi/interp"

	"toolforge/internal/logging"
	"toolforge/internal/tools"
)

// syntheticPackage is prepended to candidates without a package clause.
const syntheticPackage = "package tool\n"

// Validator runs the validation pipeline for one Policy.
type Validator struct {
	policy    Policy
	allowed   map[string]bool
	forbidden map[string]bool
	symbols   interp.Exports
}

// New creates a Validator. Zero-valued policy fields take their defaults.
func New(policy Policy) *Validator {
	p := DefaultPolicy().Merge(policy)
	v := &Validator{
		policy:    p,
		allowed:   toSet(p.AllowedImports),
		forbidden: toSet(p.ForbiddenCalls),
	}
	v.symbols = restrictedSymbols(v.allowed, v.forbidden)
	return v
}

// Policy returns the effective policy.
func (v *Validator) Policy() Policy {
	return v.policy
}

// Audited is a candidate that passed gates 1 to 7.
type Audited struct {
	Definition tools.Definition
}

// Validate runs every gate and returns the compiled callable. It has no
// side effects.
func (v *Validator) Validate(source, name string) (*Func, error) {
	audited, err := v.Audit(source, name)
	if err != nil {
		return nil, err
	}
	fn, err := v.compile(audited.Definition)
	if err != nil {
		logging.ValidatorDebug("Tool %s rejected at %s: %v", name, StageCompile, err)
		return nil, err
	}
	logging.ValidatorDebug("Tool %s validated: %s", name, fn.def.Signature)
	return fn, nil
}

// Audit runs the static gates without compiling.
func (v *Validator) Audit(source, name string) (*Audited, error) {
	a, err := v.audit(source, name)
	if err != nil {
		logging.ValidatorDebug("Tool %s rejected at %s: %v", name, err.Stage, err)
		return nil, err
	}
	return a, nil
}

func (v *Validator) audit(source, name string) (*Audited, *Error) {
	source = strings.ReplaceAll(source, "\r\n", "\n")

	// Gate 1: size
	if n := utf8.RuneCountInString(source); n > v.policy.MaxSourceChars {
		return nil, newError(KindSizeLimitExceeded, StageSize, 0,
			"%d characters exceeds limit of %d", n, v.policy.MaxSourceChars)
	}
	if n := countLines(source); n > v.policy.MaxSourceLines {
		return nil, newError(KindSizeLimitExceeded, StageSize, 0,
			"%d lines exceeds limit of %d", n, v.policy.MaxSourceLines)
	}

	// Gate 2: parse
	text, offset := source, 0
	if !hasPackageClause(source) {
		text, offset = syntheticPackage+source, 1
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "tool.go", text, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		line, msg := 0, err.Error()
		if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
			line, msg = list[0].Pos.Line-offset, list[0].Msg
		}
		return nil, newError(KindSyntaxInvalid, StageParse, line, "%s", msg)
	}
	lineOf := func(n ast.Node) int { return fset.Position(n.Pos()).Line - offset }

	// Gate 3: top-level shape
	decl, verr := checkShape(file, name, lineOf)
	if verr != nil {
		return nil, verr
	}

	// Gate 4: forbidden constructs
	if verr := checkConstructs(decl, lineOf); verr != nil {
		return nil, verr
	}

	// Gate 5: imports
	imports, verr := v.checkImports(file, lineOf)
	if verr != nil {
		return nil, verr
	}

	// Gate 6: calls
	if verr := v.checkCalls(decl, lineOf); verr != nil {
		return nil, verr
	}

	// Gate 7: extract the canonical span
	start, end := fset.Position(decl.Pos()).Offset, fset.Position(decl.End()).Offset
	if start < 0 || end > len(text) || start >= end {
		return nil, newError(KindStructureViolation, StageExtract, 0, "could not locate function source")
	}

	def := tools.Definition{
		Name:      name,
		Source:    text[start:end],
		Imports:   imports,
		Params:    params(decl),
		Signature: signature(decl),
		Origin:    tools.OriginDynamic,
	}
	return &Audited{Definition: def}, nil
}

// hasPackageClause reports whether the first token of src is "package".
func hasPackageClause(src string) bool {
	fset := token.NewFileSet()
	f := fset.AddFile("", fset.Base(), len(src))
	var s scanner.Scanner
	s.Init(f, []byte(src), nil, 0)
	_, tok, _ := s.Scan()
	return tok == token.PACKAGE
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func params(decl *ast.FuncDecl) []tools.Param {
	var out []tools.Param
	for _, field := range decl.Type.Params.List {
		typ := types.ExprString(field.Type)
		for _, n := range field.Names {
			out = append(out, tools.Param{Name: n.Name, Type: typ})
		}
	}
	return out
}

// signature renders the function type without the func keyword, one
// name per parameter, e.g. "(a int, b int) int".
func signature(decl *ast.FuncDecl) string {
	return tools.FormatSignature(params(decl), results(decl))
}

// results renders the result list: "" for none, "T" for a single unnamed
// result, otherwise a parenthesised list with names expanded.
func results(decl *ast.FuncDecl) string {
	fl := decl.Type.Results
	if fl == nil || len(fl.List) == 0 {
		return ""
	}
	if len(fl.List) == 1 && len(fl.List[0].Names) == 0 {
		return types.ExprString(fl.List[0].Type)
	}
	var parts []string
	for _, field := range fl.List {
		typ := types.ExprString(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, typ)
			continue
		}
		for _, n := range field.Names {
			parts = append(parts, n.Name+" "+typ)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func importSpec(spec *ast.ImportSpec, path string) string {
	if spec.Name != nil {
		return spec.Name.Name + " " + strconv.Quote(path)
	}
	return strconv.Quote(path)
}
