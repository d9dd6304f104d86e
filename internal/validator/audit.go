package validator

import (
	"go/ast"
	"go/token"
	"strconv"
)

// reservedNames cannot be used for tools: the interpreter treats them
// specially.
var reservedNames = map[string]bool{"init": true, "main": true, "_": true}

func checkShape(file *ast.File, name string, lineOf func(ast.Node) int) (*ast.FuncDecl, *Error) {
	if !token.IsIdentifier(name) || reservedNames[name] {
		return nil, newError(KindStructureViolation, StageShape, 0, "tool name %q is not a usable identifier", name)
	}

	var decl *ast.FuncDecl
	for _, d := range file.Decls {
		switch d := d.(type) {
		case *ast.GenDecl:
			if d.Tok != token.IMPORT {
				return nil, newError(KindStructureViolation, StageShape, lineOf(d),
					"top-level %s declaration not allowed", d.Tok)
			}
		case *ast.FuncDecl:
			if decl != nil {
				return nil, newError(KindStructureViolation, StageShape, lineOf(d),
					"exactly one function expected, found another: %s", d.Name.Name)
			}
			decl = d
		default:
			return nil, newError(KindStructureViolation, StageShape, lineOf(d), "unexpected top-level declaration")
		}
	}
	if decl == nil {
		return nil, newError(KindStructureViolation, StageShape, 0, "no function declaration found")
	}

	switch {
	case decl.Recv != nil:
		return nil, newError(KindStructureViolation, StageShape, lineOf(decl), "methods are not allowed")
	case decl.Type.TypeParams != nil && len(decl.Type.TypeParams.List) > 0:
		return nil, newError(KindStructureViolation, StageShape, lineOf(decl), "type parameters are not allowed")
	case decl.Body == nil:
		return nil, newError(KindStructureViolation, StageShape, lineOf(decl), "function has no body")
	case reservedNames[decl.Name.Name]:
		return nil, newError(KindStructureViolation, StageShape, lineOf(decl), "function name %q is reserved", decl.Name.Name)
	}

	for _, field := range decl.Type.Params.List {
		if len(field.Names) == 0 {
			return nil, newError(KindStructureViolation, StageShape, lineOf(field), "parameters must be named")
		}
		if _, ok := field.Type.(*ast.Ellipsis); ok {
			return nil, newError(KindStructureViolation, StageShape, lineOf(field), "variadic parameters are not allowed")
		}
		for _, n := range field.Names {
			if n.Name == "_" {
				return nil, newError(KindStructureViolation, StageShape, lineOf(n), "blank parameter names are not allowed")
			}
		}
	}
	return decl, nil
}

// checkConstructs rejects type declarations, defer, function literals and
// every concurrency primitive.
func checkConstructs(decl *ast.FuncDecl, lineOf func(ast.Node) int) *Error {
	var found *Error
	ast.Inspect(decl, func(n ast.Node) bool {
		if found != nil || n == nil {
			return false
		}
		kind := ""
		switch n := n.(type) {
		case *ast.TypeSpec:
			kind = "type declaration"
		case *ast.DeferStmt:
			kind = "defer"
		case *ast.FuncLit:
			kind = "function literal"
		case *ast.GoStmt:
			kind = "go statement"
		case *ast.SelectStmt:
			kind = "select"
		case *ast.SendStmt:
			kind = "channel send"
		case *ast.ChanType:
			kind = "channel type"
		case *ast.UnaryExpr:
			if n.Op == token.ARROW {
				kind = "channel receive"
			}
		}
		if kind != "" {
			found = newError(KindForbiddenConstruct, StageConstructs, lineOf(n), "%s", kind)
			return false
		}
		return true
	})
	return found
}

func (v *Validator) checkImports(file *ast.File, lineOf func(ast.Node) int) ([]string, *Error) {
	specs := make([]string, 0, len(file.Imports))
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return nil, newError(KindDisallowedImport, StageImports, lineOf(spec), "%s", spec.Path.Value)
		}
		if spec.Name != nil && spec.Name.Name == "." {
			return nil, newError(KindDisallowedImport, StageImports, lineOf(spec), "%s", path)
		}
		if !v.allowed[importRoot(path)] {
			return nil, newError(KindDisallowedImport, StageImports, lineOf(spec), "%s", path)
		}
		specs = append(specs, importSpec(spec, path))
	}
	return specs, nil
}

func (v *Validator) checkCalls(decl *ast.FuncDecl, lineOf func(ast.Node) int) *Error {
	var found *Error
	ast.Inspect(decl.Body, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		if name := calleeName(call.Fun); name != "" && v.forbidden[name] {
			found = newError(KindForbiddenCall, StageCalls, lineOf(call), "%s", name)
			return false
		}
		return true
	})
	return found
}

// calleeName returns the bare identifier or trailing selector of a call
// target.
func calleeName(fun ast.Expr) string {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		return f.Sel.Name
	case *ast.ParenExpr:
		return calleeName(f.X)
	case *ast.IndexExpr:
		return calleeName(f.X)
	case *ast.IndexListExpr:
		return calleeName(f.X)
	}
	return ""
}
