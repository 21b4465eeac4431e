// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command verify-state-writes fails when session state is assigned anywhere
// other than Session.setState, which records the transition metric and log.
//
// Usage (from the repository root):
//
//	go run ./scripts/verify-state-writes
package main

import (
	"fmt"
	"go/ast"
	"go/types"
	"os"
	"strings"

	"golang.org/x/tools/go/packages"
)

const (
	modelPkgSuffix = "/internal/domain/session/model"
	stateTypeName  = "SessionState"
	allowedFunc    = "setState"
)

func main() {
	violations, err := Analyze(".", "./internal/...")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load packages: %v\n", err)
		os.Exit(1)
	}
	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "ad-hoc session state writes found (use Session.setState):")
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, v)
		}
		os.Exit(1)
	}
}

// Analyze loads patterns relative to dir and returns one line per offending assignment.
func Analyze(dir string, patterns ...string) ([]string, error) {
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedFiles | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedName,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, err
	}

	var violations []string
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			pos := pkg.Fset.Position(file.Pos())
			if strings.HasSuffix(pos.Filename, "_test.go") {
				continue
			}
			for _, decl := range file.Decls {
				fn, ok := decl.(*ast.FuncDecl)
				if !ok || fn.Body == nil || fn.Name.Name == allowedFunc {
					continue
				}
				ast.Inspect(fn.Body, func(n ast.Node) bool {
					assign, ok := n.(*ast.AssignStmt)
					if !ok {
						return true
					}
					for _, lhs := range assign.Lhs {
						sel, ok := lhs.(*ast.SelectorExpr)
						if !ok || !isSessionState(pkg.TypesInfo.TypeOf(sel)) {
							continue
						}
						p := pkg.Fset.Position(sel.Pos())
						violations = append(violations, fmt.Sprintf("%s:%d: %s assigns %s.%s directly",
							p.Filename, p.Line, fn.Name.Name, exprString(sel.X), sel.Sel.Name))
					}
					return true
				})
			}
		}
	}
	return violations, nil
}

func isSessionState(typ types.Type) bool {
	named, ok := typ.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return false
	}
	return named.Obj().Name() == stateTypeName && strings.HasSuffix(named.Obj().Pkg().Path(), modelPkgSuffix)
}

func exprString(e ast.Expr) string {
	if id, ok := e.(*ast.Ident); ok {
		return id.Name
	}
	return "<expr>"
}
