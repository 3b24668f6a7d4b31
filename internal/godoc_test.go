package internal

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// TestExportedMethodsDocumented verifies that every exported function and
// method on an exported type in the view-facing packages has a doc comment.
//
// The message package is left out: its sealed Type and Name methods are
// declared as aligned one-line blocks under a single comment.
func TestExportedMethodsDocumented(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	// Tests run from internal/
	root := wd
	if filepath.Base(wd) != "internal" {
		root = filepath.Join(wd, "internal")
	}

	packages := []string{"channel", "event", "orchestrator", "panelstate", "prd", "server", "view"}

	var missing []string
	fset := token.NewFileSet()
	for _, pkg := range packages {
		dir := filepath.Join(root, pkg)
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", dir, err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
				continue
			}
			path := filepath.Join(dir, name)
			file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
			if err != nil {
				t.Fatalf("Failed to parse %s: %v", path, err)
			}
			for _, decl := range file.Decls {
				fn, ok := decl.(*ast.FuncDecl)
				if !ok || !fn.Name.IsExported() || !exportedReceiver(fn) {
					continue
				}
				if fn.Doc == nil {
					pos := fset.Position(fn.Pos())
					missing = append(missing, filepath.Join(pkg, name)+":"+strconv.Itoa(pos.Line)+" "+fn.Name.Name)
				}
			}
		}
	}

	if len(missing) > 0 {
		t.Errorf("The following exported functions have no doc comment:\n  %s", strings.Join(missing, "\n  "))
	}
}

// exportedReceiver reports whether fn is a plain function or a method on an
// exported type.
func exportedReceiver(fn *ast.FuncDecl) bool {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return true
	}
	typ := fn.Recv.List[0].Type
	if star, ok := typ.(*ast.StarExpr); ok {
		typ = star.X
	}
	if idx, ok := typ.(*ast.IndexExpr); ok {
		typ = idx.X
	}
	ident, ok := typ.(*ast.Ident)
	return ok && ident.IsExported()
}

