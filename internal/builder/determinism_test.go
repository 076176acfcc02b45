package builder

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chic-lang/chic/internal/ast"
)

// TestBuildFunctionIsDeterministic lowers the same declaration twice,
// independently, and requires the two MIR bodies to be structurally
// identical — the body cache's content-hash keying (func.go's
// sid.ContentHash call) depends on lowering being a pure function of
// the AST, not an artifact of map iteration order or gensym state
// leaking across calls.
func TestBuildFunctionIsDeterministic(t *testing.T) {
	fn := simpleFunc("sum3", block(
		&ast.LetStmt{Name: "xs", Value: &ast.ArrayLit{Elements: []ast.Expr{intLit(1), intLit(2), intLit(3)}}},
		&ast.ReturnStmt{Value: ident("a")},
	))

	first := BuildFunction(fn, "Ns", identityResolver, nil, nil)
	second := BuildFunction(fn, "Ns", identityResolver, nil, nil)

	if diff := cmp.Diff(first.Function, second.Function); diff != "" {
		t.Fatalf("lowering the same function twice produced different MIR (-first +second):\n%s", diff)
	}
}
