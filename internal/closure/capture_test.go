package closure

import (
	"testing"

	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/mir"
)

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func TestFreeVarsSimple(t *testing.T) {
	// \(x). x + y
	body := &ast.BinaryOp{Op: "+", Left: ident("x"), Right: ident("y")}
	got := FreeVars([]string{"x"}, body)
	if len(got) != 1 || got[0] != "y" {
		t.Fatalf("FreeVars = %v, want [y]", got)
	}
}

func TestFreeVarsNoCaptures(t *testing.T) {
	body := &ast.BinaryOp{Op: "+", Left: ident("x"), Right: ident("x")}
	got := FreeVars([]string{"x"}, body)
	if len(got) != 0 {
		t.Fatalf("FreeVars = %v, want none", got)
	}
}

func TestFreeVarsLetShadowsLaterButNotInitializer(t *testing.T) {
	// { let x = y; x + z }
	block := &ast.Block{Stmts: []ast.Stmt{
		&ast.LetStmt{Name: "x", Value: ident("y")},
		&ast.ExprStmt{X: &ast.BinaryOp{Op: "+", Left: ident("x"), Right: ident("z")}},
	}}
	got := FreeVars(nil, &ast.BlockExpr{Block: block})
	want := map[string]bool{"y": true, "z": true}
	if len(got) != len(want) {
		t.Fatalf("FreeVars = %v, want %v", got, want)
	}
	for _, n := range got {
		if !want[n] {
			t.Fatalf("unexpected free var %q in %v", n, got)
		}
	}
}

func TestFreeVarsNestedLambdaParamsDontLeakOut(t *testing.T) {
	// \(x). (\(y). x + y)(q)
	inner := &ast.Lambda{
		Params: []*ast.LambdaParam{{Name: "y"}},
		Body:   &ast.BinaryOp{Op: "+", Left: ident("x"), Right: ident("y")},
	}
	call := &ast.Call{Func: inner, Args: []*ast.Arg{{Value: ident("q")}}}
	got := FreeVars([]string{"x"}, call)
	if len(got) != 1 || got[0] != "q" {
		t.Fatalf("FreeVars = %v, want [q]", got)
	}
}

func TestFreeVarsUsingBindsNameWithinBody(t *testing.T) {
	// using (f = open()) { f.read() }
	usingStmt := &ast.UsingStmt{
		Name:  "f",
		Value: &ast.Call{Func: ident("open")},
		Body: &ast.Block{Stmts: []ast.Stmt{
			&ast.ExprStmt{X: &ast.Call{Func: &ast.FieldAccess{X: ident("f"), Field: "read"}}},
		}},
	}
	block := &ast.Block{Stmts: []ast.Stmt{usingStmt}}
	got := FreeVars(nil, &ast.BlockExpr{Block: block})
	if len(got) != 1 || got[0] != "open" {
		t.Fatalf("FreeVars = %v, want [open]", got)
	}
}

func TestFreeVarsRelationalPatternCollectsExprCapture(t *testing.T) {
	// switch (n) { case > limit: use(n); }
	stmt := &ast.SwitchStmt{
		Discriminant: ident("n"),
		Cases: []*ast.SwitchCase{
			{
				Pattern: &ast.RelationalPattern{Op: ast.RelGreater, Value: ident("limit")},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.ExprStmt{X: &ast.Call{Func: ident("use"), Args: []*ast.Arg{{Value: ident("n")}}}},
				}},
			},
		},
	}
	block := &ast.Block{Stmts: []ast.Stmt{stmt}}
	got := FreeVars(nil, &ast.BlockExpr{Block: block})
	want := map[string]bool{"n": true, "limit": true, "use": true}
	if len(got) != len(want) {
		t.Fatalf("FreeVars = %v, want %v", got, want)
	}
	for _, n := range got {
		if !want[n] {
			t.Fatalf("unexpected free var %q in %v", n, got)
		}
	}
}

func TestFreeVarsListPatternRestBindsTail(t *testing.T) {
	rest := "tail"
	stmt := &ast.SwitchStmt{
		Discriminant: ident("xs"),
		Cases: []*ast.SwitchCase{
			{
				Pattern: &ast.ListPattern{Rest: &rest},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.ExprStmt{X: ident("tail")},
				}},
			},
		},
	}
	block := &ast.Block{Stmts: []ast.Stmt{stmt}}
	got := FreeVars(nil, &ast.BlockExpr{Block: block})
	if len(got) != 1 || got[0] != "xs" {
		t.Fatalf("FreeVars = %v, want [xs] (tail bound by pattern)", got)
	}
}

func TestMutableUsesAssignTarget(t *testing.T) {
	// \() . count = count + 1
	body := &ast.AssignExpr{Target: ident("count"), Value: &ast.BinaryOp{Op: "+", Left: ident("count"), Right: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}}}
	got := MutableUses(nil, body)
	if _, ok := got["count"]; !ok {
		t.Fatalf("MutableUses = %v, want count mutated", got)
	}
}

func TestMutableUsesAddressOfMutTarget(t *testing.T) {
	// \() . &mut acc
	body := &ast.AddressOfExpr{X: ident("acc"), Mut: true}
	got := MutableUses(nil, body)
	if _, ok := got["acc"]; !ok {
		t.Fatalf("MutableUses = %v, want acc mutated", got)
	}
}

func TestMutableUsesPlainReadIsNotMutable(t *testing.T) {
	// \() . x + 1
	body := &ast.BinaryOp{Op: "+", Left: ident("x"), Right: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}}
	got := MutableUses(nil, body)
	if len(got) != 0 {
		t.Fatalf("MutableUses = %v, want none", got)
	}
}

func TestMutableUsesFieldAssignMutatesRoot(t *testing.T) {
	// \() . obj.count = 1
	body := &ast.AssignExpr{Target: &ast.FieldAccess{X: ident("obj"), Field: "count"}, Value: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}}
	got := MutableUses(nil, body)
	if _, ok := got["obj"]; !ok {
		t.Fatalf("MutableUses = %v, want obj mutated via field write", got)
	}
}

func TestMutableUsesNestedLambdaParamShadowsOuterMutation(t *testing.T) {
	// \() . (\(count). count = 1)(q)
	inner := &ast.Lambda{
		Params: []*ast.LambdaParam{{Name: "count"}},
		Body:   &ast.AssignExpr{Target: ident("count"), Value: &ast.Literal{Kind: ast.IntLit, Value: int64(1)}},
	}
	call := &ast.Call{Func: inner, Args: []*ast.Arg{{Value: ident("q")}}}
	got := MutableUses(nil, call)
	if _, ok := got["count"]; ok {
		t.Fatalf("inner lambda's own parameter shouldn't count as an outer mutable capture: %v", got)
	}
}

func TestBuildEnvOrdersCapturesByName(t *testing.T) {
	names := []string{"a", "b"}
	env := BuildEnv("Foo$closure0$Env", names,
		func(n string) *mir.Ty { return mir.Named("int") },
		func(n string) bool { return n == "b" })
	if env.EnvTypeName != "Foo$closure0$Env" {
		t.Fatalf("EnvTypeName = %q", env.EnvTypeName)
	}
	if len(env.Captures) != 2 || env.Captures[0].Name != "a" || env.Captures[1].Name != "b" {
		t.Fatalf("Captures = %+v", env.Captures)
	}
	if env.Captures[0].ByRef || !env.Captures[1].ByRef {
		t.Fatalf("ByRef flags wrong: %+v", env.Captures)
	}
}

func TestCaptureCacheRoundTrip(t *testing.T) {
	c := NewCaptureCache()
	key := Key("Ns.Foo", "\\(x). x + y", []string{"T=int"})
	if _, ok := c.Get(key); ok {
		t.Fatalf("Get on empty cache returned ok")
	}
	d := &mir.ClosureEnvDescriptor{EnvTypeName: "E"}
	c.Put(key, d)
	got, ok := c.Get(key)
	if !ok || got != d {
		t.Fatalf("Get after Put = %v, %v", got, ok)
	}
}

func TestCaptureCacheKeyDiffersByGenericsEnv(t *testing.T) {
	k1 := Key("Ns.Foo", "\\(x). x + y", []string{"T=int"})
	k2 := Key("Ns.Foo", "\\(x). x + y", []string{"T=string"})
	if k1 == k2 {
		t.Fatalf("keys should differ across generics environments")
	}
}
