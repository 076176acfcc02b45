package builder

import (
	"testing"

	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/mir"
)

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func intLit(v int64) *ast.Literal { return &ast.Literal{Kind: ast.IntLit, Value: v} }

func newTestBuilder() *Builder {
	return New("Test.Fn", mir.Named("int"), mir.Span{}, nil, nil)
}

func TestLowerExprIdentifierKnownLocal(t *testing.T) {
	b := newTestBuilder()
	id := b.newLocal("x", mir.Named("int"), false, mir.Span{})

	op := b.lowerExpr(ident("x"))
	if op.Kind != mir.OperandCopy || op.Place.Base != id {
		t.Fatalf("lowerExpr(x) = %+v, want Copy(_%d)", op, id)
	}
}

func TestLowerExprIdentifierUnresolvedIsSymbolConst(t *testing.T) {
	b := newTestBuilder()
	op := b.lowerExpr(ident("Std.Console.Print"))
	if op.Kind != mir.OperandConst || op.Const.Value.Kind != mir.ConstSymbol || op.Const.Value.SymbolVal != "Std.Console.Print" {
		t.Fatalf("lowerExpr(unresolved) = %+v, want symbol const", op)
	}
}

func TestLowerExprLiteralInt(t *testing.T) {
	b := newTestBuilder()
	op := b.lowerExpr(intLit(7))
	if op.Kind != mir.OperandConst || op.Const.Value.Kind != mir.ConstInt || op.Const.Value.IntVal != 7 {
		t.Fatalf("lowerExpr(7) = %+v", op)
	}
}

func TestLowerExprBinaryOpEmitsAssignAndReturnsTemp(t *testing.T) {
	b := newTestBuilder()
	expr := &ast.BinaryOp{Op: "+", Left: intLit(1), Right: intLit(2)}
	op := b.lowerExpr(expr)

	bb := b.Body.Block(b.current)
	if len(bb.Statements) != 1 || bb.Statements[0].Kind != mir.StmtAssign {
		t.Fatalf("expected exactly one Assign statement, got %+v", bb.Statements)
	}
	if bb.Statements[0].AssignValue.Kind != mir.RvalueBinaryOp || bb.Statements[0].AssignValue.Op != "+" {
		t.Fatalf("assign rvalue = %+v, want BinaryOp(+)", bb.Statements[0].AssignValue)
	}
	if op.Kind != mir.OperandCopy || op.Place.String() != bb.Statements[0].AssignPlace.String() {
		t.Fatalf("result operand %+v doesn't reference the assigned temp", op)
	}
}

func TestLowerExprComparisonGetsBoolType(t *testing.T) {
	b := newTestBuilder()
	b.lowerExpr(&ast.BinaryOp{Op: "<", Left: intLit(1), Right: intLit(2)})
	bb := b.Body.Block(b.current)
	tempPlace := bb.Statements[0].AssignPlace
	ty := b.Body.Local(tempPlace.Base).Type
	if ty == nil || ty.CanonicalName() != "bool" {
		t.Fatalf("comparison result type = %v, want bool", ty)
	}
}

func TestLowerExprCallSplitsBlock(t *testing.T) {
	b := newTestBuilder()
	start := b.current
	call := &ast.Call{Func: ident("Helper"), Args: []*ast.Arg{{Value: intLit(1)}}}
	op := b.lowerExpr(call)

	startBlock := b.Body.Block(start)
	if startBlock.Terminator == nil || startBlock.Terminator.Kind != mir.TermCall {
		t.Fatalf("expected a Call terminator on the starting block, got %+v", startBlock.Terminator)
	}
	if startBlock.Terminator.CallFunc != "Helper" {
		t.Fatalf("CallFunc = %q, want Helper", startBlock.Terminator.CallFunc)
	}
	if b.current == start {
		t.Fatalf("lowerCall should have opened a continuation block")
	}
	if op.Kind != mir.OperandCopy || startBlock.Terminator.CallDestination.String() != op.Place.String() {
		t.Fatalf("returned operand doesn't reference the call's destination place")
	}
}

func TestLowerExprNullCoalesceBranchesOnNull(t *testing.T) {
	b := newTestBuilder()
	left := &ast.Identifier{Name: "maybe"}
	b.newLocal("maybe", mir.Named("int"), false, mir.Span{})
	expr := &ast.NullCoalesceExpr{Left: left, Right: intLit(0)}

	b.lowerExpr(expr)

	// Three extra blocks (right, not-null, join) are appended beyond the
	// single starting block.
	if len(b.Body.Blocks) < 4 {
		t.Fatalf("expected >= 4 blocks after null-coalesce lowering, got %d", len(b.Body.Blocks))
	}
}

func TestLowerExprAddressOf(t *testing.T) {
	b := newTestBuilder()
	id := b.newLocal("x", mir.Named("int"), true, mir.Span{})
	op := b.lowerExpr(&ast.AddressOfExpr{X: ident("x"), Mut: true})

	bb := b.Body.Block(b.current)
	last := bb.Statements[len(bb.Statements)-1]
	if last.AssignValue.Kind != mir.RvalueAddressOf || last.AssignValue.AddrPlace.Base != id || !last.AssignValue.AddrMut {
		t.Fatalf("expected &mut _%d, got %+v", id, last.AssignValue)
	}
	if op.Kind != mir.OperandCopy {
		t.Fatalf("result should be a Copy of the address temp")
	}
}

func TestLowerPlaceUnsupportedKindReportsLOW001(t *testing.T) {
	b := newTestBuilder()
	b.lowerPlace(&ast.BinaryOp{Op: "+", Left: intLit(1), Right: intLit(2)})
	if len(b.Diagnostics) != 1 || b.Diagnostics[0].Code != "LOW001" {
		t.Fatalf("diagnostics = %+v, want one LOW001", b.Diagnostics)
	}
}

// TestLowerExprArrayLitScenario1 is spec.md §8 concrete scenario 1: a
// function returning int[] with literal [1,2,3] must contain a Call to
// chic_rt_vec_with_capacity, a ZeroInitRaw, and an Assign into a
// FieldNamed("len") place whose rvalue is Const(UInt(3)).
func TestLowerExprArrayLitScenario1(t *testing.T) {
	b := newTestBuilder()
	lit := &ast.ArrayLit{Elements: []ast.Expr{intLit(1), intLit(2), intLit(3)}}
	op := b.lowerExpr(lit)

	var sawCall, sawZero, sawLen bool
	for _, bb := range b.Body.Blocks {
		if bb.Terminator != nil && bb.Terminator.Kind == mir.TermCall && bb.Terminator.CallFunc == arrayAllocSymbol {
			sawCall = true
			if len(bb.Terminator.CallArgs) != 1 || bb.Terminator.CallArgs[0].Const.Value.Kind != mir.ConstUint || bb.Terminator.CallArgs[0].Const.Value.UintVal != 3 {
				t.Fatalf("vec_with_capacity arg = %+v, want UInt(3)", bb.Terminator.CallArgs)
			}
		}
		for _, stmt := range bb.Statements {
			if stmt.Kind == mir.StmtZeroInitRaw {
				sawZero = true
			}
			if stmt.Kind == mir.StmtAssign && len(stmt.AssignPlace.Projections) > 0 {
				last := stmt.AssignPlace.Projections[len(stmt.AssignPlace.Projections)-1]
				if last.Kind == mir.ProjFieldNamed && last.FieldName == "len" {
					sawLen = true
					if stmt.AssignValue.Kind != mir.RvalueUse || stmt.AssignValue.Use.Const.Value.Kind != mir.ConstUint || stmt.AssignValue.Use.Const.Value.UintVal != 3 {
						t.Fatalf("len assign rvalue = %+v, want Const(UInt(3))", stmt.AssignValue)
					}
				}
			}
		}
	}
	if !sawCall {
		t.Fatalf("expected a Call to %s", arrayAllocSymbol)
	}
	if !sawZero {
		t.Fatalf("expected a ZeroInitRaw statement")
	}
	if !sawLen {
		t.Fatalf("expected an Assign into a len field")
	}
	if op.Kind != mir.OperandCopy {
		t.Fatalf("lowerArrayLit should return a Copy of the aggregate temp")
	}
}

func TestLowerPlaceFieldAccessProjectsField(t *testing.T) {
	b := newTestBuilder()
	id := b.newLocal("obj", mir.Named("Widget"), false, mir.Span{})
	place, _ := b.lowerPlace(&ast.FieldAccess{X: ident("obj"), Field: "count"})
	if place.Base != id || len(place.Projections) != 1 || place.Projections[0].FieldName != "count" {
		t.Fatalf("lowerPlace(obj.count) = %+v", place)
	}
}

// TestLowerLambdaCapturesMutatedVarByRef exercises spec.md §4.2.4's
// concrete rule: a captured variable that the lambda body assigns to is
// captured by reference, not by value.
func TestLowerLambdaCapturesMutatedVarByRef(t *testing.T) {
	b := newTestBuilder()
	b.newLocal("total", mir.Named("int"), true, mir.Span{})
	lambda := &ast.Lambda{
		Params: []*ast.LambdaParam{{Name: "x"}},
		Body: &ast.AssignExpr{
			Target: ident("total"),
			Value:  &ast.BinaryOp{Op: "+", Left: ident("total"), Right: ident("x")},
		},
	}
	b.lowerExpr(lambda)

	fn := b.SynthesizedFunctions[0]
	env := fn.Body.Metadata.ClosureEnv
	if env == nil || len(env.Captures) != 1 || env.Captures[0].Name != "total" {
		t.Fatalf("closure env = %+v, want one capture named total", env)
	}
	if !env.Captures[0].ByRef {
		t.Fatalf("capture of a mutated variable should be ByRef, got %+v", env.Captures[0])
	}
}

func TestLowerLambdaSynthesizesClosureFunction(t *testing.T) {
	b := newTestBuilder()
	y := b.newLocal("y", mir.Named("int"), false, mir.Span{})
	_ = y
	lambda := &ast.Lambda{
		Params: []*ast.LambdaParam{{Name: "x"}},
		Body:   &ast.BinaryOp{Op: "+", Left: ident("x"), Right: ident("y")},
	}
	op := b.lowerExpr(lambda)

	if len(b.SynthesizedFunctions) != 1 {
		t.Fatalf("expected one synthesized closure function, got %d", len(b.SynthesizedFunctions))
	}
	fn := b.SynthesizedFunctions[0]
	if fn.Name != "Test.Fn$closure0" {
		t.Fatalf("closure function name = %q", fn.Name)
	}
	if fn.Body.Metadata.ClosureEnv == nil || len(fn.Body.Metadata.ClosureEnv.Captures) != 1 || fn.Body.Metadata.ClosureEnv.Captures[0].Name != "y" {
		t.Fatalf("closure env = %+v, want one capture named y", fn.Body.Metadata.ClosureEnv)
	}
	if op.Kind != mir.OperandCopy {
		t.Fatalf("lowerLambda should return a Copy of the env aggregate temp")
	}
}
