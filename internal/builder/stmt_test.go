package builder

import (
	"testing"

	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/mir"
)

func block(stmts ...ast.Stmt) *ast.Block { return &ast.Block{Stmts: stmts} }

func TestLowerLetStmtDeclaresAndInitializesLocal(t *testing.T) {
	b := newTestBuilder()
	b.lowerLetStmt(&ast.LetStmt{Name: "x", Value: intLit(5)})

	id, ok := b.lookup("x")
	if !ok {
		t.Fatalf("x not declared")
	}
	bb := b.Body.Block(b.current)
	if len(bb.Statements) != 2 || bb.Statements[0].Kind != mir.StmtStorageLive || bb.Statements[0].Local != id {
		t.Fatalf("expected StorageLive(x) first, got %+v", bb.Statements)
	}
	if bb.Statements[1].Kind != mir.StmtAssign || bb.Statements[1].AssignPlace.Base != id {
		t.Fatalf("expected Assign(x, 5) second, got %+v", bb.Statements[1])
	}
}

func TestLowerIfStmtJoinsBothBranches(t *testing.T) {
	b := newTestBuilder()
	st := &ast.IfStmt{
		Cond: intLit(1),
		Then: block(&ast.ExprStmt{X: intLit(1)}),
		Else: block(&ast.ExprStmt{X: intLit(2)}),
	}
	b.lowerIfStmt(st)
	if b.terminated() {
		t.Fatalf("join block should remain open for further lowering")
	}
	// entry + then + else + join == 4 blocks.
	if len(b.Body.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(b.Body.Blocks))
	}
}

func TestLowerIfStmtNoElseFallsThroughToJoin(t *testing.T) {
	b := newTestBuilder()
	st := &ast.IfStmt{Cond: intLit(1), Then: block()}
	b.lowerIfStmt(st)
	// entry + then + join == 3 blocks; else target is the join block itself.
	if len(b.Body.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(b.Body.Blocks))
	}
}

func TestLowerWhileStmtLoopsBackToCond(t *testing.T) {
	b := newTestBuilder()
	st := &ast.WhileStmt{Cond: intLit(1), Body: block()}
	b.lowerWhileStmt(st)

	if len(b.loops) != 0 {
		t.Fatalf("loop context should be popped after lowering, got %d left", len(b.loops))
	}
	// entry + cond + body + after == 4 blocks.
	if len(b.Body.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(b.Body.Blocks))
	}
}

func TestLowerBreakStmtPrefersSwitchOverLoop(t *testing.T) {
	b := newTestBuilder()
	loopAfter := b.newBlock(mir.Span{})
	switchJoin := b.newBlock(mir.Span{})
	b.loops = append(b.loops, mir.LoopContext{BreakTarget: loopAfter, ScopeDepth: 0})
	b.switches = append(b.switches, mir.SwitchContext{JoinBlock: switchJoin, ScopeDepth: 0})

	b.lowerBreakStmt(&ast.BreakStmt{})

	bb := b.Body.Block(b.current)
	if bb.Terminator == nil || bb.Terminator.Kind != mir.TermGoto || bb.Terminator.GotoTarget != switchJoin {
		t.Fatalf("break inside a switch should target the switch join block, got %+v", bb.Terminator)
	}
}

func TestLowerBreakStmtFallsBackToLoopWhenNoSwitch(t *testing.T) {
	b := newTestBuilder()
	loopAfter := b.newBlock(mir.Span{})
	b.loops = append(b.loops, mir.LoopContext{BreakTarget: loopAfter, ScopeDepth: 0})

	b.lowerBreakStmt(&ast.BreakStmt{})

	bb := b.Body.Block(b.current)
	if bb.Terminator == nil || bb.Terminator.Kind != mir.TermGoto || bb.Terminator.GotoTarget != loopAfter {
		t.Fatalf("break should target the loop's break target, got %+v", bb.Terminator)
	}
}

func TestLowerBreakStmtOutsideLoopOrSwitchReportsLOW001(t *testing.T) {
	b := newTestBuilder()
	b.lowerBreakStmt(&ast.BreakStmt{})
	if len(b.Diagnostics) != 1 || b.Diagnostics[0].Code != "LOW001" {
		t.Fatalf("diagnostics = %+v, want one LOW001", b.Diagnostics)
	}
}

func TestDropResourcesToDepthEmitsStorageDeadForOwnedLocals(t *testing.T) {
	b := newTestBuilder()
	id := b.newLocal("f", nil, false, mir.Span{})
	b.resStack = append(b.resStack, resourceFrame{local: id, place: mir.PlaceOf(id), scopeDepth: 1, hasLocal: true})

	b.dropResourcesToDepth(0, mir.Span{})

	bb := b.Body.Block(b.current)
	last := bb.Statements[len(bb.Statements)-1]
	if last.Kind != mir.StmtStorageDead || last.Local != id {
		t.Fatalf("expected StorageDead(_%d), got %+v", id, last)
	}
}

func TestDropResourcesToDepthEmitsLockReleaseForUnownedPlaces(t *testing.T) {
	b := newTestBuilder()
	id := b.newLocal("mu", nil, false, mir.Span{})
	b.resStack = append(b.resStack, resourceFrame{place: mir.PlaceOf(id), scopeDepth: 1, hasLocal: false})

	b.dropResourcesToDepth(0, mir.Span{})

	bb := b.Body.Block(b.current)
	last := bb.Statements[len(bb.Statements)-1]
	if last.Kind != mir.StmtAssign || last.AssignValue.Kind != mir.RvalueIntrinsic || last.AssignValue.Intrinsic != mir.IntrinsicLockRelease {
		t.Fatalf("expected an IntrinsicLockRelease assign, got %+v", last)
	}
}

func TestLowerReturnStmtUnwindsResourcesBeforeReturning(t *testing.T) {
	b := newTestBuilder()
	id := b.newLocal("f", nil, false, mir.Span{})
	b.resStack = append(b.resStack, resourceFrame{local: id, place: mir.PlaceOf(id), scopeDepth: 1, hasLocal: true})

	b.lowerReturnStmt(&ast.ReturnStmt{Value: intLit(0)})

	bb := b.Body.Block(b.current)
	if bb.Terminator == nil || bb.Terminator.Kind != mir.TermReturn {
		t.Fatalf("expected a Return terminator, got %+v", bb.Terminator)
	}
	foundStorageDead := false
	for _, s := range bb.Statements {
		if s.Kind == mir.StmtStorageDead && s.Local == id {
			foundStorageDead = true
		}
	}
	if !foundStorageDead {
		t.Fatalf("expected StorageDead(_%d) before return, statements = %+v", id, bb.Statements)
	}
}

func TestSwitchIsIntLowerableTrueForLiteralLabels(t *testing.T) {
	st := &ast.SwitchStmt{
		Discriminant: ident("n"),
		Cases: []*ast.SwitchCase{
			{Labels: []ast.Expr{intLit(1)}, Body: block()},
			{IsDefault: true, Body: block()},
		},
	}
	if !switchIsIntLowerable(st) {
		t.Fatalf("expected switch with only literal labels to be int-lowerable")
	}
}

func TestSwitchIsIntLowerableFalseForPatternCase(t *testing.T) {
	st := &ast.SwitchStmt{
		Discriminant: ident("n"),
		Cases: []*ast.SwitchCase{
			{Pattern: &ast.ConstructorPattern{UnionName: "Option", VariantName: "Some"}, Body: block()},
		},
	}
	if switchIsIntLowerable(st) {
		t.Fatalf("expected switch with a pattern case to not be int-lowerable")
	}
}

func TestLowerSwitchAsIntChainsCasesAndJoins(t *testing.T) {
	b := newTestBuilder()
	st := &ast.SwitchStmt{
		Discriminant: intLit(1),
		Cases: []*ast.SwitchCase{
			{Labels: []ast.Expr{intLit(1)}, Body: block(&ast.ExprStmt{X: intLit(10)})},
			{Labels: []ast.Expr{intLit(2)}, Body: block(&ast.ExprStmt{X: intLit(20)})},
			{IsDefault: true, Body: block(&ast.ExprStmt{X: intLit(0)})},
		},
	}
	b.lowerSwitchStmt(st)

	if len(b.switches) != 0 {
		t.Fatalf("switch context should be popped after lowering")
	}
	if b.terminated() {
		t.Fatalf("join block should remain open")
	}
}

func TestLowerSwitchAsMatchHandlesConstructorPattern(t *testing.T) {
	b := newTestBuilder()
	st := &ast.SwitchStmt{
		Discriminant: ident("opt"),
		Cases: []*ast.SwitchCase{
			{Pattern: &ast.ConstructorPattern{UnionName: "Option", VariantName: "Some"}, Body: block(&ast.ExprStmt{X: intLit(1)})},
			{IsDefault: true, Body: block(&ast.ExprStmt{X: intLit(0)})},
		},
	}
	b.newLocal("opt", mir.Named("Option"), false, mir.Span{})
	b.lowerSwitchStmt(st)
	if len(b.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics for a supported pattern: %+v", b.Diagnostics)
	}
}

func TestLowerSwitchAsMatchReportsUnsupportedPattern(t *testing.T) {
	b := newTestBuilder()
	st := &ast.SwitchStmt{
		Discriminant: ident("xs"),
		Cases: []*ast.SwitchCase{
			{Pattern: &ast.ListPattern{}, Body: block()},
		},
	}
	b.newLocal("xs", mir.Named("int[]"), false, mir.Span{})
	b.lowerSwitchStmt(st)
	if len(b.Diagnostics) != 1 || b.Diagnostics[0].Code != "LOW001" {
		t.Fatalf("diagnostics = %+v, want one LOW001 for the unsupported ListPattern", b.Diagnostics)
	}
}

func TestLowerUsingStmtNameDoesNotLeakPastBody(t *testing.T) {
	b := newTestBuilder()
	st := &ast.UsingStmt{
		Name:  "f",
		Value: &ast.Call{Func: ident("open")},
		Body:  block(&ast.ExprStmt{X: ident("f")}),
	}
	b.lowerUsingStmt(st)

	if _, ok := b.lookup("f"); ok {
		t.Fatalf("using-bound name %q leaked past the statement's lexical extent", "f")
	}
	if len(b.resStack) != 0 {
		t.Fatalf("resource frame should be popped after lowering using")
	}
}

func TestLowerUsingStmtEmitsStorageDeadOnFallthrough(t *testing.T) {
	b := newTestBuilder()
	st := &ast.UsingStmt{Name: "f", Value: intLit(0), Body: block()}
	b.lowerUsingStmt(st)

	bb := b.Body.Block(b.current)
	last := bb.Statements[len(bb.Statements)-1]
	if last.Kind != mir.StmtStorageDead {
		t.Fatalf("expected a trailing StorageDead, got %+v", last)
	}
}

func TestLowerLockStmtBracketsWithAcquireAndRelease(t *testing.T) {
	b := newTestBuilder()
	id := b.newLocal("mu", mir.Named("Mutex"), false, mir.Span{})
	st := &ast.LockStmt{Target: ident("mu"), Body: block()}
	b.lowerLockStmt(st)

	var kinds []mir.IntrinsicKind
	for _, bb := range b.Body.Blocks {
		for _, s := range bb.Statements {
			if s.Kind == mir.StmtAssign && s.AssignValue.Kind == mir.RvalueIntrinsic {
				kinds = append(kinds, s.AssignValue.Intrinsic)
			}
		}
	}
	if len(kinds) != 2 || kinds[0] != mir.IntrinsicLockAcquire || kinds[1] != mir.IntrinsicLockRelease {
		t.Fatalf("expected [Acquire, Release], got %v", kinds)
	}
	if len(b.resStack) != 0 {
		t.Fatalf("lock's resource frame should be popped after lowering")
	}
	_ = id
}

func TestLowerFixedStmtNameDoesNotLeakPastBody(t *testing.T) {
	b := newTestBuilder()
	st := &ast.FixedStmt{Name: "p", Value: intLit(0), Body: block(&ast.ExprStmt{X: ident("p")})}
	b.lowerFixedStmt(st)
	if _, ok := b.lookup("p"); ok {
		t.Fatalf("fixed-bound name leaked past the statement's lexical extent")
	}
}

func TestLowerRegionStmtUsesHiddenTempNotNameLookup(t *testing.T) {
	b := newTestBuilder()
	st := &ast.RegionStmt{Name: "r", Body: block()}
	b.lowerRegionStmt(st)
	if _, ok := b.lookup("r"); ok {
		t.Fatalf("region should not introduce a name-lookup binding")
	}
	if len(b.resStack) != 0 {
		t.Fatalf("region's resource frame should be popped after lowering")
	}
}

func TestLowerBlockModStmtAtomicBracketsWithFences(t *testing.T) {
	b := newTestBuilder()
	st := &ast.BlockModStmt{Kind: ast.ModAtomic, Order: ast.OrderSeqCst, Body: block()}
	b.lowerBlockModStmt(st)

	bb := b.Body.Block(b.current)
	if len(bb.Statements) != 2 || bb.Statements[0].Kind != mir.StmtAtomicFence || bb.Statements[1].Kind != mir.StmtAtomicFence {
		t.Fatalf("expected two AtomicFence statements bracketing the body, got %+v", bb.Statements)
	}
}

func TestLowerBlockModStmtCheckedIsTransparent(t *testing.T) {
	b := newTestBuilder()
	st := &ast.BlockModStmt{Kind: ast.ModChecked, Body: block(&ast.ExprStmt{X: intLit(1)})}
	b.lowerBlockModStmt(st)

	bb := b.Body.Block(b.current)
	for _, s := range bb.Statements {
		if s.Kind == mir.StmtAtomicFence {
			t.Fatalf("checked block should not emit fences")
		}
	}
}
