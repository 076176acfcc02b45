package builder

import (
	"fmt"

	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/diag"
	"github.com/chic-lang/chic/internal/mir"
)

// lowerBlock lowers every statement of blk in a fresh lexical scope,
// dropping any locals the block declared directly (plain lets as well
// as resource-statement bindings nested inside it) when the scope
// closes.
func (b *Builder) lowerBlock(blk *ast.Block) {
	depth := b.pushScope()
	for _, s := range blk.Stmts {
		b.lowerStmt(s)
	}
	b.closeScope(depth, toSpan(blk.Pos))
}

// lowerStmt dispatches one statement. Grounded on original_source's
// body_builder/loops/loop_stack.rs (break/continue target resolution),
// resource_dispatch.rs and region.rs (using/lock/fixed/region cleanup
// discipline), and switch/entry.rs + switch/int_lowering.rs (switch
// dispatch strategy).
func (b *Builder) lowerStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.LetStmt:
		b.lowerLetStmt(st)
	case *ast.ExprStmt:
		b.lowerExpr(st.X)
	case *ast.IfStmt:
		b.lowerIfStmt(st)
	case *ast.WhileStmt:
		b.lowerWhileStmt(st)
	case *ast.DoWhileStmt:
		b.lowerDoWhileStmt(st)
	case *ast.ForStmt:
		b.lowerForStmt(st)
	case *ast.BreakStmt:
		b.lowerBreakStmt(st)
	case *ast.ContinueStmt:
		b.lowerContinueStmt(st)
	case *ast.ReturnStmt:
		b.lowerReturnStmt(st)
	case *ast.SwitchStmt:
		b.lowerSwitchStmt(st)
	case *ast.UsingStmt:
		b.lowerUsingStmt(st)
	case *ast.LockStmt:
		b.lowerLockStmt(st)
	case *ast.FixedStmt:
		b.lowerFixedStmt(st)
	case *ast.RegionStmt:
		b.lowerRegionStmt(st)
	case *ast.BlockModStmt:
		b.lowerBlockModStmt(st)
	case *ast.AwaitStmt:
		b.lowerAwaitStmt(st)
	case *ast.Block:
		b.lowerBlock(st)
	default:
		span := toSpan(s.Position())
		b.report(diag.New(diag.LOW001, fmt.Sprintf("unsupported statement kind %T", s), &span))
	}
}

// lowerLetStmt declares a local and registers it on resStack exactly
// like using/fixed/region do, so it gets the same reverse-order
// StorageDead on normal scope exit (via closeScope) and the same
// unwind-on-early-exit treatment (via dropResourcesToDepth) that
// resource statements get — a let binding is simply a resource frame
// with no extra cleanup statement of its own.
func (b *Builder) lowerLetStmt(st *ast.LetStmt) {
	span := toSpan(st.Pos)
	value := b.lowerExpr(st.Value)
	ty := b.resolve(st.Type)
	id := b.newLocal(st.Name, ty, st.Mutable, span)
	b.emit(mir.StorageLive(id, span))
	b.emit(mir.Assign(mir.PlaceOf(id), mir.UseOf(value), span))
	b.resStack = append(b.resStack, resourceFrame{local: id, place: mir.PlaceOf(id), scopeDepth: b.scopeDepth, hasLocal: true})
}

func (b *Builder) lowerIfStmt(st *ast.IfStmt) {
	span := toSpan(st.Pos)
	cond := b.lowerExpr(st.Cond)

	thenBlock := b.newBlock(span)
	joinBlock := b.newBlock(span)
	elseTarget := joinBlock
	hasElse := st.Else != nil
	var elseBlock mir.BlockId
	if hasElse {
		elseBlock = b.newBlock(span)
		elseTarget = elseBlock
	}
	b.setTerm(mir.SwitchIntTerm(cond, []mir.SwitchArm{{Value: 1, Target: thenBlock}}, elseTarget, true, span))

	b.current = thenBlock
	b.lowerBlock(st.Then)
	if !b.terminated() {
		b.setTerm(mir.Goto(joinBlock, span))
	}

	if hasElse {
		b.current = elseBlock
		b.lowerBlock(st.Else)
		if !b.terminated() {
			b.setTerm(mir.Goto(joinBlock, span))
		}
	}

	b.current = joinBlock
}

func (b *Builder) lowerWhileStmt(st *ast.WhileStmt) {
	span := toSpan(st.Pos)
	// A wrapping scope of the loop's own, exactly like lowerForStmt:
	// without it, ScopeDepth would equal the enclosing scope's depth,
	// and a break's dropResourcesToDepth would incorrectly unwind
	// resources declared before the loop at that same level.
	depth := b.pushScope()

	condBlock := b.newBlock(span)
	bodyBlock := b.newBlock(span)
	afterBlock := b.newBlock(span)

	b.setTerm(mir.Goto(condBlock, span))

	b.current = condBlock
	cond := b.lowerExpr(st.Cond)
	b.setTerm(mir.SwitchIntTerm(cond, []mir.SwitchArm{{Value: 1, Target: bodyBlock}}, afterBlock, true, span))

	b.loops = append(b.loops, mir.LoopContext{BreakTarget: afterBlock, ContinueTarget: condBlock, ScopeDepth: depth})

	b.current = bodyBlock
	b.lowerBlock(st.Body)
	if !b.terminated() {
		b.setTerm(mir.Goto(condBlock, span))
	}

	b.loops = b.loops[:len(b.loops)-1]
	b.current = afterBlock
	b.popScope()
}

func (b *Builder) lowerDoWhileStmt(st *ast.DoWhileStmt) {
	span := toSpan(st.Pos)
	// See lowerWhileStmt: a wrapping scope of the loop's own keeps a
	// break from unwinding resources declared before the loop.
	depth := b.pushScope()

	bodyBlock := b.newBlock(span)
	condBlock := b.newBlock(span)
	afterBlock := b.newBlock(span)

	b.setTerm(mir.Goto(bodyBlock, span))

	b.loops = append(b.loops, mir.LoopContext{BreakTarget: afterBlock, ContinueTarget: condBlock, ScopeDepth: depth})

	b.current = bodyBlock
	b.lowerBlock(st.Body)
	if !b.terminated() {
		b.setTerm(mir.Goto(condBlock, span))
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.current = condBlock
	cond := b.lowerExpr(st.Cond)
	b.setTerm(mir.SwitchIntTerm(cond, []mir.SwitchArm{{Value: 1, Target: bodyBlock}}, afterBlock, true, span))

	b.current = afterBlock
	b.popScope()
}

func (b *Builder) lowerForStmt(st *ast.ForStmt) {
	span := toSpan(st.Pos)
	depth := b.pushScope()

	if st.Init != nil {
		b.lowerStmt(st.Init)
	}

	condBlock := b.newBlock(span)
	bodyBlock := b.newBlock(span)
	stepBlock := b.newBlock(span)
	afterBlock := b.newBlock(span)

	b.setTerm(mir.Goto(condBlock, span))

	b.current = condBlock
	if st.Cond != nil {
		cond := b.lowerExpr(st.Cond)
		b.setTerm(mir.SwitchIntTerm(cond, []mir.SwitchArm{{Value: 1, Target: bodyBlock}}, afterBlock, true, span))
	} else {
		b.setTerm(mir.Goto(bodyBlock, span))
	}

	b.loops = append(b.loops, mir.LoopContext{BreakTarget: afterBlock, ContinueTarget: stepBlock, ScopeDepth: depth + 1})

	b.current = bodyBlock
	b.lowerBlock(st.Body)
	if !b.terminated() {
		b.setTerm(mir.Goto(stepBlock, span))
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.current = stepBlock
	if st.Step != nil {
		b.lowerStmt(st.Step)
	}
	if !b.terminated() {
		b.setTerm(mir.Goto(condBlock, span))
	}

	// The init-declared loop variable's scope closes in afterBlock, not
	// here: stepBlock is already terminated by the time we reach this
	// point (its goto back to condBlock was just set), and every path
	// out of the loop — normal condition-false exit or a break — lands
	// in afterBlock, so that is where its one StorageDead belongs.
	b.current = afterBlock
	b.closeScope(depth, span)
}

// lowerBreakStmt: a switch's break target takes precedence over any
// enclosing loop's, since `break` inside a switch arm exits the switch
// (original_source/src/mir/builder/body_builder/loops/loop_stack.rs
// consults the switch stack before the loop stack).
func (b *Builder) lowerBreakStmt(st *ast.BreakStmt) {
	span := toSpan(st.Pos)
	if n := len(b.switches); n > 0 {
		sw := b.switches[n-1]
		b.dropResourcesToDepth(sw.ScopeDepth, span)
		b.setTerm(mir.Goto(sw.JoinBlock, span))
		return
	}
	if n := len(b.loops); n > 0 {
		lp := b.loops[n-1]
		b.dropResourcesToDepth(lp.ScopeDepth, span)
		b.setTerm(mir.Goto(lp.BreakTarget, span))
		return
	}
	b.report(diag.New(diag.LOW001, "break outside any loop or switch", &span))
}

func (b *Builder) lowerContinueStmt(st *ast.ContinueStmt) {
	span := toSpan(st.Pos)
	if n := len(b.loops); n > 0 {
		lp := b.loops[n-1]
		b.dropResourcesToDepth(lp.ScopeDepth, span)
		b.setTerm(mir.Goto(lp.ContinueTarget, span))
		return
	}
	b.report(diag.New(diag.LOW001, "continue outside any loop", &span))
}

func (b *Builder) lowerReturnStmt(st *ast.ReturnStmt) {
	span := toSpan(st.Pos)
	if st.Value != nil {
		v := b.lowerExpr(st.Value)
		b.emit(mir.Assign(mir.PlaceOf(0), mir.UseOf(v), span))
	}
	b.dropResourcesToDepth(0, span)
	b.setTerm(mir.Return(span))
}

// dropResourcesToDepth unwinds every open resource frame with
// scopeDepth >= depth, emitting its cleanup in reverse declaration
// order (innermost resource closes first), matching
// resource_dispatch.rs's unwind-on-early-exit behavior.
func (b *Builder) dropResourcesToDepth(depth int, span mir.Span) {
	for i := len(b.resStack) - 1; i >= 0; i-- {
		frame := b.resStack[i]
		if frame.scopeDepth < depth {
			break
		}
		if frame.hasLocal {
			b.emit(mir.StorageDead(frame.local, span))
		} else {
			b.emit(mir.Assign(mir.PlaceOf(b.newTemp(nil, span)), mir.Intrinsic(mir.IntrinsicLockRelease, []*mir.Operand{mir.Copy(frame.place)}), span))
		}
	}
}

func (b *Builder) lowerSwitchStmt(st *ast.SwitchStmt) {
	if switchIsIntLowerable(st) {
		b.lowerSwitchAsInt(st)
		return
	}
	b.lowerSwitchAsMatch(st)
}

// switchIsIntLowerable reports whether every case label is a constant
// integer/boolean literal, allowing the cheaper linear int-compare
// chain instead of full pattern matching
// (original_source/src/mir/builder/body_builder/switch/entry.rs picks
// between int_lowering.rs and the general matcher on exactly this
// condition).
func switchIsIntLowerable(st *ast.SwitchStmt) bool {
	for _, c := range st.Cases {
		if c.IsDefault {
			continue
		}
		if c.Pattern != nil || c.Guard != nil {
			return false
		}
		for _, lbl := range c.Labels {
			if _, ok := lbl.(*ast.Literal); !ok {
				return false
			}
		}
	}
	return true
}

// lowerSwitchAsInt lowers the switch as a linear chain of per-case
// check blocks rather than a flat jump table — each case is its own
// SwitchInt comparing the discriminant against that case's constant,
// falling through to the next case's check block on mismatch
// (original_source/src/mir/builder/body_builder/switch/int_lowering.rs).
func (b *Builder) lowerSwitchAsInt(st *ast.SwitchStmt) {
	span := toSpan(st.Pos)
	disc := b.lowerExpr(st.Discriminant)
	discTemp := b.newTemp(nil, span)
	b.emit(mir.Assign(mir.PlaceOf(discTemp), mir.UseOf(disc), span))

	joinBlock := b.newBlock(span)
	var defaultCase *ast.SwitchCase
	var ordered []*ast.SwitchCase
	for _, c := range st.Cases {
		if c.IsDefault {
			defaultCase = c
			continue
		}
		ordered = append(ordered, c)
	}

	defaultTarget := joinBlock
	hasDefault := defaultCase != nil
	b.switches = append(b.switches, mir.SwitchContext{JoinBlock: joinBlock, ScopeDepth: b.scopeDepth, DefaultTarget: defaultTarget, HasDefaultTarget: hasDefault})

	next := b.current
	for _, c := range ordered {
		checkBlock := next
		b.current = checkBlock
		caseBlock := b.newBlock(span)
		next = b.newBlock(span)
		var arms []mir.SwitchArm
		for _, lbl := range c.Labels {
			lit, _ := lbl.(*ast.Literal)
			arms = append(arms, mir.SwitchArm{Value: literalInt(lit), Target: caseBlock})
		}
		b.setTerm(mir.SwitchIntTerm(mir.Copy(mir.PlaceOf(discTemp)), arms, next, true, span))

		b.current = caseBlock
		b.lowerBlock(c.Body)
		if !b.terminated() {
			b.setTerm(mir.Goto(joinBlock, span))
		}
	}
	b.current = next
	if defaultCase != nil {
		b.lowerBlock(defaultCase.Body)
	}
	if !b.terminated() {
		b.setTerm(mir.Goto(joinBlock, span))
	}

	b.switches = b.switches[:len(b.switches)-1]
	b.current = joinBlock
}

func literalInt(lit *ast.Literal) int64 {
	if lit == nil {
		return 0
	}
	switch v := lit.Value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// lowerSwitchAsMatch handles switches with non-constant labels by
// falling back to ConstructorPattern/RelationalPattern dispatch only;
// every other pattern kind is diagnosed as unsupported and treated as
// never-matching, since chic's pattern-exhaustiveness checker lives
// upstream of the body builder and is out of this pass's scope.
func (b *Builder) lowerSwitchAsMatch(st *ast.SwitchStmt) {
	span := toSpan(st.Pos)
	disc := b.lowerExpr(st.Discriminant)
	discTemp := b.newTemp(nil, span)
	b.emit(mir.Assign(mir.PlaceOf(discTemp), mir.UseOf(disc), span))

	joinBlock := b.newBlock(span)
	b.switches = append(b.switches, mir.SwitchContext{JoinBlock: joinBlock, ScopeDepth: b.scopeDepth})

	next := b.current
	var defaultCase *ast.SwitchCase
	for _, c := range st.Cases {
		if c.IsDefault {
			defaultCase = c
			continue
		}
		b.current = next
		next = b.newBlock(span)
		matched, ok := b.lowerCasePattern(c, discTemp, next, span)
		if !ok {
			b.report(diag.New(diag.LOW001, "unsupported switch-case pattern kind; treated as never-matching", &span))
			continue
		}
		b.current = matched
		b.lowerBlock(c.Body)
		if !b.terminated() {
			b.setTerm(mir.Goto(joinBlock, span))
		}
	}
	b.current = next
	if defaultCase != nil {
		b.lowerBlock(defaultCase.Body)
	}
	if !b.terminated() {
		b.setTerm(mir.Goto(joinBlock, span))
	}

	b.switches = b.switches[:len(b.switches)-1]
	b.current = joinBlock
}

// lowerCasePattern opens a SwitchInt test in the current block
// comparing discTemp against c's pattern, returning the block lowering
// continues in on a match. Only ConstructorPattern (tag comparison)
// and RelationalPattern (comparison op against an expression) are
// supported; any other pattern kind links the current block straight
// to onMiss and reports ok=false.
func (b *Builder) lowerCasePattern(c *ast.SwitchCase, discTemp mir.LocalId, onMiss mir.BlockId, span mir.Span) (mir.BlockId, bool) {
	switch pat := c.Pattern.(type) {
	case *ast.ConstructorPattern:
		matched := b.newBlock(span)
		tagTemp := b.newTemp(mir.Named("int"), span)
		b.emit(mir.Assign(mir.PlaceOf(tagTemp), mir.Discriminant(mir.PlaceOf(discTemp)), span))
		b.setTerm(mir.SwitchIntTerm(mir.Copy(mir.PlaceOf(tagTemp)), []mir.SwitchArm{{Value: 1, Target: matched}}, onMiss, true, span))
		return matched, true
	case *ast.RelationalPattern:
		matched := b.newBlock(span)
		rhs := b.lowerExpr(pat.Value)
		cmp := b.newTemp(mir.Named("bool"), span)
		b.emit(mir.Assign(mir.PlaceOf(cmp), mir.BinaryOp(relationalOpString(pat.Op), mir.Copy(mir.PlaceOf(discTemp)), rhs), span))
		b.setTerm(mir.SwitchIntTerm(mir.Copy(mir.PlaceOf(cmp)), []mir.SwitchArm{{Value: 1, Target: matched}}, onMiss, true, span))
		return matched, true
	default:
		b.setTerm(mir.Goto(onMiss, span))
		b.current = onMiss
		return onMiss, false
	}
}

func relationalOpString(op ast.RelationalOp) string {
	switch op {
	case ast.RelLess:
		return "<"
	case ast.RelLessEq:
		return "<="
	case ast.RelGreater:
		return ">"
	case ast.RelGreaterEq:
		return ">="
	case ast.RelEq:
		return "=="
	case ast.RelNotEq:
		return "!="
	default:
		return "=="
	}
}

// lowerUsingStmt lowers `using (name = value) body`: a StorageLive'd,
// named local whose DeferDrop is scheduled immediately after
// initialization and whose StorageDead is emitted on fallthrough, only
// if the body didn't already transfer control elsewhere
// (resource_dispatch.rs's register_resource_decl / schedule_defer_drop
// / emit_storage_dead_for_resources sequence).
func (b *Builder) lowerUsingStmt(st *ast.UsingStmt) {
	span := toSpan(st.Pos)
	value := b.lowerExpr(st.Value)

	depth := b.pushScope()
	id := b.newLocal(st.Name, nil, false, span)
	b.emit(mir.StorageLive(id, span))
	b.emit(mir.Assign(mir.PlaceOf(id), mir.UseOf(value), span))
	b.emit(mir.DeferDropStmt(mir.PlaceOf(id), span))
	b.resStack = append(b.resStack, resourceFrame{local: id, place: mir.PlaceOf(id), scopeDepth: depth, hasLocal: true})

	b.lowerBlock(st.Body)

	b.resStack = b.resStack[:len(b.resStack)-1]
	b.popScope()
	if !b.terminated() {
		b.emit(mir.StorageDead(id, span))
	}
}

// lowerLockStmt lowers `lock (target) body`. Unlike using/fixed/region,
// lock does not own storage — it locks an existing place — so its
// cleanup obligation is an explicit release intrinsic rather than a
// DeferDrop/StorageDead pair.
func (b *Builder) lowerLockStmt(st *ast.LockStmt) {
	span := toSpan(st.Pos)
	place, _ := b.lowerPlace(st.Target)
	b.emit(mir.Assign(mir.PlaceOf(b.newTemp(nil, span)), mir.Intrinsic(mir.IntrinsicLockAcquire, []*mir.Operand{mir.Copy(place)}), span))

	depth := b.pushScope()
	b.resStack = append(b.resStack, resourceFrame{place: place, scopeDepth: depth, hasLocal: false})

	b.lowerBlock(st.Body)

	b.resStack = b.resStack[:len(b.resStack)-1]
	b.popScope()
	if !b.terminated() {
		b.emit(mir.Assign(mir.PlaceOf(b.newTemp(nil, span)), mir.Intrinsic(mir.IntrinsicLockRelease, []*mir.Operand{mir.Copy(place)}), span))
	}
}

// lowerFixedStmt lowers `fixed (name = value) body`: same owned-local
// discipline as using, since a fixed binding is a pinned local whose
// address escapes for the duration of body.
func (b *Builder) lowerFixedStmt(st *ast.FixedStmt) {
	span := toSpan(st.Pos)
	value := b.lowerExpr(st.Value)

	depth := b.pushScope()
	id := b.newLocal(st.Name, nil, false, span)
	b.emit(mir.StorageLive(id, span))
	b.emit(mir.Assign(mir.PlaceOf(id), mir.UseOf(value), span))
	b.emit(mir.DeferDropStmt(mir.PlaceOf(id), span))
	b.resStack = append(b.resStack, resourceFrame{local: id, place: mir.PlaceOf(id), scopeDepth: depth, hasLocal: true})

	b.lowerBlock(st.Body)

	b.resStack = b.resStack[:len(b.resStack)-1]
	b.popScope()
	if !b.terminated() {
		b.emit(mir.StorageDead(id, span))
	}
}

// regionEnterSymbol is the runtime entry point a region statement calls
// to acquire its handle (spec.md §4.2.1).
const regionEnterSymbol = "Std.Memory.Region.Enter"

// lowerRegionStmt lowers `region name body` per spec.md §4.2.1: declare
// a local of type Std.Memory.RegionHandle, call
// Std.Memory.Region.Enter("name") into it (the call-splits-the-block
// pattern lowerCall uses, since Call is a terminator here), schedule a
// DeferDrop for the handle, lower the body, and emit StorageDead if the
// terminal block has no terminator. The handle is registered on
// resStack exactly like using/fixed, so it is also released on every
// early exit (break/continue/return) dropResourcesToDepth walks
// (region.rs: a region is itself a resource scope, just one without a
// user-visible name).
func (b *Builder) lowerRegionStmt(st *ast.RegionStmt) {
	span := toSpan(st.Pos)
	id := b.newTemp(mir.Named("Std.Memory.RegionHandle"), span)
	b.emit(mir.StorageLive(id, span))

	dest := mir.PlaceOf(id)
	next := b.newBlock(span)
	nameArg := mir.ConstOf(mir.ConstValue{Kind: mir.ConstString, StringVal: st.Name, StringLifetime: mir.LifetimeStatic})
	b.setTerm(mir.Call(regionEnterSymbol, []*mir.Operand{nameArg}, []mir.ArgMode{mir.ArgValue}, &dest, next, nil, mir.DispatchStatic, span))
	b.current = next

	b.emit(mir.DeferDropStmt(dest, span))

	depth := b.pushScope()
	b.resStack = append(b.resStack, resourceFrame{local: id, place: dest, scopeDepth: depth, hasLocal: true})

	b.lowerBlock(st.Body)

	b.resStack = b.resStack[:len(b.resStack)-1]
	b.popScope()
	if !b.terminated() {
		b.emit(mir.StorageDead(id, span))
	}
}

// lowerBlockModStmt lowers checked/unchecked/atomic blocks. checked and
// unchecked only toggle the arithmetic-overflow policy the expression
// lowerer would consult (left to a later optimization pass; the
// builder's job here is structural, not policy enforcement), while
// atomic brackets its body with AtomicFence statements at the
// configured memory order.
func (b *Builder) lowerBlockModStmt(st *ast.BlockModStmt) {
	span := toSpan(st.Pos)
	if st.Kind == ast.ModAtomic {
		b.emit(mir.AtomicFence(mir.AtomicOrder(st.Order), mir.FenceScopeSystem, span))
		b.lowerBlock(st.Body)
		b.emit(mir.AtomicFence(mir.AtomicOrder(st.Order), mir.FenceScopeSystem, span))
		return
	}
	b.lowerBlock(st.Body)
}

func (b *Builder) lowerAwaitStmt(st *ast.AwaitStmt) {
	span := toSpan(st.Pos)
	v := b.lowerExpr(st.Value)
	b.lowerSuspensionPoint(v, true, span)
}
