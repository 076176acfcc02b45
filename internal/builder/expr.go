package builder

import (
	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/config"
	"github.com/chic-lang/chic/internal/diag"
	"github.com/chic-lang/chic/internal/mir"
)

// lowerExpr lowers e to an Operand, atomizing any compound
// sub-expression into a temp-bound Assign statement first — the ANF
// discipline the teacher's elaborate.go normalize pass applies to Core,
// adapted here to MIR locals instead of Core Let bindings.
func (b *Builder) lowerExpr(e ast.Expr) *mir.Operand {
	span := toSpan(e.Position())
	switch ex := e.(type) {
	case *ast.Identifier:
		if id, ok := b.lookup(ex.Name); ok {
			return mir.Copy(mir.PlaceOf(id))
		}
		// Unresolved identifiers are function/global references the
		// driver resolves at call/link time; represent them as a
		// symbol constant so lowering can proceed.
		return mir.ConstOf(mir.ConstValue{Kind: mir.ConstSymbol, SymbolVal: ex.Name})

	case *ast.Literal:
		return mir.ConstOf(litToConst(ex))

	case *ast.BinaryOp:
		l := b.lowerExpr(ex.Left)
		r := b.lowerExpr(ex.Right)
		temp := b.newTemp(b.binaryResultType(ex.Op), span)
		b.emit(mir.Assign(mir.PlaceOf(temp), mir.BinaryOp(ex.Op, l, r), span))
		return mir.Copy(mir.PlaceOf(temp))

	case *ast.UnaryOp:
		if ex.Op == "*" {
			place, ty := b.lowerPlace(e)
			temp := b.newTemp(ty, span)
			b.emit(mir.Assign(mir.PlaceOf(temp), mir.UseOf(mir.Copy(place)), span))
			return mir.Copy(mir.PlaceOf(temp))
		}
		v := b.lowerExpr(ex.X)
		temp := b.newTemp(nil, span)
		b.emit(mir.Assign(mir.PlaceOf(temp), mir.UnaryOp(ex.Op, v), span))
		return mir.Copy(mir.PlaceOf(temp))

	case *ast.Call:
		return b.lowerCall(ex)

	case *ast.Lambda:
		return b.lowerLambda(ex)

	case *ast.BlockExpr:
		return b.lowerBlockExpr(ex)

	case *ast.NewExpr:
		fields := make([]*mir.Operand, len(ex.Fields))
		for i, f := range ex.Fields {
			fields[i] = b.lowerExpr(f.Value)
		}
		temp := b.newTemp(b.resolve(ex.Type), span)
		b.emit(mir.Assign(mir.PlaceOf(temp), mir.Aggregate(mir.AggregateStruct, ex.Type.Name, fields), span))
		return mir.Copy(mir.PlaceOf(temp))

	case *ast.ArrayLit:
		return b.lowerArrayLit(ex)

	case *ast.FieldAccess, *ast.IndexExpr:
		place, ty := b.lowerPlace(e)
		temp := b.newTemp(ty, span)
		b.emit(mir.Assign(mir.PlaceOf(temp), mir.UseOf(mir.Copy(place)), span))
		return mir.Copy(mir.PlaceOf(temp))

	case *ast.AssignExpr:
		value := b.lowerExpr(ex.Value)
		place, _ := b.lowerPlace(ex.Target)
		b.emit(mir.Assign(place, mir.UseOf(value), span))
		return mir.Copy(place)

	case *ast.AwaitExpr:
		v := b.lowerExpr(ex.X)
		return b.lowerSuspensionPoint(v, true, span)

	case *ast.YieldExpr:
		v := b.lowerExpr(ex.X)
		b.emit(mir.Assign(mir.PlaceOf(0), mir.UseOf(v), span))
		return b.lowerSuspensionPoint(nil, false, span)

	case *ast.NullCoalesceExpr:
		return b.lowerNullCoalesce(ex)

	case *ast.AddressOfExpr:
		place, ty := b.lowerPlace(ex.X)
		temp := b.newTemp(mir.RefTo(ty, ex.Mut), span)
		b.emit(mir.Assign(mir.PlaceOf(temp), mir.AddressOf(place, ex.Mut), span))
		return mir.Copy(mir.PlaceOf(temp))

	case *ast.CastExpr:
		v := b.lowerExpr(ex.X)
		to := b.resolve(ex.Type)
		temp := b.newTemp(to, span)
		b.emit(mir.Assign(mir.PlaceOf(temp), mir.Cast(mir.CastNumeric, v, to), span))
		return mir.Copy(mir.PlaceOf(temp))

	case *ast.GenericInstExpr:
		// Specialization selection is the module driver's job
		// (mir.MangledSpecializationName); the builder only needs the
		// base callee operand here.
		return b.lowerExpr(ex.Base)

	default:
		b.report(diag.New(diag.LOW001, "unsupported expression kind in lowering", &span))
		return mir.ConstOf(mir.ConstValue{Kind: mir.ConstUnknown})
	}
}

// binaryResultType is a conservative placeholder: full type inference
// is out of scope (spec.md §1), so comparison/logical operators get an
// untyped "bool" name and everything else inherits no declared type
// here — the external typeck fills this in from its own pass.
func (b *Builder) binaryResultType(op string) *mir.Ty {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return mir.Named("bool")
	default:
		return nil
	}
}

func litToConst(lit *ast.Literal) mir.ConstValue {
	switch lit.Kind {
	case ast.IntLit:
		switch v := lit.Value.(type) {
		case int64:
			return mir.ConstValue{Kind: mir.ConstInt, IntVal: v, IntWidth: 32}
		case int:
			return mir.ConstValue{Kind: mir.ConstInt, IntVal: int64(v), IntWidth: 32}
		default:
			return mir.ConstValue{Kind: mir.ConstInt}
		}
	case ast.FloatLit:
		if v, ok := lit.Value.(float64); ok {
			return mir.ConstValue{Kind: mir.ConstFloat, FloatVal: v, FloatWidth: 64}
		}
		return mir.ConstValue{Kind: mir.ConstFloat}
	case ast.StringLit:
		if v, ok := lit.Value.(string); ok {
			return mir.ConstValue{Kind: mir.ConstString, StringVal: v, StringLifetime: mir.LifetimeStatic}
		}
		return mir.ConstValue{Kind: mir.ConstString}
	case ast.BoolLit:
		if v, ok := lit.Value.(bool); ok {
			return mir.ConstValue{Kind: mir.ConstBool, Bool: v}
		}
		return mir.ConstValue{Kind: mir.ConstBool}
	case ast.CharLit:
		if v, ok := lit.Value.(rune); ok {
			return mir.ConstValue{Kind: mir.ConstChar, CharVal: uint16(v)}
		}
		return mir.ConstValue{Kind: mir.ConstChar}
	case ast.NullLit:
		return mir.ConstValue{Kind: mir.ConstNull}
	default:
		return mir.ConstValue{Kind: mir.ConstUnit}
	}
}

// lowerPlace lowers an expression used in assignable position to a
// Place, along with its declared type if known.
func (b *Builder) lowerPlace(e ast.Expr) (mir.Place, *mir.Ty) {
	span := toSpan(e.Position())
	switch ex := e.(type) {
	case *ast.Identifier:
		if id, ok := b.lookup(ex.Name); ok {
			return mir.PlaceOf(id), b.Body.Local(id).Type
		}
		b.report(diag.New(diag.LOW001, "assignment to unresolved identifier "+ex.Name, &span))
		temp := b.newTemp(nil, span)
		return mir.PlaceOf(temp), nil

	case *ast.FieldAccess:
		base, _ := b.lowerPlace(ex.X)
		// Field types require the layout table (internal/layout); the
		// builder emits the projection and leaves typing it to the
		// caller that already has the owning type's layout in hand.
		return base.Field(ex.Field), nil

	case *ast.IndexExpr:
		base, baseTy := b.lowerPlace(ex.X)
		idx := b.lowerExpr(ex.Index)
		var elemTy *mir.Ty
		if baseTy != nil && (baseTy.Kind == mir.TyArray || baseTy.Kind == mir.TySpan) {
			elemTy = baseTy.Elem
		}
		return base.Indexed(idx), elemTy

	case *ast.UnaryOp:
		if ex.Op == "*" {
			base, baseTy := b.lowerPlace(ex.X)
			var elemTy *mir.Ty
			if baseTy != nil && (baseTy.Kind == mir.TyRef || baseTy.Kind == mir.TyPointer) {
				elemTy = baseTy.Elem
			}
			return base.Deref(), elemTy
		}
	}
	b.report(diag.New(diag.LOW001, "unsupported assignable expression kind", &span))
	temp := b.newTemp(nil, span)
	return mir.PlaceOf(temp), nil
}

// lowerCall lowers a Call expression. Because Call is a Terminator in
// this MIR (the closed terminator set has no separate "expression
// call"), lowering a call always ends the current block and opens a
// fresh continuation block — mirroring how original_source's body
// builder splits a block at every call site.
func (b *Builder) lowerCall(call *ast.Call) *mir.Operand {
	span := toSpan(call.Pos)
	fn := calleeSymbol(call.Func)
	if gi, ok := call.Func.(*ast.GenericInstExpr); ok {
		typeArgs := make([]*mir.Ty, len(gi.Args))
		names := make([]string, len(gi.Args))
		for i, a := range gi.Args {
			typeArgs[i] = b.resolve(a)
			names[i] = typeArgs[i].CanonicalName()
		}
		config.TraceOwnerTypeArgs(fn, names)
		b.Specializations = append(b.Specializations, SpecializationRequest{Base: fn, TypeArgs: typeArgs, Span: span})
	}
	args := make([]*mir.Operand, len(call.Args))
	modes := make([]mir.ArgMode, len(call.Args))
	for i, a := range call.Args {
		args[i] = b.lowerExpr(a.Value)
		modes[i] = argMode(a.Mode)
	}
	destTemp := b.newTemp(nil, span)
	dest := mir.PlaceOf(destTemp)
	next := b.newBlock(span)
	b.setTerm(mir.Call(fn, args, modes, &dest, next, nil, mir.DispatchStatic, span))
	b.current = next
	return mir.Copy(dest)
}

// arrayAllocSymbol is the runtime entry point array-literal lowering
// calls to allocate backing storage (spec.md §4.2.3 step 2, concrete
// scenario 1 in §8).
const arrayAllocSymbol = "chic_rt_vec_with_capacity"

// lowerArrayLit lowers an array literal per spec.md §4.2.3: StorageLive
// a fresh aggregate local, call chic_rt_vec_with_capacity(N) into its
// data field (the call-splits-the-block pattern lowerCall uses, since
// Call is a terminator here too), ZeroInitRaw the data, write each
// element into place.data[i], then assign the len field to N.
func (b *Builder) lowerArrayLit(ex *ast.ArrayLit) *mir.Operand {
	span := toSpan(ex.Pos)
	var elemTy *mir.Ty
	if ex.ElemType != nil {
		elemTy = b.resolve(ex.ElemType)
	}
	n := int64(len(ex.Elements))
	countTy := mir.ConstValue{Kind: mir.ConstUint, UintVal: uint64(n), IntWidth: 64}

	temp := b.newTemp(mir.ArrayOf(elemTy), span)
	b.emit(mir.StorageLive(temp, span))

	dataPlace := mir.PlaceOf(temp).Field("data")
	next := b.newBlock(span)
	b.setTerm(mir.Call(arrayAllocSymbol, []*mir.Operand{mir.ConstOf(countTy)}, []mir.ArgMode{mir.ArgValue}, &dataPlace, next, nil, mir.DispatchStatic, span))
	b.current = next

	b.emit(mir.ZeroInitRaw(dataPlace, int(n), span))

	for i, el := range ex.Elements {
		v := b.lowerExpr(el)
		idx := mir.ConstOf(mir.ConstValue{Kind: mir.ConstUint, UintVal: uint64(i), IntWidth: 64})
		b.emit(mir.Assign(dataPlace.Indexed(idx), mir.UseOf(v), span))
	}

	b.emit(mir.Assign(mir.PlaceOf(temp).Field("len"), mir.UseOf(mir.ConstOf(countTy)), span))
	return mir.Copy(mir.PlaceOf(temp))
}

func calleeSymbol(e ast.Expr) string {
	switch ex := e.(type) {
	case *ast.Identifier:
		return ex.Name
	case *ast.FieldAccess:
		return calleeSymbol(ex.X) + "." + ex.Field
	case *ast.GenericInstExpr:
		return calleeSymbol(ex.Base)
	default:
		return "<indirect>"
	}
}

func argMode(m ast.ParamMode) mir.ArgMode {
	switch m {
	case ast.ModeRef:
		return mir.ArgRefInOut
	case ast.ModeIn:
		return mir.ArgRefIn
	case ast.ModeOut:
		return mir.ArgRefOut
	default:
		return mir.ArgValue
	}
}

// lowerBlockExpr lowers a statement block used in expression position:
// every statement but the last is lowered for effect, and the last
// statement (if an ExprStmt) supplies the block's value.
func (b *Builder) lowerBlockExpr(be *ast.BlockExpr) *mir.Operand {
	span := toSpan(be.Pos)
	stmts := be.Block.Stmts
	if len(stmts) == 0 {
		return mir.ConstOf(mir.ConstValue{Kind: mir.ConstUnit})
	}
	depth := b.pushScope()

	for _, s := range stmts[:len(stmts)-1] {
		b.lowerStmt(s)
	}
	last := stmts[len(stmts)-1]
	var result *mir.Operand
	if es, ok := last.(*ast.ExprStmt); ok {
		result = b.lowerExpr(es.X)
	} else {
		b.lowerStmt(last)
		result = mir.ConstOf(mir.ConstValue{Kind: mir.ConstUnit})
	}

	// Materialize the block's value into a temp before dropping the
	// block's own locals: result may be a place projecting one of them.
	out := b.newTemp(nil, span)
	b.emit(mir.Assign(mir.PlaceOf(out), mir.UseOf(result), span))
	b.closeScope(depth, span)
	return mir.Copy(mir.PlaceOf(out))
}

// lowerNullCoalesce desugars `left ?? right` into a two-way branch
// joining on a result temp, since the MIR has no ternary rvalue: the
// left operand is evaluated once, compared against null, and the
// right operand is only evaluated (and only ever appears in its own
// block) on the null path.
func (b *Builder) lowerNullCoalesce(ex *ast.NullCoalesceExpr) *mir.Operand {
	span := toSpan(ex.Pos)
	result := b.newTemp(nil, span)
	left := b.lowerExpr(ex.Left)

	cond := b.newTemp(mir.Named("bool"), span)
	b.emit(mir.Assign(mir.PlaceOf(cond), mir.BinaryOp("==", left, mir.ConstOf(mir.ConstValue{Kind: mir.ConstNull})), span))

	rightBlock := b.newBlock(span)
	notNullBlock := b.newBlock(span)
	joinBlock := b.newBlock(span)

	b.setTerm(mir.SwitchIntTerm(mir.Copy(mir.PlaceOf(cond)), []mir.SwitchArm{{Value: 1, Target: rightBlock}}, notNullBlock, true, span))

	b.current = notNullBlock
	b.emit(mir.Assign(mir.PlaceOf(result), mir.UseOf(left), span))
	b.setTerm(mir.Goto(joinBlock, span))

	b.current = rightBlock
	right := b.lowerExpr(ex.Right)
	b.emit(mir.Assign(mir.PlaceOf(result), mir.UseOf(right), span))
	b.setTerm(mir.Goto(joinBlock, span))

	b.current = joinBlock
	return mir.Copy(mir.PlaceOf(result))
}
