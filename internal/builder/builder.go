// Package builder implements chic's body builder: the per-function
// pass that lowers a parsed ast.FuncDecl into a mir.Body.
//
// Grounded on two sources. The two-phase desugar/normalize shape and
// the fresh-variable/let-wrapping ANF helpers come from the teacher's
// internal/elaborate/elaborate.go (Elaborator.elaborateExpr's desugar
// pass followed by normalize). The exact per-construct lowering rules
// — loop break/continue targets, resource (using/lock/fixed/region)
// cleanup discipline, switch-as-int vs switch-as-match dispatch, async
// frame policy diagnostics — come from original_source's
// src/mir/builder/body_builder/* (loops/loop_stack.rs,
// resource_dispatch.rs, region.rs, switch/entry.rs,
// switch/int_lowering.rs, async_control.rs), which spec.md §4.2
// describes only at the rule level.
package builder

import (
	"fmt"

	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/closure"
	"github.com/chic-lang/chic/internal/constraints"
	"github.com/chic-lang/chic/internal/diag"
	"github.com/chic-lang/chic/internal/mir"
)

// TypeResolver resolves a surface type reference to a mir.Ty. The
// builder never invents types on its own; it is handed a resolver
// closing over whatever symbol table the driver maintains.
type TypeResolver func(*ast.TypeRef) *mir.Ty

// SpecializationRequest records one call-site instantiation of a
// generic callee at concrete type arguments — spec.md §4.1 step 3's
// "recorded FunctionSpecialization(base, type_args)" — so the module
// driver can expand a mangled specialization body after this function
// finishes lowering.
type SpecializationRequest struct {
	Base     string
	TypeArgs []*mir.Ty
	Span     mir.Span
}

// resourceFrame records one using/lock/fixed/region cleanup still
// owed when the builder unwinds out of its body (break/continue/
// return) or falls through to the scope's natural end.
type resourceFrame struct {
	local      mir.LocalId
	place      mir.Place
	scopeDepth int
	// hasLocal distinguishes using/fixed/region (own a local, cleaned up
	// via StorageDead) from lock (locks an existing place, cleaned up
	// via an explicit release intrinsic).
	hasLocal bool
}

// Builder lowers one function body, statement by statement, into a
// mir.Body. One Builder is used per function; it is not reentrant
// across functions (the teacher's Elaborator is similarly
// single-function-scoped per elaborateNode call).
type Builder struct {
	Body *mir.Body
	Sink *constraints.Sink

	Diagnostics []*diag.Report

	// SynthesizedFunctions accumulates the lambda-body functions this
	// builder lowered as a side effect of lowering closures; the driver
	// folds these into the enclosing Module alongside the function
	// BuildFunction was invoked for.
	SynthesizedFunctions []*mir.Function

	// Specializations accumulates every generic-instantiation call site
	// this builder lowered; the driver expands each into a specialized
	// body after BuildFunction returns.
	Specializations []SpecializationRequest

	resolveType TypeResolver

	funcName string

	captureCache *closure.CaptureCache
	lambdaCount  int

	scopes     []map[string]mir.LocalId
	scopeDepth int

	loops    []mir.LoopContext
	switches []mir.SwitchContext
	resStack []resourceFrame

	current  mir.BlockId
	tempNum  int

	// Async frame state (spec.md §4.2.6). asyncDispatch is the function's
	// entry block, reserved as the state-machine dispatch block;
	// asyncArms accumulates one (state, resume-block) arm per suspension
	// point plus the initial {0, start} arm, backfilled onto
	// asyncDispatch's SwitchInt terminator once the whole body is
	// lowered (suspension points are discovered as lowering proceeds, so
	// the dispatch can't be built up front).
	asyncState      bool
	asyncStateLocal mir.LocalId
	asyncDispatch   mir.BlockId
	asyncArms       []mir.SwitchArm
	asyncNextState  int64
}

// New creates a Builder for funcName, lowering into a fresh body whose
// return slot has type returnType.
func New(funcName string, returnType *mir.Ty, returnSpan mir.Span, resolveType TypeResolver, cache *closure.CaptureCache) *Builder {
	b := &Builder{
		Body:         mir.NewBody(returnType, returnSpan),
		Sink:         &constraints.Sink{},
		resolveType:  resolveType,
		funcName:     funcName,
		captureCache: cache,
		scopes:       []map[string]mir.LocalId{{}},
	}
	b.current = b.Body.AddBlock(returnSpan)
	b.Body.EntryBlock = b.current
	return b
}

func toSpan(p ast.Pos) mir.Span { return mir.Span{Line: p.Line, Column: p.Column, File: p.File} }

func (b *Builder) report(r *diag.Report) {
	b.Diagnostics = append(b.Diagnostics, r)
}

// pushScope opens a new lexical scope, returning the depth it was
// pushed at (used by resource/loop frames to know how far to unwind).
func (b *Builder) pushScope() int {
	b.scopes = append(b.scopes, map[string]mir.LocalId{})
	b.scopeDepth++
	return b.scopeDepth
}

func (b *Builder) popScope() {
	b.scopes = b.scopes[:len(b.scopes)-1]
	b.scopeDepth--
}

// closeScope pops every resource frame opened at or below depth —
// including plain let-bound locals, which lowerLetStmt registers as
// owned-local frames exactly like using/fixed/region — emitting each
// one's cleanup in reverse declaration order, then pops the lexical
// scope itself. Unlike dropResourcesToDepth (used for break/continue/
// return, which only emits: the abandoned path's siblings are still
// being lowered and need the frames to stay on the stack), closeScope
// also truncates resStack, since these locals are leaving scope for
// real. Callers that manage their own resource frame (using/lock/
// fixed/region) pop their own wrapper scope with plain popScope
// instead, so closeScope never double-drops it.
func (b *Builder) closeScope(depth int, span mir.Span) {
	for len(b.resStack) > 0 && b.resStack[len(b.resStack)-1].scopeDepth >= depth {
		frame := b.resStack[len(b.resStack)-1]
		b.resStack = b.resStack[:len(b.resStack)-1]
		if b.terminated() {
			continue
		}
		if frame.hasLocal {
			b.emit(mir.StorageDead(frame.local, span))
		} else {
			b.emit(mir.Assign(mir.PlaceOf(b.newTemp(nil, span)), mir.Intrinsic(mir.IntrinsicLockRelease, []*mir.Operand{mir.Copy(frame.place)}), span))
		}
	}
	b.popScope()
}

func (b *Builder) declare(name string, id mir.LocalId) {
	b.scopes[len(b.scopes)-1][name] = id
}

func (b *Builder) lookup(name string) (mir.LocalId, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if id, ok := b.scopes[i][name]; ok {
			return id, true
		}
	}
	return 0, false
}

// newLocal declares a named, user-visible local.
func (b *Builder) newLocal(name string, ty *mir.Ty, mutable bool, span mir.Span) mir.LocalId {
	id := b.Body.AddLocal(mir.LocalDecl{Name: name, Type: ty, Mutable: mutable, Kind: mir.LocalLocal, Span: span})
	b.declare(name, id)
	return id
}

// newTemp declares a builder-synthesized temporary, invisible to name
// lookup.
func (b *Builder) newTemp(ty *mir.Ty, span mir.Span) mir.LocalId {
	name := fmt.Sprintf("$t%d", b.tempNum)
	b.tempNum++
	return b.Body.AddLocal(mir.LocalDecl{Name: name, Type: ty, Kind: mir.LocalTemp, Span: span})
}

// newBlock appends a fresh, terminator-less block.
func (b *Builder) newBlock(span mir.Span) mir.BlockId {
	return b.Body.AddBlock(span)
}

// terminated reports whether the current block already has a
// terminator — set after an early exit (break/continue/return) jumps
// away, so callers know not to also emit the block's normal
// fallthrough terminator.
func (b *Builder) terminated() bool {
	return b.Body.Block(b.current).Terminator != nil
}

func (b *Builder) setTerm(term mir.Terminator) {
	if !b.terminated() {
		b.Body.SetTerminator(b.current, term)
	}
}

func (b *Builder) emit(stmt mir.Statement) {
	if b.terminated() {
		return
	}
	b.Body.PushStmt(b.current, stmt)
}

// beginAsyncFrame reserves the function's entry block as the
// state-machine dispatch block spec.md §4.2.6 requires and redirects
// lowering into a fresh state-0 block. Must be called immediately
// after New(), before anything else is lowered into the entry block.
func (b *Builder) beginAsyncFrame(span mir.Span) {
	b.asyncState = true
	b.asyncDispatch = b.current
	b.asyncStateLocal = b.Body.AddLocal(mir.LocalDecl{Name: "__async_state", Type: mir.Named("uint32"), Mutable: true, Kind: mir.LocalTemp, Span: span})
	b.emit(mir.Assign(mir.PlaceOf(b.asyncStateLocal), mir.UseOf(mir.ConstOf(mir.ConstValue{Kind: mir.ConstUint, UintVal: 0, IntWidth: 32})), span))

	start := b.newBlock(span)
	b.asyncArms = append(b.asyncArms, mir.SwitchArm{Value: 0, Target: start})
	b.asyncNextState = 1
	b.current = start
}

// finishAsyncFrame backfills the dispatch block's SwitchInt terminator
// now that every suspension point inside the body has registered its
// resume arm. Every state the frame can ever be in has a matching arm,
// so the switch carries no default.
func (b *Builder) finishAsyncFrame(span mir.Span) {
	if !b.asyncState {
		return
	}
	b.Body.SetTerminator(b.asyncDispatch, mir.SwitchIntTerm(mir.Copy(mir.PlaceOf(b.asyncStateLocal)), b.asyncArms, 0, false, span))
}

// lowerSuspensionPoint implements spec.md §4.2.6's per-suspension-point
// split for one `await`/`yield`: the current block becomes a Suspend
// terminator that stores the next state and hands Poll::Pending back
// to the caller; a sibling resume block — reachable only through the
// function's dispatch switch, never as Suspend's own successor — first
// re-checks cooperative cancellation before continuing. poll selects
// what the suspension resolves to on resume: true polls value (await);
// false yields Unit (generator yield has nothing to poll).
func (b *Builder) lowerSuspensionPoint(value *mir.Operand, poll bool, span mir.Span) *mir.Operand {
	if !b.asyncState {
		// Outside an async frame (e.g. a synthesized helper body) there is
		// no frame to suspend; fall back to an immediate poll/pass-through.
		// yield (poll == false) has no value operand to pass through — the
		// caller already wrote the yielded value into the return slot.
		if !poll {
			return mir.ConstOf(mir.ConstValue{Kind: mir.ConstUnit})
		}
		temp := b.newTemp(nil, span)
		b.emit(mir.Assign(mir.PlaceOf(temp), mir.Intrinsic(mir.IntrinsicPollFuture, []*mir.Operand{value}), span))
		return mir.Copy(mir.PlaceOf(temp))
	}

	state := b.asyncNextState
	b.asyncNextState++
	resume := b.newBlock(span)
	b.asyncArms = append(b.asyncArms, mir.SwitchArm{Value: state, Target: resume})

	pending := mir.ConstOf(mir.ConstValue{Kind: mir.ConstEnumVariant, EnumTypeName: "Std.Async.Poll", EnumVariantName: "Pending"})
	b.emit(mir.Assign(mir.PlaceOf(0), mir.UseOf(pending), span))
	b.setTerm(mir.Suspend(mir.PlaceOf(b.asyncStateLocal), state, span))

	b.current = resume
	cancelled := b.newTemp(mir.Named("bool"), span)
	b.emit(mir.Assign(mir.PlaceOf(cancelled), mir.Intrinsic(mir.IntrinsicCancellationCheck, nil), span))
	cancelExit := b.newBlock(span)
	proceed := b.newBlock(span)
	b.setTerm(mir.SwitchIntTerm(mir.Copy(mir.PlaceOf(cancelled)), []mir.SwitchArm{{Value: 1, Target: cancelExit}}, proceed, true, span))

	b.current = cancelExit
	b.dropResourcesToDepth(0, span)
	b.setTerm(mir.Return(span))

	b.current = proceed
	if !poll {
		return mir.ConstOf(mir.ConstValue{Kind: mir.ConstUnit})
	}
	temp := b.newTemp(nil, span)
	b.emit(mir.Assign(mir.PlaceOf(temp), mir.Intrinsic(mir.IntrinsicPollFuture, []*mir.Operand{value}), span))
	return mir.Copy(mir.PlaceOf(temp))
}

// resolve turns a surface type reference into a mir.Ty, falling back
// to an opaque named type if the builder has no resolver installed
// (unit-test fixtures commonly don't need one).
func (b *Builder) resolve(t *ast.TypeRef) *mir.Ty {
	if t == nil {
		return mir.Unit
	}
	if b.resolveType != nil {
		return b.resolveType(t)
	}
	return mir.Named(t.Name)
}
