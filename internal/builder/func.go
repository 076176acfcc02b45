// BuildFunction is the body builder's entry point: it turns one parsed
// ast.FuncDecl into a lowered mir.Function, wiring the async-frame
// policy and threading diagnostics spec.md §6 names, the constraint
// sink, the content-hash-keyed body cache, and the structural
// verifier.
//
// Grounded on original_source/src/mir/async_control.rs for the
// AS####/frame-policy mapping and on the teacher's internal/module
// package for the cache-then-build-then-verify shape of one
// compilation unit's driver entry point.
package builder

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/cache"
	"github.com/chic-lang/chic/internal/closure"
	"github.com/chic-lang/chic/internal/config"
	"github.com/chic-lang/chic/internal/constraints"
	"github.com/chic-lang/chic/internal/diag"
	"github.com/chic-lang/chic/internal/mir"
	"github.com/chic-lang/chic/internal/sid"
	"github.com/chic-lang/chic/internal/verify"
)

// Result bundles everything one BuildFunction call produces.
type Result struct {
	Function        *mir.Function
	Synthesized     []*mir.Function // lambda-body functions lowered as a side effect
	Specializations []SpecializationRequest
	Diagnostics     []*diag.Report
	Constraints     []constraints.TypeConstraint
	Verify          verify.Result
	CacheHit        bool
}

// threadSpawnCallee is the canonical symbol the body builder recognizes
// as a thread-spawn call site for MM0101/MM0102 purposes.
const threadSpawnCallee = "Std.Threading.Thread.Spawn"

// BuildFunction lowers fn into a Result. namespace qualifies fn's name
// for cache keying and for the synthesized closure-body function
// names. resolveType resolves surface type references; bodyCache and
// captureCache may both be nil (tests commonly omit them).
func BuildFunction(fn *ast.FuncDecl, namespace string, resolveType TypeResolver, bodyCache *cache.BodyCache, captureCache *closure.CaptureCache) Result {
	qualifiedName := fn.Name
	if namespace != "" {
		qualifiedName = namespace + "." + fn.Name
	}
	span := toSpan(fn.Pos)

	var cacheKey sid.Hash
	if bodyCache != nil {
		astBytes, _ := json.Marshal(fn)
		cacheKey = sid.ContentHash(qualifiedName, astBytes, nil)
		if entry, ok := bodyCache.Get(cacheKey); ok {
			return Result{Function: entry.Function, Constraints: entry.Constraints, CacheHit: true}
		}
	}

	b := New(qualifiedName, resolveType(fn.ReturnType), span, resolveType, captureCache)

	paramTypes := make([]*mir.Ty, len(fn.Params))
	for i, p := range fn.Params {
		ty := resolveType(p.Type)
		paramTypes[i] = ty
		id := b.Body.AddLocal(mir.LocalDecl{Name: p.Name, Type: ty, Mutable: p.Mode == ast.ModeRef || p.Mode == ast.ModeOut, Kind: mir.LocalArg, Span: toSpan(p.Pos)})
		b.declare(p.Name, id)
	}

	policy, policyDiags := parseAsyncPolicy(fn.Attrs, span)
	b.Diagnostics = append(b.Diagnostics, policyDiags...)
	if fn.Async {
		b.Body.Metadata.AsyncPolicy = policy
		b.beginAsyncFrame(span)
	}
	hints := parseOptimizationHints(fn.Attrs)

	if fn.Body != nil {
		b.lowerBlock(fn.Body)
	}
	if !b.terminated() {
		b.setTerm(mir.Return(span))
	}
	if fn.Async {
		b.finishAsyncFrame(span)
	}

	lendsFromParam := 0
	for i, p := range fn.Params {
		if p.Name == fn.LendsFrom {
			lendsFromParam = i + 1
			break
		}
	}
	var abi string
	if fn.Extern != nil {
		abi = fn.Extern.ABI
	}

	result := &mir.Function{
		Name: qualifiedName,
		Kind: funcKind(fn.Kind),
		Signature: mir.Signature{
			ParamTypes:     paramTypes,
			ReturnType:     resolveType(fn.ReturnType),
			ABI:            abi,
			LendsFromParam: lendsFromParam,
		},
		Body:      b.Body,
		Async:     fn.Async,
		Generator: fn.Generator,
		Hints:     hints,
	}
	if fn.Extern != nil {
		result.Extern = &mir.ExternSpec{ABI: fn.Extern.ABI, Symbol: fn.Extern.Symbol}
	}

	diags := b.Diagnostics
	if fn.Async && policy != nil {
		diags = append(diags, checkAsyncPolicy(policy, b, span)...)
	}
	if fn.Kind == ast.FuncDestructor {
		diags = append(diags, checkDestructor(fn, span)...)
	}
	if hints.VectorizeDecimal {
		diags = append(diags, checkVectorizeDecimal(b.Body, span)...)
	}
	threadDiags := scanThreadSpawns(b.Body, b.Sink, qualifiedName)
	diags = append(diags, threadDiags...)

	verifyResult := verify.Result{}
	if !config.SkipMIRVerify() {
		verifyResult = verify.Body(b.Body)
		for _, d := range verifyResult.Diagnostics {
			diags = append(diags, diag.New(diag.LOW002, d.String(), &span))
		}
	}

	if bodyCache != nil {
		bodyCache.Put(cacheKey, cache.Entry{Function: result, Constraints: b.Sink.All()})
	}

	return Result{
		Function:        result,
		Synthesized:     b.SynthesizedFunctions,
		Specializations: b.Specializations,
		Diagnostics:     diags,
		Constraints:     b.Sink.All(),
		Verify:          verifyResult,
	}
}

func funcKind(k ast.FuncKind) mir.FuncKind {
	switch k {
	case ast.FuncMethod:
		return mir.FuncMethod
	case ast.FuncConstructor:
		return mir.FuncConstructor
	case ast.FuncDestructor:
		return mir.FuncDestructor
	case ast.FuncOperator:
		return mir.FuncOperator
	default:
		return mir.FuncFree
	}
}

// parseAsyncPolicy reads @stack_only, @frame_limit(N), and
// @no_capture(any|move_only) attributes into an AsyncFramePolicy,
// reporting AS0004 for a frame_limit argument that doesn't parse as a
// positive integer or a no_capture argument that isn't "any"/"move_only".
func parseAsyncPolicy(attrs []ast.Attr, span mir.Span) (*mir.AsyncFramePolicy, []*diag.Report) {
	var policy mir.AsyncFramePolicy
	var reports []*diag.Report
	seen := false
	for _, a := range attrs {
		switch a.Name {
		case "stack_only":
			policy.StackOnly = true
			seen = true
		case "frame_limit":
			seen = true
			if len(a.Args) != 1 {
				reports = append(reports, diag.New(diag.AS0004, "frame_limit requires exactly one argument", &span))
				continue
			}
			n, err := strconv.Atoi(a.Args[0])
			if err != nil || n <= 0 {
				reports = append(reports, diag.New(diag.AS0004, "frame_limit argument must be a positive integer", &span))
				continue
			}
			policy.FrameLimit = n
		case "no_capture":
			seen = true
			policy.NoCapture = true
			if len(a.Args) == 1 && a.Args[0] == "move_only" {
				policy.NoCaptureMode = mir.NoCaptureMoveOnly
			} else if len(a.Args) == 0 || a.Args[0] == "any" {
				policy.NoCaptureMode = mir.NoCaptureAny
			} else {
				reports = append(reports, diag.New(diag.AS0004, "no_capture argument must be \"any\" or \"move_only\"", &span))
			}
		case "log_promotion":
			policy.LogPromotion = true
			seen = true
		}
	}
	if !seen {
		return nil, reports
	}
	return &policy, reports
}

func parseOptimizationHints(attrs []ast.Attr) mir.OptimizationHints {
	var hints mir.OptimizationHints
	for _, a := range attrs {
		if a.Name == "vectorize" && len(a.Args) == 1 && a.Args[0] == "decimal" {
			hints.VectorizeDecimal = true
		}
	}
	return hints
}

// checkAsyncPolicy diagnoses violations of a parsed AsyncFramePolicy
// against the body the builder actually produced: a stack_only
// function that synthesized any closures needed heap frame promotion
// to carry their environments (AS0001); a body whose local count
// exceeds frame_limit (AS0002); a no_capture function that synthesized
// a closure capturing anything (mode any) or capturing by reference
// (mode move_only) (AS0003).
func checkAsyncPolicy(policy *mir.AsyncFramePolicy, b *Builder, span mir.Span) []*diag.Report {
	var reports []*diag.Report
	if policy.StackOnly && len(b.SynthesizedFunctions) > 0 {
		reports = append(reports, diag.New(diag.AS0001, "async function marked stack_only synthesized a closure environment requiring heap frame promotion", &span))
	}
	if policy.FrameLimit > 0 && len(b.Body.Locals) > policy.FrameLimit {
		reports = append(reports, diag.New(diag.AS0002, fmt.Sprintf("async frame has %d locals, exceeding frame_limit %d", len(b.Body.Locals), policy.FrameLimit), &span).WithData(map[string]any{"locals": len(b.Body.Locals), "limit": policy.FrameLimit}))
	}
	if policy.NoCapture {
		forbidden := false
		for _, syn := range b.SynthesizedFunctions {
			env := syn.Body.Metadata.ClosureEnv
			if env == nil {
				continue
			}
			for _, c := range env.Captures {
				if policy.NoCaptureMode == mir.NoCaptureAny || c.ByRef {
					forbidden = true
				}
			}
		}
		if forbidden {
			reports = append(reports, diag.New(diag.AS0003, "async function marked no_capture synthesized a capturing closure", &span))
		}
	}
	return reports
}

// destructorSpelling is the one recognized destructor method name;
// anything else on a FuncDestructor-kind declaration is DISPOSE0001.
const destructorSpelling = "dispose"

func checkDestructor(fn *ast.FuncDecl, span mir.Span) []*diag.Report {
	var reports []*diag.Report
	if fn.Name != destructorSpelling {
		reports = append(reports, diag.New(diag.DISPOSE0001, fmt.Sprintf("destructor spelled %q, expected %q", fn.Name, destructorSpelling), &span))
	}
	if len(fn.Params) != 0 || (fn.ReturnType != nil && fn.ReturnType.Name != "" && fn.ReturnType.Name != "Unit" && fn.ReturnType.Name != "void") {
		reports = append(reports, diag.New(diag.DISPOSE0002, "destructor must take no parameters and return Unit", &span))
	}
	return reports
}

// checkVectorizeDecimal reports DM0001 when a function hinted
// @vectorize(decimal) contains a Call terminator: the decimal backend
// cannot vectorize across an opaque call boundary.
func checkVectorizeDecimal(body *mir.Body, span mir.Span) []*diag.Report {
	for _, bb := range body.Blocks {
		if bb.Terminator != nil && bb.Terminator.Kind == mir.TermCall {
			return []*diag.Report{diag.New(diag.DM0001, "function cannot vectorize across a call boundary", &span)}
		}
	}
	return nil
}

// scanThreadSpawns walks every Call terminator for the recognized
// thread-spawn callee, emitting a ThreadingBackendAvailable constraint
// (for the external typeck to resolve against the configured
// ThreadingMode) plus an immediate MM0101 when no backend is
// configured (mode unset or none), and a RequiresAutoTrait(ThreadSafe) obligation
// for the spawned payload.
func scanThreadSpawns(body *mir.Body, sink *constraints.Sink, function string) []*diag.Report {
	var reports []*diag.Report
	for _, bb := range body.Blocks {
		if bb.Terminator == nil || bb.Terminator.Kind != mir.TermCall || bb.Terminator.CallFunc != threadSpawnCallee {
			continue
		}
		span := bb.Terminator.Span
		backend := threadingBackendName(config.CurrentThreadingMode())
		sink.Emit(constraints.ThreadingBackendAvailable(function, backend, threadSpawnCallee, span))
		if config.CurrentThreadingMode() != config.ThreadingModePOSIXThreads {
			reports = append(reports, diag.New(diag.MM0101, "no threading backend available for Thread.Spawn", &span))
		}
		if len(bb.Terminator.CallArgs) > 0 {
			sink.Emit(constraints.RequiresAutoTrait(function, threadSpawnCallee, nil, constraints.TraitThreadSafe, constraints.OriginThreadSpawn, span))
		}
	}
	return reports
}

func threadingBackendName(mode config.ThreadingMode) string {
	switch mode {
	case config.ThreadingModePOSIXThreads:
		return "posix"
	case config.ThreadingModeNone:
		return "none"
	default:
		return "unset"
	}
}
