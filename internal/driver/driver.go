// Package driver implements the module-level lowering driver: spec.md
// §4.1's "walk module items top-down, consult the body cache, expand
// generic specializations, emit class vtables, run the verifier."
//
// Grounded on the teacher's internal/module.Loader for the
// cache-then-walk-then-validate shape (Load/LoadFile's
// resolve-then-cache sequence), generalized from AILANG's file-module
// loading to chic's declaration-level MIR lowering driver.
package driver

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/builder"
	"github.com/chic-lang/chic/internal/cache"
	"github.com/chic-lang/chic/internal/closure"
	"github.com/chic-lang/chic/internal/constraints"
	"github.com/chic-lang/chic/internal/diag"
	"github.com/chic-lang/chic/internal/metrics"
	"github.com/chic-lang/chic/internal/mir"
	"github.com/chic-lang/chic/internal/verify"
)

// LoweringResult is the module driver's output bundle (spec.md §4.1,
// §6's Outputs): the lowered module, every diagnostic collected along
// the way, the constraints emitted for the external typeck, and the
// two metrics structs spec.md §8's testable properties are defined
// against.
type LoweringResult struct {
	Module       *mir.Module
	Diagnostics  []*diag.Report
	Constraints  []constraints.TypeConstraint
	CacheMetrics cache.Metrics
	PassMetrics  []metrics.PassTiming
}

// Hook is invoked once per lowered function (including synthesized
// closure bodies and generic specializations), before it is folded
// into the output module. Driver callers use it for incremental
// progress reporting; nil is the common case.
type Hook func(fn *mir.Function)

// unit bundles one namespace's declarations, mirroring a single parsed
// source file (ast.File) stripped to what the driver needs.
type unit struct {
	namespace string
	decls     []ast.Decl
}

// LowerModule lowers a single parsed file into a LoweringResult. It is
// a convenience wrapper around LowerModuleWithUnits for the common
// single-file case.
func LowerModule(name string, file *ast.File, resolveType builder.TypeResolver, bodyCache *cache.BodyCache, captureCache *closure.CaptureCache) LoweringResult {
	return LowerModuleWithUnits(name, []*ast.File{file}, resolveType, bodyCache, captureCache)
}

// LowerModuleWithUnits lowers every declaration across files, in file
// order and declaration order within each file (spec.md §5: "items
// within a module are lowered in AST declaration order"), into one
// combined Module.
func LowerModuleWithUnits(name string, files []*ast.File, resolveType builder.TypeResolver, bodyCache *cache.BodyCache, captureCache *closure.CaptureCache) LoweringResult {
	return LowerModuleWithUnitsAndHook(name, files, resolveType, bodyCache, captureCache, nil)
}

// driverState carries the accumulators every step of one
// LowerModuleWithUnitsAndHook call threads through, replacing what
// would otherwise be a handful of package-level mutable slices.
type driverState struct {
	mod          *mir.Module
	diags        []*diag.Report
	cons         []constraints.TypeConstraint
	specializations []builder.SpecializationRequest
	funcsByName  map[string]*ast.FuncDecl
	bodyCache    *cache.BodyCache
	captureCache *closure.CaptureCache
	resolveType  builder.TypeResolver
	hook         Hook
}

// LowerModuleWithUnitsAndHook is LowerModuleWithUnits with an optional
// per-function progress hook.
func LowerModuleWithUnitsAndHook(name string, files []*ast.File, resolveType builder.TypeResolver, bodyCache *cache.BodyCache, captureCache *closure.CaptureCache, hook Hook) LoweringResult {
	rec := metrics.NewRecorder(prometheus.NewRegistry())

	st := &driverState{
		mod:          &mir.Module{Name: name},
		funcsByName:  make(map[string]*ast.FuncDecl),
		bodyCache:    bodyCache,
		captureCache: captureCache,
		resolveType:  resolveType,
		hook:         hook,
	}

	var classes []*ast.ClassDecl

	for _, u := range fileUnits(files) {
		for _, d := range u.decls {
			switch decl := d.(type) {
			case *ast.FuncDecl:
				st.funcsByName[decl.Name] = decl
				rec.Timed("body-builder", func() { st.lowerFuncDecl(decl, u.namespace, resolveType) })
			case *ast.ClassDecl:
				classes = append(classes, decl)
				ns := decl.Namespace
				if ns == "" {
					ns = u.namespace
				}
				for _, m := range decl.Methods {
					m := m
					st.funcsByName[m.Name] = m
					rec.Timed("body-builder", func() { st.lowerFuncDecl(m, ns+"."+decl.Name, resolveType) })
				}
			case *ast.StructDecl:
				ns := decl.Namespace
				if ns == "" {
					ns = u.namespace
				}
				for _, m := range decl.Methods {
					m := m
					st.funcsByName[m.Name] = m
					rec.Timed("body-builder", func() { st.lowerFuncDecl(m, ns+"."+decl.Name, resolveType) })
				}
			case *ast.UnionDecl:
				// Unions carry no executable members of their own; their
				// shape is a layout-table concern downstream of this pass.
			}
		}
	}

	// Step 3: expand recorded generic specializations to a fixed point —
	// a specialization can itself request further specializations (a
	// generic function calling another generic function at concrete
	// args).
	seen := make(map[string]bool)
	pending := st.specializations
	st.specializations = nil
	for len(pending) > 0 {
		round := pending
		pending = nil
		for _, req := range round {
			base, ok := st.funcsByName[req.Base]
			if !ok {
				continue
			}
			mangled := mir.MangledSpecializationName(req.Base, req.TypeArgs)
			if seen[mangled] {
				continue
			}
			seen[mangled] = true

			specDecl := *base
			specDecl.Name = mangled
			specDecl.TypeParams = nil
			specResolver := specializedResolver(resolveType, base.TypeParams, req.TypeArgs)

			rec.Timed("specialization", func() { st.lowerFuncDecl(&specDecl, "", specResolver) })
		}
		pending = append(pending, st.specializations...)
		st.specializations = nil
	}

	// Step 4: class vtables, walking the declared base lists.
	rec.Timed("vtables", func() { st.mod.VTables = buildVTables(classes) })

	// Step 5: structural verification of every function lowered.
	rec.Timed("verify", func() {
		for _, fn := range st.mod.Functions {
			res := verify.Body(fn.Body)
			for _, vd := range res.Diagnostics {
				st.diags = append(st.diags, diag.New(diag.LOW002, vd.String(), nil))
			}
		}
	})

	result := LoweringResult{
		Module:      st.mod,
		Diagnostics: st.diags,
		Constraints: st.cons,
		PassMetrics: rec.Timings(),
	}
	if bodyCache != nil {
		result.CacheMetrics = bodyCache.Metrics()
	}
	return result
}

// lowerFuncDecl runs the body builder for one function/method and
// folds its result — the function itself, any synthesized closure
// bodies, diagnostics, constraints, and recorded specializations —
// into st.
func (st *driverState) lowerFuncDecl(fn *ast.FuncDecl, namespace string, resolveType builder.TypeResolver) {
	res := builder.BuildFunction(fn, namespace, resolveType, st.bodyCache, st.captureCache)

	st.mod.Functions = append(st.mod.Functions, res.Function)
	if st.hook != nil {
		st.hook(res.Function)
	}
	for _, syn := range res.Synthesized {
		st.mod.Functions = append(st.mod.Functions, syn)
		if st.hook != nil {
			st.hook(syn)
		}
	}
	st.diags = append(st.diags, res.Diagnostics...)
	st.cons = append(st.cons, res.Constraints...)
	st.specializations = append(st.specializations, res.Specializations...)
}

// specializedResolver wraps base so that a TypeRef naming one of fn's
// generic type parameters resolves to its concrete argument instead of
// falling through to base — spec.md §4.1 step 3's "lower a body in
// which generic parameters are substituted by the concrete types."
// Only bare parameter references (no further generic args of their
// own) are substituted; a parameter used as T<U> is out of scope for
// this pass's substitution (generic parameters of generic parameters
// are a typeck concern).
func specializedResolver(base builder.TypeResolver, params []ast.TypeParam, typeArgs []*mir.Ty) builder.TypeResolver {
	subst := make(map[string]*mir.Ty, len(params))
	for i, p := range params {
		if i < len(typeArgs) {
			subst[p.Name] = typeArgs[i]
		}
	}
	return func(t *ast.TypeRef) *mir.Ty {
		if t != nil && len(t.Args) == 0 {
			if ty, ok := subst[t.Name]; ok {
				return ty
			}
		}
		return base(t)
	}
}

// fileUnits flattens every file's namespace + declarations into units,
// in file order.
func fileUnits(files []*ast.File) []unit {
	units := make([]unit, 0, len(files))
	for _, f := range files {
		ns := ""
		if f.Namespace != nil {
			ns = f.Namespace.Path
		}
		units = append(units, unit{namespace: ns, decls: f.Decls})
	}
	return units
}
