package builder

import (
	"encoding/json"
	"fmt"

	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/closure"
	"github.com/chic-lang/chic/internal/mir"
	"github.com/chic-lang/chic/internal/sid"
)

// lowerLambda lowers a lambda literal: it runs capture analysis on the
// lambda body, synthesizes an environment aggregate carrying the
// captures, and lowers the lambda's own body as a separate Function
// appended to SynthesizedFunctions for the driver to fold into the
// enclosing Module (spec.md §4.2: a closure lowers to an environment
// struct plus a free function taking that struct as its first
// parameter — grounded on original_source's closures/analysis split
// between capture collection and the env-struct builder).
func (b *Builder) lowerLambda(lambda *ast.Lambda) *mir.Operand {
	span := toSpan(lambda.Pos)

	paramNames := make([]string, len(lambda.Params))
	for i, p := range lambda.Params {
		paramNames[i] = p.Name
	}

	var cacheKey sid.Hash
	var cacheHit bool
	var free []string
	if b.captureCache != nil {
		lambdaBytes, _ := json.Marshal(lambda)
		cacheKey = closure.Key(b.funcName, string(lambdaBytes), nil)
		if cached, ok := b.captureCache.Get(cacheKey); ok {
			for _, c := range cached.Captures {
				free = append(free, c.Name)
			}
			cacheHit = true
		} else {
			free = closure.FreeVars(paramNames, lambda.Body)
		}
	} else {
		free = closure.FreeVars(paramNames, lambda.Body)
	}

	envName := closure.EnvTypeName(b.funcName, b.lambdaCount)
	ordinal := b.lambdaCount
	b.lambdaCount++

	typeOf := func(name string) *mir.Ty {
		if id, ok := b.lookup(name); ok {
			return b.Body.Local(id).Type
		}
		return nil
	}
	// spec.md §4.2.4: by-reference if any use is mutable and the variable
	// is not moved, by-value otherwise. The surface AST has no move
	// operator, so "not moved" is unconditionally true here.
	mutated := closure.MutableUses(paramNames, lambda.Body)
	byRef := func(name string) bool {
		_, ok := mutated[name]
		return ok
	}

	env := closure.BuildEnv(envName, free, typeOf, byRef)
	if b.captureCache != nil && !cacheHit {
		b.captureCache.Put(cacheKey, env)
	}

	captureOperands := make([]*mir.Operand, len(free))
	for i, name := range free {
		id, ok := b.lookup(name)
		if !ok {
			captureOperands[i] = mir.ConstOf(mir.ConstValue{Kind: mir.ConstUnknown})
			continue
		}
		captureOperands[i] = mir.Copy(mir.PlaceOf(id))
	}

	envTemp := b.newTemp(mir.Named(envName), span)
	b.emit(mir.Assign(mir.PlaceOf(envTemp), mir.Aggregate(mir.AggregateClosureEnv, envName, captureOperands), span))

	b.buildLambdaFunction(lambda, envName, env, ordinal)

	return mir.Copy(mir.PlaceOf(envTemp))
}

// buildLambdaFunction lowers the lambda's body as a standalone
// Function (named "<enclosing>$closure<N>") and records it on the
// Builder for the driver to append to the Module. Its first parameter
// is the synthesized environment struct.
func (b *Builder) buildLambdaFunction(lambda *ast.Lambda, envName string, env *mir.ClosureEnvDescriptor, ordinal int) {
	name := fmt.Sprintf("%s$closure%d", b.funcName, ordinal)
	span := toSpan(lambda.Pos)

	nested := New(name, nil, span, b.resolveType, b.captureCache)
	nested.Body.Metadata.ClosureEnv = env

	envLocal := nested.Body.AddLocal(mir.LocalDecl{Name: "$env", Type: mir.Named(envName), Kind: mir.LocalArg, Span: span})
	nested.declare("$env", envLocal)
	for i, capture := range env.Captures {
		fieldLocal := nested.Body.AddLocal(mir.LocalDecl{Name: capture.Name, Type: capture.Type, Kind: mir.LocalLocal, Span: span})
		nested.declare(capture.Name, fieldLocal)
		nested.emit(mir.Assign(mir.PlaceOf(fieldLocal), mir.UseOf(mir.Copy(mir.PlaceOf(envLocal).FieldAt(i))), span))
	}
	for _, p := range lambda.Params {
		id := nested.Body.AddLocal(mir.LocalDecl{Name: p.Name, Type: nested.resolve(p.Type), Kind: mir.LocalArg, Span: span})
		nested.declare(p.Name, id)
	}

	result := nested.lowerExpr(lambda.Body)
	nested.emit(mir.Assign(mir.PlaceOf(0), mir.UseOf(result), span))
	nested.setTerm(mir.Return(span))

	b.SynthesizedFunctions = append(b.SynthesizedFunctions, &mir.Function{
		Name:      name,
		Kind:      mir.FuncFree,
		Async:     lambda.Async,
		Body:      nested.Body,
		Signature: mir.Signature{},
	})
	b.Diagnostics = append(b.Diagnostics, nested.Diagnostics...)
	for _, c := range nested.Sink.All() {
		b.Sink.Emit(c)
	}
}
