// Package constraints defines the TypeConstraint obligations the body
// builder and module driver emit for the external typeck to solve.
// The core never solves these itself — spec.md §1 names full type
// inference an explicit non-goal.
//
// Grounded on spec.md §4.4 directly, shaped like the teacher's
// types.ResolvedConstraint consumption in
// internal/elaborate/elaborate.go's DictElaborator — inverted here,
// since chic *emits* obligations rather than consuming resolved ones.
package constraints

import "github.com/chic-lang/chic/internal/mir"

// Kind discriminates the shape of a TypeConstraint.
type Kind int

const (
	KindImplementsInterface Kind = iota
	KindRequiresAutoTrait
	KindThreadingBackendAvailable
)

// AutoTraitKind names one of the auto-traits a RequiresAutoTrait
// constraint can demand.
type AutoTraitKind int

const (
	TraitThreadSafe AutoTraitKind = iota
	TraitShareable
)

// Origin records why a RequiresAutoTrait obligation was emitted.
type Origin int

const (
	OriginThreadSpawn Origin = iota
	OriginSharedState
)

// TypeConstraint is one obligation emitted during lowering, to be
// solved (or rejected with a diagnostic) by the external typeck.
type TypeConstraint struct {
	Kind Kind
	Span mir.Span

	// KindImplementsInterface
	TypeName  string
	Interface string

	// KindRequiresAutoTrait
	Function  string
	Target    string
	Ty        *mir.Ty
	TraitKind AutoTraitKind
	TraitOrigin Origin

	// KindThreadingBackendAvailable
	Backend string
	Call    string
}

// ImplementsInterface constructs a constraint requiring typeName to
// implement interfaceName, emitted whenever a concrete type is returned
// where an interface type is expected (factory pattern).
func ImplementsInterface(typeName, interfaceName string, span mir.Span) TypeConstraint {
	return TypeConstraint{Kind: KindImplementsInterface, TypeName: typeName, Interface: interfaceName, Span: span}
}

// RequiresAutoTrait constructs a constraint requiring ty to satisfy an
// auto-trait at a given call site, for a given origin (thread spawn or
// shared state).
func RequiresAutoTrait(function, target string, ty *mir.Ty, trait AutoTraitKind, origin Origin, span mir.Span) TypeConstraint {
	return TypeConstraint{
		Kind: KindRequiresAutoTrait, Function: function, Target: target,
		Ty: ty, TraitKind: trait, TraitOrigin: origin, Span: span,
	}
}

// ThreadingBackendAvailable constructs a constraint requiring backend
// to be available at the given call, so the typeck can diagnose
// unsupported backends (MM0101).
func ThreadingBackendAvailable(function, backend, call string, span mir.Span) TypeConstraint {
	return TypeConstraint{Kind: KindThreadingBackendAvailable, Function: function, Backend: backend, Call: call, Span: span}
}

// Sink accumulates constraints emitted during one lowering pass, in
// emission order (spec.md §5: "constraints are emitted in lowering
// order").
type Sink struct {
	constraints []TypeConstraint
}

// Emit appends a constraint to the sink.
func (s *Sink) Emit(c TypeConstraint) { s.constraints = append(s.constraints, c) }

// All returns every constraint emitted so far, in emission order.
func (s *Sink) All() []TypeConstraint { return s.constraints }

// Len returns the number of constraints emitted so far.
func (s *Sink) Len() int { return len(s.constraints) }
