// Package mir defines chic's mid-level intermediate representation:
// modules, functions, bodies, basic blocks, statements, terminators,
// places, rvalues, and types. It is the output of the body builder
// (internal/builder) and the input to the structural verifier
// (internal/verify).
//
// Grounded on the teacher's internal/core package for the
// node-as-Go-struct, one-file-per-concern layout, and on
// original_source/src/mir/ for exact field semantics (state-machine
// async frames, DeferDrop, dispatch tags). Standard library only: the
// data model is a plain tree of structs, the same choice the teacher
// makes for internal/core.
package mir

import (
	"fmt"
	"strings"

	"github.com/chic-lang/chic/internal/intern"
)

// TyKind discriminates the shape of a Ty.
type TyKind int

const (
	TyNamed TyKind = iota
	TyUnit
	TyRef
	TyPointer
	TyArray
	TySpan
	TyFuncPtr
	TyInterface
)

// Ty is a chic type: a named type with optional generic arguments, or
// one of a small set of structural special cases.
type Ty struct {
	Kind TyKind

	// TyNamed / TyInterface
	Name string
	Args []*Ty // generic arguments, declaration order

	// TyRef / TyPointer / TyArray / TySpan
	Elem *Ty
	Mut  bool // TyRef: &mut T; TyPointer: mutable pointee

	// TyFuncPtr
	Params []*Ty
	Result *Ty
}

// Unit is the canonical unit type.
var Unit = &Ty{Kind: TyUnit}

// Named constructs a plain named type (no generic arguments).
func Named(name string) *Ty { return &Ty{Kind: TyNamed, Name: name} }

// Generic constructs a named type instantiated with the given type
// arguments.
func Generic(name string, args ...*Ty) *Ty {
	return &Ty{Kind: TyNamed, Name: name, Args: args}
}

// RefTo constructs a reference type &T (or &mut T).
func RefTo(elem *Ty, mut bool) *Ty {
	return &Ty{Kind: TyRef, Elem: elem, Mut: mut}
}

// PointerTo constructs a raw pointer type.
func PointerTo(elem *Ty, mut bool) *Ty {
	return &Ty{Kind: TyPointer, Elem: elem, Mut: mut}
}

// ArrayOf constructs a fixed-shape array type.
func ArrayOf(elem *Ty) *Ty { return &Ty{Kind: TyArray, Elem: elem} }

// SpanOf constructs a span (dynamically-sized view) type.
func SpanOf(elem *Ty) *Ty { return &Ty{Kind: TySpan, Elem: elem} }

// FuncPtr constructs a function pointer type.
func FuncPtr(params []*Ty, result *Ty) *Ty {
	return &Ty{Kind: TyFuncPtr, Params: params, Result: result}
}

// Interface constructs an opaque interface type reference.
func Interface(name string) *Ty { return &Ty{Kind: TyInterface, Name: name} }

// CanonicalName renders the type's canonical-name form, used as part of
// body cache keys and mangled specialization names.
func (t *Ty) CanonicalName() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TyUnit:
		return "Unit"
	case TyNamed, TyInterface:
		if len(t.Args) == 0 {
			return t.Name
		}
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.CanonicalName()
		}
		return fmt.Sprintf("%s<%s>", t.Name, strings.Join(parts, ","))
	case TyRef:
		if t.Mut {
			return "&mut " + t.Elem.CanonicalName()
		}
		return "&" + t.Elem.CanonicalName()
	case TyPointer:
		if t.Mut {
			return "*mut " + t.Elem.CanonicalName()
		}
		return "*" + t.Elem.CanonicalName()
	case TyArray:
		return "[" + t.Elem.CanonicalName() + "]"
	case TySpan:
		return "span<" + t.Elem.CanonicalName() + ">"
	case TyFuncPtr:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.CanonicalName()
		}
		return fmt.Sprintf("fn(%s)->%s", strings.Join(parts, ","), t.Result.CanonicalName())
	default:
		return "<invalid-ty>"
	}
}

func (t *Ty) String() string { return t.CanonicalName() }

// Mangle renders a specialization-safe name fragment: non-identifier
// characters (`<`, `>`, `,`, `&`, `*`, spaces) are replaced with `_`, as
// spec.md §4.1 requires for generic specialization names.
func (t *Ty) Mangle() string {
	return MangleName(t.CanonicalName())
}

// MangleName replaces every non-identifier byte in s with `_`.
func MangleName(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// MangledSpecializationName builds `base<arg1,arg2,...>`'s mangled
// form: `base_arg1_arg2_...`.
func MangledSpecializationName(base string, typeArgs []*Ty) string {
	parts := make([]string, len(typeArgs))
	for i, a := range typeArgs {
		parts[i] = a.Mangle()
	}
	if len(parts) == 0 {
		return MangleName(base)
	}
	return MangleName(base) + "_" + strings.Join(parts, "_")
}

// InternedStrRef is a reference to an entry in the shared intern.Interner,
// re-exported here so mir consumers don't need to import intern directly
// for the common case of carrying a StrId around.
type InternedStrRef = intern.StrId
