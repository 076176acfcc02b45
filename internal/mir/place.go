package mir

import "fmt"

// LocalId identifies a local within a Body's dense local table.
// LocalId(0) is always the return slot.
type LocalId uint32

// LocalKind classifies a LocalDecl.
type LocalKind int

const (
	// LocalReturn is the return slot; always LocalId(0).
	LocalReturn LocalKind = iota
	// LocalArg is a declared function parameter.
	LocalArg
	// LocalLocal is a user-declared local variable (`let`/`var`).
	LocalLocal
	// LocalTemp is a builder-synthesized temporary.
	LocalTemp
)

// ProjectionKind discriminates one step of a Place's projection list.
type ProjectionKind int

const (
	ProjFieldNamed ProjectionKind = iota
	ProjFieldIndex
	ProjIndex
	ProjDeref
	ProjDowncast
)

// Projection is one step applied to a base place: a field access, an
// index, a dereference, or a downcast to a union/enum variant.
type Projection struct {
	Kind ProjectionKind

	FieldName string // ProjFieldNamed
	FieldIdx  int    // ProjFieldIndex
	Index     *Operand // ProjIndex: the index operand

	VariantName string // ProjDowncast
}

// Place is a base local plus an ordered projection list: the unit of
// assignment and the operand a Copy/Move reads from.
type Place struct {
	Base        LocalId
	Projections []Projection
}

// PlaceOf constructs a bare place with no projections.
func PlaceOf(local LocalId) Place { return Place{Base: local} }

// Field appends a named-field projection.
func (p Place) Field(name string) Place {
	return Place{Base: p.Base, Projections: append(append([]Projection{}, p.Projections...), Projection{Kind: ProjFieldNamed, FieldName: name})}
}

// FieldAt appends a positional-field projection.
func (p Place) FieldAt(idx int) Place {
	return Place{Base: p.Base, Projections: append(append([]Projection{}, p.Projections...), Projection{Kind: ProjFieldIndex, FieldIdx: idx})}
}

// Indexed appends an index projection.
func (p Place) Indexed(index *Operand) Place {
	return Place{Base: p.Base, Projections: append(append([]Projection{}, p.Projections...), Projection{Kind: ProjIndex, Index: index})}
}

// Deref appends a dereference projection. Only valid when the place's
// current type is a reference or pointer; the verifier checks this.
func (p Place) Deref() Place {
	return Place{Base: p.Base, Projections: append(append([]Projection{}, p.Projections...), Projection{Kind: ProjDeref})}
}

// Downcast appends a union/enum variant downcast projection.
func (p Place) Downcast(variant string) Place {
	return Place{Base: p.Base, Projections: append(append([]Projection{}, p.Projections...), Projection{Kind: ProjDowncast, VariantName: variant})}
}

func (p Place) String() string {
	s := fmt.Sprintf("_%d", p.Base)
	for _, proj := range p.Projections {
		switch proj.Kind {
		case ProjFieldNamed:
			s += "." + proj.FieldName
		case ProjFieldIndex:
			s += fmt.Sprintf(".%d", proj.FieldIdx)
		case ProjIndex:
			s += "[" + proj.Index.String() + "]"
		case ProjDeref:
			s = "(*" + s + ")"
		case ProjDowncast:
			s += " as " + proj.VariantName
		}
	}
	return s
}

// LocalDecl describes one entry in a Body's dense local table.
type LocalDecl struct {
	Id       LocalId
	Name     string // optional source name; empty for synthesized temps
	Type     *Ty
	Mutable  bool
	Kind     LocalKind
	Span     Span
}

// Span mirrors ast.Pos without importing the ast package, so mir stays
// independent of the surface syntax tree it was lowered from.
type Span struct {
	Line, Column int
	File         string
}
