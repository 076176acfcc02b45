package ast

import "fmt"

// Pattern is a match-arm or switch-case pattern.
type Pattern interface {
	Node
	patternNode()
}

// VarPattern binds the scrutinee (or a sub-part of it) to a fresh name.
type VarPattern struct {
	Name string
	Pos  Pos
}

func (p *VarPattern) patternNode()    {}
func (p *VarPattern) Position() Pos   { return p.Pos }
func (p *VarPattern) String() string  { return p.Name }

// WildcardPattern matches anything and binds nothing.
type WildcardPattern struct{ Pos Pos }

func (p *WildcardPattern) patternNode()   {}
func (p *WildcardPattern) Position() Pos  { return p.Pos }
func (p *WildcardPattern) String() string { return "_" }

// LiteralPattern matches an exact constant value.
type LiteralPattern struct {
	Value interface{}
	Pos   Pos
}

func (p *LiteralPattern) patternNode()   {}
func (p *LiteralPattern) Position() Pos  { return p.Pos }
func (p *LiteralPattern) String() string { return fmt.Sprintf("%v", p.Value) }

// TuplePattern destructures a positional aggregate.
type TuplePattern struct {
	Elements []Pattern
	Pos      Pos
}

func (p *TuplePattern) patternNode()   {}
func (p *TuplePattern) Position() Pos  { return p.Pos }
func (p *TuplePattern) String() string { return fmt.Sprintf("(%d elems)", len(p.Elements)) }

// ConstructorPattern matches a union variant, optionally destructuring its
// fields.
type ConstructorPattern struct {
	UnionName   string
	VariantName string
	Fields      []Pattern // positional; empty for a unit variant
	Pos         Pos
}

func (p *ConstructorPattern) patternNode()   {}
func (p *ConstructorPattern) Position() Pos  { return p.Pos }
func (p *ConstructorPattern) String() string { return p.UnionName + "." + p.VariantName }

// RelationalOp is a relational pattern's comparison operator.
type RelationalOp int

const (
	RelLess RelationalOp = iota
	RelLessEq
	RelGreater
	RelGreaterEq
	RelEq
	RelNotEq
)

// RelationalPattern matches scrutinee OP value, e.g. `case > 10:`.
type RelationalPattern struct {
	Op    RelationalOp
	Value Expr
	Pos   Pos
}

func (p *RelationalPattern) patternNode()   {}
func (p *RelationalPattern) Position() Pos  { return p.Pos }
func (p *RelationalPattern) String() string { return fmt.Sprintf("relational(%d)", p.Op) }

// PatternBinaryOp composes two sub-patterns.
type PatternBinaryOp int

const (
	PatternAnd PatternBinaryOp = iota
	PatternOr
)

// BinaryPattern is `pat1 and pat2` / `pat1 or pat2`.
type BinaryPattern struct {
	Left, Right Pattern
	Op          PatternBinaryOp
	Pos         Pos
}

func (p *BinaryPattern) patternNode()   {}
func (p *BinaryPattern) Position() Pos  { return p.Pos }
func (p *BinaryPattern) String() string { return "binary-pattern" }

// NotPattern negates a sub-pattern.
type NotPattern struct {
	Inner Pattern
	Pos   Pos
}

func (p *NotPattern) patternNode()   {}
func (p *NotPattern) Position() Pos  { return p.Pos }
func (p *NotPattern) String() string { return "!" + p.Inner.String() }

// ListPattern destructures an array/span, with an optional rest-binding tail.
type ListPattern struct {
	Prefix []Pattern
	Rest   *string // binding name for the remaining tail, nil if absent
	Suffix []Pattern
	Pos    Pos
}

func (p *ListPattern) patternNode()   {}
func (p *ListPattern) Position() Pos  { return p.Pos }
func (p *ListPattern) String() string { return "list-pattern" }

// RecordField is one field pattern in a RecordPattern.
type RecordField struct {
	Name    string
	Pattern Pattern
}

// RecordPattern destructures named fields of a struct/class.
type RecordPattern struct {
	TypeName string
	Fields   []*RecordField
	Pos      Pos
}

func (p *RecordPattern) patternNode()   {}
func (p *RecordPattern) Position() Pos  { return p.Pos }
func (p *RecordPattern) String() string { return "record-pattern" }

// TypePattern tests the scrutinee's runtime type, optionally binding a
// sub-pattern against it (`case int n:`).
type TypePattern struct {
	Type       *TypeRef
	Subpattern Pattern // nil if no further destructuring
	Pos        Pos
}

func (p *TypePattern) patternNode()   {}
func (p *TypePattern) Position() Pos  { return p.Pos }
func (p *TypePattern) String() string { return "type:" + p.Type.String() }
