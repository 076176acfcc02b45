package mir

import "fmt"

// OperandKind discriminates how an Operand reads its value.
type OperandKind int

const (
	OperandCopy OperandKind = iota
	OperandMove
	OperandConst
)

// Operand is a value-producing leaf: a copy of a place, a move out of
// a place, or a constant.
type Operand struct {
	Kind  OperandKind
	Place Place       // OperandCopy / OperandMove
	Const ConstOperand // OperandConst
}

// Copy constructs a Copy(place) operand.
func Copy(p Place) *Operand { return &Operand{Kind: OperandCopy, Place: p} }

// Move constructs a Move(place) operand.
func Move(p Place) *Operand { return &Operand{Kind: OperandMove, Place: p} }

// ConstOf constructs a Const(value) operand.
func ConstOf(v ConstValue) *Operand { return &Operand{Kind: OperandConst, Const: ConstOperand{Value: v}} }

func (o *Operand) String() string {
	switch o.Kind {
	case OperandCopy:
		return o.Place.String()
	case OperandMove:
		return "move " + o.Place.String()
	case OperandConst:
		return o.Const.Value.String()
	default:
		return "<invalid-operand>"
	}
}

// ConstValueKind discriminates the shape of a ConstValue.
type ConstValueKind int

const (
	ConstBool ConstValueKind = iota
	ConstInt
	ConstUint
	ConstFloat
	ConstDecimal
	ConstChar // UTF-16 code unit
	ConstString
	ConstSymbol
	ConstEnumVariant
	ConstStruct
	ConstNull
	ConstUnit
	ConstUnknown
)

// Lifetime mirrors intern.Lifetime's three tags without importing the
// intern package from mir's core value types.
type Lifetime int

const (
	LifetimeStatic Lifetime = iota
	LifetimeModule
	LifetimeTemp
)

// ConstValue is a fully-evaluated compile-time constant.
type ConstValue struct {
	Kind ConstValueKind

	Bool     bool
	IntVal   int64
	UintVal  uint64
	IntWidth int // 8/16/32/64; meaningful for ConstInt/ConstUint

	FloatVal   float64
	FloatWidth int // 32/64

	DecimalVal string // decimal literals kept as exact source text

	CharVal uint16 // UTF-16 code unit

	StringVal      string
	StringLifetime Lifetime

	SymbolVal string

	EnumTypeName    string
	EnumVariantName string

	StructTypeName string
	StructFields   map[string]ConstValue
}

// ConstOperand wraps a ConstValue with an optional numeric refinement
// (e.g. a narrowed range fact attached by a prior analysis pass; opaque
// to the core, carried through verbatim).
type ConstOperand struct {
	Value      ConstValue
	Refinement *NumericRefinement
}

// NumericRefinement records a known inclusive bound on a numeric
// constant, for downstream passes that narrow on it.
type NumericRefinement struct {
	Min, Max int64
	HasMin   bool
	HasMax   bool
}

func (c ConstValue) String() string {
	switch c.Kind {
	case ConstBool:
		return fmt.Sprintf("%v", c.Bool)
	case ConstInt:
		return fmt.Sprintf("%di%d", c.IntVal, c.IntWidth)
	case ConstUint:
		return fmt.Sprintf("%du%d", c.UintVal, c.IntWidth)
	case ConstFloat:
		return fmt.Sprintf("%gf%d", c.FloatVal, c.FloatWidth)
	case ConstDecimal:
		return c.DecimalVal + "d"
	case ConstChar:
		return fmt.Sprintf("'%c'", rune(c.CharVal))
	case ConstString:
		return fmt.Sprintf("%q", c.StringVal)
	case ConstSymbol:
		return "#" + c.SymbolVal
	case ConstEnumVariant:
		return c.EnumTypeName + "." + c.EnumVariantName
	case ConstStruct:
		return c.StructTypeName + "{...}"
	case ConstNull:
		return "null"
	case ConstUnit:
		return "()"
	default:
		return "<unknown>"
	}
}
