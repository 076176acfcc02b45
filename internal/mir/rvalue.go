package mir

import "fmt"

// RvalueKind discriminates the shape of an Rvalue.
type RvalueKind int

const (
	RvalueUse RvalueKind = iota
	RvalueBinaryOp
	RvalueUnaryOp
	RvalueAggregate
	RvalueCast
	RvalueAddressOf
	RvalueLen
	RvalueDiscriminant
	// MIR-only intrinsics: no surface-syntax spelling, emitted directly
	// by the body builder for resource/async/atomic lowering.
	RvalueIntrinsic
)

// AggregateKind discriminates what shape an Aggregate rvalue builds.
type AggregateKind int

const (
	AggregateStruct AggregateKind = iota
	AggregateTuple
	AggregateArray
	AggregateClosureEnv
)

// CastKind discriminates the conversion an Rvalue.Cast performs.
type CastKind int

const (
	CastNumeric CastKind = iota
	CastPointer
	CastReinterpret
	CastUnion // downcast-compatible reinterpretation for union payloads
)

// IntrinsicKind names one of the small set of MIR-only intrinsics the
// body builder emits for resource discipline and async lowering.
type IntrinsicKind int

const (
	IntrinsicPollFuture IntrinsicKind = iota
	IntrinsicFrameAlloc
	IntrinsicCancellationCheck
	// IntrinsicLockAcquire/IntrinsicLockRelease back a `lock` statement's
	// acquire/release pair: lock has no owned storage to pair with
	// StorageLive/StorageDead (it locks an existing place), so its
	// cleanup is these two bracketing intrinsics rather than DeferDrop.
	IntrinsicLockAcquire
	IntrinsicLockRelease
)

// Rvalue is the right-hand side of an Assign statement.
type Rvalue struct {
	Kind RvalueKind

	// RvalueUse
	Use *Operand

	// RvalueBinaryOp / RvalueUnaryOp
	Op       string
	Left     *Operand
	Right    *Operand // nil for unary
	Operand0 *Operand  // unary operand; aliased name avoids clashing with Left

	// RvalueAggregate
	AggKind    AggregateKind
	AggTypeName string
	Fields     []*Operand

	// RvalueCast
	CastKindVal CastKind
	CastOperand *Operand
	CastTo      *Ty

	// RvalueAddressOf
	AddrPlace Place
	AddrMut   bool

	// RvalueLen / RvalueDiscriminant
	TargetPlace Place

	// RvalueIntrinsic
	Intrinsic     IntrinsicKind
	IntrinsicArgs []*Operand
}

// UseOf constructs a Use(operand) rvalue.
func UseOf(o *Operand) Rvalue { return Rvalue{Kind: RvalueUse, Use: o} }

// BinaryOp constructs a BinaryOp(op, l, r) rvalue.
func BinaryOp(op string, l, r *Operand) Rvalue {
	return Rvalue{Kind: RvalueBinaryOp, Op: op, Left: l, Right: r}
}

// UnaryOp constructs a UnaryOp(op, v) rvalue.
func UnaryOp(op string, v *Operand) Rvalue {
	return Rvalue{Kind: RvalueUnaryOp, Op: op, Operand0: v}
}

// Aggregate constructs an Aggregate(kind, fields) rvalue.
func Aggregate(kind AggregateKind, typeName string, fields []*Operand) Rvalue {
	return Rvalue{Kind: RvalueAggregate, AggKind: kind, AggTypeName: typeName, Fields: fields}
}

// Cast constructs a Cast(kind, operand, ty) rvalue.
func Cast(kind CastKind, operand *Operand, to *Ty) Rvalue {
	return Rvalue{Kind: RvalueCast, CastKindVal: kind, CastOperand: operand, CastTo: to}
}

// AddressOf constructs an AddressOf(place, mut) rvalue.
func AddressOf(p Place, mut bool) Rvalue {
	return Rvalue{Kind: RvalueAddressOf, AddrPlace: p, AddrMut: mut}
}

// Len constructs a Len(place) rvalue.
func Len(p Place) Rvalue { return Rvalue{Kind: RvalueLen, TargetPlace: p} }

// Discriminant constructs a Discriminant(place) rvalue.
func Discriminant(p Place) Rvalue { return Rvalue{Kind: RvalueDiscriminant, TargetPlace: p} }

// Intrinsic constructs an MIR-only intrinsic rvalue.
func Intrinsic(kind IntrinsicKind, args []*Operand) Rvalue {
	return Rvalue{Kind: RvalueIntrinsic, Intrinsic: kind, IntrinsicArgs: args}
}

func (r Rvalue) String() string {
	switch r.Kind {
	case RvalueUse:
		return r.Use.String()
	case RvalueBinaryOp:
		return fmt.Sprintf("%s %s %s", r.Left, r.Op, r.Right)
	case RvalueUnaryOp:
		return fmt.Sprintf("%s%s", r.Op, r.Operand0)
	case RvalueAggregate:
		return fmt.Sprintf("aggregate(%s, %d fields)", r.AggTypeName, len(r.Fields))
	case RvalueCast:
		return fmt.Sprintf("cast(%s as %s)", r.CastOperand, r.CastTo)
	case RvalueAddressOf:
		return fmt.Sprintf("&%s", r.AddrPlace)
	case RvalueLen:
		return fmt.Sprintf("len(%s)", r.TargetPlace)
	case RvalueDiscriminant:
		return fmt.Sprintf("discriminant(%s)", r.TargetPlace)
	case RvalueIntrinsic:
		return fmt.Sprintf("intrinsic(%d)", r.Intrinsic)
	default:
		return "<invalid-rvalue>"
	}
}
