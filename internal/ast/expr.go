package ast

import (
	"fmt"
	"strings"
)

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Identifier is a name reference.
type Identifier struct {
	Name string
	Pos  Pos
}

func (e *Identifier) exprNode()      {}
func (e *Identifier) Position() Pos  { return e.Pos }
func (e *Identifier) String() string { return e.Name }

// LitKind classifies a literal.
type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	StringLit
	BoolLit
	CharLit
	NullLit
	UnitLit
)

// Literal is a constant value.
type Literal struct {
	Kind  LitKind
	Value interface{}
	Pos   Pos
}

func (e *Literal) exprNode()      {}
func (e *Literal) Position() Pos  { return e.Pos }
func (e *Literal) String() string { return fmt.Sprintf("%v", e.Value) }

// BinaryOp is a two-operand operator expression.
type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Pos
}

func (e *BinaryOp) exprNode()      {}
func (e *BinaryOp) Position() Pos  { return e.Pos }
func (e *BinaryOp) String() string { return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right) }

// UnaryOp is a single-operand operator expression.
type UnaryOp struct {
	Op   string
	X    Expr
	Pos  Pos
}

func (e *UnaryOp) exprNode()      {}
func (e *UnaryOp) Position() Pos  { return e.Pos }
func (e *UnaryOp) String() string { return e.Op + e.X.String() }

// Arg is one call-site argument, tagged with the explicit passing mode
// the caller wrote (ref/in/out) when the call targets a parameter with
// that mode.
type Arg struct {
	Value Expr
	Mode  ParamMode
}

// Call is a function/method application.
type Call struct {
	Func Expr
	Args []*Arg
	Pos  Pos
}

func (e *Call) exprNode()     {}
func (e *Call) Position() Pos { return e.Pos }
func (e *Call) String() string {
	var args []string
	for _, a := range e.Args {
		args = append(args, a.Value.String())
	}
	return fmt.Sprintf("%s(%s)", e.Func, strings.Join(args, ", "))
}

// LambdaParam is a captureless lambda's formal parameter.
type LambdaParam struct {
	Name string
	Type *TypeRef
}

// Lambda is an anonymous function literal.
type Lambda struct {
	Params []*LambdaParam
	Body   Expr // may wrap a block via BlockExpr
	Async  bool
	Pos    Pos
}

func (e *Lambda) exprNode()      {}
func (e *Lambda) Position() Pos  { return e.Pos }
func (e *Lambda) String() string { return fmt.Sprintf("\\(%d params). %s", len(e.Params), e.Body) }

// BlockExpr lets a statement Block be used where an expression is expected
// (e.g. a lambda body), yielding the value of its final expression statement.
type BlockExpr struct {
	Block *Block
	Pos   Pos
}

func (e *BlockExpr) exprNode()      {}
func (e *BlockExpr) Position() Pos  { return e.Pos }
func (e *BlockExpr) String() string { return e.Block.String() }

// NewExpr constructs a class/struct instance: `new T{ field: value, ... }`.
type NewExpr struct {
	Type   *TypeRef
	Fields []*FieldInit
	Pos    Pos
}

// FieldInit is one field initializer in an aggregate literal.
type FieldInit struct {
	Name  string
	Value Expr
}

func (e *NewExpr) exprNode()      {}
func (e *NewExpr) Position() Pos  { return e.Pos }
func (e *NewExpr) String() string { return fmt.Sprintf("new %s{...}", e.Type) }

// ArrayLit is an array literal `[e1, e2, ...]`.
type ArrayLit struct {
	ElemType *TypeRef // optional explicit element type
	Elements []Expr
	Pos      Pos
}

func (e *ArrayLit) exprNode()      {}
func (e *ArrayLit) Position() Pos  { return e.Pos }
func (e *ArrayLit) String() string { return fmt.Sprintf("[%d elems]", len(e.Elements)) }

// FieldAccess reads a field off a value.
type FieldAccess struct {
	X     Expr
	Field string
	Pos   Pos
}

func (e *FieldAccess) exprNode()      {}
func (e *FieldAccess) Position() Pos  { return e.Pos }
func (e *FieldAccess) String() string { return fmt.Sprintf("%s.%s", e.X, e.Field) }

// IndexExpr reads an element off an array/span by index.
type IndexExpr struct {
	X     Expr
	Index Expr
	Pos   Pos
}

func (e *IndexExpr) exprNode()      {}
func (e *IndexExpr) Position() Pos  { return e.Pos }
func (e *IndexExpr) String() string { return fmt.Sprintf("%s[%s]", e.X, e.Index) }

// AssignExpr writes a value to a place.
type AssignExpr struct {
	Target Expr
	Value  Expr
	Pos    Pos
}

func (e *AssignExpr) exprNode()      {}
func (e *AssignExpr) Position() Pos  { return e.Pos }
func (e *AssignExpr) String() string { return fmt.Sprintf("%s = %s", e.Target, e.Value) }

// AwaitExpr suspends until the awaited value resolves.
type AwaitExpr struct {
	X   Expr
	Pos Pos
}

func (e *AwaitExpr) exprNode()      {}
func (e *AwaitExpr) Position() Pos  { return e.Pos }
func (e *AwaitExpr) String() string { return "await " + e.X.String() }

// YieldExpr produces one element of a generator.
type YieldExpr struct {
	X   Expr
	Pos Pos
}

func (e *YieldExpr) exprNode()      {}
func (e *YieldExpr) Position() Pos  { return e.Pos }
func (e *YieldExpr) String() string { return "yield " + e.X.String() }

// NullCoalesceExpr is `lhs ?? rhs`.
type NullCoalesceExpr struct {
	Left, Right Expr
	Pos         Pos
}

func (e *NullCoalesceExpr) exprNode()      {}
func (e *NullCoalesceExpr) Position() Pos  { return e.Pos }
func (e *NullCoalesceExpr) String() string { return fmt.Sprintf("%s ?? %s", e.Left, e.Right) }

// AddressOfExpr takes the address of a place: `&x` / `&mut x`.
type AddressOfExpr struct {
	X   Expr
	Mut bool
	Pos Pos
}

func (e *AddressOfExpr) exprNode()     {}
func (e *AddressOfExpr) Position() Pos { return e.Pos }
func (e *AddressOfExpr) String() string {
	if e.Mut {
		return "&mut " + e.X.String()
	}
	return "&" + e.X.String()
}

// CastExpr is an explicit type conversion.
type CastExpr struct {
	X    Expr
	Type *TypeRef
	Pos  Pos
}

func (e *CastExpr) exprNode()      {}
func (e *CastExpr) Position() Pos  { return e.Pos }
func (e *CastExpr) String() string { return fmt.Sprintf("(%s)%s", e.Type, e.X) }

// GenericInstExpr explicitly instantiates a generic function at a call site,
// e.g. `Add<int>(a, b)`.
type GenericInstExpr struct {
	Base Expr
	Args []*TypeRef
	Pos  Pos
}

func (e *GenericInstExpr) exprNode()     {}
func (e *GenericInstExpr) Position() Pos { return e.Pos }
func (e *GenericInstExpr) String() string {
	var args []string
	for _, a := range e.Args {
		args = append(args, a.String())
	}
	return fmt.Sprintf("%s<%s>", e.Base, strings.Join(args, ","))
}
