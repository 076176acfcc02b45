// Package ast defines the surface syntax tree the chic core consumes.
//
// This is the contract the external parser is expected to produce; it
// is not a grammar reference. Source parsing rules are out of scope
// for this repository (see SPEC_FULL.md) — this package exists so the
// lowering pipeline has something concrete to walk in tests.
package ast

import (
	"fmt"
	"strings"
)

// Node is the base interface for every AST node.
type Node interface {
	String() string
	Position() Pos
}

// Pos is a position in a source file.
type Pos struct {
	Line   int
	Column int
	File   string
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a range in a source file.
type Span struct {
	Start Pos
	End   Pos
}

// File is a single parsed source file.
type File struct {
	Namespace *NamespaceDecl
	Imports   []*ImportDecl
	Decls     []Decl
	Path      string
	Pos       Pos
}

func (f *File) String() string {
	var parts []string
	if f.Namespace != nil {
		parts = append(parts, f.Namespace.String())
	}
	for _, d := range f.Decls {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "\n")
}
func (f *File) Position() Pos { return f.Pos }

// NamespaceDecl names the namespace a file's declarations live in.
type NamespaceDecl struct {
	Path string
	Pos  Pos
}

func (n *NamespaceDecl) String() string  { return fmt.Sprintf("namespace %s;", n.Path) }
func (n *NamespaceDecl) Position() Pos   { return n.Pos }

// ImportDecl imports another namespace or package manifest entry.
type ImportDecl struct {
	Path string
	Pos  Pos
}

func (i *ImportDecl) String() string { return fmt.Sprintf("import %s;", i.Path) }
func (i *ImportDecl) Position() Pos  { return i.Pos }

// Decl is a top-level or class-member declaration.
type Decl interface {
	Node
	declNode()
}

// TypeParam is a generic type parameter with optional constraints.
type TypeParam struct {
	Name        string
	Constraints []string // qualified interface/trait names, e.g. "Std.Comparable"
}

// ParamMode is the source-level passing mode of a parameter.
type ParamMode int

const (
	ModeValue ParamMode = iota
	ModeRef             // ref T
	ModeIn              // in T
	ModeOut             // out T
)

func (m ParamMode) String() string {
	switch m {
	case ModeRef:
		return "ref"
	case ModeIn:
		return "in"
	case ModeOut:
		return "out"
	default:
		return ""
	}
}

// Param is a function parameter.
type Param struct {
	Name string
	Type *TypeRef
	Mode ParamMode
	Pos  Pos
}

// TypeRef is a reference to a (possibly generic) named type.
type TypeRef struct {
	Name     string // canonical name, e.g. "Std.Collections.List"
	Args     []*TypeRef
	IsRef    bool // &T
	IsMut    bool // &mut T
	IsPtr    bool // *T
	IsArray  bool // T[]
	IsSpan   bool // span<T>
	FuncSig  *FuncSig
	Pos      Pos
}

func (t *TypeRef) String() string {
	if t == nil {
		return "?"
	}
	s := t.Name
	if len(t.Args) > 0 {
		var args []string
		for _, a := range t.Args {
			args = append(args, a.String())
		}
		s += "<" + strings.Join(args, ",") + ">"
	}
	if t.IsArray {
		s += "[]"
	}
	if t.IsRef {
		if t.IsMut {
			s = "&mut " + s
		} else {
			s = "&" + s
		}
	}
	return s
}

// FuncSig describes a function-pointer type.
type FuncSig struct {
	Params  []*TypeRef
	Return  *TypeRef
	Async   bool
	Variadic bool
}

// FuncKind classifies a function declaration.
type FuncKind int

const (
	FuncFree FuncKind = iota
	FuncMethod
	FuncConstructor
	FuncDestructor
	FuncOperator
)

// ExternSpec describes an FFI-imported function.
type ExternSpec struct {
	ABI     string // e.g. "C"
	Library string // e.g. "libm"
	Symbol  string // linker symbol, defaults to function name
}

// FuncDecl is a function, method, constructor, destructor, or operator.
type FuncDecl struct {
	Name        string
	Namespace   string
	Kind        FuncKind
	TypeParams  []TypeParam
	Params      []*Param
	ReturnType  *TypeRef
	LendsFrom   string // name of the parameter the return value lends its lifetime from, if any
	Body        *Block // nil when Extern != nil
	Async       bool
	Generator   bool
	Virtual     bool
	Override    bool
	Extern      *ExternSpec
	Attrs       []Attr
	Pos         Pos
}

func (f *FuncDecl) declNode()        {}
func (f *FuncDecl) Position() Pos    { return f.Pos }
func (f *FuncDecl) String() string {
	return fmt.Sprintf("func %s(%d params)", f.Name, len(f.Params))
}

// Attr is a source-level attribute, e.g. @stack_only, @frame_limit(256), @vectorize(decimal).
type Attr struct {
	Name string
	Args []string
	Pos  Pos
}

// FieldDecl is a class/struct field.
type FieldDecl struct {
	Name string
	Type *TypeRef
	Mut  bool
	Pos  Pos
}

// ClassKind distinguishes regular classes from source `error` types.
type ClassKind int

const (
	ClassKindClass ClassKind = iota
	ClassKindError
)

// ClassDecl is a reference-type declaration with single inheritance and
// virtual dispatch.
type ClassDecl struct {
	Name       string
	Namespace  string
	Kind       ClassKind
	TypeParams []TypeParam
	Bases      []string // qualified base class names, declaration order
	Fields     []*FieldDecl
	Methods    []*FuncDecl
	Pos        Pos
}

func (c *ClassDecl) declNode()     {}
func (c *ClassDecl) Position() Pos { return c.Pos }
func (c *ClassDecl) String() string {
	return fmt.Sprintf("class %s", c.Name)
}

// StructDecl is a value-type declaration (no inheritance, no vtable).
type StructDecl struct {
	Name       string
	Namespace  string
	TypeParams []TypeParam
	Fields     []*FieldDecl
	Methods    []*FuncDecl
	Attrs      []Attr // e.g. @layout(pack=4)
	Pos        Pos
}

func (s *StructDecl) declNode()     {}
func (s *StructDecl) Position() Pos { return s.Pos }
func (s *StructDecl) String() string {
	return fmt.Sprintf("struct %s", s.Name)
}

// UnionVariant is one arm of a union declaration.
type UnionVariant struct {
	Name   string
	Fields []*FieldDecl
	Pos    Pos
}

// UnionDecl is a tagged-union declaration.
type UnionDecl struct {
	Name      string
	Namespace string
	Variants  []*UnionVariant
	Pos       Pos
}

func (u *UnionDecl) declNode()     {}
func (u *UnionDecl) Position() Pos { return u.Pos }
func (u *UnionDecl) String() string {
	return fmt.Sprintf("union %s", u.Name)
}

// Block is a brace-delimited sequence of statements.
type Block struct {
	Stmts []Stmt
	Pos   Pos
}

func (b *Block) String() string { return fmt.Sprintf("{ %d stmts }", len(b.Stmts)) }
func (b *Block) Position() Pos  { return b.Pos }
