// Package parser builds internal/ast fixtures from chic source text.
//
// Grounded on the teacher's internal/parser package for the
// token-buffer/Errors() shape. Covers enough surface grammar to drive
// the body builder end to end in tests; it is not a grammar reference
// (source parsing rules are an explicit non-goal, see SPEC_FULL.md).
package parser

import (
	"fmt"

	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/lexer"
)

// Parser consumes a token stream and produces an *ast.File.
type Parser struct {
	l    *lexer.Lexer
	file string

	cur  lexer.Token
	peek lexer.Token

	errs []error
}

// New creates a Parser over the given lexer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l, file: l.File()}
	p.next()
	p.next()
	return p
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []error { return p.errs }

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.Next()
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{Line: p.cur.Line, Column: p.cur.Column, File: p.file}
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errs = append(p.errs, fmt.Errorf("%s:%d:%d: %s", p.file, p.cur.Line, p.cur.Column, fmt.Sprintf(format, args...)))
}

func (p *Parser) expect(kind lexer.TokenKind) lexer.Token {
	tok := p.cur
	if p.cur.Kind != kind {
		p.errorf("expected token %d, got %d (%q)", kind, p.cur.Kind, p.cur.Literal)
	}
	p.next()
	return tok
}

func (p *Parser) at(kind lexer.TokenKind) bool { return p.cur.Kind == kind }

// Parse parses a complete file.
func (p *Parser) Parse() *ast.File {
	f := &ast.File{Pos: p.pos()}

	if p.at(lexer.NAMESPACE) {
		pos := p.pos()
		p.next()
		path := p.parseQualifiedName()
		p.expectSemi()
		f.Namespace = &ast.NamespaceDecl{Path: path, Pos: pos}
	}

	for p.at(lexer.IMPORT) {
		pos := p.pos()
		p.next()
		path := p.parseQualifiedName()
		p.expectSemi()
		f.Imports = append(f.Imports, &ast.ImportDecl{Path: path, Pos: pos})
	}

	for !p.at(lexer.EOF) {
		decl := p.parseDecl()
		if decl != nil {
			f.Decls = append(f.Decls, decl)
		} else {
			p.next()
		}
	}

	return f
}

func (p *Parser) expectSemi() {
	if p.at(lexer.SEMI) {
		p.next()
	}
}

func (p *Parser) parseQualifiedName() string {
	name := p.expect(lexer.IDENT).Literal
	for p.at(lexer.DOT) {
		p.next()
		name += "." + p.expect(lexer.IDENT).Literal
	}
	return name
}

func (p *Parser) parseDecl() ast.Decl {
	attrs := p.parseAttrs()
	switch p.cur.Kind {
	case lexer.CLASS, lexer.ERROR:
		return p.parseClassDecl()
	case lexer.STRUCT:
		return p.parseStructDecl(attrs)
	case lexer.UNION:
		return p.parseUnionDecl()
	case lexer.EXTERN:
		return p.parseExternDecl()
	case lexer.VIRTUAL, lexer.OVERRIDE, lexer.ASYNC, lexer.GENERATOR, lexer.FUNC:
		return p.parseFuncDecl()
	default:
		p.errorf("unexpected token at top level: %d (%q)", p.cur.Kind, p.cur.Literal)
		return nil
	}
}

func (p *Parser) parseAttrs() []ast.Attr {
	var attrs []ast.Attr
	for p.at(lexer.AT) {
		pos := p.pos()
		p.next()
		name := p.expect(lexer.IDENT).Literal
		attr := ast.Attr{Name: name, Pos: pos}
		if p.at(lexer.LPAREN) {
			p.next()
			for !p.at(lexer.RPAREN) {
				attr.Args = append(attr.Args, p.parseAttrArg())
				if p.at(lexer.COMMA) {
					p.next()
				}
			}
			p.expect(lexer.RPAREN)
		}
		attrs = append(attrs, attr)
	}
	return attrs
}

// parseAttrArg accepts both bare tokens (`pack=8`) and identifiers,
// concatenated into a single string; attribute payloads are uninterpreted
// surface text consumed later by the layout package.
func (p *Parser) parseAttrArg() string {
	s := p.cur.Literal
	p.next()
	if p.at(lexer.ASSIGN) {
		p.next()
		s += "=" + p.cur.Literal
		p.next()
	}
	return s
}

func (p *Parser) parseClassDecl() *ast.ClassDecl {
	pos := p.pos()
	kind := ast.ClassKindClass
	if p.at(lexer.ERROR) {
		kind = ast.ClassKindError
	}
	p.next() // class/error
	name := p.expect(lexer.IDENT).Literal
	tps := p.parseOptionalTypeParams()

	var bases []string
	if p.at(lexer.COLON) {
		p.next()
		bases = append(bases, p.parseQualifiedName())
		for p.at(lexer.COMMA) {
			p.next()
			bases = append(bases, p.parseQualifiedName())
		}
	}

	decl := &ast.ClassDecl{Name: name, Kind: kind, TypeParams: tps, Bases: bases, Pos: pos}
	p.expect(lexer.LBRACE)
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.at(lexer.MUT) || (p.at(lexer.IDENT) && p.peek.Kind != lexer.LPAREN) {
			decl.Fields = append(decl.Fields, p.parseFieldDecl())
			continue
		}
		decl.Methods = append(decl.Methods, p.parseFuncDecl())
	}
	p.expect(lexer.RBRACE)
	return decl
}

func (p *Parser) parseStructDecl(attrs []ast.Attr) *ast.StructDecl {
	pos := p.pos()
	p.next() // struct
	name := p.expect(lexer.IDENT).Literal
	tps := p.parseOptionalTypeParams()
	decl := &ast.StructDecl{Name: name, TypeParams: tps, Attrs: attrs, Pos: pos}
	p.expect(lexer.LBRACE)
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.at(lexer.MUT) || (p.at(lexer.IDENT) && p.peek.Kind != lexer.LPAREN) {
			decl.Fields = append(decl.Fields, p.parseFieldDecl())
			continue
		}
		decl.Methods = append(decl.Methods, p.parseFuncDecl())
	}
	p.expect(lexer.RBRACE)
	return decl
}

func (p *Parser) parseUnionDecl() *ast.UnionDecl {
	pos := p.pos()
	p.next() // union
	name := p.expect(lexer.IDENT).Literal
	decl := &ast.UnionDecl{Name: name, Pos: pos}
	p.expect(lexer.LBRACE)
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		vpos := p.pos()
		vname := p.expect(lexer.IDENT).Literal
		v := &ast.UnionVariant{Name: vname, Pos: vpos}
		if p.at(lexer.LPAREN) {
			p.next()
			for !p.at(lexer.RPAREN) {
				fpos := p.pos()
				fname := fmt.Sprintf("_%d", len(v.Fields))
				ftype := p.parseTypeRef()
				v.Fields = append(v.Fields, &ast.FieldDecl{Name: fname, Type: ftype, Pos: fpos})
				if p.at(lexer.COMMA) {
					p.next()
				}
			}
			p.expect(lexer.RPAREN)
		}
		decl.Variants = append(decl.Variants, v)
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)
	return decl
}

func (p *Parser) parseExternDecl() *ast.FuncDecl {
	p.next() // extern
	abi := "C"
	if p.at(lexer.STRING) {
		abi = p.cur.Literal
		p.next()
	}
	fn := p.parseFuncDecl()
	fn.Extern = &ast.ExternSpec{ABI: abi, Symbol: fn.Name}
	return fn
}

func (p *Parser) parseFieldDecl() *ast.FieldDecl {
	pos := p.pos()
	mut := false
	if p.at(lexer.MUT) {
		mut = true
		p.next()
	}
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.COLON)
	typ := p.parseTypeRef()
	p.expectSemi()
	return &ast.FieldDecl{Name: name, Type: typ, Mut: mut, Pos: pos}
}

func (p *Parser) parseOptionalTypeParams() []ast.TypeParam {
	if !p.at(lexer.LANGLE) {
		return nil
	}
	p.next()
	var tps []ast.TypeParam
	for !p.at(lexer.RANGLE) {
		name := p.expect(lexer.IDENT).Literal
		tp := ast.TypeParam{Name: name}
		if p.at(lexer.COLON) {
			p.next()
			tp.Constraints = append(tp.Constraints, p.parseQualifiedName())
		}
		tps = append(tps, tp)
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RANGLE)
	return tps
}

func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	pos := p.pos()
	fn := &ast.FuncDecl{Pos: pos}
	for {
		switch p.cur.Kind {
		case lexer.VIRTUAL:
			fn.Virtual = true
			p.next()
		case lexer.OVERRIDE:
			fn.Override = true
			p.next()
		case lexer.ASYNC:
			fn.Async = true
			p.next()
		case lexer.GENERATOR:
			fn.Generator = true
			p.next()
		default:
			goto modsDone
		}
	}
modsDone:
	p.expect(lexer.FUNC)
	fn.Name = p.expect(lexer.IDENT).Literal
	fn.TypeParams = p.parseOptionalTypeParams()
	p.expect(lexer.LPAREN)
	for !p.at(lexer.RPAREN) {
		fn.Params = append(fn.Params, p.parseParam())
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RPAREN)
	if p.at(lexer.ARROW) {
		p.next()
		fn.ReturnType = p.parseTypeRef()
	}
	if p.at(lexer.SEMI) {
		p.next()
		return fn
	}
	fn.Body = p.parseBlock()
	return fn
}

func (p *Parser) parseParam() *ast.Param {
	pos := p.pos()
	mode := ast.ModeValue
	switch p.cur.Kind {
	case lexer.REF:
		mode = ast.ModeRef
		p.next()
	case lexer.IN:
		mode = ast.ModeIn
		p.next()
	case lexer.OUT:
		mode = ast.ModeOut
		p.next()
	}
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.COLON)
	typ := p.parseTypeRef()
	return &ast.Param{Name: name, Type: typ, Mode: mode, Pos: pos}
}

func (p *Parser) parseTypeRef() *ast.TypeRef {
	pos := p.pos()
	isRef := false
	isMut := false
	if p.at(lexer.AMP) {
		isRef = true
		p.next()
		if p.at(lexer.MUT) {
			isMut = true
			p.next()
		}
	}
	name := p.parseQualifiedName()
	t := &ast.TypeRef{Name: name, IsRef: isRef, IsMut: isMut, Pos: pos}
	if p.at(lexer.LANGLE) {
		p.next()
		for !p.at(lexer.RANGLE) {
			t.Args = append(t.Args, p.parseTypeRef())
			if p.at(lexer.COMMA) {
				p.next()
			}
		}
		p.expect(lexer.RANGLE)
	}
	for p.at(lexer.LBRACKET) {
		p.next()
		p.expect(lexer.RBRACKET)
		t.IsArray = true
	}
	return t
}
