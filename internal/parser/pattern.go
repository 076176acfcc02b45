package parser

import (
	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/lexer"
)

// parsePattern parses a switch-case pattern. The fixture grammar covers
// var/wildcard/literal/constructor/relational/tuple/list patterns (no
// type patterns), composed
// with `and`/`or`/`not`-spelled-as-`!` — enough to exercise the switch
// lowering paths in SPEC_FULL.md without claiming full pattern-grammar
// coverage.
func (p *Parser) parsePattern() ast.Pattern {
	left := p.parsePrimaryPattern()
	for p.at(lexer.ANDAND) || p.at(lexer.OROR) {
		pos := p.pos()
		op := ast.PatternAnd
		if p.at(lexer.OROR) {
			op = ast.PatternOr
		}
		p.next()
		right := p.parsePrimaryPattern()
		left = &ast.BinaryPattern{Left: left, Right: right, Op: op, Pos: pos}
	}
	return left
}

func (p *Parser) parsePrimaryPattern() ast.Pattern {
	pos := p.pos()
	switch p.cur.Kind {
	case lexer.BANG:
		p.next()
		inner := p.parsePrimaryPattern()
		return &ast.NotPattern{Inner: inner, Pos: pos}
	case lexer.IDENT:
		if p.cur.Literal == "_" {
			p.next()
			return &ast.WildcardPattern{Pos: pos}
		}
		name := p.cur.Literal
		if p.peek.Kind == lexer.DOT {
			return p.parseConstructorPattern()
		}
		p.next()
		if p.peek.Kind == lexer.LPAREN {
			// a following '(' is not consumed: the name is a VarPattern
		}
		return &ast.VarPattern{Name: name, Pos: pos}
	case lexer.LANGLE, lexer.RANGLE, lexer.LE, lexer.GE, lexer.EQ, lexer.NE:
		return p.parseRelationalPattern()
	case lexer.INT, lexer.FLOAT, lexer.STRING, lexer.CHAR, lexer.TRUE, lexer.FALSE, lexer.NULL:
		lit := p.parsePrimary()
		l, ok := lit.(*ast.Literal)
		if !ok {
			p.errorf("expected literal pattern")
			return &ast.WildcardPattern{Pos: pos}
		}
		return &ast.LiteralPattern{Value: l.Value, Pos: pos}
	case lexer.LPAREN:
		p.next()
		pat := &ast.TuplePattern{Pos: pos}
		for !p.at(lexer.RPAREN) {
			pat.Elements = append(pat.Elements, p.parsePattern())
			if p.at(lexer.COMMA) {
				p.next()
			}
		}
		p.expect(lexer.RPAREN)
		return pat
	case lexer.LBRACKET:
		return p.parseListPattern()
	default:
		p.errorf("unexpected token in pattern: %d (%q)", p.cur.Kind, p.cur.Literal)
		p.next()
		return &ast.WildcardPattern{Pos: pos}
	}
}

func (p *Parser) parseConstructorPattern() ast.Pattern {
	pos := p.pos()
	union := p.expect(lexer.IDENT).Literal
	p.expect(lexer.DOT)
	variant := p.expect(lexer.IDENT).Literal
	cp := &ast.ConstructorPattern{UnionName: union, VariantName: variant, Pos: pos}
	if p.at(lexer.LPAREN) {
		p.next()
		for !p.at(lexer.RPAREN) {
			cp.Fields = append(cp.Fields, p.parsePattern())
			if p.at(lexer.COMMA) {
				p.next()
			}
		}
		p.expect(lexer.RPAREN)
	}
	return cp
}

func (p *Parser) parseRelationalPattern() ast.Pattern {
	pos := p.pos()
	var op ast.RelationalOp
	switch p.cur.Kind {
	case lexer.LANGLE:
		op = ast.RelLess
	case lexer.RANGLE:
		op = ast.RelGreater
	case lexer.LE:
		op = ast.RelLessEq
	case lexer.GE:
		op = ast.RelGreaterEq
	case lexer.EQ:
		op = ast.RelEq
	case lexer.NE:
		op = ast.RelNotEq
	}
	p.next()
	v := p.parseExpr(precRelational + 1)
	return &ast.RelationalPattern{Op: op, Value: v, Pos: pos}
}

func (p *Parser) parseListPattern() ast.Pattern {
	pos := p.pos()
	p.next() // [
	lp := &ast.ListPattern{Pos: pos}
	inSuffix := false
	for !p.at(lexer.RBRACKET) {
		if p.at(lexer.DOT) {
			p.next()
			if p.at(lexer.DOT) {
				p.next()
			}
			if p.at(lexer.IDENT) {
				name := p.cur.Literal
				lp.Rest = &name
				p.next()
			}
			inSuffix = true
			if p.at(lexer.COMMA) {
				p.next()
			}
			continue
		}
		elem := p.parsePrimaryPattern()
		if inSuffix {
			lp.Suffix = append(lp.Suffix, elem)
		} else {
			lp.Prefix = append(lp.Prefix, elem)
		}
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACKET)
	return lp
}
