package parser

import (
	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/lexer"
)

// Operator precedence, lowest to highest.
const (
	precLowest = iota
	precAssign
	precNullCoalesce
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

func precedenceOf(k lexer.TokenKind) int {
	switch k {
	case lexer.ASSIGN:
		return precAssign
	case lexer.QUESTIONQUESTION:
		return precNullCoalesce
	case lexer.OROR:
		return precOr
	case lexer.ANDAND:
		return precAnd
	case lexer.PIPE:
		return precBitOr
	case lexer.CARET:
		return precBitXor
	case lexer.AMP:
		return precBitAnd
	case lexer.EQ, lexer.NE:
		return precEquality
	case lexer.LANGLE, lexer.RANGLE, lexer.LE, lexer.GE:
		return precRelational
	case lexer.PLUS, lexer.MINUS:
		return precAdditive
	case lexer.STAR, lexer.SLASH, lexer.PERCENT:
		return precMultiplicative
	default:
		return precLowest
	}
}

func binOpLiteral(k lexer.TokenKind) string {
	switch k {
	case lexer.OROR:
		return "||"
	case lexer.ANDAND:
		return "&&"
	case lexer.PIPE:
		return "|"
	case lexer.CARET:
		return "^"
	case lexer.AMP:
		return "&"
	case lexer.EQ:
		return "=="
	case lexer.NE:
		return "!="
	case lexer.LANGLE:
		return "<"
	case lexer.RANGLE:
		return ">"
	case lexer.LE:
		return "<="
	case lexer.GE:
		return ">="
	case lexer.PLUS:
		return "+"
	case lexer.MINUS:
		return "-"
	case lexer.STAR:
		return "*"
	case lexer.SLASH:
		return "/"
	case lexer.PERCENT:
		return "%"
	default:
		return "?"
	}
}

// parseExpr parses an expression binding at least as tightly as minPrec,
// using precedence climbing.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parseUnary()

	for {
		if p.at(lexer.ASSIGN) && minPrec <= precAssign {
			pos := p.pos()
			p.next()
			val := p.parseExpr(precAssign)
			left = &ast.AssignExpr{Target: left, Value: val, Pos: pos}
			continue
		}
		if p.at(lexer.QUESTIONQUESTION) && minPrec <= precNullCoalesce {
			pos := p.pos()
			p.next()
			right := p.parseExpr(precNullCoalesce + 1)
			left = &ast.NullCoalesceExpr{Left: left, Right: right, Pos: pos}
			continue
		}

		prec := precedenceOf(p.cur.Kind)
		if prec == precLowest || prec < minPrec {
			break
		}
		opKind := p.cur.Kind
		pos := p.pos()
		p.next()
		right := p.parseExpr(prec + 1)
		left = &ast.BinaryOp{Op: binOpLiteral(opKind), Left: left, Right: right, Pos: pos}
	}

	return left
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur.Kind {
	case lexer.MINUS, lexer.BANG:
		pos := p.pos()
		op := "-"
		if p.cur.Kind == lexer.BANG {
			op = "!"
		}
		p.next()
		x := p.parseUnary()
		return &ast.UnaryOp{Op: op, X: x, Pos: pos}
	case lexer.AMP:
		pos := p.pos()
		p.next()
		mut := false
		if p.at(lexer.MUT) {
			mut = true
			p.next()
		}
		x := p.parseUnary()
		return &ast.AddressOfExpr{X: x, Mut: mut, Pos: pos}
	case lexer.AWAIT:
		pos := p.pos()
		p.next()
		x := p.parseUnary()
		return &ast.AwaitExpr{X: x, Pos: pos}
	case lexer.YIELD:
		pos := p.pos()
		p.next()
		x := p.parseUnary()
		return &ast.YieldExpr{X: x, Pos: pos}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

func (p *Parser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		switch p.cur.Kind {
		case lexer.DOT:
			pos := p.pos()
			p.next()
			field := p.expect(lexer.IDENT).Literal
			x = &ast.FieldAccess{X: x, Field: field, Pos: pos}
		case lexer.LBRACKET:
			pos := p.pos()
			p.next()
			idx := p.parseExpr(precLowest)
			p.expect(lexer.RBRACKET)
			x = &ast.IndexExpr{X: x, Index: idx, Pos: pos}
		case lexer.LPAREN:
			pos := p.pos()
			p.next()
			var args []*ast.Arg
			for !p.at(lexer.RPAREN) {
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
				args = append(args, &ast.Arg{Value: p.parseExpr(precAssign + 1), Mode: mode})
				if p.at(lexer.COMMA) {
					p.next()
				}
			}
			p.expect(lexer.RPAREN)
			x = &ast.Call{Func: x, Args: args, Pos: pos}
		default:
			return x
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	pos := p.pos()
	switch p.cur.Kind {
	case lexer.INT:
		lit := p.cur.Literal
		p.next()
		return &ast.Literal{Kind: ast.IntLit, Value: lit, Pos: pos}
	case lexer.FLOAT:
		lit := p.cur.Literal
		p.next()
		return &ast.Literal{Kind: ast.FloatLit, Value: lit, Pos: pos}
	case lexer.STRING:
		lit := p.cur.Literal
		p.next()
		return &ast.Literal{Kind: ast.StringLit, Value: lit, Pos: pos}
	case lexer.CHAR:
		lit := p.cur.Literal
		p.next()
		return &ast.Literal{Kind: ast.CharLit, Value: lit, Pos: pos}
	case lexer.TRUE:
		p.next()
		return &ast.Literal{Kind: ast.BoolLit, Value: true, Pos: pos}
	case lexer.FALSE:
		p.next()
		return &ast.Literal{Kind: ast.BoolLit, Value: false, Pos: pos}
	case lexer.NULL:
		p.next()
		return &ast.Literal{Kind: ast.NullLit, Pos: pos}
	case lexer.BACKSLASH:
		return p.parseLambda()
	case lexer.NEW:
		return p.parseNewExpr()
	case lexer.LBRACKET:
		return p.parseArrayLit()
	case lexer.LPAREN:
		p.next()
		x := p.parseExpr(precLowest)
		p.expect(lexer.RPAREN)
		return x
	case lexer.LBRACE:
		b := p.parseBlock()
		return &ast.BlockExpr{Block: b, Pos: pos}
	case lexer.IDENT:
		name := p.cur.Literal
		p.next()
		return &ast.Identifier{Name: name, Pos: pos}
	default:
		p.errorf("unexpected token in expression: %d (%q)", p.cur.Kind, p.cur.Literal)
		p.next()
		return &ast.Literal{Kind: ast.UnitLit, Pos: pos}
	}
}

// parseGenericInst parses an explicit generic instantiation `Base<T,...>`.
// Surface parsing never calls this directly (the `<` after an identifier
// is ambiguous with a relational comparison without deeper lookahead);
// it exists for fixture builders that already know a `<` starts one.
func (p *Parser) parseGenericInst(base ast.Expr, pos ast.Pos) ast.Expr {
	p.next() // <
	var targs []*ast.TypeRef
	for !p.at(lexer.RANGLE) {
		targs = append(targs, p.parseTypeRef())
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RANGLE)
	return &ast.GenericInstExpr{Base: base, Args: targs, Pos: pos}
}

func (p *Parser) parseLambda() ast.Expr {
	pos := p.pos()
	p.next() // backslash
	var params []*ast.LambdaParam
	for p.at(lexer.IDENT) {
		name := p.cur.Literal
		p.next()
		var typ *ast.TypeRef
		if p.at(lexer.COLON) {
			p.next()
			typ = p.parseTypeRef()
		}
		params = append(params, &ast.LambdaParam{Name: name, Type: typ})
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.DOT)
	body := p.parseExpr(precAssign + 1)
	return &ast.Lambda{Params: params, Body: body, Pos: pos}
}

func (p *Parser) parseNewExpr() ast.Expr {
	pos := p.pos()
	p.next() // new
	typ := p.parseTypeRef()
	e := &ast.NewExpr{Type: typ, Pos: pos}
	if p.at(lexer.LBRACE) {
		p.next()
		for !p.at(lexer.RBRACE) {
			name := p.expect(lexer.IDENT).Literal
			p.expect(lexer.COLON)
			val := p.parseExpr(precAssign + 1)
			e.Fields = append(e.Fields, &ast.FieldInit{Name: name, Value: val})
			if p.at(lexer.COMMA) {
				p.next()
			}
		}
		p.expect(lexer.RBRACE)
	}
	return e
}

func (p *Parser) parseArrayLit() ast.Expr {
	pos := p.pos()
	p.next() // [
	e := &ast.ArrayLit{Pos: pos}
	for !p.at(lexer.RBRACKET) {
		e.Elements = append(e.Elements, p.parseExpr(precAssign+1))
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACKET)
	return e
}
