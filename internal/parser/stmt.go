package parser

import (
	"github.com/chic-lang/chic/internal/ast"
	"github.com/chic-lang/chic/internal/lexer"
)

func (p *Parser) parseBlock() *ast.Block {
	pos := p.pos()
	p.expect(lexer.LBRACE)
	b := &ast.Block{Pos: pos}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		b.Stmts = append(b.Stmts, p.parseStmt())
	}
	p.expect(lexer.RBRACE)
	return b
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur.Kind {
	case lexer.LET, lexer.VAR:
		return p.parseLetStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.DO:
		return p.parseDoWhileStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.BREAK:
		pos := p.pos()
		p.next()
		p.expectSemi()
		return &ast.BreakStmt{Pos: pos}
	case lexer.CONTINUE:
		pos := p.pos()
		p.next()
		p.expectSemi()
		return &ast.ContinueStmt{Pos: pos}
	case lexer.RETURN:
		pos := p.pos()
		p.next()
		if p.at(lexer.SEMI) {
			p.next()
			return &ast.ReturnStmt{Pos: pos}
		}
		v := p.parseExpr(precLowest)
		p.expectSemi()
		return &ast.ReturnStmt{Value: v, Pos: pos}
	case lexer.SWITCH:
		return p.parseSwitchStmt()
	case lexer.USING:
		return p.parseUsingStmt()
	case lexer.LOCK:
		return p.parseLockStmt()
	case lexer.FIXED:
		return p.parseFixedStmt()
	case lexer.REGION:
		return p.parseRegionStmt()
	case lexer.CHECKED, lexer.UNCHECKED, lexer.ATOMIC:
		return p.parseBlockModStmt()
	case lexer.AWAIT:
		pos := p.pos()
		p.next()
		v := p.parseExpr(precLowest)
		p.expectSemi()
		return &ast.AwaitStmt{Value: v, Pos: pos}
	case lexer.LBRACE:
		return p.parseBlock()
	default:
		pos := p.pos()
		x := p.parseExpr(precLowest)
		p.expectSemi()
		return &ast.ExprStmt{X: x, Pos: pos}
	}
}

func (p *Parser) parseLetStmt() *ast.LetStmt {
	pos := p.pos()
	mutable := p.at(lexer.VAR)
	p.next() // let/var
	name := p.expect(lexer.IDENT).Literal
	var typ *ast.TypeRef
	if p.at(lexer.COLON) {
		p.next()
		typ = p.parseTypeRef()
	}
	p.expect(lexer.ASSIGN)
	val := p.parseExpr(precLowest)
	p.expectSemi()
	return &ast.LetStmt{Name: name, Type: typ, Value: val, Mutable: mutable, Pos: pos}
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	pos := p.pos()
	p.next() // if
	p.expect(lexer.LPAREN)
	cond := p.parseExpr(precLowest)
	p.expect(lexer.RPAREN)
	then := p.parseBlock()
	s := &ast.IfStmt{Cond: cond, Then: then, Pos: pos}
	if p.at(lexer.ELSE) {
		p.next()
		if p.at(lexer.IF) {
			inner := p.parseIfStmt()
			s.Else = &ast.Block{Stmts: []ast.Stmt{inner}, Pos: inner.Pos}
		} else {
			s.Else = p.parseBlock()
		}
	}
	return s
}

func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	pos := p.pos()
	p.next() // while
	p.expect(lexer.LPAREN)
	cond := p.parseExpr(precLowest)
	p.expect(lexer.RPAREN)
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body, Pos: pos}
}

func (p *Parser) parseDoWhileStmt() *ast.DoWhileStmt {
	pos := p.pos()
	p.next() // do
	body := p.parseBlock()
	p.expect(lexer.WHILE)
	p.expect(lexer.LPAREN)
	cond := p.parseExpr(precLowest)
	p.expect(lexer.RPAREN)
	p.expectSemi()
	return &ast.DoWhileStmt{Body: body, Cond: cond, Pos: pos}
}

func (p *Parser) parseForStmt() *ast.ForStmt {
	pos := p.pos()
	p.next() // for
	p.expect(lexer.LPAREN)
	s := &ast.ForStmt{Pos: pos}
	if !p.at(lexer.SEMI) {
		s.Init = p.parseStmt()
	} else {
		p.next()
	}
	if !p.at(lexer.SEMI) {
		s.Cond = p.parseExpr(precLowest)
	}
	p.expect(lexer.SEMI)
	if !p.at(lexer.RPAREN) {
		x := p.parseExpr(precLowest)
		s.Step = &ast.ExprStmt{X: x, Pos: x.Position()}
	}
	p.expect(lexer.RPAREN)
	s.Body = p.parseBlock()
	return s
}

func (p *Parser) parseSwitchStmt() *ast.SwitchStmt {
	pos := p.pos()
	p.next() // switch
	p.expect(lexer.LPAREN)
	disc := p.parseExpr(precLowest)
	p.expect(lexer.RPAREN)
	p.expect(lexer.LBRACE)
	s := &ast.SwitchStmt{Discriminant: disc, Pos: pos}
	for p.at(lexer.CASE) || p.at(lexer.DEFAULT) {
		s.Cases = append(s.Cases, p.parseSwitchCase())
	}
	p.expect(lexer.RBRACE)
	return s
}

func (p *Parser) parseSwitchCase() *ast.SwitchCase {
	pos := p.pos()
	c := &ast.SwitchCase{Pos: pos}
	if p.at(lexer.DEFAULT) {
		p.next()
		c.IsDefault = true
	} else {
		p.expect(lexer.CASE)
		if looksLikePattern(p.cur.Kind) {
			c.Pattern = p.parsePattern()
		} else {
			c.Labels = append(c.Labels, p.parseExpr(precLowest))
		}
		if p.at(lexer.WHEN) {
			p.next()
			c.Guard = p.parseExpr(precLowest)
		}
	}
	p.expect(lexer.COLON)
	c.Body = &ast.Block{Pos: p.pos()}
	for !p.at(lexer.CASE) && !p.at(lexer.DEFAULT) && !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		c.Body.Stmts = append(c.Body.Stmts, p.parseStmt())
	}
	return c
}

func looksLikePattern(k lexer.TokenKind) bool {
	switch k {
	case lexer.IDENT:
		return true
	default:
		return false
	}
}

func (p *Parser) parseUsingStmt() *ast.UsingStmt {
	pos := p.pos()
	p.next() // using
	p.expect(lexer.LPAREN)
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.ASSIGN)
	val := p.parseExpr(precLowest)
	p.expect(lexer.RPAREN)
	body := p.parseBlock()
	return &ast.UsingStmt{Name: name, Value: val, Body: body, Pos: pos}
}

func (p *Parser) parseLockStmt() *ast.LockStmt {
	pos := p.pos()
	p.next() // lock
	p.expect(lexer.LPAREN)
	target := p.parseExpr(precLowest)
	p.expect(lexer.RPAREN)
	body := p.parseBlock()
	return &ast.LockStmt{Target: target, Body: body, Pos: pos}
}

func (p *Parser) parseFixedStmt() *ast.FixedStmt {
	pos := p.pos()
	p.next() // fixed
	p.expect(lexer.LPAREN)
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.ASSIGN)
	val := p.parseExpr(precLowest)
	p.expect(lexer.RPAREN)
	body := p.parseBlock()
	return &ast.FixedStmt{Name: name, Value: val, Body: body, Pos: pos}
}

func (p *Parser) parseRegionStmt() *ast.RegionStmt {
	pos := p.pos()
	p.next() // region
	name := p.expect(lexer.IDENT).Literal
	body := p.parseBlock()
	return &ast.RegionStmt{Name: name, Body: body, Pos: pos}
}

func (p *Parser) parseBlockModStmt() *ast.BlockModStmt {
	pos := p.pos()
	var kind ast.BlockModKind
	order := ast.OrderSeqCst
	switch p.cur.Kind {
	case lexer.CHECKED:
		kind = ast.ModChecked
	case lexer.UNCHECKED:
		kind = ast.ModUnchecked
	case lexer.ATOMIC:
		kind = ast.ModAtomic
	}
	p.next()
	if kind == ast.ModAtomic && p.at(lexer.LPAREN) {
		p.next()
		switch p.cur.Literal {
		case "acquire":
			order = ast.OrderAcquire
		case "release":
			order = ast.OrderRelease
		case "acq_rel":
			order = ast.OrderAcqRel
		case "relaxed":
			order = ast.OrderRelaxed
		}
		p.next()
		p.expect(lexer.RPAREN)
	}
	body := p.parseBlock()
	return &ast.BlockModStmt{Kind: kind, Order: order, Body: body, Pos: pos}
}
