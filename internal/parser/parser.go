package parser

import (
	"encoding/hex"
	"math/big"

	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/diagnostic"
	"github.com/lhaig/clarwasm/internal/lexer"
)

var (
	maxInt  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxUInt = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// New creates a new parser
func New(source string) *Parser {
	l := lexer.New(source)
	tokens := l.Tokenize()
	return &Parser{
		tokens: tokens,
		pos:    0,
		diags:  diagnostic.New(),
	}
}

// Diagnostics returns the parser's diagnostics
func (p *Parser) Diagnostics() *diagnostic.Diagnostics {
	return p.diags
}

// Parse parses the token stream into a Program AST
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for !p.check(lexer.EOF) {
		if p.check(lexer.RPAREN) {
			tok := p.advance()
			p.diags.Errorf(tok.Line, tok.Column, "unexpected ')'")
			continue
		}
		if expr := p.parseExpression(); expr != nil {
			prog.Exprs = append(prog.Exprs, expr)
		}
	}
	return prog
}

// parseExpression parses a single expression starting at the current token
func (p *Parser) parseExpression() ast.Expression {
	tok := p.current()
	switch tok.Type {
	case lexer.LPAREN:
		return p.parseList()
	case lexer.IDENT:
		p.advance()
		return &ast.Atom{Name: tok.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.INT_LIT, lexer.UINT_LIT:
		p.advance()
		return p.parseInt(tok)
	case lexer.BUFF_LIT:
		p.advance()
		data, err := hex.DecodeString(tok.Literal)
		if err != nil {
			p.diags.Errorf(tok.Line, tok.Column, "invalid buffer literal 0x%s", tok.Literal)
			return nil
		}
		return &ast.BufferLiteral{Value: data, Line: tok.Line, Column: tok.Column}
	case lexer.STRING_LIT:
		p.advance()
		for i := 0; i < len(tok.Literal); i++ {
			if tok.Literal[i] >= 0x80 {
				p.diags.ErrorWithHint(tok.Line, tok.Column, "non-ASCII character in string literal",
					"use a u\"...\" literal for UTF-8 strings")
				return nil
			}
		}
		return &ast.StringLiteral{Value: tok.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.UTF8_LIT:
		p.advance()
		return &ast.StringLiteral{Value: tok.Literal, UTF8: true, Line: tok.Line, Column: tok.Column}
	case lexer.PRINCIPAL_LIT:
		p.advance()
		return &ast.PrincipalLiteral{Value: tok.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.EOF:
		p.incomplete = true
		p.diags.Errorf(tok.Line, tok.Column, "unexpected end of input")
		return nil
	default:
		p.advance()
		p.diags.Errorf(tok.Line, tok.Column, "unexpected token %q", tok.Literal)
		return nil
	}
}

// parseList parses a parenthesised list. The current token is '('.
func (p *Parser) parseList() ast.Expression {
	open := p.advance()
	list := &ast.List{Line: open.Line, Column: open.Column}
	for {
		switch p.current().Type {
		case lexer.RPAREN:
			p.advance()
			return list
		case lexer.EOF:
			p.incomplete = true
			p.diags.ErrorWithHint(open.Line, open.Column, "unclosed '('",
				"add a matching ')'")
			return nil
		}
		expr := p.parseExpression()
		if expr == nil {
			if p.check(lexer.EOF) {
				continue
			}
			p.synchronize()
			continue
		}
		list.Elements = append(list.Elements, expr)
	}
}

// parseInt converts an integer token into a literal, checking the 128-bit range
func (p *Parser) parseInt(tok lexer.Token) ast.Expression {
	value, ok := new(big.Int).SetString(tok.Literal, 10)
	if !ok {
		p.diags.Errorf(tok.Line, tok.Column, "invalid integer literal %q", tok.Literal)
		return nil
	}
	unsigned := tok.Type == lexer.UINT_LIT
	if unsigned && value.Cmp(maxUInt) > 0 {
		p.diags.Errorf(tok.Line, tok.Column, "uint literal u%s out of range", tok.Literal)
		return nil
	}
	if !unsigned && (value.Cmp(maxInt) > 0 || value.Cmp(minInt) < 0) {
		p.diags.Errorf(tok.Line, tok.Column, "int literal %s out of range", tok.Literal)
		return nil
	}
	return &ast.IntLiteral{Value: value, Unsigned: unsigned, Line: tok.Line, Column: tok.Column}
}
