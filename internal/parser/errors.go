package parser

import (
	"github.com/lhaig/clarwasm/internal/diagnostic"
	"github.com/lhaig/clarwasm/internal/lexer"
)

// Parser holds the parser state
type Parser struct {
	tokens     []lexer.Token
	pos        int
	diags      *diagnostic.Diagnostics
	incomplete bool // input ended inside an open list
}

// current returns the current token
func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos]
}

// advance moves to the next token and returns the consumed token
func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// check returns true if the current token is of the given type
func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current().Type == tt
}

// synchronize skips to the end of the enclosing list after an error
// so that later top-level forms still get parsed.
func (p *Parser) synchronize() {
	depth := 0
	for !p.check(lexer.EOF) {
		switch p.current().Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			if depth == 0 {
				return
			}
			depth--
		}
		p.advance()
	}
}

// Incomplete reports whether parsing stopped because the input ended
// inside an unclosed list. Interactive callers use it to keep reading.
func (p *Parser) Incomplete() bool {
	return p.incomplete
}
