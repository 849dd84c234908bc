package lexer

import "fmt"

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Delimiters
	LPAREN // (
	RPAREN // )

	// Literals
	IDENT         // define-private, is-eq, x
	INT_LIT       // 123, -5
	UINT_LIT      // u123
	BUFF_LIT      // 0x2d
	STRING_LIT    // "hello"
	UTF8_LIT      // u"hello"
	PRINCIPAL_LIT // 'ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a readable form of the token for debugging
func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Literal, t.Line, t.Column)
}

// String returns the string representation of a TokenType
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case IDENT:
		return "IDENT"
	case INT_LIT:
		return "INT_LIT"
	case UINT_LIT:
		return "UINT_LIT"
	case BUFF_LIT:
		return "BUFF_LIT"
	case STRING_LIT:
		return "STRING_LIT"
	case UTF8_LIT:
		return "UTF8_LIT"
	case PRINCIPAL_LIT:
		return "PRINCIPAL_LIT"
	default:
		return fmt.Sprintf("TokenType(%d)", int(tt))
	}
}
