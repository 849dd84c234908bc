package lexer

// Lexer scans Clarity source code and produces tokens
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current column number
}

// New creates a new Lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar reads the next character and advances the position
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing the position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// skipWhitespace skips whitespace and ;; comments
func (l *Lexer) skipWhitespace() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.readChar()
		case l.ch == '\n':
			l.line++
			l.column = 0
			l.readChar()
		case l.ch == ';':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

// readSymbol reads an identifier-like run of characters
func (l *Lexer) readSymbol() string {
	position := l.position
	for isSymbolChar(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readDigits reads a run of decimal digits
func (l *Lexer) readDigits() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readHex reads the hex digits of a buffer literal after the 0x prefix
func (l *Lexer) readHex() (string, bool) {
	position := l.position
	for isHexDigit(l.ch) {
		l.readChar()
	}
	lit := l.input[position:l.position]
	return lit, len(lit)%2 == 0 && !isSymbolChar(l.ch)
}

// readString reads a string literal. The opening quote is the current char.
func (l *Lexer) readString() (string, bool) {
	l.readChar()
	var out []byte
	for {
		switch l.ch {
		case 0, '\n':
			return string(out), false
		case '"':
			l.readChar()
			return string(out), true
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '\\', '"':
				out = append(out, l.ch)
			default:
				return string(out), false
			}
		default:
			out = append(out, l.ch)
		}
		l.readChar()
	}
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Line: l.line, Column: l.column}

	switch {
	case l.ch == 0:
		tok.Type = EOF
	case l.ch == '(':
		tok.Type, tok.Literal = LPAREN, "("
		l.readChar()
	case l.ch == ')':
		tok.Type, tok.Literal = RPAREN, ")"
		l.readChar()
	case l.ch == '"':
		lit, ok := l.readString()
		tok.Type, tok.Literal = STRING_LIT, lit
		if !ok {
			tok.Type = ILLEGAL
		}
	case l.ch == 'u' && l.peekChar() == '"':
		l.readChar()
		lit, ok := l.readString()
		tok.Type, tok.Literal = UTF8_LIT, lit
		if !ok {
			tok.Type = ILLEGAL
		}
	case l.ch == 'u' && isDigit(l.peekChar()):
		l.readChar()
		tok.Literal = l.readDigits()
		tok.Type = UINT_LIT
		if isSymbolChar(l.ch) {
			tok.Type = ILLEGAL
			tok.Literal = "u" + tok.Literal + l.readSymbol()
		}
	case l.ch == '0' && l.peekChar() == 'x':
		l.readChar()
		l.readChar()
		lit, ok := l.readHex()
		tok.Type, tok.Literal = BUFF_LIT, lit
		if !ok {
			tok.Type = ILLEGAL
			tok.Literal = "0x" + lit + l.readSymbol()
		}
	case isDigit(l.ch) || (l.ch == '-' && isDigit(l.peekChar())):
		position := l.position
		if l.ch == '-' {
			l.readChar()
		}
		l.readDigits()
		tok.Type, tok.Literal = INT_LIT, l.input[position:l.position]
		if isSymbolChar(l.ch) {
			tok.Type = ILLEGAL
			tok.Literal += l.readSymbol()
		}
	case l.ch == '\'':
		l.readChar()
		tok.Literal = l.readSymbol()
		tok.Type = PRINCIPAL_LIT
		if tok.Literal == "" {
			tok.Type = ILLEGAL
			tok.Literal = "'"
		}
	case isSymbolChar(l.ch):
		tok.Type, tok.Literal = IDENT, l.readSymbol()
	default:
		tok.Type, tok.Literal = ILLEGAL, string(l.ch)
		l.readChar()
	}

	return tok
}

// Tokenize returns all tokens from the input, ending with EOF
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	return tokens
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

func isSymbolChar(ch byte) bool {
	if isLetter(ch) || isDigit(ch) {
		return true
	}
	switch ch {
	case '-', '_', '!', '?', '+', '*', '/', '<', '>', '=', '.':
		return true
	}
	return false
}
