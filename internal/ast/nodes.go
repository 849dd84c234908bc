package ast

import "math/big"

// Node is the base interface for all AST nodes
type Node interface {
	Pos() (line, col int)
}

// Expression is a symbolic expression: an atom, a literal value or a list.
type Expression interface {
	Node
	exprNode()
}

// Program represents a whole contract: its top-level expressions in source order
type Program struct {
	Exprs []Expression
}

func (p *Program) Pos() (int, int) {
	if len(p.Exprs) > 0 {
		return p.Exprs[0].Pos()
	}
	return 0, 0
}

// Atom is a bare name: a keyword, a builtin, a binding or a user definition
type Atom struct {
	Name   string
	Line   int
	Column int
}

func (a *Atom) Pos() (int, int) { return a.Line, a.Column }
func (a *Atom) exprNode()       {}

// IntLiteral is a 128-bit integer literal. Unsigned marks the u-prefixed form.
type IntLiteral struct {
	Value    *big.Int
	Unsigned bool
	Line     int
	Column   int
}

func (i *IntLiteral) Pos() (int, int) { return i.Line, i.Column }
func (i *IntLiteral) exprNode()       {}

// BufferLiteral is a 0x-prefixed byte buffer
type BufferLiteral struct {
	Value  []byte
	Line   int
	Column int
}

func (b *BufferLiteral) Pos() (int, int) { return b.Line, b.Column }
func (b *BufferLiteral) exprNode()       {}

// StringLiteral is an ASCII string, or a UTF-8 string when UTF8 is set
type StringLiteral struct {
	Value  string
	UTF8   bool
	Line   int
	Column int
}

func (s *StringLiteral) Pos() (int, int) { return s.Line, s.Column }
func (s *StringLiteral) exprNode()       {}

// PrincipalLiteral is a quoted principal such as 'ST1PQ...
type PrincipalLiteral struct {
	Value  string
	Line   int
	Column int
}

func (p *PrincipalLiteral) Pos() (int, int) { return p.Line, p.Column }
func (p *PrincipalLiteral) exprNode()       {}

// List is a parenthesised expression
type List struct {
	Elements []Expression
	Line     int
	Column   int
}

func (l *List) Pos() (int, int) { return l.Line, l.Column }
func (l *List) exprNode()       {}

// Head returns the operator name of a list whose first element is an atom.
func (l *List) Head() (string, bool) {
	if len(l.Elements) == 0 {
		return "", false
	}
	return AtomName(l.Elements[0])
}

// Args returns every element after the operator.
func (l *List) Args() []Expression {
	if len(l.Elements) == 0 {
		return nil
	}
	return l.Elements[1:]
}

// AtomName returns the name of expr when it is an atom.
func AtomName(expr Expression) (string, bool) {
	if a, ok := expr.(*Atom); ok {
		return a.Name, true
	}
	return "", false
}
