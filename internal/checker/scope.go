package checker

import "fmt"

// SymbolKind represents the kind of symbol
type SymbolKind int

const (
	SymParam SymbolKind = iota
	SymLet
	SymMatch
	SymConstant
)

// String returns the string representation of the symbol kind
func (sk SymbolKind) String() string {
	switch sk {
	case SymParam:
		return "parameter"
	case SymLet:
		return "let binding"
	case SymMatch:
		return "match binding"
	case SymConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// Symbol is a name bound to a value of a known type
type Symbol struct {
	Name string
	Type *Type
	Kind SymbolKind
}

// Scope represents a lexical scope with a symbol table
type Scope struct {
	parent  *Scope
	symbols map[string]*Symbol
}

// NewScope creates a new scope with an optional parent
func NewScope(parent *Scope) *Scope {
	return &Scope{
		parent:  parent,
		symbols: make(map[string]*Symbol),
	}
}

// Define adds a symbol to the current scope
// Returns an error if the symbol is already defined in this scope
func (s *Scope) Define(name string, sym *Symbol) error {
	if _, exists := s.symbols[name]; exists {
		return fmt.Errorf("'%s' is already bound in this scope", name)
	}
	s.symbols[name] = sym
	return nil
}

// Resolve looks up a symbol in the current scope and parent scopes
// Returns nil if the symbol is not found
func (s *Scope) Resolve(name string) *Symbol {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.symbols[name]; ok {
			return sym
		}
	}
	return nil
}
