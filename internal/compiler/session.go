package compiler

import (
	"strings"

	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/parser"
)

// Session evaluates successive inputs against the definitions accepted so
// far. Each input is compiled together with those definitions and run from
// a fresh machine, so data variables start from their initial values.
type Session struct {
	cfg  *Config
	defs []string
}

// NewSession returns an empty session
func NewSession(cfg *Config) *Session {
	return &Session{cfg: cfg}
}

// Eval runs input after the accepted definitions. The definitions of input
// are accepted only when the whole input compiles and runs.
func (s *Session) Eval(input string) (string, error) {
	src := strings.Join(append(s.Definitions(), input), "\n")
	res, err := Compile("<repl>", src, s.cfg)
	if err != nil {
		return "", err
	}

	out, err := Run(res, s.cfg)
	if err != nil {
		return "", err
	}

	prog := parser.New(input).Parse()
	for _, expr := range prog.Exprs {
		if _, ok := checker.DefinitionHead(expr); ok {
			s.defs = append(s.defs, ast.Print(expr))
		}
	}
	return out, nil
}

// Definitions returns the accepted definitions, one per line of source
func (s *Session) Definitions() []string {
	return append([]string(nil), s.defs...)
}

// Reset forgets every accepted definition
func (s *Session) Reset() {
	s.defs = nil
}

// Incomplete reports whether source ends inside an unclosed list, so an
// interactive reader should ask for another line.
func Incomplete(source string) bool {
	p := parser.New(source)
	p.Parse()
	return p.Incomplete()
}
