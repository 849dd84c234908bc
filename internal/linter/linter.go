package linter

import (
	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/diagnostic"
)

// Linter performs style and best-practice checks on a parsed contract.
// It reports warnings (never errors) using the diagnostic system.
type Linter struct {
	prog *ast.Program
	diag *diagnostic.Diagnostics
}

// Lint runs all lint rules on the given program and returns diagnostics.
func Lint(prog *ast.Program) *diagnostic.Diagnostics {
	l := &Linter{
		prog: prog,
		diag: diagnostic.New(),
	}

	l.lintDefinitions()
	for _, expr := range prog.Exprs {
		walk(expr, l.lintForm)
	}

	return l.diag
}

// lintDefinitions checks every top-level definition.
func (l *Linter) lintDefinitions() {
	read := map[string]bool{}
	for _, expr := range l.prog.Exprs {
		walk(expr, func(list *ast.List) {
			if head, _ := list.Head(); head == "var-get" && len(list.Elements) == 2 {
				if name, ok := ast.AtomName(list.Elements[1]); ok {
					read[name] = true
				}
			}
		})
	}

	for _, expr := range l.prog.Exprs {
		head, ok := checker.DefinitionHead(expr)
		if !ok {
			continue
		}
		list := expr.(*ast.List)

		switch head {
		case "define-private", "define-public", "define-read-only":
			l.lintFunction(list)
		case "define-data-var":
			if name, ok := definedName(list); ok {
				l.checkNaming("data variable", name)
				if !read[name.Name] {
					l.diag.Warningf(name.Line, name.Column,
						"data variable '%s' is never read", name.Name)
				}
			}
		case "define-constant":
			if name, ok := definedName(list); ok {
				l.checkNaming("constant", name)
			}
		}
	}
}

// lintFunction checks the signature and parameters of one function.
func (l *Linter) lintFunction(list *ast.List) {
	if len(list.Elements) < 3 {
		return
	}
	sig, ok := list.Elements[1].(*ast.List)
	if !ok || len(sig.Elements) == 0 {
		return
	}
	name, ok := sig.Elements[0].(*ast.Atom)
	if !ok {
		return
	}
	l.checkNaming("function", name)

	used := collectUsedNames(list.Elements[2:])
	for _, p := range sig.Elements[1:] {
		pair, ok := p.(*ast.List)
		if !ok || len(pair.Elements) == 0 {
			continue
		}
		param, ok := pair.Elements[0].(*ast.Atom)
		if !ok {
			continue
		}
		l.checkNaming("parameter", param)
		if !used[param.Name] {
			l.diag.Warningf(param.Line, param.Column,
				"parameter '%s' in '%s' is never used", param.Name, name.Name)
		}
	}
}

// lintForm runs the expression rules on one list.
func (l *Linter) lintForm(list *ast.List) {
	head, _ := list.Head()
	args := list.Args()

	switch head {
	case "let":
		l.checkUnusedBindings(list)
	case "if":
		l.checkRedundantIf(list, args)
	case "begin":
		if len(args) == 1 {
			l.diag.Warningf(list.Line, list.Column,
				"begin with a single expression is redundant")
		}
	case "is-eq":
		for _, arg := range args {
			if name, ok := ast.AtomName(arg); ok && (name == "true" || name == "false") {
				l.diag.Warningf(list.Line, list.Column,
					"comparison with '%s' can be replaced by the operand itself", name)
				break
			}
		}
	}
}

// --- Lint rules ---

// checkNaming warns if a defined name is not kebab-case.
func (l *Linter) checkNaming(kind string, name *ast.Atom) {
	if !isKebabCase(name.Name) {
		l.diag.Warningf(name.Line, name.Column,
			"%s '%s' should use kebab-case naming", kind, name.Name)
	}
}

// checkUnusedBindings warns about let bindings never read by a later
// binding or the body.
func (l *Linter) checkUnusedBindings(list *ast.List) {
	if len(list.Elements) < 3 {
		return
	}
	bindings, ok := list.Elements[1].(*ast.List)
	if !ok {
		return
	}

	for i, b := range bindings.Elements {
		pair, ok := b.(*ast.List)
		if !ok || len(pair.Elements) != 2 {
			continue
		}
		name, ok := pair.Elements[0].(*ast.Atom)
		if !ok {
			continue
		}

		var rest []ast.Expression
		for _, later := range bindings.Elements[i+1:] {
			if laterPair, ok := later.(*ast.List); ok && len(laterPair.Elements) == 2 {
				rest = append(rest, laterPair.Elements[1])
			}
		}
		rest = append(rest, list.Elements[2:]...)

		if !collectUsedNames(rest)[name.Name] {
			l.diag.Warningf(name.Line, name.Column,
				"variable '%s' is declared but never used", name.Name)
		}
	}
}

// checkRedundantIf warns about if expressions that only restate their
// condition.
func (l *Linter) checkRedundantIf(list *ast.List, args []ast.Expression) {
	if len(args) != 3 {
		return
	}
	then, _ := ast.AtomName(args[1])
	els, _ := ast.AtomName(args[2])

	switch {
	case then == "true" && els == "false":
		l.diag.Warningf(list.Line, list.Column,
			"if can be replaced by its condition %s", ast.Print(args[0]))
	case then == "false" && els == "true":
		l.diag.Warningf(list.Line, list.Column,
			"if can be replaced by (not %s)", ast.Print(args[0]))
	}
}

// --- Name collection helpers ---

// walk calls fn on every list in expr, outermost first.
func walk(expr ast.Expression, fn func(*ast.List)) {
	list, ok := expr.(*ast.List)
	if !ok {
		return
	}
	fn(list)
	for _, e := range list.Elements {
		walk(e, fn)
	}
}

// collectUsedNames collects every atom read by exprs. Names introduced by
// let and match are not reads.
func collectUsedNames(exprs []ast.Expression) map[string]bool {
	used := make(map[string]bool)
	for _, expr := range exprs {
		collectUsedNamesFromExpr(expr, used)
	}
	return used
}

func collectUsedNamesFromExpr(expr ast.Expression, used map[string]bool) {
	switch e := expr.(type) {
	case *ast.Atom:
		used[e.Name] = true
	case *ast.List:
		head, _ := e.Head()
		args := e.Args()
		switch {
		case head == "let" && len(args) > 0:
			if bindings, ok := args[0].(*ast.List); ok {
				for _, b := range bindings.Elements {
					if pair, ok := b.(*ast.List); ok && len(pair.Elements) == 2 {
						collectUsedNamesFromExpr(pair.Elements[1], used)
					}
				}
			}
			for _, body := range args[1:] {
				collectUsedNamesFromExpr(body, used)
			}
		case head == "match" && (len(args) == 4 || len(args) == 5):
			// (match x some-name some-body none-body)
			// (match x ok-name ok-body err-name err-body)
			for i, arg := range args {
				if i == 1 || (len(args) == 5 && i == 3) {
					continue
				}
				collectUsedNamesFromExpr(arg, used)
			}
		default:
			for _, el := range e.Elements {
				collectUsedNamesFromExpr(el, used)
			}
		}
	}
}

// definedName returns the name atom of a data variable or constant.
func definedName(list *ast.List) (*ast.Atom, bool) {
	if len(list.Elements) < 2 {
		return nil, false
	}
	a, ok := list.Elements[1].(*ast.Atom)
	return a, ok
}

// --- Naming convention helpers ---

// isKebabCase returns true if the name is lowercase words joined by
// hyphens, optionally ending in '?' or '!'.
func isKebabCase(name string) bool {
	if n := len(name); n > 1 && (name[n-1] == '?' || name[n-1] == '!') {
		name = name[:n-1]
	}
	if name == "" || name[0] == '-' || name[len(name)-1] == '-' {
		return false
	}
	if name[0] >= '0' && name[0] <= '9' {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-':
			if name[i-1] == '-' {
				return false
			}
		default:
			return false
		}
	}
	return true
}
