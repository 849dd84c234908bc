package formatter

import (
	"strings"

	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
)

// MaxWidth is the line width a list may fill before it is broken
const MaxWidth = 80

// keptArgs is the number of arguments printed on the operator's line when a
// list is broken. Other operators keep one.
var keptArgs = map[string]int{
	"begin":           0,
	"list":            0,
	"define-data-var": 2,
}

// Format takes a parsed contract and returns canonical source code.
// Comments are not part of the tree and are not reproduced.
func Format(prog *ast.Program) string {
	f := &formatter{}
	f.formatProgram(prog)
	return f.sb.String()
}

type formatter struct {
	sb  strings.Builder
	col int
}

// --- helpers ---

func (f *formatter) emit(s string) {
	f.sb.WriteString(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		f.col = len(s) - i - 1
	} else {
		f.col += len(s)
	}
}

func (f *formatter) newline(indent int) {
	f.emit("\n" + strings.Repeat(" ", indent))
}

// --- program-level ---

// formatProgram separates definitions from their neighbours by a blank line
// and keeps runs of plain expressions together.
func (f *formatter) formatProgram(prog *ast.Program) {
	prevDef := false
	for i, expr := range prog.Exprs {
		_, isDef := checker.DefinitionHead(expr)
		if i > 0 {
			if isDef || prevDef {
				f.emit("\n\n")
			} else {
				f.emit("\n")
			}
		}
		f.formatExpr(expr)
		prevDef = isDef
	}
	if len(prog.Exprs) > 0 {
		f.emit("\n")
	}
}

// --- expressions ---

// formatExpr prints expr starting at the current column. Broken lists put
// their remaining arguments on their own lines, two columns in.
func (f *formatter) formatExpr(expr ast.Expression) {
	flat := ast.Print(expr)
	list, ok := expr.(*ast.List)
	if !ok || len(list.Elements) < 2 || f.col+len(flat) <= MaxWidth {
		f.emit(flat)
		return
	}

	start := f.col
	f.emit("(")

	head, isAtom := list.Head()
	if !isAtom {
		// a list of data, such as let bindings: one element per line
		for i, el := range list.Elements {
			if i > 0 {
				f.newline(start + 1)
			}
			f.formatExpr(el)
		}
		f.emit(")")
		return
	}

	keep, ok := keptArgs[head]
	if !ok {
		keep = 1
	}

	f.emit(head)
	n := 1 + keep
	if n > len(list.Elements) {
		n = len(list.Elements)
	}
	for _, el := range list.Elements[1:n] {
		f.emit(" ")
		f.formatExpr(el)
	}
	for _, el := range list.Elements[n:] {
		f.newline(start + 2)
		f.formatExpr(el)
	}
	f.emit(")")
}
