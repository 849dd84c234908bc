package codegen

import (
	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/stdlib"
	"github.com/lhaig/clarwasm/internal/wasm"
)

var arithmeticRoutines = map[string][2]string{
	"+": {stdlib.AddInt, stdlib.AddUInt},
	"-": {stdlib.SubInt, stdlib.SubUInt},
	"*": {stdlib.MulInt, stdlib.MulUInt},
	"/": {stdlib.DivInt, stdlib.DivUInt},
}

var comparisonRoutines = map[string][2]string{
	"<":  {stdlib.LtInt, stdlib.LtUInt},
	">":  {stdlib.GtInt, stdlib.GtUInt},
	"<=": {stdlib.LeInt, stdlib.LeUInt},
	">=": {stdlib.GeInt, stdlib.GeUInt},
}

func routineFor(g *Generator, expr ast.Expression, names [2]string, t *checker.Type) (wasm.FuncID, error) {
	switch t.Kind {
	case checker.KindInt:
		return g.stdlibFunc(expr, names[0])
	case checker.KindUInt:
		return g.stdlibFunc(expr, names[1])
	}
	return 0, typeErrorf(expr, "expected int or uint, got %s", t)
}

// arithmetic folds its operands from the left, calling the routine after
// each operand past the first. A single operand to - is negated.
type arithmetic struct {
	op string
}

func (a arithmetic) Name() string { return a.op }

func (a arithmetic) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	t, err := g.exprType(expr)
	if err != nil {
		return err
	}
	routine, err := routineFor(g, expr, arithmeticRoutines[a.op], t)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return typeErrorf(expr, "%s expects operands", a.op)
	}
	if len(args) == 1 && a.op == "-" {
		b.I64Const(0).I64Const(0)
		if err := g.traverse(b, args[0]); err != nil {
			return err
		}
		b.Call(routine)
		return nil
	}

	if err := g.traverse(b, args[0]); err != nil {
		return err
	}
	for _, arg := range args[1:] {
		if err := g.traverse(b, arg); err != nil {
			return err
		}
		b.Call(routine)
	}
	return nil
}

type comparison struct {
	op string
}

func (c comparison) Name() string { return c.op }

func (c comparison) Visit(g *Generator, b *wasm.SeqBuilder, expr *ast.List, argTypes []*checker.Type, _ *checker.Type) error {
	if len(argTypes) != 2 {
		return typeErrorf(expr, "%s expects two operands", c.op)
	}
	routine, err := routineFor(g, expr, comparisonRoutines[c.op], argTypes[0])
	if err != nil {
		return err
	}
	b.Call(routine)
	return nil
}

type not struct{}

func (not) Name() string { return "not" }

func (not) Visit(g *Generator, b *wasm.SeqBuilder, expr *ast.List, argTypes []*checker.Type, _ *checker.Type) error {
	if len(argTypes) != 1 || argTypes[0].Kind != checker.KindBool {
		return typeErrorf(expr, "not expects one bool")
	}
	b.Op(wasm.OpI32Eqz)
	return nil
}
