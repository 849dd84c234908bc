package codegen

import (
	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/stdlib"
	"github.com/lhaig/clarwasm/internal/wasm"
)

// isEq compares every operand with the first. Each operand is evaluated
// even when an earlier comparison already failed. An operand whose type
// differs from the first one's is unequal and its value is dropped.
type isEq struct{}

func (isEq) Name() string { return "is-eq" }

func (isEq) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	if len(args) == 0 {
		return typeErrorf(expr, "is-eq expects at least one operand")
	}
	unified, haveUnified := g.result.EqualityTypes[expr]

	operandType := func(arg ast.Expression) (*checker.Type, error) {
		if haveUnified {
			return unified, nil
		}
		return g.exprType(arg)
	}
	lower := func(arg ast.Expression, t *checker.Type) error {
		if haveUnified {
			return g.traverseAs(b, arg, t)
		}
		return g.traverse(b, arg)
	}

	firstType, err := operandType(args[0])
	if err != nil {
		return err
	}
	if err := lower(args[0], firstType); err != nil {
		return err
	}
	first := g.saveToLocals(b, firstType, false)

	if len(args) == 1 {
		b.I32Const(1)
		return nil
	}

	for i, arg := range args[1:] {
		t, err := operandType(arg)
		if err != nil {
			return err
		}
		if err := lower(arg, t); err != nil {
			return err
		}
		if t.Equal(firstType) {
			other := g.saveToLocals(b, t, false)
			if err := g.wasmEqual(b, expr, firstType, first, other); err != nil {
				return err
			}
		} else {
			dropValue(b, t)
			b.I32Const(0)
		}
		if i > 0 {
			b.Op(wasm.OpI32And)
		}
	}
	return nil
}

// wasmEqual pushes whether the values of type t held in x and y are equal
func (g *Generator) wasmEqual(b *wasm.SeqBuilder, expr ast.Expression, t *checker.Type, x, y []wasm.LocalID) error {
	n := len(wasmTypes(t))
	if len(x) != n || len(y) != n {
		return internalErrorf(expr, "comparing %s needs %d slots per operand, have %d and %d", t, n, len(x), len(y))
	}

	switch t.Kind {
	case checker.KindInt, checker.KindUInt:
		return g.callEqual(b, expr, stdlib.IsEqInt, x, y)
	case checker.KindBuffer, checker.KindStringASCII, checker.KindStringUTF8, checker.KindPrincipal:
		return g.callEqual(b, expr, stdlib.IsEqBytes, x, y)
	case checker.KindBool:
		b.LocalGet(x[0]).LocalGet(y[0]).Op(wasm.OpI32Eq)
		return nil
	case checker.KindNoType:
		// only placeholders have no type; a comparison never reaches them
		b.Unreachable()
		return nil
	case checker.KindOptional:
		return g.optionalEqual(b, expr, t, x, y)
	case checker.KindResponse:
		return g.responseEqual(b, expr, t, x, y)
	}
	return notImplementedf(expr, "equality on %s", t)
}

func (g *Generator) callEqual(b *wasm.SeqBuilder, expr ast.Expression, routine string, x, y []wasm.LocalID) error {
	id, err := g.stdlibFunc(expr, routine)
	if err != nil {
		return err
	}
	pushLocals(b, x)
	pushLocals(b, y)
	b.Call(id)
	return nil
}

// optionalEqual: discriminants match and either both are none or the
// inner values are equal
func (g *Generator) optionalEqual(b *wasm.SeqBuilder, expr ast.Expression, t *checker.Type, x, y []wasm.LocalID) error {
	inner := b.Dangling(nil, boolResult)
	if err := g.wasmEqual(inner, expr, t.Inner(), x[1:], y[1:]); err != nil {
		return err
	}
	bothNone := b.Dangling(nil, boolResult)
	bothNone.I32Const(1)

	sameVariant := b.Dangling(nil, boolResult)
	sameVariant.LocalGet(x[0]).IfElse(inner.ID(), bothNone.ID())
	differ := b.Dangling(nil, boolResult)
	differ.I32Const(0)

	b.LocalGet(x[0]).LocalGet(y[0]).Op(wasm.OpI32Eq).IfElse(sameVariant.ID(), differ.ID())
	return nil
}

// responseEqual: discriminants match and the active payloads are equal
func (g *Generator) responseEqual(b *wasm.SeqBuilder, expr ast.Expression, t *checker.Type, x, y []wasm.LocalID) error {
	split := 1 + len(wasmTypes(t.OkType()))

	okEqual := b.Dangling(nil, boolResult)
	if err := g.wasmEqual(okEqual, expr, t.OkType(), x[1:split], y[1:split]); err != nil {
		return err
	}
	errEqual := b.Dangling(nil, boolResult)
	if err := g.wasmEqual(errEqual, expr, t.ErrType(), x[split:], y[split:]); err != nil {
		return err
	}

	sameVariant := b.Dangling(nil, boolResult)
	sameVariant.LocalGet(x[0]).IfElse(okEqual.ID(), errEqual.ID())
	differ := b.Dangling(nil, boolResult)
	differ.I32Const(0)

	b.LocalGet(x[0]).LocalGet(y[0]).Op(wasm.OpI32Eq).IfElse(sameVariant.ID(), differ.ID())
	return nil
}
