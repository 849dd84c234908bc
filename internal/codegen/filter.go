package codegen

import (
	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/wasm"
)

// filter scans a sequence in memory and copies the elements the
// predicate accepts into a fresh stack region, preserving order
type filter struct{}

func (filter) Name() string { return "filter" }

func (filter) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	if len(args) != 2 {
		return typeErrorf(expr, "filter expects a predicate and a sequence")
	}
	predicate, ok := ast.AtomName(args[0])
	if !ok {
		return typeErrorf(expr, "filter predicate must be a name")
	}
	seqType, err := g.exprType(args[1])
	if err != nil {
		return err
	}
	kind, elemType, err := seqType.SequenceElement()
	if err != nil {
		return typeErrorf(expr, "%v", err)
	}
	width, err := elementSize(seqType)
	if err != nil {
		return typeErrorf(expr, "%v", err)
	}

	if err := g.traverse(b, args[1]); err != nil {
		return err
	}
	fb := g.fb
	inputLen := fb.AddLocal(wasm.I32)
	inputOff := fb.AddLocal(wasm.I32)
	b.LocalSet(inputLen).LocalSet(inputOff)

	outputOff := g.reserveStackRegion(b, inputLen)
	outputLen := fb.AddLocal(wasm.I32)
	cursor := fb.AddLocal(wasm.I32)
	end := fb.AddLocal(wasm.I32)
	b.I32Const(0).LocalSet(outputLen)
	b.LocalGet(inputOff).LocalTee(cursor).LocalGet(inputLen).Op(wasm.OpI32Add).LocalSet(end)

	loop := b.Dangling(nil, nil)
	switch kind {
	case checker.ElemByte, checker.ElemUnicodeScalar:
		loop.LocalGet(cursor).I32Const(int32(width))
	default:
		readFromMemory(loop, cursor, 0, elemType)
	}
	if err := g.applyPredicate(loop, expr, predicate, elemType); err != nil {
		return err
	}

	keep := b.Dangling(nil, nil)
	keep.LocalGet(outputOff).LocalGet(outputLen).Op(wasm.OpI32Add).
		LocalGet(cursor).
		I32Const(int32(width)).
		MemoryCopy()
	keep.LocalGet(outputLen).I32Const(int32(width)).Op(wasm.OpI32Add).LocalSet(outputLen)
	skip := b.Dangling(nil, nil)
	loop.IfElse(keep.ID(), skip.ID())

	loop.LocalGet(cursor).I32Const(int32(width)).Op(wasm.OpI32Add).LocalTee(cursor).
		LocalGet(end).Op(wasm.OpI32LtU).
		BrIf(loop.ID())

	// the loop body runs at least once, so an empty input skips it
	scan := b.Dangling(nil, nil)
	scan.Loop(loop.ID())
	empty := b.Dangling(nil, nil)
	b.LocalGet(inputLen).IfElse(scan.ID(), empty.ID())

	b.LocalGet(outputOff).LocalGet(outputLen)
	return nil
}

// applyPredicate consumes an element of type elem and pushes the bool
// the predicate returns for it. Builtins are single-argument simple words
// visited inline; anything else is a call to a defined function.
func (g *Generator) applyPredicate(b *wasm.SeqBuilder, expr *ast.List, name string, elem *checker.Type) error {
	if w, ok := lookupSimpleWord(name); ok && g.result.Functions[name] == nil {
		return w.Visit(g, b, expr, []*checker.Type{elem}, checker.TypeBool)
	}
	fn := g.result.Functions[name]
	id, ok := g.funcs[name]
	if fn == nil || !ok {
		return typeErrorf(expr, "unknown predicate '%s'", name)
	}
	if len(fn.Params) != 1 {
		return typeErrorf(expr, "predicate '%s' must take one argument", name)
	}
	if fn.ReturnType == nil || fn.ReturnType.Kind != checker.KindBool {
		return typeErrorf(expr, "predicate '%s' must return bool", name)
	}
	if err := g.coerce(b, expr, elem, fn.Params[0].Type); err != nil {
		return err
	}
	b.Call(id)
	return nil
}
