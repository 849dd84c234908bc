package codegen

import (
	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/stdlib"
	"github.com/lhaig/clarwasm/internal/wasm"
)

var boolResult = []wasm.ValType{wasm.I32}

type ifWord struct{}

func (ifWord) Name() string { return "if" }

func (ifWord) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	if len(args) != 3 {
		return typeErrorf(expr, "if expects a condition and two branches")
	}
	t, err := g.exprType(expr)
	if err != nil {
		return err
	}
	results := wasmTypes(t)

	then := b.Dangling(nil, results)
	if err := g.traverseAs(then, args[1], t); err != nil {
		return err
	}
	els := b.Dangling(nil, results)
	if err := g.traverseAs(els, args[2], t); err != nil {
		return err
	}

	if err := g.traverse(b, args[0]); err != nil {
		return err
	}
	b.IfElse(then.ID(), els.ID())
	return nil
}

// and and or evaluate operands left to right and stop at the first one
// that decides the result. Every branch that stops shares one sequence
// pushing the absorbing value.
type and struct{}

func (and) Name() string { return "and" }

func (and) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	return traverseShortCircuit(g, b, expr, args, false)
}

type or struct{}

func (or) Name() string { return "or" }

func (or) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	return traverseShortCircuit(g, b, expr, args, true)
}

func traverseShortCircuit(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression, isOr bool) error {
	if len(args) == 0 {
		return typeErrorf(expr, "expected at least one operand")
	}
	if g.allSimpleBools(args) {
		op := wasm.OpI32And
		if isOr {
			op = wasm.OpI32Or
		}
		for i, arg := range args {
			if err := g.traverse(b, arg); err != nil {
				return err
			}
			if i > 0 {
				b.Op(op)
			}
		}
		return nil
	}

	if len(args) == 1 {
		return g.traverse(b, args[0])
	}

	absorbing := b.Dangling(nil, boolResult)
	if isOr {
		absorbing.I32Const(1)
	} else {
		absorbing.I32Const(0)
	}

	// branch emits the dispatch on the operand just pushed: continue into
	// next, or stop with the absorbing value
	branch := func(s *wasm.SeqBuilder, next wasm.SeqID) {
		if isOr {
			s.IfElse(absorbing.ID(), next)
		} else {
			s.IfElse(next, absorbing.ID())
		}
	}

	tail := b.Dangling(nil, boolResult)
	if err := g.traverse(tail, args[len(args)-1]); err != nil {
		return err
	}
	for i := len(args) - 2; i >= 1; i-- {
		s := b.Dangling(nil, boolResult)
		if err := g.traverse(s, args[i]); err != nil {
			return err
		}
		branch(s, tail.ID())
		tail = s
	}

	if err := g.traverse(b, args[0]); err != nil {
		return err
	}
	branch(b, tail.ID())
	return nil
}

// allSimpleBools reports whether every operand is a boolean literal or a
// bound bool, which can be combined without branching
func (g *Generator) allSimpleBools(args []ast.Expression) bool {
	for _, arg := range args {
		name, ok := ast.AtomName(arg)
		if !ok {
			return false
		}
		if name == "true" || name == "false" {
			continue
		}
		bound, ok := g.bindings[name]
		if !ok || bound.typ.Kind != checker.KindBool {
			return false
		}
	}
	return true
}

type match struct{}

func (match) Name() string { return "match" }

func (match) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	if len(args) == 0 {
		return typeErrorf(expr, "match expects an input")
	}
	t, err := g.exprType(expr)
	if err != nil {
		return err
	}
	input, err := g.exprType(args[0])
	if err != nil {
		return err
	}
	results := wasmTypes(t)

	switch input.Kind {
	case checker.KindOptional:
		if len(args) != 4 {
			return typeErrorf(expr, "match on an optional expects a binding and two branches")
		}
		if err := g.traverse(b, args[0]); err != nil {
			return err
		}
		inner := g.saveToLocals(b, input.Inner(), false)

		some, err := g.branchWithBinding(b, expr, args[1], inner, input.Inner(), args[2], t, results)
		if err != nil {
			return err
		}
		none := b.Dangling(nil, results)
		if err := g.traverseAs(none, args[3], t); err != nil {
			return err
		}
		b.IfElse(some.ID(), none.ID())
		return nil

	case checker.KindResponse:
		if len(args) != 5 {
			return typeErrorf(expr, "match on a response expects two bindings and two branches")
		}
		if err := g.traverse(b, args[0]); err != nil {
			return err
		}
		errLocals := g.saveToLocals(b, input.ErrType(), false)
		okLocals := g.saveToLocals(b, input.OkType(), false)

		okSeq, err := g.branchWithBinding(b, expr, args[1], okLocals, input.OkType(), args[2], t, results)
		if err != nil {
			return err
		}
		errSeq, err := g.branchWithBinding(b, expr, args[3], errLocals, input.ErrType(), args[4], t, results)
		if err != nil {
			return err
		}
		b.IfElse(okSeq.ID(), errSeq.ID())
		return nil
	}
	return typeErrorf(expr, "match expects an optional or a response, got %s", input)
}

// branchWithBinding lowers body into a new sequence with nameExpr bound
// to locals. The binding is removed again before returning.
func (g *Generator) branchWithBinding(b *wasm.SeqBuilder, expr *ast.List, nameExpr ast.Expression,
	locals []wasm.LocalID, bindType *checker.Type, body ast.Expression, t *checker.Type, results []wasm.ValType) (*wasm.SeqBuilder, error) {
	name, ok := ast.AtomName(nameExpr)
	if !ok {
		return nil, typeErrorf(expr, "match binding must be a name, got %s", ast.Print(nameExpr))
	}
	restore, err := g.bind(nameExpr, name, locals, bindType)
	if err != nil {
		return nil, err
	}
	defer restore()

	seq := b.Dangling(nil, results)
	if err := g.traverseAs(seq, body, t); err != nil {
		return nil, err
	}
	return seq, nil
}

// throwValue lowers the value an early return leaves the function with.
// Inside a function it takes the function's return type.
func (g *Generator) throwValue(b *wasm.SeqBuilder, thrown ast.Expression) error {
	if g.returnType != nil {
		return g.traverseAs(b, thrown, g.returnType)
	}
	return g.traverse(b, thrown)
}

// unwrap covers unwrap!, unwrap-err! and their panicking forms. The
// payload selected by errVariant is pushed on success; otherwise the
// thrown value is returned early, or a runtime error is raised.
type unwrap struct {
	name       string
	errVariant bool
	panics     bool
}

func (u unwrap) Name() string { return u.name }

func (u unwrap) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	want := 2
	if u.panics {
		want = 1
	}
	if len(args) != want {
		return typeErrorf(expr, "%s expects %d argument(s)", u.name, want)
	}
	t, err := g.exprType(expr)
	if err != nil {
		return err
	}
	input, err := g.exprType(args[0])
	if err != nil {
		return err
	}
	results := wasmTypes(t)

	var payload []wasm.LocalID
	var payloadType *checker.Type
	if err := g.traverse(b, args[0]); err != nil {
		return err
	}
	switch {
	case input.Kind == checker.KindOptional && !u.errVariant:
		payloadType = input.Inner()
		payload = g.saveToLocals(b, payloadType, false)
	case input.Kind == checker.KindResponse:
		errLocals := g.saveToLocals(b, input.ErrType(), false)
		okLocals := g.saveToLocals(b, input.OkType(), false)
		payload, payloadType = okLocals, input.OkType()
		if u.errVariant {
			payload, payloadType = errLocals, input.ErrType()
		}
	default:
		return typeErrorf(expr, "%s cannot unwrap %s", u.name, input)
	}

	success := b.Dangling(nil, results)
	if _, err := pushCoerced(success, expr, payload, payloadType, t); err != nil {
		return err
	}

	throw := b.Dangling(nil, results)
	if u.panics {
		raise, err := g.stdlibFunc(expr, stdlib.RaiseError)
		if err != nil {
			return err
		}
		throw.I32Const(int32(stdlib.CodeUnwrapFailure)).Call(raise).Unreachable()
	} else {
		if err := g.throwValue(throw, args[1]); err != nil {
			return err
		}
		if err := g.returnEarly(throw, expr); err != nil {
			return err
		}
	}

	if u.errVariant {
		b.IfElse(throw.ID(), success.ID())
	} else {
		b.IfElse(success.ID(), throw.ID())
	}
	return nil
}

type asserts struct{}

func (asserts) Name() string { return "asserts!" }

func (asserts) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	if len(args) != 2 {
		return typeErrorf(expr, "asserts! expects a condition and a thrown value")
	}
	success := b.Dangling(nil, boolResult)
	success.I32Const(1)

	throw := b.Dangling(nil, boolResult)
	if err := g.throwValue(throw, args[1]); err != nil {
		return err
	}
	if err := g.returnEarly(throw, expr); err != nil {
		return err
	}

	if err := g.traverse(b, args[0]); err != nil {
		return err
	}
	b.IfElse(success.ID(), throw.ID())
	return nil
}

// try unwraps like unwrap! but returns the failing input itself: none, or
// the err with its payload
type try struct{}

func (try) Name() string { return "try!" }

func (try) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	if len(args) != 1 {
		return typeErrorf(expr, "try! expects one argument")
	}
	t, err := g.exprType(expr)
	if err != nil {
		return err
	}
	input, err := g.exprType(args[0])
	if err != nil {
		return err
	}
	results := wasmTypes(t)

	// the failure is rebuilt in the layout of the function's return type
	// when there is one
	thrownType := input
	if g.returnType != nil {
		thrownType = g.returnType
		if thrownType.Kind != input.Kind {
			return typeErrorf(expr, "try! on %s in a function returning %s", input, thrownType)
		}
	}

	if err := g.traverse(b, args[0]); err != nil {
		return err
	}
	success := b.Dangling(nil, results)
	throw := b.Dangling(nil, results)

	switch input.Kind {
	case checker.KindOptional:
		inner := g.saveToLocals(b, input.Inner(), false)
		if _, err := pushCoerced(success, expr, inner, input.Inner(), t); err != nil {
			return err
		}
		throw.I32Const(0)
		addPlaceholder(throw, thrownType.Inner())
	case checker.KindResponse:
		errLocals := g.saveToLocals(b, input.ErrType(), false)
		okLocals := g.saveToLocals(b, input.OkType(), false)
		if _, err := pushCoerced(success, expr, okLocals, input.OkType(), t); err != nil {
			return err
		}
		throw.I32Const(0)
		addPlaceholder(throw, thrownType.OkType())
		if thrownType.ErrType().Admits(input.ErrType()) {
			if _, err := pushCoerced(throw, expr, errLocals, input.ErrType(), thrownType.ErrType()); err != nil {
				return err
			}
		} else {
			addPlaceholder(throw, thrownType.ErrType())
		}
	default:
		return typeErrorf(expr, "try! expects an optional or a response, got %s", input)
	}
	if err := g.returnEarly(throw, expr); err != nil {
		return err
	}

	b.IfElse(success.ID(), throw.ID())
	return nil
}

type defaultTo struct{}

func (defaultTo) Name() string { return "default-to" }

func (defaultTo) Traverse(g *Generator, b *wasm.SeqBuilder, expr *ast.List, args []ast.Expression) error {
	if len(args) != 2 {
		return typeErrorf(expr, "default-to expects a default and an optional")
	}
	t, err := g.exprType(expr)
	if err != nil {
		return err
	}
	input, err := g.exprType(args[1])
	if err != nil {
		return err
	}
	if input.Kind != checker.KindOptional {
		return typeErrorf(expr, "default-to expects an optional, got %s", input)
	}
	results := wasmTypes(t)

	if err := g.traverse(b, args[1]); err != nil {
		return err
	}
	inner := g.saveToLocals(b, input.Inner(), false)

	some := b.Dangling(nil, results)
	if _, err := pushCoerced(some, expr, inner, input.Inner(), t); err != nil {
		return err
	}
	none := b.Dangling(nil, results)
	if err := g.traverseAs(none, args[0], t); err != nil {
		return err
	}
	b.IfElse(some.ID(), none.ID())
	return nil
}

// variantTest implements is-some, is-none, is-ok and is-err by dropping
// the payload and testing the discriminant
type variantTest struct {
	name string
	want int32
}

func (v variantTest) Name() string { return v.name }

func (v variantTest) Visit(g *Generator, b *wasm.SeqBuilder, expr *ast.List, argTypes []*checker.Type, _ *checker.Type) error {
	if len(argTypes) != 1 {
		return typeErrorf(expr, "%s expects one argument", v.name)
	}
	input := argTypes[0]
	if input.Kind != checker.KindOptional && input.Kind != checker.KindResponse {
		return typeErrorf(expr, "%s expects an optional or a response, got %s", v.name, input)
	}
	for range wasmTypes(input)[1:] {
		b.Drop()
	}
	if v.want == 0 {
		b.Op(wasm.OpI32Eqz)
	}
	return nil
}
