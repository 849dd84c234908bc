package codegen

import (
	"github.com/lhaig/clarwasm/internal/ast"
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/wasm"
)

// wasmTypes returns the slots a value of type t occupies, in push order.
// Optionals and responses lead with an i32 discriminant; a response
// always carries both its ok and err payloads.
func wasmTypes(t *checker.Type) []wasm.ValType {
	switch t.Kind {
	case checker.KindInt, checker.KindUInt:
		return []wasm.ValType{wasm.I64, wasm.I64}
	case checker.KindOptional:
		return append([]wasm.ValType{wasm.I32}, wasmTypes(t.Inner())...)
	case checker.KindResponse:
		types := []wasm.ValType{wasm.I32}
		types = append(types, wasmTypes(t.OkType())...)
		return append(types, wasmTypes(t.ErrType())...)
	case checker.KindPrincipal, checker.KindList, checker.KindBuffer,
		checker.KindStringASCII, checker.KindStringUTF8:
		return []wasm.ValType{wasm.I32, wasm.I32}
	default:
		// bool and NoType
		return []wasm.ValType{wasm.I32}
	}
}

// saveToLocals pops a value of type t into fresh locals and returns them
// in slot order. With keep set the value is pushed back as well.
func (g *Generator) saveToLocals(b *wasm.SeqBuilder, t *checker.Type, keep bool) []wasm.LocalID {
	types := wasmTypes(t)
	locals := make([]wasm.LocalID, len(types))
	for i, vt := range types {
		locals[i] = g.fb.AddLocal(vt)
	}
	for i := len(locals) - 1; i >= 0; i-- {
		b.LocalSet(locals[i])
	}
	if keep {
		pushLocals(b, locals)
	}
	return locals
}

func pushLocals(b *wasm.SeqBuilder, locals []wasm.LocalID) {
	for _, l := range locals {
		b.LocalGet(l)
	}
}

func dropValue(b *wasm.SeqBuilder, t *checker.Type) {
	for range wasmTypes(t) {
		b.Drop()
	}
}

// addPlaceholder pushes a zero value for every slot of t. It fills the
// inactive payload of optionals and responses.
func addPlaceholder(b *wasm.SeqBuilder, t *checker.Type) {
	for _, vt := range wasmTypes(t) {
		if vt == wasm.I64 {
			b.I64Const(0)
		} else {
			b.I32Const(0)
		}
	}
}

// coerce converts the value of type from on top of the stack into the
// slot layout of to. to must admit from; components that are NoType in
// from become placeholders.
func (g *Generator) coerce(b *wasm.SeqBuilder, expr ast.Expression, from, to *checker.Type) error {
	if from.Equal(to) {
		return nil
	}
	locals := g.saveToLocals(b, from, false)
	rest, err := pushCoerced(b, expr, locals, from, to)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return internalErrorf(expr, "%d slots left over coercing %s to %s", len(rest), from, to)
	}
	return nil
}

// pushCoerced pushes the value of type from held in locals using the
// layout of to, and returns the locals it did not consume
func pushCoerced(b *wasm.SeqBuilder, expr ast.Expression, locals []wasm.LocalID, from, to *checker.Type) ([]wasm.LocalID, error) {
	need := len(wasmTypes(from))
	if len(locals) < need {
		return nil, internalErrorf(expr, "%s needs %d slots, have %d", from, need, len(locals))
	}
	if from.Equal(to) {
		pushLocals(b, locals[:need])
		return locals[need:], nil
	}

	switch {
	case from.Kind == checker.KindNoType:
		addPlaceholder(b, to)
		return locals[1:], nil
	case from.Kind != to.Kind:
		return nil, typeErrorf(expr, "cannot use %s as %s", from, to)
	}

	switch from.Kind {
	case checker.KindOptional:
		b.LocalGet(locals[0])
		return pushCoerced(b, expr, locals[1:], from.Inner(), to.Inner())
	case checker.KindResponse:
		b.LocalGet(locals[0])
		rest, err := pushCoerced(b, expr, locals[1:], from.OkType(), to.OkType())
		if err != nil {
			return nil, err
		}
		return pushCoerced(b, expr, rest, from.ErrType(), to.ErrType())
	case checker.KindList:
		if sizeOf(from.ElemType()) != sizeOf(to.ElemType()) {
			return nil, notImplementedf(expr, "converting %s to %s changes the element layout", from, to)
		}
	}
	pushLocals(b, locals[:need])
	return locals[need:], nil
}
