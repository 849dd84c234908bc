package codegen

import (
	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/wasm"
)

// sizeOf returns the bytes a value of type t occupies in linear memory
func sizeOf(t *checker.Type) uint32 {
	switch t.Kind {
	case checker.KindInt, checker.KindUInt:
		return 16
	case checker.KindOptional:
		return 4 + sizeOf(t.Inner())
	case checker.KindResponse:
		return 4 + sizeOf(t.OkType()) + sizeOf(t.ErrType())
	case checker.KindPrincipal, checker.KindList, checker.KindBuffer,
		checker.KindStringASCII, checker.KindStringUTF8:
		return 8
	default:
		return 4
	}
}

// elementSize returns the byte width of one element of sequence type t
func elementSize(t *checker.Type) (uint32, error) {
	kind, elem, err := t.SequenceElement()
	if err != nil {
		return 0, err
	}
	switch kind {
	case checker.ElemByte:
		return 1, nil
	case checker.ElemUnicodeScalar:
		return 4, nil
	default:
		return sizeOf(elem), nil
	}
}

// readFromMemory pushes the value of type t stored at addr+offset
func readFromMemory(b *wasm.SeqBuilder, addr wasm.LocalID, offset uint32, t *checker.Type) {
	switch t.Kind {
	case checker.KindInt, checker.KindUInt:
		b.LocalGet(addr).Load(wasm.OpI64Load, offset)
		b.LocalGet(addr).Load(wasm.OpI64Load, offset+8)
	case checker.KindOptional:
		b.LocalGet(addr).Load(wasm.OpI32Load, offset)
		readFromMemory(b, addr, offset+4, t.Inner())
	case checker.KindResponse:
		b.LocalGet(addr).Load(wasm.OpI32Load, offset)
		readFromMemory(b, addr, offset+4, t.OkType())
		readFromMemory(b, addr, offset+4+sizeOf(t.OkType()), t.ErrType())
	case checker.KindPrincipal, checker.KindList, checker.KindBuffer,
		checker.KindStringASCII, checker.KindStringUTF8:
		b.LocalGet(addr).Load(wasm.OpI32Load, offset)
		b.LocalGet(addr).Load(wasm.OpI32Load, offset+4)
	default:
		b.LocalGet(addr).Load(wasm.OpI32Load, offset)
	}
}

// writeToMemory stores the value of type t held in locals at addr+offset
// and returns the locals it did not consume
func writeToMemory(b *wasm.SeqBuilder, addr wasm.LocalID, offset uint32, t *checker.Type, locals []wasm.LocalID) []wasm.LocalID {
	switch t.Kind {
	case checker.KindOptional:
		b.LocalGet(addr).LocalGet(locals[0]).Store(wasm.OpI32Store, offset)
		return writeToMemory(b, addr, offset+4, t.Inner(), locals[1:])
	case checker.KindResponse:
		b.LocalGet(addr).LocalGet(locals[0]).Store(wasm.OpI32Store, offset)
		rest := writeToMemory(b, addr, offset+4, t.OkType(), locals[1:])
		return writeToMemory(b, addr, offset+4+sizeOf(t.OkType()), t.ErrType(), rest)
	}

	for i, vt := range wasmTypes(t) {
		op, width := wasm.OpI32Store, uint32(4)
		if vt == wasm.I64 {
			op, width = wasm.OpI64Store, 8
		}
		b.LocalGet(addr).LocalGet(locals[i]).Store(op, offset+uint32(i)*width)
	}
	return locals[len(wasmTypes(t)):]
}

// reserveStackRegion bumps the stack pointer by size bytes and returns a
// local holding the start of the reserved region
func (g *Generator) reserveStackRegion(b *wasm.SeqBuilder, size wasm.LocalID) wasm.LocalID {
	start := g.fb.AddLocal(wasm.I32)
	b.GlobalGet(g.stackPtr).LocalTee(start).LocalGet(size).Op(wasm.OpI32Add).GlobalSet(g.stackPtr)
	return start
}
