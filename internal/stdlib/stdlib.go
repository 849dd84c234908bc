// Package stdlib provides the runtime support routines generated code
// calls: 128-bit integer arithmetic and comparison, equality of integers
// and byte regions, and runtime errors. Each routine is declared as a
// module import with a host implementation.
package stdlib

import (
	"fmt"
	"math/big"

	"github.com/lhaig/clarwasm/internal/wasm"
)

// ImportModule is the import namespace of every routine
const ImportModule = "clarity"

// Routine names
const (
	AddInt     = "stdlib.add-int"
	AddUInt    = "stdlib.add-uint"
	SubInt     = "stdlib.sub-int"
	SubUInt    = "stdlib.sub-uint"
	MulInt     = "stdlib.mul-int"
	MulUInt    = "stdlib.mul-uint"
	DivInt     = "stdlib.div-int"
	DivUInt    = "stdlib.div-uint"
	LtInt      = "stdlib.lt-int"
	LtUInt     = "stdlib.lt-uint"
	GtInt      = "stdlib.gt-int"
	GtUInt     = "stdlib.gt-uint"
	LeInt      = "stdlib.le-int"
	LeUInt     = "stdlib.le-uint"
	GeInt      = "stdlib.ge-int"
	GeUInt     = "stdlib.ge-uint"
	IsEqInt    = "stdlib.is-eq-int"
	IsEqBytes  = "stdlib.is-eq-bytes"
	RaiseError = "stdlib.runtime-error"
)

type routine struct {
	name    string
	params  []wasm.ValType
	results []wasm.ValType
	host    wasm.HostFunc
}

var (
	int128x2 = []wasm.ValType{wasm.I64, wasm.I64, wasm.I64, wasm.I64}
	int128   = []wasm.ValType{wasm.I64, wasm.I64}
	bytesx2  = []wasm.ValType{wasm.I32, wasm.I32, wasm.I32, wasm.I32}
	boolean  = []wasm.ValType{wasm.I32}
)

func routines() []routine {
	rs := []routine{
		{AddInt, int128x2, int128, arith(true, (*big.Int).Add)},
		{AddUInt, int128x2, int128, arith(false, (*big.Int).Add)},
		{SubInt, int128x2, int128, arith(true, (*big.Int).Sub)},
		{SubUInt, int128x2, int128, arith(false, (*big.Int).Sub)},
		{MulInt, int128x2, int128, arith(true, (*big.Int).Mul)},
		{MulUInt, int128x2, int128, arith(false, (*big.Int).Mul)},
		{DivInt, int128x2, int128, divide(true)},
		{DivUInt, int128x2, int128, divide(false)},
		{LtInt, int128x2, boolean, compare(true, func(c int) bool { return c < 0 })},
		{LtUInt, int128x2, boolean, compare(false, func(c int) bool { return c < 0 })},
		{GtInt, int128x2, boolean, compare(true, func(c int) bool { return c > 0 })},
		{GtUInt, int128x2, boolean, compare(false, func(c int) bool { return c > 0 })},
		{LeInt, int128x2, boolean, compare(true, func(c int) bool { return c <= 0 })},
		{LeUInt, int128x2, boolean, compare(false, func(c int) bool { return c <= 0 })},
		{GeInt, int128x2, boolean, compare(true, func(c int) bool { return c >= 0 })},
		{GeUInt, int128x2, boolean, compare(false, func(c int) bool { return c >= 0 })},
		{IsEqInt, int128x2, boolean, isEqInt},
		{IsEqBytes, bytesx2, boolean, isEqBytes},
		{RaiseError, []wasm.ValType{wasm.I32}, nil, runtimeError},
	}
	return rs
}

// Funcs maps routine names to their function ids in one module
type Funcs map[string]wasm.FuncID

// Import declares every routine as an import of m. It must run before any
// function is defined in m.
func Import(m *wasm.Module) (Funcs, error) {
	funcs := make(Funcs)
	for _, r := range routines() {
		id, err := m.AddImport(ImportModule, r.name, r.params, r.results, r.host)
		if err != nil {
			return nil, err
		}
		funcs[r.name] = id
	}
	return funcs, nil
}

func fromBool(b bool) []uint64 {
	if b {
		return []uint64{1}
	}
	return []uint64{0}
}

func operands(args []uint64, signed bool) (*big.Int, *big.Int) {
	return ToBig(args[0], args[1], signed), ToBig(args[2], args[3], signed)
}

func result(v *big.Int, signed bool) ([]uint64, error) {
	if code := checkRange(v, signed); code != CodeNone {
		return nil, &RuntimeError{Code: code}
	}
	lo, hi := FromBig(v)
	return []uint64{lo, hi}, nil
}

func arith(signed bool, op func(z, x, y *big.Int) *big.Int) wasm.HostFunc {
	return func(_ wasm.HostContext, args []uint64) ([]uint64, error) {
		a, b := operands(args, signed)
		return result(op(new(big.Int), a, b), signed)
	}
}

// divide truncates toward zero
func divide(signed bool) wasm.HostFunc {
	return func(_ wasm.HostContext, args []uint64) ([]uint64, error) {
		a, b := operands(args, signed)
		if b.Sign() == 0 {
			return nil, &RuntimeError{Code: CodeDivisionByZero}
		}
		return result(new(big.Int).Quo(a, b), signed)
	}
}

func compare(signed bool, pred func(int) bool) wasm.HostFunc {
	return func(_ wasm.HostContext, args []uint64) ([]uint64, error) {
		a, b := operands(args, signed)
		return fromBool(pred(a.Cmp(b))), nil
	}
}

func isEqInt(_ wasm.HostContext, args []uint64) ([]uint64, error) {
	return fromBool(args[0] == args[2] && args[1] == args[3]), nil
}

func isEqBytes(ctx wasm.HostContext, args []uint64) ([]uint64, error) {
	mem := ctx.Memory()
	offA, lenA := uint32(args[0]), uint32(args[1])
	offB, lenB := uint32(args[2]), uint32(args[3])
	if lenA != lenB {
		return fromBool(false), nil
	}
	a, err := region(mem, offA, lenA)
	if err != nil {
		return nil, err
	}
	b, err := region(mem, offB, lenB)
	if err != nil {
		return nil, err
	}
	return fromBool(string(a) == string(b)), nil
}

func region(mem []byte, off, n uint32) ([]byte, error) {
	end := uint64(off) + uint64(n)
	if end > uint64(len(mem)) {
		return nil, fmt.Errorf("%s: region [%d, %d) out of bounds", IsEqBytes, off, end)
	}
	return mem[off:end], nil
}

func runtimeError(_ wasm.HostContext, args []uint64) ([]uint64, error) {
	return nil, &RuntimeError{Code: ErrorCode(uint32(args[0]))}
}
