package stdlib

import (
	"errors"
	"math/big"
	"testing"

	"github.com/lhaig/clarwasm/internal/wasm"
)

type fakeMemory []byte

func (f fakeMemory) Memory() []byte { return f }

func bigInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad integer %q", s)
	}
	return v
}

func hostFor(t *testing.T, name string) wasm.HostFunc {
	t.Helper()
	for _, r := range routines() {
		if r.name == name {
			return r.host
		}
	}
	t.Fatalf("no routine %s", name)
	return nil
}

func TestBigRoundTrip(t *testing.T) {
	tests := []struct {
		value  string
		signed bool
	}{
		{"0", true},
		{"-1", true},
		{"170141183460469231731687303715884105727", true},
		{"-170141183460469231731687303715884105728", true},
		{"340282366920938463463374607431768211455", false},
		{"18446744073709551616", false},
	}
	for _, tt := range tests {
		v := bigInt(t, tt.value)
		lo, hi := FromBig(v)
		if got := ToBig(lo, hi, tt.signed); got.Cmp(v) != 0 {
			t.Errorf("round trip of %s gave %s", tt.value, got)
		}
	}

	lo, hi := FromBig(big.NewInt(-1))
	if lo != ^uint64(0) || hi != ^uint64(0) {
		t.Errorf("-1 should be all ones, got %x %x", hi, lo)
	}
}

func call(t *testing.T, name string, a, b *big.Int) ([]uint64, error) {
	t.Helper()
	alo, ahi := FromBig(a)
	blo, bhi := FromBig(b)
	return hostFor(t, name)(nil, []uint64{alo, ahi, blo, bhi})
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		routine string
		a, b    string
		want    string
		signed  bool
	}{
		{"add", AddInt, "2", "3", "5", true},
		{"add negative", AddInt, "-10", "3", "-7", true},
		{"sub", SubUInt, "10", "3", "7", false},
		{"mul", MulInt, "-4", "5", "-20", true},
		{"div truncates", DivInt, "-7", "2", "-3", true},
		{"div uint", DivUInt, "7", "2", "3", false},
		{"carry into high word", AddUInt, "18446744073709551615", "1", "18446744073709551616", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := call(t, tt.routine, bigInt(t, tt.a), bigInt(t, tt.b))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v := ToBig(got[0], got[1], tt.signed); v.Cmp(bigInt(t, tt.want)) != 0 {
				t.Errorf("got %s, want %s", v, tt.want)
			}
		})
	}
}

func TestArithmeticErrors(t *testing.T) {
	tests := []struct {
		name    string
		routine string
		a, b    string
		want    ErrorCode
	}{
		{"int overflow", AddInt, "170141183460469231731687303715884105727", "1", CodeOverflow},
		{"uint overflow", MulUInt, "340282366920938463463374607431768211455", "2", CodeOverflow},
		{"uint underflow", SubUInt, "1", "2", CodeUnderflow},
		{"division by zero", DivInt, "1", "0", CodeDivisionByZero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := call(t, tt.routine, bigInt(t, tt.a), bigInt(t, tt.b))
			var rerr *RuntimeError
			if !errors.As(err, &rerr) {
				t.Fatalf("expected a runtime error, got %v", err)
			}
			if rerr.Code != tt.want {
				t.Errorf("code = %d, want %d", rerr.Code, tt.want)
			}
		})
	}
}

func TestComparisons(t *testing.T) {
	minusOne := big.NewInt(-1)
	one := big.NewInt(1)
	tests := []struct {
		routine string
		a, b    *big.Int
		want    uint64
	}{
		{LtInt, minusOne, one, 1},
		{LtUInt, minusOne, one, 0}, // all ones as a uint is the maximum
		{GtInt, one, minusOne, 1},
		{LeInt, one, one, 1},
		{GeUInt, one, minusOne, 0},
		{IsEqInt, minusOne, minusOne, 1},
		{IsEqInt, minusOne, one, 0},
	}
	for _, tt := range tests {
		got, err := call(t, tt.routine, tt.a, tt.b)
		if err != nil {
			t.Fatalf("%s: %v", tt.routine, err)
		}
		if got[0] != tt.want {
			t.Errorf("%s(%s, %s) = %d, want %d", tt.routine, tt.a, tt.b, got[0], tt.want)
		}
	}
}

func TestIsEqBytes(t *testing.T) {
	mem := fakeMemory("abcabd")
	eq := hostFor(t, IsEqBytes)
	tests := []struct {
		args []uint64
		want uint64
	}{
		{[]uint64{0, 3, 0, 3}, 1},
		{[]uint64{0, 2, 3, 2}, 1},
		{[]uint64{0, 3, 3, 3}, 0},
		{[]uint64{0, 3, 3, 2}, 0},
		{[]uint64{0, 0, 5, 0}, 1},
	}
	for _, tt := range tests {
		got, err := eq(mem, tt.args)
		if err != nil {
			t.Fatalf("is-eq-bytes%v: %v", tt.args, err)
		}
		if got[0] != tt.want {
			t.Errorf("is-eq-bytes%v = %d, want %d", tt.args, got[0], tt.want)
		}
	}
	if _, err := eq(mem, []uint64{4, 4, 0, 4}); err == nil {
		t.Error("expected an out of bounds error")
	}
}

func TestImport(t *testing.T) {
	m := wasm.NewModule(1, 1024)
	funcs, err := Import(m)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	for _, r := range routines() {
		name := r.name
		id, ok := funcs[name]
		if !ok {
			t.Fatalf("missing %s", name)
		}
		fn := m.Func(id)
		if !fn.IsImport() || fn.Import.Module != ImportModule || fn.Host == nil {
			t.Errorf("%s is not a host import: %+v", name, fn)
		}
	}

	_, err = hostFor(t, RaiseError)(nil, []uint64{uint64(CodeShortReturn)})
	var rerr *RuntimeError
	if !errors.As(err, &rerr) || rerr.Code != CodeShortReturn {
		t.Errorf("runtime-error raised %v", err)
	}
	if rerr.Error() != "short return at the top level" {
		t.Errorf("message = %q", rerr.Error())
	}
}
