package stdlib

import (
	"math/big"
)

var (
	two64      = new(big.Int).Lsh(big.NewInt(1), 64)
	two128     = new(big.Int).Lsh(big.NewInt(1), 128)
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxUInt128 = new(big.Int).Sub(two128, big.NewInt(1))
)

// ToBig reassembles a 128-bit integer from its low and high words
func ToBig(lo, hi uint64, signed bool) *big.Int {
	v := new(big.Int).SetUint64(hi)
	v.Lsh(v, 64)
	v.Or(v, new(big.Int).SetUint64(lo))
	if signed && hi>>63 == 1 {
		v.Sub(v, two128)
	}
	return v
}

// FromBig splits v into low and high words using two's complement. v must
// fit in 128 bits.
func FromBig(v *big.Int) (lo, hi uint64) {
	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, two128)
	}
	lo = new(big.Int).Mod(u, two64).Uint64()
	hi = new(big.Int).Rsh(u, 64).Uint64()
	return lo, hi
}

// checkRange returns the error code for v falling outside the int or
// uint range, or CodeNone
func checkRange(v *big.Int, signed bool) ErrorCode {
	if signed {
		switch {
		case v.Cmp(maxInt128) > 0, v.Cmp(minInt128) < 0:
			return CodeOverflow
		}
		return CodeNone
	}
	switch {
	case v.Sign() < 0:
		return CodeUnderflow
	case v.Cmp(maxUInt128) > 0:
		return CodeOverflow
	}
	return CodeNone
}
