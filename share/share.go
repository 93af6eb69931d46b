// Package share implements fixed-point proportional entitlement math.
//
// A receiver's entitlement is expressed as share/totalShares scaled by a
// fixed multiplier so that integer division does not destroy precision.
// All divisions truncate toward zero; truncation dust is never redistributed.
package share

import "math/big"

// Scale is the fixed-point multiplier applied to proportional fractions.
// A receiver holding 9000 of 10000 total shares has a scaled fraction of
// 9000 * Scale / 10000 = 900_000_000_000.
const Scale = 1_000_000_000_000 // 1e12

var bigScale = big.NewInt(Scale)

// Fraction returns the scaled fraction shareWeight/totalShares, i.e.
// shareWeight * Scale / totalShares with floor division.
func Fraction(shareWeight, totalShares uint64) (uint64, error) {
	if totalShares == 0 {
		return 0, ErrZeroTotalShares
	}
	if shareWeight > totalShares {
		return 0, ErrShareExceedsTotal
	}

	// shareWeight * Scale can exceed uint64, so go through big.Int.
	f := new(big.Int).SetUint64(shareWeight)
	f.Mul(f, bigScale)
	f.Quo(f, new(big.Int).SetUint64(totalShares))
	return f.Uint64(), nil // <= Scale, always fits
}

// Apportion computes rate * units * fraction / Scale with floor division,
// where fraction is a scaled fraction produced by Fraction. The division
// happens once, after the full product, so a multi-unit apportionment floors
// exactly once rather than per unit.
func Apportion(rate, units, fraction uint64) (uint64, error) {
	if rate == 0 || units == 0 || fraction == 0 {
		return 0, nil
	}

	amt := new(big.Int).SetUint64(rate)
	amt.Mul(amt, new(big.Int).SetUint64(units))
	amt.Mul(amt, new(big.Int).SetUint64(fraction))
	amt.Quo(amt, bigScale)
	if !amt.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return amt.Uint64(), nil
}
