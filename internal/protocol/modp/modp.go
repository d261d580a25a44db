package modp

import (
	"fmt"
	"math/bits"

	"versus/internal/domain"
)

const (
	// DefaultPrime is 2^64-59, the largest prime that fits in a uint64.
	DefaultPrime uint64 = 0xFFFFFFFFFFFFFFC5
	// DefaultBase is the public base. Exponents are reduced modulo it, see keyexchange.
	DefaultBase uint64 = 0x9E3779B97F4A7C15
)

// Params are the public constants both peers must agree on.
type Params struct {
	Base  uint64
	Prime uint64
}

// Default returns the protocol's built-in parameters.
func Default() Params {
	return Params{Base: DefaultBase, Prime: DefaultPrime}
}

// Validate rejects parameter sets under which every public value collapses
// to 0 or 1.
func (p Params) Validate() error {
	if p.Prime < 3 {
		return fmt.Errorf("%w: prime %d < 3", domain.ErrInvalidParams, p.Prime)
	}
	if p.Base < 2 || p.Base >= p.Prime {
		return fmt.Errorf("%w: base %d outside [2, %d)", domain.ErrInvalidParams, p.Base, p.Prime)
	}
	return nil
}

// Exp returns base^exp mod m. Exp(_, _, 0) panics like integer division by zero.
func Exp(base, exp, m uint64) uint64 {
	if m == 1 {
		return 0
	}
	result := uint64(1)
	base %= m
	for exp > 0 {
		if exp&1 == 1 {
			result = MulMod(result, base, m)
		}
		base = MulMod(base, base, m)
		exp >>= 1
	}
	return result
}

// MulMod returns a*b mod m without overflow.
func MulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, m)
}
