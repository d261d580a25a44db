package modp_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"versus/internal/domain"
	"versus/internal/protocol/modp"
)

func TestExp_SmallGroupSymmetry(t *testing.T) {
	const g, p, a, b = 5, 23, 6, 15

	A := modp.Exp(g, a, p)
	B := modp.Exp(g, b, p)
	assert.Equal(t, uint64(8), A)
	assert.Equal(t, uint64(19), B)

	// (g^a)^b == (g^b)^a
	assert.Equal(t, uint64(2), modp.Exp(B, a, p))
	assert.Equal(t, uint64(2), modp.Exp(A, b, p))
}

func TestExp_MatchesBigIntNearModulusBound(t *testing.T) {
	cases := []struct {
		base, exp, mod uint64
	}{
		{modp.DefaultBase, 0xDEADBEEFCAFEBABE, modp.DefaultPrime},
		{modp.DefaultPrime - 1, modp.DefaultPrime - 2, modp.DefaultPrime},
		{^uint64(0), ^uint64(0), ^uint64(0) - 1},
		{3, 1 << 63, modp.DefaultPrime},
		{2, 64, modp.DefaultPrime},
	}
	for _, tc := range cases {
		want := new(big.Int).Exp(
			new(big.Int).SetUint64(tc.base),
			new(big.Int).SetUint64(tc.exp),
			new(big.Int).SetUint64(tc.mod),
		)
		assert.Equal(t, want.Uint64(), modp.Exp(tc.base, tc.exp, tc.mod),
			"base=%d exp=%d mod=%d", tc.base, tc.exp, tc.mod)
	}
}

func TestExp_EdgeExponents(t *testing.T) {
	assert.Equal(t, uint64(1), modp.Exp(12345, 0, 23))
	assert.Equal(t, uint64(0), modp.Exp(12345, 7, 1))
	assert.Equal(t, uint64(12345%23), modp.Exp(12345, 1, 23))
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, modp.Default().Validate())
	require.NoError(t, modp.Params{Base: 5, Prime: 23}.Validate())

	for _, p := range []modp.Params{
		{Base: 2, Prime: 2},
		{Base: 1, Prime: 23},
		{Base: 23, Prime: 23},
		{Base: 0, Prime: 0},
	} {
		assert.ErrorIs(t, p.Validate(), domain.ErrInvalidParams, "%+v", p)
	}
}
