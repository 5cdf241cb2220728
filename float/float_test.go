package float

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	cases := []string{"0", "1", "-1", "1.5", "-1.5", "0.000001", "123456789.987654321"}
	for _, c := range cases {
		f, err := Parse(c)
		require.NoError(t, err)
		require.Equal(t, c, f.String())
	}
}

func TestZeroIsCanonical(t *testing.T) {
	a, err := Parse("0")
	require.NoError(t, err)
	require.True(t, a.IsZero())
	require.Equal(t, Zero.Bytes32(), a.Bytes32())
}

func TestFromFixedDecimal(t *testing.T) {
	raw := uint256.NewInt(1_000_000_000_000_000_000)
	f := FromFixedDecimal(raw, 18)
	require.Equal(t, "1", f.String())
}

func TestArithmetic(t *testing.T) {
	a, _ := Parse("1.5")
	b, _ := Parse("0.5")
	require.Equal(t, "2", Add(a, b).String())
	require.Equal(t, "1", Sub(a, b).String())
	require.Equal(t, "0.75", Mul(a, b).String())
	d, err := Div(a, b)
	require.NoError(t, err)
	require.Equal(t, "3", d.String())
}

func TestDivByZero(t *testing.T) {
	a, _ := Parse("1")
	_, err := Div(a, Zero)
	require.Error(t, err)
}

func TestMinMax(t *testing.T) {
	a, _ := Parse("5")
	b, _ := Parse("10")
	require.True(t, Equal(Min(a, b), a))
	require.True(t, Equal(Max(a, b), b))
}

func TestBytes32RoundTrip(t *testing.T) {
	cases := []string{"0", "1", "-1", "1.5", "-1.5", "123456789.987654321"}
	for _, c := range cases {
		f, err := Parse(c)
		require.NoError(t, err)
		b := f.Bytes32()
		back := FromBytes32(b)
		require.True(t, Equal(f, back), "round trip mismatch for %s", c)
	}
}

func TestAssociativityWhereRepresentable(t *testing.T) {
	a, _ := Parse("1.1")
	b, _ := Parse("2.2")
	c, _ := Parse("3.3")
	left := Add(Add(a, b), c)
	right := Add(a, Add(b, c))
	require.True(t, Equal(left, right))
}
