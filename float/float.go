// Package float implements Raindex's canonical numeric type: a 32-byte
// fixed-point decimal scalar with deterministic arithmetic. It mirrors the
// on-chain Float library's semantics closely enough that values round-trip
// through SQL/KV storage without losing precision.
//
// The representation is a signed, base-10 floating-point encoding borrowed
// from the on-chain contract. In memory a Float holds a signed big.Int
// mantissa and an int32 base-10 exponent; its 32-byte wire form
// (Bytes32/FromBytes32) packs the mantissa into the low 224 bits and the
// exponent into the high 32 bits.
package float

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Float is an opaque 32-byte fixed-point decimal. The zero value is the
// canonical representation of zero.
type Float struct {
	mantissa *big.Int // signed
	exponent int32     // value = mantissa * 10^exponent
}

// Zero is the canonical zero value.
var Zero = Float{mantissa: big.NewInt(0), exponent: 0}

func normalize(mantissa *big.Int, exponent int32) Float {
	m := new(big.Int).Set(mantissa)
	if m.Sign() == 0 {
		return Float{mantissa: big.NewInt(0), exponent: 0}
	}
	// Strip trailing zeros from the mantissa to keep a canonical form so
	// that equal values always compare byte-for-byte equal after encoding.
	ten := big.NewInt(10)
	mod := new(big.Int)
	for {
		q, r := new(big.Int).QuoRem(m, ten, mod)
		if r.Sign() != 0 {
			break
		}
		m = q
		exponent++
	}
	return Float{mantissa: m, exponent: exponent}
}

// Parse reads a decimal string (optionally signed, optionally fractional)
// into a Float.
func Parse(s string) (Float, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Float{}, fmt.Errorf("float: empty string")
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return Float{}, fmt.Errorf("float: invalid decimal %q", s)
	}
	intPart, fracPart, hasFrac := s, "", false
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, fracPart = s[:idx], s[idx+1:]
		hasFrac = true
	}
	if intPart == "" {
		intPart = "0"
	}
	if hasFrac && fracPart == "" {
		return Float{}, fmt.Errorf("float: invalid decimal %q", s)
	}
	digits := intPart + fracPart
	if digits == "" {
		return Float{}, fmt.Errorf("float: invalid decimal %q", s)
	}
	m, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Float{}, fmt.Errorf("float: invalid decimal %q", s)
	}
	if neg {
		m.Neg(m)
	}
	exp := int32(-len(fracPart))
	return normalize(m, exp), nil
}

// FromFixedDecimal builds a Float from a raw on-chain uint256 scaled by
// `decimals` (e.g. an ERC-20 balance and its token decimals).
func FromFixedDecimal(raw *uint256.Int, decimals uint8) Float {
	if raw == nil {
		return Zero
	}
	return normalize(raw.ToBig(), -int32(decimals))
}

// String formats the Float as a plain decimal string.
func (f Float) String() string {
	if f.mantissa == nil || f.mantissa.Sign() == 0 {
		return "0"
	}
	m := new(big.Int).Set(f.mantissa)
	neg := m.Sign() < 0
	if neg {
		m.Neg(m)
	}
	digits := m.String()
	exp := f.exponent
	var out string
	switch {
	case exp >= 0:
		out = digits + strings.Repeat("0", int(exp))
	default:
		shift := int(-exp)
		if shift >= len(digits) {
			digits = strings.Repeat("0", shift-len(digits)+1) + digits
		}
		split := len(digits) - shift
		out = digits[:split] + "." + digits[split:]
		out = strings.TrimRight(out, "0")
		out = strings.TrimRight(out, ".")
	}
	if neg {
		out = "-" + out
	}
	return out
}

// commonExponent rescales a and b to share the smaller of their two
// exponents, returning the rescaled mantissas.
func commonExponent(a, b Float) (ma, mb *big.Int, exp int32) {
	if a.mantissa == nil {
		a = Zero
	}
	if b.mantissa == nil {
		b = Zero
	}
	exp = a.exponent
	if b.exponent < exp {
		exp = b.exponent
	}
	ma = scaleTo(a, exp)
	mb = scaleTo(b, exp)
	return ma, mb, exp
}

func scaleTo(f Float, exp int32) *big.Int {
	m := new(big.Int).Set(f.mantissa)
	if f.exponent == exp {
		return m
	}
	diff := f.exponent - exp
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(diff)), nil)
	return m.Mul(m, scale)
}

// Add returns a+b.
func Add(a, b Float) Float {
	ma, mb, exp := commonExponent(a, b)
	return normalize(new(big.Int).Add(ma, mb), exp)
}

// Sub returns a-b.
func Sub(a, b Float) Float {
	ma, mb, exp := commonExponent(a, b)
	return normalize(new(big.Int).Sub(ma, mb), exp)
}

// Neg returns -a.
func Neg(a Float) Float {
	if a.mantissa == nil {
		return Zero
	}
	return normalize(new(big.Int).Neg(a.mantissa), a.exponent)
}

// Mul returns a*b.
func Mul(a, b Float) Float {
	am := a.mantissa
	bm := b.mantissa
	if am == nil {
		am = big.NewInt(0)
	}
	if bm == nil {
		bm = big.NewInt(0)
	}
	return normalize(new(big.Int).Mul(am, bm), a.exponent+b.exponent)
}

// Div returns a/b. b must be non-zero.
func Div(a, b Float) (Float, error) {
	if b.mantissa == nil || b.mantissa.Sign() == 0 {
		return Float{}, fmt.Errorf("float: division by zero")
	}
	// Scale the numerator up before integer division so that common
	// fractional results (e.g. 1/3 truncated) retain useful precision.
	const guardDigits = 38
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(guardDigits), nil)
	num := new(big.Int).Mul(a.mantissa, scale)
	q := new(big.Int).Quo(num, b.mantissa)
	exp := a.exponent - b.exponent - guardDigits
	return normalize(q, exp), nil
}

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func Cmp(a, b Float) int {
	ma, mb, _ := commonExponent(a, b)
	return ma.Cmp(mb)
}

// Equal reports whether a and b represent the same value.
func Equal(a, b Float) bool { return Cmp(a, b) == 0 }

// IsZero reports whether f is zero.
func (f Float) IsZero() bool { return f.mantissa == nil || f.mantissa.Sign() == 0 }

// Sign returns -1, 0, or 1.
func (f Float) Sign() int {
	if f.mantissa == nil {
		return 0
	}
	return f.mantissa.Sign()
}

// Min returns the smaller of a and b.
func Min(a, b Float) Float {
	if Cmp(a, b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Float) Float {
	if Cmp(a, b) >= 0 {
		return a
	}
	return b
}

// Bytes32 encodes f into the wire format used by the SQL/KV payload: the
// mantissa packed into the low 224 bits and the exponent into the high 32
// bits of a 32-byte big-endian word, matching the on-chain Float packing.
func (f Float) Bytes32() [32]byte {
	var out [32]byte
	m := f.mantissa
	if m == nil {
		m = big.NewInt(0)
	}
	// Mantissa as a 224-bit two's-complement value.
	mantissaMod := new(big.Int).Lsh(big.NewInt(1), 224)
	mm := new(big.Int).Mod(m, mantissaMod)
	mm.FillBytes(out[4:32])
	exp := uint32(f.exponent)
	out[0] = byte(exp >> 24)
	out[1] = byte(exp >> 16)
	out[2] = byte(exp >> 8)
	out[3] = byte(exp)
	return out
}

// FromBytes32 decodes the wire format produced by Bytes32.
func FromBytes32(b [32]byte) Float {
	exp := int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
	mantissaMod := new(big.Int).Lsh(big.NewInt(1), 224)
	mm := new(big.Int).SetBytes(b[4:32])
	half := new(big.Int).Rsh(mantissaMod, 1)
	if mm.Cmp(half) >= 0 {
		mm.Sub(mm, mantissaMod)
	}
	return normalize(mm, exp)
}

// HexString encodes f as the 0x-prefixed hex wire format used in SQL/KV
// payloads.
func (f Float) HexString() string {
	b := f.Bytes32()
	return "0x" + fmt.Sprintf("%x", b[:])
}
