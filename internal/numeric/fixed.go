package numeric

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	// Scale18 is the fractional digit count of Balancer fixed-point values.
	Scale18 int32 = 18

	// AmpPrecision is the denominator of a stable pool amplification parameter.
	AmpPrecision uint64 = 1000
	// AmpDigits is log10(AmpPrecision).
	AmpDigits int32 = 3

	// V3FeeDenominator is the denominator of Uniswap V3 fee tiers.
	V3FeeDenominator uint64 = 1_000_000
	// V3FeeDigits is log10(V3FeeDenominator).
	V3FeeDigits int32 = 6

	// BpsDigits renders basis points as a decimal fraction.
	BpsDigits int32 = 4

	// ratDigits bounds rendering of non-terminating rationals.
	ratDigits int32 = 18

	// 10^78 exceeds 2^256, so any non-zero value with a larger exponent overflows.
	maxExponent int32 = 78
)

var (
	ErrOverflow = errors.New("value does not fit in 256 bits")
	ErrNegative = errors.New("value is negative")
)

// DecimalToFixed returns value scaled by 10^scale as a 256-bit integer.
// Digits past scale are truncated toward zero.
func DecimalToFixed(value decimal.Decimal, scale int32) (*uint256.Int, error) {
	if value.IsZero() {
		return new(uint256.Int), nil
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%s: %w", value, ErrNegative)
	}

	shifted := value.Truncate(scale).Shift(scale)
	if shifted.Exponent() > maxExponent {
		return nil, fmt.Errorf("%s: %w", value, ErrOverflow)
	}

	raw, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, fmt.Errorf("%s: %w", value, ErrOverflow)
	}
	return raw, nil
}

// FixedToDecimal reattaches scale to raw. It is exact.
func FixedToDecimal(raw *uint256.Int, scale int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw.ToBig(), -scale)
}

// DecimalToMillionths returns value as a numerator over V3FeeDenominator.
// Digits past the sixth are discarded.
func DecimalToMillionths(value decimal.Decimal) (uint32, error) {
	raw, err := DecimalToFixed(value, V3FeeDigits)
	if err != nil {
		return 0, err
	}
	if !raw.IsUint64() || raw.Uint64() > math.MaxUint32 {
		return 0, fmt.Errorf("%s: %w", value, ErrOverflow)
	}
	return uint32(raw.Uint64()), nil
}

// RatToDecimal renders r as a decimal. Terminating fractions are exact.
func RatToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	num := decimal.NewFromBigInt(r.Num(), 0)
	den := decimal.NewFromBigInt(r.Denom(), 0)
	return num.DivRound(den, ratDigits)
}

// RatioToDecimal renders factor/precision as a decimal.
func RatioToDecimal(factor, precision *uint256.Int) decimal.Decimal {
	return RatToDecimal(new(big.Rat).SetFrac(factor.ToBig(), precision.ToBig()))
}
