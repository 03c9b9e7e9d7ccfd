package liquidity

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"solverDriver/internal/eth"
	"solverDriver/internal/numeric"
)

var (
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// V3Fee is a fee tier expressed in millionths.
type V3Fee struct {
	millionths uint32
}

func NewV3Fee(millionths uint32) V3Fee {
	return V3Fee{millionths: millionths}
}

// Millionths returns the numerator over numeric.V3FeeDenominator.
func (f V3Fee) Millionths() uint32 {
	return f.millionths
}

// Rat returns the fee as millionths/1e6.
func (f V3Fee) Rat() *big.Rat {
	return new(big.Rat).SetFrac(
		new(big.Int).SetUint64(uint64(f.millionths)),
		new(big.Int).SetUint64(numeric.V3FeeDenominator),
	)
}

// UniswapV3 is a concentrated liquidity pool.
type UniswapV3 struct {
	Router    common.Address
	Address   common.Address
	Tokens    eth.TokenPair
	SqrtPrice *uint256.Int
	// Liquidity is the in-range liquidity, a uint128 on chain.
	Liquidity *uint256.Int
	Tick      int32
	// LiquidityNet maps initialized ticks to their int128 liquidity delta.
	LiquidityNet map[int32]*big.Int
	Fee          V3Fee
}

// CheckUint128 fails if v needs more than 128 bits.
func CheckUint128(v *uint256.Int) error {
	if v.BitLen() > 128 {
		return fmt.Errorf("%s exceeds uint128: %w", v.Dec(), ErrOutOfRange)
	}
	return nil
}

// CheckInt128 fails if v is outside the int128 range.
func CheckInt128(v *big.Int) error {
	if v.Cmp(maxInt128) > 0 || v.Cmp(minInt128) < 0 {
		return fmt.Errorf("%s exceeds int128: %w", v, ErrOutOfRange)
	}
	return nil
}
