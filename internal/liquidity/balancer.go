package liquidity

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"solverDriver/internal/eth"
)

// one is 1.0 at 18 fractional digits.
var one = uint256.NewInt(1_000_000_000_000_000_000)

// PoolAddress extracts the pool contract address from a Balancer pool id.
func PoolAddress(id common.Hash) common.Address {
	return common.BytesToAddress(id[:common.AddressLength])
}

// Fee is a Balancer swap fee at 18 fractional digits.
type Fee struct {
	raw *uint256.Int
}

// NewFee fails for fees above 100%.
func NewFee(raw *uint256.Int) (Fee, error) {
	if raw.Gt(one) {
		return Fee{}, fmt.Errorf("fee %s: %w", raw.Dec(), ErrInvalidValue)
	}
	return Fee{raw: new(uint256.Int).Set(raw)}, nil
}

func (f Fee) Raw() *uint256.Int { return f.raw }

// ScalingFactor normalizes a token balance to 18 decimals. The raw value is
// a power of ten at 18 fractional digits.
type ScalingFactor struct {
	raw *uint256.Int
}

func NewScalingFactor(raw *uint256.Int) (ScalingFactor, error) {
	if !isPowerOfTen(raw) {
		return ScalingFactor{}, fmt.Errorf("scaling factor %s: %w", raw.Dec(), ErrInvalidValue)
	}
	return ScalingFactor{raw: new(uint256.Int).Set(raw)}, nil
}

func (s ScalingFactor) Raw() *uint256.Int { return s.raw }

// Weight is a weighted pool token weight at 18 fractional digits.
type Weight struct {
	raw *uint256.Int
}

// NewWeight accepts weights in (0, 1].
func NewWeight(raw *uint256.Int) (Weight, error) {
	if raw.IsZero() || raw.Gt(one) {
		return Weight{}, fmt.Errorf("weight %s: %w", raw.Dec(), ErrInvalidValue)
	}
	return Weight{raw: new(uint256.Int).Set(raw)}, nil
}

func (w Weight) Raw() *uint256.Int { return w.raw }

// AmplificationParameter is factor/precision of a stable pool.
type AmplificationParameter struct {
	factor    *uint256.Int
	precision *uint256.Int
}

func NewAmplificationParameter(factor, precision *uint256.Int) (AmplificationParameter, error) {
	if precision.IsZero() {
		return AmplificationParameter{}, fmt.Errorf("amplification precision is zero: %w", ErrInvalidValue)
	}
	if factor.IsZero() {
		return AmplificationParameter{}, fmt.Errorf("amplification factor is zero: %w", ErrInvalidValue)
	}
	return AmplificationParameter{
		factor:    new(uint256.Int).Set(factor),
		precision: new(uint256.Int).Set(precision),
	}, nil
}

func (a AmplificationParameter) Factor() *uint256.Int    { return a.factor }
func (a AmplificationParameter) Precision() *uint256.Int { return a.precision }

// WeightedVersion selects the weighted pool math.
type WeightedVersion int

const (
	WeightedV0 WeightedVersion = iota
	WeightedV3Plus
)

type WeightedReserve struct {
	Asset  eth.Asset
	Weight Weight
	Scale  ScalingFactor
}

// WeightedReserves are sorted by token with no duplicates.
type WeightedReserves struct {
	reserves []WeightedReserve
}

func NewWeightedReserves(reserves []WeightedReserve) (WeightedReserves, error) {
	sorted := append([]WeightedReserve(nil), reserves...)
	sort.Slice(sorted, func(i, j int) bool { return eth.Less(sorted[i].Asset.Token, sorted[j].Asset.Token) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Asset.Token == sorted[i-1].Asset.Token {
			return WeightedReserves{}, fmt.Errorf("%s: %w", sorted[i].Asset.Token.Hex(), ErrDuplicateToken)
		}
	}
	return WeightedReserves{reserves: sorted}, nil
}

func (r WeightedReserves) All() []WeightedReserve {
	return append([]WeightedReserve(nil), r.reserves...)
}

func (r WeightedReserves) Tokens() []common.Address {
	tokens := make([]common.Address, 0, len(r.reserves))
	for _, reserve := range r.reserves {
		tokens = append(tokens, reserve.Asset.Token)
	}
	return tokens
}

// BalancerV2Weighted is a Balancer V2 weighted product pool.
type BalancerV2Weighted struct {
	Vault    common.Address
	ID       common.Hash
	Reserves WeightedReserves
	Fee      Fee
	Version  WeightedVersion
}

type StableReserve struct {
	Asset eth.Asset
	Scale ScalingFactor
}

// StableReserves are sorted by token with no duplicates.
type StableReserves struct {
	reserves []StableReserve
}

func NewStableReserves(reserves []StableReserve) (StableReserves, error) {
	sorted := append([]StableReserve(nil), reserves...)
	sort.Slice(sorted, func(i, j int) bool { return eth.Less(sorted[i].Asset.Token, sorted[j].Asset.Token) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Asset.Token == sorted[i-1].Asset.Token {
			return StableReserves{}, fmt.Errorf("%s: %w", sorted[i].Asset.Token.Hex(), ErrDuplicateToken)
		}
	}
	return StableReserves{reserves: sorted}, nil
}

func (r StableReserves) All() []StableReserve {
	return append([]StableReserve(nil), r.reserves...)
}

func (r StableReserves) Tokens() []common.Address {
	tokens := make([]common.Address, 0, len(r.reserves))
	for _, reserve := range r.reserves {
		tokens = append(tokens, reserve.Asset.Token)
	}
	return tokens
}

// BalancerV2Stable is a Balancer V2 stable pool.
type BalancerV2Stable struct {
	Vault                  common.Address
	ID                     common.Hash
	Reserves               StableReserves
	Fee                    Fee
	AmplificationParameter AmplificationParameter
}

func isPowerOfTen(v *uint256.Int) bool {
	if v.IsZero() {
		return false
	}
	ten := uint256.NewInt(10)
	x := new(uint256.Int).Set(v)
	rem := new(uint256.Int)
	for x.Gt(uint256.NewInt(1)) {
		rem.Mod(x, ten)
		if !rem.IsZero() {
			return false
		}
		x.Div(x, ten)
	}
	return true
}
