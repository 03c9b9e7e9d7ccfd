package api

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solverDriver/internal/competition"
	"solverDriver/internal/eth"
	"solverDriver/internal/liquidity"
	"solverDriver/internal/numeric"
	"solverDriver/internal/observe"
	"solverDriver/internal/solver/dto"
)

var (
	ErrUnsupportedLiquidity = errors.New("unsupported liquidity kind")
	ErrUnknownVersion       = errors.New("unknown weighted pool version")
)

// GasRequest asks for the gas cost of a solver's solutions.
type GasRequest struct {
	Solutions dto.Solutions     `json:"solutions"`
	Auction   dto.Auction       `json:"auction"`
	Liquidity dto.LiquidityList `json:"liquidity"`
}

// LiquidityDecodeError names the part of a pool that failed to decode.
type LiquidityDecodeError struct {
	ID   dto.StringUint
	What string
	Err  error
}

func (e *LiquidityDecodeError) Error() string {
	return fmt.Sprintf("liquidity %d: %s: %v", e.ID, e.What, e.Err)
}

func (e *LiquidityDecodeError) Unwrap() error { return e.Err }

// IntoDomain decodes liquidity, then the auction, then the solutions,
// stopping at the first failure. Failures are logged with their cause and
// returned as ErrLiquidity, ErrEncodeAuction or ErrEncodeSolution.
func (r GasRequest) IntoDomain(ctx context.Context, state *State, logger *zap.Logger) (*competition.Auction, []competition.Solution, error) {
	pools, err := DecodeLiquidity(r.Liquidity, state.Vault)
	if err != nil {
		what := "liquidity"
		var decodeErr *LiquidityDecodeError
		if errors.As(err, &decodeErr) {
			what = decodeErr.What
		}
		observe.InvalidDTO(logger, state.Metrics, err, what)
		return nil, nil, ErrLiquidity
	}

	auction, err := r.Auction.IntoDomain(ctx, state.Tokens, state.Timeouts, state.now())
	if err != nil {
		observe.InvalidDTO(logger, state.Metrics, err, "auction")
		return nil, nil, ErrEncodeAuction
	}

	solutions, err := r.Solutions.IntoDomain(auction, pools, state.Weth, state.Solver)
	if err != nil {
		observe.InvalidDTO(logger, state.Metrics, err, "solutions")
		return nil, nil, ErrEncodeSolution
	}
	return auction, solutions, nil
}

// DecodeLiquidity decodes every pool or none. vault is the Balancer vault
// the weighted and stable pools belong to.
func DecodeLiquidity(list dto.LiquidityList, vault common.Address) ([]liquidity.Liquidity, error) {
	out := make([]liquidity.Liquidity, 0, len(list))
	for _, item := range list {
		l, err := decodePool(item, vault)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func decodePool(item dto.Liquidity, vault common.Address) (liquidity.Liquidity, error) {
	switch pool := item.(type) {
	case dto.ConstantProductPool:
		return decodeConstantProduct(pool)
	case dto.WeightedProductPool:
		return decodeWeightedProduct(pool, vault)
	case dto.StablePool:
		return decodeStable(pool, vault)
	case dto.ConcentratedLiquidityPool:
		return decodeConcentratedLiquidity(pool)
	case dto.ForeignLimitOrder:
		return liquidity.Liquidity{}, &LiquidityDecodeError{ID: pool.ID, What: "zeroex limit orders not implemented", Err: ErrUnsupportedLiquidity}
	default:
		panic(fmt.Sprintf("unhandled wire liquidity %T", item))
	}
}

func decodeConstantProduct(pool dto.ConstantProductPool) (liquidity.Liquidity, error) {
	fail := func(err error) (liquidity.Liquidity, error) {
		return liquidity.Liquidity{}, &LiquidityDecodeError{ID: pool.ID, What: "constant product reserves", Err: err}
	}
	if len(pool.Tokens) != 2 {
		return fail(fmt.Errorf("%d tokens: %w", len(pool.Tokens), liquidity.ErrReserveCount))
	}
	assets := make([]eth.Asset, 0, 2)
	for token, reserve := range pool.Tokens {
		assets = append(assets, eth.NewAsset(token, reserve.Balance.Int()))
	}
	reserves, err := liquidity.NewUniswapV2Reserves(assets[0], assets[1])
	if err != nil {
		return fail(err)
	}
	return liquidity.Liquidity{
		ID:  liquidity.ID(pool.ID),
		Gas: pool.GasEstimate.Int(),
		Kind: liquidity.UniswapV2{
			Address:  pool.Address,
			Router:   pool.Router,
			Reserves: reserves,
		},
	}, nil
}

func decodeWeightedProduct(pool dto.WeightedProductPool, vault common.Address) (liquidity.Liquidity, error) {
	fail := func(what string, err error) (liquidity.Liquidity, error) {
		return liquidity.Liquidity{}, &LiquidityDecodeError{ID: pool.ID, What: what, Err: err}
	}
	if len(pool.Tokens) < 2 {
		return fail("weighted product reserves", fmt.Errorf("%d tokens: %w", len(pool.Tokens), liquidity.ErrReserveCount))
	}

	reserves := make([]liquidity.WeightedReserve, 0, len(pool.Tokens))
	for token, reserve := range pool.Tokens {
		weight, err := decodeFixed18(reserve.Weight, liquidity.NewWeight)
		if err != nil {
			return fail("weighted product reserves", fmt.Errorf("weight of %s: %w", token.Hex(), err))
		}
		scale, err := decodeFixed18(reserve.ScalingFactor, liquidity.NewScalingFactor)
		if err != nil {
			return fail("weighted product reserves", fmt.Errorf("scaling factor of %s: %w", token.Hex(), err))
		}
		reserves = append(reserves, liquidity.WeightedReserve{
			Asset:  eth.NewAsset(token, reserve.Balance.Int()),
			Weight: weight,
			Scale:  scale,
		})
	}
	weighted, err := liquidity.NewWeightedReserves(reserves)
	if err != nil {
		return fail("weighted product reserves", err)
	}

	fee, err := decodeFixed18(pool.Fee, liquidity.NewFee)
	if err != nil {
		return fail("weighted product fee", err)
	}

	var version liquidity.WeightedVersion
	switch pool.Version {
	case dto.WeightedProductV0:
		version = liquidity.WeightedV0
	case dto.WeightedProductV3Plus:
		version = liquidity.WeightedV3Plus
	default:
		return fail("weighted product version", fmt.Errorf("%q: %w", pool.Version, ErrUnknownVersion))
	}

	return liquidity.Liquidity{
		ID:  liquidity.ID(pool.ID),
		Gas: pool.GasEstimate.Int(),
		Kind: liquidity.BalancerV2Weighted{
			Vault:    vault,
			ID:       pool.BalancerPoolID,
			Reserves: weighted,
			Fee:      fee,
			Version:  version,
		},
	}, nil
}

func decodeStable(pool dto.StablePool, vault common.Address) (liquidity.Liquidity, error) {
	fail := func(what string, err error) (liquidity.Liquidity, error) {
		return liquidity.Liquidity{}, &LiquidityDecodeError{ID: pool.ID, What: what, Err: err}
	}
	if len(pool.Tokens) < 2 {
		return fail("stable reserves", fmt.Errorf("%d tokens: %w", len(pool.Tokens), liquidity.ErrReserveCount))
	}

	reserves := make([]liquidity.StableReserve, 0, len(pool.Tokens))
	for token, reserve := range pool.Tokens {
		scale, err := decodeFixed18(reserve.ScalingFactor, liquidity.NewScalingFactor)
		if err != nil {
			return fail("stable reserves", fmt.Errorf("scaling factor of %s: %w", token.Hex(), err))
		}
		reserves = append(reserves, liquidity.StableReserve{
			Asset: eth.NewAsset(token, reserve.Balance.Int()),
			Scale: scale,
		})
	}
	stable, err := liquidity.NewStableReserves(reserves)
	if err != nil {
		return fail("stable reserves", err)
	}

	fee, err := decodeFixed18(pool.Fee, liquidity.NewFee)
	if err != nil {
		return fail("stable fee", err)
	}

	factor, err := numeric.DecimalToFixed(pool.AmplificationParameter, numeric.AmpDigits)
	if err != nil {
		return fail("stable amplification parameter", err)
	}
	amp, err := liquidity.NewAmplificationParameter(factor, uint256.NewInt(numeric.AmpPrecision))
	if err != nil {
		return fail("stable amplification parameter", err)
	}

	return liquidity.Liquidity{
		ID:  liquidity.ID(pool.ID),
		Gas: pool.GasEstimate.Int(),
		Kind: liquidity.BalancerV2Stable{
			Vault:                  vault,
			ID:                     pool.BalancerPoolID,
			Reserves:               stable,
			Fee:                    fee,
			AmplificationParameter: amp,
		},
	}, nil
}

func decodeConcentratedLiquidity(pool dto.ConcentratedLiquidityPool) (liquidity.Liquidity, error) {
	fail := func(what string, err error) (liquidity.Liquidity, error) {
		return liquidity.Liquidity{}, &LiquidityDecodeError{ID: pool.ID, What: what, Err: err}
	}
	if len(pool.Tokens) != 2 {
		return fail("concentrated liquidity tokens", fmt.Errorf("%d tokens: %w", len(pool.Tokens), liquidity.ErrReserveCount))
	}
	tokens, err := eth.NewTokenPair(pool.Tokens[0], pool.Tokens[1])
	if err != nil {
		return fail("concentrated liquidity tokens", err)
	}

	inRange := pool.Liquidity.Int()
	if err := liquidity.CheckUint128(inRange); err != nil {
		return fail("concentrated liquidity", err)
	}

	net := make(map[int32]*big.Int, len(pool.LiquidityNet))
	for tick, value := range pool.LiquidityNet {
		if value.Int == nil {
			return fail("concentrated liquidity net", fmt.Errorf("tick %d: missing value", tick))
		}
		if err := liquidity.CheckInt128(value.Int); err != nil {
			return fail("concentrated liquidity net", fmt.Errorf("tick %d: %w", tick, err))
		}
		net[tick] = new(big.Int).Set(value.Int)
	}

	fee, err := numeric.DecimalToMillionths(pool.Fee)
	if err != nil {
		return fail("concentrated liquidity fee", err)
	}

	return liquidity.Liquidity{
		ID:  liquidity.ID(pool.ID),
		Gas: pool.GasEstimate.Int(),
		Kind: liquidity.UniswapV3{
			Router:       pool.Router,
			Address:      pool.Address,
			Tokens:       tokens,
			SqrtPrice:    pool.SqrtPrice.Int(),
			Liquidity:    inRange,
			Tick:         pool.Tick,
			LiquidityNet: net,
			Fee:          liquidity.NewV3Fee(fee),
		},
	}, nil
}

func decodeFixed18[T any](value decimal.Decimal, build func(*uint256.Int) (T, error)) (T, error) {
	raw, err := numeric.DecimalToFixed(value, numeric.Scale18)
	if err != nil {
		var zero T
		return zero, err
	}
	return build(raw)
}
