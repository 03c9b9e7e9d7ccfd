package dto

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const (
	KindConstantProduct       = "constantProduct"
	KindWeightedProduct       = "weightedProduct"
	KindStable                = "stable"
	KindConcentratedLiquidity = "concentratedLiquidity"
	KindLimitOrder            = "limitOrder"
)

// Liquidity is one of the wire pool payloads, tagged by "kind".
//
//sumtype:decl
type Liquidity interface {
	LiquidityKind() string
}

// LiquidityList decodes the tagged liquidity union.
type LiquidityList []Liquidity

func (l *LiquidityList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(LiquidityList, 0, len(raw))
	for i, entry := range raw {
		var tag struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(entry, &tag); err != nil {
			return fmt.Errorf("liquidity %d: %w", i, err)
		}

		var (
			item Liquidity
			err  error
		)
		switch tag.Kind {
		case KindConstantProduct:
			var pool ConstantProductPool
			err = json.Unmarshal(entry, &pool)
			item = pool
		case KindWeightedProduct:
			var pool WeightedProductPool
			err = json.Unmarshal(entry, &pool)
			item = pool
		case KindStable:
			var pool StablePool
			err = json.Unmarshal(entry, &pool)
			item = pool
		case KindConcentratedLiquidity:
			var pool ConcentratedLiquidityPool
			err = json.Unmarshal(entry, &pool)
			item = pool
		case KindLimitOrder:
			// Kept even when malformed; limit orders are rejected later anyway.
			var order ForeignLimitOrder
			if json.Unmarshal(entry, &order) != nil {
				order = ForeignLimitOrder{}
			}
			order.Raw = append(json.RawMessage(nil), entry...)
			item = order
		default:
			return fmt.Errorf("liquidity %d: unknown kind %q", i, tag.Kind)
		}
		if err != nil {
			return fmt.Errorf("liquidity %d (%s): %w", i, tag.Kind, err)
		}
		out = append(out, item)
	}
	*l = out
	return nil
}

type ConstantProductPool struct {
	ID          StringUint                                `json:"id"`
	Address     common.Address                            `json:"address"`
	Router      common.Address                            `json:"router"`
	GasEstimate U256                                      `json:"gasEstimate"`
	Tokens      map[common.Address]ConstantProductReserve `json:"tokens"`
	Fee         decimal.Decimal                           `json:"fee"`
}

type ConstantProductReserve struct {
	Balance U256 `json:"balance"`
}

func (ConstantProductPool) LiquidityKind() string { return KindConstantProduct }

func (p ConstantProductPool) MarshalJSON() ([]byte, error) {
	type alias ConstantProductPool
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{KindConstantProduct, alias(p)})
}

// WeightedProductVersion selects the weighted pool math on the wire.
type WeightedProductVersion string

const (
	WeightedProductV0     WeightedProductVersion = "v0"
	WeightedProductV3Plus WeightedProductVersion = "v3Plus"
)

type WeightedProductPool struct {
	ID             StringUint                                `json:"id"`
	Address        common.Address                            `json:"address"`
	BalancerPoolID common.Hash                               `json:"balancerPoolId"`
	GasEstimate    U256                                      `json:"gasEstimate"`
	Tokens         map[common.Address]WeightedProductReserve `json:"tokens"`
	Fee            decimal.Decimal                           `json:"fee"`
	Version        WeightedProductVersion                    `json:"version"`
}

type WeightedProductReserve struct {
	Balance       U256            `json:"balance"`
	ScalingFactor decimal.Decimal `json:"scalingFactor"`
	Weight        decimal.Decimal `json:"weight"`
}

func (WeightedProductPool) LiquidityKind() string { return KindWeightedProduct }

func (p WeightedProductPool) MarshalJSON() ([]byte, error) {
	type alias WeightedProductPool
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{KindWeightedProduct, alias(p)})
}

type StablePool struct {
	ID                     StringUint                       `json:"id"`
	Address                common.Address                   `json:"address"`
	BalancerPoolID         common.Hash                      `json:"balancerPoolId"`
	GasEstimate            U256                             `json:"gasEstimate"`
	Tokens                 map[common.Address]StableReserve `json:"tokens"`
	AmplificationParameter decimal.Decimal                  `json:"amplificationParameter"`
	Fee                    decimal.Decimal                  `json:"fee"`
}

type StableReserve struct {
	Balance       U256            `json:"balance"`
	ScalingFactor decimal.Decimal `json:"scalingFactor"`
}

func (StablePool) LiquidityKind() string { return KindStable }

func (p StablePool) MarshalJSON() ([]byte, error) {
	type alias StablePool
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{KindStable, alias(p)})
}

type ConcentratedLiquidityPool struct {
	ID           StringUint       `json:"id"`
	Address      common.Address   `json:"address"`
	Router       common.Address   `json:"router"`
	GasEstimate  U256             `json:"gasEstimate"`
	Tokens       []common.Address `json:"tokens"`
	SqrtPrice    U256             `json:"sqrtPrice"`
	Liquidity    U256             `json:"liquidity"`
	Tick         int32            `json:"tick"`
	LiquidityNet map[int32]BigInt `json:"liquidityNet"`
	Fee          decimal.Decimal  `json:"fee"`
}

func (ConcentratedLiquidityPool) LiquidityKind() string { return KindConcentratedLiquidity }

func (p ConcentratedLiquidityPool) MarshalJSON() ([]byte, error) {
	type alias ConcentratedLiquidityPool
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{KindConcentratedLiquidity, alias(p)})
}

// ForeignLimitOrder is a 0x limit order. The driver does not support it.
type ForeignLimitOrder struct {
	ID                  StringUint      `json:"id"`
	Address             common.Address  `json:"address"`
	GasEstimate         U256            `json:"gasEstimate"`
	Hash                common.Hash     `json:"hash"`
	MakerToken          common.Address  `json:"makerToken"`
	TakerToken          common.Address  `json:"takerToken"`
	MakerAmount         U256            `json:"makerAmount"`
	TakerAmount         U256            `json:"takerAmount"`
	TakerTokenFeeAmount U256            `json:"takerTokenFeeAmount"`
	Raw                 json.RawMessage `json:"-"`
}

func (ForeignLimitOrder) LiquidityKind() string { return KindLimitOrder }

func (o ForeignLimitOrder) MarshalJSON() ([]byte, error) {
	type alias ForeignLimitOrder
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{KindLimitOrder, alias(o)})
}
