// Package dto is the wire format spoken with solver engines.
package dto

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"solverDriver/internal/competition"
	"solverDriver/internal/liquidity"
	"solverDriver/internal/numeric"
)

// uniswapV2Fee is the fixed 0.3% Uniswap V2 swap fee.
var uniswapV2Fee = decimal.New(3, -3)

// Auction is the auction as sent to and received from solver engines.
type Auction struct {
	ID                *string                  `json:"id"`
	Tokens            map[common.Address]Token `json:"tokens"`
	Orders            []Order                  `json:"orders"`
	Liquidity         LiquidityList            `json:"liquidity"`
	EffectiveGasPrice U256                     `json:"effectiveGasPrice"`
	Deadline          time.Time                `json:"deadline"`
}

type Token struct {
	Decimals         *uint8  `json:"decimals"`
	Symbol           *string `json:"symbol"`
	ReferencePrice   *U256   `json:"referencePrice"`
	AvailableBalance U256    `json:"availableBalance"`
	Trusted          bool    `json:"trusted"`
}

type OrderKind string

const (
	OrderKindSell OrderKind = "sell"
	OrderKindBuy  OrderKind = "buy"
)

type OrderClass string

const (
	OrderClassMarket    OrderClass = "market"
	OrderClassLimit     OrderClass = "limit"
	OrderClassLiquidity OrderClass = "liquidity"
)

type Order struct {
	UID               hexutil.Bytes  `json:"uid"`
	SellToken         common.Address `json:"sellToken"`
	BuyToken          common.Address `json:"buyToken"`
	SellAmount        U256           `json:"sellAmount"`
	BuyAmount         U256           `json:"buyAmount"`
	FeeAmount         U256           `json:"feeAmount"`
	Kind              OrderKind      `json:"kind"`
	PartiallyFillable bool           `json:"partiallyFillable"`
	Class             OrderClass     `json:"class"`
}

// NewAuction projects auction and the liquidity available for it into the
// wire auction. Every token a pool trades gets an entry in Tokens, default
// valued if the auction does not know it.
func NewAuction(auction *competition.Auction, pools []liquidity.Liquidity, weth common.Address) Auction {
	tokens := make(map[common.Address]Token)
	for _, token := range auction.Tokens() {
		wire := Token{
			Decimals:         token.Decimals,
			Symbol:           token.Symbol,
			AvailableBalance: NewU256(token.AvailableBalance),
			Trusted:          token.Trusted,
		}
		if token.Price != nil {
			price := NewU256(token.Price)
			wire.ReferencePrice = &price
		}
		tokens[token.Address] = wire
	}

	for _, pool := range pools {
		for _, token := range poolTokens(pool.Kind) {
			if _, ok := tokens[token]; !ok {
				tokens[token] = Token{}
			}
		}
	}

	orders := make([]Order, 0, len(auction.Orders()))
	for _, order := range auction.Orders() {
		available := order.Available(weth)
		orders = append(orders, Order{
			UID:               append(hexutil.Bytes(nil), order.UID[:]...),
			SellToken:         available.Sell.Token,
			BuyToken:          available.Buy.Token,
			SellAmount:        NewU256(available.Sell.Amount),
			BuyAmount:         NewU256(available.Buy.Amount),
			FeeAmount:         NewU256(available.UserFee),
			Kind:              orderKind(order.Side),
			PartiallyFillable: order.IsPartial(),
			Class:             orderClass(order.Kind),
		})
	}

	wirePools := make(LiquidityList, 0, len(pools))
	for _, pool := range pools {
		wirePools = append(wirePools, newLiquidity(pool))
	}

	var id *string
	if auction.ID() != nil {
		s := auction.ID().String()
		id = &s
	}

	return Auction{
		ID:                id,
		Tokens:            tokens,
		Orders:            orders,
		Liquidity:         wirePools,
		EffectiveGasPrice: NewU256(auction.GasPrice().Effective),
		Deadline:          auction.Deadline().Solvers(),
	}
}

func poolTokens(kind liquidity.Kind) []common.Address {
	switch pool := kind.(type) {
	case liquidity.UniswapV2:
		first, second := pool.Reserves.Get()
		return []common.Address{first.Token, second.Token}
	case liquidity.Swapr:
		first, second := pool.Base.Reserves.Get()
		return []common.Address{first.Token, second.Token}
	case liquidity.UniswapV3:
		first, second := pool.Tokens.Get()
		return []common.Address{first, second}
	case liquidity.BalancerV2Weighted:
		return pool.Reserves.Tokens()
	case liquidity.BalancerV2Stable:
		return pool.Reserves.Tokens()
	case liquidity.ZeroEx:
		panic("zeroex liquidity cannot be sent to solvers")
	default:
		panic(fmt.Sprintf("unhandled liquidity kind %T", kind))
	}
}

func newLiquidity(l liquidity.Liquidity) Liquidity {
	switch pool := l.Kind.(type) {
	case liquidity.UniswapV2:
		return newConstantProduct(l, pool, uniswapV2Fee)
	case liquidity.Swapr:
		return newConstantProduct(l, pool.Base, decimal.New(int64(pool.FeeBps), -numeric.BpsDigits))
	case liquidity.UniswapV3:
		first, second := pool.Tokens.Get()
		net := make(map[int32]BigInt, len(pool.LiquidityNet))
		for tick, value := range pool.LiquidityNet {
			net[tick] = BigInt{Int: value}
		}
		return ConcentratedLiquidityPool{
			ID:           StringUint(l.ID),
			Address:      pool.Address,
			Router:       pool.Router,
			GasEstimate:  NewU256(l.Gas),
			Tokens:       []common.Address{first, second},
			SqrtPrice:    NewU256(pool.SqrtPrice),
			Liquidity:    NewU256(pool.Liquidity),
			Tick:         pool.Tick,
			LiquidityNet: net,
			Fee:          numeric.RatToDecimal(pool.Fee.Rat()),
		}
	case liquidity.BalancerV2Weighted:
		tokens := make(map[common.Address]WeightedProductReserve)
		for _, r := range pool.Reserves.All() {
			tokens[r.Asset.Token] = WeightedProductReserve{
				Balance:       NewU256(r.Asset.Amount),
				ScalingFactor: numeric.FixedToDecimal(r.Scale.Raw(), numeric.Scale18),
				Weight:        numeric.FixedToDecimal(r.Weight.Raw(), numeric.Scale18),
			}
		}
		return WeightedProductPool{
			ID:             StringUint(l.ID),
			Address:        liquidity.PoolAddress(pool.ID),
			BalancerPoolID: pool.ID,
			GasEstimate:    NewU256(l.Gas),
			Tokens:         tokens,
			Fee:            numeric.FixedToDecimal(pool.Fee.Raw(), numeric.Scale18),
			Version:        weightedVersion(pool.Version),
		}
	case liquidity.BalancerV2Stable:
		tokens := make(map[common.Address]StableReserve)
		for _, r := range pool.Reserves.All() {
			tokens[r.Asset.Token] = StableReserve{
				Balance:       NewU256(r.Asset.Amount),
				ScalingFactor: numeric.FixedToDecimal(r.Scale.Raw(), numeric.Scale18),
			}
		}
		amp := pool.AmplificationParameter
		return StablePool{
			ID:                     StringUint(l.ID),
			Address:                liquidity.PoolAddress(pool.ID),
			BalancerPoolID:         pool.ID,
			GasEstimate:            NewU256(l.Gas),
			Tokens:                 tokens,
			AmplificationParameter: numeric.RatioToDecimal(amp.Factor(), amp.Precision()),
			Fee:                    numeric.FixedToDecimal(pool.Fee.Raw(), numeric.Scale18),
		}
	case liquidity.ZeroEx:
		panic("zeroex liquidity cannot be sent to solvers")
	default:
		panic(fmt.Sprintf("unhandled liquidity kind %T", l.Kind))
	}
}

func newConstantProduct(l liquidity.Liquidity, pool liquidity.UniswapV2, fee decimal.Decimal) ConstantProductPool {
	tokens := make(map[common.Address]ConstantProductReserve, 2)
	for _, asset := range pool.Reserves.Assets() {
		tokens[asset.Token] = ConstantProductReserve{Balance: NewU256(asset.Amount)}
	}
	return ConstantProductPool{
		ID:          StringUint(l.ID),
		Address:     pool.Address,
		Router:      pool.Router,
		GasEstimate: NewU256(l.Gas),
		Tokens:      tokens,
		Fee:         fee,
	}
}

func weightedVersion(v liquidity.WeightedVersion) WeightedProductVersion {
	switch v {
	case liquidity.WeightedV0:
		return WeightedProductV0
	case liquidity.WeightedV3Plus:
		return WeightedProductV3Plus
	default:
		panic(fmt.Sprintf("unhandled weighted pool version %d", v))
	}
}

func orderKind(side competition.Side) OrderKind {
	switch side {
	case competition.Sell:
		return OrderKindSell
	case competition.Buy:
		return OrderKindBuy
	default:
		panic(fmt.Sprintf("unhandled order side %s", side))
	}
}

func orderClass(kind competition.Kind) OrderClass {
	switch kind {
	case competition.Market:
		return OrderClassMarket
	case competition.Limit:
		return OrderClassLimit
	case competition.Liquidity:
		return OrderClassLiquidity
	default:
		panic(fmt.Sprintf("unhandled order kind %s", kind))
	}
}
