package dto

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"solverDriver/internal/competition"
	"solverDriver/internal/eth"
	"solverDriver/internal/tokens"
)

var (
	ErrInvalidAuctionID = errors.New("invalid auction id")
	ErrInvalidOrder     = errors.New("invalid order")
)

// TokenSource fills in token metadata the auction does not carry.
type TokenSource interface {
	Get(ctx context.Context, addresses []common.Address) map[common.Address]tokens.Metadata
}

// IntoDomain decodes the wire auction. Pools are not read from a.Liquidity:
// callers decode liquidity separately. source may be nil.
func (a Auction) IntoDomain(ctx context.Context, source TokenSource, timeouts competition.Timeouts, now time.Time) (*competition.Auction, error) {
	var id *competition.AuctionID
	if a.ID != nil {
		v, err := strconv.ParseInt(*a.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", *a.ID, ErrInvalidAuctionID)
		}
		auctionID := competition.AuctionID(v)
		id = &auctionID
	}

	var missing []common.Address
	for address, token := range a.Tokens {
		if token.Decimals == nil || token.Symbol == nil {
			missing = append(missing, address)
		}
	}
	var snapshot map[common.Address]tokens.Metadata
	if source != nil && len(missing) > 0 {
		snapshot = source.Get(ctx, missing)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch token metadata: %w", err)
	}

	domainTokens := make([]competition.Token, 0, len(a.Tokens))
	for address, token := range a.Tokens {
		domain := competition.Token{
			Address:          address,
			Decimals:         token.Decimals,
			Symbol:           token.Symbol,
			AvailableBalance: token.AvailableBalance.Int(),
			Trusted:          token.Trusted,
		}
		if meta, ok := snapshot[address]; ok {
			if domain.Decimals == nil {
				domain.Decimals = meta.Decimals
			}
			if domain.Symbol == nil {
				domain.Symbol = meta.Symbol
			}
		}
		if token.ReferencePrice != nil {
			domain.Price = token.ReferencePrice.Int()
		}
		domainTokens = append(domainTokens, domain)
	}

	orders := make([]competition.Order, 0, len(a.Orders))
	for i, order := range a.Orders {
		domain, err := order.intoDomain()
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
		orders = append(orders, domain)
	}

	deadline, err := timeouts.Deadline(a.Deadline, now)
	if err != nil {
		return nil, err
	}

	return competition.NewAuction(
		id,
		domainTokens,
		orders,
		competition.GasPrice{Effective: a.EffectiveGasPrice.Int()},
		deadline,
	)
}

func (o Order) intoDomain() (competition.Order, error) {
	uid, err := competition.NewUID(o.UID)
	if err != nil {
		return competition.Order{}, fmt.Errorf("%v: %w", err, ErrInvalidOrder)
	}
	if o.SellToken == o.BuyToken {
		return competition.Order{}, fmt.Errorf("order %s: %w", uid, eth.ErrSameToken)
	}

	var side competition.Side
	switch o.Kind {
	case OrderKindSell:
		side = competition.Sell
	case OrderKindBuy:
		side = competition.Buy
	default:
		return competition.Order{}, fmt.Errorf("order %s kind %q: %w", uid, o.Kind, ErrInvalidOrder)
	}

	var kind competition.Kind
	switch o.Class {
	case OrderClassMarket:
		kind = competition.Market
	case OrderClassLimit:
		kind = competition.Limit
	case OrderClassLiquidity:
		kind = competition.Liquidity
	default:
		return competition.Order{}, fmt.Errorf("order %s class %q: %w", uid, o.Class, ErrInvalidOrder)
	}

	return competition.Order{
		UID:     uid,
		Sell:    eth.NewAsset(o.SellToken, o.SellAmount.Int()),
		Buy:     eth.NewAsset(o.BuyToken, o.BuyAmount.Int()),
		Side:    side,
		Kind:    kind,
		Partial: o.PartiallyFillable,
		UserFee: o.FeeAmount.Int(),
	}, nil
}
