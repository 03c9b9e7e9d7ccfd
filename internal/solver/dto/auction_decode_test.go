package dto

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solverDriver/internal/competition"
	"solverDriver/internal/eth"
	"solverDriver/internal/tokens"
)

var now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

var timeouts = competition.Timeouts{HTTPDelay: time.Second, SolvingShare: 0.5}

type fakeSource struct {
	requested []common.Address
	meta      map[common.Address]tokens.Metadata
}

func (f *fakeSource) Get(_ context.Context, addresses []common.Address) map[common.Address]tokens.Metadata {
	f.requested = append(f.requested, addresses...)
	out := make(map[common.Address]tokens.Metadata)
	for _, address := range addresses {
		if meta, ok := f.meta[address]; ok {
			out[address] = meta
		}
	}
	return out
}

func uidHex(b byte) string {
	return "0x" + strings.Repeat("0", 110) + string("0123456789abcdef"[b>>4]) + string("0123456789abcdef"[b&0xf])
}

func wireAuction(t *testing.T, orders string) Auction {
	t.Helper()
	data := `{
		"id": "1337",
		"tokens": {
			"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48": {"decimals": 6, "symbol": "USDC", "referencePrice": "500000000", "availableBalance": "10", "trusted": true},
			"0x6B175474E89094C44Da98b954EedeAC495271d0F": {"availableBalance": "0", "trusted": false}
		},
		"orders": ` + orders + `,
		"liquidity": [],
		"effectiveGasPrice": "15000000000",
		"deadline": "2026-01-01T12:00:11Z"
	}`
	var auction Auction
	require.NoError(t, json.Unmarshal([]byte(data), &auction))
	return auction
}

func sellOrderJSON(uid string) string {
	return `{"uid":"` + uid + `","sellToken":"0x6B175474E89094C44Da98b954EedeAC495271d0F","buyToken":"0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE","sellAmount":"1000","buyAmount":"1","feeAmount":"3","kind":"sell","partiallyFillable":false,"class":"market"}`
}

func TestAuctionIntoDomain(t *testing.T) {
	decimals := uint8(18)
	symbol := "DAI"
	source := &fakeSource{meta: map[common.Address]tokens.Metadata{dai: {Decimals: &decimals, Symbol: &symbol}}}
	wire := wireAuction(t, `[`+sellOrderJSON(uidHex(1))+`]`)

	auction, err := wire.IntoDomain(context.Background(), source, timeouts, now)
	require.NoError(t, err)

	require.NotNil(t, auction.ID())
	assert.Equal(t, competition.AuctionID(1337), *auction.ID())
	assert.Equal(t, []common.Address{dai}, source.requested)

	daiToken, ok := auction.Token(dai)
	require.True(t, ok)
	assert.Equal(t, "DAI", *daiToken.Symbol)
	assert.Nil(t, daiToken.Price)
	usdcToken, ok := auction.Token(usdc)
	require.True(t, ok)
	assert.Equal(t, uint64(500_000_000), usdcToken.Price.Uint64())

	assert.Equal(t, now.Add(10*time.Second), auction.Deadline().Driver())
	assert.Equal(t, now.Add(5*time.Second), auction.Deadline().Solvers())
	assert.Equal(t, uint64(15_000_000_000), auction.GasPrice().Effective.Uint64())

	orders := auction.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, competition.Sell, orders[0].Side)
	assert.Equal(t, competition.Market, orders[0].Kind)
	assert.Equal(t, eth.ETH, orders[0].Buy.Token)
	assert.Equal(t, uint64(3), orders[0].UserFee.Uint64())
}

func TestAuctionIntoDomainWithoutSource(t *testing.T) {
	auction, err := wireAuction(t, `[]`).IntoDomain(context.Background(), nil, timeouts, now)
	require.NoError(t, err)
	daiToken, ok := auction.Token(dai)
	require.True(t, ok)
	assert.Nil(t, daiToken.Decimals)
}

func TestAuctionIntoDomainErrors(t *testing.T) {
	t.Run("short uid", func(t *testing.T) {
		_, err := wireAuction(t, `[`+sellOrderJSON("0x0102")+`]`).IntoDomain(context.Background(), nil, timeouts, now)
		require.ErrorIs(t, err, ErrInvalidOrder)
	})

	t.Run("same token", func(t *testing.T) {
		order := strings.Replace(sellOrderJSON(uidHex(1)), "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE", "0x6B175474E89094C44Da98b954EedeAC495271d0F", 1)
		_, err := wireAuction(t, `[`+order+`]`).IntoDomain(context.Background(), nil, timeouts, now)
		require.ErrorIs(t, err, eth.ErrSameToken)
	})

	t.Run("unknown class", func(t *testing.T) {
		order := strings.Replace(sellOrderJSON(uidHex(1)), `"market"`, `"twap"`, 1)
		_, err := wireAuction(t, `[`+order+`]`).IntoDomain(context.Background(), nil, timeouts, now)
		require.ErrorIs(t, err, ErrInvalidOrder)
	})

	t.Run("duplicate uid", func(t *testing.T) {
		orders := `[` + sellOrderJSON(uidHex(1)) + `,` + sellOrderJSON(uidHex(1)) + `]`
		_, err := wireAuction(t, orders).IntoDomain(context.Background(), nil, timeouts, now)
		require.ErrorIs(t, err, competition.ErrDuplicateOrder)
	})

	t.Run("deadline passed", func(t *testing.T) {
		_, err := wireAuction(t, `[]`).IntoDomain(context.Background(), nil, timeouts, now.Add(time.Minute))
		require.ErrorIs(t, err, competition.ErrDeadlineExceeded)
	})

	t.Run("bad id", func(t *testing.T) {
		wire := wireAuction(t, `[]`)
		id := "latest"
		wire.ID = &id
		_, err := wire.IntoDomain(context.Background(), nil, timeouts, now)
		require.ErrorIs(t, err, ErrInvalidAuctionID)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := wireAuction(t, `[]`).IntoDomain(ctx, &fakeSource{}, timeouts, now)
		require.ErrorIs(t, err, context.Canceled)
	})
}
