package api

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"solverDriver/internal/competition"
	"solverDriver/internal/eth"
	"solverDriver/internal/liquidity"
	"solverDriver/internal/numeric"
	"solverDriver/internal/solver/dto"
	"solverDriver/internal/tokens"
)

const (
	tokenA = "0x000000000000000000000000000000000000000a"
	tokenB = "0x000000000000000000000000000000000000000b"
	poolID = "0x5c6ee304399dbdb9c8ef030ab642b10820db8f56000200000000000000000014"
)

var (
	testNow  = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	testWeth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	vault    = common.HexToAddress("0x00000000000000000000000000000000000000fa")
)

func decodeList(t *testing.T, data string) dto.LiquidityList {
	t.Helper()
	var list dto.LiquidityList
	require.NoError(t, json.Unmarshal([]byte(data), &list))
	return list
}

func constantProductJSON(tokens string) string {
	return `{"kind":"constantProduct","id":"1","address":"0x0000000000000000000000000000000000000001","router":"0x0000000000000000000000000000000000000002","gasEstimate":"110000","tokens":` + tokens + `,"fee":"0.003"}`
}

func concentratedJSON(tokens, liquidity, net, fee string) string {
	return `{"kind":"concentratedLiquidity","id":"3","address":"0x0000000000000000000000000000000000000003","router":"0x0000000000000000000000000000000000000002","gasEstimate":"110000","tokens":` + tokens + `,"sqrtPrice":"79228162514264337593543950336","liquidity":"` + liquidity + `","tick":12,"liquidityNet":` + net + `,"fee":"` + fee + `"}`
}

func weightedJSON(weight, scale, fee string) string {
	return `{"kind":"weightedProduct","id":"4","address":"0x5c6ee304399dbdb9c8ef030ab642b10820db8f56","balancerPoolId":"` + poolID + `","gasEstimate":"88892","tokens":{"` + tokenA + `":{"balance":"10","scalingFactor":"` + scale + `","weight":"` + weight + `"},"` + tokenB + `":{"balance":"20","scalingFactor":"1","weight":"0.5"}},"fee":"` + fee + `","version":"v0"}`
}

func stableJSON(amp string) string {
	return `{"kind":"stable","id":"5","address":"0x5c6ee304399dbdb9c8ef030ab642b10820db8f56","balancerPoolId":"` + poolID + `","gasEstimate":"88892","tokens":{"` + tokenA + `":{"balance":"10","scalingFactor":"1000000000000"},"` + tokenB + `":{"balance":"20","scalingFactor":"1"}},"amplificationParameter":"` + amp + `","fee":"0.0004"}`
}

func assemble(t *testing.T, pools []liquidity.Liquidity) dto.Auction {
	t.Helper()
	auction, err := competition.NewAuction(nil, nil, nil, competition.GasPrice{}, competition.Deadline{})
	require.NoError(t, err)
	return dto.NewAuction(auction, pools, testWeth)
}

func TestDecodeConstantProduct(t *testing.T) {
	list := decodeList(t, `[`+constantProductJSON(`{"`+tokenB+`":{"balance":"2000"},"`+tokenA+`":{"balance":"1000"}}`)+`]`)
	pools, err := DecodeLiquidity(list, vault)
	require.NoError(t, err)
	require.Len(t, pools, 1)

	pool, ok := pools[0].Kind.(liquidity.UniswapV2)
	require.True(t, ok)
	first, second := pool.Reserves.Get()
	assert.Equal(t, common.HexToAddress(tokenA), first.Token)
	assert.Equal(t, uint64(1000), first.Amount.Uint64())
	assert.Equal(t, uint64(2000), second.Amount.Uint64())
	assert.Equal(t, uint64(110_000), pools[0].Gas.Uint64())

	wire := assemble(t, pools)
	assert.Equal(t, "0.003", wire.Liquidity[0].(dto.ConstantProductPool).Fee.String())
}

func TestDecodeConstantProductSingleReserve(t *testing.T) {
	list := decodeList(t, `[`+constantProductJSON(`{"`+tokenA+`":{"balance":"1000"}}`)+`]`)
	_, err := DecodeLiquidity(list, vault)

	var decodeErr *LiquidityDecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "constant product reserves", decodeErr.What)
	require.ErrorIs(t, err, liquidity.ErrReserveCount)
}

func TestDecodeConcentratedLiquidityTruncatesFee(t *testing.T) {
	list := decodeList(t, `[`+concentratedJSON(`["`+tokenB+`","`+tokenA+`"]`, "1000", `{"-10":"-170141183460469231731687303715884105728","10":"5"}`, "0.0005001")+`]`)
	pools, err := DecodeLiquidity(list, vault)
	require.NoError(t, err)

	pool := pools[0].Kind.(liquidity.UniswapV3)
	assert.Equal(t, uint32(500), pool.Fee.Millionths())
	assert.Equal(t, 0, pool.Fee.Rat().Cmp(big.NewRat(500, 1_000_000)))
	first, _ := pool.Tokens.Get()
	assert.Equal(t, common.HexToAddress(tokenA), first)
	assert.Equal(t, int32(12), pool.Tick)
	assert.Equal(t, "-170141183460469231731687303715884105728", pool.LiquidityNet[-10].String())

	wire := assemble(t, pools)
	assert.Equal(t, "0.0005", wire.Liquidity[0].(dto.ConcentratedLiquidityPool).Fee.String())
}

func TestDecodeConcentratedLiquidityErrors(t *testing.T) {
	pair := `["` + tokenA + `","` + tokenB + `"]`
	tests := []struct {
		name string
		json string
		what string
	}{
		{name: "same token", json: concentratedJSON(`["`+tokenA+`","`+tokenA+`"]`, "1", `{}`, "0.003"), what: "concentrated liquidity tokens"},
		{name: "three tokens", json: concentratedJSON(`["`+tokenA+`","`+tokenB+`","`+tokenB+`"]`, "1", `{}`, "0.003"), what: "concentrated liquidity tokens"},
		{name: "liquidity above u128", json: concentratedJSON(pair, "340282366920938463463374607431768211456", `{}`, "0.003"), what: "concentrated liquidity"},
		{name: "net above i128", json: concentratedJSON(pair, "1", `{"1":"170141183460469231731687303715884105728"}`, "0.003"), what: "concentrated liquidity net"},
		{name: "negative fee", json: concentratedJSON(pair, "1", `{}`, "-0.003"), what: "concentrated liquidity fee"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLiquidity(decodeList(t, `[`+tt.json+`]`), vault)
			var decodeErr *LiquidityDecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, tt.what, decodeErr.What)
		})
	}
}

func TestDecodeWeightedProductRoundTrip(t *testing.T) {
	pools, err := DecodeLiquidity(decodeList(t, `[`+weightedJSON("0.5", "1", "0.003")+`]`), vault)
	require.NoError(t, err)

	pool := pools[0].Kind.(liquidity.BalancerV2Weighted)
	assert.Equal(t, vault, pool.Vault)
	assert.Equal(t, common.HexToHash(poolID), pool.ID)
	assert.Equal(t, liquidity.WeightedV0, pool.Version)
	assert.Equal(t, "3000000000000000", pool.Fee.Raw().Dec())

	wire := assemble(t, pools).Liquidity[0].(dto.WeightedProductPool)
	assert.Equal(t, "0.003", wire.Fee.String())
	assert.Equal(t, "0.5", wire.Tokens[common.HexToAddress(tokenA)].Weight.String())
	assert.Equal(t, "1", wire.Tokens[common.HexToAddress(tokenA)].ScalingFactor.String())
	assert.Equal(t, dto.WeightedProductV0, wire.Version)
}

func TestDecodeWeightedProductErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
		what string
		err  error
	}{
		{name: "zero weight", json: weightedJSON("0", "1", "0.003"), what: "weighted product reserves", err: liquidity.ErrInvalidValue},
		{name: "scale not a power of ten", json: weightedJSON("0.5", "2", "0.003"), what: "weighted product reserves", err: liquidity.ErrInvalidValue},
		{name: "weight overflow", json: weightedJSON("1e80", "1", "0.003"), what: "weighted product reserves", err: numeric.ErrOverflow},
		{name: "fee above one", json: weightedJSON("0.5", "1", "1.5"), what: "weighted product fee", err: liquidity.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLiquidity(decodeList(t, `[`+tt.json+`]`), vault)
			var decodeErr *LiquidityDecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, tt.what, decodeErr.What)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDecodeStableRoundTrip(t *testing.T) {
	pools, err := DecodeLiquidity(decodeList(t, `[`+stableJSON("200")+`]`), vault)
	require.NoError(t, err)

	pool := pools[0].Kind.(liquidity.BalancerV2Stable)
	assert.Equal(t, uint64(200_000), pool.AmplificationParameter.Factor().Uint64())
	assert.Equal(t, numeric.AmpPrecision, pool.AmplificationParameter.Precision().Uint64())

	wire := assemble(t, pools).Liquidity[0].(dto.StablePool)
	assert.Equal(t, "200", wire.AmplificationParameter.String())
	assert.Equal(t, "0.0004", wire.Fee.String())
	assert.Equal(t, "1000000000000", wire.Tokens[common.HexToAddress(tokenA)].ScalingFactor.String())

	_, err = DecodeLiquidity(decodeList(t, `[`+stableJSON("0")+`]`), vault)
	var decodeErr *LiquidityDecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "stable amplification parameter", decodeErr.What)
}

func TestDecodeTruncatesExcessPrecision(t *testing.T) {
	pools, err := DecodeLiquidity(decodeList(t, `[`+weightedJSON("0.5000000000000000009", "1", "0.0030000000000000001")+`]`), vault)
	require.NoError(t, err)
	weighted := pools[0].Kind.(liquidity.BalancerV2Weighted)
	assert.Equal(t, "3000000000000000", weighted.Fee.Raw().Dec())
	assert.Equal(t, "500000000000000000", weighted.Reserves.All()[0].Weight.Raw().Dec())

	pools, err = DecodeLiquidity(decodeList(t, `[`+stableJSON("200.0005")+`]`), vault)
	require.NoError(t, err)
	amp := pools[0].Kind.(liquidity.BalancerV2Stable).AmplificationParameter
	assert.Equal(t, uint64(200_000), amp.Factor().Uint64())
	assert.Equal(t, "200", assemble(t, pools).Liquidity[0].(dto.StablePool).AmplificationParameter.String())
}

func TestDecodeLimitOrderAlwaysFails(t *testing.T) {
	for _, payload := range []string{
		`{"kind":"limitOrder"}`,
		`{"kind":"limitOrder","id":"1","address":"0x0000000000000000000000000000000000000001","gasEstimate":"1","hash":"0x` + poolID[2:] + `","makerToken":"` + tokenA + `","takerToken":"` + tokenB + `","makerAmount":"1","takerAmount":"1","takerTokenFeeAmount":"0"}`,
		`{"kind":"limitOrder","makerAmount":{"nested":true}}`,
	} {
		_, err := DecodeLiquidity(decodeList(t, `[`+payload+`]`), vault)
		require.ErrorIs(t, err, ErrUnsupportedLiquidity)
	}
}

type countingSource struct {
	calls int
}

func (c *countingSource) Get(context.Context, []common.Address) map[common.Address]tokens.Metadata {
	c.calls++
	return nil
}

func TestGasRequestFailsFastOnLiquidity(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	source := &countingSource{}
	state := &State{Tokens: source, Vault: vault, Weth: testWeth, Now: func() time.Time { return testNow }}

	req := GasRequest{
		Liquidity: decodeList(t, `[`+constantProductJSON(`{"`+tokenA+`":{"balance":"1"},"`+tokenB+`":{"balance":"1"}}`)+`,{"kind":"limitOrder"}]`),
		Auction: dto.Auction{
			Tokens:   map[common.Address]dto.Token{common.HexToAddress(tokenA): {}},
			Deadline: testNow.Add(-time.Hour),
		},
	}
	_, _, err := req.IntoDomain(context.Background(), state, zap.New(core))
	require.ErrorIs(t, err, ErrLiquidity)
	assert.Zero(t, source.calls)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "zeroex limit orders not implemented", logs.All()[0].ContextMap()["what"])
}

func TestGasRequestAuctionError(t *testing.T) {
	state := &State{Vault: vault, Weth: testWeth, Now: func() time.Time { return testNow }}
	req := GasRequest{Auction: dto.Auction{Deadline: testNow.Add(-time.Hour)}}

	_, _, err := req.IntoDomain(context.Background(), state, nil)
	require.ErrorIs(t, err, ErrEncodeAuction)
}

func TestGasRequestSolutionError(t *testing.T) {
	state := &State{Vault: vault, Weth: testWeth, Now: func() time.Time { return testNow }}
	var solutions dto.Solutions
	require.NoError(t, json.Unmarshal([]byte(`{"solutions":[{"id":1,"prices":{},"trades":[{"kind":"fulfillment","order":"0x01","executedAmount":"1"}],"interactions":[]}]}`), &solutions))
	req := GasRequest{
		Solutions: solutions,
		Auction:   dto.Auction{Deadline: testNow.Add(time.Hour)},
	}

	_, _, err := req.IntoDomain(context.Background(), state, nil)
	require.ErrorIs(t, err, ErrEncodeSolution)
}

func TestDecodedPoolsCarryVault(t *testing.T) {
	other := eth.DefaultBalancerVault
	pools, err := DecodeLiquidity(decodeList(t, `[`+stableJSON("200")+`]`), other)
	require.NoError(t, err)
	assert.Equal(t, other, pools[0].Kind.(liquidity.BalancerV2Stable).Vault)
}
