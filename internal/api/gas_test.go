package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solverDriver/internal/competition"
	"solverDriver/internal/observe"
)

type fakeEstimator struct {
	mu        sync.Mutex
	calls     int
	auction   *competition.Auction
	solutions []competition.Solution
	estimates []competition.GasEstimate
	err       error
	panics    bool
}

func (f *fakeEstimator) EstimateGas(_ context.Context, auction *competition.Auction, solutions []competition.Solution) ([]competition.GasEstimate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.auction = auction
	f.solutions = solutions
	if f.panics {
		panic("estimator exploded")
	}
	return f.estimates, f.err
}

func requestJSON(liquidity string) string {
	return `{
		"solutions": {"solutions": []},
		"auction": {
			"id": "42",
			"tokens": {
				"` + tokenA + `": {"decimals": 18, "symbol": "A", "availableBalance": "0", "trusted": true},
				"` + tokenB + `": {"decimals": 6, "symbol": "B", "availableBalance": "0", "trusted": false}
			},
			"orders": [],
			"liquidity": [],
			"effectiveGasPrice": "1000",
			"deadline": "2026-01-01T12:00:30Z"
		},
		"liquidity": ` + liquidity + `
	}`
}

func validLiquidity() string {
	return `[` + constantProductJSON(`{"`+tokenA+`":{"balance":"1000"},"`+tokenB+`":{"balance":"2000"}}`) + `]`
}

func newTestServer(t *testing.T, estimator *fakeEstimator) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	state := &State{
		Solver:    competition.Solver{Name: "test-solver"},
		Weth:      testWeth,
		Vault:     vault,
		Estimator: estimator,
		Metrics:   observe.NewMetrics(reg),
		Now:       func() time.Time { return testNow },
	}
	srv := httptest.NewServer(NewRouter(state, reg))
	t.Cleanup(srv.Close)
	return srv, reg
}

func post(t *testing.T, srv *httptest.Server, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/gas", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func errorBody(t *testing.T, body string) Error {
	t.Helper()
	var e Error
	require.NoError(t, json.Unmarshal([]byte(body), &e))
	return e
}

func TestGasReturnsPairsInOrder(t *testing.T) {
	estimator := &fakeEstimator{estimates: []competition.GasEstimate{
		{SolutionID: 7, Gas: uint256.NewInt(21_000), Success: true, Message: "ok"},
		{SolutionID: 9, Gas: new(uint256.Int), Success: false, Message: "revert"},
	}}
	srv, _ := newTestServer(t, estimator)

	status, body := post(t, srv, requestJSON(validLiquidity()))
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"gasEstimates":[[7,{"gas":"21000","success":true,"message":"ok"}],[9,{"gas":"0","success":false,"message":"revert"}]]}`, body)

	require.Equal(t, 1, estimator.calls)
	require.NotNil(t, estimator.auction.ID())
	assert.Equal(t, competition.AuctionID(42), *estimator.auction.ID())
	assert.Empty(t, estimator.solutions)
}

func TestGasKeepsDuplicateSolutionIDs(t *testing.T) {
	estimator := &fakeEstimator{estimates: []competition.GasEstimate{
		{SolutionID: 3, Gas: uint256.NewInt(1), Success: true},
		{SolutionID: 3, Gas: uint256.NewInt(2), Success: true},
	}}
	srv, _ := newTestServer(t, estimator)

	status, body := post(t, srv, requestJSON(validLiquidity()))
	require.Equal(t, http.StatusOK, status)

	var resp GasResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.Len(t, resp.GasEstimates, 2)
	assert.Equal(t, "1", resp.GasEstimates[0].Result.Gas.Int().Dec())
	assert.Equal(t, "2", resp.GasEstimates[1].Result.Gas.Int().Dec())
}

func TestGasEmptyEstimates(t *testing.T) {
	srv, _ := newTestServer(t, &fakeEstimator{})

	status, body := post(t, srv, requestJSON(`[]`))
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"gasEstimates":[]}`, body)
}

func TestGasRejectsBadLiquidity(t *testing.T) {
	tests := []struct {
		name      string
		liquidity string
	}{
		{name: "single reserve", liquidity: `[` + constantProductJSON(`{"`+tokenA+`":{"balance":"1000"}}`) + `]`},
		{name: "limit order", liquidity: `[{"kind":"limitOrder"}]`},
		{name: "limit order after valid pool", liquidity: `[` + constantProductJSON(`{"`+tokenA+`":{"balance":"1"},"`+tokenB+`":{"balance":"1"}}`) + `,{"kind":"limitOrder"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			estimator := &fakeEstimator{}
			srv, _ := newTestServer(t, estimator)

			status, body := post(t, srv, requestJSON(tt.liquidity))
			require.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, Error{Kind: KindLiquidity, Description: "error parsing liquidity"}, errorBody(t, body))
			assert.Zero(t, estimator.calls)
		})
	}
}

func TestGasRejectsBadAuction(t *testing.T) {
	estimator := &fakeEstimator{}
	srv, _ := newTestServer(t, estimator)

	body := strings.Replace(requestJSON(validLiquidity()), `"id": "42"`, `"id": "forty-two"`, 1)
	status, resp := post(t, srv, body)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, KindEncodeAuction, errorBody(t, resp).Kind)
	assert.Zero(t, estimator.calls)
}

func TestGasRejectsBadSolutions(t *testing.T) {
	estimator := &fakeEstimator{}
	srv, _ := newTestServer(t, estimator)

	body := strings.Replace(requestJSON(validLiquidity()), `{"solutions": []}`,
		`{"solutions": [{"id": 1, "prices": {}, "trades": [{"kind": "fulfillment", "order": "0x01", "executedAmount": "1"}], "interactions": []}]}`, 1)
	status, resp := post(t, srv, body)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, KindEncodeSolution, errorBody(t, resp).Kind)
	assert.Zero(t, estimator.calls)
}

func TestGasRejectsMalformedBody(t *testing.T) {
	estimator := &fakeEstimator{}
	srv, _ := newTestServer(t, estimator)

	tooWide := `[` + constantProductJSON(`{"`+tokenA+`":{"balance":"115792089237316195423570985008687907853269984665640564039457584007913129639936"},"`+tokenB+`":{"balance":"1"}}`) + `]`
	for _, body := range []string{`{`, `[]`, requestJSON(`[{"kind":"orderbook"}]`), requestJSON(tooWide)} {
		status, resp := post(t, srv, body)
		require.Equal(t, http.StatusBadRequest, status, body)
		assert.Equal(t, KindInvalidRequest, errorBody(t, resp).Kind)
	}
	assert.Zero(t, estimator.calls)
}

func TestGasEstimatorFailure(t *testing.T) {
	srv, _ := newTestServer(t, &fakeEstimator{err: errors.New("node unreachable")})

	status, body := post(t, srv, requestJSON(validLiquidity()))
	require.Equal(t, http.StatusInternalServerError, status)
	e := errorBody(t, body)
	assert.Equal(t, KindGasEstimationError, e.Kind)
	assert.NotContains(t, e.Description, "node unreachable")
}

func TestGasRecoversFromPanic(t *testing.T) {
	srv, _ := newTestServer(t, &fakeEstimator{panics: true})

	status, _ := post(t, srv, requestJSON(validLiquidity()))
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestHealthzAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &fakeEstimator{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	post(t, srv, requestJSON(validLiquidity()))
	post(t, srv, requestJSON(`[{"kind":"limitOrder"}]`))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	metrics := string(data)
	assert.Contains(t, metrics, `driver_gas_requests_total{outcome="ok"} 1`)
	assert.Contains(t, metrics, `driver_gas_requests_total{outcome="decode_error"} 1`)
	assert.Contains(t, metrics, `driver_invalid_dto_total{what="zeroex limit orders not implemented"} 1`)
}

func TestRouterWithoutGatherer(t *testing.T) {
	srv := httptest.NewServer(NewRouter(&State{}, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
