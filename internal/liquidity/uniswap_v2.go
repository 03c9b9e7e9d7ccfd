package liquidity

import (
	"github.com/ethereum/go-ethereum/common"

	"solverDriver/internal/eth"
)

// UniswapV2Reserves holds the two reserves of a constant product pool
// ordered by token address.
type UniswapV2Reserves struct {
	first  eth.Asset
	second eth.Asset
}

// NewUniswapV2Reserves fails if both assets are the same token.
func NewUniswapV2Reserves(a, b eth.Asset) (UniswapV2Reserves, error) {
	if a.Token == b.Token {
		return UniswapV2Reserves{}, eth.ErrSameToken
	}
	if eth.Less(b.Token, a.Token) {
		a, b = b, a
	}
	return UniswapV2Reserves{first: a, second: b}, nil
}

// Get returns both reserves in token order.
func (r UniswapV2Reserves) Get() (eth.Asset, eth.Asset) {
	return r.first, r.second
}

// Assets returns both reserves in token order.
func (r UniswapV2Reserves) Assets() []eth.Asset {
	return []eth.Asset{r.first, r.second}
}

// UniswapV2 is a constant product pool.
type UniswapV2 struct {
	Address  common.Address
	Router   common.Address
	Reserves UniswapV2Reserves
}

// Swapr is a constant product pool with a per-pool fee.
type Swapr struct {
	Base UniswapV2
	// FeeBps is the swap fee in basis points.
	FeeBps uint32
}
