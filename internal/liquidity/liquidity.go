// Package liquidity models the on-chain pools a solution may route through.
package liquidity

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrReserveCount   = errors.New("unexpected number of reserves")
	ErrDuplicateToken = errors.New("duplicate reserve token")
	ErrInvalidValue   = errors.New("value outside of its fixed-point domain")
	ErrOutOfRange     = errors.New("integer out of range")
)

// ID identifies a pool within one auction.
type ID uint64

// Liquidity is a pool together with the gas it costs to use it.
type Liquidity struct {
	ID   ID
	Gas  *uint256.Int
	Kind Kind
}

// Kind is one of UniswapV2, Swapr, UniswapV3, BalancerV2Weighted,
// BalancerV2Stable or ZeroEx. Switches over Kind list every variant.
//
//sumtype:decl
type Kind interface {
	isKind()
}

func (UniswapV2) isKind()          {}
func (Swapr) isKind()              {}
func (UniswapV3) isKind()          {}
func (BalancerV2Weighted) isKind() {}
func (BalancerV2Stable) isKind()   {}
func (ZeroEx) isKind()             {}
