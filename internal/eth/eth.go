package eth

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ETH is the pseudo-address orders use to request native ether as the buy token.
var ETH = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// DefaultBalancerVault is the mainnet Balancer V2 vault.
var DefaultBalancerVault = common.HexToAddress("0xBA12222222228d8Ba445958a75a0704d566BF2C8")

// ErrSameToken is returned when a pair is built from one token twice.
var ErrSameToken = errors.New("identical tokens")

// Asset is an amount of a token.
type Asset struct {
	Token  common.Address
	Amount *uint256.Int
}

// NewAsset copies amount so the asset never aliases caller memory.
func NewAsset(token common.Address, amount *uint256.Int) Asset {
	if amount == nil {
		return Asset{Token: token, Amount: new(uint256.Int)}
	}
	return Asset{Token: token, Amount: new(uint256.Int).Set(amount)}
}

// TokenPair is an ordered pair of distinct tokens.
type TokenPair struct {
	first  common.Address
	second common.Address
}

// NewTokenPair orders a and b by address.
func NewTokenPair(a, b common.Address) (TokenPair, error) {
	if a == b {
		return TokenPair{}, ErrSameToken
	}
	if Less(b, a) {
		a, b = b, a
	}
	return TokenPair{first: a, second: b}, nil
}

// Get returns the tokens in ascending address order.
func (p TokenPair) Get() (common.Address, common.Address) {
	return p.first, p.second
}

// Less reports whether a sorts before b.
func Less(a, b common.Address) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
