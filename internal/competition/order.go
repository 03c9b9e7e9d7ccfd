package competition

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"solverDriver/internal/eth"
)

// UIDLen is the byte length of an order uid: digest, owner and valid-to.
const UIDLen = 56

// UID uniquely identifies an order.
type UID [UIDLen]byte

// NewUID fails unless b is exactly UIDLen bytes.
func NewUID(b []byte) (UID, error) {
	var uid UID
	if len(b) != UIDLen {
		return uid, fmt.Errorf("order uid has %d bytes, want %d", len(b), UIDLen)
	}
	copy(uid[:], b)
	return uid, nil
}

func (u UID) String() string {
	return "0x" + hex.EncodeToString(u[:])
}

// Owner is the account that signed the order.
func (u UID) Owner() common.Address {
	return common.BytesToAddress(u[32:52])
}

// Side is whether the order fixes the sell or the buy amount.
type Side int

const (
	Sell Side = iota
	Buy
)

func (s Side) String() string {
	switch s {
	case Sell:
		return "sell"
	case Buy:
		return "buy"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// Kind classifies an order.
type Kind int

const (
	Market Kind = iota
	Limit
	Liquidity
)

func (k Kind) String() string {
	switch k {
	case Market:
		return "market"
	case Limit:
		return "limit"
	case Liquidity:
		return "liquidity"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Order is a user order as seen by the driver.
type Order struct {
	UID  UID
	Sell eth.Asset
	Buy  eth.Asset
	Side Side
	Kind Kind
	// Partial marks partially fillable orders.
	Partial bool
	// Executed is the amount of the target token already filled.
	Executed *uint256.Int
	UserFee  *uint256.Int
}

func (o Order) IsPartial() bool { return o.Partial }

// Target is the asset whose amount the order fixes.
func (o Order) Target() eth.Asset {
	if o.Side == Buy {
		return o.Buy
	}
	return o.Sell
}

// Available is the part of an order that can still be traded.
type Available struct {
	Sell    eth.Asset
	Buy     eth.Asset
	UserFee *uint256.Int
}

// Available maps native ether to weth and, for partially fillable orders,
// scales every amount by the unfilled fraction of the target.
func (o Order) Available(weth common.Address) Available {
	available := Available{
		Sell:    eth.NewAsset(o.Sell.Token, o.Sell.Amount),
		Buy:     eth.NewAsset(o.Buy.Token, o.Buy.Amount),
		UserFee: copyOrZero(o.UserFee),
	}
	if available.Buy.Token == eth.ETH {
		available.Buy.Token = weth
	}
	if !o.Partial {
		return available
	}

	target := copyOrZero(o.Target().Amount)
	if target.IsZero() {
		return available
	}
	executed := copyOrZero(o.Executed)
	remaining := new(uint256.Int)
	if executed.Lt(target) {
		remaining.Sub(target, executed)
	}

	available.Sell.Amount = scale(available.Sell.Amount, remaining, target)
	available.Buy.Amount = scale(available.Buy.Amount, remaining, target)
	available.UserFee = scale(available.UserFee, remaining, target)
	return available
}

func scale(amount, num, den *uint256.Int) *uint256.Int {
	out, overflow := new(uint256.Int).MulDivOverflow(amount, num, den)
	if overflow {
		// num <= den, so the quotient always fits.
		return new(uint256.Int).Set(amount)
	}
	return out
}

func copyOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}
