// Package competition holds the driver's view of an auction and the
// solutions solvers propose for it.
package competition

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"solverDriver/internal/eth"
)

var (
	ErrDeadlineExceeded = errors.New("deadline exceeded")
	ErrDuplicateOrder   = errors.New("duplicate order uid")
)

// AuctionID is the id the autopilot assigned to an auction.
type AuctionID int64

func (id AuctionID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Token is what the auction knows about a token.
type Token struct {
	Address  common.Address
	Decimals *uint8
	Symbol   *string
	// Price is the reference price in wei per 1e18 units of the token.
	Price            *uint256.Int
	AvailableBalance *uint256.Int
	Trusted          bool
}

// GasPrice is the gas price the settlement is expected to pay.
type GasPrice struct {
	Effective *uint256.Int
}

// Deadline holds the two deadlines derived from the auction deadline.
type Deadline struct {
	driver  time.Time
	solvers time.Time
}

func NewDeadline(driver, solvers time.Time) Deadline {
	return Deadline{driver: driver, solvers: solvers}
}

// Driver is when the driver must have responded.
func (d Deadline) Driver() time.Time { return d.driver }

// Solvers is when solver engines must have responded.
func (d Deadline) Solvers() time.Time { return d.solvers }

// Timeouts splits the time left before an auction deadline between the
// driver and its solver engine.
type Timeouts struct {
	// HTTPDelay is reserved for the response to travel back.
	HTTPDelay time.Duration
	// SolvingShare is the fraction of the remaining time given to the solver.
	SolvingShare float64
}

// Deadline derives the driver and solver deadlines at now.
func (t Timeouts) Deadline(deadline, now time.Time) (Deadline, error) {
	driver := deadline.Add(-t.HTTPDelay)
	if !driver.After(now) {
		return Deadline{}, fmt.Errorf("driver deadline %s: %w", driver.Format(time.RFC3339), ErrDeadlineExceeded)
	}
	solving := time.Duration(float64(driver.Sub(now)) * t.SolvingShare)
	return Deadline{driver: driver, solvers: now.Add(solving)}, nil
}

// Auction is immutable after construction.
type Auction struct {
	id       *AuctionID
	tokens   map[common.Address]Token
	orders   []Order
	gasPrice GasPrice
	deadline Deadline
}

// NewAuction rejects auctions with repeated order uids.
func NewAuction(id *AuctionID, tokens []Token, orders []Order, gasPrice GasPrice, deadline Deadline) (*Auction, error) {
	seen := make(map[UID]struct{}, len(orders))
	for _, order := range orders {
		if _, ok := seen[order.UID]; ok {
			return nil, fmt.Errorf("%s: %w", order.UID, ErrDuplicateOrder)
		}
		seen[order.UID] = struct{}{}
	}

	byAddress := make(map[common.Address]Token, len(tokens))
	for _, token := range tokens {
		byAddress[token.Address] = token
	}
	if gasPrice.Effective == nil {
		gasPrice.Effective = new(uint256.Int)
	}

	return &Auction{
		id:       id,
		tokens:   byAddress,
		orders:   append([]Order(nil), orders...),
		gasPrice: gasPrice,
		deadline: deadline,
	}, nil
}

func (a *Auction) ID() *AuctionID { return a.id }

// Tokens returns the auction tokens sorted by address.
func (a *Auction) Tokens() []Token {
	out := make([]Token, 0, len(a.tokens))
	for _, token := range a.tokens {
		out = append(out, token)
	}
	sort.Slice(out, func(i, j int) bool { return eth.Less(out[i].Address, out[j].Address) })
	return out
}

func (a *Auction) Token(address common.Address) (Token, bool) {
	token, ok := a.tokens[address]
	return token, ok
}

func (a *Auction) Orders() []Order { return append([]Order(nil), a.orders...) }

// Order looks up an order by uid.
func (a *Auction) Order(uid UID) (Order, bool) {
	for _, order := range a.orders {
		if order.UID == uid {
			return order, true
		}
	}
	return Order{}, false
}

func (a *Auction) GasPrice() GasPrice { return a.gasPrice }

func (a *Auction) Deadline() Deadline { return a.deadline }
