package competition

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"solverDriver/internal/eth"
	"solverDriver/internal/liquidity"
)

var (
	ErrInvalidExecution = errors.New("invalid executed amount")
	ErrMissingPrice     = errors.New("missing clearing price")
)

// SolverConfig is the per-solver behaviour the driver enforces.
type SolverConfig struct {
	// DisableInternalization forces every interaction to be executed on chain.
	DisableInternalization bool
}

// Solver is the identity of the solver engine behind the driver.
type Solver struct {
	Name    string
	Account common.Address
	Config  SolverConfig
}

// SolutionID is unique per solver and auction.
type SolutionID uint64

// Fulfillment is a trade executing (part of) a user order.
type Fulfillment struct {
	order    Order
	executed *uint256.Int
}

// NewFulfillment checks executed against the order target amount.
func NewFulfillment(order Order, executed *uint256.Int) (Fulfillment, error) {
	executed = copyOrZero(executed)
	target := copyOrZero(order.Target().Amount)
	if executed.Gt(target) {
		return Fulfillment{}, fmt.Errorf("order %s executes %s of %s: %w", order.UID, executed.Dec(), target.Dec(), ErrInvalidExecution)
	}
	if !order.Partial && !executed.Eq(target) {
		return Fulfillment{}, fmt.Errorf("fill-or-kill order %s executes %s of %s: %w", order.UID, executed.Dec(), target.Dec(), ErrInvalidExecution)
	}
	return Fulfillment{order: order, executed: executed}, nil
}

func (f Fulfillment) Order() Order { return f.order }

func (f Fulfillment) Executed() *uint256.Int { return new(uint256.Int).Set(f.executed) }

// Interaction is either a LiquidityInteraction or a CustomInteraction.
//
//sumtype:decl
type Interaction interface {
	isInteraction()
	Internalized() bool
}

// LiquidityInteraction swaps through a pool of the auction.
type LiquidityInteraction struct {
	Liquidity   liquidity.Liquidity
	Input       eth.Asset
	Output      eth.Asset
	Internalize bool
}

// CustomInteraction is an arbitrary call made by the settlement contract.
type CustomInteraction struct {
	Target      common.Address
	Value       *uint256.Int
	CallData    []byte
	Inputs      []eth.Asset
	Outputs     []eth.Asset
	Internalize bool
}

func (LiquidityInteraction) isInteraction() {}
func (CustomInteraction) isInteraction()    {}

func (i LiquidityInteraction) Internalized() bool { return i.Internalize }
func (i CustomInteraction) Internalized() bool    { return i.Internalize }

// Solution is a settlement proposed by a solver for one auction.
type Solution struct {
	id           SolutionID
	solver       Solver
	prices       map[common.Address]*uint256.Int
	trades       []Fulfillment
	interactions []Interaction
	weth         common.Address
	gas          *uint256.Int
}

// NewSolution requires a clearing price for every traded token. Native ether
// is priced through weth.
func NewSolution(
	id SolutionID,
	solver Solver,
	prices map[common.Address]*uint256.Int,
	trades []Fulfillment,
	interactions []Interaction,
	weth common.Address,
	gas *uint256.Int,
) (Solution, error) {
	for _, trade := range trades {
		for _, token := range []common.Address{trade.order.Sell.Token, trade.order.Buy.Token} {
			if token == eth.ETH {
				token = weth
			}
			if _, ok := prices[token]; !ok {
				return Solution{}, fmt.Errorf("token %s of order %s: %w", token.Hex(), trade.order.UID, ErrMissingPrice)
			}
		}
	}
	return Solution{
		id:           id,
		solver:       solver,
		prices:       prices,
		trades:       append([]Fulfillment(nil), trades...),
		interactions: append([]Interaction(nil), interactions...),
		weth:         weth,
		gas:          gas,
	}, nil
}

func (s Solution) ID() SolutionID { return s.id }

func (s Solution) Solver() Solver { return s.solver }

func (s Solution) Trades() []Fulfillment { return s.trades }

func (s Solution) Interactions() []Interaction { return s.interactions }

// Price returns the clearing price of token, if any. ETH is priced as WETH.
func (s Solution) Price(token common.Address) (*uint256.Int, bool) {
	if token == eth.ETH {
		token = s.weth
	}
	price, ok := s.prices[token]
	return price, ok
}

// Gas is the solver's own estimate, nil when it gave none.
func (s Solution) Gas() *uint256.Int { return s.gas }

// GasEstimate is the measured gas of one solution.
type GasEstimate struct {
	SolutionID SolutionID
	Gas        *uint256.Int
	Success    bool
	Message    string
}

// GasEstimator measures the gas cost of solutions. Estimates are returned in
// the order it produced them, one or more per solution.
type GasEstimator interface {
	EstimateGas(ctx context.Context, auction *Auction, solutions []Solution) ([]GasEstimate, error)
}
