// Package gas measures what settling a solution would cost.
package gas

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"solverDriver/internal/competition"
)

const (
	// SettlementBase is the fixed overhead of a settle() call.
	SettlementBase uint64 = 106_391
	// TradeGas is the cost of one order transfer in and out of the settlement.
	TradeGas uint64 = 66_315
)

// Chain estimates the gas of a call. *chain.Client satisfies it.
type Chain interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// Simulator implements competition.GasEstimator against a node.
type Simulator struct {
	chain      Chain
	settlement common.Address
	logger     *zap.Logger
}

// NewSimulator estimates custom interactions as calls from settlement.
func NewSimulator(chain Chain, settlement common.Address, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{chain: chain, settlement: settlement, logger: logger}
}

// EstimateGas returns one estimate per solution in input order. A reverting
// interaction fails only its own solution; any other node error aborts.
func (s *Simulator) EstimateGas(ctx context.Context, auction *competition.Auction, solutions []competition.Solution) ([]competition.GasEstimate, error) {
	out := make([]competition.GasEstimate, 0, len(solutions))
	for _, solution := range solutions {
		estimate, err := s.estimate(ctx, solution)
		if err != nil {
			return nil, err
		}
		if reported := solution.Gas(); reported != nil {
			s.logger.Debug("solver gas estimate",
				zap.Uint64("solution", uint64(solution.ID())),
				zap.String("reported", reported.Dec()),
				zap.String("measured", estimate.Gas.Dec()),
			)
		}
		out = append(out, estimate)
	}
	return out, nil
}

func (s *Simulator) estimate(ctx context.Context, solution competition.Solution) (competition.GasEstimate, error) {
	total := uint256.NewInt(SettlementBase)
	total.Add(total, new(uint256.Int).Mul(uint256.NewInt(TradeGas), uint256.NewInt(uint64(len(solution.Trades())))))

	for i, interaction := range solution.Interactions() {
		if interaction.Internalized() {
			continue
		}
		switch interaction := interaction.(type) {
		case competition.LiquidityInteraction:
			if interaction.Liquidity.Gas != nil {
				total.Add(total, interaction.Liquidity.Gas)
			}
		case competition.CustomInteraction:
			target := interaction.Target
			msg := ethereum.CallMsg{
				From: s.settlement,
				To:   &target,
				Data: interaction.CallData,
			}
			if interaction.Value != nil && !interaction.Value.IsZero() {
				msg.Value = interaction.Value.ToBig()
			}
			gas, err := s.chain.EstimateGas(ctx, msg)
			if err != nil {
				if reason, ok := revertReason(err); ok {
					return competition.GasEstimate{
						SolutionID: solution.ID(),
						Gas:        new(uint256.Int),
						Success:    false,
						Message:    reason,
					}, nil
				}
				return competition.GasEstimate{}, fmt.Errorf("estimate interaction %d of solution %d: %w", i, solution.ID(), err)
			}
			total.Add(total, uint256.NewInt(gas))
		default:
			panic(fmt.Sprintf("unhandled interaction %T", interaction))
		}
	}

	return competition.GasEstimate{
		SolutionID: solution.ID(),
		Gas:        total,
		Success:    true,
	}, nil
}

// revertReason reports whether err is a revert and extracts its message.
func revertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := dataErr.ErrorData().(string); ok {
			if raw, decodeErr := hexutil.Decode(data); decodeErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return reason, true
				}
			}
		}
		return dataErr.Error(), true
	}
	if strings.Contains(err.Error(), "execution reverted") {
		return err.Error(), true
	}
	return "", false
}
