package dto

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"solverDriver/internal/competition"
	"solverDriver/internal/eth"
	"solverDriver/internal/liquidity"
)

var (
	ErrUnknownOrder             = errors.New("unknown order")
	ErrUnknownLiquidity         = errors.New("unknown liquidity")
	ErrUntrustedInternalization = errors.New("internalized interaction uses untrusted token")
	ErrUnsupportedTrade         = errors.New("unsupported trade kind")
	ErrUnsupportedInteraction   = errors.New("unsupported interaction kind")
)

const (
	TradeKindFulfillment = "fulfillment"

	InteractionKindLiquidity = "liquidity"
	InteractionKindCustom    = "custom"
)

// Solutions is a solver engine's response.
type Solutions struct {
	Solutions []Solution `json:"solutions"`
}

type Solution struct {
	ID           uint64                  `json:"id"`
	Prices       map[common.Address]U256 `json:"prices"`
	Trades       []Trade                 `json:"trades"`
	Interactions []Interaction           `json:"interactions"`
	Gas          *U256                   `json:"gas,omitempty"`
}

type Trade struct {
	Kind           string        `json:"kind"`
	Order          hexutil.Bytes `json:"order"`
	ExecutedAmount U256          `json:"executedAmount"`
}

type Asset struct {
	Token  common.Address `json:"token"`
	Amount U256           `json:"amount"`
}

func (a Asset) intoDomain() eth.Asset {
	return eth.NewAsset(a.Token, a.Amount.Int())
}

// Interaction holds exactly one of Liquidity or Custom, chosen by Kind.
type Interaction struct {
	Kind      string
	Liquidity *LiquidityInteraction
	Custom    *CustomInteraction
}

type LiquidityInteraction struct {
	Internalize  bool           `json:"internalize"`
	ID           StringUint     `json:"id"`
	InputToken   common.Address `json:"inputToken"`
	OutputToken  common.Address `json:"outputToken"`
	InputAmount  U256           `json:"inputAmount"`
	OutputAmount U256           `json:"outputAmount"`
}

type CustomInteraction struct {
	Internalize bool           `json:"internalize"`
	Target      common.Address `json:"target"`
	Value       U256           `json:"value"`
	CallData    hexutil.Bytes  `json:"callData"`
	Inputs      []Asset        `json:"inputs"`
	Outputs     []Asset        `json:"outputs"`
}

func (i *Interaction) UnmarshalJSON(data []byte) error {
	var tag struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	i.Kind = tag.Kind
	switch tag.Kind {
	case InteractionKindLiquidity:
		i.Liquidity = new(LiquidityInteraction)
		return json.Unmarshal(data, i.Liquidity)
	case InteractionKindCustom:
		i.Custom = new(CustomInteraction)
		return json.Unmarshal(data, i.Custom)
	default:
		return fmt.Errorf("interaction kind %q: %w", tag.Kind, ErrUnsupportedInteraction)
	}
}

func (i Interaction) MarshalJSON() ([]byte, error) {
	switch {
	case i.Liquidity != nil:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			LiquidityInteraction
		}{InteractionKindLiquidity, *i.Liquidity})
	case i.Custom != nil:
		return json.Marshal(struct {
			Kind string `json:"kind"`
			CustomInteraction
		}{InteractionKindCustom, *i.Custom})
	default:
		return nil, fmt.Errorf("interaction kind %q: %w", i.Kind, ErrUnsupportedInteraction)
	}
}

// IntoDomain decodes every solution against the decoded auction and pools.
func (s Solutions) IntoDomain(
	auction *competition.Auction,
	pools []liquidity.Liquidity,
	weth common.Address,
	solver competition.Solver,
) ([]competition.Solution, error) {
	byID := make(map[liquidity.ID]liquidity.Liquidity, len(pools))
	for _, pool := range pools {
		byID[pool.ID] = pool
	}

	out := make([]competition.Solution, 0, len(s.Solutions))
	for _, solution := range s.Solutions {
		domain, err := solution.intoDomain(auction, byID, weth, solver)
		if err != nil {
			return nil, fmt.Errorf("solution %d: %w", solution.ID, err)
		}
		out = append(out, domain)
	}
	return out, nil
}

func (s Solution) intoDomain(
	auction *competition.Auction,
	pools map[liquidity.ID]liquidity.Liquidity,
	weth common.Address,
	solver competition.Solver,
) (competition.Solution, error) {
	prices := make(map[common.Address]*uint256.Int, len(s.Prices))
	for token, price := range s.Prices {
		prices[token] = price.Int()
	}

	trades := make([]competition.Fulfillment, 0, len(s.Trades))
	for i, trade := range s.Trades {
		if trade.Kind != TradeKindFulfillment {
			return competition.Solution{}, fmt.Errorf("trade %d kind %q: %w", i, trade.Kind, ErrUnsupportedTrade)
		}
		uid, err := competition.NewUID(trade.Order)
		if err != nil {
			return competition.Solution{}, fmt.Errorf("trade %d: %w", i, err)
		}
		order, ok := auction.Order(uid)
		if !ok {
			return competition.Solution{}, fmt.Errorf("trade %d order %s: %w", i, uid, ErrUnknownOrder)
		}
		fulfillment, err := competition.NewFulfillment(order, trade.ExecutedAmount.Int())
		if err != nil {
			return competition.Solution{}, fmt.Errorf("trade %d: %w", i, err)
		}
		trades = append(trades, fulfillment)
	}

	interactions := make([]competition.Interaction, 0, len(s.Interactions))
	for i, interaction := range s.Interactions {
		domain, err := interaction.intoDomain(auction, pools, solver.Config)
		if err != nil {
			return competition.Solution{}, fmt.Errorf("interaction %d: %w", i, err)
		}
		interactions = append(interactions, domain)
	}

	var gas *uint256.Int
	if s.Gas != nil {
		gas = s.Gas.Int()
	}
	return competition.NewSolution(
		competition.SolutionID(s.ID),
		solver,
		prices,
		trades,
		interactions,
		weth,
		gas,
	)
}

func (i Interaction) intoDomain(
	auction *competition.Auction,
	pools map[liquidity.ID]liquidity.Liquidity,
	config competition.SolverConfig,
) (competition.Interaction, error) {
	switch {
	case i.Liquidity != nil:
		l := i.Liquidity
		pool, ok := pools[liquidity.ID(l.ID)]
		if !ok {
			return nil, fmt.Errorf("liquidity %d: %w", l.ID, ErrUnknownLiquidity)
		}
		internalize, err := checkInternalize(auction, config, l.Internalize, []common.Address{l.InputToken})
		if err != nil {
			return nil, err
		}
		return competition.LiquidityInteraction{
			Liquidity:   pool,
			Input:       eth.NewAsset(l.InputToken, l.InputAmount.Int()),
			Output:      eth.NewAsset(l.OutputToken, l.OutputAmount.Int()),
			Internalize: internalize,
		}, nil
	case i.Custom != nil:
		c := i.Custom
		inputs := make([]eth.Asset, 0, len(c.Inputs))
		inputTokens := make([]common.Address, 0, len(c.Inputs))
		for _, input := range c.Inputs {
			inputs = append(inputs, input.intoDomain())
			inputTokens = append(inputTokens, input.Token)
		}
		outputs := make([]eth.Asset, 0, len(c.Outputs))
		for _, output := range c.Outputs {
			outputs = append(outputs, output.intoDomain())
		}
		internalize, err := checkInternalize(auction, config, c.Internalize, inputTokens)
		if err != nil {
			return nil, err
		}
		return competition.CustomInteraction{
			Target:      c.Target,
			Value:       c.Value.Int(),
			CallData:    append([]byte(nil), c.CallData...),
			Inputs:      inputs,
			Outputs:     outputs,
			Internalize: internalize,
		}, nil
	default:
		return nil, fmt.Errorf("interaction kind %q: %w", i.Kind, ErrUnsupportedInteraction)
	}
}

// checkInternalize only lets an interaction skip the chain when every token it
// takes from the settlement buffers is trusted.
func checkInternalize(auction *competition.Auction, config competition.SolverConfig, requested bool, inputs []common.Address) (bool, error) {
	if !requested || config.DisableInternalization {
		return false, nil
	}
	for _, token := range inputs {
		if info, ok := auction.Token(token); !ok || !info.Trusted {
			return false, fmt.Errorf("token %s: %w", token.Hex(), ErrUntrustedInternalization)
		}
	}
	return true, nil
}
