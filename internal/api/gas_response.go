package api

import (
	"encoding/json"

	"solverDriver/internal/competition"
	"solverDriver/internal/solver/dto"
)

// GasResponse lists estimates as [solutionId, result] pairs in the order the
// estimator produced them. Ids may repeat.
type GasResponse struct {
	GasEstimates []GasEstimatePair `json:"gasEstimates"`
}

type GasEstimatePair struct {
	SolutionID uint64
	Result     SolutionResponse
}

func (p GasEstimatePair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{p.SolutionID, p.Result})
}

func (p *GasEstimatePair) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &p.SolutionID); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &p.Result)
}

type SolutionResponse struct {
	Gas     dto.U256 `json:"gas"`
	Success bool     `json:"success"`
	Message string   `json:"message"`
}

func NewGasResponse(estimates []competition.GasEstimate) GasResponse {
	pairs := make([]GasEstimatePair, 0, len(estimates))
	for _, estimate := range estimates {
		pairs = append(pairs, GasEstimatePair{
			SolutionID: uint64(estimate.SolutionID),
			Result: SolutionResponse{
				Gas:     dto.NewU256(estimate.Gas),
				Success: estimate.Success,
				Message: estimate.Message,
			},
		})
	}
	return GasResponse{GasEstimates: pairs}
}
