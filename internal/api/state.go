package api

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"solverDriver/internal/competition"
	"solverDriver/internal/observe"
	"solverDriver/internal/solver/dto"
)

// State is what a request reads. It is not mutated while serving.
type State struct {
	Solver    competition.Solver
	Weth      common.Address
	Vault     common.Address
	Tokens    dto.TokenSource
	Timeouts  competition.Timeouts
	Estimator competition.GasEstimator
	Logger    *zap.Logger
	Metrics   *observe.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *State) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *State) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
