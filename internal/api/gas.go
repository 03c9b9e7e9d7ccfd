package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"solverDriver/internal/observe"
)

// maxBodyBytes bounds a gas request body.
const maxBodyBytes = 32 << 20

func (s *State) gas(w http.ResponseWriter, r *http.Request) {
	var req GasRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.logger().Warn("invalid gas request body", zap.Error(err))
		s.Metrics.GasRequest(observe.OutcomeInvalidRequest)
		writeJSON(w, s.logger(), http.StatusBadRequest, Error{Kind: KindInvalidRequest, Description: "invalid request body"})
		return
	}

	fields := []zap.Field{zap.String("solver", s.Solver.Name)}
	if req.Auction.ID != nil {
		fields = append(fields, zap.String("auction_id", *req.Auction.ID))
	}
	logger := s.logger().With(fields...)

	auction, solutions, err := req.IntoDomain(r.Context(), s, logger)
	if err != nil {
		s.Metrics.GasRequest(observe.OutcomeDecodeError)
		status, body := errorResponse(err)
		writeJSON(w, logger, status, body)
		return
	}

	logger.Debug("estimating gas", zap.Int("solutions", len(solutions)))
	start := time.Now()
	estimates, err := s.Estimator.EstimateGas(r.Context(), auction, solutions)
	s.Metrics.GasEstimated(time.Since(start))
	logger.Info("estimated gas", zap.Int("estimates", len(estimates)), zap.Error(err))
	if err != nil {
		s.Metrics.GasRequest(observe.OutcomeEstimationError)
		status, body := errorResponse(err)
		writeJSON(w, logger, status, body)
		return
	}

	s.Metrics.GasRequest(observe.OutcomeOK)
	writeJSON(w, logger, http.StatusOK, NewGasResponse(estimates))
}
