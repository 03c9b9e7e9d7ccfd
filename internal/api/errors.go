package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Errors returned to clients. Details are logged, never sent.
var (
	ErrLiquidity      = errors.New("error parsing liquidity")
	ErrEncodeSolution = errors.New("error parsing solutions")
	ErrEncodeAuction  = errors.New("error parsing auction")
)

// Error kinds in response bodies.
const (
	KindLiquidity          = "LiquidityError"
	KindEncodeSolution     = "EncodeSolutionError"
	KindEncodeAuction      = "EncodeAuctionError"
	KindInvalidRequest     = "InvalidRequest"
	KindGasEstimationError = "GasEstimationError"
)

// Error is the body of every failed response.
type Error struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// errorResponse maps err onto a status and body.
func errorResponse(err error) (int, Error) {
	switch {
	case errors.Is(err, ErrLiquidity):
		return http.StatusBadRequest, Error{Kind: KindLiquidity, Description: ErrLiquidity.Error()}
	case errors.Is(err, ErrEncodeAuction):
		return http.StatusBadRequest, Error{Kind: KindEncodeAuction, Description: ErrEncodeAuction.Error()}
	case errors.Is(err, ErrEncodeSolution):
		return http.StatusBadRequest, Error{Kind: KindEncodeSolution, Description: ErrEncodeSolution.Error()}
	default:
		return http.StatusInternalServerError, Error{Kind: KindGasEstimationError, Description: "gas estimation failed"}
	}
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("write response failed", zap.Error(err))
	}
}
