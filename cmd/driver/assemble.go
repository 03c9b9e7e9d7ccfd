package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solverDriver/internal/api"
	"solverDriver/internal/competition"
	"solverDriver/internal/config"
	"solverDriver/internal/solver/dto"
)

func runAssemble(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAssemble(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	weth, err := config.ParseAddress("weth", cfg.Weth)
	if err != nil {
		return err
	}
	vault, err := config.ParseAddress("vault", cfg.Vault)
	if err != nil {
		return err
	}
	at := cfg.At
	if at.IsZero() {
		at = time.Now()
	}

	data, err := os.ReadFile(cfg.In)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var req api.GasRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parse gas request: %w", err)
	}

	out := io.Writer(os.Stdout)
	if cfg.Out != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Out), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		f, err := os.Create(cfg.Out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	return assemble(cmd.Context(), req, weth, vault, at, out, logger)
}

// assemble decodes req and writes the solver auction for its liquidity.
func assemble(ctx context.Context, req api.GasRequest, weth, vault common.Address, at time.Time, out io.Writer, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pools, err := api.DecodeLiquidity(req.Liquidity, vault)
	if err != nil {
		return fmt.Errorf("decode liquidity: %w", err)
	}
	auction, err := req.Auction.IntoDomain(ctx, nil, competition.Timeouts{SolvingShare: 1}, at)
	if err != nil {
		return fmt.Errorf("decode auction: %w", err)
	}

	wire := dto.NewAuction(auction, pools, weth)
	logger.Info("assembled auction",
		zap.Int("tokens", len(wire.Tokens)),
		zap.Int("orders", len(wire.Orders)),
		zap.Int("liquidity", len(wire.Liquidity)),
	)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(wire); err != nil {
		return fmt.Errorf("write auction: %w", err)
	}
	return nil
}
