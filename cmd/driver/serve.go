package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solverDriver/internal/api"
	"solverDriver/internal/chain"
	"solverDriver/internal/competition"
	"solverDriver/internal/config"
	"solverDriver/internal/gas"
	"solverDriver/internal/observe"
	"solverDriver/internal/storage/postgres"
	"solverDriver/internal/tokens"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	weth, err := config.ParseAddress("weth", cfg.Weth)
	if err != nil {
		return err
	}
	vault, err := config.ParseAddress("vault", cfg.Vault)
	if err != nil {
		return err
	}
	settlement, err := config.ParseAddress("settlement", cfg.Settlement)
	if err != nil {
		return err
	}
	solver := competition.Solver{
		Name:   cfg.SolverName,
		Config: competition.SolverConfig{DisableInternalization: cfg.DisableInternalization},
	}
	if cfg.SolverAddress != "" {
		if solver.Account, err = config.ParseAddress("solver-address", cfg.SolverAddress); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var chainID *big.Int
	err = chain.Retry(ctx, logger, "chain id", chain.DefaultBackoff, func(ctx context.Context) error {
		id, err := chainClient.ChainID(ctx)
		if err != nil {
			return err
		}
		chainID = id
		return nil
	})
	if err != nil {
		return err
	}

	var store tokens.Store
	if cfg.PostgresDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := chain.Retry(ctx, logger, "ping postgres", chain.DefaultBackoff, pg.Ping); err != nil {
			return err
		}
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		store = pg
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	state := &api.State{
		Solver:    solver,
		Weth:      weth,
		Vault:     vault,
		Tokens:    tokens.NewFetcher(chainID.Uint64(), store, tokens.NewERC20Reader(chainClient, logger), logger),
		Timeouts:  competition.Timeouts{HTTPDelay: cfg.HTTPDelay, SolvingShare: cfg.SolvingShare},
		Estimator: gas.NewSimulator(chainClient, settlement, logger),
		Logger:    logger,
		Metrics:   observe.NewMetrics(reg),
	}

	server := api.NewServer(api.ServerConfig{
		Addr:            cfg.Addr,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, api.NewRouter(state, reg), logger)

	logger.Info("driver start",
		zap.String("addr", cfg.Addr),
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("chain_id", chainID.Uint64()),
		zap.String("solver", solver.Name),
		zap.String("vault", vault.Hex()),
		zap.Bool("token_store", store != nil),
		zap.Bool("disable_internalization", cfg.DisableInternalization),
	)

	return server.Run(ctx)
}
