package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "driver",
		Short:        "Solver driver gas estimation API",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gas estimation API",
		RunE:  runServe,
	}

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	serveCmd.Flags().String("solver-name", "solver", "solver name used in logs")
	serveCmd.Flags().String("solver-address", "", "solver submission account")
	serveCmd.Flags().String("weth", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "wrapped native token address")
	serveCmd.Flags().String("vault", "0xBA12222222228d8Ba445958a75a0704d566BF2C8", "Balancer V2 vault address")
	serveCmd.Flags().String("settlement", "0x9008D19f58AAbD9eD0D60971565AA8510560ab41", "settlement contract address")
	serveCmd.Flags().Duration("http-delay", 500*time.Millisecond, "time reserved for the response to reach the caller")
	serveCmd.Flags().Float64("solving-share", 0.8, "share of the remaining time given to the solver")
	serveCmd.Flags().Bool("disable-internalization", false, "execute every interaction on chain")
	serveCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for the token metadata store")
	serveCmd.Flags().Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	serveCmd.Flags().Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	assembleCmd := &cobra.Command{
		Use:   "assemble",
		Short: "Print the solver auction built from a gas request",
		RunE:  runAssemble,
	}

	assembleCmd.Flags().String("in", "", "input gas request JSON")
	assembleCmd.Flags().String("out", "", "output auction JSON, stdout when empty")
	assembleCmd.Flags().String("weth", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "wrapped native token address")
	assembleCmd.Flags().String("vault", "0xBA12222222228d8Ba445958a75a0704d566BF2C8", "Balancer V2 vault address")
	assembleCmd.Flags().String("at", "", "evaluate deadlines at this RFC3339 time instead of now")
	assembleCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(assembleCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
