package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"solverDriver/internal/eth"
)

var ErrInvalidAddress = errors.New("invalid address")

// Config holds serve configuration loaded from flags, env, or config file.
type Config struct {
	Addr                   string
	RPCURL                 string
	LogLevel               string
	SolverName             string
	SolverAddress          string
	Weth                   string
	Vault                  string
	Settlement             string
	HTTPDelay              time.Duration
	SolvingShare           float64
	DisableInternalization bool
	PostgresDSN            string
	ReadTimeout            time.Duration
	WriteTimeout           time.Duration
	ShutdownTimeout        time.Duration
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := newViper()
	v.SetDefault("addr", ":8080")
	v.SetDefault("log-level", "info")
	v.SetDefault("solver-name", "solver")
	v.SetDefault("weth", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	v.SetDefault("vault", eth.DefaultBalancerVault.Hex())
	v.SetDefault("settlement", "0x9008D19f58AAbD9eD0D60971565AA8510560ab41")
	v.SetDefault("http-delay", 500*time.Millisecond)
	v.SetDefault("solving-share", 0.8)
	v.SetDefault("disable-internalization", false)
	v.SetDefault("read-timeout", 10*time.Second)
	v.SetDefault("write-timeout", 30*time.Second)
	v.SetDefault("shutdown-timeout", 10*time.Second)

	if err := read(v, cfgFile, flags); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Addr:                   v.GetString("addr"),
		RPCURL:                 v.GetString("rpc"),
		LogLevel:               v.GetString("log-level"),
		SolverName:             v.GetString("solver-name"),
		SolverAddress:          v.GetString("solver-address"),
		Weth:                   v.GetString("weth"),
		Vault:                  v.GetString("vault"),
		Settlement:             v.GetString("settlement"),
		HTTPDelay:              v.GetDuration("http-delay"),
		SolvingShare:           v.GetFloat64("solving-share"),
		DisableInternalization: v.GetBool("disable-internalization"),
		PostgresDSN:            v.GetString("pg-dsn"),
		ReadTimeout:            v.GetDuration("read-timeout"),
		WriteTimeout:           v.GetDuration("write-timeout"),
		ShutdownTimeout:        v.GetDuration("shutdown-timeout"),
	}

	if cfg.SolvingShare <= 0 || cfg.SolvingShare > 1 {
		return Config{}, fmt.Errorf("solving-share %v must be in (0, 1]", cfg.SolvingShare)
	}
	if cfg.HTTPDelay < 0 {
		return Config{}, fmt.Errorf("http-delay %s must not be negative", cfg.HTTPDelay)
	}

	return cfg, nil
}

// ParseAddress accepts a 0x-prefixed 20 byte hex address.
func ParseAddress(name, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	prefixed := strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X")
	if !prefixed || !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s %q: %w", name, value, ErrInvalidAddress)
	}
	return common.HexToAddress(value), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DRIVER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func read(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}
