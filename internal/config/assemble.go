package config

import (
	"time"

	"github.com/spf13/pflag"

	"solverDriver/internal/eth"
)

// AssembleConfig holds configuration for the assemble command.
type AssembleConfig struct {
	In       string
	Out      string
	Weth     string
	Vault    string
	LogLevel string
	// At is the time deadlines are checked against. Zero means now.
	At time.Time
}

// LoadAssemble merges config file, environment variables, and flags into AssembleConfig.
func LoadAssemble(cfgFile string, flags *pflag.FlagSet) (AssembleConfig, error) {
	v := newViper()
	v.SetDefault("weth", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	v.SetDefault("vault", eth.DefaultBalancerVault.Hex())
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return AssembleConfig{}, err
	}

	return AssembleConfig{
		In:       v.GetString("in"),
		Out:      v.GetString("out"),
		Weth:     v.GetString("weth"),
		Vault:    v.GetString("vault"),
		LogLevel: v.GetString("log-level"),
		At:       v.GetTime("at"),
	}, nil
}
