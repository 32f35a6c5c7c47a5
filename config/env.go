package config

import (
	"fmt"
	"os"
)

const (
	EnvMainnetBeta = "mainnet-beta"
	EnvMainnet     = "mainnet"
	EnvTestnet     = "testnet"
	EnvDevnet      = "devnet"
)

var (
	ErrInvalidEnvironment = fmt.Errorf("invalid environment")
)

type NetworkConfig struct {
	Env           string
	RPCURL        string
	SlotsPerEpoch uint64
}

// NetworkConfigForEnv maps an environment name to its public RPC endpoint and
// epoch schedule. The EPOCH_TRACKER_RPC_URL environment variable overrides the
// endpoint for any environment, e.g. to point at a private or rate-limited node.
func NetworkConfigForEnv(env string) (*NetworkConfig, error) {
	var config *NetworkConfig
	switch env {
	case EnvMainnetBeta, EnvMainnet:
		config = &NetworkConfig{
			Env:           EnvMainnetBeta,
			RPCURL:        MainnetBetaRPCURL,
			SlotsPerEpoch: DefaultSlotsPerEpoch,
		}
	case EnvTestnet:
		config = &NetworkConfig{
			Env:           EnvTestnet,
			RPCURL:        TestnetRPCURL,
			SlotsPerEpoch: DefaultSlotsPerEpoch,
		}
	case EnvDevnet:
		config = &NetworkConfig{
			Env:           EnvDevnet,
			RPCURL:        DevnetRPCURL,
			SlotsPerEpoch: DefaultSlotsPerEpoch,
		}
	default:
		return nil, fmt.Errorf("%w %q, must be one of: %s, %s, %s", ErrInvalidEnvironment, env, EnvMainnetBeta, EnvTestnet, EnvDevnet)
	}

	rpcURL := os.Getenv("EPOCH_TRACKER_RPC_URL")
	if rpcURL != "" {
		config.RPCURL = rpcURL
	}

	return config, nil
}
