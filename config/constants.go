package config

const (
	// Public cluster RPC endpoints.
	MainnetBetaRPCURL = "https://api.mainnet-beta.solana.com"
	TestnetRPCURL     = "https://api.testnet.solana.com"
	DevnetRPCURL      = "https://api.devnet.solana.com"

	// DefaultSlotsPerEpoch is the epoch length used by all public clusters
	// once past warmup.
	DefaultSlotsPerEpoch = 432_000
)
