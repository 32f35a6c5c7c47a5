package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/xcoulter/Solana-Epoch-Tracker/config"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func Run() ExitCode {
	rootCmd := &cobra.Command{
		Use:   "epoch-tracker",
		Short: "Epoch progress and transaction volume estimates for Solana clusters.",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cmd.Help()
			if err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	var verbose bool
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "set debug logging level")

	var env string
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", config.EnvMainnetBeta, "The network environment to query (mainnet-beta, testnet, devnet)")

	var rpcURL string
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc-url", "", "Override the RPC endpoint for the selected environment")

	rootCmd.AddCommand(
		NewCurrentCmd().Command(),
		NewHistoryCmd().Command(),
		NewStatsCmd().Command(),
		NewRecordCmd().Command(),
		NewVersionCmd().Command(),
	)

	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}

	return exitCodeSuccess
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// newNetworkClient resolves the environment's network config, applies the
// --rpc-url override, and returns an RPC client bound to the endpoint.
func newNetworkClient(env, rpcURL string) (*config.NetworkConfig, *solanarpc.Client, error) {
	networkConfig, err := config.NetworkConfigForEnv(env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get network config: %w", err)
	}
	if rpcURL != "" {
		networkConfig.RPCURL = rpcURL
	}
	return networkConfig, solanarpc.New(networkConfig.RPCURL), nil
}
