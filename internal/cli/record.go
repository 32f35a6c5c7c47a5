package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"github.com/xcoulter/Solana-Epoch-Tracker/internal/stats"
	"github.com/xcoulter/Solana-Epoch-Tracker/internal/txvolume"
)

type RecordCmd struct{}

func NewRecordCmd() *RecordCmd {
	return &RecordCmd{}
}

func (c *RecordCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Estimate and record a completed epoch's transaction volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
			if err != nil {
				return fmt.Errorf("failed to get verbose flag: %w", err)
			}
			env, err := cmd.Root().PersistentFlags().GetString("env")
			if err != nil {
				return fmt.Errorf("failed to get env flag: %w", err)
			}
			rpcURL, err := cmd.Root().PersistentFlags().GetString("rpc-url")
			if err != nil {
				return fmt.Errorf("failed to get rpc-url flag: %w", err)
			}
			targetEpoch, err := cmd.Flags().GetInt64("epoch")
			if err != nil {
				return fmt.Errorf("failed to get epoch flag: %w", err)
			}
			stride, err := cmd.Flags().GetUint64("stride")
			if err != nil {
				return fmt.Errorf("failed to get stride flag: %w", err)
			}
			dbPath, err := cmd.Flags().GetString("db")
			if err != nil {
				return fmt.Errorf("failed to get db flag: %w", err)
			}

			log := newLogger(verbose)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			_, rpcClient, err := newNetworkClient(env, rpcURL)
			if err != nil {
				log.Error("Failed to get RPC client", "error", err)
				os.Exit(1)
			}

			epochInfo, err := rpcClient.GetEpochInfo(ctx, solanarpc.CommitmentFinalized)
			if err != nil {
				log.Error("Failed to get epoch info", "error", err)
				os.Exit(1)
			}

			var target uint64
			switch {
			case targetEpoch < 0:
				if epochInfo.Epoch == 0 {
					return fmt.Errorf("no completed epoch to record yet")
				}
				target = epochInfo.Epoch - 1
			case uint64(targetEpoch) >= epochInfo.Epoch:
				return fmt.Errorf("epoch %d has not completed yet (current epoch is %d)", targetEpoch, epochInfo.Epoch)
			default:
				target = uint64(targetEpoch)
			}

			currentStart := epochInfo.AbsoluteSlot - epochInfo.SlotIndex
			back := (epochInfo.Epoch - target) * epochInfo.SlotsInEpoch
			if back > currentStart {
				return fmt.Errorf("epoch %d slot range is not derivable from the current schedule", target)
			}
			startSlot := currentStart - back
			endSlot := startSlot + epochInfo.SlotsInEpoch

			estimator, err := txvolume.NewEstimator(&txvolume.EstimatorConfig{
				Logger:       log,
				Client:       rpcClient,
				SampleStride: stride,
			})
			if err != nil {
				log.Error("Failed to create volume estimator", "error", err)
				os.Exit(1)
			}

			log.Info("Estimating transaction volume", "epoch", target, "start_slot", startSlot, "end_slot", endSlot, "stride", stride)
			estimated, err := estimator.EstimateTransactions(ctx, startSlot, endSlot)
			if err != nil {
				log.Error("Failed to estimate transaction volume", "error", err)
				os.Exit(1)
			}

			store, err := stats.Open(&stats.StoreConfig{
				Logger: log,
				Path:   dbPath,
			})
			if err != nil {
				log.Error("Failed to open stats store", "error", err, "path", dbPath)
				os.Exit(1)
			}
			defer store.Close()

			created, err := store.RecordOnce(target, estimated)
			if err != nil {
				log.Error("Failed to record epoch stats", "error", err)
				os.Exit(1)
			}

			if created {
				fmt.Printf("Epoch %d: recorded %d estimated transactions\n", target, estimated)
			} else {
				fmt.Printf("Epoch %d: already recorded, existing record left unchanged\n", target)
			}

			return nil
		},
	}

	cmd.Flags().Int64("epoch", -1, "Epoch to record (-1 for the most recently completed epoch)")
	cmd.Flags().Uint64("stride", 1000, "Distance in slots between sampled blocks")
	cmd.Flags().String("db", defaultStatsDBPath, "Path to the stats database")

	return cmd
}
