package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/xcoulter/Solana-Epoch-Tracker/internal/epoch"
)

type CurrentCmd struct{}

func NewCurrentCmd() *CurrentCmd {
	return &CurrentCmd{}
}

func (c *CurrentCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show progress of the current epoch",
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
			samples, err := cmd.Flags().GetInt("samples")
			if err != nil {
				return fmt.Errorf("failed to get samples flag: %w", err)
			}
			sampleInterval, err := cmd.Flags().GetDuration("sample-interval")
			if err != nil {
				return fmt.Errorf("failed to get sample-interval flag: %w", err)
			}
			nominal, err := cmd.Flags().GetBool("nominal")
			if err != nil {
				return fmt.Errorf("failed to get nominal flag: %w", err)
			}

			log := newLogger(verbose)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			networkConfig, rpcClient, err := newNetworkClient(env, rpcURL)
			if err != nil {
				log.Error("Failed to get RPC client", "error", err)
				os.Exit(1)
			}

			epochInfo, err := rpcClient.GetEpochInfo(ctx, solanarpc.CommitmentFinalized)
			if err != nil {
				log.Error("Failed to get epoch info", "error", err)
				os.Exit(1)
			}

			slotDuration := epoch.NominalSlotDuration
			if !nominal {
				estimator, err := epoch.NewDurationEstimator(&epoch.DurationEstimatorConfig{
					Logger:         log,
					Client:         rpcClient,
					SampleCount:    samples,
					SampleInterval: sampleInterval,
				})
				if err != nil {
					log.Error("Failed to create slot duration estimator", "error", err)
					os.Exit(1)
				}
				log.Debug("Measuring slot duration", "samples", samples, "interval", sampleInterval)
				slotDuration = estimator.SlotDuration(ctx)
			}

			progress, err := epoch.ComputeProgress(epochInfo, slotDuration, time.Now())
			if err != nil {
				log.Error("Failed to compute epoch progress", "error", err)
				os.Exit(1)
			}

			startHeight := blockHeightAt(ctx, rpcClient, progress.StartSlot)
			endHeight := blockHeightAt(ctx, rpcClient, progress.EndSlot)

			printProgress(progress, networkConfig.Env, startHeight, endHeight)

			return nil
		},
	}

	cmd.Flags().Int("samples", 5, "Number of slot observations for the duration measurement")
	cmd.Flags().Duration("sample-interval", 2*time.Second, "Delay between slot observations")
	cmd.Flags().Bool("nominal", false, "Skip measurement and assume the nominal 400ms slot duration")

	return cmd
}

// blockHeightAt resolves the block height at the given slot. Slots that were
// skipped, pruned, or have not been produced yet have no block.
func blockHeightAt(ctx context.Context, client *solanarpc.Client, slot uint64) string {
	rewards := false
	block, err := client.GetBlockWithOpts(ctx, slot, &solanarpc.GetBlockOpts{
		TransactionDetails:             solanarpc.TransactionDetailsNone,
		Rewards:                        &rewards,
		Commitment:                     solanarpc.CommitmentFinalized,
		MaxSupportedTransactionVersion: &solanarpc.MaxSupportedTransactionVersion0,
	})
	if err != nil || block == nil || block.BlockHeight == nil {
		return "Unavailable"
	}
	return strconv.FormatUint(*block.BlockHeight, 10)
}

func printProgress(p *epoch.Progress, env, startHeight, endHeight string) {
	fmt.Println("Environment:", env)
	fmt.Printf("Slot duration: %.3fs\n", p.SlotDuration.Seconds())

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(true)
	table.SetHeader([]string{
		"Epoch",
		"Progress\n(%)",
		"Slot\nIndex", "Remaining\nSlots",
		"Time\nRemaining",
		"Est. Start\n(UTC)", "Est. End\n(UTC)",
		"Start\nSlot", "End\nSlot",
		"Start Block\nHeight", "End Block\nHeight",
	})

	table.Append([]string{
		strconv.FormatUint(p.Epoch, 10),
		fmt.Sprintf("%.2f", p.PctDone),
		strconv.FormatUint(p.SlotIndex, 10),
		strconv.FormatUint(p.RemainingSlots, 10),
		p.TimeRemaining.Round(time.Second).String(),
		p.EstimatedStartUTC.Format("2006-01-02 15:04:05"),
		p.EstimatedEndUTC.Format("2006-01-02 15:04:05"),
		strconv.FormatUint(p.StartSlot, 10),
		strconv.FormatUint(p.EndSlot, 10),
		startHeight,
		endHeight,
	})
	table.Render()
}
