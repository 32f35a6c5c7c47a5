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

type HistoryCmd struct{}

func NewHistoryCmd() *HistoryCmd {
	return &HistoryCmd{}
}

func (c *HistoryCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the estimated boundary timeline of all epochs",
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
			epochs, err := cmd.Flags().GetInt32("epochs")
			if err != nil {
				return fmt.Errorf("failed to get epochs flag: %w", err)
			}
			csvPath, err := cmd.Flags().GetString("csv")
			if err != nil {
				return fmt.Errorf("failed to get csv flag: %w", err)
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
					Logger: log,
					Client: rpcClient,
				})
				if err != nil {
					log.Error("Failed to create slot duration estimator", "error", err)
					os.Exit(1)
				}
				log.Debug("Measuring slot duration")
				slotDuration = estimator.SlotDuration(ctx)
			}

			currentStart := epochInfo.AbsoluteSlot - epochInfo.SlotIndex
			records, err := epoch.GenerateTimeline(epochInfo.Epoch, currentStart, epochInfo.SlotsInEpoch, slotDuration, time.Now())
			if err != nil {
				log.Error("Failed to generate boundary timeline", "error", err)
				os.Exit(1)
			}

			if epochs > 0 && int(epochs) < len(records) {
				records = records[:epochs]
			}

			if csvPath != "" {
				file, err := os.Create(csvPath)
				if err != nil {
					log.Error("Failed to create CSV file", "error", err, "path", csvPath)
					os.Exit(1)
				}
				defer file.Close()

				_, err = fmt.Fprintln(file, "epoch,start_slot,end_slot,est_start_utc,est_end_utc")
				if err != nil {
					log.Error("Failed to write CSV header", "error", err, "path", csvPath)
					os.Exit(1)
				}

				for _, r := range records {
					_, err := fmt.Fprintf(file, "%d,%d,%d,%s,%s\n",
						r.Epoch,
						r.StartSlot,
						r.EndSlot,
						r.EstStart.Format(time.RFC3339),
						r.EstEnd.Format(time.RFC3339),
					)
					if err != nil {
						log.Error("Failed to write CSV row", "error", err, "path", csvPath)
						os.Exit(1)
					}
				}
				return nil
			}

			printTimeline(records, networkConfig.Env, slotDuration)

			return nil
		},
	}

	cmd.Flags().Int32("epochs", 0, "Limit output to the most recent N epochs (0 for the full history)")
	cmd.Flags().String("csv", "", "Path to save the timeline to CSV")
	cmd.Flags().Bool("nominal", false, "Skip measurement and assume the nominal 400ms slot duration")

	return cmd
}

func printTimeline(records []epoch.BoundaryRecord, env string, slotDuration time.Duration) {
	fmt.Println("Environment:", env)
	fmt.Println("Epochs:", len(records))
	fmt.Printf("* Timestamps are estimates assuming a uniform %.3fs slot duration\n", slotDuration.Seconds())

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(true)
	table.SetHeader([]string{
		"Epoch", "Start\nSlot", "End\nSlot", "Est. Start\n(UTC)", "Est. End\n(UTC)",
	})

	for _, r := range records {
		table.Append([]string{
			strconv.FormatUint(r.Epoch, 10),
			strconv.FormatUint(r.StartSlot, 10),
			strconv.FormatUint(r.EndSlot, 10),
			r.EstStart.Format("2006-01-02 15:04:05"),
			r.EstEnd.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
}
