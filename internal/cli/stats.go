package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/xcoulter/Solana-Epoch-Tracker/internal/stats"
)

const defaultStatsDBPath = "epoch-stats.db"

type StatsCmd struct{}

func NewStatsCmd() *StatsCmd {
	return &StatsCmd{}
}

func (c *StatsCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "List recorded per-epoch transaction volume estimates",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
			if err != nil {
				return fmt.Errorf("failed to get verbose flag: %w", err)
			}
			dbPath, err := cmd.Flags().GetString("db")
			if err != nil {
				return fmt.Errorf("failed to get db flag: %w", err)
			}
			csvPath, err := cmd.Flags().GetString("csv")
			if err != nil {
				return fmt.Errorf("failed to get csv flag: %w", err)
			}

			log := newLogger(verbose)

			store, err := stats.Open(&stats.StoreConfig{
				Logger: log,
				Path:   dbPath,
			})
			if err != nil {
				log.Error("Failed to open stats store", "error", err, "path", dbPath)
				os.Exit(1)
			}
			defer store.Close()

			records, err := store.LoadAll()
			if err != nil {
				log.Error("Failed to load stats records", "error", err)
				os.Exit(1)
			}

			if csvPath != "" {
				file, err := os.Create(csvPath)
				if err != nil {
					log.Error("Failed to create CSV file", "error", err, "path", csvPath)
					os.Exit(1)
				}
				defer file.Close()

				_, err = fmt.Fprintln(file, "epoch,estimated_transactions,recorded_at")
				if err != nil {
					log.Error("Failed to write CSV header", "error", err, "path", csvPath)
					os.Exit(1)
				}

				for _, r := range records {
					_, err := fmt.Fprintf(file, "%d,%d,%s\n",
						r.Epoch,
						r.EstimatedTransactions,
						r.RecordedAt.UTC().Format(time.RFC3339),
					)
					if err != nil {
						log.Error("Failed to write CSV row", "error", err, "path", csvPath)
						os.Exit(1)
					}
				}
				return nil
			}

			printStats(records, dbPath)

			return nil
		},
	}

	cmd.Flags().String("db", defaultStatsDBPath, "Path to the stats database")
	cmd.Flags().String("csv", "", "Path to save records to CSV")

	return cmd
}

func printStats(records []stats.Record, dbPath string) {
	fmt.Println("Database:", dbPath)
	fmt.Println("Records:", len(records))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(true)
	table.SetHeader([]string{
		"Epoch", "Estimated\nTransactions", "Recorded At\n(UTC)",
	})

	for _, r := range records {
		table.Append([]string{
			strconv.FormatUint(r.Epoch, 10),
			strconv.FormatUint(r.EstimatedTransactions, 10),
			r.RecordedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
}
