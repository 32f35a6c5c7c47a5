package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/xcoulter/Solana-Epoch-Tracker/internal/epoch"
)

const (
	watcherName = "epoch-progress"

	slackPostTimeout = 10 * time.Second
)

// EpochWatcher polls epoch info on an interval, exports progress metrics,
// announces rollovers, and records the previous epoch's transaction volume
// once the new epoch begins.
type EpochWatcher struct {
	log        *slog.Logger
	cfg        *Config
	httpClient *http.Client

	lastEpoch uint64
	epochSet  bool
}

func NewEpochWatcher(cfg *Config) (*EpochWatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &EpochWatcher{
		log: cfg.Logger.With("watcher", watcherName),
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: slackPostTimeout,
		},
	}, nil
}

func (w *EpochWatcher) Name() string {
	return watcherName
}

func (w *EpochWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	// if influx writer is configured, monitor error messages for async writes
	if w.cfg.InfluxWriter != nil {
		go func() {
			for err := range w.cfg.InfluxWriter.Errors() {
				w.log.Error("influx write error", "error", err)
			}
		}()
	}

	err := w.Tick(ctx)
	if err != nil {
		w.log.Error("failed to tick", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("context done, stopping")
			return nil
		case <-ticker.C:
			err := w.Tick(ctx)
			if err != nil {
				w.log.Error("failed to tick", "error", err)
			}
		}
	}
}

func (w *EpochWatcher) Tick(ctx context.Context) error {
	epochInfo, err := w.cfg.RPCClient.GetEpochInfo(ctx, solanarpc.CommitmentFinalized)
	if err != nil {
		w.cfg.Metrics.Errors.WithLabelValues(MetricErrorTypeGetEpochInfo).Inc()
		return fmt.Errorf("failed to get epoch info: %w", err)
	}

	// May block for the full sampling window when the cached measurement
	// has expired.
	slotDuration := w.cfg.Durations.SlotDuration(ctx)

	progress, err := epoch.ComputeProgress(epochInfo, slotDuration, time.Now())
	if err != nil {
		w.cfg.Metrics.Errors.WithLabelValues(MetricErrorTypeComputeProgress).Inc()
		return fmt.Errorf("failed to compute epoch progress: %w", err)
	}

	m := w.cfg.Metrics
	m.CurrentEpoch.Set(float64(progress.Epoch))
	m.EpochPctDone.Set(progress.PctDone)
	m.EpochRemainingSlots.Set(float64(progress.RemainingSlots))
	m.EpochTimeRemaining.Set(progress.TimeRemaining.Seconds())
	m.EpochEstimatedEnd.Set(float64(progress.EstimatedEndUTC.Unix()))
	m.SlotDuration.Set(progress.SlotDuration.Seconds())

	w.log.Debug("epoch progress",
		"epoch", progress.Epoch,
		"slot_index", progress.SlotIndex,
		"pct_done", progress.PctDone,
		"time_remaining", progress.TimeRemaining,
		"estimated_end", progress.EstimatedEndUTC,
		"slot_duration", slotDuration)

	w.detectEpochChange(ctx, progress)
	w.maybeRecordPreviousEpoch(ctx, epochInfo)

	if w.cfg.InfluxWriter != nil {
		w.exportProgressToInflux(progress)
	}

	return nil
}

// detectEpochChange announces a rollover when the observed epoch advances
// past the previous tick's. The first observation after startup only seeds
// the comparison state.
func (w *EpochWatcher) detectEpochChange(ctx context.Context, progress *epoch.Progress) {
	defer func() {
		w.lastEpoch = progress.Epoch
		w.epochSet = true
	}()

	if !w.epochSet || progress.Epoch <= w.lastEpoch {
		return
	}

	w.cfg.Metrics.EpochRollovers.Inc()
	w.log.Info("epoch change detected",
		"previous_epoch", w.lastEpoch,
		"current_epoch", progress.Epoch,
		"estimated_end", progress.EstimatedEndUTC)

	if w.cfg.SlackWebhookURL == "" {
		return
	}
	msg, err := w.buildEpochChangeSlackMessage(w.lastEpoch, progress)
	if err != nil {
		w.log.Error("failed to build epoch change slack message", "error", err)
		return
	}
	w.log.Info("posting epoch change slack message", "epoch", progress.Epoch)
	if err := w.postSlackMessage(ctx, msg); err != nil {
		w.log.Error("failed to post epoch change slack message", "error", err)
	}
}

// maybeRecordPreviousEpoch records the prior epoch's estimated transaction
// volume while the current epoch is still within the first few slots, at
// which point the prior epoch's full slot range has elapsed. RecordOnce makes
// repeated triggers within the threshold window no-ops.
func (w *EpochWatcher) maybeRecordPreviousEpoch(ctx context.Context, info *solanarpc.GetEpochInfoResult) {
	if info.SlotIndex >= w.cfg.RecordSlotThreshold || info.Epoch == 0 {
		return
	}

	currentStart := info.AbsoluteSlot - info.SlotIndex
	if currentStart < info.SlotsInEpoch {
		// The uniform epoch length does not reach back past genesis here
		// (warmup-era schedules), so the previous range is not derivable.
		w.log.Debug("previous epoch slot range not derivable, skipping",
			"epoch", info.Epoch, "current_start", currentStart)
		return
	}
	prevEpoch := info.Epoch - 1
	prevStart := currentStart - info.SlotsInEpoch

	estimated, err := w.cfg.Volume.EstimateTransactions(ctx, prevStart, currentStart)
	if err != nil {
		w.cfg.Metrics.Errors.WithLabelValues(MetricErrorTypeEstimateVolume).Inc()
		w.log.Error("failed to estimate previous epoch transaction volume",
			"epoch", prevEpoch, "error", err)
		return
	}

	created, err := w.cfg.Stats.RecordOnce(prevEpoch, estimated)
	if err != nil {
		w.cfg.Metrics.Errors.WithLabelValues(MetricErrorTypeRecordStats).Inc()
		w.log.Error("failed to record previous epoch stats",
			"epoch", prevEpoch, "error", err)
		return
	}
	if created {
		w.cfg.Metrics.StatsRecorded.Inc()
		w.log.Info("recorded previous epoch stats",
			"epoch", prevEpoch, "estimated_transactions", estimated)
	}
}

func (w *EpochWatcher) exportProgressToInflux(progress *epoch.Progress) {
	line := progressLineProtocol(w.cfg.Env, progress, time.Now())
	w.log.Debug("writing epoch progress record to influx", "line", line)
	w.cfg.InfluxWriter.WriteRecord(line)
	w.cfg.InfluxWriter.Flush()
}

func (w *EpochWatcher) buildEpochChangeSlackMessage(previousEpoch uint64, progress *epoch.Progress) (string, error) {
	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 UTC")

	rows := [][]string{
		{"Environment", "Previous Epoch", "Current Epoch", "Est. Epoch End", "Timestamp"},
		{
			w.cfg.Env,
			strconv.FormatUint(previousEpoch, 10),
			strconv.FormatUint(progress.Epoch, 10),
			progress.EstimatedEndUTC.Format("2006-01-02 15:04:05 UTC"),
			timestamp,
		},
	}

	header := "Epoch Change Detected"
	footer := fmt.Sprintf("slot duration %.3fs, %d slots per epoch",
		progress.SlotDuration.Seconds(), progress.SlotsInEpoch)
	return GenerateSlackTableMessage(header, rows, nil, footer)
}

func (w *EpochWatcher) postSlackMessage(ctx context.Context, msg string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.SlackWebhookURL, strings.NewReader(msg))
	if err != nil {
		return fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("non-2xx response from Slack: %d", resp.StatusCode)
	}
	return nil
}
