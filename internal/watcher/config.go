package watcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

const (
	defaultRecordSlotThreshold = 10
)

type LedgerRPCClient interface {
	GetEpochInfo(ctx context.Context, commitment solanarpc.CommitmentType) (*solanarpc.GetEpochInfoResult, error)
}

// SlotDurationEstimator yields the current seconds-per-slot estimate. The
// call may block for several seconds when a cached measurement has expired.
type SlotDurationEstimator interface {
	SlotDuration(ctx context.Context) time.Duration
}

// VolumeEstimator extrapolates total transaction volume across the half-open
// slot range [startSlot, endSlot).
type VolumeEstimator interface {
	EstimateTransactions(ctx context.Context, startSlot, endSlot uint64) (uint64, error)
}

// StatsStore persists one transaction-volume summary per completed epoch.
type StatsStore interface {
	RecordOnce(epoch uint64, estimatedTransactions uint64) (bool, error)
}

type InfluxWriter interface {
	Errors() <-chan error
	WriteRecord(string)
	Flush()
}

type Config struct {
	Logger    *slog.Logger
	Metrics   *Metrics
	Env       string
	RPCClient LedgerRPCClient
	Durations SlotDurationEstimator
	Volume    VolumeEstimator
	Stats     StatsStore

	Interval time.Duration

	// RecordSlotThreshold gates stats recording: the previous epoch is
	// recorded only while the current epoch's slot index is below it,
	// signaling the prior epoch's full slot range has just elapsed.
	RecordSlotThreshold uint64

	SlackWebhookURL string
	InfluxWriter    InfluxWriter
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Metrics == nil {
		return errors.New("metrics is required")
	}
	if c.RPCClient == nil {
		return errors.New("rpc client is required")
	}
	if c.Durations == nil {
		return errors.New("slot duration estimator is required")
	}
	if c.Volume == nil {
		return errors.New("volume estimator is required")
	}
	if c.Stats == nil {
		return errors.New("stats store is required")
	}
	if c.Interval <= 0 {
		return errors.New("interval must be greater than 0")
	}
	if c.RecordSlotThreshold == 0 {
		c.RecordSlotThreshold = defaultRecordSlotThreshold
	}
	return nil
}
