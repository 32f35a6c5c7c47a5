package txvolume

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

const defaultSampleStride = 1000

type SolanaRPCClient interface {
	GetBlockWithOpts(ctx context.Context, slot uint64, opts *solanarpc.GetBlockOpts) (*solanarpc.GetBlockResult, error)
}

type EstimatorConfig struct {
	Logger *slog.Logger
	Client SolanaRPCClient

	// SampleStride is the spacing between sampled slots. Sampling every slot
	// of a 432,000-slot epoch is infeasible, so cost is bounded by
	// (endSlot-startSlot)/SampleStride block lookups.
	SampleStride uint64
}

func (c *EstimatorConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Client == nil {
		return errors.New("rpc client is required")
	}
	if c.SampleStride == 0 {
		c.SampleStride = defaultSampleStride
	}
	return nil
}

// Estimator extrapolates an epoch's total transaction count from blocks
// sampled at a fixed slot stride. The figure is a statistical estimate, not
// an exact count.
type Estimator struct {
	log    *slog.Logger
	client SolanaRPCClient
	stride uint64
}

func NewEstimator(cfg *EstimatorConfig) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{
		log:    cfg.Logger,
		client: cfg.Client,
		stride: cfg.SampleStride,
	}, nil
}

// EstimateTransactions samples blocks at the configured stride across the
// half-open slot range [startSlot, endSlot) and extrapolates the total
// transaction count. Slots whose block cannot be fetched, including leader
// skips, are excluded from both the accumulator and the sample counter rather
// than counted as zero. A range where no sample resolves estimates 0. The
// lookups run sequentially and block the caller; only ctx cancellation aborts
// the walk with an error.
func (e *Estimator) EstimateTransactions(ctx context.Context, startSlot, endSlot uint64) (uint64, error) {
	if startSlot >= endSlot {
		return 0, fmt.Errorf("start slot %d must be below end slot %d", startSlot, endSlot)
	}

	rewards := false
	opts := &solanarpc.GetBlockOpts{
		TransactionDetails:             solanarpc.TransactionDetailsSignatures,
		Rewards:                        &rewards,
		Commitment:                     solanarpc.CommitmentFinalized,
		MaxSupportedTransactionVersion: &solanarpc.MaxSupportedTransactionVersion0,
	}

	var totalTx, sampled uint64
	for slot := startSlot; slot < endSlot; slot += e.stride {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		block, err := e.client.GetBlockWithOpts(ctx, slot, opts)
		if err != nil || block == nil {
			e.log.Debug("block sample unresolved", "slot", slot, "error", err)
			continue
		}
		totalTx += uint64(len(block.Signatures))
		sampled++
	}

	e.log.Debug("sampled blocks for transaction volume",
		"startSlot", startSlot, "endSlot", endSlot, "stride", e.stride,
		"sampled", sampled, "totalTx", totalTx)

	if sampled == 0 {
		return 0, nil
	}

	avgPerSlot := float64(totalTx) / float64(sampled)
	return uint64(math.Round(avgPerSlot * float64(endSlot-startSlot))), nil
}
