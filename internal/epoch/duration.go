package epoch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/jellydator/ttlcache/v3"
	"github.com/jonboulle/clockwork"
)

// NominalSlotDuration is the protocol's target slot time, used whenever a
// live measurement is unavailable or degenerate.
const NominalSlotDuration = 400 * time.Millisecond

const (
	defaultSampleCount    = 5
	defaultSampleInterval = 2 * time.Second
	defaultMeasureTTL     = 5 * time.Minute

	slotDurationCacheKey = "slot-duration"
)

type SolanaRPCClient interface {
	GetSlot(ctx context.Context, commitment solanarpc.CommitmentType) (uint64, error)
}

type DurationEstimatorConfig struct {
	Logger *slog.Logger
	Client SolanaRPCClient
	Clock  clockwork.Clock

	// SampleCount slot observations are taken SampleInterval apart; the
	// estimate comes from the first and last that succeed.
	SampleCount    int
	SampleInterval time.Duration

	// MeasureTTL bounds how long a measurement is served before re-sampling.
	MeasureTTL time.Duration
}

func (c *DurationEstimatorConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Client == nil {
		return errors.New("rpc client is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.SampleCount == 0 {
		c.SampleCount = defaultSampleCount
	}
	if c.SampleCount < 2 {
		return errors.New("sample count must be at least 2")
	}
	if c.SampleInterval <= 0 {
		c.SampleInterval = defaultSampleInterval
	}
	if c.MeasureTTL <= 0 {
		c.MeasureTTL = defaultMeasureTTL
	}
	return nil
}

// DurationEstimator measures the chain's empirical seconds-per-slot rate by
// watching the finalized slot advance in real time. Measuring blocks the
// caller for roughly SampleCount x SampleInterval, so results are cached and
// served until MeasureTTL lapses.
type DurationEstimator struct {
	log            *slog.Logger
	client         SolanaRPCClient
	clock          clockwork.Clock
	sampleCount    int
	sampleInterval time.Duration
	cache          *ttlcache.Cache[string, time.Duration]
}

func NewDurationEstimator(cfg *DurationEstimatorConfig) (*DurationEstimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, time.Duration](cfg.MeasureTTL),
		ttlcache.WithDisableTouchOnHit[string, time.Duration](),
	)
	return &DurationEstimator{
		log:            cfg.Logger,
		client:         cfg.Client,
		clock:          cfg.Clock,
		sampleCount:    cfg.SampleCount,
		sampleInterval: cfg.SampleInterval,
		cache:          cache,
	}, nil
}

// SlotDuration returns the cached measurement when fresh and re-measures once
// the TTL lapses. It always yields a usable positive duration.
func (e *DurationEstimator) SlotDuration(ctx context.Context) time.Duration {
	if item := e.cache.Get(slotDurationCacheKey); item != nil {
		return item.Value()
	}
	measured, err := e.Measure(ctx)
	if err != nil {
		// Interrupted mid-measurement. Serve the fallback without caching it
		// so the next caller re-measures.
		return NominalSlotDuration
	}
	e.cache.Set(slotDurationCacheKey, measured, ttlcache.DefaultTTL)
	return measured
}

// Measure samples the current slot SampleCount times and derives the
// seconds-per-slot rate from the first and last successful observations.
// Failed fetches are skipped; fewer than two successes, or a chain that has
// not advanced between them, yields NominalSlotDuration rather than an error.
// The only error returned is ctx cancellation while waiting between samples.
func (e *DurationEstimator) Measure(ctx context.Context) (time.Duration, error) {
	type sample struct {
		at   time.Time
		slot uint64
	}
	var first, last sample
	succeeded := 0
	for i := 0; i < e.sampleCount; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-e.clock.After(e.sampleInterval):
			}
		}
		slot, err := e.client.GetSlot(ctx, solanarpc.CommitmentFinalized)
		if err != nil {
			e.log.Debug("slot sample failed", "attempt", i, "error", err)
			continue
		}
		s := sample{at: e.clock.Now(), slot: slot}
		if succeeded == 0 {
			first = s
		}
		last = s
		succeeded++
	}

	if succeeded < 2 || last.slot <= first.slot || !last.at.After(first.at) {
		e.log.Debug("slot duration measurement degenerate, using nominal rate",
			"samples", succeeded, "nominal", NominalSlotDuration)
		return NominalSlotDuration, nil
	}

	elapsed := last.at.Sub(first.at)
	slots := last.slot - first.slot
	return elapsed / time.Duration(slots), nil
}
