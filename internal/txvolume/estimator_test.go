package txvolume_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
	"github.com/xcoulter/Solana-Epoch-Tracker/internal/txvolume"
)

type mockSolanaRPCClient struct {
	GetBlockWithOptsFunc func(ctx context.Context, slot uint64, opts *solanarpc.GetBlockOpts) (*solanarpc.GetBlockResult, error)
}

func (m *mockSolanaRPCClient) GetBlockWithOpts(ctx context.Context, slot uint64, opts *solanarpc.GetBlockOpts) (*solanarpc.GetBlockResult, error) {
	return m.GetBlockWithOptsFunc(ctx, slot, opts)
}

func newTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func blockWithTxs(n int) *solanarpc.GetBlockResult {
	return &solanarpc.GetBlockResult{Signatures: make([]solana.Signature, n)}
}

func newTestEstimator(t *testing.T, client *mockSolanaRPCClient, stride uint64) *txvolume.Estimator {
	t.Helper()
	est, err := txvolume.NewEstimator(&txvolume.EstimatorConfig{
		Logger:       newTestLogger(t),
		Client:       client,
		SampleStride: stride,
	})
	require.NoError(t, err)
	return est
}

func TestTxVolume_Estimator_EstimateTransactions(t *testing.T) {
	t.Parallel()

	t.Run("extrapolates average over the half-open range", func(t *testing.T) {
		t.Parallel()

		var requested []uint64
		client := &mockSolanaRPCClient{
			GetBlockWithOptsFunc: func(ctx context.Context, slot uint64, opts *solanarpc.GetBlockOpts) (*solanarpc.GetBlockResult, error) {
				requested = append(requested, slot)
				switch slot {
				case 0:
					return blockWithTxs(10), nil
				case 500:
					return blockWithTxs(20), nil
				default:
					return nil, errors.New("unexpected slot")
				}
			},
		}
		est := newTestEstimator(t, client, 500)

		got, err := est.EstimateTransactions(context.Background(), 0, 1000)
		require.NoError(t, err)
		// avg (10+20)/2 = 15 across 1000 slots.
		require.Equal(t, uint64(15_000), got)
		// endSlot itself is never sampled.
		require.Equal(t, []uint64{0, 500}, requested)
	})

	t.Run("unresolved samples are excluded, not counted as zero", func(t *testing.T) {
		t.Parallel()

		client := &mockSolanaRPCClient{
			GetBlockWithOptsFunc: func(ctx context.Context, slot uint64, opts *solanarpc.GetBlockOpts) (*solanarpc.GetBlockResult, error) {
				switch slot {
				case 0:
					return blockWithTxs(10), nil
				case 500:
					return nil, errors.New("slot was skipped")
				case 1000:
					// A null block response is also an unresolved sample.
					return nil, nil
				default:
					return nil, errors.New("unexpected slot")
				}
			},
		}
		est := newTestEstimator(t, client, 500)

		got, err := est.EstimateTransactions(context.Background(), 0, 1500)
		require.NoError(t, err)
		// Only slot 0 resolved: avg 10 across 1500 slots.
		require.Equal(t, uint64(15_000), got)
	})

	t.Run("no resolved samples estimates zero", func(t *testing.T) {
		t.Parallel()

		client := &mockSolanaRPCClient{
			GetBlockWithOptsFunc: func(ctx context.Context, slot uint64, opts *solanarpc.GetBlockOpts) (*solanarpc.GetBlockResult, error) {
				return nil, errors.New("rpc unavailable")
			},
		}
		est := newTestEstimator(t, client, 100)

		got, err := est.EstimateTransactions(context.Background(), 0, 1000)
		require.NoError(t, err)
		require.Zero(t, got)
	})

	t.Run("rejects an inverted slot range", func(t *testing.T) {
		t.Parallel()

		client := &mockSolanaRPCClient{
			GetBlockWithOptsFunc: func(ctx context.Context, slot uint64, opts *solanarpc.GetBlockOpts) (*solanarpc.GetBlockResult, error) {
				return blockWithTxs(1), nil
			},
		}
		est := newTestEstimator(t, client, 100)

		_, err := est.EstimateTransactions(context.Background(), 1000, 1000)
		require.ErrorContains(t, err, "must be below end slot")
	})

	t.Run("aborts on context cancellation", func(t *testing.T) {
		t.Parallel()

		client := &mockSolanaRPCClient{
			GetBlockWithOptsFunc: func(ctx context.Context, slot uint64, opts *solanarpc.GetBlockOpts) (*solanarpc.GetBlockResult, error) {
				return blockWithTxs(1), nil
			},
		}
		est := newTestEstimator(t, client, 100)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := est.EstimateTransactions(ctx, 0, 1000)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestTxVolume_Estimator_ConfigValidate(t *testing.T) {
	t.Parallel()

	client := &mockSolanaRPCClient{
		GetBlockWithOptsFunc: func(ctx context.Context, slot uint64, opts *solanarpc.GetBlockOpts) (*solanarpc.GetBlockResult, error) {
			return nil, nil
		},
	}

	t.Run("missing logger", func(t *testing.T) {
		t.Parallel()
		_, err := txvolume.NewEstimator(&txvolume.EstimatorConfig{Client: client})
		require.ErrorContains(t, err, "logger is required")
	})

	t.Run("missing client", func(t *testing.T) {
		t.Parallel()
		_, err := txvolume.NewEstimator(&txvolume.EstimatorConfig{
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
		require.ErrorContains(t, err, "rpc client is required")
	})

	t.Run("zero stride defaults", func(t *testing.T) {
		t.Parallel()
		cfg := &txvolume.EstimatorConfig{
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			Client: client,
		}
		_, err := txvolume.NewEstimator(cfg)
		require.NoError(t, err)
		require.Positive(t, cfg.SampleStride)
	})
}
