package epoch_test

import (
	"testing"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
	"github.com/xcoulter/Solana-Epoch-Tracker/internal/epoch"
)

func TestEpoch_ComputeProgress(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("halfway through an epoch", func(t *testing.T) {
		t.Parallel()

		info := &solanarpc.GetEpochInfoResult{
			Epoch:        3,
			SlotIndex:    216_000,
			SlotsInEpoch: 432_000,
			AbsoluteSlot: 1_512_000,
		}
		got, err := epoch.ComputeProgress(info, 400*time.Millisecond, now)
		require.NoError(t, err)

		require.Equal(t, uint64(3), got.Epoch)
		require.Equal(t, uint64(1_296_000), got.StartSlot)
		require.Equal(t, uint64(1_727_999), got.EndSlot)
		require.Equal(t, uint64(216_000), got.RemainingSlots)
		require.InDelta(t, 50.0, got.PctDone, 1e-9)
		require.Equal(t, 24*time.Hour, got.TimeRemaining)
		require.Equal(t, now.Add(24*time.Hour), got.EstimatedEndUTC)
		require.Equal(t, now.Add(-24*time.Hour), got.EstimatedStartUTC)
	})

	t.Run("epoch start has zero percent done", func(t *testing.T) {
		t.Parallel()

		info := &solanarpc.GetEpochInfoResult{
			Epoch:        10,
			SlotIndex:    0,
			SlotsInEpoch: 432_000,
			AbsoluteSlot: 4_320_000,
		}
		got, err := epoch.ComputeProgress(info, 400*time.Millisecond, now)
		require.NoError(t, err)
		require.Zero(t, got.PctDone)
		require.Equal(t, got.AbsoluteSlot, got.StartSlot)
	})

	t.Run("last slot stays below one hundred percent", func(t *testing.T) {
		t.Parallel()

		info := &solanarpc.GetEpochInfoResult{
			Epoch:        10,
			SlotIndex:    431_999,
			SlotsInEpoch: 432_000,
			AbsoluteSlot: 4_751_999,
		}
		got, err := epoch.ComputeProgress(info, 400*time.Millisecond, now)
		require.NoError(t, err)
		require.Less(t, got.PctDone, 100.0)
		require.Greater(t, got.PctDone, 99.0)
	})

	t.Run("pure over identical inputs", func(t *testing.T) {
		t.Parallel()

		info := &solanarpc.GetEpochInfoResult{
			Epoch:        7,
			SlotIndex:    123_456,
			SlotsInEpoch: 432_000,
			AbsoluteSlot: 3_147_456,
		}
		a, err := epoch.ComputeProgress(info, 412*time.Millisecond, now)
		require.NoError(t, err)
		b, err := epoch.ComputeProgress(info, 412*time.Millisecond, now)
		require.NoError(t, err)
		require.Equal(t, a, b)
	})

	t.Run("rejects malformed snapshots", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name         string
			info         *solanarpc.GetEpochInfoResult
			slotDuration time.Duration
			wantErr      string
		}{
			{
				name:         "nil info",
				info:         nil,
				slotDuration: 400 * time.Millisecond,
				wantErr:      "epoch info is required",
			},
			{
				name:         "zero slotsInEpoch",
				info:         &solanarpc.GetEpochInfoResult{Epoch: 1, SlotIndex: 0, SlotsInEpoch: 0, AbsoluteSlot: 100},
				slotDuration: 400 * time.Millisecond,
				wantErr:      "zero slotsInEpoch",
			},
			{
				name:         "slot index out of range",
				info:         &solanarpc.GetEpochInfoResult{Epoch: 1, SlotIndex: 432_000, SlotsInEpoch: 432_000, AbsoluteSlot: 864_000},
				slotDuration: 400 * time.Millisecond,
				wantErr:      "out of range",
			},
			{
				name:         "absolute slot behind slot index",
				info:         &solanarpc.GetEpochInfoResult{Epoch: 1, SlotIndex: 100, SlotsInEpoch: 432_000, AbsoluteSlot: 50},
				slotDuration: 400 * time.Millisecond,
				wantErr:      "behind slot index",
			},
			{
				name:         "non-positive slot duration",
				info:         &solanarpc.GetEpochInfoResult{Epoch: 1, SlotIndex: 100, SlotsInEpoch: 432_000, AbsoluteSlot: 432_100},
				slotDuration: 0,
				wantErr:      "must be positive",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				_, err := epoch.ComputeProgress(tt.info, tt.slotDuration, now)
				require.ErrorContains(t, err, tt.wantErr)
			})
		}
	})
}
