// Package epoch derives epoch timing from slot arithmetic: an empirical
// slot-duration estimator, current-epoch progress, and a reconstructed
// boundary timeline back to genesis.
package epoch

import (
	"errors"
	"fmt"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// Progress is a point-in-time view of how far an epoch has advanced and when
// it is estimated to end. It is recomputed on every refresh, never stored.
type Progress struct {
	Epoch        uint64
	SlotIndex    uint64
	SlotsInEpoch uint64
	AbsoluteSlot uint64

	// StartSlot and EndSlot are the epoch's first and last absolute slots.
	StartSlot uint64
	EndSlot   uint64

	RemainingSlots uint64
	PctDone        float64

	SlotDuration      time.Duration
	TimeRemaining     time.Duration
	EstimatedStartUTC time.Time
	EstimatedEndUTC   time.Time
}

// ComputeProgress derives epoch progress from an epoch info snapshot, a
// seconds-per-slot rate, and an explicit observation time. Pure: identical
// inputs yield identical outputs.
//
// Malformed snapshots (zero slotsInEpoch, slot index out of range, absolute
// slot behind the slot index) indicate an upstream integrity failure and are
// returned as errors, never normalized into a misleading percentage.
func ComputeProgress(info *solanarpc.GetEpochInfoResult, slotDuration time.Duration, now time.Time) (*Progress, error) {
	if info == nil {
		return nil, errors.New("epoch info is required")
	}
	if info.SlotsInEpoch == 0 {
		return nil, errors.New("epoch info has zero slotsInEpoch")
	}
	if info.SlotIndex >= info.SlotsInEpoch {
		return nil, fmt.Errorf("slot index %d out of range for epoch of %d slots", info.SlotIndex, info.SlotsInEpoch)
	}
	if info.AbsoluteSlot < info.SlotIndex {
		return nil, fmt.Errorf("absolute slot %d is behind slot index %d", info.AbsoluteSlot, info.SlotIndex)
	}
	if slotDuration <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %v", slotDuration)
	}

	nowUTC := now.UTC()
	startSlot := info.AbsoluteSlot - info.SlotIndex
	remaining := info.SlotsInEpoch - info.SlotIndex
	timeRemaining := time.Duration(remaining) * slotDuration

	return &Progress{
		Epoch:             info.Epoch,
		SlotIndex:         info.SlotIndex,
		SlotsInEpoch:      info.SlotsInEpoch,
		AbsoluteSlot:      info.AbsoluteSlot,
		StartSlot:         startSlot,
		EndSlot:           startSlot + info.SlotsInEpoch - 1,
		RemainingSlots:    remaining,
		PctDone:           100 * float64(info.SlotIndex) / float64(info.SlotsInEpoch),
		SlotDuration:      slotDuration,
		TimeRemaining:     timeRemaining,
		EstimatedStartUTC: nowUTC.Add(-time.Duration(info.SlotIndex) * slotDuration),
		EstimatedEndUTC:   nowUTC.Add(timeRemaining),
	}, nil
}
