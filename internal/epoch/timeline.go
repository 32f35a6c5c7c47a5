package epoch

import (
	"fmt"
	"time"
)

// BoundaryRecord describes one epoch's slot span and its estimated wall-clock
// boundaries. Timestamps are extrapolated at a fixed seconds-per-slot rate
// and are approximate: one block is not produced in every slot, so the
// further back the record, the larger the drift from actual block times.
type BoundaryRecord struct {
	Epoch     uint64
	StartSlot uint64
	EndSlot   uint64
	EstStart  time.Time
	EstEnd    time.Time
}

// GenerateTimeline reconstructs boundary records for every epoch from the
// current one back to epoch 0, newest first. A single reference slot duration
// is applied across the whole walk, independent of the adaptive estimate, so
// re-running the generator yields stable, comparable timestamps. The current
// epoch's estimated start anchors on now.
//
// currentStartSlot must equal currentEpoch*slotsPerEpoch: the walk assumes a
// uniform epoch length back to genesis, and inconsistent inputs would
// otherwise underflow into nonsense records.
func GenerateTimeline(currentEpoch, currentStartSlot, slotsPerEpoch uint64, referenceSlotDuration time.Duration, now time.Time) ([]BoundaryRecord, error) {
	if slotsPerEpoch == 0 {
		return nil, fmt.Errorf("slots per epoch must be positive")
	}
	if referenceSlotDuration <= 0 {
		return nil, fmt.Errorf("reference slot duration must be positive, got %v", referenceSlotDuration)
	}
	if currentStartSlot != currentEpoch*slotsPerEpoch {
		return nil, fmt.Errorf("epoch %d cannot start at slot %d with %d slots per epoch", currentEpoch, currentStartSlot, slotsPerEpoch)
	}

	nowUTC := now.UTC()
	epochDuration := time.Duration(slotsPerEpoch) * referenceSlotDuration

	records := make([]BoundaryRecord, 0, currentEpoch+1)
	for i := uint64(0); i <= currentEpoch; i++ {
		startSlot := currentStartSlot - i*slotsPerEpoch
		estStart := nowUTC.Add(-time.Duration(i) * epochDuration)
		records = append(records, BoundaryRecord{
			Epoch:     currentEpoch - i,
			StartSlot: startSlot,
			EndSlot:   startSlot + slotsPerEpoch - 1,
			EstStart:  estStart,
			EstEnd:    estStart.Add(epochDuration),
		})
	}
	return records, nil
}
