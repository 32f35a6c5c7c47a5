package watcher

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/xcoulter/Solana-Epoch-Tracker/internal/epoch"
)

// progressLineProtocol renders a progress snapshot as an influx line protocol
// record under the epoch_progress measurement, tagged by environment.
func progressLineProtocol(env string, p *epoch.Progress, ts time.Time) string {
	tags := map[string]string{
		"env": env,
	}
	fields := map[string]interface{}{
		"epoch":                  int64(p.Epoch),
		"slot_index":             int64(p.SlotIndex),
		"absolute_slot":          int64(p.AbsoluteSlot),
		"pct_done":               p.PctDone,
		"remaining_slots":        int64(p.RemainingSlots),
		"time_remaining_seconds": p.TimeRemaining.Seconds(),
		"slot_duration_seconds":  p.SlotDuration.Seconds(),
		"estimated_end_unix":     p.EstimatedEndUTC.Unix(),
	}
	point := influxdb2.NewPoint("epoch_progress", tags, fields, ts)
	return write.PointToLineProtocol(point, time.Nanosecond)
}
