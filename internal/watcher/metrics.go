package watcher

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Metric names.
	MetricNameBuildInfo           = "epoch_tracker_monitor_build_info"
	MetricNameCurrentEpoch        = "epoch_tracker_monitor_current_epoch"
	MetricNameEpochPctDone        = "epoch_tracker_monitor_epoch_pct_done"
	MetricNameEpochRemainingSlots = "epoch_tracker_monitor_epoch_remaining_slots"
	MetricNameEpochTimeRemaining  = "epoch_tracker_monitor_epoch_time_remaining_seconds"
	MetricNameEpochEstimatedEnd   = "epoch_tracker_monitor_epoch_estimated_end_timestamp_seconds"
	MetricNameSlotDuration        = "epoch_tracker_monitor_slot_duration_seconds"
	MetricNameEpochRollovers      = "epoch_tracker_monitor_epoch_rollovers_total"
	MetricNameStatsRecorded       = "epoch_tracker_monitor_epoch_stats_recorded_total"
	MetricNameErrors              = "epoch_tracker_monitor_errors_total"

	// Labels.
	MetricLabelVersion   = "version"
	MetricLabelCommit    = "commit"
	MetricLabelDate      = "date"
	MetricLabelErrorType = "error_type"

	// Error types.
	MetricErrorTypeGetEpochInfo    = "get_epoch_info"
	MetricErrorTypeComputeProgress = "compute_progress"
	MetricErrorTypeEstimateVolume  = "estimate_volume"
	MetricErrorTypeRecordStats     = "record_stats"
)

type Metrics struct {
	BuildInfo           *prometheus.GaugeVec
	CurrentEpoch        prometheus.Gauge
	EpochPctDone        prometheus.Gauge
	EpochRemainingSlots prometheus.Gauge
	EpochTimeRemaining  prometheus.Gauge
	EpochEstimatedEnd   prometheus.Gauge
	SlotDuration        prometheus.Gauge
	EpochRollovers      prometheus.Counter
	StatsRecorded       prometheus.Counter
	Errors              *prometheus.CounterVec
}

// NewMetrics creates the collectors but does not auto-register them.
func NewMetrics() *Metrics {
	return &Metrics{
		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricNameBuildInfo,
				Help: "Build information of the monitor",
			},
			[]string{MetricLabelVersion, MetricLabelCommit, MetricLabelDate},
		),
		CurrentEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricNameCurrentEpoch,
			Help: "Current epoch number",
		}),
		EpochPctDone: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricNameEpochPctDone,
			Help: "Percentage of the current epoch elapsed",
		}),
		EpochRemainingSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricNameEpochRemainingSlots,
			Help: "Slots remaining in the current epoch",
		}),
		EpochTimeRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricNameEpochTimeRemaining,
			Help: "Estimated seconds until the current epoch ends",
		}),
		EpochEstimatedEnd: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricNameEpochEstimatedEnd,
			Help: "Estimated end of the current epoch as a unix timestamp",
		}),
		SlotDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricNameSlotDuration,
			Help: "Measured seconds per slot",
		}),
		EpochRollovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricNameEpochRollovers,
			Help: "Number of epoch changes observed",
		}),
		StatsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricNameStatsRecorded,
			Help: "Number of per-epoch stats records written",
		}),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricNameErrors,
				Help: "Number of errors encountered",
			},
			[]string{MetricLabelErrorType},
		),
	}
}

// Register all metrics with the provided registry.
func (m *Metrics) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.BuildInfo,
		m.CurrentEpoch,
		m.EpochPctDone,
		m.EpochRemainingSlots,
		m.EpochTimeRemaining,
		m.EpochEstimatedEnd,
		m.SlotDuration,
		m.EpochRollovers,
		m.StatsRecorded,
		m.Errors,
	)
}
