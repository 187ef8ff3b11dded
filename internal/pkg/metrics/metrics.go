package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// SectorOpsTotal counts block I/O requests.
	SectorOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvm_sector_ops_total",
			Help: "Total number of sector reads and writes.",
		},
		[]string{"op", "result"}, // op: read/write, result: ok or the failure sentinel
	)

	// SectorOpLatency records how long a single sector transfer took.
	SectorOpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uvm_sector_op_duration_seconds",
			Help:    "Latency of single sector transfers.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// ConsoleBytesTotal counts console traffic.
	ConsoleBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvm_console_bytes_total",
			Help: "Bytes written to and read from the console.",
		},
		[]string{"direction"}, // direction: out/in
	)

	// DelayTicksTotal counts ticks spent in delays.
	DelayTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvm_delay_ticks_total",
			Help: "Timer ticks waited, by stage.",
		},
		[]string{"stage"},
	)

	// StagePhase is 1 for the phase a stage is currently in and 0 otherwise.
	StagePhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "uvm_stage_phase",
			Help: "Current phase of the boot and kernel stages (1=current).",
		},
		[]string{"stage", "phase"},
	)

	// CapabilityPresent reports which PlatformInfo slots were populated at boot.
	CapabilityPresent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "uvm_capability_present",
			Help: "Whether a platform capability slot is present (1) or absent (0).",
		},
		[]string{"slot"},
	)
)

func init() {
	metrics.Registry.MustRegister(SectorOpsTotal)
	metrics.Registry.MustRegister(SectorOpLatency)
	metrics.Registry.MustRegister(ConsoleBytesTotal)
	metrics.Registry.MustRegister(DelayTicksTotal)
	metrics.Registry.MustRegister(StagePhase)
	metrics.Registry.MustRegister(CapabilityPresent)
}

// SetPhase marks phase as the current phase of stage.
func SetPhase(stage, from, to string) {
	if from != "" {
		StagePhase.WithLabelValues(stage, from).Set(0)
	}
	StagePhase.WithLabelValues(stage, to).Set(1)
}
