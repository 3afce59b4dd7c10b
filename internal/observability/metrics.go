package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for map playback.
type Metrics struct {
	FramesRendered prometheus.Counter
	RegionsPainted prometheus.Counter
	PaintSkipped   prometheus.Counter
	Ticks          *prometheus.CounterVec // labels: outcome={advanced,idle,paused_at_start}
	Seeks          prometheus.Counter
	ActiveRegions  prometheus.Gauge
	PlaybackActive prometheus.Gauge

	// Dataset metrics.
	DatasetLoads     *prometheus.CounterVec // labels: outcome={success,truncated,malformed}
	SnapshotCache    *prometheus.CounterVec // labels: result={hit,miss}
	SnapshotDuration prometheus.Histogram

	// Paint sink metrics.
	SinkMessages *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all playback metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alert_map",
			Name:      "frames_rendered_total",
			Help:      "Total frames decoded and diff-rendered.",
		}),
		RegionsPainted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alert_map",
			Name:      "regions_painted_total",
			Help:      "Total region paint calls issued to the surface.",
		}),
		PaintSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alert_map",
			Name:      "paint_skipped_total",
			Help:      "Regions in a frame's diff union whose primary alert was unchanged.",
		}),
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_map",
			Name:      "ticks_total",
			Help:      "Scheduled playback ticks by outcome.",
		}, []string{"outcome"}),
		Seeks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "alert_map",
			Name:      "seeks_total",
			Help:      "Slider seeks applied.",
		}),
		ActiveRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "alert_map",
			Name:      "active_regions",
			Help:      "Regions with at least one alert in the displayed frame.",
		}),
		PlaybackActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "alert_map",
			Name:      "playback_running",
			Help:      "1 while the tick scheduler is running, 0 otherwise.",
		}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_map",
			Name:      "dataset_loads_total",
			Help:      "Binary time-series loads by outcome.",
		}, []string{"outcome"}),
		SnapshotCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_map",
			Name:      "snapshot_cache_total",
			Help:      "Decoded snapshot cache lookups by result.",
		}, []string{"result"}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "alert_map",
			Name:      "frame_duration_seconds",
			Help:      "Duration of decoding and diff-rendering one frame.",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}),
		SinkMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alert_map",
			Name:      "paint_sink_messages_total",
			Help:      "Paint commands published to the Kafka sink by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.FramesRendered,
		m.RegionsPainted,
		m.PaintSkipped,
		m.Ticks,
		m.Seeks,
		m.ActiveRegions,
		m.PlaybackActive,
		m.DatasetLoads,
		m.SnapshotCache,
		m.SnapshotDuration,
		m.SinkMessages,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FramesRendered:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "alert_map", Name: "frames_rendered_total"}),
		RegionsPainted:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "alert_map", Name: "regions_painted_total"}),
		PaintSkipped:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "alert_map", Name: "paint_skipped_total"}),
		Ticks:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_map", Name: "ticks_total"}, []string{"outcome"}),
		Seeks:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "alert_map", Name: "seeks_total"}),
		ActiveRegions:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "alert_map", Name: "active_regions"}),
		PlaybackActive:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "alert_map", Name: "playback_running"}),
		DatasetLoads:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_map", Name: "dataset_loads_total"}, []string{"outcome"}),
		SnapshotCache:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_map", Name: "snapshot_cache_total"}, []string{"result"}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "alert_map", Name: "frame_duration_seconds"}),
		SinkMessages:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "alert_map", Name: "paint_sink_messages_total"}, []string{"outcome"}),
	}
}
