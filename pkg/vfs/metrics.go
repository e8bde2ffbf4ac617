package vfs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics instruments the worker pool the way spec.md §5 frames it: the
// pool's effect on callers should be observable "through latency and
// memory" rather than through its own API, so these are counters/gauges a
// caller scrapes (e.g. via promhttp), not anything Pool.Run's return value
// carries.
type metrics struct {
	tasksRun      prometheus.Counter
	tasksInFlight prometheus.Gauge
	waitSeconds   prometheus.Histogram
}

var (
	registerMetricsOnce sync.Once
	sharedMetrics       *metrics
)

// newMetrics registers the pool's Prometheus collectors exactly once per
// process, mirroring version.go's one-time registration discipline; every
// Pool shares the same collector set, distinguished only by the values
// they report, since a per-connection label set isn't named anywhere in
// the connection-tuning contract.
func newMetrics() *metrics {
	registerMetricsOnce.Do(func() {
		sharedMetrics = &metrics{
			tasksRun: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "gsqlite",
				Subsystem: "vfs",
				Name:      "pool_tasks_total",
				Help:      "Compression/decompression tasks run by the compressed VFS worker pool.",
			}),
			tasksInFlight: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "gsqlite",
				Subsystem: "vfs",
				Name:      "pool_tasks_in_flight",
				Help:      "Compression/decompression tasks currently holding a worker slot.",
			}),
			waitSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
				Namespace: "gsqlite",
				Subsystem: "vfs",
				Name:      "pool_admission_wait_seconds",
				Help:      "Time spent waiting for a worker slot and rate-limiter token.",
			}),
		}
	})
	return sharedMetrics
}
