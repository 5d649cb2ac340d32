package flagkit

import "github.com/prometheus/client_golang/prometheus"

// repositoryMetrics are the prometheus collectors a Repository
// registers for itself, grounded on the corpus's convention of a
// per-component struct of pre-registered collectors rather than
// global package-level vars (keeps multiple repositories, one per
// client key, from colliding on metric identity).
type repositoryMetrics struct {
	fetchTotal       *prometheus.CounterVec
	fetchDuration    prometheus.Histogram
	lastRefreshEpoch prometheus.Gauge
	staleReads       prometheus.Counter
}

func newRepositoryMetrics(registerer prometheus.Registerer, clientKey string) *repositoryMetrics {
	labels := prometheus.Labels{"client_key": clientKey}
	m := &repositoryMetrics{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "flagkit",
			Subsystem:   "repository",
			Name:        "fetch_total",
			Help:        "Feature payload fetches, partitioned by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "flagkit",
			Subsystem:   "repository",
			Name:        "fetch_duration_seconds",
			Help:        "Latency of feature payload fetches.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		lastRefreshEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "flagkit",
			Subsystem:   "repository",
			Name:        "last_successful_refresh_timestamp_seconds",
			Help:        "Unix timestamp of the last successful refresh.",
			ConstLabels: labels,
		}),
		staleReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "flagkit",
			Subsystem:   "repository",
			Name:        "stale_reads_total",
			Help:        "Reads served from a stale cache while a revalidation was in flight or failing.",
			ConstLabels: labels,
		}),
	}
	if registerer != nil {
		registerer.MustRegister(m.fetchTotal, m.fetchDuration, m.lastRefreshEpoch, m.staleReads)
	}
	return m
}
