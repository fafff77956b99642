package hooks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusHooks exports the same events LogHooks logs as counters, for
// callers that scrape metrics instead of tailing logs.
type PrometheusHooks struct {
	Redirects      *prometheus.CounterVec
	BatchesFlushed *prometheus.CounterVec
	BatchSize      *prometheus.HistogramVec
	Refreshes      prometheus.Counter
}

// NewPrometheusHooks builds and registers the metrics against the default
// registry.
func NewPrometheusHooks() *PrometheusHooks {
	return &PrometheusHooks{
		Redirects: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clusterpipe_redirects_total",
				Help: "Total number of MOVED/ASK redirections handled",
			},
			[]string{"kind"},
		),
		BatchesFlushed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clusterpipe_batches_flushed_total",
				Help: "Total number of per-node batches flushed to the wire",
			},
			[]string{"node"},
		),
		BatchSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clusterpipe_batch_size",
				Help:    "Number of commands per flushed batch",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"node"},
		),
		Refreshes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "clusterpipe_shard_map_refreshes_total",
				Help: "Total number of shard map refreshes triggered by MOVED or unresolved ASK replies",
			},
		),
	}
}

func (p *PrometheusHooks) Redirected(requestID, kind string, slot uint16, addr string) {
	p.Redirects.WithLabelValues(kind).Inc()
}

func (p *PrometheusHooks) BatchFlushed(requestID, node string, size int) {
	p.BatchesFlushed.WithLabelValues(node).Inc()
	p.BatchSize.WithLabelValues(node).Observe(float64(size))
}

func (p *PrometheusHooks) ShardMapRefreshed(requestID string) {
	p.Refreshes.Inc()
}
