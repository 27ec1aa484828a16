// Package metrics holds the Prometheus collectors for the verification pipeline.
// Every method is safe on a nil *Metrics so components can run uninstrumented.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "verifact"

// Metrics groups the pipeline collectors
type Metrics struct {
	claimsIngested   *prometheus.CounterVec
	verdicts         *prometheus.CounterVec
	adapterFailures  *prometheus.CounterVec
	adapterResults   *prometheus.HistogramVec
	alerts           *prometheus.CounterVec
	clustersCreated  prometheus.Counter
	clusterRuns      *prometheus.CounterVec
	verifyDuration   prometheus.Histogram
	indexSize        prometheus.Gauge
	embeddingsZeroed prometheus.Counter
	cacheLookups     *prometheus.CounterVec
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		claimsIngested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_ingested_total",
			Help:      "Texts processed by ingest, by outcome (claim, not_claim).",
		}, []string{"outcome"}),
		verdicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Verdicts produced, by label.",
		}, []string{"label"}),
		adapterFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evidence_adapter_failures_total",
			Help:      "Evidence adapter calls that failed or panicked.",
		}, []string{"adapter"}),
		adapterResults: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evidence_adapter_results",
			Help:      "Sources returned per adapter call.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		}, []string{"adapter"}),
		alerts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Alerts raised, by severity.",
		}, []string{"severity"}),
		clustersCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clusters_created_total",
			Help:      "Clusters written by clustering runs.",
		}),
		clusterRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cluster_runs_total",
			Help:      "Clustering runs, by result (ok, skipped, error).",
		}, []string{"result"}),
		verifyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verification_duration_seconds",
			Help:      "End-to-end verification latency.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		indexSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "similarity_index_entries",
			Help:      "Entries in the similarity index.",
		}),
		embeddingsZeroed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embeddings_zero_fallback_total",
			Help:      "Embeddings replaced by a zero vector after a provider failure.",
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups, by outcome (memory, disk, miss).",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ClaimIngested(isClaim bool) {
	if m == nil {
		return
	}
	outcome := "not_claim"
	if isClaim {
		outcome = "claim"
	}
	m.claimsIngested.WithLabelValues(outcome).Inc()
}

func (m *Metrics) VerdictProduced(label string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(label).Inc()
	m.verifyDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) AdapterFailed(adapter string) {
	if m == nil {
		return
	}
	m.adapterFailures.WithLabelValues(adapter).Inc()
}

func (m *Metrics) AdapterReturned(adapter string, n int) {
	if m == nil {
		return
	}
	m.adapterResults.WithLabelValues(adapter).Observe(float64(n))
}

func (m *Metrics) AlertRaised(severity string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(severity).Inc()
}

func (m *Metrics) ClusterRun(result string, created int) {
	if m == nil {
		return
	}
	m.clusterRuns.WithLabelValues(result).Inc()
	m.clustersCreated.Add(float64(created))
}

func (m *Metrics) IndexSize(n int) {
	if m == nil {
		return
	}
	m.indexSize.Set(float64(n))
}

func (m *Metrics) EmbeddingZeroed() {
	if m == nil {
		return
	}
	m.embeddingsZeroed.Inc()
}

func (m *Metrics) CacheLookup(outcome string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}
