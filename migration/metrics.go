package migration

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docmigrate"

// runnerMetrics is shared by a runner and every copy returned by Bind.
type runnerMetrics struct {
	documents    *prometheus.CounterVec
	pageDuration *prometheus.HistogramVec
	pages        *prometheus.CounterVec
}

func newRunnerMetrics() *runnerMetrics {
	return &runnerMetrics{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Number of documents visited by migrations, by outcome",
		}, []string{"collection", "status"}),
		pageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_duration_seconds",
			Help:      "Time to transform and persist one page of documents",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"collection"}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Number of pages fetched by migrations",
		}, []string{"collection"}),
	}
}

// PrometheusCollectors returns the metrics of the runner.
func (m *runnerMetrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.documents,
		m.pageDuration,
		m.pages,
	}
}
