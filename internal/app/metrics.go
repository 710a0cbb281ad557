package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the catalog's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	recomputes        *prometheus.CounterVec
	recomputeDuration prometheus.Histogram
	randomRetries     prometheus.Counter
	imported          *prometheus.CounterVec
}

// NewMetrics registers the catalog collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		recomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotes",
			Name:      "author_recomputes_total",
			Help:      "Author quote-count recomputations by result.",
		}, []string{"result"}),
		recomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quotes",
			Name:      "author_recompute_duration_seconds",
			Help:      "Time spent re-reading an author's quotes and persisting the count.",
			Buckets:   prometheus.DefBuckets,
		}),
		randomRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "quotes",
			Name:      "random_quote_retries_total",
			Help:      "Random quote reads retried after racing a delete.",
		}),
		imported: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotes",
			Name:      "imported_total",
			Help:      "Quotes pulled from the upstream source by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) observeRecompute(start time.Time, err error) {
	if m == nil {
		return
	}

	m.recomputeDuration.Observe(time.Since(start).Seconds())
	m.recomputes.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) incRandomRetry() {
	if m == nil {
		return
	}

	m.randomRetries.Inc()
}

func (m *Metrics) incImported(err error) {
	if m == nil {
		return
	}

	m.imported.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
