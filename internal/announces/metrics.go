package announces

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "announce_search"

// Metrics tracks indexation runs.
type Metrics struct {
	documentsIndexed prometheus.Counter
	indexErrors      prometheus.Counter
	runDuration      prometheus.Histogram
	indexDocuments   prometheus.Gauge
}

// NewMetrics creates the indexation metrics and registers them on reg.
// Collectors already registered on reg are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		documentsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_indexed_total",
			Help:      "Total announce documents written to the index",
		}),
		indexErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "index_errors_total",
			Help:      "Total announces that failed to index",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "index_run_duration_seconds",
			Help:      "Duration of full indexation runs",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		indexDocuments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "index_documents",
			Help:      "Number of documents in the index",
		}),
	}

	m.documentsIndexed = register(reg, m.documentsIndexed)
	m.indexErrors = register(reg, m.indexErrors)
	m.runDuration = register(reg, m.runDuration)
	m.indexDocuments = register(reg, m.indexDocuments)
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) observeRun(state *RunState, seconds float64, docCount uint64) {
	if m == nil {
		return
	}
	m.documentsIndexed.Add(float64(state.Documents))
	m.indexErrors.Add(float64(len(state.Errors)))
	m.runDuration.Observe(seconds)
	m.indexDocuments.Set(float64(docCount))
}
