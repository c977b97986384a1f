package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "streams_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the chart pipeline.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: status={success,failed}
	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge

	RowsFetched      prometheus.Counter
	RowsStored       prometheus.Gauge
	RowsDropped      *prometheus.CounterVec // labels: reason={missing,footnote,unparsed,duplicate}
	UnparsedKept     prometheus.Gauge
	HeaderCollisions prometheus.Counter

	StageDuration *prometheus.HistogramVec // labels: stage
	StageErrors   *prometheus.CounterVec   // labels: stage

	MessagesProduced prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by final status.",
		}, []string{"status"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		RowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_fetched_total",
			Help:      "Data rows read from the source table before cleaning.",
		}),
		RowsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_stored",
			Help:      "Rows written to the destination table by the last run.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Source rows removed during cleaning, by reason.",
		}, []string{"reason"}),
		UnparsedKept: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_unparsed_streams",
			Help:      "Rows kept by the last run whose stream count did not parse.",
		}),
		HeaderCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "header_collisions_total",
			Help:      "Source headers that mapped onto an already mapped column.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Stage failures, fatal or not.",
		}, []string{"stage"}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Song messages written to Kafka.",
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.PipelineRunning,
		m.LastSuccess,
		m.RowsFetched,
		m.RowsStored,
		m.RowsDropped,
		m.UnparsedKept,
		m.HeaderCollisions,
		m.StageDuration,
		m.StageErrors,
		m.MessagesProduced,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
