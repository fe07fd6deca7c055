package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rainwater"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// assessment service.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
	MessagesSkipped         *prometheus.CounterVec // labels: reason; committed without a result
	LoadRetries             prometheus.Counter

	// Assessment outcome metrics.
	Assessments        *prometheus.CounterVec // labels: source={kafka,http}
	AssessmentErrors   *prometheus.CounterVec // labels: reason={invalid_input,rainfall_unavailable,internal}
	AssessmentDuration prometheus.Histogram
	OptimizationUnmet  *prometheus.CounterVec // labels: scenario
	DegenerateYield    prometheus.Counter
	RecommendedTank    prometheus.Histogram

	// Rainfall lookup metrics.
	RainfallRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	RainfallCache       *prometheus.CounterVec // labels: result={hit,miss}
	RainfallAPIDuration prometheus.Histogram
	RainfallEnabled     prometheus.Gauge

	// Result sink metrics.
	SinkWrites *prometheus.CounterVec // labels: sink, outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can build as many instances as they need without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewUnregisteredMetrics creates Metrics for offline tools that never serve
// /metrics.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total assessment requests read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total assessment results written to the sinks.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-assess-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		MessagesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_skipped_total",
			Help:      "Requests committed without a result, by failure reason.",
		}, []string{"reason"}),
		LoadRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_retries_total",
			Help:      "Failed result batch loads that were retried.",
		}),
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Completed assessments by request source.",
		}, []string{"source"}),
		AssessmentErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_errors_total",
			Help:      "Failed assessments by reason.",
		}, []string{"reason"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      "Duration of one assessment including rainfall lookup.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		OptimizationUnmet: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimization_unmet_total",
			Help:      "Scenarios whose sizing target was not met within the candidate grid.",
		}, []string{"scenario"}),
		DegenerateYield: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degenerate_yield_total",
			Help:      "Assessments of catchments with zero annual yield.",
		}),
		RecommendedTank: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommended_tank_liters",
			Help:      "Capacity of the recommended tank.",
			Buckets:   []float64{1000, 2000, 5000, 10000, 20000, 30000, 50000, 100000},
		}),
		RainfallRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rainfall_requests_total",
			Help:      "Rainfall normals API requests by outcome.",
		}, []string{"outcome"}),
		RainfallCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rainfall_cache_total",
			Help:      "Rainfall normals cache lookups by result.",
		}, []string{"result"}),
		RainfallAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rainfall_api_duration_seconds",
			Help:      "Rainfall normals API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RainfallEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rainfall_lookup_enabled",
			Help:      "1 when location-based rainfall lookup is enabled, 0 otherwise.",
		}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_writes_total",
			Help:      "Result batches written per sink by outcome.",
		}, []string{"sink", "outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesConsumed,
		m.MessagesProduced,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.MessagesSkipped,
		m.LoadRetries,
		m.Assessments,
		m.AssessmentErrors,
		m.AssessmentDuration,
		m.OptimizationUnmet,
		m.DegenerateYield,
		m.RecommendedTank,
		m.RainfallRequests,
		m.RainfallCache,
		m.RainfallAPIDuration,
		m.RainfallEnabled,
		m.SinkWrites,
	}
}
