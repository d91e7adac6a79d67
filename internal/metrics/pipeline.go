package metrics

import "github.com/prometheus/client_golang/prometheus"

// Question-answering pipeline metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarag",
			Name:      "generation_requests_total",
			Help:      "Total number of LLM completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scholarag",
			Name:      "generation_request_duration_seconds",
			Help:      "LLM completion request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	RetrievalFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scholarag",
			Name:      "retrieval_fallbacks_total",
			Help:      "Retrievals where no chunk cleared the similarity threshold",
		},
	)

	RetrievalErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scholarag",
			Name:      "retrieval_errors_total",
			Help:      "Retrievals that failed and degraded to an empty result",
		},
	)

	AnswerConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scholarag",
			Name:      "answer_confidence",
			Help:      "Confidence score distribution of produced answers",
			Buckets:   []float64{0, 0.2, 0.4, 0.6, 0.8, 0.9, 1},
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(RetrievalFallbacksTotal)
	prometheus.MustRegister(RetrievalErrorsTotal)
	prometheus.MustRegister(AnswerConfidence)
	pipelineMetricsRegistered = true
}
