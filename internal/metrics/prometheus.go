package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EvaluationsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "genai_eval_evaluations_started_total",
			Help: "Total evaluation runs started",
		},
	)

	EvaluationsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "genai_eval_evaluations_completed_total",
			Help: "Total evaluation runs completed",
		},
	)

	Dispatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "genai_eval_dispatches_total",
			Help: "Total summarize requests dispatched to browsers",
		},
	)

	Responses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_eval_responses_total",
			Help: "Total resolved requests by result source",
		},
		[]string{"source"},
	)

	DiscardedResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "genai_eval_discarded_responses_total",
			Help: "Browser responses with no matching pending request",
		},
	)

	ConnectedSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "genai_eval_connected_sessions",
			Help: "Currently connected evaluation sessions",
		},
	)

	RunningEvaluations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "genai_eval_running_evaluations",
			Help: "Evaluation runs currently in progress",
		},
	)

	RougeScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genai_eval_rouge_score",
			Help:    "Distribution of ROUGE F-measures",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"metric"},
	)

	ProcessingTime = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "genai_eval_processing_time_seconds",
			Help:    "Browser-side summarization time per request",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	DatasetFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "genai_eval_dataset_fallbacks_total",
			Help: "Dataset loads that fell back to the built-in samples",
		},
	)
)

func Init() {
	prometheus.MustRegister(EvaluationsStarted)
	prometheus.MustRegister(EvaluationsCompleted)
	prometheus.MustRegister(Dispatches)
	prometheus.MustRegister(Responses)
	prometheus.MustRegister(DiscardedResponses)
	prometheus.MustRegister(ConnectedSessions)
	prometheus.MustRegister(RunningEvaluations)
	prometheus.MustRegister(RougeScore)
	prometheus.MustRegister(ProcessingTime)
	prometheus.MustRegister(DatasetFallbacks)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
