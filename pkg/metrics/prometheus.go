package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	configsEvaluated *prometheus.CounterVec
	configsFailed    *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	bestScore        *prometheus.GaugeVec
	evalLatency      prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		configsEvaluated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintune_configs_evaluated_total",
				Help: "Total configurations evaluated successfully",
			},
			[]string{"symbol"},
		),
		configsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintune_configs_failed_total",
				Help: "Total configuration evaluation failures",
			},
			[]string{"symbol", "kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintune_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		bestScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fintune_best_score",
				Help: "Best business score per tuned symbol",
			},
			[]string{"symbol"},
		),
		evalLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fintune_evaluation_duration_seconds",
				Help:    "Duration of one configuration evaluation in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
	}
}

// RecordConfigEvaluated counts one successful evaluation.
func (r *Recorder) RecordConfigEvaluated(symbol string) {
	r.configsEvaluated.WithLabelValues(symbol).Inc()
}

// RecordConfigFailed counts one failed evaluation by failure kind.
func (r *Recorder) RecordConfigFailed(symbol, kind string) {
	r.configsFailed.WithLabelValues(symbol, kind).Inc()
}

// RecordBestScore records the winning score for a symbol.
func (r *Recorder) RecordBestScore(symbol string, score float64) {
	r.bestScore.WithLabelValues(symbol).Set(score)
}

// RecordEvalLatency records one evaluation duration in seconds.
func (r *Recorder) RecordEvalLatency(seconds float64) {
	r.evalLatency.Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
