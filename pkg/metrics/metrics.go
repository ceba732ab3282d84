package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AssessmentStarts counts assessment start requests by mode (test|flow|completed)
	// and result (success|failure).
	AssessmentStarts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentflow_assessment_starts_total",
			Help: "Total number of assessment start requests",
		},
		[]string{"mode", "result"},
	)

	// AnswerSubmissions counts answer batch submissions by outcome.
	AnswerSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentflow_answer_submissions_total",
			Help: "Total number of answer batch submissions",
		},
		[]string{"result"},
	)

	// ScoringOutcomes counts scoring runs by resulting level (or none when the
	// test is not scorable).
	ScoringOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentflow_scoring_outcomes_total",
			Help: "Total number of scoring engine runs",
		},
		[]string{"level"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "talentflow_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
