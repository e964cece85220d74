package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "careerscout_pipeline_runs_total",
		Help: "Total number of graph runs by outcome.",
	}, []string{"graph", "status"})
	unitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "careerscout_unit_duration_seconds",
		Help:    "Latency distribution per unit execution.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"unit"})
	unitFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "careerscout_unit_failures_total",
		Help: "Count of unit executions that returned an error.",
	}, []string{"unit"})
)
