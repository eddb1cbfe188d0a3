// Package metrics defines the Prometheus metrics of the sample loader.
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/surveysdx/sample-loader/internal/fault"
)

var (
	// InvocationsTotal counts pipeline invocations by outcome: one
	// "success" label plus one label per fault code.
	InvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sample_loader_invocations_total",
			Help: "Total number of pipeline invocations by outcome",
		},
		[]string{"outcome"},
	)

	// PipelineDuration observes the end-to-end duration of one
	// invocation, successful or not.
	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sample_loader_pipeline_duration_seconds",
			Help:    "End-to-end duration of one pipeline invocation",
			Buckets: prometheus.DefBuckets,
		},
	)

	registerOnce sync.Once
)

// Register registers all metrics with the default registry.  Safe to
// call more than once (tests re-run main).
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(InvocationsTotal)
		prometheus.MustRegister(PipelineDuration)
	})
}

// Outcome returns the metric label for an invocation that returned err.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	if code, ok := fault.CodeOf(err); ok {
		return strings.ToLower(string(code))
	}
	return "error"
}
