package metrics

import "github.com/prometheus/client_golang/prometheus"

// Batch validation counter vectors
var (
	ValidationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_runs_total",
		Help:      "Total number of batch validation runs by profile and status",
	}, []string{"profile", "status"})
)

// Batch validation gauge vectors
var (
	ValidationBrierScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "validation_brier_score",
		Help:      "Brier score of the latest validation run per profile",
	}, []string{"profile"})
	ValidationROI = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "validation_roi",
		Help:      "Return on investment of the latest validation run per profile",
	}, []string{"profile"})
)

var (
	ValidationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "validation_duration_seconds",
		Help:      "Duration of batch validation runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

// RecordValidationRun records a validation run.
// status should be one of: "success", "failure"
func RecordValidationRun(profile, status string, brier, roi, durationSeconds float64) {
	ValidationRunsTotal.WithLabelValues(profile, status).Inc()
	ValidationDuration.Observe(durationSeconds)
	if status == "success" {
		ValidationBrierScore.WithLabelValues(profile).Set(brier)
		ValidationROI.WithLabelValues(profile).Set(roi)
	}
}
