// Package metrics provides the centralized Prometheus metrics registry for the handicapper.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clever_handicapper"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RacesScoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "races_scored_total",
		Help:      "Total number of races scored by profile",
	}, []string{"profile"})
	InvalidRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invalid_records_total",
		Help:      "Total number of horse records excluded as invalid",
	})
	OverlaysFlaggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "overlays_flagged_total",
		Help:      "Total number of horses flagged as overlays",
	})
	RecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_total",
		Help:      "Total number of wagers recommended by bet type",
	}, []string{"bet_type"})
	PipelineErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_errors_total",
		Help:      "Total number of failed pipeline runs by stage",
	}, []string{"stage"})
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Result cache lookups by outcome",
	}, []string{"result"})
	AdvisoryRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "advisory_requests_total",
		Help:      "Advisory collaborator requests by status",
	}, []string{"status"})
)

// Gauge metrics
var (
	CacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_hit_ratio",
		Help:      "Fraction of result cache lookups served from cache",
	})
	LastOverround = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_overround",
		Help:      "Overround of the most recently estimated race",
	})
)

// Histogram metrics
var (
	StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"stage"})
	RecommendationCost = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recommendation_cost",
		Help:      "Total cost of each recommendation set",
		Buckets:   []float64{2, 5, 10, 20, 50, 100, 250},
	})
)

var (
	cacheMu     sync.Mutex
	cacheHits   float64
	cacheMisses float64
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RacesScoredTotal)
		registry.MustRegister(InvalidRecordsTotal)
		registry.MustRegister(OverlaysFlaggedTotal)
		registry.MustRegister(RecommendationsTotal)
		registry.MustRegister(PipelineErrorsTotal)
		registry.MustRegister(CacheLookupsTotal)
		registry.MustRegister(AdvisoryRequestsTotal)

		registry.MustRegister(CacheHitRatio)
		registry.MustRegister(LastOverround)

		registry.MustRegister(StageDuration)
		registry.MustRegister(RecommendationCost)

		// Batch validation metrics
		registry.MustRegister(ValidationRunsTotal)
		registry.MustRegister(ValidationBrierScore)
		registry.MustRegister(ValidationROI)
		registry.MustRegister(ValidationDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRaceScored records a scored race and its excluded records.
func RecordRaceScored(profile string, invalidRecords int) {
	RacesScoredTotal.WithLabelValues(profile).Inc()
	InvalidRecordsTotal.Add(float64(invalidRecords))
}

// RecordProbabilities records overlays flagged in one estimate.
func RecordProbabilities(overlays int, overround float64) {
	OverlaysFlaggedTotal.Add(float64(overlays))
	if overround > 0 {
		LastOverround.Set(overround)
	}
}

// RecordRecommendation records each recommended bet type and the set's total cost.
func RecordRecommendation(betTypes []string, totalCost float64) {
	for _, bt := range betTypes {
		RecommendationsTotal.WithLabelValues(bt).Inc()
	}
	RecommendationCost.Observe(totalCost)
}

// RecordStageDuration records one pipeline stage duration.
func RecordStageDuration(stage string, durationSeconds float64) {
	StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordPipelineError records a failed stage.
func RecordPipelineError(stage string) {
	PipelineErrorsTotal.WithLabelValues(stage).Inc()
}

// RecordCacheLookup records a cache hit or miss and refreshes the hit ratio.
func RecordCacheLookup(hit bool) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if hit {
		cacheHits++
		CacheLookupsTotal.WithLabelValues("hit").Inc()
	} else {
		cacheMisses++
		CacheLookupsTotal.WithLabelValues("miss").Inc()
	}
	CacheHitRatio.Set(cacheHits / (cacheHits + cacheMisses))
}

// RecordAdvisoryRequest records an advisory call outcome.
// status should be one of: "success", "failure", "skipped"
func RecordAdvisoryRequest(status string) {
	AdvisoryRequestsTotal.WithLabelValues(status).Inc()
}
