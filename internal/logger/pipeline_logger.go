// Package logger provides pipeline-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PipelineLogger provides dedicated logging for scoring and recommendation runs.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger.
func NewPipelineLogger(baseLogger *logrus.Logger) *PipelineLogger {
	return &PipelineLogger{
		Entry: baseLogger.WithField("component", "pipeline"),
	}
}

// LogRaceScored logs the end of the scoring stage for a race.
func (pl *PipelineLogger) LogRaceScored(raceID, profile string, horsesScored, excluded, scratched int, paceScenario string, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"race_id":             raceID,
		"profile":             profile,
		"horses_scored":       horsesScored,
		"horses_excluded":     excluded,
		"horses_scratched":    scratched,
		"pace_scenario":       paceScenario,
		"scoring_duration_ms": durationMs,
	}).Info("Race scored")
}

// LogInvalidRecord logs a horse excluded from scoring.
func (pl *PipelineLogger) LogInvalidRecord(raceID string, sourceIndex int, programNumber, reason string) {
	pl.WithFields(logrus.Fields{
		"race_id":        raceID,
		"source_index":   sourceIndex,
		"program_number": programNumber,
		"reason":         reason,
	}).Warn("Horse record excluded from scoring")
}

// LogProbabilities logs the probability stage for a race.
func (pl *PipelineLogger) LogProbabilities(raceID, transform string, activeCount, overlays int, overround float64) {
	pl.WithFields(logrus.Fields{
		"race_id":      raceID,
		"transform":    transform,
		"active_count": activeCount,
		"overlays":     overlays,
		"overround":    overround,
	}).Debug("Probabilities estimated")
}

// LogRecommendations logs the ranked recommendation output.
func (pl *PipelineLogger) LogRecommendations(raceID string, bets, omitted int, totalCost string) {
	pl.WithFields(logrus.Fields{
		"race_id":    raceID,
		"bets":       bets,
		"omitted":    omitted,
		"total_cost": totalCost,
	}).Info("Recommendations issued")
}

// LogStageTiming logs the duration of one pipeline stage.
func (pl *PipelineLogger) LogStageTiming(raceID, stage string, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"race_id":     raceID,
		"stage":       stage,
		"duration_ms": durationMs,
	}).Debug("Pipeline stage completed")
}

// LogCacheLookup logs a result cache lookup.
func (pl *PipelineLogger) LogCacheLookup(raceID, key string, hit bool) {
	pl.WithFields(logrus.Fields{
		"race_id":   raceID,
		"cache_key": key,
		"cache_hit": hit,
	}).Debug("Result cache lookup")
}
