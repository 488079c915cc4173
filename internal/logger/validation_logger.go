// Package logger provides batch validation logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// ValidationLogger provides dedicated logging for batch validation runs.
type ValidationLogger struct {
	*logrus.Entry
}

// NewValidationLogger creates a new validation logger.
func NewValidationLogger(baseLogger *logrus.Logger) *ValidationLogger {
	return &ValidationLogger{
		Entry: baseLogger.WithField("component", "validation"),
	}
}

// LogRunStarted logs the start of a batch validation run.
func (vl *ValidationLogger) LogRunStarted(source, profile string, races, workers int) {
	vl.WithFields(logrus.Fields{
		"source":  source,
		"profile": profile,
		"races":   races,
		"workers": workers,
	}).Info("Validation run started")
}

// LogRaceFailed logs a race that could not be evaluated.
func (vl *ValidationLogger) LogRaceFailed(raceID string, err error) {
	vl.WithFields(logrus.Fields{
		"race_id": raceID,
	}).WithError(err).Warn("Race skipped during validation")
}

// LogRunCompleted logs the summary of a batch validation run.
func (vl *ValidationLogger) LogRunCompleted(races, failed int, brier, logLoss, roi float64, durationMs float64) {
	vl.WithFields(logrus.Fields{
		"races":       races,
		"failed":      failed,
		"brier_score": brier,
		"log_loss":    logLoss,
		"roi":         roi,
		"duration_ms": durationMs,
	}).Info("Validation run completed")
}
