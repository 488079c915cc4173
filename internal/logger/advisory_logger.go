// Package logger provides advisory-service logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// AdvisoryLogger provides dedicated logging for advisory service calls.
type AdvisoryLogger struct {
	*logrus.Entry
}

// NewAdvisoryLogger creates a new advisory logger.
func NewAdvisoryLogger(baseLogger *logrus.Logger) *AdvisoryLogger {
	return &AdvisoryLogger{
		Entry: baseLogger.WithField("component", "advisory"),
	}
}

// LogAdvisoryRequest logs a completed advisory request.
func (al *AdvisoryLogger) LogAdvisoryRequest(raceID string, horses int, picks int, latencyMs float64) {
	al.WithFields(logrus.Fields{
		"race_id":    raceID,
		"horses":     horses,
		"picks":      picks,
		"latency_ms": latencyMs,
	}).Info("Advisory opinion received")
}

// LogAdvisoryFailure logs a failed advisory request; scoring continues without it.
func (al *AdvisoryLogger) LogAdvisoryFailure(raceID string, err error) {
	al.WithFields(logrus.Fields{
		"race_id": raceID,
	}).WithError(err).Warn("Advisory request failed")
}
