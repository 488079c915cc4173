// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRecommendationRun logs a recommendation run with its deterministic run ID.
func (al *AuditLogger) LogRecommendationRun(runID, raceID, profile string, betsIssued int, totalCost string, topBet string, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"run_id":      runID,
		"race_id":     raceID,
		"profile":     profile,
		"bets_issued": betsIssued,
		"total_cost":  totalCost,
		"top_bet":     topBet,
		"timestamp":   timestamp.Unix(),
	}).Info("Recommendation run recorded")
}

// LogOverrideApplied logs a live odds or scratch override that changed an input.
func (al *AuditLogger) LogOverrideApplied(raceID string, sourceIndex int, programNumber, kind string, oldValue, newValue interface{}) {
	al.WithFields(logrus.Fields{
		"race_id":        raceID,
		"source_index":   sourceIndex,
		"program_number": programNumber,
		"override":       kind,
		"old_value":      oldValue,
		"new_value":      newValue,
	}).Info("Override applied")
}

// LogProfileLoaded logs which tuning profile a run used.
func (al *AuditLogger) LogProfileLoaded(profile string, maxBaseScore float64, transform string) {
	al.WithFields(logrus.Fields{
		"profile":        profile,
		"max_base_score": maxBaseScore,
		"transform":      transform,
	}).Info("Tuning profile loaded")
}
