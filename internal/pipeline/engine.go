// Package pipeline runs the staged handicapping transform: score, estimate, recommend.
// Each stage returns new values and the engine keeps no state between runs.
package pipeline

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/logger"
	"github.com/yourusername/clever-handicapper/internal/models"
	"github.com/yourusername/clever-handicapper/internal/overlay"
	"github.com/yourusername/clever-handicapper/internal/recommend"
	"github.com/yourusername/clever-handicapper/internal/scoring"
)

// Result holds the output of all three stages
type Result struct {
	Field          *models.ScoredField    `json:"field"`
	Probabilities  *models.Probabilities  `json:"probabilities"`
	Recommendation *models.Recommendation `json:"recommendation"`
}

// Engine runs the pipeline for one tuning profile
type Engine struct {
	profile     config.Profile
	aggregator  *scoring.Aggregator
	estimator   *overlay.Estimator
	recommender *recommend.Engine
	logger      *logger.PipelineLogger
}

// NewEngine validates and copies the profile and builds every stage
// A nil logger discards output
func NewEngine(profile config.Profile, log *logrus.Logger) (*Engine, error) {
	if err := config.ValidateProfile(profile); err != nil {
		return nil, fmt.Errorf("invalid profile %q: %w", profile.Name, err)
	}
	profile = profile.Clone()

	if log == nil {
		log = logger.Discard()
	}

	aggregator, err := scoring.NewAggregator(profile)
	if err != nil {
		return nil, err
	}
	estimator, err := overlay.NewEstimator(profile.Overlay)
	if err != nil {
		return nil, err
	}

	return &Engine{
		profile:     profile,
		aggregator:  aggregator,
		estimator:   estimator,
		recommender: recommend.NewEngine(profile),
		logger:      logger.NewPipelineLogger(log),
	}, nil
}

// Profile returns a copy of the engine's profile
func (e *Engine) Profile() config.Profile {
	return e.profile.Clone()
}

// Score runs the category scorers and adjusters over a snapshot
func (e *Engine) Score(snapshot *models.RaceSnapshot, overrides Overrides) (*models.ScoredField, error) {
	start := time.Now()
	if overrides == nil {
		overrides = NoOverrides{}
	}

	field, err := e.aggregator.Score(snapshot, overrides)
	if field != nil {
		for _, w := range field.Warnings {
			e.logger.LogInvalidRecord(field.Header.RaceID, w.SourceIndex, w.ProgramNumber, w.Message)
		}
	}
	if err != nil {
		return field, err
	}

	scratched := len(field.Horses) - len(field.Active())
	e.logger.LogRaceScored(field.Header.RaceID, e.profile.Name, len(field.Horses), len(field.Warnings),
		scratched, string(field.PaceScenario), elapsedMs(start))
	return field, nil
}

// Estimate converts scores to probabilities; rerun it alone after an odds or scratch update
func (e *Engine) Estimate(field *models.ScoredField, overrides Overrides) (*models.Probabilities, error) {
	if overrides == nil {
		overrides = NoOverrides{}
	}
	probs, err := e.estimator.Estimate(field, overrides)
	if err != nil {
		return nil, err
	}
	e.logger.LogProbabilities(probs.RaceID, probs.Transform, probs.ActiveCount, len(probs.Overlays()), probs.Overround)
	return probs, nil
}

// Recommend ranks wagers from a scored field and its probabilities
func (e *Engine) Recommend(field *models.ScoredField, probs *models.Probabilities) (*models.Recommendation, error) {
	rec, err := e.recommender.Recommend(field, probs)
	if err != nil {
		return nil, err
	}
	e.logger.LogRecommendations(rec.RaceID, len(rec.Bets), len(rec.Omitted), rec.TotalCost.StringFixed(2))
	return rec, nil
}

// Run executes every stage in order
func (e *Engine) Run(snapshot *models.RaceSnapshot, overrides Overrides) (*Result, error) {
	field, err := e.Score(snapshot, overrides)
	if err != nil {
		return nil, err
	}
	probs, err := e.Estimate(field, overrides)
	if err != nil {
		return nil, err
	}
	rec, err := e.Recommend(field, probs)
	if err != nil {
		return nil, err
	}
	return &Result{Field: field, Probabilities: probs, Recommendation: rec}, nil
}

// KeyBet prices a single key wager with the profile's base unit
func (e *Engine) KeyBet(betType models.BetType, key string, with []string, probs *models.Probabilities) (models.ExoticKeyBet, error) {
	return e.recommender.KeyBet(betType, key, with, probs)
}

// BoxBet prices a single box wager with the profile's base unit
func (e *Engine) BoxBet(betType models.BetType, horses []string, probs *models.Probabilities) (models.ExoticBoxBet, error) {
	return e.recommender.BoxBet(betType, horses, probs)
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
