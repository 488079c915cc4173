package overlay

import (
	"fmt"

	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/models"
	"github.com/yourusername/clever-handicapper/internal/odds"
)

// OddsSource supplies live odds and scratches by source index
type OddsSource interface {
	Odds(index int, defaultOdds string) string
	IsScratched(index int) bool
}

// Estimator turns a scored field into model and market probabilities
// It reads only the ScoredField, so an odds or scratch update reruns this stage alone
type Estimator struct {
	cfg       config.OverlayConfig
	transform Transform
}

// NewEstimator creates an estimator for the overlay configuration
func NewEstimator(cfg config.OverlayConfig) (*Estimator, error) {
	t, err := NewTransform(cfg)
	if err != nil {
		return nil, err
	}
	return &Estimator{cfg: cfg, transform: t}, nil
}

// Estimate computes probabilities for every horse in the field; scratched horses get zero
func (e *Estimator) Estimate(field *models.ScoredField, src OddsSource) (*models.Probabilities, error) {
	if field == nil || len(field.Horses) == 0 {
		return nil, models.ErrEmptyField
	}

	probs := &models.Probabilities{
		RaceID:    field.Header.RaceID,
		Transform: e.cfg.Transform,
		Estimates: make([]models.ProbabilityEstimate, len(field.Horses)),
	}

	var active []int
	var scores []float64
	for i, h := range field.Horses {
		scratched := h.IsScratched || (src != nil && src.IsScratched(h.SourceIndex))
		probs.Estimates[i] = models.ProbabilityEstimate{
			SourceIndex:   h.SourceIndex,
			ProgramNumber: h.ProgramNumber,
			Name:          h.Name,
			Scratched:     scratched,
			Verdict:       models.VerdictNoOdds,
		}
		if !scratched {
			active = append(active, i)
			scores = append(scores, h.BaseScore)
		}
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("%w: every horse is scratched", models.ErrEmptyField)
	}
	probs.ActiveCount = len(active)

	model := e.transform(scores)

	var priced []int
	var raw []float64
	for j, i := range active {
		est := &probs.Estimates[i]
		est.ModelProbability = model[j]
		est.FairOdds = odds.FromProbability(model[j])

		price := morningLine(field.Horses[i])
		if src != nil {
			price = src.Odds(est.SourceIndex, price)
		}
		est.Odds = price
		parsed, err := odds.Parse(price)
		if err != nil {
			continue
		}
		est.HasOdds = true
		est.DecimalOdds = parsed.Float()
		priced = append(priced, i)
		raw = append(raw, parsed.ImpliedProbability())
	}

	if len(priced) > 0 {
		probs.Overround = odds.Overround(raw)
		fair, err := odds.DeVig(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to de-vig odds: %w", err)
		}
		for j, i := range priced {
			est := &probs.Estimates[i]
			est.ImpliedProbability = fair[j]
			est.Edge = est.ModelProbability - fair[j]
			if fair[j] > 0 {
				est.ValueRatio = est.ModelProbability / fair[j]
			}
			est.Verdict = e.Classify(est.Edge)
		}
	}

	return probs, nil
}

// Classify maps an edge to overlay, fair or underlay
func (e *Estimator) Classify(edge float64) models.Verdict {
	switch {
	case edge >= e.cfg.OverlayThreshold:
		return models.VerdictOverlay
	case edge <= e.cfg.UnderlayThreshold:
		return models.VerdictUnderlay
	default:
		return models.VerdictFair
	}
}

func morningLine(h models.ScoredHorse) string {
	if h.Horse == nil {
		return ""
	}
	return h.Horse.MorningLine
}
