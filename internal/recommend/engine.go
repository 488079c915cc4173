// Package recommend enumerates straight and exotic wagers, prices them and returns a
// ranked, deduplicated, budget-aware recommendation list.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/exotic"
	"github.com/yourusername/clever-handicapper/internal/models"
)

var (
	keyTypes = []models.BetType{models.BetTypeExactaKey, models.BetTypeTrifectaKey, models.BetTypeSuperfectaKey}
	boxTypes = []models.BetType{models.BetTypeExactaBox, models.BetTypeTrifectaBox, models.BetTypeSuperfectaBox}
)

// Engine ranks wagers for one profile; it holds no mutable state
type Engine struct {
	cfg          config.RecommendationConfig
	exotics      config.ExoticsConfig
	maxBaseScore float64
	staking      Staking
}

// NewEngine creates a recommendation engine from a profile
func NewEngine(profile config.Profile) *Engine {
	rec := profile.Recommendation
	return &Engine{
		cfg:          rec,
		exotics:      profile.Exotics,
		maxBaseScore: profile.Scoring.MaxBaseScore,
		staking:      Staking{Bankroll: rec.Bankroll, KellyFraction: rec.KellyFraction},
	}
}

// candidate is a priced wager before ranking
type candidate struct {
	bet models.TopBet
	key string
}

// Recommend builds the ranked wager list for a scored field and its probabilities
func (e *Engine) Recommend(field *models.ScoredField, probs *models.Probabilities) (*models.Recommendation, error) {
	if field == nil || probs == nil {
		return nil, models.ErrEmptyField
	}

	rec := &models.Recommendation{
		RaceID:    probs.RaceID,
		Bets:      []models.TopBet{},
		Budget:    decimal.NewFromFloat(e.cfg.Budget),
		TotalCost: decimal.Zero,
	}
	if rec.RaceID == "" {
		rec.RaceID = field.Header.RaceID
	}

	win := probs.WinProbabilities()
	var candidates []candidate
	straight, omitted := e.straightBets(probs, win)
	candidates = append(candidates, straight...)
	rec.Omitted = append(rec.Omitted, omitted...)

	exotics, omitted, err := e.exoticBets(field, probs, win)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, exotics...)
	rec.Omitted = append(rec.Omitted, omitted...)

	sortCandidates(candidates)
	candidates = dedup(candidates)

	remaining := rec.Budget
	for _, c := range candidates {
		if len(rec.Bets) >= e.cfg.MaxRecommendations {
			break
		}
		if e.cfg.Budget > 0 {
			if c.bet.Cost.GreaterThan(remaining) {
				continue
			}
			remaining = remaining.Sub(c.bet.Cost)
		}
		c.bet.Rank = len(rec.Bets) + 1
		rec.Bets = append(rec.Bets, c.bet)
		rec.TotalCost = rec.TotalCost.Add(c.bet.Cost)
	}

	return rec, nil
}

// straightBets prices WIN, PLACE and SHOW for every active horse with odds
func (e *Engine) straightBets(probs *models.Probabilities, win map[string]float64) ([]candidate, []models.OmittedWager) {
	stake := decimal.NewFromFloat(e.cfg.StraightStake)
	stakeF, _ := stake.Float64()
	active := probs.ActiveCount

	var omitted []models.OmittedWager
	types := []struct {
		betType   models.BetType
		positions int
		factor    float64
	}{
		{models.BetTypeWin, 1, 1},
		{models.BetTypePlace, 2, e.cfg.PlacePayoutFactor},
		{models.BetTypeShow, 3, e.cfg.ShowPayoutFactor},
	}

	var out []candidate
	for _, t := range types {
		if active < t.positions {
			omitted = append(omitted, models.OmittedWager{
				BetType: t.betType,
				Reason:  fmt.Sprintf("insufficient field: %s requires %d active horses, got %d", strings.ToLower(string(t.betType)), t.positions, active),
			})
			continue
		}
		for _, est := range probs.Estimates {
			if est.Scratched || !est.HasOdds {
				continue
			}
			p := est.ModelProbability
			if t.positions > 1 {
				p = exotic.FinishWithin(est.ProgramNumber, t.positions, win)
			}
			profit := (est.DecimalOdds - 1) * t.factor
			ev := e.staking.ExpectedValue(p, profit, stakeF)
			if e.cfg.ExcludeNegativeEV && ev < 0 {
				continue
			}

			bet := models.TopBet{
				BetType:       t.betType,
				Horses:        []string{est.ProgramNumber},
				Combinations:  1,
				UnitStake:     stake,
				Cost:          stake,
				Probability:   p,
				DecimalOdds:   1 + profit,
				ExpectedValue: &ev,
				Reasoning:     straightReason(t.betType, est, p),
			}
			if t.betType == models.BetTypeWin && ev > 0 {
				if kelly := e.staking.Kelly(p, est.DecimalOdds); kelly > 0 {
					s := decimal.NewFromFloat(kelly).Round(2)
					bet.SuggestedStake = &s
				}
			}
			bet.RiskTier = e.riskTier(p, bet.Cost)
			out = append(out, candidate{bet: bet, key: betKey(bet)})
		}
	}
	return out, omitted
}

func straightReason(betType models.BetType, est models.ProbabilityEstimate, p float64) string {
	if betType == models.BetTypeWin {
		return fmt.Sprintf("Model %.1f%% vs market %.1f%% at %s (%s)",
			est.ModelProbability*100, est.ImpliedProbability*100, est.Odds, est.Verdict)
	}
	name := strings.ToLower(string(betType))
	return fmt.Sprintf("%s%s probability %.1f%% from win odds %s", strings.ToUpper(name[:1]), name[1:], p*100, est.Odds)
}

// exoticBets builds key and box candidates from horses above the score threshold
func (e *Engine) exoticBets(field *models.ScoredField, probs *models.Probabilities, win map[string]float64) ([]candidate, []models.OmittedWager, error) {
	var out []candidate
	var omitted []models.OmittedWager

	eligible := e.eligibleHorses(field, win)
	active := probs.ActiveCount

	for i, keyType := range keyTypes {
		boxType := boxTypes[i]
		minField := e.cfg.MinFieldFor(keyType)
		if active < minField {
			for _, t := range []models.BetType{keyType, boxType} {
				omitted = append(omitted, models.OmittedWager{
					BetType: t,
					Reason:  fmt.Sprintf("insufficient field: %s requires %d active horses, got %d", wagerName(t), minField, active),
				})
			}
			continue
		}
		if len(eligible) == 0 {
			for _, t := range []models.BetType{keyType, boxType} {
				omitted = append(omitted, models.OmittedWager{BetType: t, Reason: "no horses above the exotic score threshold"})
			}
			continue
		}

		unit := decimal.NewFromFloat(e.exotics.UnitFor(keyType))
		for k := 0; k < len(eligible) && k < e.cfg.MaxKeys; k++ {
			key := eligible[k]
			with := withHorses(eligible, key, e.cfg.MaxWithHorses)
			kb, err := exotic.KeyBet(keyType, key, with, win, unit)
			if err != nil {
				return nil, nil, err
			}
			if !kb.Available() {
				omitted = append(omitted, models.OmittedWager{BetType: keyType, Reason: fmt.Sprintf("key %s: %s", key, kb.Reason)})
				continue
			}
			bet := models.TopBet{
				BetType:       keyType,
				Horses:        append([]string{key}, kb.WithHorses...),
				KeyHorse:      key,
				Combinations:  kb.Combinations,
				UnitStake:     kb.CostPerUnit,
				Cost:          kb.TotalCost,
				Probability:   kb.EstimatedProbability,
				IsSpeculative: true,
				Reasoning: fmt.Sprintf("Key %s over %s: %d combinations, speculative %.2f%%",
					key, strings.Join(kb.WithHorses, ","), kb.Combinations, kb.EstimatedProbability*100),
			}
			bet.RiskTier = e.riskTier(bet.Probability, bet.Cost)
			out = append(out, candidate{bet: bet, key: betKey(bet)})
		}

		if e.cfg.BoxHorses <= 0 {
			continue
		}
		boxed := eligible
		if len(boxed) > e.cfg.BoxHorses {
			boxed = boxed[:e.cfg.BoxHorses]
		}
		bb, err := exotic.BoxBet(boxType, boxed, win, decimal.NewFromFloat(e.exotics.UnitFor(boxType)))
		if err != nil {
			return nil, nil, err
		}
		if !bb.Available() {
			omitted = append(omitted, models.OmittedWager{BetType: boxType, Reason: bb.Reason})
			continue
		}
		bet := models.TopBet{
			BetType:       boxType,
			Horses:        bb.Horses,
			Combinations:  bb.Combinations,
			UnitStake:     bb.CostPerUnit,
			Cost:          bb.TotalCost,
			Probability:   bb.EstimatedProbability,
			IsSpeculative: true,
			Reasoning: fmt.Sprintf("Box %s: %d combinations, speculative %.2f%%",
				strings.Join(bb.Horses, ","), bb.Combinations, bb.EstimatedProbability*100),
		}
		bet.RiskTier = e.riskTier(bet.Probability, bet.Cost)
		out = append(out, candidate{bet: bet, key: betKey(bet)})
	}
	return out, omitted, nil
}

// eligibleHorses returns active horses at or above the exotic score threshold, in rank order
func (e *Engine) eligibleHorses(field *models.ScoredField, win map[string]float64) []string {
	threshold := e.cfg.MinExoticScoreFraction * e.maxBaseScore
	var out []string
	for _, h := range field.Horses {
		if _, ok := win[h.ProgramNumber]; !ok {
			continue
		}
		if h.BaseScore >= threshold {
			out = append(out, h.ProgramNumber)
		}
	}
	return out
}

func withHorses(eligible []string, key string, max int) []string {
	out := make([]string, 0, max)
	for _, h := range eligible {
		if len(out) >= max {
			break
		}
		if h != key {
			out = append(out, h)
		}
	}
	return out
}

// riskTier buckets a wager by probability and cost
func (e *Engine) riskTier(probability float64, cost decimal.Decimal) models.RiskTier {
	risk := e.cfg.Risk
	c, _ := cost.Float64()
	switch {
	case probability >= risk.ConservativeMinProbability && c <= risk.ConservativeMaxCost:
		return models.RiskConservative
	case probability < risk.AggressiveMaxProbability || (risk.AggressiveMinCost > 0 && c > risk.AggressiveMinCost):
		return models.RiskAggressive
	default:
		return models.RiskModerate
	}
}

// sortCandidates orders EV-bearing bets by EV desc, then speculative bets by probability desc
func sortCandidates(cs []candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := &cs[i].bet, &cs[j].bet
		if a.HasEV() != b.HasEV() {
			return a.HasEV()
		}
		if a.HasEV() && *a.ExpectedValue != *b.ExpectedValue {
			return *a.ExpectedValue > *b.ExpectedValue
		}
		if !a.HasEV() && a.Probability != b.Probability {
			return a.Probability > b.Probability
		}
		if a.BetType.Order() != b.BetType.Order() {
			return a.BetType.Order() < b.BetType.Order()
		}
		return cs[i].key < cs[j].key
	})
}

// dedup keeps the first candidate for each bet identity
func dedup(cs []candidate) []candidate {
	seen := make(map[string]struct{}, len(cs))
	out := cs[:0]
	for _, c := range cs {
		if _, ok := seen[c.key]; ok {
			continue
		}
		seen[c.key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// betKey identifies a wager by type, key horse and sorted horse set
func betKey(b models.TopBet) string {
	horses := append([]string(nil), b.Horses...)
	sort.Strings(horses)
	return fmt.Sprintf("%s|%s|%s", b.BetType, b.KeyHorse, strings.Join(horses, ","))
}

func wagerName(b models.BetType) string {
	return strings.ToLower(strings.ReplaceAll(string(b), "_", " "))
}

// KeyBet prices one key wager at the profile's base unit for the bet type
func (e *Engine) KeyBet(betType models.BetType, key string, with []string, probs *models.Probabilities) (models.ExoticKeyBet, error) {
	if probs == nil {
		return models.ExoticKeyBet{}, models.ErrEmptyField
	}
	unit := decimal.NewFromFloat(e.exotics.UnitFor(betType))
	bet, err := exotic.KeyBet(betType, key, with, probs.WinProbabilities(), unit)
	if err != nil {
		return bet, err
	}
	if bet.Reason == exotic.ReasonKeyNotInField {
		if est, ok := probs.ByProgram(key); ok && est.Scratched {
			bet.Reason = exotic.ReasonKeyScratched
		}
	}
	return bet, nil
}

// BoxBet prices one box wager at the profile's base unit for the bet type
func (e *Engine) BoxBet(betType models.BetType, horses []string, probs *models.Probabilities) (models.ExoticBoxBet, error) {
	if probs == nil {
		return models.ExoticBoxBet{}, models.ErrEmptyField
	}
	unit := decimal.NewFromFloat(e.exotics.UnitFor(betType))
	return exotic.BoxBet(betType, horses, probs.WinProbabilities(), unit)
}
