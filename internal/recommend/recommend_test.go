package recommend

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/exotic"
	"github.com/yourusername/clever-handicapper/internal/models"
	"github.com/yourusername/clever-handicapper/internal/overlay"
)

// buildRace scores horses "1".."n" with the given base scores and morning lines
func buildRace(t *testing.T, profile config.Profile, scores []float64, lines []string, scratched ...int) (*models.ScoredField, *models.Probabilities) {
	t.Helper()
	field := &models.ScoredField{Header: models.RaceHeader{RaceID: "race_1"}, MaxBaseScore: profile.Scoring.MaxBaseScore}
	isScratched := make(map[int]bool)
	for _, i := range scratched {
		isScratched[i] = true
	}
	for i, s := range scores {
		h := &models.HorseRecord{ProgramNumber: fmt.Sprint(i + 1), Name: fmt.Sprintf("Horse %d", i+1), MorningLine: lines[i]}
		field.Horses = append(field.Horses, models.ScoredHorse{
			SourceIndex:   i,
			Horse:         h,
			ProgramNumber: h.ProgramNumber,
			Name:          h.Name,
			BaseScore:     s,
			IsScratched:   isScratched[i],
		})
	}

	est, err := overlay.NewEstimator(profile.Overlay)
	require.NoError(t, err)
	probs, err := est.Estimate(field, nil)
	require.NoError(t, err)
	return field, probs
}

func eightHorseRace(t *testing.T, profile config.Profile, scratched ...int) (*models.ScoredField, *models.Probabilities) {
	return buildRace(t, profile,
		[]float64{190, 175, 160, 150, 140, 120, 100, 80},
		[]string{"5-2", "3-1", "4-1", "6-1", "8-1", "10-1", "20-1", "30-1"},
		scratched...)
}

func TestExpectedValue(t *testing.T) {
	s := Staking{}

	tests := []struct {
		name   string
		p      float64
		profit float64
		stake  float64
		want   float64
	}{
		{"fair coin at evens", 0.5, 1, 2, 0},
		{"overlay", 0.4, 2, 2, 0.4*4 - 0.6*2},
		{"underlay", 0.2, 1.5, 2, 0.2*3 - 0.8*2},
		{"probability clamped", 1.5, 1, 2, 2},
		{"no stake", 0.5, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.ExpectedValue(tt.p, tt.profit, tt.stake), 1e-12)
		})
	}
}

func TestKelly(t *testing.T) {
	s := Staking{Bankroll: 1000, KellyFraction: 0.5}

	// b = 2, p = 0.5: full Kelly = (1 - 0.5)/2 = 0.25
	assert.InDelta(t, 125.0, s.Kelly(0.5, 3.0), 1e-9)
	assert.Zero(t, s.Kelly(0.2, 3.0))
	assert.Zero(t, Staking{}.Kelly(0.5, 3.0))
}

func TestRiskTier(t *testing.T) {
	e := NewEngine(config.DefaultProfile())

	tests := []struct {
		name string
		p    float64
		cost float64
		want models.RiskTier
	}{
		{"likely and cheap", 0.30, 2, models.RiskConservative},
		{"likely but pricey", 0.30, 12, models.RiskModerate},
		{"middling", 0.15, 2, models.RiskModerate},
		{"longshot", 0.05, 2, models.RiskAggressive},
		{"expensive", 0.20, 24, models.RiskAggressive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.riskTier(tt.p, decimal.NewFromFloat(tt.cost)))
		})
	}
}

func TestRecommendRankingContract(t *testing.T) {
	profile := config.DefaultProfile()
	e := NewEngine(profile)
	field, probs := eightHorseRace(t, profile)

	rec, err := e.Recommend(field, probs)
	require.NoError(t, err)
	require.NotEmpty(t, rec.Bets)
	assert.LessOrEqual(t, len(rec.Bets), profile.Recommendation.MaxRecommendations)

	seenSpeculative := false
	total := decimal.Zero
	for i, b := range rec.Bets {
		assert.Equal(t, i+1, b.Rank)
		assert.True(t, b.Cost.Equal(b.UnitStake.Mul(decimal.NewFromInt(int64(b.Combinations)))), "bet %d cost", b.Rank)
		total = total.Add(b.Cost)

		if b.IsSpeculative {
			seenSpeculative = true
			assert.Nil(t, b.ExpectedValue, "exotic bets never claim an EV")
			assert.False(t, b.BetType.IsStraight())
		} else {
			assert.False(t, seenSpeculative, "EV-bearing bets rank ahead of speculative ones")
			require.NotNil(t, b.ExpectedValue)
		}

		if i > 0 {
			prev := rec.Bets[i-1]
			if prev.HasEV() && b.HasEV() {
				assert.GreaterOrEqual(t, *prev.ExpectedValue, *b.ExpectedValue)
			}
			if !prev.HasEV() && !b.HasEV() {
				assert.GreaterOrEqual(t, prev.Probability, b.Probability)
			}
		}
	}
	assert.True(t, seenSpeculative)
	assert.True(t, total.Equal(rec.TotalCost))
	assert.Empty(t, rec.Omitted)
}

func TestRecommendScratchedHorseNeverAppears(t *testing.T) {
	profile := config.DefaultProfile()
	profile.Recommendation.MaxRecommendations = 100
	e := NewEngine(profile)
	// Scratch the top-scored horse
	field, probs := eightHorseRace(t, profile, 0)

	rec, err := e.Recommend(field, probs)
	require.NoError(t, err)
	for _, b := range rec.Bets {
		assert.NotContains(t, b.Horses, "1")
		assert.NotEqual(t, "1", b.KeyHorse)
	}
}

func TestRecommendSmallFieldOmitsExotics(t *testing.T) {
	profile := config.DefaultProfile()
	e := NewEngine(profile)
	field, probs := buildRace(t, profile, []float64{180, 150, 130}, []string{"1-1", "2-1", "4-1"})

	rec, err := e.Recommend(field, probs)
	require.NoError(t, err)

	omitted := make(map[models.BetType]string)
	for _, o := range rec.Omitted {
		omitted[o.BetType] = o.Reason
	}
	assert.Equal(t, "insufficient field: exacta key requires 4 active horses, got 3", omitted[models.BetTypeExactaKey])
	assert.Equal(t, "insufficient field: superfecta box requires 6 active horses, got 3", omitted[models.BetTypeSuperfectaBox])
	assert.NotContains(t, omitted, models.BetTypeShow)

	for _, b := range rec.Bets {
		assert.True(t, b.BetType.IsStraight())
	}
}

func TestRecommendStraightBetPricing(t *testing.T) {
	profile := config.DefaultProfile()
	e := NewEngine(profile)
	field, probs := eightHorseRace(t, profile)

	rec, err := e.Recommend(field, probs)
	require.NoError(t, err)

	est, ok := probs.ByProgram("1")
	require.True(t, ok)
	for _, b := range rec.Bets {
		if b.BetType != models.BetTypeWin || b.Horses[0] != "1" {
			continue
		}
		want := est.ModelProbability*(est.DecimalOdds-1)*2 - (1-est.ModelProbability)*2
		assert.InDelta(t, want, *b.ExpectedValue, 1e-9)
		assert.InDelta(t, est.ModelProbability, b.Probability, 1e-12)
		assert.Equal(t, "2", b.Cost.String())
		return
	}
	t.Fatal("expected a WIN bet on the top horse")
}

func TestRecommendKellySuggestion(t *testing.T) {
	profile := config.DefaultProfile()
	profile.Recommendation.Bankroll = 500
	e := NewEngine(profile)
	field, probs := eightHorseRace(t, profile)

	rec, err := e.Recommend(field, probs)
	require.NoError(t, err)

	found := false
	for _, b := range rec.Bets {
		if b.SuggestedStake != nil {
			found = true
			assert.Equal(t, models.BetTypeWin, b.BetType)
			assert.Greater(t, *b.ExpectedValue, 0.0)
			assert.True(t, b.SuggestedStake.IsPositive())
		}
	}
	assert.True(t, found)
}

func TestRecommendExcludeNegativeEV(t *testing.T) {
	profile := config.DefaultProfile()
	profile.Recommendation.ExcludeNegativeEV = true
	e := NewEngine(profile)
	field, probs := eightHorseRace(t, profile)

	rec, err := e.Recommend(field, probs)
	require.NoError(t, err)
	for _, b := range rec.Bets {
		if b.HasEV() {
			assert.GreaterOrEqual(t, *b.ExpectedValue, 0.0)
		}
	}
}

func TestRecommendBudget(t *testing.T) {
	profile := config.DefaultProfile()
	profile.Recommendation.Budget = 7
	e := NewEngine(profile)
	field, probs := eightHorseRace(t, profile)

	rec, err := e.Recommend(field, probs)
	require.NoError(t, err)
	assert.True(t, rec.TotalCost.LessThanOrEqual(decimal.NewFromInt(7)))
	assert.NotEmpty(t, rec.Bets)
}

func TestRecommendTruncates(t *testing.T) {
	profile := config.DefaultProfile()
	profile.Recommendation.MaxRecommendations = 3
	e := NewEngine(profile)
	field, probs := eightHorseRace(t, profile)

	rec, err := e.Recommend(field, probs)
	require.NoError(t, err)
	assert.Len(t, rec.Bets, 3)
}

func TestRecommendDeterministic(t *testing.T) {
	profile := config.DefaultProfile()
	e := NewEngine(profile)
	field, probs := eightHorseRace(t, profile)

	a, err := e.Recommend(field, probs)
	require.NoError(t, err)
	b, err := e.Recommend(field, probs)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRecommendNilInput(t *testing.T) {
	e := NewEngine(config.DefaultProfile())
	_, err := e.Recommend(nil, nil)
	assert.ErrorIs(t, err, models.ErrEmptyField)
}

func TestDedupKeepsFirst(t *testing.T) {
	ev := 1.0
	first := models.TopBet{BetType: models.BetTypeTrifectaBox, Horses: []string{"3", "1", "2"}, ExpectedValue: nil, Probability: 0.2}
	dup := models.TopBet{BetType: models.BetTypeTrifectaBox, Horses: []string{"1", "2", "3"}, Probability: 0.1}
	win := models.TopBet{BetType: models.BetTypeWin, Horses: []string{"1"}, ExpectedValue: &ev}

	cs := []candidate{{bet: first, key: betKey(first)}, {bet: dup, key: betKey(dup)}, {bet: win, key: betKey(win)}}
	sortCandidates(cs)
	out := dedup(cs)

	require.Len(t, out, 2)
	assert.Equal(t, models.BetTypeWin, out[0].bet.BetType)
	assert.Equal(t, 0.2, out[1].bet.Probability)
}

func TestKeyBetsDistinctByKey(t *testing.T) {
	a := models.TopBet{BetType: models.BetTypeExactaKey, KeyHorse: "1", Horses: []string{"1", "2"}}
	b := models.TopBet{BetType: models.BetTypeExactaKey, KeyHorse: "2", Horses: []string{"2", "1"}}
	assert.NotEqual(t, betKey(a), betKey(b))
}

func TestEngineKeyBetMissingKeyReason(t *testing.T) {
	profile := config.DefaultProfile()
	e := NewEngine(profile)
	// #3 scratched; #12 never entered
	_, probs := eightHorseRace(t, profile, 2)

	tests := []struct {
		name       string
		key        string
		wantReason string
	}{
		{name: "scratched key", key: "3", wantReason: exotic.ReasonKeyScratched},
		{name: "unknown key", key: "12", wantReason: exotic.ReasonKeyNotInField},
		{name: "active key", key: "1", wantReason: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bet, err := e.KeyBet(models.BetTypeExactaKey, tt.key, []string{"1", "2", "4"}, probs)
			require.NoError(t, err)
			assert.Equal(t, tt.wantReason, bet.Reason)
			assert.Equal(t, tt.wantReason == "", bet.Available())
		})
	}
}
