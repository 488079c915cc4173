package pipeline

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/datasource"
	"github.com/yourusername/clever-handicapper/internal/models"
)

func loadRace(t *testing.T, name string) *models.RaceSnapshot {
	t.Helper()
	snapshot, err := datasource.LoadSnapshot(filepath.Join("testdata", name))
	require.NoError(t, err)
	return snapshot
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(config.DefaultProfile(), nil)
	require.NoError(t, err)
	return e
}

func TestRunEightHorseField(t *testing.T) {
	e := newEngine(t)
	snapshot := loadRace(t, "saratoga_r7.json")

	result, err := e.Run(snapshot, nil)
	require.NoError(t, err)

	field := result.Field
	require.Len(t, field.Horses, 8)
	assert.Len(t, field.Active(), 7)
	assert.Empty(t, field.Warnings)

	last := field.Horses[len(field.Horses)-1]
	assert.Equal(t, "6", last.ProgramNumber)
	assert.True(t, last.IsScratched)

	for _, h := range field.Horses {
		assert.GreaterOrEqual(t, h.BaseScore, 0.0)
		assert.LessOrEqual(t, h.BaseScore, field.MaxBaseScore)
	}

	sum := 0.0
	for _, est := range result.Probabilities.Estimates {
		if est.Scratched {
			assert.Zero(t, est.ModelProbability)
			continue
		}
		sum += est.ModelProbability
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 7, result.Probabilities.ActiveCount)

	for _, b := range result.Recommendation.Bets {
		assert.NotContains(t, b.Horses, "6")
		assert.NotEqual(t, "6", b.KeyHorse)
	}
}

func TestExactaKeyWithScratchedHorse(t *testing.T) {
	e := newEngine(t)
	result, err := e.Run(loadRace(t, "saratoga_r7.json"), nil)
	require.NoError(t, err)

	// "6" is scratched and drops out of the with-horses
	bet, err := e.KeyBet(models.BetTypeExactaKey, "1", []string{"2", "3", "6", "4"}, result.Probabilities)
	require.NoError(t, err)

	assert.True(t, bet.Available())
	assert.Equal(t, []string{"2", "3", "4"}, bet.WithHorses)
	assert.Equal(t, 3, bet.Combinations)
	assert.Equal(t, "3", bet.TotalCost.String())
	assert.Nil(t, bet.ExpectedValue)
	assert.True(t, bet.IsSpeculative)
	assert.Greater(t, bet.EstimatedProbability, 0.0)
	assert.Less(t, bet.EstimatedProbability, 1.0)
}

func TestSuperfectaKeyInSmallField(t *testing.T) {
	e := newEngine(t)
	result, err := e.Run(loadRace(t, "three_horse.json"), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Probabilities.ActiveCount)

	bet, err := e.KeyBet(models.BetTypeSuperfectaKey, "1", []string{"2", "3"}, result.Probabilities)
	require.NoError(t, err)
	assert.False(t, bet.Available())
	assert.Zero(t, bet.Combinations)
	assert.True(t, bet.TotalCost.IsZero())
	assert.Equal(t, "insufficient with-horses: superfecta key requires 3, got 2", bet.Reason)

	for _, b := range result.Recommendation.Bets {
		assert.True(t, b.BetType.IsStraight())
	}
	assert.NotEmpty(t, result.Recommendation.Omitted)
}

func TestBoxBetThroughEngine(t *testing.T) {
	e := newEngine(t)
	result, err := e.Run(loadRace(t, "saratoga_r7.json"), nil)
	require.NoError(t, err)

	bet, err := e.BoxBet(models.BetTypeTrifectaBox, []string{"1", "2", "3", "6"}, result.Probabilities)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, bet.Horses)
	assert.Equal(t, 6, bet.Combinations)
	assert.Equal(t, "3", bet.TotalCost.String())
}

func TestRunDeterministic(t *testing.T) {
	e := newEngine(t)
	snapshot := loadRace(t, "saratoga_r7.json")

	a, err := e.Run(snapshot, nil)
	require.NoError(t, err)
	b, err := e.Run(snapshot, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEstimateRerunWithOverrides(t *testing.T) {
	e := newEngine(t)
	snapshot := loadRace(t, "saratoga_r7.json")

	field, err := e.Score(snapshot, nil)
	require.NoError(t, err)
	before, err := e.Estimate(field, nil)
	require.NoError(t, err)

	// Late scratch of the favourite and a price drift on "3"
	overrides := StaticOverrides{
		OddsByIndex: map[int]string{2: "12-1"},
		Scratched:   map[int]bool{0: true},
	}
	after, err := e.Estimate(field, overrides)
	require.NoError(t, err)

	assert.Equal(t, before.ActiveCount-1, after.ActiveCount)

	first, ok := after.ByProgram("1")
	require.True(t, ok)
	assert.True(t, first.Scratched)
	assert.Zero(t, first.ModelProbability)

	third, ok := after.ByProgram("3")
	require.True(t, ok)
	assert.Equal(t, "12-1", third.Odds)
	assert.InDelta(t, 13.0, third.DecimalOdds, 1e-9)

	sum := 0.0
	for _, est := range after.Estimates {
		sum += est.ModelProbability
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	// The scored field itself is untouched
	h, ok := field.ByProgram("1")
	require.True(t, ok)
	assert.False(t, h.IsScratched)
}

func TestScoreWithOverrideScratch(t *testing.T) {
	e := newEngine(t)
	overrides := OverrideFuncs{ScratchedFunc: func(index int) bool { return index == 1 }}

	field, err := e.Score(loadRace(t, "saratoga_r7.json"), overrides)
	require.NoError(t, err)
	assert.Len(t, field.Active(), 6)

	h, ok := field.ByProgram("2")
	require.True(t, ok)
	assert.True(t, h.IsScratched)
}

func TestOverrideFuncsNilCallbacks(t *testing.T) {
	var o OverrideFuncs
	assert.Equal(t, "5-2", o.Odds(0, "5-2"))
	assert.False(t, o.IsScratched(0))

	o.OddsFunc = func(int, string) string { return "9-5" }
	assert.Equal(t, "9-5", o.Odds(0, "5-2"))
}

func TestStaticOverridesEmptyOddsFallsBack(t *testing.T) {
	s := StaticOverrides{OddsByIndex: map[int]string{0: ""}}
	assert.Equal(t, "5-2", s.Odds(0, "5-2"))
	assert.False(t, s.IsScratched(3))
}

func TestNewEngineRejectsInvalidProfile(t *testing.T) {
	profile := config.DefaultProfile()
	profile.Overlay.Transform = "logit"

	_, err := NewEngine(profile, nil)
	assert.Error(t, err)
}

func TestEngineCopiesProfile(t *testing.T) {
	profile := config.DefaultProfile()
	e, err := NewEngine(profile, nil)
	require.NoError(t, err)

	profile.TripTrouble.Keywords.High[0] = "mutated"
	assert.NotEqual(t, "mutated", e.Profile().TripTrouble.Keywords.High[0])
}

func TestPowerTransformProfile(t *testing.T) {
	profile := config.DefaultProfile()
	profile.Overlay.Transform = config.TransformPower
	e, err := NewEngine(profile, nil)
	require.NoError(t, err)

	result, err := e.Run(loadRace(t, "saratoga_r7.json"), nil)
	require.NoError(t, err)
	assert.Equal(t, config.TransformPower, result.Probabilities.Transform)

	sum := 0.0
	for _, est := range result.Probabilities.Estimates {
		assert.False(t, math.IsNaN(est.ModelProbability))
		sum += est.ModelProbability
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRunDuplicateProgramNumberKeepsProbabilitiesWhole(t *testing.T) {
	tests := []struct {
		name    string
		dupOf   int
		dupAt   int
		program string
	}{
		{name: "second entry reuses first", dupOf: 0, dupAt: 1, program: "1"},
		{name: "late entry reuses scratched number", dupOf: 5, dupAt: 7, program: "6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			snapshot := loadRace(t, "saratoga_r7.json")
			snapshot.Horses[tt.dupAt].ProgramNumber = snapshot.Horses[tt.dupOf].ProgramNumber

			result, err := e.Run(snapshot, nil)
			require.NoError(t, err)

			require.Len(t, result.Field.Warnings, 1)
			assert.Equal(t, tt.dupAt, result.Field.Warnings[0].SourceIndex)
			assert.Equal(t, tt.program, result.Field.Warnings[0].ProgramNumber)
			assert.Len(t, result.Field.Horses, 7)

			win := result.Probabilities.WinProbabilities()
			assert.Len(t, win, result.Probabilities.ActiveCount)
			sum := 0.0
			for _, p := range win {
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-9)

			straight := make(map[string]bool)
			for _, b := range result.Recommendation.Bets {
				if b.BetType != models.BetTypeWin {
					continue
				}
				assert.False(t, straight[b.Horses[0]], "duplicate win bet on %s", b.Horses[0])
				straight[b.Horses[0]] = true
			}
		})
	}
}

func TestRunEmptyField(t *testing.T) {
	e := newEngine(t)
	snapshot := &models.RaceSnapshot{Header: models.RaceHeader{RaceID: "R0", Track: "SAR", DistanceFurlongs: 6}}

	_, err := e.Run(snapshot, nil)
	assert.ErrorIs(t, err, models.ErrEmptyField)
}
