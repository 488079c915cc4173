package heuristic

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/models"
)

func newDetector(t *testing.T) *TripTroubleDetector {
	t.Helper()
	d, err := NewTripTroubleDetector(config.DefaultProfile().TripTrouble)
	require.NoError(t, err)
	return d
}

func withComments(comments ...string) []models.PastPerformance {
	pps := make([]models.PastPerformance, len(comments))
	for i, c := range comments {
		pps[i] = models.PastPerformance{FinishPosition: 3, Comment: c}
	}
	return pps
}

func TestProjectPace(t *testing.T) {
	tests := []struct {
		name   string
		styles []models.RunningStyle
		want   models.PaceScenario
	}{
		{"three speed horses", []models.RunningStyle{"E", "E", "E", "S"}, models.PaceSpeedDuel},
		{"two speed horses", []models.RunningStyle{"E", "E", "P", "S"}, models.PaceContested},
		{"one speed two pressers", []models.RunningStyle{"E", "E/P", "E/P", "S"}, models.PaceContested},
		{"one speed one presser", []models.RunningStyle{"E", "E/P", "P", "S"}, models.PaceModerate},
		{"pressers only", []models.RunningStyle{"E/P", "P", "S"}, models.PaceModerate},
		{"no early types", []models.RunningStyle{"P", "S", "S", ""}, models.PaceSoft},
		{"empty field", nil, models.PaceSoft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			horses := make([]*models.HorseRecord, len(tt.styles))
			for i, s := range tt.styles {
				horses[i] = &models.HorseRecord{RunningStyle: s}
			}
			assert.Equal(t, tt.want, ProjectPace(horses))
		})
	}
}

func TestClassify(t *testing.T) {
	d := newDetector(t)

	tests := []struct {
		name    string
		comment string
		level   KeywordCategory
		caused  bool
	}{
		{"high", "Checked sharply 3/8", KeywordHigh, false},
		{"highest level wins", "Bumped start, steadied turn", KeywordHigh, false},
		{"multi word keyword", "Boxed  in upper stretch", KeywordMedium, false},
		{"forced wide beats wide", "Forced wide far turn", KeywordMedium, false},
		{"low", "4 wide trip, no excuse", KeywordLow, false},
		{"caused", "Drifted out late", KeywordNone, true},
		{"suffered and caused", "Checked, lugged in stretch", KeywordHigh, true},
		{"word boundary", "Ran widely praised race", KeywordNone, false},
		{"nothing", "Drew off under a hand ride", KeywordNone, false},
		{"empty", "", KeywordNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := d.Classify(tt.comment)
			assert.Equal(t, tt.level, class.Level)
			assert.Equal(t, tt.caused, class.Caused)
		})
	}
}

func TestTripTroubleReasons(t *testing.T) {
	d := newDetector(t)

	tests := []struct {
		name     string
		comments []string
		points   float64
		reason   string
	}{
		{
			name:     "no comments",
			comments: []string{"", "", ""},
			points:   0,
			reason:   "No trip comments in last 3 races",
		},
		{
			name:     "no trouble",
			comments: []string{"Rated kindly, drew off", "Even trip", "Led throughout"},
			points:   0,
			reason:   "No trip trouble in last 3 races",
		},
		{
			name:     "one of each level capped at max",
			comments: []string{"Checked sharply 1/4", "Bumped start", "4 wide trip"},
			points:   5,
			reason:   "Trip trouble in 3 of last 3 races (high 1, medium 1, low 1): +5.0 pts",
		},
		{
			name:     "medium and low",
			comments: []string{"Squeezed start", "Bobbled break", "Drew clear"},
			points:   3,
			reason:   "Trip trouble in 2 of last 3 races (high 0, medium 1, low 1): +3.0 pts",
		},
		{
			name:     "per level cap",
			comments: []string{"Off slow", "Hesitated at start", "Awkward start"},
			points:   2,
			reason:   "Trip trouble in 3 of last 3 races (high 0, medium 0, low 3): +2.0 pts",
		},
		{
			name:     "caused trouble reduces total",
			comments: []string{"Steadied early", "Bore in deep stretch", "Slow start"},
			points:   3,
			reason:   "Trip trouble in 2 of last 3 races (high 1, medium 0, low 1): +3.0 pts; caused trouble in 1 race(s), reduced by 25%",
		},
		{
			name:     "caused only",
			comments: []string{"Interfered with rival", "", "Easy lead"},
			points:   0,
			reason:   "No trip trouble in last 3 races; caused trouble in 1 race(s), reduced by 25%",
		},
		{
			name:     "lookback ignores older races",
			comments: []string{"Drew off", "Won easily", "Even trip", "Checked hard", "Blocked turn"},
			points:   0,
			reason:   "No trip trouble in last 3 races",
		},
		{
			name:     "fewer races than lookback",
			comments: []string{"Steadied 1/8"},
			points:   3,
			reason:   "Trip trouble in 1 of last 1 races (high 1, medium 0, low 0): +3.0 pts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := d.Detect(withComments(tt.comments...))
			assert.InDelta(t, tt.points, adj.Points, 1e-9)
			assert.Equal(t, tt.reason, adj.Reason)
		})
	}
}

func TestTripTroubleCausedExcludesRace(t *testing.T) {
	d := newDetector(t)

	// Suffered and caused in the same race earns nothing for that race
	adj := d.Detect(withComments("Checked, then drifted out badly"))
	assert.Equal(t, 0.0, adj.Points)
	assert.Equal(t, 0, adj.HighRaces)
	assert.Equal(t, 1, adj.CausedRaces)
	assert.Contains(t, adj.MatchedKeywords, "checked")
	assert.Contains(t, adj.MatchedKeywords, "drifted out")
}

func TestTripTroubleCausedFloorAtZero(t *testing.T) {
	cfg := config.DefaultProfile().TripTrouble
	cfg.Lookback = 5
	cfg.CausedReduction = 0.5
	d, err := NewTripTroubleDetector(cfg)
	require.NoError(t, err)

	adj := d.Detect(withComments("Steadied", "Bumped", "Lugged out", "Bore in", "Interfered"))
	assert.Equal(t, 0.0, adj.Points)
	assert.Equal(t, 3, adj.CausedRaces)
	assert.Contains(t, adj.Reason, "reduced by 100%")
}

func TestTripTroubleBounds(t *testing.T) {
	d := newDetector(t)
	comments := []string{"checked", "blocked", "shut off", "bumped", "wide", "bore out", "", "steadied"}
	for i := 0; i < len(comments); i++ {
		for j := i; j < len(comments); j++ {
			adj := d.Detect(withComments(comments[i:j]...))
			assert.GreaterOrEqual(t, adj.Points, 0.0)
			assert.LessOrEqual(t, adj.Points, 5.0)
		}
	}
}

func fraction(at, secs float64) models.Fraction {
	return models.Fraction{AtFurlongs: at, Seconds: secs}
}

func sprint(final float64) models.PastPerformance {
	return models.PastPerformance{
		FinishPosition:   2,
		DistanceFurlongs: 6,
		FinalTime:        final,
		Fractions:        []models.Fraction{fraction(2, 23.0), fraction(4, 46.5)},
	}
}

func TestRaceDifferential(t *testing.T) {
	a := NewVelocityAnalyzer(config.DefaultProfile().Velocity)

	// Early 11.5 s/f, late 2f in 23.0s = 11.5 s/f
	diff, err := a.RaceDifferential(sprint(69.5))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, diff, 1e-9)

	// Late 2f in 25.5s = 12.75 s/f
	diff, err = a.RaceDifferential(sprint(72.0))
	require.NoError(t, err)
	assert.InDelta(t, -1.25, diff, 1e-9)
}

func TestRaceDifferentialAboutDistanceFallback(t *testing.T) {
	a := NewVelocityAnalyzer(config.DefaultProfile().Velocity)

	// About distance: last call at 8f of 8.2f leaves a 0.2f segment
	pp := models.PastPerformance{
		FinishPosition:   1,
		DistanceFurlongs: 8.2,
		FinalTime:        98.6,
		Fractions:        []models.Fraction{fraction(2, 22.8), fraction(4, 46.5), fraction(6, 70.9), fraction(8, 96.0)},
	}
	early, late, err := a.Segments(pp)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, late.FromFurlongs, 1e-9)
	assert.InDelta(t, 2.2, late.Length(), 1e-9)
	assert.InDelta(t, 2.0, early.Length(), 1e-9)

	diff, err := a.RaceDifferential(pp)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(diff) || math.IsInf(diff, 0))
	assert.InDelta(t, 11.4-27.7/2.2, diff, 1e-9)
}

func TestRaceDifferentialDegenerate(t *testing.T) {
	a := NewVelocityAnalyzer(config.DefaultProfile().Velocity)

	tests := []struct {
		name string
		pp   models.PastPerformance
	}{
		{"no fractions", models.PastPerformance{DistanceFurlongs: 6, FinalTime: 70}},
		{"no final time", models.PastPerformance{DistanceFurlongs: 6, Fractions: []models.Fraction{fraction(2, 23)}}},
		{"single call too close to finish", models.PastPerformance{DistanceFurlongs: 6, FinalTime: 70, Fractions: []models.Fraction{fraction(5.8, 68)}}},
		{"fallback still too short", models.PastPerformance{DistanceFurlongs: 8.2, FinalTime: 98, Fractions: []models.Fraction{fraction(2, 23), fraction(7.9, 94), fraction(8, 96)}}},
		{"early segment too short", models.PastPerformance{DistanceFurlongs: 6, FinalTime: 70, Fractions: []models.Fraction{fraction(0.1, 2), fraction(4, 46)}}},
		{"unrealistic rate", models.PastPerformance{DistanceFurlongs: 6, FinalTime: 200, Fractions: []models.Fraction{fraction(2, 23), fraction(4, 46)}}},
		{"call after finish time", models.PastPerformance{DistanceFurlongs: 6, FinalTime: 40, Fractions: []models.Fraction{fraction(2, 45)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.RaceDifferential(tt.pp)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrNumericDegenerate))
		})
	}
}

func TestRaceDifferentialAlwaysFinite(t *testing.T) {
	a := NewVelocityAnalyzer(config.DefaultProfile().Velocity)

	distances := []float64{0, 0.2, 4.5, 6, 8, 8.2, 8.5, 9, 12}
	calls := []float64{0, 0.05, 0.2, 2, 4, 5.9, 6, 7.8, 8, 8.1}
	finals := []float64{0, 0.001, 22, 58, 70, 98.6, 1000}

	for _, d := range distances {
		for _, c1 := range calls {
			for _, c2 := range calls {
				for _, final := range finals {
					pp := models.PastPerformance{
						DistanceFurlongs: d,
						FinalTime:        final,
						Fractions:        []models.Fraction{fraction(c1, c1*11.6), fraction(c2, c2*11.9)},
					}
					diff, err := a.RaceDifferential(pp)
					if err == nil {
						assert.False(t, math.IsNaN(diff) || math.IsInf(diff, 0), "d=%v c1=%v c2=%v final=%v", d, c1, c2, final)
					}
					adj := a.Analyze([]models.PastPerformance{pp, pp}, models.PaceSpeedDuel)
					assert.False(t, math.IsNaN(adj.Points) || math.IsInf(adj.Points, 0))
					assert.LessOrEqual(t, math.Abs(adj.Points), 5.0)
				}
			}
		}
	}
}

func TestVelocityProfiles(t *testing.T) {
	a := NewVelocityAnalyzer(config.DefaultProfile().Velocity)

	tests := []struct {
		name     string
		pps      []models.PastPerformance
		scenario models.PaceScenario
		profile  models.VelocityProfile
		points   float64
	}{
		{"strong closer moderate pace", []models.PastPerformance{sprint(69.5), sprint(69.3)}, models.PaceModerate, models.VelocityStrongCloser, 4},
		{"strong closer contested pace", []models.PastPerformance{sprint(69.5), sprint(69.3)}, models.PaceContested, models.VelocityStrongCloser, 5},
		{"strong closer speed duel capped", []models.PastPerformance{sprint(69.5), sprint(69.3)}, models.PaceSpeedDuel, models.VelocityStrongCloser, 5},
		{"strong closer soft pace", []models.PastPerformance{sprint(69.5), sprint(69.3)}, models.PaceSoft, models.VelocityStrongCloser, 2},
		{"moderate closer", []models.PastPerformance{sprint(70.5), sprint(70.5)}, models.PaceModerate, models.VelocityModerateCloser, 2},
		{"moderate closer contested", []models.PastPerformance{sprint(70.5), sprint(70.5)}, models.PaceContested, models.VelocityModerateCloser, 2.5},
		{"steady pace", []models.PastPerformance{sprint(71.5), sprint(71.5)}, models.PaceSpeedDuel, models.VelocitySteadyPace, 0},
		{"fader", []models.PastPerformance{sprint(72.5), sprint(72.5)}, models.PaceSpeedDuel, models.VelocityFader, -3},
		{"fader soft pace", []models.PastPerformance{sprint(72.5), sprint(72.5)}, models.PaceSoft, models.VelocityFader, -1.5},
		{"one usable race", []models.PastPerformance{sprint(69.5)}, models.PaceModerate, models.VelocityUnknown, 0},
		{"no fractions", []models.PastPerformance{{DistanceFurlongs: 6, FinalTime: 70}}, models.PaceModerate, models.VelocityUnknown, 0},
		{"no races", nil, models.PaceModerate, models.VelocityUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := a.Analyze(tt.pps, tt.scenario)
			assert.Equal(t, tt.profile, adj.Profile)
			assert.InDelta(t, tt.points, adj.Points, 1e-9)
			assert.NotEmpty(t, adj.Reason)
		})
	}
}

func TestVelocityUnknownKeepsMean(t *testing.T) {
	a := NewVelocityAnalyzer(config.DefaultProfile().Velocity)

	adj := a.Analyze([]models.PastPerformance{sprint(69.5), {DistanceFurlongs: 6, FinalTime: 70, Fractions: []models.Fraction{fraction(5.9, 69)}}}, models.PaceModerate)
	assert.Equal(t, models.VelocityUnknown, adj.Profile)
	assert.Equal(t, 1, adj.UsableRaces)
	assert.Equal(t, 1, adj.SkippedRaces)
	require.NotNil(t, adj.MeanDifferential)
	assert.Equal(t, "Insufficient fractional data: 1 usable race(s), need 2", adj.Reason)
}
