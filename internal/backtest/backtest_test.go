package backtest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/models"
	"github.com/yourusername/clever-handicapper/internal/pipeline"
)

type sliceSource []*models.RaceSnapshot

func (s sliceSource) Name() string { return "memory" }
func (s sliceSource) Races(ctx context.Context) ([]*models.RaceSnapshot, error) {
	return s, ctx.Err()
}

type failingSource struct{}

func (failingSource) Name() string { return "broken" }
func (failingSource) Races(context.Context) ([]*models.RaceSnapshot, error) {
	return nil, errors.New("disk on fire")
}

func intPtr(v int) *int { return &v }

// race builds a six-horse field where lower program numbers have better figures
func race(id string, finish ...string) *models.RaceSnapshot {
	lines := []string{"2-1", "3-1", "4-1", "6-1", "10-1", "20-1"}
	snapshot := &models.RaceSnapshot{
		Header: models.RaceHeader{RaceID: id, Track: "BEL", RaceNumber: 1, Surface: "dirt", DistanceFurlongs: 6, Classification: "Allowance", FieldSize: 6},
	}
	for i := 0; i < 6; i++ {
		fig := 100 - i*6
		snapshot.Horses = append(snapshot.Horses, models.HorseRecord{
			ProgramNumber: fmt.Sprint(i + 1),
			Name:          fmt.Sprintf("%s Horse %d", id, i+1),
			RunningStyle:  "P",
			PostPosition:  i + 1,
			LayoffDays:    intPtr(30),
			PastPerformances: []models.PastPerformance{
				{FinishPosition: i + 1, FieldSize: 8, LengthsBehind: float64(i), SpeedFigure: intPtr(fig), ClassLevel: 5, DistanceFurlongs: 6, Surface: "dirt", FinalTime: 70 + float64(i)*0.2},
				{FinishPosition: i + 1, FieldSize: 8, LengthsBehind: float64(i), SpeedFigure: intPtr(fig - 2), ClassLevel: 5, DistanceFurlongs: 6, Surface: "dirt", FinalTime: 70.4 + float64(i)*0.2},
			},
			Trainer:     models.Connection{ID: "T", Starts: 100, Wins: 20 - i*2},
			Jockey:      models.Connection{ID: "J", Starts: 100, Wins: 20 - i*2},
			MorningLine: lines[i],
		})
	}
	if len(finish) > 0 {
		snapshot.Result = &models.RaceResult{FinishOrder: finish}
	}
	return snapshot
}

func newPipeline(t *testing.T) *pipeline.Engine {
	t.Helper()
	p, err := pipeline.NewEngine(config.DefaultProfile(), nil)
	require.NoError(t, err)
	return p
}

func newEngine(t *testing.T, src sliceSource, mutate ...func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MonteCarloIterations = 200
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := NewEngine(cfg, newPipeline(t), src, nil)
	require.NoError(t, err)
	return e
}

func TestRunCalibrationAndSettlement(t *testing.T) {
	src := sliceSource{
		race("R1", "1", "2", "3"),
		race("R2", "2", "1", "3"),
		race("R3", "1", "3", "2"),
		race("R4"),
	}
	result, err := newEngine(t, src).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Races)
	assert.Equal(t, 3, result.Evaluated)
	assert.Equal(t, 1, result.Unresolved)
	assert.Zero(t, result.Failed)
	assert.Equal(t, "default", result.Profile)

	require.NotNil(t, result.Calibration)
	// one sample per active horse per resolved race, with exactly one winner each
	assert.Equal(t, 18, result.Calibration.Samples)
	assert.InDelta(t, 1.0/6, result.Calibration.BaseRate, 1e-12)
	assert.InDelta(t, 1.0/6, result.Calibration.MeanPredict, 1e-9)

	require.Len(t, result.RaceResults, 3)
	assert.Equal(t, "1", result.RaceResults[0].TopPick)
	assert.True(t, result.RaceResults[0].TopPickWon)
	assert.False(t, result.RaceResults[1].TopPickWon)
	assert.InDelta(t, 2.0/3, result.TopPickRate, 1e-12)

	// one straight bet settled per resolved race
	assert.Len(t, result.Bets, 3)
	assert.Len(t, result.EquityCurve, 4)
	staked := 0.0
	for _, b := range result.Bets {
		assert.True(t, b.BetType == models.BetTypeWin || b.BetType == models.BetTypePlace || b.BetType == models.BetTypeShow)
		staked += b.Stake
	}
	assert.InDelta(t, staked, result.Betting.TotalStaked, 1e-9)
	assert.InDelta(t, result.Betting.NetProfit/result.Betting.TotalStaked, result.Betting.ROI, 1e-12)
	require.NotNil(t, result.MonteCarlo)
	assert.Equal(t, 200, result.MonteCarlo.Iterations)
}

func TestRunDeterministicAcrossWorkerCounts(t *testing.T) {
	src := sliceSource{}
	for i := 0; i < 12; i++ {
		src = append(src, race(fmt.Sprintf("R%02d", i), fmt.Sprint(i%6+1), fmt.Sprint((i+1)%6+1), fmt.Sprint((i+2)%6+1)))
	}

	serial, err := newEngine(t, src, func(c *Config) { c.Workers = 1 }).Run(context.Background())
	require.NoError(t, err)
	parallel, err := newEngine(t, src, func(c *Config) { c.Workers = 8 }).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, serial.Calibration, parallel.Calibration)
	assert.Equal(t, serial.Bets, parallel.Bets)
	assert.Equal(t, serial.RaceResults, parallel.RaceResults)
	assert.Equal(t, serial.MonteCarlo, parallel.MonteCarlo)
}

func TestRunRecordsPerRaceErrors(t *testing.T) {
	empty := &models.RaceSnapshot{Header: models.RaceHeader{RaceID: "EMPTY", Track: "BEL", DistanceFurlongs: 6}}
	src := sliceSource{race("R1", "1", "2", "3"), empty}

	result, err := newEngine(t, src).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "EMPTY", result.Errors[0].RaceID)
	assert.Equal(t, 1, result.Evaluated)
}

func TestRunNoResolvedRaces(t *testing.T) {
	result, err := newEngine(t, sliceSource{race("R1")}).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoResolvedRaces)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Unresolved)
}

func TestRunSourceError(t *testing.T) {
	e, err := NewEngine(DefaultConfig(), newPipeline(t), failingSource{}, nil)
	require.NoError(t, err)
	_, err = e.Run(context.Background())
	assert.ErrorContains(t, err, "disk on fire")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(t, sliceSource{race("R1", "1")}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEngineValidation(t *testing.T) {
	p := newPipeline(t)

	_, err := NewEngine(DefaultConfig(), nil, sliceSource{}, nil)
	assert.Error(t, err)
	_, err = NewEngine(DefaultConfig(), p, nil, nil)
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.Workers = 0
	_, err = NewEngine(bad, p, sliceSource{}, nil)
	assert.Error(t, err)
}

func TestFromConfigDefaults(t *testing.T) {
	cfg, err := FromConfig(config.BacktestConfig{})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 1, cfg.TopBets)

	cfg, err = FromConfig(config.BacktestConfig{Workers: 2, TopBets: 3, OutputPath: "out.csv"})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.TopBets)
	assert.Equal(t, "out.csv", cfg.OutputPath)
}

func TestSettle(t *testing.T) {
	finish := &models.RaceResult{FinishOrder: []string{"4", "2", "7"}}
	bet := func(bt models.BetType, horse string, dec float64) models.TopBet {
		return models.TopBet{Rank: 1, BetType: bt, Horses: []string{horse}, Cost: decimal.NewFromInt(2), DecimalOdds: dec}
	}

	tests := []struct {
		name    string
		bet     models.TopBet
		wantWon bool
		wantPnL float64
	}{
		{"win pays", bet(models.BetTypeWin, "4", 3.5), true, 5},
		{"win loses", bet(models.BetTypeWin, "2", 4), false, -2},
		{"place pays on second", bet(models.BetTypePlace, "2", 1.8), true, 1.6},
		{"show pays on third", bet(models.BetTypeShow, "7", 1.5), true, 1},
		{"show loses on fourth", bet(models.BetTypeShow, "9", 1.5), false, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := settle("R1", tt.bet, finish)
			assert.Equal(t, tt.wantWon, got.Won)
			assert.InDelta(t, tt.wantPnL, got.ProfitLoss, 1e-9)
			assert.InDelta(t, 2.0, got.Stake, 1e-12)
		})
	}
}

func TestTopStraightBetsSkipsExotics(t *testing.T) {
	rec := &models.Recommendation{Bets: []models.TopBet{
		{Rank: 1, BetType: models.BetTypeExactaBox},
		{Rank: 2, BetType: models.BetTypeWin},
		{Rank: 3, BetType: models.BetTypePlace},
	}}
	got := topStraightBets(rec, 1)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Rank)
	assert.Empty(t, topStraightBets(nil, 3))
}

func TestCalculateMetrics(t *testing.T) {
	state := NewBacktestState(100)
	for _, pnl := range []float64{6, -2, -2, 4} {
		state.UpdateState(SettledBet{Stake: 2, ProfitLoss: pnl, Won: pnl > 0})
		state.RecordEquityPoint("", state.CurrentBankroll)
	}

	m := CalculateMetrics(state)
	assert.Equal(t, 4, m.TotalBets)
	assert.Equal(t, 2, m.WinningBets)
	assert.Equal(t, 2, m.LosingBets)
	assert.InDelta(t, 8, m.TotalStaked, 1e-12)
	assert.InDelta(t, 6, m.NetProfit, 1e-12)
	assert.InDelta(t, 0.75, m.ROI, 1e-12)
	assert.InDelta(t, 0.5, m.WinRate, 1e-12)
	assert.InDelta(t, 2.5, m.ProfitFactor, 1e-12)
	assert.InDelta(t, 1.5, m.Expectancy, 1e-12)
	assert.InDelta(t, 6, m.LargestWin, 1e-12)
	assert.InDelta(t, -2, m.LargestLoss, 1e-12)
	assert.InDelta(t, 4.0/106, m.MaxDrawdown, 1e-12)
	assert.InDelta(t, 106, m.FinalBank, 1e-12)
}

func TestMonteCarloDeterministic(t *testing.T) {
	bets := []SettledBet{{Stake: 10, DecimalOdds: 2, Probability: 0.6}, {Stake: 10, DecimalOdds: 4, Probability: 0.2}}
	cfg := MonteCarloConfig{Iterations: 500, Seed: 42, InitialBankroll: 100}

	a, err := RunMonteCarlo(context.Background(), bets, 110, cfg)
	require.NoError(t, err)
	b, err := RunMonteCarlo(context.Background(), bets, 110, cfg)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 500, a.Iterations)
	assert.GreaterOrEqual(t, a.ProbabilityOfProfit, 0.0)
	assert.LessOrEqual(t, a.ProbabilityOfProfit, 1.0)
	assert.Zero(t, a.ProbabilityOfRuin)

	_, err = RunMonteCarlo(context.Background(), bets, 110, MonteCarloConfig{Iterations: 10})
	assert.Error(t, err)
}

func TestReports(t *testing.T) {
	src := sliceSource{race("R1", "1", "2", "3"), race("R2", "3", "1", "2")}
	result, err := newEngine(t, src).Run(context.Background())
	require.NoError(t, err)

	var console bytes.Buffer
	require.NoError(t, GenerateConsoleReport(&console, result))
	assert.Contains(t, console.String(), "Validation Report (default)")
	assert.Contains(t, strings.ToUpper(console.String()), "BRIER")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, result))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "race_id", rows[0][0])
	assert.Equal(t, "R2", rows[2][0])

	dir := t.TempDir()
	require.NoError(t, GenerateCSVExport(result, filepath.Join(dir, "out", "races.csv")))
	require.NoError(t, GenerateJSONExport(result, filepath.Join(dir, "out", "result.json")))
}
