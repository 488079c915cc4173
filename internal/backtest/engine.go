// Package backtest replays historical races through the pipeline to measure calibration and betting return.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/clever-handicapper/internal/calibration"
	"github.com/yourusername/clever-handicapper/internal/datasource"
	"github.com/yourusername/clever-handicapper/internal/logger"
	"github.com/yourusername/clever-handicapper/internal/models"
	"github.com/yourusername/clever-handicapper/internal/pipeline"
)

// ErrNoResolvedRaces is returned when no race had both a pipeline result and an official finish
var ErrNoResolvedRaces = errors.New("no races with results to validate")

// RaceError records a race that could not be evaluated
type RaceError struct {
	RaceID string `json:"race_id"`
	Error  string `json:"error"`
}

// RaceSummary is the per-race line of a validation report
type RaceSummary struct {
	RaceID         string  `json:"race_id"`
	Winner         string  `json:"winner"`
	TopPick        string  `json:"top_pick"`
	TopPickWon     bool    `json:"top_pick_won"`
	WinnerRank     int     `json:"winner_rank"`
	WinnerProb     float64 `json:"winner_probability"`
	ActiveHorses   int     `json:"active_horses"`
	BetsSettled    int     `json:"bets_settled"`
	RaceProfitLoss float64 `json:"race_profit_loss"`
}

// Result is the outcome of one validation run
type Result struct {
	Profile     string              `json:"profile"`
	Races       int                 `json:"races"`
	Evaluated   int                 `json:"evaluated"`
	Unresolved  int                 `json:"unresolved"`
	Failed      int                 `json:"failed"`
	TopPickRate float64             `json:"top_pick_win_rate"`
	Calibration *calibration.Report `json:"calibration,omitempty"`
	Betting     Metrics             `json:"betting"`
	MonteCarlo  *MonteCarloResult   `json:"monte_carlo,omitempty"`
	RaceResults []RaceSummary       `json:"race_results"`
	Bets        []SettledBet        `json:"bets"`
	EquityCurve EquityCurve         `json:"equity_curve"`
	Errors      []RaceError         `json:"errors,omitempty"`
	Duration    time.Duration       `json:"duration"`
}

// Engine orchestrates validation runs
type Engine struct {
	config   Config
	pipeline *pipeline.Engine
	source   datasource.Source
	logger   *logger.ValidationLogger
}

// NewEngine creates a new validation engine
func NewEngine(cfg Config, p *pipeline.Engine, source datasource.Source, log *logrus.Logger) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if source == nil {
		return nil, fmt.Errorf("race source is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{
		config:   cfg,
		pipeline: p,
		source:   source,
		logger:   logger.NewValidationLogger(log),
	}, nil
}

// Config returns the validation configuration
func (e *Engine) Config() Config {
	return e.config
}

type raceOutcome struct {
	snapshot *models.RaceSnapshot
	result   *pipeline.Result
	err      error
}

// Run scores every race on a bounded worker pool, then settles results in source order
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	races, err := e.source.Races(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load races: %w", err)
	}
	profile := e.pipeline.Profile().Name
	e.logger.LogRunStarted(e.source.Name(), profile, len(races), e.config.Workers)

	outcomes := make([]raceOutcome, len(races))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)
	for i, snapshot := range races {
		i, snapshot := i, snapshot
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := e.pipeline.Run(snapshot, nil)
			outcomes[i] = raceOutcome{snapshot: snapshot, result: result, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := e.settle(outcomes)
	res.Profile = profile
	res.Duration = time.Since(start)

	if res.Calibration == nil {
		return res, ErrNoResolvedRaces
	}

	if e.config.MonteCarloIterations > 0 && len(res.Bets) > 0 {
		mc, err := RunMonteCarlo(ctx, res.Bets, res.Betting.FinalBank, MonteCarloConfig{
			Iterations:      e.config.MonteCarloIterations,
			Seed:            e.config.Seed,
			InitialBankroll: e.config.InitialBankroll,
		})
		if err != nil {
			return nil, err
		}
		res.MonteCarlo = &mc
	}

	e.logger.LogRunCompleted(res.Races, res.Failed, res.Calibration.Brier, res.Calibration.LogLoss,
		res.Betting.ROI, float64(res.Duration.Milliseconds()))
	return res, nil
}

// settle walks outcomes in order so results do not depend on worker scheduling
func (e *Engine) settle(outcomes []raceOutcome) *Result {
	res := &Result{Races: len(outcomes)}
	state := NewBacktestState(e.config.InitialBankroll)

	var predicted []float64
	var actual []bool
	topPickWins := 0

	for _, o := range outcomes {
		raceID := o.snapshot.Header.RaceID
		if o.err != nil {
			res.Failed++
			res.Errors = append(res.Errors, RaceError{RaceID: raceID, Error: o.err.Error()})
			e.logger.LogRaceFailed(raceID, o.err)
			continue
		}
		finish := o.snapshot.Result
		if finish == nil || finish.Winner() == "" {
			res.Unresolved++
			continue
		}
		res.Evaluated++

		winner := finish.Winner()
		summary := RaceSummary{RaceID: raceID, Winner: winner, ActiveHorses: o.result.Probabilities.ActiveCount}
		bestProb := -1.0
		for _, est := range o.result.Probabilities.Estimates {
			if est.Scratched {
				continue
			}
			won := est.ProgramNumber == winner
			predicted = append(predicted, est.ModelProbability)
			actual = append(actual, won)
			if est.ModelProbability > bestProb {
				bestProb = est.ModelProbability
				summary.TopPick = est.ProgramNumber
			}
			if won {
				summary.WinnerProb = est.ModelProbability
			}
		}
		if h, ok := o.result.Field.ByProgram(winner); ok {
			summary.WinnerRank = h.Rank
		}
		summary.TopPickWon = summary.TopPick == winner
		if summary.TopPickWon {
			topPickWins++
		}

		before := state.CurrentBankroll
		for _, bet := range topStraightBets(o.result.Recommendation, e.config.TopBets) {
			settled := settle(raceID, bet, finish)
			state.UpdateState(settled)
			summary.BetsSettled++
		}
		summary.RaceProfitLoss = state.CurrentBankroll - before
		state.RecordEquityPoint(raceID, state.CurrentBankroll)

		res.RaceResults = append(res.RaceResults, summary)
	}

	if len(predicted) > 0 {
		report, err := calibration.NewReport(predicted, actual)
		if err == nil {
			res.Calibration = report
		}
	}
	if res.Evaluated > 0 {
		res.TopPickRate = float64(topPickWins) / float64(res.Evaluated)
	}
	res.Bets = state.Bets
	res.EquityCurve = state.EquityCurve
	res.Betting = CalculateMetrics(state)
	return res
}

// topStraightBets returns the n best-ranked straight bets; exotics are never settled
func topStraightBets(rec *models.Recommendation, n int) []models.TopBet {
	if rec == nil || n <= 0 {
		return nil
	}
	out := make([]models.TopBet, 0, n)
	for _, bet := range rec.Bets {
		if !bet.BetType.IsStraight() {
			continue
		}
		out = append(out, bet)
		if len(out) == n {
			break
		}
	}
	return out
}
