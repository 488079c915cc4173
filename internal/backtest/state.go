package backtest

import (
	"github.com/yourusername/clever-handicapper/internal/models"
)

// SettledBet is one recommended straight bet settled against the official result
type SettledBet struct {
	RaceID      string         `json:"race_id"`
	Rank        int            `json:"rank"`
	BetType     models.BetType `json:"bet_type"`
	Horse       string         `json:"horse"`
	Stake       float64        `json:"stake"`
	DecimalOdds float64        `json:"decimal_odds"`
	Probability float64        `json:"probability"`
	Won         bool           `json:"won"`
	ProfitLoss  float64        `json:"profit_loss"`
}

// BacktestState tracks the simulated bankroll across settled bets
type BacktestState struct {
	CurrentBankroll float64
	PeakBankroll    float64
	Bets            []SettledBet
	EquityCurve     EquityCurve
}

// NewBacktestState initializes backtest state
func NewBacktestState(initialBankroll float64) *BacktestState {
	state := &BacktestState{
		CurrentBankroll: initialBankroll,
		PeakBankroll:    initialBankroll,
		Bets:            []SettledBet{},
		EquityCurve:     EquityCurve{},
	}
	state.RecordEquityPoint("", initialBankroll)
	return state
}

// UpdateState applies a settled bet to the bankroll
func (s *BacktestState) UpdateState(bet SettledBet) {
	s.CurrentBankroll += bet.ProfitLoss
	if s.CurrentBankroll > s.PeakBankroll {
		s.PeakBankroll = s.CurrentBankroll
	}
	s.Bets = append(s.Bets, bet)
}

// GetCurrentDrawdown calculates peak-to-trough drawdown
func (s *BacktestState) GetCurrentDrawdown() float64 {
	if s.PeakBankroll == 0 {
		return 0
	}
	drawdown := (s.PeakBankroll - s.CurrentBankroll) / s.PeakBankroll
	if drawdown < 0 {
		return 0
	}
	return drawdown
}

// RecordEquityPoint adds an equity point after a race
func (s *BacktestState) RecordEquityPoint(raceID string, value float64) {
	drawdown := 0.0
	if value < s.PeakBankroll && s.PeakBankroll > 0 {
		drawdown = (s.PeakBankroll - value) / s.PeakBankroll
	}
	pnl := 0.0
	if n := len(s.EquityCurve); n > 0 {
		pnl = value - s.EquityCurve[n-1].Value
	}

	s.EquityCurve = append(s.EquityCurve, EquityPoint{
		RaceID:   raceID,
		Value:    value,
		Drawdown: drawdown,
		RacePnL:  pnl,
	})
}

// settle prices one bet against the finish order; DecimalOdds already carries place/show payout factors
func settle(raceID string, bet models.TopBet, result *models.RaceResult) SettledBet {
	stake := bet.Cost.InexactFloat64()
	horse := ""
	if len(bet.Horses) > 0 {
		horse = bet.Horses[0]
	}

	won := false
	switch bet.BetType {
	case models.BetTypeWin:
		won = result.FinishedWithin(horse, 1)
	case models.BetTypePlace:
		won = result.FinishedWithin(horse, 2)
	case models.BetTypeShow:
		won = result.FinishedWithin(horse, 3)
	}

	pnl := -stake
	if won {
		pnl = stake * (bet.DecimalOdds - 1)
	}
	return SettledBet{
		RaceID:      raceID,
		Rank:        bet.Rank,
		BetType:     bet.BetType,
		Horse:       horse,
		Stake:       stake,
		DecimalOdds: bet.DecimalOdds,
		Probability: bet.Probability,
		Won:         won,
		ProfitLoss:  pnl,
	}
}
