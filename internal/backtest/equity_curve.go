package backtest

import (
	"encoding/json"
	"math"
)

// EquityPoint is the bankroll after one race
type EquityPoint struct {
	RaceID   string  `json:"race_id"`
	Value    float64 `json:"value"`
	Drawdown float64 `json:"drawdown"`
	RacePnL  float64 `json:"race_pnl"`
}

// EquityCurve represents the bankroll race by race
type EquityCurve []EquityPoint

// GetReturns calculates per-race returns from equity curve
func (e EquityCurve) GetReturns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (e[i].Value-prev)/prev)
	}
	return returns
}

// GetVolatility calculates standard deviation of returns
func (e EquityCurve) GetVolatility() float64 {
	return stddev(e.GetReturns())
}

// MaxDrawdown returns the largest peak-to-trough fall
func (e EquityCurve) MaxDrawdown() float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range e {
		if p.Value > peak {
			peak = p.Value
		}
		if peak == 0 {
			continue
		}
		maxDD = math.Max(maxDD, (peak-p.Value)/peak)
	}
	return maxDD
}

// ToJSON exports equity curve to JSON string
func (e EquityCurve) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}
