package backtest

import (
	"math"
)

// Metrics summarises settled betting performance
type Metrics struct {
	TotalBets    int     `json:"total_bets"`
	WinningBets  int     `json:"winning_bets"`
	LosingBets   int     `json:"losing_bets"`
	TotalStaked  float64 `json:"total_staked"`
	NetProfit    float64 `json:"net_profit"`
	ROI          float64 `json:"roi"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	AverageWin   float64 `json:"average_win"`
	AverageLoss  float64 `json:"average_loss"`
	Expectancy   float64 `json:"expectancy"`
	LargestWin   float64 `json:"largest_win"`
	LargestLoss  float64 `json:"largest_loss"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	FinalBank    float64 `json:"final_bankroll"`
}

// CalculateMetrics calculates metrics from backtest state
func CalculateMetrics(state *BacktestState) Metrics {
	if state == nil {
		return Metrics{}
	}

	m := Metrics{
		TotalBets:   len(state.Bets),
		MaxDrawdown: state.EquityCurve.MaxDrawdown(),
		SharpeRatio: calculateSharpeRatio(state.EquityCurve.GetReturns()),
		FinalBank:   state.CurrentBankroll,
	}
	for _, bet := range state.Bets {
		m.TotalStaked += bet.Stake
		m.NetProfit += bet.ProfitLoss
	}
	if m.TotalStaked > 0 {
		m.ROI = m.NetProfit / m.TotalStaked
	}

	m.WinningBets, m.LosingBets, m.AverageWin, m.AverageLoss, m.LargestWin, m.LargestLoss = calculateBetStats(state.Bets)
	m.WinRate = calculateWinRate(m.WinningBets, m.TotalBets)
	m.ProfitFactor = calculateProfitFactor(state.Bets)
	m.Expectancy = calculateExpectancy(state.Bets)
	return m
}

// calculateSharpeRatio is the mean per-race return over its deviation, not annualised
func calculateSharpeRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	std := stddev(returns)
	if std == 0 {
		return 0
	}
	return average(returns) / std
}

func calculateProfitFactor(bets []SettledBet) float64 {
	grossProfit := 0.0
	grossLoss := 0.0
	for _, bet := range bets {
		if bet.ProfitLoss > 0 {
			grossProfit += bet.ProfitLoss
		} else {
			grossLoss += math.Abs(bet.ProfitLoss)
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return 999
		}
		return 0
	}
	return grossProfit / grossLoss
}

func calculateExpectancy(bets []SettledBet) float64 {
	if len(bets) == 0 {
		return 0
	}
	net := 0.0
	for _, bet := range bets {
		net += bet.ProfitLoss
	}
	return net / float64(len(bets))
}

func calculateBetStats(bets []SettledBet) (int, int, float64, float64, float64, float64) {
	wins := 0
	losses := 0
	winSum := 0.0
	lossSum := 0.0
	largestWin := 0.0
	largestLoss := 0.0
	for _, bet := range bets {
		pl := bet.ProfitLoss
		if pl > 0 {
			wins++
			winSum += pl
			largestWin = math.Max(largestWin, pl)
		} else if pl < 0 {
			losses++
			lossSum += pl
			largestLoss = math.Min(largestLoss, pl)
		}
	}

	avgWin := 0.0
	avgLoss := 0.0
	if wins > 0 {
		avgWin = winSum / float64(wins)
	}
	if losses > 0 {
		avgLoss = lossSum / float64(losses)
	}
	return wins, losses, avgWin, avgLoss, largestWin, largestLoss
}

func calculateWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(values)))
}
