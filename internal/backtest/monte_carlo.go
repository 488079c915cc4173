package backtest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// MonteCarloConfig configures the model-implied bankroll simulation
type MonteCarloConfig struct {
	Iterations      int
	Seed            int64
	InitialBankroll float64
}

// MonteCarloResult is the distribution of returns if every bet won at its model probability
type MonteCarloResult struct {
	Iterations          int                `json:"iterations"`
	MeanReturn          float64            `json:"mean_return"`
	StdReturn           float64            `json:"std_return"`
	VaR95               float64            `json:"var_95"`
	ProbabilityOfProfit float64            `json:"probability_of_profit"`
	ProbabilityOfRuin   float64            `json:"probability_of_ruin"`
	ConfidenceIntervals map[string]float64 `json:"confidence_intervals"`
	// ActualPercentile is where the realised bankroll falls in the simulated distribution
	ActualPercentile float64 `json:"actual_percentile"`
}

// RunMonteCarlo replays the settled bets with outcomes drawn from the model's probabilities.
// A realised result far in either tail suggests the probabilities are miscalibrated.
func RunMonteCarlo(ctx context.Context, bets []SettledBet, actualBankroll float64, cfg MonteCarloConfig) (MonteCarloResult, error) {
	if cfg.Iterations <= 0 {
		cfg.Iterations = defaultMonteCarloIterations
	}
	if cfg.InitialBankroll <= 0 {
		return MonteCarloResult{}, fmt.Errorf("initial bankroll must be positive")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	distribution := make([]float64, cfg.Iterations)

	for i := 0; i < cfg.Iterations; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return MonteCarloResult{}, err
			}
		}
		bankroll := cfg.InitialBankroll
		for _, bet := range bets {
			if rng.Float64() < bet.Probability {
				bankroll += bet.Stake * (bet.DecimalOdds - 1)
			} else {
				bankroll -= bet.Stake
			}
			if bankroll <= 0 {
				bankroll = 0
				break
			}
		}
		distribution[i] = bankroll
	}
	sort.Float64s(distribution)

	mean, std := meanStd(distribution)
	return MonteCarloResult{
		Iterations:          cfg.Iterations,
		MeanReturn:          (mean - cfg.InitialBankroll) / cfg.InitialBankroll,
		StdReturn:           std / cfg.InitialBankroll,
		VaR95:               (percentile(distribution, 0.05) - cfg.InitialBankroll) / cfg.InitialBankroll,
		ProbabilityOfProfit: fractionAbove(distribution, cfg.InitialBankroll),
		ProbabilityOfRuin:   1 - fractionAbove(distribution, 0),
		ConfidenceIntervals: CalculateConfidenceIntervals(distribution, []float64{0.9, 0.95, 0.99}),
		ActualPercentile:    1 - fractionAbove(distribution, actualBankroll),
	}, nil
}

// CalculateConfidenceIntervals returns the width of each central interval of a sorted distribution
func CalculateConfidenceIntervals(sorted []float64, levels []float64) map[string]float64 {
	results := make(map[string]float64)
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		results[fmt.Sprintf("%.0f%%", level*100)] = percentile(sorted, 1.0-p) - percentile(sorted, p)
	}
	return results
}

func meanStd(values []float64) (float64, float64) {
	return average(values), stddev(values)
}

// percentile expects sorted input
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func fractionAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}
