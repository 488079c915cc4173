package recommend

import (
	"math"
)

// Staking holds the bankroll settings shared by straight bet pricing
type Staking struct {
	Bankroll      float64
	KellyFraction float64
}

// ExpectedValue returns p x profit x stake - (1 - p) x stake, where profit is per unit staked
func (s Staking) ExpectedValue(probability, profitPerUnit, stake float64) float64 {
	if stake <= 0 {
		return 0
	}
	p := NormalizeProbability(probability)
	return p*profitPerUnit*stake - (1.0-p)*stake
}

// Kelly calculates a fractional Kelly stake for decimal odds
func (s Staking) Kelly(probability, decimalOdds float64) float64 {
	if probability <= 0 || decimalOdds <= 1 || s.Bankroll <= 0 {
		return 0
	}
	p := NormalizeProbability(probability)
	q := 1.0 - p
	b := decimalOdds - 1.0
	kelly := (b*p - q) / b
	if kelly <= 0 {
		return 0
	}
	fraction := s.KellyFraction
	if fraction <= 0 {
		fraction = 0.5
	}
	return s.Bankroll * kelly * fraction
}

// NormalizeProbability clamps p to [0,1], mapping non-finite values to 0
func NormalizeProbability(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
