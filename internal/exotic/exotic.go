// Package exotic counts, prices and roughly estimates exacta, trifecta and superfecta
// key and box wagers. Estimates are speculative and never carry an expected value.
package exotic

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/clever-handicapper/internal/models"
)

// Reasons a key wager is not offered
const (
	ReasonKeyNotInField = "key horse not in active field"
	ReasonKeyScratched  = "key horse scratched"
)

// Permutations returns n!/(n-k)!, or 0 when n < k or k < 0
func Permutations(n, k int) int {
	if k < 0 || n < k {
		return 0
	}
	result := 1
	for i := 0; i < k; i++ {
		result *= n - i
	}
	return result
}

// KeyCombinations returns the number of key bet combinations for n with-horses
func KeyCombinations(betType models.BetType, n int) int {
	return Permutations(n, betType.Positions()-1)
}

// BoxCombinations returns the number of box combinations over m horses
func BoxCombinations(betType models.BetType, m int) int {
	return Permutations(m, betType.Positions())
}

// KeyBet prices a key wager with key on top and every ordering of with underneath
// Horses missing from probs (scratched or unknown) are dropped; too few with-horses is
// a zero-combination result with a reason, not an error
func KeyBet(betType models.BetType, key string, with []string, probs map[string]float64, unit decimal.Decimal) (models.ExoticKeyBet, error) {
	if !isKey(betType) {
		return models.ExoticKeyBet{}, fmt.Errorf("%s is not a key bet type", betType)
	}
	if !unit.IsPositive() {
		return models.ExoticKeyBet{}, fmt.Errorf("unit stake must be positive, got %s", unit)
	}

	bet := models.ExoticKeyBet{
		BetType:       betType,
		KeyHorse:      key,
		WithHorses:    []string{},
		CostPerUnit:   unit,
		TotalCost:     decimal.Zero,
		IsSpeculative: true,
	}
	if _, ok := probs[key]; !ok {
		bet.Reason = ReasonKeyNotInField
		return bet, nil
	}

	bet.WithHorses = eligible(with, probs, key)
	required := betType.Positions() - 1
	if len(bet.WithHorses) < required {
		bet.Reason = fmt.Sprintf("insufficient with-horses: %s requires %d, got %d",
			displayName(betType), required, len(bet.WithHorses))
		return bet, nil
	}

	bet.Combinations = KeyCombinations(betType, len(bet.WithHorses))
	bet.TotalCost = unit.Mul(decimal.NewFromInt(int64(bet.Combinations)))

	order := make([]string, 0, betType.Positions())
	forEachPermutation(bet.WithHorses, required, func(under []string) {
		order = append(order[:0], key)
		order = append(order, under...)
		bet.EstimatedProbability += Harville(order, probs)
	})
	return bet, nil
}

// BoxBet prices a box wager over horses in any finishing order
func BoxBet(betType models.BetType, horses []string, probs map[string]float64, unit decimal.Decimal) (models.ExoticBoxBet, error) {
	if !isBox(betType) {
		return models.ExoticBoxBet{}, fmt.Errorf("%s is not a box bet type", betType)
	}
	if !unit.IsPositive() {
		return models.ExoticBoxBet{}, fmt.Errorf("unit stake must be positive, got %s", unit)
	}

	bet := models.ExoticBoxBet{
		BetType:       betType,
		Horses:        eligible(horses, probs, ""),
		CostPerUnit:   unit,
		TotalCost:     decimal.Zero,
		IsSpeculative: true,
	}
	k := betType.Positions()
	if len(bet.Horses) < k {
		bet.Reason = fmt.Sprintf("insufficient horses: %s requires %d, got %d",
			displayName(betType), k, len(bet.Horses))
		return bet, nil
	}

	bet.Combinations = BoxCombinations(betType, len(bet.Horses))
	bet.TotalCost = unit.Mul(decimal.NewFromInt(int64(bet.Combinations)))
	forEachPermutation(bet.Horses, k, func(order []string) {
		bet.EstimatedProbability += Harville(order, probs)
	})
	return bet, nil
}

// eligible keeps horses present in probs, in the given order, without duplicates or exclude
func eligible(horses []string, probs map[string]float64, exclude string) []string {
	out := make([]string, 0, len(horses))
	seen := make(map[string]struct{}, len(horses))
	for _, h := range horses {
		if h == exclude {
			continue
		}
		if _, ok := probs[h]; !ok {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

func isKey(b models.BetType) bool {
	return b == models.BetTypeExactaKey || b == models.BetTypeTrifectaKey || b == models.BetTypeSuperfectaKey
}

func isBox(b models.BetType) bool {
	return b == models.BetTypeExactaBox || b == models.BetTypeTrifectaBox || b == models.BetTypeSuperfectaBox
}

// displayName renders SUPERFECTA_KEY as "superfecta key"
func displayName(b models.BetType) string {
	return strings.ToLower(strings.ReplaceAll(string(b), "_", " "))
}
