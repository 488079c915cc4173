package odds

import (
	"fmt"
	"math"

	"github.com/yourusername/clever-handicapper/internal/models"
)

// Overround returns the sum of raw implied probabilities (the book percentage as a fraction)
func Overround(raw []float64) float64 {
	total := 0.0
	for _, p := range raw {
		total += p
	}
	return total
}

// DeVig removes the takeout proportionally: each raw implied probability over their sum
func DeVig(raw []float64) ([]float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no prices to de-vig", models.ErrInvalidOdds)
	}
	for i, p := range raw {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: implied probability %d is %v", models.ErrInvalidOdds, i, p)
		}
	}

	total := Overround(raw)
	if total <= 0 {
		return nil, fmt.Errorf("%w: implied probabilities sum to zero", models.ErrNumericDegenerate)
	}

	fair := make([]float64, len(raw))
	for i, p := range raw {
		fair[i] = p / total
	}
	return fair, nil
}
