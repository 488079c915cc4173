// Package overlay converts base scores into win probabilities and compares them with
// de-vigged market prices to flag overlays and underlays.
package overlay

import (
	"fmt"
	"math"

	"github.com/yourusername/clever-handicapper/internal/config"
)

// Transform maps a field of scores to a probability distribution summing to 1
type Transform func(scores []float64) []float64

// NewTransform returns the transform named by the overlay configuration
func NewTransform(cfg config.OverlayConfig) (Transform, error) {
	switch cfg.Transform {
	case config.TransformSoftmax, "":
		t := cfg.Temperature
		return func(scores []float64) []float64 { return Softmax(scores, t) }, nil
	case config.TransformPower:
		k := cfg.PowerExponent
		return func(scores []float64) []float64 { return Power(scores, k) }, nil
	default:
		return nil, fmt.Errorf("unknown probability transform %q", cfg.Transform)
	}
}

// Softmax returns exp(s/T) normalised, shifted by the maximum score for stability
func Softmax(scores []float64, temperature float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	if temperature <= 0 {
		temperature = 1
	}

	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, s)
	}

	out := make([]float64, len(scores))
	sum := 0.0
	for i, s := range scores {
		out[i] = math.Exp((s - maxScore) / temperature)
		sum += out[i]
	}
	return normalise(out, sum)
}

// Power returns s^k normalised; negative scores count as zero
func Power(scores []float64, exponent float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	if exponent <= 0 {
		exponent = 1
	}

	out := make([]float64, len(scores))
	sum := 0.0
	for i, s := range scores {
		out[i] = math.Pow(math.Max(s, 0), exponent)
		sum += out[i]
	}
	return normalise(out, sum)
}

// normalise divides by sum, falling back to a uniform distribution when sum is degenerate
func normalise(weights []float64, sum float64) []float64 {
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		u := 1 / float64(len(weights))
		for i := range weights {
			weights[i] = u
		}
		return weights
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}
