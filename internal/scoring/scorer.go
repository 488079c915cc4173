// Package scoring implements the category scorers and the aggregator that turns
// horse records into ranked, explainable base scores.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/yourusername/clever-handicapper/internal/heuristic"
	"github.com/yourusername/clever-handicapper/internal/models"
)

// CategoryScorer scores one handicapping dimension from a single horse record
// Implementations never read another category's output
type CategoryScorer interface {
	Category() models.Category
	Max() float64
	Score(h *models.HorseRecord, rc RaceContext) models.CategoryScore
}

// RaceContext is the race-level input shared by all scorers
type RaceContext struct {
	Header          models.RaceHeader
	Pace            models.PaceScenario
	Styles          heuristic.StyleCounts
	ActiveFieldSize int
}

// FieldSize returns the active field size, falling back to the header
func (rc RaceContext) FieldSize() int {
	if rc.ActiveFieldSize > 0 {
		return rc.ActiveFieldSize
	}
	return rc.Header.FieldSize
}

// scoreBuilder accumulates sub-scores expressed as fractions of their budget
type scoreBuilder struct {
	cs      models.CategoryScore
	scale   float64
	reasons []string
}

// newBuilder scales default sub-score budgets so they sum to the configured category max
func newBuilder(category models.Category, max, defaultMax float64) *scoreBuilder {
	scale := 1.0
	if defaultMax > 0 {
		scale = max / defaultMax
	}
	return &scoreBuilder{
		cs:    models.CategoryScore{Category: category, Max: max},
		scale: scale,
	}
}

// add records a sub-score worth fraction of its default budget, clamped to [0, budget]
func (b *scoreBuilder) add(name string, fraction, defaultSubMax float64) {
	subMax := round2(defaultSubMax * b.scale)
	value := round2(clampUnit(fraction) * subMax)
	value = math.Min(math.Max(value, 0), subMax)
	b.cs.SubScores = append(b.cs.SubScores, models.SubScore{Name: name, Value: value, Max: subMax})
}

func (b *scoreBuilder) flag(f models.DataFlag) {
	b.cs.Flags = append(b.cs.Flags, f)
}

func (b *scoreBuilder) reason(format string, args ...interface{}) {
	b.reasons = append(b.reasons, fmt.Sprintf(format, args...))
}

func (b *scoreBuilder) build() models.CategoryScore {
	total := 0.0
	for _, s := range b.cs.SubScores {
		total += s.Value
	}
	b.cs.Score = math.Min(math.Max(round2(total), 0), b.cs.Max)
	b.cs.Reasoning = strings.Join(b.reasons, "; ")
	return b.cs
}

// clampUnit clamps to [0, 1], mapping NaN to the neutral midpoint
func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0.5
	}
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// shrunkRate pulls a small-sample win rate toward a prior
func shrunkRate(wins, starts int, prior, weight float64) float64 {
	return (float64(wins) + prior*weight) / (float64(starts) + weight)
}
