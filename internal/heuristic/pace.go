// Package heuristic implements the bounded adjusters layered onto category scores:
// trip trouble keyword detection, fractional velocity analysis and pace scenario projection.
package heuristic

import (
	"github.com/yourusername/clever-handicapper/internal/models"
)

// StyleCounts tallies running styles across the active field
type StyleCounts struct {
	Early        int
	EarlyPresser int
	Presser      int
	Sustained    int
	Unknown      int
}

// CountStyles tallies running styles of the given horses
func CountStyles(horses []*models.HorseRecord) StyleCounts {
	var c StyleCounts
	for _, h := range horses {
		switch h.RunningStyle {
		case models.StyleEarly:
			c.Early++
		case models.StyleEarlyPresser:
			c.EarlyPresser++
		case models.StylePresser:
			c.Presser++
		case models.StyleSustained:
			c.Sustained++
		default:
			c.Unknown++
		}
	}
	return c
}

// ProjectPace derives the expected early pace from the active field's running styles
func ProjectPace(horses []*models.HorseRecord) models.PaceScenario {
	return ScenarioFor(CountStyles(horses))
}

// ScenarioFor maps style counts to a pace scenario
func ScenarioFor(c StyleCounts) models.PaceScenario {
	switch {
	case c.Early >= 3:
		return models.PaceSpeedDuel
	case c.Early == 2 || (c.Early == 1 && c.EarlyPresser >= 2):
		return models.PaceContested
	case c.Early+c.EarlyPresser >= 1:
		return models.PaceModerate
	default:
		return models.PaceSoft
	}
}
