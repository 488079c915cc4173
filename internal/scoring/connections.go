package scoring

import (
	"github.com/yourusername/clever-handicapper/internal/models"
)

const (
	connectionsDefaultMax = 40.0
	trainerMax            = 20.0
	jockeyMax             = 15.0
	comboMax              = 5.0

	// Win rates are shrunk toward a typical rate and scored against a top rate
	priorWinRate    = 0.12
	topWinRate      = 0.30
	connectionPrior = 20.0
	comboPrior      = 10.0
	categoryBlend   = 0.3
	categoryStarts  = 5
)

// ConnectionsScorer scores trainer, jockey and their combination
type ConnectionsScorer struct {
	max float64
}

// NewConnectionsScorer creates a connections scorer
func NewConnectionsScorer(max float64) *ConnectionsScorer {
	return &ConnectionsScorer{max: max}
}

// Category returns the scored category
func (s *ConnectionsScorer) Category() models.Category { return models.CategoryConnections }

// Max returns the category budget
func (s *ConnectionsScorer) Max() float64 { return s.max }

// Score scores connection win rates, blending in the trainer's situational record
func (s *ConnectionsScorer) Score(h *models.HorseRecord, rc RaceContext) models.CategoryScore {
	b := newBuilder(models.CategoryConnections, s.max, connectionsDefaultMax)

	if h.Trainer.Starts <= 0 {
		b.add("trainer", neutralFraction, trainerMax)
		b.flag(models.FlagNoTrainerStats)
		b.reason("Trainer stats unknown: neutral")
	} else {
		rate := shrunkRate(h.Trainer.Wins, h.Trainer.Starts, priorWinRate, connectionPrior)
		if stat, ok := bestSituationalStat(h, rc); ok {
			catRate := shrunkRate(stat.Wins, stat.Starts, priorWinRate, connectionPrior)
			rate = (1-categoryBlend)*rate + categoryBlend*catRate
			b.reason("Trainer %d/%d, %s %d/%d", h.Trainer.Wins, h.Trainer.Starts, stat.Category, stat.Wins, stat.Starts)
		} else {
			b.reason("Trainer %d/%d", h.Trainer.Wins, h.Trainer.Starts)
		}
		b.add("trainer", rate/topWinRate, trainerMax)
	}

	if h.Jockey.Starts <= 0 {
		b.add("jockey", neutralFraction, jockeyMax)
		b.flag(models.FlagNoJockeyStats)
		b.reason("Jockey stats unknown: neutral")
	} else {
		rate := shrunkRate(h.Jockey.Wins, h.Jockey.Starts, priorWinRate, connectionPrior)
		b.add("jockey", rate/topWinRate, jockeyMax)
		b.reason("Jockey %d/%d", h.Jockey.Wins, h.Jockey.Starts)
	}

	if h.Combo == nil || h.Combo.Starts <= 0 {
		b.add("combo", neutralFraction, comboMax)
	} else {
		rate := shrunkRate(h.Combo.Wins, h.Combo.Starts, priorWinRate, comboPrior)
		b.add("combo", rate/topWinRate, comboMax)
		b.reason("Combo %d/%d", h.Combo.Wins, h.Combo.Starts)
	}

	return b.build()
}

// situationalCategories lists the trainer categories that apply to today's start
func situationalCategories(h *models.HorseRecord, rc RaceContext) []string {
	var cats []string
	if h.IsFirstTimeStarter() {
		cats = append(cats, "first_time_starter")
	}
	if h.Medication.FirstTimeLasix {
		cats = append(cats, "first_lasix")
	}
	if h.Equipment.BlinkersOn {
		cats = append(cats, "blinkers_on")
	}
	if h.LayoffDays != nil && *h.LayoffDays > 90 {
		cats = append(cats, "layoff")
	}
	if rc.Header.Surface != "" {
		cats = append(cats, string(rc.Header.Surface))
	}
	if rc.Header.IsSprint() {
		cats = append(cats, "sprint")
	} else {
		cats = append(cats, "route")
	}
	return cats
}

// bestSituationalStat picks the applicable category stat with the highest win rate
// Ties keep the first applicable category so the choice is deterministic
func bestSituationalStat(h *models.HorseRecord, rc RaceContext) (models.CategoryStat, bool) {
	var best models.CategoryStat
	found := false
	for _, cat := range situationalCategories(h, rc) {
		for _, stat := range h.Trainer.CategoryStats {
			if stat.Category != cat || stat.Starts < categoryStarts {
				continue
			}
			if !found || stat.WinRate() > best.WinRate() {
				best = stat
				found = true
			}
		}
	}
	return best, found
}
