package scoring

import (
	"github.com/yourusername/clever-handicapper/internal/models"
)

const (
	paceDefaultMax = 40.0
	styleFitMax    = 35.0
	tacticalMax    = 5.0
)

// styleFit rates each running style against each pace scenario: E, E/P, P, S
var styleFit = map[models.PaceScenario][4]float64{
	models.PaceSpeedDuel: {0.35, 0.55, 0.85, 1.0},
	models.PaceContested: {0.5, 0.7, 0.9, 0.85},
	models.PaceModerate:  {0.8, 0.9, 0.75, 0.55},
	models.PaceSoft:      {1.0, 0.9, 0.6, 0.35},
}

// PaceScorer scores how a horse's running style fits the projected pace
type PaceScorer struct {
	max float64
}

// NewPaceScorer creates a pace fit scorer
func NewPaceScorer(max float64) *PaceScorer {
	return &PaceScorer{max: max}
}

// Category returns the scored category
func (s *PaceScorer) Category() models.Category { return models.CategoryPace }

// Max returns the category budget
func (s *PaceScorer) Max() float64 { return s.max }

// Score scores style fit to the pace scenario and tactical versatility for the distance
func (s *PaceScorer) Score(h *models.HorseRecord, rc RaceContext) models.CategoryScore {
	b := newBuilder(models.CategoryPace, s.max, paceDefaultMax)
	style := h.RunningStyle

	if style == models.StyleUnknown {
		b.add("style_fit", neutralFraction, styleFitMax)
		b.add("tactical", neutralFraction, tacticalMax)
		b.flag(models.FlagNoRunningStyle)
		b.reason("Running style unknown: neutral")
		return b.build()
	}

	fit := styleFit[rc.Pace]
	fraction := styleFraction(style, fit[0], fit[1], fit[2], fit[3])
	if rc.Pace == "" {
		fraction = neutralFraction
	}
	if style == models.StyleEarly && rc.Styles.Early == 1 && (rc.Pace == models.PaceSoft || rc.Pace == models.PaceModerate) {
		fraction = 1.0
		b.reason("Lone speed in a %s pace", rc.Pace)
	} else {
		b.reason("%s style in a %s pace", style, rc.Pace)
	}
	b.add("style_fit", fraction, styleFitMax)

	if rc.Header.IsSprint() {
		b.add("tactical", styleFraction(style, 0.8, 1.0, 0.6, 0.3), tacticalMax)
	} else {
		b.add("tactical", styleFraction(style, 0.6, 1.0, 0.9, 0.6), tacticalMax)
	}

	return b.build()
}
