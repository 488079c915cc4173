package scoring

import (
	"math"

	"github.com/yourusername/clever-handicapper/internal/models"
)

const (
	speedClassDefaultMax = 50.0
	speedFigureMax       = 30.0
	classMoveMax         = 20.0

	// Speed figures are mapped linearly from this floor to this ceiling
	figureFloor   = 40.0
	figureCeiling = 110.0
	// classStep is the fraction gained per class level dropped
	classStep = 0.1
)

// SpeedClassScorer scores speed figures and the class move into today's race
type SpeedClassScorer struct {
	max      float64
	lookback int
}

// NewSpeedClassScorer creates a speed/class scorer
func NewSpeedClassScorer(max float64, lookback int) *SpeedClassScorer {
	if lookback <= 0 {
		lookback = 3
	}
	return &SpeedClassScorer{max: max, lookback: lookback}
}

// Category returns the scored category
func (s *SpeedClassScorer) Category() models.Category { return models.CategorySpeedClass }

// Max returns the category budget
func (s *SpeedClassScorer) Max() float64 { return s.max }

// Score scores speed figures (best blended with average) and class movement
func (s *SpeedClassScorer) Score(h *models.HorseRecord, rc RaceContext) models.CategoryScore {
	b := newBuilder(models.CategorySpeedClass, s.max, speedClassDefaultMax)
	recent := h.Recent(s.lookback)

	best, sum, n := 0, 0, 0
	for _, pp := range recent {
		if pp.SpeedFigure == nil {
			continue
		}
		fig := *pp.SpeedFigure
		if n == 0 || fig > best {
			best = fig
		}
		sum += fig
		n++
	}
	if n == 0 {
		b.add("speed_figure", neutralFraction, speedFigureMax)
		b.flag(models.FlagNoSpeedFigures)
		b.reason("No speed figures: neutral")
	} else {
		avg := float64(sum) / float64(n)
		blended := 0.6*float64(best) + 0.4*avg
		b.add("speed_figure", (blended-figureFloor)/(figureCeiling-figureFloor), speedFigureMax)
		b.reason("Best figure %d, average %.1f", best, avg)
	}

	today := rc.Header.ClassLevel()
	classSum, classN := 0, 0
	for _, pp := range recent {
		if pp.ClassLevel > 0 {
			classSum += pp.ClassLevel
			classN++
		}
	}
	if today == 0 || classN == 0 {
		b.add("class_move", neutralFraction, classMoveMax)
		b.flag(models.FlagNoClass)
		b.reason("Class move unknown: neutral")
	} else {
		previous := float64(classSum) / float64(classN)
		drop := previous - float64(today)
		b.add("class_move", neutralFraction+drop*classStep, classMoveMax)
		switch {
		case math.Abs(drop) < 0.5:
			b.reason("Same class level")
		case drop > 0:
			b.reason("Dropping %.1f class levels", drop)
		default:
			b.reason("Rising %.1f class levels", -drop)
		}
	}

	return b.build()
}
