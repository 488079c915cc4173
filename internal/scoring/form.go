package scoring

import (
	"strconv"
	"strings"

	"github.com/yourusername/clever-handicapper/internal/models"
)

const (
	formDefaultMax   = 50.0
	recentFormMax    = 35.0
	layoffMax        = 15.0
	neutralFraction  = 0.5
	closeFinishBonus = 0.1
)

// recencyWeights weights the most recent race heaviest
var recencyWeights = []float64{0.5, 0.3, 0.2, 0.1, 0.1, 0.05, 0.05, 0.05, 0.05, 0.05}

// FormScorer scores recent finishes and days since the last race
type FormScorer struct {
	max      float64
	lookback int
}

// NewFormScorer creates a form scorer
func NewFormScorer(max float64, lookback int) *FormScorer {
	if lookback <= 0 {
		lookback = 3
	}
	return &FormScorer{max: max, lookback: lookback}
}

// Category returns the scored category
func (s *FormScorer) Category() models.Category { return models.CategoryForm }

// Max returns the category budget
func (s *FormScorer) Max() float64 { return s.max }

// Score scores recent form and layoff
func (s *FormScorer) Score(h *models.HorseRecord, _ RaceContext) models.CategoryScore {
	b := newBuilder(models.CategoryForm, s.max, formDefaultMax)

	if h.IsFirstTimeStarter() {
		b.add("recent_form", neutralFraction, recentFormMax)
		b.flag(models.FlagNoPastPerformances)
		b.reason("First-time starter: neutral form")
	} else {
		recent := h.Recent(s.lookback)
		weighted, weights := 0.0, 0.0
		finishes := make([]string, 0, len(recent))
		for i, pp := range recent {
			w := recencyWeights[min(i, len(recencyWeights)-1)]
			weighted += w * finishFraction(pp)
			weights += w
			finishes = append(finishes, strconv.Itoa(pp.FinishPosition))
		}
		fraction := weighted / weights
		b.add("recent_form", fraction, recentFormMax)
		b.reason("Recent finishes %s: form %.2f", strings.Join(finishes, "-"), fraction)
	}

	switch {
	case h.LayoffDays != nil:
		days := *h.LayoffDays
		fraction := layoffFraction(days)
		b.add("layoff", fraction, layoffMax)
		b.reason("%d days since last race", days)
	case h.IsFirstTimeStarter():
		b.add("layoff", neutralFraction, layoffMax)
	default:
		b.add("layoff", neutralFraction, layoffMax)
		b.flag(models.FlagNoLayoff)
		b.reason("Layoff unknown: neutral")
	}

	return b.build()
}

// finishFraction maps a finish to [0, 1]; a narrow loss earns a little back
func finishFraction(pp models.PastPerformance) float64 {
	var f float64
	switch pos := pp.FinishPosition; {
	case pos <= 1:
		return 1
	case pos == 2:
		f = 0.8
	case pos == 3:
		f = 0.65
	case pos == 4:
		f = 0.45
	case pos == 5:
		f = 0.3
	default:
		f = 0.3 - 0.05*float64(pos-5)
	}
	if pp.LengthsBehind > 0 && pp.LengthsBehind <= 2 {
		f += closeFinishBonus
	}
	return clampUnit(f)
}

// layoffFraction favours a normal freshening over a quick turnback or a long absence
func layoffFraction(days int) float64 {
	switch {
	case days <= 14:
		return 0.7
	case days <= 45:
		return 1.0
	case days <= 90:
		return 0.75
	case days <= 180:
		return 0.45
	default:
		return 0.25
	}
}
