package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/heuristic"
	"github.com/yourusername/clever-handicapper/internal/models"
)

// ScratchChecker reports live scratches by source index
type ScratchChecker interface {
	IsScratched(index int) bool
}

// Aggregator runs every category scorer and heuristic adjuster over a field
// and produces the ranked ScoredField. It holds no mutable state.
type Aggregator struct {
	profile  config.Profile
	scorers  []CategoryScorer
	trip     *heuristic.TripTroubleDetector
	velocity *heuristic.VelocityAnalyzer
}

// NewAggregator builds the scorers and adjusters for a profile
func NewAggregator(profile config.Profile) (*Aggregator, error) {
	trip, err := heuristic.NewTripTroubleDetector(profile.TripTrouble)
	if err != nil {
		return nil, fmt.Errorf("failed to build trip trouble detector: %w", err)
	}

	maxima := profile.Scoring.CategoryMax
	lookback := profile.Scoring.FormLookback
	return &Aggregator{
		profile: profile,
		scorers: []CategoryScorer{
			NewFormScorer(maxima.Form, lookback),
			NewSpeedClassScorer(maxima.SpeedClass, lookback),
			NewPostScorer(maxima.Post),
			NewEquipmentScorer(maxima.Equipment),
			NewConnectionsScorer(maxima.Connections),
			NewPaceScorer(maxima.Pace),
		},
		trip:     trip,
		velocity: heuristic.NewVelocityAnalyzer(profile.Velocity),
	}, nil
}

// Scorers returns the category scorers in breakdown order
func (a *Aggregator) Scorers() []CategoryScorer {
	return append([]CategoryScorer(nil), a.scorers...)
}

type candidate struct {
	index     int
	horse     *models.HorseRecord
	scratched bool
}

// Score validates, scores and ranks every horse in the snapshot
// Invalid records are excluded with a warning; ErrEmptyField is returned only when none remain
func (a *Aggregator) Score(snapshot *models.RaceSnapshot, scratches ScratchChecker) (*models.ScoredField, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", models.ErrEmptyField)
	}
	if err := models.ValidateHeader(&snapshot.Header); err != nil {
		return nil, err
	}

	field := &models.ScoredField{
		Header:       snapshot.Header,
		MaxBaseScore: a.profile.Scoring.MaxBaseScore,
	}

	var candidates []candidate
	var active []*models.HorseRecord
	programs := make(map[string]int, len(snapshot.Horses))
	for i := range snapshot.Horses {
		h := &snapshot.Horses[i]
		if err := models.ValidateHorse(i, h); err != nil {
			field.Warnings = append(field.Warnings, warningFor(i, h, err))
			continue
		}
		// the first record to claim a program number keeps it
		program := strings.ToUpper(strings.TrimSpace(h.ProgramNumber))
		if prev, dup := programs[program]; dup {
			err := &models.InvalidRecordError{
				Index:         i,
				ProgramNumber: h.ProgramNumber,
				Problems:      []string{fmt.Sprintf("duplicate program number (already used by entry %d)", prev)},
			}
			field.Warnings = append(field.Warnings, warningFor(i, h, err))
			continue
		}
		programs[program] = i
		scratched := h.Scratched || (scratches != nil && scratches.IsScratched(i))
		candidates = append(candidates, candidate{index: i, horse: h, scratched: scratched})
		if !scratched {
			active = append(active, h)
		}
	}
	if len(candidates) == 0 {
		return field, models.ErrEmptyField
	}

	styles := heuristic.CountStyles(active)
	field.PaceScenario = heuristic.ScenarioFor(styles)
	rc := RaceContext{
		Header:          snapshot.Header,
		Pace:            field.PaceScenario,
		Styles:          styles,
		ActiveFieldSize: len(active),
	}

	field.Horses = make([]models.ScoredHorse, 0, len(candidates))
	for _, c := range candidates {
		field.Horses = append(field.Horses, a.scoreHorse(c, rc))
	}

	a.rank(field.Horses)
	return field, nil
}

// ScoreHorse scores one horse against a race context without ranking it
func (a *Aggregator) ScoreHorse(index int, h *models.HorseRecord, rc RaceContext) (models.ScoredHorse, error) {
	if err := models.ValidateHorse(index, h); err != nil {
		return models.ScoredHorse{}, err
	}
	return a.scoreHorse(candidate{index: index, horse: h, scratched: h.Scratched}, rc), nil
}

func (a *Aggregator) scoreHorse(c candidate, rc RaceContext) models.ScoredHorse {
	h := c.horse
	sh := models.ScoredHorse{
		SourceIndex:   c.index,
		Horse:         h,
		ProgramNumber: h.ProgramNumber,
		Name:          h.Name,
		IsScratched:   c.scratched,
		Breakdown:     make([]models.CategoryScore, 0, len(a.scorers)),
	}

	flags := make(map[models.DataFlag]struct{})
	for _, scorer := range a.scorers {
		cs := scorer.Score(h, rc)
		sh.Breakdown = append(sh.Breakdown, cs)
		sh.CategoryTotal += cs.Score
		for _, f := range cs.Flags {
			flags[f] = struct{}{}
		}
	}
	sh.CategoryTotal = round2(sh.CategoryTotal)

	sh.Adjustments.TripTrouble = a.trip.Detect(h.PastPerformances)
	sh.Adjustments.Velocity = a.velocity.Analyze(h.PastPerformances, rc.Pace)
	if !h.IsFirstTimeStarter() {
		if sh.Adjustments.TripTrouble.CommentedRaces == 0 {
			flags[models.FlagNoTripComments] = struct{}{}
		}
		if !hasFractions(h.Recent(a.profile.Velocity.Lookback)) {
			flags[models.FlagNoFractions] = struct{}{}
		}
	}

	base := sh.CategoryTotal + sh.Adjustments.Total()
	sh.BaseScore = round2(math.Max(0, math.Min(base, a.profile.Scoring.MaxBaseScore)))

	sh.DataFlags = sortedFlags(flags)
	sh.DataQuality = a.dataQuality(sh.DataFlags)
	return sh
}

func hasFractions(pps []models.PastPerformance) bool {
	for _, pp := range pps {
		if len(pp.Fractions) > 0 {
			return true
		}
	}
	return false
}

func sortedFlags(set map[models.DataFlag]struct{}) []models.DataFlag {
	if len(set) == 0 {
		return nil
	}
	out := make([]models.DataFlag, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// dataQuality is 100 minus the configured penalty for each flag, floored at zero
func (a *Aggregator) dataQuality(flags []models.DataFlag) int {
	q := 100
	for _, f := range flags {
		q -= a.profile.Scoring.DataQualityPenalties[string(f)]
	}
	if q < 0 {
		return 0
	}
	return q
}

// rank orders active horses by the total tie-break, scratched horses after them,
// then fills in rank, score gap and confidence
func (a *Aggregator) rank(horses []models.ScoredHorse) {
	sort.SliceStable(horses, func(i, j int) bool {
		if horses[i].IsScratched != horses[j].IsScratched {
			return !horses[i].IsScratched
		}
		return rankLess(&horses[i], &horses[j])
	})

	for i := range horses {
		horses[i].Rank = i + 1
		if !horses[i].IsScratched && i+1 < len(horses) && !horses[i+1].IsScratched {
			horses[i].ScoreGap = round2(horses[i].BaseScore - horses[i+1].BaseScore)
		}
		horses[i].Confidence = a.confidence(horses[i].DataQuality, horses[i].ScoreGap)
	}
}

// rankLess: base score desc, most recent finish asc, program number asc, suffix asc, source index asc
func rankLess(x, y *models.ScoredHorse) bool {
	if x.BaseScore != y.BaseScore {
		return x.BaseScore > y.BaseScore
	}
	if fx, fy := x.Horse.LastFinish(), y.Horse.LastFinish(); fx != fy {
		return fx < fy
	}
	nx, sx := models.ProgramSortKey(x.ProgramNumber)
	ny, sy := models.ProgramSortKey(y.ProgramNumber)
	if nx != ny {
		return nx < ny
	}
	if sx != sy {
		return sx < sy
	}
	return x.SourceIndex < y.SourceIndex
}

// confidence combines data completeness with the lead over the next horse
func (a *Aggregator) confidence(dataQuality int, gap float64) models.ConfidenceLevel {
	c := a.profile.Scoring.Confidence
	switch {
	case dataQuality >= c.HighDataQuality && gap >= c.HighGap:
		return models.ConfidenceHigh
	case dataQuality < c.LowDataQuality:
		return models.ConfidenceLow
	case dataQuality >= c.HighDataQuality || gap >= c.MediumGap:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func warningFor(index int, h *models.HorseRecord, err error) models.FieldWarning {
	w := models.FieldWarning{SourceIndex: index, Message: err.Error()}
	var invalid *models.InvalidRecordError
	if errors.As(err, &invalid) {
		w.ProgramNumber = invalid.ProgramNumber
	} else if h != nil {
		w.ProgramNumber = h.ProgramNumber
	}
	return w
}
