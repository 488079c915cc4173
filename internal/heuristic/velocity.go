package heuristic

import (
	"fmt"
	"math"
	"sort"

	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/models"
)

// VelocityAnalyzer compares early and late fractional rates to classify a horse's late kick
type VelocityAnalyzer struct {
	cfg config.VelocityConfig
}

// NewVelocityAnalyzer creates an analyzer
func NewVelocityAnalyzer(cfg config.VelocityConfig) *VelocityAnalyzer {
	return &VelocityAnalyzer{cfg: cfg}
}

// Segment is a stretch of a race with its elapsed time
type Segment struct {
	FromFurlongs float64
	ToFurlongs   float64
	Seconds      float64
}

// Length returns the segment length in furlongs
func (s Segment) Length() float64 {
	return s.ToFurlongs - s.FromFurlongs
}

// Rate returns seconds per furlong
func (s Segment) Rate() float64 {
	return s.Seconds / s.Length()
}

// RaceDifferential returns early rate minus late rate (s/f) for one past race
// Positive means the horse ran its late segment faster than its early one
// Races that cannot produce a stable, realistic rate return ErrNumericDegenerate
func (a *VelocityAnalyzer) RaceDifferential(pp models.PastPerformance) (float64, error) {
	early, late, err := a.Segments(pp)
	if err != nil {
		return 0, err
	}

	earlyRate, lateRate := early.Rate(), late.Rate()
	for _, r := range []float64{earlyRate, lateRate} {
		if math.IsNaN(r) || math.IsInf(r, 0) || r < a.cfg.MinRate || r > a.cfg.MaxRate {
			return 0, fmt.Errorf("%w: rate %.2f s/f outside [%.1f, %.1f]", models.ErrNumericDegenerate, r, a.cfg.MinRate, a.cfg.MaxRate)
		}
	}

	diff := earlyRate - lateRate
	if math.IsNaN(diff) || math.IsInf(diff, 0) {
		return 0, fmt.Errorf("%w: non-finite differential", models.ErrNumericDegenerate)
	}
	return diff, nil
}

// Segments picks the early segment (start to first call) and the late segment (last usable call to finish)
func (a *VelocityAnalyzer) Segments(pp models.PastPerformance) (Segment, Segment, error) {
	distance := pp.DistanceFurlongs
	if distance <= 0 || pp.FinalTime <= 0 {
		return Segment{}, Segment{}, fmt.Errorf("%w: missing distance or final time", models.ErrNumericDegenerate)
	}

	calls := make([]models.Fraction, 0, len(pp.Fractions))
	for _, f := range pp.Fractions {
		if f.AtFurlongs > 0 && f.AtFurlongs < distance && f.Seconds > 0 && f.Seconds < pp.FinalTime {
			calls = append(calls, f)
		}
	}
	if len(calls) == 0 {
		return Segment{}, Segment{}, fmt.Errorf("%w: no fractional calls before the finish", models.ErrNumericDegenerate)
	}
	sort.SliceStable(calls, func(i, j int) bool { return calls[i].AtFurlongs < calls[j].AtFurlongs })

	first := calls[0]
	early := Segment{FromFurlongs: 0, ToFurlongs: first.AtFurlongs, Seconds: first.Seconds}
	if early.Length() < a.cfg.MinSegmentFurlongs {
		return Segment{}, Segment{}, fmt.Errorf("%w: early segment %.2ff too short", models.ErrNumericDegenerate, early.Length())
	}

	// Walk back from the last call until the segment to the finish is long enough
	for i := len(calls) - 1; i >= 0; i-- {
		if i < len(calls)-2 {
			break
		}
		late := Segment{FromFurlongs: calls[i].AtFurlongs, ToFurlongs: distance, Seconds: pp.FinalTime - calls[i].Seconds}
		if late.Length() < a.cfg.MinSegmentFurlongs {
			continue
		}
		if late.FromFurlongs < early.ToFurlongs {
			break
		}
		return early, late, nil
	}

	return Segment{}, Segment{}, fmt.Errorf("%w: no late segment of at least %.2ff", models.ErrNumericDegenerate, a.cfg.MinSegmentFurlongs)
}

// Analyze aggregates recent races into a velocity profile and a pace-modulated adjustment
func (a *VelocityAnalyzer) Analyze(pps []models.PastPerformance, scenario models.PaceScenario) models.VelocityAdjustment {
	recent := pps
	if len(recent) > a.cfg.Lookback {
		recent = recent[:a.cfg.Lookback]
	}

	adj := models.VelocityAdjustment{Profile: models.VelocityUnknown}
	sum := 0.0
	for _, pp := range recent {
		if len(pp.Fractions) == 0 {
			continue
		}
		diff, err := a.RaceDifferential(pp)
		if err != nil {
			adj.SkippedRaces++
			continue
		}
		sum += diff
		adj.UsableRaces++
	}

	if adj.UsableRaces > 0 {
		mean := sum / float64(adj.UsableRaces)
		adj.MeanDifferential = &mean
	}
	if adj.UsableRaces < a.cfg.MinRaces {
		adj.Reason = fmt.Sprintf("Insufficient fractional data: %d usable race(s), need %d", adj.UsableRaces, a.cfg.MinRaces)
		return adj
	}

	mean := *adj.MeanDifferential
	base := 0.0
	switch {
	case mean >= a.cfg.StrongCloserThreshold:
		adj.Profile = models.VelocityStrongCloser
		base = a.cfg.StrongCloserPoints
	case mean >= a.cfg.ModerateCloserThreshold:
		adj.Profile = models.VelocityModerateCloser
		base = a.cfg.ModerateCloserPoints
	case mean >= a.cfg.SteadyPaceThreshold:
		adj.Profile = models.VelocitySteadyPace
	default:
		adj.Profile = models.VelocityFader
		base = a.cfg.FaderPoints
	}

	modifier := 1.0
	switch {
	case base > 0:
		modifier = a.cfg.PaceModifier(scenario)
	case base < 0 && scenario == models.PaceSoft:
		modifier = a.cfg.SoftPaceFaderModifier
	}
	adj.Points = clamp(base*modifier, -a.cfg.MaxAdjustment, a.cfg.MaxAdjustment)

	adj.Reason = fmt.Sprintf("%s (avg differential %+.2f s/f over %d races), %s pace x%.2f: %+.1f pts",
		adj.Profile, mean, adj.UsableRaces, scenario, modifier, adj.Points)
	return adj
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
