package scoring

import (
	"math"

	"github.com/yourusername/clever-handicapper/internal/models"
)

const (
	postDefaultMax = 30.0
	postMax        = 20.0
	trackBiasMax   = 10.0
)

// PostScorer scores post position by distance and fit to a reported track bias
type PostScorer struct {
	max float64
}

// NewPostScorer creates a post position scorer
func NewPostScorer(max float64) *PostScorer {
	return &PostScorer{max: max}
}

// Category returns the scored category
func (s *PostScorer) Category() models.Category { return models.CategoryPost }

// Max returns the category budget
func (s *PostScorer) Max() float64 { return s.max }

// Score scores the draw and track bias fit
func (s *PostScorer) Score(h *models.HorseRecord, rc RaceContext) models.CategoryScore {
	b := newBuilder(models.CategoryPost, s.max, postDefaultMax)
	post := h.PostPosition

	if post <= 0 {
		b.add("post_position", neutralFraction, postMax)
		b.flag(models.FlagNoPost)
		b.reason("Post unknown: neutral")
	} else if rc.Header.IsSprint() {
		b.add("post_position", sprintPostFraction(post), postMax)
		b.reason("Post %d in a sprint", post)
	} else {
		b.add("post_position", routePostFraction(post), postMax)
		b.reason("Post %d in a route", post)
	}

	bias := rc.Header.TrackBias
	fraction := biasFraction(bias, post, rc.FieldSize(), h.RunningStyle)
	b.add("track_bias", fraction, trackBiasMax)
	if bias != "" && bias != models.TrackBiasNone {
		b.reason("%s bias fit %.2f", bias, fraction)
	}

	return b.build()
}

func sprintPostFraction(post int) float64 {
	switch {
	case post == 1:
		return 0.8
	case post <= 5:
		return 1.0
	case post <= 8:
		return 0.7
	default:
		return math.Max(0.2, 0.7-0.08*float64(post-8))
	}
}

func routePostFraction(post int) float64 {
	switch {
	case post <= 4:
		return 1.0
	case post <= 7:
		return 0.75
	default:
		return math.Max(0.15, 0.6-0.08*float64(post-8))
	}
}

// biasFraction rates fit to the day's bias; no bias is neutral
func biasFraction(bias models.TrackBias, post, fieldSize int, style models.RunningStyle) float64 {
	switch bias {
	case models.TrackBiasInside:
		switch {
		case post <= 0:
			return neutralFraction
		case post <= 3:
			return 1.0
		case post <= 6:
			return 0.6
		default:
			return 0.2
		}
	case models.TrackBiasOutside:
		switch {
		case post <= 0 || fieldSize <= 0:
			return neutralFraction
		case post >= fieldSize-2:
			return 1.0
		case post >= fieldSize/2:
			return 0.6
		default:
			return 0.2
		}
	case models.TrackBiasSpeed:
		return styleFraction(style, 1.0, 0.8, 0.4, 0.1)
	case models.TrackBiasCloser:
		return styleFraction(style, 0.1, 0.4, 0.8, 1.0)
	default:
		return neutralFraction
	}
}

func styleFraction(style models.RunningStyle, early, earlyPresser, presser, sustained float64) float64 {
	switch style {
	case models.StyleEarly:
		return early
	case models.StyleEarlyPresser:
		return earlyPresser
	case models.StylePresser:
		return presser
	case models.StyleSustained:
		return sustained
	default:
		return neutralFraction
	}
}
