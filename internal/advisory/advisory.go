// Package advisory exchanges scored fields with an external handicapping opinion service.
// Nothing in the scoring pipeline depends on it.
package advisory

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/clever-handicapper/internal/models"
)

var (
	// ErrUnavailable indicates the advisory service could not be reached
	ErrUnavailable = errors.New("advisory service unavailable")

	// ErrInvalidOpinion indicates the service returned an unusable opinion
	ErrInvalidOpinion = errors.New("invalid advisory opinion")
)

// HorseSummary is the per-horse context sent to an advisor
type HorseSummary struct {
	ProgramNumber    string  `json:"program_number"`
	Name             string  `json:"name"`
	BaseScore        float64 `json:"base_score"`
	Rank             int     `json:"rank"`
	Confidence       string  `json:"confidence"`
	ModelProbability float64 `json:"model_probability"`
	Odds             string  `json:"odds,omitempty"`
	Verdict          string  `json:"verdict"`
}

// Request is the race context sent to an advisor
type Request struct {
	RaceID           string         `json:"race_id"`
	Track            string         `json:"track"`
	RaceNumber       int            `json:"race_number"`
	Surface          string         `json:"surface"`
	DistanceFurlongs float64        `json:"distance_furlongs"`
	Classification   string         `json:"classification"`
	PaceScenario     string         `json:"pace_scenario"`
	Horses           []HorseSummary `json:"horses"`
}

// Pick is one horse the advisor likes, in finishing position order
type Pick struct {
	ProgramNumber string  `json:"program_number"`
	Position      int     `json:"position"`
	Confidence    float64 `json:"confidence"`
	Comment       string  `json:"comment,omitempty"`
}

// Opinion is an advisor's answer for one race
type Opinion struct {
	RaceID  string `json:"race_id"`
	Source  string `json:"source"`
	Picks   []Pick `json:"picks"`
	Summary string `json:"summary,omitempty"`
}

// Advisor proposes picks independently of the scoring pipeline
type Advisor interface {
	// Advise returns an opinion, or nil when the advisor has nothing to say
	Advise(ctx context.Context, req Request) (*Opinion, error)
	Name() string
}

// NewRequest builds the advisory context from active horses only
func NewRequest(field *models.ScoredField, probs *models.Probabilities) Request {
	req := Request{
		RaceID:           field.Header.RaceID,
		Track:            field.Header.Track,
		RaceNumber:       field.Header.RaceNumber,
		Surface:          string(field.Header.Surface),
		DistanceFurlongs: field.Header.DistanceFurlongs,
		Classification:   field.Header.Classification,
		PaceScenario:     string(field.PaceScenario),
	}

	for _, h := range field.Horses {
		if h.IsScratched {
			continue
		}
		summary := HorseSummary{
			ProgramNumber: h.ProgramNumber,
			Name:          h.Name,
			BaseScore:     h.BaseScore,
			Rank:          h.Rank,
			Confidence:    string(h.Confidence),
		}
		if probs != nil {
			if est, ok := probs.ByIndex(h.SourceIndex); ok {
				if est.Scratched {
					continue
				}
				summary.ModelProbability = est.ModelProbability
				summary.Odds = est.Odds
				summary.Verdict = string(est.Verdict)
			}
		}
		req.Horses = append(req.Horses, summary)
	}
	return req
}

// Validate checks that every pick names an active horse exactly once
func (o *Opinion) Validate(req Request) error {
	active := make(map[string]bool, len(req.Horses))
	for _, h := range req.Horses {
		active[h.ProgramNumber] = true
	}

	seen := make(map[string]bool, len(o.Picks))
	for _, p := range o.Picks {
		if !active[p.ProgramNumber] {
			return fmt.Errorf("%w: pick %q is not an active horse", ErrInvalidOpinion, p.ProgramNumber)
		}
		if seen[p.ProgramNumber] {
			return fmt.Errorf("%w: horse %q picked twice", ErrInvalidOpinion, p.ProgramNumber)
		}
		if p.Confidence < 0 || p.Confidence > 1 {
			return fmt.Errorf("%w: confidence %v for %q outside [0, 1]", ErrInvalidOpinion, p.Confidence, p.ProgramNumber)
		}
		seen[p.ProgramNumber] = true
	}
	return nil
}

// NoopAdvisor never has an opinion
type NoopAdvisor struct{}

// Advise returns nil
func (NoopAdvisor) Advise(context.Context, Request) (*Opinion, error) { return nil, nil }

// Name returns the advisor name
func (NoopAdvisor) Name() string { return "none" }
