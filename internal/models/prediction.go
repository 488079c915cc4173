package models

// Verdict classifies the gap between model and market probability
type Verdict string

const (
	VerdictOverlay  Verdict = "overlay"
	VerdictFair     Verdict = "fair"
	VerdictUnderlay Verdict = "underlay"
	VerdictNoOdds   Verdict = "no_odds"
)

// ProbabilityEstimate represents model and market win probability for one horse
type ProbabilityEstimate struct {
	SourceIndex        int     `json:"source_index"`
	ProgramNumber      string  `json:"program_number"`
	Name               string  `json:"name"`
	ModelProbability   float64 `json:"model_probability" validate:"gte=0,lte=1"`
	ImpliedProbability float64 `json:"implied_probability" validate:"gte=0,lte=1"`
	Edge               float64 `json:"edge"`
	Odds               string  `json:"odds"`
	DecimalOdds        float64 `json:"decimal_odds"`
	HasOdds            bool    `json:"has_odds"`
	// FairOdds is the decimal price implied by the model probability, 0 when it is 0
	FairOdds   float64 `json:"fair_odds"`
	ValueRatio float64 `json:"value_ratio"`
	Verdict    Verdict `json:"verdict"`
	Scratched  bool    `json:"scratched"`
}

// IsOverlay checks if the market undervalues the horse
func (p *ProbabilityEstimate) IsOverlay() bool {
	return p.Verdict == VerdictOverlay
}

// Probabilities is the output of the probability stage for one race
type Probabilities struct {
	RaceID      string                `json:"race_id"`
	Estimates   []ProbabilityEstimate `json:"estimates"`
	Overround   float64               `json:"overround"`
	Transform   string                `json:"transform"`
	ActiveCount int                   `json:"active_count"`
}

// ByIndex returns the estimate for a source index
func (p *Probabilities) ByIndex(index int) (ProbabilityEstimate, bool) {
	for _, e := range p.Estimates {
		if e.SourceIndex == index {
			return e, true
		}
	}
	return ProbabilityEstimate{}, false
}

// ByProgram returns the estimate for a program number
func (p *Probabilities) ByProgram(program string) (ProbabilityEstimate, bool) {
	for _, e := range p.Estimates {
		if e.ProgramNumber == program {
			return e, true
		}
	}
	return ProbabilityEstimate{}, false
}

// WinProbabilities maps program number to model probability for active horses
func (p *Probabilities) WinProbabilities() map[string]float64 {
	out := make(map[string]float64, len(p.Estimates))
	for _, e := range p.Estimates {
		if !e.Scratched {
			out[e.ProgramNumber] = e.ModelProbability
		}
	}
	return out
}

// Overlays returns the estimates flagged as overlays
func (p *Probabilities) Overlays() []ProbabilityEstimate {
	var out []ProbabilityEstimate
	for _, e := range p.Estimates {
		if e.IsOverlay() {
			out = append(out, e)
		}
	}
	return out
}
