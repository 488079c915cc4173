package models

import (
	"github.com/shopspring/decimal"
)

// BetType represents a wager type
type BetType string

const (
	BetTypeWin           BetType = "WIN"
	BetTypePlace         BetType = "PLACE"
	BetTypeShow          BetType = "SHOW"
	BetTypeExactaKey     BetType = "EXACTA_KEY"
	BetTypeTrifectaKey   BetType = "TRIFECTA_KEY"
	BetTypeSuperfectaKey BetType = "SUPERFECTA_KEY"
	BetTypeExactaBox     BetType = "EXACTA_BOX"
	BetTypeTrifectaBox   BetType = "TRIFECTA_BOX"
	BetTypeSuperfectaBox BetType = "SUPERFECTA_BOX"
)

// betTypeOrder is the tie-break order between bet types
var betTypeOrder = map[BetType]int{
	BetTypeWin:           0,
	BetTypePlace:         1,
	BetTypeShow:          2,
	BetTypeExactaKey:     3,
	BetTypeExactaBox:     4,
	BetTypeTrifectaKey:   5,
	BetTypeTrifectaBox:   6,
	BetTypeSuperfectaKey: 7,
	BetTypeSuperfectaBox: 8,
}

// Order returns the tie-break position of the bet type
func (b BetType) Order() int {
	if o, ok := betTypeOrder[b]; ok {
		return o
	}
	return len(betTypeOrder)
}

// IsStraight checks if the bet type is win, place or show
func (b BetType) IsStraight() bool {
	return b == BetTypeWin || b == BetTypePlace || b == BetTypeShow
}

// Positions returns the number of finishing positions an exotic covers, 1 for straight bets
func (b BetType) Positions() int {
	switch b {
	case BetTypeExactaKey, BetTypeExactaBox:
		return 2
	case BetTypeTrifectaKey, BetTypeTrifectaBox:
		return 3
	case BetTypeSuperfectaKey, BetTypeSuperfectaBox:
		return 4
	default:
		return 1
	}
}

// RiskTier represents a coarse cost/probability bucket
type RiskTier string

const (
	RiskConservative RiskTier = "Conservative"
	RiskModerate     RiskTier = "Moderate"
	RiskAggressive   RiskTier = "Aggressive"
)

// ExoticKeyBet represents a key wager: one horse fixed on top with a set of others underneath
type ExoticKeyBet struct {
	BetType              BetType         `json:"bet_type"`
	KeyHorse             string          `json:"key_horse"`
	WithHorses           []string        `json:"with_horses"`
	Combinations         int             `json:"combinations"`
	CostPerUnit          decimal.Decimal `json:"cost_per_unit"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	EstimatedProbability float64         `json:"estimated_probability"`
	// ExpectedValue is always nil: joint finish probabilities are too rough to price
	ExpectedValue *float64 `json:"expected_value"`
	IsSpeculative bool     `json:"is_speculative"`
	Reason        string   `json:"reason,omitempty"`
}

// Available checks if the key bet produced at least one combination
func (e *ExoticKeyBet) Available() bool {
	return e.Combinations > 0
}

// ExoticBoxBet represents a box wager over a set of horses in any order
type ExoticBoxBet struct {
	BetType              BetType         `json:"bet_type"`
	Horses               []string        `json:"horses"`
	Combinations         int             `json:"combinations"`
	CostPerUnit          decimal.Decimal `json:"cost_per_unit"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	EstimatedProbability float64         `json:"estimated_probability"`
	ExpectedValue        *float64        `json:"expected_value"`
	IsSpeculative        bool            `json:"is_speculative"`
	Reason               string          `json:"reason,omitempty"`
}

// Available checks if the box bet produced at least one combination
func (e *ExoticBoxBet) Available() bool {
	return e.Combinations > 0
}

// TopBet unifies straight and exotic wagers in a ranked recommendation
type TopBet struct {
	Rank          int             `json:"rank"`
	BetType       BetType         `json:"bet_type"`
	Horses        []string        `json:"horses"`
	KeyHorse      string          `json:"key_horse,omitempty"`
	Combinations  int             `json:"combinations"`
	UnitStake     decimal.Decimal `json:"unit_stake"`
	Cost          decimal.Decimal `json:"cost"`
	Probability   float64         `json:"probability"`
	DecimalOdds   float64         `json:"decimal_odds,omitempty"`
	ExpectedValue *float64        `json:"expected_value"`
	IsSpeculative bool            `json:"is_speculative"`
	RiskTier      RiskTier        `json:"risk_tier"`
	// SuggestedStake is the fractional Kelly stake for EV-bearing win bets
	SuggestedStake *decimal.Decimal `json:"suggested_stake,omitempty"`
	Reasoning      string           `json:"reasoning"`
}

// HasEV checks if the bet carries a numeric expected value
func (t *TopBet) HasEV() bool {
	return t.ExpectedValue != nil
}

// OmittedWager explains why a wager type was not offered
type OmittedWager struct {
	BetType BetType `json:"bet_type"`
	Reason  string  `json:"reason"`
}

// Recommendation is the ranked output of the recommendation stage
type Recommendation struct {
	RaceID    string          `json:"race_id"`
	Bets      []TopBet        `json:"bets"`
	Omitted   []OmittedWager  `json:"omitted,omitempty"`
	Budget    decimal.Decimal `json:"budget"`
	TotalCost decimal.Decimal `json:"total_cost"`
}
