package config

import (
	"github.com/yourusername/clever-handicapper/internal/models"
)

// Profile is the tuning object passed into the pipeline: weights, thresholds and caps
type Profile struct {
	Name           string               `mapstructure:"name" validate:"required"`
	Scoring        ScoringConfig        `mapstructure:"scoring"`
	TripTrouble    TripTroubleConfig    `mapstructure:"trip_trouble"`
	Velocity       VelocityConfig       `mapstructure:"velocity"`
	Overlay        OverlayConfig        `mapstructure:"overlay"`
	Exotics        ExoticsConfig        `mapstructure:"exotics"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
}

// ScoringConfig represents category maxima and aggregation settings
type ScoringConfig struct {
	MaxBaseScore float64        `mapstructure:"max_base_score" validate:"gt=0"`
	CategoryMax  CategoryMaxima `mapstructure:"category_max"`
	// FormLookback is how many recent races feed recent form
	FormLookback         int              `mapstructure:"form_lookback" validate:"gte=1,lte=10"`
	DataQualityPenalties map[string]int   `mapstructure:"data_quality_penalties" validate:"dive,gte=0,lte=100"`
	Confidence           ConfidenceConfig `mapstructure:"confidence"`
}

// CategoryMaxima declares the point budget of each category scorer
type CategoryMaxima struct {
	Form        float64 `mapstructure:"form" validate:"gt=0"`
	SpeedClass  float64 `mapstructure:"speed_class" validate:"gt=0"`
	Post        float64 `mapstructure:"post_position" validate:"gt=0"`
	Equipment   float64 `mapstructure:"equipment" validate:"gt=0"`
	Connections float64 `mapstructure:"connections" validate:"gt=0"`
	Pace        float64 `mapstructure:"pace" validate:"gt=0"`
}

// Sum returns the total of all category maxima
func (c CategoryMaxima) Sum() float64 {
	return c.Form + c.SpeedClass + c.Post + c.Equipment + c.Connections + c.Pace
}

// For returns the maximum for one category
func (c CategoryMaxima) For(category models.Category) float64 {
	switch category {
	case models.CategoryForm:
		return c.Form
	case models.CategorySpeedClass:
		return c.SpeedClass
	case models.CategoryPost:
		return c.Post
	case models.CategoryEquipment:
		return c.Equipment
	case models.CategoryConnections:
		return c.Connections
	case models.CategoryPace:
		return c.Pace
	default:
		return 0
	}
}

// ConfidenceConfig represents the data quality and score gap thresholds
type ConfidenceConfig struct {
	HighDataQuality int     `mapstructure:"high_data_quality" validate:"gte=0,lte=100"`
	HighGap         float64 `mapstructure:"high_gap" validate:"gte=0"`
	LowDataQuality  int     `mapstructure:"low_data_quality" validate:"gte=0,lte=100,ltefield=HighDataQuality"`
	MediumGap       float64 `mapstructure:"medium_gap" validate:"gte=0,ltefield=HighGap"`
}

// KeywordTables holds the four disjoint trip comment keyword sets
type KeywordTables struct {
	High   []string `mapstructure:"high" validate:"dive,required"`
	Medium []string `mapstructure:"medium" validate:"dive,required"`
	Low    []string `mapstructure:"low" validate:"dive,required"`
	Caused []string `mapstructure:"caused" validate:"dive,required"`
}

// TripTroubleConfig represents the trip trouble detector settings
type TripTroubleConfig struct {
	Lookback        int           `mapstructure:"lookback" validate:"gte=1,lte=10"`
	PerLevelCap     int           `mapstructure:"per_level_cap" validate:"gte=0"`
	HighPoints      float64       `mapstructure:"high_points" validate:"gte=0"`
	MediumPoints    float64       `mapstructure:"medium_points" validate:"gte=0"`
	LowPoints       float64       `mapstructure:"low_points" validate:"gte=0"`
	MaxAdjustment   float64       `mapstructure:"max_adjustment" validate:"gte=0"`
	CausedReduction float64       `mapstructure:"caused_reduction" validate:"gte=0,lte=1"`
	Keywords        KeywordTables `mapstructure:"keywords"`
}

// VelocityConfig represents the fractional velocity analyzer settings
type VelocityConfig struct {
	Lookback           int     `mapstructure:"lookback" validate:"gte=1,lte=10"`
	MinRaces           int     `mapstructure:"min_races" validate:"gte=1"`
	MinSegmentFurlongs float64 `mapstructure:"min_segment_furlongs" validate:"gt=0"`
	MinRate            float64 `mapstructure:"min_rate" validate:"gt=0"`
	MaxRate            float64 `mapstructure:"max_rate" validate:"gtfield=MinRate"`
	// Differential thresholds, seconds per furlong, descending
	StrongCloserThreshold   float64            `mapstructure:"strong_closer_threshold"`
	ModerateCloserThreshold float64            `mapstructure:"moderate_closer_threshold" validate:"ltefield=StrongCloserThreshold"`
	SteadyPaceThreshold     float64            `mapstructure:"steady_pace_threshold" validate:"ltefield=ModerateCloserThreshold"`
	StrongCloserPoints      float64            `mapstructure:"strong_closer_points"`
	ModerateCloserPoints    float64            `mapstructure:"moderate_closer_points"`
	FaderPoints             float64            `mapstructure:"fader_points" validate:"lte=0"`
	MaxAdjustment           float64            `mapstructure:"max_adjustment" validate:"gte=0"`
	PaceModifiers           map[string]float64 `mapstructure:"pace_modifiers" validate:"dive,gte=0"`
	SoftPaceFaderModifier   float64            `mapstructure:"soft_pace_fader_modifier" validate:"gte=0"`
}

// PaceModifier returns the closer multiplier for a pace scenario, 1.0 if not configured
func (v VelocityConfig) PaceModifier(scenario models.PaceScenario) float64 {
	if m, ok := v.PaceModifiers[string(scenario)]; ok {
		return m
	}
	return 1.0
}

// OverlayConfig represents the probability transform and value thresholds
type OverlayConfig struct {
	Transform         string  `mapstructure:"transform" validate:"transform"`
	Temperature       float64 `mapstructure:"temperature" validate:"gt=0"`
	PowerExponent     float64 `mapstructure:"power_exponent" validate:"gt=0"`
	OverlayThreshold  float64 `mapstructure:"overlay_threshold" validate:"gte=0"`
	UnderlayThreshold float64 `mapstructure:"underlay_threshold" validate:"lte=0"`
}

// ExoticsConfig represents base unit stakes for exotic wagers
type ExoticsConfig struct {
	ExactaUnit     float64 `mapstructure:"exacta_unit" validate:"gt=0"`
	TrifectaUnit   float64 `mapstructure:"trifecta_unit" validate:"gt=0"`
	SuperfectaUnit float64 `mapstructure:"superfecta_unit" validate:"gt=0"`
}

// UnitFor returns the base unit for an exotic bet type, 0 for straight bets
func (e ExoticsConfig) UnitFor(betType models.BetType) float64 {
	switch betType.Positions() {
	case 2:
		return e.ExactaUnit
	case 3:
		return e.TrifectaUnit
	case 4:
		return e.SuperfectaUnit
	default:
		return 0
	}
}

// RecommendationConfig represents the bet ranking settings
type RecommendationConfig struct {
	StraightStake          float64    `mapstructure:"straight_stake" validate:"gt=0"`
	PlacePayoutFactor      float64    `mapstructure:"place_payout_factor" validate:"gt=0,lte=1"`
	ShowPayoutFactor       float64    `mapstructure:"show_payout_factor" validate:"gt=0,ltefield=PlacePayoutFactor"`
	MinExoticScoreFraction float64    `mapstructure:"min_exotic_score_fraction" validate:"gte=0,lte=1"`
	MaxKeys                int        `mapstructure:"max_keys" validate:"gte=0"`
	MaxWithHorses          int        `mapstructure:"max_with_horses" validate:"gte=0"`
	BoxHorses              int        `mapstructure:"box_horses" validate:"gte=0"`
	ExactaMinField         int        `mapstructure:"exacta_min_field" validate:"gte=2"`
	TrifectaMinField       int        `mapstructure:"trifecta_min_field" validate:"gte=3"`
	SuperfectaMinField     int        `mapstructure:"superfecta_min_field" validate:"gte=4"`
	ExcludeNegativeEV      bool       `mapstructure:"exclude_negative_ev"`
	Risk                   RiskConfig `mapstructure:"risk"`
	MaxRecommendations     int        `mapstructure:"max_recommendations" validate:"gt=0"`
	// Budget caps total recommended cost, 0 means unlimited
	Budget        float64 `mapstructure:"budget" validate:"gte=0"`
	Bankroll      float64 `mapstructure:"bankroll" validate:"gte=0"`
	KellyFraction float64 `mapstructure:"kelly_fraction" validate:"gte=0,lte=1"`
}

// MinFieldFor returns the minimum active field size for an exotic bet type
func (r RecommendationConfig) MinFieldFor(betType models.BetType) int {
	switch betType.Positions() {
	case 2:
		return r.ExactaMinField
	case 3:
		return r.TrifectaMinField
	case 4:
		return r.SuperfectaMinField
	default:
		return 1
	}
}

// RiskConfig represents the risk tier thresholds
type RiskConfig struct {
	ConservativeMinProbability float64 `mapstructure:"conservative_min_probability" validate:"gte=0,lte=1"`
	ConservativeMaxCost        float64 `mapstructure:"conservative_max_cost" validate:"gte=0"`
	AggressiveMaxProbability   float64 `mapstructure:"aggressive_max_probability" validate:"gte=0,lte=1"`
	AggressiveMinCost          float64 `mapstructure:"aggressive_min_cost" validate:"gte=0"`
}

// DefaultProfile returns the canonical tuning profile
func DefaultProfile() Profile {
	return Profile{
		Name: "default",
		Scoring: ScoringConfig{
			MaxBaseScore: 240,
			CategoryMax: CategoryMaxima{
				Form:        50,
				SpeedClass:  50,
				Post:        30,
				Equipment:   20,
				Connections: 40,
				Pace:        40,
			},
			FormLookback: 3,
			DataQualityPenalties: map[string]int{
				string(models.FlagNoPastPerformances): 30,
				string(models.FlagNoSpeedFigures):     15,
				string(models.FlagNoTrainerStats):     10,
				string(models.FlagNoJockeyStats):      10,
				string(models.FlagNoRunningStyle):     10,
				string(models.FlagNoLayoff):           5,
				string(models.FlagNoClass):            5,
				string(models.FlagNoPost):             5,
				string(models.FlagNoFractions):        5,
				string(models.FlagNoTripComments):     5,
			},
			Confidence: ConfidenceConfig{
				HighDataQuality: 80,
				HighGap:         12,
				LowDataQuality:  50,
				MediumGap:       5,
			},
		},
		TripTrouble: TripTroubleConfig{
			Lookback:        3,
			PerLevelCap:     2,
			HighPoints:      3,
			MediumPoints:    2,
			LowPoints:       1,
			MaxAdjustment:   5,
			CausedReduction: 0.25,
			Keywords: KeywordTables{
				High:   []string{"checked", "steadied", "shut off", "clipped heels", "blocked", "stumbled"},
				Medium: []string{"bumped", "squeezed", "boxed in", "forced wide", "pinched back", "in traffic"},
				Low:    []string{"wide", "bobbled", "off slow", "slow start", "hesitated", "awkward start"},
				Caused: []string{"drifted out", "lugged out", "lugged in", "bore out", "bore in", "interfered", "disqualified"},
			},
		},
		Velocity: VelocityConfig{
			Lookback:                5,
			MinRaces:                2,
			MinSegmentFurlongs:      0.5,
			MinRate:                 9,
			MaxRate:                 20,
			StrongCloserThreshold:   0.0,
			ModerateCloserThreshold: -0.6,
			SteadyPaceThreshold:     -1.2,
			StrongCloserPoints:      4,
			ModerateCloserPoints:    2,
			FaderPoints:             -3,
			MaxAdjustment:           5,
			PaceModifiers: map[string]float64{
				string(models.PaceSpeedDuel): 1.5,
				string(models.PaceContested): 1.25,
				string(models.PaceModerate):  1.0,
				string(models.PaceSoft):      0.5,
			},
			SoftPaceFaderModifier: 0.5,
		},
		Overlay: OverlayConfig{
			Transform:         TransformSoftmax,
			Temperature:       20,
			PowerExponent:     3,
			OverlayThreshold:  0.05,
			UnderlayThreshold: -0.10,
		},
		Exotics: ExoticsConfig{
			ExactaUnit:     1.00,
			TrifectaUnit:   0.50,
			SuperfectaUnit: 0.10,
		},
		Recommendation: RecommendationConfig{
			StraightStake:          2.00,
			PlacePayoutFactor:      0.40,
			ShowPayoutFactor:       0.25,
			MinExoticScoreFraction: 0.45,
			MaxKeys:                2,
			MaxWithHorses:          4,
			BoxHorses:              4,
			ExactaMinField:         4,
			TrifectaMinField:       5,
			SuperfectaMinField:     6,
			Risk: RiskConfig{
				ConservativeMinProbability: 0.25,
				ConservativeMaxCost:        5,
				AggressiveMaxProbability:   0.08,
				AggressiveMinCost:          20,
			},
			MaxRecommendations: 25,
			KellyFraction:      0.5,
		},
	}
}

// Transform names accepted by the overlay stage
const (
	TransformSoftmax = "softmax"
	TransformPower   = "power"
)

// Clone returns a deep copy so callers cannot mutate a profile held by an engine
func (p Profile) Clone() Profile {
	out := p
	out.Scoring.DataQualityPenalties = cloneMap(p.Scoring.DataQualityPenalties)
	out.Velocity.PaceModifiers = cloneMap(p.Velocity.PaceModifiers)
	out.TripTrouble.Keywords = KeywordTables{
		High:   append([]string(nil), p.TripTrouble.Keywords.High...),
		Medium: append([]string(nil), p.TripTrouble.Keywords.Medium...),
		Low:    append([]string(nil), p.TripTrouble.Keywords.Low...),
		Caused: append([]string(nil), p.TripTrouble.Keywords.Caused...),
	}
	return out
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	if in == nil {
		return nil
	}
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// AdjustmentCeiling returns the largest positive points the heuristic adjusters can add
func (p Profile) AdjustmentCeiling() float64 {
	return p.TripTrouble.MaxAdjustment + p.Velocity.MaxAdjustment
}
