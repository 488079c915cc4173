package models

// Category identifies one handicapping dimension
type Category string

const (
	CategoryForm        Category = "form"
	CategorySpeedClass  Category = "speed_class"
	CategoryPost        Category = "post_position"
	CategoryEquipment   Category = "equipment"
	CategoryConnections Category = "connections"
	CategoryPace        Category = "pace"
)

// DataFlag marks a neutral default taken because input data was missing
type DataFlag string

const (
	FlagNoPastPerformances DataFlag = "no_past_performances"
	FlagNoLayoff           DataFlag = "no_layoff"
	FlagNoSpeedFigures     DataFlag = "no_speed_figures"
	FlagNoClass            DataFlag = "no_class"
	FlagNoPost             DataFlag = "no_post_position"
	FlagNoTrainerStats     DataFlag = "no_trainer_stats"
	FlagNoJockeyStats      DataFlag = "no_jockey_stats"
	FlagNoRunningStyle     DataFlag = "no_running_style"
	FlagNoFractions        DataFlag = "no_fractions"
	FlagNoTripComments     DataFlag = "no_trip_comments"
)

// ConfidenceLevel represents how far a horse's score can be trusted
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// PaceScenario is the expected early pace of the race being handicapped
type PaceScenario string

const (
	PaceSpeedDuel PaceScenario = "speed_duel"
	PaceContested PaceScenario = "contested"
	PaceModerate  PaceScenario = "moderate"
	PaceSoft      PaceScenario = "soft"
)

// SubScore is one clamped component of a category score
type SubScore struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Max   float64 `json:"max"`
}

// CategoryScore is the output of one category scorer
type CategoryScore struct {
	Category  Category   `json:"category"`
	Score     float64    `json:"score"`
	Max       float64    `json:"max"`
	SubScores []SubScore `json:"sub_scores"`
	Reasoning string     `json:"reasoning"`
	Flags     []DataFlag `json:"flags,omitempty"`
}

// TripTroubleAdjustment is the bounded bonus for trouble suffered in recent races
type TripTroubleAdjustment struct {
	Points          float64  `json:"points"`
	RacesExamined   int      `json:"races_examined"`
	CommentedRaces  int      `json:"commented_races"`
	TroubledRaces   int      `json:"troubled_races"`
	HighRaces       int      `json:"high_races"`
	MediumRaces     int      `json:"medium_races"`
	LowRaces        int      `json:"low_races"`
	CausedRaces     int      `json:"caused_races"`
	MatchedKeywords []string `json:"matched_keywords"`
	Reason          string   `json:"reason"`
}

// VelocityProfile classifies how a horse runs its late fractions relative to early ones
type VelocityProfile string

const (
	VelocityStrongCloser   VelocityProfile = "strong_closer"
	VelocityModerateCloser VelocityProfile = "moderate_closer"
	VelocitySteadyPace     VelocityProfile = "steady_pace"
	VelocityFader          VelocityProfile = "fader"
	VelocityUnknown        VelocityProfile = "unknown"
)

// VelocityAdjustment is the bounded late-kick bonus or fader penalty
type VelocityAdjustment struct {
	Points  float64         `json:"points"`
	Profile VelocityProfile `json:"profile"`
	// MeanDifferential is nil when no race carried usable fractions
	MeanDifferential *float64 `json:"mean_differential"`
	UsableRaces      int      `json:"usable_races"`
	SkippedRaces     int      `json:"skipped_races"`
	Reason           string   `json:"reason"`
}

// Adjustments groups the heuristic deltas layered onto category scores
type Adjustments struct {
	TripTrouble TripTroubleAdjustment `json:"trip_trouble"`
	Velocity    VelocityAdjustment    `json:"velocity"`
}

// Total returns the sum of all adjustment points
func (a Adjustments) Total() float64 {
	return a.TripTrouble.Points + a.Velocity.Points
}

// ScoredHorse is the aggregated, ranked result for one horse in one scoring run
type ScoredHorse struct {
	SourceIndex   int             `json:"source_index"`
	Horse         *HorseRecord    `json:"-"`
	ProgramNumber string          `json:"program_number"`
	Name          string          `json:"name"`
	BaseScore     float64         `json:"base_score"`
	CategoryTotal float64         `json:"category_total"`
	Breakdown     []CategoryScore `json:"breakdown"`
	Adjustments   Adjustments     `json:"adjustments"`
	IsScratched   bool            `json:"is_scratched"`
	Confidence    ConfidenceLevel `json:"confidence"`
	DataQuality   int             `json:"data_quality"`
	DataFlags     []DataFlag      `json:"data_flags,omitempty"`
	Rank          int             `json:"rank"`
	// ScoreGap is the lead over the next-lower active horse
	ScoreGap float64 `json:"score_gap"`
}

// CategoryScore returns the breakdown entry for a category
func (s *ScoredHorse) CategoryScore(c Category) (CategoryScore, bool) {
	for _, cs := range s.Breakdown {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// FieldWarning reports a horse excluded from scoring
type FieldWarning struct {
	SourceIndex   int    `json:"source_index"`
	ProgramNumber string `json:"program_number"`
	Message       string `json:"message"`
}

// ScoredField is the immutable output of the scoring stage
type ScoredField struct {
	Header       RaceHeader     `json:"header"`
	Horses       []ScoredHorse  `json:"horses"`
	Warnings     []FieldWarning `json:"warnings,omitempty"`
	PaceScenario PaceScenario   `json:"pace_scenario"`
	MaxBaseScore float64        `json:"max_base_score"`
}

// Active returns the non-scratched horses in rank order
func (f *ScoredField) Active() []ScoredHorse {
	active := make([]ScoredHorse, 0, len(f.Horses))
	for _, h := range f.Horses {
		if !h.IsScratched {
			active = append(active, h)
		}
	}
	return active
}

// ByIndex looks up a scored horse by its source index
func (f *ScoredField) ByIndex(index int) (ScoredHorse, bool) {
	for _, h := range f.Horses {
		if h.SourceIndex == index {
			return h, true
		}
	}
	return ScoredHorse{}, false
}

// ByProgram looks up a scored horse by program number
func (f *ScoredField) ByProgram(program string) (ScoredHorse, bool) {
	for _, h := range f.Horses {
		if h.ProgramNumber == program {
			return h, true
		}
	}
	return ScoredHorse{}, false
}
