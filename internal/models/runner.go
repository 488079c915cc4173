package models

import (
	"strconv"
	"strings"
)

// RunningStyle represents a horse's usual position early in a race
type RunningStyle string

const (
	StyleEarly        RunningStyle = "E"
	StyleEarlyPresser RunningStyle = "E/P"
	StylePresser      RunningStyle = "P"
	StyleSustained    RunningStyle = "S"
	StyleUnknown      RunningStyle = ""
)

// Fraction is one fractional call: elapsed seconds when the leader passed a point of call.
// A zero or missing call is kept; velocity analysis skips it.
type Fraction struct {
	AtFurlongs float64 `json:"at_furlongs"`
	Seconds    float64 `json:"seconds"`
}

// PastPerformance represents one historical race line for a horse
type PastPerformance struct {
	FinishPosition   int        `json:"finish_position" validate:"gte=1"`
	FieldSize        int        `json:"field_size" validate:"omitempty,gtefield=FinishPosition"`
	LengthsBehind    float64    `json:"lengths_behind" validate:"gte=0"`
	SpeedFigure      *int       `json:"speed_figure,omitempty" validate:"omitempty,gte=0,lte=150"`
	ClassLevel       int        `json:"class_level" validate:"gte=0,lte=10"`
	DistanceFurlongs float64    `json:"distance_furlongs" validate:"gte=0"`
	Surface          Surface    `json:"surface"`
	Fractions        []Fraction `json:"fractions" validate:"dive"`
	FinalTime        float64    `json:"final_time" validate:"gte=0"`
	Comment          string     `json:"comment"`
}

// CategoryStat represents a win record in a situational category (e.g. "first_lasix")
type CategoryStat struct {
	Category string `json:"category" validate:"required"`
	Starts   int    `json:"starts" validate:"gte=0"`
	Wins     int    `json:"wins" validate:"gte=0,ltefield=Starts"`
}

// WinRate returns wins over starts, 0 with no starts
func (c CategoryStat) WinRate() float64 {
	if c.Starts <= 0 {
		return 0
	}
	return float64(c.Wins) / float64(c.Starts)
}

// Connection represents a trainer or jockey with overall and category statistics
type Connection struct {
	ID            string         `json:"id"`
	Starts        int            `json:"starts" validate:"gte=0"`
	Wins          int            `json:"wins" validate:"gte=0,ltefield=Starts"`
	CategoryStats []CategoryStat `json:"category_stats" validate:"dive"`
}

// WinRate returns wins over starts, 0 with no starts
func (c Connection) WinRate() float64 {
	if c.Starts <= 0 {
		return 0
	}
	return float64(c.Wins) / float64(c.Starts)
}

// ComboStat represents the trainer/jockey combination record
type ComboStat struct {
	Starts int `json:"starts" validate:"gte=0"`
	Wins   int `json:"wins" validate:"gte=0,ltefield=Starts"`
}

// Equipment represents equipment changes declared for today
type Equipment struct {
	BlinkersOn  bool `json:"blinkers_on"`
	BlinkersOff bool `json:"blinkers_off"`
	OtherChange bool `json:"other_change"`
}

// Medication represents medication flags declared for today
type Medication struct {
	Lasix          bool `json:"lasix"`
	FirstTimeLasix bool `json:"first_time_lasix"`
}

// HorseRecord represents a horse (entry) in the race being handicapped
type HorseRecord struct {
	ProgramNumber    string            `json:"program_number" validate:"required,max=4"`
	Name             string            `json:"name" validate:"required"`
	RunningStyle     RunningStyle      `json:"running_style" validate:"omitempty,oneof=E E/P P S"`
	PostPosition     int               `json:"post_position" validate:"gte=0,lte=24"`
	LayoffDays       *int              `json:"layoff_days,omitempty" validate:"omitempty,gte=0"`
	PastPerformances []PastPerformance `json:"past_performances" validate:"dive"`
	Trainer          Connection        `json:"trainer"`
	Jockey           Connection        `json:"jockey"`
	Combo            *ComboStat        `json:"trainer_jockey_combo,omitempty"`
	Equipment        Equipment         `json:"equipment"`
	Medication       Medication        `json:"medication"`
	MorningLine      string            `json:"morning_line"`
	Scratched        bool              `json:"scratched"`
}

// IsFirstTimeStarter checks if the horse has no past performances
func (h *HorseRecord) IsFirstTimeStarter() bool {
	return len(h.PastPerformances) == 0
}

// LastFinish returns the most recent finish position or 99 for first-time starters
func (h *HorseRecord) LastFinish() int {
	if len(h.PastPerformances) == 0 {
		return 99
	}
	return h.PastPerformances[0].FinishPosition
}

// Recent returns up to n most recent past performances
func (h *HorseRecord) Recent(n int) []PastPerformance {
	if n <= 0 || len(h.PastPerformances) == 0 {
		return nil
	}
	if n > len(h.PastPerformances) {
		n = len(h.PastPerformances)
	}
	return h.PastPerformances[:n]
}

// ProgramSortKey splits a program number such as "1A" into its numeric part and suffix
func ProgramSortKey(program string) (int, string) {
	p := strings.TrimSpace(program)
	i := 0
	for i < len(p) && p[i] >= '0' && p[i] <= '9' {
		i++
	}
	if i == 0 {
		return 1 << 30, strings.ToUpper(p)
	}
	n, err := strconv.Atoi(p[:i])
	if err != nil {
		return 1 << 30, strings.ToUpper(p)
	}
	return n, strings.ToUpper(p[i:])
}

// Clone returns a deep copy that shares no memory with h
func (h *HorseRecord) Clone() *HorseRecord {
	if h == nil {
		return nil
	}
	c := *h
	if h.LayoffDays != nil {
		v := *h.LayoffDays
		c.LayoffDays = &v
	}
	if h.Combo != nil {
		v := *h.Combo
		c.Combo = &v
	}
	c.Trainer.CategoryStats = append([]CategoryStat(nil), h.Trainer.CategoryStats...)
	c.Jockey.CategoryStats = append([]CategoryStat(nil), h.Jockey.CategoryStats...)
	if h.PastPerformances != nil {
		c.PastPerformances = make([]PastPerformance, len(h.PastPerformances))
		for i, pp := range h.PastPerformances {
			if pp.SpeedFigure != nil {
				v := *pp.SpeedFigure
				pp.SpeedFigure = &v
			}
			pp.Fractions = append([]Fraction(nil), pp.Fractions...)
			c.PastPerformances[i] = pp
		}
	}
	return &c
}
