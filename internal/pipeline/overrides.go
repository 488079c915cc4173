package pipeline

// Overrides lets a caller supply live odds and scratches without re-parsing source data
type Overrides interface {
	Odds(index int, defaultOdds string) string
	IsScratched(index int) bool
}

// NoOverrides uses the odds and scratches carried by the source records
type NoOverrides struct{}

// Odds returns the default odds unchanged
func (NoOverrides) Odds(_ int, defaultOdds string) string { return defaultOdds }

// IsScratched reports no live scratches
func (NoOverrides) IsScratched(int) bool { return false }

// OverrideFuncs adapts a pair of callbacks; a nil callback falls back to source data
type OverrideFuncs struct {
	OddsFunc      func(index int, defaultOdds string) string
	ScratchedFunc func(index int) bool
}

// Odds calls OddsFunc when set
func (o OverrideFuncs) Odds(index int, defaultOdds string) string {
	if o.OddsFunc == nil {
		return defaultOdds
	}
	return o.OddsFunc(index, defaultOdds)
}

// IsScratched calls ScratchedFunc when set
func (o OverrideFuncs) IsScratched(index int) bool {
	if o.ScratchedFunc == nil {
		return false
	}
	return o.ScratchedFunc(index)
}

// StaticOverrides holds fixed odds and scratches keyed by source index
type StaticOverrides struct {
	OddsByIndex map[int]string `json:"odds,omitempty"`
	Scratched   map[int]bool   `json:"scratched,omitempty"`
}

// Odds returns the override for index, or defaultOdds
func (s StaticOverrides) Odds(index int, defaultOdds string) string {
	if o, ok := s.OddsByIndex[index]; ok && o != "" {
		return o
	}
	return defaultOdds
}

// IsScratched reports a scratch override for index
func (s StaticOverrides) IsScratched(index int) bool {
	return s.Scratched[index]
}
