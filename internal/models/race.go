package models

import (
	"strings"
)

// Surface represents the racing surface
type Surface string

const (
	SurfaceDirt      Surface = "dirt"
	SurfaceTurf      Surface = "turf"
	SurfaceSynthetic Surface = "synthetic"
)

// TrackBias represents a reported track bias for the race day
type TrackBias string

const (
	TrackBiasNone    TrackBias = "none"
	TrackBiasInside  TrackBias = "inside"
	TrackBiasOutside TrackBias = "outside"
	TrackBiasSpeed   TrackBias = "speed"
	TrackBiasCloser  TrackBias = "closer"
)

// SprintMaxFurlongs is the longest distance still handicapped as a sprint
const SprintMaxFurlongs = 7.0

// RaceHeader represents the race-level context supplied with an entry list
type RaceHeader struct {
	RaceID           string    `json:"race_id" validate:"required"`
	Track            string    `json:"track" validate:"required"`
	RaceNumber       int       `json:"race_number" validate:"gte=0"`
	Surface          Surface   `json:"surface" validate:"omitempty,oneof=dirt turf synthetic"`
	DistanceFurlongs float64   `json:"distance_furlongs" validate:"gt=0"`
	Classification   string    `json:"classification"`
	FieldSize        int       `json:"field_size" validate:"gte=0,lte=24"`
	Conditions       string    `json:"conditions"`
	TrackBias        TrackBias `json:"track_bias" validate:"omitempty,oneof=none inside outside speed closer"`
}

// IsSprint checks if the race distance is a sprint
func (r *RaceHeader) IsSprint() bool {
	return r.DistanceFurlongs <= SprintMaxFurlongs
}

// ClassLevel returns the numeric class level of the race classification
func (r *RaceHeader) ClassLevel() int {
	return ClassLevelOf(r.Classification)
}

// classLevels orders classifications from cheapest to best; longer prefixes win
var classLevels = []struct {
	prefix string
	level  int
}{
	{"maiden claiming", 1},
	{"mcl", 1},
	{"maiden special weight", 2},
	{"msw", 2},
	{"claiming", 3},
	{"clm", 3},
	{"starter allowance", 4},
	{"starter", 4},
	{"allowance optional claiming", 6},
	{"aoc", 6},
	{"allowance", 5},
	{"alw", 5},
	{"grade 1", 10},
	{"g1", 10},
	{"grade 2", 9},
	{"g2", 9},
	{"grade 3", 8},
	{"g3", 8},
	{"stakes", 7},
	{"stk", 7},
}

// ClassLevelOf maps a classification string to a class level, 0 if unknown
func ClassLevelOf(classification string) int {
	c := strings.ToLower(strings.TrimSpace(classification))
	if c == "" {
		return 0
	}
	for _, entry := range classLevels {
		if strings.HasPrefix(c, entry.prefix) {
			return entry.level
		}
	}
	return 0
}

// RaceSnapshot represents an already-parsed race: header plus entries in program order
type RaceSnapshot struct {
	Header RaceHeader    `json:"header"`
	Horses []HorseRecord `json:"horses"`
	Result *RaceResult   `json:"result,omitempty"`
}
