package heuristic

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/yourusername/clever-handicapper/internal/config"
	"github.com/yourusername/clever-handicapper/internal/models"
)

// KeywordCategory tags one of the four trip comment keyword sets
type KeywordCategory int

const (
	KeywordNone KeywordCategory = iota
	KeywordLow
	KeywordMedium
	KeywordHigh
	KeywordCaused
)

// String returns the lower-case category name
func (k KeywordCategory) String() string {
	switch k {
	case KeywordLow:
		return "low"
	case KeywordMedium:
		return "medium"
	case KeywordHigh:
		return "high"
	case KeywordCaused:
		return "caused"
	default:
		return "none"
	}
}

type keywordPattern struct {
	keyword  string
	category KeywordCategory
	re       *regexp.Regexp
}

// CommentClass is the classification of one trip comment
type CommentClass struct {
	// Level is the highest suffered-trouble category matched, KeywordNone if none
	Level   KeywordCategory
	Caused  bool
	Matched []string
}

// TripTroubleDetector scans recent trip comments for trouble the horse suffered or caused
type TripTroubleDetector struct {
	cfg      config.TripTroubleConfig
	patterns []keywordPattern
}

// NewTripTroubleDetector compiles the keyword tables into word-boundary patterns
func NewTripTroubleDetector(cfg config.TripTroubleConfig) (*TripTroubleDetector, error) {
	d := &TripTroubleDetector{cfg: cfg}
	tables := []struct {
		category KeywordCategory
		keywords []string
	}{
		{KeywordCaused, cfg.Keywords.Caused},
		{KeywordHigh, cfg.Keywords.High},
		{KeywordMedium, cfg.Keywords.Medium},
		{KeywordLow, cfg.Keywords.Low},
	}
	for _, table := range tables {
		for _, kw := range table.keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			re, err := compileKeyword(kw)
			if err != nil {
				return nil, fmt.Errorf("invalid trip keyword %q: %w", kw, err)
			}
			d.patterns = append(d.patterns, keywordPattern{keyword: strings.ToLower(kw), category: table.category, re: re})
		}
	}
	return d, nil
}

// compileKeyword matches a keyword case-insensitively on word boundaries; inner spaces match any whitespace
func compileKeyword(kw string) (*regexp.Regexp, error) {
	words := strings.Fields(kw)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.Compile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`)
}

// Classify tags a single comment with its highest suffered-trouble level and any caused trouble
func (d *TripTroubleDetector) Classify(comment string) CommentClass {
	var class CommentClass
	if strings.TrimSpace(comment) == "" {
		return class
	}
	for _, p := range d.patterns {
		if !p.re.MatchString(comment) {
			continue
		}
		class.Matched = append(class.Matched, p.keyword)
		if p.category == KeywordCaused {
			class.Caused = true
			continue
		}
		if p.category > class.Level {
			class.Level = p.category
		}
	}
	return class
}

// Detect computes the bounded trip trouble bonus from the most recent past performances
func (d *TripTroubleDetector) Detect(pps []models.PastPerformance) models.TripTroubleAdjustment {
	recent := pps
	if len(recent) > d.cfg.Lookback {
		recent = recent[:d.cfg.Lookback]
	}

	adj := models.TripTroubleAdjustment{RacesExamined: len(recent), MatchedKeywords: []string{}}
	for _, pp := range recent {
		if strings.TrimSpace(pp.Comment) == "" {
			continue
		}
		adj.CommentedRaces++

		class := d.Classify(pp.Comment)
		adj.MatchedKeywords = append(adj.MatchedKeywords, class.Matched...)
		if class.Caused {
			// Caused trouble voids any suffered-trouble credit for this race
			adj.CausedRaces++
			continue
		}
		switch class.Level {
		case KeywordHigh:
			adj.HighRaces++
		case KeywordMedium:
			adj.MediumRaces++
		case KeywordLow:
			adj.LowRaces++
		default:
			continue
		}
		adj.TroubledRaces++
	}

	n := adj.RacesExamined
	if adj.CommentedRaces == 0 {
		adj.Reason = fmt.Sprintf("No trip comments in last %d races", n)
		return adj
	}

	capped := func(count int) float64 {
		return float64(min(count, d.cfg.PerLevelCap))
	}
	total := capped(adj.HighRaces)*d.cfg.HighPoints +
		capped(adj.MediumRaces)*d.cfg.MediumPoints +
		capped(adj.LowRaces)*d.cfg.LowPoints
	total = math.Min(total, d.cfg.MaxAdjustment)

	reduction := 0.0
	if adj.CausedRaces > 0 {
		reduction = math.Min(1, float64(adj.CausedRaces)*d.cfg.CausedReduction)
		total = math.Max(0, total*(1-reduction))
	}
	adj.Points = total

	if adj.TroubledRaces == 0 {
		adj.Reason = fmt.Sprintf("No trip trouble in last %d races", n)
	} else {
		adj.Reason = fmt.Sprintf("Trip trouble in %d of last %d races (high %d, medium %d, low %d): +%.1f pts",
			adj.TroubledRaces, n, adj.HighRaces, adj.MediumRaces, adj.LowRaces, adj.Points)
	}
	if adj.CausedRaces > 0 {
		adj.Reason += fmt.Sprintf("; caused trouble in %d race(s), reduced by %.0f%%", adj.CausedRaces, reduction*100)
	}
	return adj
}
