package main

import (
	"fmt"
	"strings"

	"github.com/yourusername/clever-handicapper/internal/models"
	"github.com/yourusername/clever-handicapper/internal/odds"
	"github.com/yourusername/clever-handicapper/internal/pipeline"
)

// parseOverrides maps --odds PROGRAM=ODDS and --scratch PROGRAM flags onto source indices
func parseOverrides(snapshot *models.RaceSnapshot, oddsFlags, scratchFlags []string) (pipeline.Overrides, error) {
	if len(oddsFlags) == 0 && len(scratchFlags) == 0 {
		return pipeline.NoOverrides{}, nil
	}

	index := make(map[string]int, len(snapshot.Horses))
	for i, h := range snapshot.Horses {
		index[strings.ToUpper(h.ProgramNumber)] = i
	}
	lookup := func(program string) (int, error) {
		i, ok := index[strings.ToUpper(strings.TrimSpace(program))]
		if !ok {
			return 0, fmt.Errorf("no horse with program number %q", program)
		}
		return i, nil
	}

	overrides := pipeline.StaticOverrides{}
	for _, flag := range oddsFlags {
		program, value, ok := strings.Cut(flag, "=")
		if !ok {
			return nil, fmt.Errorf("odds override %q must be PROGRAM=ODDS", flag)
		}
		i, err := lookup(program)
		if err != nil {
			return nil, err
		}
		value = strings.TrimSpace(value)
		if _, err := odds.Parse(value); err != nil {
			return nil, fmt.Errorf("odds override for %s: %w", program, err)
		}
		if overrides.OddsByIndex == nil {
			overrides.OddsByIndex = make(map[int]string)
		}
		overrides.OddsByIndex[i] = value
	}
	for _, program := range scratchFlags {
		i, err := lookup(program)
		if err != nil {
			return nil, err
		}
		if overrides.Scratched == nil {
			overrides.Scratched = make(map[int]bool)
		}
		overrides.Scratched[i] = true
	}
	return overrides, nil
}

// exoticBetType resolves a pool name and shape to a bet type
func exoticBetType(pool string, box bool) (models.BetType, error) {
	shape := "KEY"
	if box {
		shape = "BOX"
	}
	bt := models.BetType(strings.ToUpper(pool) + "_" + shape)
	switch bt {
	case models.BetTypeExactaKey, models.BetTypeTrifectaKey, models.BetTypeSuperfectaKey,
		models.BetTypeExactaBox, models.BetTypeTrifectaBox, models.BetTypeSuperfectaBox:
		return bt, nil
	}
	return "", fmt.Errorf("unsupported exotic pool %q (want exacta, trifecta or superfecta)", pool)
}
