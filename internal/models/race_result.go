package models

import "strings"

// RaceResult represents the official finish of a completed race
type RaceResult struct {
	// FinishOrder holds program numbers from first to last
	FinishOrder []string `json:"finish_order" validate:"min=1,dive,required"`
}

// Winner returns the winning program number or empty if the result is empty
func (rr *RaceResult) Winner() string {
	if rr == nil || len(rr.FinishOrder) == 0 {
		return ""
	}
	return rr.FinishOrder[0]
}

// Position returns the 1-based finish of a program number, 0 if it did not finish
func (rr *RaceResult) Position(program string) int {
	if rr == nil {
		return 0
	}
	for i, p := range rr.FinishOrder {
		if strings.EqualFold(p, program) {
			return i + 1
		}
	}
	return 0
}

// FinishedWithin checks if a program number finished in the first n positions
func (rr *RaceResult) FinishedWithin(program string, n int) bool {
	pos := rr.Position(program)
	return pos > 0 && pos <= n
}
