package models

import (
	"errors"
	"fmt"
	"strings"
)

// Custom errors
var (
	ErrInvalidRecord     = errors.New("invalid horse record")
	ErrInsufficientField = errors.New("insufficient field")
	ErrNumericDegenerate = errors.New("numeric degenerate computation")
	ErrEmptyField        = errors.New("no valid horses in field")
	ErrInvalidOdds       = errors.New("invalid odds")
)

// InvalidRecordError describes a horse record that cannot be scored even with neutral defaults
type InvalidRecordError struct {
	Index         int
	ProgramNumber string
	Problems      []string
}

// Error implements the error interface
func (e *InvalidRecordError) Error() string {
	label := e.ProgramNumber
	if label == "" {
		label = "?"
	}
	return fmt.Sprintf("%s: entry %d (#%s): %s", ErrInvalidRecord, e.Index, label, strings.Join(e.Problems, "; "))
}

// Unwrap allows errors.Is(err, ErrInvalidRecord)
func (e *InvalidRecordError) Unwrap() error {
	return ErrInvalidRecord
}
