// Package datasource loads race snapshots from files, directories and HTTP endpoints.
package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/yourusername/clever-handicapper/internal/models"
)

// Source lists race snapshots from one provider
type Source interface {
	// Races returns every snapshot the source holds, in a stable order
	Races(ctx context.Context) ([]*models.RaceSnapshot, error)

	// Name returns the name of the source
	Name() string
}

// SourceError represents errors from source operations
type SourceError struct {
	Source  string // Source name
	Code    string // Error code (e.g., "not_found")
	Message string
	Err     error
}

func (e SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeNotFound     = "not_found"
	ErrCodeInvalidData  = "invalid_data"
	ErrCodeNetworkError = "network_error"
	ErrCodeServerError  = "server_error"
)

var (
	ErrNotFound     = errors.New("data not found")
	ErrInvalidData  = errors.New("invalid data format")
	ErrNetworkError = errors.New("network error")
	ErrServerError  = errors.New("server error")
)

// NewSourceError creates a new source error
func NewSourceError(source, code, message string, err error) SourceError {
	return SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// DecodeSnapshot reads one race snapshot as JSON
func DecodeSnapshot(r io.Reader) (*models.RaceSnapshot, error) {
	var snapshot models.RaceSnapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return &snapshot, nil
}

// LoadSnapshot reads a race snapshot JSON file
func LoadSnapshot(path string) (*models.RaceSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewSourceError("file", ErrCodeNotFound, path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	snapshot, err := DecodeSnapshot(f)
	if err != nil {
		return nil, NewSourceError("file", ErrCodeInvalidData, path, err)
	}
	return snapshot, nil
}
