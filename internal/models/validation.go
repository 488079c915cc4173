package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata
var validate = validator.New()

// ValidateHorse checks that a record carries what every scorer needs for a neutral default
func ValidateHorse(index int, h *HorseRecord) error {
	if h == nil {
		return &InvalidRecordError{Index: index, Problems: []string{"record is nil"}}
	}
	err := validate.Struct(h)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &InvalidRecordError{Index: index, ProgramNumber: h.ProgramNumber, Problems: []string{err.Error()}}
	}
	problems := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		problems = append(problems, describeFieldError(fieldError))
	}
	return &InvalidRecordError{Index: index, ProgramNumber: strings.TrimSpace(h.ProgramNumber), Problems: problems}
}

// ValidateHeader checks the race header
func ValidateHeader(header *RaceHeader) error {
	if err := validate.Struct(header); err != nil {
		return fmt.Errorf("invalid race header: %w", err)
	}
	return nil
}

func describeFieldError(fieldError validator.FieldError) string {
	field := strings.TrimPrefix(fieldError.Namespace(), "HorseRecord.")
	switch fieldError.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s has invalid value '%v'", field, fieldError.Value())
	case "gte", "gt", "lte", "lt", "max", "min":
		return fmt.Sprintf("%s violates %s=%s (got %v)", field, fieldError.Tag(), fieldError.Param(), fieldError.Value())
	case "gtefield", "ltefield":
		return fmt.Sprintf("%s violates %s %s (got %v)", field, fieldError.Tag(), fieldError.Param(), fieldError.Value())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fieldError.Tag())
	}
}
