package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Register custom validation functions
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("transform", validateTransform)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// ValidateProfile validates a tuning profile on its own
func ValidateProfile(p Profile) error {
	cv := NewValidator()
	return cv.ValidateProfile(p)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional cross-field validations
	return validateCrossField(cfg)
}

// ValidateProfile validates a profile's tags and cross-field constraints
func (cv *CustomValidator) ValidateProfile(p Profile) error {
	if err := cv.validator.Struct(p); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return validateProfileCrossField(p)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateTransform validates the probability transform name
func validateTransform(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case TransformSoftmax, TransformPower:
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if err := validateProfileCrossField(cfg.Profile); err != nil {
		return err
	}

	if cfg.IsProduction() && cfg.App.LogLevel == "debug" {
		return fmt.Errorf("production environment should not log at debug level")
	}

	if cfg.Cache.Enabled && cfg.Cache.TTLSeconds == 0 {
		return fmt.Errorf("cache.ttl_seconds must be positive when the cache is enabled")
	}

	return nil
}

// validateProfileCrossField checks constraints spanning several profile sections
func validateProfileCrossField(p Profile) error {
	scoring := p.Scoring
	ceiling := scoring.CategoryMax.Sum() + p.AdjustmentCeiling()
	if ceiling > scoring.MaxBaseScore {
		return fmt.Errorf("max_base_score %.1f is below category maxima plus adjustment caps %.1f",
			scoring.MaxBaseScore, ceiling)
	}

	if p.Velocity.StrongCloserPoints > p.Velocity.MaxAdjustment ||
		p.Velocity.ModerateCloserPoints > p.Velocity.MaxAdjustment {
		return fmt.Errorf("velocity closer points cannot exceed velocity max_adjustment")
	}

	if err := validateKeywordsDisjoint(p.TripTrouble.Keywords); err != nil {
		return err
	}

	risk := p.Recommendation.Risk
	if risk.AggressiveMaxProbability > risk.ConservativeMinProbability {
		return fmt.Errorf("aggressive_max_probability cannot exceed conservative_min_probability")
	}
	if risk.AggressiveMinCost > 0 && risk.ConservativeMaxCost > risk.AggressiveMinCost {
		return fmt.Errorf("conservative_max_cost cannot exceed aggressive_min_cost")
	}

	rec := p.Recommendation
	if rec.ExactaMinField > rec.TrifectaMinField || rec.TrifectaMinField > rec.SuperfectaMinField {
		return fmt.Errorf("exotic minimum field sizes must not decrease with positions")
	}

	return nil
}

// validateKeywordsDisjoint checks that no keyword appears in more than one trip trouble set
func validateKeywordsDisjoint(tables KeywordTables) error {
	seen := make(map[string]string)
	sets := []struct {
		name     string
		keywords []string
	}{
		{"high", tables.High},
		{"medium", tables.Medium},
		{"low", tables.Low},
		{"caused", tables.Caused},
	}
	for _, set := range sets {
		for _, kw := range set.keywords {
			key := strings.ToLower(strings.TrimSpace(kw))
			if key == "" {
				return fmt.Errorf("trip trouble %s keywords contain an empty entry", set.name)
			}
			if prev, ok := seen[key]; ok && prev != set.name {
				return fmt.Errorf("trip trouble keyword %q appears in both %s and %s", kw, prev, set.name)
			}
			seen[key] = set.name
		}
	}
	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "gtfield", "ltefield":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: must satisfy %s %s\n", field, tag, fieldError.Param())
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "transform":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: softmax, power\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
