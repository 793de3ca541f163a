// Package config provides configuration management for the Peloton application.
package config

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/yourusername/peloton/internal/models"
	"github.com/yourusername/peloton/internal/scoring"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("category", validateCategory)
	_ = v.RegisterValidation("eventclass", validateEventClass)
	_ = v.RegisterValidation("cronspec", validateCronSpec)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
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

// validateCategory validates a rider category name
func validateCategory(fl validator.FieldLevel) bool {
	cat, err := models.ParseCategory(fl.Field().String())
	return err == nil && cat != models.CategoryNone
}

// validateEventClass validates an event class name
func validateEventClass(fl validator.FieldLevel) bool {
	_, err := scoring.ParseEventClass(fl.Field().String())
	return err == nil
}

// validateCronSpec validates a standard five-field cron expression
func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.IsProduction() && cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	if cfg.Database.Enabled && cfg.Database.Port == 0 {
		return fmt.Errorf("database port is required when the database is enabled")
	}

	if cfg.DataSource.Type == "http" && cfg.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required for the http source")
	}

	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	total := 0
	for _, min := range cfg.Roster.Minima {
		total += min
	}
	if total > cfg.Roster.Size {
		return fmt.Errorf("roster minima sum to %d but roster size is %d", total, cfg.Roster.Size)
	}

	prev := 0
	for i, tier := range cfg.Breakaway.Tiers {
		if tier.MaxRank <= prev {
			return fmt.Errorf("breakaway tier %d max_rank %d must exceed %d", i, tier.MaxRank, prev)
		}
		prev = tier.MaxRank
	}

	if cfg.Schedule.Enabled && cfg.Schedule.RefreshCron == "" {
		return fmt.Errorf("schedule is enabled but refresh_cron is empty")
	}

	if cfg.Schedule.Enabled && len(cfg.Schedule.Events) == 0 {
		return fmt.Errorf("schedule is enabled but lists no events")
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
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "category":
			errMsg += fmt.Sprintf("- Field '%s' has unknown category '%v'\n", field, value)
		case "eventclass":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: one_day, grand_tour, stage_race\n", field)
		case "cronspec":
			errMsg += fmt.Sprintf("- Field '%s' is not a valid cron expression: '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
		}
		if isTestCredential(cfg.DataSource.APIKey) {
			return fmt.Errorf("production environment should not use a test data source API key")
		}
		if cfg.Simulation.Seed != 0 {
			return fmt.Errorf("production environment should not pin the simulation seed")
		}
	}

	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
