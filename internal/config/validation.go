package config

import (
	"fmt"
	"strings"

	"github.com/conneroisu/labsheet/internal/validation"
)

// ValidationError represents a settings validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of settings validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// Summary joins the error messages on one line.
func (vr *ValidationResult) Summary() string {
	parts := make([]string, 0, len(vr.Errors))
	for _, err := range vr.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(parts, "; ")
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Settings errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    - %s\n", suggestion))
			}
		}
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Settings warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("    - %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateSettings checks every setting and collects all problems.
func ValidateSettings(s *Settings) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	if !contains(LogLevels, s.LogLevel) {
		result.Errors = append(result.Errors, ValidationError{
			Field:       KeyLogLevel,
			Value:       s.LogLevel,
			Message:     fmt.Sprintf("unknown log level %q", s.LogLevel),
			Suggestions: []string{"Use one of: " + strings.Join(LogLevels, ", ")},
		})
	}

	if !contains(LogFormats, s.LogFormat) {
		result.Errors = append(result.Errors, ValidationError{
			Field:       KeyLogFormat,
			Value:       s.LogFormat,
			Message:     fmt.Sprintf("unknown log format %q", s.LogFormat),
			Suggestions: []string{"Use one of: " + strings.Join(LogFormats, ", ")},
		})
	}

	if !contains(OutputFormats, s.Output) {
		result.Errors = append(result.Errors, ValidationError{
			Field:       KeyOutput,
			Value:       s.Output,
			Message:     fmt.Sprintf("unknown output format %q", s.Output),
			Suggestions: []string{"Use one of: " + strings.Join(OutputFormats, ", ")},
		})
	}

	if s.ConfigDir != "" {
		if err := validation.ValidatePath(s.ConfigDir); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   KeyConfigDir,
				Value:   s.ConfigDir,
				Message: err.Error(),
				Suggestions: []string{
					"Leave config_dir empty to use the platform settings directory",
				},
			})
		}
	}

	switch {
	case s.Parallel < 1:
		result.Errors = append(result.Errors, ValidationError{
			Field:       KeyParallel,
			Value:       s.Parallel,
			Message:     "parallel must be at least 1",
			Suggestions: []string{"Use 1 to generate sheets one at a time"},
		})
	case s.Parallel > 16:
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       KeyParallel,
			Value:       s.Parallel,
			Message:     "more than 16 parallel jobs rarely helps",
			Suggestions: []string{"Sheets are small; 4 is usually enough"},
		})
	}

	result.Valid = !result.HasErrors()

	return result
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
