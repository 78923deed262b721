package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/labsheet/internal/config"
)

// addOutputFlag adds the -o/--output listing format flag. An unset flag
// falls back to the output setting.
func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", "", "Output format (table|json|yaml)")
	AddFlagValidation(cmd, "output", func(format string) error {
		if format == "" {
			return nil
		}
		return ValidateFormatWithSuggestion(format, config.OutputFormats)
	})
}

// outputFormat returns the flag value or the configured default.
func outputFormat(flagValue string, settings *config.Settings) string {
	if flagValue != "" {
		return strings.ToLower(flagValue)
	}
	if settings != nil && settings.Output != "" {
		return settings.Output
	}
	return config.OutputTable
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(flagName)
	}
	if flag == nil {
		return
	}

	// Store original value setter
	originalSet := flag.Value.Set

	// Create wrapper that validates
	flag.Value = &validatingValue{
		Value:       flag.Value,
		validator:   validator,
		originalSet: originalSet,
	}
}

type validatingValue struct {
	pflag.Value
	validator   func(string) error
	originalSet func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.originalSet(val)
}

// ValidateFormatWithSuggestion accepts value when it is one of allowed
// (case-insensitive) and otherwise names the closest allowed value.
func ValidateFormatWithSuggestion(value string, allowed []string) error {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}

	msg := fmt.Sprintf("invalid value %q, must be one of: %s", value, strings.Join(allowed, ", "))
	if best := closest(strings.ToLower(value), allowed); best != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", best)
	}
	return fmt.Errorf("%s", msg)
}

// closest returns the allowed value within edit distance 2 of value, if any.
func closest(value string, allowed []string) string {
	best, bestDist := "", 3
	for _, a := range allowed {
		if d := editDistance(value, strings.ToLower(a)); d < bestDist {
			best, bestDist = a, d
		}
	}
	return best
}

func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// ValidateFileExists checks that an optional file flag points at a file.
func ValidateFileExists(filename string) error {
	if filename == "" {
		return nil // Empty is valid for optional files
	}

	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filename)
	}
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", filename, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", filename)
	}

	return nil
}
