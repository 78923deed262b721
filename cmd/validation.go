package cmd

import (
	"fmt"
	"strconv"

	"github.com/conneroisu/labsheet/internal/profile"
	"github.com/conneroisu/labsheet/internal/validation"
)

// validateDirFlag checks an optional directory flag. Empty means "use the
// default" and is always accepted.
func validateDirFlag(dir string) error {
	if dir == "" {
		return nil
	}
	return validation.ValidatePath(dir)
}

// validateSheetNumberFlag checks a sheet number flag. Zero means unset.
func validateSheetNumberFlag(raw string) error {
	if n, err := strconv.Atoi(raw); err == nil && n == 0 {
		return nil
	}
	if _, r := validation.ParseSheetNumber(raw); !r.Valid {
		return fmt.Errorf("%s", r.Reason)
	}
	return nil
}

// validateModuleCodeArg checks a module code given as a positional argument.
func validateModuleCodeArg(code string) error {
	if r := validation.ValidateModuleCode(code); !r.Valid {
		return r.Err("module code")
	}
	return nil
}

// validateSheetTypeFlag accepts any known sheet type in any case.
func validateSheetTypeFlag(sheetType string) error {
	normalized := validation.NormalizeSheetType(sheetType)
	for _, known := range profile.SheetTypes {
		if normalized == known {
			return nil
		}
	}
	return ValidateFormatWithSuggestion(sheetType, profile.SheetTypes)
}

// validateArguments checks positional module codes.
func validateArguments(args []string) error {
	for _, arg := range args {
		if err := validateModuleCodeArg(arg); err != nil {
			return fmt.Errorf("invalid argument '%s': %w", arg, err)
		}
	}
	return nil
}
