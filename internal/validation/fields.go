// Package validation checks the free-text fields collected by the setup and
// module forms. Every check is total: bad input yields a Result carrying the
// message to show the user, never a panic.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	lserrors "github.com/conneroisu/labsheet/internal/errors"
	"github.com/conneroisu/labsheet/internal/profile"
)

// Sheet numbers accepted by ValidateSheetNumber.
const (
	MinSheetNumber = 1
	MaxSheetNumber = 99
)

var moduleCodePattern = regexp.MustCompile(`(?i)^[A-Z]{2,4}-?\d{3,4}$`)

var (
	engineOnce sync.Once
	engine     *validator.Validate
)

func validate() *validator.Validate {
	engineOnce.Do(func() {
		engine = validator.New()
		// Registration only fails for an empty tag or nil func.
		_ = engine.RegisterValidation("modulecode", func(fl validator.FieldLevel) bool {
			return moduleCodePattern.MatchString(fl.Field().String())
		})
	})
	return engine
}

// Result is the outcome of a single field check.
type Result struct {
	Valid  bool
	Reason string
}

var passed = Result{Valid: true}

func invalid(reason string) Result {
	return Result{Valid: false, Reason: reason}
}

// Err returns nil for a valid result and a validation error otherwise.
func (r Result) Err(field string) error {
	if r.Valid {
		return nil
	}
	return lserrors.NewFieldValidationError(field, nil, r.Reason).ToLabsheetError()
}

// check runs tags against value and maps the first failing tag to its message.
func check(value interface{}, tags string, messages map[string]string) Result {
	err := validate().Var(value, tags)
	if err == nil {
		return passed
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, found := messages[verrs[0].Tag()]; found {
			return invalid(msg)
		}
		return invalid(fmt.Sprintf("failed %q check", verrs[0].Tag()))
	}
	return invalid(err.Error())
}

// ValidateName checks a student name: at least 2 characters once trimmed.
func ValidateName(name string) Result {
	return check(strings.TrimSpace(name), "required,min=2", map[string]string{
		"required": "Name cannot be empty",
		"min":      "Name is too short",
	})
}

// ValidateStudentID checks a student ID: at least 5 characters once trimmed
// and stripped of spaces.
func ValidateStudentID(id string) Result {
	if strings.TrimSpace(id) == "" {
		return invalid("Student ID cannot be empty")
	}
	compact := strings.ReplaceAll(strings.TrimSpace(id), " ", "")
	res := check(compact, "min=5", map[string]string{
		"min": "Student ID is too short",
	})
	if res.Valid && !fileNameSafe(compact) {
		return invalid(`Student ID cannot contain "/", "\" or ".."`)
	}
	return res
}

// fileNameSafe reports whether s can be part of a document file name
// without naming another directory.
func fileNameSafe(s string) bool {
	return !strings.ContainsAny(s, `/\`) && !strings.Contains(s, "..")
}

// ValidateModuleName checks a module name: at least 3 characters once trimmed.
func ValidateModuleName(name string) Result {
	return check(strings.TrimSpace(name), "required,min=3", map[string]string{
		"required": "Module name cannot be empty",
		"min":      "Module name is too short",
	})
}

var moduleCodeMessages = map[string]string{
	"required":   "Module code cannot be empty",
	"min":        "Module code is too short (minimum 4 characters)",
	"max":        "Module code is too long (maximum 10 characters)",
	"modulecode": "Module code format should be like: SE2052, CSC1234, or CS-2052",
}

// ValidateModuleCode checks a module code: 4 to 10 characters matching
// 2-4 letters, an optional hyphen and 3-4 digits, case-insensitively.
func ValidateModuleCode(code string) Result {
	return check(strings.TrimSpace(code), "required,min=4,max=10,modulecode", moduleCodeMessages)
}

// ValidateSheetNumber checks that n is within 1..99.
func ValidateSheetNumber(n int) Result {
	return check(n, fmt.Sprintf("min=%d,max=%d", MinSheetNumber, MaxSheetNumber), map[string]string{
		"min": "Sheet number should be between 1 and 99",
		"max": "Sheet number should be between 1 and 99",
	})
}

// ParseSheetNumber parses and checks a sheet number typed by the user.
func ParseSheetNumber(raw string) (int, Result) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalid("Sheet number must be a valid number")
	}
	return n, ValidateSheetNumber(n)
}

// ValidateSheetType checks the sheet type against the known set and that a
// custom label is given exactly when the type is Custom.
func ValidateSheetType(sheetType, custom string) Result {
	res := check(sheetType, "required,oneof="+strings.Join(profile.SheetTypes, " "), map[string]string{
		"required": "Sheet type cannot be empty",
		"oneof":    "Sheet type must be one of: " + strings.Join(profile.SheetTypes, ", "),
	})
	if !res.Valid {
		return res
	}

	custom = strings.TrimSpace(custom)
	switch {
	case sheetType == profile.SheetCustom && custom == "":
		return invalid("Please enter a custom sheet type")
	case sheetType != profile.SheetCustom && custom != "":
		return invalid("A custom sheet type can only be set when the sheet type is Custom")
	case !fileNameSafe(custom):
		return invalid(`Custom sheet type cannot contain "/", "\" or ".."`)
	}
	return passed
}

// ValidateTheme accepts "light" or "dark".
func ValidateTheme(theme string) Result {
	return check(theme, "required,oneof="+profile.ThemeLight+" "+profile.ThemeDark, map[string]string{
		"required": "Theme cannot be empty",
		"oneof":    "Theme must be light or dark",
	})
}

// ValidateModule checks every field of a module entry and reports all
// failures at once.
func ValidateModule(m profile.Module) error {
	var errs lserrors.ValidationErrorCollection

	if r := ValidateModuleName(m.Name); !r.Valid {
		errs.AddField("name", m.Name, r.Reason)
	}
	if r := ValidateModuleCode(m.Code); !r.Valid {
		errs.AddField("code", m.Code, r.Reason)
	}
	if r := ValidateSheetType(m.SheetType, profile.Deref(m.CustomSheetType)); !r.Valid {
		errs.AddField("sheet_type", m.SheetType, r.Reason)
	}
	if strings.TrimSpace(m.Template) == "" {
		errs.AddField("template", m.Template, "Template cannot be empty")
	}
	if m.OutputPath != nil {
		if err := ValidatePath(*m.OutputPath); err != nil {
			errs.AddField("output_path", *m.OutputPath, err.Error())
		}
	}

	if le := errs.ToLabsheetError(); le != nil {
		return le.WithModule(m.Code)
	}
	return nil
}

// ValidateProfile checks identity fields, the theme and every module.
func ValidateProfile(p *profile.Profile) error {
	if p == nil {
		return lserrors.NewValidationError(lserrors.ErrCodeValidationFailed, "profile is empty")
	}

	var errs lserrors.ValidationErrorCollection
	if r := ValidateName(p.StudentName); !r.Valid {
		errs.AddField("student_name", p.StudentName, r.Reason)
	}
	if r := ValidateStudentID(p.StudentID); !r.Valid {
		errs.AddField("student_id", p.StudentID, r.Reason)
	}
	if p.Theme != "" {
		if r := ValidateTheme(p.Theme); !r.Valid {
			errs.AddField("theme", p.Theme, r.Reason)
		}
	}
	if le := errs.ToLabsheetError(); le != nil {
		return le
	}

	seen := make(map[string]bool, len(p.Modules))
	for _, m := range p.Modules {
		if err := ValidateModule(m); err != nil {
			return err
		}
		code := NormalizeModuleCode(m.Code)
		if seen[code] {
			return lserrors.NewValidationError(lserrors.ErrCodeDuplicateModule,
				"a module with this code already exists").WithModule(m.Code)
		}
		seen[code] = true
	}
	return nil
}

// NormalizeModuleCode trims and upper-cases a module code.
func NormalizeModuleCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeSheetType maps a sheet type typed in any case onto its canonical
// spelling ("lab" becomes "Lab"). Unknown types are returned title-cased.
func NormalizeSheetType(sheetType string) string {
	sheetType = strings.TrimSpace(sheetType)
	for _, known := range profile.SheetTypes {
		if strings.EqualFold(known, sheetType) {
			return known
		}
	}
	return cases.Title(language.English).String(sheetType)
}
