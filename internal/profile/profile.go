// Package profile owns the persisted user configuration: who the student is,
// which modules they take and how sheets for each module are produced.
//
// The profile lives in a single JSON file inside a per-OS settings directory,
// next to an optional logo image. Files written by older releases are upgraded
// in memory on every load through an explicit version chain (see migrate.go);
// the file itself is only rewritten by Save.
package profile

import (
	"strings"

	lserrors "github.com/conneroisu/labsheet/internal/errors"
)

// SchemaVersion is the profile layout written by Save.
const SchemaVersion = 2

// DefaultTemplateID is used whenever a module's template cannot be resolved.
const DefaultTemplateID = "classic"

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Sheet types offered for a module.
const (
	SheetPractical  = "Practical"
	SheetLab        = "Lab"
	SheetWorksheet  = "Worksheet"
	SheetTutorial   = "Tutorial"
	SheetAssignment = "Assignment"
	SheetExercise   = "Exercise"
	SheetCustom     = "Custom"
)

// SheetTypes lists the sheet types in display order.
var SheetTypes = []string{
	SheetPractical,
	SheetLab,
	SheetWorksheet,
	SheetTutorial,
	SheetAssignment,
	SheetExercise,
	SheetCustom,
}

// Module is one course entry. Order within Profile.Modules is display order.
type Module struct {
	Name            string  `json:"name" yaml:"name"`
	Code            string  `json:"code" yaml:"code"`
	SheetType       string  `json:"sheet_type" yaml:"sheet_type"`
	CustomSheetType *string `json:"custom_sheet_type" yaml:"custom_sheet_type"`
	OutputPath      *string `json:"output_path" yaml:"output_path"`
	UseZeroPadding  bool    `json:"use_zero_padding" yaml:"use_zero_padding"`
	Template        string  `json:"template" yaml:"template"`
}

// Profile is the whole persisted configuration.
type Profile struct {
	SchemaVersion    int      `json:"schema_version" yaml:"schema_version"`
	StudentName      string   `json:"student_name" yaml:"student_name"`
	StudentID        string   `json:"student_id" yaml:"student_id"`
	Modules          []Module `json:"modules" yaml:"modules"`
	GlobalOutputPath string   `json:"global_output_path" yaml:"global_output_path"`
	Theme            string   `json:"theme" yaml:"theme"`
	DefaultTemplate  string   `json:"default_template" yaml:"default_template"`

	// LogoPath is resolved by the Store from the logo file's presence and is
	// never persisted. Empty means no logo.
	LogoPath string `json:"-" yaml:"logo_path,omitempty"`
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SheetTypeLabel is the word printed before the sheet number: the custom
// type for Custom modules, the sheet type otherwise.
func (m Module) SheetTypeLabel() string {
	if m.SheetType == SheetCustom {
		if custom := strings.TrimSpace(Deref(m.CustomSheetType)); custom != "" {
			return custom
		}
		return "Sheet"
	}
	if m.SheetType == "" {
		return SheetPractical
	}
	return m.SheetType
}

// Clone returns a deep copy of m.
func (m Module) Clone() Module {
	out := m
	if m.CustomSheetType != nil {
		v := *m.CustomSheetType
		out.CustomSheetType = &v
	}
	if m.OutputPath != nil {
		v := *m.OutputPath
		out.OutputPath = &v
	}
	return out
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	out.Modules = make([]Module, len(p.Modules))
	for i, m := range p.Modules {
		out.Modules[i] = m.Clone()
	}
	return &out
}

// HasLogo reports whether a logo was found when the profile was loaded.
func (p *Profile) HasLogo() bool {
	return p.LogoPath != ""
}

// OutputDirFor returns the module's own output path when set, the global
// output path otherwise. Existence is not checked here.
func (p *Profile) OutputDirFor(m Module) string {
	if dir := strings.TrimSpace(Deref(m.OutputPath)); dir != "" {
		return dir
	}
	return p.GlobalOutputPath
}

// ModuleIndex returns the index of the module with the given code
// (case-insensitive), or -1.
func (p *Profile) ModuleIndex(code string) int {
	for i, m := range p.Modules {
		if strings.EqualFold(m.Code, strings.TrimSpace(code)) {
			return i
		}
	}
	return -1
}

// ModuleByCode returns a copy of the module with the given code.
func (p *Profile) ModuleByCode(code string) (Module, bool) {
	i := p.ModuleIndex(code)
	if i < 0 {
		return Module{}, false
	}
	return p.Modules[i].Clone(), true
}

// AddModule appends m, keeping display order. Codes must be unique.
func (p *Profile) AddModule(m Module) error {
	if p.ModuleIndex(m.Code) >= 0 {
		return lserrors.NewValidationError(lserrors.ErrCodeDuplicateModule,
			"a module with this code already exists").WithModule(m.Code)
	}
	p.Modules = append(p.Modules, m)
	return nil
}

// ReplaceModule overwrites the module with the same code in place.
func (p *Profile) ReplaceModule(code string, m Module) error {
	i := p.ModuleIndex(code)
	if i < 0 {
		return lserrors.ErrModuleNotFound(code)
	}
	if j := p.ModuleIndex(m.Code); j >= 0 && j != i {
		return lserrors.NewValidationError(lserrors.ErrCodeDuplicateModule,
			"a module with this code already exists").WithModule(m.Code)
	}
	p.Modules[i] = m
	return nil
}

// RemoveModule deletes the module with the given code, preserving the order
// of the remaining modules.
func (p *Profile) RemoveModule(code string) error {
	i := p.ModuleIndex(code)
	if i < 0 {
		return lserrors.ErrModuleNotFound(code)
	}
	p.Modules = append(p.Modules[:i], p.Modules[i+1:]...)
	return nil
}
