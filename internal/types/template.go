// Package types provides common type definitions used throughout labsheet.
// This package contains shared types to avoid circular dependencies between
// the registry, the templates and the generator.
package types

import "context"

// SheetParams is the common input every document template consumes. All
// string fields are expected to be validated and trimmed by the caller.
type SheetParams struct {
	// StudentName is printed on the sheet as entered during setup
	StudentName string
	// StudentID is printed on the sheet and used in the output filename
	StudentID string
	// ModuleName is the human readable module title
	ModuleName string
	// ModuleCode is the upper-cased module code, e.g. "SE2052"
	ModuleCode string
	// SheetLabel is the heading combining type and number, e.g. "Lab 01"
	SheetLabel string
	// LogoPath points at the logo image; empty means no logo
	LogoPath string
}

// Template renders one document layout variant from SheetParams.
type Template interface {
	// ID is the registry key stored in profiles, e.g. "classic"
	ID() string
	// DisplayName is shown in selection lists
	DisplayName() string
	// Description explains the layout in one sentence
	Description() string
	// RequiredFonts lists fonts the layout expects to be installed
	RequiredFonts() []string
	// RequiresLogo reports whether the caller must block generation without a logo
	RequiresLogo() bool
	// Generate writes exactly one document into outputDir and returns its filename.
	// An empty outputDir means the current working directory.
	Generate(ctx context.Context, params SheetParams, outputDir string) (string, error)
}
