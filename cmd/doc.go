// Package cmd provides the command-line interface for labsheet.
//
// This package implements all CLI commands using the Cobra framework. Every
// command builds its services through newApp, so flag and settings changes
// always apply.
//
// # Available Commands
//
//   - setup: Enter or edit student details, logo, output folder and modules
//   - generate: Create one or more lab sheet documents for a module
//   - module: List, add and remove modules or change their template
//   - templates: List the available document layouts
//   - config: Show, reset and change parts of the saved profile
//   - doctor: Check the configuration for problems
//   - version: Print build information
//
// # Command Examples
//
//	// First run
//	labsheet setup
//
//	// Create "Practical 03" for a module
//	labsheet generate SE2052 --number 3
//
//	// Create sheets 1 to 10 at once
//	labsheet generate SE2052 -n 1 --to 10
//
//	// List modules as JSON
//	labsheet module list -o json
//
// # Settings
//
// Application settings come from several sources in order of precedence:
//
//  1. Command-line flags (--config-dir, --log-level, --log-format)
//  2. Environment variables (LABSHEET_CONFIG_DIR, LABSHEET_LOG_LEVEL, ...)
//  3. Settings file (--settings, LABSHEET_SETTINGS_FILE or .labsheet.yml)
//  4. Default values
//
// Settings only control where the profile lives and how the CLI behaves.
// The profile itself (student, modules, theme, templates) is managed by the
// setup, module and config commands.
//
// # Error Handling
//
// Commands return structured errors from internal/errors. Execute prints
// them once with FormatError and interrupts (Ctrl+C) cancel the command
// context.
package cmd
