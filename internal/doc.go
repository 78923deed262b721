// Package internal contains the core implementation packages for labsheet.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - config: CLI settings loaded through viper with validation
//   - profile: The persisted student profile, its store and schema migrations
//   - validation: Field and path validators shared by the wizard and commands
//   - setup: Interactive wizard that builds or edits a profile
//   - registry: Template registry with default-template fallback
//   - templates: Data-driven document layouts and the built-in templates
//   - docx: Minimal WordprocessingML writer used by the templates
//   - generator: Turns requests into documents, one at a time or in batches
//   - watcher: Debounced file system monitoring for the settings directory
//   - theme: Light and dark terminal styles
//   - errors, logging, version, types: Shared plumbing
//
// # Inter-Package Communication
//
//   - The profile store hands out copies; commands save changes explicitly
//   - The generator resolves templates through the registry and never touches
//     the profile store
//   - Templates receive a SheetParams snapshot and write exactly one file
//   - The store's Watch reloads the profile through the watcher package
//
// For detailed documentation, see the individual package documentation.
package internal
