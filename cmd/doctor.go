package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/labsheet/internal/config"
	"github.com/conneroisu/labsheet/internal/docx"
	lserrors "github.com/conneroisu/labsheet/internal/errors"
	"github.com/conneroisu/labsheet/internal/profile"
	"github.com/conneroisu/labsheet/internal/theme"
	"github.com/conneroisu/labsheet/internal/validation"
	"github.com/conneroisu/labsheet/internal/version"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the saved configuration for problems",
	Long: `Check the saved configuration and everything generation depends on.

The doctor command looks at:

- The settings directory and whether it is writable
- The saved profile and whether every field is still valid
- The logo and whether it can be embedded in a document
- Output folders for the profile and each module
- Templates chosen by the profile and its modules

Examples:
  labsheet doctor               # Run every check
  labsheet doctor --verbose     # Include informational results
  labsheet doctor --fix         # Create missing output folders
  labsheet doctor -o json       # Output as JSON for tooling`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var (
	doctorVerbose bool
	doctorFix     bool
	doctorOutput  string
)

// Diagnostic statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
	StatusInfo    = "info"
)

// DiagnosticResult represents the result of a diagnostic check
type DiagnosticResult struct {
	Name        string                 `json:"name" yaml:"name"`
	Category    string                 `json:"category" yaml:"category"`
	Status      string                 `json:"status" yaml:"status"`
	Message     string                 `json:"message" yaml:"message"`
	Suggestion  string                 `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	AutoFixable bool                   `json:"auto_fixable" yaml:"auto_fixable"`
}

// DoctorReport represents the complete diagnostic report
type DoctorReport struct {
	Timestamp   time.Time          `json:"timestamp" yaml:"timestamp"`
	Environment map[string]string  `json:"environment" yaml:"environment"`
	Results     []DiagnosticResult `json:"results" yaml:"results"`
	Summary     ReportSummary      `json:"summary" yaml:"summary"`
}

// ReportSummary provides an overview of diagnostic results
type ReportSummary struct {
	Total    int `json:"total" yaml:"total"`
	OK       int `json:"ok" yaml:"ok"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Errors   int `json:"errors" yaml:"errors"`
	Info     int `json:"info" yaml:"info"`
}

// doctorCheck inspects one aspect of the installation. Checks may return
// several results, one per module for example.
type doctorCheck func(ctx context.Context, a *app, p *profile.Profile) []DiagnosticResult

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().BoolVarP(&doctorVerbose, "verbose", "v", false, "Show informational results too")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Create missing output folders")
	addOutputFlag(doctorCmd, &doctorOutput)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	report := &DoctorReport{
		Timestamp:   time.Now(),
		Environment: gatherEnvironmentInfo(a),
	}

	// A nil profile is passed on to the later checks, which skip themselves.
	p, _ := a.store.Load()

	checks := []doctorCheck{
		checkSettingsDir,
		checkProfile,
		checkLogo,
		checkOutputDirs,
		checkTemplates,
	}
	for _, check := range checks {
		report.Results = append(report.Results, check(ctx, a, p)...)
	}
	report.Summary = calculateSummary(report.Results)

	out := cmd.OutOrStdout()
	format := outputFormat(doctorOutput, a.settings)
	if format != config.OutputTable {
		if err := writeStructured(out, format, report); err != nil {
			return err
		}
	} else {
		styles := a.styles()
		fmt.Fprintln(out, styles.Title.Render("labsheet doctor"))
		for _, result := range report.Results {
			if !doctorVerbose && result.Status == StatusInfo {
				continue
			}
			displayResult(out, styles, result)
		}
		fmt.Fprintln(out)
		displaySummary(out, styles, report.Summary)
	}

	if report.Summary.Errors > 0 {
		return lserrors.NewConfigError(lserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("doctor found %d problem(s)", report.Summary.Errors), nil)
	}
	return nil
}

func gatherEnvironmentInfo(a *app) map[string]string {
	env := map[string]string{
		"os":          runtime.GOOS,
		"arch":        runtime.GOARCH,
		"go_version":  runtime.Version(),
		"version":     version.GetShortVersion(),
		"config_dir":  a.store.Dir(),
		"config_file": a.store.ConfigFile(),
	}
	if wd, err := os.Getwd(); err == nil {
		env["working_dir"] = wd
	}
	return env
}

func checkSettingsDir(_ context.Context, a *app, _ *profile.Profile) []DiagnosticResult {
	result := DiagnosticResult{
		Name:     "Settings directory",
		Category: "Configuration",
		Status:   StatusOK,
		Details:  map[string]interface{}{"path": a.store.Dir()},
	}

	if err := os.MkdirAll(a.store.Dir(), 0o755); err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot create %s: %v", a.store.Dir(), err)
		result.Suggestion = "Choose another directory with --config-dir or LABSHEET_CONFIG_DIR"
		return []DiagnosticResult{result}
	}

	probe, err := os.CreateTemp(a.store.Dir(), ".doctor-*")
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("%s is not writable", a.store.Dir())
		result.Suggestion = "Check the directory permissions"
		return []DiagnosticResult{result}
	}
	probe.Close()
	os.Remove(probe.Name())

	result.Message = "Settings directory is writable"
	return []DiagnosticResult{result}
}

func checkProfile(_ context.Context, a *app, p *profile.Profile) []DiagnosticResult {
	result := DiagnosticResult{
		Name:     "Profile",
		Category: "Configuration",
		Status:   StatusOK,
	}

	switch {
	case a.store.IsFirstRun():
		result.Status = StatusWarning
		result.Message = "No profile saved yet"
		result.Suggestion = "Run 'labsheet setup' to enter your details"
		return []DiagnosticResult{result}
	case p == nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("%s exists but cannot be read", a.store.ConfigFile())
		result.Suggestion = "Run 'labsheet setup' to write a fresh profile or 'labsheet config reset'"
		return []DiagnosticResult{result}
	}

	result.Details = map[string]interface{}{
		"schema_version": p.SchemaVersion,
		"modules":        len(p.Modules),
		"theme":          p.Theme,
	}
	if err := validation.ValidateProfile(p); err != nil {
		result.Status = StatusError
		result.Message = lserrors.FormatError(err)
		result.Suggestion = "Run 'labsheet setup --edit' to correct the profile"
		return []DiagnosticResult{result}
	}

	result.Message = fmt.Sprintf("Profile for %s (%s) is valid", p.StudentName, p.StudentID)
	results := []DiagnosticResult{result}
	if len(p.Modules) == 0 {
		results = append(results, DiagnosticResult{
			Name:       "Modules",
			Category:   "Configuration",
			Status:     StatusWarning,
			Message:    "No modules configured",
			Suggestion: "Add one with 'labsheet module add'",
		})
	}
	return results
}

func checkLogo(_ context.Context, a *app, p *profile.Profile) []DiagnosticResult {
	if p == nil {
		return nil
	}
	result := DiagnosticResult{
		Name:     "Logo",
		Category: "Documents",
		Status:   StatusOK,
	}

	logo, ok := a.store.LogoPath()
	if !ok {
		result.Status = StatusInfo
		result.Message = "No logo saved, sheets are generated without one"
		result.Suggestion = "Add one with 'labsheet config logo <image>'"
		return []DiagnosticResult{result}
	}
	result.Details = map[string]interface{}{"path": logo}

	data, err := os.ReadFile(logo)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot read logo: %v", err)
		return []DiagnosticResult{result}
	}
	if _, err := docx.New().AddImage(data, 1, 0); err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Logo cannot be embedded: %v", err)
		result.Suggestion = "Replace it with a PNG or JPEG using 'labsheet config logo <image>'"
		return []DiagnosticResult{result}
	}

	result.Message = "Logo can be embedded"
	return []DiagnosticResult{result}
}

func checkOutputDirs(_ context.Context, _ *app, p *profile.Profile) []DiagnosticResult {
	if p == nil {
		return nil
	}

	// Modules usually share the global folder; check each folder once.
	users := map[string][]string{p.GlobalOutputPath: nil}
	for _, m := range p.Modules {
		dir := p.OutputDirFor(m)
		users[dir] = append(users[dir], m.Code)
	}
	dirs := make([]string, 0, len(users))
	for dir := range users {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	results := make([]DiagnosticResult, 0, len(dirs))
	for _, dir := range dirs {
		results = append(results, checkOutputDir(dir, users[dir]))
	}
	return results
}

func checkOutputDir(dir string, modules []string) DiagnosticResult {
	result := DiagnosticResult{
		Name:     "Output folder " + filepath.Base(dir),
		Category: "Output",
		Status:   StatusOK,
		Details:  map[string]interface{}{"path": dir},
	}
	if len(modules) > 0 {
		result.Details["modules"] = strings.Join(modules, ", ")
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.AutoFixable = true
		if doctorFix {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				result.Status = StatusError
				result.Message = fmt.Sprintf("Cannot create %s: %v", dir, err)
				return result
			}
			result.Message = "Created " + dir
			return result
		}
		result.Status = StatusInfo
		result.Message = dir + " does not exist yet and is created on first use"
		result.Suggestion = "Run 'labsheet doctor --fix' to create it now"
	case err != nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot inspect %s: %v", dir, err)
	case !info.IsDir():
		result.Status = StatusError
		result.Message = dir + " is a file, not a folder"
		result.Suggestion = "Pick another folder with 'labsheet config output <folder>'"
	default:
		result.Message = dir + " exists"
	}
	return result
}

func checkTemplates(_ context.Context, a *app, p *profile.Profile) []DiagnosticResult {
	results := []DiagnosticResult{{
		Name:     "Templates",
		Category: "Documents",
		Status:   StatusInfo,
		Message:  fmt.Sprintf("%d templates registered: %s", a.registry.Count(), strings.Join(a.registry.IDs(), ", ")),
	}}
	if p == nil {
		return results
	}

	fonts := make(map[string]bool)
	inUse := map[string][]string{p.DefaultTemplate: nil}
	for _, m := range p.Modules {
		inUse[m.Template] = append(inUse[m.Template], m.Code)
	}
	ids := make([]string, 0, len(inUse))
	for id := range inUse {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		result := DiagnosticResult{
			Name:     "Template " + id,
			Category: "Documents",
			Status:   StatusOK,
		}
		if len(inUse[id]) > 0 {
			result.Details = map[string]interface{}{"modules": strings.Join(inUse[id], ", ")}
		}

		tmpl, ok := a.registry.Get(id)
		if !ok {
			result.Status = StatusWarning
			result.Message = fmt.Sprintf("Template %q is not installed, %s is used instead", id, profile.DefaultTemplateID)
			result.Suggestion = "Choose another with 'labsheet module set-template'"
			results = append(results, result)
			continue
		}
		for _, font := range tmpl.RequiredFonts() {
			fonts[font] = true
		}
		result.Message = tmpl.DisplayName() + " is available"
		results = append(results, result)
	}

	if len(fonts) > 0 {
		names := make([]string, 0, len(fonts))
		for font := range fonts {
			names = append(names, font)
		}
		sort.Strings(names)
		results = append(results, DiagnosticResult{
			Name:       "Fonts",
			Category:   "Documents",
			Status:     StatusInfo,
			Message:    "Documents use " + strings.Join(names, ", "),
			Suggestion: "Install these fonts for documents to look as intended",
		})
	}
	return results
}

func displayResult(out io.Writer, styles theme.Styles, result DiagnosticResult) {
	var icon string
	switch result.Status {
	case StatusOK:
		icon = styles.Success.Render("✓")
	case StatusWarning:
		icon = styles.Warning.Render("!")
	case StatusError:
		icon = styles.Error.Render("✗")
	default:
		icon = styles.Info.Render("i")
	}

	fmt.Fprintf(out, "%s %s: %s\n", icon, result.Name, result.Message)
	if result.Suggestion != "" {
		fmt.Fprintf(out, "    %s\n", styles.Muted.Render("→ "+result.Suggestion))
	}
}

func calculateSummary(results []DiagnosticResult) ReportSummary {
	summary := ReportSummary{Total: len(results)}

	for _, result := range results {
		switch result.Status {
		case StatusOK:
			summary.OK++
		case StatusWarning:
			summary.Warnings++
		case StatusError:
			summary.Errors++
		case StatusInfo:
			summary.Info++
		}
	}

	return summary
}

func displaySummary(out io.Writer, styles theme.Styles, summary ReportSummary) {
	fmt.Fprintf(out, "%s %d checks: %d ok, %d warnings, %d errors, %d info\n",
		styles.Label.Render("Summary"), summary.Total, summary.OK, summary.Warnings, summary.Errors, summary.Info)
}
