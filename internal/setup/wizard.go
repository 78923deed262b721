// Package setup implements the interactive first-run and edit wizard that
// collects the student's identity, logo and module list.
package setup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/conneroisu/labsheet/internal/profile"
	"github.com/conneroisu/labsheet/internal/theme"
	"github.com/conneroisu/labsheet/internal/validation"
)

// ErrInputClosed is returned when the input ends before the wizard finishes.
var ErrInputClosed = errors.New("setup aborted: input closed")

// Outcome is what the wizard collected. LogoSource is empty when the logo
// should be left as it is.
type Outcome struct {
	Profile    *profile.Profile
	LogoSource string
}

// Wizard walks the user through the profile fields, re-prompting on
// invalid input.
type Wizard struct {
	reader           *bufio.Reader
	out              io.Writer
	styles           theme.Styles
	existing         *profile.Profile
	templates        []string
	defaultOutputDir string
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithExisting pre-fills every prompt from p (edit mode).
func WithExisting(p *profile.Profile) Option {
	return func(w *Wizard) { w.existing = p.Clone() }
}

// WithTemplates sets the template ids offered for modules.
func WithTemplates(ids []string) Option {
	return func(w *Wizard) { w.templates = append([]string(nil), ids...) }
}

// WithStyles sets the styles used for headings and errors.
func WithStyles(s theme.Styles) Option {
	return func(w *Wizard) { w.styles = s }
}

// WithDefaultOutputDir sets the output folder suggested on first run.
func WithDefaultOutputDir(dir string) Option {
	return func(w *Wizard) { w.defaultOutputDir = dir }
}

// NewWizard creates a wizard reading answers from in and printing prompts to out.
func NewWizard(in io.Reader, out io.Writer, opts ...Option) *Wizard {
	w := &Wizard{
		reader:           bufio.NewReader(in),
		out:              out,
		styles:           theme.DefaultStyles(),
		templates:        []string{profile.DefaultTemplateID},
		defaultOutputDir: profile.DefaultOutputDir(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes the wizard.
func (w *Wizard) Run() (*Outcome, error) {
	p := &profile.Profile{
		SchemaVersion:    profile.SchemaVersion,
		Theme:            profile.ThemeLight,
		DefaultTemplate:  profile.DefaultTemplateID,
		GlobalOutputPath: w.defaultOutputDir,
	}
	if w.existing != nil {
		p = w.existing.Clone()
		p.SchemaVersion = profile.SchemaVersion
	}

	w.println(w.styles.Title.Render("Lab Sheet Generator setup"))
	if w.existing != nil {
		w.println(w.styles.Muted.Render("Press enter to keep the value in brackets."))
	} else {
		w.println(w.styles.Muted.Render("Let's set up your information."))
	}
	w.println("")

	var err error
	if p.StudentName, err = w.askValidated("Student name", p.StudentName, validation.ValidateName); err != nil {
		return nil, err
	}
	if p.StudentID, err = w.askValidated("Student ID", p.StudentID, validation.ValidateStudentID); err != nil {
		return nil, err
	}

	logo, err := w.askLogo(p.HasLogo())
	if err != nil {
		return nil, err
	}

	if p.GlobalOutputPath, err = w.askOutputDir("Output folder", p.GlobalOutputPath, false); err != nil {
		return nil, err
	}

	if p.DefaultTemplate, err = w.askChoice("Default template", w.templates, w.defaultTemplate(p.DefaultTemplate)); err != nil {
		return nil, err
	}

	if p.Modules, err = w.askModules(p); err != nil {
		return nil, err
	}

	if err := validation.ValidateProfile(p); err != nil {
		return nil, err
	}

	w.println("")
	w.println(w.styles.Success.Render("Your configuration is ready."))

	return &Outcome{Profile: p, LogoSource: logo}, nil
}

func (w *Wizard) defaultTemplate(current string) string {
	for _, id := range w.templates {
		if id == current {
			return current
		}
	}
	if len(w.templates) > 0 {
		return w.templates[0]
	}
	return profile.DefaultTemplateID
}

func (w *Wizard) askLogo(hasLogo bool) (string, error) {
	prompt := "Logo image (blank for none)"
	if hasLogo {
		prompt = "Logo image (blank to keep current)"
	}

	for {
		path, err := w.askString(prompt, "")
		if err != nil {
			return "", err
		}

		if path == "" {
			if hasLogo {
				return "", nil
			}
			ok, err := w.askBool("You haven't selected a logo. Continue without logo?", true)
			if err != nil {
				return "", err
			}
			if ok {
				return "", nil
			}
			continue
		}

		if err := validation.ValidateFileExtension(path, validation.LogoExtensions); err != nil {
			w.fail(err.Error())
			continue
		}
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			w.fail("Logo file not found: " + path)
			continue
		}
		return path, nil
	}
}

func (w *Wizard) askOutputDir(prompt, current string, optional bool) (string, error) {
	for {
		dir, err := w.askString(prompt, current)
		if err != nil {
			return "", err
		}
		if dir == "" && optional {
			return "", nil
		}
		if err := validation.ValidatePath(dir); err != nil {
			w.fail(err.Error())
			continue
		}
		return dir, nil
	}
}

func (w *Wizard) askModules(p *profile.Profile) ([]profile.Module, error) {
	var modules []profile.Module

	if len(p.Modules) > 0 {
		w.println("")
		w.println(w.styles.Label.Render("Current modules:"))
		for _, m := range p.Modules {
			w.println("  " + describeModule(m))
		}
		keep, err := w.askBool("Keep these modules", true)
		if err != nil {
			return nil, err
		}
		if keep {
			modules = append(modules, p.Modules...)
		}
	}

	for {
		add, err := w.askBool("Add a module", len(modules) == 0)
		if err != nil {
			return nil, err
		}
		if add {
			m, err := w.askModule(modules, p.DefaultTemplate)
			if err != nil {
				return nil, err
			}
			modules = append(modules, m)
			w.println(w.styles.Success.Render("Added") + " " + describeModule(m))
			continue
		}

		if len(modules) == 0 {
			ok, err := w.askBool("You haven't added any modules. Continue anyway?", false)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		return modules, nil
	}
}

func (w *Wizard) askModule(existing []profile.Module, defaultTemplate string) (profile.Module, error) {
	m := profile.Module{UseZeroPadding: true, Template: defaultTemplate}
	var err error

	if m.Name, err = w.askValidated("  Module name", "", validation.ValidateModuleName); err != nil {
		return m, err
	}

	for {
		code, err := w.askValidated("  Module code", "", validation.ValidateModuleCode)
		if err != nil {
			return m, err
		}
		code = validation.NormalizeModuleCode(code)
		if hasCode(existing, code) {
			w.fail("A module with this code already exists")
			continue
		}
		m.Code = code
		break
	}

	if m.SheetType, err = w.askChoice("  Sheet type", profile.SheetTypes, profile.SheetPractical); err != nil {
		return m, err
	}
	if m.SheetType == profile.SheetCustom {
		custom, err := w.askValidated("  Custom sheet type", "", func(s string) validation.Result {
			return validation.ValidateSheetType(profile.SheetCustom, s)
		})
		if err != nil {
			return m, err
		}
		m.CustomSheetType = profile.StringPtr(custom)
	}

	if m.UseZeroPadding, err = w.askBool("  Zero-pad sheet numbers (01, 02, ...)", true); err != nil {
		return m, err
	}

	out, err := w.askOutputDir("  Output folder (blank for the global folder)", "", true)
	if err != nil {
		return m, err
	}
	m.OutputPath = profile.StringPtr(out)

	if m.Template, err = w.askChoice("  Template", w.templates, w.defaultTemplate(defaultTemplate)); err != nil {
		return m, err
	}

	return m, nil
}

func hasCode(modules []profile.Module, code string) bool {
	for _, m := range modules {
		if strings.EqualFold(m.Code, code) {
			return true
		}
	}
	return false
}

func describeModule(m profile.Module) string {
	text := fmt.Sprintf("%s (%s) - %s", m.Name, m.Code, m.SheetTypeLabel())
	if dir := profile.Deref(m.OutputPath); dir != "" {
		text += " -> " + dir
	}
	return text
}

// Helper methods for user interaction

func (w *Wizard) println(s string) {
	fmt.Fprintln(w.out, s)
}

func (w *Wizard) fail(msg string) {
	w.println(w.styles.Error.Render("✗ " + msg))
}

func (w *Wizard) readLine() (string, error) {
	input, err := w.reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		if err == io.EOF {
			return "", ErrInputClosed
		}
		return "", err
	}
	return validation.SanitizeInput(input), nil
}

func (w *Wizard) askString(prompt, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Fprintf(w.out, "%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Fprintf(w.out, "%s: ", prompt)
	}

	input, err := w.readLine()
	if err != nil {
		return "", err
	}
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

func (w *Wizard) askValidated(prompt, defaultValue string, check func(string) validation.Result) (string, error) {
	for {
		input, err := w.askString(prompt, defaultValue)
		if err != nil {
			return "", err
		}
		if r := check(input); !r.Valid {
			w.fail(r.Reason)
			continue
		}
		return input, nil
	}
}

func (w *Wizard) askBool(prompt string, defaultValue bool) (bool, error) {
	defaultStr := "y/N"
	if defaultValue {
		defaultStr = "Y/n"
	}

	for {
		fmt.Fprintf(w.out, "%s [%s]: ", prompt, defaultStr)

		input, err := w.readLine()
		if err != nil {
			return false, err
		}

		switch strings.ToLower(input) {
		case "":
			return defaultValue, nil
		case "y", "yes", "true":
			return true, nil
		case "n", "no", "false":
			return false, nil
		}
		w.fail("Please answer yes or no")
	}
}

func (w *Wizard) askChoice(prompt string, choices []string, defaultValue string) (string, error) {
	for {
		fmt.Fprintf(w.out, "%s [%s] (options: %s): ", prompt, defaultValue, strings.Join(choices, ", "))

		input, err := w.readLine()
		if err != nil {
			return "", err
		}
		if input == "" {
			return defaultValue, nil
		}

		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(choices) {
			return choices[n-1], nil
		}
		for _, choice := range choices {
			if strings.EqualFold(input, choice) {
				return choice, nil
			}
		}

		w.fail("Invalid choice. Please select from: " + strings.Join(choices, ", "))
	}
}
