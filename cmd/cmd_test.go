package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lserrors "github.com/conneroisu/labsheet/internal/errors"
	"github.com/conneroisu/labsheet/internal/generator"
	"github.com/conneroisu/labsheet/internal/profile"
	"github.com/conneroisu/labsheet/internal/registry"
	"github.com/conneroisu/labsheet/internal/theme"
	"github.com/conneroisu/labsheet/internal/version"
)

// resetFlags puts every flag of cmd and its children back to its default so
// one test's flags do not leak into the next.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()

	reset := func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue), "resetting --%s", f.Name)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)

	for _, child := range cmd.Commands() {
		resetFlags(t, child)
	}
}

// execute runs the CLI with args and stdin and returns everything written
// to stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	resetFlags(t, rootCmd)
	settingsFile = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

type env struct {
	configDir string
	outputDir string
}

func newEnv(t *testing.T) env {
	t.Helper()
	return env{configDir: t.TempDir(), outputDir: filepath.Join(t.TempDir(), "sheets")}
}

// run executes a labsheet command against this environment's settings dir.
func (e env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return execute(t, stdin, append([]string{"--config-dir", e.configDir}, args...)...)
}

func (e env) store(t *testing.T) *profile.Store {
	t.Helper()
	store, err := profile.NewStore(e.configDir)
	require.NoError(t, err)
	return store
}

func (e env) load(t *testing.T) *profile.Profile {
	t.Helper()
	p, ok := e.store(t).Load()
	require.True(t, ok, "profile should load")
	return p
}

// seed saves a profile with one Lab module.
func (e env) seed(t *testing.T) *profile.Profile {
	t.Helper()
	p := &profile.Profile{
		SchemaVersion:    profile.SchemaVersion,
		StudentName:      "Jane Doe",
		StudentID:        "IT21234567",
		GlobalOutputPath: e.outputDir,
		Theme:            profile.ThemeLight,
		DefaultTemplate:  profile.DefaultTemplateID,
		Modules: []profile.Module{{
			Name:           "Software Engineering",
			Code:           "SE2052",
			SheetType:      profile.SheetLab,
			UseZeroPadding: true,
			Template:       profile.DefaultTemplateID,
		}},
	}
	require.NoError(t, e.store(t).Save(p))
	return p
}

func hasCode(err error, code string) bool {
	le, ok := err.(*lserrors.LabsheetError)
	return ok && le.Code == code
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestSummaryWithoutProfile(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome to labsheet")
	assert.Contains(t, out, "labsheet setup")
}

func TestSummaryWithProfile(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	out, err := e.run(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe (IT21234567)")
	assert.Contains(t, out, "✗ none")
	assert.Contains(t, out, "SE2052")
	assert.Contains(t, out, "Software Engineering")
}

func TestSetupCommand(t *testing.T) {
	e := newEnv(t)

	answers := strings.Join([]string{
		"Jane Doe",
		"IT21234567",
		"", // no logo
		"", // continue without logo
		e.outputDir,
		"", // default template
		"", // add a module
		"Software Engineering",
		"se2052",
		"lab",
		"", // zero padding
		"", // module output folder
		"", // template
		"n",
	}, "\n") + "\n"

	out, err := e.run(t, answers, "setup")
	require.NoError(t, err)
	assert.Contains(t, out, "saved successfully")

	p := e.load(t)
	assert.Equal(t, "Jane Doe", p.StudentName)
	assert.Equal(t, e.outputDir, p.GlobalOutputPath)
	require.Len(t, p.Modules, 1)
	assert.Equal(t, "SE2052", p.Modules[0].Code)
	assert.Equal(t, profile.SheetLab, p.Modules[0].SheetType)
}

func TestSetupWarnsBeforeReplacing(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	// Input ends during the first prompt, so nothing is saved.
	out, err := e.run(t, "", "setup")
	require.Error(t, err)
	assert.Contains(t, out, "will be replaced")
	assert.Equal(t, "Jane Doe", e.load(t).StudentName)
}

func TestSetupEditRequiresProfile(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "", "setup", "--edit")
	require.Error(t, err)
	assert.True(t, hasCode(err, lserrors.ErrCodeConfigMissing))
}

func TestCommandsRequireProfile(t *testing.T) {
	commands := [][]string{
		{"generate", "SE2052", "-n", "1"},
		{"module", "list"},
		{"config", "show"},
	}
	for _, args := range commands {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			e := newEnv(t)
			_, err := e.run(t, "", args...)
			require.Error(t, err)
			assert.True(t, hasCode(err, lserrors.ErrCodeConfigMissing), "got %v", err)
		})
	}
}

func TestModuleCommands(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	out, err := e.run(t, "", "module", "add", "--name", "Data Structures", "--code", "ds1001", "--sheet-type", "tutorial")
	require.NoError(t, err)
	assert.Contains(t, out, "Data Structures (DS1001) - Tutorial")

	out, err = e.run(t, "", "module", "list", "-o", "json")
	require.NoError(t, err)
	var rows []moduleRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "SE2052", rows[0].Code)
	assert.Equal(t, "DS1001", rows[1].Code)
	assert.Equal(t, "Tutorial", rows[1].SheetType)
	assert.Equal(t, e.outputDir, rows[1].OutputDir)
	assert.True(t, rows[1].ZeroPadded)

	_, err = e.run(t, "", "module", "set-template", "ds1001", "sliit")
	require.NoError(t, err)
	m, ok := e.load(t).ModuleByCode("DS1001")
	require.True(t, ok)
	assert.Equal(t, "sliit", m.Template)

	_, err = e.run(t, "", "module", "remove", "SE2052")
	require.NoError(t, err)
	p := e.load(t)
	require.Len(t, p.Modules, 1)
	assert.Equal(t, "DS1001", p.Modules[0].Code)

	out, err = e.run(t, "", "module", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "DS1001")
	assert.NotContains(t, out, "SE2052")
}

func TestModuleAddErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{
			name: "duplicate code",
			args: []string{"--name", "Other", "--code", "se2052"},
			code: lserrors.ErrCodeDuplicateModule,
		},
		{
			name: "unknown template",
			args: []string{"--name", "Other", "--code", "OT1000", "--template", "fancy"},
			code: lserrors.ErrCodeTemplateNotFound,
		},
		{
			name: "custom type without custom sheet type",
			args: []string{"--name", "Other", "--code", "OT1000", "--custom-type", "Studio"},
			code: lserrors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.seed(t)

			_, err := e.run(t, "", append([]string{"module", "add"}, tt.args...)...)
			require.Error(t, err)
			assert.True(t, hasCode(err, tt.code), "got %v", err)
			assert.Len(t, e.load(t).Modules, 1)
		})
	}

	t.Run("invalid sheet type flag", func(t *testing.T) {
		e := newEnv(t)
		e.seed(t)

		_, err := e.run(t, "", "module", "add", "--name", "Other", "--code", "OT1000", "--sheet-type", "labb")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `did you mean "Lab"?`)
	})

	t.Run("missing required flag", func(t *testing.T) {
		e := newEnv(t)
		e.seed(t)

		_, err := e.run(t, "", "module", "add", "--name", "Other")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "code")
	})
}

func TestModuleRemoveUnknown(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	_, err := e.run(t, "", "module", "remove", "XX0000")
	require.Error(t, err)
	assert.True(t, hasCode(err, lserrors.ErrCodeModuleNotFound))
}

func TestGenerateSingleSheet(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	out, err := e.run(t, "", "generate", "se2052", "--number", "3")
	require.NoError(t, err)

	path := filepath.Join(e.outputDir, "Lab_03_IT21234567.docx")
	assert.FileExists(t, path)
	assert.Contains(t, out, "Lab 03")
	assert.Contains(t, out, "No logo configured")
}

func TestGenerateOutputOverride(t *testing.T) {
	e := newEnv(t)
	e.seed(t)
	dir := filepath.Join(t.TempDir(), "elsewhere")

	_, err := e.run(t, "", "generate", "SE2052", "-n", "12", "--output", dir, "--no-logo")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "Lab_12_IT21234567.docx"))
	assert.NoDirExists(t, e.outputDir)
}

func TestGenerateRange(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	out, err := e.run(t, "", "g", "SE2052", "-n", "1", "--to", "3", "-p", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "3 sheets created")

	for _, name := range []string{"Lab_01", "Lab_02", "Lab_03"} {
		assert.FileExists(t, filepath.Join(e.outputDir, name+"_IT21234567.docx"))
	}
}

func TestGenerateUnknownTemplateFallsBack(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	out, err := e.run(t, "", "generate", "SE2052", "-n", "1", "--template", "fancy")
	require.NoError(t, err)
	assert.Contains(t, out, `template "fancy" is not available`)
	assert.FileExists(t, filepath.Join(e.outputDir, "Lab_01_IT21234567.docx"))

	// The fallback only applies to this run.
	m, _ := e.load(t).ModuleByCode("SE2052")
	assert.Equal(t, profile.DefaultTemplateID, m.Template)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		code    string
		message string
	}{
		{
			name: "unknown module",
			args: []string{"generate", "XX0000", "-n", "1"},
			code: lserrors.ErrCodeModuleNotFound,
		},
		{
			name: "range end before start",
			args: []string{"generate", "SE2052", "-n", "5", "--to", "2"},
			code: lserrors.ErrCodeValidationFailed,
		},
		{
			name:    "number out of range",
			args:    []string{"generate", "SE2052", "-n", "100"},
			message: "number",
		},
		{
			name:    "number missing",
			args:    []string{"generate", "SE2052"},
			message: "number",
		},
		{
			name:    "bad module code argument",
			args:    []string{"generate", "SE 2052!", "-n", "1"},
			message: "invalid argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.seed(t)

			_, err := e.run(t, "", tt.args...)
			require.Error(t, err)
			if tt.code != "" {
				assert.True(t, hasCode(err, tt.code), "got %v", err)
			}
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
			assert.NoDirExists(t, e.outputDir)
		})
	}
}

func TestTemplatesCommand(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "", "templates", "-o", "json")
	require.NoError(t, err)

	var entries []registry.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
		assert.NotEmpty(t, entry.DisplayName)
		assert.NotEmpty(t, entry.Fonts)
	}
	assert.Equal(t, []string{"classic", "sliit"}, ids)

	out, err = e.run(t, "", "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "classic *")
	assert.Contains(t, out, "sliit")
}

func TestConfigShowAndPath(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	out, err := e.run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "IT21234567")

	out, err = e.run(t, "", "config", "show", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "student_name: Jane Doe")
	assert.Contains(t, out, "code: SE2052")

	out, err = e.run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.configDir, profile.ConfigFileName), strings.TrimSpace(out))
}

func TestConfigTheme(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	_, err := e.run(t, "", "config", "theme", "DARK")
	require.NoError(t, err)
	assert.Equal(t, profile.ThemeDark, e.load(t).Theme)

	_, err = e.run(t, "", "config", "theme", "sepia")
	require.Error(t, err)
	assert.Equal(t, profile.ThemeDark, e.load(t).Theme)
}

func TestConfigOutput(t *testing.T) {
	e := newEnv(t)
	e.seed(t)
	dir := filepath.Join(t.TempDir(), "labs")

	_, err := e.run(t, "", "config", "output", dir)
	require.NoError(t, err)
	assert.Equal(t, dir, e.load(t).GlobalOutputPath)

	_, err = e.run(t, "", "config", "output", "/etc/labs")
	require.Error(t, err)
	assert.Equal(t, dir, e.load(t).GlobalOutputPath)
}

func TestConfigLogo(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	src := filepath.Join(t.TempDir(), "crest.png")
	writePNG(t, src)

	_, err := e.run(t, "", "config", "logo", src)
	require.NoError(t, err)
	logo, ok := e.store(t).LogoPath()
	require.True(t, ok)
	assert.FileExists(t, logo)
	assert.True(t, e.load(t).HasLogo())

	out, err := e.run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, logo)

	// Sheets now carry the logo and no warning is printed.
	out, err = e.run(t, "", "generate", "SE2052", "-n", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "No logo configured")

	_, err = e.run(t, "", "config", "logo", filepath.Join(t.TempDir(), "crest.bmp"))
	require.Error(t, err)
	_, err = e.run(t, "", "config", "logo", filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
}

func TestConfigReset(t *testing.T) {
	e := newEnv(t)
	e.seed(t)

	out, err := e.run(t, "n\n", "config", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset cancelled")
	assert.False(t, e.store(t).IsFirstRun())

	out, err = e.run(t, "yes\n", "config", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration reset")
	assert.True(t, e.store(t).IsFirstRun())

	e.seed(t)
	_, err = e.run(t, "", "config", "reset", "--force")
	require.NoError(t, err)
	assert.True(t, e.store(t).IsFirstRun())
}

func TestDoctorCommand(t *testing.T) {
	t.Run("no profile", func(t *testing.T) {
		e := newEnv(t)

		out, err := e.run(t, "", "doctor")
		require.NoError(t, err)
		assert.Contains(t, out, "No profile saved yet")
	})

	t.Run("healthy profile", func(t *testing.T) {
		e := newEnv(t)
		e.seed(t)

		out, err := e.run(t, "", "doctor", "-o", "json")
		require.NoError(t, err)

		var report DoctorReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.Zero(t, report.Summary.Errors)
		assert.Equal(t, len(report.Results), report.Summary.Total)
		assert.Equal(t, e.configDir, report.Environment["config_dir"])
		assert.NoDirExists(t, e.outputDir)
	})

	t.Run("fix creates output folder", func(t *testing.T) {
		e := newEnv(t)
		e.seed(t)

		out, err := e.run(t, "", "doctor", "--fix", "--verbose")
		require.NoError(t, err)
		assert.Contains(t, out, "Created "+e.outputDir)
		assert.DirExists(t, e.outputDir)
	})

	t.Run("corrupt profile", func(t *testing.T) {
		e := newEnv(t)
		require.NoError(t, os.WriteFile(filepath.Join(e.configDir, profile.ConfigFileName), []byte("{not json"), 0o644))

		out, err := e.run(t, "", "doctor")
		require.Error(t, err)
		assert.Contains(t, out, "cannot be read")
	})

	t.Run("unknown module template", func(t *testing.T) {
		e := newEnv(t)
		p := e.seed(t)
		p.Modules[0].Template = "retired"
		require.NoError(t, e.store(t).Save(p))

		out, err := e.run(t, "", "doctor")
		require.NoError(t, err)
		assert.Contains(t, out, `Template "retired" is not installed`)
	})

	t.Run("output path is a file", func(t *testing.T) {
		e := newEnv(t)
		e.seed(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(e.outputDir), 0o755))
		require.NoError(t, os.WriteFile(e.outputDir, []byte("x"), 0o644))

		out, err := e.run(t, "", "doctor")
		require.Error(t, err)
		assert.Contains(t, out, "is a file, not a folder")
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.GetShortVersion(), strings.TrimSpace(out))

	out, err = execute(t, "", "version", "-f", "json")
	require.NoError(t, err)
	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info.GoVersion)

	_, err = execute(t, "", "version", "-f", "jsno")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "json"?`)
}

func TestPersistentFlagValidation(t *testing.T) {
	_, err := execute(t, "", "--log-level", "verbose", "templates")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")

	_, err = execute(t, "", "--log-format", "jsn", "templates")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "json"?`)

	_, err = execute(t, "", "--config-dir", "/proc/labsheet", "templates")
	require.Error(t, err)
}

type levelLogger struct {
	warns, errs []string
}

func (l *levelLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.errs = append(l.errs, err.Error())
}

func (l *levelLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.warns = append(l.warns, err.Error())
}

func TestReportError(t *testing.T) {
	ctx := context.Background()
	logger := &levelLogger{}
	var out bytes.Buffer

	reportError(ctx, &out, logger, lserrors.ErrModuleNotFound("XX9999"))
	reportError(ctx, &out, logger, lserrors.NewIOError(lserrors.ErrCodeWriteFailed, "cannot write", nil))

	assert.Len(t, logger.warns, 1, "validation errors are recoverable")
	assert.Len(t, logger.errs, 1)
	assert.Contains(t, out.String(), "Error:")
	assert.Contains(t, out.String(), "cannot write")
}

func TestPrintResultLogsFailures(t *testing.T) {
	logger := &levelLogger{}
	a := &app{errors: lserrors.NewErrorHandler(logger)}
	var out bytes.Buffer

	a.printResult(context.Background(), &out, theme.DefaultStyles(), generator.Result{
		SheetLabel: "Lab 02",
		Err:        lserrors.NewGenerationError(lserrors.ErrCodeWriteFailed, "cannot write document", nil),
	})
	a.printResult(context.Background(), &out, theme.DefaultStyles(), generator.Result{
		SheetLabel: "Lab 03",
		Path:       "/out/Lab_03_IT21234567.docx",
	})

	assert.Len(t, logger.errs, 1)
	assert.Empty(t, logger.warns)
	assert.Contains(t, out.String(), "Lab 02: cannot write document")
	assert.Contains(t, out.String(), "Lab 03 -> /out/Lab_03_IT21234567.docx")
}
