package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/labsheet/internal/config"
	lserrors "github.com/conneroisu/labsheet/internal/errors"
	"github.com/conneroisu/labsheet/internal/generator"
	"github.com/conneroisu/labsheet/internal/logging"
	"github.com/conneroisu/labsheet/internal/profile"
	"github.com/conneroisu/labsheet/internal/registry"
	"github.com/conneroisu/labsheet/internal/templates"
	"github.com/conneroisu/labsheet/internal/theme"
)

var settingsFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "labsheet",
	Short: "Generate formatted lab sheet documents from your saved details",
	Long: `labsheet records your student details and modules once and then
produces ready-to-use lab sheet documents (.docx) from them.

Quick Start:
  labsheet setup                      Enter your details and modules
  labsheet generate SE2052 -n 3       Create "Practical 03" for SE2052
  labsheet module list                Show your modules
  labsheet templates                  Show the available layouts

Running labsheet without a command prints a summary of your profile.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSummary,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(ctx, os.Stderr, errorLogger(), err)
	}
	return err
}

// reportError prints err once for the user and logs it at a level chosen
// by its category.
func reportError(ctx context.Context, w io.Writer, logger lserrors.Logger, err error) {
	fmt.Fprintln(w, theme.DefaultStyles().Error.Render("Error:"), lserrors.FormatError(err))
	lserrors.NewErrorHandler(logger).Handle(ctx, err)
}

// errorLogger follows the saved settings, falling back to the defaults
// when they cannot be loaded.
func errorLogger() logging.Logger {
	if settings, err := config.Load(); err == nil {
		return logging.NewLogger(settings.LoggerConfig())
	}
	return logging.NewLogger(nil)
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settingsFile, "settings", "", "settings file (default is .labsheet.yml, can also use LABSHEET_SETTINGS_FILE env var)")
	flags.String("config-dir", "", "directory holding config.json and logo.png (default: platform settings directory)")
	flags.StringP("log-level", "l", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")

	AddFlagValidation(rootCmd, "log-level", func(level string) error {
		return ValidateFormatWithSuggestion(level, config.LogLevels)
	})
	AddFlagValidation(rootCmd, "log-format", func(format string) error {
		return ValidateFormatWithSuggestion(format, config.LogFormats)
	})
	AddFlagValidation(rootCmd, "config-dir", validateDirFlag)
}

// initConfig points viper at the settings file and binds the persistent
// flags. It runs before every command.
func initConfig() {
	v := viper.GetViper()

	_ = v.BindPFlag(config.KeyConfigDir, rootCmd.PersistentFlags().Lookup("config-dir"))
	_ = v.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))

	used, err := config.Init(v, settingsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", lserrors.FormatError(err))
		return
	}
	if used != "" && v.GetString(config.KeyLogLevel) == "debug" {
		fmt.Fprintln(os.Stderr, "Using settings file:", used)
	}
}

// app bundles the services a command needs. It is rebuilt for every
// command so flag and settings changes always apply.
type app struct {
	settings  *config.Settings
	logger    logging.Logger
	errors    *lserrors.ErrorHandler
	store     *profile.Store
	registry  *registry.Registry
	generator *generator.Generator
}

func newApp() (*app, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(settings.LoggerConfig())

	store, err := profile.NewStore(settings.ConfigDir, profile.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	reg := registry.New(logger)
	if err := templates.RegisterBuiltins(reg, logger); err != nil {
		return nil, err
	}

	return &app{
		settings:  settings,
		logger:    logger,
		errors:    lserrors.NewErrorHandler(logger),
		store:     store,
		registry:  reg,
		generator: generator.New(reg, logger),
	}, nil
}

// styles returns the status styles for the saved theme, or the light
// styles when there is no profile yet.
func (a *app) styles() theme.Styles {
	if p, ok := a.store.Load(); ok {
		return theme.NewStyles(theme.For(p.Theme))
	}
	return theme.DefaultStyles()
}

// requireProfile loads the profile or explains how to create one.
func (a *app) requireProfile() (*profile.Profile, error) {
	p, ok := a.store.Load()
	if !ok {
		return nil, lserrors.NewConfigError(lserrors.ErrCodeConfigMissing,
			"no configuration found, run `labsheet setup` first", nil).WithPath(a.store.ConfigFile())
	}
	return p, nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	p, ok := a.store.Load()
	if !ok {
		s := theme.DefaultStyles()
		fmt.Fprintln(out, s.Title.Render("Welcome to labsheet"))
		fmt.Fprintln(out, "No configuration found. Run `labsheet setup` to enter your details.")
		return nil
	}

	s := theme.NewStyles(theme.For(p.Theme))
	fmt.Fprintln(out, s.Title.Render("Lab Sheet Generator"))
	fmt.Fprintln(out, s.KeyValue("Student", fmt.Sprintf("%s (%s)", p.StudentName, p.StudentID)))
	if p.HasLogo() {
		fmt.Fprintln(out, s.KeyValue("Logo", "✓ "+p.LogoPath))
	} else {
		fmt.Fprintln(out, s.KeyValue("Logo", "✗ none"))
	}
	fmt.Fprintln(out, s.KeyValue("Output folder", p.GlobalOutputPath))
	fmt.Fprintln(out, s.KeyValue("Default template", a.registry.DisplayName(p.DefaultTemplate)))
	fmt.Fprintln(out)

	if len(p.Modules) == 0 {
		fmt.Fprintln(out, s.Muted.Render("No modules yet. Add one with `labsheet module add`."))
		return nil
	}

	return writeModuleTable(out, p, a.registry)
}
