package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/labsheet/internal/config"
	"github.com/conneroisu/labsheet/internal/profile"
	"github.com/conneroisu/labsheet/internal/theme"
	"github.com/conneroisu/labsheet/internal/validation"
)

var (
	configShowOutput string
	configResetForce bool
	configWatchDelay time.Duration
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change the saved configuration",
	Long: `Inspect and change the saved configuration.

Examples:
  labsheet config show -o yaml        # Print the profile
  labsheet config path                # Where the profile is stored
  labsheet config theme dark          # Switch the display theme
  labsheet config logo ./crest.png    # Replace the logo
  labsheet config output ~/Labs       # Change the global output folder
  labsheet config watch               # Follow changes made elsewhere
  labsheet config reset --force       # Delete the profile and logo`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved profile",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where the profile and logo are stored",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the saved profile and logo",
	Args:  cobra.NoArgs,
	RunE:  runConfigReset,
}

var configThemeCmd = &cobra.Command{
	Use:       "theme <light|dark>",
	Short:     "Set the display theme",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{profile.ThemeLight, profile.ThemeDark},
	RunE:      runConfigTheme,
}

var configLogoCmd = &cobra.Command{
	Use:   "logo <image>",
	Short: "Replace the logo printed on sheets",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigLogo,
}

var configOutputCmd = &cobra.Command{
	Use:   "output <folder>",
	Short: "Set the global output folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigOutput,
}

var configWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the profile summary whenever it changes on disk",
	Args:  cobra.NoArgs,
	RunE:  runConfigWatch,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(
		configShowCmd,
		configPathCmd,
		configResetCmd,
		configThemeCmd,
		configLogoCmd,
		configOutputCmd,
		configWatchCmd,
	)

	addOutputFlag(configShowCmd, &configShowOutput)
	configResetCmd.Flags().BoolVarP(&configResetForce, "force", "f", false, "Do not ask for confirmation")
	configWatchCmd.Flags().DurationVar(&configWatchDelay, "debounce", 200*time.Millisecond, "Wait this long for changes to settle")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	p, err := a.requireProfile()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	format := outputFormat(configShowOutput, a.settings)
	if format != config.OutputTable {
		return writeStructured(out, format, p)
	}

	s := theme.NewStyles(theme.For(p.Theme))
	fmt.Fprintln(out, s.KeyValue("Student name", p.StudentName))
	fmt.Fprintln(out, s.KeyValue("Student ID", p.StudentID))
	fmt.Fprintln(out, s.KeyValue("Logo", logoStatus(p)))
	fmt.Fprintln(out, s.KeyValue("Output folder", p.GlobalOutputPath))
	fmt.Fprintln(out, s.KeyValue("Theme", p.Theme))
	fmt.Fprintln(out, s.KeyValue("Default template", p.DefaultTemplate))
	fmt.Fprintln(out, s.KeyValue("Schema version", fmt.Sprint(p.SchemaVersion)))
	fmt.Fprintln(out, s.KeyValue("Modules", fmt.Sprint(len(p.Modules))))
	return nil
}

func logoStatus(p *profile.Profile) string {
	if p.HasLogo() {
		return p.LogoPath
	}
	return "none"
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, a.store.ConfigFile())
	if logo, ok := a.store.LogoPath(); ok {
		fmt.Fprintln(out, logo)
	}
	return nil
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	styles := a.styles()

	if !configResetForce {
		fmt.Fprintf(out, "This deletes %s and the saved logo. Continue? [y/N]: ", a.store.ConfigFile())
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
		default:
			fmt.Fprintln(out, styles.Muted.Render("Reset cancelled."))
			return nil
		}
	}

	if err := a.store.Reset(); err != nil {
		return err
	}
	fmt.Fprintln(out, styles.Success.Render("✓ Configuration reset.")+" Run `labsheet setup` to start again.")
	return nil
}

func runConfigTheme(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	name := strings.ToLower(strings.TrimSpace(args[0]))
	if r := validation.ValidateTheme(name); !r.Valid {
		return r.Err("theme")
	}
	if err := a.store.UpdateTheme(name); err != nil {
		return err
	}

	s := theme.NewStyles(theme.For(name))
	fmt.Fprintln(cmd.OutOrStdout(), s.Success.Render("✓ Theme set to "+name))
	return nil
}

func runConfigLogo(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	src := strings.TrimSpace(args[0])
	if err := validation.ValidateFileExtension(src, validation.LogoExtensions); err != nil {
		return err
	}
	if err := ValidateFileExists(src); err != nil {
		return err
	}
	if err := a.store.SaveLogo(src); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), a.styles().Success.Render("✓ Logo saved"))
	return nil
}

func runConfigOutput(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	dir := strings.TrimSpace(args[0])
	if err := validation.ValidatePath(dir); err != nil {
		return err
	}
	if err := a.store.SetOutputPath(dir); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), a.styles().Success.Render("✓ Output folder set to "+dir))
	return nil
}

func runConfigWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", a.store.Dir())

	return a.store.Watch(cmd.Context(), configWatchDelay, func(p *profile.Profile, ok bool) {
		stamp := time.Now().Format("15:04:05")
		if !ok {
			fmt.Fprintf(out, "[%s] configuration removed or unreadable\n", stamp)
			return
		}
		s := theme.NewStyles(theme.For(p.Theme))
		fmt.Fprintf(out, "[%s] %s %s (%s), %d modules, theme %s\n",
			stamp, s.Info.Render("updated"), p.StudentName, p.StudentID, len(p.Modules), p.Theme)
	})
}
