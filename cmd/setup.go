package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/labsheet/internal/setup"
	"github.com/conneroisu/labsheet/internal/theme"
)

var setupEdit bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Enter your student details, logo and modules",
	Long: `Walk through an interactive setup that records your name, student ID,
an optional logo and the modules you take. Invalid answers are asked again.

Examples:
  labsheet setup          # First-time setup
  labsheet setup --edit   # Change existing details, keeping current values as defaults`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().BoolVarP(&setupEdit, "edit", "e", false, "Pre-fill every prompt from the current configuration")
}

func runSetup(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	opts := []setup.Option{
		setup.WithTemplates(a.registry.IDs()),
		setup.WithDefaultOutputDir(a.store.DefaultOutputDir()),
	}

	styles := theme.DefaultStyles()
	if setupEdit {
		current, err := a.requireProfile()
		if err != nil {
			return err
		}
		styles = theme.NewStyles(theme.For(current.Theme))
		opts = append(opts, setup.WithExisting(current))
	} else if !a.store.IsFirstRun() {
		fmt.Fprintln(out, styles.Warning.Render("A configuration already exists and will be replaced.")+
			" Use `labsheet setup --edit` to keep it.")
	}
	opts = append(opts, setup.WithStyles(styles))

	outcome, err := setup.NewWizard(cmd.InOrStdin(), out, opts...).Run()
	if err != nil {
		return err
	}

	if err := a.store.Save(outcome.Profile); err != nil {
		return err
	}
	if outcome.LogoSource != "" {
		if err := a.store.SaveLogo(outcome.LogoSource); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, styles.Success.Render("✓ Your configuration has been saved successfully!"))
	fmt.Fprintln(out, styles.Muted.Render("Saved to "+a.store.ConfigFile()))
	return nil
}
