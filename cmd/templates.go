package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/labsheet/internal/config"
	"github.com/conneroisu/labsheet/internal/profile"
)

var templatesOutput string

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"template", "t"},
	Short:   "List the available document templates",
	Long: `List the document layouts labsheet can produce, the fonts each one
expects to be installed and whether it needs a logo. The default template is
marked with *.

Examples:
  labsheet templates
  labsheet templates -o json`,
	Args: cobra.NoArgs,
	RunE: runTemplates,
}

func init() {
	rootCmd.AddCommand(templatesCmd)

	addOutputFlag(templatesCmd, &templatesOutput)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	defaultID := profile.DefaultTemplateID
	if p, ok := a.store.Load(); ok && p.DefaultTemplate != "" {
		defaultID = p.DefaultTemplate
	}

	entries := a.registry.List()
	out := cmd.OutOrStdout()

	format := outputFormat(templatesOutput, a.settings)
	if format != config.OutputTable {
		return writeStructured(out, format, entries)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFONTS\tLOGO\tDESCRIPTION")
	for _, e := range entries {
		id := e.ID
		if id == defaultID {
			id += " *"
		}
		logo := "optional"
		if e.NeedsLogo {
			logo = "required"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", id, e.DisplayName, strings.Join(e.Fonts, ", "), logo, e.Description)
	}
	return w.Flush()
}
