package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	lserrors "github.com/conneroisu/labsheet/internal/errors"
	"github.com/conneroisu/labsheet/internal/generator"
	"github.com/conneroisu/labsheet/internal/theme"
	"github.com/conneroisu/labsheet/internal/validation"
)

var (
	generateNumber   int
	generateTo       int
	generateTemplate string
	generateOutput   string
	generateNoLogo   bool
	generateParallel int
)

var generateCmd = &cobra.Command{
	Use:     "generate <module-code>",
	Aliases: []string{"gen", "g"},
	Short:   "Create lab sheet documents for a module",
	Long: `Create one or more lab sheet documents for a module from your saved details.

The sheet heading is built from the module's sheet type and the number, for
example "Practical 03". The document is written to the module's output folder,
or the global output folder when the module has none.

Examples:
  labsheet generate SE2052 --number 3              # Practical 03
  labsheet generate SE2052 -n 1 --to 10            # Sheets 1 to 10
  labsheet generate SE2052 -n 4 --template sliit   # Use another layout once
  labsheet generate SE2052 -n 4 --output ./out     # Write somewhere else
  labsheet generate SE2052 -n 4 --no-logo          # Leave the logo out`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return validateArguments(args)
	},
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.IntVarP(&generateNumber, "number", "n", 0, "Sheet number (1-99)")
	flags.IntVar(&generateTo, "to", 0, "Last sheet number when creating a range")
	flags.StringVarP(&generateTemplate, "template", "t", "", "Template to use instead of the module's template")
	flags.StringVar(&generateOutput, "output", "", "Output folder instead of the configured one")
	flags.BoolVar(&generateNoLogo, "no-logo", false, "Generate without the logo")
	flags.IntVarP(&generateParallel, "parallel", "p", 0, "Maximum sheets generated at once (default from settings)")

	_ = generateCmd.MarkFlagRequired("number")

	AddFlagValidation(generateCmd, "number", validateSheetNumberFlag)
	AddFlagValidation(generateCmd, "to", validateSheetNumberFlag)
	AddFlagValidation(generateCmd, "output", validateDirFlag)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	p, err := a.requireProfile()
	if err != nil {
		return err
	}
	styles := theme.NewStyles(theme.For(p.Theme))
	out := cmd.OutOrStdout()

	module, ok := p.ModuleByCode(args[0])
	if !ok {
		return lserrors.ErrModuleNotFound(validation.NormalizeModuleCode(args[0]))
	}

	first, last := generateNumber, generateTo
	if last == 0 {
		last = first
	}
	if r := validation.ValidateSheetNumber(first); !r.Valid {
		return r.Err("number")
	}
	if last < first {
		return lserrors.NewValidationError(lserrors.ErrCodeValidationFailed,
			fmt.Sprintf("--to (%d) must not be smaller than --number (%d)", last, first))
	}

	if generateTemplate != "" {
		module.Template = generateTemplate
	}

	if !p.HasLogo() && !generateNoLogo {
		fmt.Fprintln(out, styles.Warning.Render("No logo configured.")+" Generating without logo.")
	}

	reqs := make([]generator.Request, 0, last-first+1)
	for n := first; n <= last; n++ {
		req := generator.NewRequest(p, module, n)
		if generateOutput != "" {
			req.OutputDir = generateOutput
		}
		if generateNoLogo {
			req.Params.LogoPath = ""
		}
		reqs = append(reqs, req)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(reqs) == 1 {
		res := <-a.generator.Start(ctx, reqs[0])
		a.printResult(ctx, out, styles, res)
		return res.Err
	}

	limit := generateParallel
	if limit <= 0 {
		limit = a.settings.Parallel
	}
	results, err := a.generator.GenerateBatch(ctx, reqs, limit)
	failed := 0
	for _, res := range results {
		a.printResult(ctx, out, styles, res)
		if res.Err != nil {
			failed++
		}
	}
	if err != nil {
		return lserrors.NewGenerationError(lserrors.ErrCodeRenderFailed,
			fmt.Sprintf("%d of %d sheets failed", failed, len(results)), err).WithModule(module.Code)
	}
	fmt.Fprintln(out, styles.Muted.Render(fmt.Sprintf("%d sheets created", len(results))))
	return nil
}

func (a *app) printResult(ctx context.Context, out io.Writer, styles theme.Styles, res generator.Result) {
	for _, warning := range res.Warnings {
		fmt.Fprintln(out, styles.Warning.Render("! ")+warning)
	}
	if res.Err != nil {
		fmt.Fprintf(out, "%s %s: %s\n", styles.Error.Render("✗"), res.SheetLabel, lserrors.FormatError(res.Err))
		a.errors.Handle(ctx, res.Err)
		return
	}
	fmt.Fprintf(out, "%s %s -> %s\n", styles.Success.Render("✓"), res.SheetLabel, res.Path)
}
