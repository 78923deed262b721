package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/labsheet/internal/config"
	lserrors "github.com/conneroisu/labsheet/internal/errors"
	"github.com/conneroisu/labsheet/internal/profile"
	"github.com/conneroisu/labsheet/internal/validation"
)

var (
	moduleListOutput string

	moduleAddName       string
	moduleAddCode       string
	moduleAddSheetType  string
	moduleAddCustomType string
	moduleAddOutputPath string
	moduleAddTemplate   string
	moduleAddNoPadding  bool
)

var moduleCmd = &cobra.Command{
	Use:     "module",
	Aliases: []string{"modules", "m"},
	Short:   "Manage your modules",
	Long: `List, add and remove the modules you create lab sheets for.

Examples:
  labsheet module list
  labsheet module add --name "Software Engineering" --code SE2052 --sheet-type Lab
  labsheet module set-template SE2052 sliit
  labsheet module remove SE2052`,
}

var moduleListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List modules in display order",
	Args:    cobra.NoArgs,
	RunE:    runModuleList,
}

var moduleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a module",
	Args:  cobra.NoArgs,
	RunE:  runModuleAdd,
}

var moduleRemoveCmd = &cobra.Command{
	Use:     "remove <module-code>",
	Aliases: []string{"rm"},
	Short:   "Remove a module",
	Args:    cobra.ExactArgs(1),
	RunE:    runModuleRemove,
}

var moduleSetTemplateCmd = &cobra.Command{
	Use:   "set-template <module-code> <template-id>",
	Short: "Choose the template a module uses",
	Args:  cobra.ExactArgs(2),
	RunE:  runModuleSetTemplate,
}

func init() {
	rootCmd.AddCommand(moduleCmd)
	moduleCmd.AddCommand(moduleListCmd, moduleAddCmd, moduleRemoveCmd, moduleSetTemplateCmd)

	addOutputFlag(moduleListCmd, &moduleListOutput)

	flags := moduleAddCmd.Flags()
	flags.StringVar(&moduleAddName, "name", "", "Module name, e.g. \"Software Engineering\"")
	flags.StringVar(&moduleAddCode, "code", "", "Module code, e.g. SE2052")
	flags.StringVar(&moduleAddSheetType, "sheet-type", profile.SheetPractical,
		"Sheet type ("+strings.Join(profile.SheetTypes, ", ")+")")
	flags.StringVar(&moduleAddCustomType, "custom-type", "", "Sheet type label when --sheet-type is Custom")
	flags.StringVar(&moduleAddOutputPath, "output-path", "", "Output folder for this module (default: global folder)")
	flags.StringVar(&moduleAddTemplate, "template", "", "Template id (default: the profile's default template)")
	flags.BoolVar(&moduleAddNoPadding, "no-zero-padding", false, "Number sheets 1, 2, ... instead of 01, 02, ...")

	_ = moduleAddCmd.MarkFlagRequired("name")
	_ = moduleAddCmd.MarkFlagRequired("code")

	AddFlagValidation(moduleAddCmd, "sheet-type", validateSheetTypeFlag)
	AddFlagValidation(moduleAddCmd, "output-path", validateDirFlag)
}

func runModuleList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	p, err := a.requireProfile()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	format := outputFormat(moduleListOutput, a.settings)
	if format != config.OutputTable {
		return writeStructured(out, format, moduleRows(p))
	}

	if len(p.Modules) == 0 {
		fmt.Fprintln(out, "No modules yet. Add one with `labsheet module add`.")
		return nil
	}
	return writeModuleTable(out, p, a.registry)
}

func runModuleAdd(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	p, err := a.requireProfile()
	if err != nil {
		return err
	}

	sheetType := validation.NormalizeSheetType(moduleAddSheetType)
	custom := ""
	if sheetType == profile.SheetCustom {
		custom = moduleAddCustomType
	} else if strings.TrimSpace(moduleAddCustomType) != "" {
		return lserrors.NewValidationError(lserrors.ErrCodeValidationFailed,
			"--custom-type can only be used with --sheet-type Custom")
	}

	template := moduleAddTemplate
	if template == "" {
		template = p.DefaultTemplate
	}
	if _, ok := a.registry.Get(template); !ok {
		return unknownTemplateError(template, a.registry.IDs())
	}

	m := profile.Module{
		Name:            strings.TrimSpace(moduleAddName),
		Code:            validation.NormalizeModuleCode(moduleAddCode),
		SheetType:       sheetType,
		CustomSheetType: profile.StringPtr(custom),
		OutputPath:      profile.StringPtr(moduleAddOutputPath),
		UseZeroPadding:  !moduleAddNoPadding,
		Template:        template,
	}
	if err := validation.ValidateModule(m); err != nil {
		return err
	}
	if err := p.AddModule(m); err != nil {
		return err
	}
	if err := a.store.Save(p); err != nil {
		return err
	}

	styles := a.styles()
	fmt.Fprintf(cmd.OutOrStdout(), "%s Added %s (%s) - %s\n",
		styles.Success.Render("✓"), m.Name, m.Code, m.SheetTypeLabel())
	return nil
}

func runModuleRemove(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	p, err := a.requireProfile()
	if err != nil {
		return err
	}

	code := validation.NormalizeModuleCode(args[0])
	if err := p.RemoveModule(code); err != nil {
		return err
	}
	if err := a.store.Save(p); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Removed %s\n", a.styles().Success.Render("✓"), code)
	return nil
}

func runModuleSetTemplate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	p, err := a.requireProfile()
	if err != nil {
		return err
	}

	code, templateID := validation.NormalizeModuleCode(args[0]), strings.TrimSpace(args[1])
	if _, ok := a.registry.Get(templateID); !ok {
		return unknownTemplateError(templateID, a.registry.IDs())
	}

	m, ok := p.ModuleByCode(code)
	if !ok {
		return lserrors.ErrModuleNotFound(code)
	}
	m.Template = templateID
	if err := p.ReplaceModule(code, m); err != nil {
		return err
	}
	if err := a.store.Save(p); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s now uses %s\n",
		a.styles().Success.Render("✓"), m.Code, a.registry.DisplayName(templateID))
	return nil
}

func unknownTemplateError(id string, known []string) error {
	return lserrors.NewTemplateError(lserrors.ErrCodeTemplateNotFound,
		fmt.Sprintf("template not found: %s (available: %s)", id, strings.Join(known, ", "))).
		WithContext("template", id)
}
