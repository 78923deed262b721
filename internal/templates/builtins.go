package templates

import (
	"github.com/conneroisu/labsheet/internal/docx"
	"github.com/conneroisu/labsheet/internal/logging"
	"github.com/conneroisu/labsheet/internal/registry"
)

// Built-in layout ids.
const (
	ClassicID = "classic"
	SLIITID   = "sliit"
)

// Classic is the original layout: a blue bar across the top of the page,
// a centred logo and module title, and the sheet label and student details
// above a rule.
func Classic() Config {
	return Config{
		ID:          ClassicID,
		Name:        "Classic Template",
		Description: "Blue header bar with a centred logo and module title, student details below",
		Fonts:       []string{"Times New Roman", "Aptos"},
		Style: Style{
			Margins: docx.Margins{Top: 0, Right: 0.5, Bottom: 0.5, Left: 0.5},
			Blocks: []Block{
				{Kind: BlockBar, Fill: "156082", LineExactPt: 15, IndentLeftIn: -0.5, IndentRightIn: -0.5},
				{
					Kind: BlockLogo, Align: docx.AlignCenter, WidthIn: 1.1, HeightIn: 1.05,
					IndentLeftIn: -0.5, IndentRightIn: -0.5, SpaceAfterPt: 6,
				},
				{
					Kind: BlockText, Text: "{{.ModuleName}} -- {{.ModuleCode}}",
					Font: "Times New Roman", SizePt: 20, Bold: true, Align: docx.AlignCenter,
					IndentLeftIn: -0.5, IndentRightIn: -0.5, SpaceAfterPt: 12,
				},
				{
					Kind: BlockText, Text: "{{.SheetLabel}}",
					Font: "Aptos", SizePt: 12, Bold: true, Align: docx.AlignLeft, SpaceAfterPt: 2,
				},
				{
					Kind: BlockText, Text: "{{.StudentName}} - {{.StudentID}}",
					Font: "Aptos", SizePt: 12, Bold: true, Align: docx.AlignLeft,
				},
				{Kind: BlockRule, RuleLength: 95, Font: "Times New Roman", Align: docx.AlignLeft, SpaceAfterPt: 12},
			},
		},
	}
}

// SLIIT is a cover page with a page border, the logo in the top right
// corner, a large sheet label and the student details at the bottom.
func SLIIT() Config {
	return Config{
		ID:          SLIITID,
		Name:        "SLIIT Template",
		Description: "Modern design with page border, large title, and bottom-aligned student info",
		Fonts:       []string{"Biome", "Helvetica Rounded"},
		Style: Style{
			Margins:    docx.Margins{Top: 0.5, Right: 0.5, Bottom: 0.5, Left: 0.5},
			PageBorder: &docx.PageBorder{Style: "single", Size: 4, Space: 24, Color: "000000"},
			Blocks: []Block{
				{Kind: BlockLogo, Align: docx.AlignRight, WidthIn: 2},
				{Kind: BlockSpacer, SizePt: 48},
				{
					Kind: BlockText, Text: "{{.SheetLabel}}",
					Font: "Biome", SizePt: 48, Bold: true, Color: "0E2841", Align: docx.AlignLeft, SpaceAfterPt: 6,
				},
				{
					Kind: BlockText, Text: "{{.ModuleName}} ({{.ModuleCode}})",
					Font: "Helvetica Rounded", SizePt: 28, Bold: true, Color: "000000", Align: docx.AlignLeft, SpaceAfterPt: 12,
				},
				{
					Kind: BlockBottomInfo, Text: "{{.StudentID}} - {{.StudentName}}", HeightIn: 6,
					Font: "Helvetica Rounded", SizePt: 14, Color: "000000", Align: docx.AlignRight,
				},
			},
		},
	}
}

// Builtins returns the configurations of the layouts shipped with labsheet,
// in the order they are offered to the user.
func Builtins() []Config {
	return []Config{Classic(), SLIIT()}
}

// RegisterBuiltins compiles the built-in layouts and registers them.
func RegisterBuiltins(reg *registry.Registry, logger logging.Logger) error {
	for _, cfg := range Builtins() {
		layout, err := NewLayout(cfg, logger)
		if err != nil {
			return err
		}
		reg.Register(cfg.ID, layout)
	}
	return nil
}
