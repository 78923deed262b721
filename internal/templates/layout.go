// Package templates renders lab sheets from data-driven layout styles.
//
// A layout is a Style: page margins, an optional page border and an ordered
// list of Blocks. Adding a layout means writing a new Style value and
// registering it; neither the registry nor the generator changes.
package templates

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/conneroisu/labsheet/internal/docx"
	lserrors "github.com/conneroisu/labsheet/internal/errors"
	"github.com/conneroisu/labsheet/internal/logging"
	"github.com/conneroisu/labsheet/internal/types"
)

// BlockKind selects how a Block is rendered.
type BlockKind string

const (
	// BlockBar is an empty shaded paragraph.
	BlockBar BlockKind = "bar"
	// BlockLogo places the profile logo, skipped when there is none.
	BlockLogo BlockKind = "logo"
	// BlockSpacer is an empty paragraph whose height follows SizePt.
	BlockSpacer BlockKind = "spacer"
	// BlockText renders Text as one run.
	BlockText BlockKind = "text"
	// BlockRule draws a line of RuleLength underscores.
	BlockRule BlockKind = "rule"
	// BlockBottomInfo renders Text in a cell anchored to the bottom of a
	// HeightIn tall row.
	BlockBottomInfo BlockKind = "bottom-info"
)

// Block is one element of a layout.
type Block struct {
	Kind BlockKind

	// Text is a text/template evaluated against types.SheetParams.
	Text string

	Font   string
	SizePt float64
	Bold   bool
	Color  string
	Align  docx.Alignment

	SpaceBeforePt float64
	SpaceAfterPt  float64
	LineExactPt   float64
	IndentLeftIn  float64
	IndentRightIn float64

	// Fill is the background colour of a bar.
	Fill string
	// WidthIn and HeightIn size the logo; HeightIn is also the bottom row height.
	WidthIn  float64
	HeightIn float64
	// RuleLength is the number of underscores in a rule.
	RuleLength int
}

// Style is the complete visual recipe of a layout.
type Style struct {
	Margins    docx.Margins
	PageBorder *docx.PageBorder
	Blocks     []Block
}

// Config describes a layout to construct with NewLayout.
type Config struct {
	ID           string
	Name         string
	Description  string
	Fonts        []string
	RequiresLogo bool
	Style        Style
}

// Layout renders one Style. It implements types.Template.
type Layout struct {
	cfg    Config
	texts  []*template.Template
	logger logging.Logger
}

var _ types.Template = (*Layout)(nil)

// NewLayout compiles the text templates of cfg.Style.
func NewLayout(cfg Config, logger logging.Logger) (*Layout, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, lserrors.NewTemplateError(lserrors.ErrCodeTemplateNotFound, "layout id cannot be empty")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	l := &Layout{
		cfg:    cfg,
		texts:  make([]*template.Template, len(cfg.Style.Blocks)),
		logger: logger.WithComponent("templates").With("template", cfg.ID),
	}
	for i, b := range cfg.Style.Blocks {
		if b.Text == "" {
			continue
		}
		t, err := template.New(fmt.Sprintf("%s-%d", cfg.ID, i)).Option("missingkey=error").Parse(b.Text)
		if err != nil {
			return nil, lserrors.NewTemplateError(lserrors.ErrCodeRenderFailed,
				fmt.Sprintf("block %d of %s: %v", i, cfg.ID, err))
		}
		l.texts[i] = t
	}
	return l, nil
}

// ID implements types.Template.
func (l *Layout) ID() string { return l.cfg.ID }

// DisplayName implements types.Template.
func (l *Layout) DisplayName() string { return l.cfg.Name }

// Description implements types.Template.
func (l *Layout) Description() string { return l.cfg.Description }

// RequiredFonts implements types.Template.
func (l *Layout) RequiredFonts() []string { return append([]string(nil), l.cfg.Fonts...) }

// RequiresLogo implements types.Template.
func (l *Layout) RequiresLogo() bool { return l.cfg.RequiresLogo }

// Style returns the layout's style.
func (l *Layout) Style() Style { return l.cfg.Style }

// Filename is the document name for a sheet label and student ID, for
// example "Lab 01" and "IT23614130" give "Lab_01_IT23614130.docx".
func Filename(sheetLabel, studentID string) string {
	return strings.ReplaceAll(sheetLabel, " ", "_") + "_" + studentID + ".docx"
}

// Generate renders the sheet into outputDir (the working directory when
// empty) and returns the file name.
func (l *Layout) Generate(ctx context.Context, params types.SheetParams, outputDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := l.Build(ctx, params)
	if err != nil {
		return "", err
	}

	filename := Filename(params.SheetLabel, params.StudentID)
	if filepath.Base(filename) != filename || strings.ContainsAny(filename, `/\`) {
		return "", lserrors.NewGenerationError(lserrors.ErrCodeOutputDir,
			fmt.Sprintf("document name %q would leave the output folder", filename), nil).
			WithModule(params.ModuleCode)
	}
	path := filename
	if outputDir != "" {
		path = filepath.Join(outputDir, filename)
	}

	if err := doc.Save(path); err != nil {
		return "", lserrors.NewGenerationError(lserrors.ErrCodeWriteFailed, "cannot write document", err).
			WithPath(path).
			WithModule(params.ModuleCode)
	}

	l.logger.Debug(ctx, "Document written", "path", path, "images", doc.ImageCount())
	return filename, nil
}

// Build assembles the document in memory without writing it.
func (l *Layout) Build(ctx context.Context, params types.SheetParams) (*docx.Document, error) {
	style := l.cfg.Style

	doc := docx.New()
	doc.Title = strings.TrimSpace(params.SheetLabel + " " + params.ModuleCode)
	doc.Creator = params.StudentName
	doc.SetMargins(style.Margins)
	doc.SetPageBorder(style.PageBorder)

	for i, b := range style.Blocks {
		text, err := l.text(i, params)
		if err != nil {
			return nil, err
		}

		switch b.Kind {
		case BlockBar:
			p := paragraph(b)
			p.Shading = b.Fill
			doc.AddParagraph(p)

		case BlockLogo:
			img, err := l.logo(ctx, doc, b, params)
			if err != nil {
				return nil, err
			}
			if img != nil {
				p := paragraph(b)
				p.Image = img
				doc.AddParagraph(p)
			}

		case BlockSpacer:
			p := paragraph(b)
			p.Runs = []docx.Run{{SizePt: b.SizePt}}
			doc.AddParagraph(p)

		case BlockText:
			p := paragraph(b)
			p.Runs = []docx.Run{run(b, text)}
			doc.AddParagraph(p)

		case BlockRule:
			p := paragraph(b)
			p.Runs = []docx.Run{run(b, strings.Repeat("_", b.RuleLength))}
			doc.AddParagraph(p)

		case BlockBottomInfo:
			p := paragraph(b)
			p.Runs = []docx.Run{run(b, text)}
			doc.AddBottomCell(b.HeightIn, p)

		default:
			return nil, lserrors.NewTemplateError(lserrors.ErrCodeRenderFailed,
				fmt.Sprintf("unknown block kind %q", b.Kind))
		}
	}
	return doc, nil
}

func (l *Layout) text(i int, params types.SheetParams) (string, error) {
	t := l.texts[i]
	if t == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, params); err != nil {
		return "", lserrors.NewGenerationError(lserrors.ErrCodeRenderFailed, "rendering block text", err)
	}
	return buf.String(), nil
}

// logo returns nil when there is no usable logo and the layout can do
// without one.
func (l *Layout) logo(ctx context.Context, doc *docx.Document, b Block, params types.SheetParams) (*docx.Image, error) {
	if params.LogoPath == "" {
		if l.cfg.RequiresLogo {
			return nil, lserrors.NewGenerationError(lserrors.ErrCodeLogoRequired,
				"this template requires a logo", nil).WithContext("template", l.cfg.ID)
		}
		return nil, nil
	}

	data, err := os.ReadFile(params.LogoPath)
	if err == nil {
		var img *docx.Image
		img, err = doc.AddImage(data, b.WidthIn, b.HeightIn)
		if err == nil {
			return img, nil
		}
	}

	if l.cfg.RequiresLogo {
		return nil, lserrors.NewGenerationError(lserrors.ErrCodeLogoInvalid, "cannot use logo", err).
			WithPath(params.LogoPath)
	}
	l.logger.Warn(ctx, err, "Logo unusable, rendering without it", "logo", params.LogoPath)
	return nil, nil
}

func paragraph(b Block) docx.Paragraph {
	return docx.Paragraph{
		Align:         b.Align,
		SpaceBeforePt: b.SpaceBeforePt,
		SpaceAfterPt:  b.SpaceAfterPt,
		LineExactPt:   b.LineExactPt,
		IndentLeftIn:  b.IndentLeftIn,
		IndentRightIn: b.IndentRightIn,
	}
}

func run(b Block, text string) docx.Run {
	return docx.Run{
		Text:   text,
		Font:   b.Font,
		SizePt: b.SizePt,
		Bold:   b.Bold,
		Color:  b.Color,
	}
}
