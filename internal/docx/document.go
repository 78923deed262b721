// Package docx writes minimal WordprocessingML documents: paragraphs of
// styled runs, shaded bars, inline pictures, a page border and a single
// borderless table cell anchored to the bottom of its row.
package docx

import (
	"bytes"
	"fmt"
	"image"
	// Registered decoders for AddImage.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"
	"time"
)

// Unit conversions used by WordprocessingML.
const (
	TwipsPerInch = 1440
	TwipsPerPt   = 20
	EMUPerInch   = 914400
)

// Letter page size in twips.
const (
	PageWidthTwips  = 12240
	PageHeightTwips = 15840
)

// Alignment is a paragraph justification value.
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "both"
)

// Run is a span of text sharing one character style.
type Run struct {
	Text   string
	Font   string
	SizePt float64
	Bold   bool
	Italic bool
	// Color is a six digit hex colour without '#'.
	Color string
}

// Paragraph is one block of text or a single inline picture.
type Paragraph struct {
	Runs  []Run
	Align Alignment

	SpaceBeforePt float64
	SpaceAfterPt  float64
	// LineExactPt fixes the line height when non-zero.
	LineExactPt float64

	// Negative indents extend the paragraph into the page margins.
	IndentLeftIn  float64
	IndentRightIn float64

	// Shading fills the paragraph background with a hex colour.
	Shading string

	Image *Image
}

// Image is a picture added with AddImage, ready to be placed in a Paragraph.
type Image struct {
	id     int
	relID  string
	name   string
	format string
	// Size in EMU.
	Width  int64
	Height int64
}

// Margins are page margins in inches.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// PageBorder draws a box around every page.
type PageBorder struct {
	// Style is a ST_Border value such as "single".
	Style string
	// Size is the line width in eighths of a point.
	Size int
	// Space is the distance from the text in points.
	Space int
	Color string
}

type media struct {
	name string
	data []byte
}

type block struct {
	paragraph *Paragraph
	cell      *bottomCell
}

type bottomCell struct {
	heightIn   float64
	paragraphs []Paragraph
}

// Document accumulates content in order and serialises it with WriteTo.
type Document struct {
	Title   string
	Creator string
	Created time.Time

	margins Margins
	border  *PageBorder
	blocks  []block
	media   []media
}

// New creates an empty document with one inch margins.
func New() *Document {
	return &Document{
		Creator: "labsheet",
		margins: Margins{Top: 1, Right: 1, Bottom: 1, Left: 1},
	}
}

// SetMargins sets the page margins in inches.
func (d *Document) SetMargins(m Margins) {
	d.margins = m
}

// SetPageBorder draws b around every page. A nil border removes it.
func (d *Document) SetPageBorder(b *PageBorder) {
	d.border = b
}

// AddParagraph appends p to the body.
func (d *Document) AddParagraph(p Paragraph) {
	p.Runs = append([]Run(nil), p.Runs...)
	d.blocks = append(d.blocks, block{paragraph: &p})
}

// AddBottomCell appends a full-width borderless table with one row of the
// given height whose content is aligned to the bottom of the row.
func (d *Document) AddBottomCell(heightIn float64, paragraphs ...Paragraph) {
	cell := &bottomCell{heightIn: heightIn, paragraphs: append([]Paragraph(nil), paragraphs...)}
	if len(cell.paragraphs) == 0 {
		cell.paragraphs = []Paragraph{{}}
	}
	d.blocks = append(d.blocks, block{cell: cell})
}

// AddImage stores a png, jpeg or gif picture in the package and returns a
// handle sized to widthIn by heightIn inches. When one side is zero it is
// derived from the picture's aspect ratio; when both are zero the picture
// is sized at 96 dpi.
func (d *Document) AddImage(data []byte, widthIn, heightIn float64) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has no pixels")
	}

	ratio := float64(cfg.Height) / float64(cfg.Width)
	switch {
	case widthIn <= 0 && heightIn <= 0:
		widthIn = float64(cfg.Width) / 96
		heightIn = float64(cfg.Height) / 96
	case heightIn <= 0:
		heightIn = widthIn * ratio
	case widthIn <= 0:
		widthIn = heightIn / ratio
	}

	id := len(d.media) + 1
	name := fmt.Sprintf("image%d.%s", id, format)
	d.media = append(d.media, media{name: name, data: append([]byte(nil), data...)})

	return &Image{
		id:     id,
		relID:  fmt.Sprintf("rIdImage%d", id),
		name:   name,
		format: format,
		Width:  int64(math.Round(widthIn * EMUPerInch)),
		Height: int64(math.Round(heightIn * EMUPerInch)),
	}, nil
}

// Text returns the document's text, one line per paragraph. It is meant for
// previews and tests.
func (d *Document) Text() string {
	var sb strings.Builder
	writePara := func(p Paragraph) {
		for _, r := range p.Runs {
			sb.WriteString(r.Text)
		}
		sb.WriteByte('\n')
	}
	for _, b := range d.blocks {
		if b.paragraph != nil {
			writePara(*b.paragraph)
			continue
		}
		for _, p := range b.cell.paragraphs {
			writePara(p)
		}
	}
	return sb.String()
}

// ImageCount returns the number of pictures stored in the package.
func (d *Document) ImageCount() int {
	return len(d.media)
}
