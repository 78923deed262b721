package docx

import (
	"bytes"
	"encoding/xml"
	"math"
	"strings"
	"text/template"
	"time"
)

type runView struct {
	Text   string
	Font   string
	Size   int
	Bold   bool
	Italic bool
	Color  string
}

type imageView struct {
	ID     int
	RelID  string
	Name   string
	Width  int64
	Height int64
}

type paraView struct {
	Align       string
	Before      int
	After       int
	Line        int
	IndentLeft  int
	IndentRight int
	Shading     string
	Runs        []runView
	Image       *imageView
}

type cellView struct {
	Height     int
	Width      int
	Paragraphs []paraView
}

type blockView struct {
	Para *paraView
	Cell *cellView
}

type borderView struct {
	Style string
	Size  int
	Space int
	Color string
}

type mediaView struct {
	Name string
	Data []byte
}

type extensionView struct {
	Ext         string
	ContentType string
}

type documentView struct {
	Blocks     []blockView
	Width      int
	Height     int
	Top        int
	Right      int
	Bottom     int
	Left       int
	Border     *borderView
	Media      []mediaView
	Extensions []extensionView
	Title      string
	Creator    string
	Created    string
}

func twips(inches float64) int {
	return int(math.Round(inches * TwipsPerInch))
}

func ptTwips(pt float64) int {
	return int(math.Round(pt * TwipsPerPt))
}

func newParaView(p Paragraph) paraView {
	v := paraView{
		Align:       string(p.Align),
		Before:      ptTwips(p.SpaceBeforePt),
		After:       ptTwips(p.SpaceAfterPt),
		Line:        ptTwips(p.LineExactPt),
		IndentLeft:  twips(p.IndentLeftIn),
		IndentRight: twips(p.IndentRightIn),
		Shading:     strings.TrimPrefix(p.Shading, "#"),
	}
	for _, r := range p.Runs {
		v.Runs = append(v.Runs, runView{
			Text:   r.Text,
			Font:   r.Font,
			Size:   int(math.Round(r.SizePt * 2)),
			Bold:   r.Bold,
			Italic: r.Italic,
			Color:  strings.TrimPrefix(r.Color, "#"),
		})
	}
	if img := p.Image; img != nil {
		v.Image = &imageView{ID: img.id, RelID: img.relID, Name: img.name, Width: img.Width, Height: img.Height}
	}
	return v
}

func (d *Document) view() documentView {
	v := documentView{
		Width:   PageWidthTwips,
		Height:  PageHeightTwips,
		Top:     twips(d.margins.Top),
		Right:   twips(d.margins.Right),
		Bottom:  twips(d.margins.Bottom),
		Left:    twips(d.margins.Left),
		Title:   d.Title,
		Creator: d.Creator,
	}

	seen := make(map[string]bool)
	for _, m := range d.media {
		v.Media = append(v.Media, mediaView{Name: m.name, Data: m.data})
		ext := m.name[strings.LastIndex(m.name, ".")+1:]
		if !seen[ext] {
			seen[ext] = true
			v.Extensions = append(v.Extensions, extensionView{Ext: ext, ContentType: "image/" + ext})
		}
	}

	created := d.Created
	if created.IsZero() {
		created = time.Now()
	}
	v.Created = created.UTC().Format(time.RFC3339)

	if b := d.border; b != nil {
		v.Border = &borderView{Style: b.Style, Size: b.Size, Space: b.Space, Color: strings.TrimPrefix(b.Color, "#")}
		if v.Border.Style == "" {
			v.Border.Style = "single"
		}
		if v.Border.Color == "" {
			v.Border.Color = "auto"
		}
	}

	contentWidth := PageWidthTwips - v.Left - v.Right
	for _, b := range d.blocks {
		if b.paragraph != nil {
			p := newParaView(*b.paragraph)
			v.Blocks = append(v.Blocks, blockView{Para: &p})
			continue
		}
		cell := &cellView{Height: twips(b.cell.heightIn), Width: contentWidth}
		for _, p := range b.cell.paragraphs {
			cell.Paragraphs = append(cell.Paragraphs, newParaView(p))
		}
		v.Blocks = append(v.Blocks, blockView{Cell: cell})
	}
	return v
}

func escape(s string) (string, error) {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var funcs = template.FuncMap{
	"esc": escape,
	"inc": func(i int) int { return i + 1 },
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const contentTypesXML = xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`{{range .Extensions}}<Default Extension="{{.Ext}}" ContentType="{{.ContentType}}"/>{{end}}` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`</Types>`

const rootRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

const coreXML = xmlHeader + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
	`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
	`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
	`<dc:title>{{esc .Title}}</dc:title><dc:creator>{{esc .Creator}}</dc:creator>` +
	`<dcterms:created xsi:type="dcterms:W3CDTF">{{.Created}}</dcterms:created>` +
	`</cp:coreProperties>`

const documentRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rIdStyles" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`{{range $i, $m := .Media}}<Relationship Id="rIdImage{{inc $i}}" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/{{$m.Name}}"/>{{end}}` +
	`</Relationships>`

const stylesXML = xmlHeader + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Aptos" w:hAnsi="Aptos" w:cs="Aptos"/>` +
	`<w:sz w:val="24"/><w:szCs w:val="24"/><w:lang w:val="en-US"/></w:rPr></w:rPrDefault>` +
	`<w:pPrDefault><w:pPr><w:spacing w:after="160" w:line="259" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>` +
	`<w:style w:type="table" w:default="1" w:styleId="TableNormal"><w:name w:val="Normal Table"/>` +
	`<w:tblPr><w:tblInd w:w="0" w:type="dxa"/><w:tblCellMar><w:top w:w="0" w:type="dxa"/><w:left w:w="108" w:type="dxa"/>` +
	`<w:bottom w:w="0" w:type="dxa"/><w:right w:w="108" w:type="dxa"/></w:tblCellMar></w:tblPr></w:style>` +
	`</w:styles>`

const documentXML = `{{define "run"}}<w:r><w:rPr>` +
	`{{if .Font}}<w:rFonts w:ascii="{{esc .Font}}" w:hAnsi="{{esc .Font}}" w:cs="{{esc .Font}}"/>{{end}}` +
	`{{if .Bold}}<w:b/><w:bCs/>{{end}}{{if .Italic}}<w:i/><w:iCs/>{{end}}` +
	`{{if .Color}}<w:color w:val="{{.Color}}"/>{{end}}` +
	`{{if .Size}}<w:sz w:val="{{.Size}}"/><w:szCs w:val="{{.Size}}"/>{{end}}` +
	`</w:rPr><w:t xml:space="preserve">{{esc .Text}}</w:t></w:r>{{end}}` +

	`{{define "image"}}<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">` +
	`<wp:extent cx="{{.Width}}" cy="{{.Height}}"/><wp:docPr id="{{.ID}}" name="{{.Name}}"/>` +
	`<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>` +
	`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
	`<pic:pic><pic:nvPicPr><pic:cNvPr id="{{.ID}}" name="{{.Name}}"/><pic:cNvPicPr/></pic:nvPicPr>` +
	`<pic:blipFill><a:blip r:embed="{{.RelID}}"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>` +
	`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="{{.Width}}" cy="{{.Height}}"/></a:xfrm>` +
	`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr></pic:pic>` +
	`</a:graphicData></a:graphic></wp:inline></w:drawing></w:r>{{end}}` +

	`{{define "para"}}<w:p><w:pPr>` +
	`{{if .Shading}}<w:shd w:val="clear" w:color="auto" w:fill="{{.Shading}}"/>{{end}}` +
	`<w:spacing w:before="{{.Before}}" w:after="{{.After}}"{{if .Line}} w:line="{{.Line}}" w:lineRule="exact"{{end}}/>` +
	`{{if or .IndentLeft .IndentRight}}<w:ind w:left="{{.IndentLeft}}" w:right="{{.IndentRight}}"/>{{end}}` +
	`{{if .Align}}<w:jc w:val="{{.Align}}"/>{{end}}` +
	`</w:pPr>{{if .Image}}{{template "image" .Image}}{{end}}{{range .Runs}}{{template "run" .}}{{end}}</w:p>{{end}}` +

	`{{define "cell"}}<w:tbl><w:tblPr><w:tblW w:w="{{.Width}}" w:type="dxa"/>` +
	`<w:tblBorders><w:top w:val="none" w:sz="0" w:space="0" w:color="auto"/><w:left w:val="none" w:sz="0" w:space="0" w:color="auto"/>` +
	`<w:bottom w:val="none" w:sz="0" w:space="0" w:color="auto"/><w:right w:val="none" w:sz="0" w:space="0" w:color="auto"/>` +
	`<w:insideH w:val="none" w:sz="0" w:space="0" w:color="auto"/><w:insideV w:val="none" w:sz="0" w:space="0" w:color="auto"/></w:tblBorders>` +
	`<w:tblLayout w:type="fixed"/><w:tblLook w:val="0000"/></w:tblPr>` +
	`<w:tblGrid><w:gridCol w:w="{{.Width}}"/></w:tblGrid>` +
	`<w:tr><w:trPr><w:trHeight w:val="{{.Height}}" w:hRule="atLeast"/></w:trPr>` +
	`<w:tc><w:tcPr><w:tcW w:w="{{.Width}}" w:type="dxa"/><w:vAlign w:val="bottom"/></w:tcPr>` +
	`{{range .Paragraphs}}{{template "para" .}}{{end}}</w:tc></w:tr></w:tbl>{{end}}` +

	xmlHeader + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"><w:body>` +
	`{{range .Blocks}}{{if .Para}}{{template "para" .Para}}{{else}}{{template "cell" .Cell}}<w:p/>{{end}}{{end}}` +
	`<w:sectPr><w:pgSz w:w="{{.Width}}" w:h="{{.Height}}"/>` +
	`<w:pgMar w:top="{{.Top}}" w:right="{{.Right}}" w:bottom="{{.Bottom}}" w:left="{{.Left}}" w:header="720" w:footer="720" w:gutter="0"/>` +
	`{{with .Border}}<w:pgBorders w:offsetFrom="page">` +
	`<w:top w:val="{{.Style}}" w:sz="{{.Size}}" w:space="{{.Space}}" w:color="{{.Color}}"/>` +
	`<w:left w:val="{{.Style}}" w:sz="{{.Size}}" w:space="{{.Space}}" w:color="{{.Color}}"/>` +
	`<w:bottom w:val="{{.Style}}" w:sz="{{.Size}}" w:space="{{.Space}}" w:color="{{.Color}}"/>` +
	`<w:right w:val="{{.Style}}" w:sz="{{.Size}}" w:space="{{.Space}}" w:color="{{.Color}}"/>` +
	`</w:pgBorders>{{end}}` +
	`</w:sectPr></w:body></w:document>`

type part struct {
	name string
	tmpl *template.Template
}

var parts = func() []part {
	mustParse := func(name, text string) *template.Template {
		return template.Must(template.New(name).Funcs(funcs).Parse(text))
	}
	return []part{
		{"[Content_Types].xml", mustParse("content-types", contentTypesXML)},
		{"_rels/.rels", mustParse("rels", rootRelsXML)},
		{"docProps/core.xml", mustParse("core", coreXML)},
		{"word/document.xml", mustParse("document", documentXML)},
		{"word/styles.xml", mustParse("styles", stylesXML)},
		{"word/_rels/document.xml.rels", mustParse("document-rels", documentRelsXML)},
	}
}()
