package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/labsheet/internal/config"
	"github.com/conneroisu/labsheet/internal/profile"
	"github.com/conneroisu/labsheet/internal/registry"
)

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case config.OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case config.OutputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(v)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// moduleRow is the listing view of a module.
type moduleRow struct {
	Name       string `json:"name" yaml:"name"`
	Code       string `json:"code" yaml:"code"`
	SheetType  string `json:"sheet_type" yaml:"sheet_type"`
	Template   string `json:"template" yaml:"template"`
	OutputDir  string `json:"output_dir" yaml:"output_dir"`
	ZeroPadded bool   `json:"zero_padded" yaml:"zero_padded"`
}

func moduleRows(p *profile.Profile) []moduleRow {
	rows := make([]moduleRow, 0, len(p.Modules))
	for _, m := range p.Modules {
		rows = append(rows, moduleRow{
			Name:       m.Name,
			Code:       m.Code,
			SheetType:  m.SheetTypeLabel(),
			Template:   m.Template,
			OutputDir:  p.OutputDirFor(m),
			ZeroPadded: m.UseZeroPadding,
		})
	}
	return rows
}

func writeModuleTable(out io.Writer, p *profile.Profile, reg *registry.Registry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "CODE\tNAME\tSHEET TYPE\tTEMPLATE\tOUTPUT")
	fmt.Fprintln(w, strings.Join([]string{
		strings.Repeat("-", 4),
		strings.Repeat("-", 4),
		strings.Repeat("-", 10),
		strings.Repeat("-", 8),
		strings.Repeat("-", 6),
	}, "\t"))

	for _, row := range moduleRows(p) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			row.Code, row.Name, row.SheetType, reg.DisplayName(row.Template), row.OutputDir)
	}

	return w.Flush()
}
