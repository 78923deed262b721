package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"

	lserrors "github.com/conneroisu/labsheet/internal/errors"
)

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo serialises the document as a .docx package.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	view := d.view()

	var buf bytes.Buffer
	for _, p := range parts {
		buf.Reset()
		if err := p.tmpl.Execute(&buf, view); err != nil {
			return cw.n, fmt.Errorf("rendering %s: %w", p.name, err)
		}
		if err := writeEntry(zw, p.name, buf.Bytes()); err != nil {
			return cw.n, err
		}
	}

	for _, m := range view.Media {
		if err := writeEntry(zw, "word/media/"+m.Name, m.Data); err != nil {
			return cw.n, err
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("finishing package: %w", err)
	}
	return cw.n, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Save writes the document to path, replacing any existing file. A failed
// write does not leave a partial file behind.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	_, werr := d.WriteTo(f)
	if err := lserrors.FirstError(werr, f.Close()); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
