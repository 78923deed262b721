// Package generator turns a profile module and a sheet number into a
// document on disk.
//
// Requests are snapshots: everything a render needs is copied out of the
// profile when the request is built, so edits to the profile while a job is
// running cannot affect it. Jobs never change the working directory; the
// output directory is passed explicitly to the template.
package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	lserrors "github.com/conneroisu/labsheet/internal/errors"
	"github.com/conneroisu/labsheet/internal/logging"
	"github.com/conneroisu/labsheet/internal/profile"
	"github.com/conneroisu/labsheet/internal/registry"
	"github.com/conneroisu/labsheet/internal/types"
)

// SheetLabel builds the heading for a sheet, e.g. "Lab 01", or "Lab 1"
// when the module does not use zero padding.
func SheetLabel(m profile.Module, number int) string {
	if m.UseZeroPadding {
		return fmt.Sprintf("%s %02d", m.SheetTypeLabel(), number)
	}
	return fmt.Sprintf("%s %d", m.SheetTypeLabel(), number)
}

// Request is a self-contained generation job.
type Request struct {
	JobID     string
	Module    profile.Module
	Params    types.SheetParams
	OutputDir string
}

// NewRequest snapshots the profile fields needed to render sheet number of
// module m.
func NewRequest(p *profile.Profile, m profile.Module, number int) Request {
	m = m.Clone()
	return Request{
		JobID:  uuid.NewString(),
		Module: m,
		Params: types.SheetParams{
			StudentName: p.StudentName,
			StudentID:   p.StudentID,
			ModuleName:  m.Name,
			ModuleCode:  m.Code,
			SheetLabel:  SheetLabel(m, number),
			LogoPath:    p.LogoPath,
		},
		OutputDir: p.OutputDirFor(m),
	}
}

// Result reports the outcome of one request.
type Result struct {
	JobID      string   `json:"job_id" yaml:"job_id"`
	Module     string   `json:"module" yaml:"module"`
	SheetLabel string   `json:"sheet_label" yaml:"sheet_label"`
	TemplateID string   `json:"template" yaml:"template"`
	FellBack   bool     `json:"fell_back" yaml:"fell_back"`
	Filename   string   `json:"filename,omitempty" yaml:"filename,omitempty"`
	Path       string   `json:"path,omitempty" yaml:"path,omitempty"`
	Warnings   []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Err        error    `json:"-" yaml:"-"`
}

// Generator renders requests with templates from a registry.
type Generator struct {
	registry *registry.Registry
	logger   logging.Logger
}

// New creates a generator backed by reg.
func New(reg *registry.Registry, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Generator{registry: reg, logger: logger.WithComponent("generator")}
}

// Generate renders req synchronously. An unknown template falls back to the
// default one and adds a warning to the result; req.Module.Template is
// updated to the template actually used.
func (g *Generator) Generate(ctx context.Context, req *Request) (Result, error) {
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}
	res := Result{
		JobID:      req.JobID,
		Module:     req.Module.Code,
		SheetLabel: req.Params.SheetLabel,
	}
	logger := g.logger.With("job", req.JobID, "module", req.Module.Code)
	op := logging.StartOperation(logger, "generate")

	fail := func(err error) (Result, error) {
		res.Err = err
		op.EndWithError(ctx, err, "sheet", req.Params.SheetLabel)
		return res, err
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	tmpl, fellBack, err := g.registry.Resolve(ctx, req.Module.Template)
	if err != nil {
		return fail(err)
	}
	if fellBack {
		res.FellBack = true
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"template %q is not available, using %q instead", req.Module.Template, tmpl.ID()))
		req.Module.Template = tmpl.ID()
	}
	res.TemplateID = tmpl.ID()

	if tmpl.RequiresLogo() && req.Params.LogoPath == "" {
		return fail(lserrors.NewGenerationError(lserrors.ErrCodeLogoRequired,
			fmt.Sprintf("template %q requires a logo", tmpl.ID()), nil).WithModule(req.Module.Code))
	}

	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fail(lserrors.NewGenerationError(lserrors.ErrCodeOutputDir,
				"cannot create output directory", err).WithPath(outputDir).WithModule(req.Module.Code))
		}
	}

	filename, err := tmpl.Generate(ctx, req.Params, outputDir)
	if err != nil {
		var le *lserrors.LabsheetError
		if !errors.As(err, &le) {
			err = lserrors.WrapGeneration(err, lserrors.ErrCodeRenderFailed, "generating "+req.Params.SheetLabel, req.Module.Code)
		}
		return fail(err)
	}

	res.Filename = filename
	res.Path = filename
	if outputDir != "" {
		res.Path = filepath.Join(outputDir, filename)
	}
	op.End(ctx, "file", res.Path, "template", res.TemplateID)
	return res, nil
}

// Start runs req on its own goroutine. The channel receives exactly one
// Result and is then closed. There is no way to abort a render once it has
// begun.
func (g *Generator) Start(ctx context.Context, req Request) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		res, _ := g.Generate(ctx, &req)
		out <- res
	}()
	return out
}

// GenerateBatch renders reqs with at most limit jobs in flight. Results are
// returned in request order; every request runs even when another fails, and
// the first error is returned.
func (g *Generator) GenerateBatch(ctx context.Context, reqs []Request, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 1
	}

	results := make([]Result, len(reqs))
	var eg errgroup.Group
	eg.SetLimit(limit)

	for i := range reqs {
		eg.Go(func() error {
			req := reqs[i]
			res, err := g.Generate(ctx, &req)
			results[i] = res
			return err
		})
	}

	err := eg.Wait()
	return results, err
}
