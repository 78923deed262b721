package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	lserrors "github.com/conneroisu/labsheet/internal/errors"
	"github.com/conneroisu/labsheet/internal/profile"
	"github.com/conneroisu/labsheet/internal/registry"
	"github.com/conneroisu/labsheet/internal/templates"
	"github.com/conneroisu/labsheet/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingTemplate struct {
	id       string
	logo     bool
	fail     error
	delay    time.Duration
	mu       sync.Mutex
	params   []types.SheetParams
	inFlight int32
	maxSeen  int32
}

func (r *recordingTemplate) ID() string              { return r.id }
func (r *recordingTemplate) DisplayName() string     { return r.id }
func (r *recordingTemplate) Description() string     { return "" }
func (r *recordingTemplate) RequiredFonts() []string { return nil }
func (r *recordingTemplate) RequiresLogo() bool      { return r.logo }

func (r *recordingTemplate) Generate(_ context.Context, p types.SheetParams, dir string) (string, error) {
	n := atomic.AddInt32(&r.inFlight, 1)
	defer atomic.AddInt32(&r.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&r.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&r.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(r.delay)

	r.mu.Lock()
	r.params = append(r.params, p)
	r.mu.Unlock()

	if r.fail != nil && p.SheetLabel == "Practical 03" {
		return "", r.fail
	}
	return templates.Filename(p.SheetLabel, p.StudentID), nil
}

func testProfile(outputDir string) *profile.Profile {
	return &profile.Profile{
		StudentName:      "NONIS P.K.D.T.",
		StudentID:        "IT23614130",
		GlobalOutputPath: outputDir,
		DefaultTemplate:  "classic",
		Modules: []profile.Module{
			{Name: "Programming Paradigms", Code: "SE2052", SheetType: profile.SheetLab, UseZeroPadding: true, Template: "classic"},
			{Name: "Data Structures", Code: "IT2070", SheetType: profile.SheetCustom, CustomSheetType: profile.StringPtr("Lab Report"), Template: "sliit"},
		},
	}
}

func TestSheetLabel(t *testing.T) {
	tests := []struct {
		name   string
		module profile.Module
		number int
		want   string
	}{
		{"padded", profile.Module{SheetType: profile.SheetLab, UseZeroPadding: true}, 1, "Lab 01"},
		{"unpadded", profile.Module{SheetType: profile.SheetPractical}, 6, "Practical 6"},
		{"two digits", profile.Module{SheetType: profile.SheetTutorial, UseZeroPadding: true}, 12, "Tutorial 12"},
		{"custom", profile.Module{SheetType: profile.SheetCustom, CustomSheetType: profile.StringPtr("Lab Report"), UseZeroPadding: true}, 2, "Lab Report 02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SheetLabel(tt.module, tt.number))
		})
	}
}

func TestNewRequestIsSnapshot(t *testing.T) {
	p := testProfile("/out")
	p.LogoPath = "/cfg/logo.png"
	p.Modules[1].OutputPath = profile.StringPtr("/ds")

	req := NewRequest(p, p.Modules[1], 2)
	assert.NotEmpty(t, req.JobID)
	assert.Equal(t, "Lab Report 02", req.Params.SheetLabel)
	assert.Equal(t, "/ds", req.OutputDir)
	assert.Equal(t, "/cfg/logo.png", req.Params.LogoPath)

	p.StudentName = "Changed"
	*p.Modules[1].CustomSheetType = "Changed"
	p.Modules[1].Template = "changed"

	assert.Equal(t, "NONIS P.K.D.T.", req.Params.StudentName)
	assert.Equal(t, "Lab Report", profile.Deref(req.Module.CustomSheetType))
	assert.Equal(t, "sliit", req.Module.Template)

	other := NewRequest(p, p.Modules[0], 1)
	assert.NotEqual(t, req.JobID, other.JobID)
	assert.Equal(t, "/out", other.OutputDir)
}

func TestGenerateWithBuiltins(t *testing.T) {
	reg := registry.New(nil)
	require.NoError(t, templates.RegisterBuiltins(reg, nil))
	gen := New(reg, nil)

	out := filepath.Join(t.TempDir(), "nested", "LabSheets")
	p := testProfile(out)
	req := NewRequest(p, p.Modules[0], 1)

	res, err := gen.Generate(context.Background(), &req)
	require.NoError(t, err)
	assert.Equal(t, "Lab_01_IT23614130.docx", res.Filename)
	assert.Equal(t, filepath.Join(out, "Lab_01_IT23614130.docx"), res.Path)
	assert.Equal(t, "classic", res.TemplateID)
	assert.False(t, res.FellBack)
	assert.Empty(t, res.Warnings)

	info, err := os.Stat(res.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestGenerateFallsBackToClassic(t *testing.T) {
	reg := registry.New(nil)
	classic := &recordingTemplate{id: "classic"}
	reg.Register("classic", classic)
	gen := New(reg, nil)

	p := testProfile(t.TempDir())
	req := NewRequest(p, p.Modules[1], 1)

	res, err := gen.Generate(context.Background(), &req)
	require.NoError(t, err)
	assert.True(t, res.FellBack)
	assert.Equal(t, "classic", res.TemplateID)
	assert.Equal(t, "classic", req.Module.Template)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], `"sliit"`)
	assert.Equal(t, "sliit", p.Modules[1].Template, "the stored profile is untouched")
	assert.Len(t, classic.params, 1)
}

func TestGenerateErrors(t *testing.T) {
	t.Run("no default template", func(t *testing.T) {
		gen := New(registry.New(nil), nil)
		p := testProfile(t.TempDir())
		req := NewRequest(p, p.Modules[0], 1)

		res, err := gen.Generate(context.Background(), &req)
		require.Error(t, err)
		assert.True(t, lserrors.IsTemplateError(err))
		assert.Equal(t, err, res.Err)
	})

	t.Run("logo required", func(t *testing.T) {
		reg := registry.New(nil)
		reg.Register("classic", &recordingTemplate{id: "classic", logo: true})
		gen := New(reg, nil)
		p := testProfile(t.TempDir())
		req := NewRequest(p, p.Modules[0], 1)

		_, err := gen.Generate(context.Background(), &req)
		var le *lserrors.LabsheetError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, lserrors.ErrCodeLogoRequired, le.Code)
		assert.True(t, lserrors.IsRecoverable(err))
	})

	t.Run("output dir not creatable", func(t *testing.T) {
		reg := registry.New(nil)
		reg.Register("classic", &recordingTemplate{id: "classic"})
		gen := New(reg, nil)

		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
		p := testProfile(filepath.Join(blocker, "sub"))
		req := NewRequest(p, p.Modules[0], 1)

		_, err := gen.Generate(context.Background(), &req)
		var le *lserrors.LabsheetError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, lserrors.ErrCodeOutputDir, le.Code)
	})

	t.Run("render failure is wrapped", func(t *testing.T) {
		reg := registry.New(nil)
		reg.Register("classic", &recordingTemplate{id: "classic", fail: errors.New("disk full")})
		gen := New(reg, nil)
		p := testProfile(t.TempDir())
		p.Modules[0].SheetType = profile.SheetPractical
		req := NewRequest(p, p.Modules[0], 3)

		_, err := gen.Generate(context.Background(), &req)
		require.Error(t, err)
		assert.True(t, lserrors.IsGenerationError(err))
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("cancelled before start", func(t *testing.T) {
		reg := registry.New(nil)
		tmpl := &recordingTemplate{id: "classic"}
		reg.Register("classic", tmpl)
		gen := New(reg, nil)
		p := testProfile(t.TempDir())
		req := NewRequest(p, p.Modules[0], 1)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := gen.Generate(ctx, &req)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, tmpl.params)
	})
}

func TestStart(t *testing.T) {
	reg := registry.New(nil)
	reg.Register("classic", &recordingTemplate{id: "classic", delay: 20 * time.Millisecond})
	gen := New(reg, nil)
	p := testProfile(t.TempDir())
	req := NewRequest(p, p.Modules[0], 4)

	ch := gen.Start(context.Background(), req)

	// edits after Start must not reach the job
	p.StudentID = "CHANGED"

	res, ok := <-ch
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, req.JobID, res.JobID)
	assert.Equal(t, "Lab_04_IT23614130.docx", res.Filename)

	_, ok = <-ch
	assert.False(t, ok, "channel is closed after one result")
}

func TestGenerateBatch(t *testing.T) {
	reg := registry.New(nil)
	tmpl := &recordingTemplate{id: "classic", delay: 10 * time.Millisecond, fail: errors.New("boom")}
	reg.Register("classic", tmpl)
	gen := New(reg, nil)

	p := testProfile(t.TempDir())
	p.Modules[0].SheetType = profile.SheetPractical
	var reqs []Request
	for n := 1; n <= 6; n++ {
		reqs = append(reqs, NewRequest(p, p.Modules[0], n))
	}

	results, err := gen.GenerateBatch(context.Background(), reqs, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	require.Len(t, results, 6)

	for i, res := range results {
		label := fmt.Sprintf("Practical %02d", i+1)
		assert.Equal(t, label, res.SheetLabel)
		if i == 2 {
			assert.Error(t, res.Err)
			continue
		}
		assert.NoError(t, res.Err)
		assert.Equal(t, fmt.Sprintf("Practical_%02d_IT23614130.docx", i+1), res.Filename)
	}

	assert.Len(t, tmpl.params, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&tmpl.maxSeen), int32(2))
}

func TestGenerateBatchEmpty(t *testing.T) {
	gen := New(registry.New(nil), nil)
	results, err := gen.GenerateBatch(context.Background(), nil, 0)
	assert.NoError(t, err)
	assert.Empty(t, results)
}
