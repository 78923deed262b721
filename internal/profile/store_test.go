package profile

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lserrors "github.com/conneroisu/labsheet/internal/errors"
)

const testOutputDir = "/home/student/Documents/LabSheets"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), WithDefaultOutputDir(testOutputDir))
	require.NoError(t, err)
	return store
}

func writeRaw(t *testing.T, store *Store, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(store.ConfigFile(), []byte(content), 0o644))
}

func sampleProfile() *Profile {
	return &Profile{
		StudentName: "NONIS P.K.D.T.",
		StudentID:   "IT23614130",
		Modules: []Module{
			{
				Name:           "Programming Paradigms",
				Code:           "SE2052",
				SheetType:      SheetLab,
				UseZeroPadding: true,
				Template:       "sliit",
			},
			{
				Name:            "Data Structures",
				Code:            "IT2070",
				SheetType:       SheetCustom,
				CustomSheetType: StringPtr("Lab Report"),
				OutputPath:      StringPtr("/tmp/ds"),
				UseZeroPadding:  false,
				Template:        "classic",
			},
		},
		GlobalOutputPath: "/tmp/sheets",
		Theme:            ThemeDark,
		DefaultTemplate:  "classic",
	}
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "settings")
	store, err := NewStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(dir, ConfigFileName), store.ConfigFile())

	again, err := LocateConfigDir(dir)
	require.NoError(t, err)
	assert.Equal(t, store.Dir(), again)
}

func TestPickConfigRoot(t *testing.T) {
	root := t.TempDir()
	platform := filepath.Join(root, "platform", AppDirName)
	legacy := filepath.Join(root, ".config", AppDirName)

	assert.Equal(t, platform, pickConfigRoot(platform, legacy), "neither exists")

	require.NoError(t, os.MkdirAll(legacy, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, ConfigFileName), []byte("{}"), 0o644))
	assert.Equal(t, legacy, pickConfigRoot(platform, legacy), "only the legacy profile exists")

	require.NoError(t, os.MkdirAll(platform, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(platform, ConfigFileName), []byte("{}"), 0o644))
	assert.Equal(t, platform, pickConfigRoot(platform, legacy), "platform profile wins")

	assert.Equal(t, legacy, pickConfigRoot(legacy, legacy))
}

func TestLocateConfigDirFindsLegacyProfile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("settings directory comes from %AppData%")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))

	legacy := filepath.Join(home, ".config", AppDirName)
	require.NoError(t, os.MkdirAll(legacy, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, ConfigFileName), []byte("{}"), 0o644))

	dir, err := LocateConfigDir("")
	require.NoError(t, err)
	assert.Equal(t, legacy, dir)
}

func TestIsFirstRun(t *testing.T) {
	store := newTestStore(t)
	assert.True(t, store.IsFirstRun())

	require.NoError(t, store.Save(sampleProfile()))
	assert.False(t, store.IsFirstRun())
}

func TestLoadMissingIsAbsent(t *testing.T) {
	store := newTestStore(t)
	p, ok := store.Load()
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestLoadCorruptIsAbsent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated json", `{"student_name": "Al`},
		{"not an object", `[1, 2, 3]`},
		{"null document", `null`},
		{"bad version", `{"schema_version": "two"}`},
		{"wrong field type", `{"student_name": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			writeRaw(t, store, tt.content)

			p, ok := store.Load()
			assert.False(t, ok)
			assert.Nil(t, p)
			assert.False(t, store.IsFirstRun())
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	in := sampleProfile()

	require.NoError(t, store.Save(in))
	out, ok := store.Load()
	require.True(t, ok)

	want := in.Clone()
	want.SchemaVersion = SchemaVersion
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, in.SchemaVersion, "Save must not modify its argument")
}

func TestSaveAppliesDefaults(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&Profile{
		StudentName: "Ann",
		StudentID:   "IT12345",
		Modules:     []Module{{Name: "Maths", Code: "MA1010", SheetType: SheetTutorial, UseZeroPadding: true}},
	}))

	out, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, testOutputDir, out.GlobalOutputPath)
	assert.Equal(t, ThemeLight, out.Theme)
	assert.Equal(t, DefaultTemplateID, out.DefaultTemplate)
	assert.Equal(t, DefaultTemplateID, out.Modules[0].Template)

	raw, err := os.ReadFile(store.ConfigFile())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"schema_version": 2`)
	assert.Contains(t, string(raw), `"global_output_path": "/home/student/Documents/LabSheets"`)
}

func TestLoadMigratesLegacyFile(t *testing.T) {
	store := newTestStore(t)
	legacy := `{
    "student_name": "NONIS P.K.D.T.",
    "student_id": "IT23614130",
    "modules": [
        {"name": "Programming Paradigms", "code": "SE2052"},
        {"name": "Networks", "code": "IT2050", "sheet_type": "Lab", "use_zero_padding": false}
    ]
}`
	writeRaw(t, store, legacy)

	p, ok := store.Load()
	require.True(t, ok)

	assert.Equal(t, SchemaVersion, p.SchemaVersion)
	assert.Equal(t, testOutputDir, p.GlobalOutputPath)
	assert.Equal(t, ThemeLight, p.Theme)
	assert.Equal(t, DefaultTemplateID, p.DefaultTemplate)

	require.Len(t, p.Modules, 2)
	first := p.Modules[0]
	assert.Equal(t, SheetPractical, first.SheetType)
	assert.Nil(t, first.CustomSheetType)
	assert.Nil(t, first.OutputPath)
	assert.True(t, first.UseZeroPadding)
	assert.Equal(t, DefaultTemplateID, first.Template)

	second := p.Modules[1]
	assert.Equal(t, SheetLab, second.SheetType)
	assert.False(t, second.UseZeroPadding, "present fields must not be overwritten")

	onDisk, err := os.ReadFile(store.ConfigFile())
	require.NoError(t, err)
	assert.Equal(t, legacy, string(onDisk), "load must not rewrite the file")
}

func TestLoadMigrationIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, `{"student_name":"Ann","student_id":"IT12345","modules":[{"name":"Maths","code":"MA1010"}]}`)

	first, ok := store.Load()
	require.True(t, ok)
	second, ok := store.Load()
	require.True(t, ok)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated loads differ (-first +second):\n%s", diff)
	}
}

func TestLoadKeepsExplicitNulls(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, `{"schema_version":1,"student_name":"Ann","student_id":"IT12345","global_output_path":"/x",
"modules":[{"name":"Maths","code":"MA1010","sheet_type":"Custom","custom_sheet_type":"Quiz","output_path":null,"use_zero_padding":true}]}`)

	p, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "/x", p.GlobalOutputPath)
	assert.Equal(t, "Quiz", Deref(p.Modules[0].CustomSheetType))
	assert.Nil(t, p.Modules[0].OutputPath)
}

func TestLoadNewerSchemaIsKept(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, `{"schema_version":7,"student_name":"Ann","student_id":"IT12345","modules":[],"future":"x"}`)

	p, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, 7, p.SchemaVersion)
	assert.Equal(t, testOutputDir, p.GlobalOutputPath, "missing keys are filled for newer versions too")
}

func TestLoadCurrentSchemaFillsMissingFields(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, `{"schema_version":2,"student_name":"Ann","student_id":"IT12345",
"modules":[{"name":"Software","code":"SE2052","template":"classic"}]}`)

	p, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, SchemaVersion, p.SchemaVersion)
	assert.Equal(t, testOutputDir, p.GlobalOutputPath)
	assert.Equal(t, ThemeLight, p.Theme)

	require.Len(t, p.Modules, 1)
	m := p.Modules[0]
	assert.Equal(t, SheetPractical, m.SheetType)
	assert.True(t, m.UseZeroPadding)
	assert.Nil(t, m.CustomSheetType)
	assert.Equal(t, "classic", m.Template)
}

func TestLogo(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.LogoPath()
	assert.False(t, ok)

	src := filepath.Join(t.TempDir(), "uni.png")
	require.NoError(t, os.WriteFile(src, []byte("first"), 0o644))
	require.NoError(t, store.SaveLogo(src))

	path, ok := store.LogoPath()
	require.True(t, ok)
	assert.Equal(t, filepath.Join(store.Dir(), LogoFileName), path)

	require.NoError(t, os.WriteFile(src, []byte("second"), 0o644))
	require.NoError(t, store.SaveLogo(src))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	require.NoError(t, store.Save(sampleProfile()))
	p, ok := store.Load()
	require.True(t, ok)
	assert.True(t, p.HasLogo())
	assert.Equal(t, path, p.LogoPath)

	err = store.SaveLogo(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.False(t, lserrors.IsRecoverable(err))
}

func TestResetIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Reset())

	require.NoError(t, store.Save(sampleProfile()))
	src := filepath.Join(t.TempDir(), "uni.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))
	require.NoError(t, store.SaveLogo(src))

	require.NoError(t, store.Reset())
	assert.True(t, store.IsFirstRun())
	_, ok := store.LogoPath()
	assert.False(t, ok)

	assert.NoError(t, store.Reset())
}

func TestUpdateThemeAndOutputPath(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateTheme(ThemeDark)
	require.Error(t, err)
	assert.True(t, lserrors.IsConfigError(err))

	require.NoError(t, store.Save(sampleProfile()))
	require.NoError(t, store.UpdateTheme(ThemeLight))
	require.NoError(t, store.SetOutputPath("  /srv/out  "))

	p, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, ThemeLight, p.Theme)
	assert.Equal(t, "/srv/out", p.GlobalOutputPath)

	err = store.UpdateTheme("sepia")
	assert.True(t, lserrors.IsValidationError(err))
}

func TestWatchReportsChanges(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(sampleProfile()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var names []string
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, 30*time.Millisecond, func(p *Profile, ok bool) {
			mu.Lock()
			defer mu.Unlock()
			if ok {
				names = append(names, p.StudentName)
			}
		})
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	updated := sampleProfile()
	updated.StudentName = "Renamed Student"
	require.NoError(t, store.Save(updated))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(names) > 0 && names[len(names)-1] == "Renamed Student"
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
