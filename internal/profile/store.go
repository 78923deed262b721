package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	lserrors "github.com/conneroisu/labsheet/internal/errors"
	"github.com/conneroisu/labsheet/internal/logging"
	"github.com/conneroisu/labsheet/internal/watcher"
)

// Store reads and writes the profile file and the logo next to it.
// Reads and writes are synchronous and unlocked; concurrent processes
// follow last-writer-wins.
type Store struct {
	dir              string
	configFile       string
	logoFile         string
	defaultOutputDir string
	logger           logging.Logger
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithDefaultOutputDir overrides the platform default output directory used
// when backfilling and saving global_output_path.
func WithDefaultOutputDir(dir string) StoreOption {
	return func(s *Store) {
		s.defaultOutputDir = dir
	}
}

// WithLogger sets the logger used by the Store.
func WithLogger(logger logging.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore opens the store rooted at dir, or at the platform settings
// directory when dir is empty. The directory is created if missing.
func NewStore(dir string, opts ...StoreOption) (*Store, error) {
	resolved, err := LocateConfigDir(dir)
	if err != nil {
		return nil, lserrors.WrapIO(err, lserrors.ErrCodeWriteFailed, "cannot prepare settings directory")
	}

	s := &Store{
		dir:              resolved,
		configFile:       filepath.Join(resolved, ConfigFileName),
		logoFile:         filepath.Join(resolved, LogoFileName),
		defaultOutputDir: DefaultOutputDir(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	s.logger = s.logger.WithComponent("profile")
	return s, nil
}

// Dir is the settings directory.
func (s *Store) Dir() string { return s.dir }

// ConfigFile is the path of the profile JSON file.
func (s *Store) ConfigFile() string { return s.configFile }

// DefaultOutputDir is the output directory used when none is configured.
func (s *Store) DefaultOutputDir() string { return s.defaultOutputDir }

// IsFirstRun reports whether no profile file exists yet.
func (s *Store) IsFirstRun() bool {
	_, err := os.Stat(s.configFile)
	return errors.Is(err, os.ErrNotExist)
}

// Load reads, migrates and returns the profile. A missing, unreadable or
// malformed file yields (nil, false) so callers treat it exactly like a first
// run. Migration happens in memory only.
func (s *Store) Load() (*Profile, bool) {
	ctx := context.Background()

	data, err := os.ReadFile(s.configFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn(ctx, err, "Profile unreadable, treating as absent", "file", s.configFile)
		}
		return nil, false
	}

	p, from, err := decodeProfile(data, migrationEnv{defaultOutputDir: s.defaultOutputDir})
	if err != nil {
		s.logger.Warn(ctx, err, "Profile corrupt, treating as absent", "file", s.configFile)
		return nil, false
	}
	if from < SchemaVersion {
		s.logger.Debug(ctx, "Profile upgraded in memory", "from", from, "to", SchemaVersion)
	}

	if logo, ok := s.LogoPath(); ok {
		p.LogoPath = logo
	}
	return p, true
}

// Save overwrites the profile file with p. The write goes to a temporary
// file in the same directory which is then renamed over the old one, so
// readers see either the old or the new profile. p itself is not modified.
func (s *Store) Save(p *Profile) error {
	if p == nil {
		return lserrors.NewInternalError(lserrors.ErrCodeInternalError, "nil profile", nil)
	}

	out := p.Clone()
	out.SchemaVersion = SchemaVersion
	if strings.TrimSpace(out.GlobalOutputPath) == "" {
		out.GlobalOutputPath = s.defaultOutputDir
	}
	if out.Theme == "" {
		out.Theme = ThemeLight
	}
	if out.DefaultTemplate == "" {
		out.DefaultTemplate = DefaultTemplateID
	}
	if out.Modules == nil {
		out.Modules = []Module{}
	}
	for i := range out.Modules {
		if out.Modules[i].Template == "" {
			out.Modules[i].Template = out.DefaultTemplate
		}
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return lserrors.NewInternalError(lserrors.ErrCodeInternalError, "encoding profile", err)
	}

	if err := writeFileAtomic(s.configFile, data); err != nil {
		return lserrors.WrapIO(err, lserrors.ErrCodeWriteFailed, "saving profile").WithPath(s.configFile)
	}

	s.logger.Info(context.Background(), "Profile saved", "modules", len(out.Modules))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// SaveLogo copies src into the settings directory under the fixed logo
// name, replacing any previous logo.
func (s *Store) SaveLogo(src string) error {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lserrors.NewIOError(lserrors.ErrCodeFileNotFound, "logo file not found", err).WithPath(src)
		}
		return lserrors.WrapIO(err, lserrors.ErrCodeFileNotFound, "cannot open logo").WithPath(src)
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return lserrors.WrapIO(err, lserrors.ErrCodeFileNotFound, "cannot read logo").WithPath(src)
	}
	if err := writeFileAtomic(s.logoFile, data); err != nil {
		return lserrors.WrapIO(err, lserrors.ErrCodeWriteFailed, "saving logo").WithPath(s.logoFile)
	}

	s.logger.Info(context.Background(), "Logo saved", "source", src, "bytes", len(data))
	return nil
}

// LogoPath returns the stored logo path when a logo exists.
func (s *Store) LogoPath() (string, bool) {
	info, err := os.Stat(s.logoFile)
	if err != nil || info.IsDir() {
		return "", false
	}
	return s.logoFile, true
}

// Reset deletes the profile and the logo. Missing files are not an error.
func (s *Store) Reset() error {
	for _, path := range []string{s.configFile, s.logoFile} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return lserrors.WrapIO(err, lserrors.ErrCodeWriteFailed, "resetting configuration").WithPath(path)
		}
	}
	s.logger.Info(context.Background(), "Configuration reset", "dir", s.dir)
	return nil
}

func (s *Store) update(fn func(p *Profile)) error {
	p, ok := s.Load()
	if !ok {
		return lserrors.NewConfigError(lserrors.ErrCodeConfigMissing,
			"no configuration found, run setup first", nil)
	}
	fn(p)
	return s.Save(p)
}

// UpdateTheme persists the theme preference.
func (s *Store) UpdateTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return lserrors.NewValidationError(lserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("theme must be %q or %q", ThemeLight, ThemeDark))
	}
	return s.update(func(p *Profile) { p.Theme = theme })
}

// SetOutputPath persists the global output directory. The directory is not
// checked here; problems surface when a sheet is generated.
func (s *Store) SetOutputPath(dir string) error {
	return s.update(func(p *Profile) { p.GlobalOutputPath = strings.TrimSpace(dir) })
}

// Watch calls fn with the freshly loaded profile each time the profile or
// the logo changes on disk, until ctx is done. fn receives (nil, false)
// after a reset or when the file becomes unreadable.
func (s *Store) Watch(ctx context.Context, debounce time.Duration, fn func(*Profile, bool)) error {
	fw, err := watcher.NewFileWatcher(debounce, s.logger)
	if err != nil {
		return lserrors.WrapIO(err, lserrors.ErrCodeInternalError, "starting watcher")
	}
	defer fw.Stop()

	if err := fw.AddPath(s.dir); err != nil {
		return lserrors.WrapIO(err, lserrors.ErrCodeInternalError, "watching settings directory").WithPath(s.dir)
	}
	fw.AddFilter(watcher.NameFilter(ConfigFileName, LogoFileName))
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		s.logger.Debug(ctx, "Settings changed", "events", len(events))
		fn(s.Load())
		return nil
	})

	if err := fw.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
