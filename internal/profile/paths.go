package profile

import (
	"fmt"
	"os"
	"path/filepath"
)

// File layout inside the settings directory.
const (
	AppDirName     = "LabSheetGenerator"
	ConfigFileName = "config.json"
	LogoFileName   = "logo.png"
)

func configRoot() (string, error) {
	home, herr := os.UserHomeDir()
	base, err := os.UserConfigDir()
	if err != nil {
		if herr != nil {
			return "", fmt.Errorf("locating settings directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}

	platform := filepath.Join(base, AppDirName)
	if herr != nil {
		return platform, nil
	}
	return pickConfigRoot(platform, filepath.Join(home, ".config", AppDirName)), nil
}

// pickConfigRoot returns the platform directory unless only legacy, the
// ~/.config location used on every platform by earlier releases, holds a
// saved profile.
func pickConfigRoot(platform, legacy string) string {
	if platform == legacy || hasConfigFile(platform) {
		return platform
	}
	if hasConfigFile(legacy) {
		return legacy
	}
	return platform
}

func hasConfigFile(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil && !info.IsDir()
}

// LocateConfigDir returns the settings directory, creating it if needed.
// A non-empty override replaces the platform location. Repeated calls
// return the same path.
func LocateConfigDir(override string) (string, error) {
	dir := override
	if dir == "" {
		root, err := configRoot()
		if err != nil {
			return "", err
		}
		dir = root
	}

	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating settings directory %s: %w", dir, err)
	}
	return dir, nil
}

// DefaultOutputDir is where sheets go when neither the module nor the
// profile names a directory.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Documents", "LabSheets")
}
