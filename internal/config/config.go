// Package config provides the labsheet application settings using Viper for
// loading from flags, environment variables and an optional settings file.
//
// Settings are distinct from the user's profile: they control where the
// profile lives, how the CLI logs and how listings are printed. Environment
// variables use the LABSHEET_ prefix (LABSHEET_CONFIG_DIR, LABSHEET_LOG_LEVEL,
// ...), and the settings file defaults to .labsheet.yml in the current
// directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	lserrors "github.com/conneroisu/labsheet/internal/errors"
	"github.com/conneroisu/labsheet/internal/logging"
)

// Setting keys.
const (
	KeyConfigDir = "config_dir"
	KeyLogLevel  = "log_level"
	KeyLogFormat = "log_format"
	KeyOutput    = "output"
	KeyParallel  = "parallel"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "LABSHEET"

// SettingsFileEnv names a settings file when --settings is not given.
const SettingsFileEnv = "LABSHEET_SETTINGS_FILE"

// Output formats for listings.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// OutputFormats lists the accepted output formats.
var OutputFormats = []string{OutputTable, OutputJSON, OutputYAML}

// LogFormats lists the accepted log formats.
var LogFormats = []string{"text", "json"}

// LogLevels lists the accepted log levels.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Settings holds application settings.
type Settings struct {
	ConfigDir string `mapstructure:"config_dir" yaml:"config_dir" json:"config_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	Output    string `mapstructure:"output" yaml:"output" json:"output"`
	Parallel  int    `mapstructure:"parallel" yaml:"parallel" json:"parallel"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyConfigDir, "")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyOutput, OutputTable)
	v.SetDefault(KeyParallel, 4)
}

// Init points v at the settings file and enables environment overrides.
//
// Settings file priority:
//  1. settingsFile (the --settings flag)
//  2. LABSHEET_SETTINGS_FILE
//  3. .labsheet.yml in the current directory
//
// A missing default file is not an error. An explicitly named file that
// cannot be read is.
func Init(v *viper.Viper, settingsFile string) (string, error) {
	SetDefaults(v)

	explicit := settingsFile
	if explicit == "" {
		explicit = os.Getenv(SettingsFileEnv)
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".labsheet")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", lserrors.NewConfigError(lserrors.ErrCodeConfigInvalid,
			"reading settings file", err).WithPath(explicit)
	}

	return v.ConfigFileUsed(), nil
}

// Load unmarshals the global viper state into Settings.
func Load() (*Settings, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v into Settings and validates the result.
func LoadFrom(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, lserrors.NewConfigError(lserrors.ErrCodeConfigInvalid, "decoding settings", err)
	}

	s.normalize()

	result := ValidateSettings(&s)
	if result.HasErrors() {
		return nil, lserrors.NewConfigError(lserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid settings: %s", result.Summary()), nil)
	}

	return &s, nil
}

func (s *Settings) normalize() {
	s.ConfigDir = strings.TrimSpace(s.ConfigDir)
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
	s.LogFormat = strings.ToLower(strings.TrimSpace(s.LogFormat))
	s.Output = strings.ToLower(strings.TrimSpace(s.Output))
	if s.LogLevel == "" {
		s.LogLevel = "warn"
	}
	if s.LogFormat == "" {
		s.LogFormat = "text"
	}
	if s.Output == "" {
		s.Output = OutputTable
	}
	if s.Parallel == 0 {
		s.Parallel = 4
	}
}

// LoggerConfig builds the logger configuration for these settings.
func (s *Settings) LoggerConfig() *logging.LoggerConfig {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(s.LogLevel); err == nil {
		cfg.Level = level
	}
	cfg.Format = s.LogFormat
	return cfg
}
