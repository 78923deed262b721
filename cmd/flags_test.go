package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/labsheet/internal/config"
)

func TestValidateFormatWithSuggestion(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		wantErr    bool
		suggestion string
	}{
		{name: "exact", value: "json"},
		{name: "case insensitive", value: "YAML"},
		{name: "typo", value: "jsno", wantErr: true, suggestion: `did you mean "json"?`},
		{name: "missing letter", value: "tabe", wantErr: true, suggestion: `did you mean "table"?`},
		{name: "far off", value: "markdown", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormatWithSuggestion(tt.value, config.OutputFormats)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "must be one of: table, json, yaml")
			if tt.suggestion != "" {
				assert.Contains(t, err.Error(), tt.suggestion)
			} else {
				assert.NotContains(t, err.Error(), "did you mean")
			}
		})
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"json", "json", 0},
		{"", "yaml", 4},
		{"jsno", "json", 2},
		{"tabel", "table", 2},
		{"kitten", "sitting", 3},
		{"practical", "practicle", 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, editDistance(tt.a, tt.b), "%q -> %q", tt.a, tt.b)
		assert.Equal(t, tt.want, editDistance(tt.b, tt.a), "%q -> %q", tt.b, tt.a)
	}
}

func TestValidateSheetNumberFlag(t *testing.T) {
	for _, ok := range []string{"0", "1", "42", "99"} {
		assert.NoError(t, validateSheetNumberFlag(ok), ok)
	}
	for _, bad := range []string{"-1", "100", "abc", "3.5", ""} {
		assert.Error(t, validateSheetNumberFlag(bad), bad)
	}
}

func TestValidateDirFlag(t *testing.T) {
	assert.NoError(t, validateDirFlag(""))
	assert.NoError(t, validateDirFlag(t.TempDir()))
	assert.NoError(t, validateDirFlag("relative/labs"))
	assert.Error(t, validateDirFlag("/etc/labsheet"))
	assert.Error(t, validateDirFlag("labs; rm -rf ~"))
}

func TestValidateSheetTypeFlag(t *testing.T) {
	for _, ok := range []string{"Lab", "lab", "PRACTICAL", "custom"} {
		assert.NoError(t, validateSheetTypeFlag(ok), ok)
	}

	err := validateSheetTypeFlag("Labb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "Lab"?`)

	assert.Error(t, validateSheetTypeFlag("Homework"))
}

func TestValidateArguments(t *testing.T) {
	assert.NoError(t, validateArguments([]string{"SE2052"}))
	assert.NoError(t, validateArguments([]string{"se2052", "IT1010"}))

	err := validateArguments([]string{"SE2052", "SE 20/52"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid argument 'SE 20/52'")
}

func TestValidateFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.NoError(t, ValidateFileExists(""))
	assert.NoError(t, ValidateFileExists(file))
	assert.ErrorContains(t, ValidateFileExists(filepath.Join(dir, "missing.png")), "does not exist")
	assert.ErrorContains(t, ValidateFileExists(dir), "is a directory")
}

func TestAddFlagValidation(t *testing.T) {
	var value string
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&value, "mode", "fast", "")
	AddFlagValidation(cmd, "mode", func(v string) error {
		return ValidateFormatWithSuggestion(v, []string{"fast", "slow"})
	})

	require.NoError(t, cmd.Flags().Set("mode", "slow"))
	assert.Equal(t, "slow", value)

	err := cmd.Flags().Set("mode", "slwo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "slow"?`)
	assert.Equal(t, "slow", value, "rejected values are not stored")

	// Unknown flags are ignored.
	AddFlagValidation(cmd, "missing", func(string) error { return nil })
}

func TestOutputFormat(t *testing.T) {
	settings := &config.Settings{Output: config.OutputYAML}

	assert.Equal(t, config.OutputJSON, outputFormat("JSON", settings))
	assert.Equal(t, config.OutputYAML, outputFormat("", settings))
	assert.Equal(t, config.OutputTable, outputFormat("", nil))
	assert.Equal(t, config.OutputTable, outputFormat("", &config.Settings{}))
}
