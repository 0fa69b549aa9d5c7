package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"renamezip/internal/config"
	"renamezip/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary YAML config file
func createTestYAML(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

const (
	validYAML = `
archive:
  name: photos.zip
  method: store
grouping:
  default_group: loose
  exclude: [".DS_Store", "Thumbs.db", "._*"]
  sort: locale
naming:
  separator: "_"
  pad: 3
traversal:
  sanitize: false
  concurrency: 4
progress:
  preview_start: 50
  preview_end: 75
  package_start: 75
  package_end: 100
mapping:
  original_column: folder
  new_column: renamed
`
	invalidSyntaxYAML = `
archive:
  name: "broken
  method: [
`
	invalidMethodYAML = `
archive:
  method: bzip2
`
	invalidProgressYAML = `
progress:
  preview_start: 0
  preview_end: 80
  package_start: 50
  package_end: 100
`
	invalidGlobYAML = `
grouping:
  exclude: ["[unclosed"]
`
)

func TestLoadConfigFile(t *testing.T) {
	t.Run("load valid config", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(createTestYAML(t, validYAML))
		require.NoError(t, err)

		assert.Equal(t, "photos.zip", cfg.Archive.Name)
		assert.Equal(t, config.MethodStore, cfg.Archive.Method)
		assert.Equal(t, "loose", cfg.Grouping.DefaultGroup)
		assert.Equal(t, []string{".DS_Store", "Thumbs.db", "._*"}, cfg.Grouping.Exclude)
		assert.Equal(t, config.SortLocale, cfg.Grouping.Sort)
		assert.Equal(t, "_", cfg.Naming.Separator)
		assert.Equal(t, 3, cfg.Naming.Pad)
		assert.False(t, cfg.Traversal.Sanitize)
		assert.Equal(t, 4, cfg.Traversal.Concurrency)
		assert.Equal(t, 75.0, cfg.Progress.PackageStart)
		assert.Equal(t, "folder", cfg.Mapping.OriginalColumn)
	})

	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, config.New(), cfg)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(createTestYAML(t, "naming:\n  pad: 2\n"))
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Naming.Pad)
		assert.Equal(t, "renamed_files.zip", cfg.Archive.Name)
		assert.True(t, cfg.Traversal.Sanitize)
		assert.Equal(t, 50.0, cfg.Progress.PreviewEnd)
	})

	t.Run("invalid syntax", func(t *testing.T) {
		_, err := config.LoadConfigFile(createTestYAML(t, invalidSyntaxYAML))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidConfig(err))
	})

	invalid := map[string]string{
		"unknown method":       invalidMethodYAML,
		"overlapping progress": invalidProgressYAML,
		"bad exclude glob":     invalidGlobYAML,
	}
	for name, content := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := config.LoadConfigFile(createTestYAML(t, content))
			require.Error(t, err)
			assert.True(t, errors.IsInvalidConfig(err), "got %v", err)
		})
	}
}

func TestDefaults(t *testing.T) {
	cfg := config.New()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "renamed_files.zip", cfg.Archive.Name)
	assert.Equal(t, "root", cfg.Grouping.DefaultGroup)
	assert.Equal(t, "-", cfg.Naming.Separator)
	assert.Equal(t, 0, cfg.Naming.Pad)
	assert.Equal(t, config.Progress{PreviewStart: 0, PreviewEnd: 50, PackageStart: 50, PackageEnd: 100}, cfg.Progress)
	assert.Equal(t, "original_folder_name", cfg.Mapping.OriginalColumn)
	assert.Equal(t, "new_folder_name", cfg.Mapping.NewColumn)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		param  string
	}{
		{"empty archive name", func(c *config.Config) { c.Archive.Name = " " }, "archive.name"},
		{"archive name with dir", func(c *config.Config) { c.Archive.Name = "out/x.zip" }, "archive.name"},
		{"level out of range", func(c *config.Config) { c.Archive.Level = 11 }, "archive.level"},
		{"default group with slash", func(c *config.Config) { c.Grouping.DefaultGroup = "a/b" }, "grouping.default_group"},
		{"unknown sort", func(c *config.Config) { c.Grouping.Sort = "random" }, "grouping.sort"},
		{"separator with slash", func(c *config.Config) { c.Naming.Separator = "/" }, "naming.separator"},
		{"negative pad", func(c *config.Config) { c.Naming.Pad = -1 }, "naming.pad"},
		{"zero concurrency", func(c *config.Config) { c.Traversal.Concurrency = 0 }, "traversal.concurrency"},
		{"package not ending at 100", func(c *config.Config) { c.Progress.PackageEnd = 90 }, "progress"},
		{"same mapping columns", func(c *config.Config) { c.Mapping.NewColumn = c.Mapping.OriginalColumn }, "mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var ce *errors.ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.param, ce.Param())
		})
	}

	var nilCfg *config.Config
	assert.Error(t, nilCfg.Validate())
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renamezip", "config.yaml")
	cfg := config.NewTestConfig()
	cfg.Archive.Name = "saved.zip"

	require.NoError(t, config.SaveConfig(cfg, path))

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "saved.zip", loaded.Archive.Name)
	assert.Equal(t, cfg.Grouping.Exclude, loaded.Grouping.Exclude)
	assert.Equal(t, cfg.Traversal.Concurrency, loaded.Traversal.Concurrency)
}
