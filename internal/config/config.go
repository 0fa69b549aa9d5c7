package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"renamezip/internal/errors"
	"renamezip/internal/fileutil"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Archive compression methods
const (
	MethodDeflate = "deflate"
	MethodStore   = "store"
)

// Member sort modes
const (
	SortLexical = "lexical"
	SortLocale  = "locale"
)

// Config represents the application configuration structure.
// It defines how files are grouped, named, and packaged.
type Config struct {
	Archive struct {
		Name   string `yaml:"name"`   // File name of the produced archive
		Method string `yaml:"method"` // Compression method: deflate or store
		Level  int    `yaml:"level"`  // Deflate level, 1-9
	} `yaml:"archive"`
	Grouping struct {
		DefaultGroup string   `yaml:"default_group"` // Group for files without a folder
		Exclude      []string `yaml:"exclude"`       // Glob patterns of junk base names
		Sort         string   `yaml:"sort"`          // lexical or locale
		Locale       string   `yaml:"locale"`        // BCP 47 tag used when sort is locale
	} `yaml:"grouping"`
	Naming struct {
		Separator string `yaml:"separator"` // Between display name and ordinal
		Pad       int    `yaml:"pad"`       // Zero padding width for ordinals, 0 = none
	} `yaml:"naming"`
	Traversal struct {
		Sanitize    bool `yaml:"sanitize"`    // Replace unsafe characters in dropped paths
		Concurrency int  `yaml:"concurrency"` // Concurrent directory reads
	} `yaml:"traversal"`
	Progress Progress `yaml:"progress"`
	Mapping  struct {
		OriginalColumn string `yaml:"original_column"`
		NewColumn      string `yaml:"new_column"`
	} `yaml:"mapping"`
	Logging struct {
		Debug bool   `yaml:"debug"`
		JSON  bool   `yaml:"json"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// Progress splits the [0,100] range between the preview and package phases.
type Progress struct {
	PreviewStart float64 `yaml:"preview_start"`
	PreviewEnd   float64 `yaml:"preview_end"`
	PackageStart float64 `yaml:"package_start"`
	PackageEnd   float64 `yaml:"package_end"`
}

// DefaultPath returns ~/.config/renamezip/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "renamezip", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.NewConfigError("error reading config file", path, errors.ConfigNotFound, err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, errors.NewConfigError("error parsing config file", path, errors.InvalidConfig, err)
	}
	// Booleans default to true, so only an explicit key may turn them off.
	var raw struct {
		Traversal map[string]interface{} `yaml:"traversal"`
	}
	_ = yaml.Unmarshal(data, &raw)

	if tempCfg.Archive.Name != "" {
		cfg.Archive.Name = tempCfg.Archive.Name
	}
	if tempCfg.Archive.Method != "" {
		cfg.Archive.Method = tempCfg.Archive.Method
	}
	if tempCfg.Archive.Level != 0 {
		cfg.Archive.Level = tempCfg.Archive.Level
	}

	if tempCfg.Grouping.DefaultGroup != "" {
		cfg.Grouping.DefaultGroup = tempCfg.Grouping.DefaultGroup
	}
	if tempCfg.Grouping.Exclude != nil {
		cfg.Grouping.Exclude = tempCfg.Grouping.Exclude
	}
	if tempCfg.Grouping.Sort != "" {
		cfg.Grouping.Sort = tempCfg.Grouping.Sort
	}
	if tempCfg.Grouping.Locale != "" {
		cfg.Grouping.Locale = tempCfg.Grouping.Locale
	}

	if tempCfg.Naming.Separator != "" {
		cfg.Naming.Separator = tempCfg.Naming.Separator
	}
	cfg.Naming.Pad = tempCfg.Naming.Pad

	if _, ok := raw.Traversal["sanitize"]; ok {
		cfg.Traversal.Sanitize = tempCfg.Traversal.Sanitize
	}
	if tempCfg.Traversal.Concurrency != 0 {
		cfg.Traversal.Concurrency = tempCfg.Traversal.Concurrency
	}

	if tempCfg.Progress != (Progress{}) {
		cfg.Progress = tempCfg.Progress
	}

	if tempCfg.Mapping.OriginalColumn != "" {
		cfg.Mapping.OriginalColumn = tempCfg.Mapping.OriginalColumn
	}
	if tempCfg.Mapping.NewColumn != "" {
		cfg.Mapping.NewColumn = tempCfg.Mapping.NewColumn
	}

	cfg.Logging = tempCfg.Logging

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Archive.Name = "renamed_files.zip"
	cfg.Archive.Method = MethodDeflate
	cfg.Archive.Level = 6

	cfg.Grouping.DefaultGroup = "root"
	cfg.Grouping.Exclude = []string{".DS_Store"}
	cfg.Grouping.Sort = SortLexical
	cfg.Grouping.Locale = "und"

	cfg.Naming.Separator = "-"
	cfg.Naming.Pad = 0

	cfg.Traversal.Sanitize = true
	cfg.Traversal.Concurrency = 8

	cfg.Progress = Progress{
		PreviewStart: 0,
		PreviewEnd:   50,
		PackageStart: 50,
		PackageEnd:   100,
	}

	cfg.Mapping.OriginalColumn = "original_folder_name"
	cfg.Mapping.NewColumn = "new_folder_name"

	return cfg
}

// SaveConfig writes the configuration to path atomically.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fileutil.AtomicWrite(path, data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}

	invalid := func(param, format string, args ...interface{}) error {
		return errors.NewConfigError(fmt.Sprintf(format, args...), param, errors.InvalidConfig, nil)
	}

	if strings.TrimSpace(c.Archive.Name) == "" {
		return invalid("archive.name", "archive name is required")
	}
	if strings.ContainsAny(c.Archive.Name, `/\`) {
		return invalid("archive.name", "archive name must not contain path separators")
	}
	switch c.Archive.Method {
	case MethodDeflate:
		if c.Archive.Level < 1 || c.Archive.Level > 9 {
			return invalid("archive.level", "deflate level must be between 1 and 9, got %d", c.Archive.Level)
		}
	case MethodStore:
	default:
		return invalid("archive.method", "unknown compression method %q", c.Archive.Method)
	}

	if c.Grouping.DefaultGroup == "" || strings.Contains(c.Grouping.DefaultGroup, "/") {
		return invalid("grouping.default_group", "default group must be a single non-empty segment")
	}
	for i, pattern := range c.Grouping.Exclude {
		if _, err := glob.Compile(pattern); err != nil {
			return errors.NewConfigError(fmt.Sprintf("exclude pattern %d is invalid", i), "grouping.exclude", errors.InvalidConfig, err)
		}
	}
	if c.Grouping.Sort != SortLexical && c.Grouping.Sort != SortLocale {
		return invalid("grouping.sort", "sort must be %q or %q", SortLexical, SortLocale)
	}

	if strings.Contains(c.Naming.Separator, "/") {
		return invalid("naming.separator", "separator must not contain '/'")
	}
	if c.Naming.Pad < 0 || c.Naming.Pad > 12 {
		return invalid("naming.pad", "pad must be between 0 and 12")
	}

	if c.Traversal.Concurrency < 1 {
		return invalid("traversal.concurrency", "concurrency must be >= 1")
	}

	if err := c.Progress.Validate(); err != nil {
		return err
	}

	if c.Mapping.OriginalColumn == "" || c.Mapping.NewColumn == "" {
		return invalid("mapping", "both mapping column names are required")
	}
	if c.Mapping.OriginalColumn == c.Mapping.NewColumn {
		return invalid("mapping", "mapping columns must differ")
	}

	return nil
}

// Validate checks that both ranges are ordered and inside [0,100] and that
// packaging ends at 100.
func (p Progress) Validate() error {
	bad := func(msg string) error {
		return errors.NewConfigError(msg, "progress", errors.InvalidConfig, nil)
	}
	if p.PreviewStart < 0 || p.PreviewStart > p.PreviewEnd {
		return bad("preview range must satisfy 0 <= start <= end")
	}
	if p.PreviewEnd > p.PackageStart {
		return bad("package range must start at or after the preview range end")
	}
	if p.PackageStart > p.PackageEnd || p.PackageEnd != 100 {
		return bad("package range must end at 100")
	}
	return nil
}

// NewTestConfig creates a configuration instance for testing purposes.
func NewTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Grouping.Exclude = []string{".DS_Store", "Thumbs.db"}
	cfg.Traversal.Concurrency = 2
	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}
