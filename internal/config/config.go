package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/frherrer/treesync/internal/domain"
)

// DefaultFile is the configuration file read when --config is not given.
const DefaultFile = "treesync.yaml"

// Config is the top-level configuration struct.
type Config struct {
	Lang      string         `yaml:"lang"`
	Tags      []string       `yaml:"tags"`
	Scaffold  ScaffoldConfig `yaml:"scaffold"`
	Naming    NamingConfig   `yaml:"naming"`
	Output    OutputConfig   `yaml:"output"`
	Templates TemplateConfig `yaml:"templates"`
	Input     InputConfig    `yaml:"input"`
	Jobs      int            `yaml:"jobs"`
	Logging   LoggingConfig  `yaml:"logging"`
	DryRun    bool           `yaml:"dry_run"`
}

type ScaffoldConfig struct {
	SkipHelpers        bool   `yaml:"skip_helpers"`
	FormatDescriptions bool   `yaml:"format_descriptions"`
	WithVMSkip         bool   `yaml:"with_vm_skip"`
	SolidityVersion    string `yaml:"solidity_version"`
	WriteFiles         bool   `yaml:"write_files"`
	ForceWrite         bool   `yaml:"force_write"`
}

type NamingConfig struct {
	FailureKeywords  []string `yaml:"failure_keywords"`
	RejectCollisions bool     `yaml:"reject_collisions"`
}

type OutputConfig struct {
	Suffix     string            `yaml:"suffix"`
	Extensions map[string]string `yaml:"extensions"`
}

type TemplateConfig struct {
	Directory string `yaml:"directory"`
}

type InputConfig struct {
	Include   []string `yaml:"include"`
	Exclude   []string `yaml:"exclude"`
	Recursive *bool    `yaml:"recursive"` // pointer to distinguish unset from false
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML configuration file and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError("config", path, 0, "failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, domain.NewError("config", path, 0, "failed to parse config file", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path. A missing file yields the defaults unless the
// path was given explicitly.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Extension returns the output extension for a language, falling back to
// the language's own default.
func (c *Config) Extension(lang, fallback string) string {
	if ext, ok := c.Output.Extensions[lang]; ok && ext != "" {
		return ext
	}
	return fallback
}

// IsRecursive reports whether directory arguments are scanned recursively.
func (c *Config) IsRecursive() bool {
	return c.Input.Recursive == nil || *c.Input.Recursive
}
