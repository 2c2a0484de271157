// Package config loads checktree's YAML configuration and locates it on
// disk.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/checktree/pkg/export"
)

// EnvConfig names a config file, overriding discovery.
const EnvConfig = "CHECKTREE_CONFIG"

// Environment overrides applied after the file is loaded.
const (
	EnvInput = "CHECKTREE_INPUT"
	EnvTheme = "CHECKTREE_THEME"
)

// ProjectDir is the per-project directory that holds config.yaml.
const ProjectDir = ".checktree"

// Config represents a checktree configuration file
type Config struct {
	// Input is the default payload file.
	Input string `yaml:"input,omitempty" json:"input,omitempty"`

	// Watch reloads the payload when it changes on disk.
	Watch bool `yaml:"watch,omitempty" json:"watch,omitempty"`

	// ExpandDepth collapses nodes at and below this depth on load; -1 keeps
	// the payload's own flags.
	ExpandDepth int `yaml:"expand_depth" json:"expand_depth"`

	// Theme is auto, dark or light.
	Theme string `yaml:"theme,omitempty" json:"theme,omitempty"`

	Export ExportConfig `yaml:"export,omitempty" json:"export,omitempty"`

	// Dir is the directory relative paths resolve against. It is set by
	// Load and not read from the file.
	Dir string `yaml:"-" json:"-"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Dir     string   `yaml:"dir,omitempty" json:"dir,omitempty"`
	Formats []string `yaml:"formats,omitempty" json:"formats,omitempty"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() Config {
	return Config{
		ExpandDepth: -1,
		Theme:       "auto",
		Export: ExportConfig{
			Formats: []string{string(export.FormatJSON)},
		},
	}
}

// ExampleConfig returns a filled-in configuration to start from.
func ExampleConfig() Config {
	c := DefaultConfig()
	c.Input = "tree.yaml"
	c.Export.Dir = "exports"
	c.Export.Formats = []string{"json", "md", "svg"}
	return c
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
	default:
		return fmt.Errorf("theme: unknown value %q (want auto, dark or light)", c.Theme)
	}
	if c.ExpandDepth < -1 {
		return fmt.Errorf("expand_depth: must be -1 or greater, got %d", c.ExpandDepth)
	}
	for i, f := range c.Export.Formats {
		if _, err := export.ParseFormat(f); err != nil {
			return fmt.Errorf("export.formats[%d]: %w", i, err)
		}
	}
	return nil
}

// ExportFormats returns the configured export formats, parsed.
func (c *Config) ExportFormats() []export.Format {
	var out []export.Format
	for _, f := range c.Export.Formats {
		if parsed, err := export.ParseFormat(f); err == nil {
			out = append(out, parsed)
		}
	}
	return out
}

// ResolvePath makes p absolute against the config's directory. Empty paths,
// absolute paths and "-" are returned unchanged; "~/" expands to $HOME.
func (c *Config) ResolvePath(p string) string {
	if p == "" || p == export.Stdout {
		return p
	}
	p = expandHome(p)
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Load reads a configuration file, filling unset fields from DefaultConfig.
// Relative paths in the file resolve against the file's directory, or the
// project root for a file inside .checktree/.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Theme == "" {
		cfg.Theme = "auto"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if filepath.Base(dir) == ProjectDir {
		dir = filepath.Dir(dir)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	cfg.Dir = dir
	return cfg, nil
}

// Resolve finds and loads the configuration. Lookup order: explicit (the
// --config flag), $CHECKTREE_CONFIG, .checktree/config.yaml in the project
// containing the working directory, then ~/.config/checktree/config.yaml.
// An explicit or environment path must exist; the discovered ones are
// optional and fall back to DefaultConfig. It returns the path used, or ""
// for defaults.
func Resolve(explicit string) (Config, string, error) {
	for _, p := range []string{explicit, os.Getenv(EnvConfig)} {
		if p == "" {
			continue
		}
		p = expandHome(p)
		cfg, err := Load(p)
		if err != nil {
			return Config{}, p, err
		}
		return applyEnv(cfg), p, nil
	}

	for _, p := range candidatePaths() {
		cfg, err := Load(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, p, err
		}
		return applyEnv(cfg), p, nil
	}

	cfg := DefaultConfig()
	if wd, err := os.Getwd(); err == nil {
		cfg.Dir = wd
	}
	return applyEnv(cfg), "", nil
}

func candidatePaths() []string {
	var paths []string
	if root, ok := DetectProjectRoot(); ok {
		paths = append(paths, filepath.Join(root, ProjectDir, "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "checktree", "config.yaml"))
	}
	return paths
}

func applyEnv(cfg Config) Config {
	if v := os.Getenv(EnvInput); v != "" {
		cfg.Input = v
	}
	if v := strings.ToLower(os.Getenv(EnvTheme)); v == "auto" || v == "dark" || v == "light" {
		cfg.Theme = v
	}
	return cfg
}

// Marshal renders cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
