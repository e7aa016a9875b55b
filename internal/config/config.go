// Package config manages the YAML configuration listing resource sources.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	mfs "github.com/CageChen/assethub/internal/fs"
	"github.com/CageChen/assethub/internal/resource"
	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	KindDirectory = "directory"
	KindFile      = "file"
)

// Source is a named resource definition.
type Source struct {
	Name string `yaml:"name" json:"name"`
	// Path is a directory or file on disk, or the repository for git sources.
	Path    string `yaml:"path" json:"path"`
	Kind    string `yaml:"kind,omitempty" json:"kind,omitempty"`
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Engine  string `yaml:"engine,omitempty" json:"engine,omitempty"`
	GitRef  string `yaml:"git_ref,omitempty" json:"git_ref,omitempty"`
	SubPath string `yaml:"sub_path,omitempty" json:"sub_path,omitempty"`
}

// IsDirectory reports whether the source describes a directory tree.
func (s Source) IsDirectory() bool {
	return s.Kind == "" || s.Kind == KindDirectory
}

// FileSystem returns the filesystem the source is read from.
func (s Source) FileSystem() mfs.FileSystem {
	if s.GitRef != "" {
		return mfs.NewGitFS(s.Path, s.GitRef)
	}
	return mfs.NewLocalFS("")
}

// Location returns the path of the source's root on its FileSystem.
func (s Source) Location() string {
	if s.GitRef != "" {
		return s.SubPath
	}
	loc := s.Path
	if s.SubPath != "" {
		loc = filepath.Join(s.Path, s.SubPath)
	}
	if abs, err := filepath.Abs(loc); err == nil {
		return abs
	}
	return loc
}

// Open builds the resource the source describes. It does not touch the filesystem.
func (s Source) Open(logger *slog.Logger) (resource.Resource, error) {
	if !s.IsDirectory() {
		if s.Kind != KindFile {
			return nil, &resource.Error{Kind: resource.KindInvalidArgument, Op: "open", Path: s.Name, Err: fmt.Errorf("unknown kind %q", s.Kind)}
		}
		return resource.NewFile(s.FileSystem(), s.Location()), nil
	}
	return s.Directory(logger)
}

// Directory builds the directory resource for a directory source.
func (s Source) Directory(logger *slog.Logger) (*resource.DirectoryResource, error) {
	if !s.IsDirectory() {
		return nil, &resource.Error{Kind: resource.KindInvalidArgument, Op: "open", Path: s.Name, Err: errors.New("not a directory source")}
	}
	engine, err := resource.EngineByName(s.Engine)
	if err != nil {
		return nil, err
	}
	return resource.NewDirectory(s.FileSystem(), s.Location(),
		resource.WithPattern(s.Pattern),
		resource.WithEngine(engine),
		resource.WithLogger(logger),
	), nil
}

// Config holds all configuration options for AssetHub
type Config struct {
	Addr           string   `yaml:"addr"`
	Watch          bool     `yaml:"watch"`
	HighlightStyle string   `yaml:"highlight_style"`
	Sources        []Source `yaml:"sources,omitempty"`

	// Internal: path to config file for saving
	configPath string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Addr:           ":8080",
		Watch:          true,
		HighlightStyle: "monokai",
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/assethub"
	}
	return filepath.Join(home, ".config", "assethub")
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load loads the configuration from path. With an empty path it tries
// ~/.config/assethub/config.yaml, then ./assethub.yaml, and falls back to
// defaults if neither exists.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}

	for _, candidate := range []string{GetConfigPath(), "assethub.yaml"} {
		if _, err := os.Stat(candidate); err == nil {
			return LoadFile(candidate)
		}
	}

	cfg := DefaultConfig()
	cfg.configPath = GetConfigPath()
	return cfg, nil
}

// LoadFile loads the configuration file at path on top of the defaults.
// Relative source paths are resolved against the file's directory.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.loadFromFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	cfg.configPath = path
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// resolvePaths makes every source path absolute relative to base
func (c *Config) resolvePaths(base string) {
	for i := range c.Sources {
		p := c.Sources[i].Path
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		if abs, err := filepath.Abs(filepath.Join(base, p)); err == nil {
			c.Sources[i].Path = abs
		}
	}
}

// Validate checks every source for a unique name, a path, a known kind and a
// known pattern engine.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if err := validateSource(s); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
		if seen[s.Name] {
			return fmt.Errorf("source %d: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

func validateSource(s Source) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Path == "" {
		return fmt.Errorf("%s: path is required", s.Name)
	}
	if s.Kind != "" && s.Kind != KindDirectory && s.Kind != KindFile {
		return fmt.Errorf("%s: unknown kind %q", s.Name, s.Kind)
	}
	if _, err := resource.EngineByName(s.Engine); err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	return nil
}

// Save saves the current configuration to the config file
func (c *Config) Save() error {
	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.configPath, data, 0644)
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}

// SetConfigFilePath sets where Save writes the configuration.
func (c *Config) SetConfigFilePath(path string) {
	c.configPath = path
}

// Source looks up a source by name.
func (c *Config) Source(name string) (Source, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// AddSource validates and appends a source. Local paths are made absolute.
func (c *Config) AddSource(s Source) error {
	if s.Path != "" {
		abs, err := filepath.Abs(s.Path)
		if err != nil {
			return err
		}
		s.Path = abs
	}
	if err := validateSource(s); err != nil {
		return err
	}
	if _, exists := c.Source(s.Name); exists {
		return fmt.Errorf("source %q already exists", s.Name)
	}
	c.Sources = append(c.Sources, s)
	return nil
}

// RemoveSource removes the named source and reports whether it existed.
func (c *Config) RemoveSource(name string) bool {
	for i, s := range c.Sources {
		if s.Name == name {
			c.Sources = append(c.Sources[:i], c.Sources[i+1:]...)
			return true
		}
	}
	return false
}
