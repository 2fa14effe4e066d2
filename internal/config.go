package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Profile selection modes for wildcard pattern rules.
const (
	ProfileModeAll    = "all"    // wildcard expands to every catalog profile
	ProfileModeSingle = "single" // wildcard expands to the default profile only
)

// Defaults holds the per-user defaults of the grouping document.
type Defaults struct {
	MountBase   string   `yaml:"mount_base"`
	Profile     string   `yaml:"profile,omitempty"`
	ProfileMode string   `yaml:"profile_mode,omitempty"`
	Groups      []string `yaml:"groups,omitempty"`
}

// Pattern is a rule selecting buckets by substring match. Profile "*" means
// every catalog profile; pattern "*" matches every bucket name.
type Pattern struct {
	Profile     string `yaml:"profile"`
	Pattern     string `yaml:"pattern"`
	Description string `yaml:"description,omitempty"`
}

// Group is a named collection of static entries and pattern rules.
type Group struct {
	Description string    `yaml:"description,omitempty"`
	Buckets     []Pair    `yaml:"buckets,omitempty"`
	Patterns    []Pattern `yaml:"patterns,omitempty"`
}

// Config is the root of the grouping document.
type Config struct {
	Defaults Defaults         `yaml:"defaults"`
	Groups   map[string]Group `yaml:"groups,omitempty"`

	path string
}

// DefaultConfigPath returns ~/.bucketctl/groups.yaml.
func DefaultConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bucketctl", "groups.yaml"), nil
}

// LoadConfig reads the grouping document. A missing file is not an error: it
// yields an empty config with built-in defaults so first runs work without a
// setup step. Malformed YAML is fatal to the run.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{Groups: map[string]Group{}, path: path}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyDefaults()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Groups == nil {
		cfg.Groups = map[string]Group{}
	}
	cfg.path = path
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Defaults.MountBase == "" {
		c.Defaults.MountBase = "~/buckets"
	}
	if c.Defaults.ProfileMode == "" {
		c.Defaults.ProfileMode = ProfileModeAll
	}
	if c.Defaults.Profile == "" {
		c.Defaults.Profile = "default"
	}
}

// MountBase returns the mount base with ~ expanded.
func (c *Config) MountBase() (string, error) {
	return homedir.Expand(c.Defaults.MountBase)
}

// GroupNames returns the configured group names, sorted.
func (c *Config) GroupNames() []string {
	names := make([]string, 0, len(c.Groups))
	for name := range c.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetGroup adds or replaces a group definition.
func (c *Config) SetGroup(name string, g Group) {
	c.Groups[name] = g
}

// RemoveGroup deletes a group definition.
func (c *Config) RemoveGroup(name string) error {
	if _, ok := c.Groups[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, name)
	}
	delete(c.Groups, name)
	return nil
}

// Save rewrites the backing document atomically: the new content is written
// to a temp file in the same directory, then renamed over the old one.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no backing path")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return err
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
