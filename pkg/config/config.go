// Package config handles loading and saving catalogtree configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/catalogtree/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/catalogtree/pkg/model"
)

// RootKey names the implicit root in the drop rules table.
const RootKey = "root"

// DragConfig tunes the drag session.
type DragConfig struct {
	DwellThreshold time.Duration `yaml:"dwell_threshold,omitempty"` // Hover time before a collapsed node auto-expands
	AboveFraction  float64       `yaml:"above_fraction,omitempty"`  // Pointer fraction below which a drop lands above
	BelowFraction  float64       `yaml:"below_fraction,omitempty"`  // Pointer fraction above which a drop lands below
	EnforceRules   bool          `yaml:"enforce_rules"`             // Reject drops the rules table does not allow
}

// UIConfig holds terminal viewer settings.
type UIConfig struct {
	ExpandAll   bool `yaml:"expand_all"`             // Expand every node after each change
	IndentWidth int  `yaml:"indent_width,omitempty"` // Columns per tree level
}

// Config is the top-level configuration for catalogtree.
type Config struct {
	Drag DragConfig `yaml:"drag"`
	// Rules maps a parent kind ("root" or a frontType) to the kinds it may
	// hold as children. Empty means the built-in catalog rules.
	Rules map[string][]model.FrontType `yaml:"rules,omitempty"`
	UI    UIConfig                     `yaml:"ui"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Drag: DragConfig{
			DwellThreshold: 400 * time.Millisecond,
			AboveFraction:  0.25,
			BelowFraction:  0.75,
			EnforceRules:   true,
		},
		UI: UIConfig{
			ExpandAll:   true,
			IndentWidth: 2,
		},
	}
}

// ConfigDir returns the XDG config directory for catalogtree.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "catalogtree")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "catalogtree")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks that thresholds are ordered and rules name known kinds.
func (c Config) Validate() error {
	if c.Drag.DwellThreshold < 0 {
		return fmt.Errorf("dwell_threshold cannot be negative: %v", c.Drag.DwellThreshold)
	}
	if c.Drag.AboveFraction < 0 || c.Drag.BelowFraction > 1 || c.Drag.AboveFraction > c.Drag.BelowFraction {
		return fmt.Errorf("drop fractions must satisfy 0 <= above (%v) <= below (%v) <= 1",
			c.Drag.AboveFraction, c.Drag.BelowFraction)
	}
	if c.UI.IndentWidth < 0 {
		return fmt.Errorf("indent_width cannot be negative: %d", c.UI.IndentWidth)
	}
	for parent, children := range c.Rules {
		if parent != RootKey && !model.FrontType(parent).IsValid() {
			return fmt.Errorf("rules: unknown parent kind %q", parent)
		}
		for _, child := range children {
			if !child.IsValid() {
				return fmt.Errorf("rules: unknown child kind %q under %q", child, parent)
			}
		}
	}
	return nil
}
