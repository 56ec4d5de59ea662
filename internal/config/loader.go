package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from the default path, falling back to defaults.
func Load() (*Config, error) {
	return LoadPath(DefaultPath())
}

// LoadPath loads configuration from path. A missing file is not an error;
// defaults are returned.
func LoadPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mend", "config.yaml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mend", "config.yaml")
}

// SettingsPath returns the default settings (experiments/modes) file location.
func SettingsPath() string {
	p := DefaultPath()
	if p == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(p), "settings.yaml")
}

func (c *Config) validate() error {
	if c.Task.MistakeCeiling < 1 {
		return fmt.Errorf("task.mistake_ceiling must be at least 1, got %d", c.Task.MistakeCeiling)
	}
	if c.Diff.SimilarityThreshold < 0 || c.Diff.SimilarityThreshold > 1 {
		return fmt.Errorf("diff.similarity_threshold must be in [0,1], got %v", c.Diff.SimilarityThreshold)
	}
	for tool, level := range c.Approval.Rules {
		switch level {
		case "allow", "ask", "deny":
		default:
			return fmt.Errorf("approval.rules[%s]: unknown level %q", tool, level)
		}
	}
	return nil
}
