package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the operator CLI configuration
type Config struct {
	Version string `yaml:"version"`
	Region  string `yaml:"region"`
	Project Project `yaml:"project"`
	Watch   Watch   `yaml:"watch,omitempty"`
	History History `yaml:"history,omitempty"`
}

// Project identifies the ML project and the caller's role within it
type Project struct {
	ID   string `yaml:"id"`
	Role string `yaml:"role,omitempty"`
}

// Watch defines execution watch behavior
type Watch struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	HistoryLen   int32         `yaml:"history_len"`
}

// History defines where the local transition log lives
type History struct {
	Dir string `yaml:"dir,omitempty"`
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Watch.PollInterval == 0 {
		c.Watch.PollInterval = 5 * time.Second
	}
	if c.Watch.HistoryLen == 0 {
		c.Watch.HistoryLen = 10
	}
	if c.History.Dir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			c.History.Dir = filepath.Join(home, ".smops")
		}
	}
}

// Validate ensures config has required fields
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.Project.ID == "" {
		return fmt.Errorf("project id is required")
	}
	return nil
}
