// Package config loads the shelfwatch runtime configuration from YAML with
// defaults applied for anything unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete shelfwatch configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Push       SourceConfig     `yaml:"push"`
	Poll       SourceConfig     `yaml:"poll"`
	Rescan     RescanConfig     `yaml:"rescan"`
	Detection  DetectionConfig  `yaml:"detection"`
	NATS       NATSConfig       `yaml:"nats"`
}

// SimulationConfig controls synthetic data generation.
type SimulationConfig struct {
	// Seed makes generation reproducible; 0 seeds from the current time.
	Seed int64 `yaml:"seed"`
}

// SourceConfig tunes one probabilistic update source.
type SourceConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Probability float64       `yaml:"probability"`
}

// RescanConfig tunes manual rescans.
type RescanConfig struct {
	Latency time.Duration `yaml:"latency"`
}

// DetectionConfig tunes the camera-detection mapping.
type DetectionConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
}

// NATSConfig enables the live scan feed when a URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Push:      SourceConfig{Interval: 5 * time.Second, Probability: 0.4},
		Poll:      SourceConfig{Interval: 10 * time.Second, Probability: 0.3},
		Rescan:    RescanConfig{Latency: 800 * time.Millisecond},
		Detection: DetectionConfig{MinConfidence: 0.3},
	}
}

// LoadFromFile reads a YAML config and merges it over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	config := DefaultConfig()
	config.Merge(&loaded)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// Merge overlays non-zero fields from other onto the receiver.
func (c *Config) Merge(other *Config) {
	if other.Simulation.Seed != 0 {
		c.Simulation.Seed = other.Simulation.Seed
	}
	if other.Push.Interval > 0 {
		c.Push.Interval = other.Push.Interval
	}
	if other.Push.Probability > 0 {
		c.Push.Probability = other.Push.Probability
	}
	if other.Poll.Interval > 0 {
		c.Poll.Interval = other.Poll.Interval
	}
	if other.Poll.Probability > 0 {
		c.Poll.Probability = other.Poll.Probability
	}
	if other.Rescan.Latency > 0 {
		c.Rescan.Latency = other.Rescan.Latency
	}
	if other.Detection.MinConfidence > 0 {
		c.Detection.MinConfidence = other.Detection.MinConfidence
	}
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.Push.Interval <= 0 {
		return fmt.Errorf("push interval must be positive, got %v", c.Push.Interval)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Poll.Interval)
	}
	if c.Push.Probability < 0 || c.Push.Probability > 1 {
		return fmt.Errorf("push probability must be in [0,1], got %v", c.Push.Probability)
	}
	if c.Poll.Probability < 0 || c.Poll.Probability > 1 {
		return fmt.Errorf("poll probability must be in [0,1], got %v", c.Poll.Probability)
	}
	if c.Detection.MinConfidence < 0 || c.Detection.MinConfidence >= 1 {
		return fmt.Errorf("detection min_confidence must be in [0,1), got %v", c.Detection.MinConfidence)
	}
	return nil
}
