package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cell-binner/internal/cluster"
	"cell-binner/internal/feature"
)

// Config is the per-run configuration for the grouping engine.
type Config struct {
	Bins              int      `yaml:"bins"`
	Metric            string   `yaml:"metric"`
	ForceRedistribute bool     `yaml:"forceRedistribute"`
	Seed              int64    `yaml:"seed"`
	OutputRoot        string   `yaml:"outputRoot"`
	Channels          []string `yaml:"channels"` // Caller-side filter, recorded in the summary
}

// DefaultConfig returns a runnable configuration with the default metric.
func DefaultConfig() *Config {
	return &Config{
		Bins:   3,
		Metric: "auc",
		Seed:   42,
	}
}

// LoadConfig loads and validates a YAML run configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// clusterOptions maps the run configuration onto clustering options. The
// seed is passed through as-is: 0 is a valid seed, not a request for the
// default.
func (c *Config) clusterOptions() cluster.Options {
	opts := cluster.DefaultOptions(c.Bins)
	opts.ForceRedistribute = c.ForceRedistribute
	opts.Seed = c.Seed
	return opts
}

// Validate checks the configuration fields.
func (c *Config) Validate() error {
	if c.Bins < 1 {
		return fmt.Errorf("bins must be >= 1, got %d", c.Bins)
	}
	if _, err := feature.ParseMetric(c.Metric); err != nil {
		return err
	}
	return nil
}
