// Package config loads the optional YAML run-configuration overlay,
// mirroring the teacher's internal/agents.LoadTeamsConfig pattern: a flat
// struct decoded straight off disk with gopkg.in/yaml.v3, overridable by
// whatever CLI flags were actually passed.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// RunConfig is the YAML-decodable overlay for a run. Every field is
// optional; a zero value means "use the CLI/flag default".
type RunConfig struct {
	Goal          string  `yaml:"goal"`
	MaxIterations int     `yaml:"iterations"`
	NumWorkers    int     `yaml:"workers"`
	Model         string  `yaml:"model"`
	Temperature   float64 `yaml:"temperature"`
	Seed          int64   `yaml:"seed"`

	HypothesisTarget     int `yaml:"hypothesis_target"`
	ProximityEveryRounds int `yaml:"proximity_every_rounds"`

	Serve         bool   `yaml:"serve"`
	DashboardAddr string `yaml:"dashboard_addr"`
}

// Load reads and decodes a YAML RunConfig from path.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Merge overlays non-zero fields of override onto a copy of base,
// returning the result. Flags passed explicitly on the CLI take
// precedence over whatever a --config file specifies.
func Merge(base RunConfig, override RunConfig) RunConfig {
	merged := base
	if override.Goal != "" {
		merged.Goal = override.Goal
	}
	if override.MaxIterations != 0 {
		merged.MaxIterations = override.MaxIterations
	}
	if override.NumWorkers != 0 {
		merged.NumWorkers = override.NumWorkers
	}
	if override.Model != "" {
		merged.Model = override.Model
	}
	if override.Temperature != 0 {
		merged.Temperature = override.Temperature
	}
	if override.Seed != 0 {
		merged.Seed = override.Seed
	}
	if override.HypothesisTarget != 0 {
		merged.HypothesisTarget = override.HypothesisTarget
	}
	if override.ProximityEveryRounds != 0 {
		merged.ProximityEveryRounds = override.ProximityEveryRounds
	}
	if override.Serve {
		merged.Serve = true
	}
	if override.DashboardAddr != "" {
		merged.DashboardAddr = override.DashboardAddr
	}
	return merged
}
