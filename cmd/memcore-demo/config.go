package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DemoConfig is the on-disk shape the demo binary loads at startup,
// mirroring the teacher's aider.Config YAML layout (plain structs,
// yaml tags, a DefaultConfig fallback) generalized to memcore's own
// knobs instead of Aider/NATS/Ollama settings.
type DemoConfig struct {
	DataDir string `yaml:"data_dir"`

	Semantic SemanticConfig `yaml:"semantic"`
	Budget   BudgetConfig   `yaml:"budget"`
	Flush    FlushConfig    `yaml:"flush"`
}

// SemanticConfig configures the embedding provider wired into the
// semantic store.
type SemanticConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Dimension int    `yaml:"dimension"`
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
}

// BudgetConfig overrides the retriever's per-section token budget.
type BudgetConfig struct {
	Total        int `yaml:"total"`
	Profile      int `yaml:"profile"`
	Task         int `yaml:"task"`
	RecentEvents int `yaml:"recent_events"`
	Chunks       int `yaml:"chunks"`
	Summary      int `yaml:"summary"`
}

// FlushConfig overrides the compaction controller's thresholds.
type FlushConfig struct {
	MaxContextTokens    int `yaml:"max_context_tokens"`
	SoftThresholdTokens int `yaml:"soft_threshold_tokens"`
	HardThresholdTokens int `yaml:"hard_threshold_tokens"`
}

// DefaultDemoConfig returns the demo's own defaults, independent of the
// manager package's internal defaults (which apply regardless of what
// this struct leaves zero-valued).
func DefaultDemoConfig() *DemoConfig {
	return &DemoConfig{
		DataDir: "data",
		Semantic: SemanticConfig{
			Enabled:   false,
			Dimension: 8,
			Provider:  "local",
			Model:     "demo-embed",
		},
	}
}

// LoadConfig reads a YAML demo config from path, per the teacher's
// aider.LoadConfig idiom.
func LoadConfig(path string) (*DemoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultDemoConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
