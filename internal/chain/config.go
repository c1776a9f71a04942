package chain

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config is the top-level provider chain configuration.
type Config struct {
	Defaults  DefaultConfig    `yaml:"defaults"`
	Providers []ProviderConfig `yaml:"providers"`
}

// DefaultConfig holds global defaults applied to providers missing a value.
type DefaultConfig struct {
	QualityThreshold float64 `yaml:"quality_threshold"`
	MaxTokens        int64   `yaml:"max_tokens"`
	Temperature      float64 `yaml:"temperature"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
	MaxAttempts      int     `yaml:"max_attempts"`
}

// ProviderConfig defines one provider in the chain, tried in listed order.
type ProviderConfig struct {
	ID             string   `yaml:"id"`
	Model          string   `yaml:"model"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxTokens      int64    `yaml:"max_tokens"`
	Temperature    *float64 `yaml:"temperature,omitempty"`
}

// Timeout returns the provider call timeout as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// DefaultConfigChain returns the built-in chain used when no YAML file is given.
// Later providers get shorter timeouts so a degraded primary does not consume
// the whole request budget.
func DefaultConfigChain() *Config {
	cfg := &Config{
		Defaults: DefaultConfig{
			QualityThreshold: 0.8,
			MaxTokens:        1024,
			Temperature:      0.3,
			TimeoutSeconds:   20,
			MaxAttempts:      2,
		},
		Providers: []ProviderConfig{
			{ID: "anthropic", Model: "claude-haiku-4-5-20251001", TimeoutSeconds: 20},
			{ID: "openai", Model: "gpt-4o-mini", TimeoutSeconds: 12},
			{ID: "gemini", Model: "gemini-2.0-flash", TimeoutSeconds: 8},
		},
	}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig reads chain config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "chain: read config %s", path)
	}

	// The YAML has a top-level "chain" key.
	var wrapper struct {
		Chain Config `yaml:"chain"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "chain: parse config")
	}

	cfg := &wrapper.Chain
	if len(cfg.Providers) == 0 {
		return nil, eris.Errorf("chain: config %s lists no providers", path)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Defaults.QualityThreshold == 0 {
		cfg.Defaults.QualityThreshold = 0.8
	}
	if cfg.Defaults.MaxTokens == 0 {
		cfg.Defaults.MaxTokens = 1024
	}
	if cfg.Defaults.TimeoutSeconds == 0 {
		cfg.Defaults.TimeoutSeconds = 20
	}
	if cfg.Defaults.MaxAttempts == 0 {
		cfg.Defaults.MaxAttempts = 2
	}
	for i, p := range cfg.Providers {
		if p.TimeoutSeconds == 0 {
			p.TimeoutSeconds = cfg.Defaults.TimeoutSeconds
		}
		if p.MaxTokens == 0 {
			p.MaxTokens = cfg.Defaults.MaxTokens
		}
		if p.Temperature == nil {
			t := cfg.Defaults.Temperature
			p.Temperature = &t
		}
		cfg.Providers[i] = p
	}
}
