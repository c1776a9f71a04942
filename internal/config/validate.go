package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the configuration for a given run mode and reports every
// problem at once rather than failing on the first.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Store.Driver != "postgres" && c.Store.Driver != "sqlite" {
		problems = append(problems, fmt.Sprintf("store.driver must be postgres or sqlite, got %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Quota.DefaultDailyCap < 1 {
		problems = append(problems, "quota.default_daily_cap must be >= 1")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Cache.TTLSecs < 0 {
			problems = append(problems, "cache.ttl_secs must be >= 0")
		}
		if c.Cache.MaxSize < 1 {
			problems = append(problems, "cache.max_size must be >= 1")
		}
		problems = append(problems, c.providerProblems()...)
	case "backfill", "resolve":
		problems = append(problems, c.providerProblems()...)
	case "migrate", "status", "sweep":
		// Store checks above are sufficient.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == "backfill" {
		if c.Backfill.Concurrency < 1 || c.Backfill.Concurrency > 32 {
			problems = append(problems, "backfill.concurrency must be between 1 and 32")
		}
		if c.Backfill.BatchSize < 1 || c.Backfill.BatchSize > 500 {
			problems = append(problems, "backfill.batch_size must be between 1 and 500")
		}
		if c.Backfill.RatePerSecond <= 0 {
			problems = append(problems, "backfill.rate_per_second must be > 0")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// providerProblems checks that at least one generation provider is usable.
func (c *Config) providerProblems() []string {
	if c.Anthropic.Key == "" && c.OpenAI.Key == "" && c.Gemini.Key == "" {
		return []string{"at least one provider key is required (anthropic.key, openai.key, or gemini.key)"}
	}
	return nil
}
