package chain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	yaml := `
chain:
  defaults:
    quality_threshold: 0.85
    max_tokens: 2048
    temperature: 0.2
    timeout_seconds: 15
  providers:
    - id: anthropic
      model: claude-haiku-4-5-20251001
      timeout_seconds: 20
    - id: openai
      model: gpt-4o-mini
`
	path := filepath.Join(t.TempDir(), "chain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.85, cfg.Defaults.QualityThreshold)
	require.Len(t, cfg.Providers, 2)

	// Explicit timeout kept, defaults filled in elsewhere.
	assert.Equal(t, 20, cfg.Providers[0].TimeoutSeconds)
	assert.Equal(t, 15, cfg.Providers[1].TimeoutSeconds)
	assert.Equal(t, int64(2048), cfg.Providers[1].MaxTokens)
	require.NotNil(t, cfg.Providers[1].Temperature)
	assert.Equal(t, 0.2, *cfg.Providers[1].Temperature)
}

func TestLoadConfig_NoProviders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain:\n  defaults: {}\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no providers")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestDefaultConfigChain(t *testing.T) {
	cfg := DefaultConfigChain()
	require.Len(t, cfg.Providers, 3)
	assert.Equal(t, 0.8, cfg.Defaults.QualityThreshold)

	// Later providers run on shorter timeouts.
	for i := 1; i < len(cfg.Providers); i++ {
		assert.Less(t, cfg.Providers[i].TimeoutSeconds, cfg.Providers[i-1].TimeoutSeconds)
	}
}
