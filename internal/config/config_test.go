package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DRIVETHRU_LLM_PROVIDER", "")
	t.Setenv("DRIVETHRU_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "none", cfg.LLM.Provider)
	assert.Equal(t, "Baja Blast", cfg.Recommendations.DefaultDrink)
	assert.Equal(t, 5.0, cfg.Recommendations.SmallOrderThreshold)
	assert.Equal(t, 3, cfg.Conversation.ClassifierAttempts)
	assert.Equal(t, 10*time.Second, cfg.Recovery.MaxBackoff)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv("DRIVETHRU_LLM_PROVIDER", "")
	path := writeConfig(t, `
server:
  port: 9000
recommendations:
  default_drink: Soft Drink
  small_order_threshold: 7.5
recovery:
  base_backoff: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "Soft Drink", cfg.Recommendations.DefaultDrink)
	assert.Equal(t, 7.5, cfg.Recommendations.SmallOrderThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Recovery.BaseBackoff)
	// Untouched sections keep defaults
	assert.Equal(t, "Nacho Fries", cfg.Recommendations.DefaultSide)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DRIVETHRU_LLM_PROVIDER", "openai")
	t.Setenv("DRIVETHRU_LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoad_Malformed(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")

	_, err := Load(path)
	require.Error(t, err)

	var invalid *InvalidConfigError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, path, invalid.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.Conversation.MatchThreshold = 1.5 }},
		{"negative semantic threshold", func(c *Config) { c.Menu.SemanticThreshold = -0.1 }},
		{"zero attempts", func(c *Config) { c.Conversation.ClassifierAttempts = 0 }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "carrier-pigeon" }},
		{"unknown embedder", func(c *Config) { c.Menu.Embedder = "magic" }},
		{"unknown driver", func(c *Config) { c.SessionLog.Driver = "mongo" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
