package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 100, cfg.Workflow.MaxDeliveries)
	assert.Equal(t, "memory", cfg.Onboarding.Driver)
}

func TestLoadFromFile_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaignmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
model:
  provider: anthropic
  timeout: 45s
workflow:
  max_deliveries: 20
`), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
	assert.Equal(t, 45*time.Second, cfg.Model.Timeout)
	assert.Equal(t, 20, cfg.Workflow.MaxDeliveries)
	assert.Equal(t, "alboostcollect", cfg.RAG.Collection)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(envMap(map[string]string{
		EnvOpenAIKey:     "sk-openai",
		EnvAnthropicKey:  "sk-anthropic",
		EnvRAGKey:        "vultr",
		EnvRAGCollection: "brandcollect",
		EnvInsightKey:    "qloo",
		EnvAddr:          ":7000",
		EnvDBPath:        "/tmp/onboarding.db",
		EnvLogLevel:      "DEBUG",
	}))

	assert.Equal(t, "sk-openai", cfg.Model.APIKey)
	assert.Equal(t, "vultr", cfg.RAG.APIKey)
	assert.Equal(t, "brandcollect", cfg.RAG.Collection)
	assert.Equal(t, "qloo", cfg.Insight.APIKey)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Onboarding.Driver)
	assert.Equal(t, "/tmp/onboarding.db", cfg.Onboarding.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv_ProviderKeyAndBlankValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model.Provider = "anthropic"
	cfg.ApplyEnv(envMap(map[string]string{
		EnvOpenAIKey:    "sk-openai",
		EnvAnthropicKey: "sk-anthropic",
		EnvAddr:         "  ",
	}))

	assert.Equal(t, "sk-anthropic", cfg.Model.APIKey)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Addr = ""
	cfg.Log.Level = "verbose"
	cfg.Onboarding.Driver = "sqlite"
	cfg.Workflow.MaxDeliveries = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.addr is required")
	assert.Contains(t, err.Error(), "log.level must be one of [debug info warn error]")
	assert.Contains(t, err.Error(), "onboarding.path is required")
	assert.Contains(t, err.Error(), "workflow.maxdeliveries must be at least 0")
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Insight.Burst = 9

	require.NoError(t, cfg.SaveToFile(path))
	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
