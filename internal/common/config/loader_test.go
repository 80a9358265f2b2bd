package config

import (
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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
redis:
  address: localhost:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderNone, cfg.LLM.Provider)
	assert.Equal(t, 256, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.1, cfg.LLM.Temperature)
	assert.Equal(t, 15000, cfg.LLM.Timeout)
	assert.Equal(t, 50, cfg.NLU.MinNoteLength)
	assert.Equal(t, 10, cfg.NLU.ContextMaxTurns)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "assistant-nlu", cfg.App.Name)
}

func TestLoadFromFile_FullDocument(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "secret-from-env")
	path := writeConfig(t, `
app:
  name: nlu
  environment: test
camunda:
  enabled: true
  broker_address: zeebe:26500
  plaintext: true
redis:
  address: redis:6379
  db: 2
llm:
  provider: Gemini
  timeout: 5000
  max_tokens: 128
  temperature: 0.2
  cache_ttl: 600
  gemini:
    api_key: ${TEST_GEMINI_KEY}
    model: gemini-test
nlu:
  min_note_length: 80
  context_max_turns: 4
workers:
  process-utterance:
    enabled: true
    max_jobs_active: 20
  parse-time-expression:
    enabled: false
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "secret-from-env", cfg.LLM.Gemini.APIKey)
	assert.Equal(t, "gemini-test", cfg.LLM.Gemini.Model)
	assert.Equal(t, 128, cfg.LLM.MaxTokens)
	assert.Equal(t, 600, cfg.LLM.CacheTTL)
	assert.Equal(t, 80, cfg.NLU.MinNoteLength)
	assert.Equal(t, 4, cfg.NLU.ContextMaxTurns)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.True(t, cfg.Camunda.Plaintext)

	pu := GetWorkerConfig(cfg, "process-utterance")
	assert.Equal(t, 20, pu.MaxJobsActive)
	assert.Equal(t, 30000, pu.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "process-utterance"))
	assert.False(t, IsWorkerEnabled(cfg, "parse-time-expression"))
	assert.True(t, IsWorkerEnabled(cfg, "not-configured"))
}

func TestLoadFromFile_Invalid(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing redis",
			body: "llm:\n  provider: none\n",
			want: "redis.address",
		},
		{
			name: "unknown provider",
			body: "redis:\n  address: r:6379\nllm:\n  provider: claude-local\n",
			want: "not supported",
		},
		{
			name: "openai without key",
			body: "redis:\n  address: r:6379\nllm:\n  provider: openai\n",
			want: "llm.openai.api_key",
		},
		{
			name: "camunda enabled without broker",
			body: "redis:\n  address: r:6379\ncamunda:\n  enabled: true\n",
			want: "camunda.broker_address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
