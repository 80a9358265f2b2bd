package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistant-nlu/internal/common/config"
	apphttp "assistant-nlu/internal/common/http"
	"assistant-nlu/internal/common/logger"
)

func TestOllamaBackend_GenerateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Equal(t, "classify this", req.Prompt)
		assert.False(t, req.Stream)
		assert.Equal(t, 0.1, req.Options.Temperature)
		assert.Equal(t, 128, req.Options.NumPredict)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": "  {\"intent\":\"unknown\",\"entities\":{}}\n"}`))
	}))
	defer server.Close()

	b := NewOllamaBackend(server.URL+"/", "llama3", 2*time.Second)
	text, err := b.GenerateText(context.Background(), "classify this", 128, 0.1)

	require.NoError(t, err)
	assert.Equal(t, `{"intent":"unknown","entities":{}}`, text)
	assert.Equal(t, "ollama", b.Name())
}

func TestOllamaBackend_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedError string
	}{
		{
			name:          "error status",
			status:        http.StatusInternalServerError,
			body:          "model crashed",
			expectedError: "unexpected status 500: model crashed",
		},
		{
			name:          "error field",
			status:        http.StatusOK,
			body:          `{"error": "model 'llama9' not found"}`,
			expectedError: "model 'llama9' not found",
		},
		{
			name:          "undecodable body",
			status:        http.StatusOK,
			body:          `not json`,
			expectedError: "decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			b := NewOllamaBackend(server.URL, "llama9", time.Second)
			_, err := b.GenerateText(context.Background(), "p", 10, 0)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestOllamaBackend_StatusErrorType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewOllamaBackend(server.URL, "m", time.Second).GenerateText(context.Background(), "p", 10, 0)

	var statusErr *apphttp.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestOpenAIBackend_GenerateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "hello", req.Messages[0].Content)
		assert.Equal(t, 64, req.MaxTokens)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" ok "}}]}`))
	}))
	defer server.Close()

	b := NewOpenAIBackend(server.URL+"/v1", "sk-test", "gpt-4o-mini", time.Second)
	text, err := b.GenerateText(context.Background(), "hello", 64, 0.2)

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, "openai", b.Name())
}

func TestOpenAIBackend_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedError string
	}{
		{
			name:          "unauthorized",
			status:        http.StatusUnauthorized,
			body:          `{"error":{"message":"bad key"}}`,
			expectedError: "unexpected status 401",
		},
		{
			name:          "error object",
			status:        http.StatusOK,
			body:          `{"error":{"message":"quota exceeded"}}`,
			expectedError: "quota exceeded",
		},
		{
			name:          "empty choices",
			status:        http.StatusOK,
			body:          `{"choices":[]}`,
			expectedError: "empty choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewOpenAIBackend(server.URL, "k", "m", time.Second).GenerateText(context.Background(), "p", 10, 0)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestNewBackend(t *testing.T) {
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	t.Run("none disables the stage", func(t *testing.T) {
		b, err := NewBackend(ctx, config.LLMConfig{Provider: config.ProviderNone}, nil, log)
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, err := NewBackend(ctx, config.LLMConfig{Provider: "bard"}, nil, log)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported")
	})

	t.Run("ollama without cache", func(t *testing.T) {
		cfg := config.LLMConfig{Provider: config.ProviderOllama, Timeout: 1000, CacheTTL: 60}
		cfg.Ollama.BaseURL = "http://localhost:11434"
		cfg.Ollama.Model = "llama3"

		b, err := NewBackend(ctx, cfg, nil, log)
		require.NoError(t, err)
		assert.IsType(t, &OllamaBackend{}, b)
	})

	t.Run("openai wrapped in cache", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()

		cfg := config.LLMConfig{Provider: config.ProviderOpenAI, Timeout: 1000, CacheTTL: 60}
		cfg.OpenAI.APIKey = "sk-test"

		b, err := NewBackend(ctx, cfg, rdb, log)
		require.NoError(t, err)
		require.IsType(t, &CachedBackend{}, b)
		assert.Equal(t, "openai", b.Name())
	})

	t.Run("gemini requires a key", func(t *testing.T) {
		_, err := NewBackend(ctx, config.LLMConfig{Provider: config.ProviderGemini}, nil, log)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key")
	})
}
