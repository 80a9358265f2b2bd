// Package llm is the generative fallback stage: a pluggable text backend,
// an optional reply cache and the adapter that turns free-form replies into
// validated results.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"assistant-nlu/internal/common/config"
	"assistant-nlu/internal/common/logger"
)

// Backend is the single capability the pipeline needs from a model provider.
type Backend interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
	Name() string
}

// NewBackend builds the backend selected by cfg.Provider. It returns nil and
// no error for provider "none". When rdb is non-nil and cfg.CacheTTL is
// positive the backend is wrapped in a CachedBackend.
func NewBackend(ctx context.Context, cfg config.LLMConfig, rdb redis.Cmdable, log logger.Logger) (Backend, error) {
	timeout := config.GetDuration(cfg.Timeout)

	var backend Backend
	switch cfg.Provider {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderOllama:
		backend = NewOllamaBackend(cfg.Ollama.BaseURL, cfg.Ollama.Model, timeout)
	case config.ProviderOpenAI:
		backend = NewOpenAIBackend(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model, timeout)
	case config.ProviderGemini:
		g, err := NewGeminiBackend(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
		backend = g
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}

	if rdb != nil && cfg.CacheTTL > 0 {
		backend = NewCachedBackend(backend, rdb, time.Duration(cfg.CacheTTL)*time.Second, log).WithCallTimeout(timeout)
	}

	log.Info("llm backend configured", map[string]interface{}{
		"provider": backend.Name(),
		"cached":   rdb != nil && cfg.CacheTTL > 0,
	})
	return backend, nil
}
