package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	apperrors "assistant-nlu/internal/common/errors"
	"assistant-nlu/internal/common/logger"
	"assistant-nlu/internal/common/metrics"
)

const (
	cacheKeyPrefix = "nlu:llm:"

	// DefaultSharedCallTimeout bounds a coalesced backend call, which runs
	// detached from any single caller's context.
	DefaultSharedCallTimeout = 2 * time.Minute
)

// CachedBackend is a read-through Redis cache in front of a Backend.
// Identical prompts in flight at the same time share one backend call; each
// caller still waits only as long as its own context allows.
// Cache failures are logged and never fail a call.
type CachedBackend struct {
	inner       Backend
	rdb         redis.Cmdable
	ttl         time.Duration
	callTimeout time.Duration
	group       singleflight.Group
	logger      logger.Logger
}

func NewCachedBackend(inner Backend, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedBackend {
	return &CachedBackend{
		inner:       inner,
		rdb:         rdb,
		ttl:         ttl,
		callTimeout: DefaultSharedCallTimeout,
		logger:      log.With(map[string]interface{}{"component": "llm_cache"}),
	}
}

// WithCallTimeout sets the bound on a shared backend call. Non-positive
// values are ignored.
func (c *CachedBackend) WithCallTimeout(d time.Duration) *CachedBackend {
	if d > 0 {
		c.callTimeout = d
	}
	return c
}

func (c *CachedBackend) Name() string { return c.inner.Name() }

// CacheKey derives the Redis key for a generation request.
func CacheKey(provider, prompt string, maxTokens int, temperature float64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%.3f|%s", provider, maxTokens, temperature, prompt)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedBackend) GenerateText(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	key := CacheKey(c.inner.Name(), prompt, maxTokens, temperature)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		metrics.LLMCache.WithLabelValues("hit").Inc()
		return cached, nil
	case errors.Is(err, redis.Nil):
		metrics.LLMCache.WithLabelValues("miss").Inc()
	default:
		metrics.LLMCache.WithLabelValues("error").Inc()
		stdErr := apperrors.NewCacheError("read", err)
		c.logger.Warn("cache read failed", map[string]interface{}{"errorCode": string(stdErr.Code), "error": stdErr.Details})
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.callTimeout)
		defer cancel()

		text, err := c.inner.GenerateText(callCtx, prompt, maxTokens, temperature)
		if err != nil {
			return "", err
		}
		if err := c.rdb.Set(callCtx, key, text, c.ttl).Err(); err != nil {
			metrics.LLMCache.WithLabelValues("error").Inc()
			stdErr := apperrors.NewCacheError("write", err)
			c.logger.Warn("cache write failed", map[string]interface{}{"errorCode": string(stdErr.Code), "error": stdErr.Details})
		}
		return text, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.logger.Debug("coalesced concurrent generation", map[string]interface{}{"key": key})
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
