// Package convcontext keeps a short, expiring history of each user's recent
// utterances in Redis.
package convcontext

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "assistant-nlu/internal/common/errors"
	"assistant-nlu/internal/common/logger"
	"assistant-nlu/internal/common/metrics"
	"assistant-nlu/internal/nlu/ontology"
)

const (
	keyPrefix = "nlu:ctx:"

	DefaultMaxTurns = 10
	DefaultTTL      = 24 * time.Hour
)

// Turn is one classified utterance.
type Turn struct {
	Text   string          `json:"text"`
	Intent ontology.Intent `json:"intent"`
	At     time.Time       `json:"at"`
}

// Context is the recent history of a user, oldest turn first.
type Context struct {
	UserID  string `json:"userId"`
	History []Turn `json:"history"`
}

// Empty returns a context with no history.
func Empty(userID string) Context {
	return Context{UserID: userID, History: []Turn{}}
}

// LastIntent returns the intent of the newest turn, or "" without history.
func (c Context) LastIntent() ontology.Intent {
	if len(c.History) == 0 {
		return ""
	}
	return c.History[len(c.History)-1].Intent
}

type Store struct {
	rdb      redis.Cmdable
	maxTurns int
	ttl      time.Duration
	logger   logger.Logger
}

func NewStore(rdb redis.Cmdable, maxTurns int, ttl time.Duration, log logger.Logger) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		rdb:      rdb,
		maxTurns: maxTurns,
		ttl:      ttl,
		logger:   log.With(map[string]interface{}{"component": "context_store"}),
	}
}

func key(userID string) string {
	return keyPrefix + userID
}

// Load returns the user's history in chronological order. Undecodable
// entries are skipped.
func (s *Store) Load(ctx context.Context, userID string) (Context, error) {
	cc := Empty(userID)
	if userID == "" {
		return cc, nil
	}

	raw, err := s.rdb.LRange(ctx, key(userID), 0, int64(s.maxTurns-1)).Result()
	if err != nil {
		metrics.ContextStoreErrors.Inc()
		return cc, apperrors.NewContextStoreError("load", err).WithMetadata("userId", userID)
	}

	// Newest first in Redis.
	for i := len(raw) - 1; i >= 0; i-- {
		var turn Turn
		if err := json.Unmarshal([]byte(raw[i]), &turn); err != nil {
			s.logger.Warn("skipping undecodable turn", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
			continue
		}
		cc.History = append(cc.History, turn)
	}
	return cc, nil
}

// Append records a turn, trims the history to the newest maxTurns entries
// and refreshes the expiry.
func (s *Store) Append(ctx context.Context, userID string, turn Turn) error {
	if userID == "" {
		return nil
	}
	if turn.At.IsZero() {
		turn.At = time.Now().UTC()
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	k := key(userID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, k, data)
		pipe.LTrim(ctx, k, 0, int64(s.maxTurns-1))
		pipe.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		metrics.ContextStoreErrors.Inc()
		return apperrors.NewContextStoreError("append", err).WithMetadata("userId", userID)
	}
	return nil
}

// Clear removes the user's history.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, key(userID)).Err(); err != nil {
		metrics.ContextStoreErrors.Inc()
		return apperrors.NewContextStoreError("clear", err).WithMetadata("userId", userID)
	}
	return nil
}
