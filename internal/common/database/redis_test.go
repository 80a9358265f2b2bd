package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistant-nlu/internal/common/config"
)

func TestRedisClient_PingAndReady(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	require.NoError(t, client.Ping(context.Background()))
	assert.True(t, client.Ready(context.Background(), time.Second))
	assert.NotNil(t, client.GetClient())
}

func TestRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := NewRedis(config.RedisConfig{Address: addr})
	defer client.Close()

	assert.Error(t, client.Ping(context.Background()))
	assert.False(t, client.Ready(context.Background(), 200*time.Millisecond))
}
