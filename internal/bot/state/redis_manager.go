package state

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scratchTTL auto-expires abandoned conversations.
const scratchTTL = 24 * time.Hour

// RedisManager is the Redis-backed ScratchStore. It survives restarts, which
// matters for the "pending parsed program" payload: losing it forces the
// trainer to re-send the program text.
type RedisManager struct {
	client *redis.Client
}

// NewRedisManager creates a Redis-backed scratch store
func NewRedisManager(redisHost, redisPort string) (*RedisManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", redisHost, redisPort),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisManager{client: client}, nil
}

func scratchKey(userID int64, key string) string {
	return fmt.Sprintf("user:%d:scratch:%s", userID, key)
}

func (m *RedisManager) Set(userID int64, key, value string) {
	ctx := context.Background()
	m.client.Set(ctx, scratchKey(userID, key), value, scratchTTL)
}

func (m *RedisManager) Get(userID int64, key string) (string, bool) {
	ctx := context.Background()
	result := m.client.Get(ctx, scratchKey(userID, key))
	if result.Err() != nil {
		return "", false
	}
	return result.Val(), true
}

func (m *RedisManager) Clear(userID int64) {
	ctx := context.Background()
	iter := m.client.Scan(ctx, 0, fmt.Sprintf("user:%d:scratch:*", userID), 0).Iterator()
	for iter.Next(ctx) {
		m.client.Del(ctx, iter.Val())
	}
}

// Close closes the Redis connection
func (m *RedisManager) Close() error {
	return m.client.Close()
}
