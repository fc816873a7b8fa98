package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
)

// TTL drops the state of inactive chats
const TTL = 24 * time.Hour

const opTimeout = 3 * time.Second

// RedisManager manages user states using Redis
type RedisManager struct {
	client *redis.Client
}

// NewRedisManager connects to Redis and checks the connection
func NewRedisManager(redisHost, redisPort string) (*RedisManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", redisHost, redisPort),
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisManagerWithClient(client), nil
}

// NewRedisManagerWithClient wraps an existing client
func NewRedisManagerWithClient(client *redis.Client) *RedisManager {
	return &RedisManager{client: client}
}

func stateKey(userID int64) string { return fmt.Sprintf("user:%d:state", userID) }
func tempKey(userID int64) string  { return fmt.Sprintf("user:%d:temp", userID) }

// SetUserState sets the state for a user with TTL
func (m *RedisManager) SetUserState(userID int64, state string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := m.client.Set(ctx, stateKey(userID), state, TTL).Err(); err != nil {
		logger.Warn("Failed to store chat state", "user_id", userID, "error", err)
	}
}

// GetUserState gets the state for a user. Missing keys and errors read as None.
func (m *RedisManager) GetUserState(userID int64) string {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	state, err := m.client.Get(ctx, stateKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return None
	}
	if err != nil {
		logger.Warn("Failed to read chat state", "user_id", userID, "error", err)
		return None
	}
	return state
}

// ClearUserState clears the state for a user
func (m *RedisManager) ClearUserState(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	m.client.Del(ctx, stateKey(userID))
}

// SetTempData stores one field of the user's temp hash and refreshes its TTL
func (m *RedisManager) SetTempData(userID int64, key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	pipe := m.client.TxPipeline()
	pipe.HSet(ctx, tempKey(userID), key, value)
	pipe.Expire(ctx, tempKey(userID), TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("Failed to store chat data", "user_id", userID, "key", key, "error", err)
	}
}

// GetTempData gets temporary data for a user
func (m *RedisManager) GetTempData(userID int64, key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	value, err := m.client.HGet(ctx, tempKey(userID), key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Failed to read chat data", "user_id", userID, "key", key, "error", err)
		}
		return "", false
	}
	return value, true
}

// ClearTempData clears all temporary data for a user
func (m *RedisManager) ClearTempData(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	m.client.Del(ctx, tempKey(userID))
}

// Close closes the Redis connection
func (m *RedisManager) Close() error {
	return m.client.Close()
}
