package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vttserver/internal/rooms"
)

// RedisStore is the durable backend. One key per room holds the full
// serialized snapshot; the TTL is refreshed on every Put.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func roomKey(roomID string) string {
	return fmt.Sprintf("room:%s", roomID)
}

// Get fetches and decodes a room snapshot. Absent keys are (nil, nil).
func (s *RedisStore) Get(ctx context.Context, roomID string) (*rooms.State, error) {
	data, err := s.client.Get(ctx, roomKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching room %s: %w", roomID, err)
	}

	var state rooms.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding room %s: %w", roomID, err)
	}
	return &state, nil
}

// Put stores the full snapshot and refreshes the room TTL.
func (s *RedisStore) Put(ctx context.Context, roomID string, state *rooms.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding room %s: %w", roomID, err)
	}
	if err := s.client.Set(ctx, roomKey(roomID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving room %s: %w", roomID, err)
	}
	return nil
}

// Exists reports whether the room key is present.
func (s *RedisStore) Exists(ctx context.Context, roomID string) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(roomID)).Result()
	if err != nil {
		return false, fmt.Errorf("checking room %s: %w", roomID, err)
	}
	return n == 1, nil
}
