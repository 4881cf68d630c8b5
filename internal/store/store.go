package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"vttserver/internal/rooms"
)

// Store persists room snapshots keyed by room id. Get returns (nil, nil)
// when the room is absent or expired.
type Store interface {
	Get(ctx context.Context, roomID string) (*rooms.State, error)
	Put(ctx context.Context, roomID string, state *rooms.State) error
	Exists(ctx context.Context, roomID string) (bool, error)
}

// DefaultTTL is how long a room survives without a write.
const DefaultTTL = 24 * time.Hour

// Open selects the backing store for the process lifetime. Redis is
// attempted when a URL is configured; on connection failure the process
// permanently runs on the in-memory store. There is no reconnect loop.
func Open(ctx context.Context, redisURL string, ttl time.Duration, logger zerolog.Logger) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if redisURL == "" {
		logger.Info().Msg("no redis url configured, using in-memory store")
		return NewMemoryStore(ttl)
	}

	rs, err := NewRedisStore(ctx, redisURL, ttl)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, falling back to in-memory store")
		return NewMemoryStore(ttl)
	}
	logger.Info().Msg("connected to redis")
	return rs
}
