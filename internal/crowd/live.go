package crowd

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultLiveTTL bounds how long a reported level counts as "live" before
// pages fall back to the historical estimate.
const DefaultLiveTTL = 5 * time.Minute

// LiveStore caches reported live crowd levels per station platform in
// Redis, so the dashboard shows operator-reported conditions instead of the
// historical estimate while a report is fresh.
type LiveStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLiveStore connects to Redis and verifies the connection.
func NewLiveStore(redisURL string) (*LiveStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &LiveStore{client: client, ttl: DefaultLiveTTL}, nil
}

// NewLiveStoreWithClient wraps an existing Redis client.
func NewLiveStoreWithClient(client *redis.Client) *LiveStore {
	return &LiveStore{client: client, ttl: DefaultLiveTTL}
}

func (s *LiveStore) key(stationID int, direction string) string {
	return fmt.Sprintf("crowd:%d:%s", stationID, direction)
}

// SetLevel records a live crowd level for one platform.
func (s *LiveStore) SetLevel(ctx context.Context, stationID int, direction, level string) error {
	if err := s.client.Set(ctx, s.key(stationID, direction), level, s.ttl).Err(); err != nil {
		return fmt.Errorf("set live level: %w", err)
	}
	return nil
}

// Level returns the cached live level for a platform, or ok=false when no
// fresh report exists.
func (s *LiveStore) Level(ctx context.Context, stationID int, direction string) (string, bool, error) {
	level, err := s.client.Get(ctx, s.key(stationID, direction)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get live level: %w", err)
	}
	return level, true, nil
}

func (s *LiveStore) Close() error {
	return s.client.Close()
}
