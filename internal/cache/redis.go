package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tiongMax/stocktracker/internal/upstream"
)

// RedisClient wraps the Redis connection used for news lookups.
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a new Redis client connection and verifies it with a ping.
func NewRedisClient(addr, password string, db int, ttl time.Duration) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client, ttl: ttl}, nil
}

func newsKey(ticker string) string {
	return fmt.Sprintf("news:%s", ticker)
}

// GetNews retrieves the cached article list for a ticker.
// Returns nil if the ticker is not cached.
func (r *RedisClient) GetNews(ctx context.Context, ticker string) ([]upstream.Article, error) {
	raw, err := r.client.Get(ctx, newsKey(ticker)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get news: %w", err)
	}

	articles := []upstream.Article{}
	if err := json.Unmarshal(raw, &articles); err != nil {
		return nil, fmt.Errorf("invalid cached news: %w", err)
	}
	return articles, nil
}

// SetNews caches the article list for a ticker until the TTL expires.
func (r *RedisClient) SetNews(ctx context.Context, ticker string, articles []upstream.Article) error {
	raw, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("encode news: %w", err)
	}
	if err := r.client.Set(ctx, newsKey(ticker), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set news: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	return r.client.Close()
}
