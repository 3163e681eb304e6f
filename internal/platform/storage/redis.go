package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the key-value state in Redis, for stations that share
// their state with other tooling. Tests substitute it with miniredis.
type RedisStore struct {
	client   *redis.Client
	maxBytes int
}

// NewRedis connects to addr and pings the server before returning the
// store.
func NewRedis(ctx context.Context, addr string, maxValueBytes int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("storage: redis ping: %w", err)
	}

	if maxValueBytes <= 0 {
		maxValueBytes = DefaultMaxValueBytes
	}
	return &RedisStore{client: client, maxBytes: maxValueBytes}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string, out any) error {
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("storage: get %s: %w", key, err)
	}
	return decode(payload, out)
}

func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	payload, err := encode(value, s.maxBytes)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		// Redis refuses writes with an OOM reply once maxmemory is hit.
		if strings.Contains(err.Error(), "OOM") {
			return fmt.Errorf("storage: set %s: %v: %w", key, err, ErrQuotaExceeded)
		}
		return fmt.Errorf("storage: set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
