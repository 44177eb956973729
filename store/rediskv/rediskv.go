// Package rediskv is a KeyValueStore backend over Redis, suitable for
// sharing cache/cookie/redirect state across multiple processes.
package rediskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vsirisanthana/dogbutler"
)

// Config configures a Store.
type Config struct {
	// Addr is the Redis server address (e.g. "localhost:6379"). Required.
	Addr string

	// Password is the Redis password. Optional.
	Password string

	// DB is the Redis logical database. Optional, defaults to 0.
	DB int

	// KeyPrefix namespaces every key this Store writes, on top of whatever
	// prefix the calling Session already applies. Optional.
	KeyPrefix string

	// DialTimeout bounds connection establishment. Optional.
	DialTimeout time.Duration
}

// DefaultConfig returns sensible defaults for everything but Addr.
func DefaultConfig() Config {
	return Config{DialTimeout: 5 * time.Second}
}

// Store is a dogbutler.KeyValueStore backed by Redis.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// New connects to Redis per config.
func New(config Config) (*Store, error) {
	if config.Addr == "" {
		return nil, errors.New("rediskv: Addr is required")
	}
	def := DefaultConfig()
	if config.DialTimeout == 0 {
		config.DialTimeout = def.DialTimeout
	}
	client := redis.NewClient(&redis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})
	return &Store{client: client, keyPrefix: config.KeyPrefix}, nil
}

func (s *Store) key(key string) string {
	return s.keyPrefix + "rediskv:" + key
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("rediskv: get %q: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("rediskv: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("rediskv: delete %q: %w", key, err)
	}
	return nil
}

// Clear removes every key under this Store's prefix via SCAN, since Redis
// has no native "drop my namespace" primitive.
func (s *Store) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.keyPrefix+"rediskv:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("rediskv: clear scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("rediskv: clear del: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
