// Package natskv is a KeyValueStore backend over a NATS JetStream K/V
// bucket. JetStream's own KeyValueConfig.TTL is bucket-wide, not per-key, so
// (like diskkv and leveldbkv) every value is wrapped with its own
// stored-at/ttl envelope and Get enforces per-key expiry itself; the bucket
// TTL, if set, is just an outer bound.
package natskv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/vsirisanthana/dogbutler"
)

// Config configures a Store.
type Config struct {
	// NATSUrl is the NATS server URL. Optional, defaults to nats.DefaultURL.
	NATSUrl string

	// Bucket is the K/V bucket name. Required.
	Bucket string

	// Description documents the bucket. Optional.
	Description string

	// BucketTTL bounds how long JetStream itself retains an entry,
	// regardless of this Store's own per-key ttl. Optional.
	BucketTTL time.Duration

	// NATSOptions are extra options passed to nats.Connect. Optional.
	NATSOptions []nats.Option
}

// Store is a dogbutler.KeyValueStore backed by a NATS JetStream K/V bucket.
type Store struct {
	kv jetstream.KeyValue
	nc *nats.Conn
}

func keyName(key string) string {
	return "dogbutler." + key
}

func encodeEnvelope(value []byte, ttl time.Duration) []byte {
	buf := make([]byte, 16+len(value))
	binary.BigEndian.PutUint64(buf[0:8], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint64(buf[8:16], uint64(ttl))
	copy(buf[16:], value)
	return buf
}

func decodeEnvelope(buf []byte) (value []byte, storedAt time.Time, ttl time.Duration, ok bool) {
	if len(buf) < 16 {
		return nil, time.Time{}, 0, false
	}
	storedAt = time.Unix(0, int64(binary.BigEndian.Uint64(buf[0:8])))
	ttl = time.Duration(binary.BigEndian.Uint64(buf[8:16]))
	return buf[16:], storedAt, ttl, true
}

// New connects to NATS and creates (or updates) the configured K/V bucket.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("natskv: Bucket is required")
	}
	url := config.NATSUrl
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url, config.NATSOptions...)
	if err != nil {
		return nil, fmt.Errorf("natskv: connect: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natskv: jetstream: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      config.Bucket,
		Description: config.Description,
		TTL:         config.BucketTTL,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natskv: create bucket: %w", err)
	}
	return &Store{kv: kv, nc: nc}, nil
}

// NewWithKeyValue wraps an already-created JetStream KeyValue bucket.
func NewWithKeyValue(kv jetstream.KeyValue) *Store {
	return &Store{kv: kv}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := s.kv.Get(ctx, keyName(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("natskv: get %q: %w", key, err)
	}
	value, storedAt, ttl, ok := decodeEnvelope(entry.Value())
	if !ok {
		return nil, false, nil
	}
	if ttl > 0 && time.Since(storedAt) > ttl {
		_ = s.kv.Delete(ctx, keyName(key))
		return nil, false, nil
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if _, err := s.kv.Put(ctx, keyName(key), encodeEnvelope(value, ttl)); err != nil {
		return fmt.Errorf("natskv: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, keyName(key)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("natskv: delete %q: %w", key, err)
	}
	return nil
}

// Clear purges every key in the bucket, including keys this Store did not
// write.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.kv.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("natskv: clear list: %w", err)
	}
	for k := range keys.Keys() {
		if err := s.kv.Purge(ctx, k); err != nil {
			return fmt.Errorf("natskv: clear purge %q: %w", k, err)
		}
	}
	return nil
}

// Close closes the underlying NATS connection if this Store created it.
func (s *Store) Close() error {
	if s.nc != nil {
		s.nc.Close()
	}
	return nil
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
