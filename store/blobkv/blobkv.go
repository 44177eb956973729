// Package blobkv is a KeyValueStore backend over a Go CDK blob.Bucket,
// giving cloud-agnostic object storage (S3, GCS, Azure, local filesystem,
// in-memory) behind one interface.
package blobkv

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/vsirisanthana/dogbutler"
)

// Config configures a Store.
type Config struct {
	// BucketURL is the Go CDK blob URL (e.g. "s3://my-bucket?region=us-west-2").
	// Ignored if Bucket is supplied directly.
	BucketURL string

	// KeyPrefix is prepended to every blob key. Optional, defaults to "kv/".
	KeyPrefix string

	// Timeout bounds every blob operation. Optional, defaults to 30s.
	Timeout time.Duration

	// Bucket is an already-opened bucket; takes precedence over BucketURL.
	Bucket *blob.Bucket
}

// DefaultConfig returns sensible defaults for everything but BucketURL.
func DefaultConfig() Config {
	return Config{KeyPrefix: "kv/", Timeout: 30 * time.Second}
}

// Store is a dogbutler.KeyValueStore backed by a blob.Bucket.
type Store struct {
	bucket     *blob.Bucket
	keyPrefix  string
	timeout    time.Duration
	ownsBucket bool
}

// New opens (or reuses) a bucket per config.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.BucketURL == "" && config.Bucket == nil {
		return nil, fmt.Errorf("blobkv: either BucketURL or Bucket must be provided")
	}
	def := DefaultConfig()
	if config.KeyPrefix == "" {
		config.KeyPrefix = def.KeyPrefix
	}
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}

	var bucket *blob.Bucket
	var ownsBucket bool
	if config.Bucket != nil {
		bucket = config.Bucket
	} else {
		var err error
		bucket, err = blob.OpenBucket(ctx, config.BucketURL)
		if err != nil {
			return nil, fmt.Errorf("blobkv: open bucket: %w", err)
		}
		ownsBucket = true
	}

	return &Store{bucket: bucket, keyPrefix: config.KeyPrefix, timeout: config.Timeout, ownsBucket: ownsBucket}, nil
}

// blobkv hashes keys, the way diskkv does, since arbitrary key strings may
// not be valid object-storage path segments.
func (s *Store) blobKey(key string) string {
	h := sha256.New()
	_, _ = io.WriteString(h, key)
	return s.keyPrefix + hex.EncodeToString(h.Sum(nil))
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

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.bucket.ReadAll(ctx, s.blobKey(key))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("blobkv: get %q: %w", key, err)
	}
	value, storedAt, ttl, ok := decodeEnvelope(raw)
	if !ok {
		return nil, false, nil
	}
	if ttl > 0 && time.Since(storedAt) > ttl {
		_ = s.bucket.Delete(ctx, s.blobKey(key))
		return nil, false, nil
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	w, err := s.bucket.NewWriter(ctx, s.blobKey(key), nil)
	if err != nil {
		return fmt.Errorf("blobkv: open writer for %q: %w", key, err)
	}
	if _, err := io.Copy(w, bytes.NewReader(encodeEnvelope(value, ttl))); err != nil {
		_ = w.Close()
		return fmt.Errorf("blobkv: write %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("blobkv: close writer for %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.bucket.Delete(ctx, s.blobKey(key)); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("blobkv: delete %q: %w", key, err)
	}
	return nil
}

// Clear removes every blob under this Store's KeyPrefix.
func (s *Store) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	iter := s.bucket.List(&blob.ListOptions{Prefix: s.keyPrefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("blobkv: clear list: %w", err)
		}
		if err := s.bucket.Delete(ctx, obj.Key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
			return fmt.Errorf("blobkv: clear delete %q: %w", obj.Key, err)
		}
	}
	return nil
}

// Close closes the bucket if this Store opened it itself.
func (s *Store) Close() error {
	if s.ownsBucket {
		return s.bucket.Close()
	}
	return nil
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
