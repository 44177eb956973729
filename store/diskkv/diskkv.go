// Package diskkv is a KeyValueStore backend over diskv, giving
// process-restart-surviving storage without running a separate database.
package diskkv

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/peterbourgon/diskv"

	"github.com/vsirisanthana/dogbutler"
)

// Store is a dogbutler.KeyValueStore backed by a diskv.Diskv.
type Store struct {
	d *diskv.Diskv
}

// New returns a Store that writes files under basePath.
func New(basePath string) *Store {
	return &Store{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		CacheSizeMax: 100 * 1024 * 1024,
	})}
}

// NewWithDiskv wraps an already-configured diskv.Diskv.
func NewWithDiskv(d *diskv.Diskv) *Store {
	return &Store{d: d}
}

func keyToFilename(key string) string {
	h := sha256.New()
	_, _ = io.WriteString(h, key)
	return hex.EncodeToString(h.Sum(nil))
}

// diskv has no native TTL, so every value is wrapped with an 8-byte
// stored-at unix-nano header and an 8-byte ttl-nanoseconds header (0 means
// no expiry), mirroring how memstore tracks expiry explicitly rather than
// relying on the backend.
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
	raw, err := s.d.Read(keyToFilename(key))
	if err != nil {
		return nil, false, nil
	}
	value, storedAt, ttl, ok := decodeEnvelope(raw)
	if !ok {
		return nil, false, nil
	}
	if ttl > 0 && time.Since(storedAt) > ttl {
		_ = s.d.Erase(keyToFilename(key))
		return nil, false, nil
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	envelope := encodeEnvelope(value, ttl)
	if err := s.d.WriteStream(keyToFilename(key), bytes.NewReader(envelope), true); err != nil {
		return fmt.Errorf("diskkv: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_ = s.d.Erase(keyToFilename(key))
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	for key := range s.d.Keys(nil) {
		_ = s.d.Erase(key)
	}
	return nil
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
