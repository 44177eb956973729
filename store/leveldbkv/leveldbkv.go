// Package leveldbkv is a KeyValueStore backend over goleveldb, an
// embedded on-disk database for single-process durable storage.
package leveldbkv

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/vsirisanthana/dogbutler"
)

// Store is a dogbutler.KeyValueStore backed by a leveldb.DB.
type Store struct {
	db *leveldb.DB
}

// New opens (or creates) a leveldb database at path.
func New(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("leveldbkv: open %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Make wraps an already-open leveldb.DB.
func Make(db *leveldb.DB) *Store {
	return &Store{db: db}
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
	raw, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("leveldbkv: get %q: %w", key, err)
	}
	value, storedAt, ttl, ok := decodeEnvelope(raw)
	if !ok {
		return nil, false, nil
	}
	if ttl > 0 && time.Since(storedAt) > ttl {
		_ = s.db.Delete([]byte(key), nil)
		return nil, false, nil
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.db.Put([]byte(key), encodeEnvelope(value, ttl), nil); err != nil {
		return fmt.Errorf("leveldbkv: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("leveldbkv: delete %q: %w", key, err)
	}
	return nil
}

// Clear removes every key in the database.
func (s *Store) Clear(ctx context.Context) error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("leveldbkv: clear iterate: %w", err)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("leveldbkv: clear write: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
