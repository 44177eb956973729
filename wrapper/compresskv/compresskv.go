// Package compresskv wraps a dogbutler.KeyValueStore to transparently
// compress stored values, trading CPU for storage and transfer size.
// Supports gzip, brotli, and snappy; the stored marker byte records which
// algorithm wrote an entry so a store can be read back correctly even after
// switching algorithms between processes.
package compresskv

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vsirisanthana/dogbutler"
)

// Algorithm identifies a compression scheme.
type Algorithm int

const (
	Gzip Algorithm = iota
	Brotli
	Snappy
)

func (a Algorithm) String() string {
	switch a {
	case Gzip:
		return "gzip"
	case Brotli:
		return "brotli"
	case Snappy:
		return "snappy"
	default:
		return "unknown"
	}
}

// Stats holds running compression statistics for a Store.
type Stats struct {
	CompressedBytes   int64
	UncompressedBytes int64
	CompressedCount   int64
	UncompressedCount int64
	CompressionRatio  float64
	SavingsPercent    float64
}

type compressFunc func([]byte) ([]byte, error)
type decompressFunc func([]byte) ([]byte, error)

// Store wraps a dogbutler.KeyValueStore, compressing values with the
// algorithm it was built with while staying able to decompress entries
// written by any of the three.
type Store struct {
	inner     dogbutler.KeyValueStore
	algorithm Algorithm
	compress  compressFunc
	decompress decompressFunc

	compressedBytes   atomic.Int64
	uncompressedBytes atomic.Int64
	compressedCount   atomic.Int64
	uncompressedCount atomic.Int64
}

func newStore(inner dogbutler.KeyValueStore, algo Algorithm, compress compressFunc, decompress decompressFunc) *Store {
	return &Store{inner: inner, algorithm: algo, compress: compress, decompress: decompress}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if len(data) < 1 {
		return data, true, nil
	}

	marker := data[0]
	if marker == 0 {
		return data[1:], true, nil
	}

	stored := Algorithm(marker - 1)
	decompressFn := s.decompress
	if stored != s.algorithm {
		fn, err := decompressorFor(stored)
		if err != nil {
			dogbutler.GetLogger().Warn("compresskv: unknown stored algorithm", "key", key, "algorithm", stored)
			return nil, false, nil
		}
		decompressFn = fn
	}

	plain, err := decompressFn(data[1:])
	if err != nil {
		dogbutler.GetLogger().Warn("compresskv: decompression failed", "key", key, "algorithm", stored.String(), "error", err)
		return nil, false, nil
	}
	return plain, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	compressed, err := s.compress(value)
	if err != nil {
		dogbutler.GetLogger().Warn("compresskv: compression failed, storing uncompressed", "key", key, "algorithm", s.algorithm.String(), "error", err)
		data := make([]byte, len(value)+1)
		data[0] = 0
		copy(data[1:], value)
		s.uncompressedCount.Add(1)
		s.uncompressedBytes.Add(int64(len(value)))
		return s.inner.Set(ctx, key, data, ttl)
	}

	data := make([]byte, len(compressed)+1)
	data[0] = byte(s.algorithm + 1)
	copy(data[1:], compressed)

	s.compressedCount.Add(1)
	s.compressedBytes.Add(int64(len(compressed)))
	s.uncompressedBytes.Add(int64(len(value)))
	return s.inner.Set(ctx, key, data, ttl)
}

func (s *Store) Delete(ctx context.Context, key string) error { return s.inner.Delete(ctx, key) }
func (s *Store) Clear(ctx context.Context) error               { return s.inner.Clear(ctx) }

// Stats returns a snapshot of this Store's compression statistics.
func (s *Store) Stats() Stats {
	compressed := s.compressedBytes.Load()
	uncompressed := s.uncompressedBytes.Load()
	var ratio, savings float64
	if uncompressed > 0 {
		ratio = float64(compressed) / float64(uncompressed)
		savings = (1.0 - ratio) * 100
	}
	return Stats{
		CompressedBytes:   compressed,
		UncompressedBytes: uncompressed,
		CompressedCount:   s.compressedCount.Load(),
		UncompressedCount: s.uncompressedCount.Load(),
		CompressionRatio:  ratio,
		SavingsPercent:    savings,
	}
}

func decompressorFor(algo Algorithm) (decompressFunc, error) {
	switch algo {
	case Gzip:
		return gzipDecompress, nil
	case Brotli:
		return brotliDecompress, nil
	case Snappy:
		return snappyDecompress, nil
	default:
		return nil, fmt.Errorf("compresskv: unsupported algorithm %v", algo)
	}
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
