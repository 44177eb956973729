package compresskv

import (
	"context"
	"testing"

	"github.com/vsirisanthana/dogbutler/store/memstore"
)

func TestGzipRoundTrip(t *testing.T) {
	ctx := context.Background()
	inner := memstore.New(nil)
	s, err := NewGzip(inner, 0)
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte("the quick brown fox jumps over the lazy dog, repeatedly, for compressibility")
	if err := s.Set(ctx, "k", payload, 0); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(got) != string(payload) {
		t.Fatalf("Get = (%q, %v, %v); want original payload", got, ok, err)
	}
	if s.Stats().CompressedCount != 1 {
		t.Fatalf("CompressedCount = %d; want 1", s.Stats().CompressedCount)
	}
}

func TestBrotliRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewBrotli(memstore.New(nil), 0)
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte("brotli payload data data data")
	_ = s.Set(ctx, "k", payload, 0)
	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(got) != string(payload) {
		t.Fatalf("Get = (%q, %v, %v); want original payload", got, ok, err)
	}
}

func TestSnappyRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSnappy(memstore.New(nil))
	payload := []byte("snappy payload")
	_ = s.Set(ctx, "k", payload, 0)
	got, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(got) != string(payload) {
		t.Fatalf("Get = (%q, %v, %v); want original payload", got, ok, err)
	}
}

func TestCrossAlgorithmDecompression(t *testing.T) {
	ctx := context.Background()
	inner := memstore.New(nil)
	payload := []byte("written with gzip, read back through a brotli-configured store")

	gz, err := NewGzip(inner, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := gz.Set(ctx, "k", payload, 0); err != nil {
		t.Fatal(err)
	}

	br, err := NewBrotli(inner, 0)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := br.Get(ctx, "k")
	if err != nil || !ok || string(got) != string(payload) {
		t.Fatalf("Get across algorithms = (%q, %v, %v); want original payload", got, ok, err)
	}
}

func TestInvalidLevelsRejected(t *testing.T) {
	if _, err := NewGzip(memstore.New(nil), 100); err == nil {
		t.Fatal("NewGzip accepted an out-of-range level")
	}
	if _, err := NewBrotli(memstore.New(nil), 100); err == nil {
		t.Fatal("NewBrotli accepted an out-of-range level")
	}
}
