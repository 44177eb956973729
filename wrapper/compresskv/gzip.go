package compresskv

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/vsirisanthana/dogbutler"
)

// NewGzip wraps inner with gzip compression at the given level
// (compress/gzip.DefaultCompression if level is 0).
func NewGzip(inner dogbutler.KeyValueStore, level int) (*Store, error) {
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return nil, fmt.Errorf("compresskv: invalid gzip level %d", level)
	}
	return newStore(inner, Gzip,
		func(data []byte) ([]byte, error) { return gzipCompress(data, level) },
		gzipDecompress,
	), nil
}

func gzipCompress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	return out, nil
}
