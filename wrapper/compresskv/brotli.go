package compresskv

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/vsirisanthana/dogbutler"
)

// NewBrotli wraps inner with brotli compression at the given level (0-11,
// defaults to 6).
func NewBrotli(inner dogbutler.KeyValueStore, level int) (*Store, error) {
	if level == 0 {
		level = 6
	}
	if level < 0 || level > 11 {
		return nil, fmt.Errorf("compresskv: invalid brotli level %d", level)
	}
	return newStore(inner, Brotli,
		func(data []byte) ([]byte, error) { return brotliCompress(data, level) },
		brotliDecompress,
	), nil
}

func brotliCompress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, level)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("brotli write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("brotli close: %w", err)
	}
	return buf.Bytes(), nil
}

func brotliDecompress(data []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("brotli read: %w", err)
	}
	return out, nil
}
