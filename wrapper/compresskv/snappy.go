package compresskv

import (
	"fmt"

	"github.com/golang/snappy"

	"github.com/vsirisanthana/dogbutler"
)

// NewSnappy wraps inner with snappy compression.
func NewSnappy(inner dogbutler.KeyValueStore) *Store {
	return newStore(inner, Snappy, snappyCompress, snappyDecompress)
}

func snappyCompress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func snappyDecompress(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decode: %w", err)
	}
	return out, nil
}
