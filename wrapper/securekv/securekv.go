// Package securekv wraps a dogbutler.KeyValueStore to hash every key with
// SHA-256 (always) and, when a passphrase is supplied, encrypt every value
// with AES-256-GCM keyed by a scrypt-derived secret.
package securekv

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/scrypt"

	"github.com/vsirisanthana/dogbutler"
)

const (
	scryptN   = 32768
	scryptR   = 8
	scryptP   = 1
	keyLength = 32
	nonceSize = 12
)

// Config configures a Store.
type Config struct {
	// Passphrase, if non-empty, enables AES-256-GCM encryption of values.
	// Keys are hashed regardless of whether a passphrase is set.
	Passphrase string

	// Salt derives the scrypt key alongside Passphrase. Optional; defaults
	// to a fixed salt, which is fine since the passphrase itself is the
	// secret and salts only need to defend against rainbow tables.
	Salt string
}

// Store is a dogbutler.KeyValueStore that hashes keys and optionally
// encrypts values before delegating to inner.
type Store struct {
	inner      dogbutler.KeyValueStore
	gcm        cipher.AEAD
	passphrase string
}

// New wraps inner. Keys are always hashed; values are encrypted only if
// config.Passphrase is non-empty.
func New(inner dogbutler.KeyValueStore, config Config) (*Store, error) {
	s := &Store{inner: inner, passphrase: config.Passphrase}
	if config.Passphrase != "" {
		if err := s.initEncryption(config); err != nil {
			return nil, fmt.Errorf("securekv: init encryption: %w", err)
		}
	}
	return s, nil
}

func (s *Store) initEncryption(config Config) error {
	salt := config.Salt
	if salt == "" {
		salt = "dogbutler-securekv-salt-v1"
	}
	saltSum := sha256.Sum256([]byte(salt))
	key, err := scrypt.Key([]byte(s.passphrase), saltSum[:], scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("new gcm: %w", err)
	}
	s.gcm = gcm
	return nil
}

func (s *Store) hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (s *Store) encrypt(data []byte) ([]byte, error) {
	if s.gcm == nil {
		return data, nil
	}
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.gcm.Seal(nonce, nonce, data, nil), nil
}

func (s *Store) decrypt(data []byte) ([]byte, error) {
	if s.gcm == nil {
		return data, nil
	}
	if len(data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	hashed := s.hashKey(key)
	data, ok, err := s.inner.Get(ctx, hashed)
	if err != nil || !ok {
		return nil, ok, err
	}
	plain, err := s.decrypt(data)
	if err != nil {
		dogbutler.GetLogger().Warn("securekv: decrypt failed", "key", hashed, "error", err)
		return nil, false, err
	}
	return plain, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	hashed := s.hashKey(key)
	toStore, err := s.encrypt(value)
	if err != nil {
		dogbutler.GetLogger().Warn("securekv: encrypt failed", "key", hashed, "error", err)
		return err
	}
	return s.inner.Set(ctx, hashed, toStore, ttl)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.hashKey(key))
}

func (s *Store) Clear(ctx context.Context) error { return s.inner.Clear(ctx) }

// Encrypted reports whether this Store encrypts values (a passphrase was
// supplied at construction).
func (s *Store) Encrypted() bool { return s.gcm != nil }

var _ dogbutler.KeyValueStore = (*Store)(nil)
