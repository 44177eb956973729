// Package pgkv is a KeyValueStore backend over PostgreSQL via pgx, for
// teams that already run Postgres and would rather not add a dedicated
// cache store. Expiry is tracked with an explicit expires_at column and
// checked on read, since Postgres has no native per-row TTL.
package pgkv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vsirisanthana/dogbutler"
)

const (
	// DefaultTableName is the table this Store reads and writes.
	DefaultTableName = "dogbutler_kv"
	// DefaultKeyPrefix namespaces every key on top of DefaultTableName.
	DefaultKeyPrefix = "kv:"
)

// Config configures a Store.
type Config struct {
	TableName string
	KeyPrefix string
	Timeout   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{TableName: DefaultTableName, KeyPrefix: DefaultKeyPrefix, Timeout: 5 * time.Second}
}

// Store is a dogbutler.KeyValueStore backed by a Postgres table
// (key text primary key, value bytea, expires_at timestamptz null).
type Store struct {
	pool      *pgxpool.Pool
	tableName string
	keyPrefix string
	timeout   time.Duration
}

// New wraps an already-connected pool. The caller is responsible for the
// table's existence (see EnsureSchema).
func New(pool *pgxpool.Pool, config Config) *Store {
	def := DefaultConfig()
	if config.TableName == "" {
		config.TableName = def.TableName
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = def.KeyPrefix
	}
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}
	return &Store{pool: pool, tableName: config.TableName, keyPrefix: config.KeyPrefix, timeout: config.Timeout}
}

// EnsureSchema creates the backing table if it doesn't already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+s.tableName+` (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		expires_at TIMESTAMPTZ
	)`)
	if err != nil {
		return fmt.Errorf("pgkv: ensure schema: %w", err)
	}
	return nil
}

func (s *Store) fullKey(key string) string { return s.keyPrefix + key }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var value []byte
	var expiresAt *time.Time
	query := `SELECT value, expires_at FROM ` + s.tableName + ` WHERE key = $1`
	err := s.pool.QueryRow(ctx, query, s.fullKey(key)).Scan(&value, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("pgkv: get %q: %w", key, err)
	}
	if expiresAt != nil && !expiresAt.After(time.Now()) {
		return nil, false, nil
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	query := `
		INSERT INTO ` + s.tableName + ` (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, expires_at = $3
	`
	if _, err := s.pool.Exec(ctx, query, s.fullKey(key), value, expiresAt); err != nil {
		return fmt.Errorf("pgkv: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.pool.Exec(ctx, `DELETE FROM `+s.tableName+` WHERE key = $1`, s.fullKey(key)); err != nil {
		return fmt.Errorf("pgkv: delete %q: %w", key, err)
	}
	return nil
}

// Clear removes every row under this Store's KeyPrefix.
func (s *Store) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.pool.Exec(ctx, `DELETE FROM `+s.tableName+` WHERE key LIKE $1`, s.keyPrefix+"%"); err != nil {
		return fmt.Errorf("pgkv: clear: %w", err)
	}
	return nil
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
