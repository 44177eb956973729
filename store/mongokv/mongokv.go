// Package mongokv is a KeyValueStore backend over MongoDB, for durable,
// shared storage across processes. Rather than a single TTL index with one
// fixed expiry for the whole collection, every entry here records its own
// expiresAt and the collection's TTL index fires at expireAfterSeconds=0,
// so distinct keys can carry distinct per-key ttl values.
package mongokv

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vsirisanthana/dogbutler"
)

// Config configures a Store.
type Config struct {
	// URI is the MongoDB connection URI. Required.
	URI string

	// Database is the database to use. Required.
	Database string

	// Collection is the collection to use. Optional, defaults to "dogbutler".
	Collection string

	// KeyPrefix namespaces every document _id. Optional, defaults to "kv:".
	KeyPrefix string

	// Timeout bounds every operation. Optional, defaults to 5s.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for everything but URI/Database.
func DefaultConfig() Config {
	return Config{Collection: "dogbutler", KeyPrefix: "kv:", Timeout: 5 * time.Second}
}

type document struct {
	ID        string     `bson:"_id"`
	Value     []byte     `bson:"value"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty"`
}

// Store is a dogbutler.KeyValueStore backed by a MongoDB collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	keyPrefix  string
	timeout    time.Duration
}

// New connects to MongoDB per config and ensures the expiresAt TTL index
// exists.
func New(ctx context.Context, config Config) (*Store, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("mongokv: URI is required")
	}
	if config.Database == "" {
		return nil, fmt.Errorf("mongokv: Database is required")
	}
	def := DefaultConfig()
	if config.Collection == "" {
		config.Collection = def.Collection
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = def.KeyPrefix
	}
	if config.Timeout == 0 {
		config.Timeout = def.Timeout
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("mongokv: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongokv: ping: %w", err)
	}

	collection := client.Database(config.Database).Collection(config.Collection)
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("dogbutler_ttl"),
	}
	idxCtx, idxCancel := context.WithTimeout(ctx, config.Timeout)
	defer idxCancel()
	if _, err := collection.Indexes().CreateOne(idxCtx, indexModel); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongokv: create ttl index: %w", err)
	}

	return &Store{client: client, collection: collection, keyPrefix: config.KeyPrefix, timeout: config.Timeout}, nil
}

func (s *Store) docID(key string) string { return s.keyPrefix + key }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": s.docID(key)}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("mongokv: get %q: %w", key, err)
	}
	if doc.ExpiresAt != nil && !doc.ExpiresAt.After(time.Now()) {
		return nil, false, nil
	}
	return doc.Value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	doc := document{ID: s.docID(key), Value: value}
	if ttl > 0 {
		t := time.Now().Add(ttl)
		doc.ExpiresAt = &t
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("mongokv: set %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": s.docID(key)}); err != nil {
		return fmt.Errorf("mongokv: delete %q: %w", key, err)
	}
	return nil
}

// Clear removes every document this Store owns (matched by KeyPrefix).
func (s *Store) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$regex": "^" + s.keyPrefix}}); err != nil {
		return fmt.Errorf("mongokv: clear: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ dogbutler.KeyValueStore = (*Store)(nil)
