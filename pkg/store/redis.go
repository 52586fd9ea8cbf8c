package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lehigh-university-libraries/ocrdoc/pkg/document"
	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

const (
	// Key prefixes for Redis
	docPrefix  = "ocrdoc:doc:"
	hashPrefix = "ocrdoc:hash:"
)

// RedisStore implements Store using Redis. Documents expire after the
// configured TTL; zero keeps them forever.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// OpenRedis connects to the server in url and verifies it answers.
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisStore(client, 0), nil
}

// Save stores the document and its hash pointer in one transaction
func (s *RedisStore) Save(ctx context.Context, doc *document.Document) error {
	data, err := document.Marshal(doc)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docPrefix+doc.ID, data, s.ttl)
	if doc.ContentHash != nil {
		pipe.Set(ctx, hashPrefix+*doc.ContentHash, doc.ID, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID
func (s *RedisStore) Get(ctx context.Context, id string) (*document.Document, error) {
	data, err := s.client.Get(ctx, docPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return document.Unmarshal(data)
}

// FindByHash resolves the hash pointer and loads the document
func (s *RedisStore) FindByHash(ctx context.Context, hash string) (*document.Document, error) {
	id, err := s.client.Get(ctx, hashPrefix+hash).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document by hash: %w", err)
	}
	return s.Get(ctx, id)
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
