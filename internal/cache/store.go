package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/starford/lexis/internal/apperr"
	"github.com/starford/lexis/internal/checksum"
	"github.com/starford/lexis/internal/storage"
)

// ErrMiss is returned by a Store when the key is absent.
var ErrMiss = errors.New("cache: miss")

// Store is the persistent tier. Implementations store opaque encoded
// envelopes; expiry and version checks belong to the Manager.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// FileStore keeps one JSON file per key, named by the key's xxhash.
type FileStore struct {
	fs storage.Provider
}

// NewFileStore creates a file store in dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	fs, err := storage.EnsureFS(dir)
	if err != nil {
		return nil, fmt.Errorf("cache: file store: %w", err)
	}
	return &FileStore{fs: fs}, nil
}

func fileName(key string) string {
	return checksum.String(key) + ".json"
}

func (s *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	data, err := s.fs.Read(fileName(key))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrMiss
	}
	return data, err
}

// Save writes data atomically. ttl is enforced by the envelope.
func (s *FileStore) Save(_ context.Context, key string, data []byte, _ time.Duration) error {
	return s.fs.Write(fileName(key), data)
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	return s.fs.Delete(fileName(key))
}

func (s *FileStore) Clear(_ context.Context) error {
	return s.fs.Clear()
}

// DefaultRedisPrefix namespaces cache keys in Redis.
const DefaultRedisPrefix = "lexis:cache:"

// RedisStore keeps envelopes in Redis under a key prefix.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps client. An empty prefix uses DefaultRedisPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: redis get: %w", err)
	}
	return data, nil
}

// Save stores data with ttl as the Redis expiry. Zero ttl keeps the key.
func (s *RedisStore) Save(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("cache: redis del: %w", err)
	}
	return nil
}

// Clear removes every key under the prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: redis clear: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
