// Package redis provides a Redis-backed token store.
//
// Keys are stored as "<namespace>:<key>" so several deployments can share
// one Redis database.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// TokenStore is a Redis implementation of driven.TokenStore.
type TokenStore struct {
	client    goredis.UniversalClient
	namespace string
}

// NewTokenStore connects to Redis and verifies the connection.
func NewTokenStore(ctx context.Context, opts Options, namespace string) (*TokenStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("%w: redis address is required", domain.ErrInvalidInput)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}

	return NewTokenStoreWithClient(client, namespace), nil
}

// NewTokenStoreWithClient wraps an existing client.
func NewTokenStoreWithClient(client goredis.UniversalClient, namespace string) *TokenStore {
	return &TokenStore{client: client, namespace: namespace}
}

func (s *TokenStore) key(key string) string {
	return s.namespace + ":" + key
}

// Get retrieves a value by key.
func (s *TokenStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, s.key(key))
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", s.key(key), err)
	}
	return val, nil
}

// Put stores a single value without expiry.
func (s *TokenStore) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return domain.ErrInvalidInput
	}
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("saving %s: %w", s.key(key), err)
	}
	return nil
}

// PutAll stores all values with a single MSET inside MULTI/EXEC.
func (s *TokenStore) PutAll(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	pairs := make([]any, 0, len(values)*2)
	for key, value := range values {
		if key == "" {
			return domain.ErrInvalidInput
		}
		pairs = append(pairs, s.key(key), value)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.MSet(ctx, pairs...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving %d values: %w", len(values), err)
	}
	return nil
}

// Namespace returns the scope the keys live under.
func (s *TokenStore) Namespace() string {
	return s.namespace
}

// Close releases the connection pool.
func (s *TokenStore) Close() error {
	return s.client.Close()
}
