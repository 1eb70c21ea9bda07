package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore is an in-memory implementation of driven.TokenStore.
// Values are lost when the process exits.
type TokenStore struct {
	mu        sync.RWMutex
	namespace string
	values    map[string]string
}

// NewTokenStore creates an empty token store for the namespace.
func NewTokenStore(namespace string) *TokenStore {
	return &TokenStore{
		namespace: namespace,
		values:    make(map[string]string),
	}
}

// Get retrieves a value by key.
func (s *TokenStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", domain.ErrNotFound, s.namespace, key)
	}
	return val, nil
}

// Put stores a single value.
func (s *TokenStore) Put(_ context.Context, key, value string) error {
	if key == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// PutAll stores all values under one lock.
func (s *TokenStore) PutAll(_ context.Context, values map[string]string) error {
	for key := range values {
		if key == "" {
			return domain.ErrInvalidInput
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range values {
		s.values[key] = value
	}
	return nil
}

// Namespace returns the scope the keys live under.
func (s *TokenStore) Namespace() string {
	return s.namespace
}
