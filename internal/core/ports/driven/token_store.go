package driven

import "context"

// TokenStore persists string values under a fixed namespace.
// The résumé refresher keeps the access and refresh tokens here.
// Values survive process restarts.
type TokenStore interface {
	// Get retrieves a value by key.
	// Returns domain.ErrNotFound if the key is not set.
	Get(ctx context.Context, key string) (string, error)

	// Put stores a single value, replacing any existing one.
	Put(ctx context.Context, key, value string) error

	// PutAll stores several values atomically: either all are written
	// or none are.
	PutAll(ctx context.Context, values map[string]string) error

	// Namespace returns the scope the keys live under.
	Namespace() string
}
