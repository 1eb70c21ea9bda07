package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
)

// tokenStore implements driven.TokenStore on the preferences table.
type tokenStore struct {
	store     *Store
	namespace string
}

var _ driven.TokenStore = (*tokenStore)(nil)

const upsertPreference = `
	INSERT INTO preferences (namespace, key, value, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(namespace, key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
`

// Get retrieves a value by key.
func (s *tokenStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT value FROM preferences WHERE namespace = ? AND key = ?",
		s.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s/%s", domain.ErrNotFound, s.namespace, key)
	}
	if err != nil {
		return "", fmt.Errorf("reading preference %s: %w", key, err)
	}
	return value, nil
}

// Put stores a single value.
func (s *tokenStore) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return domain.ErrInvalidInput
	}
	if _, err := s.store.db.ExecContext(ctx, upsertPreference, s.namespace, key, value); err != nil {
		return fmt.Errorf("saving preference %s: %w", key, err)
	}
	return nil
}

// PutAll stores all values in one transaction.
func (s *tokenStore) PutAll(ctx context.Context, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		if key == "" {
			return domain.ErrInvalidInput
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertPreference)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, key := range keys {
			if _, err := stmt.ExecContext(ctx, s.namespace, key, values[key]); err != nil {
				return fmt.Errorf("saving preference %s: %w", key, err)
			}
		}
		return nil
	})
}

// Namespace returns the scope the keys live under.
func (s *tokenStore) Namespace() string {
	return s.namespace
}
