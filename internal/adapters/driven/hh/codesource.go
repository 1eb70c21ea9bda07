package hh

import (
	"context"
	"fmt"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/ports/driven"
)

// Ensure StaticCode implements the interface.
var _ driven.AuthCodeSource = StaticCode("")

// StaticCode is an authorization code taken from configuration.
// hh.ru codes are single-use, so this only bootstraps the first pair.
type StaticCode string

// AuthorizationCode returns the configured code.
func (c StaticCode) AuthorizationCode(_ context.Context) (string, error) {
	if c == "" {
		return "", fmt.Errorf("%w: no authorization code configured, run the login command or set hh.authorization_code", domain.ErrNotConfigured)
	}
	return string(c), nil
}
