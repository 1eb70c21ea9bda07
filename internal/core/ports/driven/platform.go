package driven

import (
	"context"

	"github.com/gavrilovegor519/hh-autoupdate-resume/internal/core/domain"
)

// JobPlatform is the remote job-search API.
// Token methods return whatever pair the platform issued; the caller
// decides whether it is usable.
type JobPlatform interface {
	// InitialToken obtains the first token pair through an out-of-band
	// authorization (an authorization code).
	InitialToken(ctx context.Context) (*domain.TokenPair, error)

	// RefreshToken exchanges a refresh token for a new pair.
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error)

	// UpdateResume bumps the résumé publication date.
	// An invalid or expired token yields domain.OutcomeUnauthorized.
	UpdateResume(ctx context.Context, resumeID, accessToken string) domain.CallResult
}

// AuthCodeSource supplies the authorization code for the first token grant.
type AuthCodeSource interface {
	// AuthorizationCode returns a one-time code.
	// Blocks until the code is available or ctx is done.
	AuthorizationCode(ctx context.Context) (string, error)
}
