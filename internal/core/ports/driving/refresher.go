package driving

import "context"

// ResumeRefresher keeps the résumé fresh on the job platform.
type ResumeRefresher interface {
	// OnTick runs one authorize-then-update cycle with at most one
	// authorization retry. Returns domain.ErrTickInProgress when another
	// cycle is still running.
	OnTick(ctx context.Context) error

	// Authorize forces the initial token grant, replacing any cached pair.
	Authorize(ctx context.Context) error

	// HasTokens reports whether a complete token pair is cached.
	HasTokens() bool
}
